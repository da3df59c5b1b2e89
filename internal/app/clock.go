package app

import (
	"sync"
	"time"
)

// countdown is the per-question timer. It ticks once per interval with
// the seconds remaining and fires onExpire exactly once at zero. Stop
// cancels it; a stopped countdown emits nothing further.
type countdown struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func startCountdown(seconds int, onTick func(remaining int), onExpire func()) *countdown {
	return startCountdownEvery(time.Second, seconds, onTick, onExpire)
}

// startCountdownEvery exists so tests can run the countdown at a faster
// cadence than one tick per second.
func startCountdownEvery(interval time.Duration, seconds int, onTick func(remaining int), onExpire func()) *countdown {
	c := &countdown{stop: make(chan struct{})}

	go func() {
		remaining := seconds
		onTick(remaining)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				remaining--
				select {
				case <-c.stop:
					return
				default:
				}
				if remaining <= 0 {
					onTick(0)
					onExpire()
					return
				}
				onTick(remaining)
			}
		}
	}()

	return c
}

// Stop cancels the countdown. Safe to call more than once and safe to
// call after expiry.
func (c *countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
