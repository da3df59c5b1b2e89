package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"livequiz-service/internal/domain"
)

// ResultArchive keeps ended-session summaries in Redis as JSON blobs:
// SET session:results:{sessionID}. Entries expire after the configured
// TTL; zero means keep forever.
type ResultArchive struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultArchive(client *redis.Client, ttl time.Duration) *ResultArchive {
	return &ResultArchive{client: client, ttl: ttl}
}

func (a *ResultArchive) SaveSummary(ctx context.Context, summary domain.SessionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := a.client.Set(ctx, a.key(summary.SessionID), data, a.ttl).Err(); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

func (a *ResultArchive) GetSummary(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	data, err := a.client.Get(ctx, a.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionSummary{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionSummary{}, fmt.Errorf("load summary: %w", err)
	}
	var summary domain.SessionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.SessionSummary{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	return summary, nil
}

func (a *ResultArchive) key(sessionID string) string {
	return "session:results:" + sessionID
}
