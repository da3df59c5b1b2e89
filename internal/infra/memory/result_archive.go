package memory

import (
	"context"
	"sync"

	"livequiz-service/internal/domain"
)

// ResultArchive is an in-memory implementation of app.ResultArchive.
// Summaries stay readable until the process exits.
type ResultArchive struct {
	mu        sync.RWMutex
	summaries map[string]domain.SessionSummary
}

func NewResultArchive() *ResultArchive {
	return &ResultArchive{summaries: make(map[string]domain.SessionSummary)}
}

func (a *ResultArchive) SaveSummary(_ context.Context, summary domain.SessionSummary) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries[summary.SessionID] = summary
	return nil
}

func (a *ResultArchive) GetSummary(_ context.Context, sessionID string) (domain.SessionSummary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	summary, ok := a.summaries[sessionID]
	if !ok {
		return domain.SessionSummary{}, domain.ErrSessionNotFound
	}
	return summary, nil
}
