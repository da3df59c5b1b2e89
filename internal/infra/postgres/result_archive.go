package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"livequiz-service/internal/domain"
)

// ResultArchive persists ended-session summaries as JSONB rows in the
// session_results table.
type ResultArchive struct {
	pool *pgxpool.Pool
}

func NewResultArchive(pool *pgxpool.Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

func (a *ResultArchive) SaveSummary(ctx context.Context, summary domain.SessionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO session_results (id, quiz_id, ended_at, data)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, ended_at = EXCLUDED.ended_at`,
		summary.SessionID, summary.QuizID, summary.EndedAt, data)
	if err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

func (a *ResultArchive) GetSummary(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	var raw []byte
	err := a.pool.QueryRow(ctx, `SELECT data FROM session_results WHERE id=$1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionSummary{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionSummary{}, fmt.Errorf("load summary: %w", err)
	}
	var summary domain.SessionSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.SessionSummary{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	return summary, nil
}
