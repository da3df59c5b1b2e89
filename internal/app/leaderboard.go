package app

import (
	"sort"
	"time"

	"livequiz-service/internal/domain"
)

// BuildLeaderboard ranks a snapshot of participants: score descending,
// ties broken by earliest join, then user id so repeated builds over the
// same input always produce the same total order. Ranks are 1-based and
// tied scores still get distinct consecutive ranks.
func BuildLeaderboard(sessionID string, participants []domain.Participant, now time.Time) domain.Leaderboard {
	ordered := make([]domain.Participant, len(participants))
	copy(ordered, participants)

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if !ordered[i].JoinedAt.Equal(ordered[j].JoinedAt) {
			return ordered[i].JoinedAt.Before(ordered[j].JoinedAt)
		}
		return ordered[i].UserID < ordered[j].UserID
	})

	entries := make([]domain.LeaderboardEntry, len(ordered))
	for i, p := range ordered {
		entries[i] = domain.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		}
	}
	return domain.Leaderboard{
		SessionID: sessionID,
		Entries:   entries,
		UpdatedAt: now,
	}
}
