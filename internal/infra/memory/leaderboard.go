package memory

import (
	"context"
	"sort"
	"sync"

	"flashbattle-quiz-service/internal/domain"
)

// Leaderboard mirrors Redis sorted-set ordering: score descending, ties in
// reverse member order.
type Leaderboard struct {
	mu     sync.RWMutex
	scores map[domain.LeaderboardMode]map[string]float64
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{scores: make(map[domain.LeaderboardMode]map[string]float64)}
}

func (l *Leaderboard) SetScore(_ context.Context, mode domain.LeaderboardMode, userID string, score float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.scores[mode] == nil {
		l.scores[mode] = make(map[string]float64)
	}
	l.scores[mode][userID] = score
	return nil
}

func (l *Leaderboard) Range(_ context.Context, mode domain.LeaderboardMode, offset, limit int) ([]domain.RankedScore, error) {
	l.mu.RLock()
	all := make([]domain.RankedScore, 0, len(l.scores[mode]))
	for id, s := range l.scores[mode] {
		all = append(all, domain.RankedScore{UserID: id, Score: s})
	}
	l.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].UserID > all[j].UserID
	})
	if offset < 0 || offset >= len(all) || limit <= 0 {
		return []domain.RankedScore{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (l *Leaderboard) Count(_ context.Context, mode domain.LeaderboardMode) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.scores[mode])), nil
}
