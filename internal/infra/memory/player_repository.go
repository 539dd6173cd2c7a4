package memory

import (
	"context"
	"sync"

	"flashbattle-quiz-service/internal/domain"
)

// PlayerRepository keeps stats, history and wrong books in process memory.
// UpdateStats holds the lock for the whole read-modify-write.
type PlayerRepository struct {
	mu      sync.Mutex
	stats   map[string]domain.UserStats
	history map[string][]domain.HistoryEntry
	wrong   map[string][]domain.WrongQuestion
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{
		stats:   make(map[string]domain.UserStats),
		history: make(map[string][]domain.HistoryEntry),
		wrong:   make(map[string][]domain.WrongQuestion),
	}
}

func (r *PlayerRepository) GetStats(_ context.Context, userID string) (domain.UserStats, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[userID]
	return s, ok, nil
}

func (r *PlayerRepository) UpdateStats(_ context.Context, userID string, fn func(domain.UserStats) domain.UserStats) (domain.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := fn(r.stats[userID])
	r.stats[userID] = next
	return next, nil
}

func (r *PlayerRepository) PushHistory(_ context.Context, userID string, entry domain.HistoryEntry, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := append([]domain.HistoryEntry{entry}, r.history[userID]...)
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	r.history[userID] = h
	return nil
}

func (r *PlayerRepository) History(_ context.Context, userID string) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.HistoryEntry(nil), r.history[userID]...), nil
}

func (r *PlayerRepository) AppendWrong(_ context.Context, userID string, questions []domain.WrongQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wrong[userID] = append(r.wrong[userID], questions...)
	return nil
}

func (r *PlayerRepository) WrongBook(_ context.Context, userID string) ([]domain.WrongQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.WrongQuestion(nil), r.wrong[userID]...), nil
}
