package memory

import (
	"context"
	"sort"
	"sync"

	"flashbattle-quiz-service/internal/domain"
)

// BankRepository keeps banks per room in process memory.
type BankRepository struct {
	mu    sync.RWMutex
	banks map[string]map[string]domain.Bank
}

func NewBankRepository() *BankRepository {
	return &BankRepository{banks: make(map[string]map[string]domain.Bank)}
}

func (r *BankRepository) SaveBank(_ context.Context, roomID string, bank domain.Bank) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.banks[roomID] == nil {
		r.banks[roomID] = make(map[string]domain.Bank)
	}
	bank.Questions = append([]domain.Question(nil), bank.Questions...)
	r.banks[roomID][bank.ID] = bank
	return nil
}

func (r *BankRepository) ListBanks(_ context.Context, roomID string) ([]domain.BankSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BankSummary, 0, len(r.banks[roomID]))
	for _, b := range r.banks[roomID] {
		out = append(out, domain.BankSummary{ID: b.ID, Name: b.Name, Count: len(b.Questions)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *BankRepository) LoadQuestions(_ context.Context, roomID, bankID string) ([]domain.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.banks[roomID][bankID]
	if !ok {
		return []domain.Question{}, nil
	}
	return append([]domain.Question(nil), b.Questions...), nil
}

func (r *BankRepository) DeleteBank(_ context.Context, roomID, bankID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.banks[roomID][bankID]; !ok {
		return false, nil
	}
	delete(r.banks[roomID], bankID)
	return true, nil
}

func (r *BankRepository) DeleteRoomBanks(_ context.Context, roomID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.banks[roomID])
	delete(r.banks, roomID)
	return n, nil
}
