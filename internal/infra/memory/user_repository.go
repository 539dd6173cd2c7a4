package memory

import (
	"context"
	"sync"

	"flashbattle-quiz-service/internal/domain"
)

// UserRepository is an in-memory credential store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.UserAuth
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.UserAuth)}
}

func (r *UserRepository) CreateUser(_ context.Context, user domain.UserAuth) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.UserID]; ok {
		return false, nil
	}
	r.users[user.UserID] = user
	return true, nil
}

func (r *UserRepository) GetUser(_ context.Context, userID string) (domain.UserAuth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.UserAuth{}, domain.ErrUserNotFound
	}
	return u, nil
}
