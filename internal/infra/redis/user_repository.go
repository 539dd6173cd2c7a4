package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"flashbattle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// UserRepository stores credential records; registration uses SETNX.
type UserRepository struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) *UserRepository {
	return &UserRepository{client: client}
}

func (r *UserRepository) CreateUser(ctx context.Context, user domain.UserAuth) (bool, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return false, fmt.Errorf("marshal user: %w", err)
	}
	return r.client.SetNX(ctx, userAuthKey(user.UserID), data, 0).Result()
}

// GetUser fails with a server error when the stored profile cannot be decoded.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (domain.UserAuth, error) {
	raw, err := r.client.Get(ctx, userAuthKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.UserAuth{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserAuth{}, fmt.Errorf("get user: %w", err)
	}
	var user domain.UserAuth
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.UserAuth{}, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return user, nil
}
