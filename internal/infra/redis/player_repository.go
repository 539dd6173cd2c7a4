package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"flashbattle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const maxStatsRetries = 16

// ErrStatsContention is returned when the optimistic stats update keeps
// losing to concurrent writers.
var ErrStatsContention = errors.New("stats update contention")

// PlayerRepository stores per-user stats (JSON string), history (capped
// list, newest first) and wrong book (append-only list).
type PlayerRepository struct {
	client *redis.Client
}

func NewPlayerRepository(client *redis.Client) *PlayerRepository {
	return &PlayerRepository{client: client}
}

func (r *PlayerRepository) GetStats(ctx context.Context, userID string) (domain.UserStats, bool, error) {
	raw, err := r.client.Get(ctx, userStatsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.UserStats{}, false, nil
	}
	if err != nil {
		return domain.UserStats{}, false, fmt.Errorf("get stats: %w", err)
	}
	var stats domain.UserStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		// corrupted record reads as a fresh baseline
		return domain.UserStats{}, false, nil
	}
	return stats, true, nil
}

// UpdateStats runs fn inside WATCH/MULTI and retries when another writer
// modified the key in between, so no submission's increment is lost.
func (r *PlayerRepository) UpdateStats(ctx context.Context, userID string, fn func(domain.UserStats) domain.UserStats) (domain.UserStats, error) {
	key := userStatsKey(userID)
	var next domain.UserStats

	txf := func(tx *redis.Tx) error {
		var prev domain.UserStats
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &prev); err != nil {
				prev = domain.UserStats{}
			}
		}

		next = fn(prev)
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxStatsRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.UserStats{}, fmt.Errorf("update stats: %w", err)
	}
	return domain.UserStats{}, ErrStatsContention
}

func (r *PlayerRepository) PushHistory(ctx context.Context, userID string, entry domain.HistoryEntry, limit int) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	key := userHistoryKey(userID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		if limit > 0 {
			pipe.LTrim(ctx, key, 0, int64(limit-1))
		}
		return nil
	})
	return err
}

func (r *PlayerRepository) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	items, err := r.client.LRange(ctx, userHistoryKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	out := make([]domain.HistoryEntry, 0, len(items))
	for _, item := range items {
		var e domain.HistoryEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *PlayerRepository) AppendWrong(ctx context.Context, userID string, questions []domain.WrongQuestion) error {
	values := make([]interface{}, 0, len(questions))
	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal wrong question: %w", err)
		}
		values = append(values, data)
	}
	if len(values) == 0 {
		return nil
	}
	return r.client.RPush(ctx, userWrongKey(userID), values...).Err()
}

func (r *PlayerRepository) WrongBook(ctx context.Context, userID string) ([]domain.WrongQuestion, error) {
	items, err := r.client.LRange(ctx, userWrongKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get wrong book: %w", err)
	}
	out := make([]domain.WrongQuestion, 0, len(items))
	for _, item := range items {
		var q domain.WrongQuestion
		if err := json.Unmarshal([]byte(item), &q); err != nil {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}
