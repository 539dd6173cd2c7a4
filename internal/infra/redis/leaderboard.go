package redis

import (
	"context"
	"fmt"

	"flashbattle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Leaderboard keeps one sorted set per mode.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

func (l *Leaderboard) SetScore(ctx context.Context, mode domain.LeaderboardMode, userID string, score float64) error {
	return l.client.ZAdd(ctx, leaderboardKey(mode), redis.Z{Score: score, Member: userID}).Err()
}

func (l *Leaderboard) Range(ctx context.Context, mode domain.LeaderboardMode, offset, limit int) ([]domain.RankedScore, error) {
	if limit <= 0 {
		return []domain.RankedScore{}, nil
	}
	zs, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey(mode), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("range leaderboard: %w", err)
	}
	out := make([]domain.RankedScore, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		out = append(out, domain.RankedScore{UserID: member, Score: z.Score})
	}
	return out, nil
}

func (l *Leaderboard) Count(ctx context.Context, mode domain.LeaderboardMode) (int64, error) {
	return l.client.ZCard(ctx, leaderboardKey(mode)).Result()
}
