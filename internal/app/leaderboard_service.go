package app

import (
	"context"
	"fmt"

	"flashbattle-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// LeaderboardService serves paginated, name-resolved views of the rankings.
type LeaderboardService struct {
	boards  LeaderboardRepository
	users   UserRepository
	players PlayerRepository
	log     zerolog.Logger
}

func NewLeaderboardService(boards LeaderboardRepository, users UserRepository, players PlayerRepository, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		boards:  boards,
		users:   users,
		players: players,
		log:     log.With().Str("component", "leaderboard").Logger(),
	}
}

// Query returns one page of the ranking for mode. Unknown modes fall back
// to "last"; page is clamped to >= 1 and pageSize to [1, MaxPageSize].
func (s *LeaderboardService) Query(ctx context.Context, mode string, page, pageSize int) (domain.LeaderboardPage, error) {
	m := domain.ParseMode(mode)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	total, err := s.boards.Count(ctx, m)
	if err != nil {
		return domain.LeaderboardPage{}, fmt.Errorf("count %s leaderboard: %w", m, err)
	}
	// pages past the end are answered without computing an offset, which
	// would overflow for very large page numbers
	pages := (total + int64(pageSize) - 1) / int64(pageSize)
	if int64(page-1) >= pages {
		return domain.LeaderboardPage{
			Mode:     m,
			Page:     page,
			PageSize: pageSize,
			Total:    total,
			Entries:  []domain.LeaderboardEntry{},
		}, nil
	}
	offset := (page - 1) * pageSize

	ranked, err := s.boards.Range(ctx, m, offset, pageSize)
	if err != nil {
		return domain.LeaderboardPage{}, fmt.Errorf("range %s leaderboard: %w", m, err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, r := range ranked {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:   offset + i + 1,
			UserID: r.UserID,
			Name:   s.resolveName(ctx, r.UserID),
			Score:  r.Score,
		})
	}
	return domain.LeaderboardPage{
		Mode:     m,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		HasNext:  int64(offset+len(entries)) < total,
		Entries:  entries,
	}, nil
}

// resolveName never fails: a lookup error yields an empty name.
func (s *LeaderboardService) resolveName(ctx context.Context, userID string) string {
	if user, err := s.users.GetUser(ctx, userID); err == nil && user.Name != "" {
		return user.Name
	}
	if stats, ok, err := s.players.GetStats(ctx, userID); err == nil && ok && stats.Name != "" {
		return stats.Name
	}
	return ""
}
