package app

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"flashbattle-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// HistoryLimit is the number of most recent results kept per user.
	HistoryLimit = 50
	// BroadcastTopN is the size of the leaderboard snapshot pushed after each submission.
	BroadcastTopN = 10
)

// ResultSubmission is one exam result reported by a client.
type ResultSubmission struct {
	PlayerID       string
	Name           string
	Mode           string
	RoomID         string
	BankID         string
	Score          float64
	Total          int
	CorrectCount   int
	WrongQuestions []domain.WrongQuestion
}

// ScoreService aggregates exam results into stats, history, the wrong book
// and the global leaderboards.
//
// The steps of a submission touch distinct keys and are not transactional:
// a failure part-way leaves the earlier steps applied. Only the stats
// read-modify-write is serialized per user by the repository.
type ScoreService struct {
	players     PlayerRepository
	boards      LeaderboardRepository
	broadcaster Broadcaster
	now         func() time.Time
	log         zerolog.Logger
}

func NewScoreService(players PlayerRepository, boards LeaderboardRepository, broadcaster Broadcaster, log zerolog.Logger) *ScoreService {
	return &ScoreService{
		players:     players,
		boards:      boards,
		broadcaster: broadcaster,
		now:         time.Now,
		log:         log.With().Str("component", "scores").Logger(),
	}
}

// Submit ingests one result.
func (s *ScoreService) Submit(ctx context.Context, sub ResultSubmission) (domain.UserStats, error) {
	if sub.PlayerID == "" {
		return domain.UserStats{}, domain.ErrBadRequest
	}
	now := s.now().UnixMilli()

	stats, err := s.players.UpdateStats(ctx, sub.PlayerID, func(prev domain.UserStats) domain.UserStats {
		return accumulate(prev, sub, now)
	})
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("update stats %s: %w", sub.PlayerID, err)
	}

	if len(sub.WrongQuestions) > 0 {
		if err := s.players.AppendWrong(ctx, sub.PlayerID, sub.WrongQuestions); err != nil {
			return stats, fmt.Errorf("append wrong book %s: %w", sub.PlayerID, err)
		}
	}

	entry := domain.HistoryEntry{
		Score:        sub.Score,
		Total:        sub.Total,
		CorrectCount: sub.CorrectCount,
		Mode:         sub.Mode,
		RoomID:       sub.RoomID,
		BankID:       sub.BankID,
		Timestamp:    now,
	}
	if err := s.players.PushHistory(ctx, sub.PlayerID, entry, HistoryLimit); err != nil {
		return stats, fmt.Errorf("push history %s: %w", sub.PlayerID, err)
	}

	scores := map[domain.LeaderboardMode]float64{
		domain.ModeLast: sub.Score,
		domain.ModeBest: stats.BestScore,
		domain.ModeAvg:  stats.AvgScore,
	}
	for _, mode := range domain.LeaderboardModes {
		if err := s.boards.SetScore(ctx, mode, sub.PlayerID, scores[mode]); err != nil {
			return stats, fmt.Errorf("update %s leaderboard: %w", mode, err)
		}
	}

	top, err := s.TopLast(ctx, BroadcastTopN)
	if err != nil {
		// The result is stored; only the push is lost.
		s.log.Error().Err(err).Msg("load leaderboard snapshot")
		return stats, nil
	}
	s.broadcaster.BroadcastAll(EventLeaderboardUpdate, top)
	return stats, nil
}

func accumulate(prev domain.UserStats, sub ResultSubmission, now int64) domain.UserStats {
	next := prev
	if sub.Name != "" {
		next.Name = sub.Name
	}
	next.LastScore = sub.Score
	next.TotalQuestions = sub.Total
	next.LastCorrect = sub.CorrectCount
	next.AttemptCount = prev.AttemptCount + 1
	next.BestScore = math.Max(prev.BestScore, sub.Score)
	next.TotalScoreSum = prev.TotalScoreSum + sub.Score
	next.AvgScore = math.Round(next.TotalScoreSum / float64(next.AttemptCount))
	next.Mode = sub.Mode
	next.LastRoomID = sub.RoomID
	next.BankID = sub.BankID
	next.UpdatedAt = now
	return next
}

// TopLast returns the top n of the last-score leaderboard flattened as
// [userId, score, userId, score, ...].
func (s *ScoreService) TopLast(ctx context.Context, n int) ([]string, error) {
	top, err := s.boards.Range(ctx, domain.ModeLast, 0, n)
	if err != nil {
		return nil, err
	}
	flat := make([]string, 0, len(top)*2)
	for _, r := range top {
		flat = append(flat, r.UserID, strconv.FormatFloat(r.Score, 'f', -1, 64))
	}
	return flat, nil
}

// Stats returns the user's stats, or nil when the user never submitted.
func (s *ScoreService) Stats(ctx context.Context, userID string) (*domain.UserStats, error) {
	stats, ok, err := s.players.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get stats %s: %w", userID, err)
	}
	if !ok {
		return nil, nil
	}
	return &stats, nil
}

// History returns up to HistoryLimit entries, newest first.
func (s *ScoreService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	h, err := s.players.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get history %s: %w", userID, err)
	}
	if h == nil {
		h = []domain.HistoryEntry{}
	}
	return h, nil
}

// WrongBook returns the user's wrong answers, filtered by exact topic and
// tag when those are non-empty.
func (s *ScoreService) WrongBook(ctx context.Context, userID, topic, tag string) ([]domain.WrongQuestion, error) {
	all, err := s.players.WrongBook(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wrong book %s: %w", userID, err)
	}
	out := make([]domain.WrongQuestion, 0, len(all))
	for _, q := range all {
		if topic != "" && q.Topic != topic {
			continue
		}
		if tag != "" && q.Tag != tag {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}
