package app

import (
	"context"

	"flashbattle-quiz-service/internal/domain"
)

// RoomRepository stores rooms and their active exam descriptor.
type RoomRepository interface {
	// CreateRoom persists room unless its id is taken; created is false when it already existed.
	CreateRoom(ctx context.Context, room domain.Room) (created bool, err error)
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
	ListRooms(ctx context.Context) ([]string, error)
	// DeleteRoom removes every room-scoped entry and returns how many were removed.
	DeleteRoom(ctx context.Context, roomID string) (int, error)
	SaveExam(ctx context.Context, exam domain.ExamSession) error
	GetExam(ctx context.Context, roomID string) (domain.ExamSession, bool, error)
}

// BankRepository stores question banks keyed by (roomID, bankID).
type BankRepository interface {
	SaveBank(ctx context.Context, roomID string, bank domain.Bank) error
	ListBanks(ctx context.Context, roomID string) ([]domain.BankSummary, error)
	// LoadQuestions returns an empty list when the bank is absent or unreadable.
	LoadQuestions(ctx context.Context, roomID, bankID string) ([]domain.Question, error)
	DeleteBank(ctx context.Context, roomID, bankID string) (bool, error)
	DeleteRoomBanks(ctx context.Context, roomID string) (int, error)
}

// UserRepository stores credential records.
type UserRepository interface {
	// CreateUser persists user unless the id is taken.
	CreateUser(ctx context.Context, user domain.UserAuth) (created bool, err error)
	GetUser(ctx context.Context, userID string) (domain.UserAuth, error)
}

// PlayerRepository stores per-user results: stats, history and wrong book.
type PlayerRepository interface {
	GetStats(ctx context.Context, userID string) (domain.UserStats, bool, error)
	// UpdateStats applies fn to the current stats (zero value when absent)
	// and persists the result as one read-modify-write per user.
	UpdateStats(ctx context.Context, userID string, fn func(domain.UserStats) domain.UserStats) (domain.UserStats, error)
	PushHistory(ctx context.Context, userID string, entry domain.HistoryEntry, limit int) error
	History(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
	AppendWrong(ctx context.Context, userID string, questions []domain.WrongQuestion) error
	WrongBook(ctx context.Context, userID string) ([]domain.WrongQuestion, error)
}

// LeaderboardRepository is a score-ordered set per mode. Setting a user's
// score replaces any previous score for that mode.
type LeaderboardRepository interface {
	SetScore(ctx context.Context, mode domain.LeaderboardMode, userID string, score float64) error
	// Range returns members ordered by descending score, starting at offset.
	Range(ctx context.Context, mode domain.LeaderboardMode, offset, limit int) ([]domain.RankedScore, error)
	Count(ctx context.Context, mode domain.LeaderboardMode) (int64, error)
}

// Broadcaster is the real-time fan-out channel. Delivery is best effort:
// no acknowledgement and no replay for late joiners.
type Broadcaster interface {
	BroadcastRoom(roomID, event string, payload any)
	BroadcastAll(event string, payload any)
}
