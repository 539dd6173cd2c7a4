package app_test

import (
	"fmt"
	"sync"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/domain"
	"flashbattle-quiz-service/internal/infra/memory"
	"github.com/rs/zerolog"
)

type broadcast struct {
	room    string
	event   string
	payload any
}

// recordingBroadcaster captures every event instead of delivering it.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (b *recordingBroadcaster) BroadcastRoom(roomID, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcast{room: roomID, event: event, payload: payload})
}

func (b *recordingBroadcaster) BroadcastAll(event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcast{event: event, payload: payload})
}

func (b *recordingBroadcaster) snapshot() []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast(nil), b.events...)
}

type fixture struct {
	rooms   *memory.RoomRepository
	banks   *memory.BankRepository
	users   *memory.UserRepository
	players *memory.PlayerRepository
	boards  *memory.Leaderboard
	bc      *recordingBroadcaster

	roomSvc  *app.RoomService
	bankSvc  *app.BankService
	scoreSvc *app.ScoreService
	boardSvc *app.LeaderboardService
	authSvc  *app.AuthService
}

func newFixture(opts ...app.RoomOption) *fixture {
	f := &fixture{
		rooms:   memory.NewRoomRepository(),
		banks:   memory.NewBankRepository(),
		users:   memory.NewUserRepository(),
		players: memory.NewPlayerRepository(),
		boards:  memory.NewLeaderboard(),
		bc:      &recordingBroadcaster{},
	}
	log := zerolog.Nop()
	f.roomSvc = app.NewRoomService(f.rooms, f.banks, f.bc, log, opts...)
	f.bankSvc = app.NewBankService(f.banks, log)
	f.scoreSvc = app.NewScoreService(f.players, f.boards, f.bc, log)
	f.boardSvc = app.NewLeaderboardService(f.boards, f.users, f.players, log)
	f.authSvc = app.NewAuthService(f.users, app.AuthConfig{
		Secret:     "test-secret",
		BcryptCost: 4,
		Admins:     []string{"root_user"},
	}, log)
	return f
}

func sampleQuestions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			Topic:   "math",
			Text:    fmt.Sprintf("question %d", i),
			Options: []string{"a", "b", "c"},
			Answers: []int{i % 3},
			Type:    domain.QuestionSingle,
		}
	}
	return qs
}
