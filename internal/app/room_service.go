package app

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"flashbattle-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// Room events sent through the broadcaster.
const (
	EventRoom              = "room_event"
	RoomEventSessionStart  = "session_start"
	RoomEventRoomDeleted   = "room_deleted"
	EventLeaderboardUpdate = "leaderboard_update"
)

// Requester identifies the caller of a privileged room action.
type Requester struct {
	UserID string
	// Admin is set for authenticated connections whose user holds the admin role.
	Admin bool
	// AdminToken is an operator token supplied with the request, if any.
	AdminToken string
}

// StartSessionRequest describes a host launching an exam in a room.
type StartSessionRequest struct {
	RoomID      string
	BankID      string
	RequesterID string
	// QuestionCount <= 0 means every question in the bank.
	QuestionCount    int
	TimeLimitMinutes float64
}

// SessionStartEvent is broadcast to every member of the room.
type SessionStartEvent struct {
	Type             string            `json:"type"`
	RoomID           string            `json:"roomId"`
	BankID           string            `json:"bankId"`
	QuestionCount    int               `json:"questionCount"`
	TimeLimitMinutes float64           `json:"timeLimitMinutes,omitempty"`
	Questions        []domain.Question `json:"questions"`
}

// RoomDeletedEvent is broadcast to a room right before its data is gone.
type RoomDeletedEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// RoomService owns room identity, host authorization and exam launches.
type RoomService struct {
	rooms       RoomRepository
	banks       BankRepository
	broadcaster Broadcaster
	shuffler    *Shuffler
	adminToken  string
	now         func() time.Time
	log         zerolog.Logger
}

// RoomOption customizes a RoomService.
type RoomOption func(*RoomService)

// WithShuffler replaces the random source used for question selection.
func WithShuffler(s *Shuffler) RoomOption {
	return func(r *RoomService) { r.shuffler = s }
}

// WithAdminToken sets the operator token accepted for privileged room actions.
func WithAdminToken(token string) RoomOption {
	return func(r *RoomService) { r.adminToken = token }
}

// WithRoomClock is used by tests for deterministic timestamps.
func WithRoomClock(now func() time.Time) RoomOption {
	return func(r *RoomService) { r.now = now }
}

func NewRoomService(rooms RoomRepository, banks BankRepository, broadcaster Broadcaster, log zerolog.Logger, opts ...RoomOption) *RoomService {
	s := &RoomService{
		rooms:       rooms,
		banks:       banks,
		broadcaster: broadcaster,
		shuffler:    newDefaultShuffler(),
		now:         time.Now,
		log:         log.With().Str("component", "rooms").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom registers roomID with hostID as its host. A second creation of
// the same id fails with domain.ErrRoomExists and leaves the first intact.
func (s *RoomService) CreateRoom(ctx context.Context, roomID, hostID string) (domain.Room, error) {
	if !domain.ValidScopeID(roomID) {
		return domain.Room{}, domain.ErrBadRequest
	}
	room := domain.Room{RoomID: roomID, HostID: hostID, CreatedAt: s.now().UnixMilli()}
	created, err := s.rooms.CreateRoom(ctx, room)
	if err != nil {
		return domain.Room{}, fmt.Errorf("create room %s: %w", roomID, err)
	}
	if !created {
		return domain.Room{}, domain.ErrRoomExists
	}
	s.log.Info().Str("room", roomID).Str("host", hostID).Msg("room created")
	return room, nil
}

// JoinRoom checks that roomID exists. Membership itself has no capacity limit.
func (s *RoomService) JoinRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return domain.ErrBadRequest
	}
	ok, err := s.rooms.RoomExists(ctx, roomID)
	if err != nil {
		return fmt.Errorf("join room %s: %w", roomID, err)
	}
	if !ok {
		return domain.ErrRoomNotFound
	}
	return nil
}

// ListRooms returns every known room id.
func (s *RoomService) ListRooms(ctx context.Context) ([]string, error) {
	return s.rooms.ListRooms(ctx)
}

// DeleteRoom removes the room and all of its banks when the requester is the
// host or holds an admin capability, then notifies the room's members.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string, req Requester) (int, error) {
	if roomID == "" {
		return 0, domain.ErrBadRequest
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if !s.authorized(room, req) {
		s.log.Warn().Str("room", roomID).Str("requester", req.UserID).Msg("room delete denied")
		return 0, domain.ErrNoPermission
	}

	deleted, err := s.PurgeRoom(ctx, roomID)
	if err != nil {
		return deleted, err
	}
	s.broadcaster.BroadcastRoom(roomID, EventRoom, RoomDeletedEvent{Type: RoomEventRoomDeleted, RoomID: roomID})
	s.log.Info().Str("room", roomID).Int("keys", deleted).Msg("room deleted")
	return deleted, nil
}

// PurgeRoom removes every room- and bank-scoped entry for roomID without any
// authorization check. It is meant for operator tooling.
func (s *RoomService) PurgeRoom(ctx context.Context, roomID string) (int, error) {
	n, err := s.rooms.DeleteRoom(ctx, roomID)
	if err != nil {
		return 0, fmt.Errorf("delete room %s: %w", roomID, err)
	}
	b, err := s.banks.DeleteRoomBanks(ctx, roomID)
	if err != nil {
		return n, fmt.Errorf("delete banks of room %s: %w", roomID, err)
	}
	return n + b, nil
}

func (s *RoomService) authorized(room domain.Room, req Requester) bool {
	if req.UserID != "" && req.UserID == room.HostID {
		return true
	}
	if req.Admin {
		return true
	}
	return s.adminToken != "" && req.AdminToken != "" &&
		subtle.ConstantTimeCompare([]byte(s.adminToken), []byte(req.AdminToken)) == 1
}

// StartSession picks a random subset of the bank, stores it as the room's
// active exam and broadcasts it to every member of the room.
func (s *RoomService) StartSession(ctx context.Context, req StartSessionRequest) (domain.ExamSession, []domain.Question, error) {
	if req.RoomID == "" || req.BankID == "" {
		return domain.ExamSession{}, nil, domain.ErrBadRequest
	}
	room, err := s.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return domain.ExamSession{}, nil, err
	}
	// Rooms without a recorded host accept launches from anyone.
	if room.HostID != "" && room.HostID != req.RequesterID {
		return domain.ExamSession{}, nil, domain.ErrNotHost
	}

	all, err := s.banks.LoadQuestions(ctx, req.RoomID, req.BankID)
	if err != nil {
		return domain.ExamSession{}, nil, fmt.Errorf("load bank %s/%s: %w", req.RoomID, req.BankID, err)
	}
	if len(all) == 0 {
		return domain.ExamSession{}, nil, domain.ErrEmptyBank
	}

	picked := s.pick(all, req.QuestionCount)
	exam := domain.ExamSession{
		RoomID:           req.RoomID,
		BankID:           req.BankID,
		QuestionCount:    len(picked),
		TimeLimitMinutes: req.TimeLimitMinutes,
		CreatedAt:        s.now().UnixMilli(),
	}
	if err := s.rooms.SaveExam(ctx, exam); err != nil {
		return domain.ExamSession{}, nil, fmt.Errorf("save exam %s: %w", req.RoomID, err)
	}

	s.broadcaster.BroadcastRoom(req.RoomID, EventRoom, SessionStartEvent{
		Type:             RoomEventSessionStart,
		RoomID:           req.RoomID,
		BankID:           req.BankID,
		QuestionCount:    len(picked),
		TimeLimitMinutes: req.TimeLimitMinutes,
		Questions:        picked,
	})
	s.log.Info().Str("room", req.RoomID).Str("bank", req.BankID).Int("questions", len(picked)).Msg("session started")
	return exam, picked, nil
}

// pick returns min(count, len(all)) distinct questions in shuffled order.
func (s *RoomService) pick(all []domain.Question, count int) []domain.Question {
	n := len(all)
	if count <= 0 || count > n {
		count = n
	}
	perm := s.shuffler.Permutation(n)
	picked := make([]domain.Question, 0, count)
	for _, i := range perm[:count] {
		picked = append(picked, all[i])
	}
	return picked
}
