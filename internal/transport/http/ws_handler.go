package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// WSHandler serves the real-time room protocol.
type WSHandler struct {
	rooms    *app.RoomService
	banks    *app.BankService
	scores   *app.ScoreService
	auth     *app.AuthService
	hub      *Hub
	metrics  *Metrics
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(rooms *app.RoomService, banks *app.BankService, scores *app.ScoreService, auth *app.AuthService, hub *Hub, metrics *Metrics, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		rooms:   rooms,
		banks:   banks,
		scores:  scores,
		auth:    auth,
		hub:     hub,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// connState is owned by a single connection's read loop and never shared.
type connState struct {
	client        *client
	userID        string
	name          string
	authenticated bool
	admin         bool
	room          string
}

// identity is the player id used for host checks: the logged-in id, or the
// connection id before login.
func (s *connState) identity() string {
	if s.userID != "" {
		return s.userID
	}
	return s.client.id
}

// ServeWS upgrades HTTP requests to websockets and dispatches room events.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	state := &connState{client: &client{
		id:   uuid.NewString(),
		send: make(chan outboundMessage[any], 64),
	}}
	log := h.log.With().Str("conn", state.client.id).Logger()
	log.Debug().Msg("client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range state.client.send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				// Unblock the reader; keep draining until send is closed.
				_ = conn.Close()
			}
		}
	}()

	h.hub.register(state.client)
	h.metrics.connOpened()
	ctx := r.Context()
	if top, err := h.scores.TopLast(ctx, app.BroadcastTopN); err == nil {
		h.reply(state, app.EventLeaderboardUpdate, top)
	} else {
		log.Error().Err(err).Msg("load leaderboard snapshot")
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.metrics.observeEvent(inbound.Type)
		h.dispatch(ctx, state, inbound, log)
	}

	h.hub.unregister(state.client)
	h.metrics.connClosed()
	close(state.client.send)
	<-writerDone
	log.Debug().Msg("client disconnected")
}

func (h *WSHandler) reply(state *connState, event string, payload any) {
	state.client.send <- outboundMessage[any]{Type: event, Payload: payload}
}

// fail logs unexpected failures and returns the code sent to the client.
func (h *WSHandler) fail(log zerolog.Logger, event string, err error) string {
	if domain.KindOf(err) == domain.KindServerError {
		log.Error().Err(err).Str("event", event).Msg("event failed")
	}
	return domain.CodeOf(err)
}

func (h *WSHandler) dispatch(ctx context.Context, state *connState, in inboundMessage, log zerolog.Logger) {
	// the room may have been deleted by another connection
	if state.room != "" && !h.hub.inRoom(state.client, state.room) {
		state.room = ""
	}
	switch in.Type {
	case "login":
		var p loginPayload
		_ = decode(in.Payload, &p)
		h.handleLogin(ctx, state, p, log)

	case "create_room":
		var p roomPayload
		if err := decode(in.Payload, &p); err != nil || p.RoomID == "" {
			h.reply(state, "create_room_ack", ack{Error: domain.ErrBadRequest.Code})
			return
		}
		if _, err := h.rooms.CreateRoom(ctx, p.RoomID, state.identity()); err != nil {
			h.reply(state, "create_room_ack", ack{Error: h.fail(log, in.Type, err), RoomID: p.RoomID})
			return
		}
		h.enterRoom(state, p.RoomID)
		h.reply(state, "create_room_ack", ack{OK: true, RoomID: p.RoomID})

	case "join_room":
		var p roomPayload
		if err := decode(in.Payload, &p); err != nil || p.RoomID == "" {
			h.reply(state, "join_error", ack{Error: domain.ErrBadRequest.Code})
			return
		}
		if err := h.rooms.JoinRoom(ctx, p.RoomID); err != nil {
			h.reply(state, "join_error", ack{Error: h.fail(log, in.Type, err), RoomID: p.RoomID})
			return
		}
		h.enterRoom(state, p.RoomID)
		h.reply(state, "joined", roomPayload{RoomID: p.RoomID})

	case "list_banks":
		banks, err := h.banks.List(ctx, state.room)
		if err != nil {
			h.reply(state, "bank_error", bankError{Type: h.fail(log, in.Type, err)})
			return
		}
		h.reply(state, "bank_list", banks)

	case "load_bank_questions":
		var p bankPayload
		_ = decode(in.Payload, &p)
		questions, err := h.banks.Questions(ctx, state.room, p.BankID)
		if err != nil {
			h.reply(state, "bank_error", bankError{Type: h.fail(log, in.Type, err)})
			return
		}
		h.reply(state, "bank_questions", bankQuestions{BankID: p.BankID, Questions: questions})

	case "delete_bank":
		var p bankPayload
		_ = decode(in.Payload, &p)
		if err := h.banks.Delete(ctx, state.room, p.BankID); err != nil {
			h.reply(state, "delete_bank_ack", ack{Error: h.fail(log, in.Type, err), BankID: p.BankID})
			return
		}
		h.reply(state, "delete_bank_ack", ack{OK: true, BankID: p.BankID})

	case "import_bank_text":
		var p importBankPayload
		if err := decode(in.Payload, &p); err != nil {
			h.reply(state, "import_bank_ack", ack{Error: domain.ErrBadRequest.Code})
			return
		}
		n, err := h.banks.Import(ctx, state.room, p.BankID, p.BankName, p.Filename, p.Content)
		if err != nil {
			h.reply(state, "import_bank_ack", ack{Error: h.fail(log, in.Type, err)})
			return
		}
		h.reply(state, "import_bank_ack", ack{OK: true, RoomID: state.room, BankID: p.BankID, Count: &n})

	case "start_room_exam":
		var p startExamPayload
		if err := decode(in.Payload, &p); err != nil {
			h.reply(state, "room_exam_ack", ack{Error: domain.ErrBadRequest.Code})
			return
		}
		_, _, err := h.rooms.StartSession(ctx, app.StartSessionRequest{
			RoomID:           p.RoomID,
			BankID:           p.BankID,
			RequesterID:      state.identity(),
			QuestionCount:    int(p.QuestionCount),
			TimeLimitMinutes: float64(p.TimeLimitMinutes),
		})
		if err != nil {
			h.reply(state, "room_exam_ack", ack{Error: h.fail(log, in.Type, err), RoomID: p.RoomID})
			return
		}
		h.reply(state, "room_exam_ack", ack{OK: true, RoomID: p.RoomID, BankID: p.BankID})

	case "delete_room":
		var p deleteRoomPayload
		if err := decode(in.Payload, &p); err != nil || p.RoomID == "" {
			h.reply(state, "delete_room_ack", ack{Error: domain.ErrBadRequest.Code})
			return
		}
		token := p.AdminToken
		if token == "" {
			token = p.DevPassword
		}
		n, err := h.rooms.DeleteRoom(ctx, p.RoomID, app.Requester{
			UserID:     state.identity(),
			Admin:      state.authenticated && state.admin,
			AdminToken: token,
		})
		if err != nil {
			h.reply(state, "delete_room_ack", ack{Error: h.fail(log, in.Type, err), RoomID: p.RoomID})
			return
		}
		h.hub.closeRoom(p.RoomID)
		if state.room == p.RoomID {
			state.room = ""
		}
		h.reply(state, "delete_room_ack", ack{OK: true, RoomID: p.RoomID, Deleted: &n})

	default:
		h.reply(state, "error", errorPayload{Message: "unsupported message type"})
	}
}

func (h *WSHandler) handleLogin(ctx context.Context, state *connState, p loginPayload, log zerolog.Logger) {
	state.authenticated, state.admin = false, false
	if p.Token != "" {
		claims, err := h.auth.ParseToken(p.Token)
		if err != nil {
			h.reply(state, "login_error", errorPayload{Message: "invalid_token"})
			return
		}
		state.userID = claims.Subject
		state.authenticated = true
		state.admin = claims.Role == app.RoleAdmin
		if profile, err := h.auth.Profile(ctx, claims.Subject); err == nil && p.Name == "" {
			p.Name = profile.Name
		}
	} else {
		id := strings.TrimSpace(p.UserID)
		if id == "" {
			id = strings.TrimSpace(p.Name)
		}
		if id == "" {
			id = state.client.id
		} else {
			// registered accounts can only be claimed with their token
			_, err := h.auth.Profile(ctx, id)
			switch {
			case err == nil:
				h.reply(state, "login_error", errorPayload{Message: "token_required"})
				return
			case !errors.Is(err, domain.ErrUserNotFound):
				log.Error().Err(err).Str("user", id).Msg("check registered user on login")
				h.reply(state, "login_error", errorPayload{Message: domain.CodeOf(err)})
				return
			}
		}
		state.userID = id
	}
	state.name = p.Name
	if state.name == "" {
		state.name = state.userID
	}

	var stats any = struct{}{}
	if s, err := h.scores.Stats(ctx, state.userID); err != nil {
		log.Error().Err(err).Msg("load stats on login")
	} else if s != nil {
		stats = s
	}
	wrong, err := h.scores.WrongBook(ctx, state.userID, "", "")
	if err != nil {
		log.Error().Err(err).Msg("load wrong book on login")
		wrong = []domain.WrongQuestion{}
	}
	h.reply(state, "login_ack", loginAck{
		PlayerID:       state.userID,
		Name:           state.name,
		Stats:          stats,
		WrongQuestions: wrong,
	})
}

// enterRoom moves the connection into roomID; a connection is a member of
// at most one room.
func (h *WSHandler) enterRoom(state *connState, roomID string) {
	if state.room != "" && state.room != roomID {
		h.hub.leave(state.client, state.room)
	}
	h.hub.join(state.client, roomID)
	state.room = roomID
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
