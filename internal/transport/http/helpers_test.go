package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const testAdminToken = "ops-token"

type testEnv struct {
	server  *httptest.Server
	hub     *Hub
	auth    *app.AuthService
	scores  *app.ScoreService
	metrics *Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	users := memory.NewUserRepository()
	players := memory.NewPlayerRepository()
	boards := memory.NewLeaderboard()
	banks := memory.NewBankRepository()
	hub := NewHub(log)

	auth := app.NewAuthService(users, app.AuthConfig{Secret: "test", BcryptCost: 4, Admins: []string{"admin_user"}}, log)
	scores := app.NewScoreService(players, boards, hub, log)
	rooms := app.NewRoomService(memory.NewRoomRepository(), banks, hub, log, app.WithAdminToken(testAdminToken))
	bankSvc := app.NewBankService(banks, log)
	leaderboard := app.NewLeaderboardService(boards, users, players, log)

	metrics := NewMetrics()

	api := NewAPIHandler(auth, scores, leaderboard, log)
	ws := NewWSHandler(rooms, bankSvc, scores, auth, hub, metrics, nil, log)
	server := httptest.NewServer(NewRouter(api, ws, metrics, nil, log))
	t.Cleanup(server.Close)
	return &testEnv{server: server, hub: hub, auth: auth, scores: scores, metrics: metrics}
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	u := "ws" + e.server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	// every connection starts with a leaderboard snapshot
	readNext(t, conn, "leaderboard_update")
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) wsMessage {
	t.Helper()
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%s)", expect, msg.Type, msg.Payload)
	}
	return msg
}

func readAck(t *testing.T, conn *websocket.Conn, expect string) ack {
	t.Helper()
	msg := readNext(t, conn, expect)
	var a ack
	if err := json.Unmarshal(msg.Payload, &a); err != nil {
		t.Fatalf("decode %s: %v", expect, err)
	}
	return a
}

// waitRoomSize polls until the hub reports n members, since joins are
// applied by the server's read loop.
func waitRoomSize(t *testing.T, hub *Hub, roomID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize(roomID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("room %s: expected %d members, got %d", roomID, n, hub.RoomSize(roomID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}
