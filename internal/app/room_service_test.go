package app_test

import (
	"context"
	"errors"
	"testing"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/domain"
)

func TestCreateRoomIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	room, err := f.roomSvc.CreateRoom(ctx, "r1", "alice")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.HostID != "alice" || room.CreatedAt == 0 {
		t.Fatalf("unexpected room %+v", room)
	}

	if _, err := f.roomSvc.CreateRoom(ctx, "r1", "bob"); !errors.Is(err, domain.ErrRoomExists) {
		t.Fatalf("expected room_exists, got %v", err)
	}
	stored, err := f.rooms.GetRoom(ctx, "r1")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if stored.HostID != "alice" {
		t.Fatalf("second create must not overwrite host, got %q", stored.HostID)
	}

	if err := f.roomSvc.JoinRoom(ctx, "r1"); err != nil {
		t.Fatalf("join existing room: %v", err)
	}
	if err := f.roomSvc.JoinRoom(ctx, "missing"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room_not_found, got %v", err)
	}
	if _, err := f.roomSvc.CreateRoom(ctx, "", "alice"); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad_request for empty id, got %v", err)
	}
	if _, err := f.roomSvc.CreateRoom(ctx, "r1:nested", "alice"); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad_request for id with ':', got %v", err)
	}
}

func TestDeleteRoomRequiresHostOrAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(app.WithAdminToken("s3cret"))

	if _, err := f.roomSvc.CreateRoom(ctx, "r1", "alice"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.bankSvc.Save(ctx, "r1", "b1", "Bank 1", sampleQuestions(3)); err != nil {
		t.Fatalf("save bank: %v", err)
	}

	if _, err := f.roomSvc.DeleteRoom(ctx, "r1", app.Requester{UserID: "mallory"}); !errors.Is(err, domain.ErrNoPermission) {
		t.Fatalf("expected no_permission, got %v", err)
	}
	if _, err := f.roomSvc.DeleteRoom(ctx, "r1", app.Requester{UserID: "mallory", AdminToken: "wrong"}); !errors.Is(err, domain.ErrNoPermission) {
		t.Fatalf("expected no_permission for wrong token, got %v", err)
	}
	qs, _ := f.bankSvc.Questions(ctx, "r1", "b1")
	if len(qs) != 3 {
		t.Fatalf("denied delete must leave bank intact, got %d questions", len(qs))
	}
	if ok, _ := f.rooms.RoomExists(ctx, "r1"); !ok {
		t.Fatalf("denied delete must leave room intact")
	}

	n, err := f.roomSvc.DeleteRoom(ctx, "r1", app.Requester{UserID: "alice"})
	if err != nil {
		t.Fatalf("host delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected room + bank deleted, got %d", n)
	}
	qs, err = f.bankSvc.Questions(ctx, "r1", "b1")
	if err != nil || len(qs) != 0 {
		t.Fatalf("expected empty bank after delete, got %d (%v)", len(qs), err)
	}

	events := f.bc.snapshot()
	if len(events) != 1 || events[0].room != "r1" || events[0].event != app.EventRoom {
		t.Fatalf("expected one room_deleted broadcast, got %+v", events)
	}
	if ev, ok := events[0].payload.(app.RoomDeletedEvent); !ok || ev.Type != app.RoomEventRoomDeleted {
		t.Fatalf("unexpected payload %+v", events[0].payload)
	}

	if _, err := f.roomSvc.DeleteRoom(ctx, "r1", app.Requester{UserID: "alice"}); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room_not_found on second delete, got %v", err)
	}
}

func TestDeleteRoomWithAdminCapabilities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(app.WithAdminToken("s3cret"))

	_, _ = f.roomSvc.CreateRoom(ctx, "r1", "alice")
	_, _ = f.roomSvc.CreateRoom(ctx, "r2", "alice")

	if _, err := f.roomSvc.DeleteRoom(ctx, "r1", app.Requester{UserID: "ops", AdminToken: "s3cret"}); err != nil {
		t.Fatalf("admin token delete: %v", err)
	}
	if _, err := f.roomSvc.DeleteRoom(ctx, "r2", app.Requester{UserID: "ops", Admin: true}); err != nil {
		t.Fatalf("admin role delete: %v", err)
	}
}

func TestStartSessionPicksDistinctSubset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(app.WithShuffler(app.NewShuffler(42)))

	_, _ = f.roomSvc.CreateRoom(ctx, "r1", "host")
	bank := sampleQuestions(5)
	_ = f.bankSvc.Save(ctx, "r1", "b1", "", bank)

	cases := []struct {
		name  string
		count int
		want  int
	}{
		{"subset", 3, 3},
		{"clamped", 50, 5},
		{"zero means all", 0, 5},
		{"negative means all", -2, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exam, picked, err := f.roomSvc.StartSession(ctx, app.StartSessionRequest{
				RoomID: "r1", BankID: "b1", RequesterID: "host", QuestionCount: tc.count, TimeLimitMinutes: 5,
			})
			if err != nil {
				t.Fatalf("start session: %v", err)
			}
			if len(picked) != tc.want || exam.QuestionCount != tc.want {
				t.Fatalf("expected %d questions, got %d (exam %d)", tc.want, len(picked), exam.QuestionCount)
			}
			seen := map[string]bool{}
			for _, q := range picked {
				if seen[q.Text] {
					t.Fatalf("duplicate question %q", q.Text)
				}
				seen[q.Text] = true
			}
			stored, ok, _ := f.rooms.GetExam(ctx, "r1")
			if !ok || stored.QuestionCount != tc.want || stored.BankID != "b1" {
				t.Fatalf("active exam not persisted: %+v", stored)
			}
		})
	}

	events := f.bc.snapshot()
	last, ok := events[len(events)-1].payload.(app.SessionStartEvent)
	if !ok || last.Type != app.RoomEventSessionStart || last.TimeLimitMinutes != 5 || len(last.Questions) != 5 {
		t.Fatalf("unexpected session_start payload %+v", events[len(events)-1].payload)
	}
}

func TestStartSessionAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, _ = f.roomSvc.CreateRoom(ctx, "r1", "host")
	_ = f.bankSvc.Save(ctx, "r1", "b1", "", sampleQuestions(2))

	if _, _, err := f.roomSvc.StartSession(ctx, app.StartSessionRequest{RoomID: "r1", BankID: "b1", RequesterID: "guest"}); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected not_host, got %v", err)
	}
	if _, _, err := f.roomSvc.StartSession(ctx, app.StartSessionRequest{RoomID: "r1", BankID: "missing", RequesterID: "host"}); !errors.Is(err, domain.ErrEmptyBank) {
		t.Fatalf("expected empty_bank, got %v", err)
	}
	if _, _, err := f.roomSvc.StartSession(ctx, app.StartSessionRequest{RoomID: "nope", BankID: "b1", RequesterID: "host"}); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room_not_found, got %v", err)
	}
	if len(f.bc.snapshot()) != 0 {
		t.Fatalf("failed launches must not broadcast")
	}

	// A room stored without a host accepts anyone.
	_, _ = f.rooms.CreateRoom(ctx, domain.Room{RoomID: "open"})
	_ = f.bankSvc.Save(ctx, "open", "b1", "", sampleQuestions(2))
	if _, _, err := f.roomSvc.StartSession(ctx, app.StartSessionRequest{RoomID: "open", BankID: "b1", RequesterID: "anyone"}); err != nil {
		t.Fatalf("hostless room should accept launch: %v", err)
	}
}
