package app_test

import (
	"context"
	"errors"
	"testing"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/domain"
)

func TestSubmitAccumulatesStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var stats domain.UserStats
	for _, score := range []float64{10, 30, 20} {
		var err error
		stats, err = f.scoreSvc.Submit(ctx, app.ResultSubmission{
			PlayerID: "u1", Name: "User One", Mode: "room", RoomID: "r1", BankID: "b1",
			Score: score, Total: 10, CorrectCount: int(score / 10),
		})
		if err != nil {
			t.Fatalf("submit %v: %v", score, err)
		}
	}

	if stats.AttemptCount != 3 || stats.BestScore != 30 || stats.LastScore != 20 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.TotalScoreSum != 60 || stats.AvgScore != 20 {
		t.Fatalf("expected sum 60 avg 20, got %+v", stats)
	}
	if stats.Name != "User One" || stats.LastRoomID != "r1" || stats.BankID != "b1" || stats.LastCorrect != 2 {
		t.Fatalf("last-result fields not updated: %+v", stats)
	}

	stored, err := f.scoreSvc.Stats(ctx, "u1")
	if err != nil || stored == nil || stored.AttemptCount != 3 {
		t.Fatalf("stats not persisted: %+v (%v)", stored, err)
	}
	if missing, err := f.scoreSvc.Stats(ctx, "nobody"); err != nil || missing != nil {
		t.Fatalf("expected nil stats for unknown user, got %+v (%v)", missing, err)
	}
}

func TestSubmitRoundsAverage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "u1", Score: 10})
	stats, _ := f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "u1", Score: 15})
	if stats.AvgScore != 13 {
		t.Fatalf("expected avg 12.5 rounded to 13, got %v", stats.AvgScore)
	}
}

func TestSubmitRequiresPlayer(t *testing.T) {
	f := newFixture()
	if _, err := f.scoreSvc.Submit(context.Background(), app.ResultSubmission{Score: 1}); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad_request, got %v", err)
	}
}

func TestSubmitUpdatesLeaderboardsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "a", Score: 10})
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "b", Score: 20})
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "c", Score: 30})

	page, err := f.boardSvc.Query(ctx, "best", 1, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []float64{30, 20, 10}
	if len(page.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(page.Entries))
	}
	for i, e := range page.Entries {
		if e.Score != want[i] || e.Rank != i+1 {
			t.Fatalf("entry %d: %+v", i, e)
		}
	}

	events := f.bc.snapshot()
	if len(events) != 3 {
		t.Fatalf("expected a broadcast per submission, got %d", len(events))
	}
	last := events[2]
	if last.event != app.EventLeaderboardUpdate || last.room != "" {
		t.Fatalf("unexpected broadcast %+v", last)
	}
	flat, ok := last.payload.([]string)
	if !ok {
		t.Fatalf("expected flattened payload, got %T", last.payload)
	}
	wantFlat := []string{"c", "30", "b", "20", "a", "10"}
	if len(flat) != len(wantFlat) {
		t.Fatalf("expected %v, got %v", wantFlat, flat)
	}
	for i := range wantFlat {
		if flat[i] != wantFlat[i] {
			t.Fatalf("expected %v, got %v", wantFlat, flat)
		}
	}
}

func TestHistoryKeepsNewestFifty(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for i := 1; i <= 60; i++ {
		if _, err := f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "u1", Score: float64(i)}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	h, err := f.scoreSvc.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h) != app.HistoryLimit {
		t.Fatalf("expected %d entries, got %d", app.HistoryLimit, len(h))
	}
	if h[0].Score != 60 || h[len(h)-1].Score != 11 {
		t.Fatalf("expected newest first 60..11, got %v..%v", h[0].Score, h[len(h)-1].Score)
	}

	empty, err := f.scoreSvc.History(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil history, got %v (%v)", empty, err)
	}
}

func TestWrongBookAppendsAndFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "u1", Score: 1, WrongQuestions: []domain.WrongQuestion{
		{Topic: "math", Tag: "algebra", Text: "x+1=2"},
		{Topic: "history", Tag: "rome", Text: "first emperor"},
	}})
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "u1", Score: 2, WrongQuestions: []domain.WrongQuestion{
		{Topic: "math", Tag: "geometry", Text: "sum of angles"},
	}})
	// a result without wrong answers leaves the book as is
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "u1", Score: 3})

	all, _ := f.scoreSvc.WrongBook(ctx, "u1", "", "")
	if len(all) != 3 || all[0].Text != "x+1=2" || all[2].Text != "sum of angles" {
		t.Fatalf("expected append order, got %+v", all)
	}
	math, _ := f.scoreSvc.WrongBook(ctx, "u1", "math", "")
	if len(math) != 2 {
		t.Fatalf("expected 2 math entries, got %d", len(math))
	}
	geo, _ := f.scoreSvc.WrongBook(ctx, "u1", "math", "geometry")
	if len(geo) != 1 || geo[0].Text != "sum of angles" {
		t.Fatalf("expected one geometry entry, got %+v", geo)
	}
	none, _ := f.scoreSvc.WrongBook(ctx, "u1", "Math", "")
	if len(none) != 0 {
		t.Fatalf("topic filter must be exact, got %d", len(none))
	}
}
