package app_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"flashbattle-quiz-service/internal/app"
	"flashbattle-quiz-service/internal/domain"
)

func TestLeaderboardPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i := 1; i <= 25; i++ {
		_ = f.boards.SetScore(ctx, domain.ModeLast, fmt.Sprintf("user%02d", i), float64(i))
	}

	page, err := f.boardSvc.Query(ctx, "last", 2, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 25 || !page.HasNext || len(page.Entries) != 10 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Entries[0].Rank != 11 || page.Entries[0].UserID != "user15" {
		t.Fatalf("expected rank 11 to be user15, got %+v", page.Entries[0])
	}

	last, _ := f.boardSvc.Query(ctx, "last", 3, 10)
	if last.HasNext || len(last.Entries) != 5 {
		t.Fatalf("expected final page of 5, got %+v", last)
	}

	clamped, _ := f.boardSvc.Query(ctx, "last", 0, 500)
	if clamped.Page != 1 || clamped.PageSize != app.MaxPageSize || len(clamped.Entries) != 25 {
		t.Fatalf("expected clamped page 1 size %d, got %+v", app.MaxPageSize, clamped)
	}
	defaulted, _ := f.boardSvc.Query(ctx, "last", 1, 0)
	if defaulted.PageSize != app.DefaultPageSize {
		t.Fatalf("expected default page size, got %d", defaulted.PageSize)
	}
}

func TestLeaderboardHugePageIsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for i := 1; i <= 3; i++ {
		_ = f.boards.SetScore(ctx, domain.ModeLast, fmt.Sprintf("user%d", i), float64(i))
	}

	for _, p := range []int{4, math.MaxInt64/app.MaxPageSize + 2, math.MaxInt64} {
		page, err := f.boardSvc.Query(ctx, "last", p, app.MaxPageSize)
		if err != nil {
			t.Fatalf("page %d: %v", p, err)
		}
		if len(page.Entries) != 0 || page.HasNext || page.Total != 3 {
			t.Fatalf("page %d: expected empty final page, got %+v", p, page)
		}
	}
}

func TestLeaderboardUnknownModeFallsBackToLast(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_ = f.boards.SetScore(ctx, domain.ModeLast, "a", 5)
	_ = f.boards.SetScore(ctx, domain.ModeBest, "a", 50)

	page, err := f.boardSvc.Query(ctx, "weekly", 1, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Mode != domain.ModeLast || len(page.Entries) != 1 || page.Entries[0].Score != 5 {
		t.Fatalf("expected last-mode page, got %+v", page)
	}
}

func TestLeaderboardResolvesNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, _, err := f.authSvc.Register(ctx, "registered", "pw", "Registered Name"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "registered", Name: "ignored", Score: 3})
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "guest", Name: "Guest Name", Score: 2})
	_, _ = f.scoreSvc.Submit(ctx, app.ResultSubmission{PlayerID: "anon", Score: 1})

	page, _ := f.boardSvc.Query(ctx, "last", 1, 10)
	want := map[string]string{"registered": "Registered Name", "guest": "Guest Name", "anon": ""}
	for _, e := range page.Entries {
		if e.Name != want[e.UserID] {
			t.Fatalf("%s: expected name %q, got %q", e.UserID, want[e.UserID], e.Name)
		}
	}
}
