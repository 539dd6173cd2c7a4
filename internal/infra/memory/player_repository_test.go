package memory

import (
	"context"
	"testing"

	"flashbattle-quiz-service/internal/domain"
)

func TestPlayerHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository()
	for i := 1; i <= 5; i++ {
		_ = repo.PushHistory(ctx, "u1", domain.HistoryEntry{Score: float64(i)}, 3)
	}
	h, _ := repo.History(ctx, "u1")
	if len(h) != 3 || h[0].Score != 5 || h[2].Score != 3 {
		t.Fatalf("unexpected history %+v", h)
	}

	// returned slices are copies
	h[0].Score = 100
	again, _ := repo.History(ctx, "u1")
	if again[0].Score != 5 {
		t.Fatalf("history leaked internal state")
	}
}
