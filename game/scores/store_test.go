package scores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "scores.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBest_Empty(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Best(context.Background())
	if !errors.Is(err, ErrNoBestScore) {
		t.Errorf("Expected ErrNoBestScore, got %v", err)
	}
}

func TestRecordWin_DominanceRule(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	steps := []struct {
		name        string
		win         Win
		wantNewBest bool
		wantMoves   int
		wantElapsed int64
	}{
		{"first win", Win{DealID: "a", Moves: 100, ElapsedMs: 200_000}, true, 100, 200_000},
		{"slower and longer", Win{DealID: "b", Moves: 120, ElapsedMs: 250_000}, false, 100, 200_000},
		{"equal result", Win{DealID: "c", Moves: 100, ElapsedMs: 200_000}, false, 100, 200_000},
		{"faster with more moves", Win{DealID: "d", Moves: 130, ElapsedMs: 150_000}, true, 130, 150_000},
		{"fewer moves but slower", Win{DealID: "e", Moves: 90, ElapsedMs: 160_000}, true, 90, 160_000},
		{"strictly better", Win{DealID: "f", Moves: 80, ElapsedMs: 100_000}, true, 80, 100_000},
	}

	for _, step := range steps {
		newBest, err := store.RecordWin(ctx, step.win)
		if err != nil {
			t.Fatalf("%s: RecordWin failed: %v", step.name, err)
		}
		if newBest != step.wantNewBest {
			t.Errorf("%s: newBest = %v, want %v", step.name, newBest, step.wantNewBest)
		}
		best, err := store.Best(ctx)
		if err != nil {
			t.Fatalf("%s: Best failed: %v", step.name, err)
		}
		if best.Moves != step.wantMoves || best.ElapsedMs != step.wantElapsed {
			t.Errorf("%s: best = %d moves / %d ms, want %d / %d",
				step.name, best.Moves, best.ElapsedMs, step.wantMoves, step.wantElapsed)
		}
	}
}

func TestRecordWin_OncePerDeal(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.RecordWin(ctx, Win{DealID: "deal", Moves: 100, ElapsedMs: 1000}); err != nil {
		t.Fatal(err)
	}
	newBest, err := store.RecordWin(ctx, Win{DealID: "deal", Moves: 1, ElapsedMs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if newBest {
		t.Error("Expected a repeated deal to be ignored")
	}
	wins, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(wins) != 1 || wins[0].Moves != 100 {
		t.Errorf("Expected one recorded win with 100 moves, got %+v", wins)
	}
}

func TestRecordWin_RequiresDealID(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.RecordWin(context.Background(), Win{Moves: 1}); err == nil {
		t.Error("Expected error for empty deal id")
	}
}

func TestResetBest_KeepsHistory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	store.RecordWin(ctx, Win{DealID: "a", Moves: 100, ElapsedMs: 1000})

	if err := store.ResetBest(ctx); err != nil {
		t.Fatalf("ResetBest failed: %v", err)
	}
	if _, err := store.Best(ctx); !errors.Is(err, ErrNoBestScore) {
		t.Errorf("Expected no best score after reset, got %v", err)
	}
	wins, _ := store.Leaderboard(ctx, 0)
	if len(wins) != 1 {
		t.Errorf("Expected win history to survive reset, got %d entries", len(wins))
	}

	newBest, err := store.RecordWin(ctx, Win{DealID: "b", Moves: 200, ElapsedMs: 5000})
	if err != nil || !newBest {
		t.Errorf("Expected first win after reset to become best, got %v %v", newBest, err)
	}
}

func TestLeaderboard_Order(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.UnixMilli(1_700_000_000_000)

	wins := []Win{
		{DealID: "slow", Moves: 50, ElapsedMs: 300, WonAt: base},
		{DealID: "fast-late", Moves: 90, ElapsedMs: 100, WonAt: base.Add(2 * time.Minute)},
		{DealID: "fast-early", Moves: 90, ElapsedMs: 100, WonAt: base.Add(time.Minute)},
		{DealID: "fast-fewer", Moves: 80, ElapsedMs: 100, WonAt: base.Add(3 * time.Minute)},
	}
	for _, w := range wins {
		if _, err := store.RecordWin(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"fast-fewer", "fast-early", "fast-late", "slow"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range got {
		if w.DealID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], w.DealID)
		}
	}
	if !got[1].WonAt.Equal(base.Add(time.Minute)) {
		t.Errorf("Expected won_at to round-trip, got %v", got[1].WonAt)
	}

	limited, _ := store.Leaderboard(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.db")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	store.RecordWin(ctx, Win{DealID: "a", Moves: 10, ElapsedMs: 10})
	store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer reopened.Close()
	best, err := reopened.Best(ctx)
	if err != nil || best.DealID != "a" {
		t.Errorf("Expected best score to persist, got %+v %v", best, err)
	}
}
