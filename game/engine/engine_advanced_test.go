package engine

import (
	"math/rand/v2"
	"testing"
)

// checkInvariants verifies card conservation and structural tableau rules
func checkInvariants(t *testing.T, state *GameState, step int) {
	t.Helper()
	if err := validateState(state); err != nil {
		t.Fatalf("step %d: %v", step, err)
	}
	for f, pile := range state.Foundations {
		for i, c := range pile {
			if int(c.Rank) != i+1 || c.Suit != pile[0].Suit || !c.FaceUp {
				t.Fatalf("step %d: foundation %d is not an ascending single-suit run", step, f)
			}
		}
	}
	for col, pile := range state.Tableau {
		if len(pile) > 0 && !pile[len(pile)-1].FaceUp {
			t.Fatalf("step %d: column %d has a face-down top", step, col)
		}
		seenUp := false
		for _, c := range pile {
			if seenUp && !c.FaceUp {
				t.Fatalf("step %d: column %d has a face-down card above a face-up one", step, col)
			}
			seenUp = seenUp || c.FaceUp
		}
	}
	for _, c := range state.Stock {
		if c.FaceUp {
			t.Fatalf("step %d: face-up card in stock", step)
		}
	}
	if state.Won != (FoundationCount(state) == DeckSize) {
		t.Fatalf("step %d: won flag disagrees with foundations", step)
	}
}

// randomMove attempts one random operation and reports whether it applied
func randomMove(e *GameEngine, r *rand.Rand) bool {
	switch r.IntN(9) {
	case 0:
		return e.DrawCard()
	case 1:
		return e.MoveWasteToFoundation(r.IntN(NumFoundations))
	case 2:
		return e.MoveWasteToTableau(r.IntN(NumColumns))
	case 3:
		return e.MoveTableauToFoundation(r.IntN(NumColumns), r.IntN(NumFoundations))
	case 4:
		from := r.IntN(NumColumns)
		start := 0
		if n := len(e.state.Tableau[from]); n > 0 {
			start = r.IntN(n)
		}
		return e.MoveTableauToTableau(from, r.IntN(NumColumns), start)
	case 5:
		return e.AutoMoveSmart(r.IntN(DeckSize) + 1)
	case 6:
		return e.AutoMoveAces()
	case 7:
		return e.Undo()
	default:
		return e.Redo()
	}
}

func TestRandomPlay_PreservesInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		e, err := NewEngine(DefaultConfig(), WithRandomSource(SeededSource(seed)), WithClock(testClock))
		if err != nil {
			t.Fatal(err)
		}
		r := rand.New(rand.NewPCG(uint64(seed), 7))
		checkInvariants(t, e.state, 0)

		for step := 1; step <= 500; step++ {
			before := e.GetState()
			undoDepth := e.UndoDepth()
			if !randomMove(e, r) {
				if e.UndoDepth() != undoDepth {
					t.Fatalf("seed %d step %d: rejected move changed history", seed, step)
				}
				if before.Moves != e.GetMoves() {
					t.Fatalf("seed %d step %d: rejected move changed move count", seed, step)
				}
			}
			checkInvariants(t, e.state, step)
		}
	}
}

func TestUndoAll_ReturnsToDeal(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), WithRandomSource(SeededSource(42)), WithClock(testClock))
	if err != nil {
		t.Fatal(err)
	}
	deal := e.GetState()
	r := rand.New(rand.NewPCG(42, 1))

	applied := 0
	for i := 0; i < 200; i++ {
		switch r.IntN(3) {
		case 0:
			if e.DrawCard() {
				applied++
			}
		case 1:
			if e.AutoMoveSmart(r.IntN(DeckSize) + 1) {
				applied++
			}
		default:
			if e.AutoMoveAces() {
				applied++
			}
		}
	}
	if applied == 0 {
		t.Fatal("Expected at least one move to apply")
	}

	for e.Undo() {
	}
	got := e.GetState()
	if got.Moves != 0 || got.CardCount() != DeckSize {
		t.Fatalf("Expected to be back at the deal, got %d moves", got.Moves)
	}
	for col := range deal.Tableau {
		if len(got.Tableau[col]) != len(deal.Tableau[col]) {
			t.Errorf("column %d: expected %d cards, got %d", col, len(deal.Tableau[col]), len(got.Tableau[col]))
		}
	}
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := NewEngineWithDefaults(WithRandomSource(SeededSource(7)))
	b := NewEngineWithDefaults(WithRandomSource(SeededSource(7)))
	c := NewEngineWithDefaults(WithRandomSource(SeededSource(8)))

	sa, sb, sc := a.GetState(), b.GetState(), c.GetState()
	same := true
	for i := range sa.Stock {
		if sa.Stock[i].ID != sb.Stock[i].ID {
			t.Fatal("Expected equal seeds to produce equal deals")
		}
		if sa.Stock[i].ID != sc.Stock[i].ID {
			same = false
		}
	}
	if same {
		t.Error("Expected different seeds to produce different deals")
	}
}
