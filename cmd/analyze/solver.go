package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/wricardo/klondike-solitaire-game/game/engine"
)

const defaultMaxSteps = 5000

// DealResult is the outcome of one solver run
type DealResult struct {
	Seed        int64
	DealID      string
	Won         bool
	Moves       int
	Foundations int // cards on the foundations at the end
	FaceDown    int // hidden tableau cards at the end
}

func (r DealResult) String() string {
	status := "stuck"
	if r.Won {
		status = "won"
	}
	return fmt.Sprintf("seed=%d deal=%s %s moves=%d foundations=%d face_down=%d",
		r.Seed, r.DealID, status, r.Moves, r.Foundations, r.FaceDown)
}

// DealStats aggregates solver results over many deals
type DealStats struct {
	Deals            int
	Won              int
	TotalWinMoves    int
	TotalFoundations int
	TotalFaceDown    int
}

func (s *DealStats) add(r DealResult) {
	s.Deals++
	if r.Won {
		s.Won++
		s.TotalWinMoves += r.Moves
	}
	s.TotalFoundations += r.Foundations
	s.TotalFaceDown += r.FaceDown
}

// WinRate returns the fraction of deals won
func (s DealStats) WinRate() float64 {
	if s.Deals == 0 {
		return 0
	}
	return float64(s.Won) / float64(s.Deals)
}

func (s DealStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deals played: %d\n", s.Deals)
	fmt.Fprintf(&b, "Won: %d (%.1f%%)\n", s.Won, s.WinRate()*100)
	if s.Won > 0 {
		fmt.Fprintf(&b, "Average moves per win: %.1f\n", float64(s.TotalWinMoves)/float64(s.Won))
	}
	if s.Deals > 0 {
		fmt.Fprintf(&b, "Average foundation cards: %.1f\n", float64(s.TotalFoundations)/float64(s.Deals))
		fmt.Fprintf(&b, "Average face-down cards left: %.1f\n", float64(s.TotalFaceDown)/float64(s.Deals))
	}
	return b.String()
}

// playDeals plays count deals starting at seed. onResult sees every deal.
func playDeals(ctx context.Context, cfg *engine.GameConfig, seed int64, count, maxSteps int, onResult func(DealResult)) (DealStats, error) {
	var stats DealStats
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s := seed + int64(i)
		eng, err := engine.NewEngine(cfg, engine.WithRandomSource(engine.SeededSource(s)))
		if err != nil {
			return stats, fmt.Errorf("create engine: %w", err)
		}
		r := solve(eng, maxSteps)
		r.Seed = s
		stats.add(r)
		if onResult != nil {
			onResult(r)
		}
	}
	return stats, nil
}

// solve plays greedily until the game is won, nothing productive remains
// for a full pass through the stock, or maxSteps runs out
func solve(eng *engine.GameEngine, maxSteps int) DealResult {
	idleDraws := 0
	for step := 0; step < maxSteps && !eng.IsWon(); step++ {
		if greedyStep(eng) {
			idleDraws = 0
			continue
		}
		state := eng.GetState()
		if idleDraws > len(state.Stock)+len(state.Waste) {
			break
		}
		if !eng.DrawCard() {
			break
		}
		idleDraws++
	}

	state := eng.GetState()
	return DealResult{
		DealID:      state.DealID,
		Won:         state.Won,
		Moves:       state.Moves,
		Foundations: engine.FoundationCount(state),
		FaceDown:    engine.CountFaceDown(state),
	}
}

// greedyStep performs the first productive move in priority order:
// foundations, runs that uncover a hidden card, then the waste to the
// tableau. Every move it makes shrinks the hidden or undealt cards, so the
// solver cannot cycle.
func greedyStep(eng *engine.GameEngine) bool {
	if eng.AutoComplete() {
		return true
	}
	state := eng.GetState()

	if top, ok := state.Waste.Top(); ok && eng.AutoMoveCard(top.ID) {
		return true
	}

	for from, column := range state.Tableau {
		start := firstFaceUp(column)
		if start <= 0 {
			// Nothing hidden underneath; moving the run gains nothing
			continue
		}
		for to := range state.Tableau {
			if to != from && eng.MoveTableauToTableau(from, to, start) {
				return true
			}
		}
	}

	if _, ok := state.Waste.Top(); ok {
		for to := range state.Tableau {
			if eng.MoveWasteToTableau(to) {
				return true
			}
		}
	}
	return false
}

// firstFaceUp returns the index of the first face-up card, or -1
func firstFaceUp(column engine.Pile) int {
	for i, c := range column {
		if c.FaceUp {
			return i
		}
	}
	return -1
}
