package engine

import "math/rand/v2"

// DefaultSource returns the platform random source
func DefaultSource() RandomSource {
	return rand.Float64
}

// SeededSource returns a deterministic source; equal seeds give equal deals
func SeededSource(seed int64) RandomSource {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	return r.Float64
}

// FixedSource always returns v. Useful for reproducible tests.
func FixedSource(v float64) RandomSource {
	return func() float64 { return v }
}

// FoundationCount returns the number of cards on all foundations
func FoundationCount(state *GameState) int {
	count := 0
	for _, f := range state.Foundations {
		count += len(f)
	}
	return count
}

// LocateCard finds a card by id anywhere in the state
func LocateCard(state *GameState, cardID int) (CardLocation, bool) {
	for i, c := range state.Stock {
		if c.ID == cardID {
			return CardLocation{Kind: PileStock, Position: i, Card: c}, true
		}
	}
	for i, c := range state.Waste {
		if c.ID == cardID {
			return CardLocation{Kind: PileWaste, Position: i, Card: c}, true
		}
	}
	for f, pile := range state.Foundations {
		for i, c := range pile {
			if c.ID == cardID {
				return CardLocation{Kind: PileFoundation, Index: f, Position: i, Card: c}, true
			}
		}
	}
	for col, pile := range state.Tableau {
		for i, c := range pile {
			if c.ID == cardID {
				return CardLocation{Kind: PileTableau, Index: col, Position: i, Card: c}, true
			}
		}
	}
	return CardLocation{}, false
}

// CountFaceDown returns the number of hidden tableau cards
func CountFaceDown(state *GameState) int {
	count := 0
	for _, column := range state.Tableau {
		for _, c := range column {
			if !c.FaceUp {
				count++
			}
		}
	}
	return count
}
