package engine

import (
	"fmt"
	"strconv"
)

// Suit represents one of the four card suits
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists the suits in deck-building order
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank is a card value from 1 (Ace) to 13 (King)
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

const (
	DeckSize       = 52
	NumFoundations = 4
	NumColumns     = 7
	StockAfterDeal = DeckSize - NumColumns*(NumColumns+1)/2
)

// CardID returns the id NewGame assigns to a card: suits in Suits order,
// thirteen ids each, starting at 1. Unknown suits or ranks give 0.
func CardID(suit Suit, rank Rank) int {
	if rank < Ace || rank > King {
		return 0
	}
	for i, s := range Suits {
		if s == suit {
			return i*13 + int(rank)
		}
	}
	return 0
}

// IsRed reports whether the suit is hearts or diamonds
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Valid reports whether s is one of the four suits
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Symbol returns the single-letter suit code used in compact card names
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "H"
	case Diamonds:
		return "D"
	case Clubs:
		return "C"
	case Spades:
		return "S"
	}
	return "?"
}

// String returns the rank as a short label (A, 2..10, J, Q, K)
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	return strconv.Itoa(int(r))
}

// Card is a single playing card. ID is unique and stable for a deal.
type Card struct {
	ID     int  `json:"id"`
	Suit   Suit `json:"suit"`
	Rank   Rank `json:"rank"`
	FaceUp bool `json:"face_up"`
}

// IsRed reports whether the card is a heart or a diamond
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// String returns a compact name such as "QS" or "10H"
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit.Symbol())
}

// Pile is an ordered sequence of cards; the last element is the top
type Pile []Card

// Len returns the number of cards in the pile
func (p Pile) Len() int {
	return len(p)
}

// Top returns the top card and whether the pile was non-empty
func (p Pile) Top() (Card, bool) {
	if len(p) == 0 {
		return Card{}, false
	}
	return p[len(p)-1], true
}

// TopPtr returns a copy of the top card, or nil for an empty pile
func (p Pile) TopPtr() *Card {
	if len(p) == 0 {
		return nil
	}
	c := p[len(p)-1]
	return &c
}

// Clone returns an independent copy of the pile. Empty piles clone to a
// non-nil empty slice so JSON encodes them as [].
func (p Pile) Clone() Pile {
	out := make(Pile, len(p))
	copy(out, p)
	return out
}

// PileKind identifies which group a pile belongs to
type PileKind string

const (
	PileStock      PileKind = "stock"
	PileWaste      PileKind = "waste"
	PileFoundation PileKind = "foundation"
	PileTableau    PileKind = "tableau"
)

// CardLocation describes where a card currently sits
type CardLocation struct {
	Kind     PileKind `json:"kind"`
	Index    int      `json:"index"`    // foundation or column index, 0 for stock/waste
	Position int      `json:"position"` // position inside the pile, 0 is the bottom
	Card     Card     `json:"card"`
}

// GameState represents the complete game state
type GameState struct {
	DealID         string               `json:"deal_id"`
	Stock          Pile                 `json:"stock"`
	Waste          Pile                 `json:"waste"`
	Foundations    [NumFoundations]Pile `json:"foundations"`
	Tableau        [NumColumns]Pile     `json:"tableau"`
	Moves          int                  `json:"moves"`
	StartTimestamp int64                `json:"start_timestamp"` // unix milliseconds
	ElapsedMs      int64                `json:"elapsed_ms"`
	Won            bool                 `json:"won"`
}

// Clone returns a deep copy sharing no slices with the receiver
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Stock = gs.Stock.Clone()
	out.Waste = gs.Waste.Clone()
	for i := range gs.Foundations {
		out.Foundations[i] = gs.Foundations[i].Clone()
	}
	for i := range gs.Tableau {
		out.Tableau[i] = gs.Tableau[i].Clone()
	}
	return &out
}

// CardCount returns the number of cards across every pile
func (gs *GameState) CardCount() int {
	n := len(gs.Stock) + len(gs.Waste)
	for _, f := range gs.Foundations {
		n += len(f)
	}
	for _, c := range gs.Tableau {
		n += len(c)
	}
	return n
}

// SavedGame bundles a state with both history stacks for persistence
type SavedGame struct {
	State *GameState   `json:"state"`
	Undo  []*GameState `json:"undo"`
	Redo  []*GameState `json:"redo"`
}
