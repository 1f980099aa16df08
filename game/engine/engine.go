package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	NewGame() *GameState
	GetState() *GameState
	SetState(state *GameState) error
	Snapshot() *GameState
	Restore(state *GameState) error
	IsWon() bool
	GetMoves() int
	Tick(now time.Time)

	// Move operations
	DrawCard() bool
	MoveWasteToFoundation(foundationIndex int) bool
	MoveWasteToTableau(columnIndex int) bool
	MoveTableauToFoundation(columnIndex, foundationIndex int) bool
	MoveTableauToTableau(fromColumn, toColumn, startIndex int) bool
	AutoMove(cardID int, policy AutoMovePolicy) bool
	AutoMoveCard(cardID int) bool
	AutoMoveSmart(cardID int) bool
	AutoComplete() bool
	AutoMoveAces() bool

	// History
	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// Persistence
	Export() *SavedGame
	Import(saved *SavedGame) error
}

// RandomSource returns a uniform value in [0,1)
type RandomSource func() float64

// Option customises a GameEngine at construction
type Option func(*GameEngine)

// WithRandomSource replaces the shuffle source
func WithRandomSource(rng RandomSource) Option {
	return func(e *GameEngine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithClock replaces the time source used for start timestamps
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state  *GameState
	config *GameConfig
	undo   []*GameState
	redo   []*GameState
	rng    RandomSource
	now    func() time.Time
}

// NewEngine creates a new game engine with the provided rule profile and
// deals the first game
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := newGameEngine(config, opts)
	e.NewGame()
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the classic profile
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e := newGameEngine(DefaultConfig(), opts)
	e.NewGame()
	return e
}

func newGameEngine(config *GameConfig, opts []Option) *GameEngine {
	e := &GameEngine{
		config: config,
		rng:    DefaultSource(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewGame shuffles a fresh deck, deals it and clears both history stacks
func (e *GameEngine) NewGame() *GameState {
	deck := make(Pile, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			deck = append(deck, Card{ID: CardID(suit, rank), Suit: suit, Rank: rank})
		}
	}

	// Fisher-Yates
	for i := len(deck) - 1; i > 0; i-- {
		j := int(e.rng() * float64(i+1))
		if j > i {
			j = i
		} else if j < 0 {
			j = 0
		}
		deck[i], deck[j] = deck[j], deck[i]
	}

	state := &GameState{
		DealID:         uuid.NewString(),
		Waste:          Pile{},
		StartTimestamp: e.now().UnixMilli(),
	}
	for i := range state.Foundations {
		state.Foundations[i] = Pile{}
	}
	for col := 0; col < NumColumns; col++ {
		column := make(Pile, 0, col+1)
		for row := 0; row <= col; row++ {
			card := deck[len(deck)-1]
			deck = deck[:len(deck)-1]
			card.FaceUp = row == col
			column = append(column, card)
		}
		state.Tableau[col] = column
	}
	state.Stock = deck

	e.state = state
	e.undo = nil
	e.redo = nil
	return e.state.Clone()
}

// GetState returns a deep copy of the current state
func (e *GameEngine) GetState() *GameState {
	return e.state.Clone()
}

// Snapshot returns a deep copy of the current state for later Restore
func (e *GameEngine) Snapshot() *GameState {
	return e.state.Clone()
}

// Restore replaces the current state with a copy of state without touching
// history. It is meant for speculative moves that the caller wants to revert.
func (e *GameEngine) Restore(state *GameState) error {
	if err := validateState(state); err != nil {
		return err
	}
	e.state = state.Clone()
	return nil
}

// SetState replaces the current state and clears history (used when loading)
func (e *GameEngine) SetState(state *GameState) error {
	if err := e.Restore(state); err != nil {
		return err
	}
	e.undo = nil
	e.redo = nil
	return nil
}

// IsWon returns whether all 52 cards reached the foundations
func (e *GameEngine) IsWon() bool {
	return e.state.Won
}

// GetMoves returns the move counter
func (e *GameEngine) GetMoves() int {
	return e.state.Moves
}

// Tick updates the elapsed time. It is a no-op without a start timestamp.
func (e *GameEngine) Tick(now time.Time) {
	if e.state.StartTimestamp == 0 {
		return
	}
	e.state.ElapsedMs = now.UnixMilli() - e.state.StartTimestamp
}

// Undo restores the most recent snapshot, pushing the current state to redo
func (e *GameEngine) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	prev := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, e.state.Clone())
	e.state = prev.Clone()
	return true
}

// Redo re-applies the most recently undone state
func (e *GameEngine) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	next := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, e.state.Clone())
	e.state = next.Clone()
	return true
}

// CanUndo reports whether there is history to undo
func (e *GameEngine) CanUndo() bool {
	return len(e.undo) > 0
}

// CanRedo reports whether there is undone history to redo
func (e *GameEngine) CanRedo() bool {
	return len(e.redo) > 0
}

// UndoDepth returns the number of undo snapshots
func (e *GameEngine) UndoDepth() int {
	return len(e.undo)
}

// RedoDepth returns the number of redo snapshots
func (e *GameEngine) RedoDepth() int {
	return len(e.redo)
}

// GetConfig returns the current rule profile
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig swaps the rule profile. The current deal is kept; profiles only
// affect auto-move policy and messages.
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}
	e.config = config
	return nil
}

// Export returns the state and both history stacks as independent copies
func (e *GameEngine) Export() *SavedGame {
	return &SavedGame{
		State: e.state.Clone(),
		Undo:  cloneStates(e.undo),
		Redo:  cloneStates(e.redo),
	}
}

// Import replaces state and history with a previously exported game
func (e *GameEngine) Import(saved *SavedGame) error {
	if saved == nil {
		return fmt.Errorf("saved game cannot be nil")
	}
	if err := validateState(saved.State); err != nil {
		return err
	}
	for i, s := range saved.Undo {
		if err := validateState(s); err != nil {
			return fmt.Errorf("undo snapshot %d: %w", i, err)
		}
	}
	for i, s := range saved.Redo {
		if err := validateState(s); err != nil {
			return fmt.Errorf("redo snapshot %d: %w", i, err)
		}
	}
	e.state = saved.State.Clone()
	e.undo = cloneStates(saved.Undo)
	e.redo = cloneStates(saved.Redo)
	return nil
}

// pushUndo records the current state before a mutation and discards redo
func (e *GameEngine) pushUndo() {
	e.undo = append(e.undo, e.state.Clone())
	e.redo = nil
}

// checkWin sets Won once every card sits on a foundation
func (e *GameEngine) checkWin() {
	if FoundationCount(e.state) == DeckSize {
		e.state.Won = true
	}
}

func cloneStates(states []*GameState) []*GameState {
	if len(states) == 0 {
		return nil
	}
	out := make([]*GameState, len(states))
	for i, s := range states {
		out[i] = s.Clone()
	}
	return out
}

// validateState checks that state holds each of the 52 cards exactly once,
// every card carrying the id NewGame gives its suit and rank
func validateState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if n := state.CardCount(); n != DeckSize {
		return fmt.Errorf("state must hold %d cards, got %d", DeckSize, n)
	}
	seen := make(map[int]bool, DeckSize)
	check := func(p Pile) error {
		for _, c := range p {
			if want := CardID(c.Suit, c.Rank); want == 0 || c.ID != want {
				return fmt.Errorf("card id %d does not match %s of %s", c.ID, c.Rank, c.Suit)
			}
			if seen[c.ID] {
				return fmt.Errorf("card id %d appears more than once", c.ID)
			}
			seen[c.ID] = true
		}
		return nil
	}
	if err := check(state.Stock); err != nil {
		return err
	}
	if err := check(state.Waste); err != nil {
		return err
	}
	for _, f := range state.Foundations {
		if err := check(f); err != nil {
			return err
		}
	}
	for _, c := range state.Tableau {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}
