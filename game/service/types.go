package service

import (
	"time"

	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/scores"
)

// Move actions accepted by ApplyMove
const (
	ActionDraw                = "draw"
	ActionWasteToFoundation   = "waste_to_foundation"
	ActionWasteToTableau      = "waste_to_tableau"
	ActionTableauToFoundation = "tableau_to_foundation"
	ActionTableauToTableau    = "tableau_to_tableau"
	ActionAuto                = "auto"
	ActionAutoFoundation      = "auto_foundation"
	ActionAutoSmart           = "auto_smart"
	ActionAutoComplete        = "auto_complete"
	ActionAutoAces            = "auto_aces"
	ActionUndo                = "undo"
	ActionRedo                = "redo"
	ActionNewGame             = "new_game"
)

// Actions lists every action ApplyMove understands
var Actions = []string{
	ActionDraw, ActionWasteToFoundation, ActionWasteToTableau,
	ActionTableauToFoundation, ActionTableauToTableau, ActionAuto,
	ActionAutoFoundation, ActionAutoSmart, ActionAutoComplete, ActionAutoAces,
}

// Event types reported in MoveResult.Events
const (
	EventMove       = "move"
	EventReveal     = "reveal"
	EventRecycle    = "recycle"
	EventFoundation = "foundation"
	EventVictory    = "victory"
	EventAutoAces   = "auto_aces"
	EventUndo       = "undo"
	EventRedo       = "redo"
	EventNewGame    = "new_game"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
	CanUndo        bool               `json:"can_undo"`
	CanRedo        bool               `json:"can_redo"`
}

// MoveRequest describes one player action. Indexes are zero-based; which
// fields matter depends on Action.
type MoveRequest struct {
	Action     string `json:"action"`
	Column     int    `json:"column,omitempty"`      // source column
	ToColumn   int    `json:"to_column,omitempty"`   // target column
	Foundation int    `json:"foundation,omitempty"`  // target foundation
	StartIndex *int   `json:"start_index,omitempty"` // run start for tableau_to_tableau; nil means the top card
	CardID     int    `json:"card_id,omitempty"`     // card for auto, auto_foundation and auto_smart
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success    bool              `json:"success"`
	Action     string            `json:"action"`
	GameState  *engine.GameState `json:"game_state"`
	Message    string            `json:"message"`
	Events     []GameEvent       `json:"events,omitempty"`
	MovesDelta int               `json:"moves_delta"`
	CanUndo    bool              `json:"can_undo"`
	CanRedo    bool              `json:"can_redo"`
	NewBest    bool              `json:"new_best,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Card      *engine.Card `json:"card,omitempty"`
}

// MoveLogEntry is one attempted action in a session's move log. Rejected
// attempts are logged too.
type MoveLogEntry struct {
	Seq       int         `json:"seq"`
	Action    string      `json:"action"`
	Request   MoveRequest `json:"request"`
	Success   bool        `json:"success"`
	Moves     int         `json:"moves"` // move counter after the action
	DealID    string      `json:"deal_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []MoveLogEntry `json:"moves"`
	TotalMoves  int            `json:"total_moves"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
}

// ConfigInfo provides information about a rule profile
type ConfigInfo struct {
	Filename       string                `json:"filename"`
	ConfigID       string                `json:"config_id"` // The identifier to use for session creation
	Name           string                `json:"name"`      // Display name
	Description    string                `json:"description"`
	AutoMovePolicy engine.AutoMovePolicy `json:"auto_move_policy"`
	AutoMoveAces   bool                  `json:"auto_move_aces"`
}

// BestScore is the best-score view returned to clients
type BestScore = scores.Score

// LeaderboardEntry is one recorded win
type LeaderboardEntry = scores.Win
