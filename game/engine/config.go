package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AutoMovePolicy selects where an auto-move may send a card
type AutoMovePolicy string

const (
	// FoundationOnly tries foundations 0..3 and nothing else
	FoundationOnly AutoMovePolicy = "foundation"
	// FoundationThenTableau falls back to tableau columns 0..6, skipping the origin
	FoundationThenTableau AutoMovePolicy = "foundation_then_tableau"
)

// Valid reports whether p is a known policy
func (p AutoMovePolicy) Valid() bool {
	return p == FoundationOnly || p == FoundationThenTableau
}

// Messages are the player-facing texts of a rule profile
type Messages struct {
	Welcome       string `json:"welcome"`
	Victory       string `json:"victory"`
	Rejected      string `json:"rejected"`
	Recycled      string `json:"recycled"`
	EmptyStock    string `json:"empty_stock"`
	Undo          string `json:"undo"`
	Redo          string `json:"redo"`
	NothingToUndo string `json:"nothing_to_undo"`
	NothingToRedo string `json:"nothing_to_redo"`
	AutoComplete  string `json:"auto_complete"`
	NewGame       string `json:"new_game"`
}

// GameConfig is a rule profile loaded from JSON
type GameConfig struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	AutoMovePolicy AutoMovePolicy `json:"auto_move_policy"`
	AutoMoveAces   bool           `json:"auto_move_aces"`
	Messages       Messages       `json:"messages"`
}

// ValidateGameConfig validates a rule profile
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if !config.AutoMovePolicy.Valid() {
		return fmt.Errorf("config validation: auto_move_policy must be %q or %q, got %q",
			FoundationOnly, FoundationThenTableau, config.AutoMovePolicy)
	}
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}
	if config.Messages.Rejected == "" {
		return fmt.Errorf("config validation: messages.rejected is required")
	}
	if v := config.Messages.Victory; strings.Count(v, "%") != strings.Count(v, "%d") || strings.Count(v, "%d") > 1 {
		return fmt.Errorf("config validation: messages.victory may use %%d at most once, for the move count")
	}
	return nil
}

// LoadGameConfig loads a rule profile from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the built-in classic profile
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:           "Classic",
		Description:    "Draw one, foundation-only auto-move",
		AutoMovePolicy: FoundationOnly,
		AutoMoveAces:   false,
		Messages: Messages{
			Welcome:       "New deal. Good luck!",
			Victory:       "You won in %d moves!",
			Rejected:      "That move is not allowed",
			Recycled:      "Waste turned back into the stock",
			EmptyStock:    "Stock and waste are both empty",
			Undo:          "Move undone",
			Redo:          "Move redone",
			NothingToUndo: "Nothing to undo",
			NothingToRedo: "Nothing to redo",
			AutoComplete:  "Cards sent to the foundations",
			NewGame:       "Cards shuffled and dealt",
		},
	}
}
