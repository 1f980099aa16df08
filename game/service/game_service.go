package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/scores"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownAction   = errors.New("unknown action")
	ErrNoScoreStore    = errors.New("score store not configured")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string, seed *int64) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	ApplyMove(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error)
	Undo(ctx context.Context, sessionID string) (*MoveResult, error)
	Redo(ctx context.Context, sessionID string) (*MoveResult, error)
	NewGame(ctx context.Context, sessionID string) (*MoveResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Scores
	GetBestScore(ctx context.Context) (*BestScore, error)
	ResetBestScore(ctx context.Context) error
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig, opts ...engine.Option) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles rule profile loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	DefaultID() string
	SaveConfig(name string, config *engine.GameConfig) error
}

// ScoreStore records wins and keeps the best score
type ScoreStore interface {
	RecordWin(ctx context.Context, win scores.Win) (bool, error)
	Best(ctx context.Context) (*scores.Score, error)
	ResetBest(ctx context.Context) error
	Leaderboard(ctx context.Context, limit int) ([]scores.Win, error)
}

// Session represents an active game session
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	MoveLog        []MoveLogEntry
	RecordedDeal   string // deal id whose win was already reported to the score store
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
