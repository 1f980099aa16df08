package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// ErrNoBestScore is returned by Best when no game has been won yet
var ErrNoBestScore = errors.New("no best score recorded")

// DefaultLeaderboardLimit applies when Leaderboard gets a non-positive limit
const DefaultLeaderboardLimit = 20

// Win is one finished game
type Win struct {
	DealID    string    `json:"deal_id"`
	SessionID string    `json:"session_id"`
	ConfigID  string    `json:"config_id"`
	Moves     int       `json:"moves"`
	ElapsedMs int64     `json:"elapsed_ms"`
	WonAt     time.Time `json:"won_at"`
}

// Score is the current best result
type Score struct {
	Moves     int       `json:"moves"`
	ElapsedMs int64     `json:"elapsed_ms"`
	DealID    string    `json:"deal_id"`
	SessionID string    `json:"session_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS wins (
	deal_id    TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	config_id  TEXT NOT NULL,
	moves      INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	won_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS wins_rank ON wins (elapsed_ms, moves, won_at);
CREATE TABLE IF NOT EXISTS best_score (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	moves      INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	deal_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

// Store persists wins and the best score
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and creates if missing) a SQLite database file with WAL
// journaling and a busy timeout, then applies the schema
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// single writer; sqlite serialises writes anyway
	db.SetMaxOpenConns(1)

	store, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("path", path).Msg("score store opened")
	return store, nil
}

// NewStore wraps an open database and applies the schema
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordWin stores a win and updates the best score. A deal is recorded at
// most once; repeats are ignored. Reports whether the best score changed.
func (s *Store) RecordWin(ctx context.Context, win Win) (bool, error) {
	if win.DealID == "" {
		return false, fmt.Errorf("record win: deal id is required")
	}
	if win.WonAt.IsZero() {
		win.WonAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("record win: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO wins (deal_id, session_id, config_id, moves, elapsed_ms, won_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		win.DealID, win.SessionID, win.ConfigID, win.Moves, win.ElapsedMs, win.WonAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("insert win: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, tx.Commit()
	}

	var prevMoves int
	var prevElapsed int64
	err = tx.QueryRowContext(ctx, `SELECT moves, elapsed_ms FROM best_score WHERE id = 1`).Scan(&prevMoves, &prevElapsed)
	switch {
	case err == nil:
		if prevElapsed <= win.ElapsedMs && prevMoves <= win.Moves {
			return false, tx.Commit()
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return false, fmt.Errorf("read best score: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO best_score (id, moves, elapsed_ms, deal_id, session_id, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			moves = excluded.moves,
			elapsed_ms = excluded.elapsed_ms,
			deal_id = excluded.deal_id,
			session_id = excluded.session_id,
			updated_at = excluded.updated_at`,
		win.Moves, win.ElapsedMs, win.DealID, win.SessionID, win.WonAt.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("update best score: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("record win: %w", err)
	}
	return true, nil
}

// Best returns the best score or ErrNoBestScore
func (s *Store) Best(ctx context.Context) (*Score, error) {
	var score Score
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT moves, elapsed_ms, deal_id, session_id, updated_at FROM best_score WHERE id = 1`,
	).Scan(&score.Moves, &score.ElapsedMs, &score.DealID, &score.SessionID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBestScore
	}
	if err != nil {
		return nil, fmt.Errorf("read best score: %w", err)
	}
	score.UpdatedAt = time.UnixMilli(updated)
	return &score, nil
}

// ResetBest clears the best score. Win history is kept.
func (s *Store) ResetBest(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM best_score`); err != nil {
		return fmt.Errorf("reset best score: %w", err)
	}
	return nil
}

// Leaderboard returns recorded wins ordered by elapsed time, then moves,
// then time of win
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Win, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT deal_id, session_id, config_id, moves, elapsed_ms, won_at
		FROM wins
		ORDER BY elapsed_ms ASC, moves ASC, won_at ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]Win, 0, limit)
	for rows.Next() {
		var w Win
		var wonAt int64
		if err := rows.Scan(&w.DealID, &w.SessionID, &w.ConfigID, &w.Moves, &w.ElapsedMs, &wonAt); err != nil {
			return nil, err
		}
		w.WonAt = time.UnixMilli(wonAt)
		out = append(out, w)
	}
	return out, rows.Err()
}
