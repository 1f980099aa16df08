package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/scores"
)

// Option customises the game service
type Option func(*gameServiceImpl)

// WithScoreStore enables win recording and the score endpoints
func WithScoreStore(store ScoreStore) Option {
	return func(s *gameServiceImpl) {
		s.scores = store
	}
}

// WithClock replaces the time source used for elapsed time and events
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	scores   ScoreStore
	now      func() time.Time
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session. A non-nil seed makes the deal
// sequence of the session reproducible.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed *int64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	configID := configName
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			availableConfigs, listErr := s.configs.ListConfigs()
			if listErr == nil && len(availableConfigs) > 0 {
				var configIDs []string
				for _, cfg := range availableConfigs {
					configIDs = append(configIDs, cfg.ConfigID)
				}
				return nil, fmt.Errorf("config '%s' not available (%w). Available configs: %v", configName, err, configIDs)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configs.DefaultID()
	}

	opts := []engine.Option{engine.WithClock(s.now)}
	if seed != nil {
		opts = append(opts, engine.WithRandomSource(engine.SeededSource(*seed)))
	}

	sess, err := s.sessions.Create("", configID, config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("session", sess.ID).
		Str("config", configID).
		Str("deal", sess.Engine.GetState().DealID).
		Msg("session created")

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.tick(sess)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// ApplyMove runs one player action. Illegal moves are not errors: they come
// back with Success false and the profile's rejection message.
func (s *gameServiceImpl) ApplyMove(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.tick(sess)
	before := sess.Engine.GetState()
	success, err := s.dispatch(sess, req)
	if err != nil {
		return nil, err
	}

	msgs := sess.Config.Messages
	result := &MoveResult{Success: success, Action: req.Action}

	if success {
		afterMove := sess.Engine.GetState()
		result.Events = s.diffEvents(req.Action, before, afterMove)
		switch {
		case req.Action == ActionDraw && len(before.Stock) == 0:
			result.Message = msgs.Recycled
		case req.Action == ActionAutoComplete:
			result.Message = msgs.AutoComplete
		case len(result.Events) > 0:
			result.Message = result.Events[0].Message
		}

		if sess.Config.AutoMoveAces && req.Action != ActionAutoAces && sess.Engine.AutoMoveAces() {
			afterAces := sess.Engine.GetState()
			moved := engine.FoundationCount(afterAces) - engine.FoundationCount(afterMove)
			result.Events = append(result.Events, GameEvent{
				Type:      EventAutoAces,
				Message:   fmt.Sprintf("Sent %d ace(s) to the foundations", moved),
				Timestamp: s.now(),
			})
		}
	} else {
		result.Message = msgs.Rejected
		if req.Action == ActionDraw && msgs.EmptyStock != "" {
			result.Message = msgs.EmptyStock
		}
	}

	s.finish(ctx, sess, req, before, result)
	return result, nil
}

// Undo reverts the most recent move
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*MoveResult, error) {
	return s.history(ctx, sessionID, ActionUndo)
}

// Redo re-applies the most recently undone move
func (s *gameServiceImpl) Redo(ctx context.Context, sessionID string) (*MoveResult, error) {
	return s.history(ctx, sessionID, ActionRedo)
}

func (s *gameServiceImpl) history(ctx context.Context, sessionID, action string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.tick(sess)
	before := sess.Engine.GetState()
	msgs := sess.Config.Messages
	result := &MoveResult{Action: action}

	if action == ActionUndo {
		result.Success = sess.Engine.Undo()
		result.Message = orDefault(msgs.Undo, "Move undone")
		if !result.Success {
			result.Message = orDefault(msgs.NothingToUndo, msgs.Rejected)
		}
	} else {
		result.Success = sess.Engine.Redo()
		result.Message = orDefault(msgs.Redo, "Move redone")
		if !result.Success {
			result.Message = orDefault(msgs.NothingToRedo, msgs.Rejected)
		}
	}
	if result.Success {
		result.Events = []GameEvent{{Type: action, Message: result.Message, Timestamp: s.now()}}
	}

	s.finish(ctx, sess, MoveRequest{Action: action}, before, result)
	return result, nil
}

// NewGame deals a fresh game in an existing session
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	before := sess.Engine.GetState()
	sess.Engine.NewGame()
	msgs := sess.Config.Messages
	result := &MoveResult{
		Success: true,
		Action:  ActionNewGame,
		Message: orDefault(msgs.NewGame, msgs.Welcome),
	}
	result.Events = []GameEvent{{Type: EventNewGame, Message: result.Message, Timestamp: s.now()}}

	s.finish(ctx, sess, MoveRequest{Action: ActionNewGame}, before, result)
	log.Info().
		Str("session", sess.ID).
		Str("deal", result.GameState.DealID).
		Msg("new deal")
	return result, nil
}

// GetGameState retrieves the current game state with elapsed time updated
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	s.tick(sess)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns a page of the session's move log
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.MoveLog
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []MoveLogEntry{}
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available rule profiles
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific rule profile
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a rule profile to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// GetBestScore returns the best recorded result
func (s *gameServiceImpl) GetBestScore(ctx context.Context) (*BestScore, error) {
	if s.scores == nil {
		return nil, ErrNoScoreStore
	}
	return s.scores.Best(ctx)
}

// ResetBestScore clears the best result; win history is kept
func (s *gameServiceImpl) ResetBestScore(ctx context.Context) error {
	if s.scores == nil {
		return ErrNoScoreStore
	}
	if err := s.scores.ResetBest(ctx); err != nil {
		return err
	}
	log.Info().Msg("best score reset")
	return nil
}

// GetLeaderboard returns recorded wins, fastest first
func (s *gameServiceImpl) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if s.scores == nil {
		return nil, ErrNoScoreStore
	}
	return s.scores.Leaderboard(ctx, limit)
}

// getSession looks a session up and touches its access time
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.Debug().Err(err).Str("session", sessionID).Msg("failed to update last access")
	}
	return sess, nil
}

// dispatch maps a request onto the engine. Only unknown actions are errors.
func (s *gameServiceImpl) dispatch(sess *Session, req MoveRequest) (bool, error) {
	e := sess.Engine
	switch req.Action {
	case ActionDraw:
		return e.DrawCard(), nil
	case ActionWasteToFoundation:
		return e.MoveWasteToFoundation(req.Foundation), nil
	case ActionWasteToTableau:
		return e.MoveWasteToTableau(req.ToColumn), nil
	case ActionTableauToFoundation:
		return e.MoveTableauToFoundation(req.Column, req.Foundation), nil
	case ActionTableauToTableau:
		start := -1
		if req.StartIndex != nil {
			start = *req.StartIndex
		} else if req.Column >= 0 && req.Column < engine.NumColumns {
			start = len(e.GetState().Tableau[req.Column]) - 1
		}
		return e.MoveTableauToTableau(req.Column, req.ToColumn, start), nil
	case ActionAuto:
		return e.AutoMove(autoTarget(e, req), sess.Config.AutoMovePolicy), nil
	case ActionAutoFoundation:
		return e.AutoMoveCard(autoTarget(e, req)), nil
	case ActionAutoSmart:
		return e.AutoMoveSmart(autoTarget(e, req)), nil
	case ActionAutoComplete:
		return e.AutoComplete(), nil
	case ActionAutoAces:
		return e.AutoMoveAces(), nil
	}
	return false, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownAction, req.Action, strings.Join(Actions, ", "))
}

// autoTarget returns the requested card, defaulting to the waste top
func autoTarget(e *engine.GameEngine, req MoveRequest) int {
	if req.CardID != 0 {
		return req.CardID
	}
	if top, ok := e.GetState().Waste.Top(); ok {
		return top.ID
	}
	return 0
}

// finish fills the shared result fields, appends the move log, reports a
// fresh win and persists the session. Collaborator failures are logged only.
func (s *gameServiceImpl) finish(ctx context.Context, sess *Session, req MoveRequest, before *engine.GameState, result *MoveResult) {
	s.tick(sess)
	state := sess.Engine.GetState()

	result.GameState = state
	result.MovesDelta = state.Moves - before.Moves
	result.CanUndo = sess.Engine.CanUndo()
	result.CanRedo = sess.Engine.CanRedo()

	if state.Won && !before.Won {
		msg := sess.Config.Messages.Victory
		if strings.Contains(msg, "%d") {
			msg = fmt.Sprintf(msg, state.Moves)
		}
		result.Message = msg
		if req.Action != ActionUndo && req.Action != ActionRedo {
			result.Events = append(result.Events, GameEvent{Type: EventVictory, Message: msg, Timestamp: s.now()})
		}
	}
	if state.Won && sess.RecordedDeal != state.DealID {
		result.NewBest = s.recordWin(ctx, sess, state)
	}

	sess.MoveLog = append(sess.MoveLog, MoveLogEntry{
		Seq:       len(sess.MoveLog) + 1,
		Action:    req.Action,
		Request:   req,
		Success:   result.Success,
		Moves:     state.Moves,
		DealID:    state.DealID,
		Timestamp: s.now(),
	})

	log.Debug().
		Str("session", sess.ID).
		Str("action", req.Action).
		Bool("success", result.Success).
		Int("moves", state.Moves).
		Msg("move applied")

	if err := s.sessions.Save(sess.ID); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("failed to persist session")
	}
}

// recordWin reports the current deal to the score store once
func (s *gameServiceImpl) recordWin(ctx context.Context, sess *Session, state *engine.GameState) bool {
	sess.RecordedDeal = state.DealID
	if s.scores == nil {
		return false
	}
	newBest, err := s.scores.RecordWin(ctx, scores.Win{
		DealID:    state.DealID,
		SessionID: sess.ID,
		ConfigID:  sess.ConfigID,
		Moves:     state.Moves,
		ElapsedMs: state.ElapsedMs,
		WonAt:     s.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Str("deal", state.DealID).Msg("failed to record win")
		return false
	}
	log.Info().
		Str("session", sess.ID).
		Str("deal", state.DealID).
		Int("moves", state.Moves).
		Int64("elapsed_ms", state.ElapsedMs).
		Bool("new_best", newBest).
		Msg("game won")
	return newBest
}

// tick advances elapsed time; a won game keeps its final time
func (s *gameServiceImpl) tick(sess *Session) {
	if !sess.Engine.IsWon() {
		sess.Engine.Tick(s.now())
	}
}

// diffEvents describes what a successful move changed
func (s *gameServiceImpl) diffEvents(action string, before, after *engine.GameState) []GameEvent {
	now := s.now()
	var events []GameEvent

	if action == ActionDraw && len(before.Stock) == 0 {
		return []GameEvent{{
			Type:      EventRecycle,
			Message:   fmt.Sprintf("%d cards turned back into the stock", len(after.Stock)),
			Timestamp: now,
		}}
	}

	var moved []engine.CardLocation
	var revealed []engine.CardLocation
	for id := 1; id <= engine.DeckSize; id++ {
		from, ok1 := engine.LocateCard(before, id)
		to, ok2 := engine.LocateCard(after, id)
		if !ok1 || !ok2 {
			continue
		}
		if from.Kind != to.Kind || from.Index != to.Index {
			moved = append(moved, to)
		} else if to.Kind == engine.PileTableau && !from.Card.FaceUp && to.Card.FaceUp {
			revealed = append(revealed, to)
		}
	}

	if len(moved) > 0 {
		first := lowestPosition(moved)
		msg := fmt.Sprintf("%s to %s %d", first.Card, first.Kind, first.Index)
		if first.Kind == engine.PileWaste {
			msg = fmt.Sprintf("%s drawn to waste", first.Card)
		}
		if len(moved) > 1 {
			msg = fmt.Sprintf("%s (%d cards)", msg, len(moved))
		}
		card := first.Card
		events = append(events, GameEvent{Type: EventMove, Message: msg, Timestamp: now, Card: &card})
	}
	for _, loc := range moved {
		if loc.Kind == engine.PileFoundation {
			card := loc.Card
			events = append(events, GameEvent{
				Type:      EventFoundation,
				Message:   fmt.Sprintf("%s to foundation %d", card, loc.Index),
				Timestamp: now,
				Card:      &card,
			})
		}
	}
	for _, loc := range revealed {
		card := loc.Card
		events = append(events, GameEvent{
			Type:      EventReveal,
			Message:   fmt.Sprintf("%s revealed in column %d", card, loc.Index),
			Timestamp: now,
			Card:      &card,
		})
	}
	return events
}

// lowestPosition picks the bottom card of a moved run
func lowestPosition(locs []engine.CardLocation) engine.CardLocation {
	best := locs[0]
	for _, l := range locs[1:] {
		if l.Kind == best.Kind && l.Index == best.Index && l.Position < best.Position {
			best = l
		}
	}
	return best
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
		CanUndo:        sess.Engine.CanUndo(),
		CanRedo:        sess.Engine.CanRedo(),
	}
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
