package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/klondike-solitaire-game/game/config"
	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/scores"
	"github.com/wricardo/klondike-solitaire-game/game/service"
	"github.com/wricardo/klondike-solitaire-game/transport/websocket"
)

// Version is reported by the status endpoint
var Version = "dev"

// Server represents the REST API server
type Server struct {
	service   service.GameService
	hub       *websocket.Hub
	router    *mux.Router
	handler   http.Handler
	staticDir string
	now       func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithStaticDir sets the directory served at the root path
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// NewServer creates a new API server. The hub may be nil, in which case
// nothing is pushed and /ws is unavailable.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:   gameService,
		hub:       hub,
		router:    mux.NewRouter(),
		staticDir: "./static/",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	// Wrapped outside the router so preflight requests reach the CORS layer
	// even when no route matches the OPTIONS method.
	s.handler = middleware.RequestID(
		middleware.RealIP(
			requestLogger(
				middleware.Recoverer(
					cors(s.router)))))
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods("POST")
	api.HandleFunc("/sessions/{id}/undo", s.handleUndo).Methods("POST")
	api.HandleFunc("/sessions/{id}/redo", s.handleRedo).Methods("POST")
	api.HandleFunc("/sessions/{id}/new-game", s.handleNewGame).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Rule profiles
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	// Scores
	api.HandleFunc("/scores/best", s.handleGetBestScore).Methods("GET")
	api.HandleFunc("/scores/best", s.handleResetBestScore).Methods("DELETE")
	api.HandleFunc("/scores/leaderboard", s.handleLeaderboard).Methods("GET")

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found: "+r.URL.Path)
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	s.router.PathPrefix("/").Handler(noCache(http.FileServer(http.Dir(s.staticDir))))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service and store errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, scores.ErrNoBestScore):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnknownAction),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoScoreStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// hubKey is the form of a session ID the WebSocket hub is keyed on.
// Session IDs are case-insensitive.
func hubKey(sessionID string) string {
	return strings.ToLower(sessionID)
}

// broadcast pushes a move result to the session's WebSocket clients
func (s *Server) broadcast(sessionID string, result *service.MoveResult) {
	if s.hub == nil || result == nil {
		return
	}
	sessionID = hubKey(sessionID)
	s.hub.BroadcastToSession(sessionID, result.GameState)
	for _, event := range result.Events {
		switch event.Type {
		case service.EventVictory:
			s.hub.BroadcastEvent(sessionID, websocket.EventVictory, event)
		case service.EventNewGame:
			s.hub.BroadcastEvent(sessionID, websocket.EventNewGame, event)
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"time_utc": s.now().UTC(),
		"message":  "Server is running",
		"version":  Version,
		"sessions": len(sessions),
	})
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
		Seed       *int64 `json:"seed,omitempty"`
	}

	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID, req.Seed)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req service.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action == "" {
		respondError(w, http.StatusBadRequest, "action is required")
		return
	}

	result, err := s.service.ApplyMove(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result)
	logResult(sessionID, result)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.handleHistoryStep(w, r, s.service.Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.handleHistoryStep(w, r, s.service.Redo)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	s.handleHistoryStep(w, r, s.service.NewGame)
}

// handleHistoryStep serves the body-less session commands
func (s *Server) handleHistoryStep(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*service.MoveResult, error)) {
	sessionID := mux.Vars(r)["id"]

	result, err := op(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result)
	logResult(sessionID, result)

	respondJSON(w, http.StatusOK, result)
}

func logResult(sessionID string, result *service.MoveResult) {
	event := log.Info()
	if !result.Success {
		event = log.Debug()
	}
	if result.GameState != nil {
		event = event.Str("deal", result.GameState.DealID).
			Int("moves", result.GameState.Moves).
			Bool("won", result.GameState.Won)
	}
	event.Str("session", sessionID).
		Str("action", result.Action).
		Bool("success", result.Success).
		Int("delta", result.MovesDelta).
		Msg("move")
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Rule Profile Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// handleCreateConfig saves a profile. The file name comes from the "id"
// query parameter, or is derived from the profile name.
func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gameConfig engine.GameConfig

	if err := json.NewDecoder(r.Body).Decode(&gameConfig); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if gameConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = strings.ToLower(strings.Join(strings.Fields(gameConfig.Name), "-"))
	}

	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// Score Handlers

func (s *Server) handleGetBestScore(w http.ResponseWriter, r *http.Request) {
	best, err := s.service.GetBestScore(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, best)
}

func (s *Server) handleResetBestScore(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ResetBestScore(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Best score reset"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := scores.DefaultLeaderboardLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	wins, err := s.service.GetLeaderboard(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if wins == nil {
		wins = []service.LeaderboardEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(wins),
		"wins":  wins,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket hub not configured")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.hub.ServeWS(w, r, hubKey(sessionID), state)
}
