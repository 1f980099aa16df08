// Package service provides the business logic layer for the Klondike
// Solitaire server.
//
// The service package implements:
//   - Multi-session game management
//   - Move dispatch from named actions onto the engine
//   - Event extraction (moves, reveals, recycles, foundation plays, victory)
//   - The per-session move log and its pagination
//   - Win reporting to the score store
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages rule profile loading and validation.
// ScoreStore records wins and keeps the best score.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance. Engine calls
// only report success; the service turns the before and after states into
// events and player-facing messages taken from the session's rule profile.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	store, _ := scores.Open("data/scores.db")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithScoreStore(store))
//
//	info, err := gameService.CreateSession(ctx, "classic", nil)
//	if err != nil {
//		log.Fatal().Err(err).Msg("create session")
//	}
//
//	result, err := gameService.ApplyMove(ctx, info.ID, service.MoveRequest{Action: service.ActionDraw})
//
// Failures of collaborators (persistence, score store) are logged and never
// fail a move.
package service
