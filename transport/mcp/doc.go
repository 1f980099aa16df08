// Package mcp exposes the Klondike Solitaire REST API as Model Context
// Protocol tools.
//
// The Client is a thin proxy: every tool call becomes one or two REST
// requests and the JSON reply is rendered as plain text an agent can read.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: Session management
//   - game_state: Board rendering with card IDs
//   - draw, move, auto_complete: Play actions
//   - undo, redo, new_game: History control
//   - move_history: Paginated log of attempted actions
//   - describe_card: Location and legal destinations of one card
//   - list_configs: Rule profiles
//   - best_score, leaderboard: Recorded wins
//   - game_instructions: Rules and strategy text
//
// Board Rendering:
//
//	Deal: 7f3c... | Moves: 12 | Time: 01:23 | Foundations: 1/52
//
//	Stock: 20 | Waste: JS#24 (3 cards)
//	Foundations:  F0: AH#1  F1: --  F2: --  F3: --
//
//	Tableau:
//	  0: KS#52
//	  1: [##] QH#12
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
