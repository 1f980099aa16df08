// Package api provides the HTTP REST API for the Klondike Solitaire server.
//
// Routes are served by gorilla/mux. Every request passes through chi's
// RequestID, RealIP and Recoverer middleware, a zerolog request line and a
// permissive CORS layer.
//
// Endpoints:
//
// Status:
//   - GET /api/status - Liveness, server time and session count
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic", "seed": 42}, both optional)
//   - GET /api/sessions - List sessions (?sort=accessed|created&order=desc|asc&limit=N)
//   - GET /api/sessions/{id} - Session info with state and undo/redo flags
//   - DELETE /api/sessions/{id} - Delete a session and its file
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current state, elapsed time ticked
//   - POST /api/sessions/{id}/move - Apply one action
//   - POST /api/sessions/{id}/undo - Step back one history entry
//   - POST /api/sessions/{id}/redo - Step forward one history entry
//   - POST /api/sessions/{id}/new-game - Shuffle and deal again
//   - GET /api/sessions/{id}/history - Paginated move log (?page=1&limit=20&order=desc)
//
// Rule Profiles:
//   - GET /api/configs - List profiles
//   - GET /api/configs/{name} - One profile
//   - POST /api/configs - Save a profile (?id=name, else derived from its name)
//
// Scores:
//   - GET /api/scores/best - Best result (404 when none)
//   - DELETE /api/scores/best - Forget the best result, keep win history
//   - GET /api/scores/leaderboard - Recorded wins, fastest first (?limit=N)
//
// Other:
//   - GET /ws?session={id} - WebSocket push of state updates
//   - GET / - Static client from ./static/ with caching disabled
//
// Move Requests:
//
//	{"action": "draw"}
//	{"action": "waste_to_tableau", "to_column": 3}
//	{"action": "tableau_to_tableau", "column": 1, "to_column": 4, "start_index": 2}
//	{"action": "tableau_to_foundation", "column": 6, "foundation": 0}
//	{"action": "auto", "card_id": 14}
//	{"action": "auto_complete"}
//
// Columns and foundations are zero-based. A rejected move is answered with
// 200 and "success": false; only malformed requests and missing sessions are
// HTTP errors.
//
// Error Handling:
//
// Errors are JSON objects with a message:
//
//	{"error": "session zz99: session not found"}
//
// Missing sessions, profiles and best scores map to 404, unknown actions and
// invalid profiles to 400, and a server started without a score database
// answers score requests with 503.
package api
