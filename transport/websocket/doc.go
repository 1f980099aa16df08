// Package websocket pushes Klondike game state to browser clients.
//
// The package uses a hub-and-spoke model where a central Hub owns every
// connection. Registration, removal and fan-out all run on the hub's own
// goroutine; each connection gets a read pump and a write pump.
//
// Message Protocol:
//
// Messages are JSON objects:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "victory", "data": {...}}
//
// A client receives a "snapshot" message with the current state right after
// it connects, then one "state_update" after every change to its session.
// Clients do not send commands over the socket; moves go through the REST API.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Close()
//
//	hub.ServeWS(w, r, sessionID, state)
//	hub.BroadcastToSession(sessionID, state)
//
// Clients whose send buffer fills up are dropped.
package websocket
