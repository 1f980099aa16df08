// Package engine provides the core game logic for Klondike Solitaire.
//
// The engine package implements the game mechanics including:
//   - Shuffling and dealing a 52-card deck into stock and tableau
//   - Placement legality for tableau columns and foundations
//   - All-or-nothing move operations with automatic reveal
//   - Undo/redo history built from deep state snapshots
//   - Win detection and elapsed time tracking
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds the piles, move counter,
// timestamps and win flag. GameConfig is a rule profile loaded from JSON
// that selects the auto-move policy and the player-facing messages.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config, engine.WithRandomSource(engine.SeededSource(42)))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.DrawCard()
//	gameEngine.MoveWasteToTableau(3)
//	state := gameEngine.GetState()
//
// Ownership:
//
// The engine exclusively owns the live state. GetState and Snapshot return
// deep copies, so callers may keep or modify them freely. Every mutation goes
// through an engine operation that either applies completely and records one
// history entry, or returns false and leaves state and history untouched.
// The engine is not safe for concurrent use; the session layer serialises
// access to it.
package engine
