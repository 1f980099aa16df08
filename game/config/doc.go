// Package config provides the rule profile catalogue for the Klondike
// Solitaire server.
//
// The config package handles:
//   - Loading rule profiles from JSON files
//   - Profile validation through the engine's validator
//   - Default profile management
//   - Profile discovery, listing and saving
//
// Profile Format:
//
// Profiles are stored as JSON files in the configs directory. Each profile
// defines:
//   - Name and description
//   - auto_move_policy: "foundation" or "foundation_then_tableau"
//   - auto_move_aces: sweep aces to the foundations after every move
//   - Player-facing messages (welcome, victory, rejected, recycled, ...)
//
// Available Profiles:
//   - classic: foundation-only auto-move, no automatic aces
//   - assisted: tableau fallback for auto-move and automatic aces
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal().Err(err).Msg("config manager")
//	}
//
//	profile, err := manager.LoadConfig("assisted")
//	defaultProfile := manager.GetDefault()
//	profiles, err := manager.ListConfigs()
//
// When no classic.json exists the first valid profile becomes the default,
// and with no valid files at all the built-in classic profile is used.
package config
