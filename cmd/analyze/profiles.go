package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/klondike-solitaire-game/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Info holds the ✓ lines for a valid file; Warnings never make a file invalid.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// validateProfile loads and checks a single profile file
func validateProfile(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}
	fail := func(format string, args ...interface{}) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fail("Failed to read file: %v", err)
		return result
	}

	// Unknown keys are usually typos in a message name
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg engine.GameConfig
	if err := dec.Decode(&cfg); err != nil {
		fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&cfg); err != nil {
		fail("%v", err)
	}

	id := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if id != strings.ToLower(id) || strings.ContainsAny(id, " /\\") {
		fail("File name %q is not a valid profile ID (lowercase, no spaces)", result.File)
	}

	for key, msg := range optionalMessages(cfg.Messages) {
		if msg == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Missing optional message: %s", key))
		}
	}
	sort.Strings(result.Warnings)

	if result.Valid {
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Name: %s", cfg.Name),
			fmt.Sprintf("✓ Auto-move policy: %s", cfg.AutoMovePolicy),
			fmt.Sprintf("✓ Auto aces: %t", cfg.AutoMoveAces),
		)
	}
	return result
}

func optionalMessages(m engine.Messages) map[string]string {
	return map[string]string{
		"recycled":        m.Recycled,
		"empty_stock":     m.EmptyStock,
		"undo":            m.Undo,
		"redo":            m.Redo,
		"nothing_to_undo": m.NothingToUndo,
		"nothing_to_redo": m.NothingToRedo,
		"auto_complete":   m.AutoComplete,
		"new_game":        m.NewGame,
	}
}

// validateDir validates every *.json file in dir, sorted by name
func validateDir(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("find profiles in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no profile files in %s", dir)
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateProfile(file))
	}
	return results, nil
}

// printResults writes a report and reports whether every file was valid
func printResults(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠ "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All profiles are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some profiles have errors")
	}
	return allValid
}
