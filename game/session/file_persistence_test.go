package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/klondike-solitaire-game/game/config"
	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/service"
)

func newTestPersistence(t *testing.T) (*FilePersistence, *config.Manager) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "session_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	configManager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}

	persistence, err := NewFilePersistence(tempDir, configManager)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	return persistence, configManager
}

func TestFilePersistence(t *testing.T) {
	persistence, configManager := newTestPersistence(t)

	gameConfig := configManager.GetDefault()
	gameEngine, err := engine.NewEngine(gameConfig, engine.WithRandomSource(engine.SeededSource(42)))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	session := &service.Session{
		ID:             "test1",
		ConfigID:       configManager.DefaultID(),
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	t.Run("Save and Load Session", func(t *testing.T) {
		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save session: %v", err)
		}

		if !persistence.Exists("test1") {
			t.Error("Session file should exist after save")
		}

		loadedSession, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load session: %v", err)
		}

		if loadedSession.ID != session.ID {
			t.Errorf("Expected ID %s, got %s", session.ID, loadedSession.ID)
		}
		if loadedSession.ConfigID != session.ConfigID {
			t.Errorf("Expected config ID %s, got %s", session.ConfigID, loadedSession.ConfigID)
		}
		if loadedSession.Config.Name != session.Config.Name {
			t.Errorf("Expected config name %s, got %s", session.Config.Name, loadedSession.Config.Name)
		}
		want, got := session.Engine.GetState(), loadedSession.Engine.GetState()
		if got.DealID != want.DealID {
			t.Errorf("Expected deal %s, got %s", want.DealID, got.DealID)
		}
		for col := range want.Tableau {
			if len(got.Tableau[col]) != len(want.Tableau[col]) {
				t.Errorf("Column %d: expected %d cards, got %d", col, len(want.Tableau[col]), len(got.Tableau[col]))
			}
		}
	})

	t.Run("Save State Changes", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if !session.Engine.DrawCard() {
				t.Fatalf("Draw %d failed", i+1)
			}
		}
		if !session.Engine.Undo() {
			t.Fatal("Undo failed")
		}
		session.MoveLog = []service.MoveLogEntry{
			{Seq: 1, Action: service.ActionDraw, Success: true, Moves: 1, DealID: session.Engine.GetState().DealID},
			{Seq: 2, Action: service.ActionUndo, Success: true, Moves: 2, DealID: session.Engine.GetState().DealID},
		}
		session.RecordedDeal = "deal-already-won"

		if err := persistence.Save(session); err != nil {
			t.Fatalf("Failed to save updated session: %v", err)
		}

		loadedSession, err := persistence.Load("test1")
		if err != nil {
			t.Fatalf("Failed to load updated session: %v", err)
		}

		want, got := session.Engine.GetState(), loadedSession.Engine.GetState()
		if got.Moves != want.Moves {
			t.Errorf("Expected %d moves, got %d", want.Moves, got.Moves)
		}
		if len(got.Waste) != len(want.Waste) || got.Waste.TopPtr().ID != want.Waste.TopPtr().ID {
			t.Errorf("Waste not persisted correctly")
		}
		if loadedSession.Engine.UndoDepth() != 2 {
			t.Errorf("Expected undo depth 2, got %d", loadedSession.Engine.UndoDepth())
		}
		if loadedSession.Engine.RedoDepth() != 1 {
			t.Errorf("Expected redo depth 1, got %d", loadedSession.Engine.RedoDepth())
		}
		if len(loadedSession.MoveLog) != 2 || loadedSession.MoveLog[1].Action != service.ActionUndo {
			t.Errorf("Move log not persisted correctly: %+v", loadedSession.MoveLog)
		}
		if loadedSession.RecordedDeal != "deal-already-won" {
			t.Errorf("Expected recorded deal to persist, got %q", loadedSession.RecordedDeal)
		}

		if !loadedSession.Engine.Redo() {
			t.Error("Redo should succeed after reload")
		}
		if len(loadedSession.Engine.GetState().Waste) != 3 {
			t.Errorf("Expected 3 waste cards after redo, got %d", len(loadedSession.Engine.GetState().Waste))
		}
	})

	t.Run("List All Sessions", func(t *testing.T) {
		session2 := &service.Session{
			ID:             "test2",
			ConfigID:       "assisted",
			Engine:         gameEngine,
			Config:         gameConfig,
			CreatedAt:      time.Now(),
			LastAccessedAt: time.Now(),
		}
		if err := persistence.Save(session2); err != nil {
			t.Fatalf("Failed to save second session: %v", err)
		}

		sessionIDs, err := persistence.ListAll()
		if err != nil {
			t.Fatalf("Failed to list sessions: %v", err)
		}

		if len(sessionIDs) != 2 {
			t.Errorf("Expected 2 sessions, got %d: %v", len(sessionIDs), sessionIDs)
		}

		found := make(map[string]bool)
		for _, id := range sessionIDs {
			found[id] = true
		}
		if !found["test1"] || !found["test2"] {
			t.Error("Expected sessions not found in list")
		}
	})

	t.Run("Delete Session", func(t *testing.T) {
		if err := persistence.Delete("test2"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}

		if persistence.Exists("test2") {
			t.Error("Session should not exist after delete")
		}

		if _, err := persistence.Load("test2"); err == nil {
			t.Error("Should not be able to load deleted session")
		}
	})

	t.Run("Error Cases", func(t *testing.T) {
		if _, err := persistence.Load("nonexistent"); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}

		if err := persistence.Delete("nonexistent"); err == nil {
			t.Error("Should get error when deleting non-existent session")
		}

		if err := persistence.Save(nil); err == nil {
			t.Error("Should get error when saving nil session")
		}

		if persistence.Exists("../test1") {
			t.Error("Exists should reject path separators")
		}
	})
}

func TestFilePersistence_MissingProfileFallsBack(t *testing.T) {
	persistence, configManager := newTestPersistence(t)

	gameConfig := configManager.GetDefault()
	gameEngine, err := engine.NewEngine(gameConfig)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	session := &service.Session{
		ID:             "orphan",
		ConfigID:       "retired-profile",
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	loaded, err := persistence.Load("orphan")
	if err != nil {
		t.Fatalf("Expected fallback to default profile, got %v", err)
	}
	if loaded.ConfigID != configManager.DefaultID() {
		t.Errorf("Expected config ID %s, got %s", configManager.DefaultID(), loaded.ConfigID)
	}
	if loaded.Engine.GetState().DealID != gameEngine.GetState().DealID {
		t.Error("Game state should survive the profile fallback")
	}
}

func TestFilePersistence_CorruptFile(t *testing.T) {
	persistence, _ := newTestPersistence(t)

	path := filepath.Join(persistence.sessionsDir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}
	if _, err := persistence.Load("broken"); err == nil {
		t.Error("Expected error loading corrupt session file")
	}

	if err := os.WriteFile(path, []byte(`{"id":"broken","config_name":"classic"}`), 0644); err != nil {
		t.Fatalf("Failed to write session file: %v", err)
	}
	if _, err := persistence.Load("broken"); err == nil {
		t.Error("Expected error loading session file without game data")
	}
}

func TestFilePersistenceFileStructure(t *testing.T) {
	persistence, configManager := newTestPersistence(t)

	gameConfig := configManager.GetDefault()
	gameEngine, err := engine.NewEngine(gameConfig)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	gameEngine.DrawCard()

	session := &service.Session{
		ID:             "structure-test",
		ConfigID:       "classic",
		Engine:         gameEngine,
		Config:         gameConfig,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	if err := persistence.Save(session); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	filePath := filepath.Join(persistence.sessionsDir, "structure-test.json")
	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read session file: %v", err)
	}

	if _, err := os.Stat(filePath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should be renamed away after save")
	}

	content := string(data)
	for _, field := range []string{`"id"`, `"config_name"`, `"created_at"`, `"last_accessed_at"`, `"game"`, `"state"`, `"undo"`, `"stock"`, `"tableau"`, `"foundations"`} {
		if !containsString(content, field) {
			t.Errorf("Session file should contain field %s", field)
		}
	}

	var decoded PersistedSessionData
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Session file is not valid JSON: %v", err)
	}
	if decoded.ConfigName != "classic" {
		t.Errorf("Expected config_name classic, got %s", decoded.ConfigName)
	}
	if decoded.Game == nil || len(decoded.Game.Undo) != 1 {
		t.Error("Expected one undo snapshot in the saved game")
	}
}

func containsString(s, substr string) bool {
	return strings.Contains(s, substr)
}
