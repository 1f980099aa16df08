package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/klondike-solitaire-game/game/engine"
)

func createTestConfig() *engine.GameConfig {
	return engine.DefaultConfig()
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.ConfigID != "classic" {
			t.Errorf("Expected config ID 'classic', got '%s'", session.ConfigID)
		}
		if session.Engine == nil {
			t.Fatal("Expected engine to be initialized")
		}
		if got := len(session.Engine.GetState().Stock); got != engine.StockAfterDeal {
			t.Errorf("Expected a fresh deal with %d stock cards, got %d", engine.StockAfterDeal, got)
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID == "" {
			t.Error("Expected auto-generated session ID")
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %d characters", len(session.ID))
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", "classic", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "classic", config)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("path characters rejected", func(t *testing.T) {
		for _, id := range []string{"../evil", "a/b", `a\b`, "a.json"} {
			if _, err := manager.Create(id, "classic", config); err != ErrInvalidSessionID {
				t.Errorf("Create(%q): expected ErrInvalidSessionID, got %v", id, err)
			}
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		invalidConfig := createTestConfig()
		invalidConfig.Name = ""
		_, err := manager.Create("invalid-test", "classic", invalidConfig)
		if err == nil {
			t.Error("Expected error for invalid config")
		}
	})

	t.Run("engine options are applied", func(t *testing.T) {
		a, err := manager.Create("seed-a", "classic", config, engine.WithRandomSource(engine.SeededSource(7)))
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		b, err := manager.Create("seed-b", "classic", config, engine.WithRandomSource(engine.SeededSource(7)))
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if a.Engine.GetState().DealID != b.Engine.GetState().DealID {
			t.Error("Expected identical deals from identical seeds")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	created, _ := manager.Create("get-test", "classic", config)

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session.ID != created.ID {
			t.Errorf("Expected session ID '%s', got '%s'", created.ID, session.ID)
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session != created {
			t.Errorf("Expected same session regardless of case")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		_, err := manager.Get("non-existent")
		if err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_CaseInsensitiveIDs(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session, err := manager.Create("D085", "classic", config)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if session.ID != "d085" {
		t.Errorf("Expected stored ID 'd085', got '%s'", session.ID)
	}

	for _, id := range []string{"d085", "D085"} {
		got, err := manager.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		if got != session {
			t.Errorf("Get(%q) returned a different session", id)
		}
	}

	if err := manager.UpdateLastAccessed("D085"); err != nil {
		t.Errorf("UpdateLastAccessed with uppercase ID failed: %v", err)
	}
	if err := manager.Delete("D085"); err != nil {
		t.Errorf("Delete with uppercase ID failed: %v", err)
	}
	if manager.Count() != 0 {
		t.Errorf("Expected no sessions after delete, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	manager.Create("delete-test", "classic", config)

	t.Run("delete existing session", func(t *testing.T) {
		err := manager.Delete("delete-test")
		if err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}

		_, err = manager.Get("delete-test")
		if err != ErrSessionNotFound {
			t.Error("Expected session to be deleted")
		}
	})

	t.Run("delete non-existent session", func(t *testing.T) {
		err := manager.Delete("non-existent")
		if err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("case-insensitive delete", func(t *testing.T) {
		manager.Create("case-test", "classic", config)
		err := manager.Delete("CASE-TEST")
		if err != nil {
			t.Fatalf("Failed to delete with different case: %v", err)
		}
		_, err = manager.Get("case-test")
		if err != ErrSessionNotFound {
			t.Error("Expected session to be deleted regardless of case")
		}
	})
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session1, _ := manager.Create("list-1", "classic", config)
	session2, _ := manager.Create("list-2", "classic", config)
	session3, _ := manager.Create("list-3", "classic", config)

	sessions := manager.List()

	if len(sessions) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(sessions))
	}

	foundSessions := make(map[string]bool)
	for _, s := range sessions {
		foundSessions[s.ID] = true
	}

	for _, s := range []string{session1.ID, session2.ID, session3.ID} {
		if !foundSessions[s] {
			t.Errorf("Session %s not found in list", s)
		}
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	active, _ := manager.Create("active", "classic", config)
	expired, _ := manager.Create("expired", "classic", config)

	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	deleted := manager.CleanupExpiredSessions(1 * time.Hour)

	if deleted != 1 {
		t.Errorf("Expected 1 session to be deleted, got %d", deleted)
	}

	_, err := manager.Get("expired")
	if err != ErrSessionNotFound {
		t.Error("Expected expired session to be deleted")
	}

	_, err = manager.Get("active")
	if err != nil {
		t.Error("Expected active session to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session, _ := manager.Create("access-test", "classic", config)
	session.LastAccessedAt = time.Now().Add(-time.Minute)
	originalTime := session.LastAccessedAt

	err := manager.UpdateLastAccessed("access-test")
	if err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}

	updated, _ := manager.Get("access-test")
	if !updated.LastAccessedAt.After(originalTime) {
		t.Error("Expected LastAccessedAt to be updated")
	}

	if err := manager.UpdateLastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_Exists(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	manager.Create("exists-test", "classic", config)

	t.Run("existing session", func(t *testing.T) {
		if !manager.sessionExists("exists-test") {
			t.Error("Expected session to exist")
		}
	})

	t.Run("case-insensitive existence check", func(t *testing.T) {
		if !manager.sessionExists("EXISTS-TEST") {
			t.Error("Expected session to exist regardless of case")
		}
	})

	t.Run("non-existent session", func(t *testing.T) {
		if manager.sessionExists("non-existent") {
			t.Error("Expected session not to exist")
		}
	})
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	errors := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := manager.Create(fmt.Sprintf("conc-%d", id%50), "classic", config)
			if err != nil && err != ErrSessionAlreadyExists {
				errors <- err
			}
		}(i)
	}

	wg.Wait()
	close(errors)

	for err := range errors {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}

	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	session1, _ := manager.Create("iso-1", "classic", config)
	session2, _ := manager.Create("iso-2", "classic", config)

	if !session1.Engine.DrawCard() {
		t.Fatal("Expected draw to succeed on a fresh deal")
	}

	if session2.Engine.GetMoves() != 0 {
		t.Error("Session 2 should not be affected by session 1 moves")
	}
	if len(session2.Engine.GetState().Waste) != 0 {
		t.Error("Session 2 waste should still be empty")
	}
	if session1.Engine.GetMoves() != 1 {
		t.Errorf("Expected 1 move in session 1, got %d", session1.Engine.GetMoves())
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	generatedIDs := make(map[string]bool)

	for i := 0; i < 50; i++ {
		session, err := manager.Create("", "classic", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}

		if generatedIDs[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generatedIDs[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}
