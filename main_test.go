package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/klondike-solitaire-game/game/config"
	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/service"
	"github.com/wricardo/klondike-solitaire-game/game/session"
	"github.com/wricardo/klondike-solitaire-game/transport/mcp"
)

// withFlags points the storage flags at temporary locations for one test
func withFlags(t *testing.T, configs, scores string) {
	t.Helper()
	origConfig, origSessions, origScores := *configDir, *sessionsDir, *scoresDB
	*configDir = configs
	*sessionsDir = filepath.Join(t.TempDir(), "sessions")
	*scoresDB = scores
	t.Cleanup(func() {
		*configDir, *sessionsDir, *scoresDB = origConfig, origSessions, origScores
	})
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}

	expectedAppName := "Klondike Solitaire Server"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	withFlags(t, "configs", filepath.Join(t.TempDir(), "scores.db"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, shutdown, err := initializeServices(ctx)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer shutdown()

	if gameService == nil {
		t.Fatal("Expected game service to be initialized")
	}

	info, err := gameService.CreateSession(ctx, "classic", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(*sessionsDir, info.ID+".json")); err != nil {
		t.Errorf("Expected session file to be written: %v", err)
	}

	// The score store is wired, so an empty database reports no best score
	if _, err := gameService.GetBestScore(ctx); errors.Is(err, service.ErrNoScoreStore) {
		t.Errorf("Expected score store to be configured, got %v", err)
	}
}

func TestInitializeServices_ScoresDisabled(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}
	withFlags(t, "configs", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameService, shutdown, err := initializeServices(ctx)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer shutdown()

	if _, err := gameService.GetBestScore(ctx); !errors.Is(err, service.ErrNoScoreStore) {
		t.Errorf("Expected ErrNoScoreStore, got %v", err)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	withFlags(t, "/non/existent/path", "")

	_, _, err := initializeServices(context.Background())
	if err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestFlagDefaults(t *testing.T) {
	if *port <= 0 || *port > 65535 {
		t.Errorf("Invalid default port: %d", *port)
	}

	if *host == "" {
		t.Error("Host should have a default value")
	}

	if *configDir == "" {
		t.Error("Config directory should have a default value")
	}

	if *sessionsDir == "" {
		t.Error("Sessions directory should have a default value")
	}

	if *logFormat != "console" {
		t.Errorf("Expected console log format by default, got %s", *logFormat)
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("KLONDIKE_TEST_VALUE", "set")
	if got := envOr("KLONDIKE_TEST_VALUE", "default"); got != "set" {
		t.Errorf("Expected env value, got %s", got)
	}
	if got := envOr("KLONDIKE_TEST_MISSING", "default"); got != "default" {
		t.Errorf("Expected default, got %s", got)
	}
}

func TestSetupLogging(t *testing.T) {
	origLogger, origLevel := log.Logger, zerolog.GlobalLevel()
	defer func() {
		log.Logger = origLogger
		zerolog.SetGlobalLevel(origLevel)
	}()

	tests := []struct {
		name  string
		debug bool
		level string
		want  zerolog.Level
	}{
		{"default", false, "", zerolog.InfoLevel},
		{"from env", false, "warn", zerolog.WarnLevel},
		{"uppercase env", false, "ERROR", zerolog.ErrorLevel},
		{"invalid env", false, "loud", zerolog.InfoLevel},
		{"debug wins", true, "error", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupLogging(tt.debug, "json", tt.level, &bytes.Buffer{})
			if got := zerolog.GlobalLevel(); got != tt.want {
				t.Errorf("Expected level %v, got %v", tt.want, got)
			}
		})
	}

	var buf bytes.Buffer
	setupLogging(false, "json", "info", &buf)
	log.Info().Str("session", "ab12").Msg("hello")
	if out := buf.String(); !strings.Contains(out, `"session":"ab12"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("Expected JSON log line, got %q", out)
	}
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://localhost:0"))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	handler(rec, httptest.NewRequest(http.MethodPost, "/mcp", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), `"jsonrpc":"2.0"`) {
		t.Errorf("Expected JSON-RPC response, got %s", rec.Body.String())
	}
}

func TestNewMainRouter(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := newMainRouter(api, mcp.NewClient("http://localhost:0"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected API handler at /, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected MCP handler at /mcp, got %d", rec.Code)
	}
}

func newTestManager(t *testing.T) (*session.Manager, *session.FilePersistence, string) {
	t.Helper()
	configManager, err := config.NewManager("configs")
	if err != nil {
		t.Skipf("Skipping test - configs not available: %v", err)
	}
	dir := t.TempDir()
	persistence, err := session.NewFilePersistence(dir, configManager)
	if err != nil {
		t.Fatalf("NewFilePersistence failed: %v", err)
	}
	return session.NewManagerWithPersistence(persistence), persistence, dir
}

func TestSyncWithFilesystem(t *testing.T) {
	manager, persistence, dir := newTestManager(t)

	for _, id := range []string{"keep", "gone"} {
		if _, err := manager.Create(id, "classic", engine.DefaultConfig()); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}
	if err := os.Remove(filepath.Join(dir, "gone.json")); err != nil {
		t.Fatalf("Failed to remove session file: %v", err)
	}

	if pruned := syncWithFilesystem(manager, persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned session, got %d", pruned)
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session in memory, got %d", manager.Count())
	}
	if pruned := syncWithFilesystem(manager, nil); pruned != 0 {
		t.Errorf("Expected no pruning without persistence, got %d", pruned)
	}
}

func TestBackgroundRoutinesStop(t *testing.T) {
	manager, persistence, _ := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 2)
	go func() {
		sessionCleanupRoutine(ctx, manager, time.Millisecond, time.Hour)
		done <- struct{}{}
	}()
	go func() {
		filesystemSyncRoutine(ctx, manager, persistence, time.Millisecond)
		done <- struct{}{}
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Background routine did not stop after cancel")
		}
	}
}
