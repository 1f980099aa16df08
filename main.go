// Command klondike starts the Klondike Solitaire server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, static client and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the profile, session and score locations,
// logging, version output, and optional ngrok tunneling for easy external
// access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wricardo/klondike-solitaire-game/api"
	"github.com/wricardo/klondike-solitaire-game/game/config"
	"github.com/wricardo/klondike-solitaire-game/game/scores"
	"github.com/wricardo/klondike-solitaire-game/game/service"
	"github.com/wricardo/klondike-solitaire-game/game/session"
	"github.com/wricardo/klondike-solitaire-game/transport/mcp"
	"github.com/wricardo/klondike-solitaire-game/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Klondike Solitaire Server"
)

const (
	sessionMaxAge       = 24 * time.Hour
	cleanupInterval     = 1 * time.Hour
	filesystemSyncEvery = 5 * time.Second
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", envOr("CONFIG_DIR", "configs"), "Directory containing rule profiles")
	sessionsDir  = flag.String("sessions-dir", envOr("SESSIONS_DIR", "sessions"), "Directory for session files")
	scoresDB     = flag.String("scores-db", envOr("SCORES_DB", "data/scores.db"), "SQLite score database (empty disables scores)")
	staticDir    = flag.String("static-dir", "static", "Directory served at / for the browser client")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	logFormat    = flag.String("log-format", "console", "Log output format: console or json")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envOr returns the environment variable key, or def when it is unset
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  CONFIG_DIR, SESSIONS_DIR, SCORES_DB, LOG_LEVEL, NGROK_ENABLED, NGROK_AUTHTOKEN, NGROK_DOMAIN\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -scores-db ''      # Run without a score database\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	setupLogging(*debug, *logFormat, os.Getenv("LOG_LEVEL"), os.Stderr)

	if envErr == nil {
		log.Info().Msg("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("error loading .env file")
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	api.Version = Version
	log.Info().Str("version", Version).Str("mode", mode).Msgf("starting %s", AppName)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize services
	gameService, shutdown, err := initializeServices(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer shutdown()

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		// Run MCP stdio server with internal HTTP server
		runStdioMCPWithInternalServer(gameService)

	case "server", "http":
		// Run HTTP server with API, WebSocket, and MCP endpoint
		runHTTPServer(ctx, gameService)

	default:
		log.Fatal().Str("mode", mode).Msg("unknown mode, use 'server' (default) or 'stdio-mcp'")
	}
}

// setupLogging configures the global zerolog logger. LOG_LEVEL picks the
// level unless debug forces it; format selects console or JSON output.
func setupLogging(debug bool, format, level string, out io.Writer) {
	lvl := zerolog.InfoLevel
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newMainRouter mounts the API server at / and the MCP endpoint at /mcp
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService) {
	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	apiServer := api.NewServer(gameService, hub, api.WithStaticDir(*staticDir))

	// Setup HTTP server address
	addr := fmt.Sprintf("%s:%d", *host, *port)

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	// Start regular HTTP server
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Check if ngrok should be enabled (from flag or environment)
	ngrokShouldRun := *ngrokEnabled
	if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
		ngrokShouldRun = true
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter)
		}()
	}

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Wait for all goroutines to finish
	wg.Wait()
	log.Info().Msg("server stopped")
}

// ngrokAuthToken returns the token from the flag or either environment spelling
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler) {
	authToken := ngrokAuthToken()
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().Str("url", ngrokURL).Msg("ngrok tunnel established")
	log.Info().Msgf("  REST API (ngrok): %s/api", ngrokURL)
	log.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)
	log.Info().Msgf("  Game UI (ngrok): %s/", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// initializeServices wires the profile, session and score stores into the
// game service and starts the background session routines. The returned
// function saves every session and closes the score database.
func initializeServices(ctx context.Context) (service.GameService, func(), error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(*sessionsDir, configManager)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	var opts []service.Option
	var store *scores.Store
	if *scoresDB != "" {
		store, err = scores.Open(*scoresDB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open score database: %w", err)
		}
		opts = append(opts, service.WithScoreStore(store))
	} else {
		log.Info().Msg("score database disabled")
	}

	gameService := service.NewGameService(sessionManager, configManager, opts...)

	go sessionCleanupRoutine(ctx, sessionManager, cleanupInterval, sessionMaxAge)
	go filesystemSyncRoutine(ctx, sessionManager, persistence, filesystemSyncEvery)

	shutdown := func() {
		if err := sessionManager.SaveAllSessions(); err != nil {
			log.Error().Err(err).Msg("failed to save sessions")
		}
		if store != nil {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close score database")
			}
		}
	}
	return gameService, shutdown, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge. Their files stay on disk and load again on demand.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Info().Int("removed", removed).Int("active", manager.Count()).Msg("cleaned up expired sessions")
			}
		}
	}
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
// It removes sessions from memory when their corresponding files are deleted.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncWithFilesystem(manager, persistence)
		}
	}
}

// syncWithFilesystem drops in-memory sessions whose file is gone and
// reports how many were pruned
func syncWithFilesystem(manager *session.Manager, persistence session.SessionPersistence) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, sess := range manager.List() {
		if !persistence.Exists(sess.ID) {
			if err := manager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
				log.Debug().Str("session", sess.ID).Msg("pruned session from memory (file deleted)")
			}
		}
	}

	if pruned > 0 {
		log.Info().Int("pruned", pruned).Msg("filesystem sync pruned orphaned sessions")
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(gameService service.GameService) {
	var baseURL string

	// First, try to connect to external API server at localhost:8080
	externalURL := "http://localhost:8080"
	log.Info().Str("url", externalURL).Msg("checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/status")
	if err == nil && resp.StatusCode == http.StatusOK {
		resp.Body.Close()
		log.Info().Str("url", externalURL).Msg("external API server found, using it for MCP")
		baseURL = externalURL
	} else {
		if resp != nil {
			resp.Body.Close()
		}
		log.Info().Msg("no external API server found, starting internal HTTP server")

		// Start internal HTTP server on a random available port
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get available port")
		}
		internalAddr := listener.Addr().String()
		log.Info().Str("addr", internalAddr).Msg("starting internal HTTP server for MCP stdio")

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Close()

		httpServer := &http.Server{
			Handler: api.NewServer(gameService, hub, api.WithStaticDir(*staticDir)),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Error().Err(err).Msg("MCP stdio server error")
	}
}
