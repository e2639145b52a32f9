// Command game2048 starts the 2048 game server.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays a local game in the terminal
//
// Flags control host/port, config and sessions directories, debug logging,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/game2048/api"
	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/service"
	"github.com/wricardo/mcp-training/game2048/game/session"
	"github.com/wricardo/mcp-training/game2048/transport/mcp"
	"github.com/wricardo/mcp-training/game2048/transport/tui"
	"github.com/wricardo/mcp-training/game2048/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "2048 Game Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load .env before flags read their environment sources
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		stop()
		os.Exit(1)
	}
}

// newApp builds the command tree. Flags on the root are visible to every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "game2048",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory where sessions are persisted",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serverAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  mcpAction,
			},
			{
				Name:  "play",
				Usage: "Play a local game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Value: config.DefaultConfigID,
						Usage: "Game configuration to play",
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Override the board size",
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Seed for tile spawns (0 picks one from the clock)",
					},
				},
				Action: playAction,
			},
		},
	}
}

// newLogger writes to stderr so stdio MCP keeps stdout to itself
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// services bundles what the server and MCP modes share
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence *session.FilePersistence
}

// initializeServices wires session/config managers and the game service.
func initializeServices(configDir, sessionsDir string, logger *zap.Logger) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence, session.WithLogger(logger.Named("sessions")))

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", zap.Error(err))
	}

	return &services{
		game:        service.NewGameService(sessionManager, configManager, logger.Named("service")),
		sessions:    sessionManager,
		persistence: persistence,
	}, nil
}

func setup(cmd *cli.Command) (*services, *zap.Logger, error) {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	svc, err := initializeServices(cmd.String("config-dir"), cmd.String("sessions-dir"), logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, logger, nil
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	svc, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "server"))
	return runHTTPServer(ctx, cmd, svc, logger)
}

// newRouter mounts the API at the root and the MCP JSON-RPC endpoint at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	router := http.NewServeMux()
	router.Handle("/", apiServer)
	router.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
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
	})
	return router
}

// runHTTPServer serves REST, WebSocket and /mcp until ctx is cancelled. The
// hub, the expiry sweep, the sessions watcher and the optional ngrok tunnel
// run in the same group and stop with it.
func runHTTPServer(ctx context.Context, cmd *cli.Command, svc *services, logger *zap.Logger) error {
	hub := websocket.NewHub(logger.Named("ws"))
	apiServer := api.NewServer(svc.game, hub, logger.Named("api"))

	addr := net.JoinHostPort(cmd.String("host"), strconv.Itoa(int(cmd.Int("port"))))
	mcpClient := mcp.NewClient("http://" + addr)
	router := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	watcher, err := session.NewWatcher(svc.sessions, svc.persistence.Dir(), logger.Named("watcher"))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	g.Go(func() error {
		return sessionCleanupRoutine(gctx, svc.sessions, cleanupInterval, logger)
	})

	g.Go(func() error {
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown error", zap.Error(err))
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			return serveNgrok(gctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router, logger.Named("ngrok"))
		})
	}

	err = g.Wait()

	if saveErr := svc.sessions.SaveAllSessions(); saveErr != nil {
		logger.Warn("failed to save sessions on shutdown", zap.Error(saveErr))
	}
	logger.Info("server stopped")
	return err
}

// serveNgrok exposes handler through an ngrok tunnel. A missing auth token
// only disables the tunnel.
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger *zap.Logger) error {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return nil
	}

	logger.Info("starting ngrok tunnel")

	tunnel := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("api", ngrokURL+"/api"),
		zap.String("websocket", ngrokURL+"/ws?session=<session_id>"),
		zap.String("mcp", ngrokURL+"/mcp"),
	)

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
	return nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "mcp"))
	return runStdioMCPWithInternalServer(ctx, int(cmd.Int("port")), cmd.String("config-dir"), cmd.String("sessions-dir"), logger)
}

// apiAvailable reports whether a game API answers health checks at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on a random loopback port and
// returns its base URL. The server stops when ctx is done.
func startInternalAPI(ctx context.Context, svc *services, logger *zap.Logger) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	httpServer := &http.Server{
		Handler: api.NewServer(svc.game, nil, logger.Named("api")),
	}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("internal HTTP server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	return "http://" + listener.Addr().String(), nil
}

// mcpBackend picks the API the stdio MCP server talks to. An external API
// on localhost owns the sessions directory, so svc is nil in that case and
// nothing is loaded or saved here. Otherwise it builds the services and
// starts an internal HTTP API on a random loopback port.
func mcpBackend(ctx context.Context, port int, configDir, sessionsDir string, logger *zap.Logger) (string, *services, error) {
	baseURL := fmt.Sprintf("http://localhost:%d", port)
	logger.Info("checking for external API server", zap.String("url", baseURL))

	if apiAvailable(ctx, baseURL) {
		logger.Info("external API server found, using it for MCP", zap.String("url", baseURL))
		return baseURL, nil, nil
	}

	logger.Info("no external API server found, starting internal HTTP server")
	svc, err := initializeServices(configDir, sessionsDir, logger)
	if err != nil {
		return "", nil, err
	}
	internalURL, err := startInternalAPI(ctx, svc, logger)
	if err != nil {
		return "", nil, err
	}
	return internalURL, svc, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server against an
// external API if one is up, or against an internal one it owns.
func runStdioMCPWithInternalServer(ctx context.Context, port int, configDir, sessionsDir string, logger *zap.Logger) error {
	baseURL, svc, err := mcpBackend(ctx, port, configDir, sessionsDir, logger)
	if err != nil {
		return err
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	if svc == nil {
		return nil
	}
	return svc.sessions.SaveAllSessions()
}

// newPlayEngine builds the engine for a local game. A missing config
// directory falls back to the classic game.
func newPlayEngine(configDir, configName string, size, seed int) (*engine.GameEngine, error) {
	cfg := engine.DefaultGameConfig()
	if manager, err := config.NewManager(configDir); err == nil {
		loaded, err := manager.LoadConfig(configName)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if configName != config.DefaultConfigID {
		return nil, err
	}

	if size > 0 && size != cfg.Size {
		resized := *cfg
		resized.Size = size
		if resized.InitialTiles > size*size {
			resized.InitialTiles = size * size
		}
		cfg = &resized
	}

	var rng engine.Rand
	if seed != 0 {
		rng = engine.NewRand(int64(seed))
	}
	return engine.NewEngine(cfg, rng)
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	eng, err := newPlayEngine(cmd.String("config-dir"), cmd.String("config"), int(cmd.Int("size")), int(cmd.Int("seed")))
	if err != nil {
		return err
	}
	return tui.Run(ctx, eng)
}
