// Command logic-labyrinth starts the Logic Labyrinth server.
//
// It supports four commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "generate" – prints a generated maze and, optionally, its solution
//  4. "play" – runs a program against a maze in the terminal
//
// Flags control host/port, config and data directories, debug logging, and
// optional ngrok tunneling for easy external access during development. Every
// flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/logic-labyrinth/api"
	"github.com/wricardo/logic-labyrinth/game/config"
	"github.com/wricardo/logic-labyrinth/game/rewards"
	"github.com/wricardo/logic-labyrinth/game/service"
	"github.com/wricardo/logic-labyrinth/game/session"
	"github.com/wricardo/logic-labyrinth/logging"
	"github.com/wricardo/logic-labyrinth/transport/mcp"
	"github.com/wricardo/logic-labyrinth/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Logic Labyrinth Server"
)

const (
	sessionTTL      = 24 * time.Hour
	cleanupInterval = time.Hour
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	envLoaded := godotenv.Load() == nil

	closeLog := func() error { return nil }
	cmd := newCommand()
	cmd.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		_, closeFn, err := logging.Setup(logging.Options{
			Debug: cmd.Bool("debug"),
			File:  cmd.String("log-file"),
		})
		if err != nil {
			return ctx, err
		}
		closeLog = closeFn
		if envLoaded {
			slog.Debug("Loaded environment variables from .env file")
		}
		return ctx, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Run(ctx, os.Args)
	stop()
	closeLog()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the root command and its subcommands
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "logic-labyrinth",
		Usage:   "Guide a player through generated mazes with a tiny instruction language",
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
				Usage:   "Directory containing difficulty configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for persisted sessions (empty disables persistence)",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "progress-file",
				Value:   "progress.json",
				Usage:   "File holding earned stars and awards (empty keeps progress in memory)",
				Sources: cli.EnvVars("PROGRESS_FILE"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write JSON logs to this file",
				Sources: cli.EnvVars("LOG_FILE"),
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Flags: []cli.Flag{
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
				Action: runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "External API to reuse when it is reachable",
						Sources: cli.EnvVars("LABYRINTH_API_URL"),
					},
				},
				Action: runStdioMCP,
			},
			generateCommand(),
			playCommand(),
		},
	}
}

// serverOptions selects where the services keep their files
type serverOptions struct {
	ConfigDir    string
	SessionsDir  string
	ProgressFile string
}

func serverOptionsFrom(cmd *cli.Command) serverOptions {
	return serverOptions{
		ConfigDir:    cmd.String("config-dir"),
		SessionsDir:  cmd.String("sessions-dir"),
		ProgressFile: cmd.String("progress-file"),
	}
}

// services bundles everything the transports need
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
	ledger   *rewards.Ledger
	hub      *websocket.Hub
}

// initializeServices wires config, rewards, sessions and the game service.
// Animated frames and award unlocks are forwarded to the WebSocket hub.
func initializeServices(opts serverOptions) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	hub := websocket.NewHub()

	ledgerOpts := []rewards.Option{
		rewards.OnAward(func(award rewards.Award, progress rewards.Progress) {
			slog.Info("Award unlocked", "award", award.Name, "stars", progress.Stars)
			hub.BroadcastEvent("", websocket.EventAward, map[string]interface{}{
				"award":    award,
				"progress": progress,
			})
		}),
	}
	if opts.ProgressFile != "" {
		ledgerOpts = append(ledgerOpts, rewards.WithFile(opts.ProgressFile))
	}
	ledger := rewards.NewLedger(ledgerOpts...)
	if err := ledger.Load(); err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	var sessionManager *session.Manager
	if opts.SessionsDir != "" {
		persistence, err := session.NewFilePersistence(opts.SessionsDir, configManager, ledger)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		sessionManager = session.NewManagerWithPersistence(persistence, ledger)

		if err := sessionManager.LoadPersistedSessions(); err != nil {
			slog.Warn("Failed to load persisted sessions", "error", err)
		}
	} else {
		sessionManager = session.NewManager(ledger)
	}

	gameService := service.NewGameService(sessionManager, configManager, ledger,
		service.WithFrameObserver(hub.BroadcastFrame))

	return &services{
		game:     gameService,
		sessions: sessionManager,
		configs:  configManager,
		ledger:   ledger,
		hub:      hub,
	}, nil
}

// shutdown persists sessions and progress
func (s *services) shutdown() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		slog.Warn("Failed to save sessions", "error", err)
	}
	if err := s.ledger.Save(); err != nil {
		slog.Warn("Failed to save progress", "error", err)
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within ttl, until ctx is cancelled.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				slog.Info("Cleaned up expired sessions", "removed", removed)
			}
		}
	}
}

// newRouter combines the REST API, WebSocket and /mcp endpoints
func newRouter(svc *services, baseURL string) http.Handler {
	apiServer := api.NewServer(svc.game, svc.hub)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.Handle("/mcp", mcp.NewClient(baseURL))
	return mainRouter
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	addr := fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port")))
	slog.Info("Starting", "app", AppName, "version", Version, "addr", addr)

	svc, err := initializeServices(serverOptionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svc.shutdown()

	handler := newRouter(svc, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		svc.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		sessionCleanupRoutine(gctx, svc.sessions, cleanupInterval, sessionTTL)
		return nil
	})

	g.Go(func() error {
		slog.Info("HTTP server listening",
			"rest", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			serveNgrok(gctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	slog.Info("Server stopped")
	return err
}

// serveNgrok serves handler through an ngrok tunnel until ctx is cancelled
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		slog.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	slog.Info("Starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		slog.Info("Using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		slog.Error("Failed to start ngrok tunnel", "error", err)
		return
	}

	ngrokURL := tun.URL()
	slog.Info("Ngrok tunnel established",
		"url", ngrokURL,
		"rest", ngrokURL+"/api",
		"websocket", ngrokURL+"/ws?session=<session_id>",
		"mcp", ngrokURL+"/mcp")

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			slog.Warn("Failed to close ngrok tunnel", "error", err)
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		slog.Warn("Ngrok server error", "error", err)
	}
	slog.Info("Ngrok tunnel closed")
}

// apiReachable reports whether an API server answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an external API when one
// answers at --api-url; otherwise it starts an internal HTTP API bound to a
// random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := cmd.String("api-url")

	if apiReachable(baseURL) {
		slog.Info("External API server found, using it for MCP", "url", baseURL)
	} else {
		slog.Info("No external API server found, starting internal HTTP server")

		svc, err := initializeServices(serverOptionsFrom(cmd))
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svc.shutdown()
		go svc.hub.Run(ctx)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		httpServer := &http.Server{Handler: api.NewServer(svc.game, svc.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		slog.Info("Internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	slog.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
