// Command battleship-server starts the two-player battleship session server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing the room API, the WebSocket game protocol and an /mcp endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Every flag can also be set through the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/battleship-server/api"
	"github.com/wricardo/battleship-server/game/config"
	"github.com/wricardo/battleship-server/game/service"
	"github.com/wricardo/battleship-server/game/session"
	"github.com/wricardo/battleship-server/transport/discovery"
	"github.com/wricardo/battleship-server/transport/events"
	"github.com/wricardo/battleship-server/transport/mcp"
	"github.com/wricardo/battleship-server/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Battleship Server"
)

// serverConfig is the resolved command line and environment configuration
type serverConfig struct {
	Host            string
	Port            int
	ConfigDir       string
	LogLevel        string
	LogFormat       string
	RoomTTL         time.Duration
	CleanupInterval time.Duration
	NatsURL         string
	NatsPrefix      string
	ConsulAddr      string
	NgrokEnabled    bool
	NgrokAuth       string
	NgrokDomain     string
}

// Addr is the host:port the HTTP server binds to
func (c *serverConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LocalBaseURL is the URL in-process clients use to reach the HTTP server
func (c *serverConfig) LocalBaseURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Port))
}

type runFunc func(ctx context.Context, cfg *serverConfig) error

func main() {
	// Load .env file if it exists, before flags read their env sources
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(runHTTPServer, runStdioMCP)
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app.Name, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. The run functions are injected so the
// flag wiring can be tested without starting servers.
func newApp(runServer, runStdio runFunc) *cli.Command {
	serverAction := func(ctx context.Context, cmd *cli.Command) error {
		return runServer(ctx, configFromCommand(cmd))
	}

	return &cli.Command{
		Name:    "battleship-server",
		Usage:   "Two-player battleship rooms over WebSocket",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing ruleset JSON files", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "text or json", Sources: cli.EnvVars("LOG_FORMAT")},
			&cli.DurationFlag{Name: "room-ttl", Value: time.Hour, Usage: "Remove rooms with no connected player idle for longer than this", Sources: cli.EnvVars("ROOM_TTL")},
			&cli.DurationFlag{Name: "cleanup-interval", Value: 5 * time.Minute, Usage: "How often idle rooms are removed", Sources: cli.EnvVars("CLEANUP_INTERVAL")},
			&cli.StringFlag{Name: "nats-url", Usage: "Publish room events to this NATS server (disabled when empty)", Sources: cli.EnvVars("NATS_URL")},
			&cli.StringFlag{Name: "nats-subject-prefix", Value: events.DefaultSubjectPrefix, Usage: "Subject prefix for room events", Sources: cli.EnvVars("NATS_SUBJECT_PREFIX")},
			&cli.StringFlag{Name: "consul-addr", Usage: "Register with this Consul agent (disabled when empty)", Sources: cli.EnvVars("CONSUL_HTTP_ADDR")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with room API, WebSocket and MCP endpoint (default)",
				Action:  serverAction,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdio(ctx, configFromCommand(cmd))
				},
			},
		},
		Action: serverAction,
	}
}

func configFromCommand(cmd *cli.Command) *serverConfig {
	return &serverConfig{
		Host:            cmd.String("host"),
		Port:            int(cmd.Int("port")),
		ConfigDir:       cmd.String("config-dir"),
		LogLevel:        cmd.String("log-level"),
		LogFormat:       cmd.String("log-format"),
		RoomTTL:         cmd.Duration("room-ttl"),
		CleanupInterval: cmd.Duration("cleanup-interval"),
		NatsURL:         cmd.String("nats-url"),
		NatsPrefix:      cmd.String("nats-subject-prefix"),
		ConsulAddr:      cmd.String("consul-addr"),
		NgrokEnabled:    cmd.Bool("ngrok"),
		NgrokAuth:       cmd.String("ngrok-auth"),
		NgrokDomain:     cmd.String("ngrok-domain"),
	}
}

// setupLogger builds the process logger
func setupLogger(level, format string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: level == "debug",
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// services holds everything the transports share
type services struct {
	game      service.GameService
	rulesets  *config.Manager
	publisher events.Publisher
	close     func()
}

// initializeServices wires the ruleset catalog, the event publisher, the
// room registry and the game service.
func initializeServices(cfg *serverConfig, logger *slog.Logger) (*services, error) {
	rulesets, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	logger.Info("rulesets loaded", "config_dir", cfg.ConfigDir, "default", rulesets.GetDefault().Name)

	var publisher events.Publisher = events.Nop{}
	closePublisher := func() {}
	if cfg.NatsURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NatsURL, cfg.NatsPrefix, logger)
		if err != nil {
			logger.Warn("room events disabled", "nats_url", cfg.NatsURL, "error", err)
		} else {
			publisher = nats
			closePublisher = func() {
				if err := nats.Close(); err != nil {
					logger.Warn("failed to close nats connection", "error", err)
				}
			}
			logger.Info("publishing room events", "nats_url", cfg.NatsURL, "prefix", cfg.NatsPrefix)
		}
	}

	registry := session.NewManager(publisher, logger)
	gameService := service.NewGameService(registry, rulesets, logger)

	return &services{
		game:      gameService,
		rulesets:  rulesets,
		publisher: publisher,
		close:     closePublisher,
	}, nil
}

// roomCleanupRoutine periodically removes rooms nobody has touched within ttl
func roomCleanupRoutine(ctx context.Context, svc service.GameService, interval, ttl time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.CleanupIdleRooms(ctx, ttl)
		}
	}
}

// mcpHandler serves MCP JSON-RPC messages posted to /mcp
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newHTTPHandler builds the API server with the /mcp endpoint mounted
func newHTTPHandler(cfg *serverConfig, svc service.GameService, hub *websocket.Hub, logger *slog.Logger) http.Handler {
	apiServer := api.NewServer(svc, hub, logger)
	apiServer.Handle("/mcp", mcpHandler(mcp.NewClient(cfg.LocalBaseURL())), "POST")
	return apiServer
}

// runHTTPServer starts the HTTP server, the WebSocket hub, the cleanup
// routine and the optional Consul registration and ngrok tunnel, then
// blocks until ctx is cancelled.
func runHTTPServer(ctx context.Context, cfg *serverConfig) error {
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	logger.Info("starting", "app", AppName, "version", Version, "mode", "server")

	svcs, err := initializeServices(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.close()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(logger)
	go hub.Run(hubCtx)

	handler := newHTTPHandler(cfg, svcs.game, hub, logger)
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening", "addr", cfg.Addr(),
			"create", fmt.Sprintf("POST http://%s/createGame", cfg.Addr()),
			"join", fmt.Sprintf("ws://%s/join/{roomId}/{playerId}", cfg.Addr()),
			"mcp", fmt.Sprintf("http://%s/mcp", cfg.Addr()))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		roomCleanupRoutine(ctx, svcs.game, cfg.CleanupInterval, cfg.RoomTTL)
	}()

	var registrar *discovery.Registrar
	if cfg.ConsulAddr != "" {
		registrar, err = discovery.NewRegistrar(cfg.ConsulAddr, logger)
		if err == nil {
			err = registrar.Register(discovery.BuildRegistration(discovery.DefaultServiceName, cfg.Host, cfg.Port))
		}
		if err != nil {
			logger.Warn("consul registration failed", "consul_addr", cfg.ConsulAddr, "error", err)
			registrar = nil
		}
	}

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, handler, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		logger.Error("HTTP server failed", "error", err)
		return err
	}

	if registrar != nil {
		if err := registrar.Deregister(); err != nil {
			logger.Warn("consul deregistration failed", "error", err)
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
	}

	// Hijacked WebSocket connections are not closed by Shutdown
	stopHub()
	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
	}

	wg.Wait()
	logger.Info("server stopped")
	return nil
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, cfg *serverConfig, handler http.Handler, logger *slog.Logger) {
	if cfg.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logger.Info("using custom ngrok domain", "domain", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	logger.Info("ngrok tunnel established", "url", tun.URL(),
		"join", tun.URL()+"/join/{roomId}/{playerId}",
		"mcp", tun.URL()+"/mcp")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured port; otherwise it starts an internal HTTP API on a
// random loopback port. Logs go to stderr since stdout carries the protocol.
func runStdioMCP(ctx context.Context, cfg *serverConfig) error {
	logger := setupLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	baseURL := cfg.LocalBaseURL()
	if !apiAvailable(baseURL) {
		logger.Info("no external API server found, starting internal HTTP server", "checked", baseURL)

		svcs, err := initializeServices(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svcs.close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		internal := *cfg
		internal.Host = "127.0.0.1"
		internal.Port = listener.Addr().(*net.TCPAddr).Port
		baseURL = internal.LocalBaseURL()

		hub := websocket.NewHub(logger)
		go hub.Run(ctx)
		go roomCleanupRoutine(ctx, svcs.game, cfg.CleanupInterval, cfg.RoomTTL)

		httpServer := &http.Server{Handler: newHTTPHandler(&internal, svcs.game, hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()
	}

	logger.Info("MCP stdio server ready", "api", baseURL)
	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + discovery.HealthPath)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
