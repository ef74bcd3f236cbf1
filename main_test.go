package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wricardo/battleship-server/game/service"
	"github.com/wricardo/battleship-server/transport/events"
	"github.com/wricardo/battleship-server/transport/websocket"
)

func captureConfig(t *testing.T, args ...string) (*serverConfig, string) {
	t.Helper()
	var got *serverConfig
	var mode string
	app := newApp(
		func(ctx context.Context, cfg *serverConfig) error { got, mode = cfg, "server"; return nil },
		func(ctx context.Context, cfg *serverConfig) error { got, mode = cfg, "stdio"; return nil },
	)
	if err := app.Run(context.Background(), append([]string{"battleship-server"}, args...)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got == nil {
		t.Fatal("No action ran")
	}
	return got, mode
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Battleship Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestFlagDefaults(t *testing.T) {
	cfg, mode := captureConfig(t)

	if mode != "server" {
		t.Errorf("Expected default mode server, got %s", mode)
	}
	if cfg.Host != "localhost" || cfg.Port != 8080 {
		t.Errorf("Unexpected address %s", cfg.Addr())
	}
	if cfg.ConfigDir != "configs" {
		t.Errorf("Expected config dir 'configs', got %s", cfg.ConfigDir)
	}
	if cfg.RoomTTL != time.Hour || cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("Unexpected cleanup settings: ttl=%s interval=%s", cfg.RoomTTL, cfg.CleanupInterval)
	}
	if cfg.NatsURL != "" || cfg.ConsulAddr != "" || cfg.NgrokEnabled {
		t.Error("Optional integrations should be disabled by default")
	}
	if cfg.NatsPrefix != events.DefaultSubjectPrefix {
		t.Errorf("Expected default subject prefix, got %s", cfg.NatsPrefix)
	}
}

func TestFlagsAndModes(t *testing.T) {
	tests := []struct {
		args []string
		mode string
	}{
		{[]string{"server"}, "server"},
		{[]string{"http"}, "server"},
		{[]string{"stdio-mcp"}, "stdio"},
		{[]string{"mcp-stdio"}, "stdio"},
		{[]string{"mcp"}, "stdio"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, mode := captureConfig(t, tt.args...)
			if mode != tt.mode {
				t.Errorf("Expected mode %s, got %s", tt.mode, mode)
			}
		})
	}

	cfg, _ := captureConfig(t, "--port", "9090", "--host", "0.0.0.0", "--room-ttl", "30m", "server")
	if cfg.Port != 9090 || cfg.Host != "0.0.0.0" || cfg.RoomTTL != 30*time.Minute {
		t.Errorf("Flags not applied: %+v", cfg)
	}
	if cfg.LocalBaseURL() != "http://127.0.0.1:9090" {
		t.Errorf("Unexpected local base URL %s", cfg.LocalBaseURL())
	}
}

func TestEnvironmentSources(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("NGROK_ENABLED", "true")
	t.Setenv("NGROK_AUTHTOKEN", "secret")

	cfg, _ := captureConfig(t)
	if cfg.Port != 7070 || cfg.LogFormat != "json" || cfg.NatsURL != "nats://broker:4222" {
		t.Errorf("Environment not applied: %+v", cfg)
	}
	if !cfg.NgrokEnabled || cfg.NgrokAuth != "secret" {
		t.Errorf("Ngrok environment not applied: %+v", cfg)
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "room_id", "r1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info should be filtered at warn level")
	}
	var line map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("Expected one JSON line, got %q: %v", out, err)
	}
	if line["room_id"] != "r1" {
		t.Errorf("Expected room_id attribute, got %v", line)
	}
}

func TestInitializeServices(t *testing.T) {
	cfg := &serverConfig{ConfigDir: "configs"}
	svcs, err := initializeServices(cfg, setupLogger("error", "text", &bytes.Buffer{}))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svcs.close()

	if _, ok := svcs.publisher.(events.Nop); !ok {
		t.Errorf("Expected no-op publisher without NATS, got %T", svcs.publisher)
	}
	if svcs.rulesets.GetDefault().Name != "classic" {
		t.Errorf("Expected classic default ruleset, got %s", svcs.rulesets.GetDefault().Name)
	}

	info, err := svcs.game.CreateRoom(context.Background(), "skirmish")
	if err != nil {
		t.Fatalf("Failed to create room: %v", err)
	}
	if info.Ruleset != "skirmish" {
		t.Errorf("Expected skirmish room, got %s", info.Ruleset)
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	cfg := &serverConfig{ConfigDir: "/non/existent/path"}
	if _, err := initializeServices(cfg, setupLogger("error", "text", &bytes.Buffer{})); err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestInitializeServices_UnreachableNATS(t *testing.T) {
	cfg := &serverConfig{ConfigDir: "configs", NatsURL: "nats://127.0.0.1:1"}
	svcs, err := initializeServices(cfg, setupLogger("error", "text", &bytes.Buffer{}))
	if err != nil {
		t.Fatalf("Unreachable NATS must not be fatal: %v", err)
	}
	if _, ok := svcs.publisher.(events.Nop); !ok {
		t.Errorf("Expected fallback to no-op publisher, got %T", svcs.publisher)
	}
}

type countingCleanup struct {
	service.GameService
	calls atomic.Int32
}

func (c *countingCleanup) CleanupIdleRooms(ctx context.Context, maxAge time.Duration) int {
	c.calls.Add(1)
	return 0
}

func TestRoomCleanupRoutine(t *testing.T) {
	svc := &countingCleanup{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		roomCleanupRoutine(ctx, svc, 5*time.Millisecond, time.Hour)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if svc.calls.Load() == 0 {
		t.Error("Expected cleanup to run")
	}

	// a zero interval disables the routine
	roomCleanupRoutine(context.Background(), svc, 0, time.Hour)
}

func TestHTTPHandler_MCPEndpoint(t *testing.T) {
	svcs, err := initializeServices(&serverConfig{ConfigDir: "configs"}, setupLogger("error", "text", &bytes.Buffer{}))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	hub := websocket.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	handler := newHTTPHandler(&serverConfig{Host: "localhost", Port: 8080}, svcs.game, hub, nil)
	server := httptest.NewServer(handler)
	defer server.Close()

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	resp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /mcp failed: %v", err)
	}
	defer resp.Body.Close()

	var rpc struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		t.Fatalf("Failed to decode MCP response: %v", err)
	}

	names := map[string]bool{}
	for _, tool := range rpc.Result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"create_game", "list_rooms", "get_room", "list_rulesets", "game_instructions"} {
		if !names[want] {
			t.Errorf("Expected tool %s, got %v", want, names)
		}
	}

	resp, err = http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected healthy server, got %d", resp.StatusCode)
	}
}
