package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/keygate/internal/api"
	"github.com/nerrad567/keygate/internal/events"
	"github.com/nerrad567/keygate/internal/infrastructure/config"
	"github.com/nerrad567/keygate/internal/infrastructure/logging"
)

// writeConfig writes a config with MQTT and InfluxDB disabled and returns
// its path.
func writeConfig(t *testing.T, dbPath string, port int, signingKey string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`
database:
  path: %q
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: discard

api:
  host: "127.0.0.1"
  port: %d

security:
  secret_signing_key: %q
  password:
    time: 1
    memory_kib: 1024
    threads: 1
`, dbPath, port, signingKey)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("KEYGATE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ShortSigningKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KEYGATE_CONFIG", writeConfig(t, filepath.Join(dir, "k.db"), 1234, "too-short"))
	t.Setenv("KEYGATE_SECRET_SIGNING_KEY", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "secret_signing_key") {
		t.Fatalf("run() error = %v, want signing key error", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("KEYGATE_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("KEYGATE_CONFIG", "/custom/path/config.yaml")
	if got := getConfigPath(); got != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want override", got)
	}
}

// TestRun_StartupAndShutdown boots the service with only SQLite, checks
// /api/health, then cancels.
func TestRun_StartupAndShutdown(t *testing.T) {
	dir := t.TempDir()
	port := freePort(t)
	t.Setenv("KEYGATE_CONFIG", writeConfig(t, filepath.Join(dir, "keygate.db"), port,
		"test-signing-key-0123456789abcdef0123"))
	t.Setenv("KEYGATE_SECRET_SIGNING_KEY", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/health", port)
	deadline := time.Now().Add(10 * time.Second)
	for {
		resp, err := http.Get(url) //nolint:noctx // test polling
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became healthy: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

// countingSink records the types of delivered events.
type countingSink struct {
	mu    sync.Mutex
	types []string
}

func (s *countingSink) Name() string { return "counting" }

func (s *countingSink) Deliver(_ context.Context, e events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, e.Type)
	return nil
}

func (s *countingSink) delivered() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.types...)
}

func TestStartBackground_DeliversEventsPublishedDuringShutdown(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error"}, "test", io.Discard)
	bus := events.NewBus(8, log)
	sink := &countingSink{}
	bus.AddSink(sink)
	hub := api.NewHub(config.WebSocketConfig{}, log)
	bus.AddSink(hub)

	ctx, cancel := context.WithCancel(context.Background())
	stop := startBackground(bus, hub)

	// Signal received; an in-flight request still publishes before the
	// server finishes closing.
	cancel()
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	bus.Publish(events.New(events.TypeAuthorizationDenied, "user", "usr-late"))

	if err := stop(); err != nil {
		t.Fatalf("stop() error = %v", err)
	}

	got := sink.delivered()
	if len(got) != 1 || got[0] != events.TypeAuthorizationDenied {
		t.Errorf("delivered = %v, want [%s]", got, events.TypeAuthorizationDenied)
	}
	stats := bus.Stats()
	if stats.Published != 1 || stats.Delivered != 2 || stats.Queued != 0 {
		t.Errorf("stats = %+v, want published=1 delivered=2 queued=0", stats)
	}
}
