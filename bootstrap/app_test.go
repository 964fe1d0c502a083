package bootstrap

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hermes/config"
	"hermes/server"
)

// freePort grabs an ephemeral port and releases it for the app to bind.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func writeAppConfig(t *testing.T, port int, extra string) string {
	t.Helper()
	dir := t.TempDir()
	contents := fmt.Sprintf(`
bind_address: 127.0.0.1
port: %d
workers: 1
secret_key: testkey
database: sqlite://%s
%s`, port, filepath.Join(dir, "hermes.db"), extra)

	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func quietApp(t *testing.T, app *App) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	app.Logger = zap.New(core)
	app.Sugar = app.Logger.Sugar()
	return logs
}

func waitServing(t *testing.T, app *App) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if app.Supervisor.State() == server.Serving {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("app never reached serving (state %s)", app.Supervisor.State())
}

func TestNewAppWithoutReportingEndpoint(t *testing.T) {
	path := writeAppConfig(t, freePort(t), "")

	app, err := NewApp(context.Background(), Options{ConfigPath: path, Quiet: 2, Version: "test"})
	require.NoError(t, err)
	defer app.Shutdown()

	assert.Nil(t, app.Reporter, "no DSN must mean no client attached")
	assert.NotNil(t, app.SQLite)
	assert.NotNil(t, app.API)
	assert.Equal(t, server.Unbound, app.Supervisor.State())
}

func TestNewAppReportingUnavailable(t *testing.T) {
	path := writeAppConfig(t, freePort(t), "sentry_dsn: https://key@sentry.example.com/1\n")

	unavailable := UnavailableReporter("simulated absence")
	app, err := NewApp(context.Background(), Options{
		ConfigPath:         path,
		Quiet:              2,
		Version:            "test",
		ReporterCapability: &unavailable,
	})
	require.NoError(t, err)
	quietApp(t, app)

	// Startup must still reach Serving with no client attached.
	assert.Nil(t, app.Reporter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	waitServing(t, app)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunServesAndStops(t *testing.T) {
	port := freePort(t)
	path := writeAppConfig(t, port, "")

	app, err := NewApp(context.Background(), Options{ConfigPath: path, Quiet: 2, Version: "test"})
	require.NoError(t, err)
	logs := quietApp(t, app)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	waitServing(t, app)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Equal(t, server.Stopped, app.Supervisor.State())

	// Repeated shutdowns emit the farewell diagnostic exactly once.
	app.Shutdown()
	app.Shutdown()
	assert.Equal(t, 1, logs.FilterMessageSnippet(FarewellMessage).Len())
}

func TestRunBindFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()
	port := occupied.Addr().(*net.TCPAddr).Port

	path := writeAppConfig(t, port, "")
	app, err := NewApp(context.Background(), Options{ConfigPath: path, Quiet: 2, Version: "test"})
	require.NoError(t, err)
	logs := quietApp(t, app)

	err = app.Run(context.Background())
	require.ErrorIs(t, err, server.ErrBind)
	assert.NotEqual(t, server.Serving, app.Supervisor.State())

	// The process never served, so the bind error is its last word; the
	// farewell is reserved for shutdowns of a serving process.
	assert.Zero(t, logs.FilterMessageSnippet(FarewellMessage).Len())
}

func TestNewAppConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewApp(context.Background(), Options{ConfigPath: "/does/not/exist.yaml"})
		require.ErrorIs(t, err, config.ErrLoad)
	})

	t.Run("invalid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "server.yaml")
		require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0644))

		_, err := NewApp(context.Background(), Options{ConfigPath: path})
		require.ErrorIs(t, err, config.ErrValidation)
	})
}
