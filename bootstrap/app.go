package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hermes/api"
	"hermes/config"
	"hermes/server"
	"hermes/storage"

	"go.uber.org/zap"
)

// FarewellMessage is emitted as the last observable action of a process that
// reached Serving, whatever then caused the shutdown. A process that fails
// before serving ends on its fatal diagnostic instead.
const FarewellMessage = "hermes is done. Goodbye."

// Options carries everything the CLI resolved before bootstrap begins.
type Options struct {
	ConfigPath string
	Overrides  config.Overrides
	Verbose    int
	Quiet      int
	Version    string

	// ReporterCapability is the one-time availability check for the optional
	// error-reporting integration. Zero value means "detect".
	ReporterCapability *ReporterCapability
}

// App is the running service instance: one per process, holding the resolved
// configuration, the optional reporter, storage, the request layer, and the
// listener supervisor. It is torn down only at full process shutdown.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Reporter Reporter
	SQLite   *storage.SQLite

	HostStorage      *storage.HostStorage
	EventTypeStorage *storage.EventTypeStorage
	EventStorage     *storage.EventStorage

	API        *api.API
	Supervisor *server.Supervisor

	farewellOnce sync.Once
	shutdownOnce sync.Once
}

// NewApp resolves configuration and initializes every component, in order:
// config, logging, optional reporting, storage, request layer, supervisor.
// No network resource is touched here; Run performs the bind.
func NewApp(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	level := config.LogLevel(opts.Verbose, opts.Quiet)
	app.Logger, app.Sugar = InitLogger(level, cfg.LogFormat)

	app.Sugar.Infow("hermes starting",
		"version", opts.Version,
		"config", opts.ConfigPath,
		"addr", cfg.Addr(),
		"workers", cfg.Workers)

	capability := DetectReporter()
	if opts.ReporterCapability != nil {
		capability = *opts.ReporterCapability
	}
	app.Reporter = WireReporting(cfg.SentryDSN, opts.Version, capability, app.Sugar)

	sqlite, err := storage.NewSQLite(cfg.DatabaseURI, app.Sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.SQLite = sqlite
	app.HostStorage = storage.NewHostStorage(sqlite, app.Sugar)
	app.EventTypeStorage = storage.NewEventTypeStorage(sqlite, app.Sugar)
	app.EventStorage = storage.NewEventStorage(sqlite, app.Sugar)

	app.API = api.NewAPI(app.HostStorage, app.EventTypeStorage, app.EventStorage, cfg, app.Sugar)
	if app.Reporter != nil {
		app.API.SetErrorReporter(app.Reporter)
	}

	workers := cfg.Workers
	if server.IsWorker() {
		workers = 1
	}
	app.Supervisor = server.NewSupervisor(cfg.Addr(), workers, app.API.Handler(), app.Sugar)

	return app, nil
}

// Run binds the listener (or adopts the inherited one in worker processes),
// serves until an interrupt arrives, then shuts down. It returns nil on an
// orderly, signal-driven stop.
func (a *App) Run(ctx context.Context) error {
	defer a.Shutdown()

	if server.IsWorker() {
		listener, err := server.InheritedListener()
		if err != nil {
			return fmt.Errorf("worker %d failed to adopt listener: %w", server.WorkerID(), err)
		}
		if err := a.Supervisor.Adopt(listener); err != nil {
			return err
		}
		a.Sugar.Infow("Worker serving", "worker", server.WorkerID(), "pid", os.Getpid())
	} else {
		if err := a.Supervisor.Bind(); err != nil {
			a.Sugar.Errorw("Failed to bind listener", "error", err)
			return err
		}
	}

	// The interrupt handler cancels this context; the serving loop observes
	// the cancellation cooperatively.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Supervisor.Serve(ctx)
}

// Shutdown tears down every component. When the supervisor reached Serving,
// the farewell diagnostic is emitted as the process's last observable action;
// startup failures end on their fatal diagnostic instead. Safe to call more
// than once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		// Captured before Stop, which forces Stopped from any state.
		served := a.Supervisor != nil && a.Supervisor.State() >= server.Serving

		a.Sugar.Info("Shutting down...")

		if a.Supervisor != nil {
			a.Supervisor.Stop()
		}

		if a.SQLite != nil {
			if err := a.SQLite.Close(); err != nil {
				a.Sugar.Errorw("Failed to close storage", "error", err)
			}
		}

		if a.Reporter != nil {
			a.Reporter.Flush(2 * time.Second)
		}

		if served {
			a.Farewell()
		}
	})
}

// Farewell emits the fixed farewell diagnostic exactly once and flushes the
// logger.
func (a *App) Farewell() {
	a.farewellOnce.Do(func() {
		a.Sugar.Info(FarewellMessage)
		_ = a.Logger.Sync()
	})
}
