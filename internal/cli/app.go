package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/statelift"
	"github.com/aretw0/statelift/internal/config"
	"github.com/aretw0/statelift/internal/logging"
	"github.com/aretw0/statelift/pkg/migration"
	"github.com/aretw0/statelift/pkg/observability"
	"github.com/aretw0/statelift/pkg/ports"
	"github.com/aretw0/statelift/pkg/vault"
)

// Options holds the persistent CLI flags. Non-empty values override the
// config file and environment.
type Options struct {
	ConfigPath string
	Backend    string
	Dir        string
	Debug      bool
}

// App is the wired application shared by every command.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Engine  *statelift.Engine
	Store   ports.StateStore
	Manager *vault.Manager
	Metrics *observability.Metrics

	closers []io.Closer
}

// NewApp loads configuration and wires store, engine and manager.
func NewApp(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Backend != "" {
		cfg.Store.Backend = opts.Backend
	}
	if opts.Dir != "" {
		cfg.Store.Dir = opts.Dir
	}
	if opts.Debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := createLogger(cfg)
	metrics := observability.NewMetrics()

	hooks := metrics.Hooks()
	if opts.Debug {
		hooks = migration.CombineHooks(hooks, createDebugHooks(logger))
	}

	engine, err := statelift.New(
		statelift.WithLogger(logger),
		statelift.WithHooks(hooks),
		statelift.WithTransformsDir(cfg.Transforms.Dir),
	)
	if err != nil {
		return nil, err
	}

	store, locker, closers, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var managerOpts []vault.Option
	if locker != nil {
		managerOpts = append(managerOpts, vault.WithLocker(locker))
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Engine:  engine,
		Store:   store,
		Manager: engine.NewManager(store, managerOpts...),
		Metrics: metrics,
		closers: closers,
	}, nil
}

// Close releases store connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// createLogger configures the application logger.
// Logs go to stderr so command output on stdout stays parseable.
func createLogger(cfg *config.Config) *slog.Logger {
	level, _ := logging.ParseLevel(cfg.Log.Level)
	if cfg.Log.JSON {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}
