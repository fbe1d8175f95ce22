package statelift

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/statelift/internal/logging"
	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/migration"
	"github.com/aretw0/statelift/pkg/migration/declarative"
	"github.com/aretw0/statelift/pkg/migrations"
	"github.com/aretw0/statelift/pkg/ports"
	"github.com/aretw0/statelift/pkg/vault"
)

// Version is the release of this module.
//
//go:embed VERSION
var Version string

// Engine is the high-level entry point for the library.
// It binds a registry (built-in plus declarative transforms) to a runner.
type Engine struct {
	registry      *migration.Registry
	runner        *migration.Runner
	base          *migration.Registry
	transformsDir string
	hooks         migration.Hooks
	logger        *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks migration.Hooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTransformsDir merges the YAML transforms found in dir into the
// registry. A missing directory is not an error.
func WithTransformsDir(dir string) Option {
	return func(e *Engine) {
		e.transformsDir = dir
	}
}

// WithRegistry replaces the built-in transforms as the base registry.
func WithRegistry(reg *migration.Registry) Option {
	return func(e *Engine) {
		e.base = reg
	}
}

// New builds an Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		base:   migrations.Registry(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	reg := e.base
	if e.transformsDir != "" {
		var err error
		reg, err = declarative.LoadRegistry(e.base, e.transformsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load transforms: %w", err)
		}
	}
	e.registry = reg
	e.runner = migration.NewRunner(reg,
		migration.WithLogger(e.logger),
		migration.WithHooks(e.hooks),
	)
	return e, nil
}

// Registry returns the effective registry.
func (e *Engine) Registry() *migration.Registry {
	return e.registry
}

// Runner returns the runner bound to the registry.
func (e *Engine) Runner() *migration.Runner {
	return e.runner
}

// Latest returns the newest registered version.
func (e *Engine) Latest() int {
	return e.registry.Latest()
}

// Migrate upgrades a copy of state. See migration.Runner.Run.
func (e *Engine) Migrate(ctx context.Context, state *domain.State, opts ...migration.RunOption) (*migration.Result, error) {
	return e.runner.Run(ctx, state, opts...)
}

// MigrateJSON decodes a state document from r, upgrades it and writes the
// result to w. Nothing is written when the run fails.
func (e *Engine) MigrateJSON(ctx context.Context, r io.Reader, w io.Writer, opts ...migration.RunOption) (*migration.Result, error) {
	state, err := domain.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	res, err := e.runner.Run(ctx, state, opts...)
	if err != nil {
		return res, err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res.State); err != nil {
		return res, fmt.Errorf("failed to encode state: %w", err)
	}
	return res, nil
}

// NewManager binds a store to the engine's runner.
func (e *Engine) NewManager(store ports.StateStore, opts ...vault.Option) *vault.Manager {
	opts = append([]vault.Option{vault.WithLogger(e.logger)}, opts...)
	opts = append(opts, vault.WithRunner(e.runner))
	return vault.NewManager(store, opts...)
}

// Migrate upgrades a copy of state with the built-in transforms.
func Migrate(ctx context.Context, state *domain.State) (*migration.Result, error) {
	return migration.NewRunner(migrations.Registry()).Run(ctx, state)
}
