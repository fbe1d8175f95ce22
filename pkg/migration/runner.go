package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/statelift/internal/logging"
	"github.com/aretw0/statelift/pkg/domain"
	"github.com/google/uuid"
)

// Result is the outcome of a migration pass.
type Result struct {
	RunID string `json:"run_id"`

	// State is the upgraded state. On failure it is the state after the
	// last successful step.
	State *domain.State `json:"state"`

	FromVersion int   `json:"from_version"`
	ToVersion   int   `json:"to_version"`
	Applied     []int `json:"applied"`
}

// Changed reports whether at least one transform was applied.
func (r *Result) Changed() bool {
	return len(r.Applied) > 0
}

// Runner applies a registry to persisted states.
// A Runner holds no per-run state and is safe for concurrent use across
// distinct states.
type Runner struct {
	registry *Registry
	resolve  EnvResolver
	hooks    Hooks
	logger   *slog.Logger
}

// Option configures the Runner.
type Option func(*Runner)

// WithLogger sets a custom structured logger for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks Hooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithEnvResolver replaces the default chain identifier lookup.
func WithEnvResolver(resolve EnvResolver) Option {
	return func(r *Runner) {
		r.resolve = resolve
	}
}

// NewRunner creates a runner for the given registry.
func NewRunner(registry *Registry, opts ...Option) *Runner {
	r := &Runner{
		registry: registry,
		resolve:  ResolveEnv,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = &Registry{}
	}
	return r
}

// Registry returns the registry the runner applies.
func (r *Runner) Registry() *Registry {
	return r.registry
}

type runConfig struct {
	target  int
	stateID string
}

// RunOption configures a single pass.
type RunOption func(*runConfig)

// WithTarget stops the pass once the given version is reached.
// Zero means the newest registered version.
func WithTarget(version int) RunOption {
	return func(c *runConfig) {
		c.target = version
	}
}

// WithStateID labels the pass with the ID of the state being migrated.
func WithStateID(id string) RunOption {
	return func(c *runConfig) {
		c.stateID = id
	}
}

// Run applies every pending transform to a copy of state.
// The input is never mutated. On failure the returned error wraps a
// *domain.MigrationError naming the failing version and the Result holds the
// state as of the last successful step. ctx is only handed to hooks; a pass is
// never interrupted between steps.
func (r *Runner) Run(ctx context.Context, state *domain.State, opts ...RunOption) (*Result, error) {
	if state == nil {
		return nil, errors.New("cannot migrate a nil state")
	}

	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cur := state.Clone()

	res := &Result{
		RunID:       uuid.NewString(),
		State:       cur,
		FromVersion: cur.Meta.Version,
		ToVersion:   cur.Meta.Version,
		Applied:     []int{},
	}

	logger := r.logger.With("run_id", res.RunID)
	if cfg.stateID != "" {
		logger = logger.With("state_id", cfg.stateID)
	}

	runEvent := &RunEvent{RunID: res.RunID, StateID: cfg.stateID, FromVersion: res.FromVersion}
	if r.hooks.OnRunStart != nil {
		r.hooks.OnRunStart(ctx, runEvent)
	}
	started := time.Now()

	err := r.apply(ctx, logger, res, cfg)

	runEvent.ToVersion = res.ToVersion
	runEvent.Applied = res.Applied
	runEvent.Duration = time.Since(started)
	runEvent.Err = err
	if r.hooks.OnRunDone != nil {
		r.hooks.OnRunDone(ctx, runEvent)
	}

	if err != nil {
		logger.Error("Migration halted",
			"from", res.FromVersion,
			"reached", res.ToVersion,
			"err", err,
		)
		return res, err
	}

	if res.Changed() {
		logger.Info("Migration complete",
			"from", res.FromVersion,
			"to", res.ToVersion,
			"applied", len(res.Applied),
		)
	} else {
		logger.Debug("State already current", "version", res.ToVersion)
	}
	return res, nil
}

func (r *Runner) apply(ctx context.Context, logger *slog.Logger, res *Result, cfg runConfig) error {
	for _, t := range r.registry.Pending(res.State.Meta.Version) {
		if cfg.target > 0 && t.Version > cfg.target {
			logger.Debug("Reached target version", "target", cfg.target)
			break
		}

		next, err := r.step(ctx, logger, res, cfg, t)
		if err != nil {
			return err
		}

		next.Meta.Version = t.Version
		res.State = next
		res.ToVersion = t.Version
		res.Applied = append(res.Applied, t.Version)
	}
	return nil
}

func (r *Runner) step(ctx context.Context, logger *slog.Logger, res *Result, cfg runConfig, t Transform) (*domain.State, error) {
	cur := res.State
	if cur.Meta.Version >= t.Version {
		// Pending only yields versions above the current one.
		panic(fmt.Errorf("%w: state at %d, transform targets %d", domain.ErrVersionMismatch, cur.Meta.Version, t.Version))
	}

	event := &StepEvent{RunID: res.RunID, StateID: cfg.stateID, Version: t.Version, Name: t.Name}
	if r.hooks.OnStepStart != nil {
		r.hooks.OnStepStart(ctx, event)
	}
	logger.Debug("Applying transform", "version", t.Version, "name", t.Name)
	started := time.Now()

	next, err := r.invoke(cur, t)

	event.Duration = time.Since(started)
	event.Err = err
	if r.hooks.OnStepDone != nil {
		r.hooks.OnStepDone(ctx, event)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Transform applied", "version", t.Version, "duration", event.Duration)
	return next, nil
}

func (r *Runner) invoke(cur *domain.State, t Transform) (*domain.State, error) {
	fail := func(err error) error {
		return &domain.MigrationError{Version: t.Version, Name: t.Name, Err: err}
	}

	env, err := r.resolve(cur)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to resolve environment: %w", err))
	}

	in := cur.Clone()
	if in.Data == nil {
		in.Data = make(map[string]any)
	}
	next, err := t.Migrate(in, env)
	if err != nil {
		return nil, fail(err)
	}
	if next == nil {
		return nil, fail(errors.New("transform returned no state"))
	}
	if next.Data == nil {
		next.Data = make(map[string]any)
	}
	return next, nil
}
