package vault

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/migration"
	"github.com/aretw0/statelift/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Report describes one Migrate call.
type Report struct {
	ID     string            `json:"id"`
	Result *migration.Result `json:"result,omitempty"`
	Diff   *domain.StateDiff `json:"diff,omitempty"`
	DryRun bool              `json:"dry_run,omitempty"`
	Saved  bool              `json:"saved"`
	Error  string            `json:"error,omitempty"`

	// FailedVersion is the version of the transform that failed, if any.
	FailedVersion int `json:"failed_version,omitempty"`

	Err error `json:"-"`
}

type migrateConfig struct {
	target int
	dryRun bool
}

// MigrateOption configures Migrate and MigrateAll.
type MigrateOption func(*migrateConfig)

// WithTarget stops migration at the given version.
func WithTarget(version int) MigrateOption {
	return func(c *migrateConfig) {
		c.target = version
	}
}

// DryRun computes the result without writing it back.
func DryRun(enabled bool) MigrateOption {
	return func(c *migrateConfig) {
		c.dryRun = enabled
	}
}

// Migrate loads the state, runs pending transforms and writes the result back.
// Nothing is written when the run fails, when no transform applied or on a dry
// run. The report is returned alongside any error.
func (m *Manager) Migrate(ctx context.Context, id string, opts ...MigrateOption) (*Report, error) {
	var cfg migrateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	report := &Report{ID: id, DryRun: cfg.dryRun}
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}

		res, runErr := m.runner.Run(ctx, state,
			migration.WithTarget(cfg.target),
			migration.WithStateID(id),
		)
		report.Result = res
		if res != nil {
			report.Diff = domain.Diff(state, res.State)
		}
		if runErr != nil {
			return runErr
		}

		if cfg.dryRun || !res.Changed() {
			return nil
		}
		if err := m.store.Save(ctx, id, res.State); err != nil {
			return fmt.Errorf("failed to save migrated state: %w", err)
		}
		report.Saved = true
		return nil
	})
	if err != nil {
		report.Err = err
		report.Error = err.Error()
		report.FailedVersion, _ = domain.FailedVersion(err)
	}
	return report, err
}

// Summary aggregates a MigrateAll pass.
type Summary struct {
	Reports  []*Report `json:"reports"`
	Migrated int       `json:"migrated"`
	Current  int       `json:"current"`
	Failed   int       `json:"failed"`
}

// Err joins the per-ID failures in ID order. It is nil when every state migrated.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Reports {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ID, r.Err))
		}
	}
	return errors.Join(errs...)
}

// MigrateAll migrates every stored state. Distinct IDs run in parallel, at
// most concurrency at a time (<= 0 means one). A failing state does not stop
// the others; failures are reported per ID.
func (m *Manager) MigrateAll(ctx context.Context, concurrency int, opts ...MigrateOption) (*Summary, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	return m.MigrateIDs(ctx, ids, concurrency, opts...)
}

// Pending returns the IDs of states below the newest registered version.
// Stores implementing ports.VersionIndex answer from their index; other stores
// are scanned. States that fail to load are skipped.
func (m *Manager) Pending(ctx context.Context) ([]string, error) {
	latest := m.runner.Registry().Latest()
	if idx, ok := m.store.(ports.VersionIndex); ok {
		return idx.Below(ctx, latest)
	}

	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	var pending []string
	for _, id := range ids {
		state, err := m.store.Load(ctx, id)
		if err != nil {
			m.logger.Warn("Skipping unreadable state", "state_id", id, "err", err)
			continue
		}
		if state.Meta.Version < latest {
			pending = append(pending, id)
		}
	}
	return pending, nil
}

// MigrateIDs is MigrateAll over an explicit set of IDs.
func (m *Manager) MigrateIDs(ctx context.Context, ids []string, concurrency int, opts ...MigrateOption) (*Summary, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	reports := make([]*Report, len(ids))
	var migrated, current, failed atomic.Int64

	g := errgroup.Group{}
	g.SetLimit(concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				reports[i] = &Report{ID: id, Err: err, Error: err.Error()}
				failed.Add(1)
				return nil
			}

			report, err := m.Migrate(ctx, id, opts...)
			reports[i] = report
			switch {
			case err != nil:
				failed.Add(1)
			case report.Result != nil && report.Result.Changed():
				migrated.Add(1)
			default:
				current.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{
		Reports:  reports,
		Migrated: int(migrated.Load()),
		Current:  int(current.Load()),
		Failed:   int(failed.Load()),
	}
	m.logger.Info("Migration pass finished",
		"states", len(ids),
		"migrated", summary.Migrated,
		"current", summary.Current,
		"failed", summary.Failed,
	)
	return summary, nil
}
