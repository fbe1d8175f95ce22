package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/statelift/pkg/migration"
)

// AuditHooks logs every step as a structured event. Intended for a JSON
// logger feeding an audit trail.
func AuditHooks(logger *slog.Logger) migration.Hooks {
	return migration.Hooks{
		OnRunStart: func(ctx context.Context, e *migration.RunEvent) {
			logger.InfoContext(ctx, "run_start",
				"run_id", e.RunID,
				"state_id", e.StateID,
				"from", e.FromVersion,
			)
		},
		OnStepDone: func(ctx context.Context, e *migration.StepEvent) {
			attrs := []any{
				"run_id", e.RunID,
				"state_id", e.StateID,
				"version", e.Version,
				"name", e.Name,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.ErrorContext(ctx, "step_failed", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "step_applied", attrs...)
		},
		OnRunDone: func(ctx context.Context, e *migration.RunEvent) {
			logger.InfoContext(ctx, "run_done",
				"run_id", e.RunID,
				"state_id", e.StateID,
				"from", e.FromVersion,
				"to", e.ToVersion,
				"applied", e.Applied,
				"outcome", runOutcome(e),
			)
		},
	}
}
