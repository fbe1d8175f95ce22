package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/statelift/pkg/migration"
)

func createDebugHooks(logger *slog.Logger) migration.Hooks {
	return migration.Hooks{
		OnRunStart: func(ctx context.Context, e *migration.RunEvent) {
			logger.Debug("Run Start", "state_id", e.StateID, "from", e.FromVersion)
		},
		OnStepStart: func(ctx context.Context, e *migration.StepEvent) {
			logger.Debug("Step Start", "state_id", e.StateID, "version", e.Version, "name", e.Name)
		},
		OnStepDone: func(ctx context.Context, e *migration.StepEvent) {
			if e.Err != nil {
				logger.Debug("Step Done (Error)", "state_id", e.StateID, "version", e.Version, "err", e.Err)
			} else {
				logger.Debug("Step Done (Success)", "state_id", e.StateID, "version", e.Version, "duration", e.Duration)
			}
		},
	}
}
