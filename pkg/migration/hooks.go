package migration

import (
	"context"
	"time"
)

// RunEvent describes a whole migration pass.
type RunEvent struct {
	RunID       string
	StateID     string
	FromVersion int
	ToVersion   int
	Applied     []int
	Duration    time.Duration
	Err         error
}

// StepEvent describes a single version step.
type StepEvent struct {
	RunID    string
	StateID  string
	Version  int
	Name     string
	Duration time.Duration
	Err      error
}

// Hooks defines callbacks for runner observability.
type Hooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnStepStart func(context.Context, *StepEvent)
	OnStepDone  func(context.Context, *StepEvent)
	OnRunDone   func(context.Context, *RunEvent)
}

// CombineHooks fans every callback out to each of the given hooks in order.
func CombineHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnRunStart: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnStepStart: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStepStart != nil {
					h.OnStepStart(ctx, e)
				}
			}
		},
		OnStepDone: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStepDone != nil {
					h.OnStepDone(ctx, e)
				}
			}
		},
		OnRunDone: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunDone != nil {
					h.OnRunDone(ctx, e)
				}
			}
		},
	}
}
