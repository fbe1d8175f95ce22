package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/statelift/pkg/migration"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeMigrated = "migrated"
	OutcomeCurrent  = "current"
	OutcomeFailed   = "failed"
	OutcomeApplied  = "applied"
)

// Metrics holds the migration collectors on a private registry so several
// instances can coexist (tests, embedded servers).
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	steps        *prometheus.CounterVec
	runDuration  prometheus.Histogram
	stepDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statelift_runs_total",
				Help: "Total number of migration runs by outcome",
			},
			[]string{"outcome"},
		),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statelift_steps_total",
				Help: "Total number of transform invocations by version and outcome",
			},
			[]string{"version", "outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "statelift_run_duration_seconds",
				Help:    "Duration of migration runs",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statelift_step_duration_seconds",
				Help:    "Duration of single transforms",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"version"},
		),
	}
	m.registry.MustRegister(
		m.runs, m.steps, m.runDuration, m.stepDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks records runs and steps.
func (m *Metrics) Hooks() migration.Hooks {
	return migration.Hooks{
		OnStepDone: func(_ context.Context, e *migration.StepEvent) {
			version := strconv.Itoa(e.Version)
			outcome := OutcomeApplied
			if e.Err != nil {
				outcome = OutcomeFailed
			}
			m.steps.WithLabelValues(version, outcome).Inc()
			m.stepDuration.WithLabelValues(version).Observe(e.Duration.Seconds())
		},
		OnRunDone: func(_ context.Context, e *migration.RunEvent) {
			m.runs.WithLabelValues(runOutcome(e)).Inc()
			m.runDuration.Observe(e.Duration.Seconds())
		},
	}
}

func runOutcome(e *migration.RunEvent) string {
	switch {
	case e.Err != nil:
		return OutcomeFailed
	case len(e.Applied) > 0:
		return OutcomeMigrated
	default:
		return OutcomeCurrent
	}
}
