package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/statelift/internal/logging"
	"github.com/aretw0/statelift/pkg/domain"
	"github.com/aretw0/statelift/pkg/migration"
	"github.com/aretw0/statelift/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registry() *migration.Registry {
	return migration.MustRegistry(
		migration.Transform{Version: 1, Name: "one", Migrate: func(s *domain.State, _ migration.Env) (*domain.State, error) {
			return s, nil
		}},
		migration.Transform{Version: 2, Name: "two", Migrate: func(s *domain.State, _ migration.Env) (*domain.State, error) {
			if _, ok := s.Data["poison"]; ok {
				return nil, domain.ErrIncompatibleShape
			}
			return s, nil
		}},
	)
}

func TestMetrics_Hooks(t *testing.T) {
	metrics := observability.NewMetrics()
	runner := migration.NewRunner(registry(), migration.WithHooks(metrics.Hooks()))
	ctx := context.Background()

	_, err := runner.Run(ctx, domain.NewState(0))
	require.NoError(t, err)
	_, err = runner.Run(ctx, domain.NewState(2))
	require.NoError(t, err)

	poisoned := domain.NewState(0)
	poisoned.Data["poison"] = true
	_, err = runner.Run(ctx, poisoned)
	require.Error(t, err)

	count, err := testutil.GatherAndCount(metrics.Registry(), "statelift_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "one series per outcome")

	body := scrape(t, metrics)
	assert.Contains(t, body, `statelift_runs_total{outcome="migrated"} 1`)
	assert.Contains(t, body, `statelift_runs_total{outcome="current"} 1`)
	assert.Contains(t, body, `statelift_runs_total{outcome="failed"} 1`)
	assert.Contains(t, body, `statelift_steps_total{outcome="applied",version="1"} 2`)
	assert.Contains(t, body, `statelift_steps_total{outcome="applied",version="2"} 1`)
	assert.Contains(t, body, `statelift_steps_total{outcome="failed",version="2"} 1`)
	assert.Contains(t, body, "statelift_run_duration_seconds_count 3")
}

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestAuditHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo, true)
	hooks := observability.AuditHooks(logger)

	ctx := context.Background()
	hooks.OnRunStart(ctx, &migration.RunEvent{RunID: "r1", StateID: "wallet"})
	hooks.OnStepDone(ctx, &migration.StepEvent{RunID: "r1", Version: 76, Name: "gas"})
	hooks.OnStepDone(ctx, &migration.StepEvent{RunID: "r1", Version: 77, Err: errors.New("boom")})
	hooks.OnRunDone(ctx, &migration.RunEvent{RunID: "r1", Applied: []int{76}, Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, `"msg":"run_start"`)
	assert.Contains(t, out, `"msg":"step_applied"`)
	assert.Contains(t, out, `"msg":"step_failed"`)
	assert.Contains(t, out, `"err":"boom"`)
	assert.Contains(t, out, `"outcome":"failed"`)
}
