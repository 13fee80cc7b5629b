package infrastructure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"suryacli/internal/config"
)

func newTestObservability(t *testing.T, enableTracing bool) *Observability {
	t.Helper()

	cfg := DefaultObservabilityConfig()
	cfg.EnableTracing = enableTracing

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	obs, err := InitializeObservability(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, obs)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	})

	return obs
}

func TestDefaultObservabilityConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")

	cfg := DefaultObservabilityConfig()
	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, config.AppVersion, cfg.ServiceVersion)
	assert.Equal(t, "staging", cfg.Environment)
	assert.False(t, cfg.EnableTracing)
}

func TestInitializeObservability(t *testing.T) {
	obs := newTestObservability(t, false)

	assert.NotNil(t, obs.MeterProvider)
	assert.NotNil(t, obs.Meter)
	assert.NotNil(t, obs.Tracer)

	// Without tracing enabled no SDK tracer provider is built.
	assert.Nil(t, obs.TracerProvider)
}

func TestInitializeObservability_TracingEnabled(t *testing.T) {
	obs := newTestObservability(t, true)

	require.NotNil(t, obs.TracerProvider)

	ctx, span := obs.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceIDFromContext(ctx))
}

func TestCreateRunMetrics(t *testing.T) {
	obs := newTestObservability(t, false)

	metrics, err := CreateRunMetrics(obs.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.RowsParsed)
	assert.NotNil(t, metrics.CellsFilled)
	assert.NotNil(t, metrics.ChartsRendered)
	assert.NotNil(t, metrics.ChartsFailed)
	assert.NotNil(t, metrics.ArtifactBytes)
	assert.NotNil(t, metrics.StepExecutions)
	assert.NotNil(t, metrics.StepDuration)
	assert.NotNil(t, metrics.RunDuration)
}

func TestWriteMetricsTextfile(t *testing.T) {
	obs := newTestObservability(t, false)

	metrics, err := CreateRunMetrics(obs.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordStepMetrics(ctx, metrics, "load", 125*time.Millisecond, "success")
	RecordStepMetrics(ctx, metrics, "clean", 250*time.Millisecond, "failure")
	RecordFrameMetrics(ctx, metrics, 52560, 118)
	RecordChartMetrics(ctx, metrics, 6, 1)
	RecordArtifactBytes(ctx, metrics, "csv", 4096)
	RecordRunMetrics(ctx, metrics, 2*time.Second, true)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, obs.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "surya_step_executions_total")
	assert.Contains(t, text, `step="load"`)
	assert.Contains(t, text, `step="clean"`)
	assert.Contains(t, text, `status="success"`)
	assert.Contains(t, text, `status="failure"`)
	assert.Contains(t, text, "surya_step_duration_seconds")
	assert.Contains(t, text, "surya_run_duration_seconds")
	assert.Contains(t, text, "surya_rows_parsed_total")
	assert.Contains(t, text, "surya_cells_filled_total")
	assert.Contains(t, text, "surya_charts_rendered_total")
	assert.Contains(t, text, "surya_charts_failed_total")
	assert.Contains(t, text, "surya_artifact_bytes_total")
	assert.Contains(t, text, `kind="csv"`)

	// A directory that does not exist must surface as a wrapped error.
	err = obs.WriteMetricsTextfile(filepath.Join(t.TempDir(), "missing", "metrics.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics textfile")
}

func TestWriteMetricsTextfile_NotInitialized(t *testing.T) {
	var obs Observability

	err := obs.WriteMetricsTextfile(filepath.Join(t.TempDir(), "metrics.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics registry not initialized")
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	// Recording against nil metrics must be a no-op, not a panic.
	ctx := context.Background()
	RecordStepMetrics(ctx, nil, "load", time.Second, "success")
	RecordRunMetrics(ctx, nil, time.Second, false)
	RecordFrameMetrics(ctx, nil, 1, 1)
	RecordChartMetrics(ctx, nil, 1, 0)
	RecordArtifactBytes(ctx, nil, "csv", 1)
}

func TestProcessMetricsCollect(t *testing.T) {
	obs := newTestObservability(t, false)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pm, err := NewProcessMetrics(obs.Meter, logger)
	require.NoError(t, err)

	start := time.Now().Add(-50 * time.Millisecond)
	stats := pm.Collect(context.Background(), start)

	assert.Greater(t, stats.Goroutines, 0)
	assert.Greater(t, stats.HeapAllocBytes, uint64(0))
	assert.Greater(t, stats.SysBytes, uint64(0))
	assert.Greater(t, stats.CPUCount, 0)
	assert.GreaterOrEqual(t, stats.Uptime, 50*time.Millisecond)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, obs.WriteMetricsTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "surya_process_goroutines")
	assert.Contains(t, text, "surya_process_heap_alloc_bytes")
	assert.Contains(t, text, "surya_process_uptime_seconds")
}
