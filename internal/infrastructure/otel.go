package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"suryacli/internal/config"
)

const (
	ServiceName = "suryacli"
	MeterName   = "suryacli"
)

// ObservabilityConfig holds tracing and metrics configuration
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// EnableTracing turns on span export to stdout. Metrics are always
	// collected; they cost nothing until written out.
	EnableTracing bool
}

// Observability holds the OpenTelemetry providers and the private registry
// the run metrics land in
type Observability struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter

	registry *prometheus.Registry
	logger   *slog.Logger
}

// DefaultObservabilityConfig returns a default observability configuration
func DefaultObservabilityConfig() *ObservabilityConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &ObservabilityConfig{
		ServiceName:    ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    env,
		EnableTracing:  false,
	}
}

// InitializeObservability sets up the OpenTelemetry providers: an optional
// stdout span exporter and a metric pipeline feeding a private Prometheus
// registry that WriteMetricsTextfile flushes at run end.
func InitializeObservability(cfg *ObservabilityConfig, logger *slog.Logger) (*Observability, error) {
	if cfg == nil {
		cfg = DefaultObservabilityConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	obs := &Observability{
		logger: logger,
	}

	if cfg.EnableTracing {
		if err := obs.initializeTracing(ctx, cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	} else {
		// Spans started against the global provider stay non-recording.
		obs.Tracer = otel.Tracer(MeterName)
	}

	if err := obs.initializeMetrics(ctx, cfg, res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Set up global propagators for trace context
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return obs, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *ObservabilityConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up span export to stdout
func (o *Observability) initializeTracing(ctx context.Context, cfg *ObservabilityConfig, res *resource.Resource) error {
	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	o.TracerProvider = tp
	o.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	// Set global tracer provider
	otel.SetTracerProvider(tp)

	o.logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", "stdout"))

	return nil
}

// initializeMetrics sets up the meter provider reading into the private
// Prometheus registry
func (o *Observability) initializeMetrics(ctx context.Context, cfg *ObservabilityConfig, res *resource.Resource) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	o.MeterProvider = mp
	o.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	o.registry = registry

	// Set global meter provider
	otel.SetMeterProvider(mp)

	o.logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", "prometheus"))

	return nil
}

// WriteMetricsTextfile gathers the registry and writes it to path in the
// Prometheus textfile collector format. Call it after the run, before
// Shutdown.
func (o *Observability) WriteMetricsTextfile(path string) error {
	if o.registry == nil {
		return fmt.Errorf("metrics registry not initialized")
	}

	if err := prometheus.WriteToTextfile(path, o.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}

	o.logger.Info("Run metrics written",
		slog.String("path", path))

	return nil
}

// Shutdown gracefully shuts down the OpenTelemetry providers
func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error

	if o.TracerProvider != nil {
		if err := o.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if o.MeterProvider != nil {
		if err := o.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	o.logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// CreateRunMetrics creates the instruments describing one preprocessing run
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	rowsParsed, err := meter.Int64Counter(
		"surya_rows_parsed",
		metric.WithDescription("Observation rows parsed from the input export"),
	)
	if err != nil {
		return nil, err
	}

	cellsFilled, err := meter.Int64Counter(
		"surya_cells_filled",
		metric.WithDescription("Grid cells filled by interpolation"),
	)
	if err != nil {
		return nil, err
	}

	chartsRendered, err := meter.Int64Counter(
		"surya_charts_rendered",
		metric.WithDescription("Chart files rendered"),
	)
	if err != nil {
		return nil, err
	}

	chartsFailed, err := meter.Int64Counter(
		"surya_charts_failed",
		metric.WithDescription("Chart renders that failed"),
	)
	if err != nil {
		return nil, err
	}

	artifactBytes, err := meter.Int64Counter(
		"surya_artifact_bytes",
		metric.WithDescription("Bytes written to run artifacts"),
	)
	if err != nil {
		return nil, err
	}

	stepExecutions, err := meter.Int64Counter(
		"surya_step_executions",
		metric.WithDescription("Pipeline step executions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"surya_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"surya_run_duration_seconds",
		metric.WithDescription("Whole-run duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RowsParsed:     rowsParsed,
		CellsFilled:    cellsFilled,
		ChartsRendered: chartsRendered,
		ChartsFailed:   chartsFailed,
		ArtifactBytes:  artifactBytes,
		StepExecutions: stepExecutions,
		StepDuration:   stepDuration,
		RunDuration:    runDuration,
	}, nil
}

// RunMetrics holds the run-level instruments
type RunMetrics struct {
	RowsParsed     metric.Int64Counter
	CellsFilled    metric.Int64Counter
	ChartsRendered metric.Int64Counter
	ChartsFailed   metric.Int64Counter
	ArtifactBytes  metric.Int64Counter
	StepExecutions metric.Int64Counter
	StepDuration   metric.Float64Histogram
	RunDuration    metric.Float64Histogram
}

// RecordStepMetrics records one step execution outcome
func RecordStepMetrics(ctx context.Context, metrics *RunMetrics, stepID string, duration time.Duration, status string) {
	if metrics == nil {
		return
	}

	metrics.StepExecutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", stepID),
		attribute.String("status", status),
	))
	metrics.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", stepID),
	))
}

// RecordRunMetrics records the overall run outcome
func RecordRunMetrics(ctx context.Context, metrics *RunMetrics, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	metrics.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordFrameMetrics records the dataset volumes a run processed
func RecordFrameMetrics(ctx context.Context, metrics *RunMetrics, rowsParsed, cellsFilled int64) {
	if metrics == nil {
		return
	}

	if rowsParsed > 0 {
		metrics.RowsParsed.Add(ctx, rowsParsed)
	}
	if cellsFilled > 0 {
		metrics.CellsFilled.Add(ctx, cellsFilled)
	}
}

// RecordChartMetrics records chart rendering outcomes
func RecordChartMetrics(ctx context.Context, metrics *RunMetrics, rendered, failed int64) {
	if metrics == nil {
		return
	}

	if rendered > 0 {
		metrics.ChartsRendered.Add(ctx, rendered)
	}
	if failed > 0 {
		metrics.ChartsFailed.Add(ctx, failed)
	}
}

// RecordArtifactBytes records bytes written to one artifact kind
func RecordArtifactBytes(ctx context.Context, metrics *RunMetrics, kind string, bytes int64) {
	if metrics == nil || bytes <= 0 {
		return
	}

	metrics.ArtifactBytes.Add(ctx, bytes, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
