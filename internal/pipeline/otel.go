package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "suryacli.pipeline"

// RunTracer provides OpenTelemetry spans for run and step execution. It
// resolves its tracer from the global provider, so spans stay non-recording
// until tracing is initialized.
type RunTracer struct {
	tracer trace.Tracer
}

// NewRunTracer creates a tracer for run instrumentation.
func NewRunTracer() *RunTracer {
	return &RunTracer{
		tracer: otel.Tracer(TracerName),
	}
}

// TraceRun starts the span covering the whole run.
func (rt *RunTracer) TraceRun(ctx context.Context, runID string, input InputInfo) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "run.execute",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.input", input.Path),
		),
	)
}

// TraceStep starts the span covering one step, retries included.
func (rt *RunTracer) TraceStep(ctx context.Context, runID, stepID, stepName string) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, fmt.Sprintf("step.%s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
			attribute.String("step.name", stepName),
		),
	)
}

// RecordRunCompletion closes out the run span with the final status.
func (rt *RunTracer) RecordRunCompletion(span trace.Span, status RunStatus, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("run.status", string(status)),
		attribute.Float64("run.duration_seconds", duration.Seconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "run completed")
}

// RecordStepCompletion closes out a step span with its outcome.
func (rt *RunTracer) RecordStepCompletion(span trace.Span, duration time.Duration, attempts int, err error) {
	span.SetAttributes(
		attribute.Float64("step.duration_seconds", duration.Seconds()),
		attribute.Int("step.attempts", attempts),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}
