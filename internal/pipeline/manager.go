package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// Manager orchestrates the execution of a run
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	tracer   *RunTracer
}

// NewManager creates a new run manager
func NewManager(registry *Registry, config *Config, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		config:   config,
		logger:   logger.With(slog.String("component", "pipeline")),
		tracer:   NewRunTracer(),
	}
}

// RegisterStep registers a step with the run
func (m *Manager) RegisterStep(step Step) error {
	return m.registry.Register(step)
}

// Registry returns the registry for accessing registered steps
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Config returns the current configuration
func (m *Manager) Config() *Config {
	return m.config
}

// Run executes every registered step in dependency order. The returned
// state is never nil; its manifest records what the run did even when the
// run failed.
func (m *Manager) Run(ctx context.Context, input InputInfo) (*RunState, error) {
	state := NewRunState(uuid.NewString())
	state.Manifest().SetInput(input)

	ctx, runSpan := m.tracer.TraceRun(ctx, state.ID, input)
	defer runSpan.End()

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		err = fmt.Errorf("failed to resolve step order: %w", err)
		m.logger.ErrorContext(ctx, "run_rejected",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()))
		state.Fail(err)
		state.Manifest().Finish(RunStatusFailed, err)
		m.tracer.RecordRunCompletion(runSpan, state.Status, state.Duration(), err)
		return state, err
	}

	for _, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	m.logger.InfoContext(ctx, "run_started",
		slog.String("run_id", state.ID),
		slog.String("input", input.Path),
		slog.Int("step_count", len(steps)))

	state.Start()
	runErr := m.executeSequential(ctx, state, steps)

	switch {
	case runErr == nil:
		state.Complete()
	case errors.Is(runErr, context.Canceled) || isCancellation(runErr):
		state.Cancel()
	default:
		state.Fail(runErr)
	}
	state.Manifest().Finish(state.Status, runErr)
	m.tracer.RecordRunCompletion(runSpan, state.Status, state.Duration(), runErr)

	m.logger.InfoContext(ctx, "run_finished",
		slog.String("run_id", state.ID),
		slog.String("status", string(state.Status)),
		slog.Duration("duration", state.Duration()))

	return state, runErr
}

// executeSequential executes steps one by one. The step flow is strictly
// sequential; each step consumes what the previous steps left in the state.
func (m *Manager) executeSequential(ctx context.Context, state *RunState, steps []Step) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "run_cancelled",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID())
		}

		stepState := state.GetStep(step.ID())
		if stepState != nil && stepState.Status == StepStatusSkipped {
			m.logger.InfoContext(ctx, "step_skipped",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("reason", stepState.Message))
			continue
		}

		m.logger.InfoContext(ctx, "executing_step",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStep(ctx, state, step); err != nil {
			m.logger.ErrorContext(ctx, "step_failed",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
			if !m.config.ContinueOnError {
				m.skipDependents(state, step.ID())
				return err
			}
			m.logger.WarnContext(ctx, "step_failed_continuing",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()))
		}
	}
	return nil
}

// executeStep executes a single step with retry logic
func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step) error {
	stepState := state.GetStep(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		m.logger.WarnContext(ctx, "dependencies_not_met",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Skip(fmt.Sprintf("dependencies not met: %v", err))
		state.Manifest().RecordStepSkip(step.ID(), step.Name(), stepState.Message)
		return err
	}

	if err := step.Validate(ctx, state); err != nil {
		m.logger.WarnContext(ctx, "validation_failed",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		stepState.Skip(fmt.Sprintf("validation failed: %v", err))
		state.Manifest().RecordStepSkip(step.ID(), step.Name(), stepState.Message)
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stepCtx, stepSpan := m.tracer.TraceStep(stepCtx, state.ID, step.ID(), step.Name())
	defer stepSpan.End()

	retryConfig := m.config.RetryConfig
	stepStart := time.Now()
	var lastErr error

	for attempt := 1; attempt <= retryConfig.MaxAttempts; attempt++ {
		stepState.Start()
		state.Manifest().RecordStepStart(step.ID(), step.Name())

		start := time.Now()
		err := step.Execute(stepCtx, state)
		duration := time.Since(start)

		if err == nil {
			stepState.Complete()
			state.Manifest().RecordStepCompletion(step.ID(), stepState.MetaSnapshot())
			m.tracer.RecordStepCompletion(stepSpan, time.Since(stepStart), attempt, nil)
			m.logger.InfoContext(ctx, "step_completed",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()),
				slog.Duration("duration", duration))
			return nil
		}

		m.logger.ErrorContext(ctx, "step_execution_failed",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		lastErr = err

		if !IsRetryable(err) || attempt >= retryConfig.MaxAttempts {
			stepState.Fail(err)
			state.Manifest().RecordStepFailure(step.ID(), err)
			m.tracer.RecordStepCompletion(stepSpan, time.Since(stepStart), attempt, err)
			return WrapError(err, step.ID(), "step execution failed")
		}

		delay := retryDelay(attempt, retryConfig)
		m.logger.WarnContext(ctx, "step_retry",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retryConfig.MaxAttempts),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
			// Next attempt
		case <-stepCtx.Done():
			timeoutErr := NewTimeoutError(step.ID(), timeout.String())
			stepState.Fail(timeoutErr)
			state.Manifest().RecordStepFailure(step.ID(), timeoutErr)
			m.tracer.RecordStepCompletion(stepSpan, time.Since(stepStart), attempt, timeoutErr)
			return timeoutErr
		}
	}

	stepState.Fail(lastErr)
	state.Manifest().RecordStepFailure(step.ID(), lastErr)
	m.tracer.RecordStepCompletion(stepSpan, time.Since(stepStart), retryConfig.MaxAttempts, lastErr)
	return WrapError(lastErr, step.ID(), fmt.Sprintf("step execution failed after %d attempts", retryConfig.MaxAttempts))
}

// skipDependents marks every step that depends on the failed step as
// skipped, transitively
func (m *Manager) skipDependents(state *RunState, failedStepID string) {
	for _, dependent := range m.registry.GetDependents(failedStepID) {
		stepState := state.GetStep(dependent.ID())
		if stepState != nil && stepState.Status == StepStatusPending {
			reason := fmt.Sprintf("dependency %s failed", failedStepID)
			stepState.Skip(reason)
			state.Manifest().RecordStepSkip(dependent.ID(), dependent.Name(), reason)
			m.skipDependents(state, dependent.ID())
		}
	}
}

// checkDependencies verifies that all dependencies completed
func (m *Manager) checkDependencies(state *RunState, step Step) error {
	for _, dep := range step.Dependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			return fmt.Errorf("dependency %s not found", dep)
		}
		if depState.Status != StepStatusCompleted {
			return fmt.Errorf("dependency %s not completed (status: %s)", dep, depState.Status)
		}
	}
	return nil
}

// retryDelay returns the exponential backoff delay before the next attempt
func retryDelay(attempt int, config RetryConfig) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

func isCancellation(err error) bool {
	var sErr *StepError
	return errors.As(err, &sErr) && sErr.Kind == ErrorKindCancelled
}
