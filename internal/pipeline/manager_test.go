package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStep is a configurable step for exercising the manager and registry.
type fakeStep struct {
	id           string
	name         string
	deps         []string
	executeFunc  func(ctx context.Context, state *RunState) error
	validateFunc func(ctx context.Context, state *RunState) error

	mu           sync.Mutex
	executeCalls int
}

func newFakeStep(id string, deps ...string) *fakeStep {
	return &fakeStep{id: id, name: "step " + id, deps: deps}
}

func (f *fakeStep) ID() string   { return f.id }
func (f *fakeStep) Name() string { return f.name }

func (f *fakeStep) Dependencies() []string {
	if f.deps == nil {
		return []string{}
	}
	return f.deps
}

func (f *fakeStep) Execute(ctx context.Context, state *RunState) error {
	f.mu.Lock()
	f.executeCalls++
	f.mu.Unlock()
	if f.executeFunc != nil {
		return f.executeFunc(ctx, state)
	}
	return nil
}

func (f *fakeStep) Validate(ctx context.Context, state *RunState) error {
	if f.validateFunc != nil {
		return f.validateFunc(ctx, state)
	}
	return nil
}

func (f *fakeStep) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.executeCalls
}

// fastRetryConfig keeps backoff delays out of the test runtime.
func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestManager_RunExecutesInDependencyOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(id string) func(context.Context, *RunState) error {
		return func(context.Context, *RunState) error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		}
	}

	// Registered out of order on purpose.
	c := newFakeStep("c", "b")
	a := newFakeStep("a")
	b := newFakeStep("b", "a")
	c.executeFunc = record("c")
	a.executeFunc = record("a")
	b.executeFunc = record("b")

	registry := NewRegistry()
	require.NoError(t, registry.Register(c))
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))

	m := NewManager(registry, nil, nil)
	state, err := m.Run(context.Background(), InputInfo{Path: "input.xlsx"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, RunStatusCompleted, state.Status)
	assert.NotEmpty(t, state.ID)
	for _, id := range []string{"a", "b", "c"} {
		require.NotNil(t, state.GetStep(id))
		assert.Equal(t, StepStatusCompleted, state.GetStep(id).Status, "step %s", id)
		assert.True(t, state.Manifest().IsStepCompleted(id), "manifest entry for %s", id)
	}
	assert.Equal(t, "input.xlsx", state.Manifest().Input.Path)
	assert.Equal(t, "completed", state.Manifest().Status)
}

func TestManager_FailureSkipsDependents(t *testing.T) {
	a := newFakeStep("a")
	b := newFakeStep("b", "a")
	c := newFakeStep("c", "b")
	b.executeFunc = func(context.Context, *RunState) error {
		return errors.New("disk on fire")
	}

	registry := NewRegistry()
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))
	require.NoError(t, registry.Register(c))

	m := NewManager(registry, nil, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, RunStatusFailed, state.Status)
	assert.Equal(t, StepStatusCompleted, state.GetStep("a").Status)
	assert.Equal(t, StepStatusFailed, state.GetStep("b").Status)
	assert.Equal(t, StepStatusSkipped, state.GetStep("c").Status)
	assert.Equal(t, 0, c.calls(), "dependent of a failed step must not run")
	assert.Equal(t, "failed", state.Manifest().Status)
}

func TestManager_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	flaky := newFakeStep("flaky")
	flaky.executeFunc = func(context.Context, *RunState) error {
		attempts++
		if attempts < 3 {
			return NewExecutionError("flaky", errors.New("transient"), true)
		}
		return nil
	}

	registry := NewRegistry()
	require.NoError(t, registry.Register(flaky))

	config := NewConfig()
	config.RetryConfig = fastRetryConfig()

	m := NewManager(registry, config, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	require.NoError(t, err)
	assert.Equal(t, 3, flaky.calls())
	assert.Equal(t, RunStatusCompleted, state.Status)
}

func TestManager_RetryExhausted(t *testing.T) {
	flaky := newFakeStep("flaky")
	flaky.executeFunc = func(context.Context, *RunState) error {
		return NewExecutionError("flaky", errors.New("still broken"), true)
	}

	registry := NewRegistry()
	require.NoError(t, registry.Register(flaky))

	config := NewConfig()
	config.RetryConfig = fastRetryConfig()
	config.RetryConfig.MaxAttempts = 2

	m := NewManager(registry, config, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	require.Error(t, err)
	assert.Equal(t, 2, flaky.calls())
	assert.Equal(t, RunStatusFailed, state.Status)
	assert.Equal(t, StepStatusFailed, state.GetStep("flaky").Status)
}

func TestManager_NonRetryableFailsImmediately(t *testing.T) {
	broken := newFakeStep("broken")
	broken.executeFunc = func(context.Context, *RunState) error {
		return fmt.Errorf("bad input")
	}

	registry := NewRegistry()
	require.NoError(t, registry.Register(broken))

	m := NewManager(registry, nil, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	require.Error(t, err)
	assert.Equal(t, 1, broken.calls(), "plain errors must not be retried")
	assert.Equal(t, RunStatusFailed, state.Status)
}

func TestManager_ValidationFailureSkipsStep(t *testing.T) {
	a := newFakeStep("a")
	a.validateFunc = func(context.Context, *RunState) error {
		return errors.New("nothing to work on")
	}
	b := newFakeStep("b", "a")

	registry := NewRegistry()
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))

	m := NewManager(registry, nil, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	require.Error(t, err)
	var sErr *StepError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, ErrorKindValidation, sErr.Kind)
	assert.Equal(t, 0, a.calls(), "a failed validation and must not execute")
	assert.Equal(t, StepStatusSkipped, state.GetStep("a").Status)
	assert.Equal(t, StepStatusSkipped, state.GetStep("b").Status)
}

func TestManager_Cancellation(t *testing.T) {
	step := newFakeStep("never")

	registry := NewRegistry()
	require.NoError(t, registry.Register(step))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(registry, nil, nil)
	state, err := m.Run(ctx, InputInfo{})

	require.Error(t, err)
	assert.Equal(t, RunStatusCancelled, state.Status)
	assert.Equal(t, 0, step.calls())
	assert.Equal(t, "cancelled", state.Manifest().Status)
}

func TestManager_ContinueOnError(t *testing.T) {
	a := newFakeStep("a")
	a.executeFunc = func(context.Context, *RunState) error {
		return errors.New("boom")
	}
	b := newFakeStep("b", "a")
	c := newFakeStep("c")

	registry := NewRegistry()
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))
	require.NoError(t, registry.Register(c))

	config := NewConfig()
	config.ContinueOnError = true

	m := NewManager(registry, config, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	// The run finishes; the failed step and its dependent are visible in
	// the state.
	require.NoError(t, err)
	assert.Equal(t, StepStatusFailed, state.GetStep("a").Status)
	assert.Equal(t, StepStatusSkipped, state.GetStep("b").Status)
	assert.Equal(t, StepStatusCompleted, state.GetStep("c").Status)
	assert.Equal(t, 1, c.calls())
	assert.True(t, state.HasFailures())
}

func TestManager_EmptyRegistryCompletes(t *testing.T) {
	m := NewManager(nil, nil, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, state.Status)
	assert.True(t, state.IsComplete())
}

func TestManager_DependencyCycleRejected(t *testing.T) {
	a := newFakeStep("a", "b")
	b := newFakeStep("b", "a")

	registry := NewRegistry()
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))

	m := NewManager(registry, nil, nil)
	state, err := m.Run(context.Background(), InputInfo{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
	assert.Equal(t, RunStatusFailed, state.Status)
	assert.Equal(t, 0, a.calls())
	assert.Equal(t, 0, b.calls())
}

func TestRetryDelay(t *testing.T) {
	config := RetryConfig{
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, time.Second, retryDelay(1, config))
	assert.Equal(t, 2*time.Second, retryDelay(2, config))
	assert.Equal(t, 4*time.Second, retryDelay(3, config))
	assert.Equal(t, 10*time.Second, retryDelay(5, config), "delay is capped at MaxDelay")
}
