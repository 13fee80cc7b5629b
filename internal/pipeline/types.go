package pipeline

import (
	"time"
)

// Step identifiers
const (
	StepIDLoad     = "load"
	StepIDClean    = "clean"
	StepIDDerive   = "derive"
	StepIDResample = "resample"
	StepIDExport   = "export"
	StepIDRender   = "render"
)

// Human-readable step names
const (
	StepNameLoad     = "Load Observations"
	StepNameClean    = "Grid & Interpolation"
	StepNameDerive   = "Feature Derivation"
	StepNameResample = "Hourly Resample"
	StepNameExport   = "Artifact Export"
	StepNameRender   = "Chart Rendering"
)

// Context keys for data flowing between steps through the run state.
const (
	ContextKeyRawFrame    = "raw_frame"
	ContextKeyGridFrame   = "grid_frame"
	ContextKeyHourlyFrame = "hourly_frame"
	ContextKeyParseStats  = "parse_stats"
	// ContextKeyMissingBefore holds the per-column missing counts taken on
	// the grid before interpolation. The summary export reports these.
	ContextKeyMissingBefore = "missing_before"
	ContextKeyGapsFilled    = "gaps_filled"
)

// Default timeouts
const (
	DefaultStepTimeout     = 10 * time.Minute
	DefaultLoadTimeout     = 10 * time.Minute
	DefaultCleanTimeout    = 5 * time.Minute
	DefaultDeriveTimeout   = 5 * time.Minute
	DefaultResampleTimeout = 5 * time.Minute
	DefaultExportTimeout   = 10 * time.Minute
	DefaultRenderTimeout   = 20 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Config represents the run execution configuration
type Config struct {
	// Step-specific timeouts
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	// Retry configuration for steps
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to continue past a failed step instead of skipping its
	// dependents
	ContinueOnError bool `json:"continue_on_error"`
}

// NewConfig returns the default run configuration
func NewConfig() *Config {
	return &Config{
		StepTimeouts: map[string]time.Duration{
			StepIDLoad:     DefaultLoadTimeout,
			StepIDClean:    DefaultCleanTimeout,
			StepIDDerive:   DefaultDeriveTimeout,
			StepIDResample: DefaultResampleTimeout,
			StepIDExport:   DefaultExportTimeout,
			StepIDRender:   DefaultRenderTimeout,
		},
		RetryConfig:     NewRetryConfig(),
		ContinueOnError: false,
	}
}

// GetStepTimeout returns the timeout for a specific step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok {
		return timeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}
