package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RunManifest is the persistent record of a run. It names the input, every
// step execution and every artifact the run produced, and is written as
// JSON next to the other artifacts.
type RunManifest struct {
	mu sync.RWMutex

	// Identity
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`

	// Input describes the spreadsheet the run consumed
	Input InputInfo `json:"input"`

	// Execution tracking
	Steps []StepExecution `json:"steps"`

	// Artifacts produced by the run
	Artifacts []Artifact `json:"artifacts"`

	// Current status
	Status      string    `json:"status"` // "pending", "running", "completed", "failed", "cancelled"
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// InputInfo describes the input file of a run
type InputInfo struct {
	Path        string `json:"path"`
	SizeBytes   int64  `json:"size_bytes"`
	Fingerprint string `json:"fingerprint,omitempty"` // BLAKE2b-256, hex
	Rows        int    `json:"rows,omitempty"`
}

// StepExecution tracks the execution of a single step
type StepExecution struct {
	StepID    string         `json:"step_id"`
	StepName  string         `json:"step_name"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  string         `json:"duration"`
	Status    string         `json:"status"` // "running", "completed", "failed", "skipped"
	Error     string         `json:"error,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Artifact describes one file produced by the run
type Artifact struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRunManifest creates a manifest for the given run ID
func NewRunManifest(runID string) *RunManifest {
	return &RunManifest{
		ID:          runID,
		StartTime:   time.Now(),
		Steps:       []StepExecution{},
		Artifacts:   []Artifact{},
		Status:      "pending",
		LastUpdated: time.Now(),
	}
}

// SetInput records the input file of the run
func (m *RunManifest) SetInput(info InputInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Input = info
	m.LastUpdated = time.Now()
}

// SetInputRows records the parsed row count once the load step knows it
func (m *RunManifest) SetInputRows(rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Input.Rows = rows
	m.LastUpdated = time.Now()
}

// RecordStepStart records the start of a step execution. A retried step
// updates its existing entry instead of appending a second one.
func (m *RunManifest) RecordStepStart(stepID, stepName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, step := range m.Steps {
		if step.StepID == stepID {
			m.Steps[i].StartTime = time.Now()
			m.Steps[i].Status = "running"
			m.LastUpdated = time.Now()
			return
		}
	}

	m.Steps = append(m.Steps, StepExecution{
		StepID:    stepID,
		StepName:  stepName,
		StartTime: time.Now(),
		Status:    "running",
	})
	m.Status = "running"
	m.LastUpdated = time.Now()
}

// RecordStepCompletion records the completion of a step
func (m *RunManifest) RecordStepCompletion(stepID string, detail map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, step := range m.Steps {
		if step.StepID == stepID {
			m.Steps[i].EndTime = time.Now()
			m.Steps[i].Duration = time.Since(step.StartTime).String()
			m.Steps[i].Status = "completed"
			m.Steps[i].Detail = detail
			break
		}
	}
	m.LastUpdated = time.Now()
}

// RecordStepFailure records a step failure
func (m *RunManifest) RecordStepFailure(stepID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, step := range m.Steps {
		if step.StepID == stepID {
			m.Steps[i].EndTime = time.Now()
			m.Steps[i].Duration = time.Since(step.StartTime).String()
			m.Steps[i].Status = "failed"
			m.Steps[i].Error = err.Error()
			break
		}
	}
	m.Status = "failed"
	m.Error = fmt.Sprintf("step %s failed: %v", stepID, err)
	m.LastUpdated = time.Now()
}

// RecordStepSkip records a step that never ran
func (m *RunManifest) RecordStepSkip(stepID, stepName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.Steps = append(m.Steps, StepExecution{
		StepID:    stepID,
		StepName:  stepName,
		StartTime: now,
		EndTime:   now,
		Duration:  "0s",
		Status:    "skipped",
		Error:     reason,
	})
	m.LastUpdated = time.Now()
}

// IsStepCompleted checks if a step has been completed
func (m *RunManifest) IsStepCompleted(stepID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, step := range m.Steps {
		if step.StepID == stepID && step.Status == "completed" {
			return true
		}
	}
	return false
}

// AddArtifact records a file produced by a step. The file is stat'ed for
// its size; a file that cannot be stat'ed is recorded with size zero.
func (m *RunManifest) AddArtifact(kind, path, createdBy string) {
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Artifacts = append(m.Artifacts, Artifact{
		Kind:      kind,
		Path:      path,
		SizeBytes: size,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	})
	m.LastUpdated = time.Now()
}

// ArtifactCount returns the number of recorded artifacts
func (m *RunManifest) ArtifactCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.Artifacts)
}

// ArtifactsSnapshot returns a copy of the recorded artifacts
func (m *RunManifest) ArtifactsSnapshot() []Artifact {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.Artifacts) == 0 {
		return nil
	}
	snap := make([]Artifact, len(m.Artifacts))
	copy(snap, m.Artifacts)
	return snap
}

// Finish records the final status of the run
func (m *RunManifest) Finish(status RunStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = string(status)
	if err != nil {
		m.Error = err.Error()
	}
	m.LastUpdated = time.Now()
}

// SaveToFile saves the manifest to a JSON file
func (m *RunManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return &manifest, nil
}
