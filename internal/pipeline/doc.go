// Package pipeline provides the step execution framework that drives a
// preprocessing run from raw spreadsheet to exported artifacts.
//
// A run is a linear sequence of registered steps. Each step declares the
// steps it depends on; the registry resolves the execution order with a
// topological sort and the manager executes the steps one at a time,
// retrying transient failures with exponential backoff and skipping the
// dependents of a failed step.
//
// Core components:
//
// Manager: orchestrates a single run. It resolves the execution order,
// drives each step through its lifecycle and records the outcome in the
// run manifest.
//
// Step: one unit of work (load, clean, derive, resample, export, render).
// Steps exchange data through the run state rather than the filesystem, so
// a run parses the input exactly once.
//
// Registry: holds the registered steps, validates their dependency graph
// and produces the execution order.
//
// RunState: the shared, mutex-guarded state of a run. It carries per-step
// lifecycle states and a context map for the frames that flow between
// steps.
//
// RunManifest: the persistent record of a run, written as JSON next to the
// other artifacts. It names the input (path, size, fingerprint), every step
// execution with its duration and status, and every artifact produced.
package pipeline
