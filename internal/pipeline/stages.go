package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"suryacli/internal/charts"
	"suryacli/internal/dataset"
	"suryacli/internal/derive"
	"suryacli/internal/eda"
	"suryacli/internal/export"
	"suryacli/internal/ingest"
)

// Artifact file names under the output directory
const (
	FileHourlyCSV     = "hourly.csv"
	FileTenMinCSV     = "tenmin.csv"
	FileHourlyParquet = "hourly.parquet"
	FileSummaryCSV    = "summary.csv"
	FileManifest      = "run_manifest.json"
	FileMetrics       = "metrics.prom"
)

// frameFromContext pulls a frame a previous step stored in the run state
func frameFromContext(state *RunState, key string) (*dataset.Frame, error) {
	val, ok := state.GetContext(key)
	if !ok {
		return nil, fmt.Errorf("no %s in run state", key)
	}
	f, ok := val.(*dataset.Frame)
	if !ok || f == nil {
		return nil, fmt.Errorf("%s is not a frame", key)
	}
	return f, nil
}

// setMeta records step metadata when the step state exists
func setMeta(state *RunState, stepID, key string, value any) {
	if st := state.GetStep(stepID); st != nil {
		st.SetMeta(key, value)
	}
}

// LoadStep parses the input spreadsheet into the raw observation frame.
type LoadStep struct {
	BaseStep
	path   string
	reader *ingest.Reader
	logger *slog.Logger
}

// NewLoadStep creates the load step for the given input file
func NewLoadStep(path string, reader *ingest.Reader, logger *slog.Logger) *LoadStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStep{
		BaseStep: NewBaseStep(StepIDLoad, StepNameLoad, nil),
		path:     path,
		reader:   reader,
		logger:   logger.With(slog.String("step", StepIDLoad)),
	}
}

// Validate checks that the input file exists
func (s *LoadStep) Validate(ctx context.Context, state *RunState) error {
	if s.path == "" {
		return fmt.Errorf("input path is empty")
	}
	if s.reader == nil {
		return fmt.Errorf("no reader configured")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("input file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory", s.path)
	}
	return nil
}

// Execute reads the spreadsheet and stores the sorted, deduplicated frame
// in the run state
func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	result, err := s.reader.ReadFile(ctx, s.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if result.Frame.Len() == 0 {
		return fmt.Errorf("no parseable observation rows in %s", s.path)
	}

	// Duplicate timestamps keep their first occurrence.
	duplicates := result.Frame.SortByTime()
	if duplicates > 0 {
		s.logger.Warn("duplicate timestamps dropped",
			slog.Int("rows", duplicates),
			slog.String("input", s.path))
	}

	state.SetContext(ContextKeyRawFrame, result.Frame)
	state.SetContext(ContextKeyParseStats, result.Stats)
	state.Manifest().SetInputRows(result.Frame.Len())

	setMeta(state, s.ID(), "rows", result.Frame.Len())
	setMeta(state, s.ID(), "coerced_times", result.Stats.CoercedTimes)
	setMeta(state, s.ID(), "missing_cells", result.Stats.MissingCells)
	if duplicates > 0 {
		setMeta(state, s.ID(), "duplicate_rows_dropped", duplicates)
	}
	return nil
}

// CleanStep reindexes the raw frame onto the complete observation grid and
// interpolates the gaps.
type CleanStep struct {
	BaseStep
	step   time.Duration
	logger *slog.Logger
}

// NewCleanStep creates the clean step. A non-positive grid step falls back
// to the station's 10-minute cadence.
func NewCleanStep(gridStep time.Duration, logger *slog.Logger) *CleanStep {
	if gridStep <= 0 {
		gridStep = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanStep{
		BaseStep: NewBaseStep(StepIDClean, StepNameClean, []string{StepIDLoad}),
		step:     gridStep,
		logger:   logger.With(slog.String("step", StepIDClean)),
	}
}

// Validate checks that the load step left a raw frame behind
func (s *CleanStep) Validate(ctx context.Context, state *RunState) error {
	_, err := frameFromContext(state, ContextKeyRawFrame)
	return err
}

// Execute builds the complete grid, records the pre-interpolation missing
// counts and fills the gaps
func (s *CleanStep) Execute(ctx context.Context, state *RunState) error {
	raw, err := frameFromContext(state, ContextKeyRawFrame)
	if err != nil {
		return err
	}
	start, end, ok := raw.Span()
	if !ok {
		return fmt.Errorf("raw frame is empty")
	}

	grid := dataset.Grid(start, end, s.step)
	framed, empty, dropped := raw.Reindex(grid)

	// The summary export reports missingness as observed, so the counts are
	// taken before interpolation rewrites them.
	missingBefore := make(map[string]int, len(framed.Columns()))
	for _, col := range framed.Columns() {
		missingBefore[col] = framed.MissingCount(col)
	}

	filled := framed.Interpolate()
	totalFilled := 0
	for _, n := range filled {
		totalFilled += n
	}

	state.SetContext(ContextKeyGridFrame, framed)
	state.SetContext(ContextKeyMissingBefore, missingBefore)
	state.SetContext(ContextKeyGapsFilled, filled)

	setMeta(state, s.ID(), "grid_rows", framed.Len())
	setMeta(state, s.ID(), "empty_slots", empty)
	setMeta(state, s.ID(), "off_grid_rows_dropped", dropped)
	setMeta(state, s.ID(), "cells_filled", totalFilled)

	s.logger.Info("observation grid built",
		slog.Int("rows", framed.Len()),
		slog.Int("empty_slots", empty),
		slog.Int("off_grid_rows_dropped", dropped),
		slog.Int("cells_filled", totalFilled))
	return nil
}

// DeriveStep adds the solar-geometry and calendar columns to the grid
// frame.
type DeriveStep struct {
	BaseStep
	features *derive.Features
}

// NewDeriveStep creates the derive step
func NewDeriveStep(features *derive.Features) *DeriveStep {
	return &DeriveStep{
		BaseStep: NewBaseStep(StepIDDerive, StepNameDerive, []string{StepIDClean}),
		features: features,
	}
}

// Validate checks that the clean step left a grid frame behind
func (s *DeriveStep) Validate(ctx context.Context, state *RunState) error {
	if s.features == nil {
		return fmt.Errorf("no feature deriver configured")
	}
	_, err := frameFromContext(state, ContextKeyGridFrame)
	return err
}

// Execute derives the feature columns in place
func (s *DeriveStep) Execute(ctx context.Context, state *RunState) error {
	grid, err := frameFromContext(state, ContextKeyGridFrame)
	if err != nil {
		return err
	}
	if err := s.features.Apply(ctx, grid); err != nil {
		return err
	}
	setMeta(state, s.ID(), "columns", len(grid.Columns()))
	return nil
}

// ResampleStep collapses the grid frame onto hourly bins.
type ResampleStep struct {
	BaseStep
	step   time.Duration
	loc    *time.Location
	logger *slog.Logger
}

// NewResampleStep creates the resample step. Bins are aligned to local
// wall-clock hours in loc.
func NewResampleStep(step time.Duration, loc *time.Location, logger *slog.Logger) *ResampleStep {
	if step <= 0 {
		step = time.Hour
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResampleStep{
		BaseStep: NewBaseStep(StepIDResample, StepNameResample, []string{StepIDDerive}),
		step:     step,
		loc:      loc,
		logger:   logger.With(slog.String("step", StepIDResample)),
	}
}

// Validate checks that the derive step left a grid frame behind
func (s *ResampleStep) Validate(ctx context.Context, state *RunState) error {
	_, err := frameFromContext(state, ContextKeyGridFrame)
	return err
}

// Execute resamples the grid frame and stores the hourly frame in the run
// state
func (s *ResampleStep) Execute(ctx context.Context, state *RunState) error {
	grid, err := frameFromContext(state, ContextKeyGridFrame)
	if err != nil {
		return err
	}

	hourly, err := grid.Resample(s.step, dataset.AggFirst, s.loc)
	if err != nil {
		return fmt.Errorf("failed to resample: %w", err)
	}

	state.SetContext(ContextKeyHourlyFrame, hourly)
	setMeta(state, s.ID(), "hourly_rows", hourly.Len())

	s.logger.Info("resampled to hourly bins",
		slog.Int("grid_rows", grid.Len()),
		slog.Int("hourly_rows", hourly.Len()))
	return nil
}

// ExportStep writes the CSV, parquet and summary artifacts.
type ExportStep struct {
	BaseStep
	outDir    string
	csv       *export.CSVWriter
	parquet   *export.ParquetWriter
	tenMinute bool
	logger    *slog.Logger
}

// NewExportStep creates the export step. When tenMinute is set the cleaned
// 10-minute frame is written alongside the hourly one.
func NewExportStep(outDir string, csv *export.CSVWriter, parquet *export.ParquetWriter, tenMinute bool, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{
		BaseStep:  NewBaseStep(StepIDExport, StepNameExport, []string{StepIDResample}),
		outDir:    outDir,
		csv:       csv,
		parquet:   parquet,
		tenMinute: tenMinute,
		logger:    logger.With(slog.String("step", StepIDExport)),
	}
}

// Validate checks the step configuration and inputs
func (s *ExportStep) Validate(ctx context.Context, state *RunState) error {
	if s.outDir == "" {
		return fmt.Errorf("output directory is empty")
	}
	if s.csv == nil || s.parquet == nil {
		return fmt.Errorf("no writers configured")
	}
	_, err := frameFromContext(state, ContextKeyHourlyFrame)
	return err
}

// Execute writes every export artifact and records them in the manifest
func (s *ExportStep) Execute(ctx context.Context, state *RunState) error {
	hourly, err := frameFromContext(state, ContextKeyHourlyFrame)
	if err != nil {
		return err
	}
	grid, err := frameFromContext(state, ContextKeyGridFrame)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.outDir, 0755); err != nil {
		return NewExecutionError(s.ID(), fmt.Errorf("failed to create output directory: %w", err), true)
	}

	files := 0

	hourlyCSV := filepath.Join(s.outDir, FileHourlyCSV)
	if err := s.csv.WriteFrame(hourlyCSV, hourly); err != nil {
		return NewExecutionError(s.ID(), err, true)
	}
	state.Manifest().AddArtifact("csv", hourlyCSV, s.ID())
	files++

	if s.tenMinute {
		tenMinCSV := filepath.Join(s.outDir, FileTenMinCSV)
		if err := s.csv.WriteFrame(tenMinCSV, grid); err != nil {
			return NewExecutionError(s.ID(), err, true)
		}
		state.Manifest().AddArtifact("csv", tenMinCSV, s.ID())
		files++
	}

	parquetPath := filepath.Join(s.outDir, FileHourlyParquet)
	if err := s.parquet.WriteFrame(parquetPath, hourly); err != nil {
		return NewExecutionError(s.ID(), err, true)
	}
	state.Manifest().AddArtifact("parquet", parquetPath, s.ID())
	files++

	// Per-column statistics over the cleaned 10-minute frame. Missing
	// counts reflect the grid before interpolation, not the filled frame.
	summaries := eda.Describe(grid)
	if val, ok := state.GetContext(ContextKeyMissingBefore); ok {
		if missing, ok := val.(map[string]int); ok {
			for i := range summaries {
				if n, found := missing[summaries[i].Column]; found {
					summaries[i].Missing = n
				}
			}
		}
	}
	summaryCSV := filepath.Join(s.outDir, FileSummaryCSV)
	if err := s.csv.WriteSummary(summaryCSV, summaries); err != nil {
		return NewExecutionError(s.ID(), err, true)
	}
	state.Manifest().AddArtifact("summary", summaryCSV, s.ID())
	files++

	setMeta(state, s.ID(), "files_written", files)

	s.logger.Info("artifacts exported",
		slog.Int("files", files),
		slog.String("dir", s.outDir))
	return nil
}

// RenderStep draws the chart set for the hourly frame.
type RenderStep struct {
	BaseStep
	renderer *charts.Renderer
	logger   *slog.Logger
}

// NewRenderStep creates the render step
func NewRenderStep(renderer *charts.Renderer, logger *slog.Logger) *RenderStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderStep{
		BaseStep: NewBaseStep(StepIDRender, StepNameRender, []string{StepIDResample}),
		renderer: renderer,
		logger:   logger.With(slog.String("step", StepIDRender)),
	}
}

// Validate checks the step configuration and inputs
func (s *RenderStep) Validate(ctx context.Context, state *RunState) error {
	if s.renderer == nil {
		return fmt.Errorf("no renderer configured")
	}
	_, err := frameFromContext(state, ContextKeyHourlyFrame)
	return err
}

// Execute renders the chart set. Individual chart failures do not fail the
// step as long as something rendered; the failures are logged and counted.
func (s *RenderStep) Execute(ctx context.Context, state *RunState) error {
	hourly, err := frameFromContext(state, ContextKeyHourlyFrame)
	if err != nil {
		return err
	}

	stats, err := s.renderer.RenderAll(ctx, hourly)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if stats == nil || stats.Rendered == 0 {
		return NewExecutionError(s.ID(), err, true)
	}

	for _, rel := range stats.Files {
		state.Manifest().AddArtifact("chart", filepath.Join(s.renderer.OutDir(), rel), s.ID())
	}
	if err != nil {
		s.logger.Warn("some charts failed to render",
			slog.Int("rendered", stats.Rendered),
			slog.Int("failed", stats.Failed),
			slog.String("error", err.Error()))
	}

	setMeta(state, s.ID(), "charts_rendered", stats.Rendered)
	setMeta(state, s.ID(), "charts_failed", stats.Failed)
	return nil
}
