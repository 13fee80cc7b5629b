package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"suryacli/internal/charts"
	"suryacli/internal/config"
	"suryacli/internal/derive"
	"suryacli/internal/export"
	"suryacli/internal/files"
	"suryacli/internal/infrastructure"
	"suryacli/internal/ingest"
	"suryacli/internal/pipeline"
	"suryacli/internal/solar"
	"suryacli/internal/validation"
)

// ShutdownTimeout bounds the observability flush after a run.
const ShutdownTimeout = 5 * time.Second

// Options carries the command line overrides applied on top of the loaded
// configuration. Nil stage toggles leave the configured value alone, so only
// flags the user actually set arrive here as non-nil.
type Options struct {
	ConfigFile string
	Input      string
	OutputDir  string
	Charts     *bool
	Export     *bool
	TenMinCSV  *bool
	Trace      *bool
}

// Application is the composition root for a preprocessing run. It wires
// configuration, logging and observability together once, builds the step
// pipeline from the effective configuration, and owns shutdown.
type Application struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	Obs     *infrastructure.Observability
	Metrics *infrastructure.RunMetrics
	Process *infrastructure.ProcessMetrics

	input   string
	started time.Time
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(opts Options) (*Application, error) {
	// Load configuration
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(cfg, opts)

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	// Ensure all required directories exist
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	// A relative log file lands in the logs directory
	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = paths.GetLogPath(filepath.Base(cfg.Logging.FilePath))
	}

	// Initialize single infrastructure logger
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Log startup information
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("station", cfg.Station.Code))

	// Log all resolved paths at startup for debugging
	paths.LogPathResolution()

	// Initialize OpenTelemetry
	obsCfg := infrastructure.DefaultObservabilityConfig()
	obsCfg.EnableTracing = cfg.Stages.Trace
	obs, err := infrastructure.InitializeObservability(obsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	// Metric creation failures degrade to an unmeasured run; the recording
	// helpers treat nil metrics as a no-op.
	metrics, err := infrastructure.CreateRunMetrics(obs.Meter)
	if err != nil {
		logger.Warn("Run metrics disabled", slog.String("error", err.Error()))
	}
	process, err := infrastructure.NewProcessMetrics(obs.Meter, logger)
	if err != nil {
		logger.Warn("Process metrics disabled", slog.String("error", err.Error()))
	}

	return &Application{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Obs:     obs,
		Metrics: metrics,
		Process: process,
		input:   opts.Input,
		started: time.Now(),
	}, nil
}

// applyOverrides applies explicit command line flags on top of the loaded
// configuration before the paths are resolved.
func applyOverrides(cfg *config.Config, opts Options) {
	if opts.OutputDir != "" {
		cfg.Paths.OutputDir = opts.OutputDir
	}
	if opts.Charts != nil {
		cfg.Stages.Charts = *opts.Charts
	}
	if opts.Export != nil {
		cfg.Stages.Export = *opts.Export
	}
	if opts.TenMinCSV != nil {
		cfg.Stages.TenMinCSV = *opts.TenMinCSV
	}
	if opts.Trace != nil {
		cfg.Stages.Trace = *opts.Trace
	}
}

// Run executes one preprocessing run and blocks until it finishes or an
// interrupt cancels it. Observability is flushed and the metrics textfile
// written whether the run succeeded or not.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals by cancelling the run context; the manager
	// turns the cancellation into a cancelled run state.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			a.Logger.InfoContext(ctx, "Received interrupt signal, cancelling run",
				slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	defer a.shutdown()

	input, err := a.resolveInput()
	if err != nil {
		return err
	}

	validator := validation.NewFileValidator(a.Logger)
	if err := validator.ValidateObservationFile(input.Path); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}
	if err := validator.ValidateOutputDirectory(a.Paths.OutputDir); err != nil {
		return fmt.Errorf("output validation failed: %w", err)
	}

	info := pipeline.InputInfo{Path: input.Path, SizeBytes: input.Size}
	if fp, err := files.Fingerprint(input.Path); err != nil {
		a.Logger.Warn("Failed to fingerprint input",
			slog.String("path", input.Path),
			slog.String("error", err.Error()))
	} else {
		info.Fingerprint = fp
	}

	manager, err := a.buildPipeline(input.Path)
	if err != nil {
		return err
	}

	state, runErr := manager.Run(ctx, info)

	a.recordRunMetrics(ctx, state, runErr)
	a.writeRunArtifacts(state)
	a.printSummary(state)

	return runErr
}

// resolveInput turns the -in argument into a concrete input file. With no
// argument the data directory is searched for the newest station export.
func (a *Application) resolveInput() (files.FileInfo, error) {
	target := a.input
	if target == "" {
		target = a.Paths.DataDir
	}

	discovery := files.NewDiscovery(a.Paths.DataDir)
	input, err := discovery.ResolveInput(target)
	if err != nil {
		return files.FileInfo{}, err
	}

	a.Logger.Info("Input resolved",
		slog.String("path", input.Path),
		slog.Int64("size_bytes", input.Size),
		slog.Time("modified", input.ModTime))
	return input, nil
}

// buildPipeline assembles the step pipeline for the effective configuration.
// The load, clean, derive and resample steps always run; export and render
// are stage toggles. Render depends on resample only, so charts still render
// when export is off.
func (a *Application) buildPipeline(inputPath string) (*pipeline.Manager, error) {
	loc, err := a.Config.Station.Location()
	if err != nil {
		return nil, err
	}

	site := solar.Site{
		LatitudeDeg:  a.Config.Station.Latitude,
		LongitudeDeg: a.Config.Station.Longitude,
		AltitudeM:    a.Config.Station.AltitudeM,
		PressureHPa:  a.Config.Station.PressureHPa,
		TemperatureC: a.Config.Station.TemperatureC,
	}

	schema := ingest.DefaultSchema()
	schema.TimeLayout = a.Config.Dataset.TimeLayout

	steps := []pipeline.Step{
		pipeline.NewLoadStep(inputPath, ingest.NewReader(schema, a.Logger), a.Logger),
		pipeline.NewCleanStep(a.Config.Dataset.GridFreq, a.Logger),
		pipeline.NewDeriveStep(derive.New(site, loc, a.Logger)),
		pipeline.NewResampleStep(a.Config.Dataset.ResampleFreq, loc, a.Logger),
	}
	if a.Config.Stages.Export {
		steps = append(steps, pipeline.NewExportStep(
			a.Paths.OutputDir,
			export.NewCSVWriter(loc, a.Logger),
			export.NewParquetWriter(a.Logger),
			a.Config.Stages.TenMinCSV,
			a.Logger,
		))
	}
	if a.Config.Stages.Charts {
		steps = append(steps, pipeline.NewRenderStep(charts.NewRenderer(charts.Options{
			OutDir:   a.Paths.ChartsDir,
			Location: loc,
			Logger:   a.Logger,
		}), a.Logger))
	}

	manager := pipeline.NewManager(pipeline.NewRegistry(), pipeline.NewConfig(), a.Logger)
	for _, step := range steps {
		if err := manager.RegisterStep(step); err != nil {
			return nil, fmt.Errorf("failed to register step %s: %w", step.ID(), err)
		}
	}
	return manager, nil
}

// recordRunMetrics turns the finished run state into metric samples. Steps
// that were skipped or never started stay out of the step counters.
func (a *Application) recordRunMetrics(ctx context.Context, state *pipeline.RunState, runErr error) {
	var rows, filled int64

	for _, id := range []string{
		pipeline.StepIDLoad, pipeline.StepIDClean, pipeline.StepIDDerive,
		pipeline.StepIDResample, pipeline.StepIDExport, pipeline.StepIDRender,
	} {
		st := state.GetStep(id)
		if st == nil {
			continue
		}

		var status string
		switch st.Status {
		case pipeline.StepStatusCompleted:
			status = "success"
		case pipeline.StepStatusFailed:
			status = "failure"
		default:
			continue
		}
		infrastructure.RecordStepMetrics(ctx, a.Metrics, id, st.Duration(), status)

		meta := st.MetaSnapshot()
		switch id {
		case pipeline.StepIDLoad:
			rows = metaInt(meta, "rows")
		case pipeline.StepIDClean:
			filled = metaInt(meta, "cells_filled")
		case pipeline.StepIDRender:
			infrastructure.RecordChartMetrics(ctx, a.Metrics,
				metaInt(meta, "charts_rendered"), metaInt(meta, "charts_failed"))
		}
	}

	infrastructure.RecordFrameMetrics(ctx, a.Metrics, rows, filled)
	for _, artifact := range state.Manifest().ArtifactsSnapshot() {
		infrastructure.RecordArtifactBytes(ctx, a.Metrics, artifact.Kind, artifact.SizeBytes)
	}
	infrastructure.RecordRunMetrics(ctx, a.Metrics, state.Duration(), runErr == nil)

	if a.Process != nil {
		a.Process.Collect(ctx, a.started)
	}
}

// metaInt reads a numeric step metadata value. Metadata that travelled
// through JSON arrives as float64.
func metaInt(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// writeRunArtifacts persists the run manifest and the metrics textfile next
// to the other artifacts. Failures here are logged, not fatal; the run
// outcome is already decided.
func (a *Application) writeRunArtifacts(state *pipeline.RunState) {
	manifestPath := a.Paths.GetArtifactPath(pipeline.FileManifest)
	if err := state.Manifest().SaveToFile(manifestPath); err != nil {
		a.Logger.Error("Failed to write run manifest",
			slog.String("path", manifestPath),
			slog.String("error", err.Error()))
	}

	metricsPath := a.Paths.GetArtifactPath(pipeline.FileMetrics)
	if err := a.Obs.WriteMetricsTextfile(metricsPath); err != nil {
		a.Logger.Error("Failed to write metrics textfile",
			slog.String("path", metricsPath),
			slog.String("error", err.Error()))
	}
}

// printSummary writes the operator-facing run summary to stdout. The log
// carries the same information in structured form.
func (a *Application) printSummary(state *pipeline.RunState) {
	fmt.Printf("Run %s %s in %s\n",
		state.ID, state.Status, state.Duration().Round(time.Millisecond))
	fmt.Printf("Artifacts: %d under %s\n",
		state.Manifest().ArtifactCount(), a.Paths.OutputDir)
	for _, stepID := range state.FailedSteps() {
		if st := state.GetStep(stepID); st != nil && st.Error != nil {
			fmt.Printf("Step %s failed: %v\n", stepID, st.Error)
		}
	}
}

// shutdown flushes the observability providers. It runs after every Run,
// successful or not; the log file stays open until process exit.
func (a *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := a.Obs.Shutdown(ctx); err != nil {
		a.Logger.Warn("Observability shutdown reported errors",
			slog.String("error", err.Error()))
	}
}
