package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories a run touches.
// This is the single source of truth for file locations in the application.
type Paths struct {
	// DataDir is where input discovery looks when no explicit input path is
	// given. It is never created; a missing one surfaces at discovery time.
	DataDir string
	// OutputDir receives the run artifacts.
	OutputDir string
	// ChartsDir is the charts subdirectory of OutputDir.
	ChartsDir string
	// LogsDir receives the application log file.
	LogsDir string
}

// NewPaths resolves the configured directories against the current working
// directory. Absolute entries are kept as configured.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(wd, dir)
	}

	outputDir := resolve(cfg.OutputDir)
	return &Paths{
		DataDir:   resolve(cfg.DataDir),
		OutputDir: outputDir,
		ChartsDir: filepath.Join(outputDir, ChartsSubdir),
		LogsDir:   resolve(cfg.LogsDir),
	}, nil
}

// EnsureDirectories creates the output and log directories if they don't
// exist. DataDir is input and is not created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.ChartsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetArtifactPath returns the path for a run artifact in the output directory
func (p *Paths) GetArtifactPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// GetChartPath returns the path for a chart file
func (p *Paths) GetChartPath(filename string) string {
	return filepath.Join(p.ChartsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved directory layout for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("charts", p.ChartsDir),
			slog.String("logs", p.LogsDir),
		))
}
