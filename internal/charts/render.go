package charts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"suryacli/internal/dataset"
)

const (
	lineDir          = "line"
	monthlyHourlyDir = "monthly_hourly"
	monthlyDailyDir  = "monthly_daily"

	histogramFile = "histograms.png"
	heatmapFile   = "correlation_heatmap.png"
	scatterFile   = "scatter_sr_avg.png"

	histBins = 30
)

// Options configures a Renderer.
type Options struct {
	// OutDir is the directory chart files are written into.
	OutDir string
	// Location renders time axes in the station's local clock.
	Location *time.Location
	// Workers bounds concurrent chart renders. Defaults to 4.
	Workers int
	Logger  *slog.Logger
}

// Renderer draws the chart set for an hourly frame.
type Renderer struct {
	outDir  string
	loc     *time.Location
	workers int
	logger  *slog.Logger
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		outDir:  opts.OutDir,
		loc:     loc,
		workers: workers,
		logger:  logger.With(slog.String("component", "charts")),
	}
}

// OutDir returns the directory chart files are written into.
func (r *Renderer) OutDir() string {
	return r.outDir
}

// Stats summarizes a render pass. Files holds the rendered paths relative to
// the output directory, sorted.
type Stats struct {
	Rendered int      `json:"rendered"`
	Failed   int      `json:"failed"`
	Files    []string `json:"files"`
}

type renderTask struct {
	file string
	fn   func() error
}

// RenderAll draws every chart family. Failures do not stop the remaining
// charts; they are aggregated into the returned error.
func (r *Renderer) RenderAll(ctx context.Context, hourly *dataset.Frame) (*Stats, error) {
	if hourly.Len() == 0 {
		return nil, errors.New("hourly frame is empty")
	}
	for _, dir := range []string{lineDir, monthlyHourlyDir, monthlyDailyDir} {
		if err := os.MkdirAll(filepath.Join(r.outDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create chart directory: %w", err)
		}
	}

	tasks := r.buildTasks(hourly)
	stats := &Stats{}
	var (
		mu       sync.Mutex
		multiErr error
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := task.fn(); err != nil {
				r.logger.Error("chart render failed",
					slog.String("chart", task.file),
					slog.String("error", err.Error()))
				mu.Lock()
				stats.Failed++
				multiErr = multierror.Append(multiErr, fmt.Errorf("%s: %w", task.file, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			stats.Rendered++
			stats.Files = append(stats.Files, task.file)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	sort.Strings(stats.Files)

	r.logger.Info("chart rendering finished",
		slog.Int("rendered", stats.Rendered),
		slog.Int("failed", stats.Failed),
		slog.Duration("elapsed", time.Since(start)))
	return stats, multiErr
}

func (r *Renderer) buildTasks(hourly *dataset.Frame) []renderTask {
	var tasks []renderTask

	for i, col := range hourly.Columns() {
		file := filepath.Join(lineDir, col+".png")
		tasks = append(tasks, renderTask{file, func() error {
			return r.renderLine(hourly, col, i, filepath.Join(r.outDir, file))
		}})
	}
	for i, col := range facetColumns(hourly) {
		hourlyFile := filepath.Join(monthlyHourlyDir, col+".png")
		tasks = append(tasks, renderTask{hourlyFile, func() error {
			return r.renderMonthly(hourly, col, i, false, filepath.Join(r.outDir, hourlyFile))
		}})
		dailyFile := filepath.Join(monthlyDailyDir, col+".png")
		tasks = append(tasks, renderTask{dailyFile, func() error {
			return r.renderMonthly(hourly, col, i, true, filepath.Join(r.outDir, dailyFile))
		}})
	}
	tasks = append(tasks,
		renderTask{histogramFile, func() error {
			return r.renderHistogramGrid(hourly, hourly.Columns(), filepath.Join(r.outDir, histogramFile))
		}},
		renderTask{heatmapFile, func() error {
			return r.renderHeatmap(hourly, heatmapColumns(hourly), filepath.Join(r.outDir, heatmapFile))
		}},
		renderTask{scatterFile, func() error {
			return r.renderScatterGrid(hourly, scatterColumns(hourly), filepath.Join(r.outDir, scatterFile))
		}},
	)
	return tasks
}

// facetColumns drops the clock columns that make no sense against a
// day-of-month axis.
func facetColumns(f *dataset.Frame) []string {
	skip := map[string]bool{
		dataset.ColHour:  true,
		dataset.ColDOY:   true,
		dataset.ColMonth: true,
	}
	var cols []string
	for _, col := range f.Columns() {
		if !skip[col] {
			cols = append(cols, col)
		}
	}
	return cols
}

func scatterColumns(f *dataset.Frame) []string {
	var cols []string
	for _, col := range f.Columns() {
		if col != dataset.ColSolarAvg {
			cols = append(cols, col)
		}
	}
	return cols
}

// heatmapColumns is the fixed observation+solar set, filtered to the columns
// actually present.
func heatmapColumns(f *dataset.Frame) []string {
	var cols []string
	for _, col := range append(dataset.ObservationColumns(), dataset.SolarColumns()...) {
		if f.HasColumn(col) {
			cols = append(cols, col)
		}
	}
	return cols
}
