package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ProcessStats is a point-in-time snapshot of the Go runtime.
type ProcessStats struct {
	Goroutines     int
	HeapAllocBytes uint64
	SysBytes       uint64
	GCCycles       uint32
	LastGCPause    time.Duration
	CPUCount       int
	Uptime         time.Duration
}

// ProcessMetrics publishes a runtime snapshot into the metrics registry so
// the textfile records what the run cost in memory and goroutines.
type ProcessMetrics struct {
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	memSys     metric.Int64Gauge
	gcCycles   metric.Int64Gauge
	gcPause    metric.Float64Gauge
	cpuCount   metric.Int64Gauge
	uptime     metric.Float64Gauge

	logger *slog.Logger
}

// NewProcessMetrics creates the runtime snapshot instruments on the given meter.
func NewProcessMetrics(meter metric.Meter, logger *slog.Logger) (*ProcessMetrics, error) {
	pm := &ProcessMetrics{
		logger: logger.With(slog.String("component", "process_metrics")),
	}

	var err error

	pm.goroutines, err = meter.Int64Gauge("surya_process_goroutines",
		metric.WithDescription("Number of goroutines at snapshot time"))
	if err != nil {
		return nil, fmt.Errorf("failed to create goroutines gauge: %w", err)
	}

	pm.heapAlloc, err = meter.Int64Gauge("surya_process_heap_alloc_bytes",
		metric.WithDescription("Heap bytes allocated and still in use"))
	if err != nil {
		return nil, fmt.Errorf("failed to create heap alloc gauge: %w", err)
	}

	pm.memSys, err = meter.Int64Gauge("surya_process_memory_sys_bytes",
		metric.WithDescription("Total bytes obtained from the OS"))
	if err != nil {
		return nil, fmt.Errorf("failed to create memory sys gauge: %w", err)
	}

	pm.gcCycles, err = meter.Int64Gauge("surya_process_gc_cycles",
		metric.WithDescription("Completed GC cycles since process start"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gc cycles gauge: %w", err)
	}

	pm.gcPause, err = meter.Float64Gauge("surya_process_gc_pause_seconds",
		metric.WithDescription("Most recent GC pause duration in seconds"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gc pause gauge: %w", err)
	}

	pm.cpuCount, err = meter.Int64Gauge("surya_process_cpu_count",
		metric.WithDescription("Number of logical CPUs available"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cpu count gauge: %w", err)
	}

	pm.uptime, err = meter.Float64Gauge("surya_process_uptime_seconds",
		metric.WithDescription("Wall-clock duration of the run in seconds"))
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime gauge: %w", err)
	}

	return pm, nil
}

// Collect reads the runtime counters once, records them on the instruments,
// and returns the snapshot. Call it after the pipeline finishes and before
// the metrics textfile is written.
func (pm *ProcessMetrics) Collect(ctx context.Context, startTime time.Time) ProcessStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := ProcessStats{
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: mem.HeapAlloc,
		SysBytes:       mem.Sys,
		GCCycles:       mem.NumGC,
		CPUCount:       runtime.NumCPU(),
		Uptime:         time.Since(startTime),
	}
	if mem.NumGC > 0 {
		stats.LastGCPause = time.Duration(mem.PauseNs[(mem.NumGC+255)%256])
	}

	pm.goroutines.Record(ctx, int64(stats.Goroutines))
	pm.heapAlloc.Record(ctx, int64(stats.HeapAllocBytes))
	pm.memSys.Record(ctx, int64(stats.SysBytes))
	pm.gcCycles.Record(ctx, int64(stats.GCCycles))
	pm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	pm.cpuCount.Record(ctx, int64(stats.CPUCount))
	pm.uptime.Record(ctx, stats.Uptime.Seconds())

	pm.logger.DebugContext(ctx, "Process snapshot collected",
		slog.Int("goroutines", stats.Goroutines),
		slog.Uint64("heap_alloc_bytes", stats.HeapAllocBytes),
		slog.Uint64("sys_bytes", stats.SysBytes),
		slog.Int("gc_cycles", int(stats.GCCycles)),
		slog.Duration("uptime", stats.Uptime))

	return stats
}
