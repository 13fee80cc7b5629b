// Package export writes pipeline artifacts: CSV reports for the 10-minute
// and hourly datasets, the statistics summary, and a Parquet copy of the
// hourly dataset.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"suryacli/internal/dataset"
	"suryacli/internal/eda"
)

// CSVWriter provides CSV export functionality. Timestamps are rendered in
// the writer's location so exports carry the station's local offset.
type CSVWriter struct {
	loc    *time.Location
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(loc *time.Location, logger *slog.Logger) *CSVWriter {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{loc: loc, logger: logger.With(slog.String("component", "export"))}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		slog.String("path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// BOM helps Excel recognize UTF-8.
	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

// WriteFrame writes a frame as CSV with a leading Time column. Missing
// values become empty fields.
func (w *CSVWriter) WriteFrame(filePath string, f *dataset.Frame) error {
	headers, records := frameRecords(f, w.loc)
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteSummary writes per-column descriptive statistics as CSV.
func (w *CSVWriter) WriteSummary(filePath string, summaries []eda.ColumnSummary) error {
	headers := []string{"Column", "Count", "Missing", "Mean", "Std", "Min", "P25", "Median", "P75", "Max", "Skew"}
	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, []string{
			s.Column,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Missing),
			formatValue(s.Mean),
			formatValue(s.Std),
			formatValue(s.Min),
			formatValue(s.P25),
			formatValue(s.Median),
			formatValue(s.P75),
			formatValue(s.Max),
			formatValue(s.Skew),
		})
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

func frameRecords(f *dataset.Frame, loc *time.Location) (headers []string, records [][]string) {
	columns := f.Columns()
	headers = append([]string{dataset.ColTime}, columns...)

	series := make([][]float64, len(columns))
	for i, col := range columns {
		series[i], _ = f.Column(col)
	}

	records = make([][]string, f.Len())
	for i := 0; i < f.Len(); i++ {
		record := make([]string, 0, len(headers))
		record = append(record, f.Time(i).In(loc).Format(time.RFC3339))
		for _, vals := range series {
			record = append(record, formatValue(vals[i]))
		}
		records[i] = record
	}
	return headers, records
}

// formatValue renders a cell with the shortest round-trippable decimal form.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
