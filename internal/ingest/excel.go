package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"

	"suryacli/internal/dataset"
)

// ParseStats summarizes what a read did with the raw rows.
type ParseStats struct {
	Sheet        string `json:"sheet,omitempty"`
	TotalRows    int    `json:"total_rows"`
	ParsedRows   int    `json:"parsed_rows"`
	CoercedTimes int    `json:"coerced_times"`
	MissingCells int    `json:"missing_cells"`
}

// Result carries the parsed frame together with its parse statistics.
type Result struct {
	Frame *dataset.Frame
	Stats ParseStats
}

// Reader parses observation exports against a schema.
type Reader struct {
	schema   Schema
	logger   *slog.Logger
	progress *rate.Limiter
}

// NewReader creates a reader for the given schema.
func NewReader(schema Schema, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		schema: schema,
		logger: logger.With(slog.String("component", "ingest")),
		// Progress lines are throttled so large exports do not flood the log.
		progress: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// ReadFile parses a spreadsheet or CSV export into a frame. The format is
// chosen by file extension.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Result, error) {
	if err := r.schema.validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return r.readWorkbook(ctx, path)
	case ".csv":
		return r.readCSV(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", filepath.Ext(path))
	}
}

// readWorkbook locates the observation sheet, maps the header and parses
// every data row.
func (r *Reader) readWorkbook(ctx context.Context, path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, sheet, err := r.findSheet(f)
	if err != nil {
		return nil, err
	}
	r.logger.Info("found observation sheet",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	result, err := r.parseRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	result.Stats.Sheet = sheet
	return result, nil
}

// findSheet returns the first sheet whose leading rows contain the schema
// header.
func (r *Reader) findSheet(f *excelize.File) ([][]string, string, error) {
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		limit := len(rows)
		if limit > 10 {
			limit = 10
		}
		for _, row := range rows[:limit] {
			if r.schema.looksLikeHeader(row) {
				return rows, name, nil
			}
		}
	}
	return nil, "", fmt.Errorf("no sheet contains the %s observation header", r.schema.TimeColumn)
}

// parseRows converts raw string rows into a frame. The first row matching
// the schema header starts the data; rows with an unparseable timestamp are
// coerced away, matching how the dataset has always been cleaned.
func (r *Reader) parseRows(ctx context.Context, rows [][]string) (*Result, error) {
	headerRow := -1
	var timeIdx int
	var columnIdx map[string]int
	for i, row := range rows {
		if !r.schema.looksLikeHeader(row) {
			continue
		}
		var missing []string
		timeIdx, columnIdx, missing = r.schema.mapHeader(row)
		if len(missing) > 0 {
			return nil, fmt.Errorf("export is missing required columns: %s", strings.Join(missing, ", "))
		}
		headerRow = i
		break
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("could not find the %s header row", r.schema.TimeColumn)
	}

	stats := ParseStats{}
	times := make([]time.Time, 0, len(rows)-headerRow-1)
	data := make(map[string][]float64, len(r.schema.Columns))
	for _, col := range r.schema.Columns {
		data[col] = make([]float64, 0, len(rows)-headerRow-1)
	}

	for i := headerRow + 1; i < len(rows); i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if r.progress.Allow() {
				r.logger.Debug("parsing rows",
					slog.Int("row", i),
					slog.Int("total", len(rows)))
			}
		}

		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		stats.TotalRows++

		t, ok := r.parseTime(cellAt(row, timeIdx))
		if !ok {
			stats.CoercedTimes++
			continue
		}

		times = append(times, t)
		for _, col := range r.schema.Columns {
			v, missing := parseCell(cellAt(row, columnIdx[col]))
			if missing {
				stats.MissingCells++
			}
			data[col] = append(data[col], v)
		}
		stats.ParsedRows++
	}

	frame, err := dataset.FromSeries(times, r.schema.Columns, data)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble frame: %w", err)
	}

	r.logger.Info("parsed observation rows",
		slog.Int("rows", stats.ParsedRows),
		slog.Int("coerced_times", stats.CoercedTimes),
		slog.Int("missing_cells", stats.MissingCells))

	return &Result{Frame: frame, Stats: stats}, nil
}

// parseTime parses the schema layout, falling back to the Excel serial
// representation some exports use for datetime cells.
func (r *Reader) parseTime(cell string) (time.Time, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(r.schema.TimeLayout, cell, time.UTC); err == nil {
		return t, true
	}
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseCell converts a value cell to float64, NaN for blank or non-numeric
// cells.
func parseCell(cell string) (value float64, missing bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN(), true
	}
	return v, false
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
