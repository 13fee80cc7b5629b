package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// readCSV parses a CSV export with the same layout as the workbook sheets.
func (r *Reader) readCSV(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, record)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		// Excel-compatible exports start with a UTF-8 BOM.
		rows[0][0] = strings.TrimPrefix(rows[0][0], "﻿")
	}

	r.logger.Info("found csv export",
		slog.String("file", filepath.Base(path)),
		slog.Int("rows", len(rows)))

	return r.parseRows(ctx, rows)
}
