// Package ingest reads station observation exports into dataset frames.
// Excel workbooks are the primary format; CSV exports with the same layout
// are accepted as well.
package ingest

import (
	"fmt"
	"strings"

	"suryacli/internal/dataset"
)

// Schema describes the expected export layout: the timestamp column, its
// layout, and the observation columns that must be present.
type Schema struct {
	TimeColumn string
	TimeLayout string
	Columns    []string
}

// DefaultSchema returns the station export schema: a Time column formatted
// dd/mm/yyyy HH:MM:SS followed by the eleven observation columns.
func DefaultSchema() Schema {
	return Schema{
		TimeColumn: dataset.ColTime,
		TimeLayout: "02/01/2006 15:04:05",
		Columns:    dataset.ObservationColumns(),
	}
}

// mapHeader locates every schema column in a header row. Matching is exact
// after trimming, with a case-insensitive fallback for hand-edited exports.
func (s Schema) mapHeader(header []string) (timeIdx int, columnIdx map[string]int, missing []string) {
	index := make(map[string]int, len(header))
	lowered := make(map[string]int, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		if _, exists := index[name]; !exists {
			index[name] = i
		}
		lower := strings.ToLower(name)
		if _, exists := lowered[lower]; !exists {
			lowered[lower] = i
		}
	}

	find := func(name string) (int, bool) {
		if i, ok := index[name]; ok {
			return i, true
		}
		i, ok := lowered[strings.ToLower(name)]
		return i, ok
	}

	timeIdx = -1
	if i, ok := find(s.TimeColumn); ok {
		timeIdx = i
	} else {
		missing = append(missing, s.TimeColumn)
	}

	columnIdx = make(map[string]int, len(s.Columns))
	for _, col := range s.Columns {
		if i, ok := find(col); ok {
			columnIdx[col] = i
		} else {
			missing = append(missing, col)
		}
	}
	return timeIdx, columnIdx, missing
}

// looksLikeHeader reports whether a row contains the time column and at
// least half of the observation columns.
func (s Schema) looksLikeHeader(row []string) bool {
	timeIdx, columnIdx, _ := s.mapHeader(row)
	return timeIdx >= 0 && len(columnIdx) >= len(s.Columns)/2
}

// validate checks the schema is usable before any file is opened.
func (s Schema) validate() error {
	if s.TimeColumn == "" {
		return fmt.Errorf("schema has no time column")
	}
	if s.TimeLayout == "" {
		return fmt.Errorf("schema has no time layout")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema has no observation columns")
	}
	return nil
}
