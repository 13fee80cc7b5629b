package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frame is a time-indexed table of float64 columns. Missing values are NaN.
// The index is expected to be strictly increasing; SortByTime establishes
// that invariant for freshly parsed data.
type Frame struct {
	times   []time.Time
	columns []string
	data    map[string][]float64
}

// New creates a frame with the given index and all-NaN columns.
func New(times []time.Time, columns []string) *Frame {
	f := &Frame{
		times:   times,
		columns: append([]string(nil), columns...),
		data:    make(map[string][]float64, len(columns)),
	}
	for _, col := range columns {
		vals := make([]float64, len(times))
		for i := range vals {
			vals[i] = math.NaN()
		}
		f.data[col] = vals
	}
	return f
}

// FromSeries creates a frame from parsed column slices. Every column must
// have the same length as the index.
func FromSeries(times []time.Time, columns []string, data map[string][]float64) (*Frame, error) {
	f := &Frame{
		times:   times,
		columns: append([]string(nil), columns...),
		data:    make(map[string][]float64, len(columns)),
	}
	for _, col := range columns {
		vals, ok := data[col]
		if !ok {
			return nil, fmt.Errorf("column %s has no data", col)
		}
		if len(vals) != len(times) {
			return nil, fmt.Errorf("column %s has %d values for %d timestamps", col, len(vals), len(times))
		}
		f.data[col] = vals
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.times)
}

// Times returns the timestamp index. The slice is shared; callers must not
// modify it.
func (f *Frame) Times() []time.Time {
	return f.times
}

// Time returns the timestamp at row i.
func (f *Frame) Time(i int) time.Time {
	return f.times[i]
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// HasColumn reports whether the frame contains the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// Column returns the values of the named column. The slice is shared; it is
// mutated in place by Interpolate.
func (f *Frame) Column(name string) ([]float64, bool) {
	vals, ok := f.data[name]
	return vals, ok
}

// AddColumn appends a new column. The name must be unique and the length
// must match the index.
func (f *Frame) AddColumn(name string, values []float64) error {
	if _, exists := f.data[name]; exists {
		return fmt.Errorf("column %s already exists", name)
	}
	if len(values) != len(f.times) {
		return fmt.Errorf("column %s has %d values for %d timestamps", name, len(values), len(f.times))
	}
	f.columns = append(f.columns, name)
	f.data[name] = values
	return nil
}

// Select returns a new frame sharing the index but containing only the named
// columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	nf := &Frame{
		times:   f.times,
		columns: append([]string(nil), names...),
		data:    make(map[string][]float64, len(names)),
	}
	for _, name := range names {
		vals, ok := f.data[name]
		if !ok {
			return nil, fmt.Errorf("column %s not found", name)
		}
		nf.data[name] = vals
	}
	return nf, nil
}

// MissingCount returns the number of NaN values in the named column.
func (f *Frame) MissingCount(name string) int {
	vals, ok := f.data[name]
	if !ok {
		return 0
	}
	count := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			count++
		}
	}
	return count
}

// TotalMissing returns the number of NaN cells across all columns.
func (f *Frame) TotalMissing() int {
	total := 0
	for _, col := range f.columns {
		total += f.MissingCount(col)
	}
	return total
}

// Span returns the first and last timestamp. ok is false for an empty frame.
func (f *Frame) Span() (start, end time.Time, ok bool) {
	if len(f.times) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return f.times[0], f.times[len(f.times)-1], true
}

// SortByTime sorts rows by timestamp and drops duplicate timestamps, keeping
// the first occurrence. It returns the number of dropped rows.
func (f *Frame) SortByTime() int {
	n := len(f.times)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return f.times[order[a]].Before(f.times[order[b]])
	})

	keep := make([]int, 0, n)
	var prev time.Time
	for _, idx := range order {
		t := f.times[idx]
		if len(keep) > 0 && t.Equal(prev) {
			continue
		}
		keep = append(keep, idx)
		prev = t
	}

	times := make([]time.Time, len(keep))
	for i, idx := range keep {
		times[i] = f.times[idx]
	}
	for _, col := range f.columns {
		src := f.data[col]
		dst := make([]float64, len(keep))
		for i, idx := range keep {
			dst[i] = src[idx]
		}
		f.data[col] = dst
	}
	f.times = times
	return n - len(keep)
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	nf := &Frame{
		times:   append([]time.Time(nil), f.times...),
		columns: append([]string(nil), f.columns...),
		data:    make(map[string][]float64, len(f.columns)),
	}
	for _, col := range f.columns {
		nf.data[col] = append([]float64(nil), f.data[col]...)
	}
	return nf
}
