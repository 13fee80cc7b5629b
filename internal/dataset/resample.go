package dataset

import (
	"fmt"
	"math"
	"time"
)

// Aggregation selects how values inside a resample bin collapse to one.
type Aggregation int

const (
	// AggFirst takes the first non-missing value in the bin.
	AggFirst Aggregation = iota
	// AggMean takes the arithmetic mean of the non-missing values.
	AggMean
)

// String returns the aggregation name.
func (a Aggregation) String() string {
	switch a {
	case AggFirst:
		return "first"
	case AggMean:
		return "mean"
	default:
		return fmt.Sprintf("aggregation(%d)", int(a))
	}
}

// Resample collapses the frame onto bins of the given step, aligned to
// wall-clock boundaries in loc. Bin timestamps carry loc. The receiver must
// be sorted; bins are emitted in first-seen order, which is chronological
// for a sorted frame.
func (f *Frame) Resample(step time.Duration, agg Aggregation, loc *time.Location) (*Frame, error) {
	if step <= 0 {
		return nil, fmt.Errorf("resample step must be positive, got %s", step)
	}
	if loc == nil {
		loc = time.UTC
	}

	binStarts := make([]time.Time, 0)
	binRows := make(map[int64][]int)
	for i, t := range f.times {
		bin := binStart(t, step, loc)
		key := bin.UnixNano()
		if _, seen := binRows[key]; !seen {
			binStarts = append(binStarts, bin)
		}
		binRows[key] = append(binRows[key], i)
	}

	nf := New(binStarts, f.columns)
	for bi, bin := range binStarts {
		rows := binRows[bin.UnixNano()]
		for _, col := range f.columns {
			nf.data[col][bi] = aggregate(f.data[col], rows, agg)
		}
	}
	return nf, nil
}

// binStart truncates t to the enclosing bin boundary in local wall-clock
// terms, so bins line up with local hours regardless of the UTC offset.
func binStart(t time.Time, step time.Duration, loc *time.Location) time.Time {
	lt := t.In(loc)
	dayStart := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	offset := lt.Sub(dayStart)
	return dayStart.Add(offset - offset%step)
}

func aggregate(vals []float64, rows []int, agg Aggregation) float64 {
	switch agg {
	case AggMean:
		sum := 0.0
		n := 0
		for _, r := range rows {
			if v := vals[r]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			return math.NaN()
		}
		return sum / float64(n)
	default:
		for _, r := range rows {
			if v := vals[r]; !math.IsNaN(v) {
				return v
			}
		}
		return math.NaN()
	}
}
