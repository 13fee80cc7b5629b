package dataset

import (
	"time"
)

// Grid returns the complete sequence of timestamps from start to end
// inclusive at the given step. An inverted range or non-positive step yields
// an empty grid.
func Grid(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 || end.Before(start) {
		return nil
	}
	n := int(end.Sub(start)/step) + 1
	grid := make([]time.Time, 0, n)
	for t := start; !t.After(end); t = t.Add(step) {
		grid = append(grid, t)
	}
	return grid
}

// Reindex aligns the frame onto the given grid. Rows whose timestamp matches
// a grid slot keep their values; slots without a matching row become all-NaN
// rows; rows whose timestamp is not on the grid are dropped. It returns the
// reindexed frame, the number of empty slots inserted and the number of
// off-grid rows dropped. The receiver must be sorted and deduplicated.
func (f *Frame) Reindex(grid []time.Time) (*Frame, int, int) {
	byTime := make(map[int64]int, len(f.times))
	for i, t := range f.times {
		byTime[t.UnixNano()] = i
	}

	nf := New(grid, f.columns)
	matched := 0
	missing := 0
	for gi, t := range grid {
		src, ok := byTime[t.UnixNano()]
		if !ok {
			missing++
			continue
		}
		matched++
		for _, col := range f.columns {
			nf.data[col][gi] = f.data[col][src]
		}
	}
	dropped := len(f.times) - matched
	return nf, missing, dropped
}
