package dataset

import (
	"math"
)

// Interpolate fills missing values in every column in place and returns the
// number of cells filled per column. Interior gaps are interpolated linearly
// between the nearest valid neighbours; gaps at either edge take the nearest
// valid value. A column with no valid values is left untouched.
func (f *Frame) Interpolate() map[string]int {
	filled := make(map[string]int, len(f.columns))
	for _, col := range f.columns {
		filled[col] = interpolateLinear(f.data[col])
	}
	return filled
}

func interpolateLinear(v []float64) int {
	first, last := -1, -1
	for i, x := range v {
		if !math.IsNaN(x) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0
	}

	filled := 0
	for i := 0; i < first; i++ {
		v[i] = v[first]
		filled++
	}
	for i := last + 1; i < len(v); i++ {
		v[i] = v[last]
		filled++
	}

	i := first
	for i < last {
		if !math.IsNaN(v[i+1]) {
			i++
			continue
		}
		j := i + 1
		for math.IsNaN(v[j]) {
			j++
		}
		slope := (v[j] - v[i]) / float64(j-i)
		for k := i + 1; k < j; k++ {
			v[k] = v[i] + slope*float64(k-i)
			filled++
		}
		i = j
	}
	return filled
}
