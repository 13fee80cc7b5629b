// Package eda computes descriptive statistics and correlations over
// observation frames.
package eda

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"suryacli/internal/dataset"
)

// ColumnSummary holds descriptive statistics for a single column. Missing
// values are excluded from every statistic; Count is the number of values
// that remain.
type ColumnSummary struct {
	Column  string  `json:"column" csv:"Column"`
	Count   int     `json:"count" csv:"Count"`
	Missing int     `json:"missing" csv:"Missing"`
	Mean    float64 `json:"mean" csv:"Mean"`
	Std     float64 `json:"std" csv:"Std"`
	Min     float64 `json:"min" csv:"Min"`
	P25     float64 `json:"p25" csv:"P25"`
	Median  float64 `json:"median" csv:"Median"`
	P75     float64 `json:"p75" csv:"P75"`
	Max     float64 `json:"max" csv:"Max"`
	Skew    float64 `json:"skew" csv:"Skew"`
}

// Describe computes a summary for every column of the frame, in column order.
func Describe(f *dataset.Frame) []ColumnSummary {
	summaries := make([]ColumnSummary, 0, len(f.Columns()))
	for _, col := range f.Columns() {
		vals, _ := f.Column(col)
		summaries = append(summaries, describeColumn(col, vals))
	}
	return summaries
}

func describeColumn(name string, vals []float64) ColumnSummary {
	clean := dropMissing(vals)
	s := ColumnSummary{
		Column:  name,
		Count:   len(clean),
		Missing: len(vals) - len(clean),
	}
	if len(clean) == 0 {
		s.Mean = math.NaN()
		s.Std = math.NaN()
		s.Min = math.NaN()
		s.P25 = math.NaN()
		s.Median = math.NaN()
		s.P75 = math.NaN()
		s.Max = math.NaN()
		s.Skew = math.NaN()
		return s
	}

	sort.Float64s(clean)
	s.Mean = stat.Mean(clean, nil)
	s.Std = stat.StdDev(clean, nil)
	s.Min = clean[0]
	s.P25 = Percentile(clean, 0.25)
	s.Median = Percentile(clean, 0.5)
	s.P75 = Percentile(clean, 0.75)
	s.Max = clean[len(clean)-1]
	// Adjusted Fisher-Pearson skewness needs at least three values.
	if len(clean) >= 3 && s.Std > 0 {
		s.Skew = stat.Skew(clean, nil)
	} else {
		s.Skew = math.NaN()
	}
	return s
}

// Percentile linearly interpolates between order statistics at index p*(n-1).
// The input must be sorted ascending and non-empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func dropMissing(vals []float64) []float64 {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return clean
}
