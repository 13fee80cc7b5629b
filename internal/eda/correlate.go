package eda

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"suryacli/internal/dataset"
)

// Matrix is a symmetric correlation matrix over named columns.
type Matrix struct {
	Columns []string
	Values  [][]float64
}

// At returns the coefficient for the column pair (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Values[i][j]
}

// SpearmanMatrix computes pairwise Spearman rank correlations between the
// named columns. Rows where either value is missing are excluded pair by
// pair, matching pairwise-complete correlation semantics.
func SpearmanMatrix(f *dataset.Frame, columns []string) (*Matrix, error) {
	series := make([][]float64, len(columns))
	for i, col := range columns {
		vals, ok := f.Column(col)
		if !ok {
			return nil, fmt.Errorf("column %s not found", col)
		}
		series[i] = vals
	}

	m := &Matrix{
		Columns: append([]string(nil), columns...),
		Values:  make([][]float64, len(columns)),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(columns))
	}
	for i := range columns {
		m.Values[i][i] = 1
		for j := 0; j < i; j++ {
			rho := Spearman(series[i], series[j])
			m.Values[i][j] = rho
			m.Values[j][i] = rho
		}
	}
	return m, nil
}

// Spearman returns the Spearman rank correlation of two equal-length series,
// ignoring pairs with missing values. Ties receive their average rank. It
// returns NaN when fewer than two complete pairs remain or a series is
// constant.
func Spearman(x, y []float64) float64 {
	xs, ys := dropMissingPairs(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(rankAverage(xs), rankAverage(ys), nil)
}

// LinearFit returns the intercept and slope of an ordinary least squares fit
// of y on x, ignoring pairs with missing values. ok is false when fewer than
// two complete pairs remain or x is constant.
func LinearFit(x, y []float64) (alpha, beta float64, ok bool) {
	xs, ys := dropMissingPairs(x, y)
	if len(xs) < 2 {
		return 0, 0, false
	}
	alpha, beta = stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return 0, 0, false
	}
	return alpha, beta, true
}

// rankAverage assigns 1-based ranks, giving tied values the mean of the
// ranks they span.
func rankAverage(x []float64) []float64 {
	n := len(x)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return x[order[a]] < x[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[order[j+1]] == x[order[i]] {
			j++
		}
		mean := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = mean
		}
		i = j + 1
	}
	return ranks
}

func dropMissingPairs(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
