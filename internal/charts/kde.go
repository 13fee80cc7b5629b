package charts

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"

	"suryacli/internal/eda"
)

// silvermanBandwidth returns Silverman's rule-of-thumb bandwidth for a
// Gaussian kernel density estimate.
func silvermanBandwidth(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	std := stat.StdDev(sorted, nil)
	iqr := eda.Percentile(sorted, 0.75) - eda.Percentile(sorted, 0.25)

	spread := std
	if iqr > 0 && iqr/1.34 < spread {
		spread = iqr / 1.34
	}
	if spread <= 0 || math.IsNaN(spread) {
		return 0
	}
	return 0.9 * spread * math.Pow(float64(len(sorted)), -0.2)
}

// kdeCurve evaluates a Gaussian kernel density estimate on an even grid
// extended three bandwidths past the data range. scale multiplies the
// density, which lets the curve overlay a count histogram when set to
// n times the bin width. It returns nil when the estimate is degenerate.
func kdeCurve(vals []float64, points int, scale float64) plotter.XYs {
	if len(vals) < 2 {
		return nil
	}
	h := silvermanBandwidth(vals)
	if h == 0 {
		return nil
	}

	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	lo -= 3 * h
	hi += 3 * h

	norm := scale / (float64(len(vals)) * h * math.Sqrt(2*math.Pi))
	step := (hi - lo) / float64(points-1)
	curve := make(plotter.XYs, points)
	for i := range curve {
		x := lo + float64(i)*step
		var sum float64
		for _, v := range vals {
			z := (x - v) / h
			sum += math.Exp(-0.5 * z * z)
		}
		curve[i] = plotter.XY{X: x, Y: sum * norm}
	}
	return curve
}
