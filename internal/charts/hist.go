package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"suryacli/internal/dataset"
)

const histsPerRow = 3

// renderHistogramGrid draws one histogram facet per column with a Gaussian
// density overlay scaled to the count axis.
func (r *Renderer) renderHistogramGrid(f *dataset.Frame, cols []string, path string) error {
	rows := (len(cols) + histsPerRow - 1) / histsPerRow
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, histsPerRow)
	}

	for k, col := range cols {
		vals, ok := f.Column(col)
		if !ok {
			return fmt.Errorf("column %s not found", col)
		}
		p, err := histogramPlot(col, dropMissing(vals))
		if err != nil {
			return err
		}
		plots[k/histsPerRow][k%histsPerRow] = p
	}
	return writeFacetGrid(path, "", plots, 4.5*vg.Inch, 3*vg.Inch)
}

func histogramPlot(col string, vals []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Histogram of " + col
	p.Title.TextStyle.Font.Size = vg.Points(10)
	p.X.Label.Text = col
	p.Y.Label.Text = "Frequency"

	lo, hi := valueRange(vals)
	if len(vals) == 0 || lo == hi {
		// Constant or empty columns have no spread to bin.
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	h, err := plotter.NewHist(plotter.Values(vals), histBins)
	if err != nil {
		return nil, fmt.Errorf("failed to build histogram for %s: %w", col, err)
	}
	h.FillColor = histFillColor
	h.LineStyle.Width = vg.Points(0.5)
	p.Add(h)

	binWidth := (hi - lo) / histBins
	if curve := kdeCurve(vals, 200, float64(len(vals))*binWidth); curve != nil {
		line, err := plotter.NewLine(curve)
		if err != nil {
			return nil, fmt.Errorf("failed to build density curve for %s: %w", col, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = histCurveColor
		p.Add(line)
	}
	return p, nil
}

func valueRange(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
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
