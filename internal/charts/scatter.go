package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"suryacli/internal/dataset"
	"suryacli/internal/eda"
)

const (
	scattersPerRow = 3
	irradianceMax  = 1200 // W/m², the axis cap from the station's sensor range
)

// renderScatterGrid draws one scatter facet per column against sr_avg, with
// an OLS fit line and the Spearman coefficient annotated.
func (r *Renderer) renderScatterGrid(f *dataset.Frame, cols []string, path string) error {
	x, ok := f.Column(dataset.ColSolarAvg)
	if !ok {
		return fmt.Errorf("column %s not found", dataset.ColSolarAvg)
	}

	rows := (len(cols) + scattersPerRow - 1) / scattersPerRow
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, scattersPerRow)
	}
	for k, col := range cols {
		y, ok := f.Column(col)
		if !ok {
			return fmt.Errorf("column %s not found", col)
		}
		p, err := scatterPlot(col, x, y)
		if err != nil {
			return err
		}
		plots[k/scattersPerRow][k%scattersPerRow] = p
	}
	return writeFacetGrid(path, "", plots, 4.5*vg.Inch, 3.5*vg.Inch)
}

func scatterPlot(col string, x, y []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "sr_avg vs " + col
	p.Title.TextStyle.Font.Size = vg.Points(10)
	p.X.Label.Text = "sr_avg (W/m²)"
	p.Y.Label.Text = col
	p.X.Min, p.X.Max = 0, irradianceMax

	xys, ymax := pairPoints(x, y)
	if len(xys) == 0 {
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("failed to build scatter for %s: %w", col, err)
	}
	sc.GlyphStyle.Color = scatterPointColor
	sc.GlyphStyle.Radius = vg.Points(1.2)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	if alpha, beta, ok := eda.LinearFit(x, y); ok {
		fit, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: alpha},
			{X: irradianceMax, Y: alpha + beta*irradianceMax},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build fit line for %s: %w", col, err)
		}
		fit.LineStyle.Width = vg.Points(1.5)
		fit.LineStyle.Color = fitLineColor
		p.Add(fit)
	}

	if rho := eda.Spearman(x, y); !math.IsNaN(rho) {
		label, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: 0.04 * irradianceMax, Y: ymax}},
			Labels: []string{fmt.Sprintf("ρ = %.2f", rho)},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build annotation for %s: %w", col, err)
		}
		label.TextStyle[0].Font.Size = vg.Points(9)
		p.Add(label)
	}
	return p, nil
}

// pairPoints keeps the complete pairs and reports the largest y among them.
func pairPoints(x, y []float64) (plotter.XYs, float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xys := make(plotter.XYs, 0, n)
	ymax := math.Inf(-1)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
		if y[i] > ymax {
			ymax = y[i]
		}
	}
	return xys, ymax
}
