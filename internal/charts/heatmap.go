package charts

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"suryacli/internal/dataset"
	"suryacli/internal/eda"
)

// corrGrid adapts a correlation matrix to the heat map grid, flipping rows
// so the first column reads from the top like the matrix itself.
type corrGrid struct {
	m *eda.Matrix
}

func (g corrGrid) Dims() (c, r int) {
	n := len(g.m.Columns)
	return n, n
}

func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

func (g corrGrid) Z(c, r int) float64 {
	return g.m.Values[len(g.m.Columns)-1-r][c]
}

// renderHeatmap draws the Spearman correlation heat map over the fixed
// observation+solar column set.
func (r *Renderer) renderHeatmap(f *dataset.Frame, cols []string, path string) error {
	if len(cols) < 2 {
		return fmt.Errorf("heatmap needs at least two columns, have %d", len(cols))
	}
	m, err := eda.SpearmanMatrix(f, cols)
	if err != nil {
		return fmt.Errorf("failed to correlate: %w", err)
	}

	grid := corrGrid{m: m}
	hm := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	hm.Min, hm.Max = -1, 1
	hm.NaN = color.White

	p := plot.New()
	p.Title.Text = "Spearman Correlation Heatmap (Hourly)"
	p.Add(hm)

	n := len(cols)
	xticks := make([]plot.Tick, n)
	yticks := make([]plot.Tick, n)
	for i, col := range cols {
		xticks[i] = plot.Tick{Value: float64(i), Label: col}
		yticks[i] = plot.Tick{Value: float64(n - 1 - i), Label: col}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	p.X.Tick.Label.Font.Size = vg.Points(8)
	p.Y.Tick.Label.Font.Size = vg.Points(8)

	labels, err := cellLabels(m)
	if err != nil {
		return err
	}
	p.Add(labels)

	return p.Save(10*vg.Inch, 8.5*vg.Inch, path)
}

// cellLabels annotates every cell with its coefficient, switching to white
// text on strongly saturated cells.
func cellLabels(m *eda.Matrix) (*plotter.Labels, error) {
	n := len(m.Columns)
	xys := make(plotter.XYs, 0, n*n)
	strs := make([]string, 0, n*n)
	vals := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			strs = append(strs, fmt.Sprintf("%.2f", v))
			vals = append(vals, v)
		}
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: strs})
	if err != nil {
		return nil, fmt.Errorf("failed to build cell labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Font.Size = vg.Points(7)
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
		if math.Abs(vals[i]) > 0.6 {
			labels.TextStyle[i].Color = color.White
		}
	}
	return labels, nil
}
