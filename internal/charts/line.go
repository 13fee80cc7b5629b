package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"suryacli/internal/dataset"
)

// renderLine draws the full-series line chart for one column. The x axis is
// the local wall clock; missing values leave gaps out of the series.
func (r *Renderer) renderLine(f *dataset.Frame, col string, idx int, path string) error {
	vals, ok := f.Column(col)
	if !ok {
		return fmt.Errorf("column %s not found", col)
	}

	xys := make(plotter.XYs, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(f.Time(i).Unix()), Y: v})
	}
	if len(xys) == 0 {
		return fmt.Errorf("column %s has no values to plot", col)
	}

	zone, _ := f.Time(0).In(r.loc).Zone()

	p := plot.New()
	p.Title.Text = col
	p.X.Label.Text = zone
	p.Y.Label.Text = axisLabel(col)
	p.X.Tick.Marker = plot.TimeTicks{
		Format: "2006-01",
		Time:   plot.UnixTimeIn(r.loc),
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("failed to build line: %w", err)
	}
	line.LineStyle.Width = vg.Points(0.9)
	line.LineStyle.Color = neonColor(idx)
	p.Add(line)

	return p.Save(14*vg.Inch, 2.5*vg.Inch, path)
}

// axisLabel appends the measurement unit when one is known.
func axisLabel(col string) string {
	if unit := dataset.ColumnUnit(col); unit != "" {
		return fmt.Sprintf("%s (%s)", col, unit)
	}
	return col
}
