package charts

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"suryacli/internal/dataset"
)

const facetsPerRow = 6

// monthGroup holds one calendar month of day-of-month points.
type monthGroup struct {
	label  string
	points plotter.XYs
}

// renderMonthly draws the per-month facet grid for one column. With daily
// set, each day collapses to its mean before plotting.
func (r *Renderer) renderMonthly(f *dataset.Frame, col string, idx int, daily bool, path string) error {
	vals, ok := f.Column(col)
	if !ok {
		return fmt.Errorf("column %s not found", col)
	}
	groups := r.monthGroups(f, vals, daily)
	if len(groups) == 0 {
		return fmt.Errorf("column %s has no values to plot", col)
	}

	rows := (len(groups) + facetsPerRow - 1) / facetsPerRow
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, facetsPerRow)
	}
	for k, g := range groups {
		p := facetPlot(g.label)
		if len(g.points) > 0 {
			line, err := plotter.NewLine(g.points)
			if err != nil {
				return fmt.Errorf("failed to build facet line: %w", err)
			}
			line.LineStyle.Width = vg.Points(1)
			line.LineStyle.Color = tabColor(idx)
			p.Add(line)
		} else {
			// Months inside the span with no data keep an empty facet.
			p.Y.Min, p.Y.Max = 0, 1
		}
		plots[k/facetsPerRow][k%facetsPerRow] = p
	}

	title := fmt.Sprintf("%s - Monthly Plots %s to %s",
		col, groups[0].label, groups[len(groups)-1].label)
	return writeFacetGrid(path, title, plots, 3.5*vg.Inch, 2.2*vg.Inch)
}

// monthGroups buckets values into consecutive calendar months spanning the
// frame, keyed on the local clock. Missing values are dropped.
func (r *Renderer) monthGroups(f *dataset.Frame, vals []float64, daily bool) []monthGroup {
	n := f.Len()
	if n == 0 {
		return nil
	}
	firstLocal := f.Time(0).In(r.loc)
	lastLocal := f.Time(n - 1).In(r.loc)
	first := time.Date(firstLocal.Year(), firstLocal.Month(), 1, 0, 0, 0, 0, r.loc)
	last := time.Date(lastLocal.Year(), lastLocal.Month(), 1, 0, 0, 0, 0, r.loc)

	var groups []monthGroup
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		groups = append(groups, monthGroup{label: m.Format("2006-01")})
	}
	monthIndex := func(t time.Time) int {
		return (t.Year()-first.Year())*12 + int(t.Month()) - int(first.Month())
	}

	type dayAcc struct {
		sum float64
		n   int
	}
	var dayAccs []map[int]*dayAcc
	if daily {
		dayAccs = make([]map[int]*dayAcc, len(groups))
		for i := range dayAccs {
			dayAccs[i] = make(map[int]*dayAcc)
		}
	}

	for i := 0; i < n; i++ {
		v := vals[i]
		if math.IsNaN(v) {
			continue
		}
		local := f.Time(i).In(r.loc)
		g := monthIndex(local)
		if g < 0 || g >= len(groups) {
			continue
		}
		if daily {
			acc := dayAccs[g][local.Day()]
			if acc == nil {
				acc = &dayAcc{}
				dayAccs[g][local.Day()] = acc
			}
			acc.sum += v
			acc.n++
		} else {
			groups[g].points = append(groups[g].points,
				plotter.XY{X: float64(local.Day()), Y: v})
		}
	}

	if daily {
		for g, accs := range dayAccs {
			days := make([]int, 0, len(accs))
			for d := range accs {
				days = append(days, d)
			}
			sort.Ints(days)
			for _, d := range days {
				acc := accs[d]
				groups[g].points = append(groups[g].points,
					plotter.XY{X: float64(d), Y: acc.sum / float64(acc.n)})
			}
		}
	}
	return groups
}

// facetPlot builds one month facet with the shared day-of-month axis.
func facetPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(9)
	p.X.Min, p.X.Max = 1, 31
	ticks := make([]plot.Tick, 0, 7)
	for d := 1; d <= 31; d += 5 {
		ticks = append(ticks, plot.Tick{Value: float64(d), Label: strconv.Itoa(d)})
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Font.Size = vg.Points(7)
	p.Y.Tick.Label.Font.Size = vg.Points(7)
	return p
}

// writeFacetGrid lays the plots out on a tiled canvas and writes a PNG.
// An empty title skips the banner row.
func writeFacetGrid(path, title string, plots [][]*plot.Plot, facetW, facetH vg.Length) error {
	rows := len(plots)
	if rows == 0 {
		return fmt.Errorf("no facets to draw")
	}
	cols := len(plots[0])

	var titlePad vg.Length
	if title != "" {
		titlePad = 0.45 * vg.Inch
	}
	width := facetW * vg.Length(cols)
	height := facetH*vg.Length(rows) + titlePad

	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseBackgroundColor(color.White))
	dc := draw.New(img)

	if title != "" {
		sty := draw.TextStyle{
			Color:   color.Black,
			Font:    font.From(plot.DefaultFont, vg.Points(14)),
			XAlign:  text.XCenter,
			YAlign:  text.YTop,
			Handler: plot.DefaultTextHandler,
		}
		dc.FillText(sty, vg.Point{X: width / 2, Y: height - 0.08*vg.Inch}, title)
	}

	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 2,
		PadY:      vg.Millimeter * 2,
		PadTop:    titlePad,
		PadBottom: vg.Millimeter,
		PadLeft:   vg.Millimeter,
		PadRight:  vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return w.Close()
}
