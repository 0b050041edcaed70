package report

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/contactkeval/option-lattice/internal/lattice"
)

// Chart file names written under the report directory.
const (
	BoundaryChartFile = "exercise_boundary.png"
	ValueChartFile    = "option_price_evolution.png"
)

var (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6.67 * vg.Inch
)

// ErrEmptyBoundary is returned when there is no boundary to draw.
var ErrEmptyBoundary = errors.New("exercise boundary is empty")

// PlotExerciseBoundary draws boundary price against time as a line.
func PlotExerciseBoundary(boundary []lattice.BoundaryPoint, title, path string) error {
	if len(boundary) == 0 {
		return ErrEmptyBoundary
	}

	pts := make(plotter.XYs, len(boundary))
	for i, b := range boundary {
		pts[i].X = b.Time
		pts[i].Y = b.Price
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (years)"
	p.Y.Label.Text = "underlying price"
	p.X.Min = 0
	p.Y.Min = 0

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Color = color.RGBA{R: 200, A: 255}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line, plotter.NewGrid())

	return p.Save(chartWidth, chartHeight, path)
}

// PlotValueEvolution scatters every node value of the lattice against the
// time of its step.
func PlotValueEvolution(c lattice.Contract, values [][]float64, title, path string) error {
	var pts plotter.XYs
	for i, row := range values {
		t := c.StepTime(i)
		for _, v := range row {
			pts = append(pts, plotter.XY{X: t, Y: v})
		}
	}
	if len(pts) == 0 {
		return errors.New("value table is empty")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (years)"
	p.Y.Label.Text = "option value"
	p.X.Min = 0
	p.Y.Min = 0

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = color.RGBA{B: 200, A: 255}
	sc.GlyphStyle.Radius = vg.Points(0.6)
	p.Add(sc, plotter.NewGrid())

	return p.Save(chartWidth, chartHeight, path)
}
