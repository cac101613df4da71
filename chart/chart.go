// Package chart renders speedup curves as line charts.
package chart

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/weiihann/scaloor/measure"
)

// ErrRender is returned when a chart cannot be drawn or written.
var ErrRender = errors.New("render chart")

const (
	title  = "Speedup Graph"
	xLabel = "Number of threads"
	yLabel = "Speed Up"
)

// Extensions accepted by Render, keyed without the leading dot.
var formats = []string{"png", "jpg", "jpeg", "tif", "tiff", "svg", "pdf", "eps"}

// FileName returns the chart file name used for strategy.
func FileName(strategy string) string {
	return "speedup-" + strategy + ".png"
}

// Renderer draws one chart per strategy.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a Renderer producing 6.4x4.8 inch charts.
func NewRenderer() *Renderer {
	return &Renderer{Width: 6.4 * vg.Inch, Height: 4.8 * vg.Inch}
}

// Render draws one dashed, marked line per series and writes the chart to
// path, replacing any existing file. The x axis is categorical: thread counts
// are placed in the order of the first series' points. The image format
// follows the path extension.
func (r *Renderer) Render(
	strategy string,
	series []measure.Series,
	path string,
) error {
	p, err := r.build(series)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrRender, strategy, err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !slices.Contains(formats, ext) {
		return fmt.Errorf("%w %s: unsupported image format %q",
			ErrRender, strategy, ext)
	}

	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("%w %s: %w", ErrRender, strategy, err)
	}

	return nil
}

func (r *Renderer) build(series []measure.Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no series")
	}

	threads := series[0].Threads()
	if len(threads) == 0 {
		return nil, fmt.Errorf("series %s has no points", series[0].Size)
	}

	for _, s := range series[1:] {
		if !slices.Equal(s.Threads(), threads) {
			return nil, fmt.Errorf(
				"series %s has thread counts %v, want %v",
				s.Size, s.Threads(), threads,
			)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	ticks := make([]plot.Tick, len(threads))
	for i, n := range threads {
		ticks[i] = plot.Tick{Value: float64(i), Label: strconv.Itoa(n)}
	}

	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Min = -0.5
	p.X.Max = float64(len(threads)) - 0.5
	p.Y.Min = 0

	for i, s := range series {
		pts := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			pts[j].X = float64(j)
			pts[j].Y = pt.Speedup
		}

		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.Size, err)
		}

		line.Color = plotutil.Color(i)
		line.Width = vg.Points(3)
		line.Dashes = []vg.Length{vg.Points(8), vg.Points(4)}

		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		points.Radius = vg.Points(4.5)

		p.Add(line, points)
		p.Legend.Add(s.Size, line, points)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	return p, nil
}
