// Package render draws model diagnostics with gonum/plot. The output format
// follows the file extension (.png, .svg, .pdf).
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Config sizes the charts and sets where relative paths land.
type Config struct {
	Width  vg.Length
	Height vg.Length
	Dir    string
}

// DefaultConfig is a 24x12 cm chart written to the working directory.
func DefaultConfig() Config {
	return Config{Width: 24 * vg.Centimeter, Height: 12 * vg.Centimeter}
}

// Renderer writes chart files. Construct one per session.
type Renderer struct {
	cfg Config
}

// New returns a Renderer; zero sizes take the defaults.
func New(cfg Config) *Renderer {
	d := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = d.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = d.Height
	}
	return &Renderer{cfg: cfg}
}

// Series is a named sequence aligned with a date axis.
type Series struct {
	Name   string
	Values []float64
}

var errNoPath = errors.New("chart path is empty")

func (r *Renderer) resolve(path string) (string, error) {
	if path == "" {
		return "", errNoPath
	}
	if !filepath.IsAbs(path) && r.cfg.Dir != "" {
		path = filepath.Join(r.cfg.Dir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	return path, nil
}

func (r *Renderer) save(p *plot.Plot, path string) (string, error) {
	out, err := r.resolve(path)
	if err != nil {
		return "", err
	}
	if err := p.Save(r.cfg.Width, r.cfg.Height, out); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}
	return out, nil
}

func timePlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// xys pairs dates with values, skipping missing points.
func xys(dates []time.Time, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		if i >= len(dates) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(dates[i].Unix()), Y: v})
	}
	return pts
}

// Lines draws one line per series and returns the written path.
func (r *Renderer) Lines(path, title string, dates []time.Time, series ...Series) (string, error) {
	if len(series) == 0 {
		return "", errors.New("no series to plot")
	}
	p := timePlot(title)
	for i, s := range series {
		pts := xys(dates, s.Values)
		if len(pts) == 0 {
			return "", fmt.Errorf("series %s has no values", s.Name)
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("line %s: %w", s.Name, err)
		}
		l.Color = plotutil.Color(i)
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(s.Name, l)
	}
	return r.save(p, path)
}

// AVM draws actual against model.
func (r *Renderer) AVM(path string, dates []time.Time, actual, model []float64) (string, error) {
	return r.Lines(path, "Actual vs Model", dates, Series{Name: "Actual", Values: actual}, Series{Name: "Model", Values: model})
}

// Residuals draws residuals around a zero line.
func (r *Renderer) Residuals(path string, dates []time.Time, resid []float64, percent bool) (string, error) {
	title, name := "Residuals", "Residual"
	if percent {
		title, name = "Residuals (% of actual)", "Residual %"
	}
	p := timePlot(title)
	pts := xys(dates, resid)
	if len(pts) == 0 {
		return "", errors.New("no residuals to plot")
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("residual line: %w", err)
	}
	l.Color = plotutil.Color(0)
	p.Add(l)
	p.Legend.Add(name, l)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Gray{Y: 96}
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(zero)
	return r.save(p, path)
}

// Contributions stacks each part as bars, positive parts upwards and
// negative parts downwards, with the actual series drawn on top.
func (r *Renderer) Contributions(path string, dates []time.Time, actual []float64, parts []Series) (string, error) {
	if len(parts) == 0 || len(dates) == 0 {
		return "", errors.New("no contributions to plot")
	}
	n := len(dates)
	p := plot.New()
	p.Title.Text = "Contributions"
	p.Legend.Top = true
	p.X.Tick.Marker = dateTicks(dates)

	width := r.cfg.Width * 0.8 / vg.Length(n)
	var lastPos, lastNeg *plotter.BarChart
	for i, s := range parts {
		pos := make(plotter.Values, n)
		neg := make(plotter.Values, n)
		for j := 0; j < n && j < len(s.Values); j++ {
			v := s.Values[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v >= 0 {
				pos[j] = v
			} else {
				neg[j] = v
			}
		}
		c := plotutil.Color(i)
		up, err := plotter.NewBarChart(pos, width)
		if err != nil {
			return "", fmt.Errorf("bars %s: %w", s.Name, err)
		}
		down, err := plotter.NewBarChart(neg, width)
		if err != nil {
			return "", fmt.Errorf("bars %s: %w", s.Name, err)
		}
		for _, b := range []*plotter.BarChart{up, down} {
			b.Color = c
			b.LineStyle.Width = 0
		}
		if lastPos != nil {
			up.StackOn(lastPos)
			down.StackOn(lastNeg)
		}
		lastPos, lastNeg = up, down
		p.Add(up, down)
		p.Legend.Add(s.Name, up)
	}

	line := make(plotter.XYs, 0, n)
	for j, v := range actual {
		if j < n && !math.IsNaN(v) {
			line = append(line, plotter.XY{X: float64(j), Y: v})
		}
	}
	if len(line) > 0 {
		l, err := plotter.NewLine(line)
		if err != nil {
			return "", fmt.Errorf("actual line: %w", err)
		}
		l.Color = color.Black
		l.LineStyle.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add("Actual", l)
	}
	return r.save(p, path)
}

// dateTicks labels bar positions with roughly eight evenly spaced dates.
func dateTicks(dates []time.Time) plot.ConstantTicks {
	step := len(dates) / 8
	if step < 1 {
		step = 1
	}
	var ticks []plot.Tick
	for i := 0; i < len(dates); i++ {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 {
			t.Label = dates[i].Format("2006-01-02")
		}
		ticks = append(ticks, t)
	}
	return plot.ConstantTicks(ticks)
}
