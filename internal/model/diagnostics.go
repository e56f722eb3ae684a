package model

import (
	"math"
	"time"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
)

// Obs returns the dates of the fitted observations.
func (f *Fit) Obs() []time.Time { return f.Dates }

// Actual returns the response aligned with Fitted and Resid.
func (f *Fit) Actual() []float64 { return f.Y[f.Skip:] }

// Residuals returns actual minus model, or that difference as a percentage
// of actual. Percentages at a zero actual are NaN.
func (f *Fit) Residuals(percent bool) []float64 {
	out := append([]float64(nil), f.Resid...)
	if !percent {
		return out
	}
	actual := f.Actual()
	for i := range out {
		if actual[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = out[i] / actual[i] * 100
	}
	return out
}

// Contributions decomposes the fitted values by regressor.
type Contributions struct {
	Dates  []time.Time
	Actual []float64
	Names  []string
	// Values[k][i] is regressor k's contribution at observation i.
	Values [][]float64
}

// Total returns the summed contribution of regressor k.
func (c *Contributions) Total(k int) float64 {
	var s float64
	for _, v := range c.Values[k] {
		s += v
	}
	return s
}

// Contributions multiplies each design column by its coefficient.
// Lagged systems have no static decomposition and are rejected.
func (f *Fit) Contributions() (*Contributions, error) {
	if f.Estimator == stats.VAR {
		return nil, errdefs.InvalidState("contributions", "not defined for a var fit")
	}
	n, k := f.Design.Dims()
	out := &Contributions{
		Dates:  f.Dates,
		Actual: f.Actual(),
		Names:  append([]string(nil), f.Columns...),
		Values: make([][]float64, k),
	}
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = f.Design.Data.At(i, j) * f.Params[j]
		}
		out.Values[j] = col
	}
	return out, nil
}
