// Package transform derives new columns from existing ones: lags and leads,
// powers, arctangent saturation curves, decay/adstock carryover and
// pairwise products.
//
// Every transform is a Deriver, a pure function from a dataset to the
// columns it would add. Apply appends them, dropping any column whose name
// already exists.
package transform

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// Deriver computes new columns from ds without modifying it.
type Deriver func(ds *dataset.Dataset) ([]*dataset.Column, error)

func formatParam(p float64) string { return strconv.FormatFloat(p, 'g', -1, 64) }

// filledInputs returns each named numeric column with missing cells set to 0.
func filledInputs(ds *dataset.Dataset, op string, names []string) ([][]float64, error) {
	if len(names) == 0 {
		return nil, errdefs.InvalidState(op, "no variables given")
	}
	out := make([][]float64, len(names))
	for i, n := range names {
		c, err := ds.Column(n)
		if err != nil {
			return nil, err
		}
		if c.Kind != dataset.Numeric {
			return nil, errdefs.InvalidState(op, "%s is categorical", n)
		}
		out[i] = c.Filled(0)
	}
	return out, nil
}

// Lag shifts each variable by lag periods (negative for a lead). Vacated
// cells take fill. New names are "<name>_lag<lag>".
func Lag(names []string, lag int, fill float64) Deriver {
	return func(ds *dataset.Dataset) ([]*dataset.Column, error) {
		if lag == 0 {
			return nil, errdefs.InvalidState("lag", "a lag of zero periods is pointless")
		}
		inputs, err := filledInputs(ds, "lag", names)
		if err != nil {
			return nil, err
		}
		out := make([]*dataset.Column, len(names))
		for i, x := range inputs {
			out[i] = dataset.NewNumeric(names[i]+"_lag"+strconv.Itoa(lag), Shift(x, lag, fill))
		}
		return out, nil
	}
}

// Shift moves x by k positions; cells with no source take fill.
func Shift(x []float64, k int, fill float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		j := i - k
		if j < 0 || j >= len(x) {
			out[i] = fill
			continue
		}
		out[i] = x[j]
	}
	return out
}

// Pow raises each variable to p. New names are "<name>**<p>".
func Pow(names []string, p float64) Deriver {
	return func(ds *dataset.Dataset) ([]*dataset.Column, error) {
		inputs, err := filledInputs(ds, "pow", names)
		if err != nil {
			return nil, err
		}
		out := make([]*dataset.Column, len(names))
		for i, x := range inputs {
			vals := make([]float64, len(x))
			for j, v := range x {
				vals[j] = math.Pow(v, p)
			}
			out[i] = dataset.NewNumeric(names[i]+"**"+formatParam(p), vals)
		}
		return out, nil
	}
}

// Atan builds the concave saturation curve atan((x/max x)/a)/(π/2) for
// every alpha. New names are "<name>_atan<a>".
func Atan(names []string, alphas ...float64) Deriver {
	return atanCurve("atan", names, alphas, AtanCurve)
}

// AtanSq builds the s-shaped curve atan((x/max x)/a)²/(π/2).
// New names are "<name>_atansq<a>".
func AtanSq(names []string, alphas ...float64) Deriver {
	return atanCurve("atansq", names, alphas, AtanSqCurve)
}

func atanCurve(op string, names []string, alphas []float64, curve func([]float64, float64) []float64) Deriver {
	return func(ds *dataset.Dataset) ([]*dataset.Column, error) {
		if len(alphas) == 0 {
			return nil, errdefs.InvalidState(op, "no alpha given")
		}
		for _, a := range alphas {
			if a == 0 || math.IsNaN(a) {
				return nil, errdefs.InvalidState(op, "alpha must be non-zero")
			}
		}
		inputs, err := filledInputs(ds, op, names)
		if err != nil {
			return nil, err
		}
		var out []*dataset.Column
		for i, x := range inputs {
			if len(x) == 0 || floats.Max(x) == 0 {
				return nil, errdefs.InvalidState(op, "%s has no positive maximum to scale by", names[i])
			}
			for _, a := range alphas {
				out = append(out, dataset.NewNumeric(names[i]+"_"+op+formatParam(a), curve(x, a)))
			}
		}
		return out, nil
	}
}

// AtanCurve scales x by its maximum and applies atan(x/a)/(π/2).
func AtanCurve(x []float64, a float64) []float64 {
	m := floats.Max(x)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Atan((v/m)/a) / (math.Pi / 2)
	}
	return out
}

// AtanSqCurve is AtanCurve with the arctangent squared before scaling.
func AtanSqCurve(x []float64, a float64) []float64 {
	m := floats.Max(x)
	out := make([]float64, len(x))
	for i, v := range x {
		t := math.Atan((v / m) / a)
		out[i] = t * t / (math.Pi / 2)
	}
	return out
}

// Decay applies d[i] = (1-r)*d[i-1] + x[i] for every rate r.
// New names are "<name>_dec<r>".
func Decay(names []string, rates ...float64) Deriver {
	return carryover("decay", "_dec", names, rates, func(r float64) float64 { return 1 - r })
}

// Adstock applies d[i] = a*d[i-1] + x[i] for every carryover a.
// New names are "<name>_adstock<a>".
func Adstock(names []string, carryovers ...float64) Deriver {
	return carryover("adstock", "_adstock", names, carryovers, func(a float64) float64 { return a })
}

func carryover(op, suffix string, names []string, params []float64, retain func(float64) float64) Deriver {
	return func(ds *dataset.Dataset) ([]*dataset.Column, error) {
		if len(params) == 0 {
			return nil, errdefs.InvalidState(op, "no rate given")
		}
		for _, p := range params {
			if p < 0 || p > 1 || math.IsNaN(p) {
				return nil, errdefs.InvalidState(op, "rate %s outside [0, 1]", formatParam(p))
			}
		}
		inputs, err := filledInputs(ds, op, names)
		if err != nil {
			return nil, err
		}
		var out []*dataset.Column
		for i, x := range inputs {
			for _, p := range params {
				out = append(out, dataset.NewNumeric(names[i]+suffix+formatParam(p), Carryover(x, retain(p))))
			}
		}
		return out, nil
	}
}

// Carryover returns d with d[0] = x[0] and d[i] = retain*d[i-1] + x[i].
func Carryover(x []float64, retain float64) []float64 {
	out := make([]float64, len(x))
	var prev float64
	for i, v := range x {
		if i == 0 {
			prev = v
		} else {
			prev = retain*prev + v
		}
		out[i] = prev
	}
	return out
}

// Mult multiplies exactly two variables. The result is named "a*b" unless
// newName is set. Missing cells stay missing.
func Mult(names []string, newName string) Deriver {
	return func(ds *dataset.Dataset) ([]*dataset.Column, error) {
		if len(names) != 2 {
			return nil, errdefs.InvalidState("mult", "need exactly two variables, got %d", len(names))
		}
		a, err := ds.Numeric(names[0])
		if err != nil {
			return nil, err
		}
		b, err := ds.Numeric(names[1])
		if err != nil {
			return nil, err
		}
		name := newName
		if name == "" {
			name = names[0] + "*" + names[1]
		}
		vals := make([]float64, len(a))
		floats.MulTo(vals, a, b)
		return []*dataset.Column{dataset.NewNumeric(name, vals)}, nil
	}
}
