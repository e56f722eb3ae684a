// Package stats fits linear models on gonum matrices: ordinary least
// squares, a Huber robust linear model solved by iteratively reweighted
// least squares, and the response equation of a vector autoregression.
package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// Estimator names accepted by New.
const (
	OLS = "ols"
	RLM = "rlm"
	VAR = "var"
)

// ConstName labels the intercept column.
const ConstName = "const"

// Design is a named regressor matrix. Rows are observations.
type Design struct {
	// Response names the dependent variable; used for labels only.
	Response string
	Columns  []string
	Data     *mat.Dense
}

// NewDesign builds a design from column-major values.
func NewDesign(response string, columns []string, values [][]float64) (*Design, error) {
	if len(columns) != len(values) {
		return nil, errdefs.InvalidState("design", "%d names for %d columns", len(columns), len(values))
	}
	if len(values) == 0 {
		return nil, errdefs.InvalidState("design", "no regressors specified")
	}
	n := len(values[0])
	if n == 0 {
		return nil, errdefs.InvalidState("design", "no observations")
	}
	data := mat.NewDense(n, len(values), nil)
	for j, col := range values {
		if len(col) != n {
			return nil, errdefs.InvalidState("design", "column %s has %d rows, want %d", columns[j], len(col), n)
		}
		for i, v := range col {
			data.Set(i, j, v)
		}
	}
	return &Design{Response: response, Columns: append([]string(nil), columns...), Data: data}, nil
}

// Dims returns observations and columns.
func (d *Design) Dims() (n, k int) { return d.Data.Dims() }

// Col copies column j.
func (d *Design) Col(j int) []float64 { return mat.Col(nil, j, d.Data) }

// hasConstant reports whether some column is a non-zero constant.
func (d *Design) hasConstant() bool {
	n, k := d.Dims()
	for j := 0; j < k; j++ {
		v := d.Data.At(0, j)
		if v == 0 {
			continue
		}
		same := true
		for i := 1; i < n; i++ {
			if d.Data.At(i, j) != v {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

// Options tunes the estimators. Zero values fall back to defaults.
type Options struct {
	// HuberT is the Huber norm threshold for RLM.
	HuberT  float64
	MaxIter int
	Tol     float64
	// Lags fixes the VAR order; 0 selects it by information criterion.
	Lags int
	// MaxLags bounds automatic VAR order selection.
	MaxLags int
	// Criterion is "aic" or "bic".
	Criterion string
}

// DefaultOptions returns the values used when a field is zero.
func DefaultOptions() Options {
	return Options{HuberT: 1.345, MaxIter: 50, Tol: 1e-8, MaxLags: 15, Criterion: "aic"}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HuberT <= 0 {
		o.HuberT = d.HuberT
	}
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if o.Tol <= 0 {
		o.Tol = d.Tol
	}
	if o.MaxLags <= 0 {
		o.MaxLags = d.MaxLags
	}
	if o.Criterion == "" {
		o.Criterion = d.Criterion
	}
	return o
}

// Estimator fits a response vector against a design.
type Estimator interface {
	Name() string
	Fit(y []float64, x *Design) (*Result, error)
}

// New returns the estimator registered under name.
func New(name string, opt Options) (Estimator, error) {
	opt = opt.withDefaults()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case OLS:
		return olsEstimator{}, nil
	case RLM:
		return rlmEstimator{opt: opt}, nil
	case VAR:
		if c := strings.ToLower(opt.Criterion); c != "aic" && c != "bic" {
			return nil, fmt.Errorf("var criterion %q: %w", opt.Criterion, errdefs.ErrUnsupportedEstimator)
		}
		return varEstimator{opt: opt}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, errdefs.ErrUnsupportedEstimator)
	}
}

// Result is one fitted model. Slices are aligned with Columns; Resid and
// Fitted are aligned with the observations used, which start Skip rows
// into the design.
type Result struct {
	ID        string
	Estimator string
	Response  string
	Columns   []string

	Params  []float64
	StdErr  []float64
	TValues []float64
	PValues []float64

	RSquared    float64
	AdjRSquared float64
	Resid       []float64
	Fitted      []float64
	NObs        int
	DFResid     float64
	LogLik      float64
	AIC         float64
	BIC         float64

	// Scale is the residual scale (sigma for OLS, robust scale for RLM).
	Scale      float64
	Skip       int
	Iterations int
	Converged  bool
}

func newResult(estimator string, x *Design) *Result {
	return &Result{
		ID:        uuid.NewString(),
		Estimator: estimator,
		Response:  x.Response,
		Columns:   append([]string(nil), x.Columns...),
		Converged: true,
	}
}

// Coefficient is one row of the parameter table.
type Coefficient struct {
	Name   string
	Value  float64
	StdErr float64
	T      float64
	P      float64
}

// Coef looks up a parameter by column name.
func (r *Result) Coef(name string) (Coefficient, bool) {
	for i, c := range r.Columns {
		if c == name {
			return Coefficient{Name: c, Value: r.Params[i], StdErr: r.StdErr[i], T: r.TValues[i], P: r.PValues[i]}, true
		}
	}
	return Coefficient{}, false
}

// Coefficients returns the parameter table in design order.
func (r *Result) Coefficients() []Coefficient {
	out := make([]Coefficient, len(r.Columns))
	for i := range r.Columns {
		out[i] = Coefficient{Name: r.Columns[i], Value: r.Params[i], StdErr: r.StdErr[i], T: r.TValues[i], P: r.PValues[i]}
	}
	return out
}

// goodness fills R², adjusted R² and the Gaussian information criteria.
func (r *Result) goodness(y []float64, hasConst bool) {
	n := float64(len(y))
	k := float64(len(r.Params))
	var rss, tss, mean float64
	for _, v := range y {
		mean += v
	}
	mean /= n
	for i, v := range y {
		rss += r.Resid[i] * r.Resid[i]
		if hasConst {
			tss += (v - mean) * (v - mean)
		} else {
			tss += v * v
		}
	}
	r.RSquared = math.NaN()
	r.AdjRSquared = math.NaN()
	if tss > 0 {
		r.RSquared = 1 - rss/tss
		if r.DFResid > 0 {
			c := 0.0
			if hasConst {
				c = 1
			}
			r.AdjRSquared = 1 - (n-c)/r.DFResid*(1-r.RSquared)
		}
	}
	r.LogLik = -0.5 * n * (1 + math.Log(2*math.Pi*rss/n))
	r.AIC = -2*r.LogLik + 2*k
	r.BIC = -2*r.LogLik + k*math.Log(n)
}
