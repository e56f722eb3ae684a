package stats

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// varEstimator treats the response and every non-constant design column as
// one endogenous system and fits the response equation of a VAR(p) by OLS.
// The first p rows only serve as lags.
type varEstimator struct {
	opt Options
}

func (varEstimator) Name() string { return VAR }

func (e varEstimator) Fit(y []float64, x *Design) (*Result, error) {
	res, err := e.fit(y, x)
	if err != nil {
		return nil, errdefs.Estimation(VAR, err)
	}
	return res, nil
}

type varSystem struct {
	names    []string
	series   [][]float64
	constant bool
}

func newVARSystem(y []float64, x *Design) varSystem {
	resp := x.Response
	if resp == "" {
		resp = "y"
	}
	sys := varSystem{names: []string{resp}, series: [][]float64{y}}
	_, k := x.Dims()
	for j := 0; j < k; j++ {
		col := x.Col(j)
		if isConstant(col) {
			sys.constant = true
			continue
		}
		sys.names = append(sys.names, x.Columns[j])
		sys.series = append(sys.series, col)
	}
	return sys
}

func isConstant(v []float64) bool {
	if len(v) == 0 || v[0] == 0 {
		return false
	}
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// params is the number of coefficients of one equation at lag order p.
func (s varSystem) params(p int) int {
	k := p * len(s.series)
	if s.constant {
		k++
	}
	return k
}

// lagged builds the response and regressors for rows start..n-1 at order p.
func (s varSystem) lagged(p, start int) (*Design, []float64) {
	n := len(s.series[0])
	rows := n - start
	var cols []string
	var vals [][]float64
	if s.constant {
		cols = append(cols, ConstName)
		ones := make([]float64, rows)
		for i := range ones {
			ones[i] = 1
		}
		vals = append(vals, ones)
	}
	for l := 1; l <= p; l++ {
		for v, name := range s.names {
			col := make([]float64, rows)
			for i := range col {
				col[i] = s.series[v][start+i-l]
			}
			cols = append(cols, fmt.Sprintf("L%d.%s", l, name))
			vals = append(vals, col)
		}
	}
	data := mat.NewDense(rows, len(vals), nil)
	for j, col := range vals {
		data.SetCol(j, col)
	}
	y := append([]float64(nil), s.series[0][start:]...)
	return &Design{Response: s.names[0], Columns: cols, Data: data}, y
}

// maxOrder is the largest p leaving at least one residual degree of freedom.
func (s varSystem) maxOrder(limit int) int {
	n := len(s.series[0])
	best := 0
	for p := 1; p <= limit; p++ {
		if n-p-s.params(p) < 1 {
			break
		}
		best = p
	}
	return best
}

func (e varEstimator) selectOrder(s varSystem) (int, error) {
	top := s.maxOrder(e.opt.MaxLags)
	if top == 0 {
		return 0, fmt.Errorf("too few observations for a VAR(1) with %d variables", len(s.series))
	}
	best, bestIC := 0, math.Inf(1)
	for p := 1; p <= top; p++ {
		// every order is scored on the same rows
		x, y := s.lagged(p, top)
		r, err := fitOLS(y, x)
		if err != nil {
			continue
		}
		ic := r.AIC
		if strings.EqualFold(e.opt.Criterion, "bic") {
			ic = r.BIC
		}
		if ic < bestIC {
			best, bestIC = p, ic
		}
	}
	if best == 0 {
		return 0, errSingular
	}
	return best, nil
}

func (e varEstimator) fit(y []float64, x *Design) (*Result, error) {
	n, _ := x.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("response has %d rows, design has %d", len(y), n)
	}
	sys := newVARSystem(y, x)
	p := e.opt.Lags
	if p <= 0 {
		var err error
		if p, err = e.selectOrder(sys); err != nil {
			return nil, err
		}
	} else if n-p-sys.params(p) < 0 {
		return nil, fmt.Errorf("%d observations cannot support %d lags of %d variables", n, p, len(sys.series))
	}
	lx, ly := sys.lagged(p, p)
	res, err := fitOLS(ly, lx)
	if err != nil {
		return nil, err
	}
	res.Estimator = VAR
	res.Skip = p
	return res, nil
}
