package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

var errSingular = errors.New("X'X is singular or near-singular; check for collinear regressors")

type olsEstimator struct{}

func (olsEstimator) Name() string { return OLS }

func (olsEstimator) Fit(y []float64, x *Design) (*Result, error) {
	res, err := fitOLS(y, x)
	if err != nil {
		return nil, errdefs.Estimation(OLS, err)
	}
	return res, nil
}

// FitOLS is a convenience wrapper around the OLS estimator.
func FitOLS(y []float64, x *Design) (*Result, error) { return olsEstimator{}.Fit(y, x) }

func fitOLS(y []float64, x *Design) (*Result, error) {
	n, k := x.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("response has %d rows, design has %d", len(y), n)
	}
	if n < k {
		return nil, fmt.Errorf("%d observations cannot identify %d parameters", n, k)
	}
	beta, xtxInv, err := weightedLeastSquares(x.Data, y, nil)
	if err != nil {
		return nil, err
	}
	res := newResult(OLS, x)
	res.Params = beta
	res.NObs = n
	res.DFResid = float64(n - k)
	res.Fitted, res.Resid = predict(x.Data, y, beta)

	var rss float64
	for _, e := range res.Resid {
		rss += e * e
	}
	sigma2 := math.NaN()
	if res.DFResid > 0 {
		sigma2 = rss / res.DFResid
	}
	res.Scale = math.Sqrt(sigma2)
	res.StdErr = make([]float64, k)
	for i := range res.StdErr {
		res.StdErr[i] = math.Sqrt(sigma2 * xtxInv.At(i, i))
	}
	res.TValues, res.PValues = tTest(beta, res.StdErr, res.DFResid)
	res.goodness(y, x.hasConstant())
	return res, nil
}

// weightedLeastSquares solves (X'WX)b = X'Wy. A nil w means unit weights.
// It returns b and (X'WX)^-1.
func weightedLeastSquares(x *mat.Dense, y, w []float64) ([]float64, *mat.Dense, error) {
	n, k := x.Dims()
	xw := mat.DenseCopyOf(x)
	yw := make([]float64, n)
	copy(yw, y)
	if w != nil {
		for i := 0; i < n; i++ {
			sw := math.Sqrt(w[i])
			for j := 0; j < k; j++ {
				xw.Set(i, j, xw.At(i, j)*sw)
			}
			yw[i] *= sw
		}
	}
	var xtx mat.Dense
	xtx.Mul(xw.T(), xw)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return nil, nil, errSingular
	}
	var xty mat.VecDense
	xty.MulVec(xw.T(), mat.NewVecDense(n, yw))
	var beta mat.VecDense
	beta.MulVec(&inv, &xty)
	out := make([]float64, k)
	for i := range out {
		out[i] = beta.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, nil, errSingular
		}
	}
	return out, &inv, nil
}

func predict(x *mat.Dense, y, beta []float64) (fitted, resid []float64) {
	n, _ := x.Dims()
	var yhat mat.VecDense
	yhat.MulVec(x, mat.NewVecDense(len(beta), beta))
	fitted = make([]float64, n)
	resid = make([]float64, n)
	for i := 0; i < n; i++ {
		fitted[i] = yhat.AtVec(i)
		resid[i] = y[i] - fitted[i]
	}
	return fitted, resid
}

// tTest returns two-sided Student t statistics and p values.
// Without residual degrees of freedom both are NaN.
func tTest(beta, se []float64, df float64) (t, p []float64) {
	t = make([]float64, len(beta))
	p = make([]float64, len(beta))
	if !(df > 0) {
		for i := range t {
			t[i], p[i] = math.NaN(), math.NaN()
		}
		return t, p
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	for i := range beta {
		t[i] = beta[i] / se[i]
		p[i] = 2 * dist.Survival(math.Abs(t[i]))
	}
	return t, p
}

// zTest is tTest against the standard normal.
func zTest(beta, se []float64) (z, p []float64) {
	z = make([]float64, len(beta))
	p = make([]float64, len(beta))
	for i := range beta {
		z[i] = beta[i] / se[i]
		p[i] = 2 * distuv.UnitNormal.Survival(math.Abs(z[i]))
	}
	return z, p
}
