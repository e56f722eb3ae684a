package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// rlmEstimator is a Huber M-estimator. Scale is the MAD of the residuals
// about zero, re-estimated every iteration; the covariance is Huber's H1.
type rlmEstimator struct {
	opt Options
}

func (rlmEstimator) Name() string { return RLM }

func (e rlmEstimator) Fit(y []float64, x *Design) (*Result, error) {
	res, err := e.fit(y, x)
	if err != nil {
		return nil, errdefs.Estimation(RLM, err)
	}
	return res, nil
}

// madNormal scales the MAD to a standard deviation under normality.
var madNormal = distuv.UnitNormal.Quantile(0.75)

func madScale(resid []float64) float64 {
	abs := make([]float64, len(resid))
	for i, r := range resid {
		abs[i] = math.Abs(r)
	}
	sort.Float64s(abs)
	n := len(abs)
	if n == 0 {
		return 0
	}
	med := abs[n/2]
	if n%2 == 0 {
		med = (abs[n/2-1] + abs[n/2]) / 2
	}
	return med / madNormal
}

func (e rlmEstimator) huberWeight(z float64) float64 {
	if a := math.Abs(z); a > e.opt.HuberT {
		return e.opt.HuberT / a
	}
	return 1
}

func (e rlmEstimator) huberPsi(z float64) float64 {
	return math.Max(-e.opt.HuberT, math.Min(e.opt.HuberT, z))
}

func (e rlmEstimator) huberPsiDeriv(z float64) float64 {
	if math.Abs(z) <= e.opt.HuberT {
		return 1
	}
	return 0
}

func (e rlmEstimator) fit(y []float64, x *Design) (*Result, error) {
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
	_, resid := predict(x.Data, y, beta)
	scale := madScale(resid)

	res := newResult(RLM, x)
	res.Converged = false
	w := make([]float64, n)
	prevDev := math.Inf(1)
	for it := 1; it <= e.opt.MaxIter; it++ {
		res.Iterations = it
		if scale == 0 {
			// a perfect fit on more than half the rows leaves nothing to reweight
			res.Converged = true
			break
		}
		for i, r := range resid {
			w[i] = e.huberWeight(r / scale)
		}
		beta, _, err = weightedLeastSquares(x.Data, y, w)
		if err != nil {
			return nil, err
		}
		_, resid = predict(x.Data, y, beta)
		scale = madScale(resid)
		dev := 0.0
		if scale > 0 {
			for _, r := range resid {
				z := r / scale
				if a := math.Abs(z); a <= e.opt.HuberT {
					dev += 0.5 * z * z
				} else {
					dev += e.opt.HuberT*a - 0.5*e.opt.HuberT*e.opt.HuberT
				}
			}
		}
		if math.Abs(dev-prevDev) <= e.opt.Tol {
			res.Converged = true
			break
		}
		prevDev = dev
	}
	if !res.Converged {
		return nil, fmt.Errorf("no convergence after %d iterations", e.opt.MaxIter)
	}

	res.Params = beta
	res.NObs = n
	res.DFResid = float64(n - k)
	res.Scale = scale
	res.Fitted, res.Resid = predict(x.Data, y, beta)
	res.StdErr = e.h1StdErr(res.Resid, scale, xtxInv, float64(k))
	res.TValues, res.PValues = zTest(beta, res.StdErr)
	res.goodness(y, x.hasConstant())
	return res, nil
}

// h1StdErr applies Huber's H1 correction to (X'X)^-1.
func (e rlmEstimator) h1StdErr(resid []float64, scale float64, xtxInv mat.Matrix, p float64) []float64 {
	se := make([]float64, int(p))
	n := float64(len(resid))
	df := n - p
	if scale == 0 || df <= 0 {
		for i := range se {
			se[i] = math.NaN()
		}
		return se
	}
	deriv := make([]float64, len(resid))
	var ssPsi float64
	for i, r := range resid {
		z := r / scale
		deriv[i] = e.huberPsiDeriv(z)
		psi := e.huberPsi(z)
		ssPsi += psi * psi
	}
	m := stat.Mean(deriv, nil)
	varDeriv := stat.PopVariance(deriv, nil)
	if m == 0 {
		for i := range se {
			se[i] = math.NaN()
		}
		return se
	}
	kk := 1 + p/n*varDeriv/(m*m)
	factor := kk * kk * (ssPsi / df * scale * scale) / (m * m)
	for i := range se {
		se[i] = math.Sqrt(factor * xtxInv.At(i, i))
	}
	return se
}
