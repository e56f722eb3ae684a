package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func design(t *testing.T, names []string, cols ...[]float64) *Design {
	t.Helper()
	d, err := NewDesign("sales", names, cols)
	require.NoError(t, err)
	return d
}

func TestOLSExactlyIdentified(t *testing.T) {
	x := design(t, []string{ConstName, "spend"}, ones(2), []float64{1, 2})
	res, err := FitOLS([]float64{5, 7}, x)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{3, 2}, res.Params, 1e-9)
	require.Equal(t, 2, res.NObs)
	require.Zero(t, res.DFResid)
	require.True(t, math.IsNaN(res.TValues[1]))
	require.True(t, math.IsNaN(res.AdjRSquared))
	require.NotEmpty(t, res.ID)
}

func TestOLSMatchesClosedForm(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2.2, 4.1, 6.2, 7.9, 10.1}
	res, err := FitOLS(ys, design(t, []string{ConstName, "x"}, ones(5), xs))
	require.NoError(t, err)

	var mx, my float64
	for i := range xs {
		mx += xs[i] / 5
		my += ys[i] / 5
	}
	var sxx, sxy, syy float64
	for i := range xs {
		sxx += (xs[i] - mx) * (xs[i] - mx)
		sxy += (xs[i] - mx) * (ys[i] - my)
		syy += (ys[i] - my) * (ys[i] - my)
	}
	slope := sxy / sxx
	intercept := my - slope*mx
	require.InDelta(t, slope, res.Params[1], 1e-9)
	require.InDelta(t, intercept, res.Params[0], 1e-9)

	var rss float64
	for i := range xs {
		e := ys[i] - intercept - slope*xs[i]
		rss += e * e
	}
	se := math.Sqrt(rss / 3 / sxx)
	require.InDelta(t, se, res.StdErr[1], 1e-9)
	require.InDelta(t, slope/se, res.TValues[1], 1e-6)
	require.Less(t, res.PValues[1], 0.001)
	require.InDelta(t, 1-rss/syy, res.RSquared, 1e-9)
	require.InDelta(t, 1-(1-res.RSquared)*4/3, res.AdjRSquared, 1e-9)

	c, ok := res.Coef("x")
	require.True(t, ok)
	require.Equal(t, res.Params[1], c.Value)
	_, ok = res.Coef("missing")
	require.False(t, ok)

	sum := res.Summary()
	require.Contains(t, sum, "OLS Regression Results")
	require.Contains(t, sum, "Dep. Variable:")
	require.Contains(t, sum, "const")
}

func TestOLSFailures(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	_, err := FitOLS([]float64{1, 2, 3, 5}, design(t, []string{"a", "b"}, x, x))
	require.ErrorIs(t, err, errdefs.ErrEstimation)

	_, err = FitOLS([]float64{1}, design(t, []string{ConstName, "a"}, ones(1), []float64{2}))
	require.ErrorIs(t, err, errdefs.ErrEstimation)

	_, err = NewDesign("y", []string{"a"}, nil)
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}

func TestNewRejectsUnknownEstimator(t *testing.T) {
	_, err := New("lasso", Options{})
	require.ErrorIs(t, err, errdefs.ErrUnsupportedEstimator)
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	est, err := New(" OLS ", Options{})
	require.NoError(t, err)
	require.Equal(t, OLS, est.Name())

	_, err = New(VAR, Options{Criterion: "hqic"})
	require.ErrorIs(t, err, errdefs.ErrUnsupportedEstimator)
}

func TestRLMDownweightsOutlier(t *testing.T) {
	n := 20
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i + 1)
		ys[i] = 1 + 2*xs[i] + 0.1*math.Sin(float64(i))
	}
	ys[9] += 50
	x := design(t, []string{ConstName, "x"}, ones(n), xs)

	ols, err := FitOLS(ys, x)
	require.NoError(t, err)
	est, err := New(RLM, Options{})
	require.NoError(t, err)
	rlm, err := est.Fit(ys, x)
	require.NoError(t, err)

	require.True(t, rlm.Converged)
	require.Equal(t, RLM, rlm.Estimator)
	require.InDelta(t, 2, rlm.Params[1], 0.05)
	require.Less(t, math.Abs(rlm.Params[1]-2), math.Abs(ols.Params[1]-2)+1e-12)
	require.False(t, math.IsNaN(rlm.StdErr[1]))
	require.Less(t, rlm.PValues[1], 0.001)
	require.Contains(t, rlm.Summary(), "HuberT")
}

func TestVARResponseEquation(t *testing.T) {
	n := 60
	rng := rand.New(rand.NewSource(7))
	tv := make([]float64, n)
	sales := make([]float64, n)
	for i := 0; i < n; i++ {
		tv[i] = 10 + 5*math.Sin(float64(i)/3) + rng.NormFloat64()
		if i == 0 {
			sales[i] = 5
			continue
		}
		sales[i] = 1 + 0.5*sales[i-1] + 0.3*tv[i-1] + 0.01*rng.NormFloat64()
	}
	x := design(t, []string{ConstName, "tv"}, ones(n), tv)

	est, err := New(VAR, Options{Lags: 1})
	require.NoError(t, err)
	res, err := est.Fit(sales, x)
	require.NoError(t, err)
	require.Equal(t, []string{ConstName, "L1.sales", "L1.tv"}, res.Columns)
	require.Equal(t, 1, res.Skip)
	require.Equal(t, n-1, res.NObs)
	require.Len(t, res.Resid, n-1)
	require.InDelta(t, 0.5, res.Params[1], 0.02)
	require.InDelta(t, 0.3, res.Params[2], 0.02)

	auto, err := New(VAR, Options{MaxLags: 4})
	require.NoError(t, err)
	res, err = auto.Fit(sales, x)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.Skip, 1)
	require.LessOrEqual(t, res.Skip, 4)
	require.Len(t, res.Columns, 1+2*res.Skip)

	_, err = est.Fit(sales[:2], design(t, []string{ConstName, "tv"}, ones(2), tv[:2]))
	require.ErrorIs(t, err, errdefs.ErrEstimation)
}
