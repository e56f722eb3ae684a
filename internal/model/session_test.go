package model

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/render"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
	"github.com/KaramelBytes/epsilon-cli/internal/transform"
)

func TestFitUsesRowsWhereDependentIsPresent(t *testing.T) {
	ds, err := dataset.New(weeks(3))
	require.NoError(t, err)
	require.NoError(t, ds.AddColumn(dataset.NewNumeric("sales", []float64{5, 7, math.NaN()})))
	require.NoError(t, ds.AddColumn(dataset.NewNumeric("spend", []float64{1, 2, 3})))

	s := NewSession(ds)
	_, err = s.SetDependent("sales")
	require.NoError(t, err)
	require.Equal(t, []bool{true, true, false}, s.Sample().RowMask)

	_, err = s.Add("spend")
	require.NoError(t, err)
	summary, err := s.Fit(DefaultFitSpec())
	require.NoError(t, err)
	require.Contains(t, summary, "OLS Regression Results")

	f, err := s.Result()
	require.NoError(t, err)
	require.Equal(t, 2, f.NObs)
	require.Equal(t, []string{stats.ConstName, "spend"}, f.Columns)
	require.InDeltaSlice(t, []float64{3, 2}, f.Params, 1e-9)
	require.Len(t, f.Obs(), 2)
	require.Equal(t, ds.Index()[1], f.Obs()[1])
}

func TestFitRequiresDependentAndRegressors(t *testing.T) {
	s := NewSession(mediaData(t))
	_, err := s.Fit(DefaultFitSpec())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	_, err = s.SetDependent("sales")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
	require.Contains(t, err.Error(), "no regressors specified")

	_, err = s.Result()
	require.ErrorIs(t, err, errdefs.ErrNoFit)
}

func TestFitRejectsFlatAndCategoricalRegressors(t *testing.T) {
	s := NewSession(mediaData(t))
	_, err := s.SetDependent("sales")
	require.NoError(t, err)

	_, err = s.Add("flat")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
	require.Contains(t, err.Error(), "no variation")

	_, err = s.Remove()
	require.NoError(t, err)
	_, err = s.Add("region")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}

func TestResultGoesStaleWhenModelChanges(t *testing.T) {
	s := NewSession(mediaData(t))
	_, err := s.SetDependent("sales")
	require.NoError(t, err)
	_, err = s.Add("tv")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.NoError(t, err)
	_, err = s.Result()
	require.NoError(t, err)

	// A note-only add changes nothing.
	_, err = s.Add("tv")
	require.NoError(t, err)
	_, err = s.Result()
	require.NoError(t, err)

	_, err = s.Add("radio")
	require.NoError(t, err)
	_, err = s.Result()
	require.ErrorIs(t, err, errdefs.ErrStaleFit)

	_, err = s.Fit(DefaultFitSpec())
	require.NoError(t, err)
	f, err := s.Result()
	require.NoError(t, err)
	require.Equal(t, []string{stats.ConstName, "radio", "tv"}, f.Columns)
	tv, ok := f.Coef("tv")
	require.True(t, ok)
	require.InDelta(t, 2, tv.Value, 0.1)
}

func TestFailedFitKeepsPreviousFit(t *testing.T) {
	s := NewSession(mediaData(t))
	_, err := s.SetDependent("sales")
	require.NoError(t, err)
	_, err = s.Add("tv", "radio")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.NoError(t, err)
	before, err := s.Result()
	require.NoError(t, err)

	_, err = s.Fit(FitSpec{Estimator: "probit", IncludeConstant: true})
	require.ErrorIs(t, err, errdefs.ErrUnsupportedEstimator)
	after, err := s.Result()
	require.NoError(t, err)
	require.Equal(t, before.ID, after.ID)
}

func TestRobustFitThroughSession(t *testing.T) {
	s := NewSession(mediaData(t))
	_, err := s.SetDependent("sales")
	require.NoError(t, err)
	_, err = s.Add("tv", "radio")
	require.NoError(t, err)
	summary, err := s.Fit(FitSpec{Estimator: "RLM", IncludeConstant: true})
	require.NoError(t, err)
	require.Contains(t, summary, "RLM Regression Results")
	f, err := s.Result()
	require.NoError(t, err)
	require.Equal(t, stats.RLM, f.Estimator)
}

func TestContributionsSumToFitted(t *testing.T) {
	s := NewSession(mediaData(t))
	_, err := s.SetDependent("sales")
	require.NoError(t, err)
	_, err = s.Add("tv", "radio")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.NoError(t, err)
	f, err := s.Result()
	require.NoError(t, err)

	c, err := f.Contributions()
	require.NoError(t, err)
	require.Equal(t, f.Columns, c.Names)
	for i := range f.Fitted {
		var sum float64
		for k := range c.Names {
			sum += c.Values[k][i]
		}
		require.InDelta(t, f.Fitted[i], sum, 1e-9)
	}

	resid := f.Residuals(false)
	pct := f.Residuals(true)
	require.InDelta(t, resid[0]/f.Actual()[0]*100, pct[0], 1e-9)
}

func TestTransformAndReset(t *testing.T) {
	s := NewSession(mediaData(t))
	_, err := s.SetDependent("sales")
	require.NoError(t, err)

	out, err := s.Transform(transform.Lag([]string{"tv"}, 1, 0))
	require.NoError(t, err)
	require.Equal(t, []string{"tv_lag1"}, out.Added)
	require.Contains(t, s.Out(), "tv_lag1")
	require.True(t, s.Sample().IsUsable("tv_lag1"))

	_, err = s.Add("tv_lag1")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.NoError(t, err)

	s.Reset()
	require.Empty(t, s.Dependent())
	require.Empty(t, s.In())
	require.False(t, s.Dataset().Has("tv_lag1"))
	_, err = s.Result()
	require.ErrorIs(t, err, errdefs.ErrNoFit)
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(mediaData(t), WithRenderer(render.New(render.Config{Dir: dir})))
	_, err := s.ChartAVM("avm.png")
	require.ErrorIs(t, err, errdefs.ErrNoFit)

	_, err = s.SetDependent("sales")
	require.NoError(t, err)
	_, err = s.Add("tv", "radio")
	require.NoError(t, err)
	_, err = s.Fit(DefaultFitSpec())
	require.NoError(t, err)

	for _, draw := range []func() (string, error){
		func() (string, error) { return s.ChartAVM("avm.png") },
		func() (string, error) { return s.ChartResiduals("resid.png", true) },
		func() (string, error) { return s.ChartContributions("charts/contrib.png") },
		func() (string, error) { return s.ChartVariables("vars.png", []string{"tv"}, true, false) },
	} {
		path, err := draw()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(path, dir), path)
		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Positive(t, info.Size())
	}

	plain := NewSession(mediaData(t))
	_, err = plain.ChartVariables("x.png", []string{"tv"}, false, true)
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}
