package transform

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

func fixture(t *testing.T, cols map[string][]float64, order ...string) *dataset.Dataset {
	t.Helper()
	n := len(cols[order[0]])
	idx := make([]time.Time, n)
	for i := range idx {
		idx[i] = time.Date(2024, 1, 1+7*i, 0, 0, 0, 0, time.UTC)
	}
	ds, err := dataset.New(idx)
	require.NoError(t, err)
	for _, name := range order {
		require.NoError(t, ds.AddColumn(dataset.NewNumeric(name, cols[name])))
	}
	return ds
}

func numeric(t *testing.T, ds *dataset.Dataset, name string) []float64 {
	t.Helper()
	v, err := ds.Numeric(name)
	require.NoError(t, err)
	return v
}

func TestLag(t *testing.T) {
	ds := fixture(t, map[string][]float64{"tv": {1, 2, 3, 4}}, "tv")

	_, _, err := Apply(ds, Lag([]string{"tv"}, 0, 0), Options{})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	out, res, err := Apply(ds, Lag([]string{"tv"}, 1, -1), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"tv_lag1"}, res.Added)
	require.Equal(t, []float64{-1, 1, 2, 3}, numeric(t, out, "tv_lag1"))
	require.False(t, ds.Has("tv_lag1"), "copy mode leaves the input alone")

	out, _, err = Apply(ds, Lag([]string{"tv"}, -1, 9), Options{InPlace: true})
	require.NoError(t, err)
	require.Same(t, ds, out)
	require.Equal(t, []float64{2, 3, 4, 9}, numeric(t, ds, "tv_lag-1"))
}

func TestLagFillsMissingInputWithZero(t *testing.T) {
	ds := fixture(t, map[string][]float64{"tv": {1, math.NaN(), 3}}, "tv")
	out, _, err := Apply(ds, Lag([]string{"tv"}, 1, 0), Options{})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 0}, numeric(t, out, "tv_lag1"))
	require.Equal(t, []float64{7, 7}, Shift([]float64{1, 2}, 5, 7))
}

func TestMult(t *testing.T) {
	ds := fixture(t, map[string][]float64{"a": {1, 2, 3}, "b": {4, 5, 6}}, "a", "b")
	out, _, err := Apply(ds, Mult([]string{"a", "b"}, ""), Options{})
	require.NoError(t, err)
	require.Equal(t, []float64{4, 10, 18}, numeric(t, out, "a*b"))

	out, _, err = Apply(ds, Mult([]string{"a", "b"}, "ab"), Options{})
	require.NoError(t, err)
	require.True(t, out.Has("ab"))

	_, _, err = Apply(ds, Mult([]string{"a"}, ""), Options{})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
	_, _, err = Apply(ds, Mult([]string{"a", "b", "a"}, ""), Options{})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
	_, _, err = Apply(ds, Mult([]string{"a", "zz"}, ""), Options{})
	require.ErrorIs(t, err, errdefs.ErrUnknownColumn)
}

func TestDecayAndAdstock(t *testing.T) {
	ds := fixture(t, map[string][]float64{"tv": {10, 0, 0}}, "tv")
	out, res, err := Apply(ds, Decay([]string{"tv"}, 0.9), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"tv_dec0.9"}, res.Added)
	got := numeric(t, out, "tv_dec0.9")
	require.InDeltaSlice(t, []float64{10, 1.0, 0.1}, got, 1e-12)

	out, _, err = Apply(ds, Adstock([]string{"tv"}, 0.5, 0.25), Options{})
	require.NoError(t, err)
	require.Equal(t, []float64{10, 5, 2.5}, numeric(t, out, "tv_adstock0.5"))
	require.Equal(t, []float64{10, 2.5, 0.625}, numeric(t, out, "tv_adstock0.25"))

	_, _, err = Apply(ds, Decay([]string{"tv"}, 1.5), Options{})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}

func TestAtanCurves(t *testing.T) {
	ds := fixture(t, map[string][]float64{"tv": {0, 5, 10}}, "tv")
	out, res, err := Apply(ds, Atan([]string{"tv"}, 1, 0.5), Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"tv_atan1", "tv_atan0.5"}, res.Added)
	got := numeric(t, out, "tv_atan1")
	require.InDelta(t, 0, got[0], 1e-12)
	require.InDelta(t, math.Atan(0.5)/(math.Pi/2), got[1], 1e-12)
	require.InDelta(t, 0.5, got[2], 1e-12)

	out, _, err = Apply(ds, AtanSq([]string{"tv"}, 1), Options{})
	require.NoError(t, err)
	sq := numeric(t, out, "tv_atansq1")
	require.InDelta(t, (math.Pi/4)*(math.Pi/4)/(math.Pi/2), sq[2], 1e-12)

	_, _, err = Apply(ds, Atan([]string{"tv"}, 0), Options{})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	zero := fixture(t, map[string][]float64{"z": {0, 0}}, "z")
	_, _, err = Apply(zero, Atan([]string{"z"}, 1), Options{})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}

func TestPowAndCollisionsAreDropped(t *testing.T) {
	ds := fixture(t, map[string][]float64{"tv": {1, 2, 3}, "tv**2": {0, 0, 0}}, "tv", "tv**2")
	logger := zerolog.Nop()
	out, res, err := Apply(ds, Pow([]string{"tv"}, 2), Options{Logger: &logger})
	require.NoError(t, err)
	require.Empty(t, res.Added)
	require.Equal(t, []string{"tv**2"}, res.Dropped)
	require.Equal(t, []float64{0, 0, 0}, numeric(t, out, "tv**2"))

	out, _, err = Apply(ds, Pow([]string{"tv"}, 0.5), Options{})
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt2, numeric(t, out, "tv**0.5")[1], 1e-12)
}

func TestCategoricalInputRejected(t *testing.T) {
	ds := fixture(t, map[string][]float64{"tv": {1, 2}}, "tv")
	require.NoError(t, ds.AddColumn(dataset.NewCategorical("region", []string{"n", "s"})))
	_, _, err := Apply(ds, Lag([]string{"region"}, 1, 0), Options{})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
	_, _, err = Apply(ds, Lag([]string{"nope"}, 1, 0), Options{})
	require.ErrorIs(t, err, errdefs.ErrUnknownColumn)
}
