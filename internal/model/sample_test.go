package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

func TestComputeSample(t *testing.T) {
	ds, err := dataset.New(weeks(4))
	require.NoError(t, err)
	require.NoError(t, ds.AddColumn(dataset.NewNumeric("sales", []float64{1, 2, math.NaN(), 4})))
	require.NoError(t, ds.AddColumn(dataset.NewNumeric("promo", []float64{0, 0, 1, 0})))
	require.NoError(t, ds.AddColumn(dataset.NewNumeric("flat", []float64{3, 3, 3, 3})))

	full, err := ComputeSample(ds, "sales", VariationFull)
	require.NoError(t, err)
	require.Equal(t, []bool{true, true, false, true}, full.RowMask)
	require.Equal(t, []int{0, 1, 3}, full.Rows())
	require.True(t, full.IsUsable("promo"))
	require.False(t, full.IsUsable("flat"))

	within, err := ComputeSample(ds, "sales", VariationSample)
	require.NoError(t, err)
	require.False(t, within.IsUsable("promo"))
	require.True(t, within.IsUsable("sales"))

	none, err := ComputeSample(ds, "", VariationFull)
	require.NoError(t, err)
	require.Len(t, none.Rows(), 4)

	_, err = ComputeSample(ds, "revenue", VariationFull)
	require.ErrorIs(t, err, errdefs.ErrUnknownColumn)
}

func TestParseVariationMode(t *testing.T) {
	m, err := ParseVariationMode(" Sample ")
	require.NoError(t, err)
	require.Equal(t, VariationSample, m)
	m, err = ParseVariationMode("")
	require.NoError(t, err)
	require.Equal(t, VariationFull, m)
	_, err = ParseVariationMode("rolling")
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}
