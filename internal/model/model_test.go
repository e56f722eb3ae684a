package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
)

func weeks(n int) []time.Time {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, 7*i)
	}
	return out
}

// mediaData is twelve weeks of sales driven by tv and radio, plus a price
// column, a flat column and a categorical region.
func mediaData(t *testing.T) *dataset.Dataset {
	t.Helper()
	tv := []float64{1, 3, 2, 5, 4, 6, 8, 7, 9, 10, 12, 11}
	radio := []float64{2, 1, 4, 3, 6, 5, 2, 8, 7, 4, 3, 9}
	price := []float64{10, 10, 11, 9, 10, 12, 11, 10, 9, 11, 10, 12}
	noise := []float64{0.3, -0.2, 0.1, -0.4, 0.2, 0, -0.1, 0.3, -0.3, 0.2, -0.1, 0.1}
	sales := make([]float64, len(tv))
	flat := make([]float64, len(tv))
	region := make([]string, len(tv))
	for i := range tv {
		sales[i] = 10 + 2*tv[i] + 0.5*radio[i] + noise[i]
		flat[i] = 4
		region[i] = []string{"north", "south"}[i%2]
	}
	ds, err := dataset.New(weeks(len(tv)))
	require.NoError(t, err)
	for _, c := range []*dataset.Column{
		dataset.NewNumeric("sales", sales),
		dataset.NewNumeric("tv", tv),
		dataset.NewNumeric("radio", radio),
		dataset.NewNumeric("price", price),
		dataset.NewNumeric("flat", flat),
		dataset.NewCategorical("region", region),
	} {
		require.NoError(t, ds.AddColumn(c))
	}
	return ds
}
