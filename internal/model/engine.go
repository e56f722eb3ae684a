package model

import (
	"time"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
)

// FitSpec selects the estimator for one fit.
type FitSpec struct {
	Estimator       string
	IncludeConstant bool
	Options         stats.Options
}

// DefaultFitSpec is OLS with a constant.
func DefaultFitSpec() FitSpec {
	return FitSpec{Estimator: stats.OLS, IncludeConstant: true}
}

// Fit is a fitted model together with the data it was fitted on.
type Fit struct {
	*stats.Result
	Spec   FitSpec
	Design *stats.Design
	// Y is the response over the sample rows, before any lag trimming.
	Y []float64
	// Dates holds one timestamp per residual.
	Dates []time.Time

	version uint64
}

// runFit assembles the design and delegates to the estimator.
func runFit(ds *dataset.Dataset, reg *Registry, smp Sample, spec FitSpec) (*Fit, error) {
	est, err := stats.New(spec.Estimator, spec.Options)
	if err != nil {
		return nil, err
	}
	x, y, rows, err := buildDesign(ds, reg, smp, spec.IncludeConstant)
	if err != nil {
		return nil, err
	}
	res, err := est.Fit(y, x)
	if err != nil {
		return nil, err
	}
	index := ds.Index()
	dates := make([]time.Time, 0, len(rows)-res.Skip)
	for _, r := range rows[res.Skip:] {
		dates = append(dates, index[r])
	}
	return &Fit{Result: res, Spec: spec, Design: x, Y: y, Dates: dates, version: reg.Version()}, nil
}
