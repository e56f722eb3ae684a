package model

import (
	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
)

// buildDesign restricts the dataset to the sample rows, fills missing
// regressor cells with zero and lays out the in-set columns in sorted
// order, optionally behind a constant.
func buildDesign(ds *dataset.Dataset, reg *Registry, smp Sample, includeConst bool) (*stats.Design, []float64, []int, error) {
	dep := reg.Dependent()
	if dep == "" {
		return nil, nil, nil, errdefs.InvalidState("fit", "no dependent variable set")
	}
	names := reg.In()
	if len(names) == 0 {
		return nil, nil, nil, errdefs.InvalidState("fit", "no regressors specified")
	}
	depVals, err := ds.Numeric(dep)
	if err != nil {
		return nil, nil, nil, err
	}
	rows := smp.Rows()
	if len(rows) == 0 {
		return nil, nil, nil, errdefs.InvalidState("fit", "%s has no observations", dep)
	}
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = depVals[r]
	}

	var cols []string
	var vals [][]float64
	if includeConst {
		ones := make([]float64, len(rows))
		for i := range ones {
			ones[i] = 1
		}
		cols = append(cols, stats.ConstName)
		vals = append(vals, ones)
	}
	for _, n := range names {
		c, err := ds.Column(n)
		if err != nil {
			return nil, nil, nil, err
		}
		if c.Kind != dataset.Numeric {
			return nil, nil, nil, errdefs.InvalidState("fit", "%s is categorical", n)
		}
		if !smp.IsUsable(n) {
			return nil, nil, nil, errdefs.InvalidState("fit", "%s has no variation", n)
		}
		if includeConst && n == stats.ConstName {
			return nil, nil, nil, errdefs.InvalidState("fit", "a column named %q clashes with the constant", n)
		}
		filled := c.Filled(0)
		col := make([]float64, len(rows))
		for i, r := range rows {
			col[i] = filled[r]
		}
		cols = append(cols, n)
		vals = append(vals, col)
	}
	x, err := stats.NewDesign(dep, cols, vals)
	if err != nil {
		return nil, nil, nil, err
	}
	return x, y, rows, nil
}
