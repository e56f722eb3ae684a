package model

import (
	"time"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/render"
)

func (s *Session) chartFit(op string) (*Fit, error) {
	if s.renderer == nil {
		return nil, errdefs.InvalidState(op, "charts are disabled for this session")
	}
	return s.Result()
}

// ChartAVM writes an actual-versus-model chart of the current fit.
func (s *Session) ChartAVM(path string) (string, error) {
	f, err := s.chartFit("chart avm")
	if err != nil {
		return "", err
	}
	return s.renderer.AVM(path, f.Obs(), f.Actual(), f.Fitted)
}

// ChartResiduals writes the residuals of the current fit, optionally as a
// percentage of actual.
func (s *Session) ChartResiduals(path string, percent bool) (string, error) {
	f, err := s.chartFit("chart resid")
	if err != nil {
		return "", err
	}
	return s.renderer.Residuals(path, f.Obs(), f.Residuals(percent), percent)
}

// ChartContributions writes stacked regressor contributions.
func (s *Session) ChartContributions(path string) (string, error) {
	f, err := s.chartFit("chart contrib")
	if err != nil {
		return "", err
	}
	c, err := f.Contributions()
	if err != nil {
		return "", err
	}
	parts := make([]render.Series, len(c.Names))
	for k, n := range c.Names {
		parts[k] = render.Series{Name: n, Values: c.Values[k]}
	}
	return s.renderer.Contributions(path, c.Dates, c.Actual, parts)
}

// ChartVariables plots raw columns over time. withDep adds the dependent
// variable; allRows plots every row instead of the sample rows. No fit is
// needed.
func (s *Session) ChartVariables(path string, names []string, withDep, allRows bool) (string, error) {
	if s.renderer == nil {
		return "", errdefs.InvalidState("chart vars", "charts are disabled for this session")
	}
	if withDep {
		dep := s.reg.Dependent()
		if dep == "" {
			return "", errdefs.InvalidState("chart vars", "no dependent variable set")
		}
		names = append([]string{dep}, names...)
	}
	if len(names) == 0 {
		return "", errdefs.InvalidState("chart vars", "no variables to plot")
	}

	var rows []int
	if allRows {
		rows = make([]int, s.ds.Len())
		for i := range rows {
			rows[i] = i
		}
	} else {
		rows = s.sample.Rows()
	}
	index := s.ds.Index()
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = index[r]
	}

	series := make([]render.Series, 0, len(names))
	for _, n := range names {
		vals, err := s.ds.Numeric(n)
		if err != nil {
			return "", err
		}
		sub := make([]float64, len(rows))
		for i, r := range rows {
			sub[i] = vals[r]
		}
		series = append(series, render.Series{Name: n, Values: sub})
	}
	return s.renderer.Lines(path, "Variables", dates, series...)
}
