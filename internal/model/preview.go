package model

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// PreviewRow is what one candidate looks like when added to the model.
type PreviewRow struct {
	Name        string
	Coefficient float64
	T           float64
	P           float64
	AdjRSquared float64
}

// PreviewTable ranks candidates by descending |t|.
type PreviewTable struct {
	Rows []PreviewRow
	// Notes lists candidates that were skipped and why.
	Notes []string
}

// Preview fits the committed model plus each candidate in turn with OLS and
// a constant. Candidates are evaluated on copies of the registry, so the
// committed specification is untouched; afterwards the committed model is
// refitted once. A candidate that cannot be added or fitted is skipped
// with a note. Rows whose coefficient is exactly zero are dropped.
func (s *Session) Preview(sel Selector) (*PreviewTable, error) {
	candidates, err := sel.resolve(s.reg)
	if err != nil {
		return nil, err
	}
	spec := DefaultFitSpec()
	rows := make([]*PreviewRow, len(candidates))
	notes := make([]string, len(candidates))

	workers := s.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers <= 1 {
		work := s.reg.Clone()
		for i, name := range candidates {
			rows[i], notes[i] = s.evaluate(work, name, spec)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				work := s.reg.Clone()
				for i := range jobs {
					rows[i], notes[i] = s.evaluate(work, candidates[i], spec)
				}
			}()
		}
		for i := range candidates {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	table := &PreviewTable{}
	for i, r := range rows {
		if notes[i] != "" {
			table.Notes = append(table.Notes, notes[i])
			s.log.Debug().Str("candidate", candidates[i]).Msg(notes[i])
		}
		if r == nil || r.Coefficient == 0 {
			continue
		}
		table.Rows = append(table.Rows, *r)
	}
	sort.SliceStable(table.Rows, func(i, j int) bool {
		ti, tj := absT(table.Rows[i].T), absT(table.Rows[j].T)
		if ti != tj {
			return ti > tj
		}
		return table.Rows[i].Name < table.Rows[j].Name
	})

	if s.reg.Dependent() != "" && len(s.reg.In()) > 0 {
		if _, err := s.Fit(s.lastSpec); err != nil {
			s.log.Warn().Err(err).Msg("refit after preview failed; keeping the previous fit")
			table.Notes = append(table.Notes, fmt.Sprintf("refit after preview failed: %v", err))
		}
	}
	return table, nil
}

// evaluate adds name to work, fits, records the candidate's row and takes
// it out again. work is left as it was found.
func (s *Session) evaluate(work *Registry, name string, spec FitSpec) (*PreviewRow, string) {
	added, err := work.Add(name)
	if err != nil {
		return nil, fmt.Sprintf("skipped %s: %v", name, err)
	}
	if len(added) > 0 {
		return nil, fmt.Sprintf("skipped %s: already in the model", name)
	}
	defer func() { _, _ = work.Remove(name) }()

	f, err := runFit(s.ds, work, s.sample, spec)
	if err != nil {
		return nil, fmt.Sprintf("skipped %s: %v", name, err)
	}
	c, ok := f.Coef(name)
	if !ok {
		return nil, fmt.Sprintf("skipped %s: no coefficient in the fit", name)
	}
	return &PreviewRow{Name: name, Coefficient: c.Value, T: c.T, P: c.P, AdjRSquared: f.AdjRSquared}, ""
}

// absT orders NaN statistics after every real one.
func absT(t float64) float64 {
	if math.IsNaN(t) {
		return -1
	}
	return math.Abs(t)
}

// Coefficient looks up a candidate in the table.
func (t *PreviewTable) Coefficient(name string) (PreviewRow, bool) {
	for _, r := range t.Rows {
		if r.Name == name {
			return r, true
		}
	}
	return PreviewRow{}, false
}
