// Package model holds the interactive modelling session: which columns are
// in the regression, which is the dependent variable, which rows are usable,
// and the most recent fit.
package model

import (
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/render"
	"github.com/KaramelBytes/epsilon-cli/internal/transform"
)

// Session owns one dataset, its variable registry, the current sample and
// the latest fit. It is not safe for concurrent use.
//
// A fit is tied to the registry version it was produced from. Once the
// model specification changes, Result reports ErrStaleFit until the model
// is refitted; diagnostics and charts refuse stale fits.
type Session struct {
	original *dataset.Dataset
	ds       *dataset.Dataset
	reg      *Registry
	sample   Sample
	fit      *Fit
	lastSpec FitSpec

	log      zerolog.Logger
	renderer *render.Renderer
	mode     VariationMode
	workers  int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger routes advisory notes and preview progress to l.
func WithLogger(l zerolog.Logger) Option { return func(s *Session) { s.log = l } }

// WithRenderer enables the chart methods.
func WithRenderer(r *render.Renderer) Option { return func(s *Session) { s.renderer = r } }

// WithVariationMode chooses where column variation is measured.
func WithVariationMode(m VariationMode) Option { return func(s *Session) { s.mode = m } }

// WithPreviewWorkers evaluates preview candidates on n goroutines.
func WithPreviewWorkers(n int) Option { return func(s *Session) { s.workers = n } }

// WithFitSpec sets the spec used when preview refits the committed model
// before any explicit fit.
func WithFitSpec(spec FitSpec) Option { return func(s *Session) { s.lastSpec = spec } }

// NewSession copies ds and binds an empty registry to the copy.
func NewSession(ds *dataset.Dataset, opts ...Option) *Session {
	s := &Session{
		original: ds.Clone(),
		log:      zerolog.Nop(),
		lastSpec: DefaultFitSpec(),
		workers:  1,
	}
	for _, o := range opts {
		o(s)
	}
	s.rebuild()
	return s
}

func (s *Session) rebuild() {
	s.ds = s.original.Clone()
	s.reg = NewRegistry(s.ds)
	s.sample, _ = ComputeSample(s.ds, "", s.mode)
	s.fit = nil
}

// Dataset returns the working dataset, including derived columns.
func (s *Session) Dataset() *dataset.Dataset { return s.ds }

// Dependent returns the dependent variable or "".
func (s *Session) Dependent() string { return s.reg.Dependent() }

// In returns the regressors, sorted.
func (s *Session) In() []string { return s.reg.In() }

// Out returns the candidate variables, sorted.
func (s *Session) Out() []string { return s.reg.Out() }

// Sample returns the stored sample.
func (s *Session) Sample() Sample { return s.sample }

func (s *Session) note(op string, notes []string) {
	for _, n := range notes {
		s.log.Warn().Str("op", op).Msg(n)
	}
}

// Add puts variables into the model.
func (s *Session) Add(names ...string) ([]string, error) {
	notes, err := s.reg.Add(names...)
	if err != nil {
		return nil, err
	}
	s.note("add", notes)
	return notes, nil
}

// Remove takes variables out of the model; no names removes all of them.
func (s *Session) Remove(names ...string) ([]string, error) {
	notes, err := s.reg.Remove(names...)
	if err != nil {
		return nil, err
	}
	s.note("remove", notes)
	return notes, nil
}

// SetDependent chooses the dependent variable and recomputes the sample.
func (s *Session) SetDependent(name string) ([]string, error) {
	if _, err := s.ds.Column(name); err != nil {
		return nil, err
	}
	smp, err := ComputeSample(s.ds, name, s.mode)
	if err != nil {
		return nil, err
	}
	notes, err := s.reg.SetDependent(name)
	if err != nil {
		return nil, err
	}
	s.sample = smp
	s.note("dep", notes)
	return notes, nil
}

// Fit estimates the current specification and returns its summary.
// On failure the previous fit is kept.
func (s *Session) Fit(spec FitSpec) (string, error) {
	s.reg.Refresh()
	f, err := runFit(s.ds, s.reg, s.sample, spec)
	if err != nil {
		return "", err
	}
	s.fit = f
	s.lastSpec = spec
	s.log.Debug().Str("estimator", f.Estimator).Str("run", f.ID).Int("nobs", f.NObs).Msg("model fitted")
	return f.Summary(), nil
}

// Result returns the latest fit if it still matches the specification.
func (s *Session) Result() (*Fit, error) {
	if s.fit == nil {
		return nil, errdefs.ErrNoFit
	}
	if s.fit.version != s.reg.Version() {
		return nil, errdefs.ErrStaleFit
	}
	return s.fit, nil
}

// Reset drops every derived column, the dependent variable, the model
// specification and the fit.
func (s *Session) Reset() {
	s.rebuild()
	s.log.Debug().Msg("session reset")
}

// Transform derives columns into the working dataset. Colliding names are
// dropped and reported in the outcome. The sample is recomputed so new
// columns can be used as regressors.
func (s *Session) Transform(d transform.Deriver) (transform.Outcome, error) {
	_, out, err := transform.Apply(s.ds, d, transform.Options{InPlace: true, Logger: &s.log})
	if err != nil {
		return transform.Outcome{}, err
	}
	if len(out.Added) > 0 {
		smp, err := ComputeSample(s.ds, s.reg.Dependent(), s.mode)
		if err != nil {
			return out, err
		}
		s.sample = smp
	}
	return out, nil
}
