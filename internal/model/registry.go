package model

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// Registry partitions the columns of a dataset into the dependent variable,
// the regressors in the model and everything else. The out-set is always
// all columns minus the in-set minus the dependent, and is re-derived
// before every mutation so that derived columns show up as candidates.
type Registry struct {
	ds        *dataset.Dataset
	dependent string
	in        map[string]struct{}
	out       map[string]struct{}
	version   uint64
}

// NewRegistry binds an empty registry to ds.
func NewRegistry(ds *dataset.Dataset) *Registry {
	r := &Registry{ds: ds, in: map[string]struct{}{}, out: map[string]struct{}{}}
	r.Refresh()
	return r
}

// Refresh recomputes the out-set from the dataset's current columns.
func (r *Registry) Refresh() {
	out := make(map[string]struct{}, r.ds.NumColumns())
	for _, n := range r.ds.Names() {
		if _, ok := r.in[n]; ok || n == r.dependent {
			continue
		}
		out[n] = struct{}{}
	}
	r.out = out
}

// Dependent returns the dependent variable, or "" when none is set.
func (r *Registry) Dependent() string { return r.dependent }

// In returns the regressors in sorted order.
func (r *Registry) In() []string { return sortedKeys(r.in) }

// Out returns the candidate variables in sorted order.
func (r *Registry) Out() []string {
	r.Refresh()
	return sortedKeys(r.out)
}

// IsIn reports whether name is a regressor.
func (r *Registry) IsIn(name string) bool {
	_, ok := r.in[name]
	return ok
}

// Version changes whenever the partition changes.
func (r *Registry) Version() uint64 { return r.version }

// Add moves each name from the out-set into the model. Every name is
// validated before anything moves; names already in the model produce a
// note instead of an error.
func (r *Registry) Add(names ...string) ([]string, error) {
	r.Refresh()
	for _, n := range names {
		if !r.ds.Has(n) {
			return nil, errdefs.UnknownColumn(n)
		}
		if n == r.dependent {
			return nil, errdefs.InvalidState("add", "%s is the dependent variable", n)
		}
	}
	var notes []string
	changed := false
	for _, n := range names {
		if _, ok := r.in[n]; ok {
			notes = append(notes, fmt.Sprintf("%s is already in the model", n))
			continue
		}
		delete(r.out, n)
		r.in[n] = struct{}{}
		changed = true
	}
	if changed {
		r.version++
	}
	return notes, nil
}

// Remove moves names back to the out-set; no names means every regressor.
// With an empty model it does nothing, whatever the arguments.
func (r *Registry) Remove(names ...string) ([]string, error) {
	r.Refresh()
	if len(r.in) == 0 {
		return []string{"no variables in the model"}, nil
	}
	if len(names) == 0 {
		names = r.In()
	}
	for _, n := range names {
		if !r.ds.Has(n) {
			return nil, errdefs.UnknownColumn(n)
		}
	}
	var notes []string
	changed := false
	for _, n := range names {
		if _, ok := r.in[n]; !ok {
			notes = append(notes, fmt.Sprintf("%s is not in the model", n))
			continue
		}
		delete(r.in, n)
		r.out[n] = struct{}{}
		changed = true
	}
	if changed {
		r.version++
	}
	return notes, nil
}

// SetDependent makes name the dependent variable. A regressor chosen as the
// dependent leaves the model first; the previous dependent becomes a
// candidate again.
func (r *Registry) SetDependent(name string) ([]string, error) {
	r.Refresh()
	col, err := r.ds.Column(name)
	if err != nil {
		return nil, err
	}
	if r.dependent != "" && name == r.dependent {
		return nil, errdefs.InvalidState("dep", "%s is already the dependent variable", name)
	}
	if col.Kind != dataset.Numeric {
		return nil, errdefs.InvalidState("dep", "%s is categorical and cannot be the dependent variable", name)
	}
	_, inModel := r.in[name]
	_, isOut := r.out[name]
	if !inModel && !isOut {
		return nil, errdefs.InvalidState("dep", "%s cannot become the dependent variable", name)
	}

	var notes []string
	if r.dependent != "" {
		notes = append(notes, fmt.Sprintf("dependent variable was previously %s", r.dependent))
	}
	if inModel {
		delete(r.in, name)
		notes = append(notes, fmt.Sprintf("%s removed from the model to avoid a tautological fit", name))
	}
	r.dependent = name
	r.version++
	r.Refresh()
	return notes, nil
}

// Clone returns an independent registry over the same dataset.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		ds:        r.ds,
		dependent: r.dependent,
		in:        make(map[string]struct{}, len(r.in)),
		out:       make(map[string]struct{}, len(r.out)),
		version:   r.version,
	}
	for k := range r.in {
		c.in[k] = struct{}{}
	}
	for k := range r.out {
		c.out[k] = struct{}{}
	}
	return c
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
