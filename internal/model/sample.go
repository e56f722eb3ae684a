package model

import (
	"strings"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// VariationMode decides which rows count when testing a column for
// variation.
type VariationMode int

const (
	// VariationFull measures variation over every row of the dataset.
	VariationFull VariationMode = iota
	// VariationSample measures it over the rows where the dependent is present.
	VariationSample
)

func (m VariationMode) String() string {
	if m == VariationSample {
		return "sample"
	}
	return "full"
}

// ParseVariationMode accepts "full" or "sample".
func ParseVariationMode(s string) (VariationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return VariationFull, nil
	case "sample":
		return VariationSample, nil
	default:
		return 0, errdefs.InvalidState("variation_mode", "unknown mode %q (want full or sample)", s)
	}
}

// Sample is the set of rows and columns a fit may use.
type Sample struct {
	RowMask []bool
	Usable  []string
}

// Rows returns the indices of the masked-in rows.
func (s Sample) Rows() []int {
	var out []int
	for i, ok := range s.RowMask {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// IsUsable reports whether name passed the variation filter.
func (s Sample) IsUsable(name string) bool {
	for _, u := range s.Usable {
		if u == name {
			return true
		}
	}
	return false
}

// ComputeSample keeps the rows where dependent is present and the columns
// with variation. An empty dependent keeps every row.
func ComputeSample(ds *dataset.Dataset, dependent string, mode VariationMode) (Sample, error) {
	mask := make([]bool, ds.Len())
	if dependent == "" {
		for i := range mask {
			mask[i] = true
		}
	} else {
		dep, err := ds.Column(dependent)
		if err != nil {
			return Sample{}, err
		}
		for i := range mask {
			mask[i] = !dep.IsMissing(i)
		}
	}
	var within []bool
	if mode == VariationSample {
		within = mask
	}
	s := Sample{RowMask: mask}
	for _, n := range ds.Names() {
		c, _ := ds.Column(n)
		if c.HasVariation(within) {
			s.Usable = append(s.Usable, n)
		}
	}
	return s, nil
}
