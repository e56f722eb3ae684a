package model

import (
	"regexp"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

type selectorKind int

const (
	selectAll selectorKind = iota
	selectNames
	selectPattern
)

// Selector picks preview candidates: every out-of-model column, an explicit
// list, or the columns whose names match a pattern at their start.
type Selector struct {
	kind    selectorKind
	names   []string
	pattern string
}

// All selects the current out-set.
func All() Selector { return Selector{kind: selectAll} }

// Name selects a single column.
func Name(n string) Selector { return Selector{kind: selectNames, names: []string{n}} }

// Names selects an explicit list, in the given order.
func Names(ns ...string) Selector {
	return Selector{kind: selectNames, names: append([]string(nil), ns...)}
}

// Pattern selects the columns matching expr, anchored at the start of the name.
func Pattern(expr string) Selector { return Selector{kind: selectPattern, pattern: expr} }

func (s Selector) String() string {
	switch s.kind {
	case selectNames:
		return "names"
	case selectPattern:
		return "pattern " + s.pattern
	default:
		return "all"
	}
}

// resolve turns the selector into an ordered, de-duplicated name list.
func (s Selector) resolve(reg *Registry) ([]string, error) {
	switch s.kind {
	case selectAll:
		return reg.Out(), nil
	case selectPattern:
		re, err := regexp.Compile("^(?:" + s.pattern + ")")
		if err != nil {
			return nil, errdefs.InvalidState("preview", "bad pattern %q: %v", s.pattern, err)
		}
		var out []string
		for _, n := range reg.ds.Names() {
			if re.MatchString(n) {
				out = append(out, n)
			}
		}
		return out, nil
	default:
		seen := map[string]struct{}{}
		var out []string
		for _, n := range s.names {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
		return out, nil
	}
}
