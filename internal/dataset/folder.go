package dataset

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// FolderOptions extends Options for directory loads.
type FolderOptions struct {
	Options
	// Weekday, when set (w-mon .. w-sun), requires every date to fall on that day.
	Weekday string
}

var weekdayCodes = map[string]time.Weekday{
	"w-mon": time.Monday, "w-tue": time.Tuesday, "w-wed": time.Wednesday,
	"w-thu": time.Thursday, "w-fri": time.Friday, "w-sat": time.Saturday, "w-sun": time.Sunday,
}

// ParseWeekday maps a w-xxx frequency code to a weekday.
func ParseWeekday(code string) (time.Weekday, error) {
	wd, ok := weekdayCodes[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return 0, errdefs.InvalidState("weekday", "unknown frequency %q (want w-mon .. w-sun)", code)
	}
	return wd, nil
}

// LoadFolder loads every supported file in dir and joins them on the date
// index. Lock files starting with "~" are ignored; a file that fails to load
// is skipped with a warning.
func LoadFolder(dir string, opt FolderOptions) (*Result, error) {
	var want time.Weekday
	checkDay := opt.Weekday != ""
	if checkDay {
		wd, err := ParseWeekday(opt.Weekday)
		if err != nil {
			return nil, err
		}
		want = wd
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data folder: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		for _, l := range registry {
			if l.CanLoad(p) {
				paths = append(paths, p)
				break
			}
		}
	}
	sort.Strings(paths)

	res := &Result{}
	var parts []*Dataset
	for _, p := range paths {
		r, err := Load(p, opt.Options)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skipped %s: %v", filepath.Base(p), err))
			continue
		}
		for _, w := range r.Warnings {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", filepath.Base(p), w))
		}
		parts = append(parts, r.Data)
		res.Files = append(res.Files, p)
	}
	if len(parts) == 0 {
		return nil, errdefs.InvalidState(filepath.Base(dir), "no loadable data files in folder")
	}
	ds, err := Concat(parts...)
	if err != nil {
		return nil, err
	}
	ds.Name = filepath.Base(dir)
	if checkDay {
		for i, ts := range ds.Index() {
			if ts.Weekday() != want {
				return nil, errdefs.InvalidState("weekday", "row %d (%s) is a %s, expected %s",
					i+1, ts.Format("2006-01-02"), ts.Weekday(), want)
			}
		}
	}
	res.Data = ds
	return res, nil
}

// Concat outer-joins datasets on their time index. Cells absent from a
// part become missing; a column name present in two parts is an error.
func Concat(parts ...*Dataset) (*Dataset, error) {
	if len(parts) == 0 {
		return nil, errdefs.InvalidState("concat", "nothing to concatenate")
	}
	seen := map[int64]time.Time{}
	for _, p := range parts {
		for _, ts := range p.Index() {
			seen[ts.UnixNano()] = ts
		}
	}
	index := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	row := make(map[int64]int, len(index))
	for i, ts := range index {
		row[ts.UnixNano()] = i
	}

	out, err := New(index)
	if err != nil {
		return nil, err
	}
	out.Name = parts[0].Name
	for _, p := range parts {
		at := make([]int, p.Len())
		for i, ts := range p.Index() {
			at[i] = row[ts.UnixNano()]
		}
		for _, c := range p.cols {
			if out.Has(c.Name) {
				return nil, errdefs.InvalidState("concat", "column %q appears in more than one file", c.Name)
			}
			var nc *Column
			if c.Kind == Numeric {
				vals := make([]float64, len(index))
				for i := range vals {
					vals[i] = math.NaN()
				}
				for i, v := range c.Num {
					vals[at[i]] = v
				}
				nc = NewNumeric(c.Name, vals)
			} else {
				vals := make([]string, len(index))
				for i, v := range c.Cat {
					vals[at[i]] = v
				}
				nc = NewCategorical(c.Name, vals)
			}
			if err := out.AddColumn(nc); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
