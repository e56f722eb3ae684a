package dataset

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

// Options controls how a file is turned into a Dataset.
type Options struct {
	// Delimiter for CSV. If 0, picks '\t' for .tsv and ',' otherwise.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// NormalizeNames lower-cases, trims and replaces spaces with '_'.
	NormalizeNames bool
	// DateLayout forces a time layout for the index column; empty tries common layouts.
	DateLayout string
	// XLSX sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the defaults used by the CLI.
func DefaultOptions() Options {
	return Options{NormalizeNames: true, SheetIndex: 1}
}

// Result is a loaded dataset plus non-fatal findings.
type Result struct {
	Data     *Dataset
	Warnings []string
	Files    []string
}

// Loader reads one file format.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*Result, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported data format")

// Load picks a loader by extension. Directories are loaded with LoadFolder.
func Load(path string, opt Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat data: %w", err)
	}
	if info.IsDir() {
		return LoadFolder(path, FolderOptions{Options: opt})
	}
	for _, l := range registry {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
}

func init() {
	Register(csvLoader{})
	Register(xlsxLoader{})
}

// NormalizeName lower-cases a header, trims it and replaces spaces with '_'.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

// DuplicateNames returns names seen more than once, in first-repeat order.
func DuplicateNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var dup []string
	for _, n := range names {
		if _, ok := seen[n]; ok {
			dup = append(dup, n)
			continue
		}
		seen[n] = struct{}{}
	}
	return dup
}

type indexParser func(s string, layout string) (time.Time, bool)

// fromRecords turns a header plus raw rows into a Dataset. The first column
// is the time index; a column becomes numeric when every present cell parses
// as a number, categorical otherwise.
func fromRecords(name string, header []string, rows [][]string, opt Options, parseIndex indexParser) (*Result, error) {
	if len(header) < 2 {
		return nil, errdefs.InvalidState(name, "need a date column and at least one data column")
	}
	names := make([]string, len(header)-1)
	for i, h := range header[1:] {
		h = strings.TrimSpace(h)
		if opt.NormalizeNames {
			h = NormalizeName(h)
		}
		if h == "" {
			h = fmt.Sprintf("column_%d", i+2)
		}
		names[i] = h
	}
	if dup := DuplicateNames(names); len(dup) > 0 {
		return nil, errdefs.InvalidState(name, "duplicate column names: %s", strings.Join(dup, ", "))
	}

	res := &Result{}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	var index []time.Time
	var kept [][]string
	total := 0
	for _, rec := range rows {
		if blankRecord(rec) {
			continue
		}
		total++
		if len(kept) >= maxRows {
			continue
		}
		cell := ""
		if len(rec) > 0 {
			cell = strings.TrimSpace(rec[0])
		}
		ts, ok := parseIndex(cell, opt.DateLayout)
		if !ok {
			return nil, errdefs.InvalidState(name, "row %d: cannot parse date %q", total+1, cell)
		}
		if len(rec) < len(header) {
			tmp := make([]string, len(header))
			copy(tmp, rec)
			rec = tmp
		}
		index = append(index, ts)
		kept = append(kept, rec)
	}
	if len(kept) < total {
		res.Warnings = append(res.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", len(kept), total))
	}

	ds, err := New(index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ds.Name = name
	for j, colName := range names {
		raw := make([]string, len(kept))
		for i, rec := range kept {
			raw[i] = strings.TrimSpace(rec[j+1])
		}
		if err := ds.AddColumn(buildColumn(colName, raw, opt)); err != nil {
			return nil, err
		}
	}

	var flat []string
	for _, n := range ds.Names() {
		c, _ := ds.Column(n)
		if !c.HasVariation(nil) {
			flat = append(flat, n)
		}
	}
	if len(flat) > 0 {
		sort.Strings(flat)
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d variables have no variation across the dataset: %s", len(flat), strings.Join(flat, ", ")))
	}
	res.Data = ds
	return res, nil
}

func buildColumn(name string, raw []string, opt Options) *Column {
	nums := make([]float64, len(raw))
	numeric := true
	for i, v := range raw {
		if v == "" {
			nums[i] = math.NaN()
			continue
		}
		x, ok := parseNumeric(v, opt)
		if !ok {
			numeric = false
			break
		}
		nums[i] = x
	}
	if numeric {
		return NewNumeric(name, nums)
	}
	return NewCategorical(name, raw)
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
