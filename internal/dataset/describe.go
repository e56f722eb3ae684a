package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DescribeOptions controls the dataset report.
type DescribeOptions struct {
	SampleRows int
	// Correlations lists the strongest Pearson pairs among numeric columns.
	Correlations bool
	// OutlierThreshold is the robust |z| (MAD based) above which values count
	// as outliers; 0 disables the check.
	OutlierThreshold float64
}

// DefaultDescribeOptions mirrors the CLI defaults.
func DefaultDescribeOptions() DescribeOptions {
	return DescribeOptions{SampleRows: 5, OutlierThreshold: 3.5}
}

// Report summarises a loaded dataset.
type Report struct {
	Name     string
	Rows     int
	First    string
	Last     string
	Cols     []ColumnSummary
	Samples  [][]string
	Pairs    []PairCorr
	Warnings []string
}

// ColumnSummary captures statistics for one column.
type ColumnSummary struct {
	Name      string
	Kind      string
	NonNull   int
	Missing   int
	Unique    int
	Variation bool

	Min, Max, Mean, Std float64
	Median              float64

	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64

	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// PairCorr is one correlation between two numeric columns.
type PairCorr struct {
	A, B string
	R    float64
}

// Describe computes a Report over every column of ds.
func Describe(ds *Dataset, opt DescribeOptions) *Report {
	rep := &Report{Name: ds.Name, Rows: ds.Len()}
	if idx := ds.Index(); len(idx) > 0 {
		rep.First = idx[0].Format("2006-01-02")
		rep.Last = idx[len(idx)-1].Format("2006-01-02")
	}
	for _, c := range ds.cols {
		cs := ColumnSummary{Name: c.Name, Kind: c.Kind.String(), Variation: c.HasVariation(nil)}
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) {
				cs.Missing++
			} else {
				cs.NonNull++
			}
		}
		if c.Kind == Numeric {
			summariseNumeric(&cs, present(c.Num), opt.OutlierThreshold)
		} else {
			summariseCategorical(&cs, c.Cat)
		}
		if !cs.Variation {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s has no variation", c.Name))
		}
		rep.Cols = append(rep.Cols, cs)
	}
	for i := 0; i < opt.SampleRows && i < ds.Len(); i++ {
		row := []string{ds.index[i].Format("2006-01-02")}
		for _, c := range ds.cols {
			switch {
			case c.IsMissing(i):
				row = append(row, "")
			case c.Kind == Numeric:
				row = append(row, fmt.Sprintf("%.6g", c.Num[i]))
			default:
				row = append(row, c.Cat[i])
			}
		}
		rep.Samples = append(rep.Samples, row)
	}
	if opt.Correlations {
		rep.Pairs = correlations(ds)
	}
	return rep
}

func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func summariseNumeric(cs *ColumnSummary, vals []float64, thr float64) {
	if len(vals) == 0 {
		return
	}
	cs.Min = floats.Min(vals)
	cs.Max = floats.Max(vals)
	cs.Mean, cs.Std = stat.MeanStdDev(vals, nil)
	if len(vals) < 2 {
		cs.Std = 0
	}
	uniq := map[float64]struct{}{}
	for _, v := range vals {
		uniq[v] = struct{}{}
	}
	cs.Unique = len(uniq)
	med, mad := medianMAD(vals)
	cs.Median = med
	if thr > 0 && mad > 0 {
		cs.OutlierThreshold = thr
		for _, v := range vals {
			// 0.6745 scales MAD to sigma under normality
			z := math.Abs(0.6745 * (v - med) / mad)
			if z > thr {
				cs.OutliersCount++
			}
			if z > cs.OutliersMaxAbsZ {
				cs.OutliersMaxAbsZ = z
			}
		}
	}
}

func summariseCategorical(cs *ColumnSummary, vals []string) {
	counts := map[string]int{}
	for _, v := range vals {
		if v != "" {
			counts[v]++
		}
	}
	cs.Unique = len(counts)
	for v, n := range counts {
		cs.TopValues = append(cs.TopValues, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(cs.TopValues, func(i, j int) bool {
		if cs.TopValues[i].Count == cs.TopValues[j].Count {
			return cs.TopValues[i].Value < cs.TopValues[j].Value
		}
		return cs.TopValues[i].Count > cs.TopValues[j].Count
	})
	if len(cs.TopValues) > 5 {
		cs.TopValues = cs.TopValues[:5]
	}
}

// correlations uses rows where both columns are present.
func correlations(ds *Dataset) []PairCorr {
	var nums []*Column
	for _, c := range ds.cols {
		if c.Kind == Numeric && c.HasVariation(nil) {
			nums = append(nums, c)
		}
	}
	var pairs []PairCorr
	for i := 0; i < len(nums); i++ {
		for j := i + 1; j < len(nums); j++ {
			var a, b []float64
			for k := range nums[i].Num {
				x, y := nums[i].Num[k], nums[j].Num[k]
				if math.IsNaN(x) || math.IsNaN(y) {
					continue
				}
				a = append(a, x)
				b = append(b, y)
			}
			if len(a) < 3 {
				continue
			}
			r := stat.Correlation(a, b, nil)
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: nums[i].Name, B: nums[j].Name, R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs
}

// medianMAD computes the median and median absolute deviation.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = stat.Quantile(0.5, stat.LinInterp, cp, nil)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = stat.Quantile(0.5, stat.LinInterp, dev, nil)
	return median, mad
}

// Markdown renders the report as plain sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Rows: %d", r.Rows)
	if r.First != "" {
		fmt.Fprintf(&b, " (%s to %s)", r.First, r.Last)
	}
	fmt.Fprintf(&b, "\nColumns: %d\n\n", len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", c.Name, c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case "numeric":
			fmt.Fprintf(&b, ", min %.4g, max %.4g, mean %.4g, std %.4g, median %.4g", c.Min, c.Max, c.Mean, c.Std, c.Median)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(", top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for i, p := range r.Pairs {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD]\n| date")
		for _, c := range r.Cols {
			b.WriteString(" | ")
			b.WriteString(c.Name)
		}
		b.WriteString(" |\n|")
		for i := 0; i <= len(r.Cols); i++ {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("|")
			for _, v := range row {
				b.WriteString(" ")
				b.WriteString(safeVal(v))
				b.WriteString(" |")
			}
			b.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
