package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/project"
)

var (
	dsFlags      dataFlags
	dsSampleRows int
	dsCorr       bool
	dsOutlierThr float64
	dsQuiet      bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Summarise CSV/TSV/XLSX files or folders of them",
	Long: `Prints a summary of each dataset: schema, numeric statistics, top
categories, robust outlier counts and, with --correlations, the strongest
pairwise correlations. With --project the summaries are written to the
project's processing/ folder instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		opt := dataset.DefaultDescribeOptions()
		opt.SampleRows = dsSampleRows
		opt.Correlations = dsCorr
		opt.OutlierThreshold = dsOutlierThr

		var p *project.Project
		if dsFlags.project != "" {
			pp, err := loadProjectByName(dsFlags.project)
			if err != nil {
				return err
			}
			p = pp
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !dsQuiet && total > 1 {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			ds, err := dsFlags.load(path)
			if err != nil {
				return err
			}
			md := dataset.Describe(ds, opt).Markdown()
			if p == nil {
				fmt.Fprintln(out, md)
				continue
			}
			outFile, err := summaryPath(p.Dir("processing"), path, dsFlags.sheet)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write project summary: %w", err)
			}
			if !dsQuiet {
				fmt.Fprintf(out, "✓ Summary written to %s\n", outFile)
			}
		}
		return nil
	},
}

// summaryPath picks a free "<base>[__sheet-x][__n].summary.md" name in dir.
func summaryPath(dir, path, sheet string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		s := dataset.NormalizeName(sheet)
		s = strings.Trim(strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}
			return '-'
		}, s), "-")
		if s == "" {
			s = "sheet"
		}
		stem += "__sheet-" + s
	}
	outFile := filepath.Join(dir, stem+".summary.md")
	for idx := 2; ; idx++ {
		if _, err := os.Stat(outFile); os.IsNotExist(err) {
			return outFile, nil
		}
		outFile = filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", stem, idx))
	}
}

func init() {
	rootCmd.AddCommand(describeCmd)
	dsFlags.registerLoad(describeCmd)
	describeCmd.Flags().IntVar(&dsSampleRows, "sample-rows", 5, "number of sample rows to include")
	describeCmd.Flags().BoolVar(&dsCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().Float64Var(&dsOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based, 0 disables)")
	describeCmd.Flags().BoolVar(&dsQuiet, "quiet", false, "suppress progress and non-essential output")
}
