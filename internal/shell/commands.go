package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/model"
	"github.com/KaramelBytes/epsilon-cli/internal/transform"
)

func (sh *Shell) commands() *cobra.Command {
	root := &cobra.Command{
		Use:           "epsilon",
		Short:         "Interactive marketing-mix modelling session",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(sh.out)
	root.SetErr(sh.out)

	root.AddCommand(
		sh.depCmd(), sh.addCmd(), sh.remCmd(), sh.varsCmd(),
		sh.fitCmd(), sh.summaryCmd(), sh.contribCmd(), sh.previewCmd(),
		sh.resetCmd(), sh.describeCmd(), sh.chartCmd(), sh.quitCmd(),
	)
	root.AddCommand(sh.transformCmds()...)
	return root
}

func (sh *Shell) printNotes(notes []string) {
	for _, n := range notes {
		fmt.Fprintln(sh.out, "⚠", n)
	}
}

func (sh *Shell) depCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dep <variable>",
		Short: "Set the dependent variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := sh.sess.SetDependent(args[0])
			if err != nil {
				return err
			}
			sh.printNotes(notes)
			fmt.Fprintf(sh.out, "✓ Dependent variable: %s (%d usable rows)\n", args[0], len(sh.sess.Sample().Rows()))
			return nil
		},
	}
}

func (sh *Shell) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <variable>...",
		Short: "Add variables to the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := sh.sess.Add(args...)
			if err != nil {
				return err
			}
			sh.printNotes(notes)
			fmt.Fprintf(sh.out, "✓ In model: %s\n", strings.Join(sh.sess.In(), ", "))
			return nil
		},
	}
}

func (sh *Shell) remCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rem [variable]...",
		Aliases: []string{"remove"},
		Short:   "Remove variables from the model (all when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := sh.sess.Remove(args...)
			if err != nil {
				return err
			}
			sh.printNotes(notes)
			fmt.Fprintf(sh.out, "✓ In model: %s\n", strings.Join(sh.sess.In(), ", "))
			return nil
		},
	}
}

func (sh *Shell) varsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vars",
		Short: "Show the dependent, in-model and candidate variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			WriteVars(sh.out, sh.sess)
			return nil
		},
	}
}

func (sh *Shell) fitCmd() *cobra.Command {
	var lags string
	cmd := &cobra.Command{
		Use:   "fit [ols|rlm|var]",
		Short: "Fit the model and print the summary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := sh.spec
			if len(args) == 1 {
				spec.Estimator = args[0]
			}
			if lags != "" && lags != "auto" {
				n, err := strconv.Atoi(lags)
				if err != nil || n < 1 {
					return errdefs.InvalidState("fit", "lags must be a positive integer or auto, got %q", lags)
				}
				spec.Options.Lags = n
			}
			summary, err := sh.sess.Fit(spec)
			if err != nil {
				return err
			}
			fmt.Fprint(sh.out, summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&lags, "lags", "", "VAR lag order, or auto")
	return cmd
}

func (sh *Shell) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the summary of the current fit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := sh.sess.Result()
			if err != nil {
				return err
			}
			fmt.Fprint(sh.out, f.Summary())
			return nil
		},
	}
}

func (sh *Shell) contribCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contrib",
		Short: "Print total contribution per regressor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := sh.sess.Result()
			if err != nil {
				return err
			}
			c, err := f.Contributions()
			if err != nil {
				return err
			}
			WriteContributions(sh.out, c)
			return nil
		},
	}
}

func (sh *Shell) previewCmd() *cobra.Command {
	var pattern string
	cmd := &cobra.Command{
		Use:   "preview [variable]...",
		Short: "Rank candidates by their t statistic when added to the model",
		Long: `Fits the model once per candidate with the candidate added.
With no arguments every candidate is tried; --pattern selects the columns
whose names match a regular expression at their start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := model.All()
			switch {
			case pattern != "" && len(args) > 0:
				return errdefs.InvalidState("preview", "give either names or --pattern, not both")
			case pattern != "":
				sel = model.Pattern(pattern)
			case len(args) > 0:
				sel = model.Names(args...)
			}
			table, err := sh.sess.Preview(sel)
			if err != nil {
				return err
			}
			WritePreview(sh.out, table)
			return nil
		},
	}
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "regular expression matched at the start of column names")
	return cmd
}

func (sh *Shell) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop derived columns, the model and the dependent variable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh.sess.Reset()
			fmt.Fprintln(sh.out, "✓ Session reset")
			return nil
		},
	}
}

func (sh *Shell) describeCmd() *cobra.Command {
	var corr bool
	var sample int
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Summarise the working dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := sh.describe
			opt.Correlations = corr
			if sample >= 0 {
				opt.SampleRows = sample
			}
			fmt.Fprint(sh.out, dataset.Describe(sh.sess.Dataset(), opt).Markdown())
			return nil
		},
	}
	cmd.Flags().BoolVar(&corr, "corr", false, "include pairwise correlations")
	cmd.Flags().IntVar(&sample, "sample-rows", -1, "rows to show in the head section")
	return cmd
}

func (sh *Shell) chartCmd() *cobra.Command {
	chart := &cobra.Command{
		Use:   "chart",
		Short: "Write diagnostic charts (.png, .svg or .pdf)",
	}
	report := func(path string, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "✓ Chart written to %s\n", path)
		return nil
	}

	avm := &cobra.Command{
		Use:   "avm <file>",
		Short: "Actual vs model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(sh.sess.ChartAVM(args[0]))
		},
	}

	var percent bool
	res := &cobra.Command{
		Use:   "res <file>",
		Short: "Residuals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(sh.sess.ChartResiduals(args[0], percent))
		},
	}
	res.Flags().BoolVar(&percent, "percent", false, "residuals as a percentage of actual")

	con := &cobra.Command{
		Use:   "con <file>",
		Short: "Stacked contributions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(sh.sess.ChartContributions(args[0]))
		},
	}

	var withDep, allRows bool
	plot := &cobra.Command{
		Use:   "plot <file> [variable]...",
		Short: "Variables over time",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(sh.sess.ChartVariables(args[0], args[1:], withDep, allRows))
		},
	}
	plot.Flags().BoolVar(&withDep, "dep", false, "include the dependent variable")
	plot.Flags().BoolVar(&allRows, "all-rows", false, "plot every row, not only the sample")

	chart.AddCommand(avm, res, con, plot)
	return chart
}

func (sh *Shell) quitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "quit",
		Aliases: []string{"exit", "q"},
		Short:   "Leave the session",
		RunE:    func(cmd *cobra.Command, args []string) error { return ErrQuit },
	}
}

// transformCmds builds the derived-column commands. Their arguments are
// taken verbatim so that negative lags such as "lag -1 tv" parse.
func (sh *Shell) transformCmds() []*cobra.Command {
	derive := func(use, short string, build func(params string, names []string) (transform.Deriver, error)) *cobra.Command {
		return &cobra.Command{
			Use:                use,
			Short:              short,
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) < 2 {
					return errdefs.InvalidState(cmd.Name(), "usage: %s", cmd.Use)
				}
				d, err := build(args[0], args[1:])
				if err != nil {
					return err
				}
				return sh.apply(d)
			},
		}
	}

	lag := derive("lag <periods> <variable>...", "Shift variables by a number of periods", func(p string, names []string) (transform.Deriver, error) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errdefs.InvalidState("lag", "periods must be an integer, got %q", p)
		}
		return transform.Lag(names, n, sh.lagFill), nil
	})
	pow := derive("pow <exponent> <variable>...", "Raise variables to a power", func(p string, names []string) (transform.Deriver, error) {
		v, err := parseParams("pow", p)
		if err != nil {
			return nil, err
		}
		if len(v) != 1 {
			return nil, errdefs.InvalidState("pow", "takes a single exponent")
		}
		return transform.Pow(names, v[0]), nil
	})
	curve := func(op string, f func([]string, ...float64) transform.Deriver) func(string, []string) (transform.Deriver, error) {
		return func(p string, names []string) (transform.Deriver, error) {
			v, err := parseParams(op, p)
			if err != nil {
				return nil, err
			}
			return f(names, v...), nil
		}
	}
	atan := derive("atan <alpha[,alpha...]> <variable>...", "Arctangent saturation curve", curve("atan", transform.Atan))
	atansq := derive("atansq <alpha[,alpha...]> <variable>...", "Squared arctangent curve", curve("atansq", transform.AtanSq))
	decay := derive("decay <rate[,rate...]> <variable>...", "Geometric decay with the given decay rates", curve("decay", transform.Decay))
	adstock := derive("adstock <carryover[,carryover...]> <variable>...", "Adstock with the given carryover rates", curve("adstock", transform.Adstock))

	mult := &cobra.Command{
		Use:                "mult <a> <b> [name]",
		Short:              "Multiply two variables",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 || len(args) > 3 {
				return errdefs.InvalidState("mult", "usage: %s", cmd.Use)
			}
			name := ""
			if len(args) == 3 {
				name = args[2]
			}
			return sh.apply(transform.Mult(args[:2], name))
		},
	}
	return []*cobra.Command{lag, pow, atan, atansq, decay, adstock, mult}
}

func (sh *Shell) apply(d transform.Deriver) error {
	out, err := sh.sess.Transform(d)
	if err != nil {
		return err
	}
	for _, n := range out.Dropped {
		fmt.Fprintf(sh.out, "⚠ %s already exists; not added\n", n)
	}
	if len(out.Added) > 0 {
		fmt.Fprintf(sh.out, "✓ Added: %s\n", strings.Join(out.Added, ", "))
	}
	return nil
}

// parseParams reads a comma-separated list of numbers.
func parseParams(op, s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errdefs.InvalidState(op, "bad parameter %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}
