package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/shell"
)

var (
	fitFlags        dataFlags
	fitDep          string
	fitAdd          string
	fitLags         string
	fitContrib      bool
	fitAVM          string
	fitResid        string
	fitContribChart string
)

var fitCmd = &cobra.Command{
	Use:   "fit [data-file-or-folder]",
	Short: "Fit a model in one shot and print its summary",
	Example: `  epsilon fit weekly.csv --dep sales --add tv,radio
  epsilon fit -p brand --add tv_spend --estimator rlm --avm avm.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := fitFlags.open(args)
		if err != nil {
			return err
		}
		if err := ws.prepare(fitDep, fitAdd); err != nil {
			return err
		}
		spec := ws.spec
		if fitLags != "" && fitLags != "auto" {
			n, err := strconv.Atoi(fitLags)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid --lags: %s (use a positive integer or auto)", fitLags)
			}
			spec.Options.Lags = n
		}
		out := cmd.OutOrStdout()
		summary, err := ws.sess.Fit(spec)
		if err != nil {
			return err
		}
		fmt.Fprint(out, summary)

		if fitContrib {
			f, err := ws.sess.Result()
			if err != nil {
				return err
			}
			c, err := f.Contributions()
			if err != nil {
				return err
			}
			shell.WriteContributions(out, c)
		}
		charts := []struct {
			path string
			draw func(string) (string, error)
		}{
			{fitAVM, ws.sess.ChartAVM},
			{fitResid, func(p string) (string, error) { return ws.sess.ChartResiduals(p, false) }},
			{fitContribChart, ws.sess.ChartContributions},
		}
		for _, c := range charts {
			if c.path == "" {
				continue
			}
			written, err := c.draw(c.path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Chart written to %s\n", written)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fitCmd)
	fitFlags.register(fitCmd)
	fitCmd.Flags().StringVar(&fitDep, "dep", "", "dependent variable")
	fitCmd.Flags().StringVar(&fitAdd, "add", "", "comma-separated regressors")
	fitCmd.Flags().StringVar(&fitLags, "lags", "", "VAR lag order, or auto")
	fitCmd.Flags().BoolVar(&fitContrib, "contrib", false, "print total contributions")
	fitCmd.Flags().StringVar(&fitAVM, "avm", "", "write an actual-vs-model chart to this file")
	fitCmd.Flags().StringVar(&fitResid, "resid", "", "write a residual chart to this file")
	fitCmd.Flags().StringVar(&fitContribChart, "contrib-chart", "", "write a contribution chart to this file")
}
