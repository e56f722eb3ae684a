package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/shell"
)

var (
	sessFlags       dataFlags
	sessScript      string
	sessStopOnError bool
)

var sessionCmd = &cobra.Command{
	Use:   "session [data-file-or-folder]",
	Short: "Start an interactive modelling session",
	Long: `Opens a dataset and reads modelling commands, one per line:

  dep sales            set the dependent variable
  add tv radio         add regressors
  rem [vars]           remove regressors (all when none given)
  lag 1 tv             derive tv_lag1 (also pow, atan, atansq, decay, adstock, mult)
  fit [ols|rlm|var]    fit and print the summary
  preview [-p regex]   rank candidates by t statistic
  chart avm out.png    write a chart (avm, res, con, plot)
  reset | vars | summary | contrib | describe | help | quit

Commands come from standard input unless --script is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := sessFlags.open(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		sh := shell.New(ws.sess, out,
			shell.WithFitSpec(ws.spec),
			shell.WithLagFill(config().LagFill),
			shell.WithLogger(logger),
		)

		var in io.Reader = cmd.InOrStdin()
		opt := shell.RunOptions{StopOnError: sessStopOnError}
		if sessScript != "" {
			f, err := os.Open(sessScript)
			if err != nil {
				return fmt.Errorf("open script: %w", err)
			}
			defer f.Close()
			in = f
		} else if isTerminal(in) {
			opt.Prompt = "epsilon> "
			fmt.Fprintf(out, "%d rows, %d columns loaded. Type help for commands.\n", ws.sess.Dataset().Len(), ws.sess.Dataset().NumColumns())
		}
		return sh.Run(in, opt)
	},
}

// isTerminal reports whether r is an interactive character device.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessFlags.register(sessionCmd)
	sessionCmd.Flags().StringVar(&sessScript, "script", "", "read commands from a file instead of stdin")
	sessionCmd.Flags().BoolVar(&sessStopOnError, "stop-on-error", false, "abort at the first failing command")
}
