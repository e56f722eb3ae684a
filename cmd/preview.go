package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/model"
	"github.com/KaramelBytes/epsilon-cli/internal/shell"
)

var (
	pvFlags   dataFlags
	pvDep     string
	pvAdd     string
	pvPattern string
	pvNames   string
	pvWorkers int
)

var previewCmd = &cobra.Command{
	Use:   "preview [data-file-or-folder]",
	Short: "Rank candidate variables by their t statistic in the current model",
	Example: `  epsilon preview weekly.csv --dep sales --add tv
  epsilon preview -p brand --pattern 'tv_(dec|adstock)'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pvPattern != "" && pvNames != "" {
			return fmt.Errorf("use either --pattern or --names, not both")
		}
		ws, err := pvFlags.open(args)
		if err != nil {
			return err
		}
		if err := ws.prepare(pvDep, pvAdd); err != nil {
			return err
		}
		if ws.sess.Dependent() == "" {
			return fmt.Errorf("--dep is required")
		}
		if pvWorkers > 0 {
			model.WithPreviewWorkers(pvWorkers)(ws.sess)
		}
		sel := model.All()
		switch {
		case pvPattern != "":
			sel = model.Pattern(pvPattern)
		case pvNames != "":
			sel = model.Names(splitList(pvNames)...)
		}
		table, err := ws.sess.Preview(sel)
		if err != nil {
			return err
		}
		shell.WritePreview(cmd.OutOrStdout(), table)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	pvFlags.register(previewCmd)
	previewCmd.Flags().StringVar(&pvDep, "dep", "", "dependent variable")
	previewCmd.Flags().StringVar(&pvAdd, "add", "", "comma-separated regressors already in the model")
	previewCmd.Flags().StringVar(&pvPattern, "pattern", "", "regular expression matched at the start of candidate names")
	previewCmd.Flags().StringVar(&pvNames, "names", "", "comma-separated candidates")
	previewCmd.Flags().IntVar(&pvWorkers, "workers", 0, "parallel candidate fits (overrides preview_workers)")
}
