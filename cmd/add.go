package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	addProjectName string
	addDataDesc    string
	addSheet       string
)

var addCmd = &cobra.Command{
	Use:   "add <file-or-folder>",
	Short: "Register a dataset (CSV, TSV, XLSX or a folder of them) with a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addProjectName == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := loadProjectByName(addProjectName)
		if err != nil {
			return err
		}
		opt := loadOptions()
		opt.SheetName = addSheet
		d, warnings, err := p.AddDataset(args[0], addDataDesc, opt)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			logger.Warn().Str("dataset", d.Name).Msg(w)
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dataset added: %s (%d rows, %d columns)\n", d.Name, d.Rows, len(d.Columns))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addProjectName, "project", "p", "", "project name")
	addCmd.Flags().StringVar(&addDataDesc, "desc", "", "dataset description")
	addCmd.Flags().StringVar(&addSheet, "sheet", "", "sheet name for XLSX files")
}
