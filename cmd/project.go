package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/model"
	"github.com/KaramelBytes/epsilon-cli/internal/project"
)

var (
	pmProject string
	pmClear   bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage per-project settings",
}

var projectSetEstimatorCmd = &cobra.Command{
	Use:   "set-estimator <ols|rlm|var>",
	Short: "Set or clear a project's default estimator",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProject(cmd, args, "estimator", func(p *project.Project, v string) error {
			if v == "" {
				p.Config.Estimator = ""
				return nil
			}
			return p.SetEstimator(v)
		})
	},
}

var projectSetDepCmd = &cobra.Command{
	Use:   "set-dep <variable>",
	Short: "Set or clear the dependent variable a session starts with",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProject(cmd, args, "dependent", func(p *project.Project, v string) error {
			p.Config.Dependent = v
			return nil
		})
	},
}

var projectSetVariationCmd = &cobra.Command{
	Use:   "set-variation <full|sample>",
	Short: "Set or clear where variation is measured for this project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateProject(cmd, args, "variation mode", func(p *project.Project, v string) error {
			if v == "" {
				p.Config.VariationMode = ""
				return nil
			}
			m, err := model.ParseVariationMode(v)
			if err != nil {
				return err
			}
			p.Config.VariationMode = m.String()
			return nil
		})
	},
}

// updateProject loads --project, applies set with the argument (or "" for
// --clear) and saves.
func updateProject(cmd *cobra.Command, args []string, what string, set func(*project.Project, string) error) error {
	if pmProject == "" {
		return fmt.Errorf("--project is required")
	}
	p, err := loadProjectByName(pmProject)
	if err != nil {
		return err
	}
	val := ""
	if !pmClear {
		if len(args) == 0 || args[0] == "" {
			return fmt.Errorf("%s is required unless --clear is set", what)
		}
		val = args[0]
	}
	if err := set(p, val); err != nil {
		return err
	}
	if err := p.Save(); err != nil {
		return err
	}
	if pmClear {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared project %s for %s\n", what, pmProject)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set project %s for %s: %s\n", what, pmProject, val)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectCmd.PersistentFlags().BoolVar(&pmClear, "clear", false, "clear the project's override")
	projectCmd.AddCommand(projectSetEstimatorCmd, projectSetDepCmd, projectSetVariationCmd)
}
