package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/project"
	"github.com/KaramelBytes/epsilon-cli/internal/utils"
)

var initDescription string

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new epsilon project",
	Long: `Creates a project directory with config/, data/, processing/, models/
and output/ folders and a project.json describing it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDirByName(args[0])
		if err != nil {
			return err
		}
		p, err := project.Create(args[0], initDescription, dir)
		if err != nil {
			return err
		}
		logger.Debug().Str("id", p.ID).Str("dir", p.RootDir()).Msg("project created")
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Project initialized: %s\n", p.RootDir())
		return nil
	},
}

// defaultProjectsDir returns projects_dir with "~" expanded, creating it.
func defaultProjectsDir() (string, error) {
	dir, err := utils.ExpandHome(config().ProjectsDir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDirs(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	if name == "" {
		return "", errdefs.InvalidState("project", "a project name is required")
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func loadProjectByName(name string) (*project.Project, error) {
	dir, err := resolveProjectDirByName(name)
	if err != nil {
		return nil, err
	}
	return project.LoadProject(dir)
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
}
