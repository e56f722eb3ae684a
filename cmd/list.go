package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	listProjects bool
	listData     bool
	listProjName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects or datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listProjects == listData { // either both true or both false
			return fmt.Errorf("specify exactly one of --projects or --data")
		}
		out := cmd.OutOrStdout()
		if listProjects {
			return listAllProjects(cmd)
		}
		if listProjName == "" {
			return fmt.Errorf("--project is required when using --data")
		}
		p, err := loadProjectByName(listProjName)
		if err != nil {
			return err
		}
		if len(p.Datasets) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		for _, d := range p.SortedDatasets() {
			fmt.Fprintf(out, "- %s: %s, %d rows", d.ID, d.Name, d.Rows)
			if !d.First.IsZero() {
				fmt.Fprintf(out, " (%s to %s)", d.First.Format("2006-01-02"), d.Last.Format("2006-01-02"))
			}
			if d.Description != "" {
				fmt.Fprintf(out, " [%s]", d.Description)
			}
			fmt.Fprintf(out, "\n  columns: %s\n", strings.Join(d.Columns, ", "))
		}
		return nil
	},
}

func listAllProjects(cmd *cobra.Command) error {
	root, err := defaultProjectsDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		pj := filepath.Join(root, e.Name(), "project.json")
		if _, err := os.Stat(pj); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Fprintln(cmd.OutOrStdout(), "(no projects)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listData, "data", false, "list datasets in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --data")
}
