package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/model"
	"github.com/KaramelBytes/epsilon-cli/internal/project"
	"github.com/KaramelBytes/epsilon-cli/internal/utils"
)

// dataFlags are shared by the commands that open a dataset, either from a
// path argument or from a project.
type dataFlags struct {
	project   string
	data      string
	sheet     string
	weekday   string
	decimal   string
	thousands string
	estimator string
	chartsDir string
}

// registerLoad adds the flags that control how data files are read.
func (f *dataFlags) registerLoad(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "project to take the dataset and defaults from")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "sheet name for XLSX files")
	cmd.Flags().StringVar(&f.weekday, "weekday", "", "required weekday of folder data (w-mon ... w-sun)")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator: '.'|'comma'")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator: ','|'.'|'space'")
}

// register adds the load flags plus those that shape a session.
func (f *dataFlags) register(cmd *cobra.Command) {
	f.registerLoad(cmd)
	cmd.Flags().StringVar(&f.data, "data", "", "dataset id or name within the project")
	cmd.Flags().StringVarP(&f.estimator, "estimator", "e", "", "estimator: ols, rlm or var")
	cmd.Flags().StringVar(&f.chartsDir, "charts-dir", "", "directory for chart files")
}

// loadOptions returns the loader options implied by the configuration.
func loadOptions() dataset.Options {
	opt := dataset.DefaultOptions()
	opt.NormalizeNames = config().NormalizeNames
	return opt
}

func (f *dataFlags) options() (dataset.Options, error) {
	opt := loadOptions()
	if f.sheet != "" {
		opt.SheetName = f.sheet
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	return opt, nil
}

// load reads a file or folder and logs the loader's warnings.
func (f *dataFlags) load(path string) (*dataset.Dataset, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	var res *dataset.Result
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		res, err = dataset.LoadFolder(path, dataset.FolderOptions{Options: opt, Weekday: f.weekday})
	} else {
		res, err = dataset.Load(path, opt)
	}
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn().Str("source", path).Msg(w)
	}
	logger.Debug().Str("source", path).Int("rows", res.Data.Len()).Int("columns", res.Data.NumColumns()).Msg("dataset loaded")
	return res.Data, nil
}

// workspace is an opened session with the fit settings that apply to it.
type workspace struct {
	sess *model.Session
	spec model.FitSpec
	proj *project.Project
}

// open builds a session from args[0] or from a project's dataset. The
// project is --project, or the one enclosing the working directory.
func (f *dataFlags) open(args []string) (*workspace, error) {
	c := config()
	var (
		proj *project.Project
		path string
		err  error
	)
	switch {
	case f.project != "":
		if proj, err = loadProjectByName(f.project); err != nil {
			return nil, err
		}
	case len(args) == 0:
		// Inside a project folder the project is implied.
		proj, err = project.FindProject("")
		if errors.Is(err, utils.ErrNoProject) {
			return nil, fmt.Errorf("give a data file or --project")
		}
		if err != nil {
			return nil, err
		}
	}
	switch {
	case len(args) > 0:
		path = args[0]
	case proj != nil:
		d, err := proj.Dataset(f.data)
		if err != nil {
			return nil, err
		}
		path = d.Path
		if f.sheet == "" {
			f.sheet = d.Sheet
		}
	}
	ds, err := f.load(path)
	if err != nil {
		return nil, err
	}

	opts, err := c.SessionOptions(logger)
	if err != nil {
		return nil, err
	}
	chartsDir := f.chartsDir
	estimator := f.estimator
	if proj != nil {
		if chartsDir == "" {
			chartsDir = proj.Dir("output")
		}
		if estimator == "" {
			estimator = proj.Config.Estimator
		}
		if proj.Config.VariationMode != "" {
			m, err := model.ParseVariationMode(proj.Config.VariationMode)
			if err != nil {
				return nil, err
			}
			opts = append(opts, model.WithVariationMode(m))
		}
	}
	spec, err := c.FitSpec(estimator)
	if err != nil {
		return nil, err
	}
	opts = append(opts, model.WithRenderer(c.Renderer(chartsDir)), model.WithFitSpec(spec))

	ws := &workspace{sess: model.NewSession(ds, opts...), spec: spec, proj: proj}
	if proj != nil && proj.Config.Dependent != "" {
		if _, err := ws.sess.SetDependent(proj.Config.Dependent); err != nil {
			return nil, fmt.Errorf("project dependent: %w", err)
		}
	}
	return ws, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// prepare applies --dep and --add to a workspace session.
func (ws *workspace) prepare(dep, add string) error {
	if dep != "" && dep != ws.sess.Dependent() {
		if _, err := ws.sess.SetDependent(dep); err != nil {
			return err
		}
	}
	if names := splitList(add); len(names) > 0 {
		if _, err := ws.sess.Add(names...); err != nil {
			return err
		}
	}
	return nil
}
