package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/epsilon-cli/internal/config"
	"github.com/KaramelBytes/epsilon-cli/internal/model"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set epsilon configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "default_estimator: %s\n", c.DefaultEstimator)
		fmt.Fprintf(out, "include_constant: %t\n", c.IncludeConstant)
		fmt.Fprintf(out, "variation_mode: %s\n", c.VariationMode)
		fmt.Fprintf(out, "lag_fill: %g\n", c.LagFill)
		fmt.Fprintf(out, "preview_workers: %d\n", c.PreviewWorkers)
		fmt.Fprintf(out, "rlm_norm: %s\n", c.RLMNorm)
		fmt.Fprintf(out, "rlm_huber_t: %g\n", c.RLMHuberT)
		fmt.Fprintf(out, "rlm_max_iter: %d\n", c.RLMMaxIter)
		fmt.Fprintf(out, "rlm_tol: %g\n", c.RLMTol)
		fmt.Fprintf(out, "var_max_lags: %d\n", c.VARMaxLags)
		fmt.Fprintf(out, "var_ic: %s\n", c.VARIC)
		fmt.Fprintf(out, "normalize_names: %t\n", c.NormalizeNames)
		fmt.Fprintf(out, "chart_width_cm: %g\n", c.ChartWidthCm)
		fmt.Fprintf(out, "chart_height_cm: %g\n", c.ChartHeightCm)
		if c.ChartsDir != "" {
			fmt.Fprintf(out, "charts_dir: %s\n", c.ChartsDir)
		}
		fmt.Fprintf(out, "projects_dir: %s\n", c.ProjectsDir)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config()
		if err := setKey(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	posInt := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return 0, fmt.Errorf("invalid positive int for %s: %v", key, val)
		}
		return i, nil
	}
	posFloat := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return 0, fmt.Errorf("invalid positive float for %s: %v", key, val)
		}
		return f, nil
	}
	var err error
	switch key {
	case "default_estimator":
		est, e := stats.New(val, stats.Options{})
		if e != nil {
			return e
		}
		c.DefaultEstimator = est.Name()
	case "include_constant", "normalize_names":
		b, e := strconv.ParseBool(val)
		if e != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, e)
		}
		if key == "include_constant" {
			c.IncludeConstant = b
		} else {
			c.NormalizeNames = b
		}
	case "variation_mode":
		m, e := model.ParseVariationMode(val)
		if e != nil {
			return e
		}
		c.VariationMode = m.String()
	case "lag_fill":
		f, e := strconv.ParseFloat(val, 64)
		if e != nil {
			return fmt.Errorf("invalid float for lag_fill: %w", e)
		}
		c.LagFill = f
	case "preview_workers":
		c.PreviewWorkers, err = posInt()
	case "rlm_norm":
		if strings.ToLower(val) != "huber" {
			return fmt.Errorf("invalid rlm_norm: %s (only huber is supported)", val)
		}
		c.RLMNorm = "huber"
	case "rlm_huber_t":
		c.RLMHuberT, err = posFloat()
	case "rlm_max_iter":
		c.RLMMaxIter, err = posInt()
	case "rlm_tol":
		c.RLMTol, err = posFloat()
	case "var_max_lags":
		c.VARMaxLags, err = posInt()
	case "var_ic":
		switch v := strings.ToLower(val); v {
		case "aic", "bic":
			c.VARIC = v
		default:
			return fmt.Errorf("invalid var_ic: %s (use aic or bic)", val)
		}
	case "chart_width_cm":
		c.ChartWidthCm, err = posFloat()
	case "chart_height_cm":
		c.ChartHeightCm, err = posFloat()
	case "charts_dir":
		c.ChartsDir = val
	case "projects_dir":
		c.ProjectsDir = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
