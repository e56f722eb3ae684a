package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/model"
	"github.com/KaramelBytes/epsilon-cli/internal/render"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
)

// Global configuration structure.
type Global struct {
	DefaultEstimator string  `mapstructure:"default_estimator" yaml:"default_estimator"`
	IncludeConstant  bool    `mapstructure:"include_constant" yaml:"include_constant"`
	VariationMode    string  `mapstructure:"variation_mode" yaml:"variation_mode"`
	LagFill          float64 `mapstructure:"lag_fill" yaml:"lag_fill"`
	PreviewWorkers   int     `mapstructure:"preview_workers" yaml:"preview_workers"`

	// Robust regression
	RLMNorm    string  `mapstructure:"rlm_norm" yaml:"rlm_norm"`
	RLMHuberT  float64 `mapstructure:"rlm_huber_t" yaml:"rlm_huber_t"`
	RLMMaxIter int     `mapstructure:"rlm_max_iter" yaml:"rlm_max_iter"`
	RLMTol     float64 `mapstructure:"rlm_tol" yaml:"rlm_tol"`

	// Vector autoregression
	VARMaxLags int    `mapstructure:"var_max_lags" yaml:"var_max_lags"`
	VARIC      string `mapstructure:"var_ic" yaml:"var_ic"`

	NormalizeNames bool `mapstructure:"normalize_names" yaml:"normalize_names"`

	// Charts
	ChartWidthCm  float64 `mapstructure:"chart_width_cm" yaml:"chart_width_cm"`
	ChartHeightCm float64 `mapstructure:"chart_height_cm" yaml:"chart_height_cm"`
	ChartsDir     string  `mapstructure:"charts_dir" yaml:"charts_dir"`

	ProjectsDir string `mapstructure:"projects_dir" yaml:"projects_dir"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.epsilon/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := homeDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".epsilon"), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EPSILON")
	v.AutomaticEnv()

	v.SetDefault("default_estimator", stats.OLS)
	v.SetDefault("include_constant", true)
	v.SetDefault("variation_mode", "full")
	v.SetDefault("lag_fill", 0.0)
	v.SetDefault("preview_workers", 1)
	v.SetDefault("rlm_norm", "huber")
	v.SetDefault("rlm_huber_t", 1.345)
	v.SetDefault("rlm_max_iter", 50)
	v.SetDefault("rlm_tol", 1e-8)
	v.SetDefault("var_max_lags", 15)
	v.SetDefault("var_ic", "aic")
	v.SetDefault("normalize_names", true)
	v.SetDefault("chart_width_cm", 24.0)
	v.SetDefault("chart_height_cm", 12.0)
	v.SetDefault("charts_dir", "")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ProjectsDir == "" {
		dir, err := homeDir()
		if err != nil {
			return nil, err
		}
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	return &c, nil
}

// Default returns the built-in configuration without touching disk or env.
func Default() *Global {
	return &Global{
		DefaultEstimator: stats.OLS,
		IncludeConstant:  true,
		VariationMode:    "full",
		PreviewWorkers:   1,
		RLMNorm:          "huber",
		RLMHuberT:        1.345,
		RLMMaxIter:       50,
		RLMTol:           1e-8,
		VARMaxLags:       15,
		VARIC:            "aic",
		NormalizeNames:   true,
		ChartWidthCm:     24,
		ChartHeightCm:    12,
		LogLevel:         "info",
	}
}

// FitSpec turns the estimator settings into a model.FitSpec. estimator
// overrides the configured default when non-empty.
func (c *Global) FitSpec(estimator string) (model.FitSpec, error) {
	if estimator == "" {
		estimator = c.DefaultEstimator
	}
	if n := strings.ToLower(strings.TrimSpace(c.RLMNorm)); n != "" && n != "huber" {
		return model.FitSpec{}, errdefs.InvalidState("config", "rlm_norm %q is not supported (want huber)", c.RLMNorm)
	}
	return model.FitSpec{
		Estimator:       estimator,
		IncludeConstant: c.IncludeConstant,
		Options: stats.Options{
			HuberT:    c.RLMHuberT,
			MaxIter:   c.RLMMaxIter,
			Tol:       c.RLMTol,
			MaxLags:   c.VARMaxLags,
			Criterion: c.VARIC,
		},
	}, nil
}

// SessionOptions builds the session options the configuration implies.
func (c *Global) SessionOptions(log zerolog.Logger) ([]model.Option, error) {
	mode, err := model.ParseVariationMode(c.VariationMode)
	if err != nil {
		return nil, err
	}
	spec, err := c.FitSpec("")
	if err != nil {
		return nil, err
	}
	return []model.Option{
		model.WithLogger(log),
		model.WithVariationMode(mode),
		model.WithPreviewWorkers(c.PreviewWorkers),
		model.WithFitSpec(spec),
	}, nil
}

// Renderer returns a chart renderer writing relative paths under dir, or
// under charts_dir when dir is empty.
func (c *Global) Renderer(dir string) *render.Renderer {
	if dir == "" {
		dir = c.ChartsDir
	}
	return render.New(render.Config{
		Width:  vg.Length(c.ChartWidthCm) * vg.Centimeter,
		Height: vg.Length(c.ChartHeightCm) * vg.Centimeter,
		Dir:    dir,
	})
}

// Level parses log_level, falling back to info.
func (c *Global) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
