package config

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
	"github.com/KaramelBytes/epsilon-cli/internal/stats"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EPSILON_PREVIEW_WORKERS", "4")

	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, stats.OLS, c.DefaultEstimator)
	require.True(t, c.IncludeConstant)
	require.Equal(t, "full", c.VariationMode)
	require.Equal(t, 4, c.PreviewWorkers)
	require.InDelta(t, 1.345, c.RLMHuberT, 1e-12)
	require.Equal(t, 15, c.VARMaxLags)
	require.NotEmpty(t, c.ProjectsDir)
	require.Equal(t, zerolog.InfoLevel, c.Level())
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")

	c := Default()
	c.DefaultEstimator = stats.RLM
	c.VariationMode = "sample"
	c.LogLevel = "debug"
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, stats.RLM, got.DefaultEstimator)
	require.Equal(t, "sample", got.VariationMode)
	require.Equal(t, zerolog.DebugLevel, got.Level())

	spec, err := got.FitSpec("")
	require.NoError(t, err)
	require.Equal(t, stats.RLM, spec.Estimator)
	require.True(t, spec.IncludeConstant)

	opts, err := got.SessionOptions(zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, opts, 4)
}

func TestRejectsUnknownSettings(t *testing.T) {
	c := Default()
	c.RLMNorm = "tukey"
	_, err := c.FitSpec("rlm")
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	c = Default()
	c.VariationMode = "rolling"
	_, err = c.SessionOptions(zerolog.Nop())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}
