package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/epsilon-cli/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger carries advisory notes and warnings to stderr.
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "epsilon",
	Short: "Epsilon CLI: interactive marketing-mix modelling",
	Long: `Epsilon loads weekly marketing data, derives media transforms and fits
regression models interactively, ranking candidate variables by how much
they add to the current model.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.epsilon/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		c = cfgpkg.Default()
		logger = newLogger(os.Stderr, c.Level())
		logger.Warn().Err(err).Msg("failed to load config")
	}
	cfg = c
	lvl := cfg.Level()
	if debug {
		lvl = zerolog.DebugLevel
	}
	logger = newLogger(os.Stderr, lvl)
}

func newLogger(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
}

// config returns the loaded configuration, loading it on first use when
// the root initializer has not run (as in tests).
func config() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}
