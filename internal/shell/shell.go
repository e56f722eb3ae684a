// Package shell is the line-oriented front end of a modelling session.
// Each input line is one command (dep, add, rem, fit, preview, lag, ...)
// dispatched through a cobra command tree, so flags and help behave the
// same as on the epsilon command line.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/epsilon-cli/internal/dataset"
	"github.com/KaramelBytes/epsilon-cli/internal/model"
)

// ErrQuit is returned by Exec when the user asks to leave.
var ErrQuit = errors.New("quit")

// Shell executes commands against one session.
type Shell struct {
	sess     *model.Session
	spec     model.FitSpec
	lagFill  float64
	describe dataset.DescribeOptions
	out      io.Writer
	log      zerolog.Logger
	root     *cobra.Command
}

// Option configures a Shell.
type Option func(*Shell)

// WithFitSpec sets the estimator settings used by fit.
func WithFitSpec(spec model.FitSpec) Option { return func(sh *Shell) { sh.spec = spec } }

// WithLagFill sets the value shifted into lagged columns.
func WithLagFill(v float64) Option { return func(sh *Shell) { sh.lagFill = v } }

// WithLogger sets the logger for command tracing.
func WithLogger(l zerolog.Logger) Option { return func(sh *Shell) { sh.log = l } }

// New builds a shell writing command output to out. The shell prints the
// session's advisory notes itself, so the session's logger is silenced.
func New(sess *model.Session, out io.Writer, opts ...Option) *Shell {
	model.WithLogger(zerolog.Nop())(sess)
	sh := &Shell{
		sess:     sess,
		spec:     model.DefaultFitSpec(),
		describe: dataset.DefaultDescribeOptions(),
		out:      out,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(sh)
	}
	sh.root = sh.commands()
	return sh
}

// Session returns the session the shell drives.
func (sh *Shell) Session() *model.Session { return sh.sess }

// Exec runs a single command line. Blank lines and lines starting with #
// are ignored.
func (sh *Shell) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	sh.log.Debug().Strs("args", fields).Msg("exec")
	resetFlags(sh.root)
	sh.root.SetArgs(fields)
	return sh.root.Execute()
}

// RunOptions controls Run.
type RunOptions struct {
	// Prompt is printed before each line; empty for scripts.
	Prompt string
	// StopOnError aborts at the first failing command.
	StopOnError bool
}

// Run reads commands from in until EOF or quit. Failed commands are
// reported on the output and, unless StopOnError is set, do not end the
// loop.
func (sh *Shell) Run(in io.Reader, opt RunOptions) error {
	sc := bufio.NewScanner(in)
	lineNo := 0
	for {
		if opt.Prompt != "" {
			fmt.Fprint(sh.out, opt.Prompt)
		}
		if !sc.Scan() {
			break
		}
		lineNo++
		err := sh.Exec(sc.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			if opt.StopOnError {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
			fmt.Fprintln(sh.out, "✗ Error:", err)
		}
	}
	return sc.Err()
}

// resetFlags restores every flag to its default. cobra keeps parsed
// values between executions of the same tree.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
