package executor

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"

	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/rs/zerolog"
)

// Runner is what the provisioning steps need from the outside world
type Runner interface {
	// Run echoes and executes a mutating command
	Run(ctx context.Context, cmd Command) error
	// Probe executes a read-only command silently and reports success
	Probe(ctx context.Context, cmd Command) bool
	// LookPath reports whether an executable is on PATH
	LookPath(name string) bool
	// DryRun reports whether mutating commands are only echoed
	DryRun() bool
}

// Options configures an Executor
type Options struct {
	DryRun bool
	// Stdin is handed to mutating commands; defaults to os.Stdin
	Stdin io.Reader
	// Stderr receives the commands' standard error; defaults to os.Stderr
	Stderr io.Writer
}

// Executor runs commands with os/exec
type Executor struct {
	logger   zerolog.Logger
	out      *output.Printer
	dryRun   bool
	stdin    io.Reader
	stderr   io.Writer
	lookPath func(string) (string, error)
}

var _ Runner = (*Executor)(nil)

// New creates an executor that echoes through out
func New(out *output.Printer, opts Options) *Executor {
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Executor{
		logger:   logging.GetLogger("executor"),
		out:      out,
		dryRun:   opts.DryRun,
		stdin:    stdin,
		stderr:   stderr,
		lookPath: exec.LookPath,
	}
}

// DryRun implements Runner
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Run implements Runner
func (e *Executor) Run(ctx context.Context, c Command) error {
	if c.Name == "" {
		return errors.New(errors.ErrInvalidInput, "command has no program name")
	}

	line := c.String()
	e.out.Command(line)

	if e.dryRun {
		e.logger.Info().Str("command", line).Msg("Dry run mode - command would be executed")
		return nil
	}

	e.logger.Debug().
		Str("command", c.Name).
		Strs("args", c.Args).
		Str("workingDir", c.Dir).
		Msg("Executing command")

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = e.stdin
	cmd.Stdout = e.out.Writer()
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		e.logger.Error().
			Err(err).
			Str("command", line).
			Int("exitCode", exitCode).
			Msg("Command execution failed")

		return errors.Wrapf(err, errors.ErrCommandFailed, "command %q failed", line).
			WithDetail(errors.DetailCommand, line).
			WithDetail(errors.DetailExitCode, exitCode)
	}

	e.logger.Debug().Str("command", line).Msg("Command executed successfully")
	return nil
}

// Probe implements Runner
func (e *Executor) Probe(ctx context.Context, c Command) bool {
	if c.Name == "" {
		return false
	}
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	err := cmd.Run()

	e.logger.Debug().
		Str("command", c.String()).
		Bool("ok", err == nil).
		Msg("Probe finished")

	return err == nil
}

// LookPath implements Runner
func (e *Executor) LookPath(name string) bool {
	path, err := e.lookPath(name)
	e.logger.Debug().Str("name", name).Str("path", path).Bool("found", err == nil).Msg("Looked up executable")
	return err == nil
}
