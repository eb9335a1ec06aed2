package system

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/executor"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Configurator applies system-wide changes
type Configurator struct {
	runner executor.Runner
	fs     filesystem.FS
	out    *output.Printer
	cmds   config.Commands
	logger zerolog.Logger
}

// New creates a Configurator
func New(runner executor.Runner, fsys filesystem.FS, out *output.Printer, cmds config.Commands) *Configurator {
	return &Configurator{
		runner: runner,
		fs:     fsys,
		out:    out,
		cmds:   cmds,
		logger: logging.GetLogger("system"),
	}
}

// StagedPlaceholder stands in for the staged rule file when nothing is staged
const StagedPlaceholder = "<staged>"

// SudoRuleCommand is the install invocation for a staged rule file
func (c *Configurator) SudoRuleCommand(rule config.SudoRule, staged string) executor.Command {
	cmd := executor.NewCommand(c.cmds.InstallFile, "-m", rule.Mode, staged, RulePath(rule))
	return executor.Privileged(c.cmds.Sudo, cmd)
}

// RulePath is where the rule ends up
func RulePath(rule config.SudoRule) string {
	return filepath.Join(rule.Dir, rule.Name)
}

// InstallSudoRule stages the rule in a private temporary directory and
// installs it into the sudoers directory with the configured mode. The
// staging directory is removed afterwards. A dry run stages nothing and
// only echoes the install command.
func (c *Configurator) InstallSudoRule(ctx context.Context, rule config.SudoRule) error {
	mode, err := rule.FileMode()
	if err != nil {
		return err
	}

	if c.runner.DryRun() {
		c.out.Noticef("Installing %s (will prompt for sudo if needed)…", c.out.Path(RulePath(rule)))
		return c.runner.Run(ctx, c.SudoRuleCommand(rule, StagedPlaceholder))
	}

	dir, err := afero.TempDir(c.fs, "", rule.Name)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to create staging directory")
	}
	defer func() {
		if err := c.fs.RemoveAll(dir); err != nil {
			c.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to remove staging directory")
		}
	}()

	staged := filepath.Join(dir, rule.Name)
	if err := afero.WriteFile(c.fs, staged, []byte(rule.Content), 0600); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to stage %s", rule.Name).
			WithDetail(errors.DetailPath, staged)
	}
	if err := c.fs.Chmod(staged, mode); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to set mode on %s", staged).
			WithDetail(errors.DetailPath, staged)
	}

	c.out.Noticef("Installing %s (will prompt for sudo if needed)…", c.out.Path(RulePath(rule)))
	if err := c.runner.Run(ctx, c.SudoRuleCommand(rule, staged)); err != nil {
		return err
	}

	c.logger.Info().Str("rule", RulePath(rule)).Msg("Installed sudoers rule")
	return nil
}

// DisableServiceCommand is the systemctl invocation for unit
func (c *Configurator) DisableServiceCommand(unit string) executor.Command {
	return executor.Privileged(c.cmds.Sudo, executor.NewCommand(c.cmds.Systemctl, "disable", "--now", unit))
}

// DisableService disables and stops unit
func (c *Configurator) DisableService(ctx context.Context, unit string) error {
	if unit == "" {
		return errors.New(errors.ErrInvalidInput, "service name is empty")
	}

	c.out.Noticef("Ensuring %s is disabled and stopped…", unit)
	if err := c.runner.Run(ctx, c.DisableServiceCommand(unit)); err != nil {
		return err
	}

	c.logger.Info().Str("unit", unit).Msg("Service disabled")
	return nil
}
