package packages

import (
	"context"
	"strings"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/executor"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/rs/zerolog"
)

// Outcome says what happened to one package
type Outcome string

const (
	// OutcomeSkipped means the package is switched off
	OutcomeSkipped Outcome = "skipped"
	// OutcomePresent means the probe found it
	OutcomePresent Outcome = "present"
	// OutcomeInstalled means it was installed by this run
	OutcomeInstalled Outcome = "installed"
)

// Manager checks for and installs system packages
type Manager struct {
	runner executor.Runner
	cmds   config.Commands
	out    *output.Printer
	logger zerolog.Logger
}

// New creates a package manager front end
func New(runner executor.Runner, cmds config.Commands, out *output.Printer) *Manager {
	return &Manager{
		runner: runner,
		cmds:   cmds,
		out:    out,
		logger: logging.GetLogger("packages"),
	}
}

// IsInstalled runs the probe of the given kind for name
func (m *Manager) IsInstalled(ctx context.Context, name, probe string) bool {
	var found bool
	switch probe {
	case config.ProbePackage:
		found = m.runner.Probe(ctx, m.QueryCommand(name))
	default:
		found = m.runner.LookPath(name)
	}
	m.logger.Debug().Str("package", name).Str("probe", probe).Bool("found", found).Msg("Probed package")
	return found
}

// InstallCommand is the privileged install invocation for name
func (m *Manager) InstallCommand(name string) executor.Command {
	argv := append(append([]string(nil), m.cmds.Install...), name)
	return executor.Privileged(m.cmds.Sudo, executor.NewCommand(argv...))
}

// QueryCommand is the package manager query for name
func (m *Manager) QueryCommand(name string) executor.Command {
	argv := append(append([]string(nil), m.cmds.Query...), name)
	return executor.NewCommand(argv...)
}

// Install installs name unconditionally
func (m *Manager) Install(ctx context.Context, name string) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "package name is empty")
	}
	m.out.Noticef("Installing %s with %s…", name, managerName(m.cmds.Install))
	if err := m.runner.Run(ctx, m.InstallCommand(name)); err != nil {
		return err
	}
	m.logger.Info().Str("package", name).Msg("Installed package")
	return nil
}

// EnsureTool installs the tool when it is not on PATH
func (m *Manager) EnsureTool(ctx context.Context, name string) (Outcome, error) {
	if m.IsInstalled(ctx, name, config.ProbeCommand) {
		return OutcomePresent, nil
	}
	if err := m.Install(ctx, name); err != nil {
		return "", err
	}
	return OutcomeInstalled, nil
}

// MaybeInstall installs an auxiliary package when it is enabled and its
// probe does not find it.
func (m *Manager) MaybeInstall(ctx context.Context, pkg config.AuxPackage) (Outcome, error) {
	if !pkg.Enabled {
		m.logger.Debug().Str("package", pkg.Name).Msg("Package disabled, skipping")
		return OutcomeSkipped, nil
	}
	if m.IsInstalled(ctx, pkg.Name, pkg.Probe) {
		return OutcomePresent, nil
	}
	if err := m.Install(ctx, pkg.Name); err != nil {
		return "", err
	}
	return OutcomeInstalled, nil
}

// managerName is the program behind the install command, for messages
func managerName(install []string) string {
	if len(install) == 0 {
		return "the package manager"
	}
	return strings.TrimSpace(install[0])
}
