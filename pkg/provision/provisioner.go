package provision

import (
	"context"
	"time"

	"github.com/arthur-debert/stowup/pkg/backup"
	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/executor"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/arthur-debert/stowup/pkg/packages"
	"github.com/arthur-debert/stowup/pkg/packs"
	"github.com/arthur-debert/stowup/pkg/paths"
	"github.com/arthur-debert/stowup/pkg/stow"
	"github.com/arthur-debert/stowup/pkg/system"
	"github.com/rs/zerolog"
)

// Options carries the provisioner's collaborators
type Options struct {
	Config *config.Config
	Paths  *paths.Paths
	FS     filesystem.FS
	Runner executor.Runner
	Out    *output.Printer
	// Linker overrides the one chosen by link.mode
	Linker stow.Linker
	// Now is the clock used for backup names; defaults to time.Now
	Now func() time.Time
}

// Result is what a run did
type Result struct {
	State        State           `json:"state" yaml:"state"`
	Steps        []StepResult    `json:"steps" yaml:"steps"`
	Backups      []backup.Record `json:"backups" yaml:"backups"`
	Installed    []string        `json:"installed" yaml:"installed"`
	Linked       []string        `json:"linked" yaml:"linked"`
	SystemLinked []string        `json:"system_linked" yaml:"system_linked"`
}

// Provisioner runs the provisioning steps once
type Provisioner struct {
	cfg    *config.Config
	paths  *paths.Paths
	fs     filesystem.FS
	runner executor.Runner
	out    *output.Printer
	logger zerolog.Logger

	backuper *backup.Backuper
	packages *packages.Manager
	linker   stow.Linker
	system   *system.Configurator

	state      State
	steps      []Step
	result     *Result
	discovered *packs.Set
}

// New wires a provisioner from its options
func New(opts Options) (*Provisioner, error) {
	if opts.Config == nil || opts.Paths == nil || opts.FS == nil || opts.Runner == nil || opts.Out == nil {
		return nil, errors.New(errors.ErrInvalidInput, "provisioner needs config, paths, filesystem, runner and output")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	cfg := opts.Config
	root := opts.Paths.Root()

	linker := opts.Linker
	if linker == nil {
		linker = stow.New(cfg, opts.Runner, opts.FS, opts.Out, root)
	}

	p := &Provisioner{
		cfg:    cfg,
		paths:  opts.Paths,
		fs:     opts.FS,
		runner: opts.Runner,
		out:    opts.Out,
		logger: logging.GetLogger("provision"),
		backuper: backup.New(opts.FS, opts.Out, backup.Options{
			TimestampFormat: cfg.Backup.TimestampFormat,
			ManagedRoot:     root,
			SkipManaged:     cfg.Backup.SkipManaged,
			DryRun:          opts.Runner.DryRun(),
			Now:             opts.Now,
		}),
		packages: packages.New(opts.Runner, cfg.Commands, opts.Out),
		linker:   linker,
		system:   system.New(opts.Runner, opts.FS, opts.Out, cfg.Commands),
		state:    StateNotStarted,
		result:   &Result{State: StateNotStarted},
	}
	p.steps = p.buildSteps()
	return p, nil
}

// State returns the current lifecycle state
func (p *Provisioner) State() State {
	return p.state
}

// Steps lists the steps a run executes, in order
func (p *Provisioner) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Config returns the configuration the provisioner was built with
func (p *Provisioner) Config() *config.Config {
	return p.cfg
}

// Paths returns the resolved root and home
func (p *Provisioner) Paths() *paths.Paths {
	return p.paths
}

// DryRun reports whether mutating commands are only printed
func (p *Provisioner) DryRun() bool {
	return p.runner.DryRun()
}

// Linker returns the linker packages are linked with
func (p *Provisioner) Linker() stow.Linker {
	return p.linker
}

// Packages returns the package manager front end
func (p *Provisioner) Packages() *packages.Manager {
	return p.packages
}

// System returns the system configurator
func (p *Provisioner) System() *system.Configurator {
	return p.system
}

// Backuper returns the backuper used by the run
func (p *Provisioner) Backuper() *backup.Backuper {
	return p.backuper
}

// Run executes every step in order and stops at the first failure. It can be
// called once; later calls fail with INVALID_STATE.
func (p *Provisioner) Run(ctx context.Context) (*Result, error) {
	if p.state != StateNotStarted {
		return p.result, errors.Newf(errors.ErrInvalidState, "provisioner already %s", p.state).
			WithDetail("state", p.state.String())
	}
	p.transition(StateRunning)

	done := logging.LogOperationStart(p.logger, "provision")
	defer done()

	p.out.Noticef("Repo root: %s", p.out.Path(p.paths.Root()))
	if p.runner.DryRun() {
		p.out.Warnf("Dry run: commands and filesystem changes are printed, not performed")
	}

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return p.abort(i, cancelled(err), 0)
		}

		p.logger.Debug().Str("step", step.Name).Msg("Step started")
		start := time.Now()
		err := step.run(ctx)
		elapsed := time.Since(start)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.IsErrorCode(err, errors.ErrCommandFailed) {
				err = cancelled(ctxErr)
			}
			return p.abort(i, err, elapsed)
		}

		p.result.Steps = append(p.result.Steps, StepResult{
			Name:     step.Name,
			Status:   StepSucceeded,
			Duration: elapsed,
		})
		p.logger.Info().Str("step", step.Name).Dur("duration", elapsed).Msg("Step finished")
	}

	p.transition(StateDone)
	return p.result, nil
}

// abort records step i as failed, the rest as not run, and ends the run
func (p *Provisioner) abort(i int, err error, elapsed time.Duration) (*Result, error) {
	p.result.Steps = append(p.result.Steps, StepResult{
		Name:     p.steps[i].Name,
		Status:   StepFailed,
		Duration: elapsed,
		Err:      err,
	})
	for _, rest := range p.steps[i+1:] {
		p.result.Steps = append(p.result.Steps, StepResult{Name: rest.Name, Status: StepNotRun})
	}

	p.logger.Error().Err(err).Str("step", p.steps[i].Name).Msg("Step failed, aborting")
	p.transition(StateAborted)
	return p.result, err
}

func (p *Provisioner) transition(to State) {
	p.logger.Debug().Stringer("from", p.state).Stringer("to", to).Msg("State transition")
	p.state = to
	p.result.State = to
}

func cancelled(err error) error {
	return errors.Wrap(err, errors.ErrCancelled, "provisioning interrupted")
}
