package provision

import (
	"context"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/packages"
	"github.com/arthur-debert/stowup/pkg/packs"
	"github.com/arthur-debert/stowup/pkg/stow"
)

// Step names
const (
	StepEnsureStow         = "ensure-stow"
	StepBackupConfigs      = "backup-configs"
	StepAuxPackages        = "aux-packages"
	StepLinkPackages       = "link-packages"
	StepLinkSystemPackages = "link-system-packages"
	StepSudoRule           = "sudo-rule"
	StepDisableServices    = "disable-services"
)

// Step is one scheduled unit of the run
type Step struct {
	Name        string
	Description string
	run         func(ctx context.Context) error
}

// buildSteps returns the enabled steps in execution order
func (p *Provisioner) buildSteps() []Step {
	cfg := p.cfg
	var steps []Step

	if cfg.UsesStow() {
		steps = append(steps, Step{
			Name:        StepEnsureStow,
			Description: "Install " + cfg.Commands.Stow + " if it is not on PATH",
			run:         p.ensureStow,
		})
	}

	steps = append(steps, Step{
		Name:        StepBackupConfigs,
		Description: "Back up existing dotfiles that would conflict",
		run:         p.backupConfigs,
	})

	if len(enabledAux(cfg.Aux)) > 0 {
		steps = append(steps, Step{
			Name:        StepAuxPackages,
			Description: "Install auxiliary packages that are missing",
			run:         p.auxPackages,
		})
	}

	steps = append(steps, Step{
		Name:        StepLinkPackages,
		Description: "Link packages into " + p.paths.Home(),
		run:         p.linkPackages,
	})

	if cfg.Features.SystemPackages {
		steps = append(steps, Step{
			Name:        StepLinkSystemPackages,
			Description: "Link system packages into " + cfg.Link.SystemTarget,
			run:         p.linkSystemPackages,
		})
	}

	if cfg.Features.SudoRule {
		steps = append(steps, Step{
			Name:        StepSudoRule,
			Description: "Install sudoers rule " + cfg.SudoRule.Name,
			run:         p.installSudoRule,
		})
	}

	if cfg.Features.DisableServices && len(cfg.Services.Disable) > 0 {
		steps = append(steps, Step{
			Name:        StepDisableServices,
			Description: "Disable and stop services",
			run:         p.disableServices,
		})
	}

	return steps
}

func (p *Provisioner) ensureStow(ctx context.Context) error {
	outcome, err := p.packages.EnsureTool(ctx, p.cfg.Commands.Stow)
	if err != nil {
		return err
	}
	if outcome == packages.OutcomeInstalled {
		p.result.Installed = append(p.result.Installed, p.cfg.Commands.Stow)
	}
	return nil
}

func (p *Provisioner) backupConfigs(_ context.Context) error {
	records, err := p.backuper.BackupConfigs(p.paths.Home(), p.cfg.Backup)
	p.result.Backups = append(p.result.Backups, records...)

	// In a dry run the originals are still in place
	if v, ok := p.linker.(stow.Vacater); ok && p.runner.DryRun() {
		for _, r := range records {
			v.Vacate(r.Original)
		}
	}
	return err
}

func (p *Provisioner) auxPackages(ctx context.Context) error {
	for _, aux := range p.cfg.Aux {
		outcome, err := p.packages.MaybeInstall(ctx, aux)
		if err != nil {
			return err
		}
		if outcome == packages.OutcomeInstalled {
			p.result.Installed = append(p.result.Installed, aux.Name)
		}
	}
	return nil
}

func (p *Provisioner) linkPackages(ctx context.Context) error {
	set, err := p.Discover()
	if err != nil {
		return err
	}

	home := p.paths.Home()
	for _, pack := range set.User() {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		p.out.Noticef("Stowing %s/ → %s", pack.Name, p.out.Path(home))
		if err := p.linker.Link(ctx, pack, home, false); err != nil {
			return err
		}
		p.result.Linked = append(p.result.Linked, pack.Name)
	}
	return nil
}

func (p *Provisioner) linkSystemPackages(ctx context.Context) error {
	set, err := p.Discover()
	if err != nil {
		return err
	}

	target := p.cfg.Link.SystemTarget
	for _, name := range set.MissingSystem {
		p.logger.Debug().Str("pack", name).Msg("System package has no directory, skipping")
	}
	for _, pack := range set.System(p.cfg.Link.SystemPackages) {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		p.out.Noticef("Stowing system package %s/ → %s", pack.Name, p.out.Path(target))
		if err := p.linker.Link(ctx, pack, target, true); err != nil {
			return err
		}
		p.result.SystemLinked = append(p.result.SystemLinked, pack.Name)
	}
	return nil
}

func (p *Provisioner) installSudoRule(ctx context.Context) error {
	return p.system.InstallSudoRule(ctx, p.cfg.SudoRule)
}

func (p *Provisioner) disableServices(ctx context.Context) error {
	for _, unit := range p.cfg.Services.Disable {
		if err := p.system.DisableService(ctx, unit); err != nil {
			return err
		}
	}
	return nil
}

// Discover finds the repository's packages once per provisioner
func (p *Provisioner) Discover() (*packs.Set, error) {
	if p.discovered != nil {
		return p.discovered, nil
	}

	opts := packs.Options{
		Skip:          p.cfg.Repo.Skip,
		AllowedHidden: p.cfg.Repo.AllowedHidden,
	}
	if p.cfg.Features.SystemPackages {
		opts.System = p.cfg.Link.SystemPackages
	}

	set, err := packs.Discover(p.fs, p.paths.Root(), opts)
	if err != nil {
		return nil, err
	}
	p.discovered = set
	return set, nil
}

func enabledAux(aux []config.AuxPackage) []config.AuxPackage {
	var enabled []config.AuxPackage
	for _, a := range aux {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}
	return enabled
}
