package plan

import (
	"context"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/packs"
	"github.com/arthur-debert/stowup/pkg/provision"
	"github.com/arthur-debert/stowup/pkg/system"
)

// Document is a rendered-ready plan
type Document struct {
	Variant  string `json:"variant" yaml:"variant"`
	Root     string `json:"root" yaml:"root"`
	Home     string `json:"home" yaml:"home"`
	LinkMode string `json:"link_mode" yaml:"link_mode"`
	DryRun   bool   `json:"dry_run" yaml:"dry_run"`

	Packages       []string `json:"packages" yaml:"packages"`
	SystemPackages []string `json:"system_packages,omitempty" yaml:"system_packages,omitempty"`
	Steps          []Step   `json:"steps" yaml:"steps"`
}

// Step is one planned step
type Step struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Actions     []string `json:"actions" yaml:"actions"`
}

// Build inspects the machine and describes every step p would run
func Build(ctx context.Context, p *provision.Provisioner) (*Document, error) {
	cfg := p.Config()
	home := p.Paths().Home()

	set, err := p.Discover()
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Variant:  cfg.Variant,
		Root:     p.Paths().Root(),
		Home:     home,
		LinkMode: cfg.Link.Mode,
		DryRun:   p.DryRun(),
		Packages: packs.Names(set.User()),
	}
	systemPacks := set.System(cfg.Link.SystemPackages)
	if cfg.Features.SystemPackages {
		doc.SystemPackages = packs.Names(systemPacks)
	}

	for _, step := range p.Steps() {
		planned := Step{Name: step.Name, Description: step.Description}

		switch step.Name {
		case provision.StepEnsureStow:
			planned.Actions = ensureTool(ctx, p, cfg.Commands.Stow)

		case provision.StepBackupConfigs:
			pending, err := p.Backuper().Pending(home, cfg.Backup)
			if err != nil {
				return nil, err
			}
			for _, path := range pending {
				planned.Actions = append(planned.Actions, "move "+path+" -> "+p.Backuper().PathFor(path))
			}

		case provision.StepAuxPackages:
			for _, aux := range cfg.Aux {
				if !aux.Enabled {
					continue
				}
				if p.Packages().IsInstalled(ctx, aux.Name, aux.Probe) {
					planned.Actions = append(planned.Actions, aux.Name+" is already installed")
					continue
				}
				planned.Actions = append(planned.Actions, p.Packages().InstallCommand(aux.Name).String())
			}

		case provision.StepLinkPackages:
			for _, pack := range set.User() {
				planned.Actions = append(planned.Actions, p.Linker().Describe(pack, home, false))
			}

		case provision.StepLinkSystemPackages:
			for _, pack := range systemPacks {
				planned.Actions = append(planned.Actions, p.Linker().Describe(pack, cfg.Link.SystemTarget, true))
			}

		case provision.StepSudoRule:
			planned.Actions = append(planned.Actions,
				p.System().SudoRuleCommand(cfg.SudoRule, system.StagedPlaceholder).String())

		case provision.StepDisableServices:
			for _, unit := range cfg.Services.Disable {
				planned.Actions = append(planned.Actions, p.System().DisableServiceCommand(unit).String())
			}
		}

		doc.Steps = append(doc.Steps, planned)
	}

	return doc, nil
}

func ensureTool(ctx context.Context, p *provision.Provisioner, name string) []string {
	if p.Packages().IsInstalled(ctx, name, config.ProbeCommand) {
		return []string{name + " is already installed"}
	}
	return []string{p.Packages().InstallCommand(name).String()}
}
