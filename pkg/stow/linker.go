package stow

import (
	"context"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/executor"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/arthur-debert/stowup/pkg/packs"
)

// Linker links one package directory into a target directory
type Linker interface {
	// Link links pack into target. Privileged links go through the
	// privilege wrapper where the linker supports it.
	Link(ctx context.Context, pack packs.Pack, target string, privileged bool) error
	// Describe renders what Link would do, for plans
	Describe(pack packs.Pack, target string, privileged bool) string
}

// StowLinker runs the stow binary
type StowLinker struct {
	runner executor.Runner
	stow   string
	sudo   string
	root   string
}

var _ Linker = (*StowLinker)(nil)

// NewStowLinker creates a linker that runs stow from root
func NewStowLinker(runner executor.Runner, cmds config.Commands, root string) *StowLinker {
	return &StowLinker{
		runner: runner,
		stow:   cmds.Stow,
		sudo:   cmds.Sudo,
		root:   root,
	}
}

// Command is the stow invocation for pack
func (l *StowLinker) Command(pack packs.Pack, target string, privileged bool) executor.Command {
	cmd := executor.NewCommand(l.stow, "-v", "-t", target, pack.Name).InDir(l.root)
	if privileged {
		cmd = executor.Privileged(l.sudo, cmd)
	}
	return cmd
}

// Link implements Linker
func (l *StowLinker) Link(ctx context.Context, pack packs.Pack, target string, privileged bool) error {
	return l.runner.Run(ctx, l.Command(pack, target, privileged))
}

// Describe implements Linker
func (l *StowLinker) Describe(pack packs.Pack, target string, privileged bool) string {
	return l.Command(pack, target, privileged).String()
}

// New picks the linker for the configured link mode
func New(cfg *config.Config, runner executor.Runner, fsys filesystem.FS, out *output.Printer, root string) Linker {
	if cfg.Link.Mode == config.LinkModeNative {
		return NewFarmLinker(fsys, out, root, runner.DryRun())
	}
	return NewStowLinker(runner, cfg.Commands, root)
}
