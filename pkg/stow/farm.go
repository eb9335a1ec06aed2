package stow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/arthur-debert/stowup/pkg/packs"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ignored entries are never linked, matching stow's default ignore list
var ignored = []string{
	".git", ".gitignore", ".gitmodules", ".hg", ".svn", "CVS", "RCS",
	packs.IgnoreFileName, "README*", "LICENSE*", "COPYING",
}

// Link is one symlink the farm will create
type Link struct {
	// Path is where the symlink goes
	Path string
	// Dest is the relative destination written into it
	Dest string
}

// Conflict is a destination occupied by something that is not ours
type Conflict struct {
	Path   string
	Source string
	Reason string
}

// Plan is what linking one package would do
type Plan struct {
	Links     []Link
	Existing  []string
	Conflicts []Conflict
}

// Vacater is implemented by linkers that plan against the filesystem.
// Vacated paths are planned as absent even while they still exist, which is
// the case for backups announced in a dry run.
type Vacater interface {
	Vacate(paths ...string)
}

// FarmLinker builds symlink farms through the filesystem abstraction
type FarmLinker struct {
	fs      filesystem.FS
	out     *output.Printer
	root    string
	dryRun  bool
	vacated map[string]bool
	logger  zerolog.Logger
}

var (
	_ Linker  = (*FarmLinker)(nil)
	_ Vacater = (*FarmLinker)(nil)
)

// NewFarmLinker creates a native linker for packages under root
func NewFarmLinker(fsys filesystem.FS, out *output.Printer, root string, dryRun bool) *FarmLinker {
	return &FarmLinker{
		fs:      fsys,
		out:     out,
		root:    root,
		dryRun:  dryRun,
		vacated: make(map[string]bool),
		logger:  logging.GetLogger("stow.farm"),
	}
}

// Vacate implements Vacater
func (l *FarmLinker) Vacate(paths ...string) {
	for _, p := range paths {
		l.vacated[filepath.Clean(p)] = true
	}
}

// Describe implements Linker
func (l *FarmLinker) Describe(pack packs.Pack, target string, _ bool) string {
	return fmt.Sprintf("symlink farm %s → %s", pack.Path, target)
}

// Link implements Linker. The privilege wrapper is not used; linking into a
// directory the current user cannot write fails with LINK_CREATE.
func (l *FarmLinker) Link(ctx context.Context, pack packs.Pack, target string, _ bool) error {
	plan, err := l.Plan(pack, target)
	if err != nil {
		return err
	}

	if len(plan.Conflicts) > 0 {
		for _, c := range plan.Conflicts {
			l.out.Warnf("CONFLICT: %s (%s)", c.Path, c.Reason)
		}
		first := plan.Conflicts[0]
		return errors.Newf(errors.ErrLinkConflict, "cannot link package %s: %d conflicting paths", pack.Name, len(plan.Conflicts)).
			WithDetail(errors.DetailPath, first.Path).
			WithDetail("pack", pack.Name).
			WithDetail("conflicts", len(plan.Conflicts))
	}

	for _, link := range plan.Links {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrLinkCreate, "linking interrupted")
		}

		l.out.Noticef("LINK: %s => %s", l.out.Path(link.Path), link.Dest)
		if l.dryRun {
			continue
		}
		if err := l.fs.SymlinkIfPossible(link.Dest, link.Path); err != nil {
			return errors.Wrapf(err, errors.ErrLinkCreate, "failed to create symlink %s", link.Path).
				WithDetail(errors.DetailPath, link.Path).
				WithDetail("pack", pack.Name)
		}
	}

	l.logger.Info().
		Str("pack", pack.Name).
		Str("target", target).
		Int("created", len(plan.Links)).
		Int("existing", len(plan.Existing)).
		Msg("Linked package")
	return nil
}

// Plan walks pack and decides every link without changing anything
func (l *FarmLinker) Plan(pack packs.Pack, target string) (*Plan, error) {
	info, err := l.fs.Stat(pack.Path)
	if err != nil || !info.IsDir() {
		return nil, errors.Newf(errors.ErrNotFound, "package directory %s not found", pack.Path).
			WithDetail(errors.DetailPath, pack.Path)
	}

	plan := &Plan{}
	if err := l.planDir(plan, pack.Path, target); err != nil {
		return nil, err
	}
	return plan, nil
}

func (l *FarmLinker) planDir(plan *Plan, srcDir, dstDir string) error {
	entries, err := afero.ReadDir(l.fs, srcDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", srcDir).
			WithDetail(errors.DetailPath, srcDir)
	}

	for _, entry := range entries {
		name := entry.Name()
		if isIgnored(name) {
			continue
		}
		src := filepath.Join(srcDir, name)
		dst := filepath.Join(dstDir, name)

		if err := l.planEntry(plan, src, dst); err != nil {
			return err
		}
	}
	return nil
}

func (l *FarmLinker) planEntry(plan *Plan, src, dst string) error {
	dstInfo, _, err := l.fs.LstatIfPossible(dst)
	if err == nil && l.vacated[dst] {
		err = os.ErrNotExist
	}
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot inspect %s", dst).
			WithDetail(errors.DetailPath, dst)
	}

	if os.IsNotExist(err) {
		dest, err := l.relativeDest(src, filepath.Dir(dst))
		if err != nil {
			return err
		}
		plan.Links = append(plan.Links, Link{Path: dst, Dest: dest})
		return nil
	}

	if dstInfo.Mode()&os.ModeSymlink != 0 {
		if l.sameFile(src, dst) {
			plan.Existing = append(plan.Existing, dst)
			return nil
		}
		plan.Conflicts = append(plan.Conflicts, Conflict{Path: dst, Source: src, Reason: "existing symlink points elsewhere"})
		return nil
	}

	srcInfo, err := l.fs.Stat(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot inspect %s", src).
			WithDetail(errors.DetailPath, src)
	}
	if dstInfo.IsDir() && srcInfo.IsDir() {
		return l.planDir(plan, src, dst)
	}

	plan.Conflicts = append(plan.Conflicts, Conflict{Path: dst, Source: src, Reason: "existing target is not owned by stowup"})
	return nil
}

// relativeDest computes the link text for a symlink in dstDir pointing at
// src, relative to where dstDir really is.
func (l *FarmLinker) relativeDest(src, dstDir string) (string, error) {
	realDir, err := filesystem.RealPath(l.fs, dstDir)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", dstDir)
	}
	realSrc, err := filesystem.RealPath(l.fs, src)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", src)
	}
	rel, err := filepath.Rel(realDir, realSrc)
	if err != nil {
		return realSrc, nil
	}
	return rel, nil
}

func (l *FarmLinker) sameFile(src, dst string) bool {
	a, err := filesystem.RealPath(l.fs, src)
	if err != nil {
		return false
	}
	b, err := filesystem.RealPath(l.fs, dst)
	if err != nil {
		return false
	}
	return a == b
}

func isIgnored(name string) bool {
	for _, pattern := range ignored {
		if strings.ContainsAny(pattern, "*?[") {
			if ok, _ := filepath.Match(pattern, name); ok {
				return true
			}
			continue
		}
		if pattern == name {
			return true
		}
	}
	return false
}
