package packs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/logging"
	"github.com/spf13/afero"
)

// Pack is one package directory of the repository
type Pack struct {
	Name string
	Path string
	// System packages are linked into the filesystem root
	System bool
}

// Options is the discovery filter
type Options struct {
	Skip          []string
	AllowedHidden []string
	// System names the packages linked into the filesystem root. Leave it
	// empty when the system package feature is off.
	System []string
}

// Set is the outcome of one discovery
type Set struct {
	Packs []Pack
	// MissingSystem lists configured system packages with no directory
	MissingSystem []string
}

// User returns the packages linked into the home directory
func (s *Set) User() []Pack {
	var user []Pack
	for _, p := range s.Packs {
		if !p.System {
			user = append(user, p)
		}
	}
	return user
}

// System returns the packages linked into the filesystem root, in the order
// they were configured.
func (s *Set) System(order []string) []Pack {
	byName := make(map[string]Pack)
	for _, p := range s.Packs {
		if p.System {
			byName[p.Name] = p
		}
	}

	var system []Pack
	for _, name := range order {
		if p, ok := byName[name]; ok {
			system = append(system, p)
		}
	}
	return system
}

// Names returns the package names
func Names(packs []Pack) []string {
	names := make([]string, 0, len(packs))
	for _, p := range packs {
		names = append(names, p.Name)
	}
	return names
}

// Discover lists the package directories under root, sorted by name
func Discover(fsys filesystem.FS, root string, opts Options) (*Set, error) {
	logger := logging.GetLogger("packs.discovery")
	logger.Trace().Str("root", root).Msg("Discovering packages")

	info, err := fsys.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrNotFound, "dotfiles root does not exist").
				WithDetail(errors.DetailPath, root)
		}
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot access dotfiles root").
			WithDetail(errors.DetailPath, root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrInvalidInput, "dotfiles root is not a directory").
			WithDetail(errors.DetailPath, root)
	}

	// afero.ReadDir sorts by name
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot read dotfiles root").
			WithDetail(errors.DetailPath, root)
	}

	skip := toSet(opts.Skip)
	allowedHidden := toSet(opts.AllowedHidden)
	system := toSet(opts.System)

	set := &Set{}
	found := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(root, name)

		if skip[name] {
			logger.Trace().Str("name", name).Msg("Skipping directory in skip set")
			continue
		}
		if strings.HasPrefix(name, ".") && !allowedHidden[name] {
			logger.Trace().Str("name", name).Msg("Skipping hidden directory")
			continue
		}
		if !isDir(fsys, path, entry) {
			continue
		}
		if HasIgnoreFile(fsys, path) {
			logger.Info().Str("pack", name).Msg("Package is skipped due to " + IgnoreFileName)
			continue
		}

		pack := Pack{Name: name, Path: path, System: system[name]}
		set.Packs = append(set.Packs, pack)
		found[name] = true
		logger.Trace().Str("name", name).Bool("system", pack.System).Msg("Found package")
	}

	for _, name := range opts.System {
		if !found[name] {
			set.MissingSystem = append(set.MissingSystem, name)
			logger.Debug().Str("pack", name).Msg("System package directory not found")
		}
	}

	logger.Info().Int("count", len(set.Packs)).Msg("Discovered packages")
	return set, nil
}

// isDir follows symlinked entries so a linked-in package still counts
func isDir(fsys filesystem.FS, path string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir()
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
