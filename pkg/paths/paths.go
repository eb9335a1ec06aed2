package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/stowup/pkg/errors"
)

// Environment variable names
const (
	// EnvRoot is the primary environment variable for the dotfiles repository
	EnvRoot = "STOWUP_ROOT"

	// EnvDotfilesRoot is honoured for compatibility with other dotfiles tools
	EnvDotfilesRoot = "DOTFILES_ROOT"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// AppDirName is the directory name used under XDG base directories
const AppDirName = "stowup"

// Options feed New. Empty fields are discovered.
type Options struct {
	Root string
	Home string
}

// Paths holds the resolved locations for one run
type Paths struct {
	root         string
	home         string
	usedFallback bool
}

// New resolves the repository root and home directory.
// The root comes from opts.Root, then STOWUP_ROOT / DOTFILES_ROOT, then the
// enclosing git repository, and finally the working directory.
func New(opts Options) (*Paths, error) {
	p := &Paths{}

	if opts.Root != "" {
		p.root = ExpandHome(opts.Root)
	} else {
		root, usedFallback, err := findRoot()
		if err != nil {
			return nil, err
		}
		p.root = root
		p.usedFallback = usedFallback
	}

	absRoot, err := filepath.Abs(p.root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for dotfiles root")
	}
	p.root = filepath.Clean(absRoot)

	home := opts.Home
	if home == "" {
		home, err = homeDir()
		if err != nil {
			return nil, err
		}
	}
	absHome, err := filepath.Abs(ExpandHome(home))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for home")
	}
	p.home = filepath.Clean(absHome)

	return p, nil
}

// Root returns the dotfiles repository root
func (p *Paths) Root() string { return p.root }

// Home returns the directory user packages are linked into
func (p *Paths) Home() string { return p.home }

// UsedFallback reports whether the root is just the working directory
func (p *Paths) UsedFallback() bool { return p.usedFallback }

// HomePath joins a home-relative path onto the home directory
func (p *Paths) HomePath(rel string) string {
	return filepath.Join(p.home, rel)
}

// PackPath returns the directory of a package in the repository
func (p *Paths) PackPath(name string) string {
	return filepath.Join(p.root, name)
}

// InRoot reports whether path lies inside the repository root
func (p *Paths) InRoot(path string) bool {
	rel, err := filepath.Rel(p.root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ContainsHome reports whether the home directory is the repository root
// or lies inside it
func (p *Paths) ContainsHome() bool {
	return p.InRoot(p.home)
}

// StateDir returns stowup's XDG state directory
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppDirName)
}

// ConfigDir returns stowup's XDG config directory
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

func findRoot() (string, bool, error) {
	for _, name := range []string{EnvRoot, EnvDotfilesRoot} {
		if root := os.Getenv(name); root != "" {
			return ExpandHome(root), false, nil
		}
	}

	if gitRoot, err := findGitRoot(); err == nil {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileAccess, "failed to get current directory")
	}
	return cwd, true, nil
}

// findGitRoot attempts to find the root of the current git repository
func findGitRoot() (string, error) {
	output, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}

	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}
	return gitRoot, nil
}

func homeDir() (string, error) {
	if home := os.Getenv(EnvHome); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrNotFound, "cannot determine home directory")
	}
	return home, nil
}

// ExpandHome expands a leading ~ to the home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := homeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
