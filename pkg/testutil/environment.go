package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/filesystem"
	"github.com/arthur-debert/stowup/pkg/paths"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is an isolated dotfiles repository plus home directory
type TestEnvironment struct {
	Root      string
	Home      string
	StateHome string
	FS        filesystem.FS

	t *testing.T
}

// NewTestEnvironment creates the directory layout and points HOME,
// STOWUP_ROOT and the XDG base directories at it for the test's duration.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	base := t.TempDir()
	// macOS hands out /var/... which is a symlink to /private/var
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}

	env := &TestEnvironment{
		Root:      filepath.Join(base, "dotfiles"),
		Home:      filepath.Join(base, "home"),
		StateHome: filepath.Join(base, "state"),
		FS:        filesystem.NewOS(),
		t:         t,
	}

	for _, dir := range []string{env.Root, env.Home, env.StateHome} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	t.Setenv(paths.EnvHome, env.Home)
	t.Setenv(paths.EnvRoot, env.Root)
	t.Setenv(paths.EnvDotfilesRoot, "")
	t.Setenv("XDG_STATE_HOME", env.StateHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(env.Home, ".config"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	return env
}

// Paths resolves the environment's root and home
func (env *TestEnvironment) Paths() *paths.Paths {
	env.t.Helper()
	p, err := paths.New(paths.Options{Root: env.Root, Home: env.Home})
	require.NoError(env.t, err)
	return p
}

// Config returns the built-in configuration for variant
func (env *TestEnvironment) Config(variant string) *config.Config {
	env.t.Helper()
	cfg, err := config.Default(variant)
	require.NoError(env.t, err)
	return cfg
}

// HomePath joins rel onto the home directory
func (env *TestEnvironment) HomePath(rel string) string {
	return filepath.Join(env.Home, rel)
}

// RepoPath joins rel onto the repository root
func (env *TestEnvironment) RepoPath(rel string) string {
	return filepath.Join(env.Root, rel)
}

// WriteHomeFile creates a file under the home directory and returns its path
func (env *TestEnvironment) WriteHomeFile(rel, content string) string {
	env.t.Helper()
	path := env.HomePath(rel)
	writeFile(env.t, path, content)
	return path
}

// WriteRepoFile creates a file under the repository root and returns its path
func (env *TestEnvironment) WriteRepoFile(rel, content string) string {
	env.t.Helper()
	path := env.RepoPath(rel)
	writeFile(env.t, path, content)
	return path
}

// MkdirHome creates a directory under the home directory
func (env *TestEnvironment) MkdirHome(rel string) string {
	env.t.Helper()
	path := env.HomePath(rel)
	require.NoError(env.t, os.MkdirAll(path, 0755))
	return path
}

// MkdirRepo creates a directory under the repository root
func (env *TestEnvironment) MkdirRepo(rel string) string {
	env.t.Helper()
	path := env.RepoPath(rel)
	require.NoError(env.t, os.MkdirAll(path, 0755))
	return path
}

// Symlink creates link pointing at target, creating link's parent
func (env *TestEnvironment) Symlink(target, link string) {
	env.t.Helper()
	require.NoError(env.t, os.MkdirAll(filepath.Dir(link), 0755))
	require.NoError(env.t, os.Symlink(target, link))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
