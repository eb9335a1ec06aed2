package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSymlinkTo checks that link is a symlink resolving to dest
func AssertSymlinkTo(t *testing.T, link, dest string) {
	t.Helper()

	info, err := os.Lstat(link)
	require.NoError(t, err, "expected symlink at %s", link)
	require.True(t, info.Mode()&os.ModeSymlink != 0, "%s is not a symlink", link)

	target, err := os.Readlink(link)
	require.NoError(t, err)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	assert.Equal(t, filepath.Clean(dest), filepath.Clean(target), "symlink %s", link)
}

// AssertFileContent checks a regular file's content
func AssertFileContent(t *testing.T, path, want string) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	assert.Equal(t, want, string(data), "content of %s", path)
}

// AssertNotExists checks that nothing, not even a dangling symlink, is at path
func AssertNotExists(t *testing.T, path string) {
	t.Helper()

	_, err := os.Lstat(path)
	assert.True(t, os.IsNotExist(err), "expected %s to be absent, got err=%v", path, err)
}

// BackupsOf lists the backups made of path
func BackupsOf(t *testing.T, path string) []string {
	t.Helper()

	matches, err := filepath.Glob(path + ".bak-*")
	require.NoError(t, err)
	return matches
}
