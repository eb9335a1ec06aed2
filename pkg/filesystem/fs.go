package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FS is an afero filesystem with symlink support
type FS interface {
	afero.Fs
	afero.Symlinker
}

var _ FS = &afero.OsFs{}

// NewOS creates a new OS filesystem implementation
func NewOS() FS {
	return &afero.OsFs{}
}

// Lexists reports whether path exists without following a final symlink,
// so dangling links count as present.
func Lexists(fsys FS, path string) (bool, error) {
	_, _, err := fsys.LstatIfPossible(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsSymlink reports whether path itself is a symlink
func IsSymlink(fsys FS, path string) (bool, error) {
	info, _, err := fsys.LstatIfPossible(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode()&fs.ModeSymlink != 0, nil
}

// ResolveLink returns the absolute, cleaned destination of the symlink at path
func ResolveLink(fsys FS, path string) (string, error) {
	dest, err := fsys.ReadlinkIfPossible(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(path), dest)
	}
	return filepath.Clean(dest), nil
}

// maxLinkHops bounds symlink resolution in RealPath
const maxLinkHops = 255

// RealPath resolves every symlink along the absolute path p, like
// filepath.EvalSymlinks but through fsys. Components that do not exist are
// appended unresolved, so the result names where p would live.
func RealPath(fsys FS, p string) (string, error) {
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("RealPath needs an absolute path, got %q", p)
	}

	resolved := string(filepath.Separator)
	pending := splitPath(p)
	hops := 0

	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		switch part {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, part)
		info, _, err := fsys.LstatIfPossible(next)
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.Join(append([]string{next}, pending...)...), nil
			}
			return "", err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", fmt.Errorf("too many levels of symbolic links resolving %q", p)
		}
		dest, err := fsys.ReadlinkIfPossible(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(dest) {
			resolved = string(filepath.Separator)
		}
		pending = append(splitPath(dest), pending...)
	}

	return resolved, nil
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}
