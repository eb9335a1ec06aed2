package packs

import (
	"path/filepath"

	"github.com/arthur-debert/stowup/pkg/filesystem"
)

// IgnoreFileName marks a package directory that should not be linked
const IgnoreFileName = ".stowupignore"

// HasIgnoreFile checks if a directory contains an ignore file
func HasIgnoreFile(fsys filesystem.FS, dir string) bool {
	exists, err := filesystem.Lexists(fsys, filepath.Join(dir, IgnoreFileName))
	return err == nil && exists
}
