// Package filesystem provides the filesystem abstraction used by stowup.
//
// Everything that touches the disk goes through FS, an afero filesystem
// that can also create and read symlinks.
package filesystem
