// Package backup moves conflicting files out of the way before linking.
//
// A backup is a rename of <path> to <path>.bak-<timestamp>. The timestamp is
// taken once per run, at second resolution, so every backup of one run
// shares it. Backups are never deleted by stowup.
//
// Paths that already resolve into the dotfiles repository are managed by a
// previous run and are left alone when skip_managed is on.
package backup
