// Package packs discovers the package directories of a dotfiles repository.
//
// A package is an immediate child directory of the repository root. Each one
// is handed to the linker as a unit. Discovery applies, in order:
//
//   - the skip set (repo.skip; scripts, .git and __pycache__ by default)
//   - the hidden filter: names starting with "." are skipped unless listed
//     in repo.allowed_hidden (.config by default)
//   - a directory check: loose files in the root are never packages
//   - the ignore file: a package containing .stowupignore is skipped
//
// Packages named in link.system_packages are flagged as system packages when
// that feature is on. They are linked into the filesystem root instead of
// the home directory.
package packs
