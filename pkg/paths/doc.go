// Package paths resolves the directories stowup works with: the dotfiles
// repository root, the home directory packages are linked into, and the
// XDG state directory.
package paths
