// Package packages installs missing system packages with the system package
// manager (pacman by default).
//
// Presence is checked with a probe: a PATH lookup for tools, or a package
// manager query for packages that ship no command of the same name. Probes
// are read-only and run even in dry-run mode. Installs go through the
// privilege wrapper and abort the run when they fail.
package packages
