// Package provision runs the provisioning sequence.
//
// A Provisioner is built from an immutable config.Config and runs a fixed,
// ordered list of steps exactly once:
//
//	ensure-stow           install stow when missing (stow link mode only)
//	backup-configs        move conflicting dotfiles aside
//	aux-packages          install enabled auxiliary packages
//	link-packages         link every user package into the home directory
//	link-system-packages  link system packages into / (extended)
//	sudo-rule             install the sudoers drop-in (extended)
//	disable-services      disable and stop services (extended)
//
// Steps whose feature is off are not part of the run at all. The first
// failing step aborts the run; completed steps are not rolled back.
//
// State machine:
//
//	NotStarted -> Running -> Done
//	                     \-> Aborted
package provision
