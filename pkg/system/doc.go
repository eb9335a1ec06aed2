// Package system holds the provisioning steps that change system-wide
// state: installing a sudoers drop-in and disabling systemd services.
// Both go through the privilege wrapper and are safe to repeat.
package system
