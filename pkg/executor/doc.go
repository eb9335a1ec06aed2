// Package executor runs the external programs stowup drives: the package
// manager, stow, sudo and systemctl.
//
// Every mutating command is echoed before it runs and shares the terminal
// with stowup, so prompts (sudo passwords, pacman questions) work as they
// would in a shell script. A non-zero exit becomes a COMMAND_FAILED error
// carrying the printable command line. Probes are silent and only report
// success or failure.
package executor
