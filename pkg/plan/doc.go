// Package plan describes what a provisioning run would do without doing it.
//
// A Document is built from a configured provisioner: the enabled steps in
// order, each with the commands or changes it would make given the current
// state of the machine (tools already on PATH, files already managed). It is
// rendered as markdown (through glamour on a terminal), YAML or JSON.
package plan
