// Package config handles configuration management for stowup.
// It layers the embedded defaults, an optional variant overlay, the user's
// TOML or YAML file, STOWUP_* environment variables and command-line
// overrides, and decodes the result into an immutable Config.
package config
