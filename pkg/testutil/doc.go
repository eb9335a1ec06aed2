// Package testutil provides helpers for testing stowup components.
//
// Key components:
//   - TestEnvironment: an isolated repository root and home directory under
//     t.TempDir(), with HOME and the XDG variables pointed inside it
//   - MockRunner: a testify mock standing in for external commands
//   - assertions for symlinks and file content
//
// Filesystem tests run against the real filesystem through afero's OsFs,
// since the provisioner's behaviour depends on symlinks.
package testutil
