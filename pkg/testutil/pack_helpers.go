package testutil

import (
	"path/filepath"
)

// CreatePack creates a package directory in the repository with the given
// files, keyed by path relative to the package.
func (env *TestEnvironment) CreatePack(name string, files map[string]string) string {
	env.t.Helper()
	dir := env.MkdirRepo(name)
	for rel, content := range files {
		writeFile(env.t, filepath.Join(dir, rel), content)
	}
	return dir
}

// SetupScenarioRepo lays out the usual repository shape: two user packages
// (bash, hypr) next to the repository's own .git and scripts directories
// and a loose README file.
func (env *TestEnvironment) SetupScenarioRepo() {
	env.t.Helper()
	env.CreatePack("bash", map[string]string{
		".bashrc":       "# repo bashrc\n",
		".bash_profile": "# repo bash_profile\n",
	})
	env.CreatePack("hypr", map[string]string{
		".config/hypr/hyprland.conf": "# repo hyprland\n",
	})
	env.CreatePack(".git", map[string]string{"HEAD": "ref: refs/heads/main\n"})
	env.CreatePack("scripts", map[string]string{"install.sh": "#!/bin/sh\n"})
	env.WriteRepoFile("README.md", "# dotfiles\n")
}
