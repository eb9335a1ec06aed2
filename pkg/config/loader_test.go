package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefault_Basic(t *testing.T) {
	cfg, err := Default(VariantBasic)
	require.NoError(t, err)

	assert.Equal(t, VariantBasic, cfg.Variant)
	assert.Equal(t, []string{"scripts", ".git", "__pycache__"}, cfg.Repo.Skip)
	assert.Equal(t, []string{".config"}, cfg.Repo.AllowedHidden)
	assert.Equal(t, []string{".bashrc", ".bash_profile"}, cfg.Backup.Files)
	assert.Equal(t, []string{".config/hypr/*.conf"}, cfg.Backup.Globs)
	assert.Equal(t, "20060102-150405", cfg.Backup.TimestampFormat)
	assert.Equal(t, LinkModeStow, cfg.Link.Mode)
	assert.Equal(t, []string{"pacman", "-S", "--needed", "--noconfirm"}, cfg.Commands.Install)

	assert.False(t, cfg.Features.SystemPackages)
	assert.False(t, cfg.Features.SudoRule)
	assert.False(t, cfg.Features.DisableServices)

	require.Len(t, cfg.Aux, 2)
	assert.Equal(t, AuxPackage{Name: "dropbox", Probe: ProbeCommand, Enabled: true}, cfg.Aux[0])
	assert.Equal(t, AuxPackage{Name: "keyd", Probe: ProbePackage, Enabled: false}, cfg.Aux[1])
}

func TestDefault_Extended(t *testing.T) {
	cfg, err := Default(VariantExtended)
	require.NoError(t, err)

	assert.Equal(t, VariantExtended, cfg.Variant)
	assert.True(t, cfg.Features.SystemPackages)
	assert.True(t, cfg.Features.SudoRule)
	assert.True(t, cfg.Features.DisableServices)
	assert.Equal(t, []string{"keyd"}, cfg.Link.SystemPackages)
	assert.Equal(t, "/", cfg.Link.SystemTarget)
	assert.Equal(t, []string{"keyd"}, cfg.Services.Disable)

	require.Len(t, cfg.Aux, 2)
	assert.True(t, cfg.Aux[1].Enabled)

	mode, err := cfg.SudoRule.FileMode()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o440), mode)
	assert.Equal(t, "%wheel ALL=(ALL) NOPASSWD: /usr/bin/systemctl start keyd, /usr/bin/systemctl stop keyd\n", cfg.SudoRule.Content)
}

func TestLoad_RootTomlOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stowup.toml"), `
[link]
mode = "native"

[repo]
skip = ["scripts", ".git", "docs"]
`)

	cfg, err := Load(LoadOptions{DotfilesRoot: root})
	require.NoError(t, err)

	assert.Equal(t, LinkModeNative, cfg.Link.Mode)
	assert.Equal(t, []string{"scripts", ".git", "docs"}, cfg.Repo.Skip)
	// untouched keys keep their defaults
	assert.Equal(t, []string{".config"}, cfg.Repo.AllowedHidden)
}

func TestLoad_VariantFromFileEnablesOverlay(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stowup.toml"), `variant = "extended"`)

	cfg, err := Load(LoadOptions{DotfilesRoot: root})
	require.NoError(t, err)

	assert.Equal(t, VariantExtended, cfg.Variant)
	assert.True(t, cfg.Features.SudoRule)
}

func TestLoad_UserFileWinsOverOverlay(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stowup.toml"), `
variant = "extended"

[features]
sudo_rule = false
`)

	cfg, err := Load(LoadOptions{DotfilesRoot: root})
	require.NoError(t, err)

	assert.True(t, cfg.Features.SystemPackages)
	assert.False(t, cfg.Features.SudoRule)
}

func TestLoad_YAMLFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stowup.yaml"), `
link:
  mode: native
backup:
  files: [".zshrc"]
`)

	cfg, err := Load(LoadOptions{DotfilesRoot: root})
	require.NoError(t, err)

	assert.Equal(t, LinkModeNative, cfg.Link.Mode)
	assert.Equal(t, []string{".zshrc"}, cfg.Backup.Files)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `home = "/srv/home"`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "/srv/home", cfg.Home)

	_, err = Load(LoadOptions{ConfigFile: filepath.Join(dir, "missing.toml")})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STOWUP_LINK_MODE", "native")
	t.Setenv("STOWUP_BACKUP_SKIP_MANAGED", "false")
	t.Setenv("STOWUP_REPO_SKIP", "scripts,.git,tmp")

	cfg, err := Load(LoadOptions{DotfilesRoot: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, LinkModeNative, cfg.Link.Mode)
	assert.False(t, cfg.Backup.SkipManaged)
	assert.Equal(t, []string{"scripts", ".git", "tmp"}, cfg.Repo.Skip)
}

func TestLoad_VariantOverrideBeatsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stowup.toml"), `variant = "extended"`)

	cfg, err := Load(LoadOptions{DotfilesRoot: root, Variant: VariantBasic})
	require.NoError(t, err)

	assert.Equal(t, VariantBasic, cfg.Variant)
	assert.False(t, cfg.Features.SudoRule)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown link mode", "[link]\nmode = \"hardlink\"\n"},
		{"unknown variant", "variant = \"deluxe\"\n"},
		{"unknown probe", "[[aux]]\nname = \"x\"\nprobe = \"guess\"\nenabled = true\n"},
		{"nameless aux", "[[aux]]\nprobe = \"command\"\nenabled = true\n"},
		{"bad sudo mode", "variant = \"extended\"\n[sudo_rule]\nmode = \"rw\"\n"},
		{"empty timestamp format", "[backup]\ntimestamp_format = \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, "stowup.toml"), tt.content)

			_, err := Load(LoadOptions{DotfilesRoot: root})
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid), "got %v", err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "stowup.toml"), "[link\nmode=")

	_, err := Load(LoadOptions{DotfilesRoot: root})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "link.mode", envKey("STOWUP_LINK_MODE"))
	assert.Equal(t, "sudo_rule.name", envKey("STOWUP_SUDO_RULE_NAME"))
	assert.Equal(t, "backup.timestamp_format", envKey("STOWUP_BACKUP_TIMESTAMP_FORMAT"))
	assert.Equal(t, "variant", envKey("STOWUP_VARIANT"))
}
