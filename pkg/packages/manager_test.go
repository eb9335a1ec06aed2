package packages_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/arthur-debert/stowup/pkg/packages"
	"github.com/arthur-debert/stowup/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultCommands() config.Commands {
	return config.Commands{
		Sudo:    "sudo",
		Install: []string{"pacman", "-S", "--needed", "--noconfirm"},
		Query:   []string{"pacman", "-Qi"},
	}
}

func newManager(runner *testutil.MockRunner) (*packages.Manager, *bytes.Buffer) {
	var buf bytes.Buffer
	return packages.New(runner, defaultCommands(), output.NewPlain(&buf)), &buf
}

func TestEnsureTool_Present(t *testing.T) {
	runner := testutil.NewMockRunner()
	runner.On("LookPath", "stow").Return(true)
	m, out := newManager(runner)

	outcome, err := m.EnsureTool(context.Background(), "stow")
	require.NoError(t, err)
	assert.Equal(t, packages.OutcomePresent, outcome)
	assert.Empty(t, runner.RunLines())
	assert.Empty(t, out.String())
	runner.AssertExpectations(t)
}

func TestEnsureTool_Installs(t *testing.T) {
	runner := testutil.NewMockRunner()
	runner.On("LookPath", "stow").Return(false)
	runner.On("Run", "sudo pacman -S --needed --noconfirm stow").Return(nil)
	m, out := newManager(runner)

	outcome, err := m.EnsureTool(context.Background(), "stow")
	require.NoError(t, err)
	assert.Equal(t, packages.OutcomeInstalled, outcome)
	assert.Equal(t, "Installing stow with pacman…\n", out.String())
	runner.AssertExpectations(t)
}

func TestEnsureTool_InstallFailureAborts(t *testing.T) {
	runner := testutil.NewMockRunner()
	runner.On("LookPath", "stow").Return(false)
	failure := errors.New(errors.ErrCommandFailed, "boom").
		WithDetail(errors.DetailCommand, "sudo pacman -S --needed --noconfirm stow")
	runner.On("Run", "sudo pacman -S --needed --noconfirm stow").Return(failure)
	m, _ := newManager(runner)

	_, err := m.EnsureTool(context.Background(), "stow")
	require.Error(t, err)
	cmd, ok := errors.FailedCommand(err)
	assert.True(t, ok)
	assert.Equal(t, "sudo pacman -S --needed --noconfirm stow", cmd)
}

func TestMaybeInstall(t *testing.T) {
	tests := []struct {
		name    string
		pkg     config.AuxPackage
		setup   func(r *testutil.MockRunner)
		want    packages.Outcome
		wantRun []string
	}{
		{
			name:  "disabled",
			pkg:   config.AuxPackage{Name: "dropbox", Probe: config.ProbeCommand, Enabled: false},
			setup: func(r *testutil.MockRunner) {},
			want:  packages.OutcomeSkipped,
		},
		{
			name: "command present",
			pkg:  config.AuxPackage{Name: "dropbox", Probe: config.ProbeCommand, Enabled: true},
			setup: func(r *testutil.MockRunner) {
				r.On("LookPath", "dropbox").Return(true)
			},
			want: packages.OutcomePresent,
		},
		{
			name: "command missing",
			pkg:  config.AuxPackage{Name: "dropbox", Probe: config.ProbeCommand, Enabled: true},
			setup: func(r *testutil.MockRunner) {
				r.On("LookPath", "dropbox").Return(false)
				r.On("Run", "sudo pacman -S --needed --noconfirm dropbox").Return(nil)
			},
			want:    packages.OutcomeInstalled,
			wantRun: []string{"sudo pacman -S --needed --noconfirm dropbox"},
		},
		{
			name: "package present",
			pkg:  config.AuxPackage{Name: "keyd", Probe: config.ProbePackage, Enabled: true},
			setup: func(r *testutil.MockRunner) {
				r.On("Probe", "pacman -Qi keyd").Return(true)
			},
			want: packages.OutcomePresent,
		},
		{
			name: "package missing",
			pkg:  config.AuxPackage{Name: "keyd", Probe: config.ProbePackage, Enabled: true},
			setup: func(r *testutil.MockRunner) {
				r.On("Probe", "pacman -Qi keyd").Return(false)
				r.On("Run", "sudo pacman -S --needed --noconfirm keyd").Return(nil)
			},
			want:    packages.OutcomeInstalled,
			wantRun: []string{"sudo pacman -S --needed --noconfirm keyd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := testutil.NewMockRunner()
			tt.setup(runner)
			m, _ := newManager(runner)

			outcome, err := m.MaybeInstall(context.Background(), tt.pkg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
			assert.Equal(t, tt.wantRun, runner.RunLines())
			runner.AssertExpectations(t)
		})
	}
}

func TestInstallCommand_NoSudo(t *testing.T) {
	cmds := defaultCommands()
	cmds.Sudo = ""
	m := packages.New(testutil.NewMockRunner(), cmds, output.NewPlain(&bytes.Buffer{}))

	assert.Equal(t, "pacman -S --needed --noconfirm stow", m.InstallCommand("stow").String())
	assert.Equal(t, "pacman -Qi keyd", m.QueryCommand("keyd").String())
}

func TestInstall_EmptyName(t *testing.T) {
	m, _ := newManager(testutil.NewMockRunner())
	err := m.Install(context.Background(), "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
