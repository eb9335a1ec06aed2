package provision_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/arthur-debert/stowup/pkg/provision"
	"github.com/arthur-debert/stowup/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

type fixture struct {
	env    *testutil.TestEnvironment
	runner *testutil.MockRunner
	out    *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		env:    testutil.NewTestEnvironment(t),
		runner: testutil.NewMockRunner(),
		out:    &bytes.Buffer{},
	}
}

func (f *fixture) provisioner(t *testing.T, cfg *config.Config) *provision.Provisioner {
	t.Helper()
	p, err := provision.New(provision.Options{
		Config: cfg,
		Paths:  f.env.Paths(),
		FS:     f.env.FS,
		Runner: f.runner,
		Out:    output.NewPlain(f.out),
		Now:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return p
}

func stepNames(steps []provision.Step) []string {
	var names []string
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}

func resultNames(results []provision.StepResult) map[string]provision.StepStatus {
	statuses := make(map[string]provision.StepStatus)
	for _, r := range results {
		statuses[r.Name] = r.Status
	}
	return statuses
}

func TestRun_BasicScenario(t *testing.T) {
	f := newFixture(t)
	f.env.SetupScenarioRepo()
	f.env.WriteHomeFile(".bashrc", "# original bashrc\n")
	home := f.env.Home

	f.runner.On("LookPath", "stow").Return(true)
	f.runner.On("LookPath", "dropbox").Return(true)
	f.runner.On("Run", "stow -v -t "+home+" bash").Return(nil)
	f.runner.On("Run", "stow -v -t "+home+" hypr").Return(nil)

	p := f.provisioner(t, f.env.Config(config.VariantBasic))
	assert.Equal(t, []string{
		provision.StepEnsureStow,
		provision.StepBackupConfigs,
		provision.StepAuxPackages,
		provision.StepLinkPackages,
	}, stepNames(p.Steps()))

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	f.runner.AssertExpectations(t)

	assert.Equal(t, provision.StateDone, p.State())
	assert.Equal(t, provision.StateDone, result.State)
	assert.Equal(t, []string{"bash", "hypr"}, result.Linked)
	assert.Empty(t, result.Installed)

	// .git and scripts are never stowed
	for _, line := range f.runner.RunLines() {
		assert.NotContains(t, line, "scripts")
		assert.NotContains(t, line, ".git")
	}

	bak := f.env.HomePath(".bashrc.bak-20240309-140507")
	testutil.AssertNotExists(t, f.env.HomePath(".bashrc"))
	testutil.AssertFileContent(t, bak, "# original bashrc\n")
	require.Len(t, result.Backups, 1)
	assert.Equal(t, bak, result.Backups[0].Backup)

	out := f.out.String()
	assert.Contains(t, out, "Repo root: "+f.env.Root+"\n")
	assert.Contains(t, out, "Backing up "+f.env.HomePath(".bashrc")+" -> "+bak+"\n")
	assert.Contains(t, out, "Stowing bash/ → "+home+"\n")
	assert.Less(t, strings.Index(out, "Backing up"), strings.Index(out, "Stowing bash/"))
}

func TestRun_ExtendedFullSequence(t *testing.T) {
	f := newFixture(t)
	f.env.SetupScenarioRepo()
	f.env.CreatePack("keyd", map[string]string{"etc/keyd/default.conf": "[ids]\n*\n"})
	home := f.env.Home

	f.runner.On("LookPath", "stow").Return(false)
	f.runner.On("LookPath", "dropbox").Return(false)
	f.runner.On("Probe", "pacman -Qi keyd").Return(false)
	f.runner.On("Run", mock.MatchedBy(func(line string) bool {
		return strings.HasPrefix(line, "sudo install -m 440 ")
	})).Return(nil)
	f.runner.On("Run", mock.Anything).Return(nil)

	p := f.provisioner(t, f.env.Config(config.VariantExtended))
	result, err := p.Run(context.Background())
	require.NoError(t, err)

	lines := f.runner.RunLines()
	require.Len(t, lines, 8)
	assert.Equal(t, []string{
		"sudo pacman -S --needed --noconfirm stow",
		"sudo pacman -S --needed --noconfirm dropbox",
		"sudo pacman -S --needed --noconfirm keyd",
		"stow -v -t " + home + " bash",
		"stow -v -t " + home + " hypr",
		"sudo stow -v -t / keyd",
	}, lines[:6])
	assert.True(t, strings.HasPrefix(lines[6], "sudo install -m 440 "))
	assert.True(t, strings.HasSuffix(lines[6], " /etc/sudoers.d/keyd-toggle"))
	assert.Equal(t, "sudo systemctl disable --now keyd", lines[7])

	assert.Equal(t, []string{"stow", "dropbox", "keyd"}, result.Installed)
	assert.Equal(t, []string{"bash", "hypr"}, result.Linked)
	assert.Equal(t, []string{"keyd"}, result.SystemLinked)
	assert.Contains(t, f.out.String(), "Stowing system package keyd/ → /\n")
}

func TestRun_StepFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.env.SetupScenarioRepo()
	home := f.env.Home

	failure := errors.New(errors.ErrCommandFailed, "exit status 1").
		WithDetail(errors.DetailCommand, "stow -v -t "+home+" bash")
	f.runner.On("LookPath", mock.Anything).Return(true)
	f.runner.On("Run", "stow -v -t "+home+" bash").Return(failure)

	cfg := f.env.Config(config.VariantExtended)
	f.runner.On("Probe", "pacman -Qi keyd").Return(true)
	p := f.provisioner(t, cfg)

	result, err := p.Run(context.Background())
	require.Error(t, err)

	cmd, ok := errors.FailedCommand(err)
	assert.True(t, ok)
	assert.Equal(t, "stow -v -t "+home+" bash", cmd)

	assert.Equal(t, provision.StateAborted, p.State())
	statuses := resultNames(result.Steps)
	assert.Equal(t, provision.StepSucceeded, statuses[provision.StepBackupConfigs])
	assert.Equal(t, provision.StepFailed, statuses[provision.StepLinkPackages])
	assert.Equal(t, provision.StepNotRun, statuses[provision.StepLinkSystemPackages])
	assert.Equal(t, provision.StepNotRun, statuses[provision.StepSudoRule])
	assert.Equal(t, provision.StepNotRun, statuses[provision.StepDisableServices])
	assert.Len(t, result.Steps, len(p.Steps()))

	assert.Equal(t, []string{"stow -v -t " + home + " bash"}, f.runner.RunLines())
}

func TestRun_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	f.runner.Permissive()
	cfg := f.env.Config(config.VariantBasic)
	cfg.Link.Mode = config.LinkModeNative

	p := f.provisioner(t, cfg)
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidState))
	assert.Equal(t, provision.StateDone, p.State())
}

func TestRun_DisabledFeaturesDropSteps(t *testing.T) {
	f := newFixture(t)
	cfg := f.env.Config(config.VariantBasic)
	cfg.Link.Mode = config.LinkModeNative
	for i := range cfg.Aux {
		cfg.Aux[i].Enabled = false
	}

	p := f.provisioner(t, cfg)
	assert.Equal(t, []string{provision.StepBackupConfigs, provision.StepLinkPackages}, stepNames(p.Steps()))
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t)
	f.runner.Permissive()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := f.provisioner(t, f.env.Config(config.VariantBasic))
	result, err := p.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	assert.Equal(t, 130, errors.ExitCode(err))
	assert.Equal(t, provision.StateAborted, result.State)
	assert.Equal(t, provision.StepFailed, result.Steps[0].Status)
	assert.Empty(t, f.runner.RunLines())
}

func TestRun_NativeIdempotent(t *testing.T) {
	f := newFixture(t)
	f.env.SetupScenarioRepo()
	f.env.WriteHomeFile(".bashrc", "# original\n")
	f.env.WriteHomeFile(".config/hypr/hyprland.conf", "# original hypr\n")
	f.runner.Permissive()

	cfg := f.env.Config(config.VariantBasic)
	cfg.Link.Mode = config.LinkModeNative

	first, err := f.provisioner(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Backups, 2)
	testutil.AssertSymlinkTo(t, f.env.HomePath(".bashrc"), f.env.RepoPath("bash/.bashrc"))
	testutil.AssertSymlinkTo(t, f.env.HomePath(".config/hypr/hyprland.conf"),
		f.env.RepoPath("hypr/.config/hypr/hyprland.conf"))

	second, err := f.provisioner(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Backups)
	assert.Empty(t, second.Installed)
	assert.Len(t, testutil.BackupsOf(t, f.env.HomePath(".bashrc")), 1)
	assert.Len(t, testutil.BackupsOf(t, f.env.HomePath(".config/hypr/hyprland.conf")), 1)

	// no package installs and no external commands at all in native mode
	assert.Empty(t, f.runner.RunLines())
}

func TestRun_StowModeSecondRunInstallsNothing(t *testing.T) {
	f := newFixture(t)
	f.env.SetupScenarioRepo()
	f.runner.On("LookPath", mock.Anything).Return(true)
	f.runner.On("Run", mock.MatchedBy(func(line string) bool {
		return strings.HasPrefix(line, "stow ")
	})).Return(nil)

	cfg := f.env.Config(config.VariantBasic)
	for i := 0; i < 2; i++ {
		result, err := f.provisioner(t, cfg).Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Installed)
	}
	for _, line := range f.runner.RunLines() {
		assert.NotContains(t, line, "pacman")
	}
}

func TestRun_DryRunChangesNothing(t *testing.T) {
	f := newFixture(t)
	f.env.SetupScenarioRepo()
	f.env.WriteHomeFile(".bashrc", "keep")
	f.runner.Permissive()
	f.runner.DryRunMode = true

	cfg := f.env.Config(config.VariantBasic)
	cfg.Link.Mode = config.LinkModeNative

	result, err := f.provisioner(t, cfg).Run(context.Background())
	require.NoError(t, err)

	testutil.AssertFileContent(t, f.env.HomePath(".bashrc"), "keep")
	assert.Empty(t, testutil.BackupsOf(t, f.env.HomePath(".bashrc")))
	testutil.AssertNotExists(t, f.env.HomePath(".bash_profile"))
	assert.Len(t, result.Backups, 1)
	assert.Contains(t, f.out.String(), "Dry run")
}

func TestRun_SystemPackageMissingIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.env.CreatePack("bash", map[string]string{".bashrc": "x"})
	f.runner.On("Probe", mock.Anything).Return(true)
	f.runner.Permissive()

	cfg := f.env.Config(config.VariantExtended)
	result, err := f.provisioner(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.SystemLinked)
	for _, line := range f.runner.RunLines() {
		assert.NotContains(t, line, "-t / keyd")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	f := newFixture(t)
	cfg := f.env.Config(config.VariantBasic)
	cfg.Link.Mode = "hardlink"

	_, err := provision.New(provision.Options{
		Config: cfg,
		Paths:  f.env.Paths(),
		FS:     f.env.FS,
		Runner: f.runner,
		Out:    output.NewPlain(f.out),
	})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))

	_, err = provision.New(provision.Options{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not-started", provision.StateNotStarted.String())
	assert.Equal(t, "aborted", provision.StateAborted.String())
	assert.True(t, provision.StateDone.Terminal())
	assert.False(t, provision.StateRunning.Terminal())

	text, err := provision.StateDone.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "done", string(text))
}
