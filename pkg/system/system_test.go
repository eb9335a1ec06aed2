package system_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/stowup/pkg/config"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/output"
	"github.com/arthur-debert/stowup/pkg/system"
	"github.com/arthur-debert/stowup/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const ruleContent = "%wheel ALL=(ALL) NOPASSWD: /usr/bin/systemctl start keyd, /usr/bin/systemctl stop keyd\n"

func defaultCommands() config.Commands {
	return config.Commands{Sudo: "sudo", InstallFile: "install", Systemctl: "systemctl"}
}

func defaultRule() config.SudoRule {
	return config.SudoRule{Name: "keyd-toggle", Dir: "/etc/sudoers.d", Mode: "440", Content: ruleContent}
}

func TestInstallSudoRule(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	runner := testutil.NewMockRunner()

	// inspect the staged file while the command "runs"
	var stagedPath string
	runner.On("Run", mock.MatchedBy(func(line string) bool {
		return strings.HasPrefix(line, "sudo install -m 440 ") &&
			strings.HasSuffix(line, "/keyd-toggle /etc/sudoers.d/keyd-toggle")
	})).Run(func(args mock.Arguments) {
		fields := strings.Fields(args.String(0))
		stagedPath = fields[4]

		info, err := os.Stat(stagedPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0440), info.Mode().Perm())
		testutil.AssertFileContent(t, stagedPath, ruleContent)
	}).Return(nil)

	var buf bytes.Buffer
	c := system.New(runner, env.FS, output.NewPlain(&buf), defaultCommands())

	require.NoError(t, c.InstallSudoRule(context.Background(), defaultRule()))
	runner.AssertExpectations(t)

	assert.Equal(t, "Installing /etc/sudoers.d/keyd-toggle (will prompt for sudo if needed)…\n", buf.String())
	require.NotEmpty(t, stagedPath)
	assert.NoDirExists(t, filepath.Dir(stagedPath), "staging directory is cleaned up")
}

func TestInstallSudoRule_DryRunStagesNothing(t *testing.T) {
	runner := testutil.NewMockRunner()
	runner.DryRunMode = true
	runner.On("Run", "sudo install -m 440 '<staged>' /etc/sudoers.d/keyd-toggle").Return(nil)

	// any staging attempt fails on a read-only filesystem
	fsys := afero.NewReadOnlyFs(afero.NewMemMapFs()).(*afero.ReadOnlyFs)
	var buf bytes.Buffer
	c := system.New(runner, fsys, output.NewPlain(&buf), defaultCommands())

	require.NoError(t, c.InstallSudoRule(context.Background(), defaultRule()))
	runner.AssertExpectations(t)
	assert.Equal(t, "Installing /etc/sudoers.d/keyd-toggle (will prompt for sudo if needed)…\n", buf.String())
}

func TestInstallSudoRule_FailurePropagates(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	runner := testutil.NewMockRunner()
	runner.On("Run", mock.Anything).Return(errors.New(errors.ErrCommandFailed, "denied"))
	c := system.New(runner, env.FS, output.NewPlain(&bytes.Buffer{}), defaultCommands())

	err := c.InstallSudoRule(context.Background(), defaultRule())
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommandFailed))
}

func TestInstallSudoRule_BadMode(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	c := system.New(testutil.NewMockRunner(), env.FS, output.NewPlain(&bytes.Buffer{}), defaultCommands())

	rule := defaultRule()
	rule.Mode = "rw-r"
	err := c.InstallSudoRule(context.Background(), rule)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestSudoRuleCommand_NoSudo(t *testing.T) {
	cmds := defaultCommands()
	cmds.Sudo = ""
	c := system.New(testutil.NewMockRunner(), nil, output.NewPlain(&bytes.Buffer{}), cmds)

	assert.Equal(t, "install -m 440 /tmp/x/keyd-toggle /etc/sudoers.d/keyd-toggle",
		c.SudoRuleCommand(defaultRule(), "/tmp/x/keyd-toggle").String())
}

func TestDisableService(t *testing.T) {
	runner := testutil.NewMockRunner()
	runner.On("Run", "sudo systemctl disable --now keyd").Return(nil)
	var buf bytes.Buffer
	c := system.New(runner, nil, output.NewPlain(&buf), defaultCommands())

	require.NoError(t, c.DisableService(context.Background(), "keyd"))
	runner.AssertExpectations(t)
	assert.Equal(t, "Ensuring keyd is disabled and stopped…\n", buf.String())

	err := c.DisableService(context.Background(), "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
