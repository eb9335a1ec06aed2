package testutil

import (
	"context"

	"github.com/arthur-debert/stowup/pkg/executor"
	"github.com/stretchr/testify/mock"
)

// MockRunner is a testify mock for executor.Runner. Expectations are keyed
// by the printable command line:
//
//	runner.On("Run", "stow -v -t /home/u bash").Return(nil)
//	runner.On("LookPath", "stow").Return(true)
type MockRunner struct {
	mock.Mock

	// DryRunMode is what DryRun reports
	DryRunMode bool
}

var _ executor.Runner = (*MockRunner)(nil)

// NewMockRunner returns a runner on which every Run succeeds, every probe
// fails and every tool is present, unless a test sets expectations first.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Permissive installs catch-all expectations after any specific ones
func (m *MockRunner) Permissive() *MockRunner {
	m.On("Run", mock.Anything).Return(nil).Maybe()
	m.On("Probe", mock.Anything).Return(false).Maybe()
	m.On("LookPath", mock.Anything).Return(true).Maybe()
	return m
}

// Run implements executor.Runner
func (m *MockRunner) Run(_ context.Context, cmd executor.Command) error {
	args := m.Called(cmd.String())
	return args.Error(0)
}

// Probe implements executor.Runner
func (m *MockRunner) Probe(_ context.Context, cmd executor.Command) bool {
	args := m.Called(cmd.String())
	return args.Bool(0)
}

// LookPath implements executor.Runner
func (m *MockRunner) LookPath(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

// DryRun implements executor.Runner
func (m *MockRunner) DryRun() bool {
	return m.DryRunMode
}

// RunLines returns the command lines passed to Run, in call order
func (m *MockRunner) RunLines() []string {
	var lines []string
	for _, call := range m.Calls {
		if call.Method == "Run" {
			lines = append(lines, call.Arguments.String(0))
		}
	}
	return lines
}
