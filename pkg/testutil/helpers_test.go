package testutil

import "github.com/arthur-debert/stowup/pkg/executor"

func commandOf(argv ...string) executor.Command {
	return executor.NewCommand(argv...)
}
