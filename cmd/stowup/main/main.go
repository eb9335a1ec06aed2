package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/stowup/cmd/stowup"
	"github.com/arthur-debert/stowup/pkg/errors"
	"github.com/arthur-debert/stowup/pkg/output"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Interrupts cancel the running external command and abort the run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := stowup.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if line, ok := errors.FailedCommand(err); ok {
		output.New(os.Stdout).Failure(line)
	} else {
		output.New(os.Stderr).Errorf("Error: %v", err)
	}
	return errors.ExitCode(err)
}
