package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/stowup/cmd/stowup"
	"github.com/arthur-debert/stowup/internal/version"
)

func main() {
	rootCmd := stowup.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "STOWUP",
		Section: "1",
		Source:  "stowup " + version.Version,
		Manual:  "stowup manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
