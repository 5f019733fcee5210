// Package main provides the leapform CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapform/internal/cli"
)

// Build metadata, injected via ldflags.
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildDate = buildDate
	cli.GitCommit = gitCommit

	err := cli.Execute()
	os.Exit(cli.ExitCode(err))
}
