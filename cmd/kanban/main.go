// Package main is the entry point for the kanban CLI.
package main

import (
	"fmt"
	"os"

	"github.com/runoshun/kanban-sync/internal/app"
	"github.com/runoshun/kanban-sync/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

var newRootCommand = cli.NewRootCommand

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		return runWithoutContainer(err)
	}
	defer container.Close()

	return newRootCommand(container, version).Execute()
}

// runWithoutContainer keeps help and version working when the store cannot
// be opened (for example a git store outside a repository).
func runWithoutContainer(initErr error) error {
	if canRunWithoutStore(os.Args[1:]) {
		return newRootCommand(nil, version).Execute()
	}
	return fmt.Errorf("failed to initialize: %w", initErr)
}

func canRunWithoutStore(args []string) bool {
	if len(args) > 0 && args[0] == "help" {
		return true
	}
	for _, arg := range args {
		if arg == "--version" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
