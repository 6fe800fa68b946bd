package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/shared"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("failed to load %s: %v", configPath, err)
		}
		config = loaded
	}
	config.ApplyEnv()

	if err := shared.SetLogLevelString(logger, config.Log.Level); err != nil {
		logger.Warn("ignoring log level", "error", err)
	}
	if err := config.Validate(); err != nil {
		logger.Fatalf("%v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "narrate",
		Usage:    "Format scripts, cast voices and generate audio from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}
	if err != nil {
		os.Exit(report(err))
	}
}

// report prints err for the user and returns the exit status.
func report(err error) int {
	switch {
	case errors.Is(err, shared.ErrJobCancelled):
		return 0
	case errors.Is(err, shared.ErrNotImplemented):
		fmt.Fprintln(os.Stderr, "⚠ not implemented")
		return 0
	case errors.Is(err, shared.ErrNeedsSignIn):
		fmt.Fprintln(os.Stderr, "✗ You are not signed in. Run `narrate auth login` (or `narrate auth google`).")
		return 2
	default:
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		return 1
	}
}
