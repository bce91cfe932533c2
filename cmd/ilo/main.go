// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ilograph-cli/pkg/logging"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var (
	filePath string
	lockWait float64
	verbose  bool

	rootCmd = &cobra.Command{
		Use:   "ilo",
		Short: "Validate and safely mutate Ilograph YAML diagrams",
		Long: `ilo edits Ilograph architecture diagrams without destroying their
hand-written formatting: comments, anchors, key order, and indentation
style survive every mutation.

Mutating commands run as transactions: the file is locked, parsed,
mutated, validated in strict mode, diffed, and written atomically.
Read-only commands (check, resolve, impact, ls) never lock or write.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// errSilentExit makes main exit non-zero without printing anything
// beyond what the command already rendered.
var errSilentExit = errors.New("silent exit")

func main() {
	// Flags are not parsed until Execute, so the log level is sniffed
	// from os.Args directly.
	level := logLevel()
	logger := logging.New(logging.Config{
		Service: "ilo",
		Level:   level,
		Quiet:   level != logging.LevelDebug,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errSilentExit) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintln(os.Stderr, "hint: run with `--help` for command usage.")
		os.Exit(1)
	}
}

func logLevel() logging.Level {
	for _, arg := range os.Args[1:] {
		if arg == "--verbose" {
			return logging.LevelDebug
		}
	}
	return logging.LevelWarn
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "",
		"Path to the Ilograph diagram YAML file")
	rootCmd.PersistentFlags().Float64Var(&lockWait, "lock-wait", 0,
		"Seconds to wait for a held file lock before giving up")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false,
		"Enable debug logging")
}
