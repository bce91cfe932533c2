// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
)

var (
	fmtStable bool
	fmtDryRun bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt",
	Short: "Format YAML with the stable round-trip emitter",
	Long: `Round-trip the diagram through the format-preserving emitter. The
stable formatter never reshapes hand-written YAML, so this is a parse
check that leaves the file untouched.`,
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().BoolVar(&fmtStable, "stable", false,
		"Required guard flag for stable round-trip formatting mode")
	fmtCmd.Flags().BoolVar(&fmtDryRun, "dry-run", false,
		"Preview only; validate/read without writing")
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) error {
	if !fmtStable {
		return docerr.New("only --stable is supported (pass --stable)")
	}
	if _, err := loadDiagram(); err != nil {
		return err
	}
	fmt.Println("no changes (stable formatter is intentionally no-op)")
	if fmtDryRun {
		fmt.Println("dry-run: changes were not written")
	}
	return nil
}
