// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/editor"
	"github.com/AleutianAI/ilograph-cli/services/diagram/yamlio"
)

// truncateWidth caps table cell width unless --no-truncate is passed.
const truncateWidth = 48

// =============================================================================
// SHARED COMMAND PLUMBING
// =============================================================================

// requireFile enforces the --file flag on commands that read a diagram.
func requireFile() error {
	if strings.TrimSpace(filePath) == "" {
		return docerr.New("missing required flag --file (path to the diagram YAML)")
	}
	return nil
}

// loadDiagram reads and parses the --file diagram for read-only commands.
func loadDiagram() (*yaml.Node, error) {
	if err := requireFile(); err != nil {
		return nil, err
	}
	raw, err := yamlio.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return yamlio.Load(raw, filePath)
}

// newRunner builds the transaction runner mutating commands share.
func newRunner() *editor.Runner {
	return &editor.Runner{
		Out:      os.Stdout,
		LockWait: time.Duration(lockWait * float64(time.Second)),
	}
}

// runMutation validates --file and hands the mutator to the editor.
func runMutation(dryRun bool, diffMode string, mutator editor.Mutator) error {
	if err := requireFile(); err != nil {
		return err
	}
	return newRunner().Run(filePath, dryRun, diffMode, mutator)
}

// addMutationFlags registers the --dry-run/--diff pair every mutating
// command carries.
func addMutationFlags(cmd *cobra.Command, dryRun *bool, diffMode *string) {
	cmd.Flags().BoolVar(dryRun, "dry-run", false,
		"Preview diff and validation results without writing")
	cmd.Flags().StringVar(diffMode, "diff", editor.DiffSummary,
		"Diff output mode: full | summary | none")
}

// =============================================================================
// INPUT NORMALIZATION
// =============================================================================

// requiredValue trims a flag value and rejects blanks. The label uses
// dashes, matching the flag spelling.
func requiredValue(value, label string) (string, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return "", docerr.Newf("%s must not be empty", label)
	}
	return cleaned, nil
}

// optionalValue trims a flag value, mapping blank to "" (unset).
func optionalValue(value string) string {
	return strings.TrimSpace(value)
}

// splitMulti expands repeated and comma-separated flag values.
func splitMulti(values []string) []string {
	var parsed []string
	for _, raw := range values {
		for _, token := range strings.Split(raw, ",") {
			if candidate := strings.TrimSpace(token); candidate != "" {
				parsed = append(parsed, candidate)
			}
		}
	}
	return parsed
}

// triBool resolves a --flag/--no-flag pair into a tri-state value: nil
// when neither flag was passed.
func triBool(cmd *cobra.Command, name, negName string) *bool {
	if cmd.Flags().Changed(name) {
		value := true
		return &value
	}
	if cmd.Flags().Changed(negName) {
		value := false
		return &value
	}
	return nil
}

// =============================================================================
// OUTPUT RENDERING
// =============================================================================

func printJSON(payload any) error {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

var (
	tableTitleStyle  = lipgloss.NewStyle().Bold(true)
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printTable renders a titled bordered table to stdout. Cells are capped
// at truncateWidth runes unless noTruncate is set or output is piped.
func printTable(title string, headers []string, rows [][]string, noTruncate bool) {
	if !noTruncate && stdoutIsTerminal() {
		for _, row := range rows {
			for i, cell := range row {
				row[i] = truncateCell(cell)
			}
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})

	fmt.Println(tableTitleStyle.Render(title))
	fmt.Println(t.Render())
}

func truncateCell(cell string) string {
	runes := []rune(cell)
	if len(runes) <= truncateWidth {
		return cell
	}
	return string(runes[:truncateWidth-1]) + "…"
}

// dash substitutes "-" for empty display values.
func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
