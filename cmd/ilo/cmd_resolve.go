// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/resolve"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	resolveReference   string
	resolvePerspective string
	resolveJSON        bool
	resolveNoTruncate  bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var resolveCmd = &cobra.Command{
	Use:     "resolve",
	Aliases: []string{"find"},
	Short:   "Inspect how a reference expression resolves",
	Long: `Resolve every token of a reference expression against the diagram:
resources by id or name, perspective aliases, wildcards, special tokens,
and namespaced imports. Each token reports a status and, where useful,
the matched resource paths.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveReference, "reference", "",
		"Reference expression to resolve (aliases, paths, wildcards)")
	resolveCmd.Flags().StringVar(&resolvePerspective, "perspective", "",
		"Perspective id/name for alias context")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false,
		"Emit machine-readable JSON output")
	resolveCmd.Flags().BoolVar(&resolveNoTruncate, "no-truncate", false,
		"Do not wrap or truncate table columns")
	resolveCmd.Flags().SetNormalizeFunc(normalizeResolveFlag)
	_ = resolveCmd.MarkFlagRequired("reference")
	rootCmd.AddCommand(resolveCmd)
}

// normalizeResolveFlag lets --ref work as shorthand for --reference.
func normalizeResolveFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "ref" {
		name = "reference"
	}
	return pflag.NormalizedName(name)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

type resolveRowJSON struct {
	Part    string `json:"part"`
	Token   string `json:"token"`
	Status  string `json:"status"`
	Details string `json:"details"`
}

type resolveReportJSON struct {
	Reference   string           `json:"reference"`
	Perspective *string          `json:"perspective"`
	Rows        []resolveRowJSON `json:"rows"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	document, err := loadDiagram()
	if err != nil {
		return err
	}

	perspective := ""
	if strings.TrimSpace(resolvePerspective) != "" {
		location, err := index.SinglePerspective(document, strings.TrimSpace(resolvePerspective))
		if err != nil {
			return err
		}
		perspective = location.Identifier
	}

	rows := resolve.Reference(document, resolveReference, perspective)

	if resolveJSON {
		report := resolveReportJSON{
			Reference: resolveReference,
			Rows:      make([]resolveRowJSON, 0, len(rows)),
		}
		if perspective != "" {
			report.Perspective = &perspective
		}
		for _, row := range rows {
			report.Rows = append(report.Rows, resolveRowJSON{
				Part:    row.Part,
				Token:   row.Token,
				Status:  row.Status,
				Details: row.Details,
			})
		}
		return printJSON(report)
	}

	perspectiveLabel := perspective
	if perspectiveLabel == "" {
		perspectiveLabel = "-"
	}
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{row.Part, row.Token, row.Status, row.Details})
	}
	printTable(
		fmt.Sprintf("Resolve: %s (perspective: %s)", resolveReference, perspectiveLabel),
		[]string{"Part", "Token", "Status", "Details"},
		tableRows,
		resolveNoTruncate,
	)
	return nil
}
