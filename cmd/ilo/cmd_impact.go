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

	"github.com/AleutianAI/ilograph-cli/services/diagram/impact"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	impactResourceID string
	impactJSON       bool
	impactNoTruncate bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Show everywhere a resource is referenced",
	Long: `List every place a resource id appears: its definition, relation
endpoints, overrides, walkthrough steps, sequence steps, context
selections, and perspectives that reuse the id. Run this before a
rename or delete to see the blast radius.`,
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().StringVar(&impactResourceID, "resource-id", "",
		"Resource id to search for across references")
	impactCmd.Flags().BoolVar(&impactJSON, "json", false,
		"Emit machine-readable JSON output")
	impactCmd.Flags().BoolVar(&impactNoTruncate, "no-truncate", false,
		"Do not wrap or truncate table columns")
	_ = impactCmd.MarkFlagRequired("resource-id")
	rootCmd.AddCommand(impactCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

type impactHitJSON struct {
	Perspective string `json:"perspective"`
	Section     string `json:"section"`
	Field       string `json:"field"`
	Path        string `json:"path"`
	Value       string `json:"value"`
}

type impactReportJSON struct {
	ResourceID string          `json:"resourceId"`
	Count      int             `json:"count"`
	Hits       []impactHitJSON `json:"hits"`
}

func runImpact(cmd *cobra.Command, args []string) error {
	document, err := loadDiagram()
	if err != nil {
		return err
	}

	resourceID := strings.TrimSpace(impactResourceID)
	hits := impact.ForResource(document, resourceID)

	if impactJSON {
		report := impactReportJSON{
			ResourceID: resourceID,
			Count:      len(hits),
			Hits:       make([]impactHitJSON, 0, len(hits)),
		}
		for _, hit := range hits {
			report.Hits = append(report.Hits, impactHitJSON{
				Perspective: hit.Perspective,
				Section:     hit.Section,
				Field:       hit.Field,
				Path:        hit.Path,
				Value:       hit.Value,
			})
		}
		return printJSON(report)
	}

	if len(hits) == 0 {
		fmt.Printf("no references found for: %s (resource may be unused or misspelled)\n", resourceID)
		return nil
	}

	rows := make([][]string, 0, len(hits))
	for _, hit := range hits {
		rows = append(rows, []string{
			dash(hit.Perspective), hit.Section, hit.Field, hit.Path, hit.Value,
		})
	}
	printTable(
		fmt.Sprintf("Impact for %s (%d hits)", resourceID, len(hits)),
		[]string{"Perspective", "Section", "Field", "Path", "Value"},
		rows,
		impactNoTruncate,
	)
	return nil
}
