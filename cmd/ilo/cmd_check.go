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

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/validate"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	checkMode       string
	checkIgnoreRule []string
	checkOnlyRule   []string
	checkJSON       bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse and validate a diagram",
	Long: `Parse the diagram and report structural issues: duplicate ids,
restricted characters, and broken reference expressions.

Modes:
  ilograph-native  what the Ilograph renderer itself tolerates (default)
  strict           additionally flags unresolved namespaced references

Exit code is 1 when any issue survives the --ignore-rule/--only-rule
filters.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkMode, "mode", validate.ModeNative,
		"Validation mode: strict | ilograph-native")
	checkCmd.Flags().StringSliceVar(&checkIgnoreRule, "ignore-rule", nil,
		"Ignore validation code(s); repeat flag or pass comma-separated values")
	checkCmd.Flags().StringSliceVar(&checkOnlyRule, "only-rule", nil,
		"Keep only validation code(s); repeat flag or pass comma-separated values")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false,
		"Emit machine-readable JSON (includes summary and issue list)")
	rootCmd.AddCommand(checkCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

type checkIssueJSON struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

type checkReportJSON struct {
	OK      bool             `json:"ok"`
	Mode    string           `json:"mode"`
	Summary checkSummaryJSON `json:"summary"`
	Issues  []checkIssueJSON `json:"issues"`
}

type checkSummaryJSON struct {
	Total  int            `json:"total"`
	ByCode map[string]int `json:"by_code"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	mode := strings.ToLower(strings.TrimSpace(checkMode))
	if mode != validate.ModeStrict && mode != validate.ModeNative {
		return docerr.Newf("unknown mode: %s (expected: strict|ilograph-native)", checkMode)
	}

	document, err := loadDiagram()
	if err != nil {
		return err
	}
	result := validate.Document(document, mode)
	issues := filterIssues(result.Issues, splitMulti(checkIgnoreRule), splitMulti(checkOnlyRule))
	ok := len(issues) == 0

	if checkJSON {
		report := checkReportJSON{
			OK:   ok,
			Mode: mode,
			Summary: checkSummaryJSON{
				Total:  len(issues),
				ByCode: issuesByCode(issues),
			},
			Issues: make([]checkIssueJSON, 0, len(issues)),
		}
		for _, issue := range issues {
			report.Issues = append(report.Issues, checkIssueJSON{
				Code:    issue.Code,
				Path:    issue.Path,
				Message: issue.Message,
			})
		}
		if err := printJSON(report); err != nil {
			return err
		}
		if !ok {
			return errSilentExit
		}
		return nil
	}

	if ok {
		fmt.Println("check ok: 0 issues found")
		return nil
	}

	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{issue.Code, issue.Path, issue.Message})
	}
	printTable(
		fmt.Sprintf("Validation issues (%d)", len(issues)),
		[]string{"Code", "Path", "Message"},
		rows,
		true,
	)
	return errSilentExit
}

func filterIssues(issues []validate.Issue, ignoreRules, onlyRules []string) []validate.Issue {
	ignore := toSet(ignoreRules)
	only := toSet(onlyRules)

	var filtered []validate.Issue
	for _, issue := range issues {
		if len(only) > 0 && !only[issue.Code] {
			continue
		}
		if ignore[issue.Code] {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}

func issuesByCode(issues []validate.Issue) map[string]int {
	counts := map[string]int{}
	for _, issue := range issues {
		counts[issue.Code]++
	}
	return counts
}
