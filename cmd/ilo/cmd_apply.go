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
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/batch"
	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/yamlio"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	applyOpsPath string
	applyDryRun  bool
	applyDiff    string

	batchOps    []string
	batchDryRun bool
	batchDiff   string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a batch operations file to the diagram",
	Long: `Apply a YAML/JSON operations file to the diagram in one transaction.

The file carries an ops list; every operation is applied against the same
in-memory document and the diagram is written once, after the full list
succeeds and the result validates.`,
	RunE: runApply,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Apply inline JSON operations to the diagram",
	Long: `Apply operations given inline as repeated --op JSON objects.

Equivalent to writing the objects into an operations file and running
apply; all operations commit or none do.`,
	RunE: runBatch,
}

func init() {
	applyCmd.Flags().StringVar(&applyOpsPath, "ops", "", "Path to the operations file")
	addMutationFlags(applyCmd, &applyDryRun, &applyDiff)
	_ = applyCmd.MarkFlagRequired("ops")

	batchCmd.Flags().StringArrayVar(&batchOps, "op", nil,
		"Operation as a JSON object (repeatable)")
	addMutationFlags(batchCmd, &batchDryRun, &batchDiff)

	rootCmd.AddCommand(applyCmd, batchCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func runApply(cmd *cobra.Command, args []string) error {
	opsPath, err := requiredValue(applyOpsPath, "ops")
	if err != nil {
		return err
	}
	raw, err := yamlio.ReadFile(opsPath)
	if err != nil {
		return err
	}
	parsed, err := batch.Parse(raw, opsPath)
	if err != nil {
		return err
	}

	return runMutation(applyDryRun, applyDiff, func(document *yaml.Node) (bool, error) {
		return parsed.Apply(document)
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(batchOps) == 0 {
		return docerr.New("batch requires at least one --op JSON object")
	}
	for i, opText := range batchOps {
		var decoded any
		if err := json.Unmarshal([]byte(opText), &decoded); err != nil {
			return docerr.Newf("--op[%d] invalid JSON: %v", i+1, err)
		}
		if _, ok := decoded.(map[string]any); !ok {
			return docerr.Newf("--op[%d] must be a JSON object", i+1)
		}
	}

	// JSON is valid YAML, so the inline objects can feed the same parser
	// as an operations file.
	raw := fmt.Sprintf(`{"ops": [%s]}`, strings.Join(batchOps, ", "))
	parsed, err := batch.Parse(raw, "<batch>")
	if err != nil {
		return err
	}

	return runMutation(batchDryRun, batchDiff, func(document *yaml.Node) (bool, error) {
		return parsed.Apply(document)
	})
}
