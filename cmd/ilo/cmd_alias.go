// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/ops"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	aliasListPerspective string
	aliasListJSON        bool
	aliasListNoTruncate  bool

	aliasAddPerspective string
	aliasAddAlias       string
	aliasAddFor         string
	aliasAddIndex       int
	aliasAddDryRun      bool
	aliasAddDiff        string

	aliasEditPerspective string
	aliasEditAlias       string
	aliasEditNewAlias    string
	aliasEditNewFor      string
	aliasEditDryRun      bool
	aliasEditDiff        string

	aliasRemovePerspective string
	aliasRemoveAlias       string
	aliasRemoveDryRun      bool
	aliasRemoveDiff        string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Create, edit, delete, and list perspective aliases",
}

var aliasListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List aliases in a perspective",
	RunE:    runAliasList,
}

var aliasAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an alias to a perspective",
	RunE:  runAliasAdd,
}

var aliasEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit an alias",
	RunE:  runAliasEdit,
}

var aliasRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove an alias",
	RunE:  runAliasRemove,
}

func init() {
	aliasListCmd.Flags().StringVar(&aliasListPerspective, "perspective", "", "Perspective id/name")
	aliasListCmd.Flags().BoolVar(&aliasListJSON, "json", false, "Machine-readable output")
	aliasListCmd.Flags().BoolVar(&aliasListNoTruncate, "no-truncate", false,
		"Do not wrap/truncate table columns")
	_ = aliasListCmd.MarkFlagRequired("perspective")

	aliasAddCmd.Flags().StringVar(&aliasAddPerspective, "perspective", "", "Perspective id/name")
	aliasAddCmd.Flags().StringVar(&aliasAddAlias, "alias", "", "Alias token")
	aliasAddCmd.Flags().StringVar(&aliasAddFor, "for", "", "Reference expression the alias expands to")
	aliasAddCmd.Flags().IntVar(&aliasAddIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	addMutationFlags(aliasAddCmd, &aliasAddDryRun, &aliasAddDiff)
	_ = aliasAddCmd.MarkFlagRequired("perspective")
	_ = aliasAddCmd.MarkFlagRequired("alias")
	_ = aliasAddCmd.MarkFlagRequired("for")

	aliasEditCmd.Flags().StringVar(&aliasEditPerspective, "perspective", "", "Perspective id/name")
	aliasEditCmd.Flags().StringVar(&aliasEditAlias, "alias", "", "Existing alias token")
	aliasEditCmd.Flags().StringVar(&aliasEditNewAlias, "new-alias", "", "New alias token")
	aliasEditCmd.Flags().StringVar(&aliasEditNewFor, "new-for", "", "New reference expression")
	addMutationFlags(aliasEditCmd, &aliasEditDryRun, &aliasEditDiff)
	_ = aliasEditCmd.MarkFlagRequired("perspective")
	_ = aliasEditCmd.MarkFlagRequired("alias")

	aliasRemoveCmd.Flags().StringVar(&aliasRemovePerspective, "perspective", "", "Perspective id/name")
	aliasRemoveCmd.Flags().StringVar(&aliasRemoveAlias, "alias", "", "Alias token to remove")
	addMutationFlags(aliasRemoveCmd, &aliasRemoveDryRun, &aliasRemoveDiff)
	_ = aliasRemoveCmd.MarkFlagRequired("perspective")
	_ = aliasRemoveCmd.MarkFlagRequired("alias")

	aliasCmd.AddCommand(aliasListCmd, aliasAddCmd, aliasEditCmd, aliasRemoveCmd)
	rootCmd.AddCommand(aliasCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

type aliasRowJSON struct {
	Index int    `json:"index"`
	Alias string `json:"alias"`
	For   string `json:"for,omitempty"`
}

func runAliasList(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(aliasListPerspective, "perspective")
	if err != nil {
		return err
	}
	document, err := loadDiagram()
	if err != nil {
		return err
	}
	rows, err := ops.ListAliases(document, perspective)
	if err != nil {
		return err
	}

	if aliasListJSON {
		jsonRows := make([]aliasRowJSON, 0, len(rows))
		for _, row := range rows {
			jsonRows = append(jsonRows, aliasRowJSON{Index: row.Index, Alias: row.Alias, For: row.For})
		}
		return printJSON(map[string]any{"count": len(rows), "rows": jsonRows})
	}

	if len(rows) == 0 {
		fmt.Println("no aliases")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			strconv.Itoa(row.Index), row.Alias, dash(row.For),
		})
	}
	printTable("Aliases: "+perspective, []string{"Index", "Alias", "For"}, tableRows, aliasListNoTruncate)
	fmt.Printf("total: %d\n", len(rows))
	return nil
}

func runAliasAdd(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(aliasAddPerspective, "perspective")
	if err != nil {
		return err
	}
	alias, err := requiredValue(aliasAddAlias, "alias")
	if err != nil {
		return err
	}
	aliasFor, err := requiredValue(aliasAddFor, "for")
	if err != nil {
		return err
	}

	return runMutation(aliasAddDryRun, aliasAddDiff, func(document *yaml.Node) (bool, error) {
		return ops.AddAlias(document, perspective, alias, aliasFor, aliasAddIndex)
	})
}

func runAliasEdit(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(aliasEditPerspective, "perspective")
	if err != nil {
		return err
	}
	alias, err := requiredValue(aliasEditAlias, "alias")
	if err != nil {
		return err
	}
	newAlias := optionalValue(aliasEditNewAlias)
	newFor := optionalValue(aliasEditNewFor)

	return runMutation(aliasEditDryRun, aliasEditDiff, func(document *yaml.Node) (bool, error) {
		return ops.EditAlias(document, perspective, alias, newAlias, newFor)
	})
}

func runAliasRemove(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(aliasRemovePerspective, "perspective")
	if err != nil {
		return err
	}
	alias, err := requiredValue(aliasRemoveAlias, "alias")
	if err != nil {
		return err
	}

	return runMutation(aliasRemoveDryRun, aliasRemoveDiff, func(document *yaml.Node) (bool, error) {
		return ops.RemoveAlias(document, perspective, alias)
	})
}
