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
	perspListJSON       bool
	perspListNoTruncate bool

	perspCreateID          string
	perspCreateName        string
	perspCreateExtends     string
	perspCreateOrientation string
	perspCreateIndex       int
	perspCreateDryRun      bool
	perspCreateDiff        string

	perspRenameID      string
	perspRenameNewID   string
	perspRenameNewName string
	perspRenameDryRun  bool
	perspRenameDiff    string

	perspDeleteID     string
	perspDeleteForce  bool
	perspDeleteDryRun bool
	perspDeleteDiff   string

	perspReorderID     string
	perspReorderIndex  int
	perspReorderDryRun bool
	perspReorderDiff   string

	perspCopyID      string
	perspCopyNewID   string
	perspCopyNewName string
	perspCopyIndex   int
	perspCopyDryRun  bool
	perspCopyDiff    string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var perspectiveCmd = &cobra.Command{
	Use:   "perspective",
	Short: "Create, delete, rename, copy, and reorder perspectives",
}

var perspectiveListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List perspectives",
	RunE:    runPerspectiveList,
}

var perspectiveCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a perspective",
	RunE:  runPerspectiveCreate,
}

var perspectiveRenameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename a perspective id and/or name",
	RunE:  runPerspectiveRename,
}

var perspectiveDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a perspective",
	RunE:  runPerspectiveDelete,
}

var perspectiveReorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Move a perspective to a new position",
	RunE:  runPerspectiveReorder,
}

var perspectiveCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy a perspective to a new id",
	RunE:  runPerspectiveCopy,
}

func init() {
	perspectiveListCmd.Flags().BoolVar(&perspListJSON, "json", false, "Machine-readable output")
	perspectiveListCmd.Flags().BoolVar(&perspListNoTruncate, "no-truncate", false,
		"Do not wrap/truncate table columns")

	perspectiveCreateCmd.Flags().StringVar(&perspCreateID, "id", "", "New perspective id")
	perspectiveCreateCmd.Flags().StringVar(&perspCreateName, "name", "",
		"Display name (default: same as --id)")
	perspectiveCreateCmd.Flags().StringVar(&perspCreateExtends, "extends", "",
		"Perspective id(s) to extend")
	perspectiveCreateCmd.Flags().StringVar(&perspCreateOrientation, "orientation", "",
		"Layout orientation")
	perspectiveCreateCmd.Flags().IntVar(&perspCreateIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	addMutationFlags(perspectiveCreateCmd, &perspCreateDryRun, &perspCreateDiff)
	_ = perspectiveCreateCmd.MarkFlagRequired("id")

	perspectiveRenameCmd.Flags().StringVar(&perspRenameID, "id", "", "Current perspective id/name")
	perspectiveRenameCmd.Flags().StringVar(&perspRenameNewID, "new-id", "", "New perspective id")
	perspectiveRenameCmd.Flags().StringVar(&perspRenameNewName, "new-name", "", "New display name")
	addMutationFlags(perspectiveRenameCmd, &perspRenameDryRun, &perspRenameDiff)
	_ = perspectiveRenameCmd.MarkFlagRequired("id")

	perspectiveDeleteCmd.Flags().StringVar(&perspDeleteID, "id", "", "Perspective id/name")
	perspectiveDeleteCmd.Flags().BoolVar(&perspDeleteForce, "force", false,
		"Also remove extends references from other perspectives")
	addMutationFlags(perspectiveDeleteCmd, &perspDeleteDryRun, &perspDeleteDiff)
	_ = perspectiveDeleteCmd.MarkFlagRequired("id")

	perspectiveReorderCmd.Flags().StringVar(&perspReorderID, "id", "", "Perspective id/name")
	perspectiveReorderCmd.Flags().IntVar(&perspReorderIndex, "index", 0, "Target 1-based index")
	addMutationFlags(perspectiveReorderCmd, &perspReorderDryRun, &perspReorderDiff)
	_ = perspectiveReorderCmd.MarkFlagRequired("id")
	_ = perspectiveReorderCmd.MarkFlagRequired("index")

	perspectiveCopyCmd.Flags().StringVar(&perspCopyID, "id", "", "Source perspective id/name")
	perspectiveCopyCmd.Flags().StringVar(&perspCopyNewID, "new-id", "", "Id for the copy")
	perspectiveCopyCmd.Flags().StringVar(&perspCopyNewName, "new-name", "", "Name for the copy")
	perspectiveCopyCmd.Flags().IntVar(&perspCopyIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	addMutationFlags(perspectiveCopyCmd, &perspCopyDryRun, &perspCopyDiff)
	_ = perspectiveCopyCmd.MarkFlagRequired("id")
	_ = perspectiveCopyCmd.MarkFlagRequired("new-id")

	perspectiveCmd.AddCommand(
		perspectiveListCmd,
		perspectiveCreateCmd,
		perspectiveRenameCmd,
		perspectiveDeleteCmd,
		perspectiveReorderCmd,
		perspectiveCopyCmd,
	)
	rootCmd.AddCommand(perspectiveCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

type perspectiveRowJSON struct {
	Index        int    `json:"index"`
	Identifier   string `json:"identifier"`
	Name         string `json:"name,omitempty"`
	Extends      string `json:"extends,omitempty"`
	Orientation  string `json:"orientation,omitempty"`
	HasRelations bool   `json:"hasRelations"`
	HasSequence  bool   `json:"hasSequence"`
}

func runPerspectiveList(cmd *cobra.Command, args []string) error {
	document, err := loadDiagram()
	if err != nil {
		return err
	}
	rows := ops.ListPerspectives(document)

	if perspListJSON {
		jsonRows := make([]perspectiveRowJSON, 0, len(rows))
		for _, row := range rows {
			jsonRows = append(jsonRows, perspectiveRowJSON{
				Index:        row.Index,
				Identifier:   row.Identifier,
				Name:         row.Name,
				Extends:      row.Extends,
				Orientation:  row.Orientation,
				HasRelations: row.HasRelations,
				HasSequence:  row.HasSequence,
			})
		}
		return printJSON(map[string]any{"count": len(rows), "rows": jsonRows})
	}

	if len(rows) == 0 {
		fmt.Println("no perspectives")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			strconv.Itoa(row.Index),
			row.Identifier,
			dash(row.Name),
			dash(row.Extends),
			dash(row.Orientation),
			yesNo(row.HasRelations),
			yesNo(row.HasSequence),
		})
	}
	printTable("Perspectives",
		[]string{"Index", "Identifier", "Name", "Extends", "Orientation", "Relations", "Sequence"},
		tableRows, perspListNoTruncate)
	fmt.Printf("total: %d\n", len(rows))
	return nil
}

func runPerspectiveCreate(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(perspCreateID, "id")
	if err != nil {
		return err
	}
	name := optionalValue(perspCreateName)
	if name == "" {
		name = id
	}
	opts := ops.CreatePerspectiveOptions{
		Extends:     optionalValue(perspCreateExtends),
		Orientation: optionalValue(perspCreateOrientation),
		Index1:      perspCreateIndex,
	}

	return runMutation(perspCreateDryRun, perspCreateDiff, func(document *yaml.Node) (bool, error) {
		return ops.CreatePerspective(document, id, name, opts)
	})
}

func runPerspectiveRename(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(perspRenameID, "id")
	if err != nil {
		return err
	}
	newID := optionalValue(perspRenameNewID)
	newName := optionalValue(perspRenameNewName)

	return runMutation(perspRenameDryRun, perspRenameDiff, func(document *yaml.Node) (bool, error) {
		return ops.RenamePerspective(document, id, newID, newName)
	})
}

func runPerspectiveDelete(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(perspDeleteID, "id")
	if err != nil {
		return err
	}

	return runMutation(perspDeleteDryRun, perspDeleteDiff, func(document *yaml.Node) (bool, error) {
		return ops.DeletePerspective(document, id, perspDeleteForce)
	})
}

func runPerspectiveReorder(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(perspReorderID, "id")
	if err != nil {
		return err
	}

	return runMutation(perspReorderDryRun, perspReorderDiff, func(document *yaml.Node) (bool, error) {
		return ops.ReorderPerspective(document, id, perspReorderIndex)
	})
}

func runPerspectiveCopy(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(perspCopyID, "id")
	if err != nil {
		return err
	}
	newID, err := requiredValue(perspCopyNewID, "new-id")
	if err != nil {
		return err
	}
	newName := optionalValue(perspCopyNewName)

	return runMutation(perspCopyDryRun, perspCopyDiff, func(document *yaml.Node) (bool, error) {
		return ops.CopyPerspective(document, id, newID, newName, perspCopyIndex)
	})
}
