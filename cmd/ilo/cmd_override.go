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
	ovListPerspective string
	ovListJSON        bool
	ovListNoTruncate  bool

	ovAddPerspective string
	ovAddResourceID  string
	ovAddParentID    string
	ovAddScale       float64
	ovAddIndex       int
	ovAddDryRun      bool
	ovAddDiff        string

	ovEditPerspective   string
	ovEditResourceID    string
	ovEditNewResourceID string
	ovEditParentID      string
	ovEditScale         float64
	ovEditClearParent   bool
	ovEditClearScale    bool
	ovEditDryRun        bool
	ovEditDiff          string

	ovRemovePerspective string
	ovRemoveResourceID  string
	ovRemoveDryRun      bool
	ovRemoveDiff        string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Create, edit, delete, and list perspective overrides",
}

var overrideListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List overrides in a perspective",
	RunE:    runOverrideList,
}

var overrideAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an override row",
	RunE:  runOverrideAdd,
}

var overrideEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit an override row",
	RunE:  runOverrideEdit,
}

var overrideRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove an override row",
	RunE:  runOverrideRemove,
}

func init() {
	overrideListCmd.Flags().StringVar(&ovListPerspective, "perspective", "", "Perspective id/name")
	overrideListCmd.Flags().BoolVar(&ovListJSON, "json", false, "Machine-readable output")
	overrideListCmd.Flags().BoolVar(&ovListNoTruncate, "no-truncate", false,
		"Do not wrap/truncate table columns")
	_ = overrideListCmd.MarkFlagRequired("perspective")

	overrideAddCmd.Flags().StringVar(&ovAddPerspective, "perspective", "", "Perspective id/name")
	overrideAddCmd.Flags().StringVar(&ovAddResourceID, "resource-id", "", "Resource the override applies to")
	overrideAddCmd.Flags().StringVar(&ovAddParentID, "parent-id", "", "Override parent resource")
	overrideAddCmd.Flags().Float64Var(&ovAddScale, "scale", 0, "Override scale factor")
	overrideAddCmd.Flags().IntVar(&ovAddIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	addMutationFlags(overrideAddCmd, &ovAddDryRun, &ovAddDiff)
	_ = overrideAddCmd.MarkFlagRequired("perspective")
	_ = overrideAddCmd.MarkFlagRequired("resource-id")

	overrideEditCmd.Flags().StringVar(&ovEditPerspective, "perspective", "", "Perspective id/name")
	overrideEditCmd.Flags().StringVar(&ovEditResourceID, "resource-id", "", "Resource the override applies to")
	overrideEditCmd.Flags().StringVar(&ovEditNewResourceID, "new-resource-id", "", "Retarget the override")
	overrideEditCmd.Flags().StringVar(&ovEditParentID, "parent-id", "", "New override parent")
	overrideEditCmd.Flags().Float64Var(&ovEditScale, "scale", 0, "New scale factor")
	overrideEditCmd.Flags().BoolVar(&ovEditClearParent, "clear-parent-id", false, "Remove parentId")
	overrideEditCmd.Flags().BoolVar(&ovEditClearScale, "clear-scale", false, "Remove scale")
	addMutationFlags(overrideEditCmd, &ovEditDryRun, &ovEditDiff)
	_ = overrideEditCmd.MarkFlagRequired("perspective")
	_ = overrideEditCmd.MarkFlagRequired("resource-id")

	overrideRemoveCmd.Flags().StringVar(&ovRemovePerspective, "perspective", "", "Perspective id/name")
	overrideRemoveCmd.Flags().StringVar(&ovRemoveResourceID, "resource-id", "", "Resource the override applies to")
	addMutationFlags(overrideRemoveCmd, &ovRemoveDryRun, &ovRemoveDiff)
	_ = overrideRemoveCmd.MarkFlagRequired("perspective")
	_ = overrideRemoveCmd.MarkFlagRequired("resource-id")

	overrideCmd.AddCommand(overrideListCmd, overrideAddCmd, overrideEditCmd, overrideRemoveCmd)
	rootCmd.AddCommand(overrideCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

type overrideRowJSON struct {
	Index      int      `json:"index"`
	ResourceID string   `json:"resourceId"`
	ParentID   string   `json:"parentId,omitempty"`
	Scale      *float64 `json:"scale,omitempty"`
}

func runOverrideList(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(ovListPerspective, "perspective")
	if err != nil {
		return err
	}
	document, err := loadDiagram()
	if err != nil {
		return err
	}
	rows, err := ops.ListOverrides(document, perspective)
	if err != nil {
		return err
	}

	if ovListJSON {
		jsonRows := make([]overrideRowJSON, 0, len(rows))
		for _, row := range rows {
			jsonRows = append(jsonRows, overrideRowJSON{
				Index:      row.Index,
				ResourceID: row.ResourceID,
				ParentID:   row.ParentID,
				Scale:      row.Scale,
			})
		}
		return printJSON(map[string]any{"count": len(rows), "rows": jsonRows})
	}

	if len(rows) == 0 {
		fmt.Println("no overrides")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		scale := "-"
		if row.Scale != nil {
			scale = strconv.FormatFloat(*row.Scale, 'g', -1, 64)
		}
		tableRows = append(tableRows, []string{
			strconv.Itoa(row.Index), row.ResourceID, dash(row.ParentID), scale,
		})
	}
	printTable("Overrides: "+perspective,
		[]string{"Index", "Resource", "Parent", "Scale"}, tableRows, ovListNoTruncate)
	fmt.Printf("total: %d\n", len(rows))
	return nil
}

func runOverrideAdd(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(ovAddPerspective, "perspective")
	if err != nil {
		return err
	}
	resourceID, err := requiredValue(ovAddResourceID, "resource-id")
	if err != nil {
		return err
	}
	parentID := ""
	if cmd.Flags().Changed("parent-id") {
		parentID, err = requiredValue(ovAddParentID, "parent-id")
		if err != nil {
			return err
		}
	}
	var scale *float64
	if cmd.Flags().Changed("scale") {
		value := ovAddScale
		scale = &value
	}

	return runMutation(ovAddDryRun, ovAddDiff, func(document *yaml.Node) (bool, error) {
		return ops.AddOverride(document, perspective, resourceID, parentID, scale, ovAddIndex)
	})
}

func runOverrideEdit(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(ovEditPerspective, "perspective")
	if err != nil {
		return err
	}
	resourceID, err := requiredValue(ovEditResourceID, "resource-id")
	if err != nil {
		return err
	}

	edit := ops.OverrideEdit{
		ClearParentID: ovEditClearParent,
		ClearScale:    ovEditClearScale,
	}
	if cmd.Flags().Changed("new-resource-id") {
		edit.NewResourceID, err = requiredValue(ovEditNewResourceID, "new-resource-id")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("parent-id") {
		edit.ParentID, err = requiredValue(ovEditParentID, "parent-id")
		if err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("scale") {
		value := ovEditScale
		edit.Scale = &value
	}

	return runMutation(ovEditDryRun, ovEditDiff, func(document *yaml.Node) (bool, error) {
		return ops.EditOverride(document, perspective, resourceID, edit)
	})
}

func runOverrideRemove(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(ovRemovePerspective, "perspective")
	if err != nil {
		return err
	}
	resourceID, err := requiredValue(ovRemoveResourceID, "resource-id")
	if err != nil {
		return err
	}

	return runMutation(ovRemoveDryRun, ovRemoveDiff, func(document *yaml.Node) (bool, error) {
		return ops.RemoveOverride(document, perspective, resourceID)
	})
}
