// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/ops"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	resourceCreateID       string
	resourceCreateName     string
	resourceCreateParent   string
	resourceCreateSubtitle string
	resourceCreateDryRun   bool
	resourceCreateDiff     string

	resourceDeleteID      string
	resourceDeleteSubtree bool
	resourceDeleteDryRun  bool
	resourceDeleteDiff    string

	resourceCloneID           string
	resourceCloneNewID        string
	resourceCloneNewParent    string
	resourceCloneNewName      string
	resourceCloneWithChildren bool
	resourceCloneDryRun       bool
	resourceCloneDiff         string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Create, delete, and clone resources",
}

var resourceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a resource under a parent or at the root",
	RunE:  runResourceCreate,
}

var resourceDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a resource by explicit id",
	RunE:  runResourceDelete,
}

var resourceCloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone a resource to a new explicit id",
	RunE:  runResourceClone,
}

func init() {
	resourceCreateCmd.Flags().StringVar(&resourceCreateID, "id", "", "New resource id")
	resourceCreateCmd.Flags().StringVar(&resourceCreateName, "name", "", "Display name")
	resourceCreateCmd.Flags().StringVar(&resourceCreateParent, "parent", "none",
		"Parent explicit id, or `none` for root")
	resourceCreateCmd.Flags().StringVar(&resourceCreateSubtitle, "subtitle", "", "Optional subtitle")
	addMutationFlags(resourceCreateCmd, &resourceCreateDryRun, &resourceCreateDiff)
	_ = resourceCreateCmd.MarkFlagRequired("id")
	_ = resourceCreateCmd.MarkFlagRequired("name")

	resourceDeleteCmd.Flags().StringVar(&resourceDeleteID, "id", "", "Resource id to delete")
	resourceDeleteCmd.Flags().BoolVar(&resourceDeleteSubtree, "delete-subtree", false,
		"Allow deleting a resource that has children")
	addMutationFlags(resourceDeleteCmd, &resourceDeleteDryRun, &resourceDeleteDiff)
	_ = resourceDeleteCmd.MarkFlagRequired("id")

	resourceCloneCmd.Flags().StringVar(&resourceCloneID, "id", "", "Source resource id")
	resourceCloneCmd.Flags().StringVar(&resourceCloneNewID, "new-id", "", "Id for the clone")
	resourceCloneCmd.Flags().StringVar(&resourceCloneNewParent, "new-parent", "",
		"Explicit parent id. Omit to keep source parent, or pass `none` for root")
	resourceCloneCmd.Flags().StringVar(&resourceCloneNewName, "new-name", "", "Name for the clone")
	resourceCloneCmd.Flags().BoolVar(&resourceCloneWithChildren, "with-children", false,
		"Clone the full subtree instead of only the resource node")
	addMutationFlags(resourceCloneCmd, &resourceCloneDryRun, &resourceCloneDiff)
	_ = resourceCloneCmd.MarkFlagRequired("id")
	_ = resourceCloneCmd.MarkFlagRequired("new-id")

	resourceCmd.AddCommand(resourceCreateCmd, resourceDeleteCmd, resourceCloneCmd)
	rootCmd.AddCommand(resourceCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func runResourceCreate(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(resourceCreateID, "id")
	if err != nil {
		return err
	}
	name, err := requiredValue(resourceCreateName, "name")
	if err != nil {
		return err
	}
	parent, err := requiredValue(resourceCreateParent, "parent")
	if err != nil {
		return err
	}
	subtitle := optionalValue(resourceCreateSubtitle)

	return runMutation(resourceCreateDryRun, resourceCreateDiff, func(document *yaml.Node) (bool, error) {
		return ops.CreateResource(document, id, name, parent, subtitle)
	})
}

func runResourceDelete(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(resourceDeleteID, "id")
	if err != nil {
		return err
	}

	return runMutation(resourceDeleteDryRun, resourceDeleteDiff, func(document *yaml.Node) (bool, error) {
		return ops.DeleteResource(document, id, resourceDeleteSubtree)
	})
}

func runResourceClone(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(resourceCloneID, "id")
	if err != nil {
		return err
	}
	newID, err := requiredValue(resourceCloneNewID, "new-id")
	if err != nil {
		return err
	}

	opts := ops.CloneResourceOptions{
		NewID:        newID,
		NewName:      optionalValue(resourceCloneNewName),
		WithChildren: resourceCloneWithChildren,
	}
	if cmd.Flags().Changed("new-parent") {
		parent, err := requiredValue(resourceCloneNewParent, "new-parent")
		if err != nil {
			return err
		}
		opts.HasNewParent = true
		opts.NewParentID = parent
	}

	return runMutation(resourceCloneDryRun, resourceCloneDiff, func(document *yaml.Node) (bool, error) {
		return ops.CloneResource(document, id, opts)
	})
}
