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

var (
	moveResourceID     string
	moveNewParent      string
	moveInheritStyle   bool
	moveResourceDryRun bool
	moveResourceDiff   string
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move resource subtrees in the diagram",
}

var moveResourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Reparent a resource subtree",
	RunE:  runMoveResource,
}

func init() {
	moveResourceCmd.Flags().StringVar(&moveResourceID, "id", "", "Resource id to move")
	moveResourceCmd.Flags().StringVar(&moveNewParent, "new-parent", "",
		"Destination parent resource id")
	moveResourceCmd.Flags().BoolVar(&moveInheritStyle, "inherit-style-from-parent", false,
		"Drop the moved resource's `style` so it inherits the destination parent style")
	addMutationFlags(moveResourceCmd, &moveResourceDryRun, &moveResourceDiff)
	_ = moveResourceCmd.MarkFlagRequired("id")
	_ = moveResourceCmd.MarkFlagRequired("new-parent")

	moveCmd.AddCommand(moveResourceCmd)
	rootCmd.AddCommand(moveCmd)
}

func runMoveResource(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(moveResourceID, "id")
	if err != nil {
		return err
	}
	newParent, err := requiredValue(moveNewParent, "new-parent")
	if err != nil {
		return err
	}

	return runMutation(moveResourceDryRun, moveResourceDiff, func(document *yaml.Node) (bool, error) {
		return ops.MoveResource(document, id, newParent, moveInheritStyle)
	})
}
