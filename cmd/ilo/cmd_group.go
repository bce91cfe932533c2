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

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/ops"
)

var (
	groupCreateID       string
	groupCreateName     string
	groupCreateParent   string
	groupCreateSubtitle string
	groupCreateDryRun   bool
	groupCreateDiff     string

	groupMoveIDs       string
	groupMoveNewParent string
	groupMoveDryRun    bool
	groupMoveDiff      string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Create groups and move many resources at once",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group resource",
	RunE:  runGroupCreate,
}

var groupMoveManyCmd = &cobra.Command{
	Use:   "move-many",
	Short: "Move several resources under one parent",
	RunE:  runGroupMoveMany,
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupCreateID, "id", "", "New group resource id")
	groupCreateCmd.Flags().StringVar(&groupCreateName, "name", "", "Group display name")
	groupCreateCmd.Flags().StringVar(&groupCreateParent, "parent", "",
		"Parent resource id, or 'none' to place the group at root")
	groupCreateCmd.Flags().StringVar(&groupCreateSubtitle, "subtitle", "", "Optional group subtitle")
	addMutationFlags(groupCreateCmd, &groupCreateDryRun, &groupCreateDiff)
	_ = groupCreateCmd.MarkFlagRequired("id")
	_ = groupCreateCmd.MarkFlagRequired("name")
	_ = groupCreateCmd.MarkFlagRequired("parent")

	groupMoveManyCmd.Flags().StringVar(&groupMoveIDs, "ids", "",
		"Comma-separated resource ids to move")
	groupMoveManyCmd.Flags().StringVar(&groupMoveNewParent, "new-parent", "",
		"Destination parent id, or 'none' to move to root")
	addMutationFlags(groupMoveManyCmd, &groupMoveDryRun, &groupMoveDiff)
	_ = groupMoveManyCmd.MarkFlagRequired("ids")
	_ = groupMoveManyCmd.MarkFlagRequired("new-parent")

	groupCmd.AddCommand(groupCreateCmd, groupMoveManyCmd)
	rootCmd.AddCommand(groupCmd)
}

func runGroupCreate(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(groupCreateID, "id")
	if err != nil {
		return err
	}
	name, err := requiredValue(groupCreateName, "name")
	if err != nil {
		return err
	}
	parent, err := requiredValue(groupCreateParent, "parent")
	if err != nil {
		return err
	}
	subtitle := optionalValue(groupCreateSubtitle)

	return runMutation(groupCreateDryRun, groupCreateDiff, func(document *yaml.Node) (bool, error) {
		return ops.CreateGroup(document, id, name, parent, subtitle)
	})
}

func runGroupMoveMany(cmd *cobra.Command, args []string) error {
	ids := splitMulti([]string{groupMoveIDs})
	if len(ids) == 0 {
		return docerr.New("ids must not be empty")
	}
	newParent, err := requiredValue(groupMoveNewParent, "new-parent")
	if err != nil {
		return err
	}

	return runMutation(groupMoveDryRun, groupMoveDiff, func(document *yaml.Node) (bool, error) {
		return ops.MoveMany(document, ids, newParent)
	})
}
