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
	renameResourceID     string
	renameResourceName   string
	renameResourceDryRun bool
	renameResourceDiff   string

	renameIDFrom   string
	renameIDTo     string
	renameIDDryRun bool
	renameIDDiff   string
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename resources and resource ids",
}

var renameResourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Change a resource's display name",
	RunE:  runRenameResource,
}

var renameResourceIDCmd = &cobra.Command{
	Use:   "resource-id",
	Short: "Change a resource id and rewrite every reference to it",
	RunE:  runRenameResourceID,
}

func init() {
	renameResourceCmd.Flags().StringVar(&renameResourceID, "id", "", "Resource id to rename")
	renameResourceCmd.Flags().StringVar(&renameResourceName, "name", "", "New display name")
	addMutationFlags(renameResourceCmd, &renameResourceDryRun, &renameResourceDiff)
	_ = renameResourceCmd.MarkFlagRequired("id")
	_ = renameResourceCmd.MarkFlagRequired("name")

	renameResourceIDCmd.Flags().StringVar(&renameIDFrom, "from", "", "Existing resource id")
	renameResourceIDCmd.Flags().StringVar(&renameIDTo, "to", "",
		"New resource id (reference fields are rewritten)")
	addMutationFlags(renameResourceIDCmd, &renameIDDryRun, &renameIDDiff)
	_ = renameResourceIDCmd.MarkFlagRequired("from")
	_ = renameResourceIDCmd.MarkFlagRequired("to")

	renameCmd.AddCommand(renameResourceCmd, renameResourceIDCmd)
	rootCmd.AddCommand(renameCmd)
}

func runRenameResource(cmd *cobra.Command, args []string) error {
	id, err := requiredValue(renameResourceID, "id")
	if err != nil {
		return err
	}
	name, err := requiredValue(renameResourceName, "name")
	if err != nil {
		return err
	}

	return runMutation(renameResourceDryRun, renameResourceDiff, func(document *yaml.Node) (bool, error) {
		return ops.RenameResource(document, id, name)
	})
}

func runRenameResourceID(cmd *cobra.Command, args []string) error {
	from, err := requiredValue(renameIDFrom, "from")
	if err != nil {
		return err
	}
	to, err := requiredValue(renameIDTo, "to")
	if err != nil {
		return err
	}

	return runMutation(renameIDDryRun, renameIDDiff, func(document *yaml.Node) (bool, error) {
		return ops.RenameResourceID(document, from, to)
	})
}
