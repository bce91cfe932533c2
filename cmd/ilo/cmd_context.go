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
	ctxListJSON       bool
	ctxListNoTruncate bool

	ctxCreateName    string
	ctxCreateExtends string
	ctxCreateIndex   int
	ctxCreateDryRun  bool
	ctxCreateDiff    string

	ctxRenameName    string
	ctxRenameNewName string
	ctxRenameDryRun  bool
	ctxRenameDiff    string

	ctxDeleteName   string
	ctxDeleteForce  bool
	ctxDeleteDryRun bool
	ctxDeleteDiff   string

	ctxReorderName   string
	ctxReorderIndex  int
	ctxReorderDryRun bool
	ctxReorderDiff   string

	ctxCopyName    string
	ctxCopyNewName string
	ctxCopyIndex   int
	ctxCopyDryRun  bool
	ctxCopyDiff    string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Create, delete, rename, copy, and reorder contexts",
}

var contextListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List contexts",
	RunE:    runContextList,
}

var contextCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a context",
	RunE:  runContextCreate,
}

var contextRenameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename a context",
	RunE:  runContextRename,
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a context",
	RunE:  runContextDelete,
}

var contextReorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Move a context to a new position",
	RunE:  runContextReorder,
}

var contextCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy a context to a new name",
	RunE:  runContextCopy,
}

func init() {
	contextListCmd.Flags().BoolVar(&ctxListJSON, "json", false, "Machine-readable output")
	contextListCmd.Flags().BoolVar(&ctxListNoTruncate, "no-truncate", false,
		"Do not wrap/truncate table columns")

	contextCreateCmd.Flags().StringVar(&ctxCreateName, "name", "", "New context name")
	contextCreateCmd.Flags().StringVar(&ctxCreateExtends, "extends", "",
		"Context name(s) to extend")
	contextCreateCmd.Flags().Bool("hidden", false, "Mark the context hidden")
	contextCreateCmd.Flags().Bool("visible", false, "Mark the context visible")
	contextCreateCmd.Flags().IntVar(&ctxCreateIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	addMutationFlags(contextCreateCmd, &ctxCreateDryRun, &ctxCreateDiff)
	_ = contextCreateCmd.MarkFlagRequired("name")

	contextRenameCmd.Flags().StringVar(&ctxRenameName, "name", "", "Current context name")
	contextRenameCmd.Flags().StringVar(&ctxRenameNewName, "new-name", "", "New context name")
	addMutationFlags(contextRenameCmd, &ctxRenameDryRun, &ctxRenameDiff)
	_ = contextRenameCmd.MarkFlagRequired("name")
	_ = contextRenameCmd.MarkFlagRequired("new-name")

	contextDeleteCmd.Flags().StringVar(&ctxDeleteName, "name", "", "Context name")
	contextDeleteCmd.Flags().BoolVar(&ctxDeleteForce, "force", false,
		"Also remove extends references from other contexts")
	addMutationFlags(contextDeleteCmd, &ctxDeleteDryRun, &ctxDeleteDiff)
	_ = contextDeleteCmd.MarkFlagRequired("name")

	contextReorderCmd.Flags().StringVar(&ctxReorderName, "name", "", "Context name")
	contextReorderCmd.Flags().IntVar(&ctxReorderIndex, "index", 0, "Target 1-based index")
	addMutationFlags(contextReorderCmd, &ctxReorderDryRun, &ctxReorderDiff)
	_ = contextReorderCmd.MarkFlagRequired("name")
	_ = contextReorderCmd.MarkFlagRequired("index")

	contextCopyCmd.Flags().StringVar(&ctxCopyName, "name", "", "Source context name")
	contextCopyCmd.Flags().StringVar(&ctxCopyNewName, "new-name", "", "Name for the copy")
	contextCopyCmd.Flags().IntVar(&ctxCopyIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	addMutationFlags(contextCopyCmd, &ctxCopyDryRun, &ctxCopyDiff)
	_ = contextCopyCmd.MarkFlagRequired("name")
	_ = contextCopyCmd.MarkFlagRequired("new-name")

	contextCmd.AddCommand(
		contextListCmd,
		contextCreateCmd,
		contextRenameCmd,
		contextDeleteCmd,
		contextReorderCmd,
		contextCopyCmd,
	)
	rootCmd.AddCommand(contextCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

type contextRowJSON struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Extends  string `json:"extends,omitempty"`
	Hidden   bool   `json:"hidden"`
	HasRoots bool   `json:"hasRoots"`
}

func runContextList(cmd *cobra.Command, args []string) error {
	document, err := loadDiagram()
	if err != nil {
		return err
	}
	rows := ops.ListContexts(document)

	if ctxListJSON {
		jsonRows := make([]contextRowJSON, 0, len(rows))
		for _, row := range rows {
			jsonRows = append(jsonRows, contextRowJSON{
				Index:    row.Index,
				Name:     row.Name,
				Extends:  row.Extends,
				Hidden:   row.Hidden,
				HasRoots: row.HasRoots,
			})
		}
		return printJSON(map[string]any{"count": len(rows), "rows": jsonRows})
	}

	if len(rows) == 0 {
		fmt.Println("no contexts")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			strconv.Itoa(row.Index),
			row.Name,
			dash(row.Extends),
			yesNo(row.Hidden),
			yesNo(row.HasRoots),
		})
	}
	printTable("Contexts",
		[]string{"Index", "Name", "Extends", "Hidden", "Roots"},
		tableRows, ctxListNoTruncate)
	fmt.Printf("total: %d\n", len(rows))
	return nil
}

func runContextCreate(cmd *cobra.Command, args []string) error {
	name, err := requiredValue(ctxCreateName, "name")
	if err != nil {
		return err
	}
	opts := ops.CreateContextOptions{
		Extends: optionalValue(ctxCreateExtends),
		Hidden:  triBool(cmd, "hidden", "visible"),
		Index1:  ctxCreateIndex,
	}

	return runMutation(ctxCreateDryRun, ctxCreateDiff, func(document *yaml.Node) (bool, error) {
		return ops.CreateContext(document, name, opts)
	})
}

func runContextRename(cmd *cobra.Command, args []string) error {
	name, err := requiredValue(ctxRenameName, "name")
	if err != nil {
		return err
	}
	newName, err := requiredValue(ctxRenameNewName, "new-name")
	if err != nil {
		return err
	}

	return runMutation(ctxRenameDryRun, ctxRenameDiff, func(document *yaml.Node) (bool, error) {
		return ops.RenameContext(document, name, newName)
	})
}

func runContextDelete(cmd *cobra.Command, args []string) error {
	name, err := requiredValue(ctxDeleteName, "name")
	if err != nil {
		return err
	}

	return runMutation(ctxDeleteDryRun, ctxDeleteDiff, func(document *yaml.Node) (bool, error) {
		return ops.DeleteContext(document, name, ctxDeleteForce)
	})
}

func runContextReorder(cmd *cobra.Command, args []string) error {
	name, err := requiredValue(ctxReorderName, "name")
	if err != nil {
		return err
	}

	return runMutation(ctxReorderDryRun, ctxReorderDiff, func(document *yaml.Node) (bool, error) {
		return ops.ReorderContext(document, name, ctxReorderIndex)
	})
}

func runContextCopy(cmd *cobra.Command, args []string) error {
	name, err := requiredValue(ctxCopyName, "name")
	if err != nil {
		return err
	}
	newName, err := requiredValue(ctxCopyNewName, "new-name")
	if err != nil {
		return err
	}

	return runMutation(ctxCopyDryRun, ctxCopyDiff, func(document *yaml.Node) (bool, error) {
		return ops.CopyContext(document, name, newName, ctxCopyIndex)
	})
}
