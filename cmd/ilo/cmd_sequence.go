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
	seqListPerspective string
	seqListJSON        bool
	seqListNoTruncate  bool

	seqAddPerspective string
	seqAddValues      stepValues
	seqAddIndex       int
	seqAddStart       string
	seqAddDryRun      bool
	seqAddDiff        string

	seqEditPerspective string
	seqEditIndex       int
	seqEditValues      stepValues
	seqEditClearLabel  bool
	seqEditClearDesc   bool
	seqEditClearColor  bool
	seqEditDryRun      bool
	seqEditDiff        string

	seqRemovePerspective string
	seqRemoveIndex       int
	seqRemoveDryRun      bool
	seqRemoveDiff        string
)

// stepValues collects the shared sequence-step value flags for add and edit.
type stepValues struct {
	to          string
	toAndBack   string
	toAsync     string
	restartAt   string
	label       string
	description string
	color       string
}

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Create, edit, delete, and list sequence steps",
}

var sequenceListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List sequence steps in a perspective",
	RunE:    runSequenceList,
}

var sequenceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a sequence step",
	RunE:  runSequenceAdd,
}

var sequenceEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a sequence step",
	RunE:  runSequenceEdit,
}

var sequenceRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a sequence step",
	RunE:  runSequenceRemove,
}

func addStepValueFlags(cmd *cobra.Command, values *stepValues) {
	cmd.Flags().StringVar(&values.to, "to", "", "Step target (to)")
	cmd.Flags().StringVar(&values.toAndBack, "to-and-back", "", "Step target (toAndBack)")
	cmd.Flags().StringVar(&values.toAsync, "to-async", "", "Step target (toAsync)")
	cmd.Flags().StringVar(&values.restartAt, "restart-at", "", "Restart the sequence at a resource")
	cmd.Flags().StringVar(&values.label, "label", "", "Step label")
	cmd.Flags().StringVar(&values.description, "description", "", "Step description")
	cmd.Flags().StringVar(&values.color, "color", "", "Step color")
	cmd.Flags().Bool("bidirectional", false, "Mark the step bidirectional")
	cmd.Flags().Bool("no-bidirectional", false, "Mark the step not bidirectional")
}

func init() {
	sequenceListCmd.Flags().StringVar(&seqListPerspective, "perspective", "", "Perspective id/name")
	sequenceListCmd.Flags().BoolVar(&seqListJSON, "json", false, "Machine-readable output")
	sequenceListCmd.Flags().BoolVar(&seqListNoTruncate, "no-truncate", false,
		"Do not wrap/truncate table columns")
	_ = sequenceListCmd.MarkFlagRequired("perspective")

	sequenceAddCmd.Flags().StringVar(&seqAddPerspective, "perspective", "", "Perspective id/name")
	addStepValueFlags(sequenceAddCmd, &seqAddValues)
	sequenceAddCmd.Flags().IntVar(&seqAddIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	sequenceAddCmd.Flags().StringVar(&seqAddStart, "start", "",
		"Create the sequence with this start resource if the perspective has none")
	addMutationFlags(sequenceAddCmd, &seqAddDryRun, &seqAddDiff)
	_ = sequenceAddCmd.MarkFlagRequired("perspective")

	sequenceEditCmd.Flags().StringVar(&seqEditPerspective, "perspective", "", "Perspective id/name")
	sequenceEditCmd.Flags().IntVar(&seqEditIndex, "index", 0, "1-based step index")
	addStepValueFlags(sequenceEditCmd, &seqEditValues)
	sequenceEditCmd.Flags().BoolVar(&seqEditClearLabel, "clear-label", false, "Remove label")
	sequenceEditCmd.Flags().BoolVar(&seqEditClearDesc, "clear-description", false, "Remove description")
	sequenceEditCmd.Flags().BoolVar(&seqEditClearColor, "clear-color", false, "Remove color")
	addMutationFlags(sequenceEditCmd, &seqEditDryRun, &seqEditDiff)
	_ = sequenceEditCmd.MarkFlagRequired("perspective")
	_ = sequenceEditCmd.MarkFlagRequired("index")

	sequenceRemoveCmd.Flags().StringVar(&seqRemovePerspective, "perspective", "", "Perspective id/name")
	sequenceRemoveCmd.Flags().IntVar(&seqRemoveIndex, "index", 0, "1-based step index")
	addMutationFlags(sequenceRemoveCmd, &seqRemoveDryRun, &seqRemoveDiff)
	_ = sequenceRemoveCmd.MarkFlagRequired("perspective")
	_ = sequenceRemoveCmd.MarkFlagRequired("index")

	sequenceCmd.AddCommand(sequenceListCmd, sequenceAddCmd, sequenceEditCmd, sequenceRemoveCmd)
	rootCmd.AddCommand(sequenceCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

type stepRowJSON struct {
	Index         int    `json:"index"`
	To            string `json:"to,omitempty"`
	ToAndBack     string `json:"toAndBack,omitempty"`
	ToAsync       string `json:"toAsync,omitempty"`
	RestartAt     string `json:"restartAt,omitempty"`
	Label         string `json:"label,omitempty"`
	Description   string `json:"description,omitempty"`
	Bidirectional bool   `json:"bidirectional"`
	Color         string `json:"color,omitempty"`
}

// stepAction reports the one action field a step carries, as a kind/target
// pair for table rendering.
func stepAction(row ops.StepRow) (string, string) {
	switch {
	case row.To != "":
		return "to", row.To
	case row.ToAndBack != "":
		return "toAndBack", row.ToAndBack
	case row.ToAsync != "":
		return "toAsync", row.ToAsync
	case row.RestartAt != "":
		return "restartAt", row.RestartAt
	}
	return "-", "-"
}

func runSequenceList(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(seqListPerspective, "perspective")
	if err != nil {
		return err
	}
	document, err := loadDiagram()
	if err != nil {
		return err
	}
	rows, err := ops.ListSequenceSteps(document, perspective)
	if err != nil {
		return err
	}

	if seqListJSON {
		jsonRows := make([]stepRowJSON, 0, len(rows))
		for _, row := range rows {
			jsonRows = append(jsonRows, stepRowJSON{
				Index:         row.Index,
				To:            row.To,
				ToAndBack:     row.ToAndBack,
				ToAsync:       row.ToAsync,
				RestartAt:     row.RestartAt,
				Label:         row.Label,
				Description:   row.Description,
				Bidirectional: row.Bidirectional,
				Color:         row.Color,
			})
		}
		return printJSON(map[string]any{"count": len(rows), "rows": jsonRows})
	}

	if len(rows) == 0 {
		fmt.Println("no sequence steps")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		action, target := stepAction(row)
		tableRows = append(tableRows, []string{
			strconv.Itoa(row.Index), action, target,
			dash(row.Label), yesNo(row.Bidirectional), dash(row.Color),
		})
	}
	printTable("Sequence: "+perspective,
		[]string{"Index", "Action", "Target", "Label", "Bidirectional", "Color"},
		tableRows, seqListNoTruncate)
	fmt.Printf("total: %d\n", len(rows))
	return nil
}

func stepFieldsFromFlags(cmd *cobra.Command, values stepValues) (ops.StepFields, error) {
	fields := ops.StepFields{
		Bidirectional: triBool(cmd, "bidirectional", "no-bidirectional"),
	}
	var err error
	if cmd.Flags().Changed("to") {
		if fields.To, err = requiredValue(values.to, "to"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("to-and-back") {
		if fields.ToAndBack, err = requiredValue(values.toAndBack, "to-and-back"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("to-async") {
		if fields.ToAsync, err = requiredValue(values.toAsync, "to-async"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("restart-at") {
		if fields.RestartAt, err = requiredValue(values.restartAt, "restart-at"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("label") {
		fields.Label = values.label
	}
	if cmd.Flags().Changed("description") {
		fields.Description = values.description
	}
	if cmd.Flags().Changed("color") {
		if fields.Color, err = requiredValue(values.color, "color"); err != nil {
			return fields, err
		}
	}
	return fields, nil
}

func runSequenceAdd(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(seqAddPerspective, "perspective")
	if err != nil {
		return err
	}
	fields, err := stepFieldsFromFlags(cmd, seqAddValues)
	if err != nil {
		return err
	}
	start := ""
	if cmd.Flags().Changed("start") {
		if start, err = requiredValue(seqAddStart, "start"); err != nil {
			return err
		}
	}

	return runMutation(seqAddDryRun, seqAddDiff, func(document *yaml.Node) (bool, error) {
		return ops.AddSequenceStep(document, perspective, fields, seqAddIndex, start)
	})
}

func runSequenceEdit(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(seqEditPerspective, "perspective")
	if err != nil {
		return err
	}
	fields, err := stepFieldsFromFlags(cmd, seqEditValues)
	if err != nil {
		return err
	}
	edit := ops.StepEdit{
		Fields:           fields,
		ClearLabel:       seqEditClearLabel,
		ClearDescription: seqEditClearDesc,
		ClearColor:       seqEditClearColor,
	}

	return runMutation(seqEditDryRun, seqEditDiff, func(document *yaml.Node) (bool, error) {
		return ops.EditSequenceStep(document, perspective, seqEditIndex, edit)
	})
}

func runSequenceRemove(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(seqRemovePerspective, "perspective")
	if err != nil {
		return err
	}

	return runMutation(seqRemoveDryRun, seqRemoveDiff, func(document *yaml.Node) (bool, error) {
		return ops.RemoveSequenceStep(document, perspective, seqRemoveIndex)
	})
}
