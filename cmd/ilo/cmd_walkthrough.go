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
	wtListPerspective string
	wtListJSON        bool
	wtListNoTruncate  bool

	wtAddPerspective string
	wtAddValues      slideValues
	wtAddIndex       int
	wtAddDryRun      bool
	wtAddDiff        string

	wtEditPerspective   string
	wtEditIndex         int
	wtEditValues        slideValues
	wtEditClearText     bool
	wtEditClearSelect   bool
	wtEditClearExpand   bool
	wtEditClearHighlite bool
	wtEditClearHide     bool
	wtEditClearDetail   bool
	wtEditDryRun        bool
	wtEditDiff          string

	wtRemovePerspective string
	wtRemoveIndex       int
	wtRemoveDryRun      bool
	wtRemoveDiff        string
)

// slideValues collects the shared walkthrough slide value flags.
type slideValues struct {
	text      string
	selectRef string
	expand    string
	highlight string
	hide      string
	detail    float64
}

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var walkthroughCmd = &cobra.Command{
	Use:   "walkthrough",
	Short: "Create, edit, delete, and list walkthrough slides",
}

var walkthroughListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List walkthrough slides in a perspective",
	RunE:    runWalkthroughList,
}

var walkthroughAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a walkthrough slide",
	RunE:  runWalkthroughAdd,
}

var walkthroughEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a walkthrough slide",
	RunE:  runWalkthroughEdit,
}

var walkthroughRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a walkthrough slide",
	RunE:  runWalkthroughRemove,
}

func addSlideValueFlags(cmd *cobra.Command, values *slideValues) {
	cmd.Flags().StringVar(&values.text, "text", "", "Slide markdown text")
	cmd.Flags().StringVar(&values.selectRef, "select", "", "Reference expression to select")
	cmd.Flags().StringVar(&values.expand, "expand", "", "Reference expression to expand")
	cmd.Flags().StringVar(&values.highlight, "highlight", "", "Reference expression to highlight")
	cmd.Flags().StringVar(&values.hide, "hide", "", "Reference expression to hide")
	cmd.Flags().Float64Var(&values.detail, "detail", 0, "Detail level for the slide")
}

func init() {
	walkthroughListCmd.Flags().StringVar(&wtListPerspective, "perspective", "", "Perspective id/name")
	walkthroughListCmd.Flags().BoolVar(&wtListJSON, "json", false, "Machine-readable output")
	walkthroughListCmd.Flags().BoolVar(&wtListNoTruncate, "no-truncate", false,
		"Do not wrap/truncate table columns")
	_ = walkthroughListCmd.MarkFlagRequired("perspective")

	walkthroughAddCmd.Flags().StringVar(&wtAddPerspective, "perspective", "", "Perspective id/name")
	addSlideValueFlags(walkthroughAddCmd, &wtAddValues)
	walkthroughAddCmd.Flags().IntVar(&wtAddIndex, "index", 0,
		"Insert at 1-based position (default: append)")
	addMutationFlags(walkthroughAddCmd, &wtAddDryRun, &wtAddDiff)
	_ = walkthroughAddCmd.MarkFlagRequired("perspective")

	walkthroughEditCmd.Flags().StringVar(&wtEditPerspective, "perspective", "", "Perspective id/name")
	walkthroughEditCmd.Flags().IntVar(&wtEditIndex, "index", 0, "1-based slide index")
	addSlideValueFlags(walkthroughEditCmd, &wtEditValues)
	walkthroughEditCmd.Flags().BoolVar(&wtEditClearText, "clear-text", false, "Remove text")
	walkthroughEditCmd.Flags().BoolVar(&wtEditClearSelect, "clear-select", false, "Remove select")
	walkthroughEditCmd.Flags().BoolVar(&wtEditClearExpand, "clear-expand", false, "Remove expand")
	walkthroughEditCmd.Flags().BoolVar(&wtEditClearHighlite, "clear-highlight", false, "Remove highlight")
	walkthroughEditCmd.Flags().BoolVar(&wtEditClearHide, "clear-hide", false, "Remove hide")
	walkthroughEditCmd.Flags().BoolVar(&wtEditClearDetail, "clear-detail", false, "Remove detail")
	addMutationFlags(walkthroughEditCmd, &wtEditDryRun, &wtEditDiff)
	_ = walkthroughEditCmd.MarkFlagRequired("perspective")
	_ = walkthroughEditCmd.MarkFlagRequired("index")

	walkthroughRemoveCmd.Flags().StringVar(&wtRemovePerspective, "perspective", "", "Perspective id/name")
	walkthroughRemoveCmd.Flags().IntVar(&wtRemoveIndex, "index", 0, "1-based slide index")
	addMutationFlags(walkthroughRemoveCmd, &wtRemoveDryRun, &wtRemoveDiff)
	_ = walkthroughRemoveCmd.MarkFlagRequired("perspective")
	_ = walkthroughRemoveCmd.MarkFlagRequired("index")

	walkthroughCmd.AddCommand(walkthroughListCmd, walkthroughAddCmd,
		walkthroughEditCmd, walkthroughRemoveCmd)
	rootCmd.AddCommand(walkthroughCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

type slideRowJSON struct {
	Index     int      `json:"index"`
	Text      string   `json:"text,omitempty"`
	Select    string   `json:"select,omitempty"`
	Expand    string   `json:"expand,omitempty"`
	Highlight string   `json:"highlight,omitempty"`
	Hide      string   `json:"hide,omitempty"`
	Detail    *float64 `json:"detail,omitempty"`
}

func runWalkthroughList(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(wtListPerspective, "perspective")
	if err != nil {
		return err
	}
	document, err := loadDiagram()
	if err != nil {
		return err
	}
	rows, err := ops.ListWalkthroughSlides(document, perspective)
	if err != nil {
		return err
	}

	if wtListJSON {
		jsonRows := make([]slideRowJSON, 0, len(rows))
		for _, row := range rows {
			jsonRows = append(jsonRows, slideRowJSON{
				Index:     row.Index,
				Text:      row.Text,
				Select:    row.Select,
				Expand:    row.Expand,
				Highlight: row.Highlight,
				Hide:      row.Hide,
				Detail:    row.Detail,
			})
		}
		return printJSON(map[string]any{"count": len(rows), "rows": jsonRows})
	}

	if len(rows) == 0 {
		fmt.Println("no walkthrough slides")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		detail := "-"
		if row.Detail != nil {
			detail = strconv.FormatFloat(*row.Detail, 'g', -1, 64)
		}
		tableRows = append(tableRows, []string{
			strconv.Itoa(row.Index), dash(row.Text), dash(row.Select),
			dash(row.Expand), dash(row.Highlight), dash(row.Hide), detail,
		})
	}
	printTable("Walkthrough: "+perspective,
		[]string{"Index", "Text", "Select", "Expand", "Highlight", "Hide", "Detail"},
		tableRows, wtListNoTruncate)
	fmt.Printf("total: %d\n", len(rows))
	return nil
}

func slideFieldsFromFlags(cmd *cobra.Command, values slideValues) (ops.SlideFields, error) {
	fields := ops.SlideFields{}
	var err error
	if cmd.Flags().Changed("text") {
		fields.Text = values.text
	}
	if cmd.Flags().Changed("select") {
		if fields.Select, err = requiredValue(values.selectRef, "select"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("expand") {
		if fields.Expand, err = requiredValue(values.expand, "expand"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("highlight") {
		if fields.Highlight, err = requiredValue(values.highlight, "highlight"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("hide") {
		if fields.Hide, err = requiredValue(values.hide, "hide"); err != nil {
			return fields, err
		}
	}
	if cmd.Flags().Changed("detail") {
		value := values.detail
		fields.Detail = &value
	}
	return fields, nil
}

func runWalkthroughAdd(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(wtAddPerspective, "perspective")
	if err != nil {
		return err
	}
	fields, err := slideFieldsFromFlags(cmd, wtAddValues)
	if err != nil {
		return err
	}

	return runMutation(wtAddDryRun, wtAddDiff, func(document *yaml.Node) (bool, error) {
		return ops.AddWalkthroughSlide(document, perspective, fields, wtAddIndex)
	})
}

func runWalkthroughEdit(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(wtEditPerspective, "perspective")
	if err != nil {
		return err
	}
	fields, err := slideFieldsFromFlags(cmd, wtEditValues)
	if err != nil {
		return err
	}
	edit := ops.SlideEdit{
		Fields:         fields,
		ClearText:      wtEditClearText,
		ClearSelect:    wtEditClearSelect,
		ClearExpand:    wtEditClearExpand,
		ClearHighlight: wtEditClearHighlite,
		ClearHide:      wtEditClearHide,
		ClearDetail:    wtEditClearDetail,
	}

	return runMutation(wtEditDryRun, wtEditDiff, func(document *yaml.Node) (bool, error) {
		return ops.EditWalkthroughSlide(document, perspective, wtEditIndex, edit)
	})
}

func runWalkthroughRemove(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(wtRemovePerspective, "perspective")
	if err != nil {
		return err
	}

	return runMutation(wtRemoveDryRun, wtRemoveDiff, func(document *yaml.Node) (bool, error) {
		return ops.RemoveWalkthroughSlide(document, perspective, wtRemoveIndex)
	})
}
