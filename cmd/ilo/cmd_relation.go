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
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/ops"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// relationValues collects the shared from/to/via/... flag octet used by
// ls filters, add payloads, and match/set templates.
type relationValues struct {
	from           string
	to             string
	via            string
	label          string
	description    string
	arrowDirection string
	color          string
}

var (
	relListPerspectives []string
	relListValues       relationValues
	relListJSON         bool
	relListNoTruncate   bool

	relAddPerspective string
	relAddValues      relationValues
	relAddDryRun      bool
	relAddDiff        string

	relRemovePerspective string
	relRemoveIndex       int
	relRemoveDryRun      bool
	relRemoveDiff        string

	relRemoveMatchPerspectives []string
	relRemoveMatchContexts     []string
	relRemoveMatchValues       relationValues
	relRemoveMatchAllowNoop    bool
	relRemoveMatchDryRun       bool
	relRemoveMatchDiff         string

	relEditPerspective string
	relEditIndex       int
	relEditValues      relationValues
	relEditClearFrom   bool
	relEditClearTo     bool
	relEditClearVia    bool
	relEditClearLabel  bool
	relEditClearDesc   bool
	relEditDryRun      bool
	relEditDiff        string

	relEditMatchPerspectives []string
	relEditMatchContexts     []string
	relEditMatchMatch        relationValues
	relEditMatchSet          relationValues
	relEditMatchClearFlags   map[string]*bool
	relEditMatchAllowNoop    bool
	relEditMatchDryRun       bool
	relEditMatchDiff         string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Add, remove, and edit perspective relations",
}

var relationListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List perspective relations with filters",
	RunE:    runRelationList,
}

var relationAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a relation to a perspective",
	RunE:  runRelationAdd,
}

var relationRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a relation by 1-based index",
	RunE:  runRelationRemove,
}

var relationRemoveMatchCmd = &cobra.Command{
	Use:   "remove-match",
	Short: "Remove every relation matching the filters",
	RunE:  runRelationRemoveMatch,
}

var relationEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a relation by 1-based index",
	RunE:  runRelationEdit,
}

var relationEditMatchCmd = &cobra.Command{
	Use:   "edit-match",
	Short: "Edit every relation matching the filters",
	RunE:  runRelationEditMatch,
}

// addRelationValueFlags registers the from/to/via/... octet with an
// optional prefix ("match-", "set-").
func addRelationValueFlags(cmd *cobra.Command, values *relationValues, prefix string) {
	cmd.Flags().StringVar(&values.from, prefix+"from", "", "Relation `from` reference")
	cmd.Flags().StringVar(&values.to, prefix+"to", "", "Relation `to` reference")
	cmd.Flags().StringVar(&values.via, prefix+"via", "", "Relation `via` reference")
	cmd.Flags().StringVar(&values.label, prefix+"label", "", "Relation label")
	cmd.Flags().StringVar(&values.description, prefix+"description", "", "Relation description")
	cmd.Flags().StringVar(&values.arrowDirection, prefix+"arrow-direction", "",
		"Arrow direction: forward | backward | bidirectional")
	cmd.Flags().StringVar(&values.color, prefix+"color", "", "Relation color")
}

func addSecondaryFlags(cmd *cobra.Command, prefix, negPrefix string) {
	cmd.Flags().Bool(prefix+"secondary", false, "Mark relation.secondary true")
	cmd.Flags().Bool(negPrefix+"secondary", false, "Mark relation.secondary false")
}

func init() {
	relationListCmd.Flags().StringSliceVar(&relListPerspectives, "perspective", nil,
		"Perspective id/name filter; repeat or pass comma-separated values")
	addRelationValueFlags(relationListCmd, &relListValues, "")
	addSecondaryFlags(relationListCmd, "", "no-")
	relationListCmd.Flags().BoolVar(&relListJSON, "json", false, "Machine-readable output")
	relationListCmd.Flags().BoolVar(&relListNoTruncate, "no-truncate", false,
		"Do not wrap/truncate table columns")

	relationAddCmd.Flags().StringVar(&relAddPerspective, "perspective", "", "Perspective id/name")
	addRelationValueFlags(relationAddCmd, &relAddValues, "")
	addSecondaryFlags(relationAddCmd, "", "no-")
	addMutationFlags(relationAddCmd, &relAddDryRun, &relAddDiff)
	_ = relationAddCmd.MarkFlagRequired("perspective")

	relationRemoveCmd.Flags().StringVar(&relRemovePerspective, "perspective", "", "Perspective id/name")
	relationRemoveCmd.Flags().IntVar(&relRemoveIndex, "index", 0, "1-based relation index")
	addMutationFlags(relationRemoveCmd, &relRemoveDryRun, &relRemoveDiff)
	_ = relationRemoveCmd.MarkFlagRequired("perspective")
	_ = relationRemoveCmd.MarkFlagRequired("index")

	relationRemoveMatchCmd.Flags().StringSliceVar(&relRemoveMatchPerspectives, "perspective", nil,
		"Perspective id/name filter; repeat or pass comma-separated values")
	relationRemoveMatchCmd.Flags().StringSliceVar(&relRemoveMatchContexts, "context", nil,
		"Context for {context} template expansion; repeat/comma-separated")
	addRelationValueFlags(relationRemoveMatchCmd, &relRemoveMatchValues, "")
	addSecondaryFlags(relationRemoveMatchCmd, "", "no-")
	relationRemoveMatchCmd.Flags().BoolVar(&relRemoveMatchAllowNoop, "allow-noop", false,
		"Succeed even when nothing matches (default: require a match)")
	addMutationFlags(relationRemoveMatchCmd, &relRemoveMatchDryRun, &relRemoveMatchDiff)

	relationEditCmd.Flags().StringVar(&relEditPerspective, "perspective", "", "Perspective id/name")
	relationEditCmd.Flags().IntVar(&relEditIndex, "index", 0, "1-based relation index")
	addRelationValueFlags(relationEditCmd, &relEditValues, "")
	addSecondaryFlags(relationEditCmd, "", "no-")
	relationEditCmd.Flags().BoolVar(&relEditClearFrom, "clear-from", false, "Remove `from`")
	relationEditCmd.Flags().BoolVar(&relEditClearTo, "clear-to", false, "Remove `to`")
	relationEditCmd.Flags().BoolVar(&relEditClearVia, "clear-via", false, "Remove `via`")
	relationEditCmd.Flags().BoolVar(&relEditClearLabel, "clear-label", false, "Remove label")
	relationEditCmd.Flags().BoolVar(&relEditClearDesc, "clear-description", false, "Remove description")
	addMutationFlags(relationEditCmd, &relEditDryRun, &relEditDiff)
	_ = relationEditCmd.MarkFlagRequired("perspective")
	_ = relationEditCmd.MarkFlagRequired("index")

	relationEditMatchCmd.Flags().StringSliceVar(&relEditMatchPerspectives, "perspective", nil,
		"Perspective id/name filter; repeat or pass comma-separated values")
	relationEditMatchCmd.Flags().StringSliceVar(&relEditMatchContexts, "context", nil,
		"Context for {context} template expansion; repeat/comma-separated")
	addRelationValueFlags(relationEditMatchCmd, &relEditMatchMatch, "match-")
	addSecondaryFlags(relationEditMatchCmd, "match-", "match-no-")
	addRelationValueFlags(relationEditMatchCmd, &relEditMatchSet, "set-")
	addSecondaryFlags(relationEditMatchCmd, "set-", "set-no-")
	relEditMatchClearFlags = map[string]*bool{}
	for _, field := range []string{
		"from", "to", "via", "label", "description", "arrow-direction", "color", "secondary",
	} {
		relEditMatchClearFlags[field] = relationEditMatchCmd.Flags().Bool(
			"clear-"+field, false, "Remove `"+field+"` from matched relations")
	}
	relationEditMatchCmd.Flags().BoolVar(&relEditMatchAllowNoop, "allow-noop", false,
		"Succeed even when nothing matches (default: require a match)")
	addMutationFlags(relationEditMatchCmd, &relEditMatchDryRun, &relEditMatchDiff)

	relationCmd.AddCommand(
		relationListCmd,
		relationAddCmd,
		relationRemoveCmd,
		relationRemoveMatchCmd,
		relationEditCmd,
		relationEditMatchCmd,
	)
	rootCmd.AddCommand(relationCmd)
}

// =============================================================================
// TEMPLATE CONSTRUCTION
// =============================================================================

// buildRelationTemplate converts the passed flags into a match/set
// template. Only flags the user actually set are included; blanks
// are rejected.
func buildRelationTemplate(cmd *cobra.Command, values relationValues, prefix string) (ops.Template, error) {
	template := ops.Template{}

	stringFields := []struct {
		flag string
		key  string
		raw  string
	}{
		{prefix + "from", "from", values.from},
		{prefix + "to", "to", values.to},
		{prefix + "via", "via", values.via},
		{prefix + "label", "label", values.label},
		{prefix + "description", "description", values.description},
		{prefix + "color", "color", values.color},
	}
	for _, field := range stringFields {
		if !cmd.Flags().Changed(field.flag) {
			continue
		}
		cleaned, err := requiredValue(field.raw, field.flag)
		if err != nil {
			return nil, err
		}
		template[field.key] = cleaned
	}

	if cmd.Flags().Changed(prefix + "arrow-direction") {
		direction := strings.ToLower(strings.TrimSpace(values.arrowDirection))
		if direction == "" {
			return nil, docerr.New("arrow-direction must not be empty")
		}
		switch direction {
		case "forward", "backward", "bidirectional":
		default:
			return nil, docerr.New("arrow-direction must be one of: forward, backward, bidirectional")
		}
		template["arrowDirection"] = direction
	}

	if secondary := triBool(cmd, prefix+"secondary", negatedSecondaryFlag(prefix)); secondary != nil {
		template["secondary"] = *secondary
	}

	return template, nil
}

func negatedSecondaryFlag(prefix string) string {
	if prefix == "" {
		return "no-secondary"
	}
	return prefix + "no-secondary"
}

// relationFieldsFromTemplate converts a template into the typed payload
// single-relation operations take.
func relationFieldsFromTemplate(template ops.Template) ops.RelationFields {
	fields := ops.RelationFields{}
	if v, ok := template["from"].(string); ok {
		fields.From = v
	}
	if v, ok := template["to"].(string); ok {
		fields.To = v
	}
	if v, ok := template["via"].(string); ok {
		fields.Via = v
	}
	if v, ok := template["label"].(string); ok {
		fields.Label = v
	}
	if v, ok := template["description"].(string); ok {
		fields.Description = v
	}
	if v, ok := template["arrowDirection"].(string); ok {
		fields.ArrowDirection = v
	}
	if v, ok := template["color"].(string); ok {
		fields.Color = v
	}
	if v, ok := template["secondary"].(bool); ok {
		fields.Secondary = &v
	}
	return fields
}

func relationTarget(perspectives, contexts []string) ops.Target {
	target := ops.Target{Perspectives: perspectives, Contexts: contexts}
	if len(perspectives) == 0 {
		target.AllPerspectives = true
		target.Perspectives = nil
	}
	return target
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

type relationRowJSON struct {
	Perspective    string `json:"perspective"`
	Index          int    `json:"index"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	Via            string `json:"via,omitempty"`
	Label          string `json:"label,omitempty"`
	Description    string `json:"description,omitempty"`
	ArrowDirection string `json:"arrowDirection,omitempty"`
	Color          string `json:"color,omitempty"`
	Secondary      bool   `json:"secondary"`
}

func runRelationList(cmd *cobra.Command, args []string) error {
	document, err := loadDiagram()
	if err != nil {
		return err
	}
	filters, err := buildRelationTemplate(cmd, relListValues, "")
	if err != nil {
		return err
	}
	rows, err := listRelations(document, splitMulti(relListPerspectives), filters)
	if err != nil {
		return err
	}

	if relListJSON {
		return printJSON(map[string]any{
			"count":   len(rows),
			"filters": filters,
			"rows":    rows,
		})
	}

	if len(rows) == 0 {
		fmt.Println("no relations found")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			row.Perspective,
			strconv.Itoa(row.Index),
			dash(row.From),
			dash(row.To),
			dash(row.Via),
			dash(row.Label),
			dash(row.ArrowDirection),
			strconv.FormatBool(row.Secondary),
		})
	}
	printTable("Relations",
		[]string{"Perspective", "Index", "From", "To", "Via", "Label", "Direction", "Secondary"},
		tableRows, relListNoTruncate)
	fmt.Printf("total: %d\n", len(rows))
	return nil
}

// listRelations walks the selected perspectives (all when none are
// named) and returns relations surviving the filters.
func listRelations(document *yaml.Node, selected []string, filters ops.Template) ([]relationRowJSON, error) {
	identifiers := make([]string, 0, len(selected))
	if len(selected) > 0 {
		for _, item := range selected {
			location, err := index.SinglePerspective(document, item)
			if err != nil {
				return nil, err
			}
			identifiers = append(identifiers, location.Identifier)
		}
	} else {
		for _, location := range index.PerspectiveLocations(document) {
			identifiers = append(identifiers, location.Identifier)
		}
	}

	var rows []relationRowJSON
	for _, identifier := range identifiers {
		location, err := index.SinglePerspective(document, identifier)
		if err != nil {
			return nil, err
		}
		relations := node.Deref(node.MapGet(location.Node, "relations"))
		if relations == nil || !node.IsSequence(relations) {
			continue
		}
		for i, relation := range relations.Content {
			relation = node.Deref(relation)
			if relation == nil || !node.IsMapping(relation) {
				continue
			}
			if !relationMatchesFilters(relation, filters) {
				continue
			}
			secondary, _ := node.BoolValue(relation, "secondary")
			rows = append(rows, relationRowJSON{
				Perspective:    identifier,
				Index:          i + 1,
				From:           node.StringValue(relation, "from"),
				To:             node.StringValue(relation, "to"),
				Via:            node.StringValue(relation, "via"),
				Label:          node.StringValue(relation, "label"),
				Description:    node.StringValue(relation, "description"),
				ArrowDirection: node.StringValue(relation, "arrowDirection"),
				Color:          node.StringValue(relation, "color"),
				Secondary:      secondary,
			})
		}
	}
	return rows, nil
}

func relationMatchesFilters(relation *yaml.Node, filters ops.Template) bool {
	for key, expected := range filters {
		if key == "secondary" {
			actual, _ := node.BoolValue(relation, "secondary")
			if actual != expected.(bool) {
				return false
			}
			continue
		}
		if node.StringValue(relation, key) != expected.(string) {
			return false
		}
	}
	return true
}

func runRelationAdd(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(relAddPerspective, "perspective")
	if err != nil {
		return err
	}
	template, err := buildRelationTemplate(cmd, relAddValues, "")
	if err != nil {
		return err
	}
	fields := relationFieldsFromTemplate(template)

	return runMutation(relAddDryRun, relAddDiff, func(document *yaml.Node) (bool, error) {
		return ops.AddRelation(document, perspective, fields)
	})
}

func runRelationRemove(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(relRemovePerspective, "perspective")
	if err != nil {
		return err
	}

	return runMutation(relRemoveDryRun, relRemoveDiff, func(document *yaml.Node) (bool, error) {
		return ops.RemoveRelation(document, perspective, relRemoveIndex)
	})
}

func runRelationRemoveMatch(cmd *cobra.Command, args []string) error {
	match, err := buildRelationTemplate(cmd, relRemoveMatchValues, "")
	if err != nil {
		return err
	}
	if len(match) == 0 {
		return docerr.New("match must define at least one field")
	}
	target := relationTarget(splitMulti(relRemoveMatchPerspectives), splitMulti(relRemoveMatchContexts))

	return runMutation(relRemoveMatchDryRun, relRemoveMatchDiff, func(document *yaml.Node) (bool, error) {
		removed, err := ops.RemoveRelationsMatch(document, target, match, !relRemoveMatchAllowNoop)
		return removed > 0, err
	})
}

func runRelationEdit(cmd *cobra.Command, args []string) error {
	perspective, err := requiredValue(relEditPerspective, "perspective")
	if err != nil {
		return err
	}
	template, err := buildRelationTemplate(cmd, relEditValues, "")
	if err != nil {
		return err
	}
	edit := ops.RelationEdit{
		Fields:           relationFieldsFromTemplate(template),
		ClearFrom:        relEditClearFrom,
		ClearTo:          relEditClearTo,
		ClearVia:         relEditClearVia,
		ClearLabel:       relEditClearLabel,
		ClearDescription: relEditClearDesc,
	}

	return runMutation(relEditDryRun, relEditDiff, func(document *yaml.Node) (bool, error) {
		return ops.EditRelation(document, perspective, relEditIndex, edit)
	})
}

func runRelationEditMatch(cmd *cobra.Command, args []string) error {
	match, err := buildRelationTemplate(cmd, relEditMatchMatch, "match-")
	if err != nil {
		return err
	}
	if len(match) == 0 {
		return docerr.New("match must define at least one field")
	}
	set, err := buildRelationTemplate(cmd, relEditMatchSet, "set-")
	if err != nil {
		return err
	}

	var clearFields []string
	for _, field := range []string{
		"from", "to", "via", "label", "description", "arrow-direction", "color", "secondary",
	} {
		if *relEditMatchClearFlags[field] {
			clearFields = append(clearFields, relationFieldKey(field))
		}
	}
	if len(set) == 0 && len(clearFields) == 0 {
		return docerr.New("edit-match requires set values or clear flags")
	}
	target := relationTarget(splitMulti(relEditMatchPerspectives), splitMulti(relEditMatchContexts))

	return runMutation(relEditMatchDryRun, relEditMatchDiff, func(document *yaml.Node) (bool, error) {
		edited, err := ops.EditRelationsMatch(document, target, match, set, clearFields, !relEditMatchAllowNoop)
		return edited > 0, err
	})
}

func relationFieldKey(flagName string) string {
	if flagName == "arrow-direction" {
		return "arrowDirection"
	}
	return flagName
}
