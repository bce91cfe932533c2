// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// The mutually exclusive action fields a sequence step can carry.
var stepActionKeys = []string{"to", "toAndBack", "toAsync", "restartAt"}

// ============================================================================
// Sequence step operations
// ============================================================================

// StepRow summarizes one sequence step for listings.
type StepRow struct {
	Perspective   string
	Index         int
	To            string
	ToAndBack     string
	ToAsync       string
	RestartAt     string
	Label         string
	Description   string
	Bidirectional bool
	Color         string
}

// StepFields carries optional sequence step values. Exactly one action
// field (To/ToAndBack/ToAsync/RestartAt) must be set when building a new
// step.
type StepFields struct {
	To            string
	ToAndBack     string
	ToAsync       string
	RestartAt     string
	Label         string
	Description   string
	Bidirectional *bool
	Color         string
}

// ListSequenceSteps returns step rows for a perspective's sequence.
func ListSequenceSteps(document *yaml.Node, perspective string) ([]StepRow, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return nil, err
	}
	sequence := node.Deref(node.MapGet(location.Node, "sequence"))
	if sequence == nil || !node.IsMapping(sequence) {
		return nil, nil
	}
	steps := node.Deref(node.MapGet(sequence, "steps"))
	if steps == nil || !node.IsSequence(steps) {
		return nil, nil
	}

	var rows []StepRow
	for i, step := range steps.Content {
		step = node.Deref(step)
		if step == nil || !node.IsMapping(step) {
			continue
		}
		bidirectional, _ := node.BoolValue(step, "bidirectional")
		rows = append(rows, StepRow{
			Perspective:   location.Identifier,
			Index:         i + 1,
			To:            node.StringValue(step, "to"),
			ToAndBack:     node.StringValue(step, "toAndBack"),
			ToAsync:       node.StringValue(step, "toAsync"),
			RestartAt:     node.StringValue(step, "restartAt"),
			Label:         node.StringValue(step, "label"),
			Description:   node.StringValue(step, "description"),
			Bidirectional: bidirectional,
			Color:         node.StringValue(step, "color"),
		})
	}
	return rows, nil
}

// AddSequenceStep appends or inserts a step. When the perspective has no
// sequence yet, startIfMissing initializes one. Index1 of 0 appends.
func AddSequenceStep(document *yaml.Node, perspective string, fields StepFields, index1 int, startIfMissing string) (bool, error) {
	step, err := buildStepPayload(fields)
	if err != nil {
		return false, err
	}

	sequence, err := ensureSequenceBlock(document, perspective, startIfMissing)
	if err != nil {
		return false, err
	}
	steps := ensureSeq(sequence, "steps")

	if index1 == 0 {
		node.SeqInsert(steps, len(steps.Content), step)
		return true, nil
	}

	insertAt, err := insertIndex(index1, len(steps.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(steps, insertAt, step)
	return true, nil
}

// StepEdit describes an index-targeted step edit.
type StepEdit struct {
	Fields           StepFields
	ClearLabel       bool
	ClearDescription bool
	ClearColor       bool
}

// EditSequenceStep updates a step by 1-based index. Setting an action
// field replaces whichever action the step carried before; setting more
// than one is rejected.
func EditSequenceStep(document *yaml.Node, perspective string, index1 int, edit StepEdit) (bool, error) {
	step, err := sequenceStep(document, perspective, index1)
	if err != nil {
		return false, err
	}
	before := fingerprint(step)

	actions := actionUpdates(edit.Fields)
	if len(actions) > 1 {
		return false, docerr.New("step action is ambiguous: " +
			"set exactly one of to/to-and-back/to-async/restart-at")
	}
	if len(actions) == 1 {
		for _, key := range stepActionKeys {
			node.MapDelete(step, key)
		}
		node.MapSetString(step, actions[0].key, actions[0].value)
	}

	if edit.Fields.Label != "" {
		node.MapSetString(step, "label", edit.Fields.Label)
	}
	if edit.Fields.Description != "" {
		node.MapSetString(step, "description", edit.Fields.Description)
	}
	if edit.Fields.Bidirectional != nil {
		node.MapSetNode(step, "bidirectional", node.NewBool(*edit.Fields.Bidirectional))
	}
	if edit.Fields.Color != "" {
		node.MapSetString(step, "color", edit.Fields.Color)
	}

	if edit.ClearLabel {
		node.MapDelete(step, "label")
	}
	if edit.ClearDescription {
		node.MapDelete(step, "description")
	}
	if edit.ClearColor {
		node.MapDelete(step, "color")
	}

	if !stepHasAction(step) {
		return false, docerr.New("step requires one action field")
	}
	return before != fingerprint(step), nil
}

// RemoveSequenceStep removes a step by 1-based index.
func RemoveSequenceStep(document *yaml.Node, perspective string, index1 int) (bool, error) {
	sequence, err := sequenceBlock(document, perspective)
	if err != nil {
		return false, err
	}
	steps := node.Deref(node.MapGet(sequence, "steps"))
	if steps == nil || !node.IsSequence(steps) {
		return false, docerr.Newf("perspective has no sequence steps: %s", perspective)
	}

	idx := index1 - 1
	if idx < 0 || idx >= len(steps.Content) {
		return false, docerr.Newf("sequence step index out of range: %d", index1)
	}
	node.SeqRemove(steps, idx)
	return true, nil
}

// ============================================================================
// Internals
// ============================================================================

type actionUpdate struct {
	key   string
	value string
}

func actionUpdates(fields StepFields) []actionUpdate {
	var updates []actionUpdate
	if fields.To != "" {
		updates = append(updates, actionUpdate{"to", fields.To})
	}
	if fields.ToAndBack != "" {
		updates = append(updates, actionUpdate{"toAndBack", fields.ToAndBack})
	}
	if fields.ToAsync != "" {
		updates = append(updates, actionUpdate{"toAsync", fields.ToAsync})
	}
	if fields.RestartAt != "" {
		updates = append(updates, actionUpdate{"restartAt", fields.RestartAt})
	}
	return updates
}

func buildStepPayload(fields StepFields) (*yaml.Node, error) {
	actions := actionUpdates(fields)
	if len(actions) != 1 {
		return nil, docerr.New("step requires exactly one action: to/to-and-back/to-async/restart-at")
	}

	step := node.NewMapping()
	node.MapSetString(step, actions[0].key, actions[0].value)
	if fields.Label != "" {
		node.MapSetString(step, "label", fields.Label)
	}
	if fields.Description != "" {
		node.MapSetString(step, "description", fields.Description)
	}
	if fields.Bidirectional != nil {
		node.MapSetNode(step, "bidirectional", node.NewBool(*fields.Bidirectional))
	}
	if fields.Color != "" {
		node.MapSetString(step, "color", fields.Color)
	}
	return step, nil
}

func ensureSequenceBlock(document *yaml.Node, perspective, startIfMissing string) (*yaml.Node, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return nil, err
	}
	sequence := node.Deref(node.MapGet(location.Node, "sequence"))
	if sequence != nil && node.IsMapping(sequence) {
		return sequence, nil
	}

	if startIfMissing == "" {
		return nil, docerr.New("perspective has no sequence; pass --start to initialize sequence")
	}

	created := node.NewMapping()
	node.MapSetString(created, "start", startIfMissing)
	node.MapSetNode(created, "steps", node.NewSequence())
	node.MapSetNode(location.Node, "sequence", created)
	return created, nil
}

func sequenceBlock(document *yaml.Node, perspective string) (*yaml.Node, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return nil, err
	}
	sequence := node.Deref(node.MapGet(location.Node, "sequence"))
	if sequence == nil || !node.IsMapping(sequence) {
		return nil, docerr.Newf("perspective has no sequence: %s", location.Identifier)
	}
	return sequence, nil
}

func sequenceStep(document *yaml.Node, perspective string, index1 int) (*yaml.Node, error) {
	sequence, err := sequenceBlock(document, perspective)
	if err != nil {
		return nil, err
	}
	steps := node.Deref(node.MapGet(sequence, "steps"))
	if steps == nil || !node.IsSequence(steps) {
		return nil, docerr.Newf("perspective has no sequence steps: %s", perspective)
	}

	idx := index1 - 1
	if idx < 0 || idx >= len(steps.Content) {
		return nil, docerr.Newf("sequence step index out of range: %d", index1)
	}
	step := node.Deref(steps.Content[idx])
	if step == nil || !node.IsMapping(step) {
		return nil, docerr.Newf("sequence step at index %d is not a mapping", index1)
	}
	return step, nil
}

func stepHasAction(step *yaml.Node) bool {
	for _, key := range stepActionKeys {
		if node.MapHas(step, key) {
			return true
		}
	}
	return false
}
