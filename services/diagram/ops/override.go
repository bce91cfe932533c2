// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ops

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// ============================================================================
// Override operations
// ============================================================================

// OverrideRow summarizes one override entry for listings.
type OverrideRow struct {
	Perspective string
	Index       int
	ResourceID  string
	ParentID    string
	Scale       *float64
}

// ListOverrides returns override rows for a perspective.
func ListOverrides(document *yaml.Node, perspective string) ([]OverrideRow, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return nil, err
	}
	overrides := node.Deref(node.MapGet(location.Node, "overrides"))
	if overrides == nil || !node.IsSequence(overrides) {
		return nil, nil
	}

	var rows []OverrideRow
	for i, item := range overrides.Content {
		item = node.Deref(item)
		if item == nil || !node.IsMapping(item) {
			continue
		}
		resourceID := node.StringValue(item, "resourceId")
		if resourceID == "" {
			continue
		}
		rows = append(rows, OverrideRow{
			Perspective: location.Identifier,
			Index:       i + 1,
			ResourceID:  resourceID,
			ParentID:    node.StringValue(item, "parentId"),
			Scale:       scaleValue(item),
		})
	}
	return rows, nil
}

// AddOverride adds an override row. At least one of parentID/scale is
// required; at most one override per resourceId. Index1 of 0 appends.
func AddOverride(document *yaml.Node, perspective, resourceID, parentID string, scale *float64, index1 int) (bool, error) {
	if parentID == "" && scale == nil {
		return false, docerr.New("override requires --parent-id or --scale")
	}

	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	overrides := ensureSeq(location.Node, "overrides")
	if findOverrideIndex(overrides, resourceID) >= 0 {
		return false, docerr.Newf("override already exists for resourceId: %s", resourceID)
	}

	payload := node.NewMapping()
	node.MapSetString(payload, "resourceId", resourceID)
	if parentID != "" {
		node.MapSetString(payload, "parentId", parentID)
	}
	if scale != nil {
		node.MapSetNode(payload, "scale", node.NewFloat(*scale))
	}

	if index1 == 0 {
		node.SeqInsert(overrides, len(overrides.Content), payload)
		return true, nil
	}

	insertAt, err := insertIndex(index1, len(overrides.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(overrides, insertAt, payload)
	return true, nil
}

// OverrideEdit describes an override update selected by resourceId.
type OverrideEdit struct {
	NewResourceID string
	ParentID      string
	Scale         *float64
	ClearParentID bool
	ClearScale    bool
}

// EditOverride updates an override row. The result must still carry a
// parentId or scale.
func EditOverride(document *yaml.Node, perspective, resourceID string, edit OverrideEdit) (bool, error) {
	if edit.NewResourceID == "" && edit.ParentID == "" && edit.Scale == nil &&
		!edit.ClearParentID && !edit.ClearScale {
		return false, docerr.New("set at least one update field")
	}

	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	overrides := node.Deref(node.MapGet(location.Node, "overrides"))
	if overrides == nil || !node.IsSequence(overrides) {
		return false, docerr.Newf("perspective has no overrides: %s", location.Identifier)
	}

	targetIndex := findOverrideIndex(overrides, resourceID)
	if targetIndex < 0 {
		return false, docerr.Newf("override not found for resourceId: %s", resourceID)
	}
	target := node.Deref(overrides.Content[targetIndex])
	if target == nil || !node.IsMapping(target) {
		return false, docerr.Newf("override entry is not a mapping: %s", resourceID)
	}

	changed := false
	if edit.NewResourceID != "" && edit.NewResourceID != resourceID {
		if existing := findOverrideIndex(overrides, edit.NewResourceID); existing >= 0 && existing != targetIndex {
			return false, docerr.Newf("override already exists for resourceId: %s", edit.NewResourceID)
		}
		node.MapSetString(target, "resourceId", edit.NewResourceID)
		changed = true
	}

	if edit.ClearParentID {
		if node.MapDelete(target, "parentId") {
			changed = true
		}
	} else if edit.ParentID != "" && node.StringValue(target, "parentId") != edit.ParentID {
		node.MapSetString(target, "parentId", edit.ParentID)
		changed = true
	}

	if edit.ClearScale {
		if node.MapDelete(target, "scale") {
			changed = true
		}
	} else if edit.Scale != nil {
		current := scaleValue(target)
		if current == nil || *current != *edit.Scale {
			node.MapSetNode(target, "scale", node.NewFloat(*edit.Scale))
			changed = true
		}
	}

	if !node.MapHas(target, "parentId") && !node.MapHas(target, "scale") {
		return false, docerr.New("override requires parentId or scale")
	}
	return changed, nil
}

// RemoveOverride removes an override by resourceId.
func RemoveOverride(document *yaml.Node, perspective, resourceID string) (bool, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	overrides := node.Deref(node.MapGet(location.Node, "overrides"))
	if overrides == nil || !node.IsSequence(overrides) {
		return false, docerr.Newf("perspective has no overrides: %s", location.Identifier)
	}

	targetIndex := findOverrideIndex(overrides, resourceID)
	if targetIndex < 0 {
		return false, docerr.Newf("override not found for resourceId: %s", resourceID)
	}
	node.SeqRemove(overrides, targetIndex)
	return true, nil
}

func findOverrideIndex(overrides *yaml.Node, resourceID string) int {
	for i, item := range overrides.Content {
		item = node.Deref(item)
		if item == nil || !node.IsMapping(item) {
			continue
		}
		if node.StringValue(item, "resourceId") == resourceID {
			return i
		}
	}
	return -1
}

func scaleValue(item *yaml.Node) *float64 {
	v := node.Deref(node.MapGet(item, "scale"))
	if v == nil || !node.IsScalar(v) {
		return nil
	}
	if v.Tag != "!!int" && v.Tag != "!!float" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v.Value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
