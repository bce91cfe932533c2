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

// ============================================================================
// Group operations
// ============================================================================

// CreateGroup adds a grouping resource under parentID, or at the root
// when parentID is the none token.
func CreateGroup(document *yaml.Node, groupID, name, parentID, subtitle string) (bool, error) {
	existing := index.ResourceIDIndex(document)
	if _, ok := existing[groupID]; ok {
		return false, docerr.Newf("resource id already exists: %s (group id must be unique)", groupID)
	}

	group := node.NewMapping()
	node.MapSetString(group, "id", groupID)
	node.MapSetString(group, "name", name)
	if subtitle != "" {
		node.MapSetString(group, "subtitle", subtitle)
	}

	if IsNoneToken(parentID) {
		resources := node.Deref(node.MapGet(document, "resources"))
		if resources == nil {
			resources = node.NewSequence()
			node.MapSetNode(document, "resources", resources)
		}
		if !node.IsSequence(resources) {
			return false, docerr.New("resources is not an array/list (invalid diagram structure)")
		}
		node.SeqInsert(resources, len(resources.Content), group)
		return true, nil
	}

	parent, err := index.SingleResourceByID(document, parentID)
	if err != nil {
		return false, err
	}
	children := ensureSeq(parent.Node, "children")
	node.SeqInsert(children, len(children.Content), group)
	return true, nil
}

// MoveMany moves several resources under the same parent (or to the root
// with the none token). Fails fast on the first move error.
func MoveMany(document *yaml.Node, ids []string, newParentID string) (bool, error) {
	seen := make(map[string]bool)
	for _, resourceID := range ids {
		if seen[resourceID] {
			return false, docerr.Newf("duplicate id in --ids: %s (each resource id must appear once)", resourceID)
		}
		seen[resourceID] = true
	}

	changed := false
	for _, resourceID := range ids {
		var moved bool
		var err error
		if IsNoneToken(newParentID) {
			moved, err = MoveResourceToRoot(document, resourceID)
		} else {
			moved, err = MoveResource(document, resourceID, newParentID, false)
		}
		if err != nil {
			return changed, err
		}
		changed = changed || moved
	}
	return changed, nil
}
