// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ops

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/refexpr"
)

// ============================================================================
// Resource operations
// ============================================================================

// CreateResource adds a new resource under parentID, or at the root when
// parentID is the none token. subtitle is omitted when empty.
func CreateResource(document *yaml.Node, resourceID, name, parentID, subtitle string) (bool, error) {
	existing := index.ResourceIDIndex(document)
	if _, ok := existing[resourceID]; ok {
		return false, docerr.Newf("resource id already exists: %s", resourceID)
	}

	resource := node.NewMapping()
	node.MapSetString(resource, "id", resourceID)
	node.MapSetString(resource, "name", name)
	if subtitle != "" {
		node.MapSetString(resource, "subtitle", subtitle)
	}

	if IsNoneToken(parentID) {
		root := ensureRootResources(document)
		node.SeqInsert(root, len(root.Content), resource)
		return true, nil
	}

	parent, err := index.SingleResourceByID(document, parentID)
	if err != nil {
		return false, err
	}
	children := ensureSeq(parent.Node, "children")
	node.SeqInsert(children, len(children.Content), resource)
	return true, nil
}

// RenameResource updates the display name. Returns false when the name
// already matches.
func RenameResource(document *yaml.Node, resourceID, newName string) (bool, error) {
	location, err := index.SingleResourceByID(document, resourceID)
	if err != nil {
		return false, err
	}
	current := node.MapGet(location.Node, "name")
	if current != nil && node.IsScalar(current) && current.Value == newName {
		return false, nil
	}
	node.MapSetString(location.Node, "name", newName)
	return true, nil
}

// RenameResourceID changes a resource's explicit id and rewrites every
// reference expression in the document that names the old identifier.
func RenameResourceID(document *yaml.Node, oldID, newID string) (bool, error) {
	if oldID == newID {
		return false, docerr.New("old/new ids are identical (choose a different value for --to)")
	}

	existing := index.ResourceIDIndex(document)
	if _, ok := existing[newID]; ok {
		return false, docerr.Newf("target id already exists: %s (resource ids must be unique)", newID)
	}

	location, err := index.SingleResourceByID(document, oldID)
	if err != nil {
		return false, err
	}
	oldIdentifier := index.ResourceIdentifier(location.Node)
	if oldIdentifier == "" {
		return false, docerr.Newf("resource has no identifier: %s (set an explicit id before rename)", oldID)
	}

	node.MapSetString(location.Node, "id", newID)
	rewriteReferenceStrings(document, oldIdentifier, newID)
	return true, nil
}

// MoveResource reparents a resource subtree. Moving a resource that is
// already the last child of the target is a no-op unless
// inheritStyleFromParent asks for its explicit style to be dropped.
func MoveResource(document *yaml.Node, resourceID, newParentID string, inheritStyleFromParent bool) (bool, error) {
	location, err := index.SingleResourceByID(document, resourceID)
	if err != nil {
		return false, err
	}
	targetParent, err := index.SingleResourceByID(document, newParentID)
	if err != nil {
		return false, err
	}

	if location.Node == targetParent.Node {
		return false, docerr.New("resource cannot be parent of itself (same --id and --new-parent)")
	}
	if isDescendant(location.Node, targetParent.Node) {
		return false, docerr.New("resource cannot be moved under its own descendant (would create a cycle)")
	}

	targetChildren := ensureSeq(targetParent.Node, "children")
	if location.Container == targetChildren && location.Index == len(location.Container.Content)-1 {
		if !inheritStyleFromParent {
			return false, nil
		}
		return clearStyleForInheritance(location.Node), nil
	}

	node.SeqRemove(location.Container, location.Index)
	node.SeqInsert(targetChildren, len(targetChildren.Content), location.Node)
	if inheritStyleFromParent {
		clearStyleForInheritance(location.Node)
	}
	return true, nil
}

// MoveResourceToRoot lifts a resource subtree to the top level. Returns
// false when already at the root.
func MoveResourceToRoot(document *yaml.Node, resourceID string) (bool, error) {
	location, err := index.SingleResourceByID(document, resourceID)
	if err != nil {
		return false, err
	}
	if location.Parent == nil {
		return false, nil
	}
	node.SeqRemove(location.Container, location.Index)
	root := ensureRootResources(document)
	node.SeqInsert(root, len(root.Content), location.Node)
	return true, nil
}

// DeleteResource removes a resource by explicit id. Resources with
// children require deleteSubtree.
func DeleteResource(document *yaml.Node, resourceID string, deleteSubtree bool) (bool, error) {
	location, err := index.SingleResourceByID(document, resourceID)
	if err != nil {
		return false, err
	}
	children := node.Deref(node.MapGet(location.Node, "children"))
	if children != nil && node.IsSequence(children) && len(children.Content) > 0 && !deleteSubtree {
		return false, docerr.New("resource has children; pass --delete-subtree")
	}
	node.SeqRemove(location.Container, location.Index)
	return true, nil
}

// CloneResourceOptions selects where the copy lands and what it keeps.
type CloneResourceOptions struct {
	NewID        string
	NewParentID  string // "" = next to the source, none token = root
	HasNewParent bool
	NewName      string // "" = keep source name
	WithChildren bool
}

// CloneResource copies a resource. Cloning with children refuses explicit
// descendant ids, since those would collide with the originals.
func CloneResource(document *yaml.Node, resourceID string, opts CloneResourceOptions) (bool, error) {
	existing := index.ResourceIDIndex(document)
	if _, ok := existing[opts.NewID]; ok {
		return false, docerr.Newf("resource id already exists: %s", opts.NewID)
	}

	source, err := index.SingleResourceByID(document, resourceID)
	if err != nil {
		return false, err
	}
	clone := node.Clone(source.Node)

	node.MapSetString(clone, "id", opts.NewID)
	if opts.NewName != "" {
		node.MapSetString(clone, "name", opts.NewName)
	}
	if !opts.WithChildren {
		node.MapDelete(clone, "children")
	} else if dup := firstExplicitDescendantID(clone, existing); dup != "" {
		return false, docerr.Newf(
			"cannot clone subtree with explicit child ids; conflicting id: %s. "+
				"Use --shallow or rename child ids after clone.", dup)
	}

	if !opts.HasNewParent {
		node.SeqInsert(source.Container, len(source.Container.Content), clone)
		return true, nil
	}
	if IsNoneToken(opts.NewParentID) {
		root := ensureRootResources(document)
		node.SeqInsert(root, len(root.Content), clone)
		return true, nil
	}

	parent, err := index.SingleResourceByID(document, opts.NewParentID)
	if err != nil {
		return false, err
	}
	children := ensureSeq(parent.Node, "children")
	node.SeqInsert(children, len(children.Content), clone)
	return true, nil
}

// ============================================================================
// Internals
// ============================================================================

func isDescendant(ancestor, target *yaml.Node) bool {
	children := node.Deref(node.MapGet(ancestor, "children"))
	if children == nil || !node.IsSequence(children) {
		return false
	}
	for _, child := range children.Content {
		child = node.Deref(child)
		if child == nil || !node.IsMapping(child) {
			continue
		}
		if child == target {
			return true
		}
		if isDescendant(child, target) {
			return true
		}
	}
	return false
}

// rewriteReferenceStrings runs the identifier rewrite over every
// reference field and every string value in contexts.
func rewriteReferenceStrings(document *yaml.Node, old, new string) {
	for _, field := range index.ReferenceFields(document, true) {
		value := field.Value()
		if value == "" {
			continue
		}
		if updated := refexpr.Rewrite(value, old, new); updated != value {
			field.SetValue(updated)
		}
	}
	rewriteContextStrings(document, old, new)
}

func rewriteContextStrings(document *yaml.Node, old, new string) {
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return
	}
	for _, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		for i := 0; i+1 < len(context.Content); i += 2 {
			value := context.Content[i+1]
			if !node.IsScalar(value) || value.Tag != "!!str" {
				continue
			}
			if updated := refexpr.Rewrite(value.Value, old, new); updated != value.Value {
				value.Value = updated
			}
		}
	}
}

func firstExplicitDescendantID(resource *yaml.Node, existing map[string][]index.ResourceLocation) string {
	children := node.Deref(node.MapGet(resource, "children"))
	if children == nil || !node.IsSequence(children) {
		return ""
	}
	for _, child := range children.Content {
		child = node.Deref(child)
		if child == nil || !node.IsMapping(child) {
			continue
		}
		if id := strings.TrimSpace(node.StringValue(child, "id")); id != "" {
			if _, ok := existing[id]; ok {
				return id
			}
		}
		if nested := firstExplicitDescendantID(child, existing); nested != "" {
			return nested
		}
	}
	return ""
}

// clearStyleForInheritance drops an explicit style so the resource picks
// up its parent's styling.
func clearStyleForInheritance(resource *yaml.Node) bool {
	return node.MapDelete(resource, "style")
}
