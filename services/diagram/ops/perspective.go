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
// Perspective operations
// ============================================================================

// PerspectiveRow summarizes one perspective for listings.
type PerspectiveRow struct {
	Index        int
	Identifier   string
	ID           string
	Name         string
	Extends      string
	Orientation  string
	HasRelations bool
	HasSequence  bool
}

// ListPerspectives returns metadata rows for every perspective.
func ListPerspectives(document *yaml.Node) []PerspectiveRow {
	var rows []PerspectiveRow
	for _, location := range index.PerspectiveLocations(document) {
		n := location.Node
		relations := node.Deref(node.MapGet(n, "relations"))
		sequence := node.Deref(node.MapGet(n, "sequence"))
		rows = append(rows, PerspectiveRow{
			Index:        location.Index + 1,
			Identifier:   location.Identifier,
			ID:           node.StringValue(n, "id"),
			Name:         node.StringValue(n, "name"),
			Extends:      node.StringValue(n, "extends"),
			Orientation:  node.StringValue(n, "orientation"),
			HasRelations: relations != nil && node.IsSequence(relations),
			HasSequence:  sequence != nil && node.IsMapping(sequence),
		})
	}
	return rows
}

// CreatePerspectiveOptions carries optional creation fields. Index1 of 0
// means append.
type CreatePerspectiveOptions struct {
	Extends     string
	Orientation string
	Index1      int
}

// CreatePerspective adds a perspective with an explicit id. Extends
// tokens must name existing perspectives.
func CreatePerspective(document *yaml.Node, perspectiveID, name string, opts CreatePerspectiveOptions) (bool, error) {
	if err := assertNewPerspectiveIdentifier(document, perspectiveID); err != nil {
		return false, err
	}
	if opts.Extends != "" {
		if err := validateExtendsTokens(document, opts.Extends); err != nil {
			return false, err
		}
	}

	perspectives := ensureSeq(document, "perspectives")
	perspective := node.NewMapping()
	node.MapSetString(perspective, "id", perspectiveID)
	node.MapSetString(perspective, "name", name)
	if opts.Extends != "" {
		node.MapSetString(perspective, "extends", opts.Extends)
	}
	if opts.Orientation != "" {
		node.MapSetString(perspective, "orientation", opts.Orientation)
	}

	if opts.Index1 == 0 {
		node.SeqInsert(perspectives, len(perspectives.Content), perspective)
		return true, nil
	}

	insertAt, err := insertIndex(opts.Index1, len(perspectives.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(perspectives, insertAt, perspective)
	return true, nil
}

// RenamePerspective updates id and/or name. An id change rewrites every
// extends value naming the old identifier.
func RenamePerspective(document *yaml.Node, perspective, newID, newName string) (bool, error) {
	if newID == "" && newName == "" {
		return false, docerr.New("set --new-id or --new-name")
	}

	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	n := location.Node
	before := fingerprint(n)

	if newID != "" && newID != location.Identifier {
		if err := assertNewPerspectiveIdentifier(document, newID); err != nil {
			return false, err
		}
		oldIdentifier := location.Identifier
		node.MapSetString(n, "id", newID)
		rewriteExtendsToken(document, oldIdentifier, newID)
	}
	if newName != "" {
		node.MapSetString(n, "name", newName)
	}

	return before != fingerprint(n), nil
}

// DeletePerspective removes a perspective. Perspectives referenced in
// extends are protected unless force also strips those references.
func DeletePerspective(document *yaml.Node, perspective string, force bool) (bool, error) {
	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives == nil || !node.IsSequence(perspectives) {
		return false, docerr.New("diagram has no perspectives")
	}

	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	blockers := findExtendsReferences(document, location.Identifier)
	if len(blockers) > 0 && !force {
		return false, docerr.Newf("perspective is referenced in extends; "+
			"pass --force to remove references (%s)", strings.Join(blockers, ", "))
	}

	node.SeqRemove(perspectives, location.Index)
	if force {
		removeFromExtends(document, location.Identifier)
	}
	return true, nil
}

// ReorderPerspective moves a perspective to a 1-based position.
func ReorderPerspective(document *yaml.Node, perspective string, index1 int) (bool, error) {
	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives == nil || !node.IsSequence(perspectives) {
		return false, docerr.New("diagram has no perspectives")
	}

	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	destination, err := insertIndex(index1, len(perspectives.Content), false)
	if err != nil {
		return false, err
	}
	if destination == location.Index {
		return false, nil
	}

	moved := perspectives.Content[location.Index]
	node.SeqRemove(perspectives, location.Index)
	node.SeqInsert(perspectives, destination, moved)
	return true, nil
}

// CopyPerspective duplicates a perspective under a new explicit id.
// Index1 of 0 appends.
func CopyPerspective(document *yaml.Node, perspective, newID, newName string, index1 int) (bool, error) {
	if err := assertNewPerspectiveIdentifier(document, newID); err != nil {
		return false, err
	}

	source, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	clone := node.Clone(source.Node)
	node.MapSetString(clone, "id", newID)
	if newName != "" {
		node.MapSetString(clone, "name", newName)
	}

	perspectives := ensureSeq(document, "perspectives")
	if index1 == 0 {
		node.SeqInsert(perspectives, len(perspectives.Content), clone)
		return true, nil
	}

	insertAt, err := insertIndex(index1, len(perspectives.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(perspectives, insertAt, clone)
	return true, nil
}

// ============================================================================
// Internals
// ============================================================================

func assertNewPerspectiveIdentifier(document *yaml.Node, candidate string) error {
	for _, location := range index.PerspectiveLocations(document) {
		if location.Identifier == candidate {
			return docerr.Newf("perspective id already exists: %s", candidate)
		}
	}
	return nil
}

func validateExtendsTokens(document *yaml.Node, raw string) error {
	for _, token := range splitTokens(raw) {
		if _, err := index.SinglePerspective(document, token); err != nil {
			return err
		}
	}
	return nil
}

func findExtendsReferences(document *yaml.Node, target string) []string {
	var refs []string
	for _, location := range index.PerspectiveLocations(document) {
		extends := node.StringValue(location.Node, "extends")
		if extends == "" {
			continue
		}
		for _, token := range splitTokens(extends) {
			if token == target {
				refs = append(refs, location.Identifier)
				break
			}
		}
	}
	return refs
}

func rewriteExtendsToken(document *yaml.Node, old, new string) {
	if old == new {
		return
	}
	for _, location := range index.PerspectiveLocations(document) {
		extends := node.StringValue(location.Node, "extends")
		if extends == "" {
			continue
		}
		if rewritten := refexpr.Rewrite(extends, old, new); rewritten != extends {
			node.MapSetString(location.Node, "extends", rewritten)
		}
	}
}

func removeFromExtends(document *yaml.Node, target string) {
	for _, location := range index.PerspectiveLocations(document) {
		extends := node.StringValue(location.Node, "extends")
		if extends == "" {
			continue
		}

		var remaining []string
		for _, token := range splitTokens(extends) {
			if token != target {
				remaining = append(remaining, token)
			}
		}
		if len(remaining) == 0 {
			node.MapDelete(location.Node, "extends")
			continue
		}
		node.MapSetString(location.Node, "extends", strings.Join(remaining, ", "))
	}
}
