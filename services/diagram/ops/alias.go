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
// Alias operations
// ============================================================================

// AliasRow summarizes one alias entry for listings.
type AliasRow struct {
	Perspective string
	Index       int
	Alias       string
	For         string
}

// ListAliases returns alias rows for a perspective.
func ListAliases(document *yaml.Node, perspective string) ([]AliasRow, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return nil, err
	}
	aliases := node.Deref(node.MapGet(location.Node, "aliases"))
	if aliases == nil || !node.IsSequence(aliases) {
		return nil, nil
	}

	var rows []AliasRow
	for i, item := range aliases.Content {
		item = node.Deref(item)
		if item == nil || !node.IsMapping(item) {
			continue
		}
		aliasName := node.StringValue(item, "alias")
		if aliasName == "" {
			continue
		}
		rows = append(rows, AliasRow{
			Perspective: location.Identifier,
			Index:       i + 1,
			Alias:       aliasName,
			For:         node.StringValue(item, "for"),
		})
	}
	return rows, nil
}

// AddAlias adds an alias entry. Index1 of 0 appends.
func AddAlias(document *yaml.Node, perspective, alias, aliasFor string, index1 int) (bool, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	aliases := ensureSeq(location.Node, "aliases")
	if findAliasIndex(aliases, alias) >= 0 {
		return false, docerr.Newf("alias already exists: %s", alias)
	}

	payload := node.NewMapping()
	node.MapSetString(payload, "alias", alias)
	node.MapSetString(payload, "for", aliasFor)

	if index1 == 0 {
		node.SeqInsert(aliases, len(aliases.Content), payload)
		return true, nil
	}

	insertAt, err := insertIndex(index1, len(aliases.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(aliases, insertAt, payload)
	return true, nil
}

// EditAlias renames an alias and/or retargets its expression.
func EditAlias(document *yaml.Node, perspective, alias, newAlias, newFor string) (bool, error) {
	if newAlias == "" && newFor == "" {
		return false, docerr.New("set --new-alias or --new-for")
	}

	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	aliases := node.Deref(node.MapGet(location.Node, "aliases"))
	if aliases == nil || !node.IsSequence(aliases) {
		return false, docerr.Newf("perspective has no aliases: %s", location.Identifier)
	}

	targetIndex := findAliasIndex(aliases, alias)
	if targetIndex < 0 {
		return false, docerr.Newf("alias not found: %s", alias)
	}
	target := node.Deref(aliases.Content[targetIndex])
	if target == nil || !node.IsMapping(target) {
		return false, docerr.Newf("alias entry is not a mapping: %s", alias)
	}

	changed := false
	if newAlias != "" && newAlias != alias {
		if existing := findAliasIndex(aliases, newAlias); existing >= 0 && existing != targetIndex {
			return false, docerr.Newf("alias already exists: %s", newAlias)
		}
		node.MapSetString(target, "alias", newAlias)
		changed = true
	}
	if newFor != "" && node.StringValue(target, "for") != newFor {
		node.MapSetString(target, "for", newFor)
		changed = true
	}
	return changed, nil
}

// RemoveAlias removes an alias by name.
func RemoveAlias(document *yaml.Node, perspective, alias string) (bool, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	aliases := node.Deref(node.MapGet(location.Node, "aliases"))
	if aliases == nil || !node.IsSequence(aliases) {
		return false, docerr.Newf("perspective has no aliases: %s", location.Identifier)
	}

	targetIndex := findAliasIndex(aliases, alias)
	if targetIndex < 0 {
		return false, docerr.Newf("alias not found: %s", alias)
	}
	node.SeqRemove(aliases, targetIndex)
	return true, nil
}

func findAliasIndex(aliases *yaml.Node, alias string) int {
	for i, item := range aliases.Content {
		item = node.Deref(item)
		if item == nil || !node.IsMapping(item) {
			continue
		}
		if node.StringValue(item, "alias") == alias {
			return i
		}
	}
	return -1
}
