// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ops

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/refexpr"
)

// ============================================================================
// Context operations
// ============================================================================

// ContextRow summarizes one context for listings.
type ContextRow struct {
	Index    int
	Name     string
	Extends  string
	Hidden   bool
	HasRoots bool
}

// ListContexts returns metadata rows for every context.
func ListContexts(document *yaml.Node) []ContextRow {
	var rows []ContextRow
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return rows
	}

	for i, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		name := node.StringValue(context, "name")
		if name == "" {
			continue
		}
		hidden, _ := node.BoolValue(context, "hidden")
		roots := node.Deref(node.MapGet(context, "roots"))
		rows = append(rows, ContextRow{
			Index:    i + 1,
			Name:     name,
			Extends:  node.StringValue(context, "extends"),
			Hidden:   hidden,
			HasRoots: roots != nil && node.IsSequence(roots),
		})
	}
	return rows
}

// CreateContextOptions carries optional creation fields. Index1 of 0
// appends.
type CreateContextOptions struct {
	Extends string
	Hidden  *bool
	Index1  int
}

// CreateContext adds a context with a unique name. Extends tokens must
// name existing contexts.
func CreateContext(document *yaml.Node, name string, opts CreateContextOptions) (bool, error) {
	if err := assertContextNameNotExists(document, name); err != nil {
		return false, err
	}
	if opts.Extends != "" {
		if err := validateContextExtendsTokens(document, opts.Extends); err != nil {
			return false, err
		}
	}

	context := node.NewMapping()
	node.MapSetString(context, "name", name)
	if opts.Extends != "" {
		node.MapSetString(context, "extends", opts.Extends)
	}
	if opts.Hidden != nil {
		node.MapSetNode(context, "hidden", node.NewBool(*opts.Hidden))
	}

	contexts := ensureSeq(document, "contexts")
	if opts.Index1 == 0 {
		node.SeqInsert(contexts, len(contexts.Content), context)
		return true, nil
	}

	insertAt, err := insertIndex(opts.Index1, len(contexts.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(contexts, insertAt, context)
	return true, nil
}

// RenameContext renames a context and rewrites extends values naming the
// old name. Returns false when names already match.
func RenameContext(document *yaml.Node, name, newName string) (bool, error) {
	if name == newName {
		return false, nil
	}

	if err := assertContextNameNotExists(document, newName); err != nil {
		return false, err
	}
	_, context, err := singleContext(document, name)
	if err != nil {
		return false, err
	}
	node.MapSetString(context, "name", newName)
	rewriteContextExtends(document, name, newName)
	return true, nil
}

// DeleteContext removes a context by name. Contexts referenced in other
// contexts' extends need force, which also strips the references.
func DeleteContext(document *yaml.Node, name string, force bool) (bool, error) {
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return false, docerr.New("diagram has no contexts")
	}

	idx, _, err := singleContext(document, name)
	if err != nil {
		return false, err
	}
	blockers := findContextExtendsReferences(document, name)
	if len(blockers) > 0 && !force {
		return false, docerr.Newf("context is referenced in extends; "+
			"pass --force to remove references (%s)", strings.Join(blockers, ", "))
	}

	node.SeqRemove(contexts, idx)
	if force {
		removeFromContextExtends(document, name)
	}
	return true, nil
}

// ReorderContext moves a context to a 1-based position.
func ReorderContext(document *yaml.Node, name string, index1 int) (bool, error) {
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return false, docerr.New("diagram has no contexts")
	}

	sourceIndex, moved, err := singleContext(document, name)
	if err != nil {
		return false, err
	}
	destination, err := insertIndex(index1, len(contexts.Content), false)
	if err != nil {
		return false, err
	}
	if destination == sourceIndex {
		return false, nil
	}

	node.SeqRemove(contexts, sourceIndex)
	node.SeqInsert(contexts, destination, moved)
	return true, nil
}

// CopyContext duplicates a context under a new name. Index1 of 0 appends.
func CopyContext(document *yaml.Node, name, newName string, index1 int) (bool, error) {
	if err := assertContextNameNotExists(document, newName); err != nil {
		return false, err
	}
	_, source, err := singleContext(document, name)
	if err != nil {
		return false, err
	}

	clone := node.Clone(source)
	node.MapSetString(clone, "name", newName)

	contexts := ensureSeq(document, "contexts")
	if index1 == 0 {
		node.SeqInsert(contexts, len(contexts.Content), clone)
		return true, nil
	}

	insertAt, err := insertIndex(index1, len(contexts.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(contexts, insertAt, clone)
	return true, nil
}

// ============================================================================
// Internals
// ============================================================================

func allContextNames(document *yaml.Node) []string {
	var names []string
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return names
	}
	for _, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		if name := strings.TrimSpace(node.StringValue(context, "name")); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func assertContextNameNotExists(document *yaml.Node, name string) error {
	for _, existing := range allContextNames(document) {
		if existing == name {
			return docerr.Newf("context already exists: %s", name)
		}
	}
	return nil
}

func singleContext(document *yaml.Node, name string) (int, *yaml.Node, error) {
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return 0, nil, docerr.New("diagram has no contexts")
	}

	type match struct {
		index int
		node  *yaml.Node
	}
	var matches []match
	for i, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		if strings.TrimSpace(node.StringValue(context, "name")) == name {
			matches = append(matches, match{index: i, node: context})
		}
	}

	if len(matches) == 0 {
		return 0, nil, docerr.Newf("context not found: %s", name)
	}
	if len(matches) > 1 {
		indices := make([]string, 0, len(matches))
		for _, m := range matches {
			indices = append(indices, strconv.Itoa(m.index))
		}
		return 0, nil, docerr.Newf("context name not unique: %s (%s)", name, strings.Join(indices, ", "))
	}
	return matches[0].index, matches[0].node, nil
}

func validateContextExtendsTokens(document *yaml.Node, raw string) error {
	available := make(map[string]bool)
	for _, name := range allContextNames(document) {
		available[name] = true
	}
	var missing []string
	for _, token := range splitTokens(raw) {
		if !available[token] {
			missing = append(missing, token)
		}
	}
	if len(missing) > 0 {
		return docerr.Newf("unknown extends context(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func rewriteContextExtends(document *yaml.Node, old, new string) {
	if old == new {
		return
	}
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return
	}
	for _, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		extends := node.StringValue(context, "extends")
		if extends == "" {
			continue
		}
		if rewritten := refexpr.Rewrite(extends, old, new); rewritten != extends {
			node.MapSetString(context, "extends", rewritten)
		}
	}
}

func findContextExtendsReferences(document *yaml.Node, target string) []string {
	var refs []string
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return refs
	}
	for _, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		name := node.StringValue(context, "name")
		extends := node.StringValue(context, "extends")
		if name == "" || extends == "" {
			continue
		}
		for _, token := range splitTokens(extends) {
			if token == target {
				refs = append(refs, name)
				break
			}
		}
	}
	return refs
}

func removeFromContextExtends(document *yaml.Node, target string) {
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return
	}
	for _, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		extends := node.StringValue(context, "extends")
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
			node.MapDelete(context, "extends")
			continue
		}
		node.MapSetString(context, "extends", strings.Join(remaining, ", "))
	}
}
