// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validate runs document consistency checks: id uniqueness,
// restricted identifier characters, and broken reference detection. The
// same checks back both the check command and the strict write gate.
package validate

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/refexpr"
)

// Validation modes.
const (
	// ModeStrict flags unresolved namespaced references too.
	ModeStrict = "strict"

	// ModeNative mirrors what the Ilograph renderer itself tolerates:
	// namespaced references without a matching import pass.
	ModeNative = "ilograph-native"
)

// Issue is a single validation finding.
type Issue struct {
	Code    string
	Path    string
	Message string
}

// Result wraps the issue list for a document.
type Result struct {
	Issues []Issue
}

// OK reports whether the document passed every check.
func (r Result) OK() bool {
	return len(r.Issues) == 0
}

// Document runs every consistency check in order and collects issues.
func Document(document *yaml.Node, mode string) Result {
	var issues []Issue
	issues = append(issues, checkDuplicateResourceIDs(document)...)
	issues = append(issues, checkDuplicatePerspectiveIDs(document)...)
	issues = append(issues, checkRestrictedChars(document)...)
	issues = append(issues, checkBrokenReferences(document, mode)...)
	return Result{Issues: issues}
}

// ============================================================================
// Id uniqueness
// ============================================================================

func checkDuplicateResourceIDs(document *yaml.Node) []Issue {
	type entry struct {
		id   string
		path string
	}
	var explicit []entry
	counts := make(map[string]int)
	for _, location := range index.ResourceLocations(document) {
		id := strings.TrimSpace(node.StringValue(location.Node, "id"))
		if id == "" {
			continue
		}
		explicit = append(explicit, entry{id: id, path: location.Path})
		counts[id]++
	}

	var issues []Issue
	for _, e := range explicit {
		if counts[e.id] <= 1 {
			continue
		}
		issues = append(issues, Issue{
			Code:    "duplicate-resource-id",
			Path:    e.path,
			Message: fmt.Sprintf("duplicate resource id: %s (ids must be unique)", e.id),
		})
	}
	return issues
}

func checkDuplicatePerspectiveIDs(document *yaml.Node) []Issue {
	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives == nil || !node.IsSequence(perspectives) {
		return nil
	}

	type entry struct {
		id    string
		index int
	}
	var explicit []entry
	counts := make(map[string]int)
	for i, perspective := range perspectives.Content {
		perspective = node.Deref(perspective)
		if perspective == nil || !node.IsMapping(perspective) {
			continue
		}
		id := strings.TrimSpace(node.StringValue(perspective, "id"))
		if id == "" {
			continue
		}
		explicit = append(explicit, entry{id: id, index: i})
		counts[id]++
	}

	var issues []Issue
	for _, e := range explicit {
		if counts[e.id] <= 1 {
			continue
		}
		issues = append(issues, Issue{
			Code:    "duplicate-perspective-id",
			Path:    fmt.Sprintf("perspectives[%d]", e.index),
			Message: fmt.Sprintf("duplicate perspective id: %s (ids must be unique)", e.id),
		})
	}
	return issues
}

// ============================================================================
// Restricted characters
// ============================================================================

func checkRestrictedChars(document *yaml.Node) []Issue {
	var issues []Issue
	for _, location := range index.ResourceLocations(document) {
		if node.MapHas(location.Node, "id") {
			id := node.StringValue(location.Node, "id")
			if bad, ok := firstRestrictedChar(id); ok {
				issues = append(issues, Issue{
					Code: "restricted-resource-id-char",
					Path: location.Path + ".id",
					Message: fmt.Sprintf("resource id contains restricted char '%c' "+
						"(use letters, digits, ., -, _)", bad),
				})
			}
		}

		name := node.StringValue(location.Node, "name")
		if name != "" && !node.MapHas(location.Node, "id") {
			if bad, ok := firstRestrictedChar(name); ok {
				issues = append(issues, Issue{
					Code: "name-needs-id",
					Path: location.Path + ".name",
					Message: fmt.Sprintf("resource name has restricted char and requires "+
						"explicit id ('%c'; add a clean `id` field)", bad),
				})
			}
		}
	}

	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives == nil || !node.IsSequence(perspectives) {
		return issues
	}
	for pi, perspective := range perspectives.Content {
		perspective = node.Deref(perspective)
		if perspective == nil || !node.IsMapping(perspective) {
			continue
		}
		aliases := node.Deref(node.MapGet(perspective, "aliases"))
		if aliases == nil || !node.IsSequence(aliases) {
			continue
		}
		for ai, alias := range aliases.Content {
			alias = node.Deref(alias)
			if alias == nil || !node.IsMapping(alias) {
				continue
			}
			value := node.StringValue(alias, "alias")
			if value == "" {
				continue
			}
			if bad, ok := firstRestrictedChar(value); ok {
				issues = append(issues, Issue{
					Code: "restricted-alias-char",
					Path: fmt.Sprintf("perspectives[%d].aliases[%d].alias", pi, ai),
					Message: fmt.Sprintf("alias contains restricted char '%c' "+
						"(use letters, digits, ., -, _)", bad),
				})
			}
		}
	}
	return issues
}

func firstRestrictedChar(value string) (rune, bool) {
	for _, ch := range value {
		if strings.ContainsRune(refexpr.RestrictedIDChars, ch) {
			return ch, true
		}
	}
	return 0, false
}

// ============================================================================
// Broken references
// ============================================================================

func checkBrokenReferences(document *yaml.Node, mode string) []Issue {
	var issues []Issue
	perspectiveAliases := buildPerspectiveAliases(document)
	importNamespaces := buildImportNamespaces(document)
	known := collectKnownIdentifiers(document)
	emitted := make(map[string]bool)

	// instanceOf frequently points to imported type paths and cannot be
	// checked as a plain resource reference without type resolution.
	for _, field := range index.ReferenceFields(document, false) {
		aliases := perspectiveAliases[field.Perspective]
		for _, component := range refexpr.Parse(field.Value()) {
			token := component.Token
			if component.Special || component.Wildcard {
				continue
			}
			if known[token] || aliases[token] {
				continue
			}
			if component.Namespaced {
				namespace, _, _ := strings.Cut(token, "::")
				if importNamespaces[namespace] {
					continue
				}
				if mode == ModeNative {
					continue
				}
			}
			key := field.Path + "\x00" + token
			if emitted[key] {
				continue
			}
			emitted[key] = true
			issues = append(issues, Issue{
				Code: "broken-reference",
				Path: field.Path,
				Message: fmt.Sprintf("unknown reference '%s' "+
					"(not found in resources, aliases, or imports)", token),
			})
		}
	}
	return issues
}

func collectKnownIdentifiers(document *yaml.Node) map[string]bool {
	known := make(map[string]bool)
	for _, location := range index.ResourceLocations(document) {
		if id := strings.TrimSpace(node.StringValue(location.Node, "id")); id != "" {
			known[id] = true
		}
		if name := strings.TrimSpace(node.StringValue(location.Node, "name")); name != "" {
			known[name] = true
		}
	}
	for _, location := range index.PerspectiveLocations(document) {
		if location.Identifier != "" {
			known[location.Identifier] = true
		}
	}
	return known
}

func buildPerspectiveAliases(document *yaml.Node) map[string]map[string]bool {
	result := make(map[string]map[string]bool)
	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives == nil || !node.IsSequence(perspectives) {
		return result
	}

	for _, perspective := range perspectives.Content {
		perspective = node.Deref(perspective)
		if perspective == nil || !node.IsMapping(perspective) {
			continue
		}
		identifier := index.PerspectiveIdentifier(perspective)
		aliasSet := make(map[string]bool)
		aliases := node.Deref(node.MapGet(perspective, "aliases"))
		if aliases != nil && node.IsSequence(aliases) {
			for _, alias := range aliases.Content {
				alias = node.Deref(alias)
				if alias == nil || !node.IsMapping(alias) {
					continue
				}
				if name := node.StringValue(alias, "alias"); name != "" {
					aliasSet[name] = true
				}
			}
		}
		result[identifier] = aliasSet
	}
	return result
}

func buildImportNamespaces(document *yaml.Node) map[string]bool {
	namespaces := make(map[string]bool)
	imports := node.Deref(node.MapGet(document, "imports"))
	if imports == nil || !node.IsSequence(imports) {
		return namespaces
	}
	for _, item := range imports.Content {
		item = node.Deref(item)
		if item == nil || !node.IsMapping(item) {
			continue
		}
		if ns := strings.TrimSpace(node.StringValue(item, "namespace")); ns != "" {
			namespaces[ns] = true
		}
	}
	return namespaces
}
