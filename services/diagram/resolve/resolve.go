// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resolve explains how a reference expression binds against a
// document: each token is classified and, where it lands on a resource,
// annotated with the resource's path.
package resolve

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/refexpr"
)

// Per-token resolution statuses.
const (
	StatusResolved            = "resolved"
	StatusSpecial             = "special"
	StatusWildcard            = "wildcard"
	StatusAlias               = "alias"
	StatusImportedNamespace   = "imported-namespace"
	StatusUnresolvedNamespace = "unresolved-namespace"
	StatusAmbiguous           = "ambiguous"
	StatusUnresolved          = "unresolved"
	StatusEmpty               = "empty"
)

// Row is one token's resolution outcome. Part is the comma-separated
// part the token came from; Details carries the resolved path, the
// alias target, or the candidate list for ambiguous tokens ("-"
// otherwise).
type Row struct {
	Part    string
	Token   string
	Status  string
	Details string
}

// Reference resolves a reference expression into per-token rows. The
// perspective name scopes alias lookup; "" means no perspective.
func Reference(document *yaml.Node, reference, perspective string) []Row {
	resourceIndex := collectResourcePaths(document)
	aliases := aliasesForPerspective(document, perspective)
	importNamespaces := collectImportNamespaces(document)

	var rows []Row
	parts := refexpr.Split(reference)
	if len(parts) == 0 {
		return []Row{{Part: reference, Token: "-", Status: StatusEmpty, Details: "-"}}
	}

	for _, part := range parts {
		components := refexpr.Parse(part)
		if len(components) == 0 {
			rows = append(rows, Row{Part: part, Token: "-", Status: StatusEmpty, Details: "-"})
			continue
		}

		for _, component := range components {
			token := component.Token
			row := Row{Part: part, Token: token, Status: StatusResolved, Details: "-"}

			switch {
			case component.Special:
				row.Status = StatusSpecial
			case component.Wildcard:
				row.Status = StatusWildcard
			case aliases[token] != "":
				row.Status = StatusAlias
				row.Details = aliases[token]
			case component.Namespaced:
				namespace, _, _ := strings.Cut(token, "::")
				if importNamespaces[namespace] {
					row.Status = StatusImportedNamespace
				} else {
					row.Status = StatusUnresolvedNamespace
				}
			default:
				paths := resourceIndex[token]
				switch len(paths) {
				case 0:
					row.Status = StatusUnresolved
				case 1:
					row.Details = paths[0]
				default:
					row.Status = StatusAmbiguous
					row.Details = strings.Join(paths, ", ")
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// collectResourcePaths maps every resource id and name to the paths
// declaring it. An identifier used by several resources maps to
// several paths, which is what surfaces as ambiguous.
func collectResourcePaths(document *yaml.Node) map[string][]string {
	paths := make(map[string][]string)
	for _, location := range index.ResourceLocations(document) {
		if id := strings.TrimSpace(node.StringValue(location.Node, "id")); id != "" {
			paths[id] = append(paths[id], location.Path)
		}
		if name := strings.TrimSpace(node.StringValue(location.Node, "name")); name != "" {
			paths[name] = append(paths[name], location.Path)
		}
	}
	return paths
}

func aliasesForPerspective(document *yaml.Node, perspective string) map[string]string {
	result := make(map[string]string)
	if perspective == "" {
		return result
	}
	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives == nil || !node.IsSequence(perspectives) {
		return result
	}

	for _, raw := range perspectives.Content {
		p := node.Deref(raw)
		if p == nil || !node.IsMapping(p) {
			continue
		}
		if index.PerspectiveIdentifier(p) != perspective {
			continue
		}
		aliases := node.Deref(node.MapGet(p, "aliases"))
		if aliases == nil || !node.IsSequence(aliases) {
			return result
		}
		for _, item := range aliases.Content {
			alias := node.Deref(item)
			if alias == nil || !node.IsMapping(alias) {
				continue
			}
			name := node.StringValue(alias, "alias")
			target := node.StringValue(alias, "for")
			if name != "" && target != "" {
				result[name] = target
			}
		}
		return result
	}
	return result
}

func collectImportNamespaces(document *yaml.Node) map[string]bool {
	namespaces := make(map[string]bool)
	imports := node.Deref(node.MapGet(document, "imports"))
	if imports == nil || !node.IsSequence(imports) {
		return namespaces
	}
	for _, raw := range imports.Content {
		item := node.Deref(raw)
		if item == nil || !node.IsMapping(item) {
			continue
		}
		if ns := strings.TrimSpace(node.StringValue(item, "namespace")); ns != "" {
			namespaces[ns] = true
		}
	}
	return namespaces
}
