// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package impact reports every place a resource identifier appears:
// its definition sites, reference-bearing fields, context scalars, and
// perspectives sharing the identifier. Run it before a rename or
// delete to see the blast radius.
package impact

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/refexpr"
)

// Hit is a single occurrence of the identifier.
//
// # Fields
//
//   - Perspective: Owning perspective identifier, "" outside perspectives.
//   - Section: Where the hit lives ("resource", "relations",
//     "contexts:<name>", "perspective", ...).
//   - Path: Dotted/indexed document path.
//   - Field: Field name at the hit ("id/name" for definition sites).
//   - Value: The field's current string value.
type Hit struct {
	Perspective string
	Section     string
	Path        string
	Field       string
	Value       string
}

// ForResource finds every definition and reference of resourceID.
func ForResource(document *yaml.Node, resourceID string) []Hit {
	var hits []Hit

	for _, location := range index.ResourceLocations(document) {
		if location.Identifier != resourceID {
			continue
		}
		hits = append(hits, Hit{
			Section: "resource",
			Path:    location.Path,
			Field:   "id/name",
			Value:   location.Identifier,
		})
	}

	for _, field := range index.ReferenceFields(document, true) {
		value := field.Value()
		if !refexpr.ContainsIdentifier(value, resourceID) {
			continue
		}
		hits = append(hits, Hit{
			Perspective: field.Perspective,
			Section:     field.Section,
			Path:        field.Path,
			Field:       field.Key,
			Value:       value,
		})
	}

	hits = append(hits, contextHits(document, resourceID)...)
	hits = append(hits, perspectiveIdentifierHits(document, resourceID)...)
	return hits
}

// contextHits scans every string value on context entries. Contexts
// carry ad-hoc keys, so there is no fixed reference-key registry for
// them.
func contextHits(document *yaml.Node, resourceID string) []Hit {
	var hits []Hit
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return hits
	}

	for i, raw := range contexts.Content {
		context := node.Deref(raw)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		contextID := node.StringValue(context, "id")
		if contextID == "" {
			contextID = node.StringValue(context, "name")
		}
		if contextID == "" {
			contextID = fmt.Sprintf("context[%d]", i)
		}
		for _, key := range node.MapKeys(context) {
			value := node.StringValue(context, key)
			if value == "" || !refexpr.ContainsIdentifier(value, resourceID) {
				continue
			}
			hits = append(hits, Hit{
				Section: "contexts:" + contextID,
				Path:    fmt.Sprintf("contexts[%d].%s", i, key),
				Field:   key,
				Value:   value,
			})
		}
	}
	return hits
}

func perspectiveIdentifierHits(document *yaml.Node, resourceID string) []Hit {
	var hits []Hit
	for _, location := range index.PerspectiveLocations(document) {
		if location.Identifier != resourceID {
			continue
		}
		hits = append(hits, Hit{
			Perspective: location.Identifier,
			Section:     "perspective",
			Path:        fmt.Sprintf("perspectives[%d]", location.Index),
			Field:       "id/name",
			Value:       location.Identifier,
		})
	}
	return hits
}
