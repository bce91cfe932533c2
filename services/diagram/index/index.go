// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package index builds read-only views over a parsed diagram
// document: the resource tree walk, the perspective list, and the
// identifier maps that lookups and validation run against.
//
// A resource's identifier is its trimmed `id` when present, else its
// trimmed `name`. Nodes with neither are invisible to the index, as
// is everything beneath them.
package index

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// ResourceLocation describes one resource node and where it sits in
// the tree.
//
// # Fields
//
//   - Identifier: id (preferred) or name.
//   - Node: The resource mapping node.
//   - Parent: The parent resource mapping, nil at forest roots.
//   - Container: The sequence holding Node.
//   - Index: Node's position within Container.
//   - Path: Dotted/indexed path, e.g. "resources[0].children[2]".
type ResourceLocation struct {
	Identifier string
	Node       *yaml.Node
	Parent     *yaml.Node
	Container  *yaml.Node
	Index      int
	Path       string
}

// PerspectiveLocation describes one perspective and its list index.
type PerspectiveLocation struct {
	Identifier string
	Node       *yaml.Node
	Index      int
}

// ResourceIdentifier returns a resource's identifier: trimmed id when
// present, else trimmed name, else "".
func ResourceIdentifier(resource *yaml.Node) string {
	if id := strings.TrimSpace(node.StringValue(resource, "id")); id != "" {
		return id
	}
	return strings.TrimSpace(node.StringValue(resource, "name"))
}

// PerspectiveIdentifier returns a perspective's identifier the same
// way: trimmed id, else trimmed name, else "".
func PerspectiveIdentifier(perspective *yaml.Node) string {
	if id := strings.TrimSpace(node.StringValue(perspective, "id")); id != "" {
		return id
	}
	return strings.TrimSpace(node.StringValue(perspective, "name"))
}

// ResourceLocations walks the resource forest depth-first and returns
// every identifiable resource with its structural metadata.
func ResourceLocations(document *yaml.Node) []ResourceLocation {
	resources := node.Deref(node.MapGet(document, "resources"))
	if resources == nil || resources.Kind != yaml.SequenceNode {
		return nil
	}
	var out []ResourceLocation
	collectResources(resources, nil, "resources", &out)
	return out
}

func collectResources(resources, parent *yaml.Node, pathPrefix string, out *[]ResourceLocation) {
	for i, raw := range resources.Content {
		res := node.Deref(raw)
		if res == nil || res.Kind != yaml.MappingNode {
			continue
		}
		identifier := ResourceIdentifier(res)
		if identifier == "" {
			continue
		}
		path := pathPrefix + "[" + strconv.Itoa(i) + "]"
		*out = append(*out, ResourceLocation{
			Identifier: identifier,
			Node:       res,
			Parent:     parent,
			Container:  resources,
			Index:      i,
			Path:       path,
		})
		children := node.Deref(node.MapGet(res, "children"))
		if children != nil && children.Kind == yaml.SequenceNode {
			collectResources(children, res, path+".children", out)
		}
	}
}

// ResourceIndex maps each identifier (id or name) to all locations
// carrying it.
func ResourceIndex(document *yaml.Node) map[string][]ResourceLocation {
	idx := make(map[string][]ResourceLocation)
	for _, location := range ResourceLocations(document) {
		idx[location.Identifier] = append(idx[location.Identifier], location)
	}
	return idx
}

// ResourceIDIndex maps each explicit, non-blank id to all locations
// carrying it.
func ResourceIDIndex(document *yaml.Node) map[string][]ResourceLocation {
	idx := make(map[string][]ResourceLocation)
	for _, location := range ResourceLocations(document) {
		id := strings.TrimSpace(node.StringValue(location.Node, "id"))
		if id == "" {
			continue
		}
		idx[id] = append(idx[id], location)
	}
	return idx
}

// SingleResource returns the unique resource with the given
// identifier (id or name), or an EditError on zero or multiple
// matches.
func SingleResource(document *yaml.Node, identifier string) (ResourceLocation, error) {
	found := ResourceIndex(document)[identifier]
	if len(found) == 0 {
		return ResourceLocation{}, docerr.Newf(
			"resource not found: %s (lookup checks id first, then name)", identifier)
	}
	if len(found) > 1 {
		return ResourceLocation{}, docerr.Newf(
			"resource id not unique: %s (%s) (set explicit unique ids)",
			identifier, joinPaths(found))
	}
	return found[0], nil
}

// SingleResourceByID returns the unique resource with the given
// explicit id, or an EditError on zero or multiple matches. Mutations
// address resources this way because explicit ids are rename-safe.
func SingleResourceByID(document *yaml.Node, resourceID string) (ResourceLocation, error) {
	found := ResourceIDIndex(document)[resourceID]
	if len(found) == 0 {
		return ResourceLocation{}, docerr.Newf(
			"resource id not found: %s (expected exact match in resources[].id)", resourceID)
	}
	if len(found) > 1 {
		return ResourceLocation{}, docerr.Newf(
			"resource id not unique: %s (%s) (set explicit unique ids)",
			resourceID, joinPaths(found))
	}
	return found[0], nil
}

// EnsureChildren returns the resource's children sequence, creating
// it when absent.
func EnsureChildren(resource *yaml.Node) *yaml.Node {
	return node.EnsureSequence(resource, "children")
}

// PerspectiveLocations returns every identifiable perspective in
// document order.
func PerspectiveLocations(document *yaml.Node) []PerspectiveLocation {
	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives == nil || perspectives.Kind != yaml.SequenceNode {
		return nil
	}
	var out []PerspectiveLocation
	for i, raw := range perspectives.Content {
		p := node.Deref(raw)
		if p == nil || p.Kind != yaml.MappingNode {
			continue
		}
		identifier := PerspectiveIdentifier(p)
		if identifier == "" {
			continue
		}
		out = append(out, PerspectiveLocation{Identifier: identifier, Node: p, Index: i})
	}
	return out
}

// SinglePerspective returns the unique perspective with the given
// identifier, or an EditError on zero or multiple matches.
func SinglePerspective(document *yaml.Node, identifier string) (PerspectiveLocation, error) {
	var candidates []PerspectiveLocation
	for _, item := range PerspectiveLocations(document) {
		if item.Identifier == identifier {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return PerspectiveLocation{}, docerr.Newf(
			"perspective not found: %s (lookup checks id first, then name)", identifier)
	}
	if len(candidates) > 1 {
		indices := make([]string, len(candidates))
		for i, item := range candidates {
			indices[i] = strconv.Itoa(item.Index)
		}
		return PerspectiveLocation{}, docerr.Newf(
			"perspective id not unique: %s (%s) (set explicit unique ids)",
			identifier, strings.Join(indices, ", "))
	}
	return candidates[0], nil
}

func joinPaths(locations []ResourceLocation) string {
	paths := make([]string, len(locations))
	for i, item := range locations {
		paths[i] = item.Path
	}
	return strings.Join(paths, ", ")
}
