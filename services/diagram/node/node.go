// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package node provides helpers over yaml.v3 node trees.
//
// The diagram document is held as a *yaml.Node tree rather than
// decoded structs so that comments, anchors, quoting, and key order
// survive a load/mutate/dump cycle. Mapping nodes store their entries
// as alternating key/value children; these helpers hide that layout
// from the mutation engine.
//
// Unless noted otherwise, helpers treat a nil node as an empty
// collection and never panic on kind mismatches; callers that need a
// hard failure check kinds explicitly.
package node

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deref follows alias nodes to their anchored target. Returns nil for
// nil input. Alias cycles cannot occur in a well-formed yaml.v3 tree.
func Deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// DocRoot unwraps a DocumentNode to its single content child. An empty
// document (unmarshal leaves the node with Kind zero) yields nil.
func DocRoot(doc *yaml.Node) *yaml.Node {
	if doc == nil || doc.Kind == 0 {
		return nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		return doc.Content[0]
	}
	return doc
}

// IsMapping reports whether n (after deref) is a mapping.
func IsMapping(n *yaml.Node) bool {
	n = Deref(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// IsSequence reports whether n (after deref) is a sequence.
func IsSequence(n *yaml.Node) bool {
	n = Deref(n)
	return n != nil && n.Kind == yaml.SequenceNode
}

// IsScalar reports whether n (after deref) is a scalar.
func IsScalar(n *yaml.Node) bool {
	n = Deref(n)
	return n != nil && n.Kind == yaml.ScalarNode
}

// =============================================================================
// Mapping access
// =============================================================================

// MapGet returns the value node for key, or nil when absent. The
// returned node is the raw tree node (not deref'd) so formatting
// survives in-place edits.
func MapGet(m *yaml.Node, key string) *yaml.Node {
	_, v := mapFind(m, key)
	return v
}

// MapHas reports whether the mapping contains key.
func MapHas(m *yaml.Node, key string) bool {
	k, _ := mapFind(m, key)
	return k != nil
}

// MapKeys returns the mapping's keys in document order.
func MapKeys(m *yaml.Node) []string {
	m = Deref(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := Deref(m.Content[i]); k != nil && k.Kind == yaml.ScalarNode {
			keys = append(keys, k.Value)
		}
	}
	return keys
}

// MapSetNode sets key to value, replacing an existing entry in place
// (preserving the key node and its comments) or appending a new one.
func MapSetNode(m *yaml.Node, key string, value *yaml.Node) {
	m = Deref(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := Deref(m.Content[i]); k != nil && k.Kind == yaml.ScalarNode && k.Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, NewScalar(key), value)
}

// MapSetString sets key to a plain string scalar.
func MapSetString(m *yaml.Node, key, value string) {
	MapSetNode(m, key, NewScalar(value))
}

// MapDelete removes key from the mapping, reporting whether an entry
// was removed.
func MapDelete(m *yaml.Node, key string) bool {
	m = Deref(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := Deref(m.Content[i]); k != nil && k.Kind == yaml.ScalarNode && k.Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

// StringValue returns the scalar string value for key, or "" when the
// key is absent or the value is not a scalar.
func StringValue(m *yaml.Node, key string) string {
	v := Deref(MapGet(m, key))
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

// BoolValue returns the boolean value for key and whether it was
// present as a parseable bool scalar.
func BoolValue(m *yaml.Node, key string) (bool, bool) {
	v := Deref(MapGet(m, key))
	if v == nil || v.Kind != yaml.ScalarNode {
		return false, false
	}
	switch strings.ToLower(v.Value) {
	case "true", "yes", "on":
		return true, true
	case "false", "no", "off":
		return false, true
	}
	return false, false
}

func mapFind(m *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	m = Deref(m)
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := Deref(m.Content[i]); k != nil && k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i], m.Content[i+1]
		}
	}
	return nil, nil
}

// =============================================================================
// Sequence access
// =============================================================================

// SeqItems returns the sequence's item nodes, or nil for non-sequences.
func SeqItems(n *yaml.Node) []*yaml.Node {
	n = Deref(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	return n.Content
}

// SeqInsert inserts item at zero-based index idx, clamped to
// [0, len]. Appends when idx >= len.
func SeqInsert(seq *yaml.Node, idx int, item *yaml.Node) {
	seq = Deref(seq)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(seq.Content) {
		seq.Content = append(seq.Content, item)
		return
	}
	seq.Content = append(seq.Content[:idx], append([]*yaml.Node{item}, seq.Content[idx:]...)...)
}

// SeqRemove removes the item at zero-based index idx, reporting
// whether an item was removed.
func SeqRemove(seq *yaml.Node, idx int) bool {
	seq = Deref(seq)
	if seq == nil || seq.Kind != yaml.SequenceNode || idx < 0 || idx >= len(seq.Content) {
		return false
	}
	seq.Content = append(seq.Content[:idx], seq.Content[idx+1:]...)
	return true
}

// EnsureSequence returns the sequence value for key, creating an empty
// block-style sequence entry when absent. Returns nil if an existing
// value is not a sequence.
func EnsureSequence(m *yaml.Node, key string) *yaml.Node {
	if v := Deref(MapGet(m, key)); v != nil {
		if v.Kind != yaml.SequenceNode {
			return nil
		}
		return v
	}
	seq := NewSequence()
	MapSetNode(m, key, seq)
	return seq
}

// =============================================================================
// Constructors
// =============================================================================

// NewMapping returns an empty block-style mapping node.
func NewMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// NewSequence returns an empty block-style sequence node.
func NewSequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

// NewScalar returns a plain string scalar. The emitter quotes it only
// when YAML requires (leading bracket, colon-space, etc.).
func NewScalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// NewBool returns a boolean scalar.
func NewBool(value bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)}
}

// NewInt returns an integer scalar.
func NewInt(value int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(value)}
}

// NewFloat returns a float scalar.
func NewFloat(value float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(value, 'g', -1, 64)}
}

// =============================================================================
// Traversal and copying
// =============================================================================

// Walk visits n and every node reachable from it, depth-first in
// document order. Alias nodes are visited but not followed, so each
// tree node is seen exactly once. Returning false from fn stops the
// walk.
func Walk(n *yaml.Node, fn func(*yaml.Node) bool) {
	if n == nil {
		return
	}
	stop := false
	var visit func(*yaml.Node)
	visit = func(cur *yaml.Node) {
		if cur == nil || stop {
			return
		}
		if !fn(cur) {
			stop = true
			return
		}
		if cur.Kind == yaml.AliasNode {
			return
		}
		for _, child := range cur.Content {
			visit(child)
		}
	}
	visit(n)
}

// Clone deep-copies a node tree. Aliases are expanded into copies of
// their targets and anchor labels are stripped, so the clone is fully
// independent of the source document's anchor namespace.
func Clone(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return Clone(n.Alias)
	}
	out := &yaml.Node{
		Kind:        n.Kind,
		Style:       n.Style,
		Tag:         n.Tag,
		Value:       n.Value,
		HeadComment: n.HeadComment,
		LineComment: n.LineComment,
		FootComment: n.FootComment,
	}
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = Clone(child)
		}
	}
	return out
}
