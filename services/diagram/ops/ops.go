// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ops implements the document mutation operations. Every
// operation takes the loaded document root, mutates it in memory, and
// reports whether anything changed. Nothing here touches the filesystem;
// the editor package owns locking, validation, and persistence.
package ops

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// NoneToken is the user-facing value meaning "no parent" (root level).
const NoneToken = "none"

// IsNoneToken reports whether user input selects the root level.
func IsNoneToken(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), NoneToken)
}

// ============================================================================
// Shared helpers
// ============================================================================

// insertIndex converts a 1-based index into a slice position. allowEnd
// permits size+1 for appends.
func insertIndex(index1, size int, allowEnd bool) (int, error) {
	if index1 < 1 {
		return 0, docerr.New("index must be >= 1")
	}
	maxIndex := size
	if allowEnd {
		maxIndex = size + 1
	}
	if index1 > maxIndex {
		return 0, docerr.Newf("index out of range: %d", index1)
	}
	return index1 - 1, nil
}

// splitTokens splits a comma-separated list, dropping blanks.
func splitTokens(raw string) []string {
	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(token); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// ensureSeq returns the sequence at key, creating one when the key is
// missing and replacing any non-sequence value.
func ensureSeq(m *yaml.Node, key string) *yaml.Node {
	if seq := node.EnsureSequence(m, key); seq != nil {
		return seq
	}
	seq := node.NewSequence()
	node.MapSetNode(m, key, seq)
	return seq
}

// ensureRootResources returns the top-level resources sequence, creating
// it when absent.
func ensureRootResources(document *yaml.Node) *yaml.Node {
	return ensureSeq(document, "resources")
}

// fingerprint renders a node to a comparable string so operations can
// detect whether an edit actually changed anything. Aliases are expanded;
// styles and comments are ignored on purpose.
func fingerprint(n *yaml.Node) string {
	var b strings.Builder
	writeFingerprint(&b, n)
	return b.String()
}

func writeFingerprint(b *strings.Builder, n *yaml.Node) {
	n = node.Deref(n)
	if n == nil {
		b.WriteString("~")
		return
	}
	switch n.Kind {
	case yaml.ScalarNode:
		b.WriteString(n.Tag)
		b.WriteByte(':')
		b.WriteString(n.Value)
	case yaml.MappingNode:
		b.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			writeFingerprint(b, n.Content[i])
			b.WriteByte('=')
			writeFingerprint(b, n.Content[i+1])
			b.WriteByte(',')
		}
		b.WriteByte('}')
	case yaml.SequenceNode:
		b.WriteByte('[')
		for _, item := range n.Content {
			writeFingerprint(b, item)
			b.WriteByte(',')
		}
		b.WriteByte(']')
	}
}

// scalarEquals compares a scalar node against an expected string or bool.
func scalarEquals(v *yaml.Node, expected any) bool {
	v = node.Deref(v)
	if v == nil || !node.IsScalar(v) {
		return false
	}
	switch e := expected.(type) {
	case string:
		return v.Tag != "!!bool" && v.Value == e
	case bool:
		actual, ok := scalarBool(v)
		return ok && actual == e
	}
	return false
}

func scalarBool(v *yaml.Node) (bool, bool) {
	if v == nil || v.Tag != "!!bool" {
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

// setTemplateValue writes a string or bool template value onto a mapping.
func setTemplateValue(m *yaml.Node, key string, value any) {
	switch v := value.(type) {
	case string:
		node.MapSetString(m, key, v)
	case bool:
		node.MapSetNode(m, key, node.NewBool(v))
	}
}
