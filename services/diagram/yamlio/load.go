// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package yamlio

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// ============================================================================
// Document loading
// ============================================================================

// Load parses Ilograph YAML source into a mapping node. The returned node
// is the root mapping, not the enclosing document node. An empty input
// yields a fresh empty mapping. path is used for error messages only.
//
// Bracket expressions on reference keys (from, to, via, ...) are quoted
// before parsing so YAML does not mistake `[*.cloudfront.net]` for a flow
// sequence containing an alias.
func Load(raw string, path string) (*yaml.Node, error) {
	normalized := QuoteReferenceBracketScalars(raw)

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(normalized), &doc); err != nil {
		return nil, yamlError(err, path)
	}

	root := node.DocRoot(&doc)
	if root == nil {
		return node.NewMapping(), nil
	}
	if !node.IsMapping(root) {
		return nil, docerr.Newf("yaml root must be a mapping/object (file: %s)", path)
	}
	return root, nil
}

// LoadAny parses arbitrary YAML (batch op files) and returns its root
// node, or nil for an empty document.
func LoadAny(raw string, path string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, docerr.Newf("yaml parse error in %s: %v", path, err)
	}
	return node.DocRoot(&doc), nil
}

func yamlError(err error, path string) error {
	base := fmt.Sprintf("yaml parse error in %s: %v", path, err)
	if strings.Contains(err.Error(), "unknown anchor") {
		return docerr.New(base +
			"\nhint: quote Ilograph bracket references (example: from: '[*.cloudfront.net]')")
	}
	return docerr.New(base)
}

// ============================================================================
// Bracket scalar quoting
// ============================================================================

// QuoteReferenceBracketScalars rewrites lines whose key is a reference key
// and whose value is an unquoted bracket expression, wrapping the value in
// single quotes. Non-matching lines pass through untouched.
func QuoteReferenceBracketScalars(raw string) string {
	var out strings.Builder
	out.Grow(len(raw))

	rest := raw
	for len(rest) > 0 {
		line := rest
		newline := ""
		if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
			line = rest[:idx]
			newline = "\n"
			rest = rest[idx+1:]
		} else {
			rest = ""
		}

		trimmed := strings.TrimRight(line, "\r")
		cr := line[len(trimmed):]
		m := keyValueLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			out.WriteString(line)
			out.WriteString(newline)
			continue
		}

		prefix, key, value, suffix := m[1], m[2], m[3], m[4]
		if !referenceKeys[key] {
			out.WriteString(line)
			out.WriteString(newline)
			continue
		}

		escaped := strings.ReplaceAll(value, "'", "''")
		out.WriteString(prefix)
		out.WriteString(key)
		out.WriteString(": '")
		out.WriteString(escaped)
		out.WriteString("'")
		out.WriteString(suffix)
		out.WriteString(cr)
		out.WriteString(newline)
	}
	return out.String()
}
