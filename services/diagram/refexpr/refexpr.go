// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package refexpr implements the Ilograph reference-expression
// grammar: parsing, token extraction, and boundary-safe identifier
// rewriting.
//
// A reference expression is a comma-separated list of segments. Each
// segment may carry a trailing clone marker (` *suffix`), leading
// relative markers (`../`, `.../`), and a `/`-separated path whose
// components may be wrapped in `[...]`. Splitting is depth-aware over
// `[...]`/`(...)` and single/double quotes, with backslash escapes
// recognized only inside quotes.
//
// Everything here is pure string manipulation; resolution against a
// document lives elsewhere.
package refexpr

import (
	"strings"
	"unicode"
)

// RestrictedIDChars are the characters reserved by the expression
// grammar and therefore forbidden in resource/perspective ids and
// alias names.
const RestrictedIDChars = "/^*[],"

// specialTokens are matched case-insensitively: `*` (all), `none`,
// and `^` (parent).
var specialTokens = map[string]bool{
	"*":    true,
	"none": true,
	"^":    true,
}

// identBoundary is the identifier-boundary set: a candidate match is
// a real token only if the adjacent characters (when present) fall
// outside this set.
func identBoundary(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_' || b == '.' || b == ':' || b == '-':
		return true
	}
	return false
}

// Component is a single parsed component of a reference expression.
type Component struct {
	// Token is the trimmed, bracket-unwrapped component text.
	Token string

	// Raw is the component text as it appeared in the path split.
	Raw string

	// Relative is true when the owning segment had a leading `../`
	// or `.../` marker.
	Relative bool

	// Wildcard is true when the token contains `*` and is not one of
	// the special tokens.
	Wildcard bool

	// Namespaced is true when the token contains `::`.
	Namespaced bool

	// Special is true for `*`, `none`, and `^` (case-insensitive).
	Special bool
}

// IsSpecial reports whether token is one of the special reference
// tokens, case-insensitively.
func IsSpecial(token string) bool {
	return specialTokens[strings.ToLower(token)]
}

// Split splits a comma-separated reference list into trimmed
// segments. Commas inside `[...]`/`(...)` or quotes do not split;
// backslash escapes the next character only inside quotes. Empty
// segments are dropped.
func Split(raw string) []string {
	var parts []string
	var current strings.Builder
	squareDepth, parenDepth := 0, 0
	inSingle, inDouble, escaped := false, false, false

	flush := func() {
		if segment := strings.TrimSpace(current.String()); segment != "" {
			parts = append(parts, segment)
		}
		current.Reset()
	}

	for _, char := range raw {
		if escaped {
			current.WriteRune(char)
			escaped = false
			continue
		}
		if char == '\\' && (inSingle || inDouble) {
			current.WriteRune(char)
			escaped = true
			continue
		}
		if char == '\'' && !inDouble {
			inSingle = !inSingle
			current.WriteRune(char)
			continue
		}
		if char == '"' && !inSingle {
			inDouble = !inDouble
			current.WriteRune(char)
			continue
		}

		if !inSingle && !inDouble {
			switch {
			case char == '[':
				squareDepth++
			case char == ']' && squareDepth > 0:
				squareDepth--
			case char == '(':
				parenDepth++
			case char == ')' && parenDepth > 0:
				parenDepth--
			case char == ',' && squareDepth == 0 && parenDepth == 0:
				flush()
				continue
			}
		}

		current.WriteRune(char)
	}
	flush()
	return parts
}

// Parse parses an expression into its components, segment by segment.
func Parse(raw string) []Component {
	var components []Component
	for _, part := range Split(raw) {
		components = append(components, parsePart(part)...)
	}
	return components
}

// Tokens extracts candidate resource identifiers from an expression:
// every parsed token that is not special, not a wildcard, and not
// empty, deduplicated in first-seen order.
func Tokens(raw string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, component := range Parse(raw) {
		if component.Special || component.Wildcard || component.Token == "" {
			continue
		}
		if !seen[component.Token] {
			seen[component.Token] = true
			tokens = append(tokens, component.Token)
		}
	}
	return tokens
}

// ContainsIdentifier reports whether identifier appears as a parsed
// component token of the expression.
func ContainsIdentifier(raw, identifier string) bool {
	for _, component := range Parse(raw) {
		if component.Token == identifier {
			return true
		}
	}
	return false
}

// Rewrite replaces exact identifier tokens inside a reference string.
//
// A match counts only when the characters immediately before and
// after it (when present) are outside the identifier-boundary set
// [A-Za-z0-9_.:-], so renaming `db` never touches `db_replica`.
// Rewrite is idempotent once new is in place.
func Rewrite(raw, old, new string) string {
	if old == new || old == "" {
		return raw
	}

	var b strings.Builder
	pos := 0
	for {
		idx := strings.Index(raw[pos:], old)
		if idx < 0 {
			b.WriteString(raw[pos:])
			break
		}
		start := pos + idx
		end := start + len(old)

		boundaryOK := true
		if start > 0 && identBoundary(raw[start-1]) {
			boundaryOK = false
		}
		if end < len(raw) && identBoundary(raw[end]) {
			boundaryOK = false
		}

		if boundaryOK {
			b.WriteString(raw[pos:start])
			b.WriteString(new)
			pos = end
		} else {
			// Advance one byte past the failed match start, like a
			// regex engine would.
			b.WriteString(raw[pos : start+1])
			pos = start + 1
		}
	}
	return b.String()
}

func parsePart(part string) []Component {
	base := stripCloneSuffix(strings.TrimSpace(part))
	if base == "" {
		return nil
	}

	relative := false
	for {
		if strings.HasPrefix(base, "../") {
			relative = true
			base = strings.TrimLeftFunc(base[3:], unicode.IsSpace)
			continue
		}
		if strings.HasPrefix(base, ".../") {
			relative = true
			base = strings.TrimLeftFunc(base[4:], unicode.IsSpace)
			continue
		}
		break
	}
	if base == "" {
		return nil
	}

	var parsed []Component
	for _, rawComponent := range splitPath(base) {
		token := strings.TrimSpace(rawComponent)
		if token == "" {
			continue
		}
		if len(token) >= 2 && token[0] == '[' && token[len(token)-1] == ']' {
			token = strings.TrimSpace(token[1 : len(token)-1])
		}
		if token == "" {
			continue
		}

		special := IsSpecial(token)
		parsed = append(parsed, Component{
			Token:      token,
			Raw:        rawComponent,
			Relative:   relative,
			Wildcard:   strings.Contains(token, "*") && !special,
			Namespaced: strings.Contains(token, "::"),
			Special:    special,
		})
	}
	return parsed
}

// splitPath splits a reference path on `/` (a double `//` is one
// separator) while respecting `[...]`/`(...)` nesting.
func splitPath(raw string) []string {
	var parts []string
	var current strings.Builder
	squareDepth, parenDepth := 0, 0

	flush := func() {
		if segment := strings.TrimSpace(current.String()); segment != "" {
			parts = append(parts, segment)
		}
		current.Reset()
	}

	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		char := runes[i]
		switch {
		case char == '[':
			squareDepth++
		case char == ']' && squareDepth > 0:
			squareDepth--
		case char == '(':
			parenDepth++
		case char == ')' && parenDepth > 0:
			parenDepth--
		}

		if char == '/' && squareDepth == 0 && parenDepth == 0 {
			flush()
			if i+1 < len(runes) && runes[i+1] == '/' {
				i++
			}
			continue
		}
		current.WriteRune(char)
	}
	flush()
	return parts
}

// stripCloneSuffix removes a trailing clone marker (` *suffix`) from a
// segment. The marker's `*` must sit outside brackets/parens, follow
// whitespace, and introduce a non-empty suffix free of whitespace,
// `/`, and `,`.
func stripCloneSuffix(raw string) string {
	text := strings.TrimRightFunc(raw, unicode.IsSpace)
	if text == "" {
		return text
	}

	runes := []rune(text)
	squareDepth, parenDepth := 0, 0
	for index := len(runes) - 1; index >= 0; index-- {
		char := runes[index]
		switch char {
		case ']':
			squareDepth++
			continue
		case ')':
			parenDepth++
			continue
		case '[':
			if squareDepth > 0 {
				squareDepth--
			}
			continue
		case '(':
			if parenDepth > 0 {
				parenDepth--
			}
			continue
		}
		if squareDepth > 0 || parenDepth > 0 {
			continue
		}
		if char != '*' || index == 0 {
			continue
		}
		if !unicode.IsSpace(runes[index-1]) {
			continue
		}
		suffix := strings.TrimSpace(string(runes[index+1:]))
		if suffix == "" {
			continue
		}
		if strings.ContainsAny(suffix, "/,") || strings.ContainsFunc(suffix, unicode.IsSpace) {
			continue
		}
		return strings.TrimRightFunc(string(runes[:index-1]), unicode.IsSpace)
	}
	return text
}
