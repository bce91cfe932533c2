// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package yamlio loads and dumps Ilograph diagram documents while
// preserving the author's formatting: comments, anchors, quoting,
// sequence indent style, and the bare bracket reference scalars the
// Ilograph format permits.
//
// A Profile is detected once from the source text and reapplied on
// every dump, so dump(load(text)) stays byte-stable for untouched
// regions.
package yamlio

import (
	"regexp"
	"strings"
)

// Sequence indent styles.
const (
	// StyleIndentless puts sequence dashes at the key's own column:
	//
	//	resources:
	//	- name: a
	StyleIndentless = "indentless"

	// StyleIndented indents sequence dashes beneath the key:
	//
	//	resources:
	//	  - name: a
	StyleIndented = "indented"
)

// KeyValue identifies one (key, value) pair recorded by the profile.
type KeyValue struct {
	Key   string
	Value string
}

// Profile holds the formatting hints extracted from the original
// source text.
//
// # Fields
//
//   - SequenceIndentStyle: Global majority-vote style.
//   - TopLevelSequenceIndents: First sequence-item indent per
//     top-level key, applied block-by-block after emission.
//   - UnquotedReferenceBrackets: (key, value) pairs that carried a
//     bare bracket value in the source and are unquoted again after
//     emission.
type Profile struct {
	SequenceIndentStyle       string
	TopLevelSequenceIndents   map[string]int
	UnquotedReferenceBrackets map[KeyValue]bool
}

// referenceKeys are the keys whose values the Ilograph format treats
// as reference scalars even when written as a bare bracket value.
var referenceKeys = map[string]bool{
	"from": true, "to": true, "via": true,
	"resourceId": true, "parentId": true, "for": true,
	"select": true, "focus": true, "highlight": true,
	"include": true, "exclude": true, "root": true,
	"center": true, "zoomTo": true, "expand": true, "hide": true,
	"start": true, "toAndBack": true, "toAsync": true, "restartAt": true,
}

var (
	keyValueLineRe       = regexp.MustCompile(`^([ \t]*(?:-[ \t]*)?)([A-Za-z_][A-Za-z0-9_]*)[ \t]*:[ \t]*(\[[^\n#]*\])([ \t]*(?:#.*)?)$`)
	quotedKeyValueLineRe = regexp.MustCompile(`^([ \t]*(?:-[ \t]*)?)([A-Za-z_][A-Za-z0-9_]*)[ \t]*:[ \t]*'(\[[^'\n#]*\])'([ \t]*(?:#.*)?)$`)
	topLevelKeyLineRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)[ \t]*:[ \t]*(?:#.*)?$`)
	topLevelKeyPrefixRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*[ \t]*:`)
	sequenceLineRe       = regexp.MustCompile(`^([ \t]*)-[ \t]`)
	mapKeyLineRe         = regexp.MustCompile(`^([ \t]*)([A-Za-z_][A-Za-z0-9_-]*)[ \t]*:[ \t]*(?:#.*)?$`)
)

// DetectProfile infers the formatting hints from raw source text.
// Pure; called once per read.
func DetectProfile(raw string) Profile {
	return Profile{
		SequenceIndentStyle:       detectSequenceIndentStyle(raw),
		TopLevelSequenceIndents:   detectTopLevelSequenceIndents(raw),
		UnquotedReferenceBrackets: detectUnquotedReferenceBrackets(raw),
	}
}

// detectSequenceIndentStyle scans every mapping-key line followed by a
// sequence item and majority-votes the indent delta: ties go to
// indentless, no evidence goes to indented.
func detectSequenceIndentStyle(raw string) string {
	lines := splitLines(raw)
	var deltas []int

	for i, line := range lines {
		m := mapKeyLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		keyIndent := len(m[1])
		for cursor := i + 1; cursor < len(lines); cursor++ {
			candidate := lines[cursor]
			stripped := strings.TrimSpace(candidate)
			if stripped == "" || stripped[0] == '#' {
				continue
			}
			if sm := sequenceLineRe.FindStringSubmatch(candidate); sm != nil {
				deltas = append(deltas, len(sm[1])-keyIndent)
			}
			break
		}
	}

	if len(deltas) == 0 {
		return StyleIndented
	}
	zero, indented := 0, 0
	for _, delta := range deltas {
		switch {
		case delta == 0:
			zero++
		case delta >= 2:
			indented++
		}
	}
	if zero >= indented {
		return StyleIndentless
	}
	return StyleIndented
}

// detectTopLevelSequenceIndents records, per top-level key, the indent
// of the first sequence item that follows it.
func detectTopLevelSequenceIndents(raw string) map[string]int {
	result := make(map[string]int)
	lines := splitLines(raw)

	for i, line := range lines {
		m := topLevelKeyLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := m[1]
		for cursor := i + 1; cursor < len(lines); cursor++ {
			candidate := lines[cursor]
			stripped := strings.TrimSpace(candidate)
			if stripped == "" || stripped[0] == '#' {
				continue
			}
			if sm := sequenceLineRe.FindStringSubmatch(candidate); sm != nil {
				result[key] = len(sm[1])
			}
			break
		}
	}
	return result
}

// detectUnquotedReferenceBrackets records (key, value) pairs where a
// reference key carries a bare bracket value.
func detectUnquotedReferenceBrackets(raw string) map[KeyValue]bool {
	result := make(map[KeyValue]bool)
	for _, line := range splitLines(raw) {
		m := keyValueLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[2], m[3]
		if !referenceKeys[key] {
			continue
		}
		result[KeyValue{Key: key, Value: strings.TrimSpace(value)}] = true
	}
	return result
}

// splitLines splits on newlines without keeping them, tolerating CRLF.
func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

