// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package yamlio

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
)

// ============================================================================
// Document dumping
// ============================================================================

// Dump serializes the root mapping back to YAML text, then reapplies the
// formatting the profile recorded from the original source: sequence
// indent style, per-top-level-key sequence indents, and unquoted bracket
// reference values.
func Dump(root *yaml.Node, profile *Profile) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", docerr.Newf("yaml emit error: %v", err)
	}
	if err := enc.Close(); err != nil {
		return "", docerr.Newf("yaml emit error: %v", err)
	}
	dumped := buf.String()

	if profile == nil {
		return dumped, nil
	}
	if profile.SequenceIndentStyle == StyleIndentless {
		dumped = dedentSequences(dumped)
	}
	dumped = applyTopLevelSequenceIndents(dumped, profile.TopLevelSequenceIndents)
	return restoreUnquotedReferenceBracketScalars(dumped, profile.UnquotedReferenceBrackets), nil
}

// ============================================================================
// Indentless sequence rewriting
// ============================================================================

var blockScalarHeaderRe = regexp.MustCompile(`(?:^|[ \t])[|>]\d*[+-]?$`)

// dedentSequences shifts block sequence items to their parent key's
// column. The encoder always indents sequences two spaces under the key;
// each line moves left two spaces per enclosing sequence. Block scalar
// bodies keep the shift applied to their header line so their relative
// indentation is untouched.
func dedentSequences(raw string) string {
	lines := splitLinesKeep(raw)
	out := make([]string, 0, len(lines))

	// Dash columns of the sequences currently open, outermost first.
	var stack []int
	inBlockScalar := false
	blockScalarIndent := 0
	blockScalarShift := 0

	for _, line := range lines {
		content := strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimLeft(content, " ")
		indent := len(content) - len(trimmed)

		if trimmed == "" {
			out = append(out, line)
			continue
		}

		if inBlockScalar {
			if indent > blockScalarIndent {
				out = append(out, shiftLeft(line, blockScalarShift))
				continue
			}
			inBlockScalar = false
		}

		isDash := strings.HasPrefix(trimmed, "- ") || trimmed == "-"
		isComment := strings.HasPrefix(trimmed, "#")

		if isDash {
			for len(stack) > 0 && stack[len(stack)-1] > indent {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 || stack[len(stack)-1] != indent {
				stack = append(stack, indent)
			}
		} else if !isComment {
			for len(stack) > 0 && stack[len(stack)-1] >= indent {
				stack = stack[:len(stack)-1]
			}
		} else {
			for len(stack) > 0 && stack[len(stack)-1] > indent {
				stack = stack[:len(stack)-1]
			}
		}

		shift := 2 * len(stack)
		if shift > indent {
			shift = indent
		}
		out = append(out, shiftLeft(line, shift))

		if blockScalarHeaderRe.MatchString(content) {
			inBlockScalar = true
			blockScalarIndent = indent
			blockScalarShift = shift
		}
	}
	return strings.Join(out, "")
}

func shiftLeft(line string, n int) string {
	removable := 0
	for removable < n && removable < len(line) && line[removable] == ' ' {
		removable++
	}
	return line[removable:]
}

// ============================================================================
// Top-level sequence indent restoration
// ============================================================================

// applyTopLevelSequenceIndents shifts each top-level key's block so its
// first sequence item lands on the indent recorded from the source text.
// The whole block moves uniformly, keeping nested structure intact.
func applyTopLevelSequenceIndents(raw string, indents map[string]int) string {
	if len(indents) == 0 {
		return raw
	}

	lines := splitLinesKeep(raw)
	out := make([]string, 0, len(lines))
	i := 0
	for i < len(lines) {
		line := lines[i]
		m := topLevelKeyLineRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			out = append(out, line)
			i++
			continue
		}

		key := m[1]
		out = append(out, line)
		i++

		blockStart := i
		for i < len(lines) && !topLevelKeyPrefixRe.MatchString(lines[i]) {
			i++
		}
		block := lines[blockStart:i]

		desired, ok := indents[key]
		if !ok {
			out = append(out, block...)
			continue
		}

		current := -1
		for _, blockLine := range block {
			stripped := strings.TrimSpace(blockLine)
			if stripped == "" || strings.HasPrefix(strings.TrimLeft(blockLine, " \t"), "#") {
				continue
			}
			if sm := sequenceLineRe.FindStringSubmatch(blockLine); sm != nil {
				current = len(sm[1])
			}
			break
		}

		if current < 0 || current == desired {
			out = append(out, block...)
			continue
		}

		delta := desired - current
		for _, blockLine := range block {
			if strings.TrimSpace(blockLine) == "" {
				out = append(out, blockLine)
				continue
			}
			if delta > 0 {
				out = append(out, strings.Repeat(" ", delta)+blockLine)
				continue
			}
			out = append(out, shiftLeft(blockLine, -delta))
		}
	}
	return strings.Join(out, "")
}

// ============================================================================
// Bracket scalar unquoting
// ============================================================================

// restoreUnquotedReferenceBracketScalars strips the single quotes the
// loader added around bracket reference values, but only for (key, value)
// pairs the profile saw unquoted in the original source.
func restoreUnquotedReferenceBracketScalars(raw string, original map[KeyValue]bool) string {
	if len(original) == 0 {
		return raw
	}

	lines := splitLinesKeep(raw)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		content := strings.TrimRight(line, "\r\n")
		tail := line[len(content):]
		m := quotedKeyValueLineRe.FindStringSubmatch(content)
		if m == nil {
			out = append(out, line)
			continue
		}

		prefix, key, value, suffix := m[1], m[2], strings.TrimSpace(m[3]), m[4]
		if !original[KeyValue{Key: key, Value: value}] {
			out = append(out, line)
			continue
		}
		out = append(out, prefix+key+": "+value+suffix+tail)
	}
	return strings.Join(out, "")
}

// splitLinesKeep splits raw into lines, each keeping its trailing newline.
func splitLinesKeep(raw string) []string {
	if raw == "" {
		return nil
	}
	var lines []string
	for len(raw) > 0 {
		idx := strings.IndexByte(raw, '\n')
		if idx < 0 {
			lines = append(lines, raw)
			break
		}
		lines = append(lines, raw[:idx+1])
		raw = raw[idx+1:]
	}
	return lines
}
