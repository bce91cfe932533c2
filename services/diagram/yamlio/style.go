// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package yamlio

import (
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ============================================================================
// Style-only replacement restore
// ============================================================================

var blockHeaderIndicatorRe = regexp.MustCompile(`:[ \t]*([|>])\d*([+-]?)$`)

const flowStylePunctuation = "{}[],:"

// RestoreStyleOnly merges emitted text with the original, keeping original
// lines wherever the emitter changed only presentation (indent width,
// flow spacing, block scalar indentation hints) rather than content.
func RestoreStyleOnly(before, after string) string {
	if before == after {
		return after
	}

	beforeLines := strings.Split(strings.TrimSuffix(before, "\n"), "\n")
	afterLines := strings.Split(strings.TrimSuffix(after, "\n"), "\n")
	matcher := difflib.NewMatcherWithJunk(beforeLines, afterLines, false, nil)

	var merged []string
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			merged = append(merged, beforeLines[op.I1:op.I2]...)
		case 'r':
			original := beforeLines[op.I1:op.I2]
			emitted := afterLines[op.J1:op.J2]
			if styleEquivalentBlock(original, emitted) {
				merged = append(merged, original...)
			} else {
				merged = append(merged, emitted...)
			}
		case 'i':
			merged = append(merged, afterLines[op.J1:op.J2]...)
		case 'd':
			// dropped
		}
	}

	joined := strings.Join(merged, "\n")
	if strings.HasSuffix(after, "\n") {
		return joined + "\n"
	}
	return joined
}

func styleEquivalentBlock(before, after []string) bool {
	if len(before) != len(after) {
		return false
	}
	for i := range before {
		if normalizeStyleLine(before[i]) != normalizeStyleLine(after[i]) {
			return false
		}
	}
	return true
}

func normalizeStyleLine(line string) string {
	normalized := strings.TrimLeft(line, " ")
	normalized = blockHeaderIndicatorRe.ReplaceAllString(normalized, ": $1$2")
	if !strings.ContainsAny(normalized, "{[") {
		return normalized
	}
	return normalizeFlowStyleSpacing(normalized)
}

// normalizeFlowStyleSpacing collapses the whitespace differences ruamel
// and yaml.v3 style emitters disagree on inside flow collections, while
// leaving quoted strings alone.
func normalizeFlowStyleSpacing(line string) string {
	var out []rune
	pendingSpace := false
	inSingle := false
	inDouble := false
	escapeNext := false

	for _, ch := range line {
		if inSingle {
			out = append(out, ch)
			if ch == '\'' {
				inSingle = false
			}
			continue
		}
		if inDouble {
			out = append(out, ch)
			if escapeNext {
				escapeNext = false
				continue
			}
			if ch == '\\' {
				escapeNext = true
				continue
			}
			if ch == '"' {
				inDouble = false
			}
			continue
		}

		if ch == '\'' || ch == '"' {
			if pendingSpace && len(out) > 0 && !isFlowPunct(out[len(out)-1]) {
				out = append(out, ' ')
			}
			pendingSpace = false
			out = append(out, ch)
			if ch == '\'' {
				inSingle = true
			} else {
				inDouble = true
			}
			continue
		}

		if ch == ' ' || ch == '\t' {
			pendingSpace = true
			continue
		}

		if isFlowPunct(ch) {
			if len(out) > 0 && out[len(out)-1] == ' ' {
				out = out[:len(out)-1]
			}
			out = append(out, ch)
			pendingSpace = false
			continue
		}

		if pendingSpace && len(out) > 0 && !isFlowPunct(out[len(out)-1]) {
			out = append(out, ' ')
		}
		pendingSpace = false
		out = append(out, ch)
	}
	return string(out)
}

func isFlowPunct(ch rune) bool {
	return strings.ContainsRune(flowStylePunctuation, ch)
}
