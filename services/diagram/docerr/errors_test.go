// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEditError_Message(t *testing.T) {
	err := Newf("resource %q not found", "db")
	if err.Error() != `resource "db" not found` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestEditError_Is(t *testing.T) {
	err := New("duplicate id")
	if !errors.Is(err, ErrEdit) {
		t.Error("EditError should unwrap to ErrEdit")
	}
	if !IsEdit(fmt.Errorf("apply op 3: %w", err)) {
		t.Error("IsEdit should see through wrapping")
	}
	if IsEdit(errors.New("unrelated")) {
		t.Error("IsEdit should reject unrelated errors")
	}
}

func TestParseError_WithHint(t *testing.T) {
	err := &ParseError{
		Path: "arch.ilograph",
		Hint: "unquoted bracket references like [*.example.com] must be quoted",
		Err:  errors.New("yaml: unknown anchor"),
	}
	msg := err.Error()
	if !strings.Contains(msg, "arch.ilograph") {
		t.Errorf("message should name the file: %q", msg)
	}
	if !strings.Contains(msg, "\nhint: ") {
		t.Errorf("hint should be on its own line: %q", msg)
	}
	if !errors.Is(err, err.Err) {
		t.Error("ParseError should unwrap to the parser error")
	}
}

func TestParseError_NoPathNoHint(t *testing.T) {
	err := &ParseError{Err: errors.New("yaml: bad indent")}
	msg := err.Error()
	if !strings.HasPrefix(msg, "failed to parse document:") {
		t.Errorf("message = %q", msg)
	}
	if strings.Contains(msg, "hint") {
		t.Errorf("no hint expected: %q", msg)
	}
}

func TestFormatCapped(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		details []string
		want    string
	}{
		{
			name:   "no details",
			header: "invalid ops file",
			want:   "invalid ops file",
		},
		{
			name:    "bare single detail",
			details: []string{"ops[0].op: unknown kind"},
			want:    "ops[0].op: unknown kind",
		},
		{
			name:    "header with details",
			header:  "invalid ops file:",
			details: []string{"a: bad", "b: worse"},
			want:    "invalid ops file:\n- a: bad\n- b: worse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCapped(tt.header, tt.details)
			if got != tt.want {
				t.Errorf("FormatCapped() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatCapped_OverLimit(t *testing.T) {
	details := make([]string, PreviewLimit+3)
	for i := range details {
		details[i] = fmt.Sprintf("ops[%d]: bad", i)
	}
	got := FormatCapped("invalid ops file:", details)

	if !strings.HasSuffix(got, "- ... and 3 more") {
		t.Errorf("expected capped tail, got:\n%s", got)
	}
	// header + PreviewLimit details + tail
	if n := strings.Count(got, "\n") + 1; n != PreviewLimit+2 {
		t.Errorf("expected %d lines, got %d", PreviewLimit+2, n)
	}
}
