// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// TestRequiredValue tests blank rejection and trimming.
func TestRequiredValue(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr string
	}{
		{"plain", "web", "web", ""},
		{"trimmed", "  web  ", "web", ""},
		{"empty", "", "", "id must not be empty"},
		{"whitespace_only", "   ", "", "id must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := requiredValue(tt.value, "id")
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("requiredValue(%q) err = %v, want %q", tt.value, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("requiredValue(%q) failed: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("requiredValue(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

// TestSplitMulti tests repeated and comma-separated flag expansion.
func TestSplitMulti(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{"nil", nil, nil},
		{"single", []string{"web"}, []string{"web"}},
		{"comma", []string{"web,db"}, []string{"web", "db"}},
		{"repeated_and_comma", []string{"web,db", "cache"}, []string{"web", "db", "cache"}},
		{"blank_tokens_dropped", []string{" , web , "}, []string{"web"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMulti(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("splitMulti(%v) = %v, want %v", tt.values, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitMulti(%v)[%d] = %q, want %q", tt.values, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestTriBool tests the --flag/--no-flag tri-state resolution.
func TestTriBool(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
		cmd.Flags().Bool("secondary", false, "")
		cmd.Flags().Bool("no-secondary", false, "")
		return cmd
	}

	t.Run("unset", func(t *testing.T) {
		cmd := newCmd()
		if err := cmd.Flags().Parse(nil); err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if got := triBool(cmd, "secondary", "no-secondary"); got != nil {
			t.Errorf("triBool() = %v, want nil", *got)
		}
	})

	t.Run("positive", func(t *testing.T) {
		cmd := newCmd()
		if err := cmd.Flags().Parse([]string{"--secondary"}); err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		got := triBool(cmd, "secondary", "no-secondary")
		if got == nil || !*got {
			t.Errorf("triBool() = %v, want true", got)
		}
	})

	t.Run("negative", func(t *testing.T) {
		cmd := newCmd()
		if err := cmd.Flags().Parse([]string{"--no-secondary"}); err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		got := triBool(cmd, "secondary", "no-secondary")
		if got == nil || *got {
			t.Errorf("triBool() = %v, want false", got)
		}
	})
}

// TestTruncateCell tests rune-aware cell capping.
func TestTruncateCell(t *testing.T) {
	short := "web"
	if got := truncateCell(short); got != short {
		t.Errorf("truncateCell(%q) = %q, want unchanged", short, got)
	}

	long := strings.Repeat("a", truncateWidth+10)
	got := truncateCell(long)
	if len([]rune(got)) != truncateWidth {
		t.Errorf("truncateCell length = %d, want %d", len([]rune(got)), truncateWidth)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncateCell(%q) missing ellipsis: %q", long, got)
	}

	// Multibyte runes must not be split.
	wide := strings.Repeat("界", truncateWidth+5)
	got = truncateCell(wide)
	if len([]rune(got)) != truncateWidth {
		t.Errorf("truncateCell wide length = %d, want %d", len([]rune(got)), truncateWidth)
	}
}

// TestDashYesNo tests display fallbacks.
func TestDashYesNo(t *testing.T) {
	if got := dash(""); got != "-" {
		t.Errorf("dash(\"\") = %q, want -", got)
	}
	if got := dash("web"); got != "web" {
		t.Errorf("dash(web) = %q, want web", got)
	}
	if got := yesNo(true); got != "yes" {
		t.Errorf("yesNo(true) = %q", got)
	}
	if got := yesNo(false); got != "no" {
		t.Errorf("yesNo(false) = %q", got)
	}
}
