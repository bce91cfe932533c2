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

func newRelationFlagCmd(values *relationValues, prefix, negPrefix string) *cobra.Command {
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	addRelationValueFlags(cmd, values, prefix)
	addSecondaryFlags(cmd, prefix, negPrefix)
	return cmd
}

// TestBuildRelationTemplate_OnlyChangedFlags tests that unset flags never
// leak into the template.
func TestBuildRelationTemplate_OnlyChangedFlags(t *testing.T) {
	var values relationValues
	cmd := newRelationFlagCmd(&values, "", "no-")
	if err := cmd.Flags().Parse([]string{"--from", "web", "--label", "Traffic"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	template, err := buildRelationTemplate(cmd, values, "")
	if err != nil {
		t.Fatalf("buildRelationTemplate failed: %v", err)
	}
	if len(template) != 2 {
		t.Fatalf("template has %d keys, want 2: %v", len(template), template)
	}
	if template["from"] != "web" || template["label"] != "Traffic" {
		t.Errorf("unexpected template: %v", template)
	}
}

// TestBuildRelationTemplate_BlankValueRejected tests blank set values.
func TestBuildRelationTemplate_BlankValueRejected(t *testing.T) {
	var values relationValues
	cmd := newRelationFlagCmd(&values, "", "no-")
	if err := cmd.Flags().Parse([]string{"--to", "  "}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	_, err := buildRelationTemplate(cmd, values, "")
	if err == nil || err.Error() != "to must not be empty" {
		t.Errorf("err = %v, want %q", err, "to must not be empty")
	}
}

// TestBuildRelationTemplate_ArrowDirection tests normalization and the
// allowed-value check.
func TestBuildRelationTemplate_ArrowDirection(t *testing.T) {
	t.Run("lowercased", func(t *testing.T) {
		var values relationValues
		cmd := newRelationFlagCmd(&values, "", "no-")
		if err := cmd.Flags().Parse([]string{"--arrow-direction", "Backward"}); err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		template, err := buildRelationTemplate(cmd, values, "")
		if err != nil {
			t.Fatalf("buildRelationTemplate failed: %v", err)
		}
		if template["arrowDirection"] != "backward" {
			t.Errorf("arrowDirection = %v, want backward", template["arrowDirection"])
		}
	})

	t.Run("rejects_unknown", func(t *testing.T) {
		var values relationValues
		cmd := newRelationFlagCmd(&values, "", "no-")
		if err := cmd.Flags().Parse([]string{"--arrow-direction", "sideways"}); err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		_, err := buildRelationTemplate(cmd, values, "")
		if err == nil || !strings.Contains(err.Error(), "arrow-direction must be one of") {
			t.Errorf("err = %v, want allowed-values error", err)
		}
	})
}

// TestBuildRelationTemplate_SecondaryTriState tests the secondary /
// no-secondary pair, including the prefixed edit-match form.
func TestBuildRelationTemplate_SecondaryTriState(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		negPrefix string
		args      []string
		want      *bool
	}{
		{"unset", "", "no-", nil, nil},
		{"secondary", "", "no-", []string{"--secondary"}, boolPtr(true)},
		{"no_secondary", "", "no-", []string{"--no-secondary"}, boolPtr(false)},
		{"match_prefixed", "match-", "match-no-", []string{"--match-no-secondary"}, boolPtr(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var values relationValues
			cmd := newRelationFlagCmd(&values, tt.prefix, tt.negPrefix)
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			template, err := buildRelationTemplate(cmd, values, tt.prefix)
			if err != nil {
				t.Fatalf("buildRelationTemplate failed: %v", err)
			}
			got, ok := template["secondary"]
			if tt.want == nil {
				if ok {
					t.Errorf("secondary present: %v, want absent", got)
				}
				return
			}
			if !ok || got != *tt.want {
				t.Errorf("secondary = %v (present %v), want %v", got, ok, *tt.want)
			}
		})
	}
}

// TestRelationFieldsFromTemplate tests the template-to-struct conversion.
func TestRelationFieldsFromTemplate(t *testing.T) {
	secondary := true
	fields := relationFieldsFromTemplate(map[string]any{
		"from":           "web",
		"to":             "db",
		"arrowDirection": "backward",
		"secondary":      secondary,
	})
	if fields.From != "web" || fields.To != "db" {
		t.Errorf("endpoints = %q -> %q", fields.From, fields.To)
	}
	if fields.ArrowDirection != "backward" {
		t.Errorf("ArrowDirection = %q", fields.ArrowDirection)
	}
	if fields.Secondary == nil || !*fields.Secondary {
		t.Errorf("Secondary = %v, want true", fields.Secondary)
	}
	if fields.Via != "" || fields.Label != "" {
		t.Errorf("unset fields leaked: %+v", fields)
	}
}

// TestRelationTarget tests the all-perspectives default.
func TestRelationTarget(t *testing.T) {
	target := relationTarget(nil, []string{"Prod"})
	if !target.AllPerspectives {
		t.Error("AllPerspectives = false, want true when no perspectives named")
	}
	if len(target.Contexts) != 1 || target.Contexts[0] != "Prod" {
		t.Errorf("Contexts = %v", target.Contexts)
	}

	target = relationTarget([]string{"Traffic"}, nil)
	if target.AllPerspectives {
		t.Error("AllPerspectives = true, want false when perspectives named")
	}
	if len(target.Perspectives) != 1 || target.Perspectives[0] != "Traffic" {
		t.Errorf("Perspectives = %v", target.Perspectives)
	}
}

// TestRelationFieldKey tests the dashed-flag to field-name mapping.
func TestRelationFieldKey(t *testing.T) {
	if got := relationFieldKey("arrow-direction"); got != "arrowDirection" {
		t.Errorf("relationFieldKey(arrow-direction) = %q", got)
	}
	if got := relationFieldKey("from"); got != "from" {
		t.Errorf("relationFieldKey(from) = %q", got)
	}
}

func boolPtr(v bool) *bool { return &v }
