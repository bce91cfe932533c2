// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"

	"github.com/AleutianAI/ilograph-cli/services/diagram/validate"
)

func checkTestIssues() []validate.Issue {
	return []validate.Issue{
		{Code: "broken-reference", Path: "perspectives[0].relations[0].to", Message: "unknown resource: ghost"},
		{Code: "duplicate-id", Path: "resources[2]", Message: "duplicate id: web"},
		{Code: "broken-reference", Path: "perspectives[1].overrides[0]", Message: "unknown resource: db2"},
	}
}

// TestFilterIssues tests the --ignore-rule / --only-rule filters.
func TestFilterIssues(t *testing.T) {
	issues := checkTestIssues()

	t.Run("no_filters", func(t *testing.T) {
		got := filterIssues(issues, nil, nil)
		if len(got) != 3 {
			t.Errorf("got %d issues, want 3", len(got))
		}
	})

	t.Run("ignore_rule", func(t *testing.T) {
		got := filterIssues(issues, []string{"broken-reference"}, nil)
		if len(got) != 1 || got[0].Code != "duplicate-id" {
			t.Errorf("got %v, want only duplicate-id", got)
		}
	})

	t.Run("only_rule", func(t *testing.T) {
		got := filterIssues(issues, nil, []string{"broken-reference"})
		if len(got) != 2 {
			t.Errorf("got %d issues, want 2", len(got))
		}
		for _, issue := range got {
			if issue.Code != "broken-reference" {
				t.Errorf("unexpected code %q", issue.Code)
			}
		}
	})

	t.Run("only_wins_over_ignore", func(t *testing.T) {
		got := filterIssues(issues, []string{"broken-reference"}, []string{"broken-reference"})
		if len(got) != 0 {
			t.Errorf("got %d issues, want 0", len(got))
		}
	})
}

// TestIssuesByCode tests the summary counts.
func TestIssuesByCode(t *testing.T) {
	counts := issuesByCode(checkTestIssues())
	if counts["broken-reference"] != 2 {
		t.Errorf("broken-reference = %d, want 2", counts["broken-reference"])
	}
	if counts["duplicate-id"] != 1 {
		t.Errorf("duplicate-id = %d, want 1", counts["duplicate-id"])
	}
	if len(counts) != 2 {
		t.Errorf("counts has %d codes, want 2: %v", len(counts), counts)
	}
}
