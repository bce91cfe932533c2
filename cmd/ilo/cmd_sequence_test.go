// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"testing"

	"github.com/AleutianAI/ilograph-cli/services/diagram/ops"
)

// TestStepAction tests deriving the action/target pair for the table.
func TestStepAction(t *testing.T) {
	tests := []struct {
		name       string
		row        ops.StepRow
		wantAction string
		wantTarget string
	}{
		{"to", ops.StepRow{To: "db"}, "to", "db"},
		{"to_and_back", ops.StepRow{ToAndBack: "cache"}, "toAndBack", "cache"},
		{"to_async", ops.StepRow{ToAsync: "queue"}, "toAsync", "queue"},
		{"restart_at", ops.StepRow{RestartAt: "web"}, "restartAt", "web"},
		{"empty", ops.StepRow{}, "-", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, target := stepAction(tt.row)
			if action != tt.wantAction || target != tt.wantTarget {
				t.Errorf("stepAction() = (%q, %q), want (%q, %q)",
					action, target, tt.wantAction, tt.wantTarget)
			}
		})
	}
}
