// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/yamlio"
)

const fixture = `
imports:
  - from: ilograph/aws
    namespace: AWS
resources:
  - id: web
    name: Web Tier
    children:
      - id: nginx
  - id: db
  - name: Cache
  - name: Cache
perspectives:
  - name: Traffic
    aliases:
      - alias: store
        for: db
    relations:
      - from: web
        to: db
`

func mustDoc(t *testing.T) *yaml.Node {
	t.Helper()
	document, err := yamlio.Load(fixture, "test.ilograph")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return document
}

func TestReference_StatusPerToken(t *testing.T) {
	document := mustDoc(t)

	tests := []struct {
		name        string
		reference   string
		perspective string
		wantStatus  []string
	}{
		{"single resolved", "web", "", []string{StatusResolved}},
		{"resolved by name", "Web Tier", "", []string{StatusResolved}},
		{"path components", "web/nginx", "", []string{StatusResolved, StatusResolved}},
		{"unknown", "ghost", "", []string{StatusUnresolved}},
		{"ambiguous name", "Cache", "", []string{StatusAmbiguous}},
		{"alias in scope", "store", "Traffic", []string{StatusAlias}},
		{"alias out of scope", "store", "", []string{StatusUnresolved}},
		{"wildcard", "web.*", "", []string{StatusWildcard}},
		{"special", "*", "", []string{StatusSpecial}},
		{"imported namespace", "AWS::Lambda", "", []string{StatusImportedNamespace}},
		{"unknown namespace", "Ext::Thing", "", []string{StatusUnresolvedNamespace}},
		{"comma list", "web, ghost", "", []string{StatusResolved, StatusUnresolved}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Reference(document, tt.reference, tt.perspective)
			if len(rows) != len(tt.wantStatus) {
				t.Fatalf("got %d rows, want %d: %+v", len(rows), len(tt.wantStatus), rows)
			}
			for i, want := range tt.wantStatus {
				if rows[i].Status != want {
					t.Errorf("row %d: status %s, want %s", i, rows[i].Status, want)
				}
			}
		})
	}
}

func TestReference_Details(t *testing.T) {
	document := mustDoc(t)

	rows := Reference(document, "web/nginx", "")
	if rows[1].Details != "resources[0].children[0]" {
		t.Fatalf("unexpected details: %s", rows[1].Details)
	}

	rows = Reference(document, "Cache", "")
	if rows[0].Details != "resources[2], resources[3]" {
		t.Fatalf("unexpected ambiguous details: %s", rows[0].Details)
	}

	rows = Reference(document, "store", "Traffic")
	if rows[0].Details != "db" {
		t.Fatalf("alias details should name the target, got %s", rows[0].Details)
	}
}

func TestReference_EmptyExpression(t *testing.T) {
	document := mustDoc(t)
	rows := Reference(document, "   ", "")
	if len(rows) != 1 || rows[0].Status != StatusEmpty || rows[0].Token != "-" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
