// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package impact

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/yamlio"
)

const fixture = `
resources:
  - id: web
    children:
      - id: nginx
  - id: db
perspectives:
  - name: Traffic
    relations:
      - from: web
        to: db
      - from: nginx
        to: db
    overrides:
      - resourceId: db
        scale: 2
    walkthrough:
      - text: Start here
        select: db
  - name: db
    relations:
      - from: web
        to: web
contexts:
  - name: Prod
    select: 'db, web'
`

func mustDoc(t *testing.T) *yaml.Node {
	t.Helper()
	document, err := yamlio.Load(fixture, "test.ilograph")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return document
}

func hitPaths(hits []Hit) []string {
	paths := make([]string, 0, len(hits))
	for _, hit := range hits {
		paths = append(paths, hit.Path)
	}
	return paths
}

func TestForResource_CollectsAllSites(t *testing.T) {
	document := mustDoc(t)
	hits := ForResource(document, "db")

	want := []string{
		"resources[1]",
		"perspectives[0].relations[0].to",
		"perspectives[0].relations[1].to",
		"perspectives[0].overrides[0].resourceId",
		"perspectives[0].walkthrough[0].select",
		"contexts[0].select",
		"perspectives[1]",
	}
	got := hitPaths(hits)
	if len(got) != len(want) {
		t.Fatalf("got %d hits %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hit %d: path %s, want %s", i, got[i], want[i])
		}
	}
}

func TestForResource_Sections(t *testing.T) {
	document := mustDoc(t)
	hits := ForResource(document, "db")

	if hits[0].Section != "resource" || hits[0].Field != "id/name" {
		t.Fatalf("unexpected definition hit: %+v", hits[0])
	}
	if hits[1].Perspective != "Traffic" || hits[1].Section != "relations" {
		t.Fatalf("unexpected relation hit: %+v", hits[1])
	}

	var contextHit, perspectiveHit *Hit
	for i := range hits {
		switch hits[i].Section {
		case "contexts:Prod":
			contextHit = &hits[i]
		case "perspective":
			perspectiveHit = &hits[i]
		}
	}
	if contextHit == nil || contextHit.Value != "db, web" {
		t.Fatalf("missing or wrong context hit: %+v", contextHit)
	}
	if perspectiveHit == nil || perspectiveHit.Path != "perspectives[1]" {
		t.Fatalf("missing or wrong perspective hit: %+v", perspectiveHit)
	}
}

func TestForResource_NoSubstringMatches(t *testing.T) {
	document := mustDoc(t)
	// "web" appears inside no other token, and "db" must not match a
	// lone "d" or swallow "db_replica"-style ids.
	hits := ForResource(document, "d")
	if len(hits) != 0 {
		t.Fatalf("expected no hits for 'd', got %v", hitPaths(hits))
	}
}

func TestForResource_UnknownID(t *testing.T) {
	document := mustDoc(t)
	if hits := ForResource(document, "ghost"); len(hits) != 0 {
		t.Fatalf("expected no hits, got %v", hitPaths(hits))
	}
}
