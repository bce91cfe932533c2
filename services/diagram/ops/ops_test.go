// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ops

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

const sampleDiagram = `
resources:
- id: aws
  name: AWS
  children:
  - id: web
    name: Web
    style: bold
    children:
    - id: nginx
      name: Nginx
  - id: db
    name: Database
- id: db_replica
  name: Replica
perspectives:
- id: Traffic
  name: Traffic
  relations:
  - from: web
    to: db
  - from: db
    to: db_replica
- id: Extended
  name: Extended
  extends: Traffic
contexts:
- name: Prod
- name: Dev
  extends: Prod
`

func mustDoc(t *testing.T, raw string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("fixture parse error: %v", err)
	}
	root := node.DocRoot(&doc)
	if root == nil {
		t.Fatal("fixture produced empty document")
	}
	return root
}

// mustChange wraps an operation's (changed, error) return so call sites
// can assert in one expression: mustChange(t)(CreateResource(...)).
func mustChange(t *testing.T) func(changed bool, err error) {
	t.Helper()
	return func(changed bool, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !changed {
			t.Fatal("expected a change")
		}
	}
}

func wantErr(t *testing.T, err error, contains string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Fatalf("error %q does not contain %q", err.Error(), contains)
	}
}

// ============================================================================
// Resource operation tests
// ============================================================================

func TestCreateResource(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(CreateResource(doc, "cache", "Cache", "web", "redis"))
	web, err := index.SingleResourceByID(doc, "web")
	if err != nil {
		t.Fatal(err)
	}
	children := node.Deref(node.MapGet(web.Node, "children"))
	last := children.Content[len(children.Content)-1]
	if node.StringValue(last, "id") != "cache" || node.StringValue(last, "subtitle") != "redis" {
		t.Error("new resource not appended under parent")
	}

	mustChange(t)(CreateResource(doc, "edge", "Edge", "none", ""))
	resources := node.Deref(node.MapGet(doc, "resources"))
	if node.StringValue(resources.Content[len(resources.Content)-1], "id") != "edge" {
		t.Error("none parent should append at root")
	}

	_, err = CreateResource(doc, "web", "Dup", "none", "")
	wantErr(t, err, "resource id already exists: web")

	_, err = CreateResource(doc, "x", "X", "missing", "")
	wantErr(t, err, "resource id not found: missing")
}

func TestRenameResource(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(RenameResource(doc, "web", "Web Tier"))
	changed, err := RenameResource(doc, "web", "Web Tier")
	if err != nil || changed {
		t.Errorf("renaming to the same name should be a no-op, changed=%v err=%v", changed, err)
	}
}

func TestRenameResourceID_RewritesReferences(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(RenameResourceID(doc, "db", "postgres"))

	traffic, err := index.SinglePerspective(doc, "Traffic")
	if err != nil {
		t.Fatal(err)
	}
	relations := node.Deref(node.MapGet(traffic.Node, "relations"))
	if got := node.StringValue(relations.Content[0], "to"); got != "postgres" {
		t.Errorf("to = %q, want postgres", got)
	}
	if got := node.StringValue(relations.Content[1], "from"); got != "postgres" {
		t.Errorf("from = %q, want postgres", got)
	}
	// db_replica shares the prefix but is a different identifier.
	if got := node.StringValue(relations.Content[1], "to"); got != "db_replica" {
		t.Errorf("to = %q, want db_replica untouched", got)
	}
}

func TestRenameResourceID_Errors(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	_, err := RenameResourceID(doc, "db", "db")
	wantErr(t, err, "old/new ids are identical")

	_, err = RenameResourceID(doc, "db", "web")
	wantErr(t, err, "target id already exists: web")
}

func TestMoveResource(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	// db is already the last child of aws.
	changed, err := MoveResource(doc, "db", "aws", false)
	if err != nil || changed {
		t.Errorf("already-last move should be a no-op, changed=%v err=%v", changed, err)
	}

	mustChange(t)(MoveResource(doc, "nginx", "db", false))
	db, _ := index.SingleResourceByID(doc, "db")
	children := node.Deref(node.MapGet(db.Node, "children"))
	if children == nil || node.StringValue(children.Content[0], "id") != "nginx" {
		t.Error("nginx not moved under db")
	}

	_, err = MoveResource(doc, "web", "web", false)
	wantErr(t, err, "cannot be parent of itself")

	_, err = MoveResource(doc, "aws", "db", false)
	wantErr(t, err, "under its own descendant")

	// Also rejected when the destination is nested deeper down.
	_, err = MoveResource(doc, "aws", "nginx", false)
	wantErr(t, err, "under its own descendant")
}

func TestMoveResource_InheritStyle(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(MoveResource(doc, "web", "db_replica", true))
	web, _ := index.SingleResourceByID(doc, "web")
	if node.MapHas(web.Node, "style") {
		t.Error("explicit style should be dropped when inheriting")
	}
}

func TestDeleteResource(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	_, err := DeleteResource(doc, "web", false)
	wantErr(t, err, "pass --delete-subtree")

	mustChange(t)(DeleteResource(doc, "web", true))
	if _, err := index.SingleResourceByID(doc, "web"); err == nil {
		t.Error("web still present after delete")
	}

	mustChange(t)(DeleteResource(doc, "db", false))
}

func TestCloneResource(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	// Shallow clone lands next to the source.
	mustChange(t)(CloneResource(doc, "web", CloneResourceOptions{NewID: "web2", NewName: "Web 2"}))
	clone, err := index.SingleResourceByID(doc, "web2")
	if err != nil {
		t.Fatal(err)
	}
	if node.MapHas(clone.Node, "children") {
		t.Error("shallow clone should drop children")
	}
	if clone.Parent == nil || node.StringValue(clone.Parent, "id") != "aws" {
		t.Error("clone should be a sibling of the source")
	}

	// Deep clone refuses conflicting explicit descendant ids.
	_, err = CloneResource(doc, "web", CloneResourceOptions{NewID: "web3", WithChildren: true})
	wantErr(t, err, "conflicting id: nginx")

	// Explicit root placement.
	mustChange(t)(CloneResource(doc, "db", CloneResourceOptions{
		NewID: "db2", NewParentID: "none", HasNewParent: true,
	}))
	db2, _ := index.SingleResourceByID(doc, "db2")
	if db2.Parent != nil {
		t.Error("db2 should be at the root")
	}

	_, err = CloneResource(doc, "web", CloneResourceOptions{NewID: "web"})
	wantErr(t, err, "resource id already exists: web")
}

// ============================================================================
// Relation operation tests
// ============================================================================

func TestAddRelation(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	secondary := true
	mustChange(t)(AddRelation(doc, "Traffic", RelationFields{
		From: "nginx", To: "db", Label: "reads", Secondary: &secondary,
	}))

	traffic, _ := index.SinglePerspective(doc, "Traffic")
	relations := node.Deref(node.MapGet(traffic.Node, "relations"))
	added := relations.Content[len(relations.Content)-1]
	if node.StringValue(added, "label") != "reads" {
		t.Error("label not written")
	}
	if v, ok := node.BoolValue(added, "secondary"); !ok || !v {
		t.Error("secondary not written")
	}

	_, err := AddRelation(doc, "Traffic", RelationFields{Label: "x"})
	wantErr(t, err, "relation requires from or to")
}

func TestAddRelationMany_ContextExpansion(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	added, err := AddRelationMany(doc,
		Target{Perspectives: []string{"Traffic"}, Contexts: []string{"Prod", "Dev"}},
		Template{"from": "svc-{context}", "to": "db"})
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}

	traffic, _ := index.SinglePerspective(doc, "Traffic")
	relations := node.Deref(node.MapGet(traffic.Node, "relations"))
	n := len(relations.Content)
	if node.StringValue(relations.Content[n-2], "from") != "svc-Prod" ||
		node.StringValue(relations.Content[n-1], "from") != "svc-Dev" {
		t.Error("context token not expanded per context")
	}
}

func TestAddRelationMany_DedupAndErrors(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	// Without the token, contexts render identical payloads and collapse.
	added, err := AddRelationMany(doc,
		Target{Perspectives: []string{"Traffic"}, Contexts: []string{"Prod", "Dev"}},
		Template{"from": "web", "to": "db"})
	if err != nil || added != 1 {
		t.Errorf("added = %d err = %v, want 1 relation", added, err)
	}

	_, err = AddRelationMany(doc, Target{Perspectives: []string{"Traffic"}},
		Template{"from": "svc-{context}"})
	wantErr(t, err, "target.contexts is not set")

	_, err = AddRelationMany(doc,
		Target{Perspectives: []string{"Traffic"}, Contexts: []string{"Staging"}},
		Template{"from": "web"})
	wantErr(t, err, "unknown context(s): Staging")

	_, err = AddRelationMany(doc, Target{Perspectives: []string{"Traffic", "Traffic"}},
		Template{"from": "web"})
	wantErr(t, err, "target.perspectives has duplicate: Traffic")
}

func TestAddRelationMany_AllPerspectives(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	added, err := AddRelationMany(doc, Target{AllPerspectives: true}, Template{"from": "web"})
	if err != nil {
		t.Fatal(err)
	}
	if added != 2 {
		t.Errorf("added = %d, want one per perspective", added)
	}
}

func TestRemoveRelation(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(RemoveRelation(doc, "Traffic", 1))
	traffic, _ := index.SinglePerspective(doc, "Traffic")
	relations := node.Deref(node.MapGet(traffic.Node, "relations"))
	if len(relations.Content) != 1 {
		t.Fatalf("relations = %d, want 1", len(relations.Content))
	}

	_, err := RemoveRelation(doc, "Traffic", 5)
	wantErr(t, err, "relation index out of range: 5 (valid range: 1..1)")

	_, err = RemoveRelation(doc, "Extended", 1)
	wantErr(t, err, "perspective has no relations: Extended")
}

func TestRemoveRelationsMatch(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	removed, err := RemoveRelationsMatch(doc, Target{Perspectives: []string{"Traffic"}},
		Template{"from": "db"}, true)
	if err != nil || removed != 1 {
		t.Errorf("removed = %d err = %v", removed, err)
	}

	_, err = RemoveRelationsMatch(doc, Target{Perspectives: []string{"Traffic"}},
		Template{"from": "nothing"}, true)
	wantErr(t, err, "no relations matched for relation.remove-match")

	removed, err = RemoveRelationsMatch(doc, Target{Perspectives: []string{"Traffic"}},
		Template{"from": "nothing"}, false)
	if err != nil || removed != 0 {
		t.Errorf("non-strict zero match should succeed, removed=%d err=%v", removed, err)
	}
}

func TestEditRelation(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(EditRelation(doc, "Traffic", 1, RelationEdit{
		Fields: RelationFields{Label: "serves"},
	}))

	// Re-applying the same value changes nothing.
	changed, err := EditRelation(doc, "Traffic", 1, RelationEdit{
		Fields: RelationFields{Label: "serves"},
	})
	if err != nil || changed {
		t.Errorf("idempotent edit should report no change, changed=%v err=%v", changed, err)
	}

	_, err = EditRelation(doc, "Traffic", 1, RelationEdit{ClearFrom: true, ClearTo: true})
	wantErr(t, err, "relation must define from or to")
}

func TestEditRelationsMatch(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	edited, err := EditRelationsMatch(doc, Target{AllPerspectives: true},
		Template{"from": "web"}, Template{"label": "serves"}, nil, true)
	if err != nil || edited != 1 {
		t.Fatalf("edited = %d err = %v", edited, err)
	}

	traffic, _ := index.SinglePerspective(doc, "Traffic")
	relations := node.Deref(node.MapGet(traffic.Node, "relations"))
	if node.StringValue(relations.Content[0], "label") != "serves" {
		t.Error("label not set on matched relation")
	}

	_, err = EditRelationsMatch(doc, Target{AllPerspectives: true},
		Template{"from": "web"}, nil, []string{"bogus"}, false)
	wantErr(t, err, "invalid clear field(s): bogus")
}

// ============================================================================
// Perspective operation tests
// ============================================================================

func TestCreatePerspective(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(CreatePerspective(doc, "Deploy", "Deployment", CreatePerspectiveOptions{
		Extends: "Traffic", Index1: 1,
	}))
	locations := index.PerspectiveLocations(doc)
	if locations[0].Identifier != "Deploy" {
		t.Error("1-based insert should land first")
	}

	_, err := CreatePerspective(doc, "Traffic", "Dup", CreatePerspectiveOptions{})
	wantErr(t, err, "perspective id already exists: Traffic")

	_, err = CreatePerspective(doc, "X", "X", CreatePerspectiveOptions{Extends: "Nope"})
	wantErr(t, err, "perspective not found: Nope")
}

func TestRenamePerspective_RewritesExtends(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(RenamePerspective(doc, "Traffic", "Flow", ""))
	extended, _ := index.SinglePerspective(doc, "Extended")
	if got := node.StringValue(extended.Node, "extends"); got != "Flow" {
		t.Errorf("extends = %q, want Flow", got)
	}

	_, err := RenamePerspective(doc, "Flow", "", "")
	wantErr(t, err, "set --new-id or --new-name")
}

func TestDeletePerspective(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	_, err := DeletePerspective(doc, "Traffic", false)
	wantErr(t, err, "pass --force to remove references (Extended)")

	mustChange(t)(DeletePerspective(doc, "Traffic", true))
	extended, _ := index.SinglePerspective(doc, "Extended")
	if node.MapHas(extended.Node, "extends") {
		t.Error("forced delete should strip extends references")
	}
}

func TestReorderAndCopyPerspective(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(ReorderPerspective(doc, "Extended", 1))
	changed, err := ReorderPerspective(doc, "Extended", 1)
	if err != nil || changed {
		t.Errorf("reorder to current slot should be a no-op, changed=%v err=%v", changed, err)
	}

	mustChange(t)(CopyPerspective(doc, "Traffic", "Traffic2", "Traffic Copy", 0))
	if _, err := index.SinglePerspective(doc, "Traffic2"); err != nil {
		t.Errorf("copy missing: %v", err)
	}
}

// ============================================================================
// Alias / override operation tests
// ============================================================================

func TestAliasOperations(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(AddAlias(doc, "Traffic", "frontend", "web/nginx", 0))
	_, err := AddAlias(doc, "Traffic", "frontend", "other", 0)
	wantErr(t, err, "alias already exists: frontend")

	mustChange(t)(EditAlias(doc, "Traffic", "frontend", "edge", "web"))
	rows, err := ListAliases(doc, "Traffic")
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows = %v err = %v", rows, err)
	}
	if rows[0].Alias != "edge" || rows[0].For != "web" {
		t.Errorf("row = %+v", rows[0])
	}

	mustChange(t)(RemoveAlias(doc, "Traffic", "edge"))
	_, err = RemoveAlias(doc, "Traffic", "edge")
	wantErr(t, err, "alias not found: edge")
}

func TestOverrideOperations(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	scale := 1.5
	mustChange(t)(AddOverride(doc, "Traffic", "web", "db", &scale, 0))

	_, err := AddOverride(doc, "Traffic", "web", "aws", nil, 0)
	wantErr(t, err, "override already exists for resourceId: web")

	_, err = AddOverride(doc, "Traffic", "db", "", nil, 0)
	wantErr(t, err, "override requires --parent-id or --scale")

	mustChange(t)(EditOverride(doc, "Traffic", "web", OverrideEdit{ClearScale: true}))

	rows, _ := ListOverrides(doc, "Traffic")
	if len(rows) != 1 || rows[0].Scale != nil || rows[0].ParentID != "db" {
		t.Errorf("rows = %+v", rows)
	}

	_, err = EditOverride(doc, "Traffic", "web", OverrideEdit{ClearParentID: true})
	wantErr(t, err, "override requires parentId or scale")

	mustChange(t)(RemoveOverride(doc, "Traffic", "web"))
}

// ============================================================================
// Sequence / walkthrough operation tests
// ============================================================================

func TestSequenceStepOperations(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	_, err := AddSequenceStep(doc, "Traffic", StepFields{To: "db"}, 0, "")
	wantErr(t, err, "pass --start to initialize sequence")

	mustChange(t)(AddSequenceStep(doc, "Traffic", StepFields{To: "db", Label: "query"}, 0, "web"))
	traffic, _ := index.SinglePerspective(doc, "Traffic")
	sequence := node.Deref(node.MapGet(traffic.Node, "sequence"))
	if node.StringValue(sequence, "start") != "web" {
		t.Error("sequence start not initialized")
	}

	_, err = AddSequenceStep(doc, "Traffic", StepFields{To: "db", RestartAt: "web"}, 0, "")
	wantErr(t, err, "step requires exactly one action")

	// Switching the action replaces the old one.
	mustChange(t)(EditSequenceStep(doc, "Traffic", 1, StepEdit{
		Fields: StepFields{RestartAt: "web"},
	}))
	rows, _ := ListSequenceSteps(doc, "Traffic")
	if rows[0].To != "" || rows[0].RestartAt != "web" {
		t.Errorf("row = %+v", rows[0])
	}

	_, err = EditSequenceStep(doc, "Traffic", 1, StepEdit{
		Fields: StepFields{To: "db", ToAsync: "db"},
	})
	wantErr(t, err, "step action is ambiguous")

	mustChange(t)(RemoveSequenceStep(doc, "Traffic", 1))
	_, err = RemoveSequenceStep(doc, "Traffic", 1)
	wantErr(t, err, "sequence step index out of range: 1")
}

func TestWalkthroughSlideOperations(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	_, err := AddWalkthroughSlide(doc, "Traffic", SlideFields{}, 0)
	wantErr(t, err, "slide requires at least one field")

	detail := 0.5
	mustChange(t)(AddWalkthroughSlide(doc, "Traffic", SlideFields{
		Text: "overview", Select: "web", Detail: &detail,
	}, 0))

	mustChange(t)(EditWalkthroughSlide(doc, "Traffic", 1, SlideEdit{
		Fields: SlideFields{Highlight: "db"}, ClearDetail: true,
	}))
	rows, _ := ListWalkthroughSlides(doc, "Traffic")
	if rows[0].Highlight != "db" || rows[0].Detail != nil {
		t.Errorf("row = %+v", rows[0])
	}

	_, err = EditWalkthroughSlide(doc, "Traffic", 1, SlideEdit{})
	wantErr(t, err, "set at least one update field")

	mustChange(t)(RemoveWalkthroughSlide(doc, "Traffic", 1))
}

// ============================================================================
// Context / group operation tests
// ============================================================================

func TestContextOperations(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(CreateContext(doc, "Staging", CreateContextOptions{Extends: "Prod"}))
	_, err := CreateContext(doc, "Prod", CreateContextOptions{})
	wantErr(t, err, "context already exists: Prod")
	_, err = CreateContext(doc, "X", CreateContextOptions{Extends: "Nope"})
	wantErr(t, err, "unknown extends context(s): Nope")

	mustChange(t)(RenameContext(doc, "Prod", "Production"))
	rows := ListContexts(doc)
	if rows[1].Extends != "Production" {
		t.Errorf("Dev extends = %q, want rewrite to Production", rows[1].Extends)
	}

	_, err = DeleteContext(doc, "Production", false)
	wantErr(t, err, "pass --force to remove references")
	mustChange(t)(DeleteContext(doc, "Production", true))
	rows = ListContexts(doc)
	for _, row := range rows {
		if strings.Contains(row.Extends, "Production") {
			t.Errorf("forced delete left extends reference: %+v", row)
		}
	}

	mustChange(t)(CopyContext(doc, "Dev", "Dev2", 0))
	mustChange(t)(ReorderContext(doc, "Dev2", 1))
	rows = ListContexts(doc)
	if rows[0].Name != "Dev2" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
}

func TestGroupOperations(t *testing.T) {
	doc := mustDoc(t, sampleDiagram)

	mustChange(t)(CreateGroup(doc, "backend", "Backend", "none", ""))
	_, err := CreateGroup(doc, "backend", "Dup", "none", "")
	wantErr(t, err, "resource id already exists: backend (group id must be unique)")

	mustChange(t)(MoveMany(doc, []string{"db", "db_replica"}, "backend"))
	backend, _ := index.SingleResourceByID(doc, "backend")
	children := node.Deref(node.MapGet(backend.Node, "children"))
	if children == nil || len(children.Content) != 2 {
		t.Fatal("resources not grouped under backend")
	}

	_, err = MoveMany(doc, []string{"db", "db"}, "backend")
	wantErr(t, err, "duplicate id in --ids: db")

	mustChange(t)(MoveMany(doc, []string{"db"}, "none"))
	db, _ := index.SingleResourceByID(doc, "db")
	if db.Parent != nil {
		t.Error("db should be back at the root")
	}
}
