// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package node

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func mustParse(t *testing.T, text string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return DocRoot(&doc)
}

func TestDocRoot(t *testing.T) {
	root := mustParse(t, "a: 1\n")
	if root == nil || root.Kind != yaml.MappingNode {
		t.Fatalf("DocRoot should return the mapping, got %+v", root)
	}
	// Already-unwrapped nodes pass through.
	if DocRoot(root) != root {
		t.Error("DocRoot on non-document should be identity")
	}
	if DocRoot(nil) != nil {
		t.Error("DocRoot(nil) should be nil")
	}

	// Unmarshal of empty input leaves a zero-Kind node.
	var empty yaml.Node
	if err := yaml.Unmarshal([]byte(""), &empty); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if DocRoot(&empty) != nil {
		t.Error("DocRoot of an empty document should be nil")
	}
}

func TestMapGetSetDelete(t *testing.T) {
	m := mustParse(t, "name: DB\nsubtitle: Postgres\n")

	if got := StringValue(m, "name"); got != "DB" {
		t.Errorf("StringValue(name) = %q", got)
	}
	if MapGet(m, "missing") != nil {
		t.Error("MapGet(missing) should be nil")
	}

	MapSetString(m, "name", "Database")
	MapSetString(m, "id", "db")
	if got := StringValue(m, "name"); got != "Database" {
		t.Errorf("after set, name = %q", got)
	}
	wantKeys := []string{"name", "subtitle", "id"}
	gotKeys := MapKeys(m)
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("MapKeys = %v, want %v", gotKeys, wantKeys)
	}
	for i := range wantKeys {
		if gotKeys[i] != wantKeys[i] {
			t.Errorf("MapKeys[%d] = %q, want %q", i, gotKeys[i], wantKeys[i])
		}
	}

	if !MapDelete(m, "subtitle") {
		t.Error("MapDelete(subtitle) should report removal")
	}
	if MapDelete(m, "subtitle") {
		t.Error("second MapDelete(subtitle) should report nothing removed")
	}
	if MapHas(m, "subtitle") {
		t.Error("subtitle should be gone")
	}
}

func TestMapSetNode_ReplacesInPlace(t *testing.T) {
	m := mustParse(t, "children:\n- name: a\n")
	seq := NewSequence()
	MapSetNode(m, "children", seq)
	if Deref(MapGet(m, "children")) != seq {
		t.Error("MapSetNode should replace the value node")
	}
	if len(MapKeys(m)) != 1 {
		t.Error("replacement should not duplicate the key")
	}
}

func TestBoolValue(t *testing.T) {
	m := mustParse(t, "hidden: true\nsecondary: \"false\"\nlabel: calls\n")

	if v, ok := BoolValue(m, "hidden"); !ok || !v {
		t.Errorf("hidden = %v, %v", v, ok)
	}
	if v, ok := BoolValue(m, "secondary"); !ok || v {
		t.Errorf("secondary = %v, %v", v, ok)
	}
	if _, ok := BoolValue(m, "label"); ok {
		t.Error("non-bool scalar should not parse")
	}
	if _, ok := BoolValue(m, "missing"); ok {
		t.Error("missing key should not parse")
	}
}

func TestSeqInsertRemove(t *testing.T) {
	seq := mustParse(t, "- a\n- b\n- c\n")

	SeqInsert(seq, 1, NewScalar("x"))
	got := make([]string, 0, 4)
	for _, item := range SeqItems(seq) {
		got = append(got, item.Value)
	}
	want := []string{"a", "x", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("after insert: %v, want %v", got, want)
		}
	}

	// Out-of-range insert appends.
	SeqInsert(seq, 99, NewScalar("z"))
	items := SeqItems(seq)
	if items[len(items)-1].Value != "z" {
		t.Error("insert past end should append")
	}

	if !SeqRemove(seq, 1) {
		t.Error("SeqRemove(1) should succeed")
	}
	if SeqRemove(seq, 99) {
		t.Error("SeqRemove out of range should report false")
	}
	if SeqItems(seq)[1].Value != "b" {
		t.Errorf("after remove: %v", SeqItems(seq))
	}
}

func TestEnsureSequence(t *testing.T) {
	m := mustParse(t, "name: a\n")

	seq := EnsureSequence(m, "children")
	if seq == nil || seq.Kind != yaml.SequenceNode {
		t.Fatal("EnsureSequence should create a sequence")
	}
	if EnsureSequence(m, "children") != seq {
		t.Error("second call should return the same sequence")
	}
	if EnsureSequence(m, "name") != nil {
		t.Error("existing non-sequence value should yield nil")
	}
}

func TestDeref_FollowsAliases(t *testing.T) {
	m := mustParse(t, "base: &style\n  color: red\nother: *style\n")

	other := MapGet(m, "other")
	if other.Kind != yaml.AliasNode {
		t.Fatalf("expected alias node, got kind %v", other.Kind)
	}
	target := Deref(other)
	if target.Kind != yaml.MappingNode || StringValue(target, "color") != "red" {
		t.Error("Deref should reach the anchored mapping")
	}
}

func TestClone_StripsAnchorsAndExpandsAliases(t *testing.T) {
	m := mustParse(t, "base: &style\n  color: red\nother: *style\n")

	clone := Clone(m)
	Walk(clone, func(n *yaml.Node) bool {
		if n.Anchor != "" {
			t.Errorf("clone should carry no anchors, found %q", n.Anchor)
		}
		if n.Kind == yaml.AliasNode {
			t.Error("clone should carry no alias nodes")
		}
		return true
	})

	// The expanded alias is an independent copy.
	MapSetString(Deref(MapGet(clone, "other")), "color", "blue")
	if StringValue(Deref(MapGet(clone, "base")), "color") != "red" {
		t.Error("mutating expanded alias should not affect the anchored copy")
	}
	// And the original document is untouched.
	if StringValue(Deref(MapGet(m, "base")), "color") != "red" {
		t.Error("original should be untouched")
	}
}

func TestClone_PreservesCommentsAndStyle(t *testing.T) {
	m := mustParse(t, "# top\nname: 'DB'\n")
	clone := Clone(m)

	origVal := MapGet(m, "name")
	cloneVal := MapGet(clone, "name")
	if cloneVal.Style != origVal.Style {
		t.Error("clone should preserve scalar style")
	}

	var origKey, cloneKey *yaml.Node
	origKey = m.Content[0]
	cloneKey = clone.Content[0]
	if cloneKey.HeadComment != origKey.HeadComment {
		t.Errorf("clone head comment = %q, want %q", cloneKey.HeadComment, origKey.HeadComment)
	}
}

func TestWalk_StopsEarly(t *testing.T) {
	m := mustParse(t, "a: 1\nb: 2\nc: 3\n")
	count := 0
	Walk(m, func(n *yaml.Node) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("walk visited %d nodes, want 3", count)
	}
}

func TestNilSafety(t *testing.T) {
	if MapGet(nil, "k") != nil {
		t.Error("MapGet(nil) should be nil")
	}
	if MapKeys(nil) != nil {
		t.Error("MapKeys(nil) should be nil")
	}
	if MapDelete(nil, "k") {
		t.Error("MapDelete(nil) should be false")
	}
	if SeqItems(nil) != nil {
		t.Error("SeqItems(nil) should be nil")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
	Walk(nil, func(*yaml.Node) bool { return true })
}
