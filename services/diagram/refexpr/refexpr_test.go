// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refexpr

import (
	"strings"
	"testing"
)

// =============================================================================
// Split Tests
// =============================================================================

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "simple list",
			raw:  "db, cache, api",
			want: []string{"db", "cache", "api"},
		},
		{
			name: "single segment",
			raw:  "db",
			want: []string{"db"},
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
		{
			name: "blank segments dropped",
			raw:  "db, , cache,, ",
			want: []string{"db", "cache"},
		},
		{
			name: "comma inside brackets",
			raw:  "[a, b], c",
			want: []string{"[a, b]", "c"},
		},
		{
			name: "comma inside parens",
			raw:  "svc (primary, replica), other",
			want: []string{"svc (primary, replica)", "other"},
		},
		{
			name: "comma inside single quotes",
			raw:  "'a, b', c",
			want: []string{"'a, b'", "c"},
		},
		{
			name: "comma inside double quotes",
			raw:  `"a, b", c`,
			want: []string{`"a, b"`, "c"},
		},
		{
			name: "escaped quote inside quotes",
			raw:  `'it\'s, fine', c`,
			want: []string{`'it\'s, fine'`, "c"},
		},
		{
			name: "nested brackets",
			raw:  "[a, [b, c]], d",
			want: []string{"[a, [b, c]]", "d"},
		},
		{
			name: "unbalanced close bracket ignored",
			raw:  "a], b",
			want: []string{"a]", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("Split(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Split(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Splitting then rejoining with ", " reproduces the segment
// boundaries: a second split yields the same segments.
func TestSplit_RoundTrip(t *testing.T) {
	exprs := []string{
		"db, cache, api",
		"[a, b], c",
		"svc (x, y), other",
		"'a, b', c",
		"a/b/c, d//e",
		"Internet, AWS/us-east-1/[web *clone]",
	}
	for _, raw := range exprs {
		t.Run(raw, func(t *testing.T) {
			first := Split(raw)
			second := Split(strings.Join(first, ", "))
			if len(first) != len(second) {
				t.Fatalf("round-trip changed count: %v vs %v", first, second)
			}
			for i := range first {
				if first[i] != second[i] {
					t.Errorf("segment %d: %q vs %q", i, first[i], second[i])
				}
			}
		})
	}
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_Classification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Component
	}{
		{
			name: "plain identifier",
			raw:  "db",
			want: []Component{{Token: "db", Raw: "db"}},
		},
		{
			name: "path components",
			raw:  "AWS/us-east-1/web",
			want: []Component{
				{Token: "AWS", Raw: "AWS"},
				{Token: "us-east-1", Raw: "us-east-1"},
				{Token: "web", Raw: "web"},
			},
		},
		{
			name: "double slash is one separator",
			raw:  "AWS//web",
			want: []Component{
				{Token: "AWS", Raw: "AWS"},
				{Token: "web", Raw: "web"},
			},
		},
		{
			name: "special star",
			raw:  "*",
			want: []Component{{Token: "*", Raw: "*", Special: true}},
		},
		{
			name: "special none case-insensitive",
			raw:  "NONE",
			want: []Component{{Token: "NONE", Raw: "NONE", Special: true}},
		},
		{
			name: "special caret",
			raw:  "^",
			want: []Component{{Token: "^", Raw: "^", Special: true}},
		},
		{
			name: "wildcard",
			raw:  "*.example.com",
			want: []Component{{Token: "*.example.com", Raw: "*.example.com", Wildcard: true}},
		},
		{
			name: "bracket unwrap",
			raw:  "[*.example.com]",
			want: []Component{{Token: "*.example.com", Raw: "[*.example.com]", Wildcard: true}},
		},
		{
			name: "namespaced",
			raw:  "Ext::Thing",
			want: []Component{{Token: "Ext::Thing", Raw: "Ext::Thing", Namespaced: true}},
		},
		{
			name: "relative marker",
			raw:  "../db",
			want: []Component{{Token: "db", Raw: "db", Relative: true}},
		},
		{
			name: "deep relative marker",
			raw:  ".../db",
			want: []Component{{Token: "db", Raw: "db", Relative: true}},
		},
		{
			name: "stacked relative markers",
			raw:  "../../db",
			want: []Component{{Token: "db", Raw: "db", Relative: true}},
		},
		{
			name: "clone suffix stripped",
			raw:  "web *clone1",
			want: []Component{{Token: "web", Raw: "web"}},
		},
		{
			name: "star without space is wildcard not clone",
			raw:  "web*",
			want: []Component{{Token: "web*", Raw: "web*", Wildcard: true}},
		},
		{
			name: "empty expression",
			raw:  "",
			want: nil,
		},
		{
			name: "only relative marker",
			raw:  "../",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
			for i, w := range tt.want {
				if got[i] != w {
					t.Errorf("Parse(%q)[%d] = %+v, want %+v", tt.raw, i, got[i], w)
				}
			}
		})
	}
}

func TestParse_MultiSegment(t *testing.T) {
	got := Parse("Internet, AWS/web, none")
	if len(got) != 4 {
		t.Fatalf("expected 4 components, got %+v", got)
	}
	if got[0].Token != "Internet" || got[1].Token != "AWS" || got[2].Token != "web" {
		t.Errorf("unexpected tokens: %+v", got)
	}
	if !got[3].Special {
		t.Error("none should be special")
	}
}

func TestStripCloneSuffix(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"web *clone1", "web"},
		{"web * clone", "web"}, // space after * is trimmed from the suffix
		{"AWS/web *c", "AWS/web"},
		{"[a *b]", "[a *b]"},     // star inside brackets
		{"(x *y)", "(x *y)"},     // star inside parens
		{"*lead", "*lead"},       // star at position 0
		{"web *a/b", "web *a/b"}, // suffix contains slash
		{"web *a,b", "web *a,b"}, // suffix contains comma
		{"web *", "web *"},       // empty suffix
		{"web", "web"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := stripCloneSuffix(tt.raw)
			if got != tt.want {
				t.Errorf("stripCloneSuffix(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Tokens Tests
// =============================================================================

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "plain list",
			raw:  "db, cache",
			want: []string{"db", "cache"},
		},
		{
			name: "specials and wildcards excluded",
			raw:  "*, none, *.example.com, db",
			want: []string{"db"},
		},
		{
			name: "path contributes every component",
			raw:  "AWS/web",
			want: []string{"AWS", "web"},
		},
		{
			name: "deduplicated",
			raw:  "db, db, AWS/db",
			want: []string{"db", "AWS"},
		},
		{
			name: "namespaced kept",
			raw:  "Ext::Thing",
			want: []string{"Ext::Thing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokens(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Tokens(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestContainsIdentifier(t *testing.T) {
	if !ContainsIdentifier("AWS/web, db", "db") {
		t.Error("db should be found")
	}
	if !ContainsIdentifier("AWS/web, db", "AWS") {
		t.Error("AWS should be found")
	}
	if ContainsIdentifier("db_replica", "db") {
		t.Error("db should not match inside db_replica")
	}
	if ContainsIdentifier("", "db") {
		t.Error("empty expression contains nothing")
	}
}

// =============================================================================
// Rewrite Tests
// =============================================================================

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		old  string
		new  string
		want string
	}{
		{
			name: "exact token",
			raw:  "db",
			old:  "db",
			new:  "postgres",
			want: "postgres",
		},
		{
			name: "token in list",
			raw:  "db, cache",
			old:  "db",
			new:  "postgres",
			want: "postgres, cache",
		},
		{
			name: "token in path",
			raw:  "AWS/db/replica",
			old:  "db",
			new:  "postgres",
			want: "AWS/postgres/replica",
		},
		{
			name: "boundary law - suffix",
			raw:  "db_replica",
			old:  "db",
			new:  "postgres",
			want: "db_replica",
		},
		{
			name: "boundary law - prefix",
			raw:  "mydb",
			old:  "db",
			new:  "postgres",
			want: "mydb",
		},
		{
			name: "boundary law - dotted",
			raw:  "db.example.com",
			old:  "db",
			new:  "postgres",
			want: "db.example.com",
		},
		{
			name: "boundary law - namespaced",
			raw:  "Ext::db",
			old:  "db",
			new:  "postgres",
			want: "Ext::db",
		},
		{
			name: "bracket boundary allows match",
			raw:  "[db]",
			old:  "db",
			new:  "postgres",
			want: "[postgres]",
		},
		{
			name: "slash boundary allows match",
			raw:  "AWS/db",
			old:  "db",
			new:  "postgres",
			want: "AWS/postgres",
		},
		{
			name: "multiple occurrences",
			raw:  "db, AWS/db, db_replica",
			old:  "db",
			new:  "postgres",
			want: "postgres, AWS/postgres, db_replica",
		},
		{
			name: "no occurrences",
			raw:  "cache",
			old:  "db",
			new:  "postgres",
			want: "cache",
		},
		{
			name: "same old and new",
			raw:  "db",
			old:  "db",
			new:  "db",
			want: "db",
		},
		{
			name: "empty old",
			raw:  "db",
			old:  "",
			new:  "x",
			want: "db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rewrite(tt.raw, tt.old, tt.new)
			if got != tt.want {
				t.Errorf("Rewrite(%q, %q, %q) = %q, want %q", tt.raw, tt.old, tt.new, got, tt.want)
			}
		})
	}
}

// Applying the rewrite twice equals applying it once.
func TestRewrite_Idempotent(t *testing.T) {
	exprs := []string{
		"db, cache",
		"AWS/db/replica",
		"db_replica, db",
		"[db], mydb",
	}
	for _, raw := range exprs {
		t.Run(raw, func(t *testing.T) {
			once := Rewrite(raw, "db", "postgres")
			twice := Rewrite(once, "db", "postgres")
			if once != twice {
				t.Errorf("not idempotent: %q vs %q", once, twice)
			}
		})
	}
}

// When new was absent originally, rewriting back restores the input.
func TestRewrite_Inverse(t *testing.T) {
	exprs := []string{
		"db, cache",
		"AWS/db, db_replica",
		"[db]",
	}
	for _, raw := range exprs {
		t.Run(raw, func(t *testing.T) {
			forward := Rewrite(raw, "db", "postgres")
			back := Rewrite(forward, "postgres", "db")
			if back != raw {
				t.Errorf("inverse failed: %q -> %q -> %q", raw, forward, back)
			}
		})
	}
}

func TestIsSpecial(t *testing.T) {
	for _, token := range []string{"*", "none", "None", "NONE", "^"} {
		if !IsSpecial(token) {
			t.Errorf("IsSpecial(%q) should be true", token)
		}
	}
	for _, token := range []string{"db", "*.example.com", ""} {
		if IsSpecial(token) {
			t.Errorf("IsSpecial(%q) should be false", token)
		}
	}
}
