// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package diffview renders unified diffs between two serializations of a
// diagram file, plus the small summaries the CLI prints alongside them.
package diffview

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
)

// Summary holds the +/- line counts and hunk count of a unified diff.
type Summary struct {
	Added   int
	Deleted int
	Hunks   int
}

// SectionDiff attributes added/deleted lines to one top-level YAML section.
type SectionDiff struct {
	Name    string
	Added   int
	Deleted int
}

// ==========================================================================
// Diff construction
// ==========================================================================

// BuildUnifiedDiff returns the unified diff between before and after as
// individual lines without trailing newlines. An empty slice means the two
// texts are identical.
func BuildUnifiedDiff(before, after, path string) []string {
	normalized := normalizePath(path)
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + normalized,
		ToFile:   "b/" + normalized,
		Context:  3,
	})
	if err != nil || text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// Summarize collects added/deleted line counts and the hunk count from
// unified diff lines.
func Summarize(lines []string) Summary {
	var summary Summary
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "@@"):
			summary.Hunks++
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			summary.Added++
		case strings.HasPrefix(line, "-"):
			summary.Deleted++
		}
	}
	return summary
}

// TouchedSections attributes every changed line to the top-level YAML key it
// falls under and returns the per-section counts in first-touch order.
func TouchedSections(before, after string) []SectionDiff {
	beforeSections := sectionPerLine(before)
	afterSections := sectionPerLine(after)

	var order []string
	counts := map[string]*SectionDiff{}
	touch := func(name string) *SectionDiff {
		if entry, ok := counts[name]; ok {
			return entry
		}
		entry := &SectionDiff{Name: name}
		counts[name] = entry
		order = append(order, name)
		return entry
	}

	var beforeLine, afterLine int
	for _, line := range BuildUnifiedDiff(before, after, "sections") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "@@"):
			beforeLine, afterLine = parseHunkStarts(line)
		case strings.HasPrefix(line, "+"):
			touch(sectionAt(afterSections, afterLine)).Added++
			afterLine++
		case strings.HasPrefix(line, "-"):
			touch(sectionAt(beforeSections, beforeLine)).Deleted++
			beforeLine++
		default:
			beforeLine++
			afterLine++
		}
	}

	result := make([]SectionDiff, 0, len(order))
	for _, name := range order {
		result = append(result, *counts[name])
	}
	return result
}

// FormatTouchedSections renders the section summary fragment, for example
// "touched sections: resources(+2/-1), perspectives(+1/-0)".
func FormatTouchedSections(sections []SectionDiff) string {
	if len(sections) == 0 {
		return "touched sections: none"
	}
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		parts = append(parts, fmt.Sprintf("%s(+%d/-%d)", section.Name, section.Added, section.Deleted))
	}
	return "touched sections: " + strings.Join(parts, ", ")
}

// ==========================================================================
// Rendering
// ==========================================================================

var (
	fileStyle = lipgloss.NewStyle().Bold(true)
	hunkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	addStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	delStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// PrintDiff writes diff lines to w, colorized when w is a terminal.
func PrintDiff(w io.Writer, lines []string) {
	color := writerIsTerminal(w)
	for _, line := range lines {
		fmt.Fprintln(w, styleLine(line, color))
	}
}

func styleLine(line string, color bool) string {
	if !color {
		return line
	}
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return fileStyle.Render(line)
	case strings.HasPrefix(line, "@@"):
		return hunkStyle.Render(line)
	case strings.HasPrefix(line, "+"):
		return addStyle.Render(line)
	case strings.HasPrefix(line, "-"):
		return delStyle.Render(line)
	}
	return line
}

func writerIsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// ==========================================================================
// Helpers
// ==========================================================================

func normalizePath(path string) string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	normalized = strings.TrimLeft(normalized, "/")
	if normalized == "" {
		return path
	}
	return normalized
}

// sectionPerLine maps each line index of text to the top-level key it falls
// under. Lines before the first top-level key map to "header".
func sectionPerLine(text string) []string {
	lines := strings.Split(text, "\n")
	sections := make([]string, len(lines))
	current := "header"
	for i, line := range lines {
		if name, ok := topLevelKey(line); ok {
			current = name
		}
		sections[i] = current
	}
	return sections
}

func topLevelKey(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	first := line[0]
	if first == ' ' || first == '\t' || first == '#' || first == '-' {
		return "", false
	}
	name, _, found := strings.Cut(line, ":")
	if !found || strings.TrimSpace(name) == "" {
		return "", false
	}
	return strings.TrimSpace(name), true
}

func sectionAt(sections []string, line int) string {
	if line < 1 || line > len(sections) {
		return "header"
	}
	return sections[line-1]
}

// parseHunkStarts extracts the 1-based before/after start lines from a
// "@@ -l,c +l,c @@" header. The ",c" part is omitted when the count is 1.
func parseHunkStarts(header string) (int, int) {
	fields := strings.Fields(header)
	if len(fields) < 3 {
		return 1, 1
	}
	return parseHunkRange(fields[1]), parseHunkRange(fields[2])
}

func parseHunkRange(field string) int {
	field = strings.TrimLeft(field, "-+")
	start, _, _ := strings.Cut(field, ",")
	value, err := strconv.Atoi(start)
	if err != nil || value < 1 {
		return 1
	}
	return value
}
