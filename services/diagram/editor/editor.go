// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package editor runs the read/mutate/diff/write transaction every mutating
// command shares.
//
// The flow for a single edit:
//
//  1. Acquire the advisory file lock (skipped for dry runs).
//  2. Read the file, detect its formatting profile, parse it.
//  3. Snapshot anchors, run the mutation, restore anchors.
//  4. Gate the result through strict validation.
//  5. Serialize, restore style-only differences, render the diff.
//  6. Write atomically, refusing if the file changed on disk meanwhile.
package editor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/diffview"
	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/lock"
	"github.com/AleutianAI/ilograph-cli/services/diagram/validate"
	"github.com/AleutianAI/ilograph-cli/services/diagram/yamlio"
)

// Diff rendering modes for mutating commands.
const (
	DiffFull    = "full"
	DiffSummary = "summary"
	DiffNone    = "none"
)

// DefaultDiffPreviewLimit is how many diff lines a summary-mode render
// shows before truncating.
const DefaultDiffPreviewLimit = 120

// Mutator applies one logical edit to the document root and reports
// whether it changed anything. Returning false short-circuits the
// transaction with a "no changes" message.
type Mutator func(document *yaml.Node) (bool, error)

// Runner executes mutation transactions against a diagram file.
//
// # Fields
//
//   - Out: Destination for user-facing progress and diff output.
//   - DiffPreviewLimit: Max diff lines shown in summary mode
//     (DefaultDiffPreviewLimit when 0).
//   - LockWait: How long to wait for a held file lock before giving up.
type Runner struct {
	Out              io.Writer
	DiffPreviewLimit int
	LockWait         time.Duration
}

// Run applies mutator to the file at path inside a locked transaction.
// Dry runs skip locking and never write.
func (r *Runner) Run(path string, dryRun bool, diffMode string, mutator Mutator) error {
	mode, err := normalizeDiffMode(diffMode)
	if err != nil {
		return err
	}
	if dryRun {
		return r.runOnce(path, true, mode, mutator)
	}

	fileLock, err := lock.Acquire(path, r.LockWait)
	if err != nil {
		return err
	}
	defer fileLock.Release()

	return r.runOnce(path, false, mode, mutator)
}

func (r *Runner) runOnce(path string, dryRun bool, mode string, mutator Mutator) error {
	before, err := yamlio.ReadFile(path)
	if err != nil {
		return err
	}
	profile := yamlio.DetectProfile(before)
	document, err := yamlio.Load(before, path)
	if err != nil {
		return err
	}

	anchors := yamlio.SnapshotAnchors(document)
	changed, err := mutator(document)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(r.Out, "no changes (document already matches requested state)")
		return nil
	}
	yamlio.RestoreAnchors(document, anchors)

	if err := ensureValidForWrite(document); err != nil {
		return err
	}

	after, err := yamlio.Dump(document, &profile)
	if err != nil {
		return err
	}
	after = yamlio.RestoreStyleOnly(before, after)

	if !r.renderDiff(before, after, path, mode) {
		return nil
	}
	if dryRun {
		fmt.Fprintln(r.Out, "dry-run: changes were not written")
		return nil
	}

	if err := yamlio.WriteAtomic(path, after, before); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "updated: %s\n", path)
	return nil
}

// renderDiff prints the diff per mode and reports whether the texts differ.
func (r *Runner) renderDiff(before, after, path, mode string) bool {
	if before == after {
		fmt.Fprintln(r.Out, "no changes (serialized YAML is unchanged)")
		return false
	}

	lines := diffview.BuildUnifiedDiff(before, after, path)
	summary := diffview.Summarize(lines)
	sections := diffview.FormatTouchedSections(diffview.TouchedSections(before, after))

	limit := r.DiffPreviewLimit
	if limit <= 0 {
		limit = DefaultDiffPreviewLimit
	}

	switch {
	case mode == DiffNone:
		fmt.Fprintf(r.Out, "changes: +%d -%d (%d hunks); %s; diff hidden (--diff full to show)\n",
			summary.Added, summary.Deleted, summary.Hunks, sections)
	case mode == DiffSummary && len(lines) > limit:
		fmt.Fprintf(r.Out, "diff summary: +%d -%d (%d hunks); %s; showing first %d lines\n",
			summary.Added, summary.Deleted, summary.Hunks, sections, limit)
		diffview.PrintDiff(r.Out, lines[:limit])
		fmt.Fprintln(r.Out, "... diff truncated (use --diff full to print all)")
	default:
		fmt.Fprintf(r.Out, "diff summary: +%d -%d (%d hunks); %s\n",
			summary.Added, summary.Deleted, summary.Hunks, sections)
		diffview.PrintDiff(r.Out, lines)
	}
	return true
}

func normalizeDiffMode(mode string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(mode))
	switch normalized {
	case DiffFull, DiffSummary, DiffNone:
		return normalized, nil
	}
	return "", docerr.Newf("unknown diff mode: %s (expected: full|summary|none)", mode)
}

// ensureValidForWrite refuses to persist a document that fails strict
// validation, so a botched mutation can never corrupt the file.
func ensureValidForWrite(document *yaml.Node) error {
	issues := validate.Document(document, validate.ModeStrict).Issues
	if len(issues) == 0 {
		return nil
	}

	details := make([]string, 0, len(issues))
	for _, issue := range issues {
		details = append(details, fmt.Sprintf("%s at %s: %s", issue.Code, issue.Path, issue.Message))
	}
	header := fmt.Sprintf("mutation would produce invalid document (%d issue(s), strict mode):", len(issues))
	return docerr.New(docerr.FormatCapped(header, details))
}
