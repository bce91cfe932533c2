// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ops

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// ============================================================================
// Walkthrough slide operations
// ============================================================================

// SlideRow summarizes one walkthrough slide for listings.
type SlideRow struct {
	Perspective string
	Index       int
	Text        string
	Select      string
	Expand      string
	Highlight   string
	Hide        string
	Detail      *float64
}

// SlideFields carries optional walkthrough slide values.
type SlideFields struct {
	Text      string
	Select    string
	Expand    string
	Highlight string
	Hide      string
	Detail    *float64
}

func (f SlideFields) empty() bool {
	return f.Text == "" && f.Select == "" && f.Expand == "" &&
		f.Highlight == "" && f.Hide == "" && f.Detail == nil
}

// ListWalkthroughSlides returns slide rows for a perspective.
func ListWalkthroughSlides(document *yaml.Node, perspective string) ([]SlideRow, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return nil, err
	}
	walkthrough := node.Deref(node.MapGet(location.Node, "walkthrough"))
	if walkthrough == nil || !node.IsSequence(walkthrough) {
		return nil, nil
	}

	var rows []SlideRow
	for i, slide := range walkthrough.Content {
		slide = node.Deref(slide)
		if slide == nil || !node.IsMapping(slide) {
			continue
		}
		rows = append(rows, SlideRow{
			Perspective: location.Identifier,
			Index:       i + 1,
			Text:        node.StringValue(slide, "text"),
			Select:      node.StringValue(slide, "select"),
			Expand:      node.StringValue(slide, "expand"),
			Highlight:   node.StringValue(slide, "highlight"),
			Hide:        node.StringValue(slide, "hide"),
			Detail:      detailValue(slide),
		})
	}
	return rows, nil
}

// AddWalkthroughSlide appends or inserts a slide. At least one field is
// required. Index1 of 0 appends.
func AddWalkthroughSlide(document *yaml.Node, perspective string, fields SlideFields, index1 int) (bool, error) {
	if fields.empty() {
		return false, docerr.New("slide requires at least one field")
	}

	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	walkthrough := ensureSeq(location.Node, "walkthrough")

	slide := node.NewMapping()
	setSlideFields(slide, fields)

	if index1 == 0 {
		node.SeqInsert(walkthrough, len(walkthrough.Content), slide)
		return true, nil
	}

	insertAt, err := insertIndex(index1, len(walkthrough.Content), true)
	if err != nil {
		return false, err
	}
	node.SeqInsert(walkthrough, insertAt, slide)
	return true, nil
}

// SlideEdit describes an index-targeted slide edit.
type SlideEdit struct {
	Fields         SlideFields
	ClearText      bool
	ClearSelect    bool
	ClearExpand    bool
	ClearHighlight bool
	ClearHide      bool
	ClearDetail    bool
}

func (e SlideEdit) empty() bool {
	return e.Fields.empty() && !e.ClearText && !e.ClearSelect && !e.ClearExpand &&
		!e.ClearHighlight && !e.ClearHide && !e.ClearDetail
}

// EditWalkthroughSlide updates a slide by 1-based index.
func EditWalkthroughSlide(document *yaml.Node, perspective string, index1 int, edit SlideEdit) (bool, error) {
	if edit.empty() {
		return false, docerr.New("set at least one update field")
	}

	slide, err := walkthroughSlide(document, perspective, index1)
	if err != nil {
		return false, err
	}
	before := fingerprint(slide)

	setSlideFields(slide, edit.Fields)

	if edit.ClearText {
		node.MapDelete(slide, "text")
	}
	if edit.ClearSelect {
		node.MapDelete(slide, "select")
	}
	if edit.ClearExpand {
		node.MapDelete(slide, "expand")
	}
	if edit.ClearHighlight {
		node.MapDelete(slide, "highlight")
	}
	if edit.ClearHide {
		node.MapDelete(slide, "hide")
	}
	if edit.ClearDetail {
		node.MapDelete(slide, "detail")
	}

	return before != fingerprint(slide), nil
}

// RemoveWalkthroughSlide removes a slide by 1-based index.
func RemoveWalkthroughSlide(document *yaml.Node, perspective string, index1 int) (bool, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return false, err
	}
	walkthrough := node.Deref(node.MapGet(location.Node, "walkthrough"))
	if walkthrough == nil || !node.IsSequence(walkthrough) {
		return false, docerr.Newf("perspective has no walkthrough: %s", location.Identifier)
	}

	idx := index1 - 1
	if idx < 0 || idx >= len(walkthrough.Content) {
		return false, docerr.Newf("walkthrough slide index out of range: %d", index1)
	}
	node.SeqRemove(walkthrough, idx)
	return true, nil
}

// ============================================================================
// Internals
// ============================================================================

func setSlideFields(slide *yaml.Node, fields SlideFields) {
	if fields.Text != "" {
		node.MapSetString(slide, "text", fields.Text)
	}
	if fields.Select != "" {
		node.MapSetString(slide, "select", fields.Select)
	}
	if fields.Expand != "" {
		node.MapSetString(slide, "expand", fields.Expand)
	}
	if fields.Highlight != "" {
		node.MapSetString(slide, "highlight", fields.Highlight)
	}
	if fields.Hide != "" {
		node.MapSetString(slide, "hide", fields.Hide)
	}
	if fields.Detail != nil {
		node.MapSetNode(slide, "detail", node.NewFloat(*fields.Detail))
	}
}

func walkthroughSlide(document *yaml.Node, perspective string, index1 int) (*yaml.Node, error) {
	location, err := index.SinglePerspective(document, perspective)
	if err != nil {
		return nil, err
	}
	walkthrough := node.Deref(node.MapGet(location.Node, "walkthrough"))
	if walkthrough == nil || !node.IsSequence(walkthrough) {
		return nil, docerr.Newf("perspective has no walkthrough: %s", location.Identifier)
	}

	idx := index1 - 1
	if idx < 0 || idx >= len(walkthrough.Content) {
		return nil, docerr.Newf("walkthrough slide index out of range: %d", index1)
	}
	slide := node.Deref(walkthrough.Content[idx])
	if slide == nil || !node.IsMapping(slide) {
		return nil, docerr.Newf("walkthrough slide at index %d is not a mapping", index1)
	}
	return slide, nil
}

func detailValue(slide *yaml.Node) *float64 {
	v := node.Deref(node.MapGet(slide, "detail"))
	if v == nil || !node.IsScalar(v) {
		return nil
	}
	if v.Tag != "!!int" && v.Tag != "!!float" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v.Value, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
