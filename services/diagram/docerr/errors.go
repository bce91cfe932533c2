// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package docerr defines the domain errors shared by the diagram
// editing packages.
//
// All precondition violations, lookup failures, and invariant
// violations surface as a single user-facing kind, EditError. Commands
// catch it at the boundary, print the message, and exit non-zero;
// nothing in this module is process-fatal.
package docerr

import (
	"errors"
	"fmt"
	"strings"
)

// PreviewLimit caps how many detail lines a multi-issue error message
// renders before collapsing the rest into a "... and N more" tail.
const PreviewLimit = 8

// Sentinel errors for edit operations.
var (
	// ErrEdit is the base error all EditError values unwrap to.
	ErrEdit = errors.New("edit rejected")

	// ErrParse is the base error all ParseError values unwrap to.
	ErrParse = errors.New("document parse failed")
)

// EditError is the user-facing error for a rejected edit: a failed
// lookup, a violated precondition, a schema problem in an ops batch,
// or a document left invalid by a mutation.
//
// # Fields
//
//   - Message: Plain-text description, possibly multi-line.
type EditError struct {
	Message string
}

// New creates an EditError with a fixed message.
func New(msg string) *EditError {
	return &EditError{Message: msg}
}

// Newf creates an EditError with a formatted message.
func Newf(format string, args ...any) *EditError {
	return &EditError{Message: fmt.Sprintf(format, args...)}
}

// Error returns the plain-text message.
func (e *EditError) Error() string {
	return e.Message
}

// Unwrap returns ErrEdit for errors.Is support.
func (e *EditError) Unwrap() error {
	return ErrEdit
}

// IsEdit reports whether err is (or wraps) an EditError.
func IsEdit(err error) bool {
	return errors.Is(err, ErrEdit)
}

// ParseError wraps a YAML parse failure on a diagram document.
//
// # Fields
//
//   - Path: The file that failed to parse ("" for in-memory text).
//   - Hint: Optional remediation hint when the failure matches a
//     known Ilograph idiom, e.g. an unquoted bracket reference.
//   - Err: The underlying parser error.
type ParseError struct {
	Path string
	Hint string
	Err  error
}

// Error returns a human-readable error message, with the hint on its
// own line when present.
func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&b, "failed to parse %s: %v", e.Path, e.Err)
	} else {
		fmt.Fprintf(&b, "failed to parse document: %v", e.Err)
	}
	if e.Hint != "" {
		b.WriteString("\nhint: ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// Unwrap returns the underlying parser error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatCapped renders a header plus bulleted detail lines, keeping at
// most PreviewLimit details and summarizing the rest:
//
//	invalid ops file:
//	- ops[0].op: unknown operation kind
//	- ...
//	- ... and 3 more
//
// A single detail with an empty header is returned bare.
func FormatCapped(header string, details []string) string {
	if len(details) == 0 {
		return header
	}
	if header == "" && len(details) == 1 {
		return details[0]
	}

	lines := make([]string, 0, PreviewLimit+2)
	if header != "" {
		lines = append(lines, header)
	}
	shown := details
	if len(shown) > PreviewLimit {
		shown = shown[:PreviewLimit]
	}
	for _, d := range shown {
		lines = append(lines, "- "+d)
	}
	if len(details) > PreviewLimit {
		lines = append(lines, fmt.Sprintf("- ... and %d more", len(details)-PreviewLimit))
	}
	return strings.Join(lines, "\n")
}
