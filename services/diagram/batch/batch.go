// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package batch parses ops files (ops.yaml) into typed operation
// records and applies them to a document in order. Schema problems are
// collected across the whole file and reported as one error; the first
// application failure aborts the batch.
package batch

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/refexpr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/yamlio"
)

// opFactories is the closed registry of operation kinds.
var opFactories = map[string]func() Operation{
	"resource.create":       func() Operation { return &ResourceCreateOp{} },
	"resource.delete":       func() Operation { return &ResourceDeleteOp{} },
	"resource.clone":        func() Operation { return &ResourceCloneOp{} },
	"rename.resource":       func() Operation { return &RenameResourceOp{} },
	"rename.resource-id":    func() Operation { return &RenameResourceIDOp{} },
	"move.resource":         func() Operation { return &MoveResourceOp{} },
	"group.create":          func() Operation { return &GroupCreateOp{} },
	"group.move-many":       func() Operation { return &MoveManyOp{} },
	"relation.add":          func() Operation { return &RelationAddOp{} },
	"relation.add-many":     func() Operation { return &RelationAddManyOp{} },
	"relation.remove":       func() Operation { return &RelationRemoveOp{} },
	"relation.remove-match": func() Operation { return &RelationRemoveMatchOp{} },
	"relation.edit":         func() Operation { return &RelationEditOp{} },
	"relation.edit-match":   func() Operation { return &RelationEditMatchOp{} },
	"fmt.stable":            func() Operation { return &FmtStableOp{} },
}

// File is a parsed, schema-valid ops file.
type File struct {
	Ops []Operation
}

// Parse validates raw ops-file YAML. All schema issues are folded into
// a single error headed "invalid ops file:".
func Parse(raw, path string) (*File, error) {
	root, err := yamlio.LoadAny(raw, path)
	if err != nil {
		return nil, err
	}

	rep := &reporter{}
	if root == nil || !node.IsMapping(root) {
		rep.add("ops", "field required (ops file is a mapping with an `ops` list)")
		return nil, rep.toError()
	}
	for _, key := range node.MapKeys(root) {
		if key != "ops" {
			rep.add(key, "unknown field")
		}
	}

	opsSeq := node.Deref(node.MapGet(root, "ops"))
	if opsSeq == nil || !node.IsSequence(opsSeq) {
		rep.add("ops", "must be a list of operations")
		return nil, rep.toError()
	}
	if len(opsSeq.Content) == 0 {
		rep.add("ops", "must contain at least one operation (example op: rename.resource)")
		return nil, rep.toError()
	}

	file := &File{}
	for i, entry := range opsSeq.Content {
		prefix := fmt.Sprintf("ops[%d]", i)
		item := node.Deref(entry)
		if item == nil || !node.IsMapping(item) {
			rep.add(prefix, "must be a mapping")
			continue
		}
		kind := node.StringValue(item, "op")
		if kind == "" {
			rep.add(prefix+".op", "field required")
			continue
		}
		factory, ok := opFactories[kind]
		if !ok {
			rep.addf(prefix+".op", "unsupported op: %s", kind)
			continue
		}

		op := factory()
		checkUnknownKeys(item, reflect.TypeOf(op).Elem(), prefix, rep)
		if err := item.Decode(op); err != nil {
			rep.add(prefix, decodeMessage(err))
			continue
		}
		op.normalize(prefix, rep)
		reportValidation(op, prefix, rep)
		file.Ops = append(file.Ops, op)
	}

	if err := rep.toError(); err != nil {
		return nil, err
	}
	return file, nil
}

// Apply runs every operation in order. An error aborts the remaining
// ops; callers run batches against a scratch copy and discard it on
// failure.
func (f *File) Apply(document *yaml.Node) (bool, error) {
	changed := false
	for _, op := range f.Ops {
		c, err := op.Apply(document)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

func (r *reporter) toError() error {
	if len(r.issues) == 0 {
		return nil
	}
	return docerr.New(docerr.FormatCapped("invalid ops file:", r.issues))
}

// ============================================================================
// Schema checks
// ============================================================================

// checkUnknownKeys compares a mapping's keys against the yaml tags of
// the record type, recursing into nested record-valued fields. Inline
// embeds contribute their fields to the parent's key set.
func checkUnknownKeys(item *yaml.Node, t reflect.Type, path string, rep *reporter) {
	fields := make(map[string]reflect.StructField)
	collectYAMLFields(t, fields)

	for _, key := range node.MapKeys(item) {
		field, ok := fields[key]
		if !ok {
			rep.add(path+"."+key, "unknown field")
			continue
		}
		value := node.Deref(node.MapGet(item, key))
		if value == nil || !node.IsMapping(value) {
			continue
		}
		ft := field.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && !hasCustomUnmarshal(ft) {
			checkUnknownKeys(value, ft, path+"."+key, rep)
		}
	}
}

func collectYAMLFields(t reflect.Type, out map[string]reflect.StructField) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, opts, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if field.Anonymous && (name == "" || strings.Contains(opts, "inline")) {
			collectYAMLFields(field.Type, out)
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if name != "-" {
			out[name] = field
		}
	}
}

var unmarshalerType = reflect.TypeOf((*yaml.Unmarshaler)(nil)).Elem()

func hasCustomUnmarshal(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(unmarshalerType)
}

func decodeMessage(err error) string {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, "yaml: ")
	return strings.ReplaceAll(msg, "\n", "; ")
}

// ============================================================================
// Validator error translation
// ============================================================================

func reportValidation(op Operation, prefix string, rep *reporter) {
	err := opsValidate.Struct(op)
	if err == nil {
		return
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		rep.add(prefix, err.Error())
		return
	}
	for _, fe := range fieldErrors {
		rep.add(prefix+"."+fieldPath(fe), validationMessage(fe))
	}
}

// fieldPath turns a validator namespace into a yaml-ish path, dropping
// the record type name and any embedded struct type segments.
func fieldPath(fe validator.FieldError) string {
	segments := strings.Split(fe.Namespace(), ".")
	var kept []string
	for _, segment := range segments[1:] {
		if segment == "" {
			continue
		}
		first := []rune(segment)[0]
		if unicode.IsUpper(first) {
			continue
		}
		kept = append(kept, segment)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "refid":
		return fmt.Sprintf("contains restricted character (avoid %s)", refexpr.RestrictedIDChars)
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be >= " + fe.Param()
	case "required":
		return "field required"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
