// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package batch

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/ops"
	"github.com/AleutianAI/ilograph-cli/services/diagram/refexpr"
)

// ============================================================================
// Shared validator instance
// ============================================================================

// opsValidate is the validator for ops-file records. Initialized in
// init() with the custom resource-id check.
var opsValidate *validator.Validate

func init() {
	opsValidate = validator.New()
	opsValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if tag == "" || tag == "-" {
			return field.Name
		}
		return tag
	})
	_ = opsValidate.RegisterValidation("refid", validateResourceID)
}

// validateResourceID rejects identifiers carrying characters the
// reference grammar reserves.
func validateResourceID(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), refexpr.RestrictedIDChars)
}

// ============================================================================
// Schema issue collection
// ============================================================================

// reporter accumulates schema issues as "path: message" detail lines.
type reporter struct {
	issues []string
}

func (r *reporter) add(path, message string) {
	r.issues = append(r.issues, path+": "+message)
}

func (r *reporter) addf(path, format string, args ...any) {
	r.add(path, fmt.Sprintf(format, args...))
}

// requireString trims *field in place and reports when the result is
// empty. Returns the trimmed value.
func requireString(field *string, path string, rep *reporter) string {
	*field = strings.TrimSpace(*field)
	if *field == "" {
		rep.add(path, "must not be empty")
	}
	return *field
}

// trimOptional trims an optional string in place; a present-but-blank
// value is a schema issue, matching how flag parsing treats it.
func trimOptional(field *string, path string, rep *reporter) {
	if field == nil {
		return
	}
	*field = strings.TrimSpace(*field)
	if *field == "" {
		rep.add(path, "must not be empty")
	}
}

func requireUniqueList(values []string, path string, rep *reporter) []string {
	seen := make(map[string]bool, len(values))
	cleaned := make([]string, 0, len(values))
	for _, item := range values {
		item = strings.TrimSpace(item)
		if item == "" {
			rep.add(path, "must not be empty")
			continue
		}
		if seen[item] {
			rep.add(path, "has duplicates")
			continue
		}
		seen[item] = true
		cleaned = append(cleaned, item)
	}
	if len(cleaned) == 0 {
		rep.add(path, "must not be empty")
	}
	return cleaned
}

func strOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// ============================================================================
// Relation target and payload
// ============================================================================

// PerspectiveSelector is either the wildcard "*" or an explicit name
// list. The zero value (key absent) selects every perspective.
type PerspectiveSelector struct {
	All   bool
	Names []string
	set   bool
}

func (s *PerspectiveSelector) UnmarshalYAML(value *yaml.Node) error {
	s.set = true
	if value.Kind == yaml.ScalarNode {
		if value.Value == "*" {
			s.All = true
			return nil
		}
		return fmt.Errorf("must be \"*\" or a list of perspective names")
	}
	return value.Decode(&s.Names)
}

// TargetSpec selects the perspectives and optional contexts a bulk
// relation operation fans out over.
type TargetSpec struct {
	Perspectives PerspectiveSelector `yaml:"perspectives"`
	Contexts     []string            `yaml:"contexts"`
}

func (t *TargetSpec) normalize(prefix string, rep *reporter) {
	if !t.Perspectives.set {
		t.Perspectives.All = true
	}
	if !t.Perspectives.All {
		t.Perspectives.Names = requireUniqueList(
			t.Perspectives.Names, prefix+".perspectives", rep)
	}
	if t.Contexts != nil {
		t.Contexts = requireUniqueList(t.Contexts, prefix+".contexts", rep)
	}
}

func (t *TargetSpec) toTarget() ops.Target {
	return ops.Target{
		AllPerspectives: t.Perspectives.All,
		Perspectives:    t.Perspectives.Names,
		Contexts:        t.Contexts,
	}
}

// RelationPayload is the shared field set for relation templates and
// matchers. Nil means the field is not part of the payload.
type RelationPayload struct {
	From           *string `yaml:"from"`
	To             *string `yaml:"to"`
	Via            *string `yaml:"via"`
	Label          *string `yaml:"label"`
	Description    *string `yaml:"description"`
	ArrowDirection *string `yaml:"arrowDirection" validate:"omitempty,oneof=forward backward bidirectional"`
	Color          *string `yaml:"color"`
	Secondary      *bool   `yaml:"secondary"`
}

func (p *RelationPayload) normalize(prefix string, rep *reporter) {
	trimOptional(p.From, prefix+".from", rep)
	trimOptional(p.To, prefix+".to", rep)
	trimOptional(p.Via, prefix+".via", rep)
	trimOptional(p.Label, prefix+".label", rep)
	trimOptional(p.Description, prefix+".description", rep)
	trimOptional(p.Color, prefix+".color", rep)
}

// template renders the payload as relation keys, skipping unset fields.
func (p *RelationPayload) template() ops.Template {
	payload := ops.Template{}
	if p.From != nil {
		payload["from"] = *p.From
	}
	if p.To != nil {
		payload["to"] = *p.To
	}
	if p.Via != nil {
		payload["via"] = *p.Via
	}
	if p.Label != nil {
		payload["label"] = *p.Label
	}
	if p.Description != nil {
		payload["description"] = *p.Description
	}
	if p.ArrowDirection != nil {
		payload["arrowDirection"] = *p.ArrowDirection
	}
	if p.Color != nil {
		payload["color"] = *p.Color
	}
	if p.Secondary != nil {
		payload["secondary"] = *p.Secondary
	}
	return payload
}

func (p *RelationPayload) fields() ops.RelationFields {
	return ops.RelationFields{
		From:           strOrEmpty(p.From),
		To:             strOrEmpty(p.To),
		Via:            strOrEmpty(p.Via),
		Label:          strOrEmpty(p.Label),
		Description:    strOrEmpty(p.Description),
		ArrowDirection: strOrEmpty(p.ArrowDirection),
		Color:          strOrEmpty(p.Color),
		Secondary:      p.Secondary,
	}
}

// ============================================================================
// Operation records
// ============================================================================

// Operation is one validated ops-file entry, ready to run against a
// document.
type Operation interface {
	// Kind returns the op discriminator, e.g. "resource.create".
	Kind() string

	// Apply runs the operation and reports whether the document
	// changed.
	Apply(document *yaml.Node) (bool, error)

	// normalize trims fields, applies defaults, and reports schema
	// issues under the given path prefix (e.g. "ops[2]").
	normalize(prefix string, rep *reporter)
}

type ResourceCreateOp struct {
	Op       string  `yaml:"op"`
	ID       string  `yaml:"id" validate:"refid"`
	Name     string  `yaml:"name"`
	Parent   string  `yaml:"parent"`
	Subtitle *string `yaml:"subtitle"`
}

func (o *ResourceCreateOp) Kind() string { return "resource.create" }

func (o *ResourceCreateOp) normalize(prefix string, rep *reporter) {
	requireString(&o.ID, prefix+".id", rep)
	requireString(&o.Name, prefix+".name", rep)
	if strings.TrimSpace(o.Parent) == "" {
		o.Parent = ops.NoneToken
	}
	o.Parent = strings.TrimSpace(o.Parent)
	blankToNil(&o.Subtitle)
}

func (o *ResourceCreateOp) Apply(document *yaml.Node) (bool, error) {
	return ops.CreateResource(document, o.ID, o.Name, o.Parent, strOrEmpty(o.Subtitle))
}

type ResourceDeleteOp struct {
	Op            string `yaml:"op"`
	ID            string `yaml:"id"`
	DeleteSubtree bool   `yaml:"deleteSubtree"`
}

func (o *ResourceDeleteOp) Kind() string { return "resource.delete" }

func (o *ResourceDeleteOp) normalize(prefix string, rep *reporter) {
	requireString(&o.ID, prefix+".id", rep)
}

func (o *ResourceDeleteOp) Apply(document *yaml.Node) (bool, error) {
	return ops.DeleteResource(document, o.ID, o.DeleteSubtree)
}

type ResourceCloneOp struct {
	Op           string  `yaml:"op"`
	ID           string  `yaml:"id"`
	NewID        string  `yaml:"newId" validate:"refid"`
	NewParent    *string `yaml:"newParent"`
	NewName      *string `yaml:"newName"`
	WithChildren bool    `yaml:"withChildren"`
}

func (o *ResourceCloneOp) Kind() string { return "resource.clone" }

func (o *ResourceCloneOp) normalize(prefix string, rep *reporter) {
	requireString(&o.ID, prefix+".id", rep)
	requireString(&o.NewID, prefix+".newId", rep)
	blankToNil(&o.NewParent)
	blankToNil(&o.NewName)
	if o.ID != "" && o.ID == o.NewID {
		rep.add(prefix+".newId", "id/new-id are identical")
	}
}

func (o *ResourceCloneOp) Apply(document *yaml.Node) (bool, error) {
	return ops.CloneResource(document, o.ID, ops.CloneResourceOptions{
		NewID:        o.NewID,
		NewParentID:  strOrEmpty(o.NewParent),
		HasNewParent: o.NewParent != nil,
		NewName:      strOrEmpty(o.NewName),
		WithChildren: o.WithChildren,
	})
}

type RenameResourceOp struct {
	Op   string `yaml:"op"`
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func (o *RenameResourceOp) Kind() string { return "rename.resource" }

func (o *RenameResourceOp) normalize(prefix string, rep *reporter) {
	requireString(&o.ID, prefix+".id", rep)
	requireString(&o.Name, prefix+".name", rep)
}

func (o *RenameResourceOp) Apply(document *yaml.Node) (bool, error) {
	return ops.RenameResource(document, o.ID, o.Name)
}

type RenameResourceIDOp struct {
	Op   string `yaml:"op"`
	From string `yaml:"from"`
	To   string `yaml:"to" validate:"refid"`
}

func (o *RenameResourceIDOp) Kind() string { return "rename.resource-id" }

func (o *RenameResourceIDOp) normalize(prefix string, rep *reporter) {
	requireString(&o.From, prefix+".from", rep)
	requireString(&o.To, prefix+".to", rep)
	if o.From != "" && o.From == o.To {
		rep.add(prefix+".to", "from/to must be different")
	}
}

func (o *RenameResourceIDOp) Apply(document *yaml.Node) (bool, error) {
	return ops.RenameResourceID(document, o.From, o.To)
}

type MoveResourceOp struct {
	Op                     string `yaml:"op"`
	ID                     string `yaml:"id"`
	NewParent              string `yaml:"newParent"`
	InheritStyleFromParent bool   `yaml:"inheritStyleFromParent"`
}

func (o *MoveResourceOp) Kind() string { return "move.resource" }

func (o *MoveResourceOp) normalize(prefix string, rep *reporter) {
	requireString(&o.ID, prefix+".id", rep)
	requireString(&o.NewParent, prefix+".newParent", rep)
}

func (o *MoveResourceOp) Apply(document *yaml.Node) (bool, error) {
	return ops.MoveResource(document, o.ID, o.NewParent, o.InheritStyleFromParent)
}

type GroupCreateOp struct {
	Op       string  `yaml:"op"`
	ID       string  `yaml:"id" validate:"refid"`
	Name     string  `yaml:"name"`
	Parent   string  `yaml:"parent"`
	Subtitle *string `yaml:"subtitle"`
}

func (o *GroupCreateOp) Kind() string { return "group.create" }

func (o *GroupCreateOp) normalize(prefix string, rep *reporter) {
	requireString(&o.ID, prefix+".id", rep)
	requireString(&o.Name, prefix+".name", rep)
	requireString(&o.Parent, prefix+".parent", rep)
	blankToNil(&o.Subtitle)
}

func (o *GroupCreateOp) Apply(document *yaml.Node) (bool, error) {
	return ops.CreateGroup(document, o.ID, o.Name, o.Parent, strOrEmpty(o.Subtitle))
}

type MoveManyOp struct {
	Op        string   `yaml:"op"`
	IDs       []string `yaml:"ids"`
	NewParent string   `yaml:"newParent"`
}

func (o *MoveManyOp) Kind() string { return "group.move-many" }

func (o *MoveManyOp) normalize(prefix string, rep *reporter) {
	o.IDs = requireUniqueList(o.IDs, prefix+".ids", rep)
	requireString(&o.NewParent, prefix+".newParent", rep)
}

func (o *MoveManyOp) Apply(document *yaml.Node) (bool, error) {
	return ops.MoveMany(document, o.IDs, o.NewParent)
}

type RelationAddOp struct {
	Op              string `yaml:"op"`
	Perspective     string `yaml:"perspective"`
	RelationPayload `yaml:",inline"`
}

func (o *RelationAddOp) Kind() string { return "relation.add" }

func (o *RelationAddOp) normalize(prefix string, rep *reporter) {
	requireString(&o.Perspective, prefix+".perspective", rep)
	o.RelationPayload.normalize(prefix, rep)
	if o.From == nil && o.To == nil {
		rep.add(prefix, "relation must define from or to (set from and/or to)")
	}
}

func (o *RelationAddOp) Apply(document *yaml.Node) (bool, error) {
	return ops.AddRelation(document, o.Perspective, o.fields())
}

type RelationAddManyOp struct {
	Op              string     `yaml:"op"`
	Target          TargetSpec `yaml:"target"`
	RelationPayload `yaml:",inline"`
}

func (o *RelationAddManyOp) Kind() string { return "relation.add-many" }

func (o *RelationAddManyOp) normalize(prefix string, rep *reporter) {
	o.Target.normalize(prefix+".target", rep)
	o.RelationPayload.normalize(prefix, rep)
	if o.From == nil && o.To == nil {
		rep.add(prefix, "relation must define from or to (set from and/or to)")
	}
}

func (o *RelationAddManyOp) Apply(document *yaml.Node) (bool, error) {
	added, err := ops.AddRelationMany(document, o.Target.toTarget(), o.template())
	return added > 0, err
}

type RelationRemoveOp struct {
	Op          string `yaml:"op"`
	Perspective string `yaml:"perspective"`
	Index       int    `yaml:"index" validate:"gte=1"`
}

func (o *RelationRemoveOp) Kind() string { return "relation.remove" }

func (o *RelationRemoveOp) normalize(prefix string, rep *reporter) {
	requireString(&o.Perspective, prefix+".perspective", rep)
}

func (o *RelationRemoveOp) Apply(document *yaml.Node) (bool, error) {
	return ops.RemoveRelation(document, o.Perspective, o.Index)
}

type RelationRemoveMatchOp struct {
	Op           string          `yaml:"op"`
	Target       TargetSpec      `yaml:"target"`
	Match        RelationPayload `yaml:"match"`
	RequireMatch *bool           `yaml:"requireMatch"`
}

func (o *RelationRemoveMatchOp) Kind() string { return "relation.remove-match" }

func (o *RelationRemoveMatchOp) normalize(prefix string, rep *reporter) {
	o.Target.normalize(prefix+".target", rep)
	o.Match.normalize(prefix+".match", rep)
	if len(o.Match.template()) == 0 {
		rep.add(prefix+".match", "match must define at least one field to compare")
	}
}

func (o *RelationRemoveMatchOp) Apply(document *yaml.Node) (bool, error) {
	removed, err := ops.RemoveRelationsMatch(
		document, o.Target.toTarget(), o.Match.template(), boolOrDefault(o.RequireMatch, true))
	return removed > 0, err
}

type RelationEditOp struct {
	Op               string `yaml:"op"`
	Perspective      string `yaml:"perspective"`
	Index            int    `yaml:"index" validate:"gte=1"`
	RelationPayload  `yaml:",inline"`
	ClearFrom        bool `yaml:"clearFrom"`
	ClearTo          bool `yaml:"clearTo"`
	ClearVia         bool `yaml:"clearVia"`
	ClearLabel       bool `yaml:"clearLabel"`
	ClearDescription bool `yaml:"clearDescription"`
}

func (o *RelationEditOp) Kind() string { return "relation.edit" }

func (o *RelationEditOp) normalize(prefix string, rep *reporter) {
	requireString(&o.Perspective, prefix+".perspective", rep)
	o.RelationPayload.normalize(prefix, rep)
}

func (o *RelationEditOp) Apply(document *yaml.Node) (bool, error) {
	return ops.EditRelation(document, o.Perspective, o.Index, ops.RelationEdit{
		Fields:           o.fields(),
		ClearFrom:        o.ClearFrom,
		ClearTo:          o.ClearTo,
		ClearVia:         o.ClearVia,
		ClearLabel:       o.ClearLabel,
		ClearDescription: o.ClearDescription,
	})
}

type RelationEditMatchOp struct {
	Op           string           `yaml:"op"`
	Target       TargetSpec       `yaml:"target"`
	Match        RelationPayload  `yaml:"match"`
	Set          *RelationPayload `yaml:"set"`
	Clear        []string         `yaml:"clear" validate:"dive,oneof=from to via label description arrowDirection color secondary"`
	RequireMatch *bool            `yaml:"requireMatch"`
}

func (o *RelationEditMatchOp) Kind() string { return "relation.edit-match" }

func (o *RelationEditMatchOp) normalize(prefix string, rep *reporter) {
	o.Target.normalize(prefix+".target", rep)
	o.Match.normalize(prefix+".match", rep)
	if len(o.Match.template()) == 0 {
		rep.add(prefix+".match", "match must define at least one field to compare")
	}
	if o.Set != nil {
		o.Set.normalize(prefix+".set", rep)
		if len(o.Set.template()) == 0 {
			rep.add(prefix+".set", "set must define at least one field to update")
		}
	}
	if o.Set == nil && len(o.Clear) == 0 {
		rep.add(prefix, "edit-match requires `set` or non-empty `clear` "+
			"(provide fields to update or clear)")
	}
	seen := make(map[string]bool, len(o.Clear))
	for _, field := range o.Clear {
		if seen[field] {
			rep.add(prefix+".clear", "has duplicates (each field can appear once)")
			break
		}
		seen[field] = true
	}
}

func (o *RelationEditMatchOp) Apply(document *yaml.Node) (bool, error) {
	var set ops.Template
	if o.Set != nil {
		set = o.Set.template()
	}
	edited, err := ops.EditRelationsMatch(
		document, o.Target.toTarget(), o.Match.template(), set,
		o.Clear, boolOrDefault(o.RequireMatch, true))
	return edited > 0, err
}

// FmtStableOp rewrites the file with no semantic change, exercising the
// load/dump pipeline only.
type FmtStableOp struct {
	Op string `yaml:"op"`
}

func (o *FmtStableOp) Kind() string { return "fmt.stable" }

func (o *FmtStableOp) normalize(string, *reporter) {}

func (o *FmtStableOp) Apply(*yaml.Node) (bool, error) { return false, nil }

func blankToNil(field **string) {
	if *field == nil {
		return
	}
	trimmed := strings.TrimSpace(**field)
	if trimmed == "" {
		*field = nil
		return
	}
	**field = trimmed
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
