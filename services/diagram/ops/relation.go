// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ops

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
	"github.com/AleutianAI/ilograph-cli/services/diagram/index"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// ContextToken is expanded with each target context name when templated
// relation operations fan out.
const ContextToken = "{context}"

// Template holds relation field values for templated add/match/edit
// operations. Values are strings or bools.
type Template map[string]any

// Target selects the perspectives (and optionally contexts) a templated
// relation operation fans out over.
type Target struct {
	// AllPerspectives applies the operation to every perspective.
	AllPerspectives bool
	Perspectives    []string
	// Contexts, when non-nil, renders one payload per context name.
	Contexts []string
}

var relationEditableFields = map[string]bool{
	"from":           true,
	"to":             true,
	"via":            true,
	"label":          true,
	"description":    true,
	"arrowDirection": true,
	"color":          true,
	"secondary":      true,
}

// RelationFields carries optional relation field values. Empty strings
// mean "not provided"; Secondary is tri-state.
type RelationFields struct {
	From           string
	To             string
	Via            string
	Label          string
	Description    string
	ArrowDirection string
	Color          string
	Secondary      *bool
}

// ============================================================================
// Relation operations
// ============================================================================

// AddRelation appends a relation to a perspective. At least one endpoint
// (from or to) is required.
func AddRelation(document *yaml.Node, perspectiveID string, fields RelationFields) (bool, error) {
	if fields.From == "" && fields.To == "" {
		return false, docerr.New("relation requires from or to (set --from and/or --to)")
	}

	perspective, err := index.SinglePerspective(document, perspectiveID)
	if err != nil {
		return false, err
	}
	relations := ensureSeq(perspective.Node, "relations")

	relation := node.NewMapping()
	setIfPresent := func(key, value string) {
		if value != "" {
			node.MapSetString(relation, key, value)
		}
	}
	setIfPresent("from", fields.From)
	setIfPresent("to", fields.To)
	setIfPresent("via", fields.Via)
	setIfPresent("label", fields.Label)
	setIfPresent("description", fields.Description)
	setIfPresent("arrowDirection", fields.ArrowDirection)
	setIfPresent("color", fields.Color)
	if fields.Secondary != nil {
		node.MapSetNode(relation, "secondary", node.NewBool(*fields.Secondary))
	}

	node.SeqInsert(relations, len(relations.Content), relation)
	return true, nil
}

// AddRelationMany renders the template once per target context (deduped)
// and appends the results to every target perspective. Returns how many
// relations were added.
func AddRelationMany(document *yaml.Node, target Target, template Template) (int, error) {
	perspectiveIDs, err := resolvePerspectives(document, target)
	if err != nil {
		return 0, err
	}
	contexts, err := resolveContexts(document, target.Contexts)
	if err != nil {
		return 0, err
	}
	payloads, err := expandPayloadTemplates(template, contexts)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, perspectiveID := range perspectiveIDs {
		for _, payload := range payloads {
			fields := RelationFields{
				From:           templateString(payload, "from"),
				To:             templateString(payload, "to"),
				Via:            templateString(payload, "via"),
				Label:          templateString(payload, "label"),
				Description:    templateString(payload, "description"),
				ArrowDirection: templateString(payload, "arrowDirection"),
				Color:          templateString(payload, "color"),
				Secondary:      templateBool(payload, "secondary"),
			}
			if _, err := AddRelation(document, perspectiveID, fields); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

// RemoveRelation removes a relation by 1-based index.
func RemoveRelation(document *yaml.Node, perspectiveID string, index1 int) (bool, error) {
	perspective, err := index.SinglePerspective(document, perspectiveID)
	if err != nil {
		return false, err
	}
	relations := node.Deref(node.MapGet(perspective.Node, "relations"))
	if relations == nil || !node.IsSequence(relations) {
		return false, docerr.Newf("perspective has no relations: %s (nothing to remove)", perspectiveID)
	}

	idx := index1 - 1
	if idx < 0 || idx >= len(relations.Content) {
		return false, docerr.Newf("relation index out of range: %d (valid range: 1..%d)",
			index1, len(relations.Content))
	}
	node.SeqRemove(relations, idx)
	return true, nil
}

// RemoveRelationsMatch deletes every relation matching any rendered
// template across the target perspectives. requireMatch turns zero
// matches into an error.
func RemoveRelationsMatch(document *yaml.Node, target Target, match Template, requireMatch bool) (int, error) {
	perspectiveIDs, err := resolvePerspectives(document, target)
	if err != nil {
		return 0, err
	}
	contexts, err := resolveContexts(document, target.Contexts)
	if err != nil {
		return 0, err
	}
	payloads, err := expandPayloadTemplates(match, contexts)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, perspectiveID := range perspectiveIDs {
		relations := relationsSeq(document, perspectiveID)
		if relations == nil {
			continue
		}

		var toDelete []int
		for i, relation := range relations.Content {
			relation = node.Deref(relation)
			if relation == nil || !node.IsMapping(relation) {
				continue
			}
			for _, payload := range payloads {
				if relationMatches(relation, payload) {
					toDelete = append(toDelete, i)
					break
				}
			}
		}

		for i := len(toDelete) - 1; i >= 0; i-- {
			node.SeqRemove(relations, toDelete[i])
			removed++
		}
	}

	if requireMatch && removed == 0 {
		return 0, docerr.New("no relations matched for relation.remove-match " +
			"(adjust match/target or set requireMatch=false)")
	}
	return removed, nil
}

// RelationEdit describes an index-targeted relation edit. Clear flags win
// over set values for the same field.
type RelationEdit struct {
	Fields           RelationFields
	ClearFrom        bool
	ClearTo          bool
	ClearVia         bool
	ClearLabel       bool
	ClearDescription bool
}

// EditRelation updates a relation by 1-based index. The result must still
// have at least one endpoint. Returns false when nothing changed.
func EditRelation(document *yaml.Node, perspectiveID string, index1 int, edit RelationEdit) (bool, error) {
	perspective, err := index.SinglePerspective(document, perspectiveID)
	if err != nil {
		return false, err
	}
	relations := node.Deref(node.MapGet(perspective.Node, "relations"))
	if relations == nil || !node.IsSequence(relations) {
		return false, docerr.Newf("perspective has no relations: %s (nothing to edit)", perspectiveID)
	}

	idx := index1 - 1
	if idx < 0 || idx >= len(relations.Content) {
		return false, docerr.Newf("relation index out of range: %d (valid range: 1..%d)",
			index1, len(relations.Content))
	}
	relation := node.Deref(relations.Content[idx])
	if relation == nil || !node.IsMapping(relation) {
		return false, docerr.Newf("relation at index %d is not a mapping/object", index1)
	}

	before := fingerprint(relation)

	applyFieldEdit(relation, "from", edit.Fields.From, edit.ClearFrom)
	applyFieldEdit(relation, "to", edit.Fields.To, edit.ClearTo)
	applyFieldEdit(relation, "via", edit.Fields.Via, edit.ClearVia)
	applyFieldEdit(relation, "label", edit.Fields.Label, edit.ClearLabel)
	applyFieldEdit(relation, "description", edit.Fields.Description, edit.ClearDescription)

	if edit.Fields.ArrowDirection != "" {
		node.MapSetString(relation, "arrowDirection", edit.Fields.ArrowDirection)
	}
	if edit.Fields.Color != "" {
		node.MapSetString(relation, "color", edit.Fields.Color)
	}
	if edit.Fields.Secondary != nil {
		node.MapSetNode(relation, "secondary", node.NewBool(*edit.Fields.Secondary))
	}

	if err := validateRelationIntegrity(relation); err != nil {
		return false, err
	}
	return before != fingerprint(relation), nil
}

// EditRelationsMatch patches every relation matching the rendered match
// template: clears listed fields, then applies set values. Returns how
// many relations actually changed.
func EditRelationsMatch(
	document *yaml.Node,
	target Target,
	match Template,
	set Template,
	clearFields []string,
	requireMatch bool,
) (int, error) {
	if err := validateClearFields(clearFields); err != nil {
		return 0, err
	}

	perspectiveIDs, err := resolvePerspectives(document, target)
	if err != nil {
		return 0, err
	}
	contexts, err := resolveContexts(document, target.Contexts)
	if err != nil {
		return 0, err
	}
	specs, err := expandEditSpecs(match, set, contexts)
	if err != nil {
		return 0, err
	}

	edited := 0
	for _, perspectiveID := range perspectiveIDs {
		relations := relationsSeq(document, perspectiveID)
		if relations == nil {
			continue
		}
		for _, relation := range relations.Content {
			relation = node.Deref(relation)
			if relation == nil || !node.IsMapping(relation) {
				continue
			}
			for _, spec := range specs {
				if !relationMatches(relation, spec.match) {
					continue
				}
				changed, err := applyRelationPatch(relation, spec.set, clearFields)
				if err != nil {
					return edited, err
				}
				if changed {
					edited++
				}
				break
			}
		}
	}

	if requireMatch && edited == 0 {
		return 0, docerr.New("no relations matched for relation.edit-match " +
			"(adjust match/target or set requireMatch=false)")
	}
	return edited, nil
}

// ============================================================================
// Internals
// ============================================================================

type editSpec struct {
	match Template
	set   Template
}

func relationsSeq(document *yaml.Node, perspectiveID string) *yaml.Node {
	perspective, err := index.SinglePerspective(document, perspectiveID)
	if err != nil {
		return nil
	}
	relations := node.Deref(node.MapGet(perspective.Node, "relations"))
	if relations == nil || !node.IsSequence(relations) {
		return nil
	}
	return relations
}

func relationMatches(relation *yaml.Node, expected Template) bool {
	for key, expectedValue := range expected {
		if key == "secondary" {
			actual, ok := node.BoolValue(relation, "secondary")
			if !ok {
				actual = false
			}
			expectedBool, isBool := expectedValue.(bool)
			if !isBool || expectedBool != actual {
				return false
			}
			continue
		}
		if !scalarEquals(node.MapGet(relation, key), expectedValue) {
			return false
		}
	}
	return true
}

func applyRelationPatch(relation *yaml.Node, set Template, clearFields []string) (bool, error) {
	before := fingerprint(relation)

	for _, field := range clearFields {
		node.MapDelete(relation, field)
	}
	for _, key := range templateKeys(set) {
		setTemplateValue(relation, key, set[key])
	}

	if err := validateRelationIntegrity(relation); err != nil {
		return false, err
	}
	return before != fingerprint(relation), nil
}

func validateRelationIntegrity(relation *yaml.Node) error {
	if !node.MapHas(relation, "from") && !node.MapHas(relation, "to") {
		return docerr.New("relation must define from or to")
	}
	return nil
}

func applyFieldEdit(relation *yaml.Node, key, value string, clear bool) {
	if clear {
		node.MapDelete(relation, key)
		return
	}
	if value != "" {
		node.MapSetString(relation, key, value)
	}
}

func validateClearFields(clearFields []string) error {
	var invalid []string
	for _, field := range clearFields {
		if !relationEditableFields[field] {
			invalid = append(invalid, field)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	allowed := make([]string, 0, len(relationEditableFields))
	for field := range relationEditableFields {
		allowed = append(allowed, field)
	}
	sort.Strings(allowed)
	return docerr.Newf("invalid clear field(s): %s (allowed: %s)",
		strings.Join(invalid, ", "), strings.Join(allowed, ", "))
}

func resolvePerspectives(document *yaml.Node, target Target) ([]string, error) {
	available := index.PerspectiveLocations(document)
	if len(available) == 0 {
		return nil, docerr.New("diagram has no perspectives (cannot apply relation operation)")
	}

	if target.AllPerspectives {
		ids := make([]string, 0, len(available))
		for _, location := range available {
			ids = append(ids, location.Identifier)
		}
		return ids, nil
	}

	var selected []string
	seen := make(map[string]bool)
	for _, perspectiveID := range target.Perspectives {
		if seen[perspectiveID] {
			return nil, docerr.Newf("target.perspectives has duplicate: %s", perspectiveID)
		}
		if _, err := index.SinglePerspective(document, perspectiveID); err != nil {
			return nil, err
		}
		seen[perspectiveID] = true
		selected = append(selected, perspectiveID)
	}
	return selected, nil
}

// resolveContexts validates target context names against contexts[].name.
// A nil target means "no context fan-out".
func resolveContexts(document *yaml.Node, target []string) ([]string, error) {
	if target == nil {
		return nil, nil
	}

	available := availableContextNames(document)
	var missing []string
	for _, context := range target {
		if !available[context] {
			missing = append(missing, context)
		}
	}
	if len(missing) > 0 {
		return nil, docerr.Newf("unknown context(s): %s (expected values from contexts[].name)",
			strings.Join(missing, ", "))
	}
	return target, nil
}

func availableContextNames(document *yaml.Node) map[string]bool {
	names := make(map[string]bool)
	contexts := node.Deref(node.MapGet(document, "contexts"))
	if contexts == nil || !node.IsSequence(contexts) {
		return names
	}
	for _, context := range contexts.Content {
		context = node.Deref(context)
		if context == nil || !node.IsMapping(context) {
			continue
		}
		if name := node.StringValue(context, "name"); name != "" {
			names[name] = true
		}
	}
	return names
}

func expandPayloadTemplates(template Template, contexts []string) ([]Template, error) {
	if contexts == nil {
		rendered, err := renderTemplate(template, "", false)
		if err != nil {
			return nil, err
		}
		return []Template{rendered}, nil
	}

	var payloads []Template
	seen := make(map[string]bool)
	for _, context := range contexts {
		rendered, err := renderTemplate(template, context, true)
		if err != nil {
			return nil, err
		}
		signature := templateSignature(rendered)
		if seen[signature] {
			continue
		}
		seen[signature] = true
		payloads = append(payloads, rendered)
	}
	return payloads, nil
}

func expandEditSpecs(match, set Template, contexts []string) ([]editSpec, error) {
	if contexts == nil {
		renderedMatch, err := renderTemplate(match, "", false)
		if err != nil {
			return nil, err
		}
		renderedSet, err := renderTemplate(set, "", false)
		if err != nil {
			return nil, err
		}
		return []editSpec{{match: renderedMatch, set: renderedSet}}, nil
	}

	var specs []editSpec
	seen := make(map[string]bool)
	for _, context := range contexts {
		renderedMatch, err := renderTemplate(match, context, true)
		if err != nil {
			return nil, err
		}
		renderedSet, err := renderTemplate(set, context, true)
		if err != nil {
			return nil, err
		}
		signature := templateSignature(renderedMatch) + "|" + templateSignature(renderedSet)
		if seen[signature] {
			continue
		}
		seen[signature] = true
		specs = append(specs, editSpec{match: renderedMatch, set: renderedSet})
	}
	return specs, nil
}

func renderTemplate(payload Template, context string, hasContext bool) (Template, error) {
	if payload == nil {
		return nil, nil
	}

	rendered := make(Template, len(payload))
	for key, value := range payload {
		text, isString := value.(string)
		if isString && strings.Contains(text, ContextToken) {
			if !hasContext {
				return nil, docerr.New("template contains '{context}' but target.contexts is not set " +
					"(set target.contexts or remove template token)")
			}
			rendered[key] = strings.ReplaceAll(text, ContextToken, context)
			continue
		}
		rendered[key] = value
	}
	return rendered, nil
}

func templateSignature(template Template) string {
	var parts []string
	for _, key := range templateKeys(template) {
		switch v := template[key].(type) {
		case string:
			parts = append(parts, key+"=s:"+v)
		case bool:
			if v {
				parts = append(parts, key+"=b:true")
			} else {
				parts = append(parts, key+"=b:false")
			}
		}
	}
	return strings.Join(parts, ",")
}

func templateKeys(template Template) []string {
	keys := make([]string, 0, len(template))
	for key := range template {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func templateString(template Template, key string) string {
	if v, ok := template[key].(string); ok {
		return v
	}
	return ""
}

func templateBool(template Template, key string) *bool {
	if v, ok := template[key].(bool); ok {
		return &v
	}
	return nil
}
