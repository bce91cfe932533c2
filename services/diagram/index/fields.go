// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package index

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// WalkthroughReferenceKeys is the practical subset of walkthrough
// slide keys whose string values are reference expressions.
var WalkthroughReferenceKeys = map[string]bool{
	"select":    true,
	"expand":    true,
	"hide":      true,
	"focus":     true,
	"highlight": true,
	"include":   true,
	"exclude":   true,
	"root":      true,
	"center":    true,
	"zoomTo":    true,
}

// relationReferenceKeys, overrideReferenceKeys, stepReferenceKeys: the
// declarative registry of reference-bearing keys per section.
var (
	relationReferenceKeys = []string{"from", "to", "via"}
	overrideReferenceKeys = []string{"resourceId", "parentId"}
	stepReferenceKeys     = []string{"to", "toAndBack", "toAsync", "restartAt"}
)

// ReferenceField is one mutable reference-bearing field: a (container,
// key) pair plus where it lives.
//
// # Fields
//
//   - Container: The mapping node holding the field.
//   - Key: The field's key within Container.
//   - Path: Dotted/indexed document path of the field.
//   - Perspective: Identifier of the owning perspective, "" for
//     resource-level fields.
//   - Section: Registry section name ("relations", "aliases",
//     "overrides", "walkthrough", "sequence", "resource.instanceOf").
type ReferenceField struct {
	Container   *yaml.Node
	Key         string
	Path        string
	Perspective string
	Section     string
}

// Value returns the field's current string value, "" when unset or
// non-scalar.
func (f ReferenceField) Value() string {
	return node.StringValue(f.Container, f.Key)
}

// SetValue overwrites the field's value with a plain string scalar.
func (f ReferenceField) SetValue(value string) {
	node.MapSetString(f.Container, f.Key, value)
}

// ReferenceFields collects every reference-bearing string field in
// the document. instanceOf names an imported type rather than a
// resource, so callers that rewrite or validate resource references
// pass includeInstanceOf=false.
func ReferenceFields(document *yaml.Node, includeInstanceOf bool) []ReferenceField {
	var out []ReferenceField

	resources := node.Deref(node.MapGet(document, "resources"))
	if resources != nil && resources.Kind == yaml.SequenceNode {
		collectResourceFields(resources, "resources", includeInstanceOf, &out)
	}

	perspectives := node.Deref(node.MapGet(document, "perspectives"))
	if perspectives != nil && perspectives.Kind == yaml.SequenceNode {
		for i, raw := range perspectives.Content {
			p := node.Deref(raw)
			if p == nil || p.Kind != yaml.MappingNode {
				continue
			}
			base := "perspectives[" + strconv.Itoa(i) + "]"
			collectPerspectiveFields(p, PerspectiveIdentifier(p), base, &out)
		}
	}
	return out
}

func collectResourceFields(resources *yaml.Node, basePath string, includeInstanceOf bool, out *[]ReferenceField) {
	for i, raw := range resources.Content {
		res := node.Deref(raw)
		if res == nil || res.Kind != yaml.MappingNode {
			continue
		}
		path := basePath + "[" + strconv.Itoa(i) + "]"
		if includeInstanceOf && node.IsScalar(node.MapGet(res, "instanceOf")) {
			*out = append(*out, ReferenceField{
				Container: res,
				Key:       "instanceOf",
				Path:      path + ".instanceOf",
				Section:   "resource.instanceOf",
			})
		}
		children := node.Deref(node.MapGet(res, "children"))
		if children != nil && children.Kind == yaml.SequenceNode {
			collectResourceFields(children, path+".children", includeInstanceOf, out)
		}
	}
}

func collectPerspectiveFields(perspective *yaml.Node, identifier, basePath string, out *[]ReferenceField) {
	collectListFields(perspective, "relations", relationReferenceKeys, identifier, basePath, "relations", out)
	collectListFields(perspective, "overrides", overrideReferenceKeys, identifier, basePath, "overrides", out)
	collectListFields(perspective, "aliases", []string{"for"}, identifier, basePath, "aliases", out)

	walkthrough := node.Deref(node.MapGet(perspective, "walkthrough"))
	if walkthrough != nil && walkthrough.Kind == yaml.SequenceNode {
		for i, raw := range walkthrough.Content {
			slide := node.Deref(raw)
			if slide == nil || slide.Kind != yaml.MappingNode {
				continue
			}
			slidePath := basePath + ".walkthrough[" + strconv.Itoa(i) + "]"
			for _, key := range node.MapKeys(slide) {
				if !WalkthroughReferenceKeys[key] {
					continue
				}
				if !node.IsScalar(node.MapGet(slide, key)) {
					continue
				}
				*out = append(*out, ReferenceField{
					Container:   slide,
					Key:         key,
					Path:        slidePath + "." + key,
					Perspective: identifier,
					Section:     "walkthrough",
				})
			}
		}
	}

	sequence := node.Deref(node.MapGet(perspective, "sequence"))
	if sequence != nil && sequence.Kind == yaml.MappingNode {
		if node.IsScalar(node.MapGet(sequence, "start")) {
			*out = append(*out, ReferenceField{
				Container:   sequence,
				Key:         "start",
				Path:        basePath + ".sequence.start",
				Perspective: identifier,
				Section:     "sequence",
			})
		}
		steps := node.Deref(node.MapGet(sequence, "steps"))
		if steps != nil && steps.Kind == yaml.SequenceNode {
			collectStepFields(steps, identifier, basePath+".sequence.steps", out)
		}
	}
}

func collectListFields(perspective *yaml.Node, listKey string, keys []string, identifier, basePath, section string, out *[]ReferenceField) {
	list := node.Deref(node.MapGet(perspective, listKey))
	if list == nil || list.Kind != yaml.SequenceNode {
		return
	}
	for i, raw := range list.Content {
		item := node.Deref(raw)
		if item == nil || item.Kind != yaml.MappingNode {
			continue
		}
		itemPath := basePath + "." + listKey + "[" + strconv.Itoa(i) + "]"
		for _, key := range keys {
			if !node.IsScalar(node.MapGet(item, key)) {
				continue
			}
			*out = append(*out, ReferenceField{
				Container:   item,
				Key:         key,
				Path:        itemPath + "." + key,
				Perspective: identifier,
				Section:     section,
			})
		}
	}
}

func collectStepFields(steps *yaml.Node, identifier, basePath string, out *[]ReferenceField) {
	for i, raw := range steps.Content {
		step := node.Deref(raw)
		if step == nil || step.Kind != yaml.MappingNode {
			continue
		}
		stepPath := basePath + "[" + strconv.Itoa(i) + "]"
		for _, key := range stepReferenceKeys {
			if !node.IsScalar(node.MapGet(step, key)) {
				continue
			}
			*out = append(*out, ReferenceField{
				Container:   step,
				Key:         key,
				Path:        stepPath + "." + key,
				Perspective: identifier,
				Section:     "sequence",
			})
		}
		subSequence := node.Deref(node.MapGet(step, "subSequence"))
		if subSequence != nil && subSequence.Kind == yaml.MappingNode {
			subSteps := node.Deref(node.MapGet(subSequence, "steps"))
			if subSteps != nil && subSteps.Kind == yaml.SequenceNode {
				collectStepFields(subSteps, identifier, stepPath+".subSequence.steps", out)
			}
		}
	}
}
