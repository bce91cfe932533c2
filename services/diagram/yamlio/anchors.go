// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package yamlio

import (
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
)

// ============================================================================
// Anchor preservation
// ============================================================================

// SnapshotAnchors records anchor names keyed by node identity. Taken
// before a mutation so the anchors survive node moves and clones.
func SnapshotAnchors(root *yaml.Node) map[*yaml.Node]string {
	snapshot := make(map[*yaml.Node]string)
	node.Walk(root, func(n *yaml.Node) bool {
		if n.Anchor != "" {
			snapshot[n] = n.Anchor
		}
		return true
	})
	return snapshot
}

// RestoreAnchors reassigns snapshotted anchor names to their original
// nodes and clears any other node that picked up one of those names,
// so aliases keep pointing at the node they referenced before the edit.
func RestoreAnchors(root *yaml.Node, snapshot map[*yaml.Node]string) {
	if len(snapshot) == 0 {
		return
	}

	preserved := make(map[string]bool, len(snapshot))
	for _, name := range snapshot {
		preserved[name] = true
	}

	node.Walk(root, func(n *yaml.Node) bool {
		if name, ok := snapshot[n]; ok {
			n.Anchor = name
			return true
		}
		if n.Anchor != "" && preserved[n.Anchor] {
			n.Anchor = ""
		}
		return true
	})
}
