// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package editor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ilograph-cli/services/diagram/lock"
	"github.com/AleutianAI/ilograph-cli/services/diagram/node"
	"github.com/AleutianAI/ilograph-cli/services/diagram/ops"
)

const editorFixture = `resources:
- id: web
  name: Web
- id: db
  name: DB
- id: db_replica
  name: DB Replica
perspectives:
- name: Traffic
  relations:
  - from: web
    to: db
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.ilograph")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func newRunner() (*Runner, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Runner{Out: &buf}, &buf
}

func TestRun_RenameWritesFile(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, out := newRunner()

	err := runner.Run(path, false, DiffFull, func(document *yaml.Node) (bool, error) {
		return ops.RenameResourceID(document, "db", "postgres")
	})
	require.NoError(t, err)

	after := readBack(t, path)
	assert.Contains(t, after, "- id: postgres")
	assert.Contains(t, after, "    to: postgres")
	assert.Contains(t, after, "- id: db_replica")
	assert.NotContains(t, after, "- id: db\n")

	assert.Contains(t, out.String(), "diff summary:")
	assert.Contains(t, out.String(), "updated: "+path)

	_, err = os.Stat(lock.SentinelPath(path))
	assert.True(t, os.IsNotExist(err), "lock sentinel should be released")
}

func TestRun_StrictGateLeavesFileUntouched(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, _ := newRunner()

	err := runner.Run(path, false, DiffFull, func(document *yaml.Node) (bool, error) {
		resources := node.MapGet(document, "resources")
		require.NotNil(t, resources)
		node.SeqRemove(resources, 1)
		return true, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutation would produce invalid document")
	assert.Contains(t, err.Error(), "strict mode")
	assert.Contains(t, err.Error(), "broken-reference")

	assert.Equal(t, editorFixture, readBack(t, path))
}

func TestRun_DryRunDoesNotWrite(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, out := newRunner()

	err := runner.Run(path, true, DiffFull, func(document *yaml.Node) (bool, error) {
		return ops.RenameResource(document, "db", "Postgres")
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "dry-run: changes were not written")
	assert.Equal(t, editorFixture, readBack(t, path))
}

func TestRun_NoChangeMutator(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, out := newRunner()

	err := runner.Run(path, false, DiffFull, func(document *yaml.Node) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no changes (document already matches requested state)")
	assert.Equal(t, editorFixture, readBack(t, path))
}

func TestRun_DiffNoneHidesDiffBody(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, out := newRunner()

	err := runner.Run(path, true, DiffNone, func(document *yaml.Node) (bool, error) {
		return ops.RenameResource(document, "db", "Postgres")
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "diff hidden (--diff full to show)")
	assert.NotContains(t, out.String(), "+++")
}

func TestRun_SummaryTruncatesLongDiffs(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, out := newRunner()
	runner.DiffPreviewLimit = 3

	err := runner.Run(path, true, DiffSummary, func(document *yaml.Node) (bool, error) {
		return ops.RenameResourceID(document, "db", "postgres")
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "showing first 3 lines")
	assert.Contains(t, out.String(), "... diff truncated (use --diff full to print all)")
}

func TestRun_UnknownDiffMode(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, _ := newRunner()

	err := runner.Run(path, true, "sideways", func(document *yaml.Node) (bool, error) {
		return true, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown diff mode: sideways (expected: full|summary|none)")
}

func TestRun_HeldLockBlocksEdit(t *testing.T) {
	path := writeFixture(t, editorFixture)

	held, err := lock.Acquire(path, 0)
	require.NoError(t, err)
	defer held.Release()

	runner, _ := newRunner()
	err = runner.Run(path, false, DiffFull, func(document *yaml.Node) (bool, error) {
		return ops.RenameResource(document, "db", "Postgres")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lock.ErrLocked))
	assert.Equal(t, editorFixture, readBack(t, path))
}

func TestRun_MutatorErrorAborts(t *testing.T) {
	path := writeFixture(t, editorFixture)
	runner, _ := newRunner()

	err := runner.Run(path, false, DiffFull, func(document *yaml.Node) (bool, error) {
		_, err := ops.RenameResourceID(document, "ghost", "phantom")
		return true, err
	})
	require.Error(t, err)
	assert.Equal(t, editorFixture, readBack(t, path))
}
