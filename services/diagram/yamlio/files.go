// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package yamlio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/ilograph-cli/services/diagram/docerr"
)

// ============================================================================
// File I/O
// ============================================================================

// ErrConcurrentModification reports that the target file changed between
// load and write.
var ErrConcurrentModification = errors.New("file changed on disk since it was loaded")

// ReadFile reads a UTF-8 text file.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteAtomic persists text to path via write-to-temp-then-rename. Before
// writing it re-reads the target and compares against expectedBefore, the
// content loaded at the start of the edit; a mismatch means some other
// process wrote the file mid-edit and the write is refused.
//
// expectedBefore of "" with a missing target is treated as a match, so a
// first write to a new file succeeds.
func WriteAtomic(path, text, expectedBefore string) error {
	current, err := os.ReadFile(path)
	switch {
	case err == nil:
		if string(current) != expectedBefore {
			return docerr.Newf("%v: %s (re-run against the current content)",
				ErrConcurrentModification, path)
		}
	case os.IsNotExist(err):
		if expectedBefore != "" {
			return docerr.Newf("%v: %s (re-run against the current content)",
				ErrConcurrentModification, path)
		}
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if info, err := os.Stat(path); err == nil {
		// Best effort: keep the original file mode.
		_ = os.Chmod(tmpName, info.Mode().Perm())
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
