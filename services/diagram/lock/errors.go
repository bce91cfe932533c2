// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package lock

import (
	"errors"
	"fmt"
)

// Sentinel errors for lock operations.
var (
	// ErrLocked indicates the file is already locked by another process.
	ErrLocked = errors.New("file is locked by another process")

	// ErrNotHeld indicates an attempt to release a lock this process
	// does not hold.
	ErrNotHeld = errors.New("lock not held by this process")
)

// HeldError wraps ErrLocked with details about the current holder, so
// callers can report who is editing the file and decide whether to
// retry with a longer wait.
//
// # Fields
//
//   - Path: The diagram file that is locked.
//   - Holder: Sidecar info about the holder (nil if unreadable).
//   - Wait: The wait that was exhausted before giving up (0 = no wait).
type HeldError struct {
	Path   string
	Holder *Info
	Wait   string
}

// Error returns a human-readable error message.
func (e *HeldError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Path, ErrLocked)
	if e.Holder != nil {
		msg = fmt.Sprintf("%s: %v (held by pid %d, session %s, since %s)",
			e.Path, ErrLocked, e.Holder.PID, e.Holder.SessionID,
			e.Holder.LockedAt.Format("15:04:05"))
	}
	if e.Wait != "" {
		msg += fmt.Sprintf("; gave up after %s (raise --lock-wait to wait longer)", e.Wait)
	}
	return msg
}

// Unwrap returns ErrLocked for errors.Is support.
func (e *HeldError) Unwrap() error {
	return ErrLocked
}
