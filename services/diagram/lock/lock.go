// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package lock provides advisory cross-process locking for diagram
// files. The lock is a sentinel file beside the target
// (diagram.ilograph -> diagram.ilograph.ilolock) created exclusively
// and holding JSON metadata about the holder. Stale sentinels from
// crashed processes are detected via PID liveness and a TTL, and
// removed automatically.
//
// Mutating commands acquire the lock before loading the file and
// release it on every exit path. Read-only and dry-run commands never
// lock.
package lock

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const (
	// Suffix is appended to the target path to form the sentinel path.
	Suffix = ".ilolock"

	// DefaultTTL bounds how long a sentinel is honored without the
	// holder refreshing it. Editing sessions are interactive commands,
	// so a stale sentinel older than this is from a crash.
	DefaultTTL = 10 * time.Minute

	// pollInterval is the fallback cadence for re-checking the
	// sentinel while waiting, in case fsnotify misses the removal.
	pollInterval = 100 * time.Millisecond
)

// Info is the sidecar metadata stored in the sentinel file.
//
// # Fields
//
//   - FilePath: Absolute path of the locked diagram file.
//   - PID: Process id of the holder, for liveness checks.
//   - SessionID: UUID distinguishing concurrent processes sharing a PID
//     namespace (containers, PID reuse).
//   - LockedAt / ExpiresAt: Acquisition time and TTL bound.
type Info struct {
	FilePath  string    `json:"file_path"`
	PID       int       `json:"pid"`
	SessionID string    `json:"session_id"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the sentinel has outlived its TTL.
func (i *Info) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// Lock is a held advisory lock. Release it exactly once; Release is
// idempotent and safe on already-removed sentinels.
type Lock struct {
	path      string
	sentinel  string
	sessionID string
	released  bool
}

// SentinelPath returns the sentinel file path for a target.
func SentinelPath(path string) string {
	return path + Suffix
}

// Acquire takes the advisory lock for path, waiting up to wait for a
// live holder to release it. A zero wait fails immediately. Stale
// sentinels (dead PID or expired TTL) are removed and do not block.
func Acquire(path string, wait time.Duration) (*Lock, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	sentinel := SentinelPath(absPath)
	deadline := time.Now().Add(wait)

	for {
		acquired, err := tryCreateSentinel(absPath, sentinel)
		if err != nil {
			return nil, err
		}
		if acquired != nil {
			return acquired, nil
		}

		holder := readInfo(sentinel)
		if holder != nil && (holder.IsExpired() || !isProcessAlive(holder.PID)) {
			slog.Info("removing stale lock sentinel",
				"path", absPath,
				"old_pid", holder.PID,
				"expired", holder.IsExpired())
			_ = os.Remove(sentinel)
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			held := &HeldError{Path: absPath, Holder: holder}
			if wait > 0 {
				held.Wait = wait.String()
			}
			return nil, held
		}
		waitForRemoval(sentinel, remaining)
	}
}

// Release removes the sentinel. Releasing a lock whose sentinel now
// belongs to another session returns ErrNotHeld and leaves it alone.
func (l *Lock) Release() error {
	if l.released {
		return nil
	}
	l.released = true

	holder := readInfo(l.sentinel)
	if holder != nil && holder.SessionID != l.sessionID {
		return ErrNotHeld
	}
	if err := os.Remove(l.sentinel); err != nil && !os.IsNotExist(err) {
		return err
	}
	slog.Debug("released lock", "path", l.path)
	return nil
}

// Path returns the locked file's absolute path.
func (l *Lock) Path() string {
	return l.path
}

// tryCreateSentinel attempts the exclusive create. Returns (nil, nil)
// when the sentinel already exists.
func tryCreateSentinel(absPath, sentinel string) (*Lock, error) {
	f, err := os.OpenFile(sentinel, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now()
	info := Info{
		FilePath:  absPath,
		PID:       os.Getpid(),
		SessionID: uuid.NewString(),
		LockedAt:  now,
		ExpiresAt: now.Add(DefaultTTL),
	}
	data, err := json.MarshalIndent(&info, "", "  ")
	if err == nil {
		_, err = f.Write(data)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(sentinel)
		return nil, err
	}

	slog.Debug("acquired lock",
		"path", absPath,
		"session_id", info.SessionID,
		"expires_at", info.ExpiresAt.Format(time.RFC3339))
	return &Lock{path: absPath, sentinel: sentinel, sessionID: info.SessionID}, nil
}

func readInfo(sentinel string) *Info {
	data, err := os.ReadFile(sentinel)
	if err != nil {
		return nil
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil
	}
	return &info
}

// waitForRemoval blocks until the sentinel disappears or the budget
// runs out. fsnotify gives prompt wakeups; a poll ticker backstops
// missed events, and pure polling covers platforms where the watcher
// cannot start.
func waitForRemoval(sentinel string, budget time.Duration) {
	deadline := time.NewTimer(budget)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var watchErrs chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		if err := watcher.Add(filepath.Dir(sentinel)); err == nil {
			defer watcher.Close()
			events = watcher.Events
			watchErrs = watcher.Errors
		} else {
			watcher.Close()
		}
	}

	for {
		select {
		case event := <-events:
			if event.Name == sentinel && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return
			}
		case <-watchErrs:
			// Keep polling; the ticker still bounds the wait.
		case <-ticker.C:
			if _, statErr := os.Stat(sentinel); os.IsNotExist(statErr) {
				return
			}
		case <-deadline.C:
			return
		}
	}
}
