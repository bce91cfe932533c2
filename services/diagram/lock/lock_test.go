// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package lock

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func tempTarget(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diagram.ilograph")
	if err := os.WriteFile(path, []byte("resources: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAcquireAndRelease(t *testing.T) {
	target := tempTarget(t)

	held, err := Acquire(target, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(SentinelPath(held.Path())); err != nil {
		t.Fatalf("sentinel missing: %v", err)
	}

	if err := held.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(SentinelPath(held.Path())); !os.IsNotExist(err) {
		t.Fatal("sentinel should be gone after release")
	}
	if err := held.Release(); err != nil {
		t.Fatalf("second release must be a no-op, got %v", err)
	}
}

func TestAcquire_HeldFailsImmediately(t *testing.T) {
	target := tempTarget(t)

	first, err := Acquire(target, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer first.Release()

	_, err = Acquire(target, 0)
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError, got %T", err)
	}
	if held.Holder == nil || held.Holder.PID != os.Getpid() {
		t.Fatalf("holder info missing or wrong: %+v", held.Holder)
	}
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	target := tempTarget(t)

	first, err := Acquire(target, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = first.Release()
	}()

	start := time.Now()
	second, err := Acquire(target, 5*time.Second)
	if err != nil {
		t.Fatalf("acquire with wait: %v", err)
	}
	defer second.Release()
	if time.Since(start) > 3*time.Second {
		t.Fatal("acquire took too long after release")
	}
}

func TestAcquire_RemovesStaleSentinel(t *testing.T) {
	target := tempTarget(t)
	sentinel := SentinelPath(target)

	stale := Info{
		FilePath:  target,
		PID:       os.Getpid(),
		SessionID: "dead-session",
		LockedAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-50 * time.Minute),
	}
	data, _ := json.Marshal(&stale)
	if err := os.WriteFile(sentinel, data, 0o644); err != nil {
		t.Fatal(err)
	}

	held, err := Acquire(target, 0)
	if err != nil {
		t.Fatalf("expired sentinel should not block: %v", err)
	}
	defer held.Release()
}

func TestAcquire_DeadPIDSentinel(t *testing.T) {
	target := tempTarget(t)
	sentinel := SentinelPath(target)

	// PID 1 is alive on Linux but not signalable from a regular user
	// namespace; use an implausible PID instead.
	stale := Info{
		FilePath:  target,
		PID:       1 << 22,
		SessionID: "crashed-session",
		LockedAt:  time.Now(),
		ExpiresAt: time.Now().Add(DefaultTTL),
	}
	data, _ := json.Marshal(&stale)
	if err := os.WriteFile(sentinel, data, 0o644); err != nil {
		t.Fatal(err)
	}

	held, err := Acquire(target, 0)
	if err != nil {
		t.Fatalf("dead-pid sentinel should not block: %v", err)
	}
	defer held.Release()
}

func TestRelease_ForeignSessionLeavesSentinel(t *testing.T) {
	target := tempTarget(t)

	held, err := Acquire(target, 0)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Simulate the sentinel being replaced by another process.
	foreign := Info{
		FilePath:  held.Path(),
		PID:       os.Getpid(),
		SessionID: "someone-else",
		LockedAt:  time.Now(),
		ExpiresAt: time.Now().Add(DefaultTTL),
	}
	data, _ := json.Marshal(&foreign)
	if err := os.WriteFile(SentinelPath(held.Path()), data, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := held.Release(); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("expected ErrNotHeld, got %v", err)
	}
	if _, err := os.Stat(SentinelPath(held.Path())); err != nil {
		t.Fatal("foreign sentinel must not be removed")
	}
	_ = os.Remove(SentinelPath(held.Path()))
}
