// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build windows

package lock

// isProcessAlive reports whether the PID exists. Windows has no cheap
// signal-0 probe without extra syscall dependencies, so sentinels there
// expire via TTL only.
func isProcessAlive(pid int) bool {
	return true
}
