// go-nextion
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-nextion.
//
// go-nextion is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-nextion is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-nextion.  If not, see <http://www.gnu.org/licenses/>.

//go:build !deadlock

// Package syncutil provides the mutex types used across go-nextion. Building
// with -tags=deadlock swaps them for go-deadlock so lock-order bugs between
// the serial reader and its callers are reported instead of hanging.
package syncutil

import "sync"

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = false

// A Mutex is a mutual exclusion lock.
//
//nolint:gocritic // this IS the wrapper
type Mutex struct {
	sync.Mutex //nolint:forbidigo // wrapped here only
}

// An RWMutex is a reader/writer mutual exclusion lock.
//
//nolint:gocritic // this IS the wrapper
type RWMutex struct {
	sync.RWMutex //nolint:forbidigo // wrapped here only
}
