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

package nextion_test

import (
	"testing"
	"time"

	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/ZaparooProject/go-nextion/pkg/testing/mocks"
)

// testTiming answers every wait within a few polls without sleeping.
var testTiming = nextion.Timing{
	Cycle:          0,
	ResponseCycles: 5,
	ProbeCycles:    3,
	UploadCycles:   5,
}

func frame(code nextion.Code, payload ...byte) []byte {
	return append([]byte{byte(code)}, payload...)
}

func newDisplay(t *testing.T, sim *mocks.SimulatedDisplay, opts ...nextion.Option) *nextion.Display {
	t.Helper()
	opts = append([]nextion.Option{nextion.WithTiming(testTiming)}, opts...)
	return nextion.New(sim, opts...)
}

func pollAll(d *nextion.Display) int {
	n := 0
	for {
		if _, ok := d.Poll(); !ok {
			return n
		}
		n++
	}
}

func within(t *testing.T, limit time.Duration, fn func()) {
	t.Helper()
	start := time.Now()
	fn()
	if elapsed := time.Since(start); elapsed > limit {
		t.Fatalf("took %s, limit %s", elapsed, limit)
	}
}
