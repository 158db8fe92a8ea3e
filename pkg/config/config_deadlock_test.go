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

package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestOptions_NoRecursiveLock guards against Options calling getters while
// holding the lock. With -tags=deadlock, go-deadlock panics on recursive
// locks.
func TestOptions_NoRecursiveLock(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(afero.NewMemMapFs(), testDir, BaseDefaults)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = cfg.Options()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Options() deadlocked")
	}
}

func TestConfig_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(afero.NewMemMapFs(), testDir, BaseDefaults)
	require.NoError(t, err)

	done := make(chan struct{})
	for i := range 10 {
		go func() {
			for range 100 {
				if i%2 == 0 {
					cfg.SetBaud(115200)
				}
				_ = cfg.Baud()
				_ = cfg.Options()
			}
			done <- struct{}{}
		}()
	}

	for range 10 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent access deadlocked")
		}
	}
}
