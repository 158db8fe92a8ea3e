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

package mocks

import (
	"errors"
	"time"

	"github.com/ZaparooProject/go-nextion/pkg/helpers/syncutil"
	"go.bug.st/serial"
)

// MockSerialPort is an in-memory transport.SerialPort. Reads drain ReadData
// and then behave like a port with nothing pending.
type MockSerialPort struct {
	ReadError    error
	WriteError   error
	CloseError   error
	TimeoutErr   error
	SetModeErr   error
	ReadFunc     func(p []byte) (n int, err error)
	mode         *serial.Mode
	ReadData     []byte
	written      []byte
	ReadIndex    int
	mu           syncutil.RWMutex
	Closed       bool
	inputFlushes int
}

// NewMockSerialPort creates a new mock serial port for testing.
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// Read implements the Read method for serial ports.
func (m *MockSerialPort) Read(p []byte) (n int, err error) {
	m.mu.Lock()
	if m.Closed {
		m.mu.Unlock()
		return 0, errors.New("port closed")
	}
	if m.ReadFunc != nil {
		fn := m.ReadFunc
		m.mu.Unlock()
		return fn(p)
	}
	if m.ReadError != nil {
		readErr := m.ReadError
		m.mu.Unlock()
		return 0, readErr
	}
	if m.ReadIndex >= len(m.ReadData) {
		m.mu.Unlock()
		// simulate a read timeout
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	}
	n = copy(p, m.ReadData[m.ReadIndex:])
	m.ReadIndex += n
	m.mu.Unlock()
	return n, nil
}

// Feed appends bytes for subsequent reads.
func (m *MockSerialPort) Feed(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadData = append(m.ReadData, p...)
}

// Write records p.
func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.written = append(m.written, p...)
	return len(p), nil
}

// Written returns every byte written so far.
func (m *MockSerialPort) Written() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.written...)
}

// Close implements the Close method for serial ports.
func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}

// SetReadTimeout implements the SetReadTimeout method for serial ports.
func (m *MockSerialPort) SetReadTimeout(_ time.Duration) error {
	return m.TimeoutErr
}

// SetMode records mode.
func (m *MockSerialPort) SetMode(mode *serial.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetModeErr != nil {
		return m.SetModeErr
	}
	m.mode = mode
	return nil
}

// Mode returns the last mode set, or nil.
func (m *MockSerialPort) Mode() *serial.Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// ResetInputBuffer drops unread data.
func (m *MockSerialPort) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadIndex = len(m.ReadData)
	m.inputFlushes++
	return nil
}

// InputFlushes returns how often ResetInputBuffer was called.
func (m *MockSerialPort) InputFlushes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputFlushes
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockSerialPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Closed
}
