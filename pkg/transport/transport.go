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

// Package transport provides the byte channel a Nextion display is attached
// to. The engine in pkg/nextion only depends on the Transport interface; the
// Serial type implements it on top of go.bug.st/serial.
package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.bug.st/serial"
)

// ErrNoData is returned by ReadByte when no byte is pending.
var ErrNoData = errors.New("no data available")

// Source is the read half of a Transport.
type Source interface {
	// Available returns the number of bytes that can be read without blocking.
	Available() int
	// ReadByte returns the next pending byte, or ErrNoData if there is none.
	ReadByte() (byte, error)
}

// Transport is the asynchronous byte channel a display is attached to.
// Implementations must never block in Available or ReadByte.
type Transport interface {
	Source
	io.Writer
	SetBaudRate(baud uint32) error
}

// SerialPort defines the subset of serial.Port used by Serial (for mocking in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
	SetMode(mode *serial.Mode) error
	ResetInputBuffer() error
}

// SerialPortFactory creates a serial port connection.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultSerialPortFactory opens real serial ports with go.bug.st/serial.
func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Mode returns the 8N1 serial mode used by Nextion displays at the given rate.
func Mode(baud uint32) *serial.Mode {
	return &serial.Mode{
		BaudRate: int(baud),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// IsDisconnectionError reports whether err means the device went away.
func IsDisconnectionError(err error) bool {
	if err == nil {
		return false
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort:
			return true
		default:
			return false
		}
	}

	// OS-level errors are not wrapped by the serial library
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "device not configured") ||
		strings.Contains(errStr, "input/output error") ||
		strings.Contains(errStr, "no such device") ||
		strings.Contains(errStr, "device not found") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "device disconnected")
}
