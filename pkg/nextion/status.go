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

package nextion

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("timed out waiting for display")
	// ErrConnectFailed is returned when no candidate baud rate answered.
	ErrConnectFailed = errors.New("display did not answer on any baud rate")
	// ErrUploadAborted is returned when an upload cannot complete.
	ErrUploadAborted = errors.New("upload aborted")
	// ErrInvalidLength is returned for a non-positive upload length.
	ErrInvalidLength = errors.New("invalid length")
	// ErrUnexpectedFrame is returned when a wait is answered by the wrong frame type.
	ErrUnexpectedFrame = errors.New("unexpected frame")
)

// Status is the one byte reply to a command when acknowledgments are enabled.
// Values 0-255 are wire codes; the negative values never appear on the wire.
type Status int16

const (
	StatusInvalidInstruction Status = 0x00
	StatusSuccess            Status = 0x01
	StatusInvalidComponent   Status = 0x02
	StatusInvalidPage        Status = 0x03
	StatusInvalidPicture     Status = 0x04
	StatusInvalidFont        Status = 0x05
	StatusInvalidBaud        Status = 0x11
	StatusInvalidCurve       Status = 0x12
	StatusInvalidVariable    Status = 0x1A
	StatusInvalidOperation   Status = 0x1B
	StatusAssignFailed       Status = 0x1C
	StatusEEPROMFailed       Status = 0x1D
	StatusInvalidParamCount  Status = 0x1E
	StatusIOFailed           Status = 0x1F
	StatusInvalidEscape      Status = 0x20
	StatusNameTooLong        Status = 0x23
	StatusBufferOverflow     Status = 0x24

	// StatusSent is returned when no acknowledgment was awaited.
	StatusSent Status = -1
	// StatusTimeout is returned when an acknowledgment did not arrive.
	StatusTimeout Status = -2
	// StatusFailed is returned when the command could not be written.
	StatusFailed Status = -3
)

var statusNames = map[Status]string{
	StatusInvalidInstruction: "invalid instruction",
	StatusSuccess:            "success",
	StatusInvalidComponent:   "invalid component",
	StatusInvalidPage:        "invalid page",
	StatusInvalidPicture:     "invalid picture",
	StatusInvalidFont:        "invalid font",
	StatusInvalidBaud:        "invalid baud rate",
	StatusInvalidCurve:       "invalid waveform channel",
	StatusInvalidVariable:    "invalid variable",
	StatusInvalidOperation:   "invalid variable operation",
	StatusAssignFailed:       "assignment failed",
	StatusEEPROMFailed:       "eeprom operation failed",
	StatusInvalidParamCount:  "invalid parameter count",
	StatusIOFailed:           "io operation failed",
	StatusInvalidEscape:      "invalid escape character",
	StatusNameTooLong:        "variable name too long",
	StatusBufferOverflow:     "serial buffer overflow",
	StatusSent:               "sent",
	StatusTimeout:            "timeout",
	StatusFailed:             "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%02X", int(s))
}

// OK reports whether the command was accepted or sent without acknowledgment.
func (s Status) OK() bool {
	return s == StatusSuccess || s == StatusSent
}

// isStatusCode reports whether a single byte frame is a command status.
func isStatusCode(c Code) bool {
	_, ok := statusNames[Status(c)]
	return ok
}

func isStatusByte(b byte) bool {
	return isStatusCode(Code(b))
}

func isFailureByte(b byte) bool {
	return isStatusByte(b) && Status(b) != StatusSuccess
}

// StatusError is returned when the display rejects a command.
type StatusError struct {
	Op     string
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Op, e.Status, int(e.Status))
}
