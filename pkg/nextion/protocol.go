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

// Package nextion implements the host side of the Nextion serial display
// protocol: frame decoding, event dispatch, the baud rate handshake, command
// execution and chunked uploads.
//
// A Display is driven by the caller. Poll must be called repeatedly from the
// program's main loop; every blocking call is bounded by a cycle count.
package nextion

import "time"

// Code is the leading byte of a frame received from the display.
type Code byte

// Inbound frame codes.
const (
	CodeStartup               Code = 0x00
	CodeTouchEvent            Code = 0x65
	CodeCurrentPage           Code = 0x66
	CodeTouchCoordinate       Code = 0x67
	CodeTouchCoordinateAsleep Code = 0x68
	CodeStringData            Code = 0x70
	CodeNumericData           Code = 0x71
	CodeAutoEnterSleep        Code = 0x86
	CodeAutoEnterWakeup       Code = 0x87
	CodeReady                 Code = 0x88
	CodeStartSDUpdate         Code = 0x89
	CodeTransparentDataEnd    Code = 0xFD
	CodeTransparentDataReady  Code = 0xFE
)

// TerminatorByte repeated three times ends every frame in both directions.
const TerminatorByte = 0xFF

// Terminator is the three byte frame terminator.
var Terminator = []byte{TerminatorByte, TerminatorByte, TerminatorByte}

// Protocol commands used by the engine itself.
const (
	CmdConnect  = "connect"
	CmdSendMe   = "sendme"
	CmdBaud     = "baud"
	CmdBkcmd    = "bkcmd"
	CmdGet      = "get"
	ReplyComOK  = "comok"
	CmdSDUpload = "whmi-wri"
)

// Payload sizes of fixed layout frames, terminator excluded.
const (
	touchEventLen      = 3
	currentPageLen     = 1
	touchCoordinateLen = 5
	numericDataLen     = 4
	startupLen         = 2
)

// DefaultBufferSize is the decoder capacity. It fits the longest string
// reply the display firmware sends for a txt attribute.
const DefaultBufferSize = 256

// DefaultChunkSize is the upload chunk the display acknowledges with a
// transparent-data-ready frame.
const DefaultChunkSize = 4096

// DefaultUploadCommand starts a transfer. It is formatted with the payload
// length and the current baud rate.
const DefaultUploadCommand = CmdSDUpload + " %d,%d,0"

// DefaultBaud is the factory rate of every Nextion panel.
const DefaultBaud = 9600

// StandardBauds lists the rates the firmware accepts, in probe order.
var StandardBauds = []uint32{
	115200, 57600, 38400, 19200, 921600, 512000, 256000, 250000, 230400, 31250, 4800, 2400,
}

// Timing bounds every blocking wait. One cycle is a drain of the transport,
// dispatch of the completed frames and a sleep of Cycle. The wall time of a
// wait is therefore roughly cycles * (Cycle + drain time); at the default 1ms
// cycle the drain time is negligible up to 115200 baud.
type Timing struct {
	Cycle          time.Duration
	ResponseCycles int
	ProbeCycles    int
	UploadCycles   int
}

// DefaultTiming gives a command about a quarter second to answer at 1ms per
// cycle.
var DefaultTiming = Timing{
	Cycle:          time.Millisecond,
	ResponseCycles: 255,
	ProbeCycles:    500,
	UploadCycles:   2000,
}
