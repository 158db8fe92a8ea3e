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
	"fmt"
	"strconv"
	"strings"
)

// ConnectionState represents the current state of the display link.
type ConnectionState int32

const (
	// StateDisconnected indicates no handshake has succeeded.
	StateDisconnected ConnectionState = iota
	// StateConnected indicates the display answered the liveness probe.
	StateConnected
)

// String returns a human-readable representation of the connection state
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// SleepState reports whether the display is in its sleep mode.
type SleepState uint8

const (
	Awake SleepState = iota
	Asleep
)

func (s SleepState) String() string {
	if s == Asleep {
		return "Asleep"
	}
	return "Awake"
}

// State is the triggering state of a touch event.
type State uint8

const (
	Release State = 0
	Press   State = 1
)

func (s State) String() string {
	if s == Press {
		return "Press"
	}
	return "Release"
}

// Component identifies a UI element on the display.
type Component struct {
	Page uint8
	ID   uint8
}

func (c Component) String() string {
	return fmt.Sprintf("p%d.c%d", c.Page, c.ID)
}

// Event is a component touch event.
type Event struct {
	Component
	State State
}

// Touch is a raw touch coordinate report, sent when sendxy is enabled.
type Touch struct {
	X       uint16
	Y       uint16
	Pressed bool
	Asleep  bool
}

// AckMode mirrors the display's bkcmd setting: which commands are answered
// with a status frame.
type AckMode uint8

const (
	AckNone    AckMode = 0
	AckSuccess AckMode = 1
	AckFailure AckMode = 2
	AckAll     AckMode = 3
)

func (m AckMode) String() string {
	switch m {
	case AckNone:
		return "none"
	case AckSuccess:
		return "success"
	case AckFailure:
		return "failure"
	case AckAll:
		return "all"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseAckMode parses the names returned by AckMode.String.
func ParseAckMode(s string) (AckMode, error) {
	for _, m := range []AckMode{AckNone, AckSuccess, AckFailure, AckAll} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown ack mode: %q", s)
}

// ValueKind tells which field of a Value is set.
type ValueKind uint8

const (
	KindText ValueKind = iota
	KindNumber
)

// Value is the decoded reply to a query.
type Value struct {
	Text   string
	Number uint32
	Kind   ValueKind
}

// Int returns the numeric value as the display's signed 32 bit integer.
func (v Value) Int() int32 {
	return int32(v.Number) //nolint:gosec // two's complement reinterpretation
}

func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatInt(int64(v.Int()), 10)
	}
	return v.Text
}

// DeviceInfo is parsed from the reply to the connect command, e.g.
// "comok 1,30601-0,NX4827T043_011R,130,61488,D264B8204F0E1828,16777216".
type DeviceInfo struct {
	Model        string
	Firmware     string
	MCU          string
	Serial       string
	Raw          string
	FlashSize    uint64
	TouchCapable bool
}

func parseDeviceInfo(reply string) DeviceInfo {
	info := DeviceInfo{Raw: reply}
	rest := strings.TrimSpace(strings.TrimPrefix(reply, ReplyComOK))
	fields := strings.Split(rest, ",")

	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	info.TouchCapable = get(0) == "1"
	info.Model = get(2)
	info.Firmware = get(3)
	info.MCU = get(4)
	info.Serial = get(5)
	if size, err := strconv.ParseUint(get(6), 10, 64); err == nil {
		info.FlashSize = size
	}
	return info
}
