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

package transport

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port a display may be attached to.
type PortInfo struct {
	Name         string
	VID          string
	PID          string
	SerialNumber string
	Product      string
	IsUSB        bool
}

// Nextion displays are usually wired through a USB-TTL adapter or a board UART.
var linuxPortPrefixes = []string{
	"/dev/ttyUSB",
	"/dev/ttyACM",
	"/dev/ttyAMA",
	"/dev/ttyS0",
	"/dev/serial0",
}

// ListPorts returns the serial ports that could host a display.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Debug().Err(err).Msg("detailed port list failed, falling back to names")
		names, listErr := serial.GetPortsList()
		if listErr != nil {
			return nil, fmt.Errorf("failed to get serial ports list: %w", listErr)
		}
		ports := make([]PortInfo, 0, len(names))
		for _, name := range names {
			ports = append(ports, PortInfo{Name: name})
		}
		return filterPorts(runtime.GOOS, ports), nil
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          strings.ToLower(d.VID),
			PID:          strings.ToLower(d.PID),
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return filterPorts(runtime.GOOS, ports), nil
}

func filterPorts(goos string, ports []PortInfo) []PortInfo {
	out := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		if keepPort(goos, p.Name) {
			out = append(out, p)
		}
	}
	return out
}

func keepPort(goos, name string) bool {
	switch goos {
	case "linux":
		for _, prefix := range linuxPortPrefixes {
			if strings.HasPrefix(name, prefix) {
				return true
			}
		}
		return false
	case "darwin":
		return strings.HasPrefix(name, "/dev/tty.usbserial") ||
			strings.HasPrefix(name, "/dev/tty.usbmodem") ||
			strings.HasPrefix(name, "/dev/cu.usbserial")
	case "windows":
		return strings.HasPrefix(name, "COM")
	default:
		return name != ""
	}
}
