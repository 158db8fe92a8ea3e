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
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-nextion/pkg/helpers/syncutil"
	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/ZaparooProject/go-nextion/pkg/transport"
)

// DefaultComOK is the liveness reply of a simulated NX4832T035.
const DefaultComOK = "comok 1,30601-0,NX4832T035_011R,163,61488,DE6064B7E70C6521,16777216"

var _ transport.Transport = (*SimulatedDisplay)(nil)

// SimulatedDisplay is an in-memory transport.Transport that behaves like a
// Nextion panel. It answers synchronously inside Write, so a reply is
// available to the very next Poll. Bytes written while the host rate differs
// from the display rate are lost, as on a real UART.
//
// Built in behavior:
//   - connect: replies with ComOK
//   - baud=N: switches the display rate
//   - bkcmd=N: sets the acknowledgment mode; in mode 3 every other command
//     without a scripted reply gets a success status
//   - page N / sendme: tracks and reports the current page
//   - whmi-wri L,... and addt id,ch,L: transparent transfer of L bytes, paced
//     with ready frames every ChunkSize bytes and closed with an end frame
type SimulatedDisplay struct {
	// SetBaudErr is returned by SetBaudRate when set.
	SetBaudErr error
	replies    map[string][][]byte
	rawReplies map[string][]byte
	// ComOK is the liveness reply.
	ComOK    string
	inbound  []byte
	parse    []byte
	written  []byte
	commands []string
	probes   []uint32
	chunks   [][]byte
	chunk    []byte
	bauds    []uint32

	// ChunkSize is the number of bytes acknowledged with each ready frame.
	ChunkSize int
	// EndAfterChunks ends a transfer early after this many chunks when > 0.
	EndAfterChunks int
	// StallAfterChunks stops answering a transfer after this many chunks when > 0.
	StallAfterChunks int
	remaining        int
	ackMode          int
	mu               syncutil.Mutex
	hostBaud         uint32
	displayBaud      uint32
	page             uint8

	// Silent drops every command, like a disconnected panel.
	Silent bool
	// ExtraReady sends a ready frame after the last chunk before the end frame.
	ExtraReady bool
	// RefuseTransfer answers a transfer start with an end frame.
	RefuseTransfer bool
	// Unterminated sends status and transfer codes as single bytes with
	// no terminator after them.
	Unterminated bool
}

// NewSimulatedDisplay returns a display listening at baud. The host side
// starts at the same rate.
func NewSimulatedDisplay(baud uint32) *SimulatedDisplay {
	return &SimulatedDisplay{
		replies:     make(map[string][][]byte),
		rawReplies:  make(map[string][]byte),
		ComOK:       DefaultComOK,
		ChunkSize:   nextion.DefaultChunkSize,
		hostBaud:    baud,
		displayBaud: baud,
		ackMode:     2,
	}
}

// Reply scripts the frames sent in answer to cmd. Each frame is terminated.
func (s *SimulatedDisplay) Reply(cmd string, frames ...[]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[cmd] = frames
}

// ReplyRaw scripts the bytes sent in answer to cmd, without a terminator.
func (s *SimulatedDisplay) ReplyRaw(cmd string, p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawReplies[cmd] = p
}

// Inject queues frames for the host as if the display sent them unprompted.
func (s *SimulatedDisplay) Inject(frames ...[]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range frames {
		s.queue(f)
	}
}

// InjectRaw queues bytes for the host without adding a terminator.
func (s *SimulatedDisplay) InjectRaw(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = append(s.inbound, p...)
}

func (s *SimulatedDisplay) queue(f []byte) {
	s.inbound = append(s.inbound, f...)
	s.inbound = append(s.inbound, nextion.Terminator...)
}

// code queues a status or transfer code.
func (s *SimulatedDisplay) code(b byte) {
	if s.Unterminated {
		s.inbound = append(s.inbound, b)
		return
	}
	s.queue([]byte{b})
}

// Available implements transport.Source.
func (s *SimulatedDisplay) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inbound)
}

// ReadByte implements transport.Source.
func (s *SimulatedDisplay) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inbound) == 0 {
		return 0, transport.ErrNoData
	}
	b := s.inbound[0]
	s.inbound = s.inbound[1:]
	return b, nil
}

// SetBaudRate implements transport.Transport for the host side.
func (s *SimulatedDisplay) SetBaudRate(baud uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetBaudErr != nil {
		return s.SetBaudErr
	}
	s.hostBaud = baud
	s.bauds = append(s.bauds, baud)
	return nil
}

// Write receives bytes from the host.
func (s *SimulatedDisplay) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written = append(s.written, p...)
	if s.hostBaud != s.displayBaud || s.Silent {
		if bytes.Contains(p, []byte(nextion.CmdConnect)) {
			s.probes = append(s.probes, s.hostBaud)
		}
		return len(p), nil
	}

	for _, b := range p {
		if s.remaining > 0 {
			s.receiveData(b)
			continue
		}
		s.parse = append(s.parse, b)
		if bytes.HasSuffix(s.parse, nextion.Terminator) {
			cmd := string(s.parse[:len(s.parse)-len(nextion.Terminator)])
			s.parse = s.parse[:0]
			s.handle(cmd)
		}
	}
	return len(p), nil
}

func (s *SimulatedDisplay) receiveData(b byte) {
	s.chunk = append(s.chunk, b)
	s.remaining--
	if len(s.chunk) < s.ChunkSize && s.remaining > 0 {
		return
	}

	s.chunks = append(s.chunks, s.chunk)
	s.chunk = nil
	n := len(s.chunks)

	switch {
	case s.StallAfterChunks > 0 && n >= s.StallAfterChunks:
		s.remaining = 0
	case s.EndAfterChunks > 0 && n >= s.EndAfterChunks:
		s.remaining = 0
		s.code(byte(nextion.CodeTransparentDataEnd))
	case s.remaining == 0:
		if s.ExtraReady {
			s.code(byte(nextion.CodeTransparentDataReady))
		}
		s.code(byte(nextion.CodeTransparentDataEnd))
	default:
		s.code(byte(nextion.CodeTransparentDataReady))
	}
}

func (s *SimulatedDisplay) handle(cmd string) {
	if cmd == "" {
		return
	}
	s.commands = append(s.commands, cmd)

	if raw, ok := s.rawReplies[cmd]; ok {
		s.inbound = append(s.inbound, raw...)
		return
	}
	if frames, ok := s.replies[cmd]; ok {
		for _, f := range frames {
			s.queue(f)
		}
		return
	}

	name, arg, _ := strings.Cut(cmd, "=")
	switch {
	case cmd == nextion.CmdConnect:
		s.probes = append(s.probes, s.hostBaud)
		s.queue([]byte(s.ComOK))
		return
	case name == nextion.CmdBaud:
		if n, err := strconv.ParseUint(arg, 10, 32); err == nil {
			s.displayBaud = uint32(n)
		}
		return
	case name == nextion.CmdBkcmd:
		if n, err := strconv.Atoi(arg); err == nil {
			s.ackMode = n
		}
	case cmd == nextion.CmdSendMe:
		s.queue([]byte{byte(nextion.CodeCurrentPage), s.page})
		return
	case strings.HasPrefix(cmd, "page "):
		if n, err := strconv.ParseUint(strings.TrimPrefix(cmd, "page "), 10, 8); err == nil {
			s.page = uint8(n)
		}
	case strings.HasPrefix(cmd, nextion.CmdSDUpload+" "):
		s.startTransfer(strings.TrimPrefix(cmd, nextion.CmdSDUpload+" "), 0)
		return
	case strings.HasPrefix(cmd, "addt "):
		s.startTransfer(strings.TrimPrefix(cmd, "addt "), 2)
		return
	}

	if s.ackMode == 3 {
		s.code(byte(nextion.StatusSuccess))
	}
}

// startTransfer reads the length from the field at index field of the
// comma separated arguments.
func (s *SimulatedDisplay) startTransfer(args string, field int) {
	fields := strings.Split(args, ",")
	if field >= len(fields) {
		s.code(byte(nextion.StatusInvalidParamCount))
		return
	}
	n, err := strconv.Atoi(fields[field])
	if err != nil || n <= 0 {
		s.code(byte(nextion.StatusInvalidParamCount))
		return
	}
	if s.RefuseTransfer {
		s.code(byte(nextion.CodeTransparentDataEnd))
		return
	}
	s.remaining = n
	s.chunks = nil
	s.code(byte(nextion.CodeTransparentDataReady))
}

// Commands returns the instructions the display parsed, in order.
func (s *SimulatedDisplay) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Probes returns the host rate of every liveness probe, answered or not.
func (s *SimulatedDisplay) Probes() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.probes...)
}

// Chunks returns the transparent data received by the last transfer, split
// at the points the display acknowledged.
func (s *SimulatedDisplay) Chunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.chunks...)
}

// Received returns the concatenation of Chunks.
func (s *SimulatedDisplay) Received() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Join(s.chunks, nil)
}

// Written returns every byte the host wrote.
func (s *SimulatedDisplay) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.written...)
}

// BaudChanges returns every rate the host switched to, in order.
func (s *SimulatedDisplay) BaudChanges() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.bauds...)
}

// DisplayBaud returns the rate the display is listening at.
func (s *SimulatedDisplay) DisplayBaud() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayBaud
}

// HostBaud returns the rate the host last configured.
func (s *SimulatedDisplay) HostBaud() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostBaud
}

func (s *SimulatedDisplay) String() string {
	return fmt.Sprintf("SimulatedDisplay(%d baud)", s.DisplayBaud())
}
