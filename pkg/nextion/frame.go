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

	"github.com/ZaparooProject/go-nextion/pkg/transport"
	"github.com/rs/zerolog/log"
)

// minBufferSize fits one terminator and a command code.
const minBufferSize = 4

// Frame is one terminator delimited unit received from the display, without
// its terminator. Frames produced by Decoder are never empty.
type Frame []byte

// Code returns the frame's command code.
func (f Frame) Code() Code {
	return Code(f[0])
}

// Payload returns the bytes following the command code.
func (f Frame) Payload() []byte {
	return f[1:]
}

// Decoder splits the inbound byte stream into frames. Its buffer has a fixed
// capacity; when it fills up without a terminator the partial frame is
// dropped and decoding resumes with the next byte.
type Decoder struct {
	buf       []byte
	overflows int
}

// NewDecoder returns a decoder holding at most size bytes of a partial frame.
func NewDecoder(size int) *Decoder {
	if size < minBufferSize {
		size = minBufferSize
	}
	return &Decoder{buf: make([]byte, 0, size)}
}

// Feed appends one byte and returns a completed frame, if any. 0xFF is never
// a command code, so it is dropped when no frame is in progress.
func (d *Decoder) Feed(b byte) (Frame, bool) {
	if len(d.buf) == 0 && b == TerminatorByte {
		return nil, false
	}
	d.buf = append(d.buf, b)
	n := len(d.buf)

	if n >= len(Terminator) &&
		d.buf[n-1] == TerminatorByte &&
		d.buf[n-2] == TerminatorByte &&
		d.buf[n-3] == TerminatorByte {
		body := d.buf[:n-len(Terminator)]
		d.buf = d.buf[:0]
		if len(body) == 0 {
			return nil, false
		}
		frame := make(Frame, len(body))
		copy(frame, body)
		return frame, true
	}

	if n == cap(d.buf) {
		log.Warn().Int("size", n).Hex("head", d.buf[:min(n, 8)]).Msg("nextion: frame buffer overflow, dropping partial frame")
		d.buf = d.buf[:0]
		d.overflows++
	}

	return nil, false
}

// Poll drains the bytes currently available from src and returns every frame
// completed by them. It never blocks.
func (d *Decoder) Poll(src transport.Source) ([]Frame, error) {
	return d.PollSingle(src, nil)
}

// PollSingle is Poll for a caller expecting a one byte reply that may come
// without a terminator. A byte accepted by single while no frame is in
// progress is returned as a frame of its own and ends the drain; the bytes
// after it stay in src. A terminator following such a byte is dropped by
// Feed.
func (d *Decoder) PollSingle(src transport.Source, single func(b byte) bool) ([]Frame, error) {
	var frames []Frame
	for n := src.Available(); n > 0; n-- {
		b, err := src.ReadByte()
		if err != nil {
			if errors.Is(err, transport.ErrNoData) {
				break
			}
			return frames, fmt.Errorf("failed to read from transport: %w", err)
		}
		if single != nil && len(d.buf) == 0 && single(b) {
			return append(frames, Frame{b}), nil
		}
		if f, ok := d.Feed(b); ok {
			frames = append(frames, f)
		}
	}
	return frames, nil
}

// Reset drops any partial frame.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Buffered returns the length of the partial frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Capacity returns the decoder's fixed capacity.
func (d *Decoder) Capacity() int {
	return cap(d.buf)
}

// Overflows returns how many partial frames were dropped.
func (d *Decoder) Overflows() int {
	return d.overflows
}
