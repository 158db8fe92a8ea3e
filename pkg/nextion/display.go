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
	"github.com/ZaparooProject/go-nextion/pkg/transport"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Display is a protocol engine bound to one transport. It is not safe for
// concurrent use: Poll and every command must be called from one goroutine,
// and handlers must not call back into the Display.
type Display struct {
	transport     transport.Transport
	clock         clockwork.Clock
	decoder       *Decoder
	backlog       []Frame
	reg           *registry
	uploadCommand string
	content       []byte
	info          DeviceInfo
	timing        Timing
	chunkSize     int
	baud          uint32
	state         ConnectionState
	page          int16
	contentKind   ValueKind
	sleep         SleepState
	ackMode       AckMode
}

// Option configures a Display.
type Option func(*Display)

// WithClock sets the clock used by bounded waits.
func WithClock(c clockwork.Clock) Option {
	return func(d *Display) { d.clock = c }
}

// WithTiming sets the cycle length and cycle budgets of bounded waits.
func WithTiming(t Timing) Option {
	return func(d *Display) { d.timing = t }
}

// WithBufferSize sets the frame decoder capacity.
func WithBufferSize(n int) Option {
	return func(d *Display) { d.decoder = NewDecoder(n) }
}

// WithChunkSize sets the upload chunk size.
func WithChunkSize(n int) Option {
	return func(d *Display) {
		if n > 0 {
			d.chunkSize = n
		}
	}
}

// WithUploadCommand sets the format of the command that starts an upload.
// It receives the payload length and the current baud rate.
func WithUploadCommand(format string) Option {
	return func(d *Display) {
		if format != "" {
			d.uploadCommand = format
		}
	}
}

// WithAckMode sets the acknowledgment mode the display is known to be in.
// Use SetAckMode to change the display's setting.
func WithAckMode(m AckMode) Option {
	return func(d *Display) { d.ackMode = m }
}

// WithBaud records the rate the transport was opened at.
func WithBaud(baud uint32) Option {
	return func(d *Display) { d.baud = baud }
}

// New returns a Display driving t. The display powers up with bkcmd=2, so
// the default acknowledgment mode is AckFailure.
func New(t transport.Transport, opts ...Option) *Display {
	d := &Display{
		transport:     t,
		clock:         clockwork.NewRealClock(),
		decoder:       NewDecoder(DefaultBufferSize),
		reg:           newRegistry(),
		timing:        DefaultTiming,
		chunkSize:     DefaultChunkSize,
		uploadCommand: DefaultUploadCommand,
		baud:          DefaultBaud,
		ackMode:       AckFailure,
		page:          -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// waiter inspects frames during a bounded wait. It returns true when the
// frame completed the wait; that frame is then not dispatched.
type waiter func(f Frame) bool

// Poll drains the transport and dispatches every completed frame. It returns
// the code of the last dispatched frame. Poll never blocks.
func (d *Display) Poll() (Code, bool) {
	code, ok, _ := d.poll(nil, nil)
	return code, ok
}

// poll drains the transport and dispatches completed frames. The first frame
// accepted by w is consumed instead of dispatched; frames after it are kept
// for the next poll so they are handled in order. Bytes accepted by single
// are taken as one byte replies even without a terminator.
func (d *Display) poll(w waiter, single func(byte) bool) (last Code, dispatched, matched bool) {
	frames, err := d.decoder.PollSingle(d.transport, single)
	if err != nil {
		log.Debug().Err(err).Msg("nextion: transport read failed")
	}
	if len(d.backlog) > 0 {
		frames = append(d.backlog, frames...)
		d.backlog = nil
	}

	for i, f := range frames {
		if w != nil && w(f) {
			d.backlog = frames[i+1:]
			return last, dispatched, true
		}
		d.dispatch(f)
		last, dispatched = f.Code(), true
	}

	return last, dispatched, false
}

// await polls until w is satisfied or cycles run out. Frames not taken by w
// are dispatched as usual.
func (d *Display) await(cycles int, w waiter) bool {
	return d.awaitReply(cycles, nil, w)
}

// awaitReply is await for a one byte reply: bytes accepted by single that
// arrive while no frame is in progress reach w without a terminator.
func (d *Display) awaitReply(cycles int, single func(byte) bool, w waiter) bool {
	for range cycles {
		if _, _, ok := d.poll(w, single); ok {
			return true
		}
		d.clock.Sleep(d.timing.Cycle)
	}
	return false
}

// WaitFrame polls for up to cycles until a frame arrives. The frame is
// dispatched as by Poll and its code returned.
func (d *Display) WaitFrame(cycles int) (Code, bool) {
	var code Code
	ok := d.await(cycles, func(f Frame) bool {
		d.dispatch(f)
		code = f.Code()
		return true
	})
	return code, ok
}

// WaitTouch polls for up to cycles until a component touch event arrives.
// The event is dispatched to its handler and returned; other frames are
// dispatched as they come.
func (d *Display) WaitTouch(cycles int) (Event, bool) {
	var ev Event
	ok := d.await(cycles, func(f Frame) bool {
		e, isEvent := parseEvent(f)
		if !isEvent {
			return false
		}
		d.dispatch(f)
		ev = e
		return true
	})
	return ev, ok
}

// discardInput drops a partial frame and everything already received.
func (d *Display) discardInput() {
	d.decoder.Reset()
	d.backlog = nil
	for n := d.transport.Available(); n > 0; n-- {
		if _, err := d.transport.ReadByte(); err != nil {
			return
		}
	}
}

func (d *Display) setContent(p []byte, kind ValueKind) {
	d.content = append(d.content[:0], p...)
	d.contentKind = kind
}

// State returns the connection state set by Connect.
func (d *Display) State() ConnectionState {
	return d.state
}

// Connected reports whether the last Connect succeeded.
func (d *Display) Connected() bool {
	return d.state == StateConnected
}

// Sleeping returns the sleep state last reported by the display.
func (d *Display) Sleeping() SleepState {
	return d.sleep
}

// Page returns the last page number reported by the display, or -1.
func (d *Display) Page() int {
	return int(d.page)
}

// Content returns the payload of the last string or numeric data frame. The
// slice is owned by the Display and only valid until the next call to Poll
// or any command.
func (d *Display) Content() ([]byte, ValueKind) {
	return d.content, d.contentKind
}

// Info returns what the display reported about itself during Connect.
func (d *Display) Info() DeviceInfo {
	return d.info
}

// Baud returns the rate the engine believes the link runs at.
func (d *Display) Baud() uint32 {
	return d.baud
}

// AckMode returns the acknowledgment mode in effect.
func (d *Display) AckMode() AckMode {
	return d.ackMode
}

// Overflows returns how many partial frames the decoder dropped.
func (d *Display) Overflows() int {
	return d.decoder.Overflows()
}
