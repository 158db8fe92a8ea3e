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
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"
)

// write sends cmd followed by the terminator.
func (d *Display) write(cmd string) error {
	buf := make([]byte, 0, len(cmd)+len(Terminator))
	buf = append(buf, cmd...)
	buf = append(buf, Terminator...)

	n, err := d.transport.Write(buf)
	if err != nil {
		return fmt.Errorf("failed to write command %q: %w", cmd, err)
	}
	if n != len(buf) {
		return fmt.Errorf("incomplete command write: wrote %d of %d bytes", n, len(buf))
	}

	log.Debug().Str("command", cmd).Msg("nextion: sent command")
	return nil
}

// ExecuteCommand sends cmd. In AckAll mode it waits for the display's status
// byte and returns it; otherwise it returns StatusSent without waiting. A
// missing status returns StatusTimeout and ErrTimeout.
func (d *Display) ExecuteCommand(cmd string) (Status, error) {
	if err := d.write(cmd); err != nil {
		return StatusFailed, err
	}
	if d.ackMode != AckAll {
		return StatusSent, nil
	}
	return d.awaitStatus(cmd)
}

func (d *Display) awaitStatus(cmd string) (Status, error) {
	status := StatusTimeout
	ok := d.awaitReply(d.timing.ResponseCycles, isStatusByte, func(f Frame) bool {
		if len(f) != 1 || !isStatusCode(f.Code()) {
			return false
		}
		status = Status(f.Code())
		return true
	})
	if !ok {
		log.Debug().Str("command", cmd).Msg("nextion: no status reply")
		return StatusTimeout, fmt.Errorf("%s: %w", cmd, ErrTimeout)
	}
	if status != StatusSuccess {
		log.Debug().Str("command", cmd).Stringer("status", status).Msg("nextion: command rejected")
	}
	return status, nil
}

// SetAckMode changes which commands the display acknowledges (bkcmd). With
// AckAll the reply to bkcmd itself is awaited.
func (d *Display) SetAckMode(mode AckMode) (Status, error) {
	d.ackMode = mode
	return d.ExecuteCommand(fmt.Sprintf("%s=%d", CmdBkcmd, mode))
}

// Query sends cmd and waits for a string or numeric data frame. If the
// display answers with a failure status instead, a *StatusError is returned.
func (d *Display) Query(cmd string) (Value, error) {
	if err := d.write(cmd); err != nil {
		return Value{}, err
	}

	var (
		v      Value
		qryErr error
	)
	ok := d.awaitReply(d.timing.ResponseCycles, isFailureByte, func(f Frame) bool {
		p := f.Payload()
		switch f.Code() {
		case CodeStringData:
			d.setContent(p, KindText)
			v = Value{Kind: KindText, Text: string(p)}
			return true
		case CodeNumericData:
			if len(p) < numericDataLen {
				qryErr = fmt.Errorf("%w: numeric data of %d bytes", ErrUnexpectedFrame, len(p))
				return true
			}
			d.setContent(p[:numericDataLen], KindNumber)
			v = Value{Kind: KindNumber, Number: binary.LittleEndian.Uint32(p)}
			return true
		}
		if len(f) == 1 && isStatusCode(f.Code()) && Status(f.Code()) != StatusSuccess {
			qryErr = &StatusError{Op: cmd, Status: Status(f.Code())}
			return true
		}
		return false
	})
	if !ok {
		return Value{}, fmt.Errorf("%s: %w", cmd, ErrTimeout)
	}
	if qryErr != nil {
		return Value{}, qryErr
	}
	return v, nil
}

// Get queries an attribute, e.g. "t0.txt" or "n0.val".
func (d *Display) Get(attr string) (Value, error) {
	return d.Query(CmdGet + " " + attr)
}

// GetText queries a string attribute.
func (d *Display) GetText(attr string) (string, error) {
	v, err := d.Get(attr)
	if err != nil {
		return "", err
	}
	if v.Kind != KindText {
		return "", fmt.Errorf("%w: %s is numeric", ErrUnexpectedFrame, attr)
	}
	return v.Text, nil
}

// GetNumber queries a numeric attribute.
func (d *Display) GetNumber(attr string) (int32, error) {
	v, err := d.Get(attr)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindNumber {
		return 0, fmt.Errorf("%w: %s is text", ErrUnexpectedFrame, attr)
	}
	return v.Int(), nil
}

// CurrentPage asks the display for its current page and waits for the reply.
func (d *Display) CurrentPage() (uint8, error) {
	if err := d.write(CmdSendMe); err != nil {
		return 0, err
	}

	var page uint8
	ok := d.await(d.timing.ResponseCycles, func(f Frame) bool {
		if f.Code() != CodeCurrentPage || len(f.Payload()) < currentPageLen {
			return false
		}
		page = f.Payload()[0]
		return true
	})
	if !ok {
		return 0, fmt.Errorf("%s: %w", CmdSendMe, ErrTimeout)
	}

	d.page = int16(page)
	return page, nil
}
