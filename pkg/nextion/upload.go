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
	"io"

	"github.com/rs/zerolog/log"
	"github.com/sigurn/crc16"
)

var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// UploadStats describes a transfer.
type UploadStats struct {
	Bytes    int
	Chunks   int
	Checksum uint16 // CRC-16/MODBUS of the bytes sent
}

// uploadSession tracks one transfer. It never writes past length.
type uploadSession struct {
	d      *Display
	src    io.Reader
	buf    []byte
	length int
	sent   int
	chunks int
	crc    uint16
}

func (s *uploadSession) stats() UploadStats {
	return UploadStats{
		Bytes:    s.sent,
		Chunks:   s.chunks,
		Checksum: crc16.Complete(s.crc, crcTable),
	}
}

// sendChunk writes the next chunk, bounded by the remaining length.
func (s *uploadSession) sendChunk() error {
	n := min(len(s.buf), s.length-s.sent)
	chunk := s.buf[:n]

	if _, err := io.ReadFull(s.src, chunk); err != nil {
		return fmt.Errorf("short read at byte %d: %w", s.sent, err)
	}

	written, err := s.d.transport.Write(chunk)
	if err != nil {
		return fmt.Errorf("failed to write chunk at byte %d: %w", s.sent, err)
	}
	if written != n {
		return fmt.Errorf("incomplete chunk write: wrote %d of %d bytes", written, n)
	}

	s.sent += n
	s.chunks++
	s.crc = crc16.Update(s.crc, chunk, crcTable)
	return nil
}

// Upload streams length bytes from r into the display's storage. The display
// paces the transfer: each chunk is sent after a transparent-data-ready frame
// and the transfer ends with a transparent-data-end frame. Any timeout or
// unexpected reply aborts the transfer; what the display already stored is
// left as is.
func (d *Display) Upload(r io.Reader, length int) (UploadStats, error) {
	if length <= 0 {
		return UploadStats{}, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	s := &uploadSession{
		d:      d,
		src:    r,
		buf:    make([]byte, min(d.chunkSize, length)),
		length: length,
		crc:    crc16.Init(crcTable),
	}

	cmd := fmt.Sprintf(d.uploadCommand, length, d.baud)
	if err := d.startTransfer(cmd); err != nil {
		return s.stats(), fmt.Errorf("%w: %w", ErrUploadAborted, err)
	}

	code, err := d.awaitTransfer(cmd)
	if err != nil {
		return s.stats(), fmt.Errorf("%w: %w", ErrUploadAborted, err)
	}
	if code != CodeTransparentDataReady {
		return s.stats(), fmt.Errorf("%w: display ended transfer before it started", ErrUploadAborted)
	}

	log.Debug().Int("length", length).Int("chunk_size", len(s.buf)).Msg("nextion: upload started")

	for {
		if s.sent < s.length {
			if err := s.sendChunk(); err != nil {
				return s.stats(), fmt.Errorf("%w: %w", ErrUploadAborted, err)
			}
		}

		code, err := d.awaitTransfer(cmd)
		if err != nil {
			return s.stats(), fmt.Errorf("%w: after %d of %d bytes: %w", ErrUploadAborted, s.sent, s.length, err)
		}

		if code == CodeTransparentDataEnd {
			if s.sent < s.length {
				return s.stats(), fmt.Errorf("%w: display ended transfer after %d of %d bytes",
					ErrUploadAborted, s.sent, s.length)
			}
			stats := s.stats()
			log.Debug().
				Int("bytes", stats.Bytes).
				Int("chunks", stats.Chunks).
				Uint16("crc", stats.Checksum).
				Msg("nextion: upload complete")
			return stats, nil
		}

		if s.sent == s.length {
			// ready after the last chunk: the next frame must be the end
			code, err = d.awaitTransfer(cmd)
			if err != nil {
				return s.stats(), fmt.Errorf("%w: waiting for end of transfer: %w", ErrUploadAborted, err)
			}
			if code != CodeTransparentDataEnd {
				return s.stats(), fmt.Errorf("%w: display requested data past %d bytes", ErrUploadAborted, s.length)
			}
			return s.stats(), nil
		}
	}
}

// startTransfer dispatches what was received before cmd, then sends it.
// Every frame after cmd belongs to the transfer.
func (d *Display) startTransfer(cmd string) error {
	d.poll(nil, nil)
	return d.write(cmd)
}

func isTransferByte(b byte) bool {
	c := Code(b)
	return c == CodeTransparentDataReady || c == CodeTransparentDataEnd || isStatusByte(b)
}

// awaitTransfer waits for a transparent-data-ready or -end frame. A failure
// status in its place is returned as a *StatusError, any other frame as
// ErrUnexpectedFrame.
func (d *Display) awaitTransfer(op string) (Code, error) {
	var (
		code    Code
		xferErr error
	)
	ok := d.awaitReply(d.timing.UploadCycles, isTransferByte, func(f Frame) bool {
		switch {
		case len(f) == 1 && (f.Code() == CodeTransparentDataReady || f.Code() == CodeTransparentDataEnd):
			code = f.Code()
		case len(f) == 1 && isFailureByte(f[0]):
			xferErr = &StatusError{Op: op, Status: Status(f.Code())}
		default:
			xferErr = fmt.Errorf("%w: % X during transfer", ErrUnexpectedFrame, []byte(f))
		}
		return true
	})
	if !ok {
		return 0, ErrTimeout
	}
	return code, xferErr
}
