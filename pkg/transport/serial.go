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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/go-nextion/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

const (
	// MaxPending bounds the bytes buffered between the reader goroutine and
	// the engine. Oldest bytes are dropped once it is exceeded.
	MaxPending  = 64 * 1024
	readTimeout = 20 * time.Millisecond
	readChunk   = 256
)

// Serial is a Transport over a serial port. A background goroutine moves
// inbound bytes into a bounded buffer so Available and ReadByte never block.
type Serial struct {
	port    SerialPort
	readErr error
	done    chan struct{}
	path    string
	pending []byte
	wg      sync.WaitGroup
	mu      syncutil.Mutex // protects pending, readErr, baud, closed
	baud    uint32
	closed  bool
}

// OpenSerial opens path at the given rate with the default port factory.
func OpenSerial(path string, baud uint32) (*Serial, error) {
	return OpenSerialWithFactory(path, baud, DefaultSerialPortFactory)
}

// OpenSerialWithFactory opens path using factory and starts the reader.
func OpenSerialWithFactory(path string, baud uint32, factory SerialPortFactory) (*Serial, error) {
	port, err := factory(path, Mode(baud))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	s := &Serial{
		port: port,
		path: path,
		baud: baud,
		done: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.readLoop()

	log.Debug().Str("path", path).Uint32("baud", baud).Msg("serial transport opened")
	return s, nil
}

func (s *Serial) readLoop() {
	defer s.wg.Done()
	buf := make([]byte, readChunk)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.pending = append(s.pending, buf[:n]...)
			if over := len(s.pending) - MaxPending; over > 0 {
				s.pending = append(s.pending[:0], s.pending[over:]...)
				log.Warn().Str("path", s.path).Int("dropped", over).Msg("serial input overflow")
			}
			s.mu.Unlock()
		}

		if err != nil {
			s.mu.Lock()
			closed := s.closed
			if !closed {
				s.readErr = err
			}
			s.mu.Unlock()

			if closed {
				return
			}
			if IsDisconnectionError(err) {
				log.Info().Str("path", s.path).Err(err).Msg("serial device disconnected")
			} else {
				log.Error().Str("path", s.path).Err(err).Msg("failed to read from serial port")
			}
			return
		}
	}
}

// Available implements Source.
func (s *Serial) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ReadByte implements Source.
func (s *Serial) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, ErrNoData
	}
	b := s.pending[0]
	s.pending = s.pending[1:]
	return b, nil
}

// Write implements io.Writer.
func (s *Serial) Write(p []byte) (int, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return 0, errors.New("serial transport closed")
	}

	n, err := s.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to port: %w", err)
	}
	return n, nil
}

// SetBaudRate switches the port speed. Bytes received at the previous rate
// are discarded since they cannot be decoded at the new one.
func (s *Serial) SetBaudRate(baud uint32) error {
	if err := s.port.SetMode(Mode(baud)); err != nil {
		return fmt.Errorf("failed to set baud rate %d: %w", baud, err)
	}
	if err := s.port.ResetInputBuffer(); err != nil {
		log.Debug().Err(err).Msg("failed to reset serial input buffer")
	}

	s.mu.Lock()
	s.baud = baud
	s.pending = s.pending[:0]
	s.mu.Unlock()
	return nil
}

// Baud returns the current port speed.
func (s *Serial) Baud() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baud
}

// Path returns the device path the transport was opened on.
func (s *Serial) Path() string {
	return s.path
}

// Err returns the error that stopped the reader, if any.
func (s *Serial) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readErr
}

// Close stops the reader goroutine and closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	err := s.port.Close()
	s.wg.Wait()

	log.Debug().Str("path", s.path).Msg("serial transport closed")
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}
