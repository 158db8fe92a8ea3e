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

package transport_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/go-nextion/pkg/testing/mocks"
	"github.com/ZaparooProject/go-nextion/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

func factoryFor(port *mocks.MockSerialPort) transport.SerialPortFactory {
	return func(_ string, mode *serial.Mode) (transport.SerialPort, error) {
		if err := port.SetMode(mode); err != nil {
			return nil, err
		}
		return port, nil
	}
}

func TestSerialReadsInBackground(t *testing.T) {
	defer goleak.VerifyNone(t)

	port := mocks.NewMockSerialPort()
	port.Feed([]byte{0x88, 0xFF, 0xFF, 0xFF})

	s, err := transport.OpenSerialWithFactory("/dev/ttyUSB0", 9600, factoryFor(port))
	require.NoError(t, err)
	assert.Equal(t, 9600, port.Mode().BaudRate)
	assert.Equal(t, "/dev/ttyUSB0", s.Path())

	require.Eventually(t, func() bool { return s.Available() == 4 }, time.Second, time.Millisecond)

	var got []byte
	for s.Available() > 0 {
		b, err := s.ReadByte()
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, []byte{0x88, 0xFF, 0xFF, 0xFF}, got)

	_, err = s.ReadByte()
	require.ErrorIs(t, err, transport.ErrNoData)

	require.NoError(t, s.Close())
	assert.True(t, port.IsClosed())
}

func TestSerialWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	port := mocks.NewMockSerialPort()
	s, err := transport.OpenSerialWithFactory("/dev/ttyUSB0", 9600, factoryFor(port))
	require.NoError(t, err)

	n, err := s.Write([]byte("connect\xFF\xFF\xFF"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, []byte("connect\xFF\xFF\xFF"), port.Written())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	_, err = s.Write([]byte("x"))
	require.Error(t, err)
}

func TestSerialSetBaudRate(t *testing.T) {
	defer goleak.VerifyNone(t)

	port := mocks.NewMockSerialPort()
	port.Feed([]byte{0x01, 0x02, 0x03})

	s, err := transport.OpenSerialWithFactory("/dev/ttyUSB0", 9600, factoryFor(port))
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	require.Eventually(t, func() bool { return s.Available() == 3 }, time.Second, time.Millisecond)

	require.NoError(t, s.SetBaudRate(115200))
	assert.Equal(t, uint32(115200), s.Baud())
	assert.Equal(t, 115200, port.Mode().BaudRate)
	assert.Equal(t, 0, s.Available(), "bytes from the old rate are dropped")
	assert.Equal(t, 1, port.InputFlushes())

	port.SetModeErr = errors.New("unsupported")
	require.Error(t, s.SetBaudRate(921600))
	assert.Equal(t, uint32(115200), s.Baud())
}

func TestSerialReadError(t *testing.T) {
	defer goleak.VerifyNone(t)

	port := mocks.NewMockSerialPort()
	readErr := errors.New("read /dev/ttyUSB0: input/output error")
	port.ReadError = readErr

	s, err := transport.OpenSerialWithFactory("/dev/ttyUSB0", 9600, factoryFor(port))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Err() != nil }, time.Second, time.Millisecond)
	_, err = s.ReadByte()
	require.ErrorIs(t, err, readErr)

	require.NoError(t, s.Close())
}

func TestOpenSerialFailures(t *testing.T) {
	t.Parallel()

	openErr := errors.New("no such file or directory")
	_, err := transport.OpenSerialWithFactory("/dev/ttyUSB9", 9600,
		func(string, *serial.Mode) (transport.SerialPort, error) { return nil, openErr })
	require.ErrorIs(t, err, openErr)

	port := mocks.NewMockSerialPort()
	port.TimeoutErr = errors.New("timeout unsupported")
	_, err = transport.OpenSerialWithFactory("/dev/ttyUSB0", 9600, factoryFor(port))
	require.Error(t, err)
	assert.True(t, port.IsClosed())
}

func TestMode(t *testing.T) {
	t.Parallel()

	mode := transport.Mode(115200)
	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.NoParity, mode.Parity)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
}

func TestIsDisconnectionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "io error", err: errors.New("read: input/output error"), want: true},
		{name: "unplugged", err: errors.New("device not configured"), want: true},
		{name: "broken pipe", err: errors.New("write: broken pipe"), want: true},
		{name: "other", err: errors.New("permission denied"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, transport.IsDisconnectionError(tt.err))
		})
	}
}
