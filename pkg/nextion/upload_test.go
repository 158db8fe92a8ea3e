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

package nextion_test

import (
	"bytes"
	"io"
	"strconv"
	"testing"

	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/ZaparooProject/go-nextion/pkg/testing/mocks"
	"github.com/sigurn/crc16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChunk = 100

func payload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		// skip 0xFF so stray data can never look like a terminator
		p[i] = byte(i % 0xFF)
	}
	return p
}

func newUploadDisplay(t *testing.T) (*nextion.Display, *mocks.SimulatedDisplay) {
	t.Helper()
	sim := mocks.NewSimulatedDisplay(9600)
	sim.ChunkSize = testChunk
	return newDisplay(t, sim, nextion.WithChunkSize(testChunk)), sim
}

func TestUpload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		length     int
		wantChunks int
		extraReady bool
	}{
		{name: "partial last chunk", length: 250, wantChunks: 3},
		{name: "exact multiple", length: 200, wantChunks: 2},
		{name: "single short chunk", length: 7, wantChunks: 1},
		{name: "ready after last chunk", length: 250, wantChunks: 3, extraReady: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, sim := newUploadDisplay(t)
			sim.ExtraReady = tt.extraReady
			data := payload(tt.length)

			stats, err := d.Upload(bytes.NewReader(data), tt.length)
			require.NoError(t, err)

			assert.Equal(t, tt.length, stats.Bytes)
			assert.Equal(t, tt.wantChunks, stats.Chunks)
			assert.Equal(t, crc16.Checksum(data, crc16.MakeTable(crc16.CRC16_MODBUS)), stats.Checksum)
			assert.Equal(t, data, sim.Received())
			assert.Len(t, sim.Chunks(), tt.wantChunks)
			assert.Contains(t, sim.Commands(), "whmi-wri "+strconv.Itoa(tt.length)+",9600,0")
		})
	}
}

func TestUploadStopsAtLength(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)
	// the reader holds more than the declared length
	data := payload(500)

	stats, err := d.Upload(bytes.NewReader(data), 150)
	require.NoError(t, err)
	assert.Equal(t, 150, stats.Bytes)
	assert.Equal(t, data[:150], sim.Received())
}

func TestUploadMissingEnd(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)
	sim.StallAfterChunks = 3

	stats, err := d.Upload(bytes.NewReader(payload(250)), 250)
	require.ErrorIs(t, err, nextion.ErrUploadAborted)
	require.ErrorIs(t, err, nextion.ErrTimeout)
	assert.Equal(t, 250, stats.Bytes)
	assert.Len(t, sim.Received(), 250)
}

func TestUploadStallMidTransfer(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)
	sim.StallAfterChunks = 1

	stats, err := d.Upload(bytes.NewReader(payload(250)), 250)
	require.ErrorIs(t, err, nextion.ErrTimeout)
	assert.Equal(t, testChunk, stats.Bytes)
	assert.Equal(t, 1, stats.Chunks)
}

func TestUploadEarlyEnd(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)
	sim.EndAfterChunks = 1

	stats, err := d.Upload(bytes.NewReader(payload(250)), 250)
	require.ErrorIs(t, err, nextion.ErrUploadAborted)
	assert.NotErrorIs(t, err, nextion.ErrTimeout)
	assert.Equal(t, testChunk, stats.Bytes)
}

func TestUploadRefused(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)
	sim.RefuseTransfer = true

	stats, err := d.Upload(bytes.NewReader(payload(10)), 10)
	require.ErrorIs(t, err, nextion.ErrUploadAborted)
	assert.Equal(t, 0, stats.Bytes)
	assert.Empty(t, sim.Received())
}

func TestUploadStatusReply(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)
	sim.Reply("whmi-wri 10,9600,0", []byte{byte(nextion.StatusIOFailed)})

	_, err := d.Upload(bytes.NewReader(payload(10)), 10)
	require.ErrorIs(t, err, nextion.ErrUploadAborted)
	var statusErr *nextion.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, nextion.StatusIOFailed, statusErr.Status)
}

func TestUploadUnterminatedCodes(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)
	sim.Unterminated = true

	data := payload(250)
	stats, err := d.Upload(bytes.NewReader(data), len(data))
	require.NoError(t, err)
	assert.Equal(t, 250, stats.Bytes)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, data, sim.Received())
}

func TestUploadAbortsOnUnexpectedFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply []byte
	}{
		{name: "touch event", reply: touchFrame(0, 1, nextion.Press)},
		{name: "success status", reply: []byte{byte(nextion.StatusSuccess)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, sim := newUploadDisplay(t)
			sim.Reply("whmi-wri 10,9600,0", tt.reply)

			stats, err := d.Upload(bytes.NewReader(payload(10)), 10)
			require.ErrorIs(t, err, nextion.ErrUploadAborted)
			require.ErrorIs(t, err, nextion.ErrUnexpectedFrame)
			assert.Equal(t, 0, stats.Bytes)
		})
	}
}

func TestUploadDispatchesEarlierFrames(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)

	var events []nextion.Event
	d.AttachDefault(nextion.EventHandlerFunc(func(ev nextion.Event) { events = append(events, ev) }))

	sim.Inject(touchFrame(0, 4, nextion.Release))
	stats, err := d.Upload(bytes.NewReader(payload(10)), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Bytes)
	require.Len(t, events, 1)
	assert.Equal(t, uint8(4), events[0].ID)
}

func TestUploadShortReader(t *testing.T) {
	t.Parallel()

	d, sim := newUploadDisplay(t)

	stats, err := d.Upload(bytes.NewReader(payload(150)), 250)
	require.ErrorIs(t, err, nextion.ErrUploadAborted)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, testChunk, stats.Bytes)
	assert.Len(t, sim.Received(), testChunk)
}

func TestUploadInvalidLength(t *testing.T) {
	t.Parallel()

	for _, length := range []int{0, -1} {
		d, sim := newUploadDisplay(t)
		_, err := d.Upload(bytes.NewReader(nil), length)
		require.ErrorIs(t, err, nextion.ErrInvalidLength)
		assert.Empty(t, sim.Written())
	}
}

func TestUploadCustomCommand(t *testing.T) {
	t.Parallel()

	sim := mocks.NewSimulatedDisplay(9600)
	sim.Silent = true
	d := newDisplay(t, sim, nextion.WithUploadCommand("twfile \"sd0/a.tft\",%d,%d"))

	_, err := d.Upload(bytes.NewReader(payload(10)), 10)
	require.ErrorIs(t, err, nextion.ErrTimeout)
	assert.True(t, bytes.HasPrefix(sim.Written(), []byte(`twfile "sd0/a.tft",10,9600`)))
}

func TestWaveData(t *testing.T) {
	t.Parallel()

	sim := mocks.NewSimulatedDisplay(9600)
	d := newDisplay(t, sim)

	samples := []byte{10, 20, 30, 40, 50}
	require.NoError(t, d.WaveData(1, 0, samples))
	assert.Equal(t, samples, sim.Received())
	assert.Equal(t, []string{"addt 1,0,5"}, sim.Commands())

	require.ErrorIs(t, d.WaveData(1, 0, nil), nextion.ErrInvalidLength)
}

func TestWaveDataUnterminatedCodes(t *testing.T) {
	t.Parallel()

	sim := mocks.NewSimulatedDisplay(9600)
	sim.Unterminated = true
	d := newDisplay(t, sim)

	require.NoError(t, d.WaveData(2, 1, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, sim.Received())
}
