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

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDir = "/config"

func TestNewConfigWritesDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)

	path := filepath.Join(testDir, CfgFile)
	assert.Equal(t, path, cfg.Path())

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_schema = 1")
	assert.Contains(t, string(data), "[display]")
	assert.Contains(t, string(data), "ack_mode = 'failure'")

	assert.Equal(t, uint32(nextion.DefaultBaud), cfg.Baud())
	assert.Equal(t, nextion.AckFailure, cfg.AckMode())
	assert.Equal(t, nextion.DefaultTiming, cfg.Timing())
	assert.Equal(t, nextion.DefaultChunkSize, cfg.ChunkSize())
	assert.Equal(t, nextion.DefaultUploadCommand, cfg.UploadCommand())
	assert.Equal(t, nextion.DefaultBufferSize, cfg.BufferSize())
	assert.False(t, cfg.DebugLogging())
}

func TestNewConfigMergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	content := `config_schema = 1
debug_logging = true

[display]
port = "/dev/ttyUSB0"
baud = 115200
ack_mode = "all"

[timing]
cycle_us = 500
`
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, CfgFile), []byte(content), 0o600))

	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)

	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port())
	assert.Equal(t, uint32(115200), cfg.Baud())
	assert.Equal(t, nextion.AckAll, cfg.AckMode())

	timing := cfg.Timing()
	assert.Equal(t, 500*time.Microsecond, timing.Cycle)
	assert.Equal(t, nextion.DefaultTiming.ResponseCycles, timing.ResponseCycles, "unset keys keep defaults")
	assert.Equal(t, nextion.DefaultBufferSize, cfg.BufferSize())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "schema mismatch", content: "config_schema = 2\n"},
		{name: "bad toml", content: "config_schema = \n"},
		{name: "unsupported baud", content: "config_schema = 1\n[display]\nbaud = 12345\n"},
		{name: "unknown ack mode", content: "config_schema = 1\n[display]\nack_mode = \"sometimes\"\n"},
		{name: "tiny buffer", content: "config_schema = 1\n[display]\nbuffer_size = 2\n"},
		{name: "zero probe cycles", content: "config_schema = 1\n[timing]\nprobe_cycles = 0\n"},
		{name: "upload command without length", content: "config_schema = 1\n[upload]\ncommand = \"whmi-wri\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, CfgFile), []byte(tt.content), 0o600))

			_, err := NewConfig(fs, testDir, BaseDefaults)
			require.Error(t, err)
		})
	}
}

func TestLoadAcceptsAnyRate(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	content := "config_schema = 1\n[display]\nbaud = 0\n"
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, CfgFile), []byte(content), 0o600))

	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), cfg.Baud())
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)

	cfg.SetPort("COM4")
	cfg.SetBaud(921600)
	cfg.SetAckMode(nextion.AckAll)
	cfg.SetDebugLogging(true)
	require.NoError(t, cfg.Save())

	reloaded, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "COM4", reloaded.Port())
	assert.Equal(t, uint32(921600), reloaded.Baud())
	assert.Equal(t, nextion.AckAll, reloaded.AckMode())
	assert.True(t, reloaded.DebugLogging())
}

func TestConfigEnvOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	t.Setenv(CfgEnv, "/elsewhere/custom.toml")

	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/custom.toml", cfg.Path())

	exists, err := afero.Exists(fs, "/elsewhere/custom.toml")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOptionsConfigureDisplay(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg, err := NewConfig(fs, testDir, BaseDefaults)
	require.NoError(t, err)
	cfg.SetAckMode(nextion.AckNone)

	d := nextion.New(nil, cfg.Options()...)
	assert.Equal(t, nextion.AckNone, d.AckMode())
}

func TestSaveWithoutPath(t *testing.T) {
	t.Parallel()

	cfg := &Instance{fs: afero.NewMemMapFs()}
	require.Error(t, cfg.Save())
	require.Error(t, cfg.Load())
}

func TestNewConfigAt(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	cfg, err := NewConfigAt(fs, "/etc/nextion/panel.toml", BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, "/etc/nextion/panel.toml", cfg.Path())

	exists, err := afero.Exists(fs, "/etc/nextion/panel.toml")
	require.NoError(t, err)
	assert.True(t, exists)
}
