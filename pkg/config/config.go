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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/ZaparooProject/go-nextion/pkg/helpers/syncutil"
	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgEnv        = "NEXTION_CFG"
	CfgFile       = "nextion.toml"
)

type Values struct {
	Display      Display `toml:"display"`
	Upload       Upload  `toml:"upload"`
	Timing       Timing  `toml:"timing"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

type Display struct {
	Port       string `toml:"port,omitempty"`
	AckMode    string `toml:"ack_mode" validate:"ackmode"`
	Baud       uint32 `toml:"baud" validate:"baudrate"`
	BufferSize int    `toml:"buffer_size" validate:"gte=4,lte=65536"`
}

type Timing struct {
	CycleUS        int `toml:"cycle_us" validate:"gte=0,lte=1000000"`
	ResponseCycles int `toml:"response_cycles" validate:"gte=1"`
	ProbeCycles    int `toml:"probe_cycles" validate:"gte=1"`
	UploadCycles   int `toml:"upload_cycles" validate:"gte=1"`
}

type Upload struct {
	Command   string `toml:"command" validate:"required,contains=%d"`
	ChunkSize int    `toml:"chunk_size" validate:"gte=1,lte=65536"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Display: Display{
		Baud:       nextion.DefaultBaud,
		AckMode:    nextion.AckFailure.String(),
		BufferSize: nextion.DefaultBufferSize,
	},
	Timing: Timing{
		CycleUS:        int(nextion.DefaultTiming.Cycle / time.Microsecond),
		ResponseCycles: nextion.DefaultTiming.ResponseCycles,
		ProbeCycles:    nextion.DefaultTiming.ProbeCycles,
		UploadCycles:   nextion.DefaultTiming.UploadCycles,
	},
	Upload: Upload{
		ChunkSize: nextion.DefaultChunkSize,
		Command:   nextion.DefaultUploadCommand,
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("baudrate", validateBaudRate)
	_ = v.RegisterValidation("ackmode", validateAckMode)
	return v
}

// validateBaudRate accepts 0 (any rate) or a rate the display supports.
func validateBaudRate(fl validator.FieldLevel) bool {
	baud := uint32(fl.Field().Uint()) //nolint:gosec // bounded by the field type
	return baud == 0 || baud == nextion.DefaultBaud || slices.Contains(nextion.StandardBauds, baud)
}

func validateAckMode(fl validator.FieldLevel) bool {
	_, err := nextion.ParseAckMode(fl.Field().String())
	return err == nil
}

type Instance struct {
	fs       afero.Fs
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

// NewConfig loads the config file from configDir, or from the path in the
// NEXTION_CFG environment variable when set.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(fs afero.Fs, configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	return NewConfigAt(fs, cfgPath, defaults)
}

// NewConfigAt loads the config file at cfgPath, writing defaults first if it
// doesn't exist.
//
//nolint:gocritic // config struct copied for immutability
func NewConfigAt(fs afero.Fs, cfgPath string, defaults Values) (*Instance, error) {
	cfg := Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := fs.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		log.Info().Msg("saving new default config to disk")

		err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if err := validate.Struct(&newVals); err != nil {
		return fmt.Errorf("invalid config %s: %w", c.cfgPath, err)
	}

	c.vals = newVals
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Path returns the location of the config file.
func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) Port() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.Port
}

func (c *Instance) SetPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.Port = port
}

// Baud returns the target rate for Connect. 0 accepts any rate.
func (c *Instance) Baud() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.Baud
}

func (c *Instance) SetBaud(baud uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.Baud = baud
}

// AckMode returns the configured acknowledgment mode. Load rejects invalid
// names, so the fallback only applies to values set by hand.
func (c *Instance) AckMode() nextion.AckMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mode, err := nextion.ParseAckMode(c.vals.Display.AckMode)
	if err != nil {
		return nextion.AckFailure
	}
	return mode
}

func (c *Instance) SetAckMode(mode nextion.AckMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Display.AckMode = mode.String()
}

func (c *Instance) BufferSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.BufferSize
}

func (c *Instance) Timing() nextion.Timing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return nextion.Timing{
		Cycle:          time.Duration(c.vals.Timing.CycleUS) * time.Microsecond,
		ResponseCycles: c.vals.Timing.ResponseCycles,
		ProbeCycles:    c.vals.Timing.ProbeCycles,
		UploadCycles:   c.vals.Timing.UploadCycles,
	}
}

func (c *Instance) ChunkSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Upload.ChunkSize
}

func (c *Instance) UploadCommand() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Upload.Command
}

// Options converts the config into engine options.
func (c *Instance) Options() []nextion.Option {
	return []nextion.Option{
		nextion.WithTiming(c.Timing()),
		nextion.WithBufferSize(c.BufferSize()),
		nextion.WithChunkSize(c.ChunkSize()),
		nextion.WithUploadCommand(c.UploadCommand()),
		nextion.WithAckMode(c.AckMode()),
	}
}
