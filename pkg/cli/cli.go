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

package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/go-nextion/pkg/config"
	"github.com/ZaparooProject/go-nextion/pkg/helpers"
	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/spf13/afero"
)

// AppVersion is set at build time.
var AppVersion = "DEVELOPMENT"

// commandList collects a repeatable string flag.
type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, "; ")
}

func (c *commandList) Set(v string) error {
	if v == "" {
		return errors.New("empty command")
	}
	*c = append(*c, v)
	return nil
}

type Flags struct {
	Config   *string
	Port     *string
	Baud     *uint
	Get      *string
	Upload   *string
	AckMode  *string
	Commands commandList
	Page     *bool
	Listen   *bool
	List     *bool
	Version  *bool
	Debug    *bool
	set      map[string]bool
}

// SetupFlags defines the nextionctl flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		Config: fs.String(
			"config",
			"",
			"path to config file",
		),
		Port: fs.String(
			"port",
			"",
			"serial port of the display, overrides config",
		),
		Baud: fs.Uint(
			"baud",
			0,
			"target baud rate, 0 accepts whichever rate answers",
		),
		Get: fs.String(
			"get",
			"",
			"print the value of an attribute, e.g. t0.txt",
		),
		Upload: fs.String(
			"upload",
			"",
			"upload a file to the display",
		),
		AckMode: fs.String(
			"ack",
			"",
			"acknowledgment mode: none, success, failure or all",
		),
		Page: fs.Bool(
			"page",
			false,
			"print the current page",
		),
		Listen: fs.Bool(
			"listen",
			false,
			"print display events until interrupted",
		),
		List: fs.Bool(
			"list",
			false,
			"list serial ports and exit",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"enable debug logging",
		),
	}
	fs.Var(&f.Commands, "cmd", "send a command, may be repeated")
	return f
}

// Parse parses args and records which flags were passed.
func (f *Flags) Parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return nil
}

func (f *Flags) isSet(name string) bool {
	return f.set[name]
}

// Apply copies passed flags over the loaded config.
func (f *Flags) Apply(cfg *config.Instance) error {
	if f.isSet("port") {
		cfg.SetPort(*f.Port)
	}
	if f.isSet("baud") {
		cfg.SetBaud(uint32(*f.Baud)) //nolint:gosec // validated by Connect candidates
	}
	if f.isSet("ack") {
		mode, err := nextion.ParseAckMode(*f.AckMode)
		if err != nil {
			return fmt.Errorf("invalid -ack: %w", err)
		}
		cfg.SetAckMode(mode)
	}
	if f.isSet("debug") {
		cfg.SetDebugLogging(*f.Debug)
	}
	return nil
}

// Setup loads the config and initializes logging.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	fs afero.Fs,
	f *Flags,
	defaultConfig config.Values,
	writers []io.Writer,
) (*config.Instance, error) {
	var (
		cfg *config.Instance
		err error
	)
	if *f.Config != "" {
		cfg, err = config.NewConfigAt(fs, *f.Config, defaultConfig)
	} else {
		cfg, err = config.NewConfig(fs, helpers.ConfigDir(), defaultConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if err := f.Apply(cfg); err != nil {
		return nil, err
	}

	err = helpers.InitLogging(helpers.LogDir(), cfg.DebugLogging(), writers)
	if err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	return cfg, nil
}
