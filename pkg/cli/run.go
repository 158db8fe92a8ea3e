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
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-nextion/pkg/config"
	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/ZaparooProject/go-nextion/pkg/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrNoPort is returned when neither the flags nor the config name a port.
var ErrNoPort = errors.New("no serial port configured, use -port or set display.port")

// Port is an open transport that must be closed after use.
type Port interface {
	transport.Transport
	io.Closer
}

// Opener opens the display's transport at a starting rate.
type Opener func(path string, baud uint32) (Port, error)

// DefaultOpener opens a serial port.
func DefaultOpener(path string, baud uint32) (Port, error) {
	s, err := transport.OpenSerial(path, baud)
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by transport
	}
	return s, nil
}

// Env holds the side effects of Run so tests can replace them.
type Env struct {
	Fs        afero.Fs
	Out       io.Writer
	Open      Opener
	ListPorts func() ([]transport.PortInfo, error)
}

// DefaultEnv uses the OS filesystem and real serial ports.
func DefaultEnv(out io.Writer) Env {
	return Env{
		Fs:        afero.NewOsFs(),
		Out:       out,
		Open:      DefaultOpener,
		ListPorts: transport.ListPorts,
	}
}

// Run performs the actions selected by f. With -listen it returns when ctx
// is done.
func Run(ctx context.Context, env Env, cfg *config.Instance, f *Flags) error {
	if *f.List {
		return listPorts(env)
	}

	path := cfg.Port()
	if path == "" {
		return ErrNoPort
	}

	target := cfg.Baud()
	start := target
	if start == 0 {
		start = nextion.DefaultBaud
	}

	port, err := env.Open(path, start)
	if err != nil {
		return fmt.Errorf("error opening display: %w", err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing display port")
		}
	}()

	d := nextion.New(port, append(cfg.Options(), nextion.WithBaud(start))...)

	baud, err := d.Connect(target)
	if err != nil {
		return fmt.Errorf("error connecting to display on %s: %w", path, err)
	}
	info := d.Info()
	_, _ = fmt.Fprintf(env.Out, "Connected: %s at %d baud (model %s, firmware %s, serial %s)\n",
		path, baud, info.Model, info.Firmware, info.Serial)

	if _, err := d.SetAckMode(cfg.AckMode()); err != nil {
		return fmt.Errorf("error setting ack mode: %w", err)
	}

	for _, cmd := range f.Commands {
		status, err := d.ExecuteCommand(cmd)
		if err != nil {
			return fmt.Errorf("error sending %q: %w", cmd, err)
		}
		_, _ = fmt.Fprintf(env.Out, "%s: %s\n", cmd, status)
	}

	if *f.Get != "" {
		v, err := d.Get(*f.Get)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", *f.Get, err)
		}
		_, _ = fmt.Fprintf(env.Out, "%s = %s\n", *f.Get, v)
	}

	if *f.Page {
		page, err := d.CurrentPage()
		if err != nil {
			return fmt.Errorf("error reading current page: %w", err)
		}
		_, _ = fmt.Fprintf(env.Out, "Page: %d\n", page)
	}

	if *f.Upload != "" {
		if err := upload(env, d, *f.Upload); err != nil {
			return err
		}
	}

	if *f.Listen {
		listen(ctx, env.Out, d, cfg.Timing().Cycle)
	}

	return nil
}

func listPorts(env Env) error {
	ports, err := env.ListPorts()
	if err != nil {
		return fmt.Errorf("error listing ports: %w", err)
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(env.Out, "No serial ports found.")
		return nil
	}
	for _, p := range ports {
		if p.IsUSB {
			_, _ = fmt.Fprintf(env.Out, "%s\t%s:%s\t%s\n", p.Name, p.VID, p.PID, p.Product)
		} else {
			_, _ = fmt.Fprintln(env.Out, p.Name)
		}
	}
	return nil
}

func upload(env Env, d *nextion.Display, path string) error {
	file, err := env.Fs.Open(path)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	started := time.Now()
	stats, err := d.Upload(file, int(stat.Size()))
	if err != nil {
		return fmt.Errorf("error uploading %s after %d bytes: %w", path, stats.Bytes, err)
	}

	_, _ = fmt.Fprintf(env.Out, "Uploaded %s: %d bytes in %d chunks, crc %04X, %s\n",
		path, stats.Bytes, stats.Chunks, stats.Checksum, time.Since(started).Round(time.Millisecond))
	return nil
}

// listen prints every display event until ctx is done.
func listen(ctx context.Context, out io.Writer, d *nextion.Display, cycle time.Duration) {
	d.AttachDefault(nextion.EventHandlerFunc(func(ev nextion.Event) {
		_, _ = fmt.Fprintf(out, "Event: %s %s\n", ev.Component, ev.State)
	}))
	d.OnTouch(nextion.TouchHandlerFunc(func(t nextion.Touch) {
		_, _ = fmt.Fprintf(out, "Touch: %d,%d pressed=%t asleep=%t\n", t.X, t.Y, t.Pressed, t.Asleep)
	}))
	d.OnChange(func(s nextion.SleepState) {
		_, _ = fmt.Fprintf(out, "Sleep: %s\n", s)
	})
	d.OnReady(func() { _, _ = fmt.Fprintln(out, "Ready") })
	d.OnStart(func() { _, _ = fmt.Fprintln(out, "Started") })
	d.OnUpdate(func() { _, _ = fmt.Fprintln(out, "microSD update started") })

	if cycle <= 0 {
		cycle = time.Millisecond
	}
	ticker := time.NewTicker(cycle)
	defer ticker.Stop()

	_, _ = fmt.Fprintln(out, "Listening, press Ctrl+C to stop.")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Poll()
		}
	}
}
