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
	"strings"

	"github.com/rs/zerolog/log"
)

// Color is an RGB565 value.
type Color uint16

const (
	ColorBlack  Color = 0
	ColorBlue   Color = 31
	ColorGreen  Color = 2016
	ColorGray   Color = 33840
	ColorBrown  Color = 48192
	ColorRed    Color = 63488
	ColorYellow Color = 65504
	ColorWhite  Color = 65535
)

// RGB packs 8-bit channels into RGB565.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// Align is a text alignment for Text.
type Align uint8

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Fill selects how Text paints its background.
type Fill uint8

const (
	FillCrop Fill = iota
	FillSolid
	FillImage
	FillNone
)

// TextBox describes the area and style of an xstr draw.
type TextBox struct {
	X, Y, W, H uint16
	Font       uint8
	Foreground Color
	Background Color
	AlignX     Align
	AlignY     Align
	Fill       Fill
}

// allChannels addresses every channel of a waveform.
const allChannels = 255

func (d *Display) exec(format string, args ...any) (Status, error) {
	return d.ExecuteCommand(fmt.Sprintf(format, args...))
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// quote escapes s for use inside a double quoted string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", `\r`, "\n", `\r`)
	return `"` + r.Replace(s) + `"`
}

// Backlight sets the backlight level, 0 to 100.
func (d *Display) Backlight(level uint8) (Status, error) {
	return d.exec("dim=%d", min(level, 100))
}

// Brush sets the default drawing color.
func (d *Display) Brush(c Color) (Status, error) {
	return d.exec("thc=%d", c)
}

func (d *Display) Circle(x, y, r uint16, c Color) (Status, error) {
	return d.exec("cir %d,%d,%d,%d", x, y, r, c)
}

func (d *Display) FillCircle(x, y, r uint16, c Color) (Status, error) {
	return d.exec("cirs %d,%d,%d,%d", x, y, r, c)
}

// Clear fills the screen with c.
func (d *Display) Clear(c Color) (Status, error) {
	return d.exec("cls %d", c)
}

// Click triggers the press or release event of a component on the current page.
func (d *Display) Click(id uint8, state State) (Status, error) {
	return d.exec("click %d,%d", id, state)
}

// Crop draws the region of picture resource under the given rectangle.
func (d *Display) Crop(x, y, w, h uint16, resource uint8) (Status, error) {
	return d.exec("picq %d,%d,%d,%d,%d", x, y, w, h, resource)
}

// CropFrom copies the region (sx, sy, w, h) of picture resource to (dx, dy).
func (d *Display) CropFrom(dx, dy, w, h, sx, sy uint16, resource uint8) (Status, error) {
	return d.exec("xpic %d,%d,%d,%d,%d,%d,%d", dx, dy, w, h, sx, sy, resource)
}

// Delay pauses the display's instruction processing.
func (d *Display) Delay(ms uint16) (Status, error) {
	return d.exec("delay=%d", ms)
}

func (d *Display) Disable(id uint8) (Status, error) {
	return d.exec("tsw %d,0", id)
}

func (d *Display) Enable(id uint8) (Status, error) {
	return d.exec("tsw %d,1", id)
}

// Draw resumes (true) or suspends (false) screen refresh.
func (d *Display) Draw(on bool) (Status, error) {
	if on {
		return d.ExecuteCommand("ref_star")
	}
	return d.ExecuteCommand("ref_stop")
}

// Erase clears every channel of a waveform.
func (d *Display) Erase(id uint8) (Status, error) {
	return d.exec("cle %d,%d", id, allChannels)
}

func (d *Display) EraseChannel(id, channel uint8) (Status, error) {
	return d.exec("cle %d,%d", id, channel)
}

func (d *Display) FillRectangle(x, y, w, h uint16, c Color) (Status, error) {
	return d.exec("fill %d,%d,%d,%d,%d", x, y, w, h, c)
}

func (d *Display) Rectangle(x1, y1, x2, y2 uint16, c Color) (Status, error) {
	return d.exec("draw %d,%d,%d,%d,%d", x1, y1, x2, y2, c)
}

func (d *Display) Line(x1, y1, x2, y2 uint16, c Color) (Status, error) {
	return d.exec("line %d,%d,%d,%d,%d", x1, y1, x2, y2, c)
}

// Hide makes a component on the current page invisible.
func (d *Display) Hide(id uint8) (Status, error) {
	return d.exec("vis %d,0", id)
}

func (d *Display) Show(id uint8) (Status, error) {
	return d.exec("vis %d,1", id)
}

// SetPage switches the display to page.
func (d *Display) SetPage(page uint8) (Status, error) {
	st, err := d.exec("page %d", page)
	if err == nil && (st == StatusSuccess || st == StatusSent) {
		d.page = int16(page)
	}
	return st, err
}

func (d *Display) Picture(x, y uint16, resource uint8) (Status, error) {
	return d.exec("pic %d,%d,%d", x, y, resource)
}

// Print asks the display to echo expr back over serial.
func (d *Display) Print(expr string) (Status, error) {
	return d.exec("print %s", expr)
}

// Reply turns status replies for every command on or off.
func (d *Display) Reply(on bool) (Status, error) {
	if on {
		return d.SetAckMode(AckAll)
	}
	return d.SetAckMode(AckNone)
}

// Reset reboots the display. It is disconnected until the next Connect.
func (d *Display) Reset() (Status, error) {
	st, err := d.ExecuteCommand("rest")
	if err == nil {
		d.state = StateDisconnected
		d.page = -1
	}
	return st, err
}

// SendXY turns coordinate reporting on touch on or off.
func (d *Display) SendXY(on bool) (Status, error) {
	return d.exec("sendxy=%d", flag(on))
}

// SetBaud switches the display and the transport to baud for the rest of
// the session. Status replies are not awaited as they arrive at the new rate.
func (d *Display) SetBaud(baud uint32) error {
	if err := d.write(fmt.Sprintf("%s=%d", CmdBaud, baud)); err != nil {
		return err
	}
	d.clock.Sleep(d.timing.Cycle * baudSwitchCycles)
	if err := d.transport.SetBaudRate(baud); err != nil {
		return fmt.Errorf("failed to switch transport to %d: %w", baud, err)
	}
	d.baud = baud
	d.discardInput()
	log.Info().Uint32("baud", baud).Msg("nextion: baud rate changed")
	return nil
}

// Sleep puts the display to sleep.
func (d *Display) Sleep() (Status, error) {
	return d.ExecuteCommand("sleep=1")
}

// Wakeup wakes the display.
func (d *Display) Wakeup() (Status, error) {
	return d.ExecuteCommand("sleep=0")
}

// WakeupPage selects the page shown on wake. 255 keeps the current page.
func (d *Display) WakeupPage(page uint8) (Status, error) {
	return d.exec("wup=%d", page)
}

// TouchWakeup sets whether touching the sleeping screen wakes it.
func (d *Display) TouchWakeup(on bool) (Status, error) {
	return d.exec("thup=%d", flag(on))
}

// Text draws s inside box.
func (d *Display) Text(box TextBox, s string) (Status, error) {
	return d.exec("xstr %d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%s",
		box.X, box.Y, box.W, box.H, box.Font,
		box.Foreground, box.Background,
		box.AlignX, box.AlignY, box.Fill,
		quote(s))
}

// Wave appends one sample to a waveform channel.
func (d *Display) Wave(id, channel, value uint8) (Status, error) {
	return d.exec("add %d,%d,%d", id, channel, value)
}

// WaveData appends samples to a waveform channel in one transparent transfer.
func (d *Display) WaveData(id, channel uint8, samples []byte) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, 0)
	}

	cmd := fmt.Sprintf("addt %d,%d,%d", id, channel, len(samples))
	if err := d.startTransfer(cmd); err != nil {
		return err
	}

	code, err := d.awaitTransfer(cmd)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if code != CodeTransparentDataReady {
		return fmt.Errorf("%w: %s ended before data", ErrUnexpectedFrame, cmd)
	}

	n, err := d.transport.Write(samples)
	if err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if n != len(samples) {
		return fmt.Errorf("incomplete sample write: wrote %d of %d bytes", n, len(samples))
	}

	code, err = d.awaitTransfer(cmd)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	if code != CodeTransparentDataEnd {
		return fmt.Errorf("%w: %s not terminated", ErrUnexpectedFrame, cmd)
	}
	return nil
}

// Set assigns a raw expression to an attribute, e.g. Set("n0.val", "42").
func (d *Display) Set(attr, expr string) (Status, error) {
	return d.exec("%s=%s", attr, expr)
}

// SetText assigns s to a text attribute, e.g. SetText("t0.txt", "hello").
func (d *Display) SetText(attr, s string) (Status, error) {
	return d.exec("%s=%s", attr, quote(s))
}

// SetNumber assigns n to a numeric attribute.
func (d *Display) SetNumber(attr string, n int32) (Status, error) {
	return d.exec("%s=%d", attr, n)
}
