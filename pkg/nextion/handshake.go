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
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// baudSwitchCycles is how long the display is given to reconfigure its UART
// after a baud command.
const baudSwitchCycles = 50

// CandidateBauds returns the probe order used by Connect: the target, the
// factory default, then every other standard rate.
func CandidateBauds(target uint32) []uint32 {
	candidates := make([]uint32, 0, len(StandardBauds)+2)
	if target != 0 {
		candidates = append(candidates, target)
	}
	if !slices.Contains(candidates, DefaultBaud) {
		candidates = append(candidates, DefaultBaud)
	}
	for _, b := range StandardBauds {
		if !slices.Contains(candidates, b) {
			candidates = append(candidates, b)
		}
	}
	return candidates
}

// Connect finds the rate the display is listening at and, if it differs from
// target, switches the display and the transport to target. A target of 0
// accepts whichever rate answers. It returns the confirmed rate, or 0 and
// ErrConnectFailed.
func (d *Display) Connect(target uint32) (uint32, error) {
	d.state = StateDisconnected
	candidates := CandidateBauds(target)

	// cycles bound each probe; the deadline only guards slow transports
	budget := time.Duration(len(candidates)*d.timing.ProbeCycles) * d.timing.Cycle
	deadline := d.clock.Now().Add(2 * budget)

	for _, baud := range candidates {
		if budget > 0 && d.clock.Now().After(deadline) {
			log.Warn().Dur("budget", budget).Msg("nextion: handshake budget exhausted")
			break
		}

		log.Debug().Uint32("baud", baud).Msg("nextion: probing")
		info, ok := d.probe(baud)
		if !ok {
			continue
		}

		if target != 0 && baud != target {
			log.Debug().Uint32("from", baud).Uint32("to", target).Msg("nextion: switching baud rate")
			if err := d.write(fmt.Sprintf("%s=%d", CmdBaud, target)); err != nil {
				return 0, fmt.Errorf("%w: %w", ErrConnectFailed, err)
			}
			d.clock.Sleep(d.timing.Cycle * baudSwitchCycles)

			info, ok = d.probe(target)
			if !ok {
				log.Warn().Uint32("baud", target).Msg("nextion: display did not confirm new baud rate")
				return 0, fmt.Errorf("%w: no reply after switching to %d", ErrConnectFailed, target)
			}
			baud = target
		}

		d.state = StateConnected
		d.info = info
		log.Info().
			Uint32("baud", baud).
			Str("model", info.Model).
			Str("firmware", info.Firmware).
			Msg("nextion: display connected")
		return baud, nil
	}

	log.Warn().Int("candidates", len(candidates)).Msg("nextion: no reply on any baud rate")
	return 0, ErrConnectFailed
}

// probe switches the transport to baud and sends the liveness command.
func (d *Display) probe(baud uint32) (DeviceInfo, bool) {
	if err := d.transport.SetBaudRate(baud); err != nil {
		log.Debug().Err(err).Uint32("baud", baud).Msg("nextion: failed to set baud rate")
		return DeviceInfo{}, false
	}
	d.baud = baud
	d.discardInput()

	// an empty instruction flushes whatever the display parsed so far
	if err := d.write(""); err != nil {
		log.Debug().Err(err).Msg("nextion: failed to send flush")
		return DeviceInfo{}, false
	}
	if err := d.write(CmdConnect); err != nil {
		log.Debug().Err(err).Msg("nextion: failed to send liveness probe")
		return DeviceInfo{}, false
	}

	var reply string
	ok := d.await(d.timing.ProbeCycles, func(f Frame) bool {
		if !bytes.HasPrefix(f, []byte(ReplyComOK)) {
			return false
		}
		reply = string(f)
		return true
	})
	if !ok {
		return DeviceInfo{}, false
	}

	log.Debug().Str("reply", reply).Uint32("baud", baud).Msg("nextion: liveness reply")
	return parseDeviceInfo(reply), true
}
