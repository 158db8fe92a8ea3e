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
	"encoding/binary"

	"github.com/rs/zerolog/log"
)

// dispatch routes one frame to the registry. Unknown codes and frames too
// short for their layout are dropped.
func (d *Display) dispatch(f Frame) {
	p := f.Payload()

	switch f.Code() {
	case CodeTouchEvent:
		ev, ok := parseEvent(f)
		if !ok {
			d.malformed(f)
			return
		}
		log.Debug().Stringer("component", ev.Component).Stringer("state", ev.State).Msg("nextion: touch event")
		if h, ok := d.reg.lookup(ev); ok {
			h.HandleEvent(ev)
			return
		}
		if d.reg.fallback != nil {
			d.reg.fallback.HandleEvent(ev)
		}

	case CodeCurrentPage:
		if len(p) < currentPageLen {
			d.malformed(f)
			return
		}
		d.page = int16(p[0])

	case CodeTouchCoordinate, CodeTouchCoordinateAsleep:
		if len(p) < touchCoordinateLen {
			d.malformed(f)
			return
		}
		t := Touch{
			X:       binary.BigEndian.Uint16(p[0:2]),
			Y:       binary.BigEndian.Uint16(p[2:4]),
			Pressed: p[4] != 0,
			Asleep:  f.Code() == CodeTouchCoordinateAsleep,
		}
		if d.reg.touch != nil {
			d.reg.touch.HandleTouch(t)
		}

	case CodeStringData:
		d.setContent(p, KindText)

	case CodeNumericData:
		if len(p) < numericDataLen {
			d.malformed(f)
			return
		}
		d.setContent(p[:numericDataLen], KindNumber)

	case CodeAutoEnterSleep:
		d.setSleep(Asleep)

	case CodeAutoEnterWakeup:
		d.setSleep(Awake)

	case CodeReady:
		log.Debug().Msg("nextion: display ready")
		if d.reg.ready != nil {
			d.reg.ready()
		}

	case CodeStartSDUpdate:
		log.Debug().Msg("nextion: microSD update started")
		if d.reg.update != nil {
			d.reg.update()
		}

	case CodeTransparentDataReady, CodeTransparentDataEnd:
		log.Debug().Hex("code", f[:1]).Msg("nextion: transparent data frame outside a transfer")

	default:
		switch {
		case isStartup(f):
			log.Debug().Msg("nextion: display started")
			if d.reg.start != nil {
				d.reg.start()
			}
		case len(f) == 1 && isStatusCode(f.Code()):
			log.Debug().Stringer("status", Status(f.Code())).Msg("nextion: unsolicited status")
		default:
			log.Trace().Hex("frame", f).Msg("nextion: dropping unknown frame")
		}
	}
}

func parseEvent(f Frame) (Event, bool) {
	p := f.Payload()
	if f.Code() != CodeTouchEvent || len(p) < touchEventLen {
		return Event{}, false
	}
	ev := Event{
		Component: Component{Page: p[0], ID: p[1]},
		State:     Release,
	}
	if p[2] != 0 {
		ev.State = Press
	}
	return ev, true
}

// isStartup matches the startup notification. A lone 0x00 is also the
// invalid instruction status, but a status that no command waited for has
// already been consumed by that wait, so outside of one it means startup.
func isStartup(f Frame) bool {
	if f.Code() != CodeStartup {
		return false
	}
	p := f.Payload()
	return len(p) == 0 || (len(p) == startupLen && p[0] == 0 && p[1] == 0)
}

func (d *Display) setSleep(s SleepState) {
	d.sleep = s
	log.Debug().Stringer("state", s).Msg("nextion: sleep state changed")
	if d.reg.change != nil {
		d.reg.change(s)
	}
}

func (*Display) malformed(f Frame) {
	log.Debug().Hex("frame", f).Msg("nextion: dropping malformed frame")
}
