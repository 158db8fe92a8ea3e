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

// EventHandler handles a component touch event.
type EventHandler interface {
	HandleEvent(ev Event)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ev Event)

// HandleEvent calls f(ev).
func (f EventHandlerFunc) HandleEvent(ev Event) {
	f(ev)
}

// TouchHandler handles a raw touch coordinate report.
type TouchHandler interface {
	HandleTouch(t Touch)
}

// TouchHandlerFunc adapts a function to TouchHandler.
type TouchHandlerFunc func(t Touch)

// HandleTouch calls f(t).
func (f TouchHandlerFunc) HandleTouch(t Touch) {
	f(t)
}

// registry maps (page, component, state) to handlers. Registering a key
// twice replaces the earlier handler.
type registry struct {
	events   map[Event]EventHandler
	fallback EventHandler
	touch    TouchHandler
	change   func(SleepState)
	ready    func()
	start    func()
	update   func()
}

func newRegistry() *registry {
	return &registry{events: make(map[Event]EventHandler)}
}

func (r *registry) lookup(ev Event) (EventHandler, bool) {
	h, ok := r.events[ev]
	return h, ok
}

// Attach binds h to ev, replacing any handler already bound to it.
func (d *Display) Attach(ev Event, h EventHandler) {
	if h == nil {
		d.Detach(ev)
		return
	}
	d.reg.events[ev] = h
}

// AttachComponent binds h to state changes of c. It is the same binding as
// Attach(Event{Component: c, State: state}, h).
func (d *Display) AttachComponent(c Component, state State, h EventHandler) {
	d.Attach(Event{Component: c, State: state}, h)
}

// Detach removes the binding for ev.
func (d *Display) Detach(ev Event) {
	delete(d.reg.events, ev)
}

// DetachComponent removes the binding for c and state.
func (d *Display) DetachComponent(c Component, state State) {
	d.Detach(Event{Component: c, State: state})
}

// AttachDefault sets the handler for touch events with no binding.
func (d *Display) AttachDefault(h EventHandler) {
	d.reg.fallback = h
}

// DetachDefault clears the handler for touch events with no binding.
func (d *Display) DetachDefault() {
	d.reg.fallback = nil
}

// DetachAll removes every event binding and the default handler. Lifecycle
// handlers are kept.
func (d *Display) DetachAll() {
	clear(d.reg.events)
	d.reg.fallback = nil
}

// Bindings returns the number of event bindings.
func (d *Display) Bindings() int {
	return len(d.reg.events)
}

// OnReady sets the handler called when the display finished booting.
func (d *Display) OnReady(fn func()) { d.reg.ready = fn }

// OnStart sets the handler called right after a display reset.
func (d *Display) OnStart(fn func()) { d.reg.start = fn }

// OnChange sets the handler called when the display enters or leaves sleep.
func (d *Display) OnChange(fn func(SleepState)) { d.reg.change = fn }

// OnTouch sets the handler for raw touch coordinates.
func (d *Display) OnTouch(h TouchHandler) { d.reg.touch = h }

// OnUpdate sets the handler called when the display starts a microSD update.
func (d *Display) OnUpdate(fn func()) { d.reg.update = fn }
