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

package mocks

import (
	"github.com/ZaparooProject/go-nextion/pkg/nextion"
	"github.com/stretchr/testify/mock"
)

// MockEventHandler is a testify mock for nextion.EventHandler.
//
// Example:
//
//	h := &MockEventHandler{}
//	h.On("HandleEvent", nextion.Event{Component: nextion.Component{Page: 0, ID: 2}, State: nextion.Press}).Once()
type MockEventHandler struct {
	mock.Mock
}

// HandleEvent records the call.
func (m *MockEventHandler) HandleEvent(ev nextion.Event) {
	m.Called(ev)
}

// MockTouchHandler is a testify mock for nextion.TouchHandler.
type MockTouchHandler struct {
	mock.Mock
}

// HandleTouch records the call.
func (m *MockTouchHandler) HandleTouch(t nextion.Touch) {
	m.Called(t)
}
