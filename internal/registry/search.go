// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"time"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/tasks"
)

// DefaultSearchDebounce is the quiet period before a filter is applied.
const DefaultSearchDebounce = 400 * time.Millisecond

const searchKey = "search"

// Search applies dashboard filter input after the input goes quiet. Only
// the last filter of a burst is evaluated.
type Search struct {
	reg *Registry
	deb *tasks.Debouncer
}

// NewSearch creates a debounced search over reg.
func NewSearch(reg *Registry, sched tasks.Scheduler, quiet time.Duration) *Search {
	if quiet <= 0 {
		quiet = DefaultSearchDebounce
	}
	return &Search{reg: reg, deb: tasks.NewDebouncer(sched, quiet)}
}

// Update records new filter input. deliver receives the filtered list once
// the quiet period passes without further input.
func (s *Search) Update(filter string, deliver func(filter string, rooms []model.Chatroom)) {
	s.deb.Trigger(searchKey, func() {
		deliver(filter, s.reg.List(filter))
	})
}

// Stop cancels pending work.
func (s *Search) Stop() {
	s.deb.Stop()
}
