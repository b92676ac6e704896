// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers per key: only the last trigger in a
// burst runs, once the key has been quiet for the configured period.
type Debouncer struct {
	sched Scheduler
	quiet time.Duration

	mu      sync.Mutex
	pending map[string]*Task
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(sched Scheduler, quiet time.Duration) *Debouncer {
	return &Debouncer{
		sched:   sched,
		quiet:   quiet,
		pending: make(map[string]*Task),
	}
}

// Trigger schedules fn for key, replacing any earlier trigger not yet run.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[key]; ok {
		prev.Cancel()
	}

	var task *Task
	task = d.sched.AfterFunc("debounce:"+key, d.quiet, func() {
		d.mu.Lock()
		if d.pending[key] == task {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = task
}

// Cancel drops the pending trigger for key. It returns true if one existed.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.pending[key]
	if !ok {
		return false
	}
	delete(d.pending, key)
	return task.Cancel()
}

// Stop cancels every pending trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, task := range d.pending {
		task.Cancel()
		delete(d.pending, key)
	}
}
