// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"sort"
	"sync"
	"time"
)

// Scheduler creates deferred tasks.
type Scheduler interface {
	// AfterFunc schedules fn to run once after d.
	AfterFunc(description string, d time.Duration, fn func()) *Task

	// Now returns the scheduler's current time.
	Now() time.Time
}

// =============================================================================
// CLOCK SCHEDULER
// =============================================================================

// ClockScheduler schedules tasks on real timers. Callbacks run on the timer's
// goroutine; callers serialise state mutation themselves.
type ClockScheduler struct{}

// NewClockScheduler returns a real-time scheduler.
func NewClockScheduler() *ClockScheduler {
	return &ClockScheduler{}
}

// AfterFunc implements Scheduler.
func (ClockScheduler) AfterFunc(description string, d time.Duration, fn func()) *Task {
	task := newTask(description, time.Now().Add(d), fn)
	task.mu.Lock()
	timer := time.AfterFunc(d, task.fire)
	task.stop = timer.Stop
	task.mu.Unlock()
	return task
}

// Now implements Scheduler.
func (ClockScheduler) Now() time.Time {
	return time.Now()
}

// =============================================================================
// MANUAL SCHEDULER
// =============================================================================

// ManualScheduler is a virtual clock. Tasks only fire from Advance, in due
// order, on the caller's goroutine.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Time
	pending []*Task
}

// NewManualScheduler creates a virtual clock starting at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// AfterFunc implements Scheduler.
func (m *ManualScheduler) AfterFunc(description string, d time.Duration, fn func()) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	task := newTask(description, m.now.Add(d), fn)
	m.pending = append(m.pending, task)
	return task
}

// Now implements Scheduler.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d, firing every task that becomes due.
// Tasks scheduled by fired callbacks also fire if they fall within the window.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.SliceStable(m.pending, func(i, j int) bool {
			return m.pending[i].Due.Before(m.pending[j].Due)
		})
		if len(m.pending) == 0 || m.pending[0].Due.After(target) {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.pending[0]
		m.pending = m.pending[1:]
		if next.Due.After(m.now) {
			m.now = next.Due
		}
		m.mu.Unlock()

		next.fire()
	}
}

// Pending returns the number of tasks that are scheduled and not cancelled.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, t := range m.pending {
		if t.IsPending() {
			count++
		}
	}
	return count
}
