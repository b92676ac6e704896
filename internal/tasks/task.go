// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the lifecycle state of a scheduled task.
type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusFired    TaskStatus = "fired"
	TaskStatusCanceled TaskStatus = "canceled"
)

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// =============================================================================
// TASK
// =============================================================================

// Task is a handle for one deferred callback. A task fires at most once and
// never after Cancel has returned.
type Task struct {
	ID          string
	Description string
	Due         time.Time

	mu     sync.Mutex
	status TaskStatus
	fn     func()
	stop   func() bool
}

func newTask(description string, due time.Time, fn func()) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Description: description,
		Due:         due,
		status:      TaskStatusPending,
		fn:          fn,
	}
}

// Status returns the current status.
func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// IsPending returns true while the task has neither fired nor been cancelled.
func (t *Task) IsPending() bool {
	return t.Status() == TaskStatusPending
}

// Cancel prevents the task from firing. It returns true if the task was
// still pending. Cancelling a nil, fired or already-cancelled task is a no-op.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	if t.status != TaskStatusPending {
		t.mu.Unlock()
		return false
	}
	t.status = TaskStatusCanceled
	stop := t.stop
	t.fn = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	return true
}

// fire transitions pending -> fired and runs the callback outside the lock.
func (t *Task) fire() {
	t.mu.Lock()
	if t.status != TaskStatusPending {
		t.mu.Unlock()
		return
	}
	t.status = TaskStatusFired
	fn := t.fn
	t.fn = nil
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// String returns a one-line summary of the task.
func (t *Task) String() string {
	return fmt.Sprintf("%s [%s] due %s", t.Description, t.Status(), t.Due.Format(time.TimeOnly))
}
