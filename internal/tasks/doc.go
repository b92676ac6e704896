// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides deferred, cancellable callbacks.
//
// Nothing in chatspaces blocks while "waiting": the synthetic reply delay,
// the OTP auto-fill and the dashboard search debounce are all expressed as a
// Task scheduled on a Scheduler that fires once in the future or is
// cancelled first.
//
// # Key Types
//
//   - Task: Handle for one scheduled callback (pending, fired, canceled)
//   - Scheduler: Creates tasks; ClockScheduler uses real timers
//   - ManualScheduler: Virtual clock advanced explicitly, for tests
//   - Debouncer: Last-write-wins coalescing timer keyed by input stream
//
// # Usage
//
//	sched := tasks.NewClockScheduler()
//	task := sched.AfterFunc("reply", 2*time.Second, func() { ... })
//	defer task.Cancel()
//
//	deb := tasks.NewDebouncer(sched, 400*time.Millisecond)
//	deb.Trigger("search", func() { applyFilter(latest) })
package tasks
