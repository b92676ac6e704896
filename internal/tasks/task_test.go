// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualSchedulerFiresWhenDue(t *testing.T) {
	sched := NewManualScheduler(epoch)
	fired := 0
	task := sched.AfterFunc("test", 2*time.Second, func() { fired++ })

	if task.Status() != TaskStatusPending {
		t.Errorf("Expected pending, got %s", task.Status())
	}

	sched.Advance(1999 * time.Millisecond)
	if fired != 0 {
		t.Fatal("task fired before it was due")
	}

	sched.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if task.Status() != TaskStatusFired {
		t.Errorf("Expected fired, got %s", task.Status())
	}

	sched.Advance(time.Hour)
	if fired != 1 {
		t.Errorf("task fired more than once: %d", fired)
	}
}

func TestManualSchedulerOrderAndNow(t *testing.T) {
	sched := NewManualScheduler(epoch)
	var order []string
	var seen []time.Time

	sched.AfterFunc("b", 2*time.Second, func() { order = append(order, "b"); seen = append(seen, sched.Now()) })
	sched.AfterFunc("a", time.Second, func() { order = append(order, "a"); seen = append(seen, sched.Now()) })

	sched.Advance(5 * time.Second)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
	if !seen[0].Equal(epoch.Add(time.Second)) || !seen[1].Equal(epoch.Add(2*time.Second)) {
		t.Errorf("callbacks saw clock %v", seen)
	}
	if !sched.Now().Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("Now() = %v after advance", sched.Now())
	}
}

func TestTaskCancel(t *testing.T) {
	sched := NewManualScheduler(epoch)
	fired := false
	task := sched.AfterFunc("test", time.Second, func() { fired = true })

	if !task.Cancel() {
		t.Error("Cancel() on a pending task should return true")
	}
	if task.Cancel() {
		t.Error("second Cancel() should return false")
	}
	if sched.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", sched.Pending())
	}

	sched.Advance(time.Minute)
	if fired {
		t.Error("cancelled task fired")
	}
	if task.Status() != TaskStatusCanceled {
		t.Errorf("Expected canceled, got %s", task.Status())
	}

	var nilTask *Task
	if nilTask.Cancel() {
		t.Error("Cancel() on nil task should return false")
	}
}

func TestClockSchedulerFiresAndCancels(t *testing.T) {
	sched := NewClockScheduler()
	var fired atomic.Int32
	done := make(chan struct{})

	sched.AfterFunc("fires", 10*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})
	canceled := sched.AfterFunc("canceled", 10*time.Millisecond, func() { fired.Add(100) })
	canceled.Cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	time.Sleep(30 * time.Millisecond)

	if got := fired.Load(); got != 1 {
		t.Errorf("fired = %d, want 1", got)
	}
}

func TestDebouncerLastWriteWins(t *testing.T) {
	sched := NewManualScheduler(epoch)
	deb := NewDebouncer(sched, 400*time.Millisecond)
	var got []string

	for _, v := range []string{"t", "te", "tea"} {
		v := v
		deb.Trigger("search", func() { got = append(got, v) })
		sched.Advance(100 * time.Millisecond)
	}
	if len(got) != 0 {
		t.Fatalf("debounced callback ran early: %v", got)
	}

	sched.Advance(400 * time.Millisecond)
	if len(got) != 1 || got[0] != "tea" {
		t.Errorf("got %v, want [tea]", got)
	}
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	sched := NewManualScheduler(epoch)
	deb := NewDebouncer(sched, 100*time.Millisecond)
	var got []string

	deb.Trigger("a", func() { got = append(got, "a") })
	deb.Trigger("b", func() { got = append(got, "b") })
	if !deb.Cancel("b") {
		t.Error("Cancel(b) should report a pending trigger")
	}
	sched.Advance(time.Second)

	if len(got) != 1 || got[0] != "a" {
		t.Errorf("got %v, want [a]", got)
	}

	deb.Trigger("c", func() { got = append(got, "c") })
	deb.Stop()
	sched.Advance(time.Second)
	if len(got) != 1 {
		t.Errorf("Stop() did not cancel pending triggers: %v", got)
	}
}
