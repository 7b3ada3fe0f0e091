// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package clock

import (
	"testing"
	"time"
)

func TestFakeClockNow(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, 6, 5, 2, 22, 34, 0, time.UTC)
	fake := Fake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Errorf("Now() = %v, want %v", got, start)
	}

	fake.Advance(90 * time.Second)
	if got := fake.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now() after Advance = %v, want %v", got, start.Add(90*time.Second))
	}
}

func TestFakeClockSet(t *testing.T) {
	t.Parallel()

	fake := Fake(time.Unix(0, 0))
	instant := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	fake.Set(instant)

	if got := fake.Now(); !got.Equal(instant) {
		t.Errorf("Now() = %v, want %v", got, instant)
	}
}

func TestFakeClockAfter(t *testing.T) {
	t.Parallel()

	start := time.Unix(1000, 0)
	fake := Fake(start)

	fired := fake.After(time.Minute)
	select {
	case <-fired:
		t.Fatal("timer fired before Advance")
	default:
	}

	fake.Advance(time.Minute)
	select {
	case instant := <-fired:
		if !instant.Equal(start.Add(time.Minute)) {
			t.Errorf("fired at %v, want %v", instant, start.Add(time.Minute))
		}
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after Advance")
	}
}

func TestRealClockNow(t *testing.T) {
	t.Parallel()

	before := time.Now()
	got := Real().Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Real().Now() = %v, outside [%v, %v]", got, before, after)
	}
}
