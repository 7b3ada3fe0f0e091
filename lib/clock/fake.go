// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

package clock

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Time only moves when
// the test calls Advance or Set. Safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// Fake returns a FakeClock starting at the given instant.
func Fake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the fake current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that fires once the fake clock reaches
// now+d. Non-positive durations fire immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, waiter{deadline: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves the fake clock forward by d, firing any waiters whose
// deadline has passed.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.fireLocked()
}

// Set jumps the fake clock to the given instant. The instant must not
// be earlier than the current fake time.
func (c *FakeClock) Set(instant time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if instant.Before(c.now) {
		panic("clock: FakeClock.Set moving backwards")
	}
	c.now = instant
	c.fireLocked()
}

func (c *FakeClock) fireLocked() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.now) {
			w.ch <- c.now
			continue
		}
		remaining = append(remaining, w)
	}
	c.waiters = remaining
}
