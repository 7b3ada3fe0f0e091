// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package clock abstracts time observation for testability. Production
// code injects Real(); tests inject a Fake with deterministic control.
//
// Deploy timestamps feed directly into archive sort keys and object
// names, so any code that stamps a deployment must take a Clock rather
// than calling time.Now directly: otherwise name round-trip tests
// cannot be made deterministic.
package clock

import "time"

// Clock provides the time operations formideploy needs: reading the
// current instant and waiting for a duration.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after d
	// elapses. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time
}

// realClock implements Clock with the time package.
type realClock struct{}

// Real returns the production Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
