// Copyright 2026 The Statusdesk Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for
// testability.
//
// Production code accepts a Clock parameter (or carries one in a
// config struct) instead of calling time.Now, time.After, or
// time.Sleep directly. Real() provides standard library behavior;
// Fake() provides a deterministic clock that advances only when
// Advance is called, which lets tests exercise retry waits and
// backoff without real sleeping.
package clock

import "time"

// Clock abstracts the time operations statusdesk uses: reading the
// current time, waiting for a duration via a channel, and sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel on which the current time is
	// delivered once d has elapsed. A non-positive d delivers
	// immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
