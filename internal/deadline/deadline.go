// Package deadline evaluates time-bounded windows against "now".
//
// Nothing here schedules timers. Every window is re-derived from stored
// timestamps at the moment an operation runs.
package deadline

import "time"

// DefaultChallengeWindow is how long a finalized outcome accepts challenges.
const DefaultChallengeWindow = time.Hour

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Reached reports whether now is at or after at.
func Reached(now, at time.Time) bool {
	return !now.Before(at)
}

// WithinWindow reports whether now is inside [start, start+window].
// The end instant itself is still inside.
func WithinWindow(now, start time.Time, window time.Duration) bool {
	return !now.After(start.Add(window))
}

// Expired reports whether the window starting at start has elapsed.
func Expired(now, start time.Time, window time.Duration) bool {
	return now.After(start.Add(window))
}

// Remaining is the time left until start+window, never negative.
func Remaining(now, start time.Time, window time.Duration) time.Duration {
	left := start.Add(window).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
