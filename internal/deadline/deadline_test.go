package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallengeWindowBoundary(t *testing.T) {
	finalizedAt := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		offset  time.Duration
		within  bool
		expired bool
	}{
		{name: "at finalize", offset: 0, within: true},
		{name: "59m59s", offset: 59*time.Minute + 59*time.Second, within: true},
		{name: "exactly one hour", offset: time.Hour, within: true},
		{name: "60m01s", offset: time.Hour + time.Second, expired: true},
		{name: "one day later", offset: 24 * time.Hour, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := finalizedAt.Add(tt.offset)
			assert.Equal(t, tt.within, WithinWindow(now, finalizedAt, DefaultChallengeWindow))
			assert.Equal(t, tt.expired, Expired(now, finalizedAt, DefaultChallengeWindow))
		})
	}
}

func TestReached(t *testing.T) {
	at := time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)

	assert.False(t, Reached(at.Add(-time.Nanosecond), at))
	assert.True(t, Reached(at, at))
	assert.True(t, Reached(at.Add(time.Second), at))
}

func TestRemaining(t *testing.T) {
	start := time.Date(2026, 10, 18, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, 15*time.Minute, Remaining(start.Add(45*time.Minute), start, time.Hour))
	assert.Equal(t, time.Duration(0), Remaining(start.Add(2*time.Hour), start, time.Hour))
}

func TestClockFunc(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var c Clock = ClockFunc(func() time.Time { return fixed })
	assert.Equal(t, fixed, c.Now())
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}
