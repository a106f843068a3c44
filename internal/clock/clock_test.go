package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfHour(t *testing.T) {
	in := time.Date(2024, 3, 5, 14, 37, 12, 500, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), StartOfHour(in))
	assert.Equal(t, StartOfHour(in), StartOfHour(StartOfHour(in)))
}

func TestMillisRoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 5, 14, 37, 12, 0, time.UTC)
	assert.Equal(t, in, FromMillis(ToMillis(in)))
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())
}
