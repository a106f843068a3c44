// Package retention removes usage events that fall before the configured
// retention cutoff.
package retention

import (
	"time"

	"github.com/smallbiznis/tally/internal/clock"
	"github.com/smallbiznis/tally/internal/config"
)

// CutoffDate returns now minus d. It reports false when no duration is
// configured, meaning nothing is eligible for removal.
func CutoffDate(now time.Time, d time.Duration) (time.Time, bool) {
	if d <= 0 {
		return time.Time{}, false
	}
	return now.Add(-d), true
}

type Policy struct {
	clock    clock.Clock
	duration time.Duration
}

func NewPolicy(clk clock.Clock, duration time.Duration) *Policy {
	return &Policy{clock: clk, duration: duration}
}

func PolicyFromApp(clk clock.Clock, cfg config.Config) *Policy {
	return NewPolicy(clk, cfg.RetentionDuration)
}

// CutoffDate is the instant before which records may be removed.
func (p *Policy) CutoffDate() (time.Time, bool) {
	return CutoffDate(p.clock.Now(), p.duration)
}
