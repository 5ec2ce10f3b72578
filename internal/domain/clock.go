package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock backs Now. Resolution timestamps and sitemap lastmod values read it.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the time source behind Now; nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}
