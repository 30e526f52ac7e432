// Package source defines the upstream odds adapter contract and the plumbing
// shared by adapters: guarded HTTP fetches and a Redis-backed payload cache.
package source

import (
	"strings"
	"time"
)

// CanonicalSport maps common aliases onto the sport identifiers used in records
func CanonicalSport(sport string) string {
	s := strings.ToLower(strings.TrimSpace(sport))
	switch s {
	case "cfb", "ncaafb", "college-football":
		return "ncaaf"
	case "cbb", "ncaam", "college-basketball":
		return "ncaab"
	}
	return s
}

// Window returns the [from, to] event-time range for a horizon starting at now
func Window(now time.Time, horizonDays int) (time.Time, time.Time) {
	return now, now.AddDate(0, 0, horizonDays)
}

// InWindow reports whether an event time falls inside [from, to]
func InWindow(eventTime, from, to time.Time) bool {
	return !eventTime.Before(from) && !eventTime.After(to)
}
