// Package signals implements the market signal detectors that feed the IAI score.
//
// Every detector returns a score in [-MaxScore, MaxScore]. Positive scores favor the
// home side and negative scores favor the away side. Lines are quoted from the home
// side, so a negative line movement means the line moved toward home.
package signals

import (
	"math"
	"strings"
	"time"
)

// MaxScore bounds every detector score
const MaxScore = 0.25

// Detector is implemented by every signal detector
type Detector interface {
	Reset()
}

// Clock returns the current time. Detectors take one so windows can be tested.
type Clock func() time.Time

func clamp(v float64) float64 {
	return math.Max(-MaxScore, math.Min(MaxScore, v))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// IsBasketballScale reports whether a sport moves in basketball-sized points
func IsBasketballScale(sport string) bool {
	s := strings.ToLower(sport)
	if strings.Contains(s, "basketball") {
		return true
	}
	switch s {
	case "nba", "wnba", "ncaab", "cbb":
		return true
	}
	return false
}
