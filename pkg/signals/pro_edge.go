package signals

import (
	"math"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// ProEdgeResult is the money-vs-tickets reading for one betting split
type ProEdgeResult struct {
	Side     models.Side `json:"side"`
	Gap      float64     `json:"gap"`
	Detected bool        `json:"detected"`
	Score    float64     `json:"score"`
}

// ProEdgeDetector scores the gap between handle share and ticket share. It is stateless.
type ProEdgeDetector struct{}

// NewProEdgeDetector creates a pro-edge detector
func NewProEdgeDetector() *ProEdgeDetector {
	return &ProEdgeDetector{}
}

// Detect returns one result per split. A split on the away side scores negative
// when money outweighs tickets there.
func (d *ProEdgeDetector) Detect(splits []models.BettingSplit) []ProEdgeResult {
	results := make([]ProEdgeResult, 0, len(splits))
	for _, split := range splits {
		gap := split.Gap()
		score := gapScore(gap)
		if split.Side == models.SideAway {
			score = -score
		}
		results = append(results, ProEdgeResult{
			Side:     split.Side,
			Gap:      gap,
			Detected: math.Abs(gap) >= 10,
			Score:    clamp(score),
		})
	}
	return results
}

// Reset is a no-op; the detector keeps no window
func (d *ProEdgeDetector) Reset() {}

// AverageDetected averages the scores of detected results only. No detections yields 0.
func AverageDetected(results []ProEdgeResult) float64 {
	var sum float64
	var n int
	for _, r := range results {
		if !r.Detected {
			continue
		}
		sum += r.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func gapScore(gap float64) float64 {
	abs := math.Abs(gap)
	switch {
	case abs >= 15:
		return gap / 100 * 0.25
	case abs >= 10:
		return gap / 100 * 0.15
	case abs >= 5:
		return gap / 100 * 0.08
	default:
		return 0
	}
}
