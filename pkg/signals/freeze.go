package signals

import (
	"math"
	"time"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

const (
	// FreezeWindow is how long line samples are retained
	FreezeWindow = 2 * time.Hour
	// FreezeMinDuration is the minimum span of samples before a freeze can be called
	FreezeMinDuration = 30 * time.Minute

	freezeMaxRange     = 0.25
	freezeMinPublicPct = 75.0
	freezeMaxScore     = 0.15
	freezeFullDuration = 60 * time.Minute
)

// FreezeResult describes a line holding still under lopsided public action
type FreezeResult struct {
	Detected         bool          `json:"detected"`
	PublicSide       models.Side   `json:"public_side"`
	SharpSide        models.Side   `json:"sharp_side"`
	PublicOnFavorite bool          `json:"public_on_favorite"`
	PublicStrength   float64       `json:"public_strength"`
	LineRange        float64       `json:"line_range"`
	Duration         time.Duration `json:"duration"`
	Score            float64       `json:"score"`
}

type lineSample struct {
	at   time.Time
	line float64
}

// FreezeDetector keeps up to two hours of line samples for one event.
// It is not safe for concurrent use.
type FreezeDetector struct {
	window  time.Duration
	now     Clock
	samples []lineSample
}

// FreezeOption configures a FreezeDetector
type FreezeOption func(*FreezeDetector)

// WithFreezeClock overrides the detector's clock
func WithFreezeClock(now Clock) FreezeOption {
	return func(d *FreezeDetector) {
		d.now = now
	}
}

// NewFreezeDetector creates a line-freeze detector
func NewFreezeDetector(opts ...FreezeOption) *FreezeDetector {
	d := &FreezeDetector{
		window: FreezeWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Observe records the current line and checks for a freeze.
// publicTicketPct is the home side's share of tickets.
func (d *FreezeDetector) Observe(line, publicTicketPct float64, isHomeFavorite bool) FreezeResult {
	now := d.now()
	d.samples = append(d.samples, lineSample{at: now, line: line})
	d.prune(now)

	heavyPct := math.Max(publicTicketPct, 100-publicTicketPct)
	result := FreezeResult{
		PublicSide:     models.SideNone,
		SharpSide:      models.SideNone,
		PublicStrength: (heavyPct - 50) / 50,
	}
	switch {
	case publicTicketPct > 50:
		result.PublicSide = models.SideHome
	case publicTicketPct < 50:
		result.PublicSide = models.SideAway
	}
	result.PublicOnFavorite = (result.PublicSide == models.SideHome) == isHomeFavorite && result.PublicSide != models.SideNone

	oldest, newest := d.samples[0].at, d.samples[0].at
	low, high := d.samples[0].line, d.samples[0].line
	for _, s := range d.samples[1:] {
		if s.at.Before(oldest) {
			oldest = s.at
		}
		if s.at.After(newest) {
			newest = s.at
		}
		low = math.Min(low, s.line)
		high = math.Max(high, s.line)
	}
	result.LineRange = high - low
	result.Duration = newest.Sub(oldest)

	if heavyPct < freezeMinPublicPct || result.LineRange > freezeMaxRange || result.Duration < FreezeMinDuration {
		return result
	}

	durationMultiplier := math.Min(result.Duration.Minutes()/freezeFullDuration.Minutes(), 1)
	magnitude := freezeMaxScore * (result.PublicStrength*0.7 + durationMultiplier*0.3)

	result.Detected = true
	result.SharpSide = result.PublicSide.Opposite()
	if result.SharpSide == models.SideAway {
		magnitude = -magnitude
	}
	result.Score = clamp(magnitude)

	return result
}

// SampleCount returns how many samples are currently retained
func (d *FreezeDetector) SampleCount() int {
	return len(d.samples)
}

// Reset clears the window
func (d *FreezeDetector) Reset() {
	d.samples = nil
}

func (d *FreezeDetector) prune(now time.Time) {
	kept := d.samples[:0]
	for _, s := range d.samples {
		if now.Sub(s.at) <= d.window {
			kept = append(kept, s)
		}
	}
	d.samples = kept
}
