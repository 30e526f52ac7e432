package signals

import (
	"math"
	"time"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

const (
	// SteamWindow is how far back movements count toward a steam move
	SteamWindow = 60 * time.Second
	// SteamMinBooks is the number of distinct books that must move together
	SteamMinBooks = 3

	footballSteamFloor   = 0.5
	basketballSteamFloor = 1.5
)

// SteamResult describes a coordinated move across books toward one side
type SteamResult struct {
	Side          models.Side `json:"side"`
	BookCount     int         `json:"book_count"`
	MovementCount int         `json:"movement_count"`
	AvgMagnitude  float64     `json:"avg_magnitude"`
	Velocity      float64     `json:"velocity"` // movements per minute
	Score         float64     `json:"score"`
}

// SteamDetector keeps a sliding window of line movements for one event.
// It is not safe for concurrent use.
type SteamDetector struct {
	sport     string
	window    time.Duration
	now       Clock
	movements []models.LineMovement
}

// SteamOption configures a SteamDetector
type SteamOption func(*SteamDetector)

// WithSteamClock overrides the detector's clock
func WithSteamClock(now Clock) SteamOption {
	return func(d *SteamDetector) {
		d.now = now
	}
}

// NewSteamDetector creates a steam detector. sport selects the magnitude floor;
// when empty, the sport carried by each movement is used.
func NewSteamDetector(sport string, opts ...SteamOption) *SteamDetector {
	d := &SteamDetector{
		sport:  sport,
		window: SteamWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SteamMagnitudeFloor returns the minimum average movement for a steam move in a sport
func SteamMagnitudeFloor(sport string) float64 {
	if IsBasketballScale(sport) {
		return basketballSteamFloor
	}
	return footballSteamFloor
}

// Process records a movement and reports a steam move if one is under way.
// Only spread movements count. Home is checked before away; nil means no steam.
func (d *SteamDetector) Process(m models.LineMovement) *SteamResult {
	d.movements = append(d.movements, m)
	d.prune()

	sport := d.sport
	if sport == "" {
		sport = m.Sport
	}

	if r := d.check(models.SideHome, sport); r != nil {
		return r
	}
	return d.check(models.SideAway, sport)
}

// WindowSize returns how many movements are currently retained
func (d *SteamDetector) WindowSize() int {
	return len(d.movements)
}

// Reset clears the window
func (d *SteamDetector) Reset() {
	d.movements = nil
}

func (d *SteamDetector) prune() {
	now := d.now()
	kept := d.movements[:0]
	for _, m := range d.movements {
		if now.Sub(m.Timestamp) <= d.window {
			kept = append(kept, m)
		}
	}
	d.movements = kept
}

func (d *SteamDetector) check(side models.Side, sport string) *SteamResult {
	books := make(map[string]struct{})
	var count int
	var total float64

	for _, m := range d.movements {
		// The floor is in points; moneyline moves are in cents
		if m.LineType == models.LineTypeMoneyline || m.Side() != side {
			continue
		}
		books[m.Book] = struct{}{}
		count++
		total += math.Abs(m.Movement)
	}

	if len(books) < SteamMinBooks {
		return nil
	}

	avg := total / float64(count)
	if avg < SteamMagnitudeFloor(sport) {
		return nil
	}

	velocity := float64(count) / (d.window.Seconds() / 60)
	score := math.Min(MaxScore, (avg/2)*(velocity/10))
	if side == models.SideAway {
		score = -score
	}

	return &SteamResult{
		Side:          side,
		BookCount:     len(books),
		MovementCount: count,
		AvgMagnitude:  avg,
		Velocity:      velocity,
		Score:         clamp(score),
	}
}
