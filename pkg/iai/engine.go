// Package iai fuses the market signal detectors into the Information Asymmetry Index.
package iai

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/pkg/signals"
)

// ErrInsufficientContext is returned when a scoring request lacks required fields
var ErrInsufficientContext = errors.New("insufficient scoring context")

// Signal weights in the fused score
const (
	WeightRLM     = 0.40
	WeightSteam   = 0.30
	WeightProEdge = 0.20
	WeightFreeze  = 0.10
)

// Engine scores one event. It owns the stateful steam and freeze windows for that event
// and is not safe for concurrent use; callers serialize calls per event.
type Engine struct {
	sport   string
	rlm     *signals.RLMDetector
	steam   *signals.SteamDetector
	proEdge *signals.ProEdgeDetector
	freeze  *signals.FreezeDetector
	logger  zerolog.Logger
}

// Option configures an Engine
type Option func(*engineOptions)

type engineOptions struct {
	clock signals.Clock
}

// WithClock sets the clock used by the windowed detectors
func WithClock(clock signals.Clock) Option {
	return func(o *engineOptions) {
		o.clock = clock
	}
}

// NewEngine creates a scoring engine for one event in the given sport
func NewEngine(sport string, logger zerolog.Logger, opts ...Option) *Engine {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	var steamOpts []signals.SteamOption
	var freezeOpts []signals.FreezeOption
	if o.clock != nil {
		steamOpts = append(steamOpts, signals.WithSteamClock(o.clock))
		freezeOpts = append(freezeOpts, signals.WithFreezeClock(o.clock))
	}

	return &Engine{
		sport:   sport,
		rlm:     signals.NewRLMDetector(),
		steam:   signals.NewSteamDetector(sport, steamOpts...),
		proEdge: signals.NewProEdgeDetector(),
		freeze:  signals.NewFreezeDetector(freezeOpts...),
		logger:  logger.With().Str("component", "iai_engine").Logger(),
	}
}

// Calculate runs all four detectors against the context and fuses their scores
func (e *Engine) Calculate(sc models.ScoringContext) (*models.IAIResult, error) {
	if err := Validate(sc); err != nil {
		return nil, err
	}

	publicPct := *sc.PublicTicketPct
	isHomeFavorite := *sc.IsHomeFavorite
	lineMovement := *sc.CurrentLine - *sc.OpeningLine

	rlm := e.rlm.Detect(publicPct, lineMovement, isHomeFavorite)

	var steam *signals.SteamResult
	for _, m := range sc.RecentMovements {
		if steam = e.steam.Process(m); steam != nil {
			break
		}
	}

	var proEdgeScore float64
	var proEdgeFired bool
	if len(sc.BettingSplits) > 0 {
		results := e.proEdge.Detect(sc.BettingSplits)
		proEdgeScore = signals.AverageDetected(results)
		for _, r := range results {
			proEdgeFired = proEdgeFired || r.Detected
		}
	}

	freeze := e.freeze.Observe(*sc.CurrentLine, publicPct, isHomeFavorite)

	components := models.SignalComponents{
		RLM:     rlm.Score,
		ProEdge: proEdgeScore,
		Freeze:  freeze.Score,
	}
	if steam != nil {
		components.Steam = steam.Score
	}

	score := components.RLM*WeightRLM +
		components.Steam*WeightSteam +
		components.ProEdge*WeightProEdge +
		components.Freeze*WeightFreeze
	score = math.Max(-signals.MaxScore, math.Min(signals.MaxScore, score))

	detected := make([]models.Signal, 0, 4)
	if rlm.Detected {
		detected = append(detected, models.SignalRLM)
	}
	if steam != nil {
		detected = append(detected, models.SignalSteam)
	}
	if proEdgeFired {
		detected = append(detected, models.SignalProEdge)
	}
	if freeze.Detected {
		detected = append(detected, models.SignalFreeze)
	}

	modifier, interpretation := ModifierFor(score)
	sharpSide := models.SideNone
	switch {
	case score > 0:
		sharpSide = models.SideHome
	case score < 0:
		sharpSide = models.SideAway
	}

	result := &models.IAIResult{
		Score:               score,
		ProbabilityModifier: modifier,
		Confidence:          confidence(len(detected), rlm),
		Components:          components,
		DetectedSignals:     detected,
		SharpSide:           sharpSide,
		Interpretation:      interpretation,
		Recommendation:      recommendation(modifier, interpretation),
		Warnings:            warnings(score, rlm, steam, freeze),
	}

	e.logger.Debug().
		Str("sport", e.sport).
		Float64("line_movement", lineMovement).
		Float64("score", score).
		Float64("modifier", modifier).
		Int("signals", len(detected)).
		Msg("calculated IAI")

	return result, nil
}

// Reset clears the steam and freeze windows
func (e *Engine) Reset() {
	for _, d := range []signals.Detector{e.rlm, e.steam, e.proEdge, e.freeze} {
		d.Reset()
	}
}

// Validate checks that sc carries every field Calculate needs
func Validate(sc models.ScoringContext) error {
	var missing []string
	if sc.OpeningLine == nil {
		missing = append(missing, "opening_line")
	}
	if sc.CurrentLine == nil {
		missing = append(missing, "current_line")
	}
	if sc.IsHomeFavorite == nil {
		missing = append(missing, "is_home_favorite")
	}
	if sc.PublicTicketPct == nil {
		missing = append(missing, "public_ticket_pct")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInsufficientContext, strings.Join(missing, ", "))
	}

	if pct := *sc.PublicTicketPct; pct < 0 || pct > 100 || math.IsNaN(pct) {
		return fmt.Errorf("%w: public_ticket_pct %.2f outside [0, 100]", ErrInsufficientContext, pct)
	}
	return nil
}

func confidence(fired int, rlm signals.RLMResult) float64 {
	c := 0.5
	switch {
	case fired >= 3:
		c = 0.9
	case fired == 2:
		c = 0.75
	case fired == 1:
		c = 0.6
	}
	if rlm.Detected && rlm.Strength > 0.7 {
		c = math.Min(c+0.1, 0.95)
	}
	return c
}

func warnings(score float64, rlm signals.RLMResult, steam *signals.SteamResult, freeze signals.FreezeResult) []string {
	out := make([]string, 0)
	if score < -0.15 {
		out = append(out, "Strong fade: the home side is carrying public money while sharp indicators point away")
	}
	if rlm.Strength > 0.8 {
		out = append(out, fmt.Sprintf("Extreme reverse line movement (strength %.2f) toward %s", rlm.Strength, rlm.SharpSide))
	}
	if steam != nil {
		out = append(out, fmt.Sprintf("Steam move on %s side: %d books in %.0fs", steam.Side, steam.BookCount, signals.SteamWindow.Seconds()))
	}
	if freeze.Detected {
		out = append(out, fmt.Sprintf("Line freeze: %s public action with the line flat for %.0f minutes", freeze.PublicSide, freeze.Duration.Minutes()))
	}
	return out
}

func recommendation(modifier float64, interpretation string) string {
	switch {
	case modifier > 0:
		return fmt.Sprintf("Back home (%s): raise home win probability by %.0f%%", interpretation, modifier*100)
	case modifier < 0:
		return fmt.Sprintf("Fade home (%s): lower home win probability by %.0f%%", interpretation, -modifier*100)
	default:
		return "No adjustment: market signals are balanced"
	}
}
