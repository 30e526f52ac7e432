// Package arbitrage compares early and regular picks for the same event to find
// flipped picks and dual positive-EV hedges created by line movement.
package arbitrage

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// Detector finds line-move arbitrage opportunities
type Detector struct {
	now    func() time.Time
	logger zerolog.Logger
}

// NewDetector creates a line-move arbitrage detector
func NewDetector(logger zerolog.Logger) *Detector {
	return &Detector{
		now:    time.Now,
		logger: logger.With().Str("component", "arbitrage_detector").Logger(),
	}
}

// Detect pairs each early pick with the regular pick and movement for its event.
// Events without a regular pick or without a significant movement are skipped.
// Results are sorted by combined expected value, highest first.
func (d *Detector) Detect(earlyPicks, regularPicks []models.Pick, moves []models.EventLineMove) []models.LineMoveArbOpportunity {
	regularByEvent := make(map[string]models.Pick, len(regularPicks))
	for _, p := range regularPicks {
		regularByEvent[p.EventID] = p
	}
	moveByEvent := make(map[string]models.EventLineMove, len(moves))
	for _, m := range moves {
		moveByEvent[m.EventID] = m
	}

	opportunities := make([]models.LineMoveArbOpportunity, 0)
	for _, early := range earlyPicks {
		regular, ok := regularByEvent[early.EventID]
		if !ok {
			continue
		}
		move, ok := moveByEvent[early.EventID]
		if !ok || !move.Significant {
			continue
		}

		flipped := models.NormalizeTeam(early.Side) != models.NormalizeTeam(regular.Side)
		hedge := early.ExpectedValue > 0 && regular.ExpectedValue > 0
		if !flipped && !hedge {
			continue
		}

		opportunities = append(opportunities, models.LineMoveArbOpportunity{
			ID:               uuid.New(),
			EventID:          early.EventID,
			EarlyPick:        early,
			RegularPick:      regular,
			LineMovement:     move,
			PickFlipped:      flipped,
			CombinedEV:       early.ExpectedValue + regular.ExpectedValue,
			HedgeOpportunity: hedge,
			DetectedAt:       d.now().UTC(),
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].CombinedEV > opportunities[j].CombinedEV
	})

	d.logger.Debug().
		Int("early_picks", len(earlyPicks)).
		Int("regular_picks", len(regularPicks)).
		Int("movements", len(moves)).
		Int("opportunities", len(opportunities)).
		Msg("line-move arbitrage scan complete")

	return opportunities
}
