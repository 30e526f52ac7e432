// Package linemove derives line movements by diffing odds snapshots.
package linemove

import (
	"math"

	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/pkg/oddsmath"
)

// Thresholds decide when an event's line movement is significant. Any one suffices.
type Thresholds struct {
	MoneylineCents float64 // e.g., 20 cents
	SpreadPoints   float64 // e.g., 1.0 point
	TotalPoints    float64 // e.g., 1.5 points
}

// DefaultThresholds returns the standard significance thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		MoneylineCents: 20,
		SpreadPoints:   1.0,
		TotalPoints:    1.5,
	}
}

// Diff returns one movement per line that changed between two snapshots of the same event.
// The book is the current snapshot's source. Moneyline movements are in cents on the home price.
func Diff(prev, curr models.NormalizedOdds) []models.LineMovement {
	var moves []models.LineMovement

	newMove := func(lineType models.LineType, line, previous, movement float64) models.LineMovement {
		return models.LineMovement{
			EventID:      curr.EventID,
			Sport:        curr.Sport,
			Book:         curr.Source,
			Timestamp:    curr.CapturedAt,
			LineType:     lineType,
			Line:         line,
			PreviousLine: previous,
			Movement:     movement,
		}
	}

	if prev.Spread != nil && curr.Spread != nil && *prev.Spread != *curr.Spread {
		moves = append(moves, newMove(models.LineTypeSpread, *curr.Spread, *prev.Spread, *curr.Spread-*prev.Spread))
	}
	if prev.Total != nil && curr.Total != nil && *prev.Total != *curr.Total {
		moves = append(moves, newMove(models.LineTypeTotal, *curr.Total, *prev.Total, *curr.Total-*prev.Total))
	}
	if prev.Moneyline.Home != 0 && curr.Moneyline.Home != 0 && prev.Moneyline.Home != curr.Moneyline.Home {
		moves = append(moves, newMove(models.LineTypeMoneyline,
			float64(curr.Moneyline.Home), float64(prev.Moneyline.Home),
			oddsmath.MoneylineMove(prev.Moneyline.Home, curr.Moneyline.Home)))
	}

	return moves
}

// Compare summarizes movement from an early snapshot to the current one and flags significance
func Compare(early, current models.NormalizedOdds, th Thresholds) models.EventLineMove {
	move := models.EventLineMove{
		EventID: current.EventID,
		Sport:   current.Sport,
		From:    early.CapturedAt,
		To:      current.CapturedAt,
	}

	if early.Moneyline.Home != 0 && current.Moneyline.Home != 0 {
		move.MoneylineHomeCents = oddsmath.MoneylineMove(early.Moneyline.Home, current.Moneyline.Home)
	}
	if early.Moneyline.Away != 0 && current.Moneyline.Away != 0 {
		move.MoneylineAwayCents = oddsmath.MoneylineMove(early.Moneyline.Away, current.Moneyline.Away)
	}
	if early.Spread != nil && current.Spread != nil {
		move.Spread = *current.Spread - *early.Spread
	}
	if early.Total != nil && current.Total != nil {
		move.Total = *current.Total - *early.Total
	}

	Flag(&move, th)
	return move
}

// Flag sets Significant and SignificantMarkets on a movement from its deltas
func Flag(move *models.EventLineMove, th Thresholds) {
	move.SignificantMarkets = nil
	if math.Max(math.Abs(move.MoneylineHomeCents), math.Abs(move.MoneylineAwayCents)) >= th.MoneylineCents {
		move.SignificantMarkets = append(move.SignificantMarkets, models.LineTypeMoneyline)
	}
	if math.Abs(move.Spread) >= th.SpreadPoints {
		move.SignificantMarkets = append(move.SignificantMarkets, models.LineTypeSpread)
	}
	if math.Abs(move.Total) >= th.TotalPoints {
		move.SignificantMarkets = append(move.SignificantMarkets, models.LineTypeTotal)
	}
	move.Significant = len(move.SignificantMarkets) > 0
}
