package models

import (
	"time"

	"github.com/google/uuid"
)

// Pick is a prediction produced outside this service. Side is the picked team name.
type Pick struct {
	EventID       string    `json:"event_id"`
	Sport         string    `json:"sport"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	EventTime     time.Time `json:"event_time"`
	Side          string    `json:"side"`
	Confidence    float64   `json:"confidence"`
	ExpectedValue float64   `json:"expected_value"`
	Odds          int       `json:"odds"`
}

// LineMoveArbOpportunity pairs an early and a regular pick for the same event after a significant move
type LineMoveArbOpportunity struct {
	ID               uuid.UUID     `json:"id"`
	EventID          string        `json:"event_id"`
	EarlyPick        Pick          `json:"early_pick"`
	RegularPick      Pick          `json:"regular_pick"`
	LineMovement     EventLineMove `json:"line_movement"`
	PickFlipped      bool          `json:"pick_flipped"`
	CombinedEV       float64       `json:"combined_ev"`
	HedgeOpportunity bool          `json:"hedge_opportunity"`
	DetectedAt       time.Time     `json:"detected_at"`
}
