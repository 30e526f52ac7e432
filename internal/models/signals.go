package models

import (
	"time"
)

// BettingSplit is the public ticket vs money distribution on one side
type BettingSplit struct {
	Timestamp time.Time `json:"timestamp"`
	Side      Side      `json:"side"`
	TicketPct float64   `json:"ticket_pct"`
	HandlePct float64   `json:"handle_pct"`
}

// Gap is handle share minus ticket share
func (b BettingSplit) Gap() float64 {
	return b.HandlePct - b.TicketPct
}

// ScoringContext is the input to one IAI calculation. Pointer fields are required.
type ScoringContext struct {
	Sport           string         `json:"sport"`
	OpeningLine     *float64       `json:"opening_line"`
	CurrentLine     *float64       `json:"current_line"`
	IsHomeFavorite  *bool          `json:"is_home_favorite"`
	PublicTicketPct *float64       `json:"public_ticket_pct"`
	BettingSplits   []BettingSplit `json:"betting_splits,omitempty"`
	RecentMovements []LineMovement `json:"recent_movements,omitempty"`
}

// Signal names a detector
type Signal string

const (
	SignalRLM     Signal = "rlm"
	SignalSteam   Signal = "steam"
	SignalProEdge Signal = "pro_edge"
	SignalFreeze  Signal = "freeze"
)

// SignalComponents holds each detector's score before weighting
type SignalComponents struct {
	RLM     float64 `json:"rlm"`
	Steam   float64 `json:"steam"`
	ProEdge float64 `json:"pro_edge"`
	Freeze  float64 `json:"freeze"`
}

// IAIResult is the fused Information Asymmetry Index for one event
type IAIResult struct {
	EventID             string           `json:"event_id,omitempty"`
	Score               float64          `json:"score"`
	ProbabilityModifier float64          `json:"probability_modifier"`
	Confidence          float64          `json:"confidence"`
	Components          SignalComponents `json:"components"`
	DetectedSignals     []Signal         `json:"detected_signals"`
	SharpSide           Side             `json:"sharp_side"`
	Interpretation      string           `json:"interpretation"`
	Recommendation      string           `json:"recommendation"`
	Warnings            []string         `json:"warnings"`
	CalculatedAt        time.Time        `json:"calculated_at"`
}
