package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Side identifies one side of a two-way market
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
	SideNone Side = "none"
)

// Opposite returns the other side of the market
func (s Side) Opposite() Side {
	switch s {
	case SideHome:
		return SideAway
	case SideAway:
		return SideHome
	default:
		return SideNone
	}
}

// LineType is the market a line belongs to
type LineType string

const (
	LineTypeSpread    LineType = "spread"
	LineTypeTotal     LineType = "total"
	LineTypeMoneyline LineType = "moneyline"
)

// Moneyline holds American moneyline prices. Zero means not quoted.
type Moneyline struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// NormalizedOdds is one odds snapshot for an event as captured from a single source.
// Lines are quoted from the home side: Spread is the home spread.
type NormalizedOdds struct {
	EventID     string    `json:"event_id"`
	Sport       string    `json:"sport"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	EventTime   time.Time `json:"event_time"`
	CapturedAt  time.Time `json:"captured_at"`
	Source      string    `json:"source"`
	Moneyline   Moneyline `json:"moneyline"`
	Spread      *float64  `json:"spread,omitempty"`
	SpreadPrice int       `json:"spread_price,omitempty"`
	Total       *float64  `json:"total,omitempty"`
	OverPrice   int       `json:"over_price,omitempty"`
	UnderPrice  int       `json:"under_price,omitempty"`
}

// LineMovement is the change of one line at one book between two snapshots.
// Movement is Line - PreviousLine; negative means the line moved toward home.
type LineMovement struct {
	EventID      string    `json:"event_id"`
	Sport        string    `json:"sport"`
	Book         string    `json:"book"`
	Timestamp    time.Time `json:"timestamp"`
	LineType     LineType  `json:"line_type"`
	Line         float64   `json:"line"`
	PreviousLine float64   `json:"previous_line"`
	Movement     float64   `json:"movement"`
}

// Side reports which side a movement favors. Totals have no side.
func (m LineMovement) Side() Side {
	if m.LineType == LineTypeTotal || m.Movement == 0 {
		return SideNone
	}
	if m.Movement < 0 {
		return SideHome
	}
	return SideAway
}

// EventLineMove summarizes how an event's lines moved between an early and a current snapshot
type EventLineMove struct {
	EventID            string     `json:"event_id"`
	Sport              string     `json:"sport"`
	MoneylineHomeCents float64    `json:"moneyline_home_cents"`
	MoneylineAwayCents float64    `json:"moneyline_away_cents"`
	Spread             float64    `json:"spread"`
	Total              float64    `json:"total"`
	Significant        bool       `json:"significant"`
	SignificantMarkets []LineType `json:"significant_markets,omitempty"`
	From               time.Time  `json:"from"`
	To                 time.Time  `json:"to"`
}

// NormalizeTeam lowercases a team name and strips whitespace and punctuation
func NormalizeTeam(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// CanonicalEventID builds a source-independent event id so that records for the
// same game from different sources collapse onto one key:
// nfl-20261020-chicagobears-detroitlions (sport, UTC date, away, home).
func CanonicalEventID(sport string, eventTime time.Time, homeTeam, awayTeam string) string {
	return fmt.Sprintf("%s-%s-%s-%s",
		strings.ToLower(sport),
		eventTime.UTC().Format("20060102"),
		NormalizeTeam(awayTeam),
		NormalizeTeam(homeTeam),
	)
}
