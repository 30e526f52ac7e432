package signals

import (
	"math"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// Direction describes line movement relative to where the public is betting
type Direction string

const (
	DirectionAgainstPublic Direction = "against_public"
	DirectionWithPublic    Direction = "with_public"
	DirectionNeutral       Direction = "neutral"
)

// RLMResult is the outcome of a reverse-line-movement check
type RLMResult struct {
	Detected   bool        `json:"detected"`
	Direction  Direction   `json:"direction"`
	PublicSide models.Side `json:"public_side"`
	SharpSide  models.Side `json:"sharp_side"`
	Strength   float64     `json:"strength"`
	Score      float64     `json:"score"`
}

// RLMDetector flags lines that move away from the side the public is backing. It is stateless.
type RLMDetector struct{}

// NewRLMDetector creates a reverse-line-movement detector
func NewRLMDetector() *RLMDetector {
	return &RLMDetector{}
}

// Detect compares the observed line movement with the movement the public's tickets would cause
func (d *RLMDetector) Detect(publicTicketPct, lineMovement float64, isHomeFavorite bool) RLMResult {
	publicOnFavorite := publicTicketPct > 50
	if !isHomeFavorite {
		publicOnFavorite = publicTicketPct < 50
	}

	favorite, underdog := models.SideHome, models.SideAway
	if !isHomeFavorite {
		favorite, underdog = underdog, favorite
	}

	result := RLMResult{
		Direction:  DirectionNeutral,
		PublicSide: underdog,
		SharpSide:  models.SideNone,
	}
	if publicOnFavorite {
		result.PublicSide = favorite
	}

	// +1 toward the favorite, -1 toward the underdog
	expected := -1.0
	if publicOnFavorite {
		expected = 1.0
	}
	// a move toward a home favorite lowers the home-quoted line
	if isHomeFavorite {
		expected = -expected
	}

	observed := sign(lineMovement)
	if observed == 0 {
		return result
	}
	if observed == expected {
		result.Direction = DirectionWithPublic
		return result
	}

	result.Detected = true
	result.Direction = DirectionAgainstPublic
	result.Strength = (math.Abs(publicTicketPct-50)/50 + math.Min(math.Abs(lineMovement)/2, 1)) / 2

	result.SharpSide = models.SideAway
	score := -result.Strength * MaxScore
	if observed < 0 {
		result.SharpSide = models.SideHome
		score = -score
	}
	result.Score = clamp(score)

	return result
}

// Reset is a no-op; the detector keeps no window
func (d *RLMDetector) Reset() {}
