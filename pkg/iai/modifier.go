package iai

import (
	"math"
)

// Interpretation tags for each modifier bucket
const (
	InterpretationMaxSharp    = "max sharp support"
	InterpretationStrongEdge  = "strong professional edge"
	InterpretationModerate    = "moderate sharp edge"
	InterpretationNeutral     = "neutral / balanced"
	InterpretationPublicHeavy = "weak, public heavy"
	InterpretationFade        = "fade signal"
	InterpretationToxic       = "toxic public trap"
)

type bucket struct {
	floor          float64
	modifier       float64
	interpretation string
}

// buckets are ordered from the highest floor down; the first floor the score reaches wins
var buckets = []bucket{
	{floor: 0.20, modifier: 0.08, interpretation: InterpretationMaxSharp},
	{floor: 0.10, modifier: 0.05, interpretation: InterpretationStrongEdge},
	{floor: 0.05, modifier: 0.03, interpretation: InterpretationModerate},
	{floor: -0.05, modifier: 0, interpretation: InterpretationNeutral},
	{floor: -0.10, modifier: -0.03, interpretation: InterpretationPublicHeavy},
	{floor: -0.20, modifier: -0.05, interpretation: InterpretationFade},
}

// ModifierFor maps a clamped IAI score to its discrete probability modifier and interpretation
func ModifierFor(score float64) (float64, string) {
	for _, b := range buckets {
		if score >= b.floor {
			return b.modifier, b.interpretation
		}
	}
	return -0.08, InterpretationToxic
}

// AdjustProbability applies a probability modifier to the home win probability, keeping it in [0, 1]
func AdjustProbability(homeProbability, modifier float64) float64 {
	return math.Max(0, math.Min(1, homeProbability+modifier))
}
