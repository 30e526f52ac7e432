package oddsmath

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidOdds is returned for odds that cannot be priced
var ErrInvalidOdds = errors.New("invalid odds")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// AmericanToDecimal converts American odds to decimal odds
// American +300 → Decimal 4.00
// American -400 → Decimal 1.25
func AmericanToDecimal(american int) (decimal.Decimal, error) {
	if american == 0 {
		return decimal.Zero, fmt.Errorf("%w: american odds cannot be 0", ErrInvalidOdds)
	}

	if american > 0 {
		return decimal.NewFromInt(int64(american)).Div(hundred).Add(one), nil
	}

	return hundred.Div(decimal.NewFromInt(int64(-american))).Add(one), nil
}

// DecimalToAmerican converts decimal odds to American odds, rounded to the nearest integer
func DecimalToAmerican(d decimal.Decimal) (int, error) {
	if d.LessThanOrEqual(one) {
		return 0, fmt.Errorf("%w: decimal odds must be > 1.0, got %s", ErrInvalidOdds, d.String())
	}

	if d.GreaterThanOrEqual(decimal.NewFromInt(2)) {
		return int(d.Sub(one).Mul(hundred).Round(0).IntPart()), nil
	}

	return int(hundred.Neg().Div(d.Sub(one)).Round(0).IntPart()), nil
}

// ImpliedProbability converts American odds to implied win probability (vig included)
func ImpliedProbability(american int) (decimal.Decimal, error) {
	d, err := AmericanToDecimal(american)
	if err != nil {
		return decimal.Zero, err
	}
	return one.Div(d), nil
}

// MoneylineCents maps an American price onto a continuous scale so that the
// distance between -105 and +105 is 10 cents rather than 210.
func MoneylineCents(american int) float64 {
	switch {
	case american >= 100:
		return float64(american - 100)
	case american <= -100:
		return float64(american + 100)
	default:
		return 0
	}
}

// MoneylineMove returns the signed cents movement from one American price to another
func MoneylineMove(from, to int) float64 {
	return MoneylineCents(to) - MoneylineCents(from)
}
