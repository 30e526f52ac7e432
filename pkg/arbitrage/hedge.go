package arbitrage

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/market-signal-service/pkg/oddsmath"
)

// ErrInvalidStake is returned for a zero or negative stake
var ErrInvalidStake = errors.New("invalid stake")

var one = decimal.NewFromInt(1)

// HedgeResult is the closed-form hedge for an early bet against the current price on the other side
type HedgeResult struct {
	EarlyStake          decimal.Decimal `json:"early_stake"`
	EarlyDecimalOdds    decimal.Decimal `json:"early_decimal_odds"`
	CurrentDecimalOdds  decimal.Decimal `json:"current_decimal_odds"`
	HedgeStake          decimal.Decimal `json:"hedge_stake"`
	TotalStake          decimal.Decimal `json:"total_stake"`
	ProfitIfEarlyWins   decimal.Decimal `json:"profit_if_early_wins"`
	ProfitIfCurrentWins decimal.Decimal `json:"profit_if_current_wins"`
	GuaranteedProfit    decimal.Decimal `json:"guaranteed_profit"`
	// Below 1 the two prices leave a locked-in profit
	ImpliedProbabilitySum decimal.Decimal `json:"implied_probability_sum"`
	// Worst current price on the other side that still hedges without a loss
	BreakEvenOdds int `json:"break_even_odds"`
}

// CalculateHedgeStake sizes the second leg so that both outcomes pay the same.
// The guaranteed profit is the smaller of the two outcomes and may be negative
// when the price movement does not leave room for a locked-in profit.
func CalculateHedgeStake(earlyStake decimal.Decimal, earlyOdds, currentOdds int) (HedgeResult, error) {
	if !earlyStake.IsPositive() {
		return HedgeResult{}, fmt.Errorf("%w: early stake must be positive, got %s", ErrInvalidStake, earlyStake.String())
	}

	earlyDecimal, err := oddsmath.AmericanToDecimal(earlyOdds)
	if err != nil {
		return HedgeResult{}, fmt.Errorf("early odds: %w", err)
	}
	currentDecimal, err := oddsmath.AmericanToDecimal(currentOdds)
	if err != nil {
		return HedgeResult{}, fmt.Errorf("current odds: %w", err)
	}

	earlyImplied, err := oddsmath.ImpliedProbability(earlyOdds)
	if err != nil {
		return HedgeResult{}, fmt.Errorf("early odds: %w", err)
	}
	currentImplied, err := oddsmath.ImpliedProbability(currentOdds)
	if err != nil {
		return HedgeResult{}, fmt.Errorf("current odds: %w", err)
	}
	breakEven, err := oddsmath.DecimalToAmerican(one.Div(one.Sub(one.Div(earlyDecimal))))
	if err != nil {
		return HedgeResult{}, fmt.Errorf("break-even odds: %w", err)
	}

	earlyPayout := earlyStake.Mul(earlyDecimal)
	hedgeStake := earlyPayout.Div(currentDecimal).Round(2)
	total := earlyStake.Add(hedgeStake)

	profitEarly := earlyPayout.Sub(total).Round(2)
	profitCurrent := hedgeStake.Mul(currentDecimal).Sub(total).Round(2)

	return HedgeResult{
		EarlyStake:          earlyStake,
		EarlyDecimalOdds:    earlyDecimal,
		CurrentDecimalOdds:  currentDecimal,
		HedgeStake:          hedgeStake,
		TotalStake:          total,
		ProfitIfEarlyWins:   profitEarly,
		ProfitIfCurrentWins: profitCurrent,
		GuaranteedProfit:    decimal.Min(profitEarly, profitCurrent),

		ImpliedProbabilitySum: earlyImplied.Add(currentImplied).Round(4),
		BreakEvenOdds:         breakEven,
	}, nil
}
