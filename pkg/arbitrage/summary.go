package arbitrage

import (
	"fmt"
	"strings"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// Summary renders an opportunity as the short text block shown on the early-lines board
func Summary(opp models.LineMoveArbOpportunity) string {
	var sb strings.Builder

	kind := "HEDGE"
	if opp.PickFlipped {
		kind = "FLIP"
	}
	fmt.Fprintf(&sb, "[%s] %s @ %s (%s)\n", kind, opp.EarlyPick.AwayTeam, opp.EarlyPick.HomeTeam, opp.EventID)
	fmt.Fprintf(&sb, "  early:   %s %s (EV %+.1f%%)\n", opp.EarlyPick.Side, formatAmerican(opp.EarlyPick.Odds), opp.EarlyPick.ExpectedValue)
	fmt.Fprintf(&sb, "  regular: %s %s (EV %+.1f%%)\n", opp.RegularPick.Side, formatAmerican(opp.RegularPick.Odds), opp.RegularPick.ExpectedValue)

	moves := make([]string, 0, 3)
	for _, m := range opp.LineMovement.SignificantMarkets {
		switch m {
		case models.LineTypeSpread:
			moves = append(moves, fmt.Sprintf("spread %+.1f", opp.LineMovement.Spread))
		case models.LineTypeTotal:
			moves = append(moves, fmt.Sprintf("total %+.1f", opp.LineMovement.Total))
		case models.LineTypeMoneyline:
			moves = append(moves, fmt.Sprintf("ML %+.0f¢", opp.LineMovement.MoneylineHomeCents))
		}
	}
	fmt.Fprintf(&sb, "  moved:   %s\n", strings.Join(moves, ", "))
	fmt.Fprintf(&sb, "  combined EV %+.1f%%", opp.CombinedEV)

	return sb.String()
}

func formatAmerican(odds int) string {
	if odds > 0 {
		return fmt.Sprintf("+%d", odds)
	}
	return fmt.Sprintf("%d", odds)
}
