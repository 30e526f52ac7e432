package linemove

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

func f(v float64) *float64 { return &v }

func snapshot(capturedAt time.Time, spread, total float64, home, away int) models.NormalizedOdds {
	return models.NormalizedOdds{
		EventID:    "event-1",
		Sport:      "nfl",
		HomeTeam:   "Detroit Lions",
		AwayTeam:   "Chicago Bears",
		CapturedAt: capturedAt,
		Source:     "draftkings",
		Moneyline:  models.Moneyline{Home: home, Away: away},
		Spread:     f(spread),
		Total:      f(total),
	}
}

// TestDiff tests one movement per changed line
func TestDiff(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	prev := snapshot(t0, -3, 44.5, -150, 130)
	curr := snapshot(t0.Add(time.Minute), -4, 44.5, -170, 150)

	moves := Diff(prev, curr)

	require.Len(t, moves, 2)
	assert.Equal(t, models.LineTypeSpread, moves[0].LineType)
	assert.Equal(t, -1.0, moves[0].Movement)
	assert.Equal(t, models.SideHome, moves[0].Side())
	assert.Equal(t, "draftkings", moves[0].Book)
	assert.Equal(t, curr.CapturedAt, moves[0].Timestamp)

	assert.Equal(t, models.LineTypeMoneyline, moves[1].LineType)
	assert.Equal(t, -20.0, moves[1].Movement)
	assert.Equal(t, models.SideHome, moves[1].Side())
}

// TestDiff_NoChange tests identical snapshots
func TestDiff_NoChange(t *testing.T) {
	s := snapshot(time.Now(), -3, 44.5, -150, 130)
	assert.Empty(t, Diff(s, s))
}

// TestCompare_Significance tests each threshold in isolation
func TestCompare_Significance(t *testing.T) {
	t0 := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	early := snapshot(t0, -3, 44.5, -150, 130)

	tests := []struct {
		name    string
		current models.NormalizedOdds
		markets []models.LineType
	}{
		{"spread 2.0", snapshot(t0, -1, 44.5, -150, 130), []models.LineType{models.LineTypeSpread}},
		{"spread 0.5", snapshot(t0, -3.5, 44.5, -150, 130), nil},
		{"total 1.5", snapshot(t0, -3, 46, -150, 130), []models.LineType{models.LineTypeTotal}},
		{"moneyline 20 cents", snapshot(t0, -3, 44.5, -170, 150), []models.LineType{models.LineTypeMoneyline}},
		{"moneyline 15 cents", snapshot(t0, -3, 44.5, -165, 145), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move := Compare(early, tt.current, DefaultThresholds())
			assert.Equal(t, tt.markets, move.SignificantMarkets)
			assert.Equal(t, len(tt.markets) > 0, move.Significant)
		})
	}
}

// TestCompare_MissingLines tests that absent lines do not count as movement
func TestCompare_MissingLines(t *testing.T) {
	early := models.NormalizedOdds{EventID: "event-1"}
	current := snapshot(time.Now(), -3, 44.5, -150, 130)

	move := Compare(early, current, DefaultThresholds())

	assert.False(t, move.Significant)
	assert.Equal(t, 0.0, move.Spread)
	assert.Equal(t, 0.0, move.MoneylineHomeCents)
}
