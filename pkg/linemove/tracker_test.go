package linemove

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

var kickoff = time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)

func scanRecord(capturedAt time.Time, source string, spread float64) models.NormalizedOdds {
	rec := snapshot(capturedAt, spread, 44.5, -150, 130)
	rec.Source = source
	rec.EventTime = kickoff
	return rec
}

// TestTracker_FirstScanHasNoMovement tests that a single capture only primes the tracker
func TestTracker_FirstScanHasNoMovement(t *testing.T) {
	tr := NewTracker()
	t0 := kickoff.Add(-72 * time.Hour)

	moves := tr.Observe([]models.NormalizedOdds{scanRecord(t0, "draftkings", -3)})

	assert.Empty(t, moves)
	assert.Equal(t, 1, tr.Len())
	assert.Empty(t, tr.Take("event-1"))
}

// TestTracker_DiffsPerSource tests that each source is diffed against its own previous capture
func TestTracker_DiffsPerSource(t *testing.T) {
	tr := NewTracker()
	t0 := kickoff.Add(-72 * time.Hour)
	t1 := t0.Add(10 * time.Minute)

	tr.Observe([]models.NormalizedOdds{
		scanRecord(t0, "draftkings", -3),
		scanRecord(t0, "fanduel", -3.5),
	})
	moves := tr.Observe([]models.NormalizedOdds{
		scanRecord(t1, "draftkings", -4),
		scanRecord(t1, "fanduel", -3.5),
	})

	require.Len(t, moves, 1)
	assert.Equal(t, "draftkings", moves[0].Book)
	assert.Equal(t, models.LineTypeSpread, moves[0].LineType)
	assert.InDelta(t, -1.0, moves[0].Movement, 1e-9)
	assert.Equal(t, t1, moves[0].Timestamp)

	pending := tr.Take("event-1")
	assert.Equal(t, moves, pending)
	assert.Empty(t, tr.Take("event-1"), "take clears pending movements")
}

// TestTracker_IgnoresRepeatedCapture tests that a cached payload replayed with the same capture time is not a movement
func TestTracker_IgnoresRepeatedCapture(t *testing.T) {
	tr := NewTracker()
	t0 := kickoff.Add(-72 * time.Hour)

	tr.Observe([]models.NormalizedOdds{scanRecord(t0, "draftkings", -3)})
	stale := scanRecord(t0, "draftkings", -6)

	assert.Empty(t, tr.Observe([]models.NormalizedOdds{stale}))
}

// TestTracker_PendingCapped tests the per-event pending cap keeps the newest movements
func TestTracker_PendingCapped(t *testing.T) {
	tr := NewTracker()
	t0 := kickoff.Add(-72 * time.Hour)

	for i := 0; i <= maxPendingPerEvent+10; i++ {
		tr.Observe([]models.NormalizedOdds{scanRecord(t0.Add(time.Duration(i)*time.Minute), "draftkings", float64(i%2))})
	}

	pending := tr.Take("event-1")
	require.Len(t, pending, maxPendingPerEvent)
	assert.Equal(t, t0.Add(time.Duration(maxPendingPerEvent+10)*time.Minute), pending[len(pending)-1].Timestamp)
}

// TestTracker_ForgetsStartedEvents tests that snapshots and pending movements go once the event starts
func TestTracker_ForgetsStartedEvents(t *testing.T) {
	tr := NewTracker()
	t0 := kickoff.Add(-time.Hour)

	tr.Observe([]models.NormalizedOdds{scanRecord(t0, "draftkings", -3)})
	tr.Observe([]models.NormalizedOdds{scanRecord(t0.Add(30*time.Minute), "draftkings", -4)})

	later := scanRecord(kickoff.Add(time.Minute), "fanduel", -3)
	later.EventID = "event-2"
	later.EventTime = kickoff.Add(24 * time.Hour)
	tr.Observe([]models.NormalizedOdds{later})

	assert.Equal(t, 1, tr.Len())
	assert.Empty(t, tr.Take("event-1"))
}
