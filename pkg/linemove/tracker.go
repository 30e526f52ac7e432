package linemove

import (
	"sync"
	"time"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// maxPendingPerEvent caps movements held for an event nobody is scoring
const maxPendingPerEvent = 64

type snapshotKey struct {
	eventID string
	source  string
}

// Tracker turns successive scans into line movements. It keeps the last
// snapshot per event and source, plus the movements not yet taken for scoring.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	last    map[snapshotKey]models.NormalizedOdds
	pending map[string][]models.LineMovement
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		last:    make(map[snapshotKey]models.NormalizedOdds),
		pending: make(map[string][]models.LineMovement),
	}
}

// Observe diffs each record against the previous capture of the same event from
// the same source and returns the movements found. Records that are not newer
// than the held capture (cached payloads) are ignored. Events that have started
// by the newest capture time are forgotten.
func (t *Tracker) Observe(records []models.NormalizedOdds) []models.LineMovement {
	t.mu.Lock()
	defer t.mu.Unlock()

	var moves []models.LineMovement
	var latest time.Time

	for _, rec := range records {
		if rec.CapturedAt.After(latest) {
			latest = rec.CapturedAt
		}

		key := snapshotKey{eventID: rec.EventID, source: rec.Source}
		prev, seen := t.last[key]
		if seen && !rec.CapturedAt.After(prev.CapturedAt) {
			continue
		}
		t.last[key] = rec
		if !seen {
			continue
		}

		diff := Diff(prev, rec)
		if len(diff) == 0 {
			continue
		}
		moves = append(moves, diff...)

		pending := append(t.pending[rec.EventID], diff...)
		if len(pending) > maxPendingPerEvent {
			pending = pending[len(pending)-maxPendingPerEvent:]
		}
		t.pending[rec.EventID] = pending
	}

	t.prune(latest)
	return moves
}

// Take returns the event's pending movements, oldest first, and clears them
func (t *Tracker) Take(eventID string) []models.LineMovement {
	t.mu.Lock()
	defer t.mu.Unlock()

	moves := t.pending[eventID]
	delete(t.pending, eventID)
	return moves
}

// Len returns the number of held snapshots
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.last)
}

func (t *Tracker) prune(now time.Time) {
	if now.IsZero() {
		return
	}
	for key, rec := range t.last {
		if !rec.EventTime.After(now) {
			delete(t.last, key)
			delete(t.pending, key.eventID)
		}
	}
}
