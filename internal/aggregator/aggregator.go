// Package aggregator fans out early-odds requests to every configured source
// and keeps the earliest capture per event.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/internal/source"
	"github.com/cypherlabdev/market-signal-service/pkg/linemove"
)

// Config holds aggregator configuration
type Config struct {
	InterSportDelay time.Duration     // pause between sports to respect upstream rate limits
	Movements       *linemove.Tracker // optional; diffs every raw record against the source's previous capture
}

// Aggregator merges early odds from multiple sources
type Aggregator struct {
	sources   []source.Source
	delay     time.Duration
	movements *linemove.Tracker
	metrics   *metrics.Registry
	logger    zerolog.Logger
}

// NewAggregator creates a new aggregator over sources, queried in the given order
func NewAggregator(sources []source.Source, cfg Config, m *metrics.Registry, logger zerolog.Logger) *Aggregator {
	if m == nil {
		m = metrics.NewRegistry()
	}

	return &Aggregator{
		sources:   sources,
		delay:     cfg.InterSportDelay,
		movements: cfg.Movements,
		metrics:   m,
		logger:    logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate fetches every sport from every source and returns one record per
// event, sorted by event time. Source failures only drop that source's
// contribution; the only error is cancellation of ctx.
func (a *Aggregator) Aggregate(ctx context.Context, sports []string, horizonDays int) ([]models.NormalizedOdds, error) {
	var all []models.NormalizedOdds

	for i, sport := range sports {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aggregation cancelled: %w", err)
		}

		all = append(all, a.fetchSport(ctx, sport, horizonDays)...)

		if i < len(sports)-1 && a.delay > 0 {
			if err := sleep(ctx, a.delay); err != nil {
				return nil, fmt.Errorf("aggregation cancelled: %w", err)
			}
		}
	}

	// Diff before dedup so every source's capture counts as a book
	var moved int
	if a.movements != nil {
		moved = len(a.movements.Observe(all))
	}

	odds := Dedup(all)
	a.metrics.AggregatedEvents.Add(float64(len(odds)))

	a.logger.Info().
		Int("sports", len(sports)).
		Int("records", len(all)).
		Int("events", len(odds)).
		Int("movements", moved).
		Msg("aggregated early odds")

	return odds, nil
}

// fetchSport queries all sources concurrently and joins their results in
// source order
func (a *Aggregator) fetchSport(ctx context.Context, sport string, horizonDays int) []models.NormalizedOdds {
	results := make([][]models.NormalizedOdds, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = src.FetchEarlyOdds(gctx, sport, horizonDays)
			return nil
		})
	}
	_ = g.Wait()

	var joined []models.NormalizedOdds
	for i, records := range results {
		name := a.sources[i].Name()
		a.metrics.SourceRecords.WithLabelValues(name).Add(float64(len(records)))

		if len(records) == 0 {
			a.logger.Info().
				Str("source", name).
				Str("sport", sport).
				Msg("source returned no records")
			continue
		}
		joined = append(joined, records...)
	}

	return joined
}

// Dedup keeps one record per event id: the one with the earliest CapturedAt,
// or the first seen on a tie. Output is sorted by EventTime, then EventID.
func Dedup(records []models.NormalizedOdds) []models.NormalizedOdds {
	index := make(map[string]int, len(records))
	out := make([]models.NormalizedOdds, 0, len(records))

	for _, rec := range records {
		i, seen := index[rec.EventID]
		if !seen {
			index[rec.EventID] = len(out)
			out = append(out, rec)
			continue
		}
		if rec.CapturedAt.Before(out[i].CapturedAt) {
			out[i] = rec
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EventTime.Equal(out[j].EventTime) {
			return out[i].EventTime.Before(out[j].EventTime)
		}
		return out[i].EventID < out[j].EventID
	})

	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
