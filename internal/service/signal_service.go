package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/cache"
	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/pkg/iai"
	"github.com/cypherlabdev/market-signal-service/pkg/linemove"
)

// SignalService orchestrates per-event IAI scoring with result caching
type SignalService struct {
	scorer    Scorer
	cache     Cache
	movements *linemove.Tracker
	metrics   *metrics.Registry
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSignalService creates a new signal service. movements may be nil; when
// set, movements seen by early-line scans are fed to the event's steam window.
func NewSignalService(
	scorer Scorer,
	cache Cache,
	movements *linemove.Tracker,
	m *metrics.Registry,
	logger zerolog.Logger,
) *SignalService {
	if m == nil {
		m = metrics.NewRegistry()
	}

	return &SignalService{
		scorer:    scorer,
		cache:     cache,
		movements: movements,
		metrics:   m,
		now:       time.Now,
		logger:    logger.With().Str("component", "signal_service").Logger(),
	}
}

// ScoreEvent scores one observation for an event and caches the result.
// Scoring advances the event's detector windows, so it is not idempotent
// across calls for the same event.
func (s *SignalService) ScoreEvent(ctx context.Context, eventID string, sc models.ScoringContext) (*models.IAIResult, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: event_id is required", ErrInvalidRequest)
	}

	if err := iai.Validate(sc); err != nil {
		return nil, fmt.Errorf("failed to score event %s: %w", eventID, err)
	}
	if s.movements != nil {
		if tracked := s.movements.Take(eventID); len(tracked) > 0 {
			sc.RecentMovements = append(tracked, sc.RecentMovements...)
		}
	}

	result, err := s.scorer.Score(eventID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to score event %s: %w", eventID, err)
	}
	result.EventID = eventID
	result.CalculatedAt = s.now().UTC()

	s.metrics.IAICalculations.WithLabelValues(result.Interpretation).Inc()
	for _, sig := range result.DetectedSignals {
		s.metrics.SignalsDetected.WithLabelValues(string(sig)).Inc()
	}

	// Don't fail the request on cache errors
	if err := s.cache.SetResult(ctx, result); err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_id", eventID).
			Msg("failed to cache IAI result")
	}

	s.logger.Info().
		Str("event_id", eventID).
		Float64("score", result.Score).
		Float64("modifier", result.ProbabilityModifier).
		Str("interpretation", result.Interpretation).
		Int("signals", len(result.DetectedSignals)).
		Msg("scored event")

	return result, nil
}

// GetScore returns the latest cached result for an event
func (s *SignalService) GetScore(ctx context.Context, eventID string) (*models.IAIResult, error) {
	result, err := s.cache.GetResult(ctx, eventID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("%w: no score for event %s", ErrNotFound, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return result, nil
}

// ResetEvent discards an event's detector history
func (s *SignalService) ResetEvent(eventID string) error {
	if !s.scorer.Reset(eventID) {
		return fmt.Errorf("%w: no session for event %s", ErrNotFound, eventID)
	}

	s.logger.Info().Str("event_id", eventID).Msg("reset event session")
	return nil
}

// Ping checks the result cache
func (s *SignalService) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
