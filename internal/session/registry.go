// Package session keeps one scoring engine per event so that the windowed
// detectors accumulate history across calls.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/pkg/iai"
)

// Config holds session registry configuration
type Config struct {
	IdleTTL time.Duration // sessions unused for longer are evicted; 0 disables eviction
}

// session serializes scoring for one event
type session struct {
	mu       sync.Mutex
	engine   *iai.Engine
	lastUsed time.Time
	removed  atomic.Bool // set once the session leaves the registry
}

// Registry manages per-event scoring sessions. Distinct events score in
// parallel; calls for the same event are serialized.
type Registry struct {
	sessions   map[string]*session
	mu         sync.RWMutex
	idleTTL    time.Duration
	now        func() time.Time
	engineOpts []iai.Option
	metrics    *metrics.Registry
	logger     zerolog.Logger
}

// NewRegistry creates a new session registry. engineOpts are applied to every
// engine the registry creates.
func NewRegistry(cfg Config, m *metrics.Registry, logger zerolog.Logger, engineOpts ...iai.Option) *Registry {
	if m == nil {
		m = metrics.NewRegistry()
	}

	return &Registry{
		sessions:   make(map[string]*session),
		idleTTL:    cfg.IdleTTL,
		now:        time.Now,
		engineOpts: engineOpts,
		metrics:    m,
		logger:     logger.With().Str("component", "session_registry").Logger(),
	}
}

// Score scores sc against the event's session, creating it on first use.
// Invalid contexts are rejected before any session is created.
func (r *Registry) Score(eventID string, sc models.ScoringContext) (*models.IAIResult, error) {
	if err := iai.Validate(sc); err != nil {
		return nil, err
	}

	for {
		s := r.getOrCreate(eventID, sc.Sport)

		s.mu.Lock()
		// Reset or eviction won the race; score against the replacement session
		if s.removed.Load() {
			s.mu.Unlock()
			continue
		}

		s.lastUsed = r.now()
		result, err := s.engine.Calculate(sc)
		s.mu.Unlock()
		return result, err
	}
}

// Reset drops the event's session so the next score starts with empty windows.
// It reports whether a session existed.
func (r *Registry) Reset(eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[eventID]
	if !exists {
		return false
	}
	s.removed.Store(true)
	delete(r.sessions, eventID)
	r.metrics.ActiveSessions.Set(float64(len(r.sessions)))

	r.logger.Debug().Str("event_id", eventID).Msg("session reset")
	return true
}

// EvictIdle removes sessions idle for longer than the configured TTL and
// returns how many were removed
func (r *Registry) EvictIdle() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var evicted int
	for eventID, s := range r.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastUsed)
		s.mu.Unlock()

		if idle > r.idleTTL {
			s.removed.Store(true)
			delete(r.sessions, eventID)
			evicted++
		}
	}
	r.metrics.ActiveSessions.Set(float64(len(r.sessions)))

	if evicted > 0 {
		r.logger.Info().
			Int("evicted", evicted).
			Int("remaining", len(r.sessions)).
			Msg("evicted idle sessions")
	}
	return evicted
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

func (r *Registry) getOrCreate(eventID, sport string) *session {
	r.mu.RLock()
	s, exists := r.sessions[eventID]
	r.mu.RUnlock()
	if exists {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists = r.sessions[eventID]; exists {
		return s
	}
	s = &session{
		engine:   iai.NewEngine(sport, r.logger, r.engineOpts...),
		lastUsed: r.now(),
	}
	r.sessions[eventID] = s
	r.metrics.ActiveSessions.Set(float64(len(r.sessions)))

	r.logger.Debug().
		Str("event_id", eventID).
		Str("sport", sport).
		Msg("session created")
	return s
}
