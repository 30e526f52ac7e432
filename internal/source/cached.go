package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// Cached serves a source's results from cache while they are fresh. Records
// keep their original CapturedAt so the earliest capture still wins downstream.
type Cached struct {
	source Source
	cache  OddsCache
	logger zerolog.Logger
}

// NewCached wraps src with cache
func NewCached(src Source, cache OddsCache, logger zerolog.Logger) *Cached {
	return &Cached{
		source: src,
		cache:  cache,
		logger: logger.With().Str("component", "cached_source").Str("source", src.Name()).Logger(),
	}
}

// Name returns the wrapped source's name
func (c *Cached) Name() string {
	return c.source.Name()
}

// FetchEarlyOdds returns cached odds or fetches and caches fresh ones.
// Empty results are not cached so a failed fetch is retried next time.
func (c *Cached) FetchEarlyOdds(ctx context.Context, sport string, horizonDays int) []models.NormalizedOdds {
	key := CacheKey(c.source.Name(), sport, horizonDays)

	odds, err := c.cache.GetOdds(ctx, key)
	if err == nil && len(odds) > 0 {
		c.logger.Debug().Str("key", key).Int("count", len(odds)).Msg("serving odds from cache")
		return odds
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("odds cache lookup missed")
	}

	odds = c.source.FetchEarlyOdds(ctx, sport, horizonDays)
	if len(odds) == 0 {
		return odds
	}

	if err := c.cache.SetOdds(ctx, key, odds); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to cache odds")
	}
	return odds
}

// CacheKey builds the cache key for one (source, sport, horizon) fetch
func CacheKey(source, sport string, horizonDays int) string {
	return fmt.Sprintf("source:%s:%s:%d", source, CanonicalSport(sport), horizonDays)
}
