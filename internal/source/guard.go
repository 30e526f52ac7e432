package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cypherlabdev/market-signal-service/internal/metrics"
)

var (
	// ErrUnauthorized is returned when the upstream rejects the credentials
	ErrUnauthorized = errors.New("upstream rejected credentials")

	// ErrUpstreamStatus is returned for any other non-200 response
	ErrUpstreamStatus = errors.New("unexpected upstream status")
)

// GuardConfig holds the protection settings for one upstream
type GuardConfig struct {
	Name            string
	RequestTimeout  time.Duration
	RatePerSecond   float64 // 0 disables limiting
	Burst           int
	BreakerFailures uint32 // consecutive failures before the breaker opens
	BreakerTimeout  time.Duration
}

// Guard performs rate limited, circuit broken JSON GETs against one upstream
type Guard struct {
	name    string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
	logger  zerolog.Logger
}

// NewGuard creates a new guard. A nil client uses a default http.Client and a
// nil registry gets a private one.
func NewGuard(cfg GuardConfig, client *http.Client, m *metrics.Registry, logger zerolog.Logger) *Guard {
	if client == nil {
		client = &http.Client{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}

	g := &Guard{
		name:    cfg.Name,
		timeout: cfg.RequestTimeout,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
		logger:  logger.With().Str("component", "source_guard").Str("source", cfg.Name).Logger(),
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return g
}

// State returns the current circuit breaker state
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// GetJSON fetches url and decodes the JSON body into out
func (g *Guard) GetJSON(ctx context.Context, url string, out interface{}) error {
	start := time.Now()
	err := g.getJSON(ctx, url, out)

	g.metrics.SourceFetchDuration.WithLabelValues(g.name).Observe(time.Since(start).Seconds())
	g.metrics.SourceFetches.WithLabelValues(g.name, fetchResult(err)).Inc()

	return err
}

func (g *Guard) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		reqCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, ErrUnauthorized
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return nil, nil
	})

	return err
}

func fetchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "open"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}
