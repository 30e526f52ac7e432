package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/market-signal-service/internal/aggregator"
	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/pkg/arbitrage"
	"github.com/cypherlabdev/market-signal-service/pkg/linemove"
)

// EarlyLinesConfig holds defaults for early-line scans and arbitrage checks
type EarlyLinesConfig struct {
	Sports      []string
	HorizonDays int
	Thresholds  linemove.Thresholds
}

// ArbitrageRequest carries picks from both prediction passes plus the line
// movement between them. Movement may be given directly or derived from
// early and current odds snapshots; explicit movements win.
type ArbitrageRequest struct {
	EarlyPicks   []models.Pick           `json:"early_picks"`
	RegularPicks []models.Pick           `json:"regular_picks"`
	LineMoves    []models.EventLineMove  `json:"line_moves,omitempty"`
	EarlyOdds    []models.NormalizedOdds `json:"early_odds,omitempty"`
	CurrentOdds  []models.NormalizedOdds `json:"current_odds,omitempty"`
}

// ArbitrageReport is one opportunity with its human-readable summary
type ArbitrageReport struct {
	Opportunity models.LineMoveArbOpportunity `json:"opportunity"`
	Summary     string                        `json:"summary"`
}

// HedgeRequest sizes a hedge against an early position
type HedgeRequest struct {
	EarlyStake  decimal.Decimal `json:"early_stake"`
	EarlyOdds   int             `json:"early_odds"`
	CurrentOdds int             `json:"current_odds"`
}

// EarlyLinesService scans early odds and finds line-move arbitrage
type EarlyLinesService struct {
	aggregator  *aggregator.Aggregator
	detector    *arbitrage.Detector
	sports      []string
	horizonDays int
	thresholds  linemove.Thresholds
	metrics     *metrics.Registry
	logger      zerolog.Logger
}

// NewEarlyLinesService creates a new early lines service
func NewEarlyLinesService(
	agg *aggregator.Aggregator,
	detector *arbitrage.Detector,
	cfg EarlyLinesConfig,
	m *metrics.Registry,
	logger zerolog.Logger,
) *EarlyLinesService {
	if m == nil {
		m = metrics.NewRegistry()
	}

	return &EarlyLinesService{
		aggregator:  agg,
		detector:    detector,
		sports:      cfg.Sports,
		horizonDays: cfg.HorizonDays,
		thresholds:  cfg.Thresholds,
		metrics:     m,
		logger:      logger.With().Str("component", "early_lines_service").Logger(),
	}
}

// Scan aggregates early odds. Empty sports or a zero horizon fall back to the
// configured defaults.
func (s *EarlyLinesService) Scan(ctx context.Context, sports []string, horizonDays int) ([]models.NormalizedOdds, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", ErrInvalidRequest)
	}
	if len(sports) == 0 {
		sports = s.sports
	}
	if horizonDays == 0 {
		horizonDays = s.horizonDays
	}

	odds, err := s.aggregator.Aggregate(ctx, sports, horizonDays)
	if err != nil {
		return nil, fmt.Errorf("failed to scan early lines: %w", err)
	}
	return odds, nil
}

// DetectArbitrage classifies early/regular pick pairs against line movement
func (s *EarlyLinesService) DetectArbitrage(ctx context.Context, req ArbitrageRequest) ([]ArbitrageReport, error) {
	if len(req.EarlyPicks) == 0 || len(req.RegularPicks) == 0 {
		return nil, fmt.Errorf("%w: early_picks and regular_picks are required", ErrInvalidRequest)
	}

	moves := s.lineMoves(req)
	opportunities := s.detector.Detect(req.EarlyPicks, req.RegularPicks, moves)

	reports := make([]ArbitrageReport, 0, len(opportunities))
	for _, opp := range opportunities {
		if opp.PickFlipped {
			s.metrics.ArbOpportunities.WithLabelValues("flip").Inc()
		}
		if opp.HedgeOpportunity {
			s.metrics.ArbOpportunities.WithLabelValues("hedge").Inc()
		}
		reports = append(reports, ArbitrageReport{
			Opportunity: opp,
			Summary:     arbitrage.Summary(opp),
		})
	}

	s.logger.Info().
		Int("early_picks", len(req.EarlyPicks)).
		Int("regular_picks", len(req.RegularPicks)).
		Int("movements", len(moves)).
		Int("opportunities", len(reports)).
		Msg("line-move arbitrage check complete")

	return reports, nil
}

// Hedge sizes the opposite-side bet for an early position
func (s *EarlyLinesService) Hedge(req HedgeRequest) (arbitrage.HedgeResult, error) {
	result, err := arbitrage.CalculateHedgeStake(req.EarlyStake, req.EarlyOdds, req.CurrentOdds)
	if err != nil {
		return arbitrage.HedgeResult{}, fmt.Errorf("failed to size hedge: %w", err)
	}
	return result, nil
}

// lineMoves re-flags explicit movements with the configured thresholds and
// derives the rest from matching early and current snapshots
func (s *EarlyLinesService) lineMoves(req ArbitrageRequest) []models.EventLineMove {
	moves := make([]models.EventLineMove, 0, len(req.LineMoves)+len(req.EarlyOdds))
	seen := make(map[string]struct{}, len(req.LineMoves))

	for _, m := range req.LineMoves {
		linemove.Flag(&m, s.thresholds)
		moves = append(moves, m)
		seen[m.EventID] = struct{}{}
	}

	current := make(map[string]models.NormalizedOdds, len(req.CurrentOdds))
	for _, o := range req.CurrentOdds {
		current[o.EventID] = o
	}
	for _, early := range req.EarlyOdds {
		if _, ok := seen[early.EventID]; ok {
			continue
		}
		cur, ok := current[early.EventID]
		if !ok {
			continue
		}
		moves = append(moves, linemove.Compare(early, cur, s.thresholds))
		seen[early.EventID] = struct{}{}
	}

	return moves
}
