package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/market-signal-service/internal/cache"
	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/mocks"
	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/pkg/iai"
	"github.com/cypherlabdev/market-signal-service/pkg/linemove"
)

// testSignalServiceSetup is a helper struct to hold test dependencies
type testSignalServiceSetup struct {
	service    *SignalService
	mockScorer *mocks.MockScorer
	mockCache  *mocks.MockCache
	movements  *linemove.Tracker
	metrics    *metrics.Registry
	now        time.Time
	ctx        context.Context
}

// setupTestSignalService creates a service with mocked dependencies
func setupTestSignalService(t *testing.T) *testSignalServiceSetup {
	ctrl := gomock.NewController(t)

	mockScorer := mocks.NewMockScorer(ctrl)
	mockCache := mocks.NewMockCache(ctrl)
	m := metrics.NewRegistry()
	now := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)

	movements := linemove.NewTracker()

	svc := NewSignalService(mockScorer, mockCache, movements, m, zerolog.Nop())
	svc.now = func() time.Time { return now }

	return &testSignalServiceSetup{
		service:    svc,
		mockScorer: mockScorer,
		mockCache:  mockCache,
		movements:  movements,
		metrics:    m,
		now:        now,
		ctx:        context.Background(),
	}
}

func f(v float64) *float64 { return &v }
func b(v bool) *bool       { return &v }

func scoringContext() models.ScoringContext {
	return models.ScoringContext{
		Sport:           "nfl",
		OpeningLine:     f(-3),
		CurrentLine:     f(-1),
		IsHomeFavorite:  b(true),
		PublicTicketPct: f(85),
	}
}

func fadeResult() *models.IAIResult {
	return &models.IAIResult{
		Score:               -0.1425,
		ProbabilityModifier: -0.05,
		DetectedSignals:     []models.Signal{models.SignalRLM, models.SignalSteam},
		SharpSide:           models.SideAway,
		Interpretation:      iai.InterpretationFade,
	}
}

func TestScoreEvent_Success(t *testing.T) {
	setup := setupTestSignalService(t)

	setup.mockScorer.EXPECT().Score("E1", scoringContext()).Return(fadeResult(), nil)
	setup.mockCache.EXPECT().
		SetResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.IAIResult) error {
			assert.Equal(t, "E1", r.EventID)
			return nil
		})

	result, err := setup.service.ScoreEvent(setup.ctx, "E1", scoringContext())

	require.NoError(t, err)
	assert.Equal(t, "E1", result.EventID)
	assert.Equal(t, setup.now, result.CalculatedAt)
	assert.Equal(t, -0.05, result.ProbabilityModifier)
	assert.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.IAICalculations.WithLabelValues(iai.InterpretationFade)))
	assert.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.SignalsDetected.WithLabelValues("rlm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(setup.metrics.SignalsDetected.WithLabelValues("steam")))
}

func TestScoreEvent_CacheFailureDoesNotFail(t *testing.T) {
	setup := setupTestSignalService(t)

	setup.mockScorer.EXPECT().Score("E1", gomock.Any()).Return(fadeResult(), nil)
	setup.mockCache.EXPECT().SetResult(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	result, err := setup.service.ScoreEvent(setup.ctx, "E1", scoringContext())

	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestScoreEvent_InsufficientContext(t *testing.T) {
	setup := setupTestSignalService(t)

	result, err := setup.service.ScoreEvent(setup.ctx, "E1", models.ScoringContext{})

	assert.ErrorIs(t, err, iai.ErrInsufficientContext)
	assert.Nil(t, result)
}

func TestScoreEvent_ScorerFailure(t *testing.T) {
	setup := setupTestSignalService(t)

	setup.mockScorer.EXPECT().Score("E1", gomock.Any()).Return(nil, errors.New("engine exploded"))

	result, err := setup.service.ScoreEvent(setup.ctx, "E1", scoringContext())

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestScoreEvent_FeedsTrackedMovements(t *testing.T) {
	setup := setupTestSignalService(t)
	kickoff := setup.now.Add(72 * time.Hour)
	snap := func(capturedAt time.Time, spread float64) models.NormalizedOdds {
		return models.NormalizedOdds{
			EventID:    "E1",
			Sport:      "nfl",
			EventTime:  kickoff,
			CapturedAt: capturedAt,
			Source:     "the-odds-api:draftkings",
			Spread:     &spread,
		}
	}
	setup.movements.Observe([]models.NormalizedOdds{snap(setup.now.Add(-time.Minute), -3)})
	setup.movements.Observe([]models.NormalizedOdds{snap(setup.now, -3.5)})

	supplied := models.LineMovement{EventID: "E1", Book: "fanduel", LineType: models.LineTypeSpread, Movement: -0.5}
	sc := scoringContext()
	sc.RecentMovements = []models.LineMovement{supplied}

	setup.mockScorer.EXPECT().
		Score("E1", gomock.Any()).
		DoAndReturn(func(_ string, got models.ScoringContext) (*models.IAIResult, error) {
			require.Len(t, got.RecentMovements, 2)
			assert.Equal(t, "the-odds-api:draftkings", got.RecentMovements[0].Book, "tracked movements come first")
			assert.Equal(t, supplied, got.RecentMovements[1])
			return fadeResult(), nil
		})
	setup.mockCache.EXPECT().SetResult(gomock.Any(), gomock.Any()).Return(nil)

	_, err := setup.service.ScoreEvent(setup.ctx, "E1", sc)

	require.NoError(t, err)
	assert.Empty(t, setup.movements.Take("E1"), "movements are consumed once")
}

func TestScoreEvent_InvalidContextKeepsTrackedMovements(t *testing.T) {
	setup := setupTestSignalService(t)
	kickoff := setup.now.Add(72 * time.Hour)
	for i, spread := range []float64{-3, -3.5} {
		v := spread
		setup.movements.Observe([]models.NormalizedOdds{{
			EventID:    "E1",
			EventTime:  kickoff,
			CapturedAt: setup.now.Add(time.Duration(i) * time.Minute),
			Source:     "espn",
			Spread:     &v,
		}})
	}

	_, err := setup.service.ScoreEvent(setup.ctx, "E1", models.ScoringContext{})

	assert.ErrorIs(t, err, iai.ErrInsufficientContext)
	assert.Len(t, setup.movements.Take("E1"), 1)
}

func TestScoreEvent_MissingEventID(t *testing.T) {
	setup := setupTestSignalService(t)

	_, err := setup.service.ScoreEvent(setup.ctx, "", scoringContext())

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGetScore_Hit(t *testing.T) {
	setup := setupTestSignalService(t)
	cached := fadeResult()
	cached.EventID = "E1"

	setup.mockCache.EXPECT().GetResult(gomock.Any(), "E1").Return(cached, nil)

	result, err := setup.service.GetScore(setup.ctx, "E1")

	require.NoError(t, err)
	assert.Equal(t, cached, result)
}

func TestGetScore_Miss(t *testing.T) {
	setup := setupTestSignalService(t)

	setup.mockCache.EXPECT().
		GetResult(gomock.Any(), "E9").
		Return(nil, fmt.Errorf("%w: iai:E9", cache.ErrCacheMiss))

	_, err := setup.service.GetScore(setup.ctx, "E9")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetScore_CacheError(t *testing.T) {
	setup := setupTestSignalService(t)

	setup.mockCache.EXPECT().GetResult(gomock.Any(), "E1").Return(nil, errors.New("connection refused"))

	_, err := setup.service.GetScore(setup.ctx, "E1")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResetEvent(t *testing.T) {
	setup := setupTestSignalService(t)

	setup.mockScorer.EXPECT().Reset("E1").Return(true)
	setup.mockScorer.EXPECT().Reset("E2").Return(false)

	assert.NoError(t, setup.service.ResetEvent("E1"))
	assert.ErrorIs(t, setup.service.ResetEvent("E2"), ErrNotFound)
}

func TestPing(t *testing.T) {
	setup := setupTestSignalService(t)

	setup.mockCache.EXPECT().Ping(gomock.Any()).Return(nil)

	assert.NoError(t, setup.service.Ping(setup.ctx))
}
