package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/market-signal-service/internal/aggregator"
	"github.com/cypherlabdev/market-signal-service/internal/cache"
	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/mocks"
	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/internal/service"
	"github.com/cypherlabdev/market-signal-service/internal/source"
	"github.com/cypherlabdev/market-signal-service/pkg/arbitrage"
	"github.com/cypherlabdev/market-signal-service/pkg/iai"
	"github.com/cypherlabdev/market-signal-service/pkg/linemove"
)

// testHandlerSetup is a helper struct to hold test dependencies
type testHandlerSetup struct {
	router     chi.Router
	mockScorer *mocks.MockScorer
	mockCache  *mocks.MockCache
	mockSource *mocks.MockSource
}

// setupTestHandler wires real services over mocks behind a chi router
func setupTestHandler(t *testing.T) *testHandlerSetup {
	ctrl := gomock.NewController(t)

	mockScorer := mocks.NewMockScorer(ctrl)
	mockCache := mocks.NewMockCache(ctrl)
	mockSource := mocks.NewMockSource(ctrl)
	mockSource.EXPECT().Name().Return("espn").AnyTimes()

	m := metrics.NewRegistry()
	logger := zerolog.Nop()

	signals := service.NewSignalService(mockScorer, mockCache, nil, m, logger)
	agg := aggregator.NewAggregator([]source.Source{mockSource}, aggregator.Config{}, m, logger)
	earlyLines := service.NewEarlyLinesService(agg, arbitrage.NewDetector(logger), service.EarlyLinesConfig{
		Sports:      []string{"nfl"},
		HorizonDays: 5,
		Thresholds:  linemove.DefaultThresholds(),
	}, m, logger)

	router := chi.NewRouter()
	NewSignalHandler(signals, earlyLines, logger).RegisterRoutes(router)

	return &testHandlerSetup{
		router:     router,
		mockScorer: mockScorer,
		mockCache:  mockCache,
		mockSource: mockSource,
	}
}

func (s *testHandlerSetup) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const scoringBody = `{
  "sport": "nfl",
  "opening_line": -3,
  "current_line": -1,
  "is_home_favorite": true,
  "public_ticket_pct": 85
}`

func TestScoreEvent_Success(t *testing.T) {
	setup := setupTestHandler(t)

	setup.mockScorer.EXPECT().
		Score("E1", gomock.Any()).
		DoAndReturn(func(_ string, sc models.ScoringContext) (*models.IAIResult, error) {
			require.NotNil(t, sc.PublicTicketPct)
			assert.Equal(t, 85.0, *sc.PublicTicketPct)
			return &models.IAIResult{
				Score:               -0.1425,
				ProbabilityModifier: -0.05,
				Interpretation:      iai.InterpretationFade,
			}, nil
		})
	setup.mockCache.EXPECT().SetResult(gomock.Any(), gomock.Any()).Return(nil)

	rec := setup.do(http.MethodPost, "/api/v1/events/E1/iai?home_probability=0.5", scoringBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, "E1", body["event_id"])
	assert.Equal(t, -0.05, body["probability_modifier"])
	assert.InDelta(t, 0.45, body["adjusted_home_probability"], 1e-9)
}

func TestScoreEvent_InsufficientContext(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(http.MethodPost, "/api/v1/events/E1/iai", `{"sport": "nfl"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "opening_line")
}

func TestScoreEvent_InvalidBody(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(http.MethodPost, "/api/v1/events/E1/iai", `{"opening_line": "minus three"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreEvent_InvalidProbability(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(http.MethodPost, "/api/v1/events/E1/iai?home_probability=1.5", scoringBody)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScore(t *testing.T) {
	setup := setupTestHandler(t)

	setup.mockCache.EXPECT().GetResult(gomock.Any(), "E1").Return(&models.IAIResult{
		EventID:      "E1",
		Score:        0.12,
		CalculatedAt: time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC),
	}, nil)
	setup.mockCache.EXPECT().GetResult(gomock.Any(), "E2").Return(nil, fmt.Errorf("%w: iai:E2", cache.ErrCacheMiss))
	setup.mockCache.EXPECT().GetResult(gomock.Any(), "E3").Return(nil, errors.New("connection refused"))

	rec := setup.do(http.MethodGet, "/api/v1/events/E1/iai", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.12, decodeBody(t, rec)["score"])
	assert.NotContains(t, decodeBody(t, rec), "adjusted_home_probability")

	rec = setup.do(http.MethodGet, "/api/v1/events/E2/iai", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = setup.do(http.MethodGet, "/api/v1/events/E3/iai", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeBody(t, rec)["error"])
}

func TestResetEvent(t *testing.T) {
	setup := setupTestHandler(t)

	setup.mockScorer.EXPECT().Reset("E1").Return(true)
	setup.mockScorer.EXPECT().Reset("E2").Return(false)

	assert.Equal(t, http.StatusNoContent, setup.do(http.MethodDelete, "/api/v1/events/E1/session", "").Code)
	assert.Equal(t, http.StatusNotFound, setup.do(http.MethodDelete, "/api/v1/events/E2/session", "").Code)
}

func TestEarlyLines(t *testing.T) {
	setup := setupTestHandler(t)

	spread := -3.5
	setup.mockSource.EXPECT().FetchEarlyOdds(gomock.Any(), "nba", 3).Return([]models.NormalizedOdds{{
		EventID:   "nba-20261018-bostonceltics-newyorkknicks",
		Sport:     "nba",
		EventTime: time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC),
		Spread:    &spread,
	}})
	setup.mockSource.EXPECT().FetchEarlyOdds(gomock.Any(), "nhl", 3).Return(nil)

	rec := setup.do(http.MethodGet, "/api/v1/early-lines?sports=nba,%20nhl&days=3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decodeBody(t, rec)["count"])
}

func TestEarlyLines_InvalidDays(t *testing.T) {
	setup := setupTestHandler(t)

	assert.Equal(t, http.StatusBadRequest, setup.do(http.MethodGet, "/api/v1/early-lines?days=soon", "").Code)
	assert.Equal(t, http.StatusBadRequest, setup.do(http.MethodGet, "/api/v1/early-lines?days=-2", "").Code)
}

func TestLineMoveArbitrage(t *testing.T) {
	setup := setupTestHandler(t)

	body := `{
	  "early_picks":   [{"event_id": "E1", "home_team": "Detroit Lions", "away_team": "Chicago Bears", "side": "Lions", "odds": 300, "expected_value": 8}],
	  "regular_picks": [{"event_id": "E1", "home_team": "Detroit Lions", "away_team": "Chicago Bears", "side": "Bears", "odds": -400, "expected_value": 5}],
	  "line_moves":    [{"event_id": "E1", "spread": 2}]
	}`

	rec := setup.do(http.MethodPost, "/api/v1/arbitrage/line-move", body)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count         int                       `json:"count"`
		Opportunities []service.ArbitrageReport `json:"opportunities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.True(t, resp.Opportunities[0].Opportunity.PickFlipped)
	assert.Equal(t, 13.0, resp.Opportunities[0].Opportunity.CombinedEV)
	assert.Contains(t, resp.Opportunities[0].Summary, "[FLIP]")
}

func TestLineMoveArbitrage_MissingPicks(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(http.MethodPost, "/api/v1/arbitrage/line-move", `{"early_picks": []}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHedge(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(http.MethodPost, "/api/v1/arbitrage/hedge", `{"early_stake": "100", "early_odds": 300, "current_odds": -400}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "320", body["hedge_stake"])
	assert.Equal(t, body["profit_if_early_wins"], body["profit_if_current_wins"])
}

func TestHedge_InvalidOdds(t *testing.T) {
	setup := setupTestHandler(t)

	rec := setup.do(http.MethodPost, "/api/v1/arbitrage/hedge", `{"early_stake": 100, "early_odds": 0, "current_odds": -400}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	setup := setupTestHandler(t)

	assert.Equal(t, http.StatusNotFound, setup.do(http.MethodGet, "/api/v1/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, setup.do(http.MethodPut, "/api/v1/events/E1/iai", "").Code)
}
