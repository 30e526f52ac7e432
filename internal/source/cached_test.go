package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/market-signal-service/internal/mocks"
	"github.com/cypherlabdev/market-signal-service/internal/models"
)

// testCachedSetup is a helper struct to hold test dependencies
type testCachedSetup struct {
	cached     *Cached
	mockSource *mocks.MockSource
	mockCache  *mocks.MockOddsCache
	ctx        context.Context
}

// setupTestCached creates a cached source over mocks
func setupTestCached(t *testing.T) *testCachedSetup {
	ctrl := gomock.NewController(t)

	mockSource := mocks.NewMockSource(ctrl)
	mockSource.EXPECT().Name().Return("the-odds-api").AnyTimes()
	mockCache := mocks.NewMockOddsCache(ctrl)

	return &testCachedSetup{
		cached:     NewCached(mockSource, mockCache, zerolog.Nop()),
		mockSource: mockSource,
		mockCache:  mockCache,
		ctx:        context.Background(),
	}
}

func sampleOdds() []models.NormalizedOdds {
	return []models.NormalizedOdds{{
		EventID:    "nfl-20261020-chicagobears-detroitlions",
		Sport:      "nfl",
		CapturedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		Source:     "the-odds-api:draftkings",
	}}
}

func TestCached_ServesFromCache(t *testing.T) {
	setup := setupTestCached(t)

	setup.mockCache.EXPECT().
		GetOdds(gomock.Any(), "source:the-odds-api:nfl:5").
		Return(sampleOdds(), nil)

	odds := setup.cached.FetchEarlyOdds(setup.ctx, "nfl", 5)

	assert.Equal(t, sampleOdds(), odds)
}

func TestCached_MissFetchesAndStores(t *testing.T) {
	setup := setupTestCached(t)

	setup.mockCache.EXPECT().
		GetOdds(gomock.Any(), "source:the-odds-api:ncaab:3").
		Return(nil, errors.New("miss"))
	setup.mockSource.EXPECT().
		FetchEarlyOdds(gomock.Any(), "cbb", 3).
		Return(sampleOdds())
	setup.mockCache.EXPECT().
		SetOdds(gomock.Any(), "source:the-odds-api:ncaab:3", sampleOdds()).
		Return(nil)

	odds := setup.cached.FetchEarlyOdds(setup.ctx, "cbb", 3)

	assert.Len(t, odds, 1)
}

func TestCached_EmptyResultNotStored(t *testing.T) {
	setup := setupTestCached(t)

	setup.mockCache.EXPECT().GetOdds(gomock.Any(), gomock.Any()).Return(nil, errors.New("miss"))
	setup.mockSource.EXPECT().FetchEarlyOdds(gomock.Any(), "nfl", 5).Return(nil)

	odds := setup.cached.FetchEarlyOdds(setup.ctx, "nfl", 5)

	assert.Empty(t, odds)
}

func TestCached_StoreFailureStillReturnsOdds(t *testing.T) {
	setup := setupTestCached(t)

	setup.mockCache.EXPECT().GetOdds(gomock.Any(), gomock.Any()).Return(nil, errors.New("miss"))
	setup.mockSource.EXPECT().FetchEarlyOdds(gomock.Any(), "nfl", 5).Return(sampleOdds())
	setup.mockCache.EXPECT().SetOdds(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	odds := setup.cached.FetchEarlyOdds(setup.ctx, "nfl", 5)

	assert.Equal(t, sampleOdds(), odds)
}

func TestCached_Name(t *testing.T) {
	setup := setupTestCached(t)

	assert.Equal(t, "the-odds-api", setup.cached.Name())
}
