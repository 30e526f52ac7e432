package theoddsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/source"
)

const oddsPayload = `[
  {
    "id": "abc123",
    "sport_key": "americanfootball_nfl",
    "commence_time": "2026-10-20T00:20:00Z",
    "home_team": "Detroit Lions",
    "away_team": "Chicago Bears",
    "bookmakers": [
      {
        "key": "draftkings",
        "title": "DraftKings",
        "markets": [
          {"key": "h2h", "outcomes": [
            {"name": "Chicago Bears", "price": 150},
            {"name": "Detroit Lions", "price": -180}
          ]},
          {"key": "spreads", "outcomes": [
            {"name": "Chicago Bears", "price": -110, "point": 3.5},
            {"name": "Detroit Lions", "price": -110, "point": -3.5}
          ]}
        ]
      },
      {
        "key": "fanduel",
        "title": "FanDuel",
        "markets": [
          {"key": "totals", "outcomes": [
            {"name": "Over", "price": -108, "point": 47.5},
            {"name": "Under", "price": -112, "point": 47.5}
          ]}
        ]
      }
    ]
  },
  {
    "id": "late",
    "sport_key": "americanfootball_nfl",
    "commence_time": "2026-11-30T00:20:00Z",
    "home_team": "Green Bay Packers",
    "away_team": "Minnesota Vikings",
    "bookmakers": []
  }
]`

// testClientSetup is a helper struct to hold test dependencies
type testClientSetup struct {
	client   *Client
	server   *httptest.Server
	requests []*http.Request
	ctx      context.Context
}

// setupTestClient creates a client pointed at an httptest server
func setupTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *testClientSetup {
	setup := &testClientSetup{ctx: context.Background()}

	setup.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setup.requests = append(setup.requests, r)
		handler(w, r)
	}))
	t.Cleanup(setup.server.Close)

	guard := source.NewGuard(source.GuardConfig{
		Name:            Name,
		RequestTimeout:  time.Second,
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}, setup.server.Client(), metrics.NewRegistry(), zerolog.Nop())

	setup.client = NewClient(Config{APIKey: apiKey, BaseURL: setup.server.URL}, guard, zerolog.Nop())
	setup.client.now = func() time.Time {
		return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	}

	return setup
}

func TestFetchEarlyOdds_Success(t *testing.T) {
	setup := setupTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(oddsPayload))
	})

	odds := setup.client.FetchEarlyOdds(setup.ctx, "NFL", 5)

	require.Len(t, odds, 1)
	rec := odds[0]
	assert.Equal(t, "nfl-20261020-chicagobears-detroitlions", rec.EventID)
	assert.Equal(t, "nfl", rec.Sport)
	assert.Equal(t, "Detroit Lions", rec.HomeTeam)
	assert.Equal(t, "Chicago Bears", rec.AwayTeam)
	assert.Equal(t, "the-odds-api:draftkings", rec.Source)
	assert.Equal(t, -180, rec.Moneyline.Home)
	assert.Equal(t, 150, rec.Moneyline.Away)
	require.NotNil(t, rec.Spread)
	assert.Equal(t, -3.5, *rec.Spread)
	assert.Equal(t, -110, rec.SpreadPrice)
	require.NotNil(t, rec.Total)
	assert.Equal(t, 47.5, *rec.Total)
	assert.Equal(t, -108, rec.OverPrice)
	assert.Equal(t, -112, rec.UnderPrice)
	assert.Equal(t, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC), rec.CapturedAt)

	require.Len(t, setup.requests, 1)
	req := setup.requests[0]
	assert.Equal(t, "/v4/sports/americanfootball_nfl/odds", req.URL.Path)
	q := req.URL.Query()
	assert.Equal(t, "secret", q.Get("apiKey"))
	assert.Equal(t, "us", q.Get("regions"))
	assert.Equal(t, "h2h,spreads,totals", q.Get("markets"))
	assert.Equal(t, "american", q.Get("oddsFormat"))
	assert.Equal(t, "2026-10-17T12:00:00Z", q.Get("commenceTimeFrom"))
	assert.Equal(t, "2026-10-22T12:00:00Z", q.Get("commenceTimeTo"))
}

func TestFetchEarlyOdds_MissingAPIKey(t *testing.T) {
	setup := setupTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(oddsPayload))
	})

	odds := setup.client.FetchEarlyOdds(setup.ctx, "nfl", 5)

	assert.Empty(t, odds)
	assert.Empty(t, setup.requests, "no request without a key")
}

func TestFetchEarlyOdds_Unauthorized(t *testing.T) {
	setup := setupTestClient(t, "bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	assert.Empty(t, setup.client.FetchEarlyOdds(setup.ctx, "nfl", 5))
}

func TestFetchEarlyOdds_ServerError(t *testing.T) {
	setup := setupTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	assert.Empty(t, setup.client.FetchEarlyOdds(setup.ctx, "nba", 5))
}

func TestFetchEarlyOdds_MalformedJSON(t *testing.T) {
	setup := setupTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "not a list"`))
	})

	assert.Empty(t, setup.client.FetchEarlyOdds(setup.ctx, "nfl", 5))
}

func TestFetchEarlyOdds_UnsupportedSport(t *testing.T) {
	setup := setupTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(oddsPayload))
	})

	assert.Empty(t, setup.client.FetchEarlyOdds(setup.ctx, "curling", 5))
	assert.Empty(t, setup.requests)
}

func TestFetchEarlyOdds_SportAlias(t *testing.T) {
	setup := setupTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	setup.client.FetchEarlyOdds(setup.ctx, "cbb", 3)

	require.Len(t, setup.requests, 1)
	assert.Equal(t, "/v4/sports/basketball_ncaab/odds", setup.requests[0].URL.Path)
}

func TestNormalize_NoUsableMarket(t *testing.T) {
	ev := event{
		CommenceTime: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
		HomeTeam:     "Detroit Lions",
		AwayTeam:     "Chicago Bears",
		Bookmakers: []bookmaker{{
			Key: "draftkings",
			Markets: []market{{
				Key:      "h2h",
				Outcomes: []outcome{{Name: "Detroit Lions", Price: -180}},
			}},
		}},
	}

	_, ok := normalize(ev, "nfl", time.Now())

	assert.False(t, ok, "a one-sided moneyline is not usable")
}
