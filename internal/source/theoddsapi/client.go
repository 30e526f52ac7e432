// Package theoddsapi adapts The Odds API v4 into normalized early odds.
package theoddsapi

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/market-signal-service/internal/models"
	"github.com/cypherlabdev/market-signal-service/internal/source"
)

// Name identifies this adapter in logs, metrics and cache keys
const Name = "the-odds-api"

var sportKeys = map[string]string{
	"nfl":   "americanfootball_nfl",
	"ncaaf": "americanfootball_ncaaf",
	"nba":   "basketball_nba",
	"ncaab": "basketball_ncaab",
	"wnba":  "basketball_wnba",
	"mlb":   "baseball_mlb",
	"nhl":   "icehockey_nhl",
}

// Config holds client configuration
type Config struct {
	APIKey  string
	BaseURL string // e.g., "https://api.the-odds-api.com"
	Regions string // e.g., "us"
}

// Client fetches odds from The Odds API
type Client struct {
	apiKey  string
	baseURL string
	regions string
	guard   *source.Guard
	now     func() time.Time
	logger  zerolog.Logger
}

// NewClient creates a new client
func NewClient(cfg Config, guard *source.Guard, logger zerolog.Logger) *Client {
	regions := cfg.Regions
	if regions == "" {
		regions = "us"
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		regions: regions,
		guard:   guard,
		now:     time.Now,
		logger:  logger.With().Str("component", "the_odds_api").Logger(),
	}
}

// Name returns the adapter name
func (c *Client) Name() string {
	return Name
}

// FetchEarlyOdds fetches h2h, spread and total odds for games starting within
// horizonDays. A missing API key, upstream failure or unknown sport yields an
// empty result.
func (c *Client) FetchEarlyOdds(ctx context.Context, sport string, horizonDays int) []models.NormalizedOdds {
	sport = source.CanonicalSport(sport)
	log := c.logger.With().Str("sport", sport).Logger()

	if c.apiKey == "" {
		log.Warn().Msg("no API key configured, skipping")
		return nil
	}

	sportKey, ok := sportKeys[sport]
	if !ok {
		log.Warn().Msg("unsupported sport")
		return nil
	}

	capturedAt := c.now().UTC()
	from, to := source.Window(capturedAt, horizonDays)

	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("regions", c.regions)
	q.Set("markets", "h2h,spreads,totals")
	q.Set("oddsFormat", "american")
	q.Set("commenceTimeFrom", from.Format(timeLayout))
	q.Set("commenceTimeTo", to.Format(timeLayout))
	endpoint := fmt.Sprintf("%s/v4/sports/%s/odds?%s", c.baseURL, sportKey, q.Encode())

	var events []event
	if err := c.guard.GetJSON(ctx, endpoint, &events); err != nil {
		log.Warn().Err(err).Msg("failed to fetch odds")
		return nil
	}

	odds := make([]models.NormalizedOdds, 0, len(events))
	for _, ev := range events {
		if !source.InWindow(ev.CommenceTime, from, to) {
			continue
		}
		record, ok := normalize(ev, sport, capturedAt)
		if !ok {
			continue
		}
		odds = append(odds, record)
	}

	log.Debug().
		Int("events", len(events)).
		Int("records", len(odds)).
		Msg("fetched odds")

	return odds
}

// The API rejects fractional seconds in commence time filters
const timeLayout = "2006-01-02T15:04:05Z"

type event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []market `json:"markets"`
}

type market struct {
	Key      string    `json:"key"`
	Outcomes []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// normalize maps one event onto a home-quoted record using the first
// bookmaker that carries each market. Events with no usable market are dropped.
func normalize(ev event, sport string, capturedAt time.Time) (models.NormalizedOdds, bool) {
	record := models.NormalizedOdds{
		EventID:    models.CanonicalEventID(sport, ev.CommenceTime, ev.HomeTeam, ev.AwayTeam),
		Sport:      sport,
		HomeTeam:   ev.HomeTeam,
		AwayTeam:   ev.AwayTeam,
		EventTime:  ev.CommenceTime.UTC(),
		CapturedAt: capturedAt,
	}

	home := models.NormalizeTeam(ev.HomeTeam)
	away := models.NormalizeTeam(ev.AwayTeam)
	book := ""
	found := false

	if m, bk, ok := firstMarket(ev.Bookmakers, "h2h"); ok {
		for _, o := range m.Outcomes {
			switch models.NormalizeTeam(o.Name) {
			case home:
				record.Moneyline.Home = americanPrice(o.Price)
			case away:
				record.Moneyline.Away = americanPrice(o.Price)
			}
		}
		if record.Moneyline.Home != 0 && record.Moneyline.Away != 0 {
			found = true
			book = bk
		} else {
			record.Moneyline = models.Moneyline{}
		}
	}

	if m, bk, ok := firstMarket(ev.Bookmakers, "spreads"); ok {
		for _, o := range m.Outcomes {
			if models.NormalizeTeam(o.Name) == home && o.Point != nil {
				line := *o.Point
				record.Spread = &line
				record.SpreadPrice = americanPrice(o.Price)
				found = true
				if book == "" {
					book = bk
				}
			}
		}
	}

	if m, bk, ok := firstMarket(ev.Bookmakers, "totals"); ok {
		for _, o := range m.Outcomes {
			if o.Point == nil {
				continue
			}
			switch strings.ToLower(o.Name) {
			case "over":
				line := *o.Point
				record.Total = &line
				record.OverPrice = americanPrice(o.Price)
			case "under":
				record.UnderPrice = americanPrice(o.Price)
			}
		}
		if record.Total != nil {
			found = true
			if book == "" {
				book = bk
			}
		}
	}

	record.Source = Name + ":" + book
	return record, found
}

func firstMarket(bookmakers []bookmaker, key string) (market, string, bool) {
	for _, bk := range bookmakers {
		for _, m := range bk.Markets {
			if m.Key == key && len(m.Outcomes) > 0 {
				return m, bk.Key, true
			}
		}
	}
	return market{}, "", false
}

func americanPrice(price float64) int {
	return int(math.Round(price))
}
