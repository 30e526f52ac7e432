// Package espn adapts the free ESPN scoreboard feed into normalized early odds.
package espn

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
const Name = "espn"

var sportPaths = map[string]string{
	"nfl":   "football/nfl",
	"ncaaf": "football/college-football",
	"nba":   "basketball/nba",
	"ncaab": "basketball/mens-college-basketball",
	"wnba":  "basketball/wnba",
	"mlb":   "baseball/mlb",
	"nhl":   "hockey/nhl",
}

// Config holds client configuration
type Config struct {
	BaseURL string // e.g., "https://site.api.espn.com/apis/site/v2/sports"
}

// Client fetches scoreboard odds from ESPN
type Client struct {
	baseURL string
	guard   *source.Guard
	now     func() time.Time
	logger  zerolog.Logger
}

// NewClient creates a new client
func NewClient(cfg Config, guard *source.Guard, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		guard:   guard,
		now:     time.Now,
		logger:  logger.With().Str("component", "espn").Logger(),
	}
}

// Name returns the adapter name
func (c *Client) Name() string {
	return Name
}

// FetchEarlyOdds reads the scoreboard for the horizon and keeps games that
// carry an odds block
func (c *Client) FetchEarlyOdds(ctx context.Context, sport string, horizonDays int) []models.NormalizedOdds {
	sport = source.CanonicalSport(sport)
	log := c.logger.With().Str("sport", sport).Logger()

	path, ok := sportPaths[sport]
	if !ok {
		log.Warn().Msg("unsupported sport")
		return nil
	}

	capturedAt := c.now().UTC()
	from, to := source.Window(capturedAt, horizonDays)

	q := url.Values{}
	q.Set("dates", from.Format("20060102")+"-"+to.Format("20060102"))
	q.Set("limit", "300")
	endpoint := fmt.Sprintf("%s/%s/scoreboard?%s", c.baseURL, path, q.Encode())

	var board scoreboard
	if err := c.guard.GetJSON(ctx, endpoint, &board); err != nil {
		log.Warn().Err(err).Msg("failed to fetch scoreboard")
		return nil
	}

	odds := make([]models.NormalizedOdds, 0, len(board.Events))
	for _, ev := range board.Events {
		record, ok := normalize(ev, sport, capturedAt)
		if !ok || !source.InWindow(record.EventTime, from, to) {
			continue
		}
		odds = append(odds, record)
	}

	log.Debug().
		Int("events", len(board.Events)).
		Int("records", len(odds)).
		Msg("fetched scoreboard odds")

	return odds
}

type scoreboard struct {
	Events []event `json:"events"`
}

type event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Competitors []competitor `json:"competitors"`
	Odds        []oddsLine   `json:"odds"`
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Team     struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
}

type oddsLine struct {
	Provider struct {
		Name string `json:"name"`
	} `json:"provider"`
	Spread       *float64 `json:"spread"`
	OverUnder    *float64 `json:"overUnder"`
	OverOdds     *float64 `json:"overOdds"`
	UnderOdds    *float64 `json:"underOdds"`
	HomeTeamOdds teamOdds `json:"homeTeamOdds"`
	AwayTeamOdds teamOdds `json:"awayTeamOdds"`
}

type teamOdds struct {
	MoneyLine  *float64 `json:"moneyLine"`
	SpreadOdds *float64 `json:"spreadOdds"`
}

// ESPN dates usually omit seconds ("2026-10-20T00:20Z")
var dateLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalize(ev event, sport string, capturedAt time.Time) (models.NormalizedOdds, bool) {
	eventTime, ok := parseDate(ev.Date)
	if !ok || len(ev.Competitions) == 0 {
		return models.NormalizedOdds{}, false
	}
	comp := ev.Competitions[0]
	if len(comp.Odds) == 0 {
		return models.NormalizedOdds{}, false
	}

	var home, away string
	for _, c := range comp.Competitors {
		switch c.HomeAway {
		case "home":
			home = c.Team.DisplayName
		case "away":
			away = c.Team.DisplayName
		}
	}
	if home == "" || away == "" {
		return models.NormalizedOdds{}, false
	}

	line := comp.Odds[0]
	moneyline := models.Moneyline{
		Home: price(line.HomeTeamOdds.MoneyLine),
		Away: price(line.AwayTeamOdds.MoneyLine),
	}
	record := models.NormalizedOdds{
		EventID:     models.CanonicalEventID(sport, eventTime, home, away),
		Sport:       sport,
		HomeTeam:    home,
		AwayTeam:    away,
		EventTime:   eventTime,
		CapturedAt:  capturedAt,
		Source:      Name,
		Moneyline:   moneyline,
		Spread:      line.Spread,
		SpreadPrice: price(line.HomeTeamOdds.SpreadOdds),
		Total:       line.OverUnder,
		OverPrice:   price(line.OverOdds),
		UnderPrice:  price(line.UnderOdds),
	}

	usable := record.Spread != nil || record.Total != nil ||
		(record.Moneyline.Home != 0 && record.Moneyline.Away != 0)
	return record, usable
}

func price(p *float64) int {
	if p == nil {
		return 0
	}
	return int(math.Round(*p))
}
