package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cypherlabdev/market-signal-service/pkg/linemove"
)

// Config holds all configuration for market-signal-service
type Config struct {
	Server     ServerConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Sources    SourcesConfig
	Aggregator AggregatorConfig
	Arbitrage  ArbitrageConfig
	Session    SessionConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string // Topic to consume from (market_signals)
	GroupID string `mapstructure:"group_id"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // IAI results
	OddsTTL  time.Duration `mapstructure:"odds_ttl"` // upstream odds payloads
}

// SourcesConfig holds upstream odds provider configuration
type SourcesConfig struct {
	TheOddsAPI      TheOddsAPIConfig `mapstructure:"the_odds_api"`
	ESPN            ESPNConfig       `mapstructure:"espn"`
	RequestTimeout  time.Duration    `mapstructure:"request_timeout"`
	RatePerSecond   float64          `mapstructure:"rate_per_second"`
	Burst           int
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

// TheOddsAPIConfig holds the primary paid source configuration
type TheOddsAPIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Regions string
}

// ESPNConfig holds the free fallback source configuration
type ESPNConfig struct {
	Enabled bool
	BaseURL string `mapstructure:"base_url"`
}

// AggregatorConfig holds early-odds aggregation parameters
type AggregatorConfig struct {
	Sports          []string
	HorizonDays     int           `mapstructure:"horizon_days"`
	InterSportDelay time.Duration `mapstructure:"inter_sport_delay"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"` // background scans for line movement; 0 disables
}

// ArbitrageConfig holds line-movement significance thresholds
type ArbitrageConfig struct {
	MoneylineCents float64 `mapstructure:"moneyline_cents"`
	SpreadPoints   float64 `mapstructure:"spread_points"`
	TotalPoints    float64 `mapstructure:"total_points"`
}

// SessionConfig holds scoring session lifecycle parameters
type SessionConfig struct {
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// LoadConfig loads configuration from file, a .env file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional; it usually only carries upstream API keys
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "market_signals")
	v.SetDefault("kafka.group_id", "market-signal")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 6*time.Hour)
	v.SetDefault("redis.odds_ttl", 10*time.Minute)

	v.SetDefault("sources.the_odds_api.api_key", "")
	v.SetDefault("sources.the_odds_api.base_url", "https://api.the-odds-api.com")
	v.SetDefault("sources.the_odds_api.regions", "us")
	v.SetDefault("sources.espn.enabled", true)
	v.SetDefault("sources.espn.base_url", "https://site.api.espn.com/apis/site/v2/sports")
	v.SetDefault("sources.request_timeout", 10*time.Second)
	v.SetDefault("sources.rate_per_second", 2.0)
	v.SetDefault("sources.burst", 2)
	v.SetDefault("sources.breaker_failures", 3)
	v.SetDefault("sources.breaker_timeout", 60*time.Second)

	v.SetDefault("aggregator.sports", []string{"nfl", "nba", "nhl", "mlb", "ncaab", "ncaaf"})
	v.SetDefault("aggregator.horizon_days", 5)
	v.SetDefault("aggregator.inter_sport_delay", 1*time.Second)
	v.SetDefault("aggregator.scan_interval", time.Duration(0))

	th := linemove.DefaultThresholds()
	v.SetDefault("arbitrage.moneyline_cents", th.MoneylineCents)
	v.SetDefault("arbitrage.spread_points", th.SpreadPoints)
	v.SetDefault("arbitrage.total_points", th.TotalPoints)

	v.SetDefault("session.idle_ttl", 12*time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("MARKET_SIGNAL")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Aggregator.HorizonDays < 1 {
		return nil, fmt.Errorf("aggregator.horizon_days must be >= 1, got %d", config.Aggregator.HorizonDays)
	}

	return &config, nil
}

// Thresholds converts config to line-movement significance thresholds
func (c *ArbitrageConfig) Thresholds() linemove.Thresholds {
	return linemove.Thresholds{
		MoneylineCents: c.MoneylineCents,
		SpreadPoints:   c.SpreadPoints,
		TotalPoints:    c.TotalPoints,
	}
}
