package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Scoreboard feed
	FeedBaseURL string        `envconfig:"FEED_BASE_URL" default:"https://site.api.espn.com/apis/site/v2/sports"`
	FeedTimeout time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`

	// Tabular store
	StoreBaseURL     string        `envconfig:"STORE_BASE_URL" default:"https://api.airtable.com/v0"`
	StoreToken       string        `envconfig:"STORE_PERSONAL_ACCESS_TOKEN" required:"true"`
	StoreBaseID      string        `envconfig:"STORE_BASE_ID" required:"true"`
	StoreTimeout     time.Duration `envconfig:"STORE_TIMEOUT" default:"30s"`
	GamesTableName   string        `envconfig:"GAMES_TABLE_NAME" default:"Games"`
	EventsTableName  string        `envconfig:"EVENTS_TABLE_NAME" default:"Events"`
	TeamsTableName   string        `envconfig:"TEAMS_TABLE_NAME" default:"Teams"`
	UsersTableName   string        `envconfig:"USERS_TABLE_NAME" default:"Users"`
	RepliesTableName string        `envconfig:"REPLIES_TABLE_NAME" default:"Responses"`

	// Sync pass date window
	League    string `envconfig:"LEAGUE" default:"NBA"`
	DayOffset int    `envconfig:"DAY_OFFSET" default:"-2"`
	DaysBack  int    `envconfig:"DAYS_BACK" default:"0"`
	DaysAhead int    `envconfig:"DAYS_AHEAD" default:"0"`
	Ascending bool   `envconfig:"DATES_ASCENDING" default:"true"`

	// Ranking
	RankStatField string `envconfig:"RANK_STAT_FIELD" default:"ATS AVG"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler    bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool          `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	SyncInterval       time.Duration `envconfig:"SYNC_INTERVAL" default:"10m"`
	RankRefreshCron    string        `envconfig:"RANK_REFRESH_CRON" default:"0 2 * * *"`

	// Caching TTL (in seconds)
	CacheTTLTeams int `envconfig:"CACHE_TTL_TEAMS" default:"86400"` // 24 hours

	// SMS relay
	RelayEnabled   bool   `envconfig:"RELAY_ENABLED" default:"false"`
	RelayAuthToken string `envconfig:"RELAY_AUTH_TOKEN" default:""`
	RelayPublicURL string `envconfig:"RELAY_PUBLIC_URL" default:""`
	RelayPort      int    `envconfig:"RELAY_PORT" default:"8080"`
	SMSBaseURL     string `envconfig:"SMS_BASE_URL" default:"https://api.slicktext.com/v1"`
	SMSPublicKey   string `envconfig:"SMS_PUBLIC_KEY" default:""`
	SMSPrivateKey  string `envconfig:"SMS_PRIVATE_KEY" default:""`
	SMSFromNumber  string `envconfig:"SMS_FROM_NUMBER" default:""`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.StoreToken == "" {
		return fmt.Errorf("STORE_PERSONAL_ACCESS_TOKEN is required")
	}

	if c.StoreBaseID == "" {
		return fmt.Errorf("STORE_BASE_ID is required")
	}

	if c.DaysBack < 0 || c.DaysAhead < 0 {
		return fmt.Errorf("DAYS_BACK and DAYS_AHEAD must not be negative")
	}

	if c.RelayEnabled && c.RelayAuthToken == "" {
		return fmt.Errorf("RELAY_AUTH_TOKEN is required when the SMS relay is enabled")
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
