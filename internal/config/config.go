package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// ErrMissingAPIKey is returned by Validate when RA_API_KEY is not set.
var ErrMissingAPIKey = errors.New("missing RA_API_KEY in environment variables")

// ErrMissingUsername is returned when no target user is given and RA_USERNAME is not set.
var ErrMissingUsername = errors.New("missing RA_USERNAME in environment variables")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server            ServerConfig
	App               AppConfig
	Log               LogConfig
	RetroAchievements RetroAchievementsConfig
	Cache             CacheConfig
	Store             StoreConfig
	RateLimit         RateLimitConfig
	Live              LiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"retroprofile-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"` // json or console
	Caller bool   `envconfig:"LOG_CALLER" default:"false"`
}

// RetroAchievementsConfig holds upstream API credentials and client tuning.
type RetroAchievementsConfig struct {
	APIKey   string `envconfig:"RA_API_KEY" default:""`
	Username string `envconfig:"RA_USERNAME" default:""`

	BaseURL       string `envconfig:"RA_BASE_URL" default:"https://retroachievements.org/API"`
	MediaBaseURL  string `envconfig:"RA_MEDIA_BASE_URL" default:"https://media.retroachievements.org"`
	SystemIconURL string `envconfig:"RA_SYSTEM_ICON_URL" default:"https://static.retroachievements.org/assets/images/system"`
	UserAgent     string `envconfig:"RA_USER_AGENT" default:"Mozilla/5.0 (compatible; RetroAchievements-Profile/1.0)"`

	Timeout       time.Duration `envconfig:"RA_TIMEOUT" default:"10s"`
	RetryAttempts int           `envconfig:"RA_RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"RA_RETRY_DELAY" default:"500ms"`
	// RequestsPerSecond paces outbound calls; 0 disables pacing.
	RequestsPerSecond float64 `envconfig:"RA_REQUESTS_PER_SECOND" default:"0"`
	RequestBurst      int     `envconfig:"RA_REQUEST_BURST" default:"5"`
	// Concurrency bounds per-game fan-out in game progress aggregation.
	Concurrency int `envconfig:"RA_CONCURRENCY" default:"8"`
}

// CacheConfig holds settings for the server-side endpoint caches.
type CacheConfig struct {
	Type            string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL             time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	IconTTL         time.Duration `envconfig:"CACHE_ICON_TTL" default:"12h"`
	CleanupInterval time.Duration `envconfig:"CACHE_CLEANUP_INTERVAL" default:"1m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StoreConfig holds settings for the durable per-username bundle store.
type StoreConfig struct {
	Type      string        `envconfig:"STORE_TYPE" default:"memory"` // memory, redis, sqlite, postgres, mysql, mongodb, badger
	TTL       time.Duration `envconfig:"STORE_TTL" default:"5m"`
	KeyPrefix string        `envconfig:"STORE_KEY_PREFIX" default:"ra_profile_"`

	// SQLite / Badger
	Path string `envconfig:"STORE_PATH" default:"./data/profiles.db"`

	// PostgreSQL / MySQL
	Host     string `envconfig:"STORE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"STORE_DB_PORT" default:"5432"`
	Name     string `envconfig:"STORE_DB_NAME" default:"retroprofile"`
	User     string `envconfig:"STORE_DB_USER" default:"postgres"`
	Password string `envconfig:"STORE_DB_PASS" default:""`
	SSLMode  string `envconfig:"STORE_DB_SSLMODE" default:"disable"`

	// MongoDB
	MongoURI        string `envconfig:"MONGODB_URI" default:""`
	MongoDatabase   string `envconfig:"MONGODB_DATABASE" default:"retroprofile"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"profile_cache"`
}

// RateLimitConfig holds per-client sliding window settings.
type RateLimitConfig struct {
	Window        time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`
	DefaultMax    int           `envconfig:"RATE_LIMIT_MAX" default:"5"`
	FollowMax     int           `envconfig:"RATE_LIMIT_FOLLOW_MAX" default:"10"`
	MaxClients    int           `envconfig:"RATE_LIMIT_MAX_CLIENTS" default:"10000"`
	SweepInterval time.Duration `envconfig:"RATE_LIMIT_SWEEP_INTERVAL" default:"5m"`
}

// LiveConfig holds websocket session settings.
type LiveConfig struct {
	QuietPeriod time.Duration `envconfig:"LIVE_QUIET_PERIOD" default:"500ms"`
}

// Validate reports missing upstream credentials.
func (r *RetroAchievementsConfig) Validate() error {
	if r.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// TargetUser returns the requested user, falling back to the configured default.
func (r *RetroAchievementsConfig) TargetUser(requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if r.Username == "" {
		return "", ErrMissingUsername
	}
	return r.Username, nil
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		s.User, s.Password, s.Host, s.Port, s.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
