package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Redis    RedisConfig
	Dispute  DisputeConfig
	Schedule ScheduleConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Dialect    string `env:"DB_DIALECT" envDefault:"postgres"`
	Host       string `env:"DB_HOST" envDefault:"localhost"`
	Port       string `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER" envDefault:"postgres"`
	Password   string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"daily_squad"`
	SSLMode    string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"daily_squad.db"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string `env:"SERVER_PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string     `env:"JWT_SECRET"`
	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// RedisConfig holds the notification channel settings. An empty URL disables Redis.
type RedisConfig struct {
	URL           string `env:"REDIS_URL"`
	ChannelPrefix string `env:"REDIS_CHANNEL_PREFIX" envDefault:"daily-squad"`
}

// DisputeConfig holds the challenge window and judge scoring rules
type DisputeConfig struct {
	ChallengeWindow      time.Duration `env:"CHALLENGE_WINDOW" envDefault:"1h"`
	JudgeApprovalPoints  int64         `env:"JUDGE_APPROVAL_POINTS" envDefault:"10"`
	JudgeOverturnPenalty int64         `env:"JUDGE_OVERTURN_PENALTY" envDefault:"10"`
}

// ScheduleConfig holds background job settings
type ScheduleConfig struct {
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	LifecycleInterval time.Duration `env:"LIFECYCLE_INTERVAL" envDefault:"30s"`
	EventOpenOffset   time.Duration `env:"EVENT_OPEN_OFFSET" envDefault:"18h"`
	EventDuration     time.Duration `env:"EVENT_DURATION" envDefault:"2h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Database.Dialect != "postgres" && config.Database.Dialect != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DIALECT: %s", config.Database.Dialect)
	}

	if config.Dispute.ChallengeWindow <= 0 {
		return nil, fmt.Errorf("CHALLENGE_WINDOW must be positive")
	}

	return config, nil
}

// GetDSN returns the connection string for the configured dialect
func (c *Config) GetDSN() string {
	if c.Database.Dialect == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}
