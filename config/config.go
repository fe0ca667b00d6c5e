package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hotel-booking/utils"
)

type Config struct {
	Port     string         `yaml:"port"`
	GinMode  string         `yaml:"gin_mode"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Logger   LoggerConfig   `yaml:"logger"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	CORSOrigins    []string        `yaml:"cors_origins"`
	RatingCacheTTL time.Duration   `yaml:"rating_cache_ttl"`
}

type DatabaseConfig struct {
	Type       string `yaml:"type"` // mysql | postgres | sqlite
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
	LogLevel   string `yaml:"log_level"`
}

type SessionConfig struct {
	Secret       string        `yaml:"secret"`
	TTL          time.Duration `yaml:"ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json | console
	Output     string `yaml:"output"` // stdout | file
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RabbitMQConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
	Prefix  string        `yaml:"prefix"`
}

func defaults() Config {
	return Config{
		Port:    "8080",
		GinMode: "release",
		Database: DatabaseConfig{
			Type:       "mysql",
			SQLitePath: "hotel.db",
			LogLevel:   "warn",
		},
		Session: SessionConfig{TTL: 7 * 24 * time.Hour},
		Logger: LoggerConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/hotel.log",
		},
		RabbitMQ:       RabbitMQConfig{Queue: "hotel.booking.events"},
		Metrics:        MetricsConfig{Namespace: "hotel"},
		RateLimit:      RateLimitConfig{Enabled: true, Limit: 20, Window: time.Minute, Prefix: "rl"},
		CORSOrigins:    []string{"*"},
		RatingCacheTTL: 5 * time.Minute,
	}
}

// Load reads .env (optional), then the YAML file named by CONFIG_FILE
// (optional), then lets environment variables override both.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = utils.EnvOrDefault("PORT", cfg.Port)
	cfg.GinMode = utils.EnvOrDefault("GIN_MODE", cfg.GinMode)

	cfg.Database.Type = strings.ToLower(utils.EnvOrDefault("DB_TYPE", cfg.Database.Type))
	cfg.Database.SQLitePath = utils.EnvOrDefault("SQLITE_PATH", cfg.Database.SQLitePath)
	cfg.Database.LogLevel = utils.EnvOrDefault("DB_LOG_LEVEL", cfg.Database.LogLevel)

	cfg.Session.Secret = utils.EnvOrDefault("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.TTL = utils.EnvDuration("SESSION_TTL", cfg.Session.TTL)
	cfg.Session.SecureCookie = utils.EnvBool("COOKIE_SECURE", cfg.Session.SecureCookie)

	cfg.Logger.Level = utils.EnvOrDefault("LOG_LEVEL", cfg.Logger.Level)
	cfg.Logger.Format = utils.EnvOrDefault("LOG_FORMAT", cfg.Logger.Format)
	cfg.Logger.Output = utils.EnvOrDefault("LOG_OUTPUT", cfg.Logger.Output)
	cfg.Logger.FilePath = utils.EnvOrDefault("LOG_FILE", cfg.Logger.FilePath)

	addr := utils.EnvOrDefault("REDIS_ADDR", cfg.Redis.Addr)
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	cfg.Redis.Addr = addr
	cfg.Redis.Password = utils.EnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = utils.EnvInt("REDIS_DB", cfg.Redis.DB)
	cfg.RatingCacheTTL = utils.EnvDuration("RATING_CACHE_TTL", cfg.RatingCacheTTL)

	cfg.RateLimit.Enabled = utils.EnvBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Limit = utils.EnvInt("RATE_LIMIT_LIMIT", cfg.RateLimit.Limit)
	cfg.RateLimit.Window = utils.EnvDuration("RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	amqpURL := utils.EnvOrDefault("RABBITMQ_URL", cfg.RabbitMQ.URL)
	if amqpURL == "" {
		amqpURL = os.Getenv("AMQP_URL")
	}
	cfg.RabbitMQ.URL = amqpURL
	cfg.RabbitMQ.Queue = utils.EnvOrDefault("RABBITMQ_QUEUE", cfg.RabbitMQ.Queue)

	cfg.Metrics.Namespace = utils.EnvOrDefault("METRICS_NAMESPACE", cfg.Metrics.Namespace)

	if origins := parseCorsOrigins(os.Getenv("CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
}

func parseCorsOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is not set")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	if c.RateLimit.Limit < 1 {
		c.RateLimit.Limit = 1
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	return nil
}
