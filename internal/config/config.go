package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth0    Auth0Config

	JWTSecret string
	TokenTTL  time.Duration

	Elasticsearch      ElasticsearchConfig
	SearchSyncInterval time.Duration
	S3                 S3Config
	SESFromEmail       string
	AWSRegion          string
	Explain            ExplainConfig

	OTLPEndpoint    string
	TracingEnabled  bool
	TraceSampleRate float64

	RequiredServices []string
	FeedTweetRatio   float64
	RateLimitRPM     int
	CORSOrigins      []string

	// AutocertDomains enables TLS with Let's Encrypt certificates cached in
	// AutocertCacheDir.
	AutocertDomains  []string
	AutocertCacheDir string
}

// DatabaseConfig selects a gorm driver. URL wins over the discrete fields.
type DatabaseConfig struct {
	Driver   string // mysql, postgres or sqlite
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig is optional; an empty Host means in-memory fallbacks.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

type ElasticsearchConfig struct {
	URL      string
	Username string
	Password string
}

func (e ElasticsearchConfig) Enabled() bool { return e.URL != "" }

type S3Config struct {
	Bucket  string
	BaseURL string
}

func (s S3Config) Enabled() bool { return s.Bucket != "" }

// ExplainConfig points at an OpenAI-compatible chat completions API. Without
// an APIKey stored explanations are served as is.
type ExplainConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func (e ExplainConfig) Enabled() bool { return e.APIKey != "" }

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnvOrDefault("DB_DRIVER", "mysql")),
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     os.Getenv("DB_PORT"),
			User:     getEnvOrDefault("DB_USER", "chronically"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnvOrDefault("DB_NAME", "chronically"),
			SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Auth0: Auth0Config{
			Domain:       os.Getenv("AUTH0_DOMAIN"),
			ClientID:     os.Getenv("AUTH0_CLIENT_ID"),
			ClientSecret: os.Getenv("AUTH0_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("AUTH0_REDIRECT_URL"),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		Elasticsearch: ElasticsearchConfig{
			URL:      os.Getenv("ELASTICSEARCH_URL"),
			Username: os.Getenv("ELASTICSEARCH_USERNAME"),
			Password: os.Getenv("ELASTICSEARCH_PASSWORD"),
		},
		S3: S3Config{
			Bucket:  os.Getenv("AWS_S3_BUCKET"),
			BaseURL: os.Getenv("CDN_BASE_URL"),
		},
		SESFromEmail: os.Getenv("SES_FROM_EMAIL"),
		Explain: ExplainConfig{
			BaseURL: getEnvOrDefault("EXPLAIN_API_URL", "https://api.groq.com/openai/v1"),
			APIKey:  getEnvOrDefault("EXPLAIN_API_KEY", os.Getenv("GROQ_API_KEY")),
			Model:   getEnvOrDefault("EXPLAIN_MODEL", "llama3-8b-8192"),
		},
		AWSRegion:        getEnvOrDefault("AWS_REGION", "us-east-1"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingEnabled:   os.Getenv("OTEL_ENABLED") == "true",
		RequiredServices: splitList(os.Getenv("REQUIRED_SERVICES")),
		CORSOrigins:      splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
		AutocertDomains:  splitList(os.Getenv("AUTOCERT_DOMAINS")),
		AutocertCacheDir: getEnvOrDefault("AUTOCERT_CACHE_DIR", "certs"),
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnvOrDefault("TOKEN_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.SearchSyncInterval, err = time.ParseDuration(getEnvOrDefault("SEARCH_SYNC_INTERVAL", "10m")); err != nil {
		return nil, fmt.Errorf("invalid SEARCH_SYNC_INTERVAL: %w", err)
	}
	if cfg.Explain.Timeout, err = time.ParseDuration(getEnvOrDefault("EXPLAIN_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("invalid EXPLAIN_TIMEOUT: %w", err)
	}
	if cfg.TraceSampleRate, err = strconv.ParseFloat(getEnvOrDefault("OTEL_SAMPLING_RATE", "1.0"), 64); err != nil {
		return nil, fmt.Errorf("invalid OTEL_SAMPLING_RATE: %w", err)
	}
	if cfg.FeedTweetRatio, err = strconv.ParseFloat(getEnvOrDefault("FEED_TWEET_RATIO", "0.7"), 64); err != nil {
		return nil, fmt.Errorf("invalid FEED_TWEET_RATIO: %w", err)
	}
	if cfg.FeedTweetRatio < 0 || cfg.FeedTweetRatio > 1 {
		return nil, fmt.Errorf("FEED_TWEET_RATIO must be between 0 and 1, got %v", cfg.FeedTweetRatio)
	}
	if cfg.RateLimitRPM, err = strconv.Atoi(getEnvOrDefault("RATE_LIMIT_RPM", "300")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPM: %w", err)
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = "development-only-secret"
	}

	switch cfg.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
