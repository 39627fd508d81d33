package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	WordPress WordPressConfig
	Proxy     ProxyConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// WordPressConfig holds WordPress.com OAuth and API configuration.
type WordPressConfig struct {
	ClientID     string `envconfig:"WORDPRESS_CLIENT_ID"`
	ClientSecret string `envconfig:"WORDPRESS_CLIENT_SECRET"`
	RedirectURI  string `envconfig:"WORDPRESS_REDIRECT_URI" default:"http://localhost:8000/auth/callback"`
	DashboardURL string `envconfig:"DASHBOARD_URL" default:"http://localhost:3000/dashboard"`
	APIBase      string `envconfig:"WORDPRESS_API_BASE" default:"https://public-api.wordpress.com"`
}

// ProxyConfig holds forwarding proxy configuration.
type ProxyConfig struct {
	// UpstreamTimeout bounds the single upstream fetch attempt.
	UpstreamTimeout time.Duration `envconfig:"PROXY_UPSTREAM_TIMEOUT" default:"30s"`
	// MaxBodyBytes caps buffered HTML bodies before injection.
	MaxBodyBytes int64 `envconfig:"PROXY_MAX_BODY_BYTES" default:"10485760"`
	// StripFrameHeaders removes X-Frame-Options and Content-Security-Policy
	// from rewritten responses so third-party sites can be embedded in an
	// iframe. Disabling it breaks the embedding workflow for sites that set
	// those headers.
	StripFrameHeaders bool `envconfig:"PROXY_STRIP_FRAME_HEADERS" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		WordPress: WordPressConfig{
			RedirectURI:  "http://localhost:8000/auth/callback",
			DashboardURL: "http://localhost:3000/dashboard",
			APIBase:      "https://public-api.wordpress.com",
		},
		Proxy: ProxyConfig{
			UpstreamTimeout:   30 * time.Second,
			MaxBodyBytes:      10 << 20,
			StripFrameHeaders: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           false,
		},
	}
}
