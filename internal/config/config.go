package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/paypal"
	"github.com/joho/godotenv"
)

var ErrMissingCredentials = errors.New("config: PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required")

type Config struct {
	Port        string
	ServiceName string
	Env         string
	LogLevel    string
	LogFile     string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalEnv          string
	PayPalBaseURL      string
	Currency           string
	GatewayTimeout     time.Duration
	TokenCache         bool

	RedisAddr    string
	CatalogFile  string
	OTLPEndpoint string
}

// Load reads the process environment, after merging an optional .env file
// from the working directory. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from any lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:               get("PORT", "8080"),
		ServiceName:        get("SERVICE_NAME", "minishop-checkout"),
		Env:                get("ENV", "dev"),
		LogLevel:           get("LOG_LEVEL", "info"),
		LogFile:            get("LOG_FILE", ""),
		PayPalClientID:     get("PAYPAL_CLIENT_ID", ""),
		PayPalClientSecret: get("PAYPAL_CLIENT_SECRET", ""),
		PayPalEnv:          get("PAYPAL_ENV", "sandbox"),
		PayPalBaseURL:      get("PAYPAL_BASE_URL", ""),
		Currency:           strings.ToUpper(get("PAYPAL_CURRENCY", "USD")),
		RedisAddr:          get("REDIS_ADDR", ""),
		CatalogFile:        get("CATALOG_FILE", ""),
		OTLPEndpoint:       get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.PayPalClientID == "" || cfg.PayPalClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	if cfg.PayPalBaseURL == "" {
		base, err := paypal.BaseURL(cfg.PayPalEnv)
		if err != nil {
			return nil, fmt.Errorf("config: PAYPAL_ENV: %w", err)
		}
		cfg.PayPalBaseURL = base
	}

	timeout, err := time.ParseDuration(get("GATEWAY_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("config: GATEWAY_TIMEOUT must be a positive duration, got %q", getenv("GATEWAY_TIMEOUT"))
	}
	cfg.GatewayTimeout = timeout

	cache, err := strconv.ParseBool(get("PAYPAL_TOKEN_CACHE", "true"))
	if err != nil {
		return nil, fmt.Errorf("config: PAYPAL_TOKEN_CACHE: %w", err)
	}
	cfg.TokenCache = cache

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }
