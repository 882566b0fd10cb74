// Package config defines the top-level configuration for the arbitrage radar
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBRADAR_* environment variables.
type Config struct {
	Gateio    GateioConfig    `toml:"gateio"`
	Mexc      MexcConfig      `toml:"mexc"`
	Pairs     []string        `toml:"pairs"`
	Connector ConnectorConfig `toml:"connector"`
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	Retention RetentionConfig `toml:"retention"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	LogLevel  string          `toml:"log_level"`
}

// GateioConfig holds Gate.io endpoints and pair-discovery settings.
type GateioConfig struct {
	WsURL   string `toml:"ws_url"`
	RestURL string `toml:"rest_url"`
	// DiscoverPairs expands the configured pairs with every tradable pair
	// against QuoteCurrency found via the REST API.
	DiscoverPairs bool   `toml:"discover_pairs"`
	QuoteCurrency string `toml:"quote_currency"`
}

// MexcConfig holds MEXC endpoints.
type MexcConfig struct {
	WsURL string `toml:"ws_url"`
	// Market tags ticks from this venue: "spot" or "futures".
	Market string `toml:"market"`
}

// ConnectorConfig holds the shared per-venue connection tunables.
type ConnectorConfig struct {
	ConnectTimeout     duration `toml:"connect_timeout"`
	SubscribeStagger   duration `toml:"subscribe_stagger"`
	HeartbeatInterval  duration `toml:"heartbeat_interval"`
	PongTimeout        duration `toml:"pong_timeout"`
	BackoffBase        duration `toml:"backoff_base"`
	BackoffMaxDelay    duration `toml:"backoff_max_delay"`
	BackoffMaxAttempts int      `toml:"backoff_max_attempts"`
}

// ArbitrageConfig holds scanner parameters.
type ArbitrageConfig struct {
	// MinProfitPct is the emission threshold in percent of the buy price.
	MinProfitPct float64  `toml:"min_profit_pct"`
	ScanInterval duration `toml:"scan_interval"`
}

// PostgresConfig holds PostgreSQL connection parameters for spread history.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the shared signal bus
// and the ticker mirror.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// RetentionConfig holds spread-history retention parameters.
type RetentionConfig struct {
	Window   duration `toml:"window"`
	Interval duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials and the alert
// threshold.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	// MinAlertPct is the minimum profit percentage for operator alerts;
	// it may be set higher than arbitrage.min_profit_pct.
	MinAlertPct float64 `toml:"min_alert_pct"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "3s", "24h").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "3s" or "24h".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Gateio: GateioConfig{
			WsURL:         "wss://api.gateio.ws/ws/v4/",
			RestURL:       "https://api.gateio.ws/api/v4",
			DiscoverPairs: false,
			QuoteCurrency: "USDT",
		},
		Mexc: MexcConfig{
			WsURL:  "wss://wbs.mexc.com/ws",
			Market: "futures",
		},
		Pairs: []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"},
		Connector: ConnectorConfig{
			ConnectTimeout:     duration{30 * time.Second},
			SubscribeStagger:   duration{100 * time.Millisecond},
			HeartbeatInterval:  duration{15 * time.Second},
			PongTimeout:        duration{5 * time.Second},
			BackoffBase:        duration{3 * time.Second},
			BackoffMaxDelay:    duration{60 * time.Second},
			BackoffMaxAttempts: 10,
		},
		Arbitrage: ArbitrageConfig{
			MinProfitPct: 0.05,
			ScanInterval: duration{3 * time.Second},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "arbradar",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Retention: RetentionConfig{
			Window:   duration{24 * time.Hour},
			Interval: duration{time.Hour},
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events:      []string{"arbitrage"},
			MinAlertPct: 0.2,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validMarkets enumerates the accepted values for MexcConfig.Market.
var validMarkets = map[string]bool{
	"spot":    true,
	"futures": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Gateio.WsURL == "" {
		errs = append(errs, "gateio: ws_url must not be empty")
	}
	if c.Gateio.DiscoverPairs {
		if c.Gateio.RestURL == "" {
			errs = append(errs, "gateio: rest_url is required when discover_pairs is enabled")
		}
		if c.Gateio.QuoteCurrency == "" {
			errs = append(errs, "gateio: quote_currency is required when discover_pairs is enabled")
		}
	}

	if c.Mexc.WsURL == "" {
		errs = append(errs, "mexc: ws_url must not be empty")
	}
	if !validMarkets[strings.ToLower(c.Mexc.Market)] {
		errs = append(errs, fmt.Sprintf("mexc: market must be \"spot\" or \"futures\", got %q", c.Mexc.Market))
	}

	if len(c.Pairs) == 0 && !c.Gateio.DiscoverPairs {
		errs = append(errs, "pairs: at least one pair is required unless gateio.discover_pairs is enabled")
	}
	for _, p := range c.Pairs {
		if !strings.Contains(p, "/") {
			errs = append(errs, fmt.Sprintf("pairs: %q is not in BASE/QUOTE form", p))
		}
	}

	if c.Arbitrage.MinProfitPct <= 0 {
		errs = append(errs, "arbitrage: min_profit_pct must be > 0")
	}
	if c.Arbitrage.ScanInterval.Duration <= 0 {
		errs = append(errs, "arbitrage: scan_interval must be > 0")
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Retention.Window.Duration <= 0 {
		errs = append(errs, "retention: window must be > 0")
	}
	if c.Retention.Interval.Duration <= 0 {
		errs = append(errs, "retention: interval must be > 0")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Notify.MinAlertPct < 0 {
		errs = append(errs, "notify: min_alert_pct must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
