package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBRADAR_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBRADAR_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Gate.io ──
	setStr(&cfg.Gateio.WsURL, "ARBRADAR_GATEIO_WS_URL")
	setStr(&cfg.Gateio.RestURL, "ARBRADAR_GATEIO_REST_URL")
	setBool(&cfg.Gateio.DiscoverPairs, "ARBRADAR_GATEIO_DISCOVER_PAIRS")
	setStr(&cfg.Gateio.QuoteCurrency, "ARBRADAR_GATEIO_QUOTE_CURRENCY")

	// ── MEXC ──
	setStr(&cfg.Mexc.WsURL, "ARBRADAR_MEXC_WS_URL")
	setStr(&cfg.Mexc.Market, "ARBRADAR_MEXC_MARKET")

	// ── Pairs ──
	setStringSlice(&cfg.Pairs, "ARBRADAR_PAIRS")

	// ── Connector ──
	setDuration(&cfg.Connector.ConnectTimeout, "ARBRADAR_CONNECTOR_CONNECT_TIMEOUT")
	setDuration(&cfg.Connector.SubscribeStagger, "ARBRADAR_CONNECTOR_SUBSCRIBE_STAGGER")
	setDuration(&cfg.Connector.HeartbeatInterval, "ARBRADAR_CONNECTOR_HEARTBEAT_INTERVAL")
	setDuration(&cfg.Connector.PongTimeout, "ARBRADAR_CONNECTOR_PONG_TIMEOUT")
	setDuration(&cfg.Connector.BackoffBase, "ARBRADAR_CONNECTOR_BACKOFF_BASE")
	setDuration(&cfg.Connector.BackoffMaxDelay, "ARBRADAR_CONNECTOR_BACKOFF_MAX_DELAY")
	setInt(&cfg.Connector.BackoffMaxAttempts, "ARBRADAR_CONNECTOR_BACKOFF_MAX_ATTEMPTS")

	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.MinProfitPct, "ARBRADAR_ARBITRAGE_MIN_PROFIT_PCT")
	setDuration(&cfg.Arbitrage.ScanInterval, "ARBRADAR_ARBITRAGE_SCAN_INTERVAL")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ARBRADAR_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ARBRADAR_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBRADAR_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBRADAR_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBRADAR_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBRADAR_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBRADAR_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBRADAR_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBRADAR_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBRADAR_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBRADAR_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBRADAR_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBRADAR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBRADAR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBRADAR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBRADAR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBRADAR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBRADAR_REDIS_TLS_ENABLED")

	// ── Retention ──
	setDuration(&cfg.Retention.Window, "ARBRADAR_RETENTION_WINDOW")
	setDuration(&cfg.Retention.Interval, "ARBRADAR_RETENTION_INTERVAL")

	// ── Server ──
	setInt(&cfg.Server.Port, "ARBRADAR_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBRADAR_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARBRADAR_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBRADAR_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBRADAR_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBRADAR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBRADAR_NOTIFY_EVENTS")
	setFloat64(&cfg.Notify.MinAlertPct, "ARBRADAR_NOTIFY_MIN_ALERT_PCT")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ARBRADAR_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
