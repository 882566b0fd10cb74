package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestDefaultMexcEndpointMatchesTransportProtocol(t *testing.T) {
	// The MEXC transport speaks the wbs.mexc.com frame dialect (sub.ticker,
	// concatenated lowercase symbols). Pointing the default anywhere else
	// would leave the sell side silently empty.
	cfg := Defaults()
	assert.Equal(t, "wss://wbs.mexc.com/ws", cfg.Mexc.WsURL)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
pairs = ["BTC/USDT"]

[arbitrage]
min_profit_pct = 0.1
scan_interval = "5s"

[server]
port = 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"BTC/USDT"}, cfg.Pairs)
	assert.Equal(t, 0.1, cfg.Arbitrage.MinProfitPct)
	assert.Equal(t, 5*time.Second, cfg.Arbitrage.ScanInterval.Duration)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Untouched sections keep their defaults.
	assert.Equal(t, "wss://api.gateio.ws/ws/v4/", cfg.Gateio.WsURL)
	assert.Equal(t, 24*time.Hour, cfg.Retention.Window.Duration)
	assert.Equal(t, "futures", cfg.Mexc.Market)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBRADAR_ARBITRAGE_MIN_PROFIT_PCT", "0.25")
	t.Setenv("ARBRADAR_PAIRS", "BTC/USDT, ETH/USDT")
	t.Setenv("ARBRADAR_REDIS_ENABLED", "true")
	t.Setenv("ARBRADAR_RETENTION_WINDOW", "48h")

	path := writeConfig(t, ``)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Arbitrage.MinProfitPct)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.Pairs)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 48*time.Hour, cfg.Retention.Window.Duration)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.Mexc.WsURL = ""
	cfg.Mexc.Market = "margin"
	cfg.Pairs = []string{"BTCUSDT"}
	cfg.Arbitrage.MinProfitPct = -1
	cfg.Server.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "mexc: ws_url")
	assert.Contains(t, err.Error(), "mexc: market")
	assert.Contains(t, err.Error(), "BASE/QUOTE")
	assert.Contains(t, err.Error(), "min_profit_pct")
	assert.Contains(t, err.Error(), "server: port")
}

func TestValidatePostgresOnlyWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Host = ""
	require.NoError(t, cfg.Validate())

	cfg.Postgres.Enabled = true
	require.Error(t, cfg.Validate())

	cfg.Postgres.DSN = "postgres://example"
	require.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.TelegramToken = "123:abc"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	// Original untouched.
	assert.Equal(t, "hunter2", cfg.Postgres.Password)
	// Empty secrets stay empty.
	assert.Empty(t, red.Redis.Password)
}
