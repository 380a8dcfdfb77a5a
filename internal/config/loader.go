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
// built-in defaults, applies SCANNER_* environment variable overrides, and
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

// applyEnvOverrides reads well-known SCANNER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Venue A ──
	setStr(&cfg.VenueA.BaseURL, "SCANNER_VENUE_A_BASE_URL")
	setStr(&cfg.VenueA.ApiKeyID, "SCANNER_VENUE_A_API_KEY_ID")
	setStr(&cfg.VenueA.RsaPrivateKeyPath, "SCANNER_VENUE_A_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.VenueA.RsaPrivateKeyPEM, "SCANNER_VENUE_A_RSA_PRIVATE_KEY_PEM")

	// ── Venue B ──
	setStr(&cfg.VenueB.ClobHost, "SCANNER_VENUE_B_CLOB_HOST")
	setStr(&cfg.VenueB.GammaHost, "SCANNER_VENUE_B_GAMMA_HOST")
	setStr(&cfg.VenueB.WsHost, "SCANNER_VENUE_B_WS_HOST")
	setInt(&cfg.VenueB.ChainID, "SCANNER_VENUE_B_CHAIN_ID")
	setInt(&cfg.VenueB.SignatureType, "SCANNER_VENUE_B_SIGNATURE_TYPE")
	setStr(&cfg.VenueB.FunderAddress, "SCANNER_VENUE_B_FUNDER_ADDRESS")
	setStr(&cfg.VenueB.PrivateKey, "SCANNER_VENUE_B_PRIVATE_KEY")
	setStr(&cfg.VenueB.EncryptedKeyPath, "SCANNER_VENUE_B_ENCRYPTED_KEY_PATH")
	setStr(&cfg.VenueB.KeyPassword, "SCANNER_VENUE_B_KEY_PASSWORD")

	// ── Builder ──
	setStr(&cfg.Builder.ApiKey, "SCANNER_BUILDER_API_KEY")
	setStr(&cfg.Builder.ApiSecret, "SCANNER_BUILDER_API_SECRET")
	setStr(&cfg.Builder.ApiPassphrase, "SCANNER_BUILDER_API_PASSPHRASE")

	// ── Database ──
	setStr(&cfg.Database.DSN, "SCANNER_DATABASE_DSN")
	setStr(&cfg.Database.Host, "SCANNER_DATABASE_HOST")
	setInt(&cfg.Database.Port, "SCANNER_DATABASE_PORT")
	setStr(&cfg.Database.Database, "SCANNER_DATABASE_NAME")
	setStr(&cfg.Database.User, "SCANNER_DATABASE_USER")
	setStr(&cfg.Database.Password, "SCANNER_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "SCANNER_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "SCANNER_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "SCANNER_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "SCANNER_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SCANNER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SCANNER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SCANNER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SCANNER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SCANNER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SCANNER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "SCANNER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SCANNER_S3_REGION")
	setStr(&cfg.S3.Bucket, "SCANNER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SCANNER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SCANNER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SCANNER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SCANNER_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "SCANNER_S3_RETENTION_DAYS")

	// ── Match ──
	setFloat64(&cfg.Match.SportsToleranceHours, "SCANNER_MATCH_SPORTS_TOLERANCE_HOURS")
	setFloat64(&cfg.Match.CryptoToleranceHours, "SCANNER_MATCH_CRYPTO_TOLERANCE_HOURS")
	setBool(&cfg.Match.CryptoMatchEnabled, "SCANNER_MATCH_CRYPTO_MATCH_ENABLED")
	setFloat64(&cfg.Match.MinSpreadCents, "SCANNER_MATCH_MIN_SPREAD_CENTS")
	setFloat64(&cfg.Match.MinPriceCents, "SCANNER_MATCH_MIN_PRICE_CENTS")

	// ── Exec ──
	setFloat64(&cfg.Exec.MaxTradeUSD, "SCANNER_EXEC_MAX_TRADE_USD")
	setInt(&cfg.Exec.MaxUnitsPerMarket, "SCANNER_EXEC_MAX_UNITS_PER_MARKET")
	setInt(&cfg.Exec.MaxUnitsPerMap, "SCANNER_EXEC_MAX_UNITS_PER_MAP")
	setFloat64(&cfg.Exec.PolyMinOrderUSD, "SCANNER_EXEC_POLY_MIN_ORDER_USD")
	setDuration(&cfg.Exec.Leg1SettleDelay, "SCANNER_EXEC_LEG1_SETTLE_DELAY")
	setDuration(&cfg.Exec.UnwindDelay, "SCANNER_EXEC_UNWIND_DELAY")
	setDuration(&cfg.Exec.UnwindRetryDelay, "SCANNER_EXEC_UNWIND_RETRY_DELAY")
	setInt(&cfg.Exec.UnwindMaxAttempts, "SCANNER_EXEC_UNWIND_MAX_ATTEMPTS")
	setInt(&cfg.Exec.CooldownCycles, "SCANNER_EXEC_COOLDOWN_CYCLES")
	setFloat64(&cfg.Exec.MinSpreadCents, "SCANNER_EXEC_MIN_SPREAD_CENTS")
	setFloat64(&cfg.Exec.VenueATakerFeePct, "SCANNER_EXEC_VENUE_A_TAKER_FEE_PCT")

	// ── Scan ──
	setDuration(&cfg.Scan.MarketRefreshInterval, "SCANNER_SCAN_MARKET_REFRESH_INTERVAL")
	setDuration(&cfg.Scan.PriceTickInterval, "SCANNER_SCAN_PRICE_TICK_INTERVAL")
	setDuration(&cfg.Scan.RefreshBackoff, "SCANNER_SCAN_REFRESH_BACKOFF")
	setInt(&cfg.Scan.RefreshMaxFailures, "SCANNER_SCAN_REFRESH_MAX_FAILURES")
	setInt(&cfg.Scan.FetchWorkers, "SCANNER_SCAN_FETCH_WORKERS")
	setDuration(&cfg.Scan.CallDeadline, "SCANNER_SCAN_CALL_DEADLINE")
	setInt(&cfg.Scan.MarketWindowHours, "SCANNER_SCAN_MARKET_WINDOW_HOURS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SCANNER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SCANNER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SCANNER_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SCANNER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SCANNER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SCANNER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SCANNER_NOTIFY_EVENTS")

	// ── Goldsky ──
	setBool(&cfg.Goldsky.Enabled, "SCANNER_GOLDSKY_ENABLED")
	setStr(&cfg.Goldsky.GraphQLURL, "SCANNER_GOLDSKY_GRAPHQL_URL")
	setStr(&cfg.Goldsky.ApiKey, "SCANNER_GOLDSKY_API_KEY")
	setDuration(&cfg.Goldsky.PollInterval, "SCANNER_GOLDSKY_POLL_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.Mode, "SCANNER_MODE")
	setStr(&cfg.LogLevel, "SCANNER_LOG_LEVEL")
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
