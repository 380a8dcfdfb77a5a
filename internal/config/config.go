// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SCANNER_* environment
// variables.
type Config struct {
	VenueA   VenueAConfig   `toml:"venue_a"`
	VenueB   VenueBConfig   `toml:"venue_b"`
	Builder  BuilderConfig  `toml:"builder"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Match    MatchConfig    `toml:"match"`
	Exec     ExecConfig     `toml:"exec"`
	Scan     ScanConfig     `toml:"scan"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Goldsky  GoldskyConfig  `toml:"goldsky"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// VenueAConfig holds the integer-cent CLOB venue's API endpoint and
// RSA-PSS signing credentials.
type VenueAConfig struct {
	BaseURL           string `toml:"base_url"`
	ApiKeyID          string `toml:"api_key_id"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	RsaPrivateKeyPEM  string `toml:"rsa_private_key_pem"`
}

// VenueBConfig holds the token-based CLOB venue's hosts and chain
// parameters.
type VenueBConfig struct {
	ClobHost      string `toml:"clob_host"`
	GammaHost     string `toml:"gamma_host"`
	WsHost        string `toml:"ws_host"`
	ChainID       int    `toml:"chain_id"`
	SignatureType int    `toml:"signature_type"`
	FunderAddress string `toml:"funder_address"`

	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// BuilderConfig holds HMAC credentials for venue-B's authenticated order
// endpoints.
type BuilderConfig struct {
	ApiKey        string `toml:"api_key"`
	ApiSecret     string `toml:"api_secret"`
	ApiPassphrase string `toml:"api_passphrase"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters used to archive
// NDJSON opportunity streams and trade snapshots.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	RetentionDays  int    `toml:"retention_days"`
}

// MatchConfig holds market-matching tolerances.
type MatchConfig struct {
	SportsToleranceHours float64 `toml:"sports_tolerance_hours"`
	CryptoToleranceHours float64 `toml:"crypto_tolerance_hours"`
	CryptoMatchEnabled   bool    `toml:"crypto_match_enabled"`
	MinSpreadCents       float64 `toml:"min_spread_cents"`
	MinPriceCents        float64 `toml:"min_price_cents"`
}

// ExecConfig holds execution sizing, pacing, and cooldown tunables.
type ExecConfig struct {
	MaxTradeUSD       float64  `toml:"max_trade_usd"`
	MaxUnitsPerMarket int      `toml:"max_units_per_market"`
	MaxUnitsPerMap    int      `toml:"max_units_per_map"`
	PolyMinOrderUSD   float64  `toml:"poly_min_order_usd"`
	Leg1SettleDelay   duration `toml:"leg1_settle_delay"`
	UnwindDelay       duration `toml:"unwind_delay"`
	UnwindRetryDelay  duration `toml:"unwind_retry_delay"`
	UnwindMaxAttempts int      `toml:"unwind_max_attempts"`
	CooldownCycles    int      `toml:"cooldown_cycles"`
	MinSpreadCents    float64  `toml:"min_spread_cents"`
	VenueATakerFeePct float64  `toml:"venue_a_taker_fee_pct"`
}

// ScanConfig holds the two-speed orchestrator's refresh and poll
// intervals and fetch worker count.
type ScanConfig struct {
	MarketRefreshInterval duration `toml:"market_refresh_interval"`
	PriceTickInterval     duration `toml:"price_tick_interval"`
	RefreshBackoff        duration `toml:"refresh_backoff"`
	RefreshMaxFailures    int      `toml:"refresh_max_failures"`
	FetchWorkers          int      `toml:"fetch_workers"`
	CallDeadline          duration `toml:"call_deadline"`
	MarketWindowHours     int      `toml:"market_window_hours"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds the optional status HTTP server's parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// GoldskyConfig holds the subgraph indexer endpoint used to reconcile
// venue-B's reported fills against on-chain settlement truth. Only
// meaningful in live mode, where real on-chain settlement happens.
type GoldskyConfig struct {
	Enabled      bool     `toml:"enabled"`
	GraphQLURL   string   `toml:"graphql_url"`
	ApiKey       string   `toml:"api_key"`
	PollInterval duration `toml:"poll_interval"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		VenueA: VenueAConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		VenueB: VenueBConfig{
			ClobHost:      "https://clob.polymarket.com",
			GammaHost:     "https://gamma-api.polymarket.com",
			WsHost:        "wss://ws-subscriptions-clob.polymarket.com",
			ChainID:       137,
			SignatureType: 2,
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "scanner-data",
			UseSSL:         false,
			ForcePathStyle: true,
			RetentionDays:  90,
		},
		Match: MatchConfig{
			SportsToleranceHours: 4,
			CryptoToleranceHours: 1,
			CryptoMatchEnabled:   false,
			MinSpreadCents:       3.3,
			MinPriceCents:        0,
		},
		Exec: ExecConfig{
			MaxTradeUSD:       50,
			MaxUnitsPerMarket: 500,
			MaxUnitsPerMap:    100,
			PolyMinOrderUSD:   1,
			Leg1SettleDelay:   duration{500 * time.Millisecond},
			UnwindDelay:       duration{2 * time.Second},
			UnwindRetryDelay:  duration{2 * time.Second},
			UnwindMaxAttempts: 3,
			CooldownCycles:    30,
			MinSpreadCents:    3.3,
			VenueATakerFeePct: 0.0175,
		},
		Scan: ScanConfig{
			MarketRefreshInterval: duration{7200 * time.Second},
			PriceTickInterval:     duration{2 * time.Second},
			RefreshBackoff:        duration{30 * time.Second},
			RefreshMaxFailures:    3,
			FetchWorkers:          20,
			CallDeadline:          duration{2 * time.Second},
			MarketWindowHours:     72,
		},
		Server: ServerConfig{
			Enabled:     false,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Notify: NotifyConfig{
			Events: []string{"filled", "partial_stuck"},
		},
		Goldsky: GoldskyConfig{
			Enabled:      false,
			PollInterval: duration{5 * time.Minute},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true,
	"paper": true,
	"live":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, paper, live)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venue A
	if c.VenueA.BaseURL == "" {
		errs = append(errs, "venue_a: base_url must not be empty")
	}
	needsLive := strings.ToLower(c.Mode) == "live"
	if needsLive {
		if c.VenueA.ApiKeyID == "" {
			errs = append(errs, "venue_a: api_key_id is required for live mode")
		}
		if c.VenueA.RsaPrivateKeyPath == "" && c.VenueA.RsaPrivateKeyPEM == "" {
			errs = append(errs, "venue_a: either rsa_private_key_path or rsa_private_key_pem must be set for live mode")
		}
	}

	// Venue B
	if c.VenueB.ClobHost == "" {
		errs = append(errs, "venue_b: clob_host must not be empty")
	}
	if c.VenueB.ChainID <= 0 {
		errs = append(errs, "venue_b: chain_id must be positive")
	}
	if c.VenueB.SignatureType != 0 && c.VenueB.SignatureType != 1 && c.VenueB.SignatureType != 2 {
		errs = append(errs, fmt.Sprintf("venue_b: signature_type must be 0 (EOA), 1 (proxy), or 2 (Safe), got %d", c.VenueB.SignatureType))
	}
	if needsLive {
		if c.VenueB.PrivateKey == "" && c.VenueB.EncryptedKeyPath == "" {
			errs = append(errs, "venue_b: either private_key or encrypted_key_path must be set for live mode")
		}
		if c.VenueB.EncryptedKeyPath != "" && c.VenueB.KeyPassword == "" {
			errs = append(errs, "venue_b: key_password is required when encrypted_key_path is set")
		}
		if c.VenueB.SignatureType != 0 && c.VenueB.FunderAddress == "" {
			errs = append(errs, "venue_b: funder_address is required when signature_type is not EOA")
		}
	}

	// Builder — all three fields must be set together, or all empty.
	bk := c.Builder.ApiKey != ""
	bs := c.Builder.ApiSecret != ""
	bp := c.Builder.ApiPassphrase != ""
	if bk || bs || bp {
		if !(bk && bs && bp) {
			errs = append(errs, "builder: api_key, api_secret, and api_passphrase must all be set together")
		}
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Endpoint == "" {
		errs = append(errs, "s3: endpoint must not be empty")
	}
	if c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty")
	}
	if c.S3.RetentionDays < 1 {
		errs = append(errs, "s3: retention_days must be >= 1")
	}

	// Match
	if c.Match.SportsToleranceHours <= 0 {
		errs = append(errs, "match: sports_tolerance_hours must be > 0")
	}
	if c.Match.CryptoToleranceHours <= 0 {
		errs = append(errs, "match: crypto_tolerance_hours must be > 0")
	}

	// Exec
	if c.Exec.MaxTradeUSD <= 0 {
		errs = append(errs, "exec: max_trade_usd must be > 0")
	}
	if c.Exec.MaxUnitsPerMarket < 1 {
		errs = append(errs, "exec: max_units_per_market must be >= 1")
	}
	if c.Exec.MaxUnitsPerMap < 1 {
		errs = append(errs, "exec: max_units_per_map must be >= 1")
	}
	if c.Exec.UnwindMaxAttempts < 1 {
		errs = append(errs, "exec: unwind_max_attempts must be >= 1")
	}
	if c.Exec.CooldownCycles < 0 {
		errs = append(errs, "exec: cooldown_cycles must be >= 0")
	}

	// Scan
	if c.Scan.MarketRefreshInterval.Duration <= 0 {
		errs = append(errs, "scan: market_refresh_interval must be > 0")
	}
	if c.Scan.PriceTickInterval.Duration <= 0 {
		errs = append(errs, "scan: price_tick_interval must be > 0")
	}
	if c.Scan.RefreshMaxFailures < 1 {
		errs = append(errs, "scan: refresh_max_failures must be >= 1")
	}
	if c.Scan.FetchWorkers < 1 {
		errs = append(errs, "scan: fetch_workers must be >= 1")
	}
	if c.Scan.MarketWindowHours < 1 {
		errs = append(errs, "scan: market_window_hours must be >= 1")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Goldsky
	if c.Goldsky.Enabled {
		if c.Goldsky.GraphQLURL == "" {
			errs = append(errs, "goldsky: graphql_url is required when enabled")
		}
		if c.Goldsky.PollInterval.Duration <= 0 {
			errs = append(errs, "goldsky: poll_interval must be > 0 when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
