// Package config defines the top-level configuration for the SkyFall
// settlement service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SKYFALL_* environment
// variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Chain    ChainConfig    `toml:"chain"`
	Weather  WeatherConfig  `toml:"weather"`
	Resolver ResolverConfig `toml:"resolver"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds settlement engine parameters.
type EngineConfig struct {
	// Exit fee ramp bounds, in whole percent.
	MinExitFeePercent int64 `toml:"min_exit_fee_percent"`
	MaxExitFeePercent int64 `toml:"max_exit_fee_percent"`
	// PlatformFeePercent is the platform's share of surplus exit fees,
	// taken when a market resolves or is cancelled.
	PlatformFeePercent int64 `toml:"platform_fee_percent"`
}

// ChainConfig identifies the chain the engine settles for and the accounts
// with privileged roles.
type ChainConfig struct {
	ChainID int `toml:"chain_id"`
	// ResolverAddress is the only identity allowed to resolve or cancel
	// markets.
	ResolverAddress string `toml:"resolver_address"`
	// Treasury signing key for payout vouchers: either a raw hex key or
	// an encrypted keyfile plus password.
	TreasuryPrivateKey       string `toml:"treasury_private_key"`
	TreasuryEncryptedKeyPath string `toml:"treasury_encrypted_key_path"`
	TreasuryKeyPassword      string `toml:"treasury_key_password"`
}

// WeatherConfig holds measurement provider parameters.
type WeatherConfig struct {
	APIKey   string   `toml:"api_key"`
	BaseURL  string   `toml:"base_url"`
	CacheTTL duration `toml:"cache_ttl"`
}

// ResolverConfig holds the resolution worker parameters.
type ResolverConfig struct {
	// Interval between scans for markets due for resolution.
	Interval duration `toml:"interval"`
	// LockTTL bounds how long one instance may hold a market's
	// resolution lock.
	LockTTL duration `toml:"lock_ttl"`
	// CancelAfter is the grace window past resolution time after which a
	// market with persistently unavailable measurements is cancelled.
	CancelAfter duration `toml:"cancel_after"`
	// ProviderRequestsPerMinute caps measurement provider calls.
	ProviderRequestsPerMinute int `toml:"provider_requests_per_minute"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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

// S3Config holds object storage parameters for settlement archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey protects the general API when set; empty disables auth.
	APIKey string `toml:"api_key"`
	// ResolverToken additionally gates the resolve/cancel endpoints.
	ResolverToken string `toml:"resolver_token"`
}

// NotifyConfig holds notification channel parameters.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration for TOML decoding.
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

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			MinExitFeePercent:  2,
			MaxExitFeePercent:  7,
			PlatformFeePercent: 5,
		},
		Chain: ChainConfig{
			ChainID: 10143, // Monad testnet
		},
		Weather: WeatherConfig{
			BaseURL:  "https://api.openweathermap.org/data/2.5",
			CacheTTL: duration{10 * time.Minute},
		},
		Resolver: ResolverConfig{
			Interval:                  duration{time.Minute},
			LockTTL:                   duration{30 * time.Second},
			CancelAfter:               duration{72 * time.Hour},
			ProviderRequestsPerMinute: 30,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "skyfall",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "skyfall-settlements",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"market_resolved", "market_cancelled", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":   true,
	"resolver": true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, resolver, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Engine.MinExitFeePercent < 0 || c.Engine.MaxExitFeePercent < 0 {
		errs = append(errs, "engine: exit fee percents must be non-negative")
	}
	if c.Engine.MaxExitFeePercent > 99 {
		errs = append(errs, "engine: max_exit_fee_percent must be below 100")
	}
	if c.Engine.MinExitFeePercent > c.Engine.MaxExitFeePercent {
		errs = append(errs, "engine: min_exit_fee_percent must not exceed max_exit_fee_percent")
	}
	if c.Engine.PlatformFeePercent < 0 || c.Engine.PlatformFeePercent > 100 {
		errs = append(errs, "engine: platform_fee_percent must be between 0 and 100")
	}

	needsResolver := c.Mode == "resolver" || c.Mode == "full"
	if needsResolver {
		if c.Chain.ResolverAddress == "" {
			errs = append(errs, "chain: resolver_address is required for mode "+c.Mode)
		}
		if c.Weather.APIKey == "" {
			errs = append(errs, "weather: api_key is required for mode "+c.Mode)
		}
		if c.Resolver.Interval.Duration <= 0 {
			errs = append(errs, "resolver: interval must be positive")
		}
	}
	if c.Chain.ResolverAddress != "" && !common.IsHexAddress(c.Chain.ResolverAddress) {
		errs = append(errs, fmt.Sprintf("chain: resolver_address %q is not a valid address", c.Chain.ResolverAddress))
	}
	if c.Chain.TreasuryEncryptedKeyPath != "" && c.Chain.TreasuryKeyPassword == "" {
		errs = append(errs, "chain: treasury_key_password is required when treasury_encrypted_key_path is set")
	}

	if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.User == "") {
		errs = append(errs, "postgres: either dsn or host/database/user must be set")
	}
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must be set")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket is required when archival is enabled")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server: invalid port %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
