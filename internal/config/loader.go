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
// built-in defaults, applies SKYFALL_* environment variable overrides, and
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

// applyEnvOverrides reads well-known SKYFALL_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setInt64(&cfg.Engine.MinExitFeePercent, "SKYFALL_ENGINE_MIN_EXIT_FEE_PERCENT")
	setInt64(&cfg.Engine.MaxExitFeePercent, "SKYFALL_ENGINE_MAX_EXIT_FEE_PERCENT")

	// ── Chain ──
	setInt(&cfg.Chain.ChainID, "SKYFALL_CHAIN_ID")
	setStr(&cfg.Chain.ResolverAddress, "SKYFALL_CHAIN_RESOLVER_ADDRESS")
	setStr(&cfg.Chain.TreasuryPrivateKey, "SKYFALL_CHAIN_TREASURY_PRIVATE_KEY")
	setStr(&cfg.Chain.TreasuryEncryptedKeyPath, "SKYFALL_CHAIN_TREASURY_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Chain.TreasuryKeyPassword, "SKYFALL_CHAIN_TREASURY_KEY_PASSWORD")

	// ── Weather ──
	setStr(&cfg.Weather.APIKey, "SKYFALL_WEATHER_API_KEY")
	setStr(&cfg.Weather.APIKey, "OPENWEATHER_API_KEY") // compatibility alias
	setStr(&cfg.Weather.BaseURL, "SKYFALL_WEATHER_BASE_URL")
	setDuration(&cfg.Weather.CacheTTL, "SKYFALL_WEATHER_CACHE_TTL")

	// ── Resolver ──
	setDuration(&cfg.Resolver.Interval, "SKYFALL_RESOLVER_INTERVAL")
	setDuration(&cfg.Resolver.LockTTL, "SKYFALL_RESOLVER_LOCK_TTL")
	setDuration(&cfg.Resolver.CancelAfter, "SKYFALL_RESOLVER_CANCEL_AFTER")
	setInt(&cfg.Resolver.ProviderRequestsPerMinute, "SKYFALL_RESOLVER_PROVIDER_REQUESTS_PER_MINUTE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SKYFALL_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "SKYFALL_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SKYFALL_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SKYFALL_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SKYFALL_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SKYFALL_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SKYFALL_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SKYFALL_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SKYFALL_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SKYFALL_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SKYFALL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SKYFALL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SKYFALL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SKYFALL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SKYFALL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SKYFALL_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SKYFALL_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SKYFALL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SKYFALL_S3_REGION")
	setStr(&cfg.S3.Bucket, "SKYFALL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SKYFALL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SKYFALL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SKYFALL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SKYFALL_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SKYFALL_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SKYFALL_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SKYFALL_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SKYFALL_SERVER_API_KEY")
	setStr(&cfg.Server.ResolverToken, "SKYFALL_SERVER_RESOLVER_TOKEN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SKYFALL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SKYFALL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SKYFALL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SKYFALL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SKYFALL_MODE")
	setStr(&cfg.LogLevel, "SKYFALL_LOG_LEVEL")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
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
