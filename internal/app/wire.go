package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	s3blob "github.com/aniruddha1295/SkyFall-Monad/internal/blob/s3"
	"github.com/aniruddha1295/SkyFall-Monad/internal/cache/redis"
	"github.com/aniruddha1295/SkyFall-Monad/internal/config"
	"github.com/aniruddha1295/SkyFall-Monad/internal/crypto"
	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
	"github.com/aniruddha1295/SkyFall-Monad/internal/notify"
	"github.com/aniruddha1295/SkyFall-Monad/internal/store/postgres"
	"github.com/aniruddha1295/SkyFall-Monad/internal/treasury"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Engine is the authoritative in-memory market state, restored from
	// the Postgres projection at startup.
	Engine *engine.Engine

	// Clients, kept for health probes.
	Postgres *postgres.Client
	Redis    *redis.Client

	// Stores (Postgres projection).
	MarketStore     domain.MarketStore
	PositionStore   domain.PositionStore
	SettlementStore domain.SettlementStore
	AuditStore      domain.AuditStore

	// Caches and coordination (Redis).
	WeatherCache domain.WeatherCache
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager
	SignalBus    domain.SignalBus

	// Settlement archive; nil when S3 is disabled.
	Archiver *s3blob.Archiver

	// Payout voucher signing.
	Authorizer domain.PayoutAuthorizer

	// Resolver is the capability identity allowed to settle markets.
	Resolver common.Address

	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Resolver: common.HexToAddress(cfg.Chain.ResolverAddress),
	}

	// --- Engine ---
	deps.Engine = engine.New(engine.Config{
		MinExitFeePercent:  cfg.Engine.MinExitFeePercent,
		MaxExitFeePercent:  cfg.Engine.MaxExitFeePercent,
		PlatformFeePercent: cfg.Engine.PlatformFeePercent,
	})

	// --- PostgreSQL projection ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Postgres = pgClient
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.PositionStore = postgres.NewPositionStore(pool)
	deps.SettlementStore = postgres.NewSettlementStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// Rehydrate the engine so pools, drains, and claim flags survive
	// restarts exactly.
	if err := restoreEngine(ctx, deps); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", err)
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Redis = redisClient
	deps.WeatherCache = redis.NewWeatherCache(redisClient, cfg.Weather.CacheTTL.Duration)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 settlement archive ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			deps.AuditStore,
		)
	}

	// --- Treasury voucher signing ---
	deps.Authorizer, err = buildAuthorizer(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", err)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Metrics ---
	deps.Registry = prometheus.NewRegistry()
	deps.Metrics = metrics.New(deps.Registry)
	deps.Metrics.ActiveMarkets.Set(float64(deps.Engine.ActiveMarketCount()))

	return deps, cleanup, nil
}

// archiverOrNil converts the optional concrete archiver into the interface
// the settlement service accepts, keeping the nil check meaningful there.
func (d *Dependencies) archiverOrNil() domain.SettlementArchiver {
	if d.Archiver == nil {
		return nil
	}
	return d.Archiver
}

// restoreEngine rehydrates the in-memory engine from the Postgres projection.
func restoreEngine(ctx context.Context, deps *Dependencies) error {
	records, err := deps.MarketStore.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("restore markets: %w", err)
	}
	positions, err := deps.PositionStore.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("restore positions: %w", err)
	}
	if err := deps.Engine.Restore(records, positions); err != nil {
		return fmt.Errorf("restore engine: %w", err)
	}
	return nil
}

// buildAuthorizer loads the treasury signing key and constructs the voucher
// signer. Without a key it falls back to unsigned vouchers, which is only
// acceptable for local development.
func buildAuthorizer(cfg *config.Config, logger *slog.Logger) (domain.PayoutAuthorizer, error) {
	if cfg.Chain.TreasuryPrivateKey == "" && cfg.Chain.TreasuryEncryptedKeyPath == "" {
		logger.Warn("no treasury key configured, payout vouchers will be unsigned")
		return treasury.NewNoopAuthorizer(), nil
	}

	keyHex, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Chain.TreasuryPrivateKey,
		EncryptedKeyPath: cfg.Chain.TreasuryEncryptedKeyPath,
		KeyPassword:      cfg.Chain.TreasuryKeyPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("treasury key: %w", err)
	}

	signer, err := treasury.NewSigner(keyHex, cfg.Chain.ChainID)
	if err != nil {
		return nil, fmt.Errorf("treasury signer: %w", err)
	}
	logger.Info("treasury signer ready",
		slog.String("signer", signer.Address().Hex()),
		slog.Int("chain_id", cfg.Chain.ChainID),
	)
	return signer, nil
}
