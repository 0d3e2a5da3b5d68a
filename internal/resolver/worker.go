// Package resolver runs the background worker that settles markets when
// their resolution time passes: it reads a weather measurement, maps it to
// an outcome, and drives the settlement service. A distributed lock keeps
// multiple instances from racing on the same market.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
	"github.com/aniruddha1295/SkyFall-Monad/internal/weather"
)

// rateLimitKey buckets all provider calls under one shared quota.
const rateLimitKey = "weather-provider"

// Provider supplies current observations for a city.
type Provider interface {
	CurrentObservation(ctx context.Context, city string) (domain.Observation, error)
}

// MarketLister lists markets for the due-market scan.
type MarketLister interface {
	ListMarkets(ctx context.Context, opts domain.ListOpts) []domain.Market
}

// Settler applies terminal transitions on behalf of the resolver identity.
type Settler interface {
	ResolveMarket(ctx context.Context, caller common.Address, marketID uint64, outcome bool) (domain.Market, error)
	CancelMarket(ctx context.Context, caller common.Address, marketID uint64) (domain.Market, error)
}

// Config holds worker parameters.
type Config struct {
	// Identity presented to the settlement service.
	Resolver common.Address
	// Interval between due-market scans.
	Interval time.Duration
	// LockTTL bounds how long one instance holds a market's lock.
	LockTTL time.Duration
	// CancelAfter is the grace window past resolution time after which a
	// market with persistently unavailable measurements is cancelled.
	CancelAfter time.Duration
	// ProviderRequestsPerMinute caps provider calls across instances.
	ProviderRequestsPerMinute int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 30 * time.Second
	}
	if c.CancelAfter <= 0 {
		c.CancelAfter = 72 * time.Hour
	}
	if c.ProviderRequestsPerMinute <= 0 {
		c.ProviderRequestsPerMinute = 30
	}
	return c
}

// Worker scans for due markets and settles them.
type Worker struct {
	cfg      Config
	marketsv MarketLister
	settler  Settler
	provider Provider
	cache    domain.WeatherCache
	locks    domain.LockManager
	limiter  domain.RateLimiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() int64
}

// New creates a Worker.
func New(
	cfg Config,
	markets MarketLister,
	settler Settler,
	provider Provider,
	cache domain.WeatherCache,
	locks domain.LockManager,
	limiter domain.RateLimiter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		cfg:      cfg.withDefaults(),
		marketsv: markets,
		settler:  settler,
		provider: provider,
		cache:    cache,
		locks:    locks,
		limiter:  limiter,
		metrics:  m,
		logger:   logger.With(slog.String("component", "resolver")),
		now:      func() int64 { return time.Now().Unix() },
	}
}

// WithClock overrides the worker's time source. Tests use it to step
// through resolution and grace windows.
func (w *Worker) WithClock(now func() int64) *Worker {
	w.now = now
	return w
}

// Run scans at the configured interval until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "resolver: starting",
		slog.Duration("interval", w.cfg.Interval),
	)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// First scan immediately rather than waiting a full interval.
	w.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "resolver: stopping")
			return ctx.Err()
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan settles every open market whose resolution time has passed. Failures
// on one market never block the rest.
func (w *Worker) Scan(ctx context.Context) {
	now := w.now()
	for _, m := range w.marketsv.ListMarkets(ctx, domain.ListOpts{}) {
		if m.Status != domain.MarketOpen || m.ResolutionTime > now {
			continue
		}
		if err := w.settleOne(ctx, m); err != nil {
			if errors.Is(err, domain.ErrLockHeld) || errors.Is(err, errMeasurementUnavailable) {
				continue
			}
			w.logger.ErrorContext(ctx, "resolver: settle failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// errMeasurementUnavailable marks a market left for the next scan because no
// fresh observation could be obtained.
var errMeasurementUnavailable = errors.New("resolver: measurement unavailable")

func (w *Worker) settleOne(ctx context.Context, m domain.Market) error {
	unlock, err := w.locks.Acquire(ctx, fmt.Sprintf("resolve:%d", m.ID), w.cfg.LockTTL)
	if err != nil {
		return err
	}
	defer unlock()

	obs, err := w.observation(ctx, m.City)
	if err != nil {
		// Past the grace window, a market that cannot be measured is
		// voided so stakes become refundable.
		if w.now() >= m.ResolutionTime+int64(w.cfg.CancelAfter/time.Second) {
			w.logger.WarnContext(ctx, "resolver: cancelling unmeasurable market",
				slog.Uint64("market_id", m.ID),
				slog.String("city", m.City),
				slog.String("error", err.Error()),
			)
			if _, cancelErr := w.settler.CancelMarket(ctx, w.cfg.Resolver, m.ID); cancelErr != nil {
				return fmt.Errorf("resolver: cancel market %d: %w", m.ID, cancelErr)
			}
			return nil
		}
		w.logger.WarnContext(ctx, "resolver: observation unavailable, retrying next scan",
			slog.Uint64("market_id", m.ID),
			slog.String("city", m.City),
			slog.String("error", err.Error()),
		)
		return errMeasurementUnavailable
	}

	measured, err := weather.Measurement(obs, m.Condition)
	if err != nil {
		return fmt.Errorf("resolver: measurement market %d: %w", m.ID, err)
	}
	outcome := engine.OutcomeFromMeasurement(m.Operator, measured, m.Threshold)

	if _, err := w.settler.ResolveMarket(ctx, w.cfg.Resolver, m.ID, outcome); err != nil {
		// Another instance won the race between our scan and the lock.
		if errors.Is(err, domain.ErrAlreadyResolved) {
			return nil
		}
		return fmt.Errorf("resolver: resolve market %d: %w", m.ID, err)
	}

	w.logger.InfoContext(ctx, "resolver: market settled",
		slog.Uint64("market_id", m.ID),
		slog.String("city", m.City),
		slog.Int64("measured", measured),
		slog.Int64("threshold", m.Threshold),
		slog.Bool("outcome", outcome),
	)
	return nil
}

// observation returns a cached reading for the city, falling back to the
// provider under the shared rate limit.
func (w *Worker) observation(ctx context.Context, city string) (domain.Observation, error) {
	obs, err := w.cache.GetObservation(ctx, city)
	if err == nil {
		return obs, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		w.logger.WarnContext(ctx, "resolver: weather cache read failed",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
	}

	allowed, err := w.limiter.Allow(ctx, rateLimitKey, w.cfg.ProviderRequestsPerMinute, time.Minute)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("resolver: rate limit: %w", err)
	}
	if !allowed {
		return domain.Observation{}, fmt.Errorf("resolver: provider quota for %s: %w", city, domain.ErrRateLimited)
	}

	start := time.Now()
	obs, err = w.provider.CurrentObservation(ctx, city)
	w.metrics.WeatherRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		w.metrics.WeatherRequestErrors.Inc()
		return domain.Observation{}, fmt.Errorf("resolver: provider %s: %w", city, err)
	}

	if err := w.cache.SetObservation(ctx, obs); err != nil {
		w.logger.WarnContext(ctx, "resolver: weather cache write failed",
			slog.String("city", city),
			slog.String("error", err.Error()),
		)
	}
	return obs, nil
}
