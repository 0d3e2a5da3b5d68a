// Package service wires the settlement engine to its durable projection,
// event bus, audit log, and notifiers. The engine is authoritative for all
// balances; services write through to Postgres so state survives restarts
// and publish lifecycle events for off-engine consumers.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
)

// MarketService handles market creation and read-side queries.
type MarketService struct {
	engine  *engine.Engine
	markets domain.MarketStore
	bus     domain.SignalBus
	audit   domain.AuditStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	eng *engine.Engine,
	markets domain.MarketStore,
	bus domain.SignalBus,
	audit domain.AuditStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		engine:  eng,
		markets: markets,
		bus:     bus,
		audit:   audit,
		metrics: m,
		logger:  logger,
	}
}

// CreateMarket validates and registers a new market, persists its projection
// row, and announces it on the markets channel.
func (s *MarketService) CreateMarket(
	ctx context.Context,
	city string,
	cond domain.WeatherCondition,
	op domain.Operator,
	threshold, resolutionTime int64,
	creator common.Address,
) (domain.Market, error) {
	m, err := s.engine.CreateMarket(city, cond, op, threshold, resolutionTime, creator)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: create: %w", err)
	}

	persistMarket(ctx, s.logger, s.markets, s.engine, m.ID)

	publish(ctx, s.logger, s.bus, domain.ChannelMarkets, domain.MarketCreatedEvent{
		Event:          domain.EventMarketCreated,
		MarketID:       m.ID,
		City:           m.City,
		Condition:      m.Condition.String(),
		Threshold:      m.Threshold,
		ResolutionTime: m.ResolutionTime,
		Creator:        m.Creator,
	})
	auditLog(ctx, s.logger, s.audit, domain.EventMarketCreated, map[string]any{
		"market_id": m.ID,
		"city":      m.City,
		"condition": m.Condition.String(),
		"creator":   m.Creator.Hex(),
	})

	s.metrics.MarketsCreated.Inc()
	s.metrics.ActiveMarkets.Set(float64(s.engine.ActiveMarketCount()))

	s.logger.InfoContext(ctx, "market_service: market created",
		slog.Uint64("market_id", m.ID),
		slog.String("city", m.City),
		slog.String("condition", m.Condition.String()),
		slog.Int64("threshold", m.Threshold),
	)
	return m, nil
}

// GetMarket returns one market by ID.
func (s *MarketService) GetMarket(ctx context.Context, id uint64) (domain.Market, error) {
	m, err := s.engine.GetMarket(id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market_service: get %d: %w", id, err)
	}
	return m, nil
}

// ListMarkets returns markets in creation order with pagination.
func (s *MarketService) ListMarkets(ctx context.Context, opts domain.ListOpts) []domain.Market {
	var out []domain.Market
	skipped := 0
	for m := range s.engine.ListMarkets() {
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, m)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out
}

// Odds returns the implied probability of each side in whole percent.
func (s *MarketService) Odds(ctx context.Context, id uint64) (yesPercent, noPercent int64, err error) {
	yesPercent, noPercent, err = s.engine.Odds(id)
	if err != nil {
		return 0, 0, fmt.Errorf("market_service: odds %d: %w", id, err)
	}
	return yesPercent, noPercent, nil
}

// PotentialPayout quotes the payout a hypothetical stake would earn if its
// side won against the current pools.
func (s *MarketService) PotentialPayout(ctx context.Context, id uint64, isYes bool, amount int64) (int64, error) {
	payout, err := s.engine.PotentialPayout(id, isYes, amount)
	if err != nil {
		return 0, fmt.Errorf("market_service: potential payout %d: %w", id, err)
	}
	return payout, nil
}

// MarketCount returns the number of markets ever created.
func (s *MarketService) MarketCount(ctx context.Context) uint64 {
	return s.engine.MarketCount()
}

// ActiveMarketCount returns the number of markets currently open.
func (s *MarketService) ActiveMarketCount(ctx context.Context) uint64 {
	return s.engine.ActiveMarketCount()
}
