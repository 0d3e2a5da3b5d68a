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

// BetService handles stake placement and position queries.
type BetService struct {
	engine    *engine.Engine
	markets   domain.MarketStore
	positions domain.PositionStore
	bus       domain.SignalBus
	audit     domain.AuditStore
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewBetService creates a BetService with all required dependencies.
func NewBetService(
	eng *engine.Engine,
	markets domain.MarketStore,
	positions domain.PositionStore,
	bus domain.SignalBus,
	audit domain.AuditStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		engine:    eng,
		markets:   markets,
		positions: positions,
		bus:       bus,
		audit:     audit,
		metrics:   m,
		logger:    logger,
	}
}

// PlaceBet stakes amount on one side of an open market and writes the
// resulting position and pool totals through to the projection.
func (s *BetService) PlaceBet(ctx context.Context, marketID uint64, wallet common.Address, isYes bool, amount int64) (engine.BetReceipt, error) {
	receipt, err := s.engine.PlaceBet(marketID, wallet, isYes, amount)
	if err != nil {
		return engine.BetReceipt{}, fmt.Errorf("bet_service: place bet market %d: %w", marketID, err)
	}

	persistMarket(ctx, s.logger, s.markets, s.engine, marketID)
	persistPosition(ctx, s.logger, s.positions, receipt.Position)

	publish(ctx, s.logger, s.bus, domain.ChannelBets, domain.BetPlacedEvent{
		Event:    domain.EventBetPlaced,
		MarketID: marketID,
		Bettor:   wallet,
		IsYes:    isYes,
		Amount:   amount,
	})
	auditLog(ctx, s.logger, s.audit, domain.EventBetPlaced, map[string]any{
		"market_id": marketID,
		"bettor":    wallet.Hex(),
		"is_yes":    isYes,
		"amount":    amount,
	})

	s.metrics.BetsPlaced.Inc()
	s.metrics.BetVolume.Add(float64(amount))

	s.logger.InfoContext(ctx, "bet_service: bet placed",
		slog.Uint64("market_id", marketID),
		slog.String("bettor", wallet.Hex()),
		slog.Bool("is_yes", isYes),
		slog.Int64("amount", amount),
	)
	return receipt, nil
}

// GetUserBet returns a wallet's position in one market. A wallet that never
// bet gets a zero-amount sentinel, not an error.
func (s *BetService) GetUserBet(ctx context.Context, marketID uint64, wallet common.Address) (domain.Position, error) {
	pos, err := s.engine.GetUserBet(marketID, wallet)
	if err != nil {
		return domain.Position{}, fmt.Errorf("bet_service: get user bet market %d: %w", marketID, err)
	}
	return pos, nil
}

// ListPositions returns every position in one market.
func (s *BetService) ListPositions(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	positions, err := s.engine.ListPositions(marketID)
	if err != nil {
		return nil, fmt.Errorf("bet_service: list positions market %d: %w", marketID, err)
	}
	return positions, nil
}

// ListWalletPositions returns a wallet's positions across markets from the
// projection, newest first.
func (s *BetService) ListWalletPositions(ctx context.Context, wallet common.Address, opts domain.ListOpts) ([]domain.Position, error) {
	positions, err := s.positions.ListByWallet(ctx, wallet, opts)
	if err != nil {
		return nil, fmt.Errorf("bet_service: list wallet positions %s: %w", wallet.Hex(), err)
	}
	return positions, nil
}
