package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
	"github.com/aniruddha1295/SkyFall-Monad/internal/notify"
)

// SettlementService owns the terminal half of a market's life: resolution,
// cancellation, claims, and early exits. Resolution and cancellation are
// gated on the configured resolver identity; payouts are turned into signed
// vouchers for the external settlement primitive.
type SettlementService struct {
	engine      *engine.Engine
	markets     domain.MarketStore
	positions   domain.PositionStore
	settlements domain.SettlementStore
	authorizer  domain.PayoutAuthorizer
	archiver    domain.SettlementArchiver // nil disables archival
	bus         domain.SignalBus
	audit       domain.AuditStore
	notifier    *notify.Notifier
	metrics     *metrics.Metrics
	resolver    common.Address
	logger      *slog.Logger
}

// NewSettlementService creates a SettlementService. archiver may be nil when
// blob archival is disabled.
func NewSettlementService(
	eng *engine.Engine,
	markets domain.MarketStore,
	positions domain.PositionStore,
	settlements domain.SettlementStore,
	authorizer domain.PayoutAuthorizer,
	archiver domain.SettlementArchiver,
	bus domain.SignalBus,
	audit domain.AuditStore,
	notifier *notify.Notifier,
	m *metrics.Metrics,
	resolver common.Address,
	logger *slog.Logger,
) *SettlementService {
	return &SettlementService{
		engine:      eng,
		markets:     markets,
		positions:   positions,
		settlements: settlements,
		authorizer:  authorizer,
		archiver:    archiver,
		bus:         bus,
		audit:       audit,
		notifier:    notifier,
		metrics:     m,
		resolver:    resolver,
		logger:      logger,
	}
}

// SettlementResult pairs an engine payout with the voucher that authorizes
// it.
type SettlementResult struct {
	Payout  int64
	Refund  bool
	Voucher domain.PayoutVoucher
	Market  domain.Market
}

// ResolveMarket records the final outcome of a market. Only the configured
// resolver identity may call it.
func (s *SettlementService) ResolveMarket(ctx context.Context, caller common.Address, marketID uint64, outcome bool) (domain.Market, error) {
	if caller != s.resolver {
		return domain.Market{}, fmt.Errorf("settlement_service: resolve market %d: %w", marketID, domain.ErrUnauthorized)
	}

	m, err := s.engine.ResolveMarket(marketID, outcome)
	if err != nil {
		return domain.Market{}, fmt.Errorf("settlement_service: resolve market %d: %w", marketID, err)
	}

	persistMarket(ctx, s.logger, s.markets, s.engine, marketID)

	publish(ctx, s.logger, s.bus, domain.ChannelMarkets, domain.MarketResolvedEvent{
		Event:     domain.EventMarketResolved,
		MarketID:  marketID,
		Outcome:   outcome,
		TotalPool: m.TotalYesPool + m.TotalNoPool,
	})
	auditLog(ctx, s.logger, s.audit, domain.EventMarketResolved, map[string]any{
		"market_id": marketID,
		"outcome":   outcome,
		"caller":    caller.Hex(),
	})

	s.metrics.MarketsResolved.Inc()
	s.metrics.ActiveMarkets.Set(float64(s.engine.ActiveMarketCount()))

	s.notify(ctx, domain.EventMarketResolved,
		fmt.Sprintf("Market %d resolved", marketID),
		fmt.Sprintf("%s settled %s (yes pool %d, no pool %d)",
			m.Question(), outcomeWord(outcome), m.TotalYesPool, m.TotalNoPool),
	)
	s.archive(ctx, m)

	s.logger.InfoContext(ctx, "settlement_service: market resolved",
		slog.Uint64("market_id", marketID),
		slog.Bool("outcome", outcome),
	)
	return m, nil
}

// CancelMarket voids a market whose outcome cannot be determined. Every
// position becomes refundable at exactly its stake. Only the configured
// resolver identity may call it.
func (s *SettlementService) CancelMarket(ctx context.Context, caller common.Address, marketID uint64) (domain.Market, error) {
	if caller != s.resolver {
		return domain.Market{}, fmt.Errorf("settlement_service: cancel market %d: %w", marketID, domain.ErrUnauthorized)
	}

	m, err := s.engine.CancelMarket(marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("settlement_service: cancel market %d: %w", marketID, err)
	}

	persistMarket(ctx, s.logger, s.markets, s.engine, marketID)

	publish(ctx, s.logger, s.bus, domain.ChannelMarkets, domain.MarketResolvedEvent{
		Event:     domain.EventMarketCancelled,
		MarketID:  marketID,
		TotalPool: m.TotalYesPool + m.TotalNoPool,
	})
	auditLog(ctx, s.logger, s.audit, domain.EventMarketCancelled, map[string]any{
		"market_id": marketID,
		"caller":    caller.Hex(),
	})

	s.metrics.MarketsCancelled.Inc()
	s.metrics.ActiveMarkets.Set(float64(s.engine.ActiveMarketCount()))

	s.notify(ctx, domain.EventMarketCancelled,
		fmt.Sprintf("Market %d cancelled", marketID),
		fmt.Sprintf("%s was voided; stakes are refundable", m.Question()),
	)
	s.archive(ctx, m)

	s.logger.InfoContext(ctx, "settlement_service: market cancelled",
		slog.Uint64("market_id", marketID),
	)
	return m, nil
}

// ClaimWinnings pays a winning position its parimutuel share, or refunds the
// stake on a cancelled market, and issues a voucher for the amount.
func (s *SettlementService) ClaimWinnings(ctx context.Context, marketID uint64, wallet common.Address) (SettlementResult, error) {
	receipt, err := s.engine.ClaimWinnings(marketID, wallet)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("settlement_service: claim market %d: %w", marketID, err)
	}

	kind := domain.SettlementClaim
	reason := "claim"
	if receipt.Refund {
		kind = domain.SettlementRefund
		reason = "refund"
	}

	voucher, err := s.authorizer.Authorize(ctx, marketID, wallet, receipt.Payout, reason)
	if err != nil {
		// The engine has already marked the position claimed, which keeps
		// a retry from paying twice. Settlement needs operator attention.
		s.logger.ErrorContext(ctx, "settlement_service: voucher authorization failed",
			slog.Uint64("market_id", marketID),
			slog.String("wallet", wallet.Hex()),
			slog.String("error", err.Error()),
		)
		return SettlementResult{}, fmt.Errorf("settlement_service: authorize claim market %d: %w", marketID, err)
	}

	s.recordSettlement(ctx, domain.SettlementRecord{
		ID:        uuid.New().String(),
		MarketID:  marketID,
		Wallet:    wallet,
		Kind:      kind,
		Stake:     receipt.Position.Amount,
		Payout:    receipt.Payout,
		VoucherID: voucher.ID,
		CreatedAt: time.Now().UTC(),
	})
	persistMarket(ctx, s.logger, s.markets, s.engine, marketID)
	persistPosition(ctx, s.logger, s.positions, receipt.Position)

	publish(ctx, s.logger, s.bus, domain.ChannelSettlements, domain.WinningsClaimedEvent{
		Event:    domain.EventWinningsClaimed,
		MarketID: marketID,
		Bettor:   wallet,
		Payout:   receipt.Payout,
	})
	auditLog(ctx, s.logger, s.audit, domain.EventWinningsClaimed, map[string]any{
		"market_id": marketID,
		"bettor":    wallet.Hex(),
		"payout":    receipt.Payout,
		"refund":    receipt.Refund,
	})

	if receipt.Refund {
		s.metrics.RefundsIssued.Inc()
	} else {
		s.metrics.ClaimsProcessed.Inc()
	}
	s.metrics.PayoutTotal.Add(float64(receipt.Payout))

	s.logger.InfoContext(ctx, "settlement_service: winnings claimed",
		slog.Uint64("market_id", marketID),
		slog.String("bettor", wallet.Hex()),
		slog.Int64("payout", receipt.Payout),
		slog.Bool("refund", receipt.Refund),
	)
	return SettlementResult{
		Payout:  receipt.Payout,
		Refund:  receipt.Refund,
		Voucher: voucher,
		Market:  receipt.Market,
	}, nil
}

// ExitPosition unwinds a position before resolution at its fee-discounted
// mark-to-pool value and issues a voucher for the proceeds.
func (s *SettlementService) ExitPosition(ctx context.Context, marketID uint64, wallet common.Address) (SettlementResult, engine.ExitQuote, error) {
	receipt, err := s.engine.ExitPosition(marketID, wallet)
	if err != nil {
		return SettlementResult{}, engine.ExitQuote{}, fmt.Errorf("settlement_service: exit market %d: %w", marketID, err)
	}

	voucher, err := s.authorizer.Authorize(ctx, marketID, wallet, receipt.Quote.Payout, "exit")
	if err != nil {
		s.logger.ErrorContext(ctx, "settlement_service: voucher authorization failed",
			slog.Uint64("market_id", marketID),
			slog.String("wallet", wallet.Hex()),
			slog.String("error", err.Error()),
		)
		return SettlementResult{}, engine.ExitQuote{}, fmt.Errorf("settlement_service: authorize exit market %d: %w", marketID, err)
	}

	s.recordSettlement(ctx, domain.SettlementRecord{
		ID:         uuid.New().String(),
		MarketID:   marketID,
		Wallet:     wallet,
		Kind:       domain.SettlementExit,
		Stake:      receipt.Position.ExitedAmount,
		Payout:     receipt.Quote.Payout,
		FeePercent: receipt.Quote.FeePercent,
		VoucherID:  voucher.ID,
		CreatedAt:  time.Now().UTC(),
	})
	persistMarket(ctx, s.logger, s.markets, s.engine, marketID)
	persistPosition(ctx, s.logger, s.positions, receipt.Position)

	publish(ctx, s.logger, s.bus, domain.ChannelSettlements, domain.PositionExitedEvent{
		Event:          domain.EventPositionExited,
		MarketID:       marketID,
		Bettor:         wallet,
		OriginalAmount: receipt.Position.ExitedAmount,
		ExitPayout:     receipt.Quote.Payout,
		FeePercent:     receipt.Quote.FeePercent,
	})
	auditLog(ctx, s.logger, s.audit, domain.EventPositionExited, map[string]any{
		"market_id":   marketID,
		"bettor":      wallet.Hex(),
		"exit_payout": receipt.Quote.Payout,
		"fee_percent": receipt.Quote.FeePercent,
	})

	s.metrics.ExitsProcessed.Inc()
	s.metrics.PayoutTotal.Add(float64(receipt.Quote.Payout))
	s.metrics.ExitFeeTotal.Add(float64(receipt.FeeRetained))

	s.logger.InfoContext(ctx, "settlement_service: position exited",
		slog.Uint64("market_id", marketID),
		slog.String("bettor", wallet.Hex()),
		slog.Int64("payout", receipt.Quote.Payout),
		slog.Int64("fee_percent", receipt.Quote.FeePercent),
	)
	return SettlementResult{
		Payout:  receipt.Quote.Payout,
		Voucher: voucher,
		Market:  receipt.Market,
	}, receipt.Quote, nil
}

// ExitInfo quotes an exit without executing it.
func (s *SettlementService) ExitInfo(ctx context.Context, marketID uint64, wallet common.Address) (engine.ExitQuote, error) {
	quote, err := s.engine.ExitInfo(marketID, wallet)
	if err != nil {
		return engine.ExitQuote{}, fmt.Errorf("settlement_service: exit info market %d: %w", marketID, err)
	}
	return quote, nil
}

// SettlementHistory returns the settlement rows of one market in insertion
// order.
func (s *SettlementService) SettlementHistory(ctx context.Context, marketID uint64) ([]domain.SettlementRecord, error) {
	records, err := s.settlements.ListByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("settlement_service: history market %d: %w", marketID, err)
	}
	return records, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (s *SettlementService) recordSettlement(ctx context.Context, rec domain.SettlementRecord) {
	if err := s.settlements.Insert(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "settlement_service: record settlement failed",
			slog.String("settlement_id", rec.ID),
			slog.Uint64("market_id", rec.MarketID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *SettlementService) notify(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "settlement_service: notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// archive snapshots a terminal market into blob storage.
func (s *SettlementService) archive(ctx context.Context, m domain.Market) {
	if s.archiver == nil {
		return
	}

	positions, err := s.engine.ListPositions(m.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "settlement_service: archive list positions failed",
			slog.Uint64("market_id", m.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	records, err := s.settlements.ListByMarket(ctx, m.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "settlement_service: archive list settlements failed",
			slog.Uint64("market_id", m.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	key, err := s.archiver.Archive(ctx, domain.SettlementSnapshot{
		Market:    m,
		Positions: positions,
		Records:   records,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "settlement_service: archive failed",
			slog.Uint64("market_id", m.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.InfoContext(ctx, "settlement_service: snapshot archived",
		slog.Uint64("market_id", m.ID),
		slog.String("key", key),
	)
}

func outcomeWord(outcome bool) string {
	if outcome {
		return "YES"
	}
	return "NO"
}
