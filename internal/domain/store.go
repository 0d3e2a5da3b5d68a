package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketRecord is the durable projection of one market: the public market
// state plus the engine's internal exit accounting, which must survive a
// restart for solvency bookkeeping to stay exact.
type MarketRecord struct {
	Market
	// YesDrain and NoDrain track value already paid to exiters out of
	// each pool; FeeReserve holds retained exit fees awaiting
	// redistribution to winners; FeesCollected is the platform's share
	// of the fee surplus, swept when the market reaches a terminal state.
	YesDrain      int64
	NoDrain       int64
	FeeReserve    int64
	FeesCollected int64
}

// MarketStore persists markets as a durable projection of the engine state.
type MarketStore interface {
	Upsert(ctx context.Context, rec MarketRecord) error
	GetByID(ctx context.Context, id uint64) (MarketRecord, error)
	// ListAll returns every market ordered by id, used to rehydrate the
	// engine at startup.
	ListAll(ctx context.Context) ([]MarketRecord, error)
	Count(ctx context.Context) (int64, error)
}

// PositionStore persists positions keyed by (market, wallet).
type PositionStore interface {
	Upsert(ctx context.Context, pos Position) error
	Get(ctx context.Context, marketID uint64, wallet common.Address) (Position, error)
	ListByMarket(ctx context.Context, marketID uint64) ([]Position, error)
	ListByWallet(ctx context.Context, wallet common.Address, opts ListOpts) ([]Position, error)
	ListAll(ctx context.Context) ([]Position, error)
}

// SettlementKind distinguishes the three payout paths.
type SettlementKind string

const (
	SettlementClaim  SettlementKind = "claim"
	SettlementExit   SettlementKind = "exit"
	SettlementRefund SettlementKind = "refund"
)

// SettlementRecord is one row of append-only settlement history: a claim,
// an early exit, or a cancellation refund.
type SettlementRecord struct {
	ID         string
	MarketID   uint64
	Wallet     common.Address
	Kind       SettlementKind
	Stake      int64
	Payout     int64
	FeePercent int64
	VoucherID  string
	CreatedAt  time.Time
}

// SettlementStore persists settlement history.
type SettlementStore interface {
	Insert(ctx context.Context, rec SettlementRecord) error
	ListByMarket(ctx context.Context, marketID uint64) ([]SettlementRecord, error)
	SumPayouts(ctx context.Context, marketID uint64) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
