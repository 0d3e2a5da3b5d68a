// Package engine implements the market settlement and position-accounting
// core: pooled parimutuel stakes, odds and payout mathematics, early exit
// with a time-based fee, and oracle-driven resolution and claims.
//
// All state lives in memory. Every mutating operation validates its
// preconditions and applies its mutations under the owning market's lock as
// one indivisible step; no partial mutation is observable. Markets are
// independent and may be mutated concurrently; operations on the same
// market are serialized. The engine performs no I/O of its own.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// Config holds the tunable parameters of the engine.
type Config struct {
	// MinExitFeePercent is charged on an exit immediately after market
	// creation; MaxExitFeePercent is the cap reached at resolution time.
	MinExitFeePercent int64
	MaxExitFeePercent int64

	// PlatformFeePercent is the share of surplus exit fees swept to the
	// platform when a market reaches a terminal state. Zero means winners
	// keep the whole surplus.
	PlatformFeePercent int64
}

const (
	defaultMinExitFee = 2
	defaultMaxExitFee = 7
)

func (c Config) withDefaults() Config {
	if c.MinExitFeePercent <= 0 {
		c.MinExitFeePercent = defaultMinExitFee
	}
	if c.MaxExitFeePercent <= 0 {
		c.MaxExitFeePercent = defaultMaxExitFee
	}
	if c.MaxExitFeePercent > 99 {
		c.MaxExitFeePercent = 99
	}
	if c.MinExitFeePercent > c.MaxExitFeePercent {
		c.MinExitFeePercent = c.MaxExitFeePercent
	}
	if c.PlatformFeePercent < 0 {
		c.PlatformFeePercent = 0
	}
	if c.PlatformFeePercent > 100 {
		c.PlatformFeePercent = 100
	}
	return c
}

// marketState is one market plus its positions and exit accounting,
// guarded by its own lock.
type marketState struct {
	mu sync.RWMutex

	m         domain.Market
	positions map[common.Address]*domain.Position

	// yesDrain / noDrain track value already paid to exiters of the
	// opposite side out of each pool; feeReserve accumulates retained
	// exit fees. Exit payouts are capped so that at all times
	// feeReserve >= yesDrain+noDrain, which keeps escrow() at or above
	// the sum of live stakes. feesCollected is the platform's cut of the
	// fee surplus, swept out of feeReserve when the market closes.
	yesDrain      int64
	noDrain       int64
	feeReserve    int64
	feesCollected int64
}

// Engine is the shared settlement state machine over all markets.
type Engine struct {
	cfg Config
	now func() int64

	mu      sync.RWMutex
	markets []*marketState
}

// Option customizes Engine construction.
type Option func(*Engine)

// WithClock overrides the engine clock (unix seconds). Used in tests.
func WithClock(now func() int64) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an empty Engine.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg.withDefaults(),
		now: func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// market returns the state for id, or nil when the id was never assigned.
func (e *Engine) market(id uint64) *marketState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if id >= uint64(len(e.markets)) {
		return nil
	}
	return e.markets[id]
}

// escrow returns the total value the market still holds for its live
// positions: both pools plus retained fees, minus everything exits have
// already paid out. Callers must hold ms.mu.
func (ms *marketState) escrow() int64 {
	return ms.m.TotalYesPool + ms.m.TotalNoPool + ms.feeReserve - ms.yesDrain - ms.noDrain
}

// feeSurplus is the part of the fee reserve not needed to cover exit
// drains; it is the only value an exit or a platform sweep may consume
// beyond a position's own stake. Callers must hold ms.mu.
func (ms *marketState) feeSurplus() int64 {
	return ms.feeReserve - ms.yesDrain - ms.noDrain
}

// SnapshotMarket returns the durable projection of one market, including
// the exit accounting needed to rebuild the engine after a restart.
func (e *Engine) SnapshotMarket(id uint64) (domain.MarketRecord, error) {
	ms := e.market(id)
	if ms == nil {
		return domain.MarketRecord{}, domain.ErrMarketNotFound
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return domain.MarketRecord{
		Market:        ms.m,
		YesDrain:      ms.yesDrain,
		NoDrain:       ms.noDrain,
		FeeReserve:    ms.feeReserve,
		FeesCollected: ms.feesCollected,
	}, nil
}

// ListPositions returns every position record of a market, including
// exited and claimed ones, ordered arbitrarily.
func (e *Engine) ListPositions(id uint64) ([]domain.Position, error) {
	ms := e.market(id)
	if ms == nil {
		return nil, domain.ErrMarketNotFound
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]domain.Position, 0, len(ms.positions))
	for _, p := range ms.positions {
		out = append(out, *p)
	}
	return out, nil
}

// Restore rebuilds the engine from persisted projections. Records must be
// dense and ordered by id starting at 0; positions must reference restored
// markets. Restore must run before the engine serves traffic.
func (e *Engine) Restore(records []domain.MarketRecord, positions []domain.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.markets) != 0 {
		return fmt.Errorf("engine: restore into non-empty engine")
	}

	markets := make([]*marketState, len(records))
	for i, rec := range records {
		if rec.ID != uint64(i) {
			return fmt.Errorf("engine: restore: market ids not dense, want %d got %d", i, rec.ID)
		}
		markets[i] = &marketState{
			m:             rec.Market,
			positions:     make(map[common.Address]*domain.Position),
			yesDrain:      rec.YesDrain,
			noDrain:       rec.NoDrain,
			feeReserve:    rec.FeeReserve,
			feesCollected: rec.FeesCollected,
		}
	}
	for _, pos := range positions {
		if pos.MarketID >= uint64(len(markets)) {
			return fmt.Errorf("engine: restore: position references unknown market %d", pos.MarketID)
		}
		p := pos
		markets[pos.MarketID].positions[pos.Wallet] = &p
	}
	e.markets = markets
	return nil
}
