package engine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// FeeTier buckets a fee percent for presentation.
type FeeTier string

const (
	FeeTierLow    FeeTier = "low"    // <= 3%
	FeeTierMedium FeeTier = "medium" // <= 5%
	FeeTierHigh   FeeTier = "high"   // > 5%
)

// FeeTierFor returns the presentation tier for a fee percent.
func FeeTierFor(feePercent int64) FeeTier {
	switch {
	case feePercent <= 3:
		return FeeTierLow
	case feePercent <= 5:
		return FeeTierMedium
	default:
		return FeeTierHigh
	}
}

// ExitQuote prices an early exit at the current time.
type ExitQuote struct {
	// ExitValue is the position's mark-to-pool value: the stake plus the
	// share of the rest of the escrow it would claim if resolution
	// happened right now. It is reduced when the resulting payout would
	// exceed what the market can fund without shorting other positions.
	ExitValue  int64
	FeePercent int64
	Tier       FeeTier
	// Payout is ExitValue after the fee: floor(ExitValue*(100-fee)/100).
	Payout int64
}

// ExitReceipt is the committed result of a successful ExitPosition.
type ExitReceipt struct {
	Quote       ExitQuote
	FeeRetained int64
	Market      domain.Market
	Position    domain.Position
}

// exitFeePercent is the configured fee curve: a linear integer ramp from
// the minimum fee at market creation to the maximum at resolution time,
// clamped outside the window. It is monotonic non-decreasing in elapsed
// time and stable for repeated calls at the same clock reading.
func (e *Engine) exitFeePercent(m domain.Market, now int64) int64 {
	window := m.ResolutionTime - m.CreatedAt
	elapsed := now - m.CreatedAt
	if window <= 0 || elapsed >= window {
		return e.cfg.MaxExitFeePercent
	}
	if elapsed < 0 {
		elapsed = 0
	}
	span := e.cfg.MaxExitFeePercent - e.cfg.MinExitFeePercent
	return e.cfg.MinExitFeePercent + mulDiv(span, elapsed, window)
}

// ExitInfo quotes an early exit without applying it. It is callable while
// the market is open and the participant holds an open, unclaimed position.
func (e *Engine) ExitInfo(marketID uint64, wallet common.Address) (ExitQuote, error) {
	ms := e.market(marketID)
	if ms == nil {
		return ExitQuote{}, domain.ErrMarketNotFound
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	pos, err := ms.exitablePosition(wallet)
	if err != nil {
		return ExitQuote{}, err
	}
	return ms.quoteExit(e, pos), nil
}

// ExitPosition unwinds an open position before resolution. The stake leaves
// its pool, the fee-reduced payout is owed to the participant, and the fee
// remainder moves into the market's fee reserve where it reduces the
// market's outstanding liability. The position becomes terminally exited;
// later exit or claim calls fail deterministically.
func (e *Engine) ExitPosition(marketID uint64, wallet common.Address) (ExitReceipt, error) {
	ms := e.market(marketID)
	if ms == nil {
		return ExitReceipt{}, domain.ErrMarketNotFound
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	pos, err := ms.exitablePosition(wallet)
	if err != nil {
		return ExitReceipt{}, err
	}
	quote := ms.quoteExit(e, pos)

	oppShare := quote.ExitValue - pos.Amount
	fee := quote.ExitValue - quote.Payout

	if pos.IsYes {
		ms.m.TotalYesPool -= pos.Amount
		ms.noDrain += oppShare
	} else {
		ms.m.TotalNoPool -= pos.Amount
		ms.yesDrain += oppShare
	}
	ms.feeReserve += fee

	pos.ExitedAmount = pos.Amount
	pos.Amount = 0
	pos.Exited = true

	return ExitReceipt{
		Quote:       quote,
		FeeRetained: fee,
		Market:      ms.m,
		Position:    *pos,
	}, nil
}

// exitablePosition validates that wallet holds a live position eligible for
// exit. Callers must hold ms.mu.
func (ms *marketState) exitablePosition(wallet common.Address) (*domain.Position, error) {
	if ms.m.Status != domain.MarketOpen {
		return nil, domain.ErrMarketNotOpen
	}
	pos, ok := ms.positions[wallet]
	if !ok || !pos.Exists() {
		return nil, domain.ErrNoPosition
	}
	if pos.Exited {
		return nil, domain.ErrAlreadyExited
	}
	if pos.Claimed {
		return nil, domain.ErrAlreadyClaimed
	}
	return pos, nil
}

// quoteExit prices an exit for pos at the engine's current clock. The raw
// quote marks the position to the escrow, then the payout is capped at the
// stake plus the market's fee surplus: anything beyond that would be paid
// out of principal still owed to other positions. Callers must hold ms.mu.
func (ms *marketState) quoteExit(e *Engine, pos *domain.Position) ExitQuote {
	own := ms.m.TotalYesPool
	if !pos.IsYes {
		own = ms.m.TotalNoPool
	}
	opposing := ms.escrow() - own

	exitValue := pos.Amount
	if opposing > 0 && own > 0 {
		exitValue += mulDiv(pos.Amount, opposing, own)
	}

	fee := e.exitFeePercent(ms.m, e.now())
	payout := mulDiv(exitValue, 100-fee, 100)

	if budget := pos.Amount + ms.feeSurplus(); payout > budget {
		// Keep the quote triple coherent under the cap: recompute the
		// pre-fee value from the capped payout so ExitValue, FeePercent
		// and Payout still satisfy the published fee formula.
		exitValue = mulDiv(budget, 100, 100-fee)
		payout = mulDiv(exitValue, 100-fee, 100)
	}

	return ExitQuote{
		ExitValue:  exitValue,
		FeePercent: fee,
		Tier:       FeeTierFor(fee),
		Payout:     payout,
	}
}
