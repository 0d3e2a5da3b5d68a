package engine

import "github.com/aniruddha1295/SkyFall-Monad/internal/domain"

// OutcomeFromMeasurement applies a market's threshold rule to a measured
// value at the same ×100 fixed-point scale. Equality satisfies neither
// operator, keeping the predicate total and unambiguous.
func OutcomeFromMeasurement(op domain.Operator, measured, threshold int64) bool {
	switch op {
	case domain.OperatorAbove:
		return measured > threshold
	case domain.OperatorBelow:
		return measured < threshold
	default:
		return false
	}
}

// ResolveMarket sets the terminal outcome of an open market. It is a single
// atomic transition and never re-validates the measurement; trusting the
// outcome is the caller's responsibility (the resolver authorization gate
// lives in the service layer).
func (e *Engine) ResolveMarket(marketID uint64, outcome bool) (domain.Market, error) {
	ms := e.market(marketID)
	if ms == nil {
		return domain.Market{}, domain.ErrMarketNotFound
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.m.Status != domain.MarketOpen {
		return domain.Market{}, domain.ErrAlreadyResolved
	}
	if e.now() < ms.m.ResolutionTime {
		return domain.Market{}, domain.ErrTooEarly
	}

	ms.m.Status = domain.MarketResolved
	ms.m.Outcome = outcome
	ms.sweepPlatformFee(mulDiv(ms.feeSurplus(), e.cfg.PlatformFeePercent, 100))
	return ms.m, nil
}

// sweepPlatformFee moves cut out of the fee reserve into feesCollected.
// The cut must not exceed the current fee surplus so the reserve keeps
// covering accrued exit drains. Callers must hold ms.mu.
func (ms *marketState) sweepPlatformFee(cut int64) {
	if cut <= 0 {
		return
	}
	ms.feeReserve -= cut
	ms.feesCollected += cut
}

// CancelMarket administratively terminates a market that cannot be
// resolved, for example when measurement data stays unavailable. Every open
// position becomes refund-eligible for exactly its stake through the claim
// path; the whole fee surplus goes to the platform since there are no
// winners to redistribute it to. Cancellation is allowed before the
// resolution time.
func (e *Engine) CancelMarket(marketID uint64) (domain.Market, error) {
	ms := e.market(marketID)
	if ms == nil {
		return domain.Market{}, domain.ErrMarketNotFound
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.m.Status != domain.MarketOpen {
		return domain.Market{}, domain.ErrAlreadyResolved
	}

	ms.m.Status = domain.MarketCancelled
	ms.sweepPlatformFee(ms.feeSurplus())
	return ms.m, nil
}
