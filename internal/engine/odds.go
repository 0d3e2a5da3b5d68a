package engine

import "github.com/aniruddha1295/SkyFall-Monad/internal/domain"

// Odds returns display odds for a market as two integer percentages that
// always sum to exactly 100. With both pools empty there is no information
// and (50, 50) is returned by convention.
func (e *Engine) Odds(marketID uint64) (yesPercent, noPercent int64, err error) {
	ms := e.market(marketID)
	if ms == nil {
		return 0, 0, domain.ErrMarketNotFound
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	yesPercent, noPercent = oddsFromPools(ms.m.TotalYesPool, ms.m.TotalNoPool)
	return yesPercent, noPercent, nil
}

// oddsFromPools is the pure odds function over a pool snapshot. The no side
// is derived as the complement, never computed independently, so rounding
// cannot make the pair sum to anything but 100.
func oddsFromPools(yesPool, noPool int64) (int64, int64) {
	total := yesPool + noPool
	if total == 0 {
		return 50, 50
	}
	yes := roundedPercent(yesPool, total)
	return yes, 100 - yes
}

// PotentialPayout answers "if this stake were added to the chosen side and
// that side ultimately won, what would the stake alone be worth". It never
// returns less than the stake: with nothing on the other side there is
// nothing to redistribute and the payout degenerates to the stake itself.
func (e *Engine) PotentialPayout(marketID uint64, isYes bool, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	ms := e.market(marketID)
	if ms == nil {
		return 0, domain.ErrMarketNotFound
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	own := ms.m.TotalYesPool
	if !isYes {
		own = ms.m.TotalNoPool
	}
	opposing := ms.escrow() - own
	if opposing <= 0 {
		return amount, nil
	}
	return amount + mulDiv(amount, opposing, own+amount), nil
}
