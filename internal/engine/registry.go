package engine

import (
	"iter"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// CreateMarket validates the proposition, assigns the next sequential id,
// and registers a new open market with empty pools.
func (e *Engine) CreateMarket(city string, cond domain.WeatherCondition, op domain.Operator, threshold, resolutionTime int64, creator common.Address) (domain.Market, error) {
	if strings.TrimSpace(city) == "" {
		return domain.Market{}, domain.ErrInvalidCity
	}
	if !cond.Valid() {
		return domain.Market{}, domain.ErrInvalidCondition
	}
	if !op.Valid() {
		return domain.Market{}, domain.ErrInvalidOperator
	}
	if threshold < 0 {
		return domain.Market{}, domain.ErrInvalidThreshold
	}
	now := e.now()
	if resolutionTime <= now {
		return domain.Market{}, domain.ErrResolutionInPast
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	m := domain.Market{
		ID:             uint64(len(e.markets)),
		City:           strings.TrimSpace(city),
		Condition:      cond,
		Operator:       op,
		Threshold:      threshold,
		ResolutionTime: resolutionTime,
		CreatedAt:      now,
		Status:         domain.MarketOpen,
		Creator:        creator,
	}
	e.markets = append(e.markets, &marketState{
		m:         m,
		positions: make(map[common.Address]*domain.Position),
	})
	return m, nil
}

// GetMarket returns a snapshot of the market with the given id.
func (e *Engine) GetMarket(id uint64) (domain.Market, error) {
	ms := e.market(id)
	if ms == nil {
		return domain.Market{}, domain.ErrMarketNotFound
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.m, nil
}

// ListMarkets returns a lazy, restartable sequence over all markets in id
// order. Each yielded value is a consistent snapshot of that market; the
// sequence as a whole is not a point-in-time snapshot across markets.
func (e *Engine) ListMarkets() iter.Seq[domain.Market] {
	return func(yield func(domain.Market) bool) {
		e.mu.RLock()
		n := uint64(len(e.markets))
		e.mu.RUnlock()

		for id := uint64(0); id < n; id++ {
			m, err := e.GetMarket(id)
			if err != nil {
				return
			}
			if !yield(m) {
				return
			}
		}
	}
}

// MarketCount returns the total number of markets ever created.
func (e *Engine) MarketCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return uint64(len(e.markets))
}

// ActiveMarketCount counts markets that are still open. It is computed on
// demand so it never reports stale counts after a resolution.
func (e *Engine) ActiveMarketCount() uint64 {
	var n uint64
	for m := range e.ListMarkets() {
		if m.Status == domain.MarketOpen {
			n++
		}
	}
	return n
}
