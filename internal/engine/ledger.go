package engine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// BetReceipt is the committed result of a successful PlaceBet.
type BetReceipt struct {
	Market   domain.Market
	Position domain.Position
}

// PlaceBet stakes amount on one side of an open market. A participant may
// hold at most one position per market; re-staking is rejected, never
// merged. The position insert and the pool update happen in the same
// critical section, keeping pools equal to the sum of open positions.
func (e *Engine) PlaceBet(marketID uint64, wallet common.Address, isYes bool, amount int64) (BetReceipt, error) {
	ms := e.market(marketID)
	if ms == nil {
		return BetReceipt{}, domain.ErrMarketNotFound
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.m.Status != domain.MarketOpen || e.now() >= ms.m.ResolutionTime {
		return BetReceipt{}, domain.ErrMarketNotOpen
	}
	if amount <= 0 {
		return BetReceipt{}, domain.ErrInvalidAmount
	}
	if existing, ok := ms.positions[wallet]; ok && existing.Exists() {
		return BetReceipt{}, domain.ErrDuplicatePosition
	}

	pos := &domain.Position{
		MarketID: marketID,
		Wallet:   wallet,
		Amount:   amount,
		IsYes:    isYes,
		PlacedAt: e.now(),
	}
	ms.positions[wallet] = pos
	if isYes {
		ms.m.TotalYesPool += amount
	} else {
		ms.m.TotalNoPool += amount
	}

	return BetReceipt{Market: ms.m, Position: *pos}, nil
}

// GetUserBet returns the participant's position in a market. When the
// participant never staked, the zero-value position is returned: a zero
// amount is the canonical "no position" sentinel.
func (e *Engine) GetUserBet(marketID uint64, wallet common.Address) (domain.Position, error) {
	ms := e.market(marketID)
	if ms == nil {
		return domain.Position{}, domain.ErrMarketNotFound
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	if pos, ok := ms.positions[wallet]; ok {
		return *pos, nil
	}
	return domain.Position{MarketID: marketID, Wallet: wallet}, nil
}
