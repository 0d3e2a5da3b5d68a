package engine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// ClaimReceipt is the committed result of a successful ClaimWinnings.
type ClaimReceipt struct {
	Payout int64
	// Refund marks a cancelled-market payout of exactly the stake.
	Refund   bool
	Market   domain.Market
	Position domain.Position
}

// ClaimWinnings pays a winning position its parimutuel share after
// resolution:
//
//	payout = amount + floor(amount * losingPool / winningPool)
//
// where losingPool is everything the escrow holds beyond the winning pool:
// the losing side's stakes plus surplus exit fees, net of exit drains and
// the platform sweep. Winner payouts therefore sum to exactly the remaining
// escrow, modulo at most one unit of floor dust per claimant.
//
// On a cancelled market every non-exited position is refunded exactly its
// stake through the same call. Losing positions are never payable; claiming
// a loss is an explicit rejection, not a silent zero payment.
func (e *Engine) ClaimWinnings(marketID uint64, wallet common.Address) (ClaimReceipt, error) {
	ms := e.market(marketID)
	if ms == nil {
		return ClaimReceipt{}, domain.ErrMarketNotFound
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.m.Status == domain.MarketOpen {
		return ClaimReceipt{}, domain.ErrMarketNotResolved
	}

	pos, ok := ms.positions[wallet]
	if !ok || !pos.Exists() {
		return ClaimReceipt{}, domain.ErrNoPosition
	}
	if pos.Exited {
		return ClaimReceipt{}, domain.ErrAlreadyExited
	}
	if pos.Claimed {
		return ClaimReceipt{}, domain.ErrAlreadyClaimed
	}

	if ms.m.Status == domain.MarketCancelled {
		pos.Claimed = true
		return ClaimReceipt{
			Payout:   pos.Amount,
			Refund:   true,
			Market:   ms.m,
			Position: *pos,
		}, nil
	}

	if pos.IsYes != ms.m.Outcome {
		return ClaimReceipt{}, domain.ErrNotAWinner
	}

	winning := ms.m.TotalYesPool
	if !ms.m.Outcome {
		winning = ms.m.TotalNoPool
	}
	losing := ms.escrow() - winning

	payout := pos.Amount
	if losing > 0 && winning > 0 {
		payout += mulDiv(pos.Amount, losing, winning)
	}

	pos.Claimed = true
	return ClaimReceipt{
		Payout:   payout,
		Market:   ms.m,
		Position: *pos,
	}, nil
}
