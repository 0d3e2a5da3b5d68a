package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// PayoutVoucher is an authorization for the external settlement primitive to
// move value to a participant. The engine computes amounts; actually moving
// funds is outside its custody.
type PayoutVoucher struct {
	ID        string         `json:"id"`
	MarketID  uint64         `json:"market_id"`
	To        common.Address `json:"to"`
	Amount    int64          `json:"amount"`
	Reason    string         `json:"reason"`
	IssuedAt  int64          `json:"issued_at"`
	Signer    common.Address `json:"signer"`
	Signature []byte         `json:"signature,omitempty"`
}

// PayoutAuthorizer issues vouchers for computed payouts.
type PayoutAuthorizer interface {
	Authorize(ctx context.Context, marketID uint64, to common.Address, amount int64, reason string) (PayoutVoucher, error)
}

// SettlementSnapshot is the archived record of a terminal market: the final
// market state plus every position and settlement row.
type SettlementSnapshot struct {
	Market    Market             `json:"market"`
	Positions []Position         `json:"positions"`
	Records   []SettlementRecord `json:"records"`
}

// SettlementArchiver stores terminal-market snapshots in long-term blob
// storage and returns the object key.
type SettlementArchiver interface {
	Archive(ctx context.Context, snap SettlementSnapshot) (string, error)
}
