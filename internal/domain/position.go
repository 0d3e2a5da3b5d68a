package domain

import "github.com/ethereum/go-ethereum/common"

// Position is a participant's stake in one market. At most one position
// exists per (market, wallet) pair. The zero value is the canonical
// "no position" sentinel: Amount == 0 and both terminal flags unset.
//
// Positions are never deleted: an exited position keeps its record (with
// Amount cleared into ExitedAmount) as settlement history.
type Position struct {
	MarketID uint64
	Wallet   common.Address
	Amount   int64
	IsYes    bool
	Claimed  bool
	Exited   bool
	// ExitedAmount preserves the original stake after an early exit,
	// when Amount has been cleared.
	ExitedAmount int64
	PlacedAt     int64
}

// Exists reports whether the position record represents an actual stake,
// past or present.
func (p Position) Exists() bool {
	return p.Amount > 0 || p.Exited
}

// Open reports whether the position still holds a live stake.
func (p Position) Open() bool {
	return p.Amount > 0 && !p.Exited && !p.Claimed
}
