package domain

import "github.com/ethereum/go-ethereum/common"

// Signal bus channels carrying engine lifecycle events. Consumers (the
// WebSocket hub, indexers, notifiers) subscribe by channel; the engine never
// reads its own events back.
const (
	ChannelMarkets     = "markets"
	ChannelBets        = "bets"
	ChannelSettlements = "settlements"
)

// Event type names, one per lifecycle transition.
const (
	EventMarketCreated   = "market_created"
	EventBetPlaced       = "bet_placed"
	EventMarketResolved  = "market_resolved"
	EventMarketCancelled = "market_cancelled"
	EventWinningsClaimed = "winnings_claimed"
	EventPositionExited  = "position_exited"
)

// MarketCreatedEvent is emitted once per market creation.
type MarketCreatedEvent struct {
	Event          string         `json:"event"`
	MarketID       uint64         `json:"market_id"`
	City           string         `json:"city"`
	Condition      string         `json:"condition"`
	Threshold      int64          `json:"threshold"`
	ResolutionTime int64          `json:"resolution_time"`
	Creator        common.Address `json:"creator"`
}

// BetPlacedEvent is emitted when a stake joins a pool.
type BetPlacedEvent struct {
	Event    string         `json:"event"`
	MarketID uint64         `json:"market_id"`
	Bettor   common.Address `json:"bettor"`
	IsYes    bool           `json:"is_yes"`
	Amount   int64          `json:"amount"`
}

// MarketResolvedEvent is emitted on the terminal OPEN→RESOLVED transition.
// For the OPEN→CANCELLED transition the Event field carries
// EventMarketCancelled and Outcome is meaningless.
type MarketResolvedEvent struct {
	Event     string `json:"event"`
	MarketID  uint64 `json:"market_id"`
	Outcome   bool   `json:"outcome"`
	TotalPool int64  `json:"total_pool"`
}

// WinningsClaimedEvent is emitted when a winning (or refunded) position is
// paid out.
type WinningsClaimedEvent struct {
	Event    string         `json:"event"`
	MarketID uint64         `json:"market_id"`
	Bettor   common.Address `json:"bettor"`
	Payout   int64          `json:"payout"`
}

// PositionExitedEvent is emitted when a position is unwound before
// resolution.
type PositionExitedEvent struct {
	Event          string         `json:"event"`
	MarketID       uint64         `json:"market_id"`
	Bettor         common.Address `json:"bettor"`
	OriginalAmount int64          `json:"original_amount"`
	ExitPayout     int64          `json:"exit_payout"`
	FeePercent     int64          `json:"fee_percent"`
}
