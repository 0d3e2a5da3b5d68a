package handler

import (
	"encoding/hex"
	"time"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
)

// marketView is the JSON representation of a market. Enum fields are
// rendered as their canonical names and the proposition is included so
// clients do not have to reassemble it.
type marketView struct {
	ID             uint64 `json:"id"`
	City           string `json:"city"`
	Condition      string `json:"condition"`
	Operator       string `json:"operator"`
	Threshold      int64  `json:"threshold"`
	Unit           string `json:"unit"`
	Question       string `json:"question"`
	ResolutionTime int64  `json:"resolution_time"`
	CreatedAt      int64  `json:"created_at"`
	TotalYesPool   int64  `json:"total_yes_pool"`
	TotalNoPool    int64  `json:"total_no_pool"`
	Status         string `json:"status"`
	Outcome        *bool  `json:"outcome,omitempty"`
	Creator        string `json:"creator"`
}

func toMarketView(m domain.Market) marketView {
	v := marketView{
		ID:             m.ID,
		City:           m.City,
		Condition:      m.Condition.String(),
		Operator:       m.Operator.String(),
		Threshold:      m.Threshold,
		Unit:           m.Condition.Unit(),
		Question:       m.Question(),
		ResolutionTime: m.ResolutionTime,
		CreatedAt:      m.CreatedAt,
		TotalYesPool:   m.TotalYesPool,
		TotalNoPool:    m.TotalNoPool,
		Status:         m.Status.String(),
		Creator:        m.Creator.Hex(),
	}
	if m.Status == domain.MarketResolved {
		outcome := m.Outcome
		v.Outcome = &outcome
	}
	return v
}

func toMarketViews(markets []domain.Market) []marketView {
	views := make([]marketView, 0, len(markets))
	for _, m := range markets {
		views = append(views, toMarketView(m))
	}
	return views
}

// positionView is the JSON representation of a position.
type positionView struct {
	MarketID     uint64 `json:"market_id"`
	Wallet       string `json:"wallet"`
	Amount       int64  `json:"amount"`
	IsYes        bool   `json:"is_yes"`
	Claimed      bool   `json:"claimed"`
	Exited       bool   `json:"exited"`
	ExitedAmount int64  `json:"exited_amount,omitempty"`
	PlacedAt     int64  `json:"placed_at"`
}

func toPositionView(p domain.Position) positionView {
	return positionView{
		MarketID:     p.MarketID,
		Wallet:       p.Wallet.Hex(),
		Amount:       p.Amount,
		IsYes:        p.IsYes,
		Claimed:      p.Claimed,
		Exited:       p.Exited,
		ExitedAmount: p.ExitedAmount,
		PlacedAt:     p.PlacedAt,
	}
}

func toPositionViews(positions []domain.Position) []positionView {
	views := make([]positionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, toPositionView(p))
	}
	return views
}

// exitQuoteView is the JSON representation of an exit quote.
type exitQuoteView struct {
	ExitValue  int64  `json:"exit_value"`
	FeePercent int64  `json:"fee_percent"`
	Tier       string `json:"tier"`
	Payout     int64  `json:"payout"`
}

func toExitQuoteView(q engine.ExitQuote) exitQuoteView {
	return exitQuoteView{
		ExitValue:  q.ExitValue,
		FeePercent: q.FeePercent,
		Tier:       string(q.Tier),
		Payout:     q.Payout,
	}
}

// voucherView is the JSON representation of a payout voucher.
type voucherView struct {
	ID        string `json:"id"`
	MarketID  uint64 `json:"market_id"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
	IssuedAt  int64  `json:"issued_at"`
	Signer    string `json:"signer"`
	Signature string `json:"signature,omitempty"`
}

func toVoucherView(v domain.PayoutVoucher) voucherView {
	view := voucherView{
		ID:       v.ID,
		MarketID: v.MarketID,
		To:       v.To.Hex(),
		Amount:   v.Amount,
		Reason:   v.Reason,
		IssuedAt: v.IssuedAt,
		Signer:   v.Signer.Hex(),
	}
	if len(v.Signature) > 0 {
		view.Signature = "0x" + hex.EncodeToString(v.Signature)
	}
	return view
}

// settlementView is the JSON representation of a settlement record.
type settlementView struct {
	ID         string `json:"id"`
	MarketID   uint64 `json:"market_id"`
	Wallet     string `json:"wallet"`
	Kind       string `json:"kind"`
	Stake      int64  `json:"stake"`
	Payout     int64  `json:"payout"`
	FeePercent int64  `json:"fee_percent,omitempty"`
	VoucherID  string `json:"voucher_id,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toSettlementView(rec domain.SettlementRecord) settlementView {
	return settlementView{
		ID:         rec.ID,
		MarketID:   rec.MarketID,
		Wallet:     rec.Wallet.Hex(),
		Kind:       string(rec.Kind),
		Stake:      rec.Stake,
		Payout:     rec.Payout,
		FeePercent: rec.FeePercent,
		VoucherID:  rec.VoucherID,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
