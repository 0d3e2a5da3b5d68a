package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
	"github.com/aniruddha1295/SkyFall-Monad/internal/service"
)

// SettlementService defines the methods that the settlement handler requires
// from the service layer.
type SettlementService interface {
	ResolveMarket(ctx context.Context, caller common.Address, marketID uint64, outcome bool) (domain.Market, error)
	CancelMarket(ctx context.Context, caller common.Address, marketID uint64) (domain.Market, error)
	ClaimWinnings(ctx context.Context, marketID uint64, wallet common.Address) (service.SettlementResult, error)
	ExitPosition(ctx context.Context, marketID uint64, wallet common.Address) (service.SettlementResult, engine.ExitQuote, error)
	ExitInfo(ctx context.Context, marketID uint64, wallet common.Address) (engine.ExitQuote, error)
	SettlementHistory(ctx context.Context, marketID uint64) ([]domain.SettlementRecord, error)
}

// SettlementHandler serves claim, exit, and resolution HTTP endpoints. The
// resolve and cancel routes act on behalf of the configured resolver
// identity; route-level token auth decides who may reach them.
type SettlementHandler struct {
	settlements SettlementService
	resolver    common.Address
	logger      *slog.Logger
}

// NewSettlementHandler creates a SettlementHandler with the given service,
// resolver identity, and logger.
func NewSettlementHandler(settlements SettlementService, resolver common.Address, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{
		settlements: settlements,
		resolver:    resolver,
		logger:      logger,
	}
}

// walletRequest is the body for claim and exit, which act on one position.
type walletRequest struct {
	Wallet string `json:"wallet"`
}

// claimResponse carries the payout and its signed authorization.
type claimResponse struct {
	MarketID uint64      `json:"market_id"`
	Wallet   string      `json:"wallet"`
	Payout   int64       `json:"payout"`
	Refund   bool        `json:"refund"`
	Voucher  voucherView `json:"voucher"`
}

// ClaimWinnings pays out a winning or refunded position.
// POST /api/markets/{id}/claim
func (h *SettlementHandler) ClaimWinnings(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req walletRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	wallet, ok := parseWallet(req.Wallet)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	result, err := h.settlements.ClaimWinnings(r.Context(), id, wallet)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{
		MarketID: id,
		Wallet:   wallet.Hex(),
		Payout:   result.Payout,
		Refund:   result.Refund,
		Voucher:  toVoucherView(result.Voucher),
	})
}

// exitResponse carries the realized exit alongside its quote breakdown.
type exitResponse struct {
	MarketID uint64        `json:"market_id"`
	Wallet   string        `json:"wallet"`
	Quote    exitQuoteView `json:"quote"`
	Voucher  voucherView   `json:"voucher"`
}

// ExitPosition unwinds a live position before resolution, charging the
// time-ramped exit fee.
// POST /api/markets/{id}/exit
func (h *SettlementHandler) ExitPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req walletRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	wallet, ok := parseWallet(req.Wallet)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	result, quote, err := h.settlements.ExitPosition(r.Context(), id, wallet)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, exitResponse{
		MarketID: id,
		Wallet:   wallet.Hex(),
		Quote:    toExitQuoteView(quote),
		Voucher:  toVoucherView(result.Voucher),
	})
}

// ExitInfo quotes what an exit would pay right now without committing it.
// GET /api/markets/{id}/exit-info?wallet=0x...
func (h *SettlementHandler) ExitInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	wallet, ok := parseWallet(r.URL.Query().Get("wallet"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	quote, err := h.settlements.ExitInfo(r.Context(), id, wallet)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id": id,
		"wallet":    wallet.Hex(),
		"quote":     toExitQuoteView(quote),
	})
}

// resolveRequest is the body for manual market resolution.
type resolveRequest struct {
	Outcome bool `json:"outcome"`
}

// ResolveMarket records a market's final outcome. Normally the resolver
// worker does this from weather observations; the endpoint exists for
// operator intervention when the provider cannot serve a city.
// POST /api/markets/{id}/resolve
func (h *SettlementHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.settlements.ResolveMarket(r.Context(), h.resolver, id, req.Outcome)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toMarketView(m))
}

// CancelMarket voids a market so every position becomes refundable.
// POST /api/markets/{id}/cancel
func (h *SettlementHandler) CancelMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	m, err := h.settlements.CancelMarket(r.Context(), h.resolver, id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toMarketView(m))
}

// SettlementHistory lists every settlement recorded for a market.
// GET /api/markets/{id}/settlements
func (h *SettlementHandler) SettlementHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	records, err := h.settlements.SettlementHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	views := make([]settlementView, 0, len(records))
	for _, rec := range records {
		views = append(views, toSettlementView(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id":   id,
		"settlements": views,
	})
}
