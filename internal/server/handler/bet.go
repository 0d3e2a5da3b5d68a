package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
)

// BetService defines the methods that the bet handler requires from the
// service layer.
type BetService interface {
	PlaceBet(ctx context.Context, marketID uint64, wallet common.Address, isYes bool, amount int64) (engine.BetReceipt, error)
	GetUserBet(ctx context.Context, marketID uint64, wallet common.Address) (domain.Position, error)
	ListPositions(ctx context.Context, marketID uint64) ([]domain.Position, error)
	ListWalletPositions(ctx context.Context, wallet common.Address, opts domain.ListOpts) ([]domain.Position, error)
}

// BetHandler serves bet and position HTTP endpoints.
type BetHandler struct {
	bets   BetService
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler with the given service and logger.
func NewBetHandler(bets BetService, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		bets:   bets,
		logger: logger,
	}
}

// placeBetRequest is the body for placing a stake.
type placeBetRequest struct {
	Wallet string `json:"wallet"`
	Side   string `json:"side"`
	Amount int64  `json:"amount"`
}

// placeBetResponse echoes the updated market alongside the new position.
type placeBetResponse struct {
	Market   marketView   `json:"market"`
	Position positionView `json:"position"`
}

// PlaceBet stakes an amount on one side of an open market.
// POST /api/markets/{id}/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req placeBetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, ok := parseWallet(req.Wallet)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	var isYes bool
	switch req.Side {
	case "yes":
		isYes = true
	case "no":
		isYes = false
	default:
		writeError(w, http.StatusBadRequest, "side must be yes or no")
		return
	}

	receipt, err := h.bets.PlaceBet(r.Context(), id, wallet, isYes, req.Amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, placeBetResponse{
		Market:   toMarketView(receipt.Market),
		Position: toPositionView(receipt.Position),
	})
}

// GetUserBet returns one wallet's position in a market.
// GET /api/markets/{id}/bets/{wallet}
func (h *BetHandler) GetUserBet(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	wallet, ok := walletParam(r, "wallet")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	pos, err := h.bets.GetUserBet(r.Context(), id, wallet)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toPositionView(pos))
}

// ListPositions returns every position in a market.
// GET /api/markets/{id}/positions
func (h *BetHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	positions, err := h.bets.ListPositions(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market_id": id,
		"positions": toPositionViews(positions),
	})
}

// ListWalletPositions returns a wallet's positions across markets, most
// recent first.
// GET /api/wallets/{wallet}/positions?limit=50&offset=0
func (h *BetHandler) ListWalletPositions(w http.ResponseWriter, r *http.Request) {
	wallet, ok := walletParam(r, "wallet")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	opts := parseListOpts(r)
	positions, err := h.bets.ListWalletPositions(r.Context(), wallet, opts)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":    wallet.Hex(),
		"positions": toPositionViews(positions),
		"limit":     opts.Limit,
		"offset":    opts.Offset,
	})
}
