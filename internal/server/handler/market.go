package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	CreateMarket(ctx context.Context, city string, cond domain.WeatherCondition, op domain.Operator, threshold, resolutionTime int64, creator common.Address) (domain.Market, error)
	GetMarket(ctx context.Context, id uint64) (domain.Market, error)
	ListMarkets(ctx context.Context, opts domain.ListOpts) []domain.Market
	Odds(ctx context.Context, id uint64) (yesPercent, noPercent int64, err error)
	PotentialPayout(ctx context.Context, id uint64, isYes bool, amount int64) (int64, error)
	MarketCount(ctx context.Context) uint64
	ActiveMarketCount(ctx context.Context) uint64
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logger,
	}
}

// createMarketRequest is the body for market creation.
type createMarketRequest struct {
	City           string `json:"city"`
	Condition      string `json:"condition"`
	Operator       string `json:"operator"`
	Threshold      int64  `json:"threshold"`
	ResolutionTime int64  `json:"resolution_time"`
	Creator        string `json:"creator"`
}

// CreateMarket opens a new market.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cond, err := domain.ParseCondition(req.Condition)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown condition: "+req.Condition)
		return
	}
	op, err := domain.ParseOperator(req.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown operator: "+req.Operator)
		return
	}
	creator, ok := parseWallet(req.Creator)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid creator address")
		return
	}

	m, err := h.markets.CreateMarket(r.Context(), req.City, cond, op, req.Threshold, req.ResolutionTime, creator)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMarketView(m))
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []marketView `json:"markets"`
	Total   uint64       `json:"total"`
	Active  uint64       `json:"active"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// ListMarkets returns markets in creation order with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	markets := h.markets.ListMarkets(r.Context(), opts)

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: toMarketViews(markets),
		Total:   h.markets.MarketCount(r.Context()),
		Active:  h.markets.ActiveMarketCount(r.Context()),
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	m, err := h.markets.GetMarket(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toMarketView(m))
}

// oddsResponse carries implied probabilities in integer percent.
type oddsResponse struct {
	MarketID   uint64 `json:"market_id"`
	YesPercent int64  `json:"yes_percent"`
	NoPercent  int64  `json:"no_percent"`
}

// Odds returns pool-implied odds for a market.
// GET /api/markets/{id}/odds
func (h *MarketHandler) Odds(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	yes, no, err := h.markets.Odds(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, oddsResponse{MarketID: id, YesPercent: yes, NoPercent: no})
}

// payoutResponse is the hypothetical payout for a prospective stake.
type payoutResponse struct {
	MarketID uint64 `json:"market_id"`
	IsYes    bool   `json:"is_yes"`
	Amount   int64  `json:"amount"`
	Payout   int64  `json:"payout"`
}

// PotentialPayout quotes the payout a stake would receive if its side won
// against the current pools.
// GET /api/markets/{id}/payout?side=yes&amount=500
func (h *MarketHandler) PotentialPayout(w http.ResponseWriter, r *http.Request) {
	id, ok := marketIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	q := r.URL.Query()
	var isYes bool
	switch q.Get("side") {
	case "yes":
		isYes = true
	case "no":
		isYes = false
	default:
		writeError(w, http.StatusBadRequest, "side must be yes or no")
		return
	}

	amount, err := strconv.ParseInt(q.Get("amount"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	payout, err := h.markets.PotentialPayout(r.Context(), id, isYes, amount)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, payoutResponse{
		MarketID: id,
		IsYes:    isYes,
		Amount:   amount,
		Payout:   payout,
	})
}
