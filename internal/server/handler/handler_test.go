package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/engine"
	"github.com/aniruddha1295/SkyFall-Monad/internal/service"
)

var (
	testCreator = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testAlice   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func testMarket() domain.Market {
	return domain.Market{
		ID:             7,
		City:           "Mumbai",
		Condition:      domain.ConditionRainfall,
		Operator:       domain.OperatorAbove,
		Threshold:      5_00,
		ResolutionTime: 10_000,
		CreatedAt:      1_000,
		TotalYesPool:   3_00,
		TotalNoPool:    2_00,
		Status:         domain.MarketOpen,
		Creator:        testCreator,
	}
}

type fakeMarketService struct {
	market  domain.Market
	created []string // cities passed to CreateMarket
}

func (f *fakeMarketService) CreateMarket(_ context.Context, city string, cond domain.WeatherCondition, op domain.Operator, threshold, resolutionTime int64, creator common.Address) (domain.Market, error) {
	f.created = append(f.created, city)
	m := f.market
	m.City = city
	m.Condition = cond
	m.Operator = op
	m.Threshold = threshold
	m.ResolutionTime = resolutionTime
	m.Creator = creator
	return m, nil
}

func (f *fakeMarketService) GetMarket(_ context.Context, id uint64) (domain.Market, error) {
	if id != f.market.ID {
		return domain.Market{}, domain.ErrMarketNotFound
	}
	return f.market, nil
}

func (f *fakeMarketService) ListMarkets(_ context.Context, _ domain.ListOpts) []domain.Market {
	return []domain.Market{f.market}
}

func (f *fakeMarketService) Odds(_ context.Context, id uint64) (int64, int64, error) {
	if id != f.market.ID {
		return 0, 0, domain.ErrMarketNotFound
	}
	return 60, 40, nil
}

func (f *fakeMarketService) PotentialPayout(_ context.Context, id uint64, _ bool, amount int64) (int64, error) {
	if id != f.market.ID {
		return 0, domain.ErrMarketNotFound
	}
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return amount * 2, nil
}

func (f *fakeMarketService) MarketCount(context.Context) uint64       { return 1 }
func (f *fakeMarketService) ActiveMarketCount(context.Context) uint64 { return 1 }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMux(t *testing.T) (*http.ServeMux, *fakeMarketService) {
	t.Helper()
	svc := &fakeMarketService{market: testMarket()}
	h := NewMarketHandler(svc, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/markets", h.CreateMarket)
	mux.HandleFunc("GET /api/markets", h.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", h.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/odds", h.Odds)
	mux.HandleFunc("GET /api/markets/{id}/payout", h.PotentialPayout)
	return mux, svc
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
}

func TestGetMarket(t *testing.T) {
	mux, _ := testMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/markets/7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got marketView
	decodeJSON(t, rec, &got)
	if got.ID != 7 || got.City != "Mumbai" || got.Condition != "rainfall" {
		t.Fatalf("unexpected view: %+v", got)
	}
	if got.Question == "" || got.Status != "open" {
		t.Fatalf("view missing derived fields: %+v", got)
	}
	if got.Outcome != nil {
		t.Fatalf("open market should not expose an outcome")
	}
}

func TestGetMarketErrors(t *testing.T) {
	mux, _ := testMux(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"unknown id", "/api/markets/99", http.StatusNotFound},
		{"zero id", "/api/markets/0", http.StatusBadRequest},
		{"non-numeric id", "/api/markets/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodGet, tt.target, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCreateMarket(t *testing.T) {
	mux, svc := testMux(t)

	body := `{"city":"Pune","condition":"temperature","operator":"below","threshold":3000,"resolution_time":20000,"creator":"` + testCreator.Hex() + `"}`
	rec := doRequest(t, mux, http.MethodPost, "/api/markets", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	if len(svc.created) != 1 || svc.created[0] != "Pune" {
		t.Fatalf("service called with %v", svc.created)
	}

	var got marketView
	decodeJSON(t, rec, &got)
	if got.Condition != "temperature" || got.Operator != "below" {
		t.Fatalf("unexpected view: %+v", got)
	}
}

func TestCreateMarketValidation(t *testing.T) {
	mux, svc := testMux(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"unknown condition", `{"city":"Pune","condition":"humidity","operator":"above","threshold":1,"resolution_time":2,"creator":"` + testCreator.Hex() + `"}`},
		{"unknown operator", `{"city":"Pune","condition":"rainfall","operator":"within","threshold":1,"resolution_time":2,"creator":"` + testCreator.Hex() + `"}`},
		{"bad creator", `{"city":"Pune","condition":"rainfall","operator":"above","threshold":1,"resolution_time":2,"creator":"nope"}`},
		{"unknown field", `{"city":"Pune","oops":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodPost, "/api/markets", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
	if len(svc.created) != 0 {
		t.Fatalf("service should not have been called, got %v", svc.created)
	}
}

func TestListMarkets(t *testing.T) {
	mux, _ := testMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/markets?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got listMarketsResponse
	decodeJSON(t, rec, &got)
	if len(got.Markets) != 1 || got.Total != 1 || got.Limit != 10 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestOdds(t *testing.T) {
	mux, _ := testMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/markets/7/odds", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got oddsResponse
	decodeJSON(t, rec, &got)
	if got.YesPercent != 60 || got.NoPercent != 40 {
		t.Fatalf("unexpected odds: %+v", got)
	}
}

func TestPotentialPayout(t *testing.T) {
	mux, _ := testMux(t)

	rec := doRequest(t, mux, http.MethodGet, "/api/markets/7/payout?side=yes&amount=100", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got payoutResponse
	decodeJSON(t, rec, &got)
	if got.Payout != 200 || !got.IsYes {
		t.Fatalf("unexpected payout: %+v", got)
	}

	rec = doRequest(t, mux, http.MethodGet, "/api/markets/7/payout?side=maybe&amount=100", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad side: status = %d, want 400", rec.Code)
	}
	rec = doRequest(t, mux, http.MethodGet, "/api/markets/7/payout?side=no&amount=-5", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative amount: status = %d, want 400", rec.Code)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrMarketNotFound, http.StatusNotFound},
		{domain.ErrNoPosition, http.StatusNotFound},
		{domain.ErrUnauthorized, http.StatusForbidden},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrInvalidAmount, http.StatusBadRequest},
		{domain.ErrResolutionInPast, http.StatusBadRequest},
		{domain.ErrAlreadyClaimed, http.StatusConflict},
		{domain.ErrMarketNotOpen, http.StatusConflict},
		{domain.ErrTooEarly, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// fakeSettlementService drives the settlement handler without the engine.
type fakeSettlementService struct {
	resolveCalls []common.Address
}

func (f *fakeSettlementService) ResolveMarket(_ context.Context, caller common.Address, marketID uint64, outcome bool) (domain.Market, error) {
	f.resolveCalls = append(f.resolveCalls, caller)
	m := testMarket()
	m.Status = domain.MarketResolved
	m.Outcome = outcome
	return m, nil
}

func (f *fakeSettlementService) CancelMarket(_ context.Context, caller common.Address, marketID uint64) (domain.Market, error) {
	m := testMarket()
	m.Status = domain.MarketCancelled
	return m, nil
}

func (f *fakeSettlementService) ClaimWinnings(_ context.Context, marketID uint64, wallet common.Address) (service.SettlementResult, error) {
	if marketID != 7 {
		return service.SettlementResult{}, domain.ErrMarketNotFound
	}
	return service.SettlementResult{
		Payout: 5_00,
		Voucher: domain.PayoutVoucher{
			ID:       "v-1",
			MarketID: marketID,
			To:       wallet,
			Amount:   5_00,
			Reason:   "claim",
		},
	}, nil
}

func (f *fakeSettlementService) ExitPosition(_ context.Context, marketID uint64, wallet common.Address) (service.SettlementResult, engine.ExitQuote, error) {
	return service.SettlementResult{}, engine.ExitQuote{}, domain.ErrNoPosition
}

func (f *fakeSettlementService) ExitInfo(_ context.Context, marketID uint64, wallet common.Address) (engine.ExitQuote, error) {
	return engine.ExitQuote{ExitValue: 1_50, FeePercent: 3, Payout: 1_45}, nil
}

func (f *fakeSettlementService) SettlementHistory(_ context.Context, marketID uint64) ([]domain.SettlementRecord, error) {
	return nil, nil
}

func settlementMux(t *testing.T) (*http.ServeMux, *fakeSettlementService) {
	t.Helper()
	svc := &fakeSettlementService{}
	h := NewSettlementHandler(svc, testCreator, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/markets/{id}/claim", h.ClaimWinnings)
	mux.HandleFunc("POST /api/markets/{id}/exit", h.ExitPosition)
	mux.HandleFunc("GET /api/markets/{id}/exit-info", h.ExitInfo)
	mux.HandleFunc("POST /api/markets/{id}/resolve", h.ResolveMarket)
	return mux, svc
}

func TestClaimWinnings(t *testing.T) {
	mux, _ := settlementMux(t)

	body := `{"wallet":"` + testAlice.Hex() + `"}`
	rec := doRequest(t, mux, http.MethodPost, "/api/markets/7/claim", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var got claimResponse
	decodeJSON(t, rec, &got)
	if got.Payout != 5_00 || got.Voucher.ID != "v-1" || got.Voucher.Reason != "claim" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestClaimUnknownMarket(t *testing.T) {
	mux, _ := settlementMux(t)

	body := `{"wallet":"` + testAlice.Hex() + `"}`
	rec := doRequest(t, mux, http.MethodPost, "/api/markets/99/claim", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExitWithoutPosition(t *testing.T) {
	mux, _ := settlementMux(t)

	body := `{"wallet":"` + testAlice.Hex() + `"}`
	rec := doRequest(t, mux, http.MethodPost, "/api/markets/7/exit", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestResolvePassesResolverIdentity(t *testing.T) {
	mux, svc := settlementMux(t)

	rec := doRequest(t, mux, http.MethodPost, "/api/markets/7/resolve", `{"outcome":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if len(svc.resolveCalls) != 1 || svc.resolveCalls[0] != testCreator {
		t.Fatalf("resolve calls = %v", svc.resolveCalls)
	}

	var got marketView
	decodeJSON(t, rec, &got)
	if got.Status != "resolved" || got.Outcome == nil || !*got.Outcome {
		t.Fatalf("unexpected view: %+v", got)
	}
}
