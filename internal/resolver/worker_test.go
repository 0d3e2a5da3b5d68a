package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
	"github.com/aniruddha1295/SkyFall-Monad/internal/metrics"
)

var testResolver = common.HexToAddress("0x0000000000000000000000000000000000000f01")

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeLister struct {
	markets []domain.Market
}

func (l *fakeLister) ListMarkets(_ context.Context, _ domain.ListOpts) []domain.Market {
	return l.markets
}

type settleCall struct {
	marketID uint64
	outcome  bool
	cancel   bool
}

type fakeSettler struct {
	mu    sync.Mutex
	calls []settleCall
	err   error
}

func (s *fakeSettler) ResolveMarket(_ context.Context, caller common.Address, marketID uint64, outcome bool) (domain.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != testResolver {
		return domain.Market{}, domain.ErrUnauthorized
	}
	if s.err != nil {
		return domain.Market{}, s.err
	}
	s.calls = append(s.calls, settleCall{marketID: marketID, outcome: outcome})
	return domain.Market{ID: marketID}, nil
}

func (s *fakeSettler) CancelMarket(_ context.Context, caller common.Address, marketID uint64) (domain.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != testResolver {
		return domain.Market{}, domain.ErrUnauthorized
	}
	s.calls = append(s.calls, settleCall{marketID: marketID, cancel: true})
	return domain.Market{ID: marketID}, nil
}

type fakeProvider struct {
	obs   map[string]domain.Observation
	err   error
	calls int
}

func (p *fakeProvider) CurrentObservation(_ context.Context, city string) (domain.Observation, error) {
	p.calls++
	if p.err != nil {
		return domain.Observation{}, p.err
	}
	obs, ok := p.obs[city]
	if !ok {
		return domain.Observation{}, domain.ErrNotFound
	}
	return obs, nil
}

type fakeWeatherCache struct {
	mu  sync.Mutex
	obs map[string]domain.Observation
}

func newFakeWeatherCache() *fakeWeatherCache {
	return &fakeWeatherCache{obs: make(map[string]domain.Observation)}
}

func (c *fakeWeatherCache) SetObservation(_ context.Context, obs domain.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.obs[obs.City] = obs
	return nil
}

func (c *fakeWeatherCache) GetObservation(_ context.Context, city string) (domain.Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obs, ok := c.obs[city]
	if !ok {
		return domain.Observation{}, domain.ErrNotFound
	}
	return obs, nil
}

type fakeLocks struct {
	held map[string]bool
}

func (l *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held[key] {
		return nil, domain.ErrLockHeld
	}
	return func() {}, nil
}

type fakeLimiter struct {
	denied bool
}

func (l *fakeLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return !l.denied, nil
}

func (l *fakeLimiter) Wait(_ context.Context, _ string) error { return nil }

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	worker   *Worker
	lister   *fakeLister
	settler  *fakeSettler
	provider *fakeProvider
	cache    *fakeWeatherCache
	locks    *fakeLocks
	limiter  *fakeLimiter
	now      int64
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		lister:   &fakeLister{},
		settler:  &fakeSettler{},
		provider: &fakeProvider{obs: make(map[string]domain.Observation)},
		cache:    newFakeWeatherCache(),
		locks:    &fakeLocks{held: make(map[string]bool)},
		limiter:  &fakeLimiter{},
		now:      20_000,
	}
	cfg.Resolver = testResolver
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.worker = New(cfg,
		f.lister, f.settler, f.provider, f.cache, f.locks, f.limiter,
		metrics.New(prometheus.NewRegistry()), logger,
	).WithClock(func() int64 { return f.now })
	return f
}

func openMarket(id uint64, city string, cond domain.WeatherCondition, op domain.Operator, threshold, resolutionTime int64) domain.Market {
	return domain.Market{
		ID:             id,
		City:           city,
		Condition:      cond,
		Operator:       op,
		Threshold:      threshold,
		ResolutionTime: resolutionTime,
		Status:         domain.MarketOpen,
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestScanResolvesDueMarkets(t *testing.T) {
	f := newFixture(Config{})
	f.lister.markets = []domain.Market{
		// Above 5.00mm rainfall, measured 7.5mm: YES.
		openMarket(1, "Mumbai", domain.ConditionRainfall, domain.OperatorAbove, 5_00, 10_000),
		// Below 20C, measured 31.42C: NO.
		openMarket(2, "Mumbai", domain.ConditionTemperature, domain.OperatorBelow, 20_00, 10_000),
		// Not yet due.
		openMarket(3, "Delhi", domain.ConditionWindSpeed, domain.OperatorAbove, 40_00, 99_999),
	}
	f.provider.obs["Mumbai"] = domain.Observation{City: "Mumbai", TempC: 31.42, RainMM: 7.5, WindMS: 4}

	f.worker.Scan(context.Background())

	if len(f.settler.calls) != 2 {
		t.Fatalf("settle calls = %d, want 2", len(f.settler.calls))
	}
	if f.settler.calls[0] != (settleCall{marketID: 1, outcome: true}) {
		t.Errorf("call[0] = %+v, want market 1 outcome true", f.settler.calls[0])
	}
	if f.settler.calls[1] != (settleCall{marketID: 2, outcome: false}) {
		t.Errorf("call[1] = %+v, want market 2 outcome false", f.settler.calls[1])
	}
}

func TestScanUsesCachedObservation(t *testing.T) {
	f := newFixture(Config{})
	f.lister.markets = []domain.Market{
		openMarket(1, "Mumbai", domain.ConditionRainfall, domain.OperatorAbove, 5_00, 10_000),
		openMarket(2, "Mumbai", domain.ConditionTemperature, domain.OperatorAbove, 25_00, 10_000),
	}
	f.provider.obs["Mumbai"] = domain.Observation{City: "Mumbai", TempC: 30, RainMM: 6}

	f.worker.Scan(context.Background())

	if f.provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second market served from cache)", f.provider.calls)
	}
	if len(f.settler.calls) != 2 {
		t.Errorf("settle calls = %d, want 2", len(f.settler.calls))
	}
}

func TestScanSkipsLockedMarkets(t *testing.T) {
	f := newFixture(Config{})
	f.lister.markets = []domain.Market{
		openMarket(1, "Mumbai", domain.ConditionRainfall, domain.OperatorAbove, 5_00, 10_000),
	}
	f.locks.held["resolve:1"] = true

	f.worker.Scan(context.Background())

	if len(f.settler.calls) != 0 {
		t.Errorf("settle calls = %d, want 0 when lock is held elsewhere", len(f.settler.calls))
	}
	if f.provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", f.provider.calls)
	}
}

func TestScanLeavesMarketWhenProviderFails(t *testing.T) {
	f := newFixture(Config{CancelAfter: time.Hour})
	f.lister.markets = []domain.Market{
		openMarket(1, "Atlantis", domain.ConditionRainfall, domain.OperatorAbove, 5_00, 19_000),
	}
	f.provider.err = errors.New("provider down")

	f.worker.Scan(context.Background())

	if len(f.settler.calls) != 0 {
		t.Fatalf("settle calls = %+v, want none inside the grace window", f.settler.calls)
	}
}

func TestScanCancelsAfterGraceWindow(t *testing.T) {
	f := newFixture(Config{CancelAfter: time.Hour})
	f.lister.markets = []domain.Market{
		openMarket(1, "Atlantis", domain.ConditionRainfall, domain.OperatorAbove, 5_00, 10_000),
	}
	f.provider.err = errors.New("provider down")
	f.now = 10_000 + 3_600 // exactly at the grace boundary

	f.worker.Scan(context.Background())

	if len(f.settler.calls) != 1 || !f.settler.calls[0].cancel {
		t.Fatalf("settle calls = %+v, want one cancellation", f.settler.calls)
	}
}

func TestScanRespectsRateLimit(t *testing.T) {
	f := newFixture(Config{})
	f.lister.markets = []domain.Market{
		openMarket(1, "Mumbai", domain.ConditionRainfall, domain.OperatorAbove, 5_00, 10_000),
	}
	f.limiter.denied = true

	f.worker.Scan(context.Background())

	if f.provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 when quota exhausted", f.provider.calls)
	}
	if len(f.settler.calls) != 0 {
		t.Errorf("settle calls = %d, want 0", len(f.settler.calls))
	}
}

func TestScanTreatsAlreadyResolvedAsSuccess(t *testing.T) {
	f := newFixture(Config{})
	f.lister.markets = []domain.Market{
		openMarket(1, "Mumbai", domain.ConditionRainfall, domain.OperatorAbove, 5_00, 10_000),
	}
	f.provider.obs["Mumbai"] = domain.Observation{City: "Mumbai", RainMM: 6}
	f.settler.err = domain.ErrAlreadyResolved

	// Must not panic or log-fail; the race loser just moves on.
	f.worker.Scan(context.Background())
}
