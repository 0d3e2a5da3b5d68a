package engine

import (
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

var (
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	creator = common.HexToAddress("0x00000000000000000000000000000000000000f0")
)

// testClock is a manual unix-seconds clock.
type testClock struct {
	mu  sync.Mutex
	now int64
}

func (c *testClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now int64) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func newTestEngine(t *testing.T) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{now: 1_000}
	return New(Config{}, WithClock(clock.Now)), clock
}

// mustCreate creates a rainfall market resolving at the given time.
func mustCreate(t *testing.T, e *Engine, resolutionTime int64) domain.Market {
	t.Helper()
	m, err := e.CreateMarket("London", domain.ConditionRainfall, domain.OperatorAbove, 5_00, resolutionTime, creator)
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	return m
}

func mustBet(t *testing.T, e *Engine, marketID uint64, wallet common.Address, isYes bool, amount int64) {
	t.Helper()
	if _, err := e.PlaceBet(marketID, wallet, isYes, amount); err != nil {
		t.Fatalf("PlaceBet(%d, %s, %v, %d): %v", marketID, wallet, isYes, amount, err)
	}
}

// checkPoolInvariant verifies that each pool equals the sum of its open,
// non-exited positions.
func checkPoolInvariant(t *testing.T, e *Engine, marketID uint64) {
	t.Helper()
	m, err := e.GetMarket(marketID)
	if err != nil {
		t.Fatalf("GetMarket: %v", err)
	}
	positions, err := e.ListPositions(marketID)
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	var yes, no int64
	for _, p := range positions {
		if p.Exited {
			continue
		}
		if p.IsYes {
			yes += p.Amount
		} else {
			no += p.Amount
		}
	}
	if m.TotalYesPool != yes || m.TotalNoPool != no {
		t.Fatalf("pool invariant broken: pools (%d, %d), position sums (%d, %d)",
			m.TotalYesPool, m.TotalNoPool, yes, no)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	e, clock := newTestEngine(t)
	mustCreate(t, e, 10_000)
	mustCreate(t, e, 20_000)
	mustBet(t, e, 0, alice, true, 3_00)
	mustBet(t, e, 0, bob, false, 1_00)
	clock.Set(5_000)
	if _, err := e.ExitPosition(0, alice); err != nil {
		t.Fatalf("ExitPosition: %v", err)
	}

	var records []domain.MarketRecord
	var positions []domain.Position
	for m := range e.ListMarkets() {
		rec, err := e.SnapshotMarket(m.ID)
		if err != nil {
			t.Fatalf("SnapshotMarket: %v", err)
		}
		records = append(records, rec)
		ps, err := e.ListPositions(m.ID)
		if err != nil {
			t.Fatalf("ListPositions: %v", err)
		}
		positions = append(positions, ps...)
	}

	restored := New(Config{}, WithClock(clock.Now))
	if err := restored.Restore(records, positions); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	for id := uint64(0); id < e.MarketCount(); id++ {
		want, _ := e.SnapshotMarket(id)
		got, err := restored.SnapshotMarket(id)
		if err != nil {
			t.Fatalf("SnapshotMarket(%d) after restore: %v", id, err)
		}
		if got != want {
			t.Errorf("market %d: restored %+v, want %+v", id, got, want)
		}
	}

	gotBet, err := restored.GetUserBet(0, bob)
	if err != nil {
		t.Fatalf("GetUserBet after restore: %v", err)
	}
	if gotBet.Amount != 1_00 || gotBet.IsYes {
		t.Errorf("restored position = %+v, want no-side 1_00", gotBet)
	}
}

func TestRestoreRejectsSparseIDs(t *testing.T) {
	e, _ := newTestEngine(t)
	records := []domain.MarketRecord{
		{Market: domain.Market{ID: 1}},
	}
	if err := e.Restore(records, nil); err == nil {
		t.Fatal("Restore accepted non-dense market ids")
	}
}

// Mutations on different markets must be able to proceed concurrently
// without corrupting either market's accounting.
func TestConcurrentBetsAcrossMarkets(t *testing.T) {
	e, _ := newTestEngine(t)
	const markets = 4
	const bettors = 25

	for i := 0; i < markets; i++ {
		mustCreate(t, e, 10_000)
	}

	var wg sync.WaitGroup
	for id := uint64(0); id < markets; id++ {
		for i := 0; i < bettors; i++ {
			wg.Add(1)
			var wallet common.Address
			wallet[0] = byte(id)
			wallet[18] = byte(i >> 8)
			wallet[19] = byte(i)
			go func(id uint64, wallet common.Address, isYes bool) {
				defer wg.Done()
				if _, err := e.PlaceBet(id, wallet, isYes, 10); err != nil {
					t.Errorf("PlaceBet: %v", err)
				}
			}(id, wallet, i%2 == 0)
		}
	}
	wg.Wait()

	for id := uint64(0); id < markets; id++ {
		checkPoolInvariant(t, e, id)
		m, _ := e.GetMarket(id)
		if m.TotalYesPool+m.TotalNoPool != bettors*10 {
			t.Errorf("market %d: total pool %d, want %d", id, m.TotalYesPool+m.TotalNoPool, bettors*10)
		}
	}
}
