package engine

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

func TestPlaceBetUpdatesMatchingPool(t *testing.T) {
	e, _ := newTestEngine(t)
	m := mustCreate(t, e, 10_000)

	mustBet(t, e, m.ID, alice, true, 3_00)
	mustBet(t, e, m.ID, bob, false, 1_00)
	checkPoolInvariant(t, e, m.ID)

	got, _ := e.GetMarket(m.ID)
	if got.TotalYesPool != 3_00 || got.TotalNoPool != 1_00 {
		t.Errorf("pools = (%d, %d), want (300, 100)", got.TotalYesPool, got.TotalNoPool)
	}
}

func TestPlaceBetValidation(t *testing.T) {
	e, clock := newTestEngine(t)
	m := mustCreate(t, e, 10_000)
	mustBet(t, e, m.ID, alice, true, 1_00)

	tests := []struct {
		name    string
		prep    func()
		market  uint64
		wallet  common.Address
		amount  int64
		wantErr error
	}{
		{"unknown market", nil, 99, bob, 1_00, domain.ErrMarketNotFound},
		{"zero amount", nil, m.ID, bob, 0, domain.ErrInvalidAmount},
		{"negative amount", nil, m.ID, bob, -5, domain.ErrInvalidAmount},
		{"duplicate same side", nil, m.ID, alice, 2_00, domain.ErrDuplicatePosition},
		{"duplicate other side", nil, m.ID, alice, 50, domain.ErrDuplicatePosition},
		{"betting closed at resolution time", func() { clock.Set(10_000) }, m.ID, bob, 1_00, domain.ErrMarketNotOpen},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.prep != nil {
				tc.prep()
			}
			_, err := e.PlaceBet(tc.market, tc.wallet, true, tc.amount)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("PlaceBet err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestPlaceBetRejectedAfterExit(t *testing.T) {
	e, _ := newTestEngine(t)
	m := mustCreate(t, e, 10_000)
	mustBet(t, e, m.ID, alice, true, 1_00)
	mustBet(t, e, m.ID, bob, false, 1_00)

	if _, err := e.ExitPosition(m.ID, alice); err != nil {
		t.Fatalf("ExitPosition: %v", err)
	}
	// The exited record persists; re-staking is still a duplicate.
	if _, err := e.PlaceBet(m.ID, alice, false, 1_00); !errors.Is(err, domain.ErrDuplicatePosition) {
		t.Errorf("PlaceBet after exit err = %v, want ErrDuplicatePosition", err)
	}
}

func TestPlaceBetRejectedOnSettledMarket(t *testing.T) {
	e, clock := newTestEngine(t)
	m := mustCreate(t, e, 10_000)
	clock.Set(10_000)
	if _, err := e.ResolveMarket(m.ID, true); err != nil {
		t.Fatalf("ResolveMarket: %v", err)
	}
	if _, err := e.PlaceBet(m.ID, alice, true, 1_00); !errors.Is(err, domain.ErrMarketNotOpen) {
		t.Errorf("PlaceBet on resolved market err = %v, want ErrMarketNotOpen", err)
	}
}

func TestGetUserBetZeroValueSentinel(t *testing.T) {
	e, _ := newTestEngine(t)
	m := mustCreate(t, e, 10_000)

	pos, err := e.GetUserBet(m.ID, alice)
	if err != nil {
		t.Fatalf("GetUserBet: %v", err)
	}
	if pos.Amount != 0 || pos.IsYes || pos.Claimed || pos.Exited {
		t.Errorf("no-position sentinel = %+v, want zero value", pos)
	}
	if pos.Exists() {
		t.Error("zero-value position must not report Exists")
	}

	mustBet(t, e, m.ID, alice, true, 42)
	pos, _ = e.GetUserBet(m.ID, alice)
	if pos.Amount != 42 || !pos.IsYes {
		t.Errorf("position = %+v, want yes-side 42", pos)
	}

	if _, err := e.GetUserBet(99, alice); !errors.Is(err, domain.ErrMarketNotFound) {
		t.Errorf("GetUserBet unknown market err = %v, want ErrMarketNotFound", err)
	}
}
