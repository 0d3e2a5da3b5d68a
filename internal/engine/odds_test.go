package engine

import (
	"errors"
	"testing"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

func TestOddsFromPools(t *testing.T) {
	tests := []struct {
		name    string
		yes, no int64
		wantYes int64
	}{
		{"both empty", 0, 0, 50},
		{"equal pools", 1_00, 1_00, 50},
		{"yes heavy", 3_00, 1_00, 75},
		{"no heavy", 1_00, 3_00, 25},
		{"all yes", 5_00, 0, 100},
		{"all no", 0, 5_00, 0},
		{"rounding up", 2, 1, 67},
		{"rounding down", 1, 2, 33},
		{"tiny vs huge", 1, 1_000_000, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			yes, no := oddsFromPools(tc.yes, tc.no)
			if yes != tc.wantYes {
				t.Errorf("yes = %d, want %d", yes, tc.wantYes)
			}
			if yes+no != 100 {
				t.Errorf("yes+no = %d, want exactly 100", yes+no)
			}
		})
	}
}

func TestOddsScenarioEqualPools(t *testing.T) {
	e, _ := newTestEngine(t)
	m := mustCreate(t, e, 10_000)
	mustBet(t, e, m.ID, alice, true, 1_00)
	mustBet(t, e, m.ID, bob, false, 1_00)

	yes, no, err := e.Odds(m.ID)
	if err != nil {
		t.Fatalf("Odds: %v", err)
	}
	if yes != 50 || no != 50 {
		t.Errorf("Odds = (%d, %d), want (50, 50)", yes, no)
	}
}

func TestPotentialPayoutScenario(t *testing.T) {
	e, _ := newTestEngine(t)
	m := mustCreate(t, e, 10_000)
	mustBet(t, e, m.ID, alice, true, 3_00)
	mustBet(t, e, m.ID, bob, false, 1_00)

	// A new yes stake of 1_00 joins a 3_00 yes pool against 1_00 no:
	// 1_00 + floor(1_00 * 1_00 / 4_00) = 1_25.
	got, err := e.PotentialPayout(m.ID, true, 1_00)
	if err != nil {
		t.Fatalf("PotentialPayout: %v", err)
	}
	if got != 1_25 {
		t.Errorf("PotentialPayout = %d, want 125", got)
	}
}

func TestPotentialPayoutNeverBelowStake(t *testing.T) {
	e, _ := newTestEngine(t)
	m := mustCreate(t, e, 10_000)

	// Empty opposing pool degenerates to the stake itself.
	if got, _ := e.PotentialPayout(m.ID, true, 7_00); got != 7_00 {
		t.Errorf("payout with empty opposing pool = %d, want 700", got)
	}

	mustBet(t, e, m.ID, alice, true, 9_00)
	mustBet(t, e, m.ID, bob, false, 1_00)

	amounts := []int64{1, 3, 99, 1_00, 12_345, 1_000_000_000}
	for _, isYes := range []bool{true, false} {
		for _, amount := range amounts {
			got, err := e.PotentialPayout(m.ID, isYes, amount)
			if err != nil {
				t.Fatalf("PotentialPayout(%v, %d): %v", isYes, amount, err)
			}
			if got < amount {
				t.Errorf("PotentialPayout(%v, %d) = %d, below stake", isYes, amount, got)
			}
		}
	}
}

func TestPotentialPayoutValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	m := mustCreate(t, e, 10_000)

	if _, err := e.PotentialPayout(m.ID, true, 0); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("zero amount err = %v, want ErrInvalidAmount", err)
	}
	if _, err := e.PotentialPayout(99, true, 1); !errors.Is(err, domain.ErrMarketNotFound) {
		t.Errorf("unknown market err = %v, want ErrMarketNotFound", err)
	}
}

func TestMulDivLargeOperands(t *testing.T) {
	// Products beyond int64 range must not overflow.
	const big = int64(4_000_000_000_000_000_000)
	if got := mulDiv(big, 3, 4); got != 3_000_000_000_000_000_000 {
		t.Errorf("mulDiv(big, 3, 4) = %d", got)
	}
	if got := mulDiv(big, big/2, big); got != big/2 {
		t.Errorf("mulDiv(big, big/2, big) = %d, want %d", got, big/2)
	}
}
