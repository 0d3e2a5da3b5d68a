package engine

import (
	"errors"
	"testing"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

func TestOutcomeFromMeasurement(t *testing.T) {
	tests := []struct {
		name      string
		op        domain.Operator
		measured  int64
		threshold int64
		want      bool
	}{
		{"above true", domain.OperatorAbove, 5_01, 5_00, true},
		{"above false", domain.OperatorAbove, 4_99, 5_00, false},
		{"above equality is false", domain.OperatorAbove, 5_00, 5_00, false},
		{"below true", domain.OperatorBelow, 4_99, 5_00, true},
		{"below false", domain.OperatorBelow, 5_01, 5_00, false},
		{"below equality is false", domain.OperatorBelow, 5_00, 5_00, false},
		{"zero threshold above", domain.OperatorAbove, 1, 0, true},
		{"zero measurement below", domain.OperatorBelow, 0, 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := OutcomeFromMeasurement(tc.op, tc.measured, tc.threshold); got != tc.want {
				t.Errorf("OutcomeFromMeasurement(%v, %d, %d) = %v, want %v",
					tc.op, tc.measured, tc.threshold, got, tc.want)
			}
		})
	}
}

func TestResolveMarketTransitions(t *testing.T) {
	e, clock := newTestEngine(t)
	m := mustCreate(t, e, 10_000)

	if _, err := e.ResolveMarket(m.ID, true); !errors.Is(err, domain.ErrTooEarly) {
		t.Errorf("resolve before resolution time err = %v, want ErrTooEarly", err)
	}

	clock.Set(10_000)
	got, err := e.ResolveMarket(m.ID, true)
	if err != nil {
		t.Fatalf("ResolveMarket: %v", err)
	}
	if got.Status != domain.MarketResolved || !got.Outcome {
		t.Errorf("resolved market = %+v, want resolved/true", got)
	}

	// Terminal: a second resolution or a cancellation must fail.
	if _, err := e.ResolveMarket(m.ID, false); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("second resolve err = %v, want ErrAlreadyResolved", err)
	}
	if _, err := e.CancelMarket(m.ID); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("cancel after resolve err = %v, want ErrAlreadyResolved", err)
	}

	if _, err := e.ResolveMarket(99, true); !errors.Is(err, domain.ErrMarketNotFound) {
		t.Errorf("resolve unknown market err = %v, want ErrMarketNotFound", err)
	}
}

// Resolving sweeps the platform's share of the fee surplus out of the
// reserve; the winner's claim then distributes exactly what remains.
func TestResolveMarketSweepsPlatformFee(t *testing.T) {
	clock := &testClock{now: 1_000}
	e := New(Config{PlatformFeePercent: 50}, WithClock(clock.Now))
	m := mustCreate(t, e, 11_000)
	mustBet(t, e, m.ID, alice, true, 100_00)
	mustBet(t, e, m.ID, bob, false, 50)

	// A heavy position exiting against a thin opposing pool retains more
	// fee than its exit drains, leaving a surplus in the reserve. At the
	// 2% creation-time fee alice's quote is 100_50 paying 98_49, so the
	// reserve gains 2_01 against a 50 drain.
	exit, err := e.ExitPosition(m.ID, alice)
	if err != nil {
		t.Fatalf("ExitPosition: %v", err)
	}
	if exit.FeeRetained != 2_01 {
		t.Fatalf("fee retained = %d, want 201", exit.FeeRetained)
	}

	clock.Set(11_000)
	if _, err := e.ResolveMarket(m.ID, false); err != nil {
		t.Fatalf("ResolveMarket: %v", err)
	}

	rec, err := e.SnapshotMarket(m.ID)
	if err != nil {
		t.Fatalf("SnapshotMarket: %v", err)
	}
	// Surplus was 201 - 50 = 151; the platform takes half, floored.
	if rec.FeesCollected != 75 {
		t.Errorf("fees collected = %d, want 75", rec.FeesCollected)
	}
	if rec.FeeReserve < rec.YesDrain+rec.NoDrain {
		t.Errorf("fee reserve %d does not cover drains %d+%d", rec.FeeReserve, rec.YesDrain, rec.NoDrain)
	}

	claim, err := e.ClaimWinnings(m.ID, bob)
	if err != nil {
		t.Fatalf("ClaimWinnings: %v", err)
	}
	// Exit payout, winner payout and platform cut account for every
	// deposited unit.
	if total := exit.Quote.Payout + claim.Payout + rec.FeesCollected; total != 100_50 {
		t.Errorf("accounted value = %d, want the 10050 deposited", total)
	}
}

func TestCancelMarketBeforeResolutionTime(t *testing.T) {
	e, clock := newTestEngine(t)
	m := mustCreate(t, e, 10_000)

	got, err := e.CancelMarket(m.ID)
	if err != nil {
		t.Fatalf("CancelMarket: %v", err)
	}
	if got.Status != domain.MarketCancelled {
		t.Errorf("status = %v, want cancelled", got.Status)
	}

	// Terminal the other way round too.
	clock.Set(10_000)
	if _, err := e.ResolveMarket(m.ID, true); !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Errorf("resolve after cancel err = %v, want ErrAlreadyResolved", err)
	}
}
