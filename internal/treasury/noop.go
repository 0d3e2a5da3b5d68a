package treasury

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// NoopAuthorizer issues unsigned vouchers. It is used when no treasury key
// is configured, keeping settlement bookkeeping intact while leaving the
// authorization step to an external system.
type NoopAuthorizer struct {
	now func() int64
}

// NewNoopAuthorizer creates a NoopAuthorizer.
func NewNoopAuthorizer() *NoopAuthorizer {
	return &NoopAuthorizer{now: func() int64 { return time.Now().Unix() }}
}

// Authorize returns an unsigned voucher for the given payout.
func (a *NoopAuthorizer) Authorize(ctx context.Context, marketID uint64, to common.Address, amount int64, reason string) (domain.PayoutVoucher, error) {
	if amount <= 0 {
		return domain.PayoutVoucher{}, fmt.Errorf("treasury: authorize market %d: %w", marketID, domain.ErrInvalidAmount)
	}
	return domain.PayoutVoucher{
		ID:       uuid.New().String(),
		MarketID: marketID,
		To:       to,
		Amount:   amount,
		Reason:   reason,
		IssuedAt: a.now(),
	}, nil
}

// Compile-time interface check.
var _ domain.PayoutAuthorizer = (*NoopAuthorizer)(nil)
