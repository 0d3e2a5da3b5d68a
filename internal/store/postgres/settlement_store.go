package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// SettlementStore implements domain.SettlementStore using PostgreSQL. The
// settlements table is append-only: one row per claim, exit, or refund.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore creates a new SettlementStore backed by the given
// connection pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Insert appends one settlement row.
func (s *SettlementStore) Insert(ctx context.Context, rec domain.SettlementRecord) error {
	const query = `
		INSERT INTO settlements (
			id, market_id, wallet, kind,
			stake, payout, fee_percent, voucher_id, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9
		)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.MarketID, rec.Wallet.Hex(), string(rec.Kind),
		rec.Stake, rec.Payout, rec.FeePercent, rec.VoucherID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert settlement %s: %w", rec.ID, err)
	}
	return nil
}

// ListByMarket returns the settlement history of one market in insertion
// order.
func (s *SettlementStore) ListByMarket(ctx context.Context, marketID uint64) ([]domain.SettlementRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, wallet, kind,
		        stake, payout, fee_percent, voucher_id, created_at
		 FROM settlements
		 WHERE market_id = $1
		 ORDER BY created_at`, marketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settlements for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var records []domain.SettlementRecord
	for rows.Next() {
		var rec domain.SettlementRecord
		var wallet, kind string
		if err := rows.Scan(
			&rec.ID, &rec.MarketID, &wallet, &kind,
			&rec.Stake, &rec.Payout, &rec.FeePercent, &rec.VoucherID, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan settlement: %w", err)
		}
		rec.Wallet = common.HexToAddress(wallet)
		rec.Kind = domain.SettlementKind(kind)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list settlements rows: %w", err)
	}
	return records, nil
}

// SumPayouts returns the total value already paid out for one market across
// all settlement kinds.
func (s *SettlementStore) SumPayouts(ctx context.Context, marketID uint64) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(payout), 0) FROM settlements WHERE market_id = $1`,
		marketID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum payouts for market %d: %w", marketID, err)
	}
	return total, nil
}
