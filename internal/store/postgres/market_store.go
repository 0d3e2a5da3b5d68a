package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, city, condition, operator, threshold,
	resolution_time, created_at, total_yes_pool, total_no_pool,
	status, outcome, creator,
	yes_drain, no_drain, fee_reserve, fees_collected`

// Upsert inserts or updates a single market projection row.
func (s *MarketStore) Upsert(ctx context.Context, rec domain.MarketRecord) error {
	const query = `
		INSERT INTO markets (
			id, city, condition, operator, threshold,
			resolution_time, created_at, total_yes_pool, total_no_pool,
			status, outcome, creator,
			yes_drain, no_drain, fee_reserve, fees_collected, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			total_yes_pool = EXCLUDED.total_yes_pool,
			total_no_pool  = EXCLUDED.total_no_pool,
			status         = EXCLUDED.status,
			outcome        = EXCLUDED.outcome,
			yes_drain      = EXCLUDED.yes_drain,
			no_drain       = EXCLUDED.no_drain,
			fee_reserve    = EXCLUDED.fee_reserve,
			fees_collected = EXCLUDED.fees_collected,
			updated_at     = NOW()`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.City, int16(rec.Condition), int16(rec.Operator), rec.Threshold,
		rec.ResolutionTime, rec.CreatedAt, rec.TotalYesPool, rec.TotalNoPool,
		int16(rec.Status), rec.Outcome, rec.Creator.Hex(),
		rec.YesDrain, rec.NoDrain, rec.FeeReserve, rec.FeesCollected,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert market %d: %w", rec.ID, err)
	}
	return nil
}

// scanMarket scans a single market row into a domain.MarketRecord.
func scanMarket(row pgx.Row) (domain.MarketRecord, error) {
	var rec domain.MarketRecord
	var condition, operator, status int16
	var creator string
	err := row.Scan(
		&rec.ID, &rec.City, &condition, &operator, &rec.Threshold,
		&rec.ResolutionTime, &rec.CreatedAt, &rec.TotalYesPool, &rec.TotalNoPool,
		&status, &rec.Outcome, &creator,
		&rec.YesDrain, &rec.NoDrain, &rec.FeeReserve, &rec.FeesCollected,
	)
	if err != nil {
		return domain.MarketRecord{}, err
	}
	rec.Condition = domain.WeatherCondition(condition)
	rec.Operator = domain.Operator(operator)
	rec.Status = domain.MarketStatus(status)
	rec.Creator = common.HexToAddress(creator)
	return rec, nil
}

// GetByID retrieves a market projection by its primary key.
func (s *MarketStore) GetByID(ctx context.Context, id uint64) (domain.MarketRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	rec, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.MarketRecord{}, domain.ErrNotFound
		}
		return domain.MarketRecord{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return rec, nil
}

// ListAll returns every market ordered by id, used to rehydrate the engine
// at startup.
func (s *MarketStore) ListAll(ctx context.Context) ([]domain.MarketRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+marketCols+` FROM markets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var records []domain.MarketRecord
	for rows.Next() {
		rec, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return records, nil
}

// Count returns the total number of markets in the database.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}
