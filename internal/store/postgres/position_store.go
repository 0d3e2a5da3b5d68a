package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionCols = `market_id, wallet, amount, is_yes,
	claimed, exited, exited_amount, placed_at`

func scanPosition(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	var wallet string
	err := row.Scan(
		&p.MarketID, &wallet, &p.Amount, &p.IsYes,
		&p.Claimed, &p.Exited, &p.ExitedAmount, &p.PlacedAt,
	)
	if err != nil {
		return domain.Position{}, err
	}
	p.Wallet = common.HexToAddress(wallet)
	return p, nil
}

func scanPositions(rows pgx.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Upsert inserts or updates one (market, wallet) position row.
func (s *PositionStore) Upsert(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			market_id, wallet, amount, is_yes,
			claimed, exited, exited_amount, placed_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, NOW()
		)
		ON CONFLICT (market_id, wallet) DO UPDATE SET
			amount        = EXCLUDED.amount,
			claimed       = EXCLUDED.claimed,
			exited        = EXCLUDED.exited,
			exited_amount = EXCLUDED.exited_amount,
			updated_at    = NOW()`

	_, err := s.pool.Exec(ctx, query,
		p.MarketID, p.Wallet.Hex(), p.Amount, p.IsYes,
		p.Claimed, p.Exited, p.ExitedAmount, p.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert position %d/%s: %w", p.MarketID, p.Wallet.Hex(), err)
	}
	return nil
}

// Get retrieves a single position by market and wallet.
func (s *PositionStore) Get(ctx context.Context, marketID uint64, wallet common.Address) (domain.Position, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+positionCols+` FROM positions WHERE market_id = $1 AND wallet = $2`,
		marketID, wallet.Hex())

	p, err := scanPosition(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %d/%s: %w", marketID, wallet.Hex(), err)
	}
	return p, nil
}

// ListByMarket returns every position in a market ordered by placement time.
func (s *PositionStore) ListByMarket(ctx context.Context, marketID uint64) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionCols+` FROM positions
		 WHERE market_id = $1
		 ORDER BY placed_at`, marketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for market %d: %w", marketID, err)
	}
	defer rows.Close()

	positions, err := scanPositions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan positions for market %d: %w", marketID, err)
	}
	return positions, nil
}

// ListByWallet returns a wallet's positions across markets, newest first.
func (s *PositionStore) ListByWallet(ctx context.Context, wallet common.Address, opts domain.ListOpts) ([]domain.Position, error) {
	query := `SELECT ` + positionCols + ` FROM positions WHERE wallet = $1 ORDER BY placed_at DESC`
	args := []any{wallet.Hex()}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for wallet %s: %w", wallet.Hex(), err)
	}
	defer rows.Close()

	positions, err := scanPositions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan positions for wallet %s: %w", wallet.Hex(), err)
	}
	return positions, nil
}

// ListAll returns every position ordered by market then placement time,
// used to rehydrate the engine at startup.
func (s *PositionStore) ListAll(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionCols+` FROM positions ORDER BY market_id, placed_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list all positions: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositions(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan all positions: %w", err)
	}
	return positions, nil
}
