package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `id, opportunity_id, traded_at, pair_key, venue_a_side, venue_b_side,
	requested_units, a_filled, b_filled, a_price_cents, b_price_cents,
	a_cost_usd, b_cost_usd, total_cost_usd, locked_profit_usd, a_fee_usd,
	net_profit_usd, a_order_id, b_order_id, status, reason, a_bal_before, b_bal_before`

func scanTrade(row pgx.Row) (domain.Trade, error) {
	var t domain.Trade
	err := row.Scan(
		&t.ID, &t.OpportunityID, &t.TradedAt, &t.PairKey, &t.VenueASide, &t.VenueBSide,
		&t.RequestedUnits, &t.AFilled, &t.BFilled, &t.APriceCents, &t.BPriceCents,
		&t.ACostUSD, &t.BCostUSD, &t.TotalCostUSD, &t.LockedProfitUSD, &t.AFeeUSD,
		&t.NetProfitUSD, &t.AOrderID, &t.BOrderID, &t.Status, &t.Reason, &t.ABalBefore, &t.BBalBefore,
	)
	return t, err
}

// Create inserts a new trade row and returns its id.
func (s *TradeStore) Create(ctx context.Context, t domain.Trade) (int64, error) {
	const query = `
		INSERT INTO trades (
			opportunity_id, traded_at, pair_key, venue_a_side, venue_b_side,
			requested_units, a_filled, b_filled, a_price_cents, b_price_cents,
			a_cost_usd, b_cost_usd, total_cost_usd, locked_profit_usd, a_fee_usd,
			net_profit_usd, a_order_id, b_order_id, status, reason, a_bal_before, b_bal_before
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22
		) RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		nullableID(t.OpportunityID), t.TradedAt, t.PairKey, t.VenueASide, t.VenueBSide,
		t.RequestedUnits, t.AFilled, t.BFilled, t.APriceCents, t.BPriceCents,
		t.ACostUSD, t.BCostUSD, t.TotalCostUSD, t.LockedProfitUSD, t.AFeeUSD,
		t.NetProfitUSD, t.AOrderID, t.BOrderID, t.Status, t.Reason, t.ABalBefore, t.BBalBefore,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create trade: %w", err)
	}
	return id, nil
}

// nullableID treats a zero opportunity id as NULL, so a trade created
// without a persisted opportunity row stores no foreign key.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// ListRecent returns trades ordered most-recent-first with pagination and
// optional time filtering.
func (s *TradeStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND traded_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND traded_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY traded_at DESC"

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
		return nil, fmt.Errorf("postgres: list recent trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// SumNetProfit sums net_profit_usd across every trade traded at or after
// since.
func (s *TradeStore) SumNetProfit(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(net_profit_usd), 0) FROM trades WHERE traded_at >= $1`,
		since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum net profit: %w", err)
	}
	return total, nil
}

// ListBefore returns trades traded strictly before the given time, oldest
// first, for cold-storage archival.
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE traded_at < $1 ORDER BY traded_at ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DeleteBefore deletes trades traded before the given time. Returns the
// number of rows removed.
func (s *TradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE traded_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before: %w", err)
	}
	return tag.RowsAffected(), nil
}
