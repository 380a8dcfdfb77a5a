package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const oppSelectCols = `id, scanned_at, pair_key, strategy, a_cost_cents, b_cost_cents,
	spread_cents, tier, a_depth_shares, b_depth_shares, tradeable_units,
	max_locked_profit_usd, hours_to_close, executed`

func scanOpportunity(row pgx.Row) (domain.PersistedOpportunity, error) {
	var o domain.PersistedOpportunity
	err := row.Scan(
		&o.ID, &o.ScannedAt, &o.PairKey, &o.Strategy, &o.ACostCents, &o.BCostCents,
		&o.SpreadCents, &o.Tier, &o.ADepthShares, &o.BDepthShares, &o.TradeableUnits,
		&o.MaxLockedProfitUSD, &o.HoursToClose, &o.Executed,
	)
	return o, err
}

// Create inserts a new opportunity row and returns its id.
func (s *OpportunityStore) Create(ctx context.Context, opp domain.PersistedOpportunity) (int64, error) {
	const query = `
		INSERT INTO opportunities (
			scanned_at, pair_key, strategy, a_cost_cents, b_cost_cents,
			spread_cents, tier, a_depth_shares, b_depth_shares, tradeable_units,
			max_locked_profit_usd, hours_to_close, executed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		opp.ScannedAt, opp.PairKey, opp.Strategy, opp.ACostCents, opp.BCostCents,
		opp.SpreadCents, opp.Tier, opp.ADepthShares, opp.BDepthShares, opp.TradeableUnits,
		opp.MaxLockedProfitUSD, opp.HoursToClose, opp.Executed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create opportunity: %w", err)
	}
	return id, nil
}

// MarkExecuted flags an opportunity row as having produced a trade attempt.
func (s *OpportunityStore) MarkExecuted(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE opportunities SET executed = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark opportunity %d executed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: mark opportunity %d executed: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListRecent returns opportunities ordered most-recent-first with pagination
// and optional time filtering.
func (s *OpportunityStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.PersistedOpportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND scanned_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND scanned_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY scanned_at DESC"

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
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.PersistedOpportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opps = append(opps, o)
	}
	return opps, rows.Err()
}
