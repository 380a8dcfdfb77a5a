package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PairCooldownStore implements domain.PairCooldownStore using PostgreSQL.
// It stores each pair's ready-at cycle. Nothing in the executor or the
// orchestrator writes or reads it: the executor's in-process cooldown map
// is the only cooldown state consulted, and it starts empty on each run.
type PairCooldownStore struct {
	pool *pgxpool.Pool
}

// NewPairCooldownStore creates a new PairCooldownStore backed by the given
// connection pool.
func NewPairCooldownStore(pool *pgxpool.Pool) *PairCooldownStore {
	return &PairCooldownStore{pool: pool}
}

// UpsertCooldown records the cycle at which a pair's cooldown ends.
func (s *PairCooldownStore) UpsertCooldown(ctx context.Context, pairKey string, readyAtCycle int64) error {
	const query = `
		INSERT INTO pair_cooldowns (pair_key, ready_at_cycle, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (pair_key) DO UPDATE SET
			ready_at_cycle = EXCLUDED.ready_at_cycle,
			updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, query, pairKey, readyAtCycle); err != nil {
		return fmt.Errorf("postgres: upsert cooldown for %s: %w", pairKey, err)
	}
	return nil
}

// LoadAll returns every stored pair key mapped to its ready-at cycle. No
// caller in this module uses it.
func (s *PairCooldownStore) LoadAll(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT pair_key, ready_at_cycle FROM pair_cooldowns`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load cooldowns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var cycle int64
		if err := rows.Scan(&key, &cycle); err != nil {
			return nil, fmt.Errorf("postgres: scan cooldown row: %w", err)
		}
		out[key] = cycle
	}
	return out, rows.Err()
}
