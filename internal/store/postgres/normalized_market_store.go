package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// NormalizedMarketStore implements domain.NormalizedMarketStore using
// PostgreSQL. It holds a last-known-normalized snapshot per venue market.
// The orchestrator does not call UpsertBatch, so rows change only when some
// other caller writes them.
type NormalizedMarketStore struct {
	pool *pgxpool.Pool
}

// NewNormalizedMarketStore creates a new NormalizedMarketStore backed by the
// given connection pool.
func NewNormalizedMarketStore(pool *pgxpool.Pool) *NormalizedMarketStore {
	return &NormalizedMarketStore{pool: pool}
}

const marketSelectCols = `venue, platform_id, platform_url, raw_title, asset_class,
	sport, team, opponent, sport_subtype, map_number,
	crypto_asset, direction, threshold, resolution_dt,
	yes_token, no_token, liquidity_usd, volume_usd`

func scanMarket(row pgx.Row) (domain.NormalizedMarket, error) {
	var m domain.NormalizedMarket
	err := row.Scan(
		&m.Venue, &m.PlatformID, &m.PlatformURL, &m.RawTitle, &m.AssetClass,
		&m.Sport, &m.Team, &m.Opponent, &m.SportSubtype, &m.MapNumber,
		&m.CryptoAsset, &m.Direction, &m.Threshold, &m.ResolutionDT,
		&m.YesToken, &m.NoToken, &m.LiquidityUSD, &m.VolumeUSD,
	)
	return m, err
}

// UpsertBatch replaces the stored snapshot for each market, keyed by
// (venue, platform_id). Live pricing fields are intentionally not
// persisted — this table is not a price source.
func (s *NormalizedMarketStore) UpsertBatch(ctx context.Context, markets []domain.NormalizedMarket) error {
	if len(markets) == 0 {
		return nil
	}

	const query = `
		INSERT INTO normalized_markets (
			venue, platform_id, platform_url, raw_title, asset_class,
			sport, team, opponent, sport_subtype, map_number,
			crypto_asset, direction, threshold, resolution_dt,
			yes_token, no_token, liquidity_usd, volume_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (venue, platform_id) DO UPDATE SET
			platform_url = EXCLUDED.platform_url,
			raw_title = EXCLUDED.raw_title,
			asset_class = EXCLUDED.asset_class,
			sport = EXCLUDED.sport,
			team = EXCLUDED.team,
			opponent = EXCLUDED.opponent,
			sport_subtype = EXCLUDED.sport_subtype,
			map_number = EXCLUDED.map_number,
			crypto_asset = EXCLUDED.crypto_asset,
			direction = EXCLUDED.direction,
			threshold = EXCLUDED.threshold,
			resolution_dt = EXCLUDED.resolution_dt,
			yes_token = EXCLUDED.yes_token,
			no_token = EXCLUDED.no_token,
			liquidity_usd = EXCLUDED.liquidity_usd,
			volume_usd = EXCLUDED.volume_usd`

	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(query,
			m.Venue, m.PlatformID, m.PlatformURL, m.RawTitle, m.AssetClass,
			m.Sport, m.Team, m.Opponent, m.SportSubtype, m.MapNumber,
			m.CryptoAsset, m.Direction, m.Threshold, m.ResolutionDT,
			m.YesToken, m.NoToken, m.LiquidityUSD, m.VolumeUSD,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert normalized market batch item %d: %w", i, err)
		}
	}
	return nil
}

// GetByPlatformID returns the stored snapshot for one market.
func (s *NormalizedMarketStore) GetByPlatformID(ctx context.Context, venue domain.Venue, platformID string) (domain.NormalizedMarket, error) {
	query := `SELECT ` + marketSelectCols + ` FROM normalized_markets WHERE venue = $1 AND platform_id = $2`
	m, err := scanMarket(s.pool.QueryRow(ctx, query, venue, platformID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.NormalizedMarket{}, fmt.Errorf("postgres: get market %s/%s: %w", venue, platformID, domain.ErrNotFound)
		}
		return domain.NormalizedMarket{}, fmt.Errorf("postgres: get market %s/%s: %w", venue, platformID, err)
	}
	return m, nil
}

// ListByVenue returns every stored market for one venue.
func (s *NormalizedMarketStore) ListByVenue(ctx context.Context, venue domain.Venue) ([]domain.NormalizedMarket, error) {
	query := `SELECT ` + marketSelectCols + ` FROM normalized_markets WHERE venue = $1 ORDER BY platform_id`
	rows, err := s.pool.Query(ctx, query, venue)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets for venue %s: %w", venue, err)
	}
	defer rows.Close()

	var markets []domain.NormalizedMarket
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}
