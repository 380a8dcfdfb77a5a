package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// QuoteCache implements domain.QuoteCache using one Redis string key per
// market, storing the quote as JSON alongside its fetch timestamp. It bridges an
// optional websocket feed and the fast-tick poll fallback: either path
// writes here, and the tick loop reads whichever is freshest.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client. ttl of
// zero disables expiry.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func quoteKey(venue domain.Venue, platformID string) string {
	return "quote:" + string(venue) + ":" + platformID
}

type quoteRecord struct {
	Quote domain.Quote `json:"quote"`
	TS    time.Time    `json:"ts"`
}

// SetQuote stores the latest quote for one venue market.
func (qc *QuoteCache) SetQuote(ctx context.Context, venue domain.Venue, platformID string, q domain.Quote, ts time.Time) error {
	data, err := json.Marshal(quoteRecord{Quote: q, TS: ts})
	if err != nil {
		return fmt.Errorf("redis: marshal quote %s/%s: %w", venue, platformID, err)
	}
	key := quoteKey(venue, platformID)
	if err := qc.rdb.Set(ctx, key, data, qc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s/%s: %w", venue, platformID, err)
	}
	return nil
}

// GetQuote retrieves the latest cached quote for one venue market. It
// returns domain.ErrNotFound when no quote has been cached yet.
func (qc *QuoteCache) GetQuote(ctx context.Context, venue domain.Venue, platformID string) (domain.Quote, time.Time, error) {
	key := quoteKey(venue, platformID)
	data, err := qc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.Quote{}, time.Time{}, domain.ErrNotFound
		}
		return domain.Quote{}, time.Time{}, fmt.Errorf("redis: get quote %s/%s: %w", venue, platformID, err)
	}

	var rec quoteRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Quote{}, time.Time{}, fmt.Errorf("redis: unmarshal quote %s/%s: %w", venue, platformID, err)
	}
	return rec.Quote, rec.TS, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
