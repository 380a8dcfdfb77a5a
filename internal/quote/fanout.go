// Package quote fans a matched-pair set out to both venues' GetQuote
// calls on every fast tick, bounded to a fixed worker count.
package quote

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// Config bounds the fan-out's concurrency and per-call deadline.
type Config struct {
	Workers      int
	CallDeadline time.Duration
}

// DefaultConfig matches the scan tunables: 20 concurrent fetch workers,
// 2 second per-call deadline.
func DefaultConfig() Config {
	return Config{Workers: 20, CallDeadline: 2 * time.Second}
}

// Fetch fans out to both venues for each matched pair concurrently,
// bounded by cfg.Workers. A venue's quote is nil on error or timeout;
// the pair is never dropped outright here, the opportunity finder skips
// pairs with a nil side.
func Fetch(ctx context.Context, log *slog.Logger, cfg Config, venueA, venueB domain.VenueAdapter, pairs []domain.MatchedPair) []domain.PairQuotes {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	results := make([]domain.PairQuotes, len(pairs))
	sem := make(chan struct{}, cfg.Workers)
	g, gctx := errgroup.WithContext(ctx)

	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return nil
			}
			defer func() { <-sem }()

			results[i] = domain.PairQuotes{
				Pair: pair,
				A:    fetchOne(gctx, log, cfg, venueA, pair.A),
				B:    fetchOne(gctx, log, cfg, venueB, pair.B),
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func fetchOne(ctx context.Context, log *slog.Logger, cfg Config, adapter domain.VenueAdapter, m domain.NormalizedMarket) *domain.Quote {
	callCtx, cancel := context.WithTimeout(ctx, cfg.CallDeadline)
	defer cancel()

	q, err := adapter.GetQuote(callCtx, m)
	if err != nil {
		if log != nil {
			log.Warn("quote fetch failed",
				"venue", adapter.Name(),
				"platform_id", m.PlatformID,
				"error", err,
			)
		}
		return nil
	}
	return &q
}
