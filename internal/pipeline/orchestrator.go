// Package pipeline runs the two-speed scan loop: a slow market-list
// refresh interleaved with a fast price tick, sharing a single
// atomically-swapped matched-pair snapshot.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/executor"
	"github.com/alanyoungcy/polymarketbot/internal/match"
	"github.com/alanyoungcy/polymarketbot/internal/opportunity"
	"github.com/alanyoungcy/polymarketbot/internal/quote"
)

// Config holds the orchestrator's pacing tunables, sourced from the root
// config's ScanConfig section.
type Config struct {
	MarketRefreshInterval time.Duration
	PriceTickInterval     time.Duration
	RefreshBackoff        time.Duration
	RefreshMaxFailures    int
}

// DefaultConfig returns MARKET_REFRESH_SECONDS=7200, PRICE_POLL_SECONDS=2,
// a 30s fixed backoff on refresh failure, aborting after 3 consecutive
// failures.
func DefaultConfig() Config {
	return Config{
		MarketRefreshInterval: 7200 * time.Second,
		PriceTickInterval:     2 * time.Second,
		RefreshBackoff:        30 * time.Second,
		RefreshMaxFailures:    3,
	}
}

// Orchestrator owns the two-speed loop, the shared matched-pair set, and
// drives the executor (nil in scan-only mode). It coordinates the refresh
// and tick goroutines the way the teacher's Orchestrator coordinates its
// scraper/processor/archiver goroutines: one errgroup, one
// ctx.Err()-is-clean-shutdown convention per goroutine.
type Orchestrator struct {
	venueA, venueB domain.VenueAdapter
	matchCfg       match.Config
	quoteCfg       quote.Config
	oppCfg         opportunity.Config
	validator      domain.MatchValidator
	exec           *executor.Executor // nil in scan-only mode

	opps   domain.OpportunityStore
	trades domain.TradeStore
	stream domain.BlobWriter // NDJSON opportunity stream; nil disables archival
	quotes domain.QuoteCache // nil disables the shared quote cache
	lock   domain.LockManager // nil means single-instance, no distributed lock

	cfg Config
	log *slog.Logger

	pairs atomic.Pointer[[]domain.MatchedPair]
}

// New builds an Orchestrator. exec may be nil for scan-only mode, in which
// case opportunities are detected and persisted but never executed.
func New(
	venueA, venueB domain.VenueAdapter,
	matchCfg match.Config,
	quoteCfg quote.Config,
	oppCfg opportunity.Config,
	validator domain.MatchValidator,
	exec *executor.Executor,
	opps domain.OpportunityStore,
	trades domain.TradeStore,
	stream domain.BlobWriter,
	cfg Config,
	log *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		venueA: venueA, venueB: venueB,
		matchCfg: matchCfg, quoteCfg: quoteCfg, oppCfg: oppCfg,
		validator: validator, exec: exec,
		opps: opps, trades: trades, stream: stream,
		cfg: cfg,
		log: log.With(slog.String("component", "orchestrator")),
	}
}

// WithQuoteCache enables mirroring every fetched quote to a shared cache,
// letting an optional status server or websocket bridge read the fleet's
// latest prices without its own venue connections.
func (o *Orchestrator) WithQuoteCache(qc domain.QuoteCache) *Orchestrator {
	o.quotes = qc
	return o
}

// WithLockManager enables serializing the slow market refresh across
// multiple scanner instances sharing one Redis deployment. Without a lock
// manager, refreshOnce just runs unconditionally — correct for a
// single-instance deployment, the only one in scope here.
func (o *Orchestrator) WithLockManager(lm domain.LockManager) *Orchestrator {
	o.lock = lm
	return o
}

// Run starts the refresh and tick loops as concurrent goroutines using an
// errgroup. Either loop returning a non-context error cancels the other
// and Run returns that error; a clean ctx cancellation returns nil.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info("orchestrator starting",
		slog.Duration("market_refresh_interval", o.cfg.MarketRefreshInterval),
		slog.Duration("price_tick_interval", o.cfg.PriceTickInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.runRefreshLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("refresh loop: %w", err)
	})

	g.Go(func() error {
		err := o.runTickLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tick loop: %w", err)
	})

	if err := g.Wait(); err != nil {
		o.log.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.log.Info("orchestrator stopped cleanly")
	return nil
}

// runRefreshLoop runs an immediate refresh, then refreshes again every
// MarketRefreshInterval until ctx is cancelled.
func (o *Orchestrator) runRefreshLoop(ctx context.Context) error {
	o.refreshOnce(ctx)

	ticker := time.NewTicker(o.cfg.MarketRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.refreshOnce(ctx)
		}
	}
}

// refreshOnce pulls both venues, normalizes and matches, and atomically
// publishes the new pair set. It retries up to RefreshMaxFailures times
// with a fixed backoff, keeping the old pair set (not publishing) if all
// attempts fail.
func (o *Orchestrator) refreshOnce(ctx context.Context) {
	if o.lock != nil {
		unlock, err := o.lock.Acquire(ctx, "market_refresh", o.cfg.MarketRefreshInterval/2)
		if err != nil {
			o.log.Info("market refresh skipped, lock held by another instance", slog.String("error", err.Error()))
			return
		}
		defer unlock()
	}

	o.log.Info("market refresh starting")

	var lastErr error
	for attempt := 1; attempt <= o.cfg.RefreshMaxFailures; attempt++ {
		aMarkets, err := o.venueA.ListMarkets(ctx)
		if err == nil {
			var bMarkets []domain.NormalizedMarket
			bMarkets, err = o.venueB.ListMarkets(ctx)
			if err == nil {
				result := match.Find(o.log, o.matchCfg, aMarkets, bMarkets)
				pairs := result.Pairs
				o.pairs.Store(&pairs)
				o.log.Info("market refresh complete",
					slog.Int("venue_a_markets", len(aMarkets)),
					slog.Int("venue_b_markets", len(bMarkets)),
					slog.Int("matched_pairs", len(pairs)))
				if len(pairs) == 0 {
					o.log.Warn("no matched pairs found, verify parsing covers current market types")
				}
				return
			}
		}
		lastErr = err
		o.log.Warn("market refresh attempt failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		if attempt == o.cfg.RefreshMaxFailures {
			break
		}
		select {
		case <-time.After(o.cfg.RefreshBackoff):
		case <-ctx.Done():
			return
		}
	}

	o.log.Error("market refresh aborted after repeated failures, keeping previous pair set",
		slog.Int("attempts", o.cfg.RefreshMaxFailures), slog.String("error", lastErr.Error()))
}

// runTickLoop runs the fast price-poll cycle. Ticks never overlap: if a
// tick exceeds its period, the next tick starts immediately afterward
// (delayed, not dropped) and a backpressure warning is logged.
func (o *Orchestrator) runTickLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		start := time.Now()
		pairsPtr := o.pairs.Load()
		if pairsPtr != nil && len(*pairsPtr) > 0 {
			o.tick(ctx, *pairsPtr)
		}

		elapsed := time.Since(start)
		if elapsed > o.cfg.PriceTickInterval {
			o.log.Warn("tick overran its period, starting next tick immediately",
				slog.Duration("elapsed", elapsed), slog.Duration("period", o.cfg.PriceTickInterval))
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.cfg.PriceTickInterval - elapsed):
		}
	}
}

// tick fans out quotes for the current pair snapshot, detects
// opportunities, persists every opportunity, submits non-cooldown ones to
// the executor (if trading is enabled), and archives the tick's
// opportunities to the NDJSON stream.
func (o *Orchestrator) tick(ctx context.Context, pairs []domain.MatchedPair) {
	if o.exec != nil {
		o.exec.Tick()
	}

	pairQuotes := quote.Fetch(ctx, o.log, o.quoteCfg, o.venueA, o.venueB, pairs)
	now := time.Now().UTC()
	if o.quotes != nil {
		o.mirrorQuotes(ctx, pairQuotes, now)
	}
	opps := opportunity.Find(ctx, o.log, o.oppCfg, o.validator, pairQuotes, now)
	if len(opps) == 0 {
		return
	}

	streamed := make([]domain.PersistedOpportunity, 0, len(opps))
	for _, opp := range opps {
		persisted := toPersisted(opp, now)
		id, err := o.opps.Create(ctx, persisted)
		if err != nil {
			o.log.Warn("persist opportunity failed", slog.String("pair", opp.Pair.Key()), slog.String("error", err.Error()))
			continue
		}
		persisted.ID = id
		streamed = append(streamed, persisted)

		if o.exec == nil {
			continue
		}
		if o.exec.OnCooldown(opp.Pair) {
			o.log.Info("execution skipped (cooldown)", slog.String("pair", opp.Pair.Key()))
			continue
		}

		trade := o.exec.Execute(ctx, opp)
		trade.OpportunityID = id
		if _, err := o.trades.Create(ctx, trade); err != nil {
			o.log.Warn("persist trade failed", slog.String("pair", opp.Pair.Key()), slog.String("error", err.Error()))
		}
		if err := o.opps.MarkExecuted(ctx, id); err != nil {
			o.log.Warn("mark opportunity executed failed", slog.Int64("opportunity_id", id), slog.String("error", err.Error()))
		}
		if trade.Status == domain.TradeStatusPartialStuck {
			o.log.Error("partial stuck position", slog.String("pair", opp.Pair.Key()), slog.Int("units", trade.AFilled))
		}
	}

	if o.stream != nil && len(streamed) > 0 {
		if err := o.writeStreamTick(ctx, now, streamed); err != nil {
			o.log.Warn("ndjson stream write failed", slog.String("error", err.Error()))
		}
	}
}

// mirrorQuotes writes every non-nil quote from this tick into the shared
// cache so an optional status server can read live prices without its own
// venue connections. Cache write failures are logged at debug and never
// affect the tick's trading decisions.
func (o *Orchestrator) mirrorQuotes(ctx context.Context, pairQuotes []domain.PairQuotes, ts time.Time) {
	for _, pq := range pairQuotes {
		if pq.A != nil {
			if err := o.quotes.SetQuote(ctx, pq.Pair.A.Venue, pq.Pair.A.PlatformID, *pq.A, ts); err != nil {
				o.log.Debug("quote cache write failed", slog.String("platform_id", pq.Pair.A.PlatformID), slog.String("error", err.Error()))
			}
		}
		if pq.B != nil {
			if err := o.quotes.SetQuote(ctx, pq.Pair.B.Venue, pq.Pair.B.PlatformID, *pq.B, ts); err != nil {
				o.log.Debug("quote cache write failed", slog.String("platform_id", pq.Pair.B.PlatformID), slog.String("error", err.Error()))
			}
		}
	}
}

func toPersisted(opp domain.Opportunity, scannedAt time.Time) domain.PersistedOpportunity {
	return domain.PersistedOpportunity{
		ScannedAt:          scannedAt,
		PairKey:            opp.Pair.Key(),
		Strategy:           opp.Strategy,
		ACostCents:         opp.ACostCents,
		BCostCents:         opp.BCostCents,
		SpreadCents:        opp.SpreadCents,
		Tier:               opp.Tier,
		ADepthShares:       opp.ADepthShares,
		BDepthShares:       opp.BDepthShares,
		TradeableUnits:     opp.TradeableUnits,
		MaxLockedProfitUSD: opp.MaxLockedProfitUSD,
		HoursToClose:       opp.HoursToClose,
	}
}

type tickRecord struct {
	ScanTimestamp    time.Time                    `json:"scan_timestamp"`
	OpportunityCount int                          `json:"opportunity_count"`
	Opportunities    []domain.PersistedOpportunity `json:"opportunities"`
}

// writeStreamTick uploads one tick that produced at least one opportunity
// as its own single-line NDJSON object (opportunities/{date}/{time}.ndjson)
// directly through the BlobWriter, rather than buffering to a local file.
// Lines are not appended to a shared file; each tick is a separate object.
func (o *Orchestrator) writeStreamTick(ctx context.Context, scanTS time.Time, opps []domain.PersistedOpportunity) error {
	rec := tickRecord{ScanTimestamp: scanTS, OpportunityCount: len(opps), Opportunities: opps}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal tick record: %w", err)
	}
	line = append(line, '\n')

	path := fmt.Sprintf("opportunities/%s/%s.ndjson", scanTS.Format("2006-01-02"), scanTS.Format("150405.000000000"))
	if err := o.stream.Put(ctx, path, bytes.NewReader(line), "application/x-ndjson"); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}
