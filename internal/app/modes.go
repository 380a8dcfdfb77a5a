package app

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polymarketbot/internal/executor"
	"github.com/alanyoungcy/polymarketbot/internal/match"
	"github.com/alanyoungcy/polymarketbot/internal/opportunity"
	"github.com/alanyoungcy/polymarketbot/internal/pipeline"
	"github.com/alanyoungcy/polymarketbot/internal/quote"
)

// archiveCron is the fixed schedule the retention archiver runs on: once a
// day, early morning UTC, outside the fast-tick hot path.
const archiveCron = "0 3 * * *"

// ScanMode runs the scanner read-only: markets are matched, quotes fetched,
// and opportunities detected, persisted, and archived, but nothing is ever
// executed. It hands the pipeline no executor, so this mode never touches
// either venue's order-placement path.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	return a.runPipeline(ctx, deps, nil)
}

// PaperMode runs the full pipeline against the wallet-simulated venue
// adapters Wire builds for cfg.Mode == "paper": opportunities are detected,
// sized, and executed against an in-memory paper wallet instead of real
// capital, exercising the exact sizing/book-walk/unwind path LiveMode uses.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	return a.runPipeline(ctx, deps, a.buildExecutor(deps))
}

// LiveMode runs the full pipeline against the real, credentialed venue
// adapters, placing and unwinding real orders.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	return a.runPipeline(ctx, deps, a.buildExecutor(deps))
}

// buildExecutor constructs the executor from the root Exec config section.
func (a *App) buildExecutor(deps *Dependencies) *executor.Executor {
	cfg := executor.Config{
		MaxTradeUSD:       a.cfg.Exec.MaxTradeUSD,
		MaxUnitsPerMarket: a.cfg.Exec.MaxUnitsPerMarket,
		MaxUnitsPerMap:    a.cfg.Exec.MaxUnitsPerMap,
		PolyMinOrderUSD:   a.cfg.Exec.PolyMinOrderUSD,
		Leg1SettleDelay:   a.cfg.Exec.Leg1SettleDelay.Duration,
		UnwindDelay:       a.cfg.Exec.UnwindDelay.Duration,
		UnwindRetryDelay:  a.cfg.Exec.UnwindRetryDelay.Duration,
		UnwindMaxAttempts: a.cfg.Exec.UnwindMaxAttempts,
		CooldownCycles:    a.cfg.Exec.CooldownCycles,
		MinSpreadCents:    a.cfg.Exec.MinSpreadCents,
		VenueATakerFeePct: a.cfg.Exec.VenueATakerFeePct,
	}
	return executor.New(deps.VenueA, deps.VenueB, cfg, a.logger).WithNotifier(deps.Notifier)
}

// runPipeline builds the orchestrator and, when configured, the status
// server and retention archiver, and runs all of them concurrently until
// ctx is cancelled or one of them fails. exec is nil for scan-only mode.
func (a *App) runPipeline(ctx context.Context, deps *Dependencies, exec *executor.Executor) error {
	matchCfg := match.Config{
		SportsToleranceHours: a.cfg.Match.SportsToleranceHours,
		CryptoToleranceHours: a.cfg.Match.CryptoToleranceHours,
		CryptoMatchEnabled:   a.cfg.Match.CryptoMatchEnabled,
	}
	quoteCfg := quote.Config{
		Workers:      a.cfg.Scan.FetchWorkers,
		CallDeadline: a.cfg.Scan.CallDeadline.Duration,
	}
	oppCfg := opportunity.Config{
		MinSpreadCents: a.cfg.Match.MinSpreadCents,
		MinPriceCents:  a.cfg.Match.MinPriceCents,
		Tiers:          opportunity.DefaultTiers(),
	}
	pipelineCfg := pipeline.Config{
		MarketRefreshInterval: a.cfg.Scan.MarketRefreshInterval.Duration,
		PriceTickInterval:     a.cfg.Scan.PriceTickInterval.Duration,
		RefreshBackoff:        a.cfg.Scan.RefreshBackoff.Duration,
		RefreshMaxFailures:    a.cfg.Scan.RefreshMaxFailures,
	}

	orch := pipeline.New(
		deps.VenueA, deps.VenueB,
		matchCfg, quoteCfg, oppCfg,
		nil, // no external schedule-verification gate configured
		exec,
		deps.Opportunities, deps.Trades,
		deps.BlobWriter,
		pipelineCfg,
		a.logger,
	).WithQuoteCache(deps.Quotes).WithLockManager(deps.Lock)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return orch.Run(gctx) })

	if a.cfg.Server.Enabled {
		srv := newStatusServer(deps, a.cfg.Server, a.logger)
		g.Go(func() error { return srv.run(gctx) })
	}

	g.Go(func() error {
		arc := pipeline.NewArchiver(deps.Archiver, a.cfg.S3.RetentionDays, a.logger)
		return arc.RunCron(gctx, archiveCron)
	})

	// Reconciling against on-chain settlement only makes sense once real
	// orders are being placed; scan/paper never touch chain state.
	if strings.ToLower(a.cfg.Mode) == "live" && deps.Goldsky != nil {
		g.Go(func() error {
			rec := pipeline.NewReconciler(deps.Goldsky, deps.Audit, a.logger)
			return rec.Run(gctx, a.cfg.Goldsky.PollInterval.Duration, time.Now().UTC().Add(-time.Hour))
		})
	}

	return g.Wait()
}
