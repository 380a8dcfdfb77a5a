// Package executor runs the two-leg execution flow for a detected
// Opportunity: size the trade, place venue-A then venue-B, and unwind
// venue-A on a leg-2 failure.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/notify"
)

// Config holds the executor's sizing, pacing, and cooldown tunables,
// sourced from the root config's ExecConfig section.
type Config struct {
	MaxTradeUSD       float64
	MaxUnitsPerMarket int
	MaxUnitsPerMap    int
	PolyMinOrderUSD   float64
	Leg1SettleDelay   time.Duration
	UnwindDelay       time.Duration
	UnwindRetryDelay  time.Duration
	UnwindMaxAttempts int
	CooldownCycles    int
	MinSpreadCents    float64
	VenueATakerFeePct float64
}

// DefaultConfig returns the tunables named in the execution rules:
// 500ms leg-1 settle delay, 2s initial unwind delay, 3 unwind attempts,
// 1.75% venue-A taker fee (applied to face value, i.e. filled x $1).
func DefaultConfig() Config {
	return Config{
		MaxTradeUSD:       50,
		MaxUnitsPerMarket: 500,
		MaxUnitsPerMap:    100,
		PolyMinOrderUSD:   1,
		Leg1SettleDelay:   500 * time.Millisecond,
		UnwindDelay:       2 * time.Second,
		UnwindRetryDelay:  2 * time.Second,
		UnwindMaxAttempts: 3,
		CooldownCycles:    30,
		MinSpreadCents:    3.3,
		VenueATakerFeePct: 0.0175,
	}
}

// Executor runs executions serially per pair (cooldown enforces this)
// but allows concurrent executions across distinct pairs.
type Executor struct {
	venueA domain.VenueAdapter
	venueB domain.VenueAdapter
	cfg    Config
	log    *slog.Logger

	notifier *notify.Notifier // nil disables alerting

	mu        sync.Mutex
	cycle     int
	cooldowns map[string]int // pair key -> cycle at which cooldown ends
	mktUnits  map[string]int // venue-A platform_id -> cumulative filled units this session
}

// New creates an Executor. venueA and venueB may be live adapters or a
// paper-mode simulator satisfying the same domain.VenueAdapter interface.
func New(venueA, venueB domain.VenueAdapter, cfg Config, log *slog.Logger) *Executor {
	return &Executor{
		venueA:    venueA,
		venueB:    venueB,
		cfg:       cfg,
		log:       log.With(slog.String("component", "executor")),
		cooldowns: make(map[string]int),
		mktUnits:  make(map[string]int),
	}
}

// WithNotifier attaches a Notifier so filled and partial-stuck outcomes
// raise an alert through every configured channel. Unset by default;
// Execute works the same without one, just silently.
func (e *Executor) WithNotifier(n *notify.Notifier) *Executor {
	e.notifier = n
	return e
}

// Tick advances the internal cycle counter. Call once per price poll.
func (e *Executor) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cycle++
}

// OnCooldown reports whether a pair was recently traded and should be
// skipped for this tick.
func (e *Executor) OnCooldown(pair domain.MatchedPair) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cycle < e.cooldowns[pair.Key()]
}

func (e *Executor) setCooldown(pair domain.MatchedPair, cycles int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldowns[pair.Key()] = e.cycle + cycles
}

// Execute runs the full sizing → leg-1 → leg-2 (→ unwind) flow for one
// opportunity and returns the resulting Trade record. Execute never
// returns an error directly; failure reasons are carried in Trade.Status
// and Trade.Reason so callers can persist every outcome uniformly. A
// filled or partial-stuck result also raises an alert if a Notifier was
// attached with WithNotifier.
func (e *Executor) Execute(ctx context.Context, opp domain.Opportunity) domain.Trade {
	trade := e.execute(ctx, opp)
	e.alert(ctx, trade)
	return trade
}

// alert raises a notification for terminal outcomes an operator needs to
// know about right away: a completed two-leg fill, or a leg left
// uncovered on venue A after the unwind retries were exhausted. Every
// other Trade.Status is routine enough to live in the trade log alone.
func (e *Executor) alert(ctx context.Context, trade domain.Trade) {
	if e.notifier == nil {
		return
	}
	switch trade.Status {
	case domain.TradeStatusFilled:
		_ = e.notifier.Notify(ctx, "filled", "trade filled",
			fmt.Sprintf("%s: %d units, locked profit $%.2f", trade.PairKey, trade.AFilled, trade.LockedProfitUSD))
	case domain.TradeStatusPartialStuck:
		_ = e.notifier.Notify(ctx, "partial_stuck", "partial stuck position",
			fmt.Sprintf("%s: %d units stuck on venue A, unwind exhausted after %d attempts", trade.PairKey, trade.AFilled, e.cfg.UnwindMaxAttempts))
	}
}

// execute is the unexported sizing → leg-1 → leg-2 (→ unwind) flow that
// Execute wraps with alerting.
func (e *Executor) execute(ctx context.Context, opp domain.Opportunity) domain.Trade {
	pair := opp.Pair
	aSide := lower(opp.VenueASide())
	bSide := opp.VenueBSide()

	trade := domain.Trade{
		TradedAt:       time.Now().UTC(),
		PairKey:        pair.Key(),
		VenueASide:     aSide,
		VenueBSide:     bSide,
		RequestedUnits: opp.TradeableUnits,
	}

	units := e.size(opp)
	if units <= 0 {
		trade.Status = domain.TradeStatusSkipped
		trade.Reason = "market_cap_reached"
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}

	bBalance, err := e.venueB.GetBalance(ctx)
	if err != nil {
		trade.Status = domain.TradeStatusError
		trade.Reason = "balance_check_failed"
		e.log.Warn("balance check failed", "pair", pair.Key(), "error", err)
		return trade
	}
	trade.BBalBefore = &bBalance
	if aBal, err := e.venueA.GetBalance(ctx); err == nil {
		trade.ABalBefore = &aBal
	}

	if bBalance < e.cfg.PolyMinOrderUSD {
		trade.Status = domain.TradeStatusSkipped
		trade.Reason = "low_balance"
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}

	blendedBPrice, units := e.bookWalk(opp, units, opp.BCostCents)
	if blendedBPrice <= 0 {
		trade.Status = domain.TradeStatusSkipped
		trade.Reason = "book_walk_exhausted"
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}
	blendedSpread := 100 - (opp.ACostCents + blendedBPrice)
	if blendedSpread < e.cfg.MinSpreadCents {
		trade.Status = domain.TradeStatusSkipped
		trade.Reason = "spread_collapsed_after_walk"
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}

	aPrice := opp.ACostCents
	orderID, err := e.venueA.PlaceTaker(ctx, pair.A, aSide, units, aPrice)
	if err != nil {
		trade.Status = domain.TradeStatusSkipped
		trade.Reason = "leg1_error"
		e.log.Info("leg 1 placement failed", "pair", pair.Key(), "error", err)
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}
	trade.AOrderID = orderID

	select {
	case <-time.After(e.cfg.Leg1SettleDelay):
	case <-ctx.Done():
		return trade
	}

	fill, err := e.venueA.GetFill(ctx, orderID)
	if err != nil {
		trade.Status = domain.TradeStatusError
		trade.Reason = "leg1_fill_check_failed"
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}
	if fill.Filled == 0 {
		trade.Status = domain.TradeStatusSkipped
		trade.Reason = "no_fill"
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}
	if fill.Filled < units {
		if err := e.venueA.Cancel(ctx, orderID); err != nil {
			e.log.Warn("cancel resting remainder failed", "pair", pair.Key(), "order_id", orderID, "error", err)
		}
		units = fill.Filled
	}
	trade.AFilled = units
	trade.APriceCents = aPrice
	trade.ACostUSD = float64(units) * aPrice / 100
	trade.AFeeUSD = float64(units) * e.cfg.VenueATakerFeePct

	e.recordMarketUnits(pair.A.PlatformID, units)

	bOrderID, err := e.venueB.PlaceTaker(ctx, pair.B, bSide, units, blendedBPrice)
	if err == nil {
		trade.Status = domain.TradeStatusFilled
		trade.BOrderID = bOrderID
		trade.BFilled = units
		trade.BPriceCents = blendedBPrice
		trade.BCostUSD = float64(units) * blendedBPrice / 100
		trade.TotalCostUSD = trade.ACostUSD + trade.BCostUSD
		trade.LockedProfitUSD = float64(units)*blendedSpread/100 - trade.AFeeUSD
		trade.NetProfitUSD = trade.LockedProfitUSD
		e.setCooldown(pair, e.cfg.CooldownCycles)
		return trade
	}

	e.log.Warn("leg 2 failed, unwinding venue-A position", "pair", pair.Key(), "units", units, "error", err)
	unwoundOrderID, recovered, ok := e.unwind(ctx, pair.A, aSide, units)
	if ok {
		trade.Status = domain.TradeStatusUnwound
		trade.AOrderID = unwoundOrderID
		trade.TotalCostUSD = trade.ACostUSD
		trade.NetProfitUSD = recovered - trade.ACostUSD - trade.AFeeUSD
		trade.Reason = "leg2_failed_unwound"
	} else {
		trade.Status = domain.TradeStatusPartialStuck
		trade.Reason = "leg2_failed_unwind_exhausted"
		e.log.Error("partial stuck position: venue-A unwind exhausted", "pair", pair.Key(), "units", units)
	}
	e.setCooldown(pair, e.cfg.CooldownCycles*2)
	return trade
}

// size computes the live sizing formula: bounded by max trade USD, both
// venues' depth at the best ask, the per-order unit cap (guards one
// order against a thin book), and the per-market session cap (guards
// cumulative exposure to one event across many ticks).
func (e *Executor) size(opp domain.Opportunity) int {
	combinedCost := opp.ACostCents + opp.BCostCents
	if combinedCost <= 0 {
		return 0
	}
	byBudget := math.Floor(e.cfg.MaxTradeUSD * 100 / combinedCost)
	units := int(math.Min(byBudget, math.Min(opp.ADepthShares, opp.BDepthShares)))
	if units > e.cfg.MaxUnitsPerMap {
		units = e.cfg.MaxUnitsPerMap
	}

	e.mu.Lock()
	remaining := e.cfg.MaxUnitsPerMarket - e.mktUnits[opp.Pair.A.PlatformID]
	e.mu.Unlock()
	if remaining <= 0 {
		return 0
	}
	if units > remaining {
		units = remaining
	}
	return units
}

func (e *Executor) recordMarketUnits(platformID string, units int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mktUnits[platformID] += units
}

// bookWalk returns a blended venue-B price and possibly enlarged unit
// count when the initial order would fall under the venue's minimum
// order size. It walks the ask ladder consuming whole shares per level
// until the target (the minimum order size, rounded up to a whole
// share count at the best ask) is collected. Returns (0, 0) if the
// ladder is exhausted before reaching that target — a blend that still
// spends below the minimum is not a valid fill.
func (e *Executor) bookWalk(opp domain.Opportunity, units int, bestPrice float64) (float64, int) {
	spendCents := float64(units) * bestPrice
	minCents := e.cfg.PolyMinOrderUSD * 100
	if spendCents >= minCents || len(opp.BAskLevels) == 0 {
		return bestPrice, units
	}
	if bestPrice <= 0 {
		return 0, 0
	}
	target := int(math.Ceil(minCents / bestPrice))

	var collected int
	var totalCost float64
	for _, level := range opp.BAskLevels {
		if collected >= target {
			break
		}
		take := int(math.Min(level.Size, float64(target-collected)))
		if take <= 0 {
			continue
		}
		collected += take
		totalCost += float64(take) * level.PriceCents
	}
	if collected < target || collected == 0 {
		return 0, 0
	}
	blended := totalCost / float64(collected)
	return blended, collected
}

// unwind sells the venue-A leg back at the current bid after the
// configured delay, retrying up to UnwindMaxAttempts times.
func (e *Executor) unwind(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, bool) {
	delay := e.cfg.UnwindDelay
	for attempt := 1; attempt <= e.cfg.UnwindMaxAttempts; attempt++ {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", 0, false
		}

		orderID, recovered, err := e.venueA.SellAtBid(ctx, m, side, units)
		if err == nil {
			return orderID, recovered, true
		}
		e.log.Warn("unwind attempt failed", "platform_id", m.PlatformID, "attempt", attempt, "error", err)
		delay = e.cfg.UnwindRetryDelay
	}
	return "", 0, false
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
