package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/notify"
)

// fakeVenue is a scriptable domain.VenueAdapter used to drive the
// executor through each branch of the execution flow.
type fakeVenue struct {
	name string

	balance    float64
	balanceErr error

	placeOrderID string
	placeErr     error
	placeCalls   int

	fill    domain.Fill
	fillErr error

	cancelErr  error
	cancelCall bool

	sellOrderID   string
	sellRecovered float64
	sellErr       error // when non-nil, every SellAtBid call fails with this error
	sellAttempts  int
}

func (f *fakeVenue) Name() string { return f.name }

func (f *fakeVenue) ListMarkets(ctx context.Context) ([]domain.NormalizedMarket, error) {
	return nil, nil
}

func (f *fakeVenue) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	return domain.Quote{}, nil
}

func (f *fakeVenue) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	f.placeCalls++
	return f.placeOrderID, f.placeErr
}

func (f *fakeVenue) Cancel(ctx context.Context, orderID string) error {
	f.cancelCall = true
	return f.cancelErr
}

func (f *fakeVenue) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	return f.fill, f.fillErr
}

func (f *fakeVenue) GetBalance(ctx context.Context) (float64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeVenue) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	f.sellAttempts++
	if f.sellErr != nil {
		return "", 0, f.sellErr
	}
	return f.sellOrderID, f.sellRecovered, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpp() domain.Opportunity {
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1"},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1"},
	}
	return domain.Opportunity{
		Pair:               pair,
		Strategy:           domain.StrategyA,
		ACostCents:         45,
		BCostCents:         45,
		SpreadCents:        10,
		Tier:               domain.TierHigh,
		ADepthShares:       100,
		BDepthShares:       100,
		TradeableUnits:     100,
		MaxLockedProfitUSD: 10.0,
	}
}

// fastConfig shortens the real-time delays for unit tests and raises the
// trade budget so sizing is bound by depth, not dollars, unless a test
// overrides MaxTradeUSD itself.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxTradeUSD = 1000
	cfg.Leg1SettleDelay = time.Millisecond
	cfg.UnwindDelay = time.Millisecond
	cfg.UnwindRetryDelay = time.Millisecond
	return cfg
}

func TestExecuteFullFill(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000, placeOrderID: "a-order", fill: domain.Fill{Filled: 100, Remaining: 0}}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeOrderID: "b-order"}

	e := New(a, b, fastConfig(), testLogger())
	trade := e.Execute(context.Background(), testOpp())

	if trade.Status != domain.TradeStatusFilled {
		t.Fatalf("status = %v, want filled (reason=%s)", trade.Status, trade.Reason)
	}
	if trade.AFilled != 100 || trade.BFilled != 100 {
		t.Errorf("filled = %d/%d, want 100/100", trade.AFilled, trade.BFilled)
	}
	if trade.LockedProfitUSD <= 0 {
		t.Errorf("expected positive locked profit, got %v", trade.LockedProfitUSD)
	}
	if !e.OnCooldown(testOpp().Pair) {
		t.Errorf("expected pair to be on cooldown after a trade")
	}
}

func TestExecuteLowBalanceSkipped(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000}
	b := &fakeVenue{name: "venue_b", balance: 0.1}

	e := New(a, b, fastConfig(), testLogger())
	trade := e.Execute(context.Background(), testOpp())

	if trade.Status != domain.TradeStatusSkipped || trade.Reason != "low_balance" {
		t.Fatalf("status/reason = %v/%s, want skipped/low_balance", trade.Status, trade.Reason)
	}
	if a.placeCalls != 0 {
		t.Errorf("expected no leg-1 placement on low balance, got %d calls", a.placeCalls)
	}
}

func TestExecuteNoFillSkipped(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000, placeOrderID: "a-order", fill: domain.Fill{Filled: 0, Remaining: 100}}
	b := &fakeVenue{name: "venue_b", balance: 1000}

	e := New(a, b, fastConfig(), testLogger())
	trade := e.Execute(context.Background(), testOpp())

	if trade.Status != domain.TradeStatusSkipped || trade.Reason != "no_fill" {
		t.Fatalf("status/reason = %v/%s, want skipped/no_fill", trade.Status, trade.Reason)
	}
	if b.placeCalls != 0 {
		t.Errorf("expected leg 2 never placed on zero fill")
	}
}

func TestExecutePartialFillResizesAndCancels(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000, placeOrderID: "a-order", fill: domain.Fill{Filled: 40, Remaining: 60}}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeOrderID: "b-order"}

	e := New(a, b, fastConfig(), testLogger())
	trade := e.Execute(context.Background(), testOpp())

	if !a.cancelCall {
		t.Errorf("expected resting remainder to be cancelled")
	}
	if trade.AFilled != 40 || trade.BFilled != 40 {
		t.Errorf("filled = %d/%d, want 40/40 (resized to actual leg-1 fill)", trade.AFilled, trade.BFilled)
	}
	if trade.Status != domain.TradeStatusFilled {
		t.Fatalf("status = %v, want filled", trade.Status)
	}
}

func TestExecuteLeg2FailureUnwindsSuccessfully(t *testing.T) {
	a := &fakeVenue{
		name: "venue_a", balance: 1000, placeOrderID: "a-order",
		fill:          domain.Fill{Filled: 100, Remaining: 0},
		sellOrderID:   "unwind-order",
		sellRecovered: 47.0,
	}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeErr: errors.New("leg2 rejected")}

	e := New(a, b, fastConfig(), testLogger())
	trade := e.Execute(context.Background(), testOpp())

	if trade.Status != domain.TradeStatusUnwound {
		t.Fatalf("status = %v, reason=%s, want unwound", trade.Status, trade.Reason)
	}
	if trade.AOrderID != "unwind-order" {
		t.Errorf("expected unwind order id recorded, got %q", trade.AOrderID)
	}
}

func TestExecuteLeg2FailureUnwindExhaustedIsPartialStuckWithDoubledCooldown(t *testing.T) {
	a := &fakeVenue{
		name: "venue_a", balance: 1000, placeOrderID: "a-order",
		fill:    domain.Fill{Filled: 100, Remaining: 0},
		sellErr: errors.New("unwind rejected"),
	}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeErr: errors.New("leg2 rejected")}

	cfg := fastConfig()
	e := New(a, b, cfg, testLogger())
	trade := e.Execute(context.Background(), testOpp())

	if trade.Status != domain.TradeStatusPartialStuck {
		t.Fatalf("status = %v, want partial_stuck", trade.Status)
	}
	if a.sellAttempts != cfg.UnwindMaxAttempts {
		t.Errorf("sell attempts = %d, want %d", a.sellAttempts, cfg.UnwindMaxAttempts)
	}

	e.mu.Lock()
	doubled := e.cooldowns[testOpp().Pair.Key()]
	e.mu.Unlock()
	if doubled != cfg.CooldownCycles*2 {
		t.Errorf("cooldown = %d cycles, want doubled (%d)", doubled, cfg.CooldownCycles*2)
	}
}

func TestBookWalkConsumesWholeSharesAcrossLevels(t *testing.T) {
	e := New(&fakeVenue{}, &fakeVenue{}, Config{PolyMinOrderUSD: 1}, testLogger())

	opp := testOpp()
	opp.BCostCents = 30
	opp.BAskLevels = []domain.LadderLevel{
		{PriceCents: 30, Size: 3},
		{PriceCents: 32, Size: 5},
	}

	blended, units := e.bookWalk(opp, 3, 30)
	if units != 4 {
		t.Fatalf("units = %d, want 4", units)
	}
	if blended != 30.5 {
		t.Fatalf("blended price = %.4fc, want 30.5c", blended)
	}
}

func TestBookWalkReturnsZeroWhenLadderCannotReachMinimum(t *testing.T) {
	e := New(&fakeVenue{}, &fakeVenue{}, Config{PolyMinOrderUSD: 1}, testLogger())

	opp := testOpp()
	opp.BCostCents = 30
	opp.BAskLevels = []domain.LadderLevel{
		{PriceCents: 30, Size: 1},
	}

	blended, units := e.bookWalk(opp, 1, 30)
	if blended != 0 || units != 0 {
		t.Fatalf("blended=%.2f units=%d, want 0,0 when the ladder is exhausted before the minimum", blended, units)
	}
}

func TestBookWalkNeverSpendsBelowMinimum(t *testing.T) {
	e := New(&fakeVenue{}, &fakeVenue{}, Config{PolyMinOrderUSD: 1}, testLogger())

	opp := testOpp()
	opp.BCostCents = 49
	opp.BAskLevels = []domain.LadderLevel{
		{PriceCents: 49, Size: 2},
	}

	blended, units := e.bookWalk(opp, 1, 49)
	if blended != 0 || units != 0 {
		t.Fatalf("blended=%.2f units=%d, want 0,0 since 2*49c=98c stays under the $1 minimum", blended, units)
	}
}

func TestExecuteBookWalkEnlargesUnitsUnderMinimum(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000, placeOrderID: "a-order", fill: domain.Fill{Filled: 100, Remaining: 0}}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeOrderID: "b-order"}

	opp := testOpp()
	opp.TradeableUnits = 3
	opp.ADepthShares = 3
	opp.BDepthShares = 3
	opp.BCostCents = 49 // best ask, matches the first ladder level below
	opp.BAskLevels = []domain.LadderLevel{
		{PriceCents: 49, Size: 3},
		{PriceCents: 50, Size: 50},
	}

	cfg := fastConfig()
	cfg.MaxTradeUSD = 1.0 // sizes down to 1 unit, below PolyMinOrderUSD at 49c
	cfg.PolyMinOrderUSD = 1
	cfg.MinSpreadCents = 0 // isolate the book-walk branch from the spread-collapse branch
	e := New(a, b, cfg, testLogger())
	trade := e.Execute(context.Background(), opp)

	if trade.Status == domain.TradeStatusSkipped && (trade.Reason == "book_walk_exhausted" || trade.Reason == "market_cap_reached") {
		t.Fatalf("book walk should have found enough depth to clear the minimum, got reason=%s", trade.Reason)
	}
	if trade.Status != domain.TradeStatusFilled {
		t.Fatalf("status = %v, reason=%s, want filled", trade.Status, trade.Reason)
	}
	// 1 unit at 49c is 49c, below the $1 minimum; ceil(100/49)=3 whole
	// shares are needed, all available at the first ladder level, so the
	// walk enlarges to 3 units at a flat 49c (3*49c = $1.47, clears $1).
	if trade.AFilled != 3 {
		t.Errorf("filled units = %d, want 3 (book-walked from 1 to clear the $1 minimum at 49c)", trade.AFilled)
	}
	if trade.BPriceCents != 49 {
		t.Errorf("blended B price = %.2fc, want 49c", trade.BPriceCents)
	}
}

func TestExecutePerMarketCapEnforced(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000, placeOrderID: "a-order", fill: domain.Fill{Filled: 100, Remaining: 0}}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeOrderID: "b-order"}

	cfg := fastConfig()
	cfg.MaxUnitsPerMarket = 100
	e := New(a, b, cfg, testLogger())

	first := e.Execute(context.Background(), testOpp())
	if first.Status != domain.TradeStatusFilled {
		t.Fatalf("first trade status = %v, want filled", first.Status)
	}

	second := e.Execute(context.Background(), testOpp())
	if second.Status != domain.TradeStatusSkipped || second.Reason != "market_cap_reached" {
		t.Fatalf("second trade status/reason = %v/%s, want skipped/market_cap_reached", second.Status, second.Reason)
	}
}

// fakeSender is a notify.Sender that records every delivered notification.
type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	f.sent = append(f.sent, title+": "+message)
	return nil
}

func (f *fakeSender) Name() string { return "fake" }

func TestExecuteAlertsOnFilled(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000, placeOrderID: "a-order", fill: domain.Fill{Filled: 100, Remaining: 0}}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeOrderID: "b-order"}
	sender := &fakeSender{}

	e := New(a, b, fastConfig(), testLogger()).
		WithNotifier(notify.NewNotifier([]notify.Sender{sender}, nil, testLogger()))
	trade := e.Execute(context.Background(), testOpp())

	if trade.Status != domain.TradeStatusFilled {
		t.Fatalf("status = %v, want filled", trade.Status)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 alert on fill, got %d", len(sender.sent))
	}
}

func TestExecuteAlertsOnPartialStuck(t *testing.T) {
	a := &fakeVenue{
		name: "venue_a", balance: 1000, placeOrderID: "a-order",
		fill:    domain.Fill{Filled: 100, Remaining: 0},
		sellErr: errors.New("unwind rejected"),
	}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeErr: errors.New("leg2 rejected")}
	sender := &fakeSender{}

	e := New(a, b, fastConfig(), testLogger()).
		WithNotifier(notify.NewNotifier([]notify.Sender{sender}, nil, testLogger()))
	trade := e.Execute(context.Background(), testOpp())

	if trade.Status != domain.TradeStatusPartialStuck {
		t.Fatalf("status = %v, want partial_stuck", trade.Status)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 alert on partial stuck, got %d", len(sender.sent))
	}
}

func TestExecuteSkipsAlertWithNoNotifierAttached(t *testing.T) {
	a := &fakeVenue{name: "venue_a", balance: 1000, placeOrderID: "a-order", fill: domain.Fill{Filled: 100, Remaining: 0}}
	b := &fakeVenue{name: "venue_b", balance: 1000, placeOrderID: "b-order"}

	e := New(a, b, fastConfig(), testLogger())
	trade := e.Execute(context.Background(), testOpp())
	if trade.Status != domain.TradeStatusFilled {
		t.Fatalf("status = %v, want filled", trade.Status)
	}
}
