package paper

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// order is the paper-mode record of a simulated fill, kept only so GetFill
// and Cancel have something to answer with.
type order struct {
	side       string
	units      int
	priceCents float64
}

// Adapter wraps a real domain.VenueAdapter, passing market discovery
// (ListMarkets, GetQuote) straight through while simulating order placement
// against a virtual wallet. Every PlaceTaker is assumed to fill completely
// at the requested limit price; there is no partial fill or rejection path,
// matching the no-slippage assumption of dry-run trading.
type Adapter struct {
	underlying domain.VenueAdapter
	takerFee   float64 // fee per unit in USD, applied to PlaceTaker cost only

	wallet *wallet

	mu      sync.Mutex
	orders  map[string]order
	orderSq int64
}

// New wraps underlying with a paper wallet seeded at startingBalance.
// takerFeePerUnit is a flat USD fee applied per filled unit (venue-A
// charges one, venue-B does not in this model).
func New(underlying domain.VenueAdapter, startingBalance, takerFeePerUnit float64) *Adapter {
	return &Adapter{
		underlying: underlying,
		takerFee:   takerFeePerUnit,
		wallet:     newWallet(startingBalance),
		orders:     make(map[string]order),
	}
}

func (a *Adapter) Name() string { return a.underlying.Name() }

func (a *Adapter) ListMarkets(ctx context.Context) ([]domain.NormalizedMarket, error) {
	return a.underlying.ListMarkets(ctx)
}

func (a *Adapter) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	return a.underlying.GetQuote(ctx, m)
}

// PlaceTaker simulates an immediate full fill at limitCents and deducts the
// cost (plus the configured taker fee) from the virtual wallet. It never
// rejects for insufficient balance; GetBalance is the caller's own guard,
// as executor.Execute checks balance after sizing and before leg 1.
func (a *Adapter) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	cost := float64(units)*limitCents/100 + float64(units)*a.takerFee
	a.wallet.debit(cost)

	id := a.nextOrderID()
	a.mu.Lock()
	a.orders[id] = order{side: side, units: units, priceCents: limitCents}
	a.mu.Unlock()
	return id, nil
}

// Cancel is a no-op: paper orders fill in full synchronously, so there is
// never a resting remainder to cancel.
func (a *Adapter) Cancel(ctx context.Context, orderID string) error {
	return nil
}

// GetFill reports the order as fully filled; paper mode has no partial-fill
// path to simulate.
func (a *Adapter) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	a.mu.Lock()
	o, ok := a.orders[orderID]
	a.mu.Unlock()
	if !ok {
		return domain.Fill{}, fmt.Errorf("paper: unknown order %s", orderID)
	}
	return domain.Fill{OrderID: orderID, Status: "filled", Filled: o.units, Remaining: 0}, nil
}

// GetBalance returns the virtual wallet's remaining cash.
func (a *Adapter) GetBalance(ctx context.Context) (float64, error) {
	return a.wallet.snapshot().Balance, nil
}

// SellAtBid simulates the unwind path: the wrapped venue's cached bid on m
// is used as the fill price (paper mode never walks a live orderbook), and
// the proceeds are credited back to the wallet.
func (a *Adapter) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	bidCents := m.YesBidCents
	if side == "no" {
		bidCents = m.NoBidCents
	}
	if bidCents == nil {
		return "", 0, fmt.Errorf("paper: no cached bid to unwind %s", m.PlatformID)
	}

	recovered := float64(units) * (*bidCents) / 100
	a.wallet.credit(recovered)

	id := a.nextOrderID()
	a.mu.Lock()
	a.orders[id] = order{side: side, units: units, priceCents: *bidCents}
	a.mu.Unlock()
	return id, recovered, nil
}

// Snapshot returns the current wallet state for reporting.
func (a *Adapter) Snapshot() walletSnapshot {
	return a.wallet.snapshot()
}

func (a *Adapter) nextOrderID() string {
	n := atomic.AddInt64(&a.orderSq, 1)
	return fmt.Sprintf("PAPER-%s-%04d", a.underlying.Name(), n)
}

var _ domain.VenueAdapter = (*Adapter)(nil)
