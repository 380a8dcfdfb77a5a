// Package paper wraps a live domain.VenueAdapter with a virtual wallet so
// the scan/match/opportunity/executor pipeline can run end to end against
// real market data without placing real orders. Quote discovery (ListMarkets,
// GetQuote) passes straight through to the wrapped adapter; order placement
// is simulated as an immediate full fill at the requested price. Realized
// profit/loss is computed per trade by the executor and persisted through
// the normal TradeStore path; the wallet here only tracks cash committed and
// returned so balance checks behave the same as against a live venue.
package paper

import (
	"fmt"
	"math"
	"sync"
)

// StartingBalanceUSD is the default virtual balance seeded per venue.
const StartingBalanceUSD = 10_000.0

// wallet tracks one venue's simulated cash position. All mutation goes
// through Adapter, which owns the lock.
type wallet struct {
	mu sync.Mutex

	balance    float64
	invested   float64
	tradeCount int
}

func newWallet(startingBalance float64) *wallet {
	return &wallet{balance: startingBalance}
}

// debit deducts cost (the fill cost plus any taker fee) from the balance
// and books it against invested capital.
func (w *wallet) debit(cost float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = round4(w.balance - cost)
	w.invested = round4(w.invested + cost)
	w.tradeCount++
}

// credit adds USD back to the balance, used by unwind (SellAtBid) fills.
func (w *wallet) credit(amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = round4(w.balance + amount)
}

func (w *wallet) snapshot() walletSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return walletSnapshot{
		Balance:    w.balance,
		Invested:   w.invested,
		TradeCount: w.tradeCount,
	}
}

// walletSnapshot is an immutable point-in-time read of wallet state.
type walletSnapshot struct {
	Balance    float64
	Invested   float64
	TradeCount int
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// Report renders a one-line summary of a venue's paper wallet, suitable for
// periodic logging alongside the real executor's trade-level audit trail.
func Report(name string, startingBalance float64, w walletSnapshot) string {
	deployedPct := 0.0
	if startingBalance != 0 {
		deployedPct = round2(w.Invested / startingBalance * 100)
	}
	return fmt.Sprintf(
		"paper wallet %s: balance=$%.2f invested=$%.4f (%.1f%% of $%.2f) orders=%d",
		name, w.Balance, w.Invested, deployedPct, startingBalance, w.TradeCount,
	)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
