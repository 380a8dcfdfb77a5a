package paper

import (
	"context"
	"testing"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// fakeUnderlying is a minimal domain.VenueAdapter used only to verify
// pass-through of market discovery calls; order placement is never
// expected to reach it once wrapped by Adapter.
type fakeUnderlying struct {
	name    string
	markets []domain.NormalizedMarket
	quote   domain.Quote

	placeCalls int
}

func (f *fakeUnderlying) Name() string { return f.name }

func (f *fakeUnderlying) ListMarkets(ctx context.Context) ([]domain.NormalizedMarket, error) {
	return f.markets, nil
}

func (f *fakeUnderlying) GetQuote(ctx context.Context, m domain.NormalizedMarket) (domain.Quote, error) {
	return f.quote, nil
}

func (f *fakeUnderlying) PlaceTaker(ctx context.Context, m domain.NormalizedMarket, side string, units int, limitCents float64) (string, error) {
	f.placeCalls++
	return "should-not-be-called", nil
}

func (f *fakeUnderlying) Cancel(ctx context.Context, orderID string) error { return nil }

func (f *fakeUnderlying) GetFill(ctx context.Context, orderID string) (domain.Fill, error) {
	return domain.Fill{}, nil
}

func (f *fakeUnderlying) GetBalance(ctx context.Context) (float64, error) { return 0, nil }

func (f *fakeUnderlying) SellAtBid(ctx context.Context, m domain.NormalizedMarket, side string, units int) (string, float64, error) {
	return "should-not-be-called", 0, nil
}

func testMarket() domain.NormalizedMarket {
	bid := 44.0
	return domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1", YesBidCents: &bid}
}

func TestListMarketsAndGetQuotePassThrough(t *testing.T) {
	want := []domain.NormalizedMarket{{PlatformID: "a1"}}
	under := &fakeUnderlying{name: "venue_a", markets: want, quote: domain.Quote{YesDepth: 10}}
	a := New(under, StartingBalanceUSD, 0.0175)

	got, err := a.ListMarkets(context.Background())
	if err != nil || len(got) != 1 || got[0].PlatformID != "a1" {
		t.Fatalf("ListMarkets = %v, %v, want pass-through of underlying markets", got, err)
	}

	q, err := a.GetQuote(context.Background(), testMarket())
	if err != nil || q.YesDepth != 10 {
		t.Fatalf("GetQuote = %v, %v, want pass-through of underlying quote", q, err)
	}
}

func TestPlaceTakerSimulatesFillAndDebitsWallet(t *testing.T) {
	under := &fakeUnderlying{name: "venue_a"}
	a := New(under, StartingBalanceUSD, 0.0175)

	orderID, err := a.PlaceTaker(context.Background(), testMarket(), "yes", 100, 45)
	if err != nil {
		t.Fatalf("PlaceTaker error: %v", err)
	}
	if under.placeCalls != 0 {
		t.Errorf("expected paper mode to never call through to the underlying adapter, got %d calls", under.placeCalls)
	}

	fill, err := a.GetFill(context.Background(), orderID)
	if err != nil {
		t.Fatalf("GetFill error: %v", err)
	}
	if fill.Filled != 100 || fill.Remaining != 0 || fill.Status != "filled" {
		t.Errorf("fill = %+v, want fully filled", fill)
	}

	bal, _ := a.GetBalance(context.Background())
	wantCost := 100*45.0/100 + 100*0.0175
	wantBal := StartingBalanceUSD - wantCost
	if bal != wantBal {
		t.Errorf("balance = %v, want %v", bal, wantBal)
	}
}

func TestCancelIsNoOp(t *testing.T) {
	a := New(&fakeUnderlying{name: "venue_b"}, StartingBalanceUSD, 0)
	if err := a.Cancel(context.Background(), "whatever"); err != nil {
		t.Errorf("Cancel returned error, want nil: %v", err)
	}
}

func TestSellAtBidCreditsWalletFromCachedBid(t *testing.T) {
	a := New(&fakeUnderlying{name: "venue_a"}, StartingBalanceUSD, 0.0175)

	orderID, recovered, err := a.SellAtBid(context.Background(), testMarket(), "yes", 100)
	if err != nil {
		t.Fatalf("SellAtBid error: %v", err)
	}
	if recovered != 44.0 {
		t.Errorf("recovered = %v, want 44.0 (100 units at 44c)", recovered)
	}
	if orderID == "" {
		t.Error("expected non-empty order id")
	}

	bal, _ := a.GetBalance(context.Background())
	if bal != StartingBalanceUSD+44.0 {
		t.Errorf("balance = %v, want %v", bal, StartingBalanceUSD+44.0)
	}
}

func TestSellAtBidFailsWithoutCachedBid(t *testing.T) {
	a := New(&fakeUnderlying{name: "venue_a"}, StartingBalanceUSD, 0)
	m := domain.NormalizedMarket{PlatformID: "a1"} // no YesBidCents
	if _, _, err := a.SellAtBid(context.Background(), m, "yes", 10); err == nil {
		t.Error("expected error when no cached bid is available")
	}
}

func TestGetFillUnknownOrderErrors(t *testing.T) {
	a := New(&fakeUnderlying{name: "venue_a"}, StartingBalanceUSD, 0)
	if _, err := a.GetFill(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown order id")
	}
}

func TestReportFormatsWalletSnapshot(t *testing.T) {
	a := New(&fakeUnderlying{name: "venue_a"}, StartingBalanceUSD, 0.0175)
	if _, err := a.PlaceTaker(context.Background(), testMarket(), "yes", 100, 45); err != nil {
		t.Fatalf("PlaceTaker error: %v", err)
	}

	report := Report("venue_a", StartingBalanceUSD, a.Snapshot())
	if report == "" {
		t.Fatal("expected non-empty report")
	}
}
