package opportunity

import (
	"context"
	"testing"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

func cents(v float64) *float64 { return &v }

func TestFindExactArb(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1", ResolutionDT: now.Add(2 * time.Hour)},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1", ResolutionDT: now.Add(2 * time.Hour)},
	}
	pq := domain.PairQuotes{
		Pair: pair,
		A:    &domain.Quote{YesAskCents: cents(48), YesDepth: 100, NoDepth: 100},
		B:    &domain.Quote{NoAskCents: cents(49), YesDepth: 100, NoDepth: 100},
	}

	got := Find(context.Background(), nil, DefaultConfig(), nil, []domain.PairQuotes{pq}, now)
	if len(got) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(got))
	}
	o := got[0]
	if o.Strategy != domain.StrategyA {
		t.Errorf("strategy = %v, want A", o.Strategy)
	}
	if o.SpreadCents != 3 {
		t.Errorf("spread = %v, want 3", o.SpreadCents)
	}
	if o.Tier != domain.TierLow {
		t.Errorf("tier = %v, want Low", o.Tier)
	}
	if o.TradeableUnits != 100 {
		t.Errorf("tradeable units = %v, want 100", o.TradeableUnits)
	}
	if o.MaxLockedProfitUSD != 3.0 {
		t.Errorf("max locked profit = %v, want 3.0", o.MaxLockedProfitUSD)
	}
}

func TestFindBelowMinSpreadRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1", ResolutionDT: now.Add(2 * time.Hour)},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1", ResolutionDT: now.Add(2 * time.Hour)},
	}
	pq := domain.PairQuotes{
		Pair: pair,
		A:    &domain.Quote{YesAskCents: cents(50), YesDepth: 100},
		B:    &domain.Quote{NoAskCents: cents(49), NoDepth: 100},
	}

	got := Find(context.Background(), nil, DefaultConfig(), nil, []domain.PairQuotes{pq}, now)
	if len(got) != 0 {
		t.Fatalf("got %d opportunities, want 0 (spread below MIN_SPREAD_CENTS)", len(got))
	}
}

func TestFindNilCostSkipped(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1", ResolutionDT: now},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1", ResolutionDT: now},
	}
	pq := domain.PairQuotes{
		Pair: pair,
		A:    &domain.Quote{},
		B:    &domain.Quote{NoAskCents: cents(49)},
	}

	got := Find(context.Background(), nil, DefaultConfig(), nil, []domain.PairQuotes{pq}, now)
	if len(got) != 0 {
		t.Fatalf("got %d opportunities, want 0 (nil venue-A ask)", len(got))
	}
}

func TestFindBothStrategiesCanFire(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1", ResolutionDT: now.Add(time.Hour)},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1", ResolutionDT: now.Add(time.Hour)},
	}
	pq := domain.PairQuotes{
		Pair: pair,
		A:    &domain.Quote{YesAskCents: cents(40), NoAskCents: cents(40), YesDepth: 50, NoDepth: 50},
		B:    &domain.Quote{YesAskCents: cents(40), NoAskCents: cents(40), YesDepth: 50, NoDepth: 50},
	}

	got := Find(context.Background(), nil, DefaultConfig(), nil, []domain.PairQuotes{pq}, now)
	if len(got) != 2 {
		t.Fatalf("got %d opportunities, want 2 (both strategies fire)", len(got))
	}
}

func TestFindSortedBySpreadDescending(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	low := domain.PairQuotes{
		Pair: domain.MatchedPair{
			A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "low_a", ResolutionDT: now.Add(time.Hour)},
			B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "low_b", ResolutionDT: now.Add(time.Hour)},
		},
		A: &domain.Quote{YesAskCents: cents(50), YesDepth: 50},
		B: &domain.Quote{NoAskCents: cents(46.5), NoDepth: 50},
	}
	high := domain.PairQuotes{
		Pair: domain.MatchedPair{
			A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "high_a", ResolutionDT: now.Add(time.Hour)},
			B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "high_b", ResolutionDT: now.Add(time.Hour)},
		},
		A: &domain.Quote{YesAskCents: cents(45), YesDepth: 50},
		B: &domain.Quote{NoAskCents: cents(45), NoDepth: 50},
	}

	got := Find(context.Background(), nil, DefaultConfig(), nil, []domain.PairQuotes{low, high}, now)
	if len(got) != 2 {
		t.Fatalf("got %d opportunities, want 2", len(got))
	}
	if got[0].SpreadCents < got[1].SpreadCents {
		t.Errorf("not sorted descending: %v before %v", got[0].SpreadCents, got[1].SpreadCents)
	}
}

type fakeValidator struct {
	verified *bool
	err      error
}

func (f fakeValidator) IsScheduled(ctx context.Context, team, opponent, sport string) (*bool, error) {
	return f.verified, f.err
}

func TestFindMatchValidatorRejectsUnscheduled(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	no := false
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1", AssetClass: domain.AssetClassSports, Team: "drx", Opponent: "t1", Sport: "LOL", ResolutionDT: now.Add(time.Hour)},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1", AssetClass: domain.AssetClassSports, Team: "drx", Opponent: "t1", Sport: "LOL", ResolutionDT: now.Add(time.Hour)},
	}
	pq := domain.PairQuotes{
		Pair: pair,
		A:    &domain.Quote{YesAskCents: cents(45), YesDepth: 50},
		B:    &domain.Quote{NoAskCents: cents(45), NoDepth: 50},
	}

	got := Find(context.Background(), nil, DefaultConfig(), fakeValidator{verified: &no}, []domain.PairQuotes{pq}, now)
	if len(got) != 0 {
		t.Fatalf("got %d opportunities, want 0 (match validator rejected)", len(got))
	}
}

func TestFindMatchValidatorUnavailableAllows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pair := domain.MatchedPair{
		A: domain.NormalizedMarket{Venue: domain.VenueA, PlatformID: "a1", AssetClass: domain.AssetClassSports, Team: "drx", Opponent: "t1", Sport: "LOL", ResolutionDT: now.Add(time.Hour)},
		B: domain.NormalizedMarket{Venue: domain.VenueB, PlatformID: "b1", AssetClass: domain.AssetClassSports, Team: "drx", Opponent: "t1", Sport: "LOL", ResolutionDT: now.Add(time.Hour)},
	}
	pq := domain.PairQuotes{
		Pair: pair,
		A:    &domain.Quote{YesAskCents: cents(45), YesDepth: 50},
		B:    &domain.Quote{NoAskCents: cents(45), NoDepth: 50},
	}

	got := Find(context.Background(), nil, DefaultConfig(), fakeValidator{verified: nil}, []domain.PairQuotes{pq}, now)
	if len(got) != 1 {
		t.Fatalf("got %d opportunities, want 1 (unavailable validator allows)", len(got))
	}
}
