package match

import (
	"testing"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

func sportsMarket(venue domain.Venue, id, sport, team, opponent string, subtype domain.SportSubtype, mapNum *int, resolution time.Time) domain.NormalizedMarket {
	return domain.NormalizedMarket{
		Venue:        venue,
		PlatformID:   id,
		AssetClass:   domain.AssetClassSports,
		Sport:        sport,
		Team:         team,
		Opponent:     opponent,
		SportSubtype: subtype,
		MapNumber:    mapNum,
		ResolutionDT: resolution,
	}
}

func TestFindSportsMatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := sportsMarket(domain.VenueA, "a1", "CS2", "m80", "voca", domain.SportSubtypeMap, nil, now)
	b := sportsMarket(domain.VenueB, "b1", "CS2", "m80", "voca", domain.SportSubtypeMap, nil, now.Add(30*time.Minute))

	res := Find(nil, DefaultConfig(), []domain.NormalizedMarket{a}, []domain.NormalizedMarket{b})
	if len(res.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(res.Pairs))
	}
	if res.Pairs[0].A.PlatformID != "a1" || res.Pairs[0].B.PlatformID != "b1" {
		t.Errorf("unexpected pair: %+v", res.Pairs[0])
	}
}

func TestFindSportsRejectOpponent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := sportsMarket(domain.VenueA, "a1", "LOL", "drx", "t1", domain.SportSubtypeSeries, nil, now)
	b := sportsMarket(domain.VenueB, "b1", "LOL", "drx", "geng", domain.SportSubtypeSeries, nil, now)

	res := Find(nil, DefaultConfig(), []domain.NormalizedMarket{a}, []domain.NormalizedMarket{b})
	if len(res.Pairs) != 0 {
		t.Fatalf("got %d pairs, want 0 (opponent mismatch)", len(res.Pairs))
	}
	if res.Rejected[RejectOpponentMismatch] != 1 {
		t.Errorf("rejected[opponent_mismatch] = %d, want 1", res.Rejected[RejectOpponentMismatch])
	}
}

func TestFindSportsRejectDateGap(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := sportsMarket(domain.VenueA, "a1", "NBA", "lakers", "celtics", domain.SportSubtypeSeries, nil, now)
	b := sportsMarket(domain.VenueB, "b1", "NBA", "lakers", "celtics", domain.SportSubtypeSeries, nil, now.Add(5*time.Hour))

	res := Find(nil, DefaultConfig(), []domain.NormalizedMarket{a}, []domain.NormalizedMarket{b})
	if len(res.Pairs) != 0 {
		t.Fatalf("got %d pairs, want 0 (date gap exceeds 4h)", len(res.Pairs))
	}
	if res.Rejected[RejectDateGap] != 1 {
		t.Errorf("rejected[date_gap] = %d, want 1", res.Rejected[RejectDateGap])
	}
}

func TestFindSportsRejectMapNumber(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	one, two := 1, 2
	a := sportsMarket(domain.VenueA, "a1", "CS2", "m80", "voca", domain.SportSubtypeMap, &one, now)
	b := sportsMarket(domain.VenueB, "b1", "CS2", "m80", "voca", domain.SportSubtypeMap, &two, now)

	res := Find(nil, DefaultConfig(), []domain.NormalizedMarket{a}, []domain.NormalizedMarket{b})
	if len(res.Pairs) != 0 {
		t.Fatalf("got %d pairs, want 0 (map number mismatch)", len(res.Pairs))
	}
	if res.Rejected[RejectMapNumberMismatch] != 1 {
		t.Errorf("rejected[map_number_mismatch] = %d, want 1", res.Rejected[RejectMapNumberMismatch])
	}
}

func TestFindSportsExclusivePairing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a1 := sportsMarket(domain.VenueA, "a1", "NBA", "lakers", "celtics", domain.SportSubtypeSeries, nil, now)
	a2 := sportsMarket(domain.VenueA, "a2", "NBA", "lakers", "celtics", domain.SportSubtypeSeries, nil, now)
	b1 := sportsMarket(domain.VenueB, "b1", "NBA", "lakers", "celtics", domain.SportSubtypeSeries, nil, now)
	b2 := sportsMarket(domain.VenueB, "b2", "NBA", "lakers", "celtics", domain.SportSubtypeSeries, nil, now)

	res := Find(nil, DefaultConfig(), []domain.NormalizedMarket{a1, a2}, []domain.NormalizedMarket{b1, b2})
	if len(res.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(res.Pairs))
	}
	seen := map[string]bool{}
	for _, p := range res.Pairs {
		if seen[p.A.PlatformID] {
			t.Errorf("venue-A market %s reused across pairs", p.A.PlatformID)
		}
		seen[p.A.PlatformID] = true
	}
}

func TestFindCryptoDisabledByDefault(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := domain.NormalizedMarket{
		Venue: domain.VenueA, PlatformID: "a1", AssetClass: domain.AssetClassCrypto,
		CryptoAsset: "BTC", Direction: domain.DirectionAbove, Threshold: 90000, ResolutionDT: now,
	}
	b := domain.NormalizedMarket{
		Venue: domain.VenueB, PlatformID: "b1", AssetClass: domain.AssetClassCrypto,
		CryptoAsset: "BTC", Direction: domain.DirectionAbove, Threshold: 90000, ResolutionDT: now,
	}

	res := Find(nil, DefaultConfig(), []domain.NormalizedMarket{a}, []domain.NormalizedMarket{b})
	if len(res.Pairs) != 0 {
		t.Fatalf("got %d pairs, want 0 (crypto matching disabled by default)", len(res.Pairs))
	}
}

func TestFindCryptoMatchWhenEnabled(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := domain.NormalizedMarket{
		Venue: domain.VenueA, PlatformID: "a1", AssetClass: domain.AssetClassCrypto,
		CryptoAsset: "BTC", Direction: domain.DirectionAbove, Threshold: 90000, ResolutionDT: now,
	}
	b := domain.NormalizedMarket{
		Venue: domain.VenueB, PlatformID: "b1", AssetClass: domain.AssetClassCrypto,
		CryptoAsset: "BTC", Direction: domain.DirectionAbove, Threshold: 90000, ResolutionDT: now.Add(20 * time.Minute),
	}

	cfg := DefaultConfig()
	cfg.CryptoMatchEnabled = true
	res := Find(nil, cfg, []domain.NormalizedMarket{a}, []domain.NormalizedMarket{b})
	if len(res.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(res.Pairs))
	}
}
