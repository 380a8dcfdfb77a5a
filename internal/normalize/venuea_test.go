package normalize

import (
	"testing"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venuea"
)

func int64p(v int64) *int64 { return &v }

func TestVenueAMarketsSports(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venuea.Market{
		{
			Ticker:                  "KXCS2MAP-26MAR01-M80",
			SeriesTicker:            "KXCS2MAP",
			Title:                   "Will M80 win the M80 vs. Voca CS2 match?",
			YesSubTitle:             "M80",
			Status:                  "open",
			YesAsk:                  int64p(48),
			NoAsk:                   int64p(55),
			ExpectedExpirationTime: now.Add(2 * time.Hour).Format(time.RFC3339),
		},
	}

	got := VenueAMarkets(raw, now, 72)
	if len(got) != 1 {
		t.Fatalf("got %d markets, want 1", len(got))
	}
	m := got[0]
	if m.AssetClass != domain.AssetClassSports {
		t.Fatalf("asset class = %v, want SPORTS", m.AssetClass)
	}
	if m.Sport != "CS2" {
		t.Errorf("sport = %q, want CS2", m.Sport)
	}
	if m.Team != "m80" {
		t.Errorf("team = %q, want m80", m.Team)
	}
	if m.Opponent != "voca" {
		t.Errorf("opponent = %q, want voca", m.Opponent)
	}
	if m.SportSubtype != domain.SportSubtypeMap {
		t.Errorf("subtype = %v, want map", m.SportSubtype)
	}
	if m.YesAskCents == nil || *m.YesAskCents != 48 {
		t.Errorf("yes ask = %v, want 48", m.YesAskCents)
	}
}

func TestVenueAMarketsCrypto(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venuea.Market{
		{
			Ticker:                  "KXBTC-26MAR01",
			Title:                   "Bitcoin price",
			Subtitle:                "$90,000 or above",
			Status:                  "open",
			ExpectedExpirationTime: now.Add(3 * time.Hour).Format(time.RFC3339),
		},
	}

	got := VenueAMarkets(raw, now, 72)
	if len(got) != 1 {
		t.Fatalf("got %d markets, want 1", len(got))
	}
	m := got[0]
	if m.AssetClass != domain.AssetClassCrypto {
		t.Fatalf("asset class = %v, want CRYPTO", m.AssetClass)
	}
	if m.CryptoAsset != "BTC" {
		t.Errorf("asset = %q, want BTC", m.CryptoAsset)
	}
	if m.Direction != domain.DirectionAbove {
		t.Errorf("direction = %v, want ABOVE", m.Direction)
	}
	if m.Threshold != 90000 {
		t.Errorf("threshold = %v, want 90000", m.Threshold)
	}
}

func TestVenueAMarketsOutsideWindowDropped(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venuea.Market{
		{
			Ticker:                  "KXBTC-26MAR10",
			Title:                   "Bitcoin price",
			Subtitle:                "$90,000 or above",
			ExpectedExpirationTime: now.Add(200 * time.Hour).Format(time.RFC3339),
		},
	}

	got := VenueAMarkets(raw, now, 72)
	if len(got) != 0 {
		t.Fatalf("got %d markets, want 0 (outside scan window)", len(got))
	}
}
