package normalize

import (
	"testing"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venueb"
)

func TestVenueBMarketsSportsPair(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venueb.GammaMarket{
		{
			ConditionID:      "0xabc",
			Question:         "M80 vs. Voca - Map 2",
			Slug:             "m80-vs-voca-map-2",
			Active:           true,
			Closed:           false,
			Outcomes:         `["M80","Voca"]`,
			ClobTokenIDs:     `["111","222"]`,
			EndDateISO:       now.Add(2 * time.Hour).Format(time.RFC3339),
			SportsMarketType: "child_moneyline",
			Category:         "CS2",
		},
	}

	got := VenueBMarkets(raw, now, 72)
	if len(got) != 2 {
		t.Fatalf("got %d markets, want 2", len(got))
	}

	byTeam := map[string]domain.NormalizedMarket{}
	for _, m := range got {
		byTeam[m.Team] = m
	}

	m80, ok := byTeam["m80"]
	if !ok {
		t.Fatalf("missing m80 row, got %v", byTeam)
	}
	if m80.Opponent != "voca" {
		t.Errorf("m80 opponent = %q, want voca", m80.Opponent)
	}
	if m80.SportSubtype != domain.SportSubtypeMap {
		t.Errorf("subtype = %v, want map", m80.SportSubtype)
	}
	if m80.Sport != "CS2" {
		t.Errorf("sport = %q, want CS2", m80.Sport)
	}
	if m80.YesToken != "111" || m80.NoToken != "222" {
		t.Errorf("tokens = %s/%s, want 111/222", m80.YesToken, m80.NoToken)
	}

	voca, ok := byTeam["voca"]
	if !ok {
		t.Fatalf("missing voca row")
	}
	if voca.Opponent != "m80" {
		t.Errorf("voca opponent = %q, want m80", voca.Opponent)
	}
	if voca.YesToken != "222" || voca.NoToken != "111" {
		t.Errorf("voca tokens = %s/%s, want 222/111", voca.YesToken, voca.NoToken)
	}
}

func TestVenueBMarketsYesNoSports(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venueb.GammaMarket{
		{
			ConditionID:      "0xdef",
			Question:         "Will the Lakers win?",
			Active:           true,
			Outcomes:         `["Yes","No"]`,
			ClobTokenIDs:     `["333","444"]`,
			EndDateISO:       now.Add(5 * time.Hour).Format(time.RFC3339),
			SportsMarketType: "moneyline",
			Category:         "NBA",
		},
	}

	got := VenueBMarkets(raw, now, 72)
	if len(got) != 1 {
		t.Fatalf("got %d markets, want 1", len(got))
	}
	m := got[0]
	if m.Team != "lakers" {
		t.Errorf("team = %q, want lakers", m.Team)
	}
	if m.Sport != "NBA" {
		t.Errorf("sport = %q, want NBA", m.Sport)
	}
	if m.YesToken != "333" || m.NoToken != "444" {
		t.Errorf("tokens = %s/%s, want 333/444", m.YesToken, m.NoToken)
	}
}

func TestVenueBMarketsDrawSkipped(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venueb.GammaMarket{
		{
			ConditionID:      "0xfff",
			Question:         "Will the match end in a draw?",
			Active:           true,
			Outcomes:         `["Yes","No"]`,
			ClobTokenIDs:     `["1","2"]`,
			EndDateISO:       now.Add(5 * time.Hour).Format(time.RFC3339),
			SportsMarketType: "moneyline",
			Category:         "SOCCER",
		},
	}

	got := VenueBMarkets(raw, now, 72)
	if len(got) != 0 {
		t.Fatalf("got %d markets, want 0 (draw market skipped)", len(got))
	}
}

func TestVenueBMarketsCrypto(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venueb.GammaMarket{
		{
			ConditionID:  "0x111",
			Question:     "Will Ethereum be above $5,000 on March 1?",
			Active:       true,
			Outcomes:     `["Yes","No"]`,
			ClobTokenIDs: `["10","20"]`,
			EndDateISO:   now.Add(4 * time.Hour).Format(time.RFC3339),
		},
	}

	got := VenueBMarkets(raw, now, 72)
	if len(got) != 1 {
		t.Fatalf("got %d markets, want 1", len(got))
	}
	m := got[0]
	if m.AssetClass != domain.AssetClassCrypto {
		t.Fatalf("asset class = %v, want CRYPTO", m.AssetClass)
	}
	if m.CryptoAsset != "ETH" {
		t.Errorf("asset = %q, want ETH", m.CryptoAsset)
	}
	if m.Direction != domain.DirectionAbove {
		t.Errorf("direction = %v, want ABOVE", m.Direction)
	}
	if m.Threshold != 5000 {
		t.Errorf("threshold = %v, want 5000", m.Threshold)
	}
	if m.YesToken != "10" || m.NoToken != "20" {
		t.Errorf("tokens = %s/%s, want 10/20", m.YesToken, m.NoToken)
	}
}

func TestVenueBMarketsClosedDropped(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	raw := []venueb.GammaMarket{
		{
			ConditionID:  "0x222",
			Question:     "Will Ethereum be above $5,000 on March 1?",
			Active:       true,
			Closed:       true,
			Outcomes:     `["Yes","No"]`,
			ClobTokenIDs: `["10","20"]`,
			EndDateISO:   now.Add(4 * time.Hour).Format(time.RFC3339),
		},
	}

	got := VenueBMarkets(raw, now, 72)
	if len(got) != 0 {
		t.Fatalf("got %d markets, want 0 (closed market dropped)", len(got))
	}
}
