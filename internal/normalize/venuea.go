package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venuea"
)

// sportSeriesPrefixes maps a venue-A series-ticker prefix to a sport code.
// Longer, more specific prefixes are checked before shorter ones via
// sportFromTicker's ordered scan.
var sportSeriesPrefixes = []struct {
	prefix string
	sport  string
}{
	{"KXCS2GAME", "CS2"},
	{"KXCS2MAP", "CS2"},
	{"KXCS2", "CS2"},
	{"KXLOLGAME", "LOL"},
	{"KXLOLMAP", "LOL"},
	{"KXLOL", "LOL"},
	{"KXVALORANTMAP", "VAL"},
	{"KXVALORANT", "VAL"},
	{"KXNBA", "NBA"},
	{"KXNHL", "NHL"},
	{"KXMLB", "MLB"},
	{"KXNFL", "NFL"},
	{"KXSOCCER", "SOCCER"},
}

var cryptoAssetKeywords = map[string]string{
	"bitcoin":  "BTC",
	"btc":      "BTC",
	"ethereum": "ETH",
	"eth":      "ETH",
	"solana":   "SOL",
	"sol":      "SOL",
	"xrp":      "XRP",
	"ripple":   "XRP",
	"dogecoin": "DOGE",
	"doge":     "DOGE",
}

var aboveWords = map[string]bool{
	"above": true, "over": true, "exceed": true, "exceeds": true,
	"higher": true, "more": true, "greater": true, "reach": true,
	"reaches": true, "hit": true, "hits": true, "surpass": true, "or_more": true,
}
var belowWords = map[string]bool{
	"below": true, "under": true, "less": true, "lower": true,
	"beneath": true, "fall": true, "falls": true, "drop": true, "drops": true,
}

var (
	wordRe            = regexp.MustCompile(`[a-z]+`)
	dollarAmountRe    = regexp.MustCompile(`\$\s*([\d]+(?:\.\d+)?)\s*([kKmMbB]?)`)
	vsPatternWithWord = regexp.MustCompile(`(?i)the\s+(.+?)\s+vs\.?\s+(.+?)\s+(?:cs2|nba|nfl|nhl|mlb|lol|valorant|soccer|game|match|series)`)
	vsPatternBare     = regexp.MustCompile(`(?i)the\s+(.+?)\s+vs\.?\s+(.+?)(?:\s*\?|$)`)
	winnerPrefixRe    = regexp.MustCompile(`(?i)^will\s+(.+?)\s+win\s+`)
)

// VenueAMarkets converts a page of raw venue-A market records into
// NormalizedMarket rows, dropping anything unparseable or outside the
// scan window.
func VenueAMarkets(raw []venuea.Market, now time.Time, windowHours int) []domain.NormalizedMarket {
	out := make([]domain.NormalizedMarket, 0, len(raw))
	cutoff := now.Add(time.Duration(windowHours) * time.Hour)

	for _, r := range raw {
		m, ok := venueAOne(r)
		if !ok {
			continue
		}
		if !m.ResolutionDT.After(now) || m.ResolutionDT.After(cutoff) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func venueAOne(r venuea.Market) (domain.NormalizedMarket, bool) {
	ticker := strings.TrimSpace(r.Ticker)
	title := strings.TrimSpace(r.Title)
	if ticker == "" || title == "" {
		return domain.NormalizedMarket{}, false
	}

	resolutionDT, ok := parseExpiration(r.ExpectedExpirationTime)
	if !ok {
		return domain.NormalizedMarket{}, false
	}

	if sport, subtype := sportFromTicker(r.SeriesTicker, ticker); sport != "" {
		return venueASports(r, ticker, title, resolutionDT, sport, subtype)
	}

	return venueACrypto(r, ticker, title, resolutionDT)
}

func sportFromTicker(seriesTicker, ticker string) (sport string, subtype domain.SportSubtype) {
	upperSeries := strings.ToUpper(seriesTicker)
	upperTicker := strings.ToUpper(ticker)

	match := ""
	for _, e := range sportSeriesPrefixes {
		if upperSeries == e.prefix || strings.HasPrefix(upperSeries, e.prefix) {
			match = e.sport
			break
		}
	}
	if match == "" {
		for _, e := range sportSeriesPrefixes {
			if strings.HasPrefix(upperTicker, e.prefix) {
				match = e.sport
				break
			}
		}
	}
	if match == "" {
		return "", ""
	}

	subtype = domain.SportSubtypeSeries
	if strings.Contains(upperSeries, "MAP") || strings.Contains(upperTicker, "MAP") ||
		strings.Contains(upperSeries, "GAME") || strings.Contains(upperTicker, "GAME") {
		subtype = domain.SportSubtypeMap
	}
	return match, subtype
}

func venueASports(r venuea.Market, ticker, title string, resolutionDT time.Time, sport string, subtype domain.SportSubtype) (domain.NormalizedMarket, bool) {
	teamRaw := strings.TrimSpace(r.YesSubTitle)
	if teamRaw == "" {
		if m := winnerPrefixRe.FindStringSubmatch(title); m != nil {
			teamRaw = strings.TrimSpace(m[1])
		}
	}
	if teamRaw == "" {
		return domain.NormalizedMarket{}, false
	}

	teamA, teamB, ok := extractBothTeams(title)
	if !ok {
		return domain.NormalizedMarket{}, false
	}

	team := Team(teamRaw)
	var opponentRaw string
	switch {
	case Team(teamA) == team:
		opponentRaw = teamB
	case Team(teamB) == team:
		opponentRaw = teamA
	default:
		if strings.Contains(strings.ToLower(teamA), strings.ToLower(teamRaw)) {
			opponentRaw = teamB
		} else {
			opponentRaw = teamA
		}
	}

	var mapNumber *int
	if n, ok := MapNumber(title); ok {
		mapNumber = &n
	}

	m := domain.NormalizedMarket{
		Venue:        domain.VenueA,
		PlatformID:   ticker,
		PlatformURL:  "https://venuea.example/markets/" + strings.ToLower(ticker),
		RawTitle:     title,
		AssetClass:   domain.AssetClassSports,
		Sport:        sport,
		Team:         team,
		Opponent:     Team(opponentRaw),
		SportSubtype: subtype,
		MapNumber:    mapNumber,
		ResolutionDT: resolutionDT,
		YesToken:     ticker + ":yes",
		NoToken:      ticker + ":no",
		LiquidityUSD: float64(r.Liquidity) / 100,
		VolumeUSD:    float64(r.Volume24H) / 100,
	}
	applyVenueAPrices(&m, r)
	return m, true
}

func venueACrypto(r venuea.Market, ticker, title string, resolutionDT time.Time) (domain.NormalizedMarket, bool) {
	combined := title + " " + r.Subtitle

	asset, ok := extractCryptoAsset(combined)
	if !ok {
		return domain.NormalizedMarket{}, false
	}
	direction, ok := extractDirection(combined)
	if !ok {
		return domain.NormalizedMarket{}, false
	}
	threshold, ok := extractDollarAmount(combined)
	if !ok {
		return domain.NormalizedMarket{}, false
	}

	m := domain.NormalizedMarket{
		Venue:        domain.VenueA,
		PlatformID:   ticker,
		PlatformURL:  "https://venuea.example/markets/" + strings.ToLower(ticker),
		RawTitle:     title,
		AssetClass:   domain.AssetClassCrypto,
		CryptoAsset:  asset,
		Direction:    direction,
		Threshold:    threshold,
		ResolutionDT: resolutionDT,
		YesToken:     ticker + ":yes",
		NoToken:      ticker + ":no",
		LiquidityUSD: float64(r.Liquidity) / 100,
		VolumeUSD:    float64(r.Volume24H) / 100,
	}
	applyVenueAPrices(&m, r)
	return m, true
}

func applyVenueAPrices(m *domain.NormalizedMarket, r venuea.Market) {
	if r.YesAsk != nil {
		v := float64(*r.YesAsk)
		m.YesAskCents = &v
	}
	if r.NoAsk != nil {
		v := float64(*r.NoAsk)
		m.NoAskCents = &v
	}
	if r.YesBid != nil {
		v := float64(*r.YesBid)
		m.YesBidCents = &v
	}
	if r.NoBid != nil {
		v := float64(*r.NoBid)
		m.NoBidCents = &v
	}
}

func extractBothTeams(title string) (string, string, bool) {
	if m := vsPatternWithWord.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := vsPatternBare.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

func extractCryptoAsset(text string) (string, bool) {
	lower := strings.ToLower(text)
	for kw, sym := range cryptoAssetKeywords {
		if strings.Contains(lower, kw) {
			return sym, true
		}
	}
	return "", false
}

func extractDirection(text string) (domain.Direction, bool) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "or above") || strings.Contains(lower, "or more") || strings.Contains(lower, "≥") {
		return domain.DirectionAbove, true
	}
	words := wordRe.FindAllString(lower, -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	for w := range set {
		if aboveWords[w] {
			return domain.DirectionAbove, true
		}
	}
	for w := range set {
		if belowWords[w] {
			return domain.DirectionBelow, true
		}
	}
	return "", false
}

func extractDollarAmount(text string) (float64, bool) {
	clean := strings.ReplaceAll(text, ",", "")
	m := dollarAmountRe.FindStringSubmatch(clean)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k":
		value *= 1_000
	case "m":
		value *= 1_000_000
	case "b":
		value *= 1_000_000_000
	}
	return value, true
}

func parseExpiration(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
