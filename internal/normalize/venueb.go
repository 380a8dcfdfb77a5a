package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/alanyoungcy/polymarketbot/internal/platform/venueb"
)

var sportCategoryKeywords = []struct {
	keyword string
	sport   string
}{
	{"counter-strike", "CS2"},
	{"counter strike", "CS2"},
	{"cs2", "CS2"},
	{"league of legends", "LOL"},
	{"lol", "LOL"},
	{"valorant", "VAL"},
	{"nba", "NBA"},
	{"basketball", "NBA"},
	{"nhl", "NHL"},
	{"hockey", "NHL"},
	{"mlb", "MLB"},
	{"baseball", "MLB"},
	{"nfl", "NFL"},
	{"soccer", "SOCCER"},
	{"football", "SOCCER"},
	{"premier league", "SOCCER"},
}

var (
	winMatchRe = regexp.MustCompile(`(?i)^will\s+(.+?)\s+win\b`)
)

// VenueBMarkets converts a page of raw venue-B market records into
// NormalizedMarket rows. SPORTS series/map markets with distinct team
// outcomes expand into two rows, one per team.
func VenueBMarkets(raw []venueb.GammaMarket, now time.Time, windowHours int) []domain.NormalizedMarket {
	out := make([]domain.NormalizedMarket, 0, len(raw)*2)
	cutoff := now.Add(time.Duration(windowHours) * time.Hour)

	for _, gm := range raw {
		if gm.Closed || !bool(gm.Active) {
			continue
		}
		rows := venueBOne(gm)
		for _, m := range rows {
			if !m.ResolutionDT.After(now) || m.ResolutionDT.After(cutoff) {
				continue
			}
			out = append(out, m)
		}
	}
	return out
}

func venueBOne(gm venueb.GammaMarket) []domain.NormalizedMarket {
	conditionID := strings.TrimSpace(gm.ConditionID)
	question := strings.TrimSpace(gm.Question)
	if conditionID == "" || question == "" || gm.EndDateISO == "" {
		return nil
	}
	resolutionDT, ok := parseExpiration(gm.EndDateISO)
	if !ok {
		return nil
	}

	platformURL := "https://venueb.example/event/" + eventSlug(gm)
	outcomes := gm.OutcomesList()
	tokenIDs := gm.TokenIDs()

	isMoneyline := gm.SportsMarketType == "moneyline" || gm.SportsMarketType == "child_moneyline"
	if isMoneyline && isYesNo(outcomes) {
		if m, ok := venueBYesNoSports(gm, conditionID, question, resolutionDT, platformURL, tokenIDs); ok {
			return []domain.NormalizedMarket{m}
		}
		return nil
	}

	sport := detectSport(question, gm.Category, gm.SeriesSlug)
	if isMoneyline || (sport != "" && len(outcomes) == 2 && !isYesNo(outcomes)) {
		return venueBSportsPair(gm, conditionID, question, resolutionDT, platformURL, sport, outcomes, tokenIDs)
	}

	if m, ok := venueBCrypto(gm, conditionID, question, resolutionDT, platformURL, tokenIDs, outcomes); ok {
		return []domain.NormalizedMarket{m}
	}
	return nil
}

func venueBSportsPair(gm venueb.GammaMarket, conditionID, question string, resolutionDT time.Time, platformURL, sport string, outcomes, tokenIDs []string) []domain.NormalizedMarket {
	if len(outcomes) != 2 || len(tokenIDs) < 2 {
		return nil
	}
	if sport == "" {
		sport = "SPORTS"
	}

	subtype := domain.SportSubtypeSeries
	if gm.SportsMarketType == "child_moneyline" {
		subtype = domain.SportSubtypeMap
	}
	var mapNumber *int
	if n, ok := MapNumber(question); ok {
		mapNumber = &n
	}

	var out []domain.NormalizedMarket
	for i := 0; i < 2; i++ {
		teamRaw := strings.TrimSpace(outcomes[i])
		if teamRaw == "" || isDrawOutcome(teamRaw) {
			continue
		}
		opp := 1 - i
		oppRaw := strings.TrimSpace(outcomes[opp])
		if oppRaw == "" || isDrawOutcome(oppRaw) {
			continue
		}

		team := Team(teamRaw)
		synthID := conditionID + "_" + team

		out = append(out, domain.NormalizedMarket{
			Venue:        domain.VenueB,
			PlatformID:   synthID,
			PlatformURL:  platformURL,
			RawTitle:     question,
			AssetClass:   domain.AssetClassSports,
			Sport:        sport,
			Team:         team,
			Opponent:     Team(oppRaw),
			SportSubtype: subtype,
			MapNumber:    mapNumber,
			ResolutionDT: resolutionDT,
			YesToken:     tokenIDs[i],
			NoToken:      tokenIDs[opp],
		})
	}
	return out
}

func venueBYesNoSports(gm venueb.GammaMarket, conditionID, question string, resolutionDT time.Time, platformURL string, tokenIDs []string) (domain.NormalizedMarket, bool) {
	lower := strings.ToLower(question)
	if strings.Contains(lower, "draw") || strings.Contains(lower, "tie") || strings.Contains(lower, "end in a") {
		return domain.NormalizedMarket{}, false
	}

	m := winMatchRe.FindStringSubmatch(question)
	if m == nil {
		return domain.NormalizedMarket{}, false
	}
	teamRaw := strings.TrimSpace(m[1])
	if teamRaw == "" {
		return domain.NormalizedMarket{}, false
	}
	team := Team(teamRaw)
	if team == "" {
		return domain.NormalizedMarket{}, false
	}

	sport := detectSport(question, gm.Category, gm.SeriesSlug)
	if sport == "" {
		sport = "SPORTS"
	}

	var yesToken, noToken string
	if len(tokenIDs) > 0 {
		yesToken = tokenIDs[0]
	}
	if len(tokenIDs) > 1 {
		noToken = tokenIDs[1]
	}

	return domain.NormalizedMarket{
		Venue:        domain.VenueB,
		PlatformID:   conditionID + "_" + team,
		PlatformURL:  platformURL,
		RawTitle:     question,
		AssetClass:   domain.AssetClassSports,
		Sport:        sport,
		Team:         team,
		SportSubtype: domain.SportSubtypeSeries,
		ResolutionDT: resolutionDT,
		YesToken:     yesToken,
		NoToken:      noToken,
	}, true
}

func venueBCrypto(gm venueb.GammaMarket, conditionID, question string, resolutionDT time.Time, platformURL string, tokenIDs, outcomes []string) (domain.NormalizedMarket, bool) {
	asset, ok := extractCryptoAsset(question)
	if !ok {
		return domain.NormalizedMarket{}, false
	}
	direction, ok := extractDirection(question)
	if !ok {
		return domain.NormalizedMarket{}, false
	}
	threshold, ok := extractDollarAmount(question)
	if !ok {
		return domain.NormalizedMarket{}, false
	}

	yesToken, noToken := yesNoTokenIDs(tokenIDs, outcomes)

	return domain.NormalizedMarket{
		Venue:        domain.VenueB,
		PlatformID:   conditionID,
		PlatformURL:  platformURL,
		RawTitle:     question,
		AssetClass:   domain.AssetClassCrypto,
		CryptoAsset:  asset,
		Direction:    direction,
		Threshold:    threshold,
		ResolutionDT: resolutionDT,
		YesToken:     yesToken,
		NoToken:      noToken,
	}, true
}

func isYesNo(outcomes []string) bool {
	if len(outcomes) != 2 {
		return false
	}
	a, b := strings.ToLower(outcomes[0]), strings.ToLower(outcomes[1])
	return (a == "yes" && b == "no") || (a == "no" && b == "yes")
}

func isDrawOutcome(s string) bool {
	lower := strings.ToLower(s)
	return lower == "draw" || lower == "tie" || lower == "no contest"
}

func yesNoTokenIDs(tokenIDs, outcomes []string) (yes, no string) {
	if len(tokenIDs) < 2 {
		return "", ""
	}
	if len(outcomes) < 2 {
		return tokenIDs[0], tokenIDs[1]
	}
	for i, o := range outcomes {
		switch strings.ToLower(o) {
		case "yes", "true", "1":
			yes = tokenIDs[i]
		case "no", "false", "0":
			no = tokenIDs[i]
		}
	}
	if yes == "" {
		yes = tokenIDs[0]
	}
	if no == "" {
		no = tokenIDs[1]
	}
	return yes, no
}

func detectSport(question, category, seriesSlug string) string {
	lower := strings.ToLower(question)
	for _, e := range sportCategoryKeywords {
		if strings.Contains(lower, e.keyword) {
			return e.sport
		}
	}
	catLower := strings.ToLower(category)
	for _, e := range sportCategoryKeywords {
		if strings.Contains(catLower, e.keyword) {
			return e.sport
		}
	}
	slugLower := strings.ToLower(seriesSlug)
	for _, e := range sportCategoryKeywords {
		if strings.Contains(slugLower, e.keyword) {
			return e.sport
		}
	}
	return ""
}

func eventSlug(gm venueb.GammaMarket) string {
	if len(gm.Events) > 0 && gm.Events[0].Slug != "" {
		return gm.Events[0].Slug
	}
	return gm.Slug
}
