// Package opportunity evaluates matched-pair quotes for cross-venue
// arbitrage, emitting sized, tiered Opportunity candidates.
package opportunity

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// Config holds the finder's tunables, sourced from the root config's
// MatchConfig section.
type Config struct {
	MinSpreadCents float64
	MinPriceCents  float64
	Tiers          []domain.ProfitTier
}

// DefaultTiers is the tiering table named in the matching rules.
func DefaultTiers() []domain.ProfitTier {
	return []domain.ProfitTier{
		{Name: domain.TierUltraHigh, Min: 8.0, Max: math.Inf(1)},
		{Name: domain.TierHigh, Min: 5.0, Max: 8.0},
		{Name: domain.TierMid, Min: 4.0, Max: 5.0},
		{Name: domain.TierLow, Min: 3.3, Max: 4.0},
	}
}

// DefaultConfig returns MIN_SPREAD_CENTS=3.3, MIN_PRICE_CENTS effectively
// disabled (0), and the default tier table. The source documents two
// conflicting MIN_SPREAD_CENTS defaults (0.8 and 3.3); 3.3 is chosen here
// since it is the value consistent with the tier table's lowest bucket.
func DefaultConfig() Config {
	return Config{
		MinSpreadCents: 3.3,
		MinPriceCents:  0,
		Tiers:          DefaultTiers(),
	}
}

// Find evaluates both strategies for every pair's quotes, optionally
// gating SPORTS pairs through a MatchValidator, and returns opportunities
// sorted by spread descending.
func Find(ctx context.Context, log *slog.Logger, cfg Config, validator domain.MatchValidator, pairQuotes []domain.PairQuotes, now time.Time) []domain.Opportunity {
	var out []domain.Opportunity

	for _, pq := range pairQuotes {
		if pq.A == nil || pq.B == nil {
			continue
		}
		if !passesMatchValidation(ctx, log, validator, pq.Pair) {
			continue
		}

		if o, ok := evaluateStrategy(cfg, pq, domain.StrategyA, pq.A.YesAskCents, pq.B.NoAskCents, pq.A.YesDepth, pq.B.NoDepth, pq.B.NoLadder, now); ok {
			out = append(out, o)
		}
		if o, ok := evaluateStrategy(cfg, pq, domain.StrategyB, pq.A.NoAskCents, pq.B.YesAskCents, pq.A.NoDepth, pq.B.YesDepth, pq.B.YesLadder, now); ok {
			out = append(out, o)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SpreadCents > out[j].SpreadCents
	})

	if log != nil {
		log.Info("opportunity finder", "pairs", len(pairQuotes), "opportunities", len(out))
	}
	return out
}

func passesMatchValidation(ctx context.Context, log *slog.Logger, validator domain.MatchValidator, pair domain.MatchedPair) bool {
	if validator == nil || pair.A.AssetClass != domain.AssetClassSports {
		return true
	}
	verified, err := validator.IsScheduled(ctx, pair.A.Team, pair.A.Opponent, pair.A.Sport)
	if err != nil || verified == nil {
		if log != nil {
			log.Warn("match validation unavailable, allowing",
				"team", pair.A.Team, "opponent", pair.A.Opponent, "sport", pair.A.Sport, "error", err)
		}
		return true
	}
	if !*verified {
		if log != nil {
			log.Info("match validation failed, skipping pair",
				"team", pair.A.Team, "opponent", pair.A.Opponent, "sport", pair.A.Sport)
		}
		return false
	}
	return true
}

func evaluateStrategy(cfg Config, pq domain.PairQuotes, strategy domain.Strategy, aCost, bCost *float64, aDepth, bDepth float64, bLadder []domain.LadderLevel, now time.Time) (domain.Opportunity, bool) {
	if aCost == nil || bCost == nil {
		return domain.Opportunity{}, false
	}
	if *aCost < cfg.MinPriceCents || *bCost < cfg.MinPriceCents {
		return domain.Opportunity{}, false
	}

	combined := *aCost + *bCost
	if combined >= 100.0 {
		return domain.Opportunity{}, false
	}
	spread := 100.0 - combined
	if spread < cfg.MinSpreadCents {
		return domain.Opportunity{}, false
	}

	tier, ok := classifyTier(cfg.Tiers, spread)
	if !ok {
		return domain.Opportunity{}, false
	}

	aClose := pq.Pair.A.ResolutionDT
	bClose := pq.Pair.B.ResolutionDT
	earlier := aClose
	if bClose.Before(earlier) {
		earlier = bClose
	}
	hoursToClose := earlier.Sub(now).Hours()
	if hoursToClose < 0 {
		hoursToClose = 0
	}

	depthAtBestAsk := math.Min(aDepth, bDepth)
	tradeableUnits := int(math.Floor(depthAtBestAsk))
	maxLockedProfit := float64(tradeableUnits) * spread / 100

	return domain.Opportunity{
		Pair:               pq.Pair,
		Strategy:           strategy,
		ACostCents:         round2(*aCost),
		BCostCents:         round2(*bCost),
		SpreadCents:        round2(spread),
		Tier:               tier,
		ADepthShares:       aDepth,
		BDepthShares:       bDepth,
		BAskLevels:         bLadder,
		TradeableUnits:     tradeableUnits,
		MaxLockedProfitUSD: round2(maxLockedProfit),
		HoursToClose:       round1(hoursToClose),
		DetectedAt:         now,
	}, true
}

func classifyTier(tiers []domain.ProfitTier, spread float64) (domain.Tier, bool) {
	for _, t := range tiers {
		if spread >= t.Min && spread < t.Max {
			return t.Name, true
		}
	}
	return "", false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
