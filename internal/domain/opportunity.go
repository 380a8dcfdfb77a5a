package domain

import "time"

// Strategy identifies which leg-direction combination an Opportunity uses.
type Strategy string

const (
	// StrategyA buys YES on Venue-A and NO on Venue-B.
	StrategyA Strategy = "A"
	// StrategyB buys NO on Venue-A and YES on Venue-B.
	StrategyB Strategy = "B"
)

// Tier buckets an Opportunity's spread for operator-facing triage.
type Tier string

const (
	TierUltraHigh Tier = "Ultra High"
	TierHigh      Tier = "High"
	TierMid       Tier = "Mid"
	TierLow       Tier = "Low"
)

// ProfitTier is one [Min, Max) cut point in the tiering table. Max may be
// +Inf for the top, open-ended tier.
type ProfitTier struct {
	Name Tier
	Min  float64
	Max  float64
}

// Opportunity is a derived, per-tick candidate arbitrage trade. It is not
// persisted through the matcher — only the executor's terminal result is.
type Opportunity struct {
	Pair     MatchedPair
	Strategy Strategy

	ACostCents  float64
	BCostCents  float64
	SpreadCents float64
	Tier        Tier

	// Depth available at the best ask on each leg, used for sizing and for
	// the book-walk fallback on Venue-B.
	ADepthShares float64
	BDepthShares float64
	BAskLevels   []LadderLevel

	TradeableUnits     int
	MaxLockedProfitUSD float64

	HoursToClose float64
	DetectedAt   time.Time
}

// VenueASide and VenueBSide return the side bought on each venue for this
// strategy, in the vocabulary used by logging and persistence ("YES"/"NO").
func (o Opportunity) VenueASide() string {
	if o.Strategy == StrategyA {
		return "YES"
	}
	return "NO"
}

func (o Opportunity) VenueBSide() string {
	if o.Strategy == StrategyA {
		return "NO"
	}
	return "YES"
}
