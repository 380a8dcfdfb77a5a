package domain

import "time"

// TradeStatus is the terminal (or near-terminal) state of one execution
// attempt against a single Opportunity.
type TradeStatus string

const (
	TradeStatusFilled       TradeStatus = "filled"
	TradeStatusSkipped      TradeStatus = "skipped"
	TradeStatusUnwound      TradeStatus = "unwound"
	TradeStatusPartialStuck TradeStatus = "partial_stuck"
	TradeStatusError        TradeStatus = "error"
)

// Trade is the persisted record of one two-leg execution attempt.
type Trade struct {
	ID              int64
	OpportunityID   int64
	TradedAt        time.Time
	PairKey         string
	VenueASide      string
	VenueBSide      string
	RequestedUnits  int
	AFilled         int
	BFilled         int
	APriceCents     float64
	BPriceCents     float64
	ACostUSD        float64
	BCostUSD        float64
	TotalCostUSD    float64
	LockedProfitUSD float64
	AFeeUSD         float64
	NetProfitUSD    float64
	AOrderID        string
	BOrderID        string
	Status          TradeStatus
	Reason          string
	ABalBefore      *float64
	BBalBefore      *float64
}

// PersistedOpportunity is the append-only record of a detected opportunity,
// independent of whether it was ever executed.
type PersistedOpportunity struct {
	ID                 int64
	ScannedAt          time.Time
	PairKey            string
	Strategy           Strategy
	ACostCents         float64
	BCostCents         float64
	SpreadCents        float64
	Tier               Tier
	ADepthShares       float64
	BDepthShares       float64
	TradeableUnits     int
	MaxLockedProfitUSD float64
	HoursToClose       float64
	Executed           bool
}
