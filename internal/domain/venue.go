package domain

import "context"

// Fill describes the result of checking an order's fill state.
type Fill struct {
	OrderID   string
	Status    string
	Filled    int
	Remaining int
}

// RawFill is an on-chain order-fill event as reported by a subgraph
// indexer, used to cross-check a venue's reported fills against chain
// settlement independent of the REST API.
type RawFill struct {
	TransactionHash   string
	Timestamp         int64
	Maker             string
	MakerAssetID      string
	MakerAmountFilled int64
	Taker             string
	TakerAssetID      string
	TakerAmountFilled int64
}

// VenueAdapter is the capability set both exchanges implement: list
// markets, fetch a live quote, place/cancel taker orders, check fills,
// read balance, and close out a filled leg at the current bid. Venue-A
// and Venue-B each provide one implementation; paper mode wraps either
// with a simulator instead of adding a third concrete venue.
type VenueAdapter interface {
	Name() string
	ListMarkets(ctx context.Context) ([]NormalizedMarket, error)
	GetQuote(ctx context.Context, m NormalizedMarket) (Quote, error)
	PlaceTaker(ctx context.Context, m NormalizedMarket, side string, units int, limitCents float64) (orderID string, err error)
	Cancel(ctx context.Context, orderID string) error
	GetFill(ctx context.Context, orderID string) (Fill, error)
	GetBalance(ctx context.Context) (float64, error)
	SellAtBid(ctx context.Context, m NormalizedMarket, side string, units int) (orderID string, recoveredUSD float64, err error)
}

// MatchValidator is an optional external gate consulted before trading a
// SPORTS pair. A nil MatchValidator means the gate is skipped entirely.
// Implementations return a nil *bool when verification is unavailable
// (e.g. the upstream source is unreachable); callers should log and allow
// the trade rather than treat unavailability as rejection.
type MatchValidator interface {
	IsScheduled(ctx context.Context, team, opponent, sport string) (verified *bool, err error)
}
