package domain

// LadderLevel is one (price_cents, size) rung of an ask ladder, ordered
// best-to-worst regardless of the venue's native wire ordering.
type LadderLevel struct {
	PriceCents float64
	Size       float64
}

// Quote is one venue's priced view of one market at a single tick.
// A nil ask price means that side has no liquidity and must be treated
// as infinite cost, never as zero.
type Quote struct {
	YesAskCents *float64
	NoAskCents  *float64
	YesDepth    float64
	NoDepth     float64
	YesLadder   []LadderLevel
	NoLadder    []LadderLevel
}

// PairQuotes bundles both venues' quotes for one matched pair at one tick.
// Either side may be nil if that venue's fetch failed or exceeded its
// per-call deadline; such pairs are skipped for the tick.
type PairQuotes struct {
	Pair MatchedPair
	A    *Quote
	B    *Quote
}
