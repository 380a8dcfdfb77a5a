package domain

// MatchedPair is an exclusive pairing of one Venue-A market to one
// Venue-B market believed to refer to the same real-world event. Each
// market appears in at most one MatchedPair in a given matched set.
type MatchedPair struct {
	A NormalizedMarket
	B NormalizedMarket
}

// Key returns a stable identifier for the pair, used for cooldown
// indexing and logging.
func (p MatchedPair) Key() string {
	return string(p.A.Venue) + ":" + p.A.PlatformID + "|" + string(p.B.Venue) + ":" + p.B.PlatformID
}
