// Package match pairs a Venue-A NormalizedMarket list against a Venue-B
// list, producing an exclusive set of MatchedPair rows believed to
// reference the same real-world event.
package match

import (
	"log/slog"
	"time"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
)

// Config holds the matcher's tunables, sourced from the root config's
// MatchConfig section.
type Config struct {
	SportsToleranceHours float64
	CryptoToleranceHours float64
	CryptoMatchEnabled   bool
}

// DefaultConfig returns the tolerances named in the matching rules: 4h
// for sports (esports best-of series plus scheduling slop), 1h for
// crypto, with crypto matching disabled by default.
func DefaultConfig() Config {
	return Config{
		SportsToleranceHours: 4,
		CryptoToleranceHours: 1,
		CryptoMatchEnabled:   false,
	}
}

// RejectReason tags why a candidate pair within the same bucket failed
// to match, for observability.
type RejectReason string

const (
	RejectDateGap           RejectReason = "date_gap"
	RejectOpponentMismatch  RejectReason = "opponent_mismatch"
	RejectSubtypeMismatch   RejectReason = "subtype_mismatch"
	RejectMapNumberMismatch RejectReason = "map_number_mismatch"
	RejectThresholdMismatch RejectReason = "threshold_mismatch"
)

// Result is the outcome of one matching pass: the exclusive pair set
// plus a rejection tally for observability.
type Result struct {
	Pairs     []domain.MatchedPair
	Rejected  map[RejectReason]int
}

type sportsBucketKey = [3]string
type cryptoBucketKey = [2]string

// Find buckets venue-A markets by (sport, team, subtype) or
// (crypto_asset, direction), then for each venue-B market in the same
// bucket checks the remaining criteria and takes the first match,
// marking both rows consumed.
func Find(log *slog.Logger, cfg Config, venueA, venueB []domain.NormalizedMarket) Result {
	res := Result{Rejected: map[RejectReason]int{}}

	sportsBuckets := map[sportsBucketKey][]domain.NormalizedMarket{}
	cryptoBuckets := map[cryptoBucketKey][]domain.NormalizedMarket{}
	consumedA := map[string]bool{}

	for _, m := range venueA {
		switch m.AssetClass {
		case domain.AssetClassSports:
			k := m.BucketKeySports()
			sportsBuckets[k] = append(sportsBuckets[k], m)
		case domain.AssetClassCrypto:
			if !cfg.CryptoMatchEnabled {
				continue
			}
			k := m.BucketKeyCrypto()
			cryptoBuckets[k] = append(cryptoBuckets[k], m)
		}
	}

	for _, b := range venueB {
		var candidates []domain.NormalizedMarket
		switch b.AssetClass {
		case domain.AssetClassSports:
			candidates = sportsBuckets[b.BucketKeySports()]
		case domain.AssetClassCrypto:
			if !cfg.CryptoMatchEnabled {
				continue
			}
			candidates = cryptoBuckets[b.BucketKeyCrypto()]
		default:
			continue
		}

		for _, a := range candidates {
			key := string(a.Venue) + a.PlatformID
			if consumedA[key] {
				continue
			}
			ok, reason := evaluate(cfg, a, b)
			if !ok {
				res.Rejected[reason]++
				continue
			}
			consumedA[key] = true
			res.Pairs = append(res.Pairs, domain.MatchedPair{A: a, B: b})
			if log != nil {
				log.Debug("matched pair",
					"venue_a_id", a.PlatformID,
					"venue_b_id", b.PlatformID,
					"asset_class", a.AssetClass,
				)
			}
			break
		}
	}

	return res
}

func evaluate(cfg Config, a, b domain.NormalizedMarket) (bool, RejectReason) {
	if a.AssetClass == domain.AssetClassSports {
		return evaluateSports(cfg, a, b)
	}
	return evaluateCrypto(cfg, a, b)
}

func evaluateSports(cfg Config, a, b domain.NormalizedMarket) (bool, RejectReason) {
	if a.Opponent != b.Opponent {
		return false, RejectOpponentMismatch
	}
	if dateGap(a.ResolutionDT, b.ResolutionDT) > cfg.SportsToleranceHours {
		return false, RejectDateGap
	}
	if a.SportSubtype != b.SportSubtype {
		return false, RejectSubtypeMismatch
	}
	if a.MapNumber != nil && b.MapNumber != nil && *a.MapNumber != *b.MapNumber {
		return false, RejectMapNumberMismatch
	}
	return true, ""
}

func evaluateCrypto(cfg Config, a, b domain.NormalizedMarket) (bool, RejectReason) {
	if dateGap(a.ResolutionDT, b.ResolutionDT) > cfg.CryptoToleranceHours {
		return false, RejectDateGap
	}
	if a.Threshold != b.Threshold {
		return false, RejectThresholdMismatch
	}
	return true, ""
}

func dateGap(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Hours()
}
