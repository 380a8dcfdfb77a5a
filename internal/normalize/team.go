// Package normalize reduces raw venue-specific market records to the
// common domain.NormalizedMarket shape used by the matcher and
// opportunity finder.
package normalize

import (
	"regexp"
	"strings"
)

var (
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
	allDigitsRe   = regexp.MustCompile(`^\d+$`)
)

// stopwords are dropped from a team name during normalization. They are
// common suffixes/prefixes that do not distinguish one org from another
// across venues.
var stopwords = map[string]bool{
	"team":    true,
	"esports": true,
	"gaming":  true,
	"fc":      true,
	"sc":      true,
	"the":     true,
}

// Team normalizes a raw team name for cross-venue comparison: lowercase,
// strip punctuation, tokenize on whitespace, drop stopwords, strip a
// trailing purely-numeric token (e.g. a roster-season suffix like the "2"
// in "Cloud9 2"), and concatenate the remaining tokens with no separator.
//
// If stopword filtering empties the token list, the pre-filter tokens are
// used instead — this preserves short identifiers that coincide with a
// stopword token in isolation, e.g. a roster literally named "FC" would
// otherwise normalize to the empty string.
func Team(raw string) string {
	lower := strings.ToLower(raw)
	stripped := punctuationRe.ReplaceAllString(lower, " ")
	tokens := strings.Fields(stripped)

	filtered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopwords[t] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		filtered = tokens
	}

	if n := len(filtered); n > 1 && allDigitsRe.MatchString(filtered[n-1]) {
		filtered = filtered[:n-1]
	}

	return strings.Join(filtered, "")
}
