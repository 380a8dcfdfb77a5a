package normalize

import (
	"regexp"
	"strconv"
)

// mapGameRe matches the literal word "map" or "game" preceded by a word
// boundary, followed by whitespace and an integer. It deliberately does
// not match "2.5 maps" (the word appears after the number, plural) or
// "over N maps" (same) — the anchor is "map"/"game" immediately followed
// by the number, not preceded by it.
var mapGameRe = regexp.MustCompile(`(?i)\b(?:map|game)\s+(\d+)\b`)

// MapNumber extracts the integer following a "map" or "game" token from
// free text, returning (0, false) if no such pattern is present.
func MapNumber(text string) (int, bool) {
	m := mapGameRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
