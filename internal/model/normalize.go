package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// suffixes dropped when normalizing player names. The stats API and the
// fantasy API disagree on whether generational suffixes are part of the name.
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "v": true,
}

// NormalizeName canonicalizes a player name for cross-API joins: lowercase,
// diacritics stripped, punctuation removed, generational suffixes dropped.
// "Luka Dončić" and "luka doncic" normalize to the same key.
func NormalizeName(name string) string {
	out, _, err := transform.String(diacriticStripper, name)
	if err != nil {
		out = name
	}

	out = strings.ToLower(out)
	out = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		default:
			return -1
		}
	}, out)

	fields := strings.Fields(out)
	if len(fields) > 2 && nameSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}
