package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases name and removes all whitespace so that names rendered
// with different spacing compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// Similarity returns the Jaro-Winkler similarity of the normalized names, 1 meaning identical.
func Similarity(a, b string) float64 {
	return matchr.JaroWinkler(NormalizeName(a), NormalizeName(b), false)
}

// MatchName reports whether name contains the query after normalization or is at least
// threshold similar to it.
func MatchName(name, query string, threshold float64) bool {
	normalizedName := NormalizeName(name)
	normalizedQuery := NormalizeName(query)
	if normalizedQuery == "" {
		return true
	}
	if strings.Contains(normalizedName, normalizedQuery) {
		return true
	}
	return matchr.JaroWinkler(normalizedName, normalizedQuery, false) >= threshold
}
