package filings

import (
	"regexp"
	"strings"

	"github.com/seenimoa/secfilter/pkg/models"
)

var (
	// Feed-derived names can carry an amendment prefix: "K - ", "Q - ", "K/A - ".
	amendmentPrefixRe = regexp.MustCompile(`(?i)^[A-Z](/[A-Z])?\s*-\s*`)
	legalSuffixRe     = regexp.MustCompile(`(?i)\s+(Inc\.?|Corp\.?|Ltd\.?|LLC|LP|Co\.?|Company|Corporation|Incorporated)$`)
	punctuationRe     = regexp.MustCompile(`[,.]`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// minNameLength is the shortest cleaned name worth matching or searching.
const minNameLength = 3

// minKeywordLength is the shortest token counted by KeywordMatch.
const minKeywordLength = 5

// Normalize cleans a company name for comparison: one amendment prefix and
// one trailing legal suffix are removed, then commas and periods, and the
// result is lowercased with collapsed whitespace.
//
//	Normalize("K - Example Corp.")    == "example"
//	Normalize("Example Corporation") == "example"
func Normalize(name string) string {
	return normalizeListing(amendmentPrefixRe.ReplaceAllString(strings.TrimSpace(name), ""))
}

// normalizeListing cleans a reference list name. Listings never carry an
// amendment prefix, and "X-Rite Inc" must stay "x-rite".
func normalizeListing(name string) string {
	s := strings.TrimSpace(name)
	s = legalSuffixRe.ReplaceAllString(s, "")
	s = punctuationRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// NameMatcher decides whether a normalized query names the same company as
// a normalized candidate.
type NameMatcher func(query, candidate string) bool

// DefaultMatchers is the matching order used for reference lookups.
var DefaultMatchers = []NameMatcher{ExactMatch, SubstringMatch, KeywordMatch}

// ExactMatch requires identical normalized names.
func ExactMatch(query, candidate string) bool {
	return query != "" && query == candidate
}

// SubstringMatch accepts containment in either direction.
func SubstringMatch(query, candidate string) bool {
	if query == "" || candidate == "" {
		return false
	}
	return strings.Contains(candidate, query) || strings.Contains(query, candidate)
}

// KeywordMatch accepts a candidate that contains at least two of the
// query's long tokens, or the only one when the query has just one.
func KeywordMatch(query, candidate string) bool {
	words := keywords(query)
	if len(words) == 0 || candidate == "" {
		return false
	}
	need := min(2, len(words))
	hits := 0
	for _, w := range words {
		if strings.Contains(candidate, w) {
			hits++
			if hits >= need {
				return true
			}
		}
	}
	return false
}

func keywords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) >= minKeywordLength {
			out = append(out, w)
		}
	}
	return out
}

// referenceIndex is a stock list prepared for ticker lookups.
type referenceIndex struct {
	byCIK   map[string]string
	entries []indexedName
}

type indexedName struct {
	name   string // normalized
	symbol string
}

func newReferenceIndex(listings []models.StockListing) *referenceIndex {
	idx := &referenceIndex{
		byCIK:   make(map[string]string),
		entries: make([]indexedName, 0, len(listings)),
	}
	for _, l := range listings {
		if l.Symbol == "" {
			continue
		}
		if l.CIK != "" {
			if _, ok := idx.byCIK[l.CIK]; !ok {
				idx.byCIK[l.CIK] = l.Symbol
			}
		}
		if n := normalizeListing(l.Name); n != "" {
			idx.entries = append(idx.entries, indexedName{name: n, symbol: l.Symbol})
		}
	}
	return idx
}

// lookupCIK returns the symbol listed for cik, if the list carries CIKs.
func (idx *referenceIndex) lookupCIK(cik string) (string, bool) {
	if idx == nil {
		return "", false
	}
	sym, ok := idx.byCIK[cik]
	return sym, ok
}

// match runs the matchers in order over the whole list; the first matcher
// with any hit decides, and within a matcher the first listed entry wins.
func (idx *referenceIndex) match(query string, matchers []NameMatcher) (string, bool) {
	if idx == nil || len(query) < minNameLength {
		return "", false
	}
	for _, m := range matchers {
		for _, e := range idx.entries {
			if m(query, e.name) {
				return e.symbol, true
			}
		}
	}
	return "", false
}

func (idx *referenceIndex) size() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// usExchanges are the FMP exchanges kept in the reference stock list.
var usExchanges = map[string]bool{
	"NASDAQ":   true,
	"NYSE":     true,
	"AMEX":     true,
	"NYSE MKT": true,
}

func usListings(all []models.StockListing) []models.StockListing {
	out := make([]models.StockListing, 0, len(all)/2)
	for _, l := range all {
		if usExchanges[l.Exchange] {
			out = append(out, l)
		}
	}
	return out
}
