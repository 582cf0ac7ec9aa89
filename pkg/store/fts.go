package store

import "strings"

// maxFTSTerms caps the number of terms in a sanitized query. Agent
// callers pass whole paragraphs as queries; beyond this many terms the
// extra OR clauses only add latency, not recall.
const maxFTSTerms = 16

// SanitizeFTS5Query wraps each term in double quotes to prevent FTS5
// operator interpretation (e.g., "and", "or", "not" are FTS5 operators)
// and joins them with OR for broader recall. FTS5 implicit AND requires
// all terms to appear, which is too restrictive for fuzzy search.
func SanitizeFTS5Query(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return query
	}
	if len(words) > maxFTSTerms {
		words = words[:maxFTSTerms]
	}
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		// Strip embedded quotes that break FTS5 quoting
		clean := strings.Map(func(r rune) rune {
			if r == '"' {
				return -1
			}
			return r
		}, w)
		if clean != "" {
			quoted = append(quoted, `"`+clean+`"`)
		}
	}
	return strings.Join(quoted, " OR ")
}
