package correct

import (
	"strings"
	"unicode"

	"mnemo/pkg/store"
)

// DefaultSimilarity is the token-overlap threshold for a fuzzy match.
const DefaultSimilarity = 0.6

// tokenSet splits normalized content into a set of words, trimming
// punctuation and dropping one- and two-letter tokens that carry no
// signal.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(store.NormalizeContent(s)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(w) < 3 {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// overlap returns the fraction of probe tokens present in content.
// Asymmetric on purpose: the correction fragment is a short probe held
// against longer stored rows, and a symmetric measure would punish
// every match for the row's extra words.
func overlap(probe, content map[string]struct{}) float64 {
	if len(probe) == 0 {
		return 0
	}
	hits := 0
	for w := range probe {
		if _, ok := content[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(probe))
}

// matcher holds the precomputed forms of the old-content fragment.
type matcher struct {
	norm      string
	tokens    map[string]struct{}
	threshold float64
}

func newMatcher(fragment string, threshold float64) matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarity
	}
	return matcher{
		norm:      store.NormalizeContent(fragment),
		tokens:    tokenSet(fragment),
		threshold: threshold,
	}
}

// matches reports whether stored content refers to the fragment's
// fact: either the normalized fragment appears verbatim inside the
// normalized content, or enough of the fragment's tokens do.
func (m matcher) matches(content string) bool {
	if m.norm == "" {
		return false
	}
	if strings.Contains(store.NormalizeContent(content), m.norm) {
		return true
	}
	return overlap(m.tokens, tokenSet(content)) >= m.threshold
}
