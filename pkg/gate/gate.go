// Package gate decides whether free-text content is worth persisting
// at all. Evaluate is a pure scoring function: all side effects
// (writing admitted content to the daily log) belong to the caller.
package gate

import (
	"fmt"
	"strings"
)

// Config holds the admission thresholds. Zero values fall back to the
// defaults, so Config{} behaves like DefaultConfig().
type Config struct {
	// MinLength rejects content shorter than this many characters
	// before any scoring happens.
	MinLength int

	// MinScore is the admission threshold for the combined score.
	MinScore float64

	// Criteria overrides the built-in criteria list. Nil means
	// Defaults(); use append(gate.Defaults(), extra...) to extend.
	Criteria []Criterion
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{MinLength: 12, MinScore: 0.3}
}

// CriterionMatch records one criterion's verdict for a piece of content.
type CriterionMatch struct {
	Name    string `json:"name"`
	Matched bool   `json:"matched"`
}

// Result is the outcome of evaluating one piece of content.
// An admission rejection is a normal negative result, not an error.
type Result struct {
	Passed          bool             `json:"passed"`
	Score           float64          `json:"score"`
	Criteria        []CriterionMatch `json:"criteria"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
}

// Evaluate scores content against the configured criteria. Criteria
// are evaluated independently and non-exclusively; each match adds its
// fixed weight, a clause-count bonus rewards structured multi-clause
// content, and the total is capped at 1.0.
func Evaluate(content string, cfg Config) Result {
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = DefaultConfig().MinLength
	}
	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = DefaultConfig().MinScore
	}

	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minLength {
		return Result{
			Passed:          false,
			RejectionReason: fmt.Sprintf("content shorter than minimum length %d", minLength),
		}
	}

	criteria := cfg.Criteria
	if criteria == nil {
		criteria = Defaults()
	}

	var (
		score        float64
		noiseMatched bool
		otherMatched bool
		matches      = make([]CriterionMatch, 0, len(criteria))
	)
	for _, c := range criteria {
		matched := c.Match(trimmed)
		matches = append(matches, CriterionMatch{Name: c.Name, Matched: matched})
		if !matched {
			continue
		}
		if c.Name == CriterionNoise {
			noiseMatched = true
			continue
		}
		otherMatched = true
		score += c.Weight
	}

	if noiseMatched && !otherMatched {
		return Result{
			Passed:          false,
			Criteria:        matches,
			RejectionReason: "classified as noise",
		}
	}

	score += lengthBonus(trimmed)
	if score > 1.0 {
		score = 1.0
	}

	res := Result{
		Passed:   score >= minScore,
		Score:    score,
		Criteria: matches,
	}
	if !res.Passed {
		res.RejectionReason = fmt.Sprintf("score %.2f below threshold %.2f", score, minScore)
	}
	return res
}

// lengthBonus rewards multi-clause content: more clauses means higher
// confidence that this is structured knowledge, not a one-liner.
func lengthBonus(content string) float64 {
	switch n := clauseCount(content); {
	case n >= 3:
		return 0.15
	case n == 2:
		return 0.1
	}
	return 0
}

// clauseCount counts clause separators (sentence punctuation and line
// breaks). Long content without punctuation still counts as two
// clauses once it passes twenty words.
func clauseCount(content string) int {
	parts := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == ';' || r == ':' || r == '\n'
	})
	clauses := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			clauses++
		}
	}
	if clauses < 2 && len(strings.Fields(content)) >= 20 {
		clauses = 2
	}
	return clauses
}
