package gate

import "regexp"

// Criterion names exposed in Result.Criteria. Custom criteria loaded
// from a criteria file use their own names.
const (
	CriterionNoise             = "noise"
	CriterionBehavioralChange  = "behavioral_change"
	CriterionCommitment        = "commitment"
	CriterionDecisionRationale = "decision_rationale"
	CriterionStableFact        = "stable_fact"
	CriterionExplicitRequest   = "explicit_request"
)

// Criterion is one admission signal: a named set of patterns with the
// weight a match contributes to the combined score. Noise is the one
// special case: it carries no weight and, when it is the only match,
// forces rejection.
type Criterion struct {
	Name     string
	Weight   float64
	Patterns []*regexp.Regexp
}

// Match reports whether any of the criterion's patterns matches content.
func (c Criterion) Match(content string) bool {
	for _, p := range c.Patterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// Defaults returns a fresh copy of the built-in criteria list. The
// weights are calibrated so that any single positive match clears the
// default admission threshold.
func Defaults() []Criterion {
	return []Criterion{
		{
			Name:   CriterionNoise,
			Weight: 0,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)^(ok(ay)?|yes|no|yep|yeah|nope|sure|fine|great|nice|cool|done|ack|lgtm|\+1)[.!]*$`),
				regexp.MustCompile(`(?i)^(thanks|thank you|thx|no problem|you'?re welcome|my pleasure)[.!]*$`),
				regexp.MustCompile(`(?i)^(sounds good|looks good|makes sense|got it|will do|on it|good to know)( to me)?[.!]*$`),
				regexp.MustCompile(`(?i)^(hi|hey|hello|good (morning|afternoon|evening))[,.!]*\s*$`),
			},
		},
		{
			Name:   CriterionBehavioralChange,
			Weight: 0.35,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\balways\b`),
				regexp.MustCompile(`(?i)\bnever\b`),
				regexp.MustCompile(`(?i)\bprefer\b.*\b(over|to|instead of)\b`),
				regexp.MustCompile(`(?i)\b(from now on|going forward)\b`),
				regexp.MustCompile(`(?i)\bstop (doing|using|running)\b`),
				regexp.MustCompile(`(?i)\buse\b.*\binstead\b`),
			},
		},
		{
			Name:   CriterionCommitment,
			Weight: 0.3,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bdeadline\b`),
				regexp.MustCompile(`(?i)\bdue (on|by|date)\b`),
				regexp.MustCompile(`(?i)\bby (monday|tuesday|wednesday|thursday|friday|saturday|sunday|tomorrow|next week|end of (the )?(day|week|month|sprint)|eod|eow)\b`),
				regexp.MustCompile(`(?i)\b(promised?|committed?|agreed) to\b`),
				regexp.MustCompile(`(?i)\bwaiting (on|for)\b`),
				regexp.MustCompile(`(?i)\bfollow(?:ing)?[- ]up\b`),
				regexp.MustCompile(`(?i)\bscheduled for\b`),
			},
		},
		{
			Name:   CriterionDecisionRationale,
			Weight: 0.35,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(decided|chose|selected|picked|went with)\b.*\bbecause\b`),
				regexp.MustCompile(`(?i)\b(decided|chose|selected|picked) .+ over \b`),
				regexp.MustCompile(`(?i)^decision[:,]`),
				regexp.MustCompile(`(?i)\btrade-?off\b`),
				regexp.MustCompile(`(?i)\bruled out\b.*\b(because|due to|since)\b`),
			},
		},
		{
			Name:   CriterionStableFact,
			Weight: 0.3,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(endpoint|url|host|hostname|port|database|schema|bucket|region|queue|topic|cluster|api key|token)\b.*\b(is|are|=|:)`),
				regexp.MustCompile(`(?i)\bruns? (on|at|in)\b`),
				regexp.MustCompile(`(?i)\bversion \d`),
				regexp.MustCompile(`(?i)\benv(ironment)? (var(iable)?s?|is)\b`),
				regexp.MustCompile(`(?i)\bconfigured (to|with|at|in)\b`),
				regexp.MustCompile(`(?i)\b(lives|stored|deployed|hosted) (in|at|on)\b`),
			},
		},
		{
			Name:   CriterionExplicitRequest,
			Weight: 0.4,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\bremember\b`),
				regexp.MustCompile(`(?i)\bdon'?t forget\b`),
				regexp.MustCompile(`(?i)^important[:,]`),
				regexp.MustCompile(`(?i)\bnote (for|to) (later|the record|self)\b`),
				regexp.MustCompile(`(?i)\bkeep in mind\b`),
				regexp.MustCompile(`(?i)\bfor future reference\b`),
			},
		},
	}
}
