// Package store provides the SQLite schema, row types, and connection
// helpers shared by every memory tier. Each tier owns its own table and
// id space; a record's identity is the pair (tier, id).
package store

// Tier identifies one of the memory tiers.
type Tier string

// Tiers, in staging-to-promotion order. Staging and knowledge are never
// promotion destinations: staging feeds the others, knowledge takes
// direct writes only.
const (
	TierStaging   Tier = "staging"
	TierWorking   Tier = "working"
	TierSession   Tier = "session"
	TierSemantic  Tier = "semantic"
	TierKnowledge Tier = "knowledge"
)

// Recognized record kinds. Kind is open-ended in storage (unknown
// values are stored as-is) but routing and decay treat anything
// outside this set like an observation. Tags are the extension point
// for finer classification.
const (
	KindAction      = "action"
	KindObservation = "observation"
	KindThought     = "thought"
	KindGoal        = "goal"
	KindDecision    = "decision"
	KindLesson      = "lesson"

	// KindCorrection marks Daily Log audit entries written by the
	// correction propagator.
	KindCorrection = "correction"
)

// DefaultImportance is assigned when a write does not specify one.
const DefaultImportance = 5

// KnownKind reports whether kind is one of the recognized values.
func KnownKind(kind string) bool {
	switch kind {
	case KindAction, KindObservation, KindThought, KindGoal, KindDecision, KindLesson:
		return true
	}
	return false
}

// ClampImportance forces importance into [1,10]. Zero (unset) becomes
// DefaultImportance.
func ClampImportance(n int) int {
	switch {
	case n == 0:
		return DefaultImportance
	case n < 1:
		return 1
	case n > 10:
		return 10
	}
	return n
}

// PromotionTier reports whether t is a valid promotion destination.
func PromotionTier(t Tier) bool {
	switch t {
	case TierWorking, TierSession, TierSemantic:
		return true
	}
	return false
}
