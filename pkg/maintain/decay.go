// Package maintain keeps the memory tiers compact. It decays row
// importance by time since last access, prunes rows whose effective
// importance falls below a floor, collapses duplicate content, and
// reports store health. Both passes are safe to re-run: beyond the
// first pass's removals they are no-ops on an unchanged store.
package maintain

import (
	"math"
	"time"
)

// Reference maintenance constants. Callers configure their own values;
// these are the fallbacks.
const (
	DefaultDecayFactor = 0.95
	DefaultPruneFloor  = 1.0
)

// DaysSince returns the fractional days elapsed from t to now, never
// negative. A zero t counts as just-accessed.
func DaysSince(t, now time.Time) float64 {
	if t.IsZero() || !now.After(t) {
		return 0
	}
	return now.Sub(t).Hours() / 24
}

// EffectiveImportance applies exponential decay to a row's importance:
// importance * decayFactor^daysSinceLastAccess. It is strictly
// decreasing in the elapsed time for any valid decay factor.
func EffectiveImportance(importance int, lastAccess, now time.Time, decayFactor float64) float64 {
	if decayFactor <= 0 || decayFactor >= 1 {
		decayFactor = DefaultDecayFactor
	}
	return float64(importance) * math.Pow(decayFactor, DaysSince(lastAccess, now))
}
