package tier

import (
	"context"
	"fmt"
	"math"

	"mnemo/pkg/daylog"
	"mnemo/pkg/store"
)

// PromoteOpts tunes one promotion run.
type PromoteOpts struct {
	// MinScore is the promotion floor (non-positive means 0.3).
	MinScore float64

	// Bands maps gate scores to destination tiers.
	Bands daylog.Bands

	// SessionID receives session-banded entries. Empty derives a
	// day-scoped session from each entry's date.
	SessionID string
}

// Promotion records one staging entry that moved to a tier.
type Promotion struct {
	EntryID  int64      `json:"entry_id"`
	Tier     store.Tier `json:"tier"`
	RecordID int64      `json:"record_id"`
}

// PromotionFailure records an entry that could not be promoted. The
// entry stays unpromoted and is retried on the next run.
type PromotionFailure struct {
	EntryID int64      `json:"entry_id"`
	Tier    store.Tier `json:"tier"`
	Reason  string     `json:"reason"`
}

// PromoteResult summarizes a promotion run.
type PromoteResult struct {
	Promoted []Promotion        `json:"promoted"`
	Failed   []PromotionFailure `json:"failed,omitempty"`
}

// Promote moves every eligible staging entry into the tier its gate
// score suggests and marks it promoted. A failed insert is recorded
// and skipped, never fatal: one bad entry must not block the rest of
// the day's log.
func Promote(ctx context.Context, lg *daylog.Log, tiers *Tiers, opts PromoteOpts) (PromoteResult, error) {
	cands, err := lg.PromotionCandidates(ctx, opts.MinScore, opts.Bands)
	if err != nil {
		return PromoteResult{}, fmt.Errorf("promotion candidates: %w", err)
	}

	var result PromoteResult
	for _, c := range cands {
		recordID, err := insertPromoted(ctx, tiers, c, opts.SessionID)
		if err != nil {
			result.Failed = append(result.Failed, PromotionFailure{
				EntryID: c.ID,
				Tier:    c.SuggestedTier,
				Reason:  err.Error(),
			})
			continue
		}
		if err := lg.MarkPromoted(ctx, c.ID, c.SuggestedTier); err != nil {
			result.Failed = append(result.Failed, PromotionFailure{
				EntryID: c.ID,
				Tier:    c.SuggestedTier,
				Reason:  err.Error(),
			})
			continue
		}
		result.Promoted = append(result.Promoted, Promotion{
			EntryID:  c.ID,
			Tier:     c.SuggestedTier,
			RecordID: recordID,
		})
	}
	return result, nil
}

func insertPromoted(ctx context.Context, tiers *Tiers, c daylog.Candidate, sessionID string) (int64, error) {
	importance := scoreImportance(c.GateScore)
	switch c.SuggestedTier {
	case store.TierWorking:
		return tiers.Working.Insert(ctx, c.Content, c.Kind, InsertOpts{Importance: importance})
	case store.TierSemantic:
		return tiers.Semantic.Insert(ctx, c.Content, c.Kind, "", importance)
	case store.TierSession:
		if sessionID == "" {
			sessionID = "day-" + c.Date
		}
		id, _, err := tiers.Session.Insert(ctx, sessionID, c.Content, c.Kind, importance)
		return id, err
	default:
		return 0, fmt.Errorf("unexpected promotion tier %q", c.SuggestedTier)
	}
}

// scoreImportance maps a gate score in [0,1] to the 1..10 importance
// scale.
func scoreImportance(score float64) int {
	return store.ClampImportance(int(math.Round(score * 10)))
}
