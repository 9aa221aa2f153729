package pipeline

import (
	"sort"

	"github.com/fanshield/doxwatch/internal/model"
)

// RunFlags carries the run-level outcome flags computed by the fetch loop.
type RunFlags struct {
	QuotaBlocked        bool
	AnyRequestSucceeded bool
	RequestFailures     int
}

// Finalize filters candidates to the minimum composite score, sorts the
// remainder by composite score descending (stable: ties keep discovery
// order) and attaches the run flags. An empty result still carries the
// flags, so callers can tell a clean-but-quiet run from a failed one.
func Finalize(candidates []model.Candidate, minScore float64, flags RunFlags) *model.RunOutcome {
	kept := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.CompositeScore >= minScore {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].CompositeScore > kept[j].CompositeScore
	})

	return &model.RunOutcome{
		Candidates:          kept,
		QuotaBlocked:        flags.QuotaBlocked,
		AnyRequestSucceeded: flags.AnyRequestSucceeded,
		RequestFailures:     flags.RequestFailures,
	}
}
