package reconciler

import (
	"sort"

	"github.com/invopost/reconciler/internal/domain/model"
)

// rankCandidates orders candidates by score descending, breaking ties by
// PO id then item id so repeated runs over the same snapshot produce the
// same ranking.
func rankCandidates(cands []model.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		if cands[i].PurchaseOrderID != cands[j].PurchaseOrderID {
			return cands[i].PurchaseOrderID < cands[j].PurchaseOrderID
		}
		return cands[i].PurchaseOrderItemID < cands[j].PurchaseOrderItemID
	})
}

// selectCandidate applies the minimum-score gate and the ambiguity window
// over the ranked candidates.
//
// A near-tie is a deliberate safety valve: when the top two differ by less
// than the ambiguity delta the engine refuses to auto-select and surfaces
// both for human review. The window is exclusive; a difference equal to the
// delta still selects.
func (e *Engine) selectCandidate(cands []model.Candidate) model.ReconciliationResult {
	rankCandidates(cands)

	qualified := cands[:0:0]
	for _, c := range cands {
		if c.Score >= e.rules.MinScore {
			qualified = append(qualified, c)
		}
	}

	if len(qualified) == 0 {
		if len(cands) == 0 {
			return model.NoMatch("no candidate met minimum score")
		}
		err := &ThresholdNotMetError{BestScore: cands[0].Score, MinScore: e.rules.MinScore}
		return model.NoMatch(err.Error())
	}

	if len(qualified) >= 2 && qualified[0].Score-qualified[1].Score < e.rules.AmbiguityDelta {
		e.logger.Info("ambiguous match, requires intervention",
			"top_po", qualified[0].PurchaseOrderID,
			"top_score", qualified[0].Score,
			"runner_up_po", qualified[1].PurchaseOrderID,
			"runner_up_score", qualified[1].Score,
		)
		return model.Ambiguous([]model.Candidate{qualified[0], qualified[1]})
	}

	return model.Selected(qualified[0])
}
