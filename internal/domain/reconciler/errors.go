package reconciler

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/invopost/reconciler/internal/domain/model"
)

// NoCandidateError reports that no purchase order survived filtering or
// scoring. Terminal for automatic processing.
type NoCandidateError struct {
	Reason string
}

func (e *NoCandidateError) Error() string {
	return "no candidate: " + e.Reason
}

// ThresholdNotMetError reports that the best candidate stayed below the
// minimum score.
type ThresholdNotMetError struct {
	BestScore float64
	MinScore  float64
}

func (e *ThresholdNotMetError) Error() string {
	return fmt.Sprintf("best score %.1f below minimum %.1f", e.BestScore, e.MinScore)
}

// AmbiguousMatchError reports a near-tie between the top candidates. It
// carries both so a human can arbitrate; the engine never picks between
// them.
type AmbiguousMatchError struct {
	Top      model.Candidate
	RunnerUp model.Candidate
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match: PO %s item %s (%.1f) vs PO %s item %s (%.1f)",
		e.Top.PurchaseOrderID, e.Top.PurchaseOrderItemID, e.Top.Score,
		e.RunnerUp.PurchaseOrderID, e.RunnerUp.PurchaseOrderItemID, e.RunnerUp.Score)
}

// QuantityExceededError reports an invoice line consuming more than the
// open order quantity of its mapped PO line.
type QuantityExceededError struct {
	PurchaseOrderID string
	POItemID        string
	InvoiceQty      decimal.Decimal
	OrderQty        decimal.Decimal
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("invoice quantity %s exceeds order quantity %s on PO %s item %s",
		e.InvoiceQty, e.OrderQty, e.PurchaseOrderID, e.POItemID)
}

// ResultError maps a terminal reconciliation result onto the error taxonomy
// so callers (HTTP handlers, CLI) can branch without re-inspecting the
// result. A selected result yields nil.
func ResultError(res model.ReconciliationResult) error {
	switch res.Outcome {
	case model.OutcomeSelected:
		return nil
	case model.OutcomeAmbiguous:
		if len(res.TopCandidates) >= 2 {
			return &AmbiguousMatchError{Top: res.TopCandidates[0], RunnerUp: res.TopCandidates[1]}
		}
		return &AmbiguousMatchError{}
	default:
		return &NoCandidateError{Reason: res.Reason}
	}
}
