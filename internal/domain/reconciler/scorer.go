package reconciler

import (
	"context"

	"github.com/invopost/reconciler/internal/domain/model"
)

// scorePair computes the 0-100 match score between one invoice line and one
// PO line.
//
// The unit-price gate is a precondition, not a weighted component: a price
// outside tolerance disqualifies the pair at the rejected sentinel no matter
// how similar everything else looks. An invoice quantity above the order
// quantity likewise disqualifies the pair; it is never silently capped.
func (e *Engine) scorePair(ctx context.Context, line model.InvoiceLine, poLine model.POLine) model.ScoreBreakdown {
	b := model.ScoreBreakdown{}

	// Price gate.
	if !poLine.NetUnitPrice.IsPositive() {
		b.Total = e.rules.RejectedScore
		return b
	}
	diff, _ := line.UnitPrice.Sub(poLine.NetUnitPrice).Abs().
		Div(poLine.NetUnitPrice).Float64()
	b.PriceDiff = diff
	if diff > e.rules.PriceTolerance {
		b.Total = e.rules.RejectedScore
		return b
	}
	b.PriceGatePassed = true

	// Quantity: contained quantity is credited proportionally, excess
	// rejects the pair outright.
	switch line.Quantity.Cmp(poLine.OrderQuantity) {
	case 1:
		b.QuantityState = model.QuantityExcess
		b.Total = e.rules.RejectedScore
		return b
	case 0:
		b.QuantityState = model.QuantityFull
		b.QuantityScore = e.rules.QuantityWeight * 100
	default:
		b.QuantityState = model.QuantityPartial
		ratio, _ := line.Quantity.Div(poLine.OrderQuantity).Float64()
		b.QuantityScore = ratio * e.rules.QuantityWeight * 100
	}

	// Amount: an invoice amount within the PO amount earns the full weight
	// (a smaller amount is a legitimate partial invoice); a bounded excess
	// earns partial credit for rounding/tax drift; beyond that, nothing.
	invAmount := line.Amount()
	poAmount := poLine.NetUnitPrice.Mul(poLine.OrderQuantity)
	switch {
	case !poAmount.IsPositive():
		b.AmountState = model.AmountExcess
	case invAmount.Cmp(poAmount) == 0:
		b.AmountState = model.AmountFull
		b.AmountScore = e.rules.AmountWeight * 100
	case invAmount.Cmp(poAmount) < 0:
		b.AmountState = model.AmountPartial
		b.AmountScore = e.rules.AmountWeight * 100
	default:
		over, _ := invAmount.Sub(poAmount).Div(poAmount).Float64()
		if over <= e.rules.AmountOverTolerance {
			b.AmountState = model.AmountOverTolerated
			b.AmountScore = e.rules.AmountOverCredit * e.rules.AmountWeight * 100
		} else {
			b.AmountState = model.AmountExcess
		}
	}

	// Description, via the pluggable similarity capability. Similarity must
	// never abort scoring: on error the deterministic comparer decides.
	res, err := e.comparer.Compare(ctx, line.Description, poLine.Description, line.ProductCode, poLine.Material)
	if err != nil {
		e.logger.Warn("similarity comparison failed, using deterministic comparer",
			"error", err)
		res, _ = e.deterministic.Compare(ctx, line.Description, poLine.Description, line.ProductCode, poLine.Material)
	}
	b.DescriptionScore = res.Score * e.rules.DescriptionWeight * 100
	b.DescriptionReason = res.Reason

	b.Total = b.QuantityScore + b.AmountScore + b.DescriptionScore
	return b
}
