// Package reconciler selects the purchase order line(s) a vendor invoice
// should be posted against.
//
// The engine is synchronous and stateless: one call reconciles one invoice
// against one supplier's PO snapshot, holds no cross-call cache, and is safe
// to run concurrently for different invoices. Selection is deterministic
// given a deterministic similarity comparer.
//
// Example usage:
//
//	engine := reconciler.NewEngine(reconciler.DefaultRules(), similarity.NewFuzzy(), logger)
//	result, err := engine.Reconcile(ctx, invoice, candidatePOs)
//	if result.Outcome == model.OutcomeSelected {
//		// post against result.Selected
//	}
package reconciler

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/invopost/reconciler/internal/domain/model"
	"github.com/invopost/reconciler/internal/domain/similarity"
)

// Engine is the deterministic reconciliation engine.
type Engine struct {
	rules    Rules
	comparer similarity.Comparer
	// deterministic is the last-resort comparer when the configured one
	// errors; scoring must never block on an external judgment service.
	deterministic similarity.Comparer
	logger        *slog.Logger
}

// NewEngine builds an engine. A nil comparer defaults to the deterministic
// fuzzy comparer; a nil logger defaults to slog.Default().
func NewEngine(rules Rules, comparer similarity.Comparer, logger *slog.Logger) *Engine {
	if comparer == nil {
		comparer = similarity.NewFuzzy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:         rules,
		comparer:      comparer,
		deterministic: similarity.NewFuzzy(),
		logger:        logger,
	}
}

// Reconcile matches the invoice against the supplier's candidate purchase
// orders and returns exactly one of Selected, Ambiguous or NoMatch. The
// error return is reserved for infrastructure failures; business no-match
// outcomes are values, never errors.
func (e *Engine) Reconcile(ctx context.Context, inv model.Invoice, candidatePOs []model.PurchaseOrder) (model.ReconciliationResult, error) {
	lines := inv.Lines
	if len(lines) == 0 {
		// Header-only extraction: reconcile the gross amount as a single
		// synthetic line.
		lines = []model.InvoiceLine{{
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: inv.GrossAmount,
			Subtotal:  inv.GrossAmount,
		}}
		inv.Lines = lines
	}

	filtered := e.filterHeaders(inv, candidatePOs)
	if len(filtered) == 0 {
		return model.NoMatch("no purchase order passed header filter"), nil
	}

	candidates := make([]model.Candidate, 0, len(filtered))
	for _, po := range filtered {
		if err := ctx.Err(); err != nil {
			return model.ReconciliationResult{}, err
		}

		open := po.OpenLines()
		if len(open) == 0 {
			e.logger.Debug("purchase order has no open lines", "po", po.ID)
			continue
		}

		// Holistic 1-to-1 matching when line counts align; avoids
		// double-booking a PO line across invoice lines.
		if len(inv.Lines) > 1 && len(inv.Lines) == len(open) {
			if cand := e.evaluateOneToOne(ctx, inv, po, open); cand != nil {
				candidates = append(candidates, *cand)
				continue
			}
		}

		if cand := e.evaluateBestPair(ctx, inv, po, open); cand != nil {
			candidates = append(candidates, *cand)
		}
	}

	result := e.selectCandidate(candidates)

	if result.Outcome == model.OutcomeSelected {
		if err := validateConsumption(*result.Selected, inv, filtered); err != nil {
			// The scorer already rejects excess quantity; reaching this
			// point means an inconsistent snapshot.
			return model.ReconciliationResult{}, err
		}
		e.logger.Info("purchase order selected",
			"po", result.Selected.PurchaseOrderID,
			"po_item", result.Selected.PurchaseOrderItemID,
			"score", result.Selected.Score,
			"needs_goods_receipt", result.Selected.NeedsGoodsReceipt,
			"partial_invoice", result.Selected.IsPartialInvoice,
		)
	}

	return result, nil
}

// evaluateBestPair scores every (invoice line, open PO line) pair and keeps
// the single best pair as the PO's candidate. Ties prefer the lower PO item
// id for reproducibility.
func (e *Engine) evaluateBestPair(ctx context.Context, inv model.Invoice, po model.PurchaseOrder, openLines []model.POLine) *model.Candidate {
	var (
		found    bool
		bestLine model.POLine
		bestIdx  int
		best     model.ScoreBreakdown
	)

	for _, poLine := range openLines {
		for i, invLine := range inv.Lines {
			b := e.scorePair(ctx, invLine, poLine)
			if !found || b.Total > best.Total ||
				(b.Total == best.Total && poLine.ItemID < bestLine.ItemID) {
				found = true
				best = b
				bestLine = poLine
				bestIdx = i
			}
		}
	}

	if !found {
		return nil
	}

	e.logger.Debug("best pair for purchase order",
		"po", po.ID,
		"po_item", bestLine.ItemID,
		"invoice_line", bestIdx,
		"score", best.Total,
		"price_gate", best.PriceGatePassed,
	)

	return &model.Candidate{
		PurchaseOrderID:     po.ID,
		PurchaseOrderItemID: bestLine.ItemID,
		Material:            bestLine.Material,
		Score:               best.Total,
		NeedsGoodsReceipt:   bestLine.RequiresGoodsReceipt,
		IsPartialInvoice:    best.IsPartial(),
		LineMapping:         map[int]string{bestIdx: bestLine.ItemID},
		Breakdown:           best,
	}
}

// validateConsumption re-checks the hard invariant that no invoice line
// consumes more than the open order quantity of its mapped PO line.
func validateConsumption(c model.Candidate, inv model.Invoice, pos []model.PurchaseOrder) error {
	poLines := make(map[string]model.POLine)
	for _, po := range pos {
		if po.ID != c.PurchaseOrderID {
			continue
		}
		for _, line := range po.Lines {
			poLines[line.ItemID] = line
		}
	}

	for invIdx, itemID := range c.LineMapping {
		poLine, ok := poLines[itemID]
		if !ok || invIdx >= len(inv.Lines) {
			continue
		}
		qty := inv.Lines[invIdx].Quantity
		if qty.Cmp(poLine.OrderQuantity) > 0 {
			return &QuantityExceededError{
				PurchaseOrderID: c.PurchaseOrderID,
				POItemID:        itemID,
				InvoiceQty:      qty,
				OrderQty:        poLine.OrderQuantity,
			}
		}
	}
	return nil
}
