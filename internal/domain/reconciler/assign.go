package reconciler

import (
	"context"

	"github.com/invopost/reconciler/internal/domain/model"
)

// pairing binds an invoice line index to an open PO line index.
type pairing struct {
	invIdx     int
	poIdx      int
	similarity float64
}

// assignOneToOne pairs invoice lines with open PO lines greedily by
// description similarity: each invoice line, in order, takes the unused PO
// line it resembles most. Greedy keeps the assignment deterministic and
// prevents two invoice lines from booking the same PO line.
func (e *Engine) assignOneToOne(ctx context.Context, invLines []model.InvoiceLine, poLines []model.POLine) []pairing {
	used := make(map[int]bool, len(poLines))
	pairings := make([]pairing, 0, len(invLines))

	for i, invLine := range invLines {
		best := -1
		bestSim := 0.0
		for j, poLine := range poLines {
			if used[j] {
				continue
			}
			res, err := e.comparer.Compare(ctx, invLine.Description, poLine.Description, invLine.ProductCode, poLine.Material)
			if err != nil {
				res, _ = e.deterministic.Compare(ctx, invLine.Description, poLine.Description, invLine.ProductCode, poLine.Material)
			}
			if best == -1 || res.Score > bestSim {
				best = j
				bestSim = res.Score
			}
		}
		if best >= 0 {
			used[best] = true
			pairings = append(pairings, pairing{invIdx: i, poIdx: best, similarity: bestSim})
		}
	}

	return pairings
}

// evaluateOneToOne scores a PO whose open line count equals the invoice
// line count as a holistic 1-to-1 match. Acceptance is atomic: if any pair
// scores below the minimum, the whole PO is rejected as a 1-to-1 candidate
// and nil is returned so the caller falls back to per-line evaluation.
func (e *Engine) evaluateOneToOne(ctx context.Context, inv model.Invoice, po model.PurchaseOrder, openLines []model.POLine) *model.Candidate {
	pairings := e.assignOneToOne(ctx, inv.Lines, openLines)
	if len(pairings) != len(inv.Lines) {
		return nil
	}

	var (
		sum       float64
		partial   bool
		needsGR   bool
		mapping   = make(map[int]string, len(pairings))
		breakdown model.ScoreBreakdown
	)

	for i, p := range pairings {
		poLine := openLines[p.poIdx]
		b := e.scorePair(ctx, inv.Lines[p.invIdx], poLine)
		e.logger.Debug("one-to-one pair scored",
			"po", po.ID,
			"po_item", poLine.ItemID,
			"invoice_line", p.invIdx,
			"score", b.Total,
		)
		if b.Total < e.rules.MinScore {
			e.logger.Debug("one-to-one assignment rejected", "po", po.ID, "pair_score", b.Total)
			return nil
		}
		sum += b.Total
		partial = partial || b.IsPartial()
		needsGR = needsGR || poLine.RequiresGoodsReceipt
		mapping[p.invIdx] = poLine.ItemID
		if i == 0 {
			breakdown = b
		}
	}

	first := openLines[pairings[0].poIdx]
	return &model.Candidate{
		PurchaseOrderID:     po.ID,
		PurchaseOrderItemID: first.ItemID,
		Material:            first.Material,
		Score:               sum / float64(len(pairings)),
		NeedsGoodsReceipt:   needsGR,
		IsPartialInvoice:    partial,
		LineMapping:         mapping,
		Breakdown:           breakdown,
	}
}
