// Package goodsreceipt locates the goods-receipt document an invoice must
// reference before it can be posted.
//
// Verification runs in two levels: a coarse filter over the supplier's
// material document items, then one of two interchangeable strategies. The
// exact strategy matches the receipt header text against the invoice number;
// the weighted strategy scores quantity fit, material and posting date. Both
// enforce the hard rule that an invoice never posts against goods that have
// not arrived.
package goodsreceipt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invopost/reconciler/internal/domain/model"
)

// Strategy selects the level-2 verification behavior.
type Strategy string

const (
	// StrategyExact matches the receipt header text against the invoice
	// number after normalization.
	StrategyExact Strategy = "exact"
	// StrategyWeighted scores quantity fit, material match and posting
	// date presence.
	StrategyWeighted Strategy = "weighted"
)

// Rules holds the goods-receipt thresholds. Immutable after construction.
type Rules struct {
	// MovementType is the goods-movement type that counts as a receipt.
	MovementType string
	// MinScore is the weighted-strategy qualification threshold.
	MinScore float64
	// QuantityWeight, MaterialWeight and DateWeight sum to 1.
	QuantityWeight float64
	MaterialWeight float64
	DateWeight     float64
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		MovementType:   "101",
		MinScore:       70,
		QuantityWeight: 0.50,
		MaterialWeight: 0.30,
		DateWeight:     0.20,
	}
}

// NoReceiptError reports that no goods receipt survived the level-1 filter.
type NoReceiptError struct {
	PurchaseOrderID string
}

func (e *NoReceiptError) Error() string {
	return fmt.Sprintf("no goods receipt for purchase order %s", e.PurchaseOrderID)
}

// VerificationFailedError reports receipts that survived filtering but did
// not verify against the invoice.
type VerificationFailedError struct {
	PurchaseOrderID string
	Entries         int
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("goods receipt present but does not match invoice (%d entries on PO %s)",
		e.Entries, e.PurchaseOrderID)
}

// InsufficientError reports a verified receipt covering less quantity than
// invoiced.
type InsufficientError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("goods receipt quantity %s below invoiced quantity %s",
		e.Available, e.Required)
}

// Verifier runs the filter + verify pipeline.
type Verifier struct {
	rules  Rules
	logger *slog.Logger
}

// NewVerifier builds a verifier. A nil logger defaults to slog.Default().
func NewVerifier(rules Rules, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{rules: rules, logger: logger}
}

// Verify locates the goods-receipt document for the selected candidate. It
// is only meaningful when the candidate needs a goods receipt; callers skip
// it otherwise. Absence of a verified match always propagates as a typed
// error; the verifier never fabricates a reference document.
func (v *Verifier) Verify(ctx context.Context, selected model.Candidate, inv model.Invoice, entries []model.GoodsReceiptEntry, strategy Strategy) (model.ReferenceDocument, error) {
	if err := ctx.Err(); err != nil {
		return model.ReferenceDocument{}, err
	}

	filtered := v.filter(selected, inv, entries)
	if len(filtered) == 0 {
		return model.ReferenceDocument{}, &NoReceiptError{PurchaseOrderID: selected.PurchaseOrderID}
	}

	required := requiredQuantity(selected, inv)

	switch strategy {
	case StrategyExact:
		return v.verifyExact(selected, inv, filtered, required)
	case StrategyWeighted:
		return v.verifyWeighted(selected, filtered, required)
	default:
		return model.ReferenceDocument{}, fmt.Errorf("unknown verification strategy %q", strategy)
	}
}

// filter is the level-1 pass: goods-receipt movement type, not cancelled,
// posted against the selected PO item, and not posted after the invoice
// date when both dates are known.
func (v *Verifier) filter(selected model.Candidate, inv model.Invoice, entries []model.GoodsReceiptEntry) []model.GoodsReceiptEntry {
	kept := make([]model.GoodsReceiptEntry, 0, len(entries))
	for _, entry := range entries {
		typeOK := entry.MovementType == v.rules.MovementType
		itemOK := selected.PurchaseOrderItemID == "" || entry.POItemID == selected.PurchaseOrderItemID
		dateOK := entry.PostingDate.IsZero() || inv.DocumentDate.IsZero() || !entry.PostingDate.After(inv.DocumentDate)

		if typeOK && !entry.IsCancelled && itemOK && dateOK {
			kept = append(kept, entry)
			continue
		}
		v.logger.Debug("goods receipt rejected by filter",
			"document", entry.DocumentID,
			"year", entry.FiscalYear,
			"type_ok", typeOK,
			"cancelled", entry.IsCancelled,
			"item_ok", itemOK,
			"date_ok", dateOK,
		)
	}
	v.logger.Debug("goods receipt filter done", "in", len(entries), "kept", len(kept))
	return kept
}

// verifyExact matches the receipt header text against the invoice number.
// Receipt clerks record the vendor invoice number in the header text, so a
// normalized match is deterministic evidence that this receipt belongs to
// this invoice.
func (v *Verifier) verifyExact(selected model.Candidate, inv model.Invoice, entries []model.GoodsReceiptEntry, required decimal.Decimal) (model.ReferenceDocument, error) {
	invoiceNo := normalizeDocNumber(inv.InvoiceID)
	if invoiceNo == "" {
		return model.ReferenceDocument{}, &VerificationFailedError{
			PurchaseOrderID: selected.PurchaseOrderID,
			Entries:         len(entries),
		}
	}

	matches := make([]model.GoodsReceiptEntry, 0, len(entries))
	for _, entry := range entries {
		headerNo := normalizeDocNumber(entry.HeaderText)
		if headerNo == "" {
			continue
		}
		if headerNo == invoiceNo || strings.Contains(headerNo, invoiceNo) || strings.Contains(invoiceNo, headerNo) {
			matches = append(matches, entry)
		}
	}

	if len(matches) == 0 {
		return model.ReferenceDocument{}, &VerificationFailedError{
			PurchaseOrderID: selected.PurchaseOrderID,
			Entries:         len(entries),
		}
	}

	sortByQuantity(matches)

	best := matches[0]
	if best.Quantity.Cmp(required) < 0 {
		return model.ReferenceDocument{}, &InsufficientError{Required: required, Available: best.Quantity}
	}

	v.logger.Info("goods receipt verified",
		"strategy", StrategyExact,
		"document", best.DocumentID,
		"year", best.FiscalYear,
		"header_text", best.HeaderText,
	)
	return reference(best), nil
}

// verifyWeighted scores each receipt on quantity fit, material match and
// posting-date presence; among qualifiers it prefers the largest available
// quantity.
func (v *Verifier) verifyWeighted(selected model.Candidate, entries []model.GoodsReceiptEntry, required decimal.Decimal) (model.ReferenceDocument, error) {
	type scored struct {
		entry model.GoodsReceiptEntry
		score float64
	}

	var (
		qualifiers   []scored
		insufficient bool
	)

	for _, entry := range entries {
		if !entry.Quantity.IsPositive() {
			continue
		}

		score := 0.0
		quantityOK := required.Cmp(entry.Quantity) <= 0
		if quantityOK {
			ratio, _ := required.Div(entry.Quantity).Float64()
			score += ratio * v.rules.QuantityWeight * 100
		} else {
			insufficient = true
		}

		switch {
		case entry.Material == "" || selected.Material == "":
			score += v.rules.MaterialWeight * 50
		case entry.Material == selected.Material:
			score += v.rules.MaterialWeight * 100
		}

		if entry.PostingDate.IsZero() {
			score += v.rules.DateWeight * 50
		} else {
			score += v.rules.DateWeight * 100
		}

		v.logger.Debug("goods receipt scored",
			"document", entry.DocumentID,
			"year", entry.FiscalYear,
			"score", score,
			"quantity_ok", quantityOK,
		)

		if quantityOK && score >= v.rules.MinScore {
			qualifiers = append(qualifiers, scored{entry: entry, score: score})
		}
	}

	if len(qualifiers) == 0 {
		if insufficient {
			available := decimal.Zero
			for _, entry := range entries {
				if entry.Quantity.Cmp(available) > 0 {
					available = entry.Quantity
				}
			}
			return model.ReferenceDocument{}, &InsufficientError{Required: required, Available: available}
		}
		return model.ReferenceDocument{}, &VerificationFailedError{
			PurchaseOrderID: selected.PurchaseOrderID,
			Entries:         len(entries),
		}
	}

	// Among qualifiers the largest available quantity wins; score and
	// document id only break ties, keeping repeated runs reproducible.
	sort.SliceStable(qualifiers, func(i, j int) bool {
		if cmp := qualifiers[i].entry.Quantity.Cmp(qualifiers[j].entry.Quantity); cmp != 0 {
			return cmp > 0
		}
		if qualifiers[i].score != qualifiers[j].score {
			return qualifiers[i].score > qualifiers[j].score
		}
		return qualifiers[i].entry.DocumentID < qualifiers[j].entry.DocumentID
	})

	best := qualifiers[0]
	v.logger.Info("goods receipt verified",
		"strategy", StrategyWeighted,
		"document", best.entry.DocumentID,
		"year", best.entry.FiscalYear,
		"score", best.score,
	)
	return reference(best.entry), nil
}

// requiredQuantity sums the invoice quantities mapped to the selected PO
// item, falling back to the first invoice line.
func requiredQuantity(selected model.Candidate, inv model.Invoice) decimal.Decimal {
	total := decimal.Zero
	for invIdx, itemID := range selected.LineMapping {
		if itemID == selected.PurchaseOrderItemID && invIdx < len(inv.Lines) {
			total = total.Add(inv.Lines[invIdx].Quantity)
		}
	}
	if total.IsPositive() {
		return total
	}
	if len(inv.Lines) > 0 {
		return inv.Lines[0].Quantity
	}
	return decimal.Zero
}

var docNumberStripper = strings.NewReplacer("-", "", "_", "", "/", "", " ", "")

// normalizeDocNumber uppercases and strips separators so "FAC-00123" and
// "00123" compare on their shared digits.
func normalizeDocNumber(s string) string {
	return docNumberStripper.Replace(strings.ToUpper(strings.TrimSpace(s)))
}

// sortByQuantity orders entries by quantity descending, then document id
// ascending for reproducible ties.
func sortByQuantity(entries []model.GoodsReceiptEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if cmp := entries[i].Quantity.Cmp(entries[j].Quantity); cmp != 0 {
			return cmp > 0
		}
		return entries[i].DocumentID < entries[j].DocumentID
	})
}

func reference(entry model.GoodsReceiptEntry) model.ReferenceDocument {
	return model.ReferenceDocument{
		DocumentID: entry.DocumentID,
		FiscalYear: entry.FiscalYear,
		ItemID:     entry.ItemID,
	}
}
