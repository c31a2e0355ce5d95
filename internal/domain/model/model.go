// Package model defines the data types exchanged between the reconciliation
// engine, the goods-receipt verifier and the ERP gateway.
//
// All monetary amounts and quantities are decimal.Decimal; ratios are only
// converted to float64 inside scoring. Values are snapshots: the engine never
// mutates an Invoice, PurchaseOrder or GoodsReceiptEntry after construction.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusReleased is the purchase order status eligible for invoicing.
// The ERP gateway maps the OData processing status ("05") onto it.
const StatusReleased = "Released"

// Invoice is a structured vendor invoice as produced by the upstream
// extractor.
type Invoice struct {
	SupplierTaxID       string          `json:"supplier_tax_id"`
	SupplierName        string          `json:"supplier_name"`
	InvoiceID           string          `json:"invoice_id"`
	DocumentDate        time.Time       `json:"document_date"`
	Currency            string          `json:"currency"`
	GrossAmount         decimal.Decimal `json:"gross_amount"`
	AssignmentReference string          `json:"assignment_reference,omitempty"`
	Lines               []InvoiceLine   `json:"lines"`
}

// InvoiceLine is a single product line on the invoice.
type InvoiceLine struct {
	ProductCode string          `json:"product_code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Amount returns the line amount, preferring the extracted subtotal and
// falling back to unit price times quantity when the subtotal is absent.
func (l InvoiceLine) Amount() decimal.Decimal {
	if l.Subtotal.IsPositive() {
		return l.Subtotal
	}
	return l.UnitPrice.Mul(l.Quantity)
}

// PurchaseOrder is an open purchase order fetched from the ERP.
type PurchaseOrder struct {
	ID         string    `json:"id"`
	SupplierID string    `json:"supplier_id"`
	Currency   string    `json:"currency"`
	OrderDate  time.Time `json:"order_date"`
	Status     string    `json:"status"`
	Lines      []POLine  `json:"lines"`
}

// OpenLines returns the lines that can still be invoiced.
func (po PurchaseOrder) OpenLines() []POLine {
	open := make([]POLine, 0, len(po.Lines))
	for _, line := range po.Lines {
		if !line.IsFinallyInvoiced {
			open = append(open, line)
		}
	}
	return open
}

// POLine is a single item on a purchase order.
type POLine struct {
	ItemID               string          `json:"item_id"`
	Material             string          `json:"material,omitempty"`
	Description          string          `json:"description"`
	NetUnitPrice         decimal.Decimal `json:"net_unit_price"`
	OrderQuantity        decimal.Decimal `json:"order_quantity"`
	QuantityUnit         string          `json:"quantity_unit,omitempty"`
	TaxCode              string          `json:"tax_code,omitempty"`
	IsFinallyInvoiced    bool            `json:"is_finally_invoiced"`
	RequiresGoodsReceipt bool            `json:"requires_goods_receipt"`
}

// GoodsReceiptEntry is one material document item recorded against a
// purchase order line.
type GoodsReceiptEntry struct {
	DocumentID   string          `json:"document_id"`
	FiscalYear   string          `json:"fiscal_year"`
	ItemID       string          `json:"item_id"`
	MovementType string          `json:"movement_type"`
	IsCancelled  bool            `json:"is_cancelled"`
	Quantity     decimal.Decimal `json:"quantity"`
	Material     string          `json:"material,omitempty"`
	POItemID     string          `json:"po_item_id"`
	HeaderText   string          `json:"header_text,omitempty"`
	PostingDate  time.Time       `json:"posting_date"`
}

// ReferenceDocument identifies the goods-receipt document attached to an
// invoice posting.
type ReferenceDocument struct {
	DocumentID string `json:"document_id"`
	FiscalYear string `json:"fiscal_year"`
	ItemID     string `json:"item_id"`
}

// Quantity state of a scored invoice/PO line pair.
const (
	QuantityFull    = "full"
	QuantityPartial = "partial"
	QuantityExcess  = "excess"
)

// Amount state of a scored invoice/PO line pair.
const (
	AmountFull          = "full"
	AmountPartial       = "partial"
	AmountOverTolerated = "over_tolerated"
	AmountExcess        = "excess"
)

// ScoreBreakdown is the per-pair scoring detail. It is ephemeral: computed
// during reconciliation, surfaced for diagnostics, never persisted.
type ScoreBreakdown struct {
	PriceGatePassed   bool    `json:"price_gate_passed"`
	PriceDiff         float64 `json:"price_diff"`
	QuantityScore     float64 `json:"quantity_score"`
	QuantityState     string  `json:"quantity_state,omitempty"`
	AmountScore       float64 `json:"amount_score"`
	AmountState       string  `json:"amount_state,omitempty"`
	DescriptionScore  float64 `json:"description_score"`
	DescriptionReason string  `json:"description_reason,omitempty"`
	Total             float64 `json:"total"`
}

// IsPartial reports whether the pair covers less than the full PO line.
func (b ScoreBreakdown) IsPartial() bool {
	return b.QuantityState == QuantityPartial || b.AmountState == AmountPartial
}

// Candidate is a purchase order line (or 1-to-1 line set) proposed as the
// reference for the invoice.
type Candidate struct {
	PurchaseOrderID     string         `json:"purchase_order_id"`
	PurchaseOrderItemID string         `json:"purchase_order_item_id"`
	Material            string         `json:"material,omitempty"`
	Score               float64        `json:"score"`
	NeedsGoodsReceipt   bool           `json:"needs_goods_receipt"`
	IsPartialInvoice    bool           `json:"is_partial_invoice"`
	LineMapping         map[int]string `json:"line_mapping"`
	Breakdown           ScoreBreakdown `json:"breakdown"`
}

// Outcome discriminates the reconciliation result variants.
type Outcome string

const (
	OutcomeSelected  Outcome = "selected"
	OutcomeAmbiguous Outcome = "ambiguous"
	OutcomeNoMatch   Outcome = "no_match"
)

// ReconciliationResult is exactly one of Selected, Ambiguous or NoMatch.
// Use the constructors; they are the only way the variants stay mutually
// exclusive.
type ReconciliationResult struct {
	Outcome       Outcome            `json:"outcome"`
	Selected      *Candidate         `json:"selected,omitempty"`
	Reference     *ReferenceDocument `json:"reference,omitempty"`
	TopCandidates []Candidate        `json:"top_candidates,omitempty"`
	Reason        string             `json:"reason,omitempty"`
}

// Selected builds the successful variant.
func Selected(c Candidate) ReconciliationResult {
	return ReconciliationResult{Outcome: OutcomeSelected, Selected: &c}
}

// Ambiguous builds the near-tie variant carrying the indistinguishable
// candidates for human review.
func Ambiguous(top []Candidate) ReconciliationResult {
	return ReconciliationResult{Outcome: OutcomeAmbiguous, TopCandidates: top}
}

// NoMatch builds the terminal no-match variant.
func NoMatch(reason string) ReconciliationResult {
	return ReconciliationResult{Outcome: OutcomeNoMatch, Reason: reason}
}

// WithReference returns a copy of a selected result with the verified
// goods-receipt reference attached.
func (r ReconciliationResult) WithReference(ref ReferenceDocument) ReconciliationResult {
	r.Reference = &ref
	return r
}
