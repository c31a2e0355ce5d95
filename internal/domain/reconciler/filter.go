package reconciler

import (
	"github.com/invopost/reconciler/internal/domain/model"
)

// filterHeaders applies the level-1 eligibility filter over candidate
// purchase orders. A PO passes when it is released (or carries no status),
// was not created after the invoice date, and is denominated in the invoice
// currency. Missing dates pass. Rejections are logged, never errored.
func (e *Engine) filterHeaders(inv model.Invoice, pos []model.PurchaseOrder) []model.PurchaseOrder {
	kept := make([]model.PurchaseOrder, 0, len(pos))

	for _, po := range pos {
		statusOK := po.Status == "" || po.Status == model.StatusReleased
		dateOK := po.OrderDate.IsZero() || inv.DocumentDate.IsZero() || !po.OrderDate.After(inv.DocumentDate)
		currencyOK := po.Currency == inv.Currency

		if statusOK && dateOK && currencyOK {
			kept = append(kept, po)
			continue
		}

		e.logger.Debug("purchase order rejected by header filter",
			"po", po.ID,
			"status_ok", statusOK,
			"date_ok", dateOK,
			"currency_ok", currencyOK,
			"po_currency", po.Currency,
			"invoice_currency", inv.Currency,
		)
	}

	e.logger.Debug("header filter done", "in", len(pos), "kept", len(kept))
	return kept
}
