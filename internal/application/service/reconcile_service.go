// Package service wires the reconciliation engine, the goods-receipt
// verifier and the ERP gateway into the end-to-end flow the API and CLI
// expose.
package service

import (
	"context"
	"log/slog"

	"github.com/invopost/reconciler/internal/domain/goodsreceipt"
	"github.com/invopost/reconciler/internal/domain/model"
	"github.com/invopost/reconciler/internal/domain/reconciler"
)

// Gateway is the slice of the ERP client the service needs. Narrowed to an
// interface so handler tests can stub the ERP.
type Gateway interface {
	FetchPurchaseOrders(ctx context.Context, supplierID string) ([]model.PurchaseOrder, error)
	FetchGoodsReceipts(ctx context.Context, poID, poItemID, movementType string) ([]model.GoodsReceiptEntry, error)
}

// ReconcileService runs fetch → reconcile → verify for one invoice.
type ReconcileService struct {
	engine       *reconciler.Engine
	verifier     *goodsreceipt.Verifier
	gateway      Gateway
	movementType string
	logger       *slog.Logger
}

// NewReconcileService builds the service. movementType narrows the
// goods-receipt fetch (normally "101").
func NewReconcileService(engine *reconciler.Engine, verifier *goodsreceipt.Verifier, gateway Gateway, movementType string, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		engine:       engine,
		verifier:     verifier,
		gateway:      gateway,
		movementType: movementType,
		logger:       logger,
	}
}

// Process reconciles the invoice against the supplier's purchase orders
// and, when the selected PO line demands it, verifies the goods receipt.
//
// Business outcomes (ambiguous, no match) come back inside the result;
// the error return carries gateway faults and goods-receipt verification
// failures, which the caller must keep distinct from business no-matches.
func (s *ReconcileService) Process(ctx context.Context, inv model.Invoice, supplierID string, strategy goodsreceipt.Strategy) (model.ReconciliationResult, error) {
	pos, err := s.gateway.FetchPurchaseOrders(ctx, supplierID)
	if err != nil {
		return model.ReconciliationResult{}, err
	}
	if len(pos) == 0 {
		return model.NoMatch("supplier has no purchase orders"), nil
	}

	result, err := s.engine.Reconcile(ctx, inv, pos)
	if err != nil {
		return model.ReconciliationResult{}, err
	}
	if result.Outcome != model.OutcomeSelected {
		return result, nil
	}

	selected := *result.Selected
	if !selected.NeedsGoodsReceipt {
		s.logger.Debug("selected PO line does not require a goods receipt",
			"po", selected.PurchaseOrderID, "po_item", selected.PurchaseOrderItemID)
		return result, nil
	}

	entries, err := s.gateway.FetchGoodsReceipts(ctx, selected.PurchaseOrderID, selected.PurchaseOrderItemID, s.movementType)
	if err != nil {
		return model.ReconciliationResult{}, err
	}

	ref, err := s.verifier.Verify(ctx, selected, inv, entries, strategy)
	if err != nil {
		return model.ReconciliationResult{}, err
	}

	return result.WithReference(ref), nil
}
