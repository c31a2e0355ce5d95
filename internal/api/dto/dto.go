// Package dto defines the HTTP request/response shapes.
package dto

import (
	"github.com/invopost/reconciler/internal/domain/model"
)

// ReconcileRequest is the POST /api/reconcile payload.
type ReconcileRequest struct {
	SupplierID string `json:"supplier_id" binding:"required"`
	// Strategy picks the goods-receipt verification ("exact" or
	// "weighted"); empty uses the configured default.
	Strategy string        `json:"strategy,omitempty"`
	Invoice  model.Invoice `json:"invoice" binding:"required"`
}

// ReconcileResponse wraps the engine result.
type ReconcileResponse struct {
	RequestID string                     `json:"request_id,omitempty"`
	Result    model.ReconciliationResult `json:"result"`
}

// APIError is the uniform error body.
type APIError struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}
