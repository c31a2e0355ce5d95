package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invopost/reconciler/internal/adapters/erp"
	"github.com/invopost/reconciler/internal/api/dto"
	"github.com/invopost/reconciler/internal/api/middleware"
	"github.com/invopost/reconciler/internal/application/service"
	"github.com/invopost/reconciler/internal/domain/goodsreceipt"
	"github.com/invopost/reconciler/internal/domain/model"
	"github.com/invopost/reconciler/internal/domain/reconciler"
)

type stubGateway struct {
	pos     []model.PurchaseOrder
	posErr  error
	entries []model.GoodsReceiptEntry
}

func (g *stubGateway) FetchPurchaseOrders(_ context.Context, _ string) ([]model.PurchaseOrder, error) {
	return g.pos, g.posErr
}

func (g *stubGateway) FetchGoodsReceipts(_ context.Context, _, _, _ string) ([]model.GoodsReceiptEntry, error) {
	return g.entries, nil
}

func newTestServer(gateway service.Gateway) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := reconciler.NewEngine(reconciler.DefaultRules(), nil, logger)
	verifier := goodsreceipt.NewVerifier(goodsreceipt.DefaultRules(), logger)
	svc := service.NewReconcileService(engine, verifier, gateway, "101", logger)
	return NewServer(DefaultConfig(), svc, logger)
}

func matchablePO(requiresGR bool) model.PurchaseOrder {
	return model.PurchaseOrder{
		ID:         "4500000001",
		SupplierID: "0001000123",
		Currency:   "PEN",
		OrderDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:     model.StatusReleased,
		Lines: []model.POLine{{
			ItemID:               "10",
			Description:          "Reactivo quimico X",
			NetUnitPrice:         decimal.NewFromInt(100),
			OrderQuantity:        decimal.NewFromInt(10),
			RequiresGoodsReceipt: requiresGR,
		}},
	}
}

func reconcileBody(t *testing.T, supplierID, strategy string) *bytes.Reader {
	t.Helper()
	req := dto.ReconcileRequest{
		SupplierID: supplierID,
		Strategy:   strategy,
		Invoice: model.Invoice{
			InvoiceID:    "F001-00042",
			DocumentDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Currency:     "PEN",
			Lines: []model.InvoiceLine{{
				Description: "Reactivo quimico X",
				Quantity:    decimal.NewFromInt(5),
				UnitPrice:   decimal.NewFromInt(100),
				Subtotal:    decimal.NewFromInt(500),
			}},
		},
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func doRequest(srv *Server, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubGateway{})

	rec := doRequest(srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReconcile_SelectedOutcome(t *testing.T) {
	srv := newTestServer(&stubGateway{pos: []model.PurchaseOrder{matchablePO(false)}})

	rec := doRequest(srv, http.MethodPost, "/api/reconcile", reconcileBody(t, "0001000123", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	var resp dto.ReconcileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	require.Equal(t, model.OutcomeSelected, resp.Result.Outcome)
	assert.Equal(t, "4500000001", resp.Result.Selected.PurchaseOrderID)
}

func TestReconcile_MissingSupplierIsBadRequest(t *testing.T) {
	srv := newTestServer(&stubGateway{})

	rec := doRequest(srv, http.MethodPost, "/api/reconcile", reconcileBody(t, "", ""))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr dto.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "bad_request", apiErr.Kind)
}

func TestReconcile_UnknownStrategyIsBadRequest(t *testing.T) {
	srv := newTestServer(&stubGateway{})

	rec := doRequest(srv, http.MethodPost, "/api/reconcile", reconcileBody(t, "0001000123", "fancy"))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr dto.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Error, "fancy")
}

func TestReconcile_GatewayFaultIsBadGateway(t *testing.T) {
	srv := newTestServer(&stubGateway{
		posErr: &erp.GatewayError{Op: "fetch purchase orders", Err: errors.New("timeout")},
	})

	rec := doRequest(srv, http.MethodPost, "/api/reconcile", reconcileBody(t, "0001000123", ""))

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var apiErr dto.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "gateway", apiErr.Kind)
}

func TestReconcile_MissingGoodsReceiptIsUnprocessable(t *testing.T) {
	srv := newTestServer(&stubGateway{pos: []model.PurchaseOrder{matchablePO(true)}})

	rec := doRequest(srv, http.MethodPost, "/api/reconcile", reconcileBody(t, "0001000123", "exact"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var apiErr dto.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "no_goods_receipt", apiErr.Kind)
}

func TestReconcile_NoMatchIsStillOK(t *testing.T) {
	po := matchablePO(false)
	po.Lines[0].NetUnitPrice = decimal.NewFromInt(150)
	srv := newTestServer(&stubGateway{pos: []model.PurchaseOrder{po}})

	rec := doRequest(srv, http.MethodPost, "/api/reconcile", reconcileBody(t, "0001000123", ""))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ReconcileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.OutcomeNoMatch, resp.Result.Outcome)
}
