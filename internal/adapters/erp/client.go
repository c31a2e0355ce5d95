// Package erp is the thin OData gateway to the ERP: it fetches a supplier's
// purchase orders and the material documents recorded against a PO line,
// and maps them into domain types. All scoring and selection happens in the
// domain packages; this package only moves and translates data.
package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/invopost/reconciler/internal/domain/model"
)

const (
	purchaseOrderPath    = "/API_PURCHASEORDER_PROCESS_SRV/A_PurchaseOrder"
	materialDocumentPath = "/API_MATERIAL_DOCUMENT_SRV/A_MaterialDocumentItem"
)

// Config holds the gateway connection settings.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	// MaxRetries bounds transport-level retries for transient failures.
	MaxRetries int
}

// Client talks to the ERP OData services.
type Client struct {
	cfg    Config
	http   *retryablehttp.Client
	logger *slog.Logger
}

// NewClient builds a gateway client. Retries cover transient transport
// errors only; HTTP-level business errors surface as GatewayError.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &Client{cfg: cfg, http: rc, logger: logger}
}

// FetchPurchaseOrders returns the supplier's purchase orders with their
// items expanded. The result is a fresh snapshot per call; nothing is
// cached.
func (c *Client) FetchPurchaseOrders(ctx context.Context, supplierID string) ([]model.PurchaseOrder, error) {
	query := url.Values{
		"$filter": []string{fmt.Sprintf("Supplier eq '%s'", escapeODataLiteral(supplierID))},
		"$expand": []string{"to_PurchaseOrderItem"},
		"$format": []string{"json"},
	}

	var envelope odataEnvelope[odataPurchaseOrder]
	if err := c.get(ctx, purchaseOrderPath, query, &envelope); err != nil {
		return nil, &GatewayError{Op: "fetch purchase orders", Err: err}
	}

	pos := make([]model.PurchaseOrder, 0, len(envelope.D.Results))
	for _, raw := range envelope.D.Results {
		pos = append(pos, raw.toModel())
	}
	c.logger.Debug("purchase orders fetched", "supplier", supplierID, "count", len(pos))
	return pos, nil
}

// FetchGoodsReceipts returns the material document items recorded against a
// PO line, headers expanded for posting date and header text. poItemID and
// movementType narrow the query when non-empty.
func (c *Client) FetchGoodsReceipts(ctx context.Context, poID, poItemID, movementType string) ([]model.GoodsReceiptEntry, error) {
	filter := fmt.Sprintf("PurchaseOrder eq '%s'", escapeODataLiteral(poID))
	if poItemID != "" {
		filter += fmt.Sprintf(" and PurchaseOrderItem eq '%s'", escapeODataLiteral(poItemID))
	}
	if movementType != "" {
		filter += fmt.Sprintf(" and GoodsMovementType eq '%s'", escapeODataLiteral(movementType))
	}

	query := url.Values{
		"$filter": []string{filter},
		"$expand": []string{"to_MaterialDocumentHeader"},
		"$format": []string{"json"},
	}

	var envelope odataEnvelope[odataMaterialDocumentItem]
	if err := c.get(ctx, materialDocumentPath, query, &envelope); err != nil {
		return nil, &GatewayError{Op: "fetch goods receipts", Err: err}
	}

	entries := make([]model.GoodsReceiptEntry, 0, len(envelope.D.Results))
	for _, raw := range envelope.D.Results {
		entries = append(entries, raw.toModel())
	}
	c.logger.Debug("goods receipts fetched", "po", poID, "po_item", poItemID, "count", len(entries))
	return entries, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// escapeODataLiteral doubles single quotes per the OData literal rules.
func escapeODataLiteral(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
