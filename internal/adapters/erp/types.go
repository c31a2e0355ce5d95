package erp

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invopost/reconciler/internal/domain/model"
)

// statusReleased is the OData purchasing processing status for released
// purchase orders.
const statusReleased = "05"

// odataEnvelope is the classic OData v2 response wrapper.
type odataEnvelope[T any] struct {
	D struct {
		Results []T `json:"results"`
	} `json:"d"`
}

type odataPurchaseOrder struct {
	PurchaseOrder              string `json:"PurchaseOrder"`
	Supplier                   string `json:"Supplier"`
	DocumentCurrency           string `json:"DocumentCurrency"`
	PurchaseOrderDate          string `json:"PurchaseOrderDate"`
	PurchasingProcessingStatus string `json:"PurchasingProcessingStatus"`
	ToItems                    struct {
		Results []odataPurchaseOrderItem `json:"results"`
	} `json:"to_PurchaseOrderItem"`
}

type odataPurchaseOrderItem struct {
	PurchaseOrderItem         string `json:"PurchaseOrderItem"`
	Material                  string `json:"Material"`
	PurchaseOrderItemText     string `json:"PurchaseOrderItemText"`
	NetPriceAmount            string `json:"NetPriceAmount"`
	OrderQuantity             string `json:"OrderQuantity"`
	PurchaseOrderQuantityUnit string `json:"PurchaseOrderQuantityUnit"`
	TaxCode                   string `json:"TaxCode"`
	IsFinallyInvoiced         bool   `json:"IsFinallyInvoiced"`
	InvoiceIsGoodsReceiptBsd  bool   `json:"InvoiceIsGoodsReceiptBased"`
}

type odataMaterialDocumentItem struct {
	MaterialDocument         string `json:"MaterialDocument"`
	MaterialDocumentYear     string `json:"MaterialDocumentYear"`
	MaterialDocumentItem     string `json:"MaterialDocumentItem"`
	GoodsMovementType        string `json:"GoodsMovementType"`
	GoodsMovementIsCancelled bool   `json:"GoodsMovementIsCancelled"`
	QuantityInEntryUnit      string `json:"QuantityInEntryUnit"`
	Material                 string `json:"Material"`
	PurchaseOrder            string `json:"PurchaseOrder"`
	PurchaseOrderItem        string `json:"PurchaseOrderItem"`
	ToHeader                 *struct {
		MaterialDocumentHeaderText string `json:"MaterialDocumentHeaderText"`
		PostingDate                string `json:"PostingDate"`
		DocumentDate               string `json:"DocumentDate"`
	} `json:"to_MaterialDocumentHeader"`
}

func (o odataPurchaseOrder) toModel() model.PurchaseOrder {
	po := model.PurchaseOrder{
		ID:         o.PurchaseOrder,
		SupplierID: o.Supplier,
		Currency:   o.DocumentCurrency,
		OrderDate:  parseODataDate(o.PurchaseOrderDate),
		Status:     mapStatus(o.PurchasingProcessingStatus),
		Lines:      make([]model.POLine, 0, len(o.ToItems.Results)),
	}
	for _, item := range o.ToItems.Results {
		po.Lines = append(po.Lines, model.POLine{
			ItemID:               item.PurchaseOrderItem,
			Material:             item.Material,
			Description:          item.PurchaseOrderItemText,
			NetUnitPrice:         parseODataDecimal(item.NetPriceAmount),
			OrderQuantity:        parseODataDecimal(item.OrderQuantity),
			QuantityUnit:         item.PurchaseOrderQuantityUnit,
			TaxCode:              item.TaxCode,
			IsFinallyInvoiced:    item.IsFinallyInvoiced,
			RequiresGoodsReceipt: item.InvoiceIsGoodsReceiptBsd,
		})
	}
	return po
}

func (o odataMaterialDocumentItem) toModel() model.GoodsReceiptEntry {
	entry := model.GoodsReceiptEntry{
		DocumentID:   o.MaterialDocument,
		FiscalYear:   o.MaterialDocumentYear,
		ItemID:       o.MaterialDocumentItem,
		MovementType: o.GoodsMovementType,
		IsCancelled:  o.GoodsMovementIsCancelled,
		Quantity:     parseODataDecimal(o.QuantityInEntryUnit),
		Material:     o.Material,
		POItemID:     o.PurchaseOrderItem,
	}
	if o.ToHeader != nil {
		entry.HeaderText = o.ToHeader.MaterialDocumentHeaderText
		entry.PostingDate = parseODataDate(o.ToHeader.PostingDate)
		if entry.PostingDate.IsZero() {
			entry.PostingDate = parseODataDate(o.ToHeader.DocumentDate)
		}
	}
	return entry
}

// mapStatus translates the OData processing status into the domain status.
// Unknown codes pass through verbatim so the header filter rejects them.
func mapStatus(code string) string {
	switch code {
	case "":
		return ""
	case statusReleased:
		return model.StatusReleased
	default:
		return code
	}
}

// parseODataDate handles the legacy "/Date(1672531200000)/" epoch format
// plus plain ISO dates. Unparseable values come back zero; a missing date
// must pass the engine's date filters rather than fail the fetch.
func parseODataDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if strings.HasPrefix(s, "/Date(") {
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "/Date("), ")/")
		// Offsets like "1672531200000+0000" occur; keep the epoch part.
		if idx := strings.IndexAny(inner[1:], "+-"); idx >= 0 {
			inner = inner[:idx+1]
		}
		ms, err := strconv.ParseInt(inner, 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseODataDecimal parses the string-encoded numeric fields OData emits.
func parseODataDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// GatewayError wraps any failure talking to the ERP so callers can tell an
// infrastructure fault apart from a business no-match and retry or escalate
// accordingly.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("erp gateway: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
