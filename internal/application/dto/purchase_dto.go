package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/purchase"
)

// PurchaseHeaderRequest encabezado de compra para crear/guardar.
type PurchaseHeaderRequest struct {
	SupplierID   string          `json:"supplier_id"`
	RemitoNumber string          `json:"remito_number"`
	RemitoDate   string          `json:"remito_date"` // YYYY-MM-DD
	VATRate      decimal.Decimal `json:"vat_rate"`
	Note         string          `json:"note"`
}

// PurchaseLineRequest renglón de compra para guardar (documento completo).
type PurchaseLineRequest struct {
	Title          string          `json:"title"`
	SupplierSKU    string          `json:"supplier_sku"`
	Qty            int64           `json:"qty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LineDiscount   decimal.Decimal `json:"line_discount"`
	ProductID      string          `json:"product_id"`
	SupplierItemID string          `json:"supplier_item_id"`
}

// SavePurchaseRequest guardado de documento completo: encabezado + renglones.
type SavePurchaseRequest struct {
	Header PurchaseHeaderRequest `json:"header"`
	Lines  []PurchaseLineRequest `json:"lines"`
}

// PurchaseLineResponse renglón con su estado derivado.
type PurchaseLineResponse struct {
	ID             string          `json:"id"`
	Position       int             `json:"position"`
	Title          string          `json:"title"`
	SupplierSKU    string          `json:"supplier_sku"`
	Qty            int64           `json:"qty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LineDiscount   decimal.Decimal `json:"line_discount"`
	ProductID      string          `json:"product_id,omitempty"`
	SupplierItemID string          `json:"supplier_item_id,omitempty"`
	State          string          `json:"state"`
}

// PurchaseResponse documento completo con totales autoritativos del servidor.
type PurchaseResponse struct {
	ID           string                 `json:"id"`
	SupplierID   string                 `json:"supplier_id"`
	RemitoNumber string                 `json:"remito_number"`
	RemitoDate   string                 `json:"remito_date"`
	VATRate      decimal.Decimal        `json:"vat_rate"`
	Note         string                 `json:"note,omitempty"`
	Status       string                 `json:"status"`
	Meta         map[string]any         `json:"meta,omitempty"`
	Lines        []PurchaseLineResponse `json:"lines"`
	Totals       purchase.Totals        `json:"totals"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ValidateResponse resultado del pase de auto-vinculación por SKU exacto.
type ValidateResponse struct {
	Linked      int      `json:"linked"`
	Unmatched   int      `json:"unmatched"`
	MissingSKUs []string `json:"missing_skus"`
}

// UnresolvedLine renglón sin vincular reportado al confirmar.
type UnresolvedLine struct {
	Position    int    `json:"position"`
	SupplierSKU string `json:"supplier_sku,omitempty"`
	Title       string `json:"title,omitempty"`
}

// ConfirmTotals comparación entre total del remito y total aplicado a stock.
type ConfirmTotals struct {
	PurchaseTotal decimal.Decimal `json:"purchase_total"`
	AppliedTotal  decimal.Decimal `json:"applied_total"`
	Mismatch      bool            `json:"mismatch"`
}

// ConfirmResponse resultado de la confirmación.
type ConfirmResponse struct {
	AppliedDeltas   []entity.AppliedDelta `json:"applied_deltas"`
	UnresolvedLines []UnresolvedLine      `json:"unresolved_lines"`
	Totals          ConfirmTotals         `json:"totals"`
	CanRollback     bool                  `json:"can_rollback"`
	CorrelationID   string                `json:"correlation_id"`
}

// CancelRequest anulación: el motivo es obligatorio.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ResendStockRequest reenvío de stock; DryRun devuelve los deltas sin aplicar.
type ResendStockRequest struct {
	DryRun bool `json:"dry_run"`
}

// ResendStockResponse deltas calculados (y aplicados si no fue dry run).
type ResendStockResponse struct {
	AppliedDeltas []entity.AppliedDelta `json:"applied_deltas"`
	DryRun        bool                  `json:"dry_run"`
	CorrelationID string                `json:"correlation_id,omitempty"`
}

// RollbackResponse deltas espejo aplicados por la reversión.
type RollbackResponse struct {
	Reverted      []entity.AppliedDelta `json:"reverted"`
	CorrelationID string                `json:"correlation_id"`
}

// PurchaseLogResponse entrada de bitácora para la API.
type PurchaseLogResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AttachmentResponse adjunto de una compra expuesto por la API.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
