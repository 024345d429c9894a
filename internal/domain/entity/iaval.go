package entity

import "github.com/shopspring/decimal"

// IavalProposal corrección propuesta por el validador iAVaL a partir del
// remito original. Los campos son parciales: un puntero nil significa "sin
// propuesta para este campo". Lines está alineado por índice con los renglones
// actuales de la compra.
type IavalProposal struct {
	Header     IavalHeaderPatch `json:"header"`
	Lines      []IavalLinePatch `json:"lines"`
	Confidence float64          `json:"confidence"` // 0-1
	Comments   []string         `json:"comments"`
}

// IavalHeaderPatch campos de encabezado que iAVaL propone corregir.
type IavalHeaderPatch struct {
	RemitoNumber *string          `json:"remito_number,omitempty"`
	RemitoDate   *string          `json:"remito_date,omitempty"` // YYYY-MM-DD
	VATRate      *decimal.Decimal `json:"vat_rate,omitempty"`
	Note         *string          `json:"note,omitempty"`
}

// IavalLinePatch campos de un renglón que iAVaL propone corregir.
type IavalLinePatch struct {
	Title        *string          `json:"title,omitempty"`
	SupplierSKU  *string          `json:"supplier_sku,omitempty"`
	Qty          *int64           `json:"qty,omitempty"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	LineDiscount *decimal.Decimal `json:"line_discount,omitempty"`
}

// Empty indica si el parche de renglón no propone ningún cambio.
func (p IavalLinePatch) Empty() bool {
	return p.Title == nil && p.SupplierSKU == nil && p.Qty == nil &&
		p.UnitCost == nil && p.LineDiscount == nil
}
