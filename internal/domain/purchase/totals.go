// Package purchase contiene la lógica de dominio pura del motor de compras:
// cálculo determinista de totales a partir de renglones y alícuota de IVA.
package purchase

import (
	"github.com/shopspring/decimal"

	"github.com/matuteb/gestion-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// LineTotal totales de un renglón.
type LineTotal struct {
	Position      int             `json:"position"`
	EffectiveUnit decimal.Decimal `json:"effective_unit"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// Totals totales agregados de una compra.
type Totals struct {
	Lines     []LineTotal     `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Total     decimal.Decimal `json:"total"`
}

// Calculate computa los totales de la compra. Función pura y determinista:
// misma entrada, misma salida; sin I/O ni redondeo intermedio por renglón.
//
//	effective_unit = unit_cost * (1 - descuento/100)
//	subtotal_renglón = qty * effective_unit
//	subtotal = Σ subtotal_renglón
//	iva = subtotal * alícuota/100
//	total = subtotal + iva
//
// El redondeo a 2 decimales se aplica recién en los agregados.
func Calculate(lines []*entity.PurchaseLine, vatRate decimal.Decimal) Totals {
	t := Totals{
		Lines:     make([]LineTotal, 0, len(lines)),
		Subtotal:  decimal.Zero,
		VATAmount: decimal.Zero,
		Total:     decimal.Zero,
	}
	for _, l := range lines {
		effective := l.UnitCost.Mul(decimal.NewFromInt(1).Sub(l.LineDiscount.Div(hundred)))
		subtotal := decimal.NewFromInt(l.Qty).Mul(effective)
		t.Lines = append(t.Lines, LineTotal{
			Position:      l.Position,
			EffectiveUnit: effective,
			Subtotal:      subtotal,
		})
		t.Subtotal = t.Subtotal.Add(subtotal)
	}
	t.Subtotal = t.Subtotal.Round(2)
	t.VATAmount = t.Subtotal.Mul(vatRate.Div(hundred)).Round(2)
	t.Total = t.Subtotal.Add(t.VATAmount)
	return t
}

// IsZero indica si el total general es exactamente cero.
func (t Totals) IsZero() bool { return t.Total.IsZero() }
