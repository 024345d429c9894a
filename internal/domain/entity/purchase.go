package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseStatus estado del ciclo de vida de una compra (remito).
type PurchaseStatus string

// Estados posibles. Las transiciones son monótonas: una compra confirmada o
// anulada nunca vuelve a borrador. La reversión de stock no toca el estado.
const (
	StatusBorrador   PurchaseStatus = "borrador"
	StatusConfirmada PurchaseStatus = "confirmada"
	StatusAnulada    PurchaseStatus = "anulada"
)

// IsValid indica si el valor es un estado conocido.
func (s PurchaseStatus) IsValid() bool {
	switch s {
	case StatusBorrador, StatusConfirmada, StatusAnulada:
		return true
	}
	return false
}

// String devuelve la representación textual del estado.
func (s PurchaseStatus) String() string { return string(s) }

// CanTransitionTo indica si la transición de estado es legal.
func (s PurchaseStatus) CanTransitionTo(target PurchaseStatus) bool {
	switch s {
	case StatusBorrador:
		return target == StatusConfirmada || target == StatusAnulada
	case StatusConfirmada:
		return target == StatusAnulada
	case StatusAnulada:
		return false // terminal
	}
	return false
}

// Deletable indica si la compra puede eliminarse en este estado.
// Una compra confirmada nunca se elimina: primero debe revertirse su stock.
func (s PurchaseStatus) Deletable() bool {
	return s == StatusBorrador || s == StatusAnulada
}

// Editable indica si encabezado y renglones admiten modificación estructural.
func (s PurchaseStatus) Editable() bool {
	return s == StatusBorrador
}

// Purchase representa una compra a proveedor respaldada por un remito.
// Los renglones viven en PurchaseLine; los totales se calculan, no se almacenan
// por renglón (ver purchase.Totals).
type Purchase struct {
	ID           string
	CompanyID    string
	SupplierID   string
	RemitoNumber string
	RemitoDate   time.Time
	VATRate      decimal.Decimal // porcentaje: 21, 10.5, 0
	Note         string
	Status       PurchaseStatus
	Meta         json.RawMessage // bolsa libre: last_resend_stock_at, etc.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MetaMap decodifica Meta a un mapa editable. Meta vacío devuelve mapa vacío.
func (p *Purchase) MetaMap() map[string]any {
	m := map[string]any{}
	if len(p.Meta) > 0 {
		_ = json.Unmarshal(p.Meta, &m)
	}
	return m
}

// SetMeta escribe una clave en Meta preservando el resto del contenido.
func (p *Purchase) SetMeta(key string, value any) {
	m := p.MetaMap()
	m[key] = value
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	p.Meta = raw
}
