package entity

import "github.com/shopspring/decimal"

// Estados derivados de un renglón. No se almacenan: se calculan de los vínculos.
const (
	LineStateOK          = "ok"
	LineStateSinVincular = "sin_vincular"
)

// PurchaseLine renglón de una compra. Position define el orden de carga
// (significativo solo para presentación).
type PurchaseLine struct {
	ID             string
	PurchaseID     string
	Position       int
	Title          string
	SupplierSKU    string
	Qty            int64           // > 0
	UnitCost       decimal.Decimal // >= 0
	LineDiscount   decimal.Decimal // porcentaje 0-100
	ProductID      string          // vínculo a catálogo propio (vacío = sin vincular)
	SupplierItemID string          // vínculo a catálogo del proveedor
}

// Resolved indica si el renglón tiene al menos un vínculo de identidad.
func (l *PurchaseLine) Resolved() bool {
	return l.ProductID != "" || l.SupplierItemID != ""
}

// State devuelve el estado derivado del renglón (ok | sin_vincular).
func (l *PurchaseLine) State() string {
	if l.Resolved() {
		return LineStateOK
	}
	return LineStateSinVincular
}

// LinkSupplierItem asigna los vínculos desde un ítem del proveedor.
// El título solo se completa si estaba vacío: lo tipeado manda.
func (l *PurchaseLine) LinkSupplierItem(item *SupplierItem) {
	l.SupplierItemID = item.ID
	l.ProductID = item.ProductID
	if l.Title == "" {
		l.Title = item.Title
	}
}
