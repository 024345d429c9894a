package entity

import "time"

// SupplierItem ítem del catálogo de un proveedor. Es la tabla puente entre el
// código que el proveedor imprime en el remito (SupplierProductID) y el
// producto del catálogo propio (ProductID, puede estar vacío si todavía no se
// creó el producto interno).
type SupplierItem struct {
	ID                string
	SupplierID        string
	SupplierProductID string // SKU del proveedor, tal como figura en el remito
	Title             string
	ProductID         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
