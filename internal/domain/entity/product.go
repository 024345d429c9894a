package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo propio. Stock es el contador autoritativo que
// el motor de compras incrementa al confirmar; solo se modifica vía deltas
// registrados, nunca en la creación del producto.
type Product struct {
	ID        string
	CompanyID string
	SKU       string // código interno, único por empresa
	Name      string
	Stock     int64
	Cost      decimal.Decimal // costo de reposición
	Price     decimal.Decimal // precio de venta
	CreatedAt time.Time
	UpdatedAt time.Time
}
