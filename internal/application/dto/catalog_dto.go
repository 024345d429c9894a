package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierItemDTO candidato de búsqueda en el catálogo del proveedor.
type SupplierItemDTO struct {
	ID                string `json:"id"`
	SupplierProductID string `json:"supplier_product_id"`
	Title             string `json:"title"`
	ProductID         string `json:"product_id,omitempty"`
}

// CreateProductRequest alta de producto en catálogo propio.
// Cuando el origen es un renglón de compra, InitialStock debe ser cero: la
// cantidad se aplica una sola vez, al confirmar.
type CreateProductRequest struct {
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Cost         decimal.Decimal `json:"cost"`
	Price        decimal.Decimal `json:"price"`
	InitialStock int64           `json:"initial_stock"`
}

// CreateProductFromLineRequest alta de producto desde un renglón sin vincular.
type CreateProductFromLineRequest struct {
	PurchaseID        string `json:"purchase_id"`
	PurchaseLineIndex int    `json:"purchase_line_index"`
	Name              string `json:"name"`
	SKU               string `json:"sku"`
}

// ProductResponse producto del catálogo.
type ProductResponse struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Stock     int64           `json:"stock"`
	Cost      decimal.Decimal `json:"cost"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// SupplierResponse proveedor expuesto por la API.
type SupplierResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CUIT      string    `json:"cuit,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest alta de usuario.
type RegisterRequest struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse usuario expuesto por la API (sin hash).
type UserResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse token + usuario.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
