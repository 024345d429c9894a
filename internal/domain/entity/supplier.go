package entity

import "time"

// Supplier proveedor al que se le compra mercadería.
type Supplier struct {
	ID        string
	CompanyID string
	Name      string
	CUIT      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
