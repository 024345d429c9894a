package repository

import "github.com/matuteb/gestion-api/internal/domain/entity"

// SupplierItemRepository puerto de búsqueda sobre el catálogo de un proveedor.
type SupplierItemRepository interface {
	GetByID(id string) (*entity.SupplierItem, error)
	// GetBySupplierSKU busca por coincidencia exacta del código del proveedor.
	GetBySupplierSKU(supplierID, supplierProductID string) (*entity.SupplierItem, error)
	// Search busca por prefijo/substring normalizado en código y título.
	// La coincidencia exacta de código debe quedar primera en el ranking.
	Search(supplierID, normalizedQuery string, limit int) ([]*entity.SupplierItem, error)
	Create(item *entity.SupplierItem) error
	UpdateProductLink(id, productID string) error
}
