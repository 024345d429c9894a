package repository

import "github.com/matuteb/gestion-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetForUpdate bloquea la fila del producto: el contador de stock solo se
// modifica bajo lock dentro de una transacción.
type ProductRepository interface {
	Create(p *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetForUpdate(id string) (*entity.Product, error)
	UpdateStock(id string, stock int64) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)
}
