package repository

import "github.com/matuteb/gestion-api/internal/domain/entity"

// PurchaseRepository define el puerto de persistencia para Purchase y sus
// renglones (DIP). El motor es el único dueño del documento.
type PurchaseRepository interface {
	Create(p *entity.Purchase) error
	GetByID(id string) (*entity.Purchase, error)
	Update(p *entity.Purchase) error
	UpdateStatus(id string, status entity.PurchaseStatus) error
	// TransitionStatus cambia el estado solo si el actual es from; devuelve
	// ErrStatusNotAllowed si la fila ya no está en from. Dentro de una tx la
	// actualización condicional toma el lock de la fila: dos confirmaciones
	// concurrentes se serializan y la segunda falla en vez de duplicar efectos.
	TransitionStatus(id string, from, to entity.PurchaseStatus) error
	UpdateMeta(id string, meta []byte) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Purchase, error)
	Delete(id string) error

	GetLines(purchaseID string) ([]*entity.PurchaseLine, error)
	ReplaceLines(purchaseID string, lines []*entity.PurchaseLine) error
	UpdateLineLinks(line *entity.PurchaseLine) error
}
