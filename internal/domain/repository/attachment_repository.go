package repository

import "github.com/matuteb/gestion-api/internal/domain/entity"

// AttachmentRepository puerto de persistencia para adjuntos de compras.
type AttachmentRepository interface {
	Create(a *entity.Attachment) error
	ListByPurchase(purchaseID string) ([]*entity.Attachment, error)
	// Latest devuelve el adjunto más reciente de la compra, o nil si no hay.
	Latest(purchaseID string) (*entity.Attachment, error)
}
