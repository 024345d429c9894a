package repository

import "github.com/matuteb/gestion-api/internal/domain/entity"

// PurchaseLogRepository puerto de la bitácora de compras. Solo agrega y lee;
// no existe Update ni Delete: las entradas son inmutables.
type PurchaseLogRepository interface {
	Append(e *entity.PurchaseLog) error
	ListByPurchase(purchaseID string, limit int) ([]*entity.PurchaseLog, error)
	// LastStockApplication devuelve la entrada de aplicación de stock más
	// reciente (confirmar o reenviar_stock) de la compra, o nil si no hay.
	LastStockApplication(purchaseID string) (*entity.PurchaseLog, error)
	// HasRollback indica si ya existe una reversión para el correlation id dado.
	HasRollback(purchaseID, correlationID string) (bool, error)
}
