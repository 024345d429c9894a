package purchase

import (
	"context"

	"github.com/matuteb/gestion-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que los deltas de stock, el cambio
// de estado y la entrada de bitácora de una confirmación (o reversión) se
// escriban todos o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		purchaseRepo repository.PurchaseRepository,
		productRepo repository.ProductRepository,
		supplierItemRepo repository.SupplierItemRepository,
		logRepo repository.PurchaseLogRepository,
	) error) error
}
