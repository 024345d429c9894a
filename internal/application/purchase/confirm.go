package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	domainpurchase "github.com/matuteb/gestion-api/internal/domain/purchase"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

// Tolerancia monetaria al comparar total del remito contra total aplicado.
var mismatchTolerance = decimal.NewFromFloat(0.01)

// Confirm pasa la compra de borrador a confirmada aplicando los deltas de
// stock de los renglones resueltos. Deltas, cambio de estado y entrada de
// bitácora se escriben en una única transacción: o queda todo o no queda nada.
//
// Los renglones sin vincular no bloquean: se reportan en UnresolvedLines y no
// aportan delta. Si el total aplicado difiere del total del remito más allá de
// la tolerancia, Mismatch queda en true y el caller puede ofrecer la reversión
// inmediata (CanRollback).
func (uc *UseCase) Confirm(ctx context.Context, companyID, userID, id string) (*dto.ConfirmResponse, error) {
	p, lines, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(entity.StatusConfirmada) {
		return nil, domain.ErrStatusNotAllowed
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyPurchase
	}
	totals := domainpurchase.Calculate(lines, p.VATRate)
	if totals.IsZero() {
		return nil, domain.ErrZeroTotal
	}

	// El correlation id se estampa al inicio del episodio y viaja en cada
	// entrada de bitácora que éste produce.
	correlationID := uuid.New().String()
	now := time.Now()

	var applied []entity.AppliedDelta
	var appliedLines []*entity.PurchaseLine
	var unresolved []dto.UnresolvedLine

	err = uc.txRunner.Run(ctx, func(
		purchaseRepo repository.PurchaseRepository,
		productRepo repository.ProductRepository,
		supplierItemRepo repository.SupplierItemRepository,
		logRepo repository.PurchaseLogRepository,
	) error {
		applied = applied[:0]
		appliedLines = appliedLines[:0]
		unresolved = unresolved[:0]

		// La transición condicional va primero: toma el lock de la fila y
		// re-verifica el estado dentro de la tx. Si otra confirmación (o una
		// anulación) ganó la carrera, fallamos acá sin tocar ningún producto.
		if err := purchaseRepo.TransitionStatus(id, entity.StatusBorrador, entity.StatusConfirmada); err != nil {
			return err
		}

		for _, l := range lines {
			productID, err := resolveProductID(supplierItemRepo, l)
			if err != nil {
				return err
			}
			if productID == "" {
				unresolved = append(unresolved, dto.UnresolvedLine{
					Position:    l.Position,
					SupplierSKU: l.SupplierSKU,
					Title:       l.Title,
				})
				continue
			}
			delta, err := applyDelta(productRepo, productID, l.Qty, now)
			if err != nil {
				return err
			}
			applied = append(applied, delta)
			appliedLines = append(appliedLines, l)
		}

		return logRepo.Append(&entity.PurchaseLog{
			ID:         uuid.New().String(),
			PurchaseID: id,
			Action:     entity.LogActionConfirmar,
			Meta: entity.EncodeLogMeta(entity.LogMeta{
				CorrelationID: correlationID,
				AppliedDeltas: applied,
			}),
			CreatedAt: now,
			CreatedBy: userID,
		})
	})
	if err != nil {
		return nil, err
	}

	// El total aplicado sale de los renglones que efectivamente produjeron un
	// delta, no de los que parecían resueltos: un renglón cuyo ítem de
	// proveedor no apunta a ningún producto queda sin aplicar y debe
	// contribuir al aviso de diferencia.
	appliedTotal := domainpurchase.Calculate(appliedLines, p.VATRate).Total
	mismatch := totals.Total.Sub(appliedTotal).Abs().GreaterThan(mismatchTolerance)

	return &dto.ConfirmResponse{
		AppliedDeltas:   append([]entity.AppliedDelta{}, applied...),
		UnresolvedLines: append([]dto.UnresolvedLine{}, unresolved...),
		Totals: dto.ConfirmTotals{
			PurchaseTotal: totals.Total,
			AppliedTotal:  appliedTotal,
			Mismatch:      mismatch,
		},
		CanRollback:   len(applied) > 0,
		CorrelationID: correlationID,
	}, nil
}

// resolveProductID obtiene el producto de catálogo sobre el que impacta el
// renglón: vínculo directo, o a través del ítem del proveedor. Vacío si el
// renglón no resuelve a ningún producto.
func resolveProductID(supplierItemRepo repository.SupplierItemRepository, l *entity.PurchaseLine) (string, error) {
	if l.ProductID != "" {
		return l.ProductID, nil
	}
	if l.SupplierItemID == "" {
		return "", nil
	}
	item, err := supplierItemRepo.GetByID(l.SupplierItemID)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", nil
	}
	return item.ProductID, nil
}

// applyDelta bloquea la fila del producto, suma qty al contador y devuelve el
// delta registrado con stock antes y después.
func applyDelta(productRepo repository.ProductRepository, productID string, qty int64, now time.Time) (entity.AppliedDelta, error) {
	product, err := productRepo.GetForUpdate(productID)
	if err != nil {
		return entity.AppliedDelta{}, err
	}
	if product == nil {
		return entity.AppliedDelta{}, domain.ErrNotFound
	}
	old := product.Stock
	newStock := old + qty
	if err := productRepo.UpdateStock(productID, newStock); err != nil {
		return entity.AppliedDelta{}, err
	}
	return entity.AppliedDelta{
		ProductID:    productID,
		ProductTitle: product.Name,
		Delta:        qty,
		Old:          old,
		New:          newStock,
	}, nil
}
