package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

// ResendStock reenvía el stock de una compra confirmada: camino de
// recuperación ante fallas parciales. En modo dry run calcula los deltas que
// se aplicarían sin mutar nada; en modo aplicación los aplica bajo un nuevo
// correlation id y estampa meta.last_resend_stock_at.
func (uc *UseCase) ResendStock(ctx context.Context, companyID, userID, id string, dryRun bool) (*dto.ResendStockResponse, error) {
	p, lines, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != entity.StatusConfirmada {
		return nil, domain.ErrStatusNotAllowed
	}

	if dryRun {
		deltas, err := uc.previewDeltas(lines)
		if err != nil {
			return nil, err
		}
		return &dto.ResendStockResponse{AppliedDeltas: deltas, DryRun: true}, nil
	}

	correlationID := uuid.New().String()
	now := time.Now()
	var applied []entity.AppliedDelta

	err = uc.txRunner.Run(ctx, func(
		purchaseRepo repository.PurchaseRepository,
		productRepo repository.ProductRepository,
		supplierItemRepo repository.SupplierItemRepository,
		logRepo repository.PurchaseLogRepository,
	) error {
		applied = applied[:0]
		for _, l := range lines {
			productID, err := resolveProductID(supplierItemRepo, l)
			if err != nil {
				return err
			}
			if productID == "" {
				continue
			}
			delta, err := applyDelta(productRepo, productID, l.Qty, now)
			if err != nil {
				return err
			}
			applied = append(applied, delta)
		}

		p.SetMeta("last_resend_stock_at", now.Format(time.RFC3339))
		if err := purchaseRepo.UpdateMeta(id, p.Meta); err != nil {
			return err
		}
		return logRepo.Append(&entity.PurchaseLog{
			ID:         uuid.New().String(),
			PurchaseID: id,
			Action:     entity.LogActionReenvioStock,
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

	return &dto.ResendStockResponse{
		AppliedDeltas: append([]entity.AppliedDelta{}, applied...),
		CorrelationID: correlationID,
	}, nil
}

// previewDeltas calcula los deltas contra el stock actual sin tomar locks ni
// escribir nada.
func (uc *UseCase) previewDeltas(lines []*entity.PurchaseLine) ([]entity.AppliedDelta, error) {
	deltas := []entity.AppliedDelta{}
	for _, l := range lines {
		productID, err := resolveProductID(uc.supplierItemRepo, l)
		if err != nil {
			return nil, err
		}
		if productID == "" {
			continue
		}
		product, err := uc.productRepo.GetByID(productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			continue
		}
		deltas = append(deltas, entity.AppliedDelta{
			ProductID:    productID,
			ProductTitle: product.Name,
			Delta:        l.Qty,
			Old:          product.Stock,
			New:          product.Stock + l.Qty,
		})
	}
	return deltas, nil
}
