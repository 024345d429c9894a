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

// Rollback revierte los deltas de stock de la última aplicación registrada
// (confirmación o reenvío). La reversión se acota al conjunto de deltas de ese
// episodio, identificado por su correlation id: invocarla dos veces no revierte
// dos veces. El estado del documento no cambia: stock y estado están
// desacoplados.
func (uc *UseCase) Rollback(ctx context.Context, companyID, userID, id string) (*dto.RollbackResponse, error) {
	p, _, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != entity.StatusConfirmada {
		return nil, domain.ErrStatusNotAllowed
	}

	lastApply, err := uc.logRepo.LastStockApplication(id)
	if err != nil {
		return nil, err
	}
	if lastApply == nil {
		return nil, domain.ErrNotFound
	}
	meta, err := lastApply.DecodeMeta()
	if err != nil {
		return nil, err
	}
	if meta.CorrelationID == "" || len(meta.AppliedDeltas) == 0 {
		return nil, domain.ErrNotFound
	}
	alreadyReverted, err := uc.logRepo.HasRollback(id, meta.CorrelationID)
	if err != nil {
		return nil, err
	}
	if alreadyReverted {
		return nil, domain.ErrAlreadyReverted
	}

	now := time.Now()
	var reverted []entity.AppliedDelta

	err = uc.txRunner.Run(ctx, func(
		purchaseRepo repository.PurchaseRepository,
		productRepo repository.ProductRepository,
		supplierItemRepo repository.SupplierItemRepository,
		logRepo repository.PurchaseLogRepository,
	) error {
		reverted = reverted[:0]
		for _, d := range meta.AppliedDeltas {
			product, err := productRepo.GetForUpdate(d.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrNotFound
			}
			inv := d.Inverse(product.Stock)
			if err := productRepo.UpdateStock(d.ProductID, inv.New); err != nil {
				return err
			}
			reverted = append(reverted, inv)
		}
		// La entrada de reversión lleva el mismo correlation id que la
		// aplicación que deshace: el guard de HasRollback se apoya en esto.
		return logRepo.Append(&entity.PurchaseLog{
			ID:         uuid.New().String(),
			PurchaseID: id,
			Action:     entity.LogActionRevertir,
			Meta: entity.EncodeLogMeta(entity.LogMeta{
				CorrelationID: meta.CorrelationID,
				Reverted:      reverted,
			}),
			CreatedAt: now,
			CreatedBy: userID,
		})
	})
	if err != nil {
		return nil, err
	}

	return &dto.RollbackResponse{
		Reverted:      append([]entity.AppliedDelta{}, reverted...),
		CorrelationID: meta.CorrelationID,
	}, nil
}
