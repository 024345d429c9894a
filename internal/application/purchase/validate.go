package purchase

import (
	"context"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
)

// Validate intenta auto-vincular por SKU exacto todos los renglones sueltos.
// Es un pase diagnóstico sobre el borrador: no cambia el estado ni bloquea la
// confirmación; el operador puede confirmar con renglones sin vincular.
func (uc *UseCase) Validate(ctx context.Context, companyID, userID, id string) (*dto.ValidateResponse, error) {
	p, lines, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != entity.StatusBorrador {
		return nil, domain.ErrStatusNotAllowed
	}

	out := &dto.ValidateResponse{MissingSKUs: []string{}}
	for _, l := range lines {
		if l.Resolved() {
			continue
		}
		if l.SupplierSKU == "" {
			out.Unmatched++
			continue
		}
		item, err := uc.supplierItemRepo.GetBySupplierSKU(p.SupplierID, l.SupplierSKU)
		if err != nil {
			return nil, err
		}
		if item == nil {
			out.Unmatched++
			out.MissingSKUs = append(out.MissingSKUs, l.SupplierSKU)
			continue
		}
		l.LinkSupplierItem(item)
		if err := uc.purchaseRepo.UpdateLineLinks(l); err != nil {
			return nil, err
		}
		out.Linked++
	}

	uc.appendLog(id, userID, entity.LogActionValidar, entity.LogMeta{Extra: map[string]any{
		"linked":    out.Linked,
		"unmatched": out.Unmatched,
	}})
	return out, nil
}
