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

var hundredDec = decimal.NewFromInt(100)

// UseCase ciclo de vida de compras: crear, guardar, validar, confirmar,
// anular, eliminar, reenviar stock y revertir. Toda mutación de stock pasa
// por el TxRunner; toda acción queda en la bitácora.
type UseCase struct {
	txRunner         TxRunner
	purchaseRepo     repository.PurchaseRepository
	productRepo      repository.ProductRepository
	supplierItemRepo repository.SupplierItemRepository
	supplierRepo     repository.SupplierRepository
	logRepo          repository.PurchaseLogRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	purchaseRepo repository.PurchaseRepository,
	productRepo repository.ProductRepository,
	supplierItemRepo repository.SupplierItemRepository,
	supplierRepo repository.SupplierRepository,
	logRepo repository.PurchaseLogRepository,
) *UseCase {
	return &UseCase{
		txRunner:         txRunner,
		purchaseRepo:     purchaseRepo,
		productRepo:      productRepo,
		supplierItemRepo: supplierItemRepo,
		supplierRepo:     supplierRepo,
		logRepo:          logRepo,
	}
}

// Create da de alta una compra en borrador con sus renglones.
func (uc *UseCase) Create(ctx context.Context, companyID, userID string, in dto.SavePurchaseRequest) (*dto.PurchaseResponse, error) {
	header, err := uc.parseHeader(companyID, in.Header)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines("", in.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	header.ID = uuid.New().String()
	header.Status = entity.StatusBorrador
	header.CreatedAt = now
	header.UpdatedAt = now
	for _, l := range lines {
		l.PurchaseID = header.ID
	}

	if err := uc.purchaseRepo.Create(header); err != nil {
		return nil, err
	}
	if err := uc.purchaseRepo.ReplaceLines(header.ID, lines); err != nil {
		return nil, err
	}
	uc.appendLog(header.ID, userID, entity.LogActionCrear, entity.LogMeta{})

	return uc.toResponse(header, lines), nil
}

// Get devuelve el documento completo con renglones y totales del servidor.
func (uc *UseCase) Get(ctx context.Context, companyID, id string) (*dto.PurchaseResponse, error) {
	p, lines, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(p, lines), nil
}

// List lista compras de la empresa con paginación.
func (uc *UseCase) List(ctx context.Context, companyID string, limit, offset int) ([]*dto.PurchaseResponse, error) {
	purchases, err := uc.purchaseRepo.ListByCompany(companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		lines, err := uc.purchaseRepo.GetLines(p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, uc.toResponse(p, lines))
	}
	return out, nil
}

// Save guarda el documento completo (encabezado + renglones). Solo en borrador:
// una vez aplicado el stock, reescribir cantidades desincronizaría los deltas.
func (uc *UseCase) Save(ctx context.Context, companyID, userID, id string, in dto.SavePurchaseRequest) (*dto.PurchaseResponse, error) {
	p, _, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.Editable() {
		return nil, domain.ErrStatusNotAllowed
	}

	header, err := uc.parseHeader(companyID, in.Header)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines(id, in.Lines)
	if err != nil {
		return nil, err
	}

	p.SupplierID = header.SupplierID
	p.RemitoNumber = header.RemitoNumber
	p.RemitoDate = header.RemitoDate
	p.VATRate = header.VATRate
	p.Note = header.Note
	p.UpdatedAt = time.Now()

	if err := uc.purchaseRepo.Update(p); err != nil {
		return nil, err
	}
	if err := uc.purchaseRepo.ReplaceLines(id, lines); err != nil {
		return nil, err
	}
	uc.appendLog(id, userID, entity.LogActionGuardar, entity.LogMeta{})

	return uc.toResponse(p, lines), nil
}

// Cancel anula la compra. El motivo es obligatorio; no toca el stock: la
// reversión, si se desea, es una llamada aparte a Rollback.
func (uc *UseCase) Cancel(ctx context.Context, companyID, userID, id, reason string) error {
	if reason == "" {
		return domain.ErrReasonRequired
	}
	p, _, err := uc.load(companyID, id)
	if err != nil {
		return err
	}
	if !p.Status.CanTransitionTo(entity.StatusAnulada) {
		return domain.ErrStatusNotAllowed
	}
	if err := uc.purchaseRepo.UpdateStatus(id, entity.StatusAnulada); err != nil {
		return err
	}
	uc.appendLog(id, userID, entity.LogActionAnular, entity.LogMeta{Reason: reason})
	return nil
}

// Delete elimina la compra. Solo en borrador o anulada: los efectos de stock
// de una confirmada deben revertirse explícitamente antes, para no perder
// trazabilidad.
func (uc *UseCase) Delete(ctx context.Context, companyID, id string) error {
	p, _, err := uc.load(companyID, id)
	if err != nil {
		return err
	}
	if !p.Status.Deletable() {
		return domain.ErrStatusNotAllowed
	}
	return uc.purchaseRepo.Delete(id)
}

// Logs devuelve la bitácora de la compra, la más reciente primero.
func (uc *UseCase) Logs(ctx context.Context, companyID, id string, limit int) ([]dto.PurchaseLogResponse, error) {
	if _, _, err := uc.load(companyID, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	entries, err := uc.logRepo.ListByPurchase(id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PurchaseLogResponse, 0, len(entries))
	for _, e := range entries {
		m, _ := e.DecodeMeta()
		meta := map[string]any{}
		if m.CorrelationID != "" {
			meta[entity.LogMetaCorrelationID] = m.CorrelationID
		}
		if len(m.AppliedDeltas) > 0 {
			meta[entity.LogMetaAppliedDeltas] = m.AppliedDeltas
		}
		if len(m.Reverted) > 0 {
			meta[entity.LogMetaReverted] = m.Reverted
		}
		if m.Reason != "" {
			meta["reason"] = m.Reason
		}
		for k, v := range m.Extra {
			meta[k] = v
		}
		out = append(out, dto.PurchaseLogResponse{
			ID:        e.ID,
			Action:    e.Action,
			Meta:      meta,
			CreatedAt: e.CreatedAt,
		})
	}
	return out, nil
}

// ── Helpers internos ──────────────────────────────────────────────────────────

// load obtiene la compra validando pertenencia a la empresa.
func (uc *UseCase) load(companyID, id string) (*entity.Purchase, []*entity.PurchaseLine, error) {
	p, err := uc.purchaseRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return nil, nil, domain.ErrForbidden
	}
	lines, err := uc.purchaseRepo.GetLines(id)
	if err != nil {
		return nil, nil, err
	}
	return p, lines, nil
}

func (uc *UseCase) parseHeader(companyID string, in dto.PurchaseHeaderRequest) (*entity.Purchase, error) {
	if in.SupplierID == "" || in.RemitoNumber == "" {
		return nil, domain.ErrInvalidInput
	}
	supplier, err := uc.supplierRepo.GetByID(in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || supplier.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	date, err := time.Parse("2006-01-02", in.RemitoDate)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	if in.VATRate.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	return &entity.Purchase{
		CompanyID:    companyID,
		SupplierID:   in.SupplierID,
		RemitoNumber: in.RemitoNumber,
		RemitoDate:   date,
		VATRate:      in.VATRate,
		Note:         in.Note,
	}, nil
}

func parseLines(purchaseID string, in []dto.PurchaseLineRequest) ([]*entity.PurchaseLine, error) {
	lines := make([]*entity.PurchaseLine, 0, len(in))
	for i, l := range in {
		// Un renglón sin identidad resoluble ni título no es cargable.
		if l.Title == "" && l.SupplierSKU == "" && l.ProductID == "" && l.SupplierItemID == "" {
			return nil, domain.ErrInvalidInput
		}
		if l.Qty <= 0 || l.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		if l.LineDiscount.IsNegative() || l.LineDiscount.GreaterThan(hundredDec) {
			return nil, domain.ErrInvalidInput
		}
		lines = append(lines, &entity.PurchaseLine{
			ID:             uuid.New().String(),
			PurchaseID:     purchaseID,
			Position:       i,
			Title:          l.Title,
			SupplierSKU:    l.SupplierSKU,
			Qty:            l.Qty,
			UnitCost:       l.UnitCost,
			LineDiscount:   l.LineDiscount,
			ProductID:      l.ProductID,
			SupplierItemID: l.SupplierItemID,
		})
	}
	return lines, nil
}

func (uc *UseCase) toResponse(p *entity.Purchase, lines []*entity.PurchaseLine) *dto.PurchaseResponse {
	out := &dto.PurchaseResponse{
		ID:           p.ID,
		SupplierID:   p.SupplierID,
		RemitoNumber: p.RemitoNumber,
		RemitoDate:   p.RemitoDate.Format("2006-01-02"),
		VATRate:      p.VATRate,
		Note:         p.Note,
		Status:       p.Status.String(),
		Meta:         p.MetaMap(),
		Lines:        make([]dto.PurchaseLineResponse, 0, len(lines)),
		Totals:       domainpurchase.Calculate(lines, p.VATRate),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, dto.PurchaseLineResponse{
			ID:             l.ID,
			Position:       l.Position,
			Title:          l.Title,
			SupplierSKU:    l.SupplierSKU,
			Qty:            l.Qty,
			UnitCost:       l.UnitCost,
			LineDiscount:   l.LineDiscount,
			ProductID:      l.ProductID,
			SupplierItemID: l.SupplierItemID,
			State:          l.State(),
		})
	}
	return out
}

// appendLog agrega una entrada fuera de transacción (acciones sin efecto de
// stock). Un fallo de bitácora no aborta la operación principal.
func (uc *UseCase) appendLog(purchaseID, userID, action string, meta entity.LogMeta) {
	_ = uc.logRepo.Append(&entity.PurchaseLog{
		ID:         uuid.New().String(),
		PurchaseID: purchaseID,
		Action:     action,
		Meta:       entity.EncodeLogMeta(meta),
		CreatedAt:  time.Now(),
		CreatedBy:  userID,
	})
}
