package purchase_test

import (
	"context"
	"sort"

	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de persistencia. El fakeTxRunner pasa los
// mismos fakes al callback: los tests del motor no necesitan una DB real.
// ──────────────────────────────────────────────────────────────────────────────

type fakePurchaseRepo struct {
	purchases map[string]*entity.Purchase
	lines     map[string][]*entity.PurchaseLine
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{
		purchases: map[string]*entity.Purchase{},
		lines:     map[string][]*entity.PurchaseLine{},
	}
}

func (r *fakePurchaseRepo) Create(p *entity.Purchase) error {
	cp := *p
	r.purchases[p.ID] = &cp
	return nil
}

func (r *fakePurchaseRepo) GetByID(id string) (*entity.Purchase, error) {
	p, ok := r.purchases[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePurchaseRepo) Update(p *entity.Purchase) error {
	cp := *p
	r.purchases[p.ID] = &cp
	return nil
}

func (r *fakePurchaseRepo) UpdateStatus(id string, status entity.PurchaseStatus) error {
	r.purchases[id].Status = status
	return nil
}

func (r *fakePurchaseRepo) TransitionStatus(id string, from, to entity.PurchaseStatus) error {
	p, ok := r.purchases[id]
	if !ok || p.Status != from {
		return domain.ErrStatusNotAllowed
	}
	p.Status = to
	return nil
}

func (r *fakePurchaseRepo) UpdateMeta(id string, meta []byte) error {
	r.purchases[id].Meta = meta
	return nil
}

func (r *fakePurchaseRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Purchase, error) {
	var out []*entity.Purchase
	for _, p := range r.purchases {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePurchaseRepo) Delete(id string) error {
	delete(r.purchases, id)
	delete(r.lines, id)
	return nil
}

func (r *fakePurchaseRepo) GetLines(purchaseID string) ([]*entity.PurchaseLine, error) {
	src := r.lines[purchaseID]
	out := make([]*entity.PurchaseLine, 0, len(src))
	for _, l := range src {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakePurchaseRepo) ReplaceLines(purchaseID string, lines []*entity.PurchaseLine) error {
	cp := make([]*entity.PurchaseLine, 0, len(lines))
	for _, l := range lines {
		c := *l
		c.PurchaseID = purchaseID
		cp = append(cp, &c)
	}
	r.lines[purchaseID] = cp
	return nil
}

func (r *fakePurchaseRepo) UpdateLineLinks(line *entity.PurchaseLine) error {
	for _, l := range r.lines[line.PurchaseID] {
		if l.ID == line.ID {
			l.ProductID = line.ProductID
			l.SupplierItemID = line.SupplierItemID
			l.Title = line.Title
		}
	}
	return nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*entity.Product{}}
}

func (r *fakeProductRepo) Create(p *entity.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetForUpdate(id string) (*entity.Product, error) {
	return r.GetByID(id)
}

func (r *fakeProductRepo) UpdateStock(id string, stock int64) error {
	r.products[id].Stock = stock
	return nil
}

func (r *fakeProductRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.products {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSupplierItemRepo struct {
	items map[string]*entity.SupplierItem
}

func newFakeSupplierItemRepo() *fakeSupplierItemRepo {
	return &fakeSupplierItemRepo{items: map[string]*entity.SupplierItem{}}
}

func (r *fakeSupplierItemRepo) GetByID(id string) (*entity.SupplierItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (r *fakeSupplierItemRepo) GetBySupplierSKU(supplierID, sku string) (*entity.SupplierItem, error) {
	for _, it := range r.items {
		if it.SupplierID == supplierID && it.SupplierProductID == sku {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSupplierItemRepo) Search(supplierID, q string, limit int) ([]*entity.SupplierItem, error) {
	var out []*entity.SupplierItem
	for _, it := range r.items {
		if it.SupplierID == supplierID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSupplierItemRepo) Create(item *entity.SupplierItem) error {
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *fakeSupplierItemRepo) UpdateProductLink(id, productID string) error {
	if it, ok := r.items[id]; ok {
		it.ProductID = productID
	}
	return nil
}

type fakeSupplierRepo struct {
	suppliers map[string]*entity.Supplier
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{suppliers: map[string]*entity.Supplier{}}
}

func (r *fakeSupplierRepo) Create(s *entity.Supplier) error {
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

func (r *fakeSupplierRepo) GetByID(id string) (*entity.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSupplierRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	for _, s := range r.suppliers {
		if s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeLogRepo struct {
	entries []*entity.PurchaseLog
}

func newFakeLogRepo() *fakeLogRepo { return &fakeLogRepo{} }

func (r *fakeLogRepo) Append(e *entity.PurchaseLog) error {
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeLogRepo) ListByPurchase(purchaseID string, limit int) ([]*entity.PurchaseLog, error) {
	var out []*entity.PurchaseLog
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].PurchaseID == purchaseID {
			cp := *r.entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) LastStockApplication(purchaseID string) (*entity.PurchaseLog, error) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.PurchaseID != purchaseID {
			continue
		}
		if e.Action == entity.LogActionConfirmar || e.Action == entity.LogActionReenvioStock {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLogRepo) HasRollback(purchaseID, correlationID string) (bool, error) {
	for _, e := range r.entries {
		if e.PurchaseID != purchaseID || e.Action != entity.LogActionRevertir {
			continue
		}
		m, _ := e.DecodeMeta()
		if m.CorrelationID == correlationID {
			return true, nil
		}
	}
	return false, nil
}

type fakeTxRunner struct {
	purchases     *fakePurchaseRepo
	products      *fakeProductRepo
	supplierItems *fakeSupplierItemRepo
	logs          *fakeLogRepo
}

func (t *fakeTxRunner) Run(ctx context.Context, fn func(
	repository.PurchaseRepository,
	repository.ProductRepository,
	repository.SupplierItemRepository,
	repository.PurchaseLogRepository,
) error) error {
	return fn(t.purchases, t.products, t.supplierItems, t.logs)
}

// raceTxRunner ejecuta un hook justo antes de abrir la "transacción": simula
// otra operación sobre el mismo documento que commitea entre el chequeo de
// estado del caller y su tx.
type raceTxRunner struct {
	inner  *fakeTxRunner
	before func()
}

func (t *raceTxRunner) Run(ctx context.Context, fn func(
	repository.PurchaseRepository,
	repository.ProductRepository,
	repository.SupplierItemRepository,
	repository.PurchaseLogRepository,
) error) error {
	t.before()
	return t.inner.Run(ctx, fn)
}
