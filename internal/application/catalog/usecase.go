package catalog

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
	"github.com/matuteb/gestion-api/pkg/normalize"
)

// MinQueryLen largo mínimo de búsqueda: debajo de esto se responde vacío sin
// tocar el repositorio (evita una consulta por tecla).
const MinQueryLen = 3

const searchLimit = 15

// UseCase operaciones de catálogo que consume el motor de compras: búsqueda
// de ítems del proveedor y alta de productos.
type UseCase struct {
	productRepo      repository.ProductRepository
	supplierItemRepo repository.SupplierItemRepository
	supplierRepo     repository.SupplierRepository
	purchaseRepo     repository.PurchaseRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	productRepo repository.ProductRepository,
	supplierItemRepo repository.SupplierItemRepository,
	supplierRepo repository.SupplierRepository,
	purchaseRepo repository.PurchaseRepository,
) *UseCase {
	return &UseCase{
		productRepo:      productRepo,
		supplierItemRepo: supplierItemRepo,
		supplierRepo:     supplierRepo,
		purchaseRepo:     purchaseRepo,
	}
}

// SearchSupplierItems busca candidatos en el catálogo del proveedor. Consultas
// de menos de MinQueryLen runas cortocircuitan con lista vacía.
func (uc *UseCase) SearchSupplierItems(ctx context.Context, companyID, supplierID, query string) ([]dto.SupplierItemDTO, error) {
	out := []dto.SupplierItemDTO{}
	if utf8.RuneCountInString(query) < MinQueryLen {
		return out, nil
	}
	supplier, err := uc.supplierRepo.GetByID(supplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil || supplier.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	items, err := uc.supplierItemRepo.Search(supplierID, normalize.Fold(query), searchLimit)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out = append(out, dto.SupplierItemDTO{
			ID:                it.ID,
			SupplierProductID: it.SupplierProductID,
			Title:             it.Title,
			ProductID:         it.ProductID,
		})
	}
	return out, nil
}

// CreateProduct alta directa de producto en el catálogo propio.
func (uc *UseCase) CreateProduct(ctx context.Context, companyID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if in.SKU == "" || in.Name == "" || in.InitialStock < 0 {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	p := &entity.Product{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		SKU:       in.SKU,
		Name:      in.Name,
		Stock:     in.InitialStock,
		Cost:      in.Cost,
		Price:     in.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.productRepo.Create(p); err != nil {
		return nil, err
	}
	return toProductResponse(p), nil
}

// CreateProductFromLine crea un producto a partir de un renglón sin vincular y
// deja el renglón vinculado. El stock inicial es siempre cero: la cantidad del
// renglón se aplica una sola vez, al confirmar la compra, nunca en el alta.
func (uc *UseCase) CreateProductFromLine(ctx context.Context, companyID string, in dto.CreateProductFromLineRequest) (*dto.ProductResponse, error) {
	p, err := uc.purchaseRepo.GetByID(in.PurchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if !p.Status.Editable() {
		return nil, domain.ErrStatusNotAllowed
	}
	lines, err := uc.purchaseRepo.GetLines(in.PurchaseID)
	if err != nil {
		return nil, err
	}
	if in.PurchaseLineIndex < 0 || in.PurchaseLineIndex >= len(lines) {
		return nil, domain.ErrInvalidInput
	}
	line := lines[in.PurchaseLineIndex]

	name := in.Name
	if name == "" {
		name = line.Title
	}
	sku := in.SKU
	if sku == "" {
		sku = line.SupplierSKU
	}
	if name == "" || sku == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		SKU:       sku,
		Name:      name,
		Stock:     0, // la cantidad entra recién al confirmar
		Cost:      line.UnitCost,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}

	// Alta del ítem en el catálogo del proveedor si el renglón trae SKU,
	// para que la próxima compra auto-vincule.
	if line.SupplierSKU != "" {
		item := &entity.SupplierItem{
			ID:                uuid.New().String(),
			SupplierID:        p.SupplierID,
			SupplierProductID: line.SupplierSKU,
			Title:             name,
			ProductID:         product.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := uc.supplierItemRepo.Create(item); err != nil {
			return nil, err
		}
		line.SupplierItemID = item.ID
	}

	line.ProductID = product.ID
	if err := uc.purchaseRepo.UpdateLineLinks(line); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetProduct devuelve un producto del catálogo.
func (uc *UseCase) GetProduct(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	p, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toProductResponse(p), nil
}

// ListProducts lista productos de la empresa.
func (uc *UseCase) ListProducts(ctx context.Context, companyID string, limit, offset int) ([]*dto.ProductResponse, error) {
	products, err := uc.productRepo.ListByCompany(companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

// ListSuppliers lista proveedores de la empresa.
func (uc *UseCase) ListSuppliers(ctx context.Context, companyID string, limit, offset int) ([]*entity.Supplier, error) {
	return uc.supplierRepo.ListByCompany(companyID, limit, offset)
}

// GetSupplier devuelve un proveedor.
func (uc *UseCase) GetSupplier(ctx context.Context, companyID, id string) (*entity.Supplier, error) {
	s, err := uc.supplierRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if s == nil || s.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Stock:     p.Stock,
		Cost:      p.Cost,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
	}
}
