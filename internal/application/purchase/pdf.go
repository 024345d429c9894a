package purchase

import (
	"context"
	"fmt"

	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	domainpurchase "github.com/matuteb/gestion-api/internal/domain/purchase"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

// PurchasePDFGenerator puerto del generador de la representación imprimible.
type PurchasePDFGenerator interface {
	GeneratePurchasePDF(ctx context.Context, p *entity.Purchase, supplier *entity.Supplier,
		lines []*entity.PurchaseLine, totals domainpurchase.Totals) ([]byte, error)
}

// PDFUseCase genera la representación imprimible (PDF) de una compra.
type PDFUseCase struct {
	purchaseRepo repository.PurchaseRepository
	supplierRepo repository.SupplierRepository
	generator    PurchasePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(
	purchaseRepo repository.PurchaseRepository,
	supplierRepo repository.SupplierRepository,
	generator PurchasePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		purchaseRepo: purchaseRepo,
		supplierRepo: supplierRepo,
		generator:    generator,
	}
}

// DownloadPurchasePDF carga la compra completa y genera el PDF. Los totales
// salen de Calculate, igual que en la API: el PDF nunca muestra otra cifra.
func (uc *PDFUseCase) DownloadPurchasePDF(ctx context.Context, companyID, id string) (pdfBytes []byte, filename string, err error) {
	p, err := uc.purchaseRepo.GetByID(id)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener compra: %w", err)
	}
	if p == nil {
		return nil, "", domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}

	supplier, err := uc.supplierRepo.GetByID(p.SupplierID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener proveedor: %w", err)
	}
	if supplier == nil {
		supplier = &entity.Supplier{ID: p.SupplierID, Name: "Proveedor " + p.SupplierID}
	}

	lines, err := uc.purchaseRepo.GetLines(id)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener renglones: %w", err)
	}
	totals := domainpurchase.Calculate(lines, p.VATRate)

	pdfBytes, err = uc.generator.GeneratePurchasePDF(ctx, p, supplier, lines, totals)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	name := p.RemitoNumber
	if name == "" {
		name = p.ID
	}
	return pdfBytes, fmt.Sprintf("compra_%s.pdf", name), nil
}
