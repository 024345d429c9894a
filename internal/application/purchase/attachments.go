package purchase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

// FileStore puerto de archivos para los adjuntos, visto desde este paquete.
// La referencia que devuelve Save es opaca.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// AttachmentUseCase adjuntos de una compra: el PDF del remito original.
type AttachmentUseCase struct {
	purchaseRepo   repository.PurchaseRepository
	attachmentRepo repository.AttachmentRepository
	files          FileStore
}

// NewAttachmentUseCase construye el caso de uso.
func NewAttachmentUseCase(
	purchaseRepo repository.PurchaseRepository,
	attachmentRepo repository.AttachmentRepository,
	files FileStore,
) *AttachmentUseCase {
	return &AttachmentUseCase{
		purchaseRepo:   purchaseRepo,
		attachmentRepo: attachmentRepo,
		files:          files,
	}
}

// Upload guarda el archivo en el file store y registra el adjunto. Se admite
// en cualquier estado: el documento original se archiva aunque la compra ya
// esté confirmada.
func (uc *AttachmentUseCase) Upload(ctx context.Context, companyID, purchaseID, fileName, mimeType string, size int64, r io.Reader) (*dto.AttachmentResponse, error) {
	p, err := uc.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	ref, err := uc.files.Save(ctx, fileName, r)
	if err != nil {
		return nil, fmt.Errorf("adjunto: guardar archivo: %w", err)
	}

	att := &entity.Attachment{
		ID:         uuid.New().String(),
		PurchaseID: purchaseID,
		FileName:   fileName,
		FileRef:    ref,
		MimeType:   mimeType,
		Size:       size,
		CreatedAt:  time.Now(),
	}
	if err := uc.attachmentRepo.Create(att); err != nil {
		return nil, err
	}
	return toAttachmentResponse(att), nil
}

// List devuelve los adjuntos de la compra, más reciente primero.
func (uc *AttachmentUseCase) List(ctx context.Context, companyID, purchaseID string) ([]*dto.AttachmentResponse, error) {
	p, err := uc.purchaseRepo.GetByID(purchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if p.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	atts, err := uc.attachmentRepo.ListByPurchase(purchaseID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.AttachmentResponse, 0, len(atts))
	for _, a := range atts {
		out = append(out, toAttachmentResponse(a))
	}
	return out, nil
}

func toAttachmentResponse(a *entity.Attachment) *dto.AttachmentResponse {
	return &dto.AttachmentResponse{
		ID:        a.ID,
		FileName:  a.FileName,
		MimeType:  a.MimeType,
		Size:      a.Size,
		URL:       "/api/files/" + a.FileRef,
		CreatedAt: a.CreatedAt,
	}
}
