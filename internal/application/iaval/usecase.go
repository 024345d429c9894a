package iaval

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

// extractTimeout tope de la extracción: un remito escaneado puede tardar
// bastante más que una llamada de texto corta.
const extractTimeout = 60 * time.Second

// maxDocumentSize tope de lectura del adjunto (20 MB, el límite que acepta
// la API de documentos del modelo).
const maxDocumentSize = 20 << 20

// UseCase validador iAVaL: compara el remito adjunto contra lo cargado,
// propone correcciones y las aplica con confirmación del operador.
type UseCase struct {
	purchaseRepo   repository.PurchaseRepository
	attachmentRepo repository.AttachmentRepository
	logRepo        repository.PurchaseLogRepository
	extractor      RemitoExtractor
	files          FileStore
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	purchaseRepo repository.PurchaseRepository,
	attachmentRepo repository.AttachmentRepository,
	logRepo repository.PurchaseLogRepository,
	extractor RemitoExtractor,
	files FileStore,
) *UseCase {
	return &UseCase{
		purchaseRepo:   purchaseRepo,
		attachmentRepo: attachmentRepo,
		logRepo:        logRepo,
		extractor:      extractor,
		files:          files,
	}
}

// Preview corre el validador sobre el adjunto más reciente de la compra y
// devuelve la propuesta junto con el diff campo a campo. No modifica nada.
func (uc *UseCase) Preview(ctx context.Context, companyID, id string) (*dto.IavalPreviewResponse, error) {
	p, lines, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}

	att, err := uc.attachmentRepo.Latest(id)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, domain.ErrNoAttachment
	}

	doc, err := uc.readAttachment(ctx, att)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	proposal, err := uc.extractor.ExtractProposal(ctx, doc, snapshot(p, lines))
	if err != nil {
		return nil, fmt.Errorf("iaval: extraer propuesta: %w", err)
	}

	diff := ComputeDiff(p, lines, *proposal)
	return &dto.IavalPreviewResponse{
		Confidence: proposal.Confidence,
		Comments:   proposal.Comments,
		Diff:       diff,
		Proposal:   *proposal,
		NoChanges:  diff.Empty(),
	}, nil
}

// Apply escribe en la compra los campos que la propuesta confirma. Solo en
// borrador: una vez aplicado el stock el documento queda cerrado a ediciones.
// Con emit_log genera los artefactos de auditoría (JSON + CSV) y asienta la
// acción en la bitácora.
func (uc *UseCase) Apply(ctx context.Context, companyID, userID, id string, in dto.IavalApplyRequest) (*dto.IavalApplyResponse, error) {
	p, lines, err := uc.load(companyID, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.Editable() {
		return nil, domain.ErrStatusNotAllowed
	}

	// El diff se calcula ANTES de escribir: es el registro de qué cambió.
	diff := ComputeDiff(p, lines, in.Proposal)
	if diff.Empty() {
		return &dto.IavalApplyResponse{Applied: false}, nil
	}

	if err := applyHeader(p, in.Proposal.Header); err != nil {
		return nil, err
	}
	applyLines(lines, in.Proposal.Lines)

	p.UpdatedAt = time.Now()
	if err := uc.purchaseRepo.Update(p); err != nil {
		return nil, err
	}
	if err := uc.purchaseRepo.ReplaceLines(id, lines); err != nil {
		return nil, err
	}

	resp := &dto.IavalApplyResponse{Applied: true}
	if in.EmitLog {
		artifact, err := uc.emitLog(ctx, p, userID, diff, in.Proposal)
		if err != nil {
			// La compra ya quedó corregida; el artefacto es secundario.
			log.Error().Err(err).Str("purchase_id", id).Msg("iAVaL: no se pudo generar el artefacto")
		} else {
			resp.Log = artifact
		}
	}
	return resp, nil
}

func (uc *UseCase) emitLog(ctx context.Context, p *entity.Purchase, userID string, diff dto.IavalDiff, prop entity.IavalProposal) (*dto.IavalArtifact, error) {
	now := time.Now()
	jsonData, csvData, err := buildArtifacts(p.ID, userID, diff, prop.Confidence, prop.Comments, now)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("iaval_%s_%s", p.ID, now.Format("20060102T150405"))
	refJSON, err := uc.files.Save(ctx, base+".json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("iaval: guardar artefacto JSON: %w", err)
	}
	refCSV, err := uc.files.Save(ctx, base+".csv", bytes.NewReader(csvData))
	if err != nil {
		return nil, fmt.Errorf("iaval: guardar artefacto CSV: %w", err)
	}

	correlationID := uuid.New().String()
	err = uc.logRepo.Append(&entity.PurchaseLog{
		ID:         uuid.New().String(),
		PurchaseID: p.ID,
		Action:     entity.LogActionIavalAplicar,
		Meta: entity.EncodeLogMeta(entity.LogMeta{
			CorrelationID: correlationID,
			Extra: map[string]any{
				"artifact_json": refJSON,
				"artifact_csv":  refCSV,
				"confidence":    prop.Confidence,
			},
		}),
		CreatedAt: now,
		CreatedBy: userID,
	})
	if err != nil {
		return nil, err
	}

	return &dto.IavalArtifact{
		Filename: base + ".json",
		URLJSON:  "/api/files/" + refJSON,
		URLCSV:   "/api/files/" + refCSV,
	}, nil
}

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

func (uc *UseCase) readAttachment(ctx context.Context, att *entity.Attachment) (RemitoDocument, error) {
	rc, err := uc.files.Open(ctx, att.FileRef)
	if err != nil {
		return RemitoDocument{}, fmt.Errorf("iaval: abrir adjunto %s: %w", att.FileName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDocumentSize))
	if err != nil {
		return RemitoDocument{}, fmt.Errorf("iaval: leer adjunto %s: %w", att.FileName, err)
	}
	mime := att.MimeType
	if mime == "" {
		mime = "application/pdf"
	}
	return RemitoDocument{Data: data, MimeType: mime}, nil
}

func snapshot(p *entity.Purchase, lines []*entity.PurchaseLine) PurchaseSnapshot {
	s := PurchaseSnapshot{
		RemitoNumber: p.RemitoNumber,
		RemitoDate:   formatDate(p.RemitoDate),
		VATRate:      p.VATRate,
		Note:         p.Note,
		Lines:        make([]LineSnapshot, len(lines)),
	}
	for i, l := range lines {
		s.Lines[i] = LineSnapshot{
			Title:        l.Title,
			SupplierSKU:  l.SupplierSKU,
			Qty:          l.Qty,
			UnitCost:     l.UnitCost,
			LineDiscount: l.LineDiscount,
		}
	}
	return s
}

func applyHeader(p *entity.Purchase, h entity.IavalHeaderPatch) error {
	if h.RemitoNumber != nil {
		p.RemitoNumber = *h.RemitoNumber
	}
	if h.RemitoDate != nil {
		t, err := time.Parse(DateLayout, *h.RemitoDate)
		if err != nil {
			return fmt.Errorf("%w: remito_date %q", domain.ErrInvalidInput, *h.RemitoDate)
		}
		p.RemitoDate = t
	}
	if h.VATRate != nil {
		p.VATRate = *h.VATRate
	}
	if h.Note != nil {
		p.Note = *h.Note
	}
	return nil
}

// applyLines escribe los parches sobre los renglones existentes. Propuestas
// más allá del último renglón se ignoran: iAVaL corrige, no agrega.
func applyLines(lines []*entity.PurchaseLine, patches []entity.IavalLinePatch) {
	for i, patch := range patches {
		if i >= len(lines) || patch.Empty() {
			continue
		}
		l := lines[i]
		if patch.Title != nil {
			l.Title = *patch.Title
		}
		if patch.SupplierSKU != nil {
			l.SupplierSKU = *patch.SupplierSKU
		}
		if patch.Qty != nil {
			l.Qty = *patch.Qty
		}
		if patch.UnitCost != nil {
			l.UnitCost = *patch.UnitCost
		}
		if patch.LineDiscount != nil {
			l.LineDiscount = *patch.LineDiscount
		}
	}
}
