package iaval_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/application/iaval"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type memPurchases struct {
	byID  map[string]*entity.Purchase
	lines map[string][]*entity.PurchaseLine
}

func (m *memPurchases) Create(p *entity.Purchase) error             { m.byID[p.ID] = p; return nil }
func (m *memPurchases) GetByID(id string) (*entity.Purchase, error) { return m.byID[id], nil }
func (m *memPurchases) Update(p *entity.Purchase) error             { m.byID[p.ID] = p; return nil }
func (m *memPurchases) UpdateStatus(id string, s entity.PurchaseStatus) error {
	m.byID[id].Status = s
	return nil
}
func (m *memPurchases) TransitionStatus(id string, from, to entity.PurchaseStatus) error {
	p, ok := m.byID[id]
	if !ok || p.Status != from {
		return domain.ErrStatusNotAllowed
	}
	p.Status = to
	return nil
}
func (m *memPurchases) UpdateMeta(id string, meta []byte) error { return nil }
func (m *memPurchases) ListByCompany(string, int, int) ([]*entity.Purchase, error) {
	return nil, nil
}
func (m *memPurchases) Delete(id string) error { delete(m.byID, id); return nil }
func (m *memPurchases) GetLines(id string) ([]*entity.PurchaseLine, error) {
	return m.lines[id], nil
}
func (m *memPurchases) ReplaceLines(id string, lines []*entity.PurchaseLine) error {
	m.lines[id] = lines
	return nil
}
func (m *memPurchases) UpdateLineLinks(line *entity.PurchaseLine) error { return nil }

type memAttachments struct{ byPurchase map[string][]*entity.Attachment }

func (m *memAttachments) Create(a *entity.Attachment) error {
	m.byPurchase[a.PurchaseID] = append(m.byPurchase[a.PurchaseID], a)
	return nil
}
func (m *memAttachments) ListByPurchase(id string) ([]*entity.Attachment, error) {
	return m.byPurchase[id], nil
}
func (m *memAttachments) Latest(id string) (*entity.Attachment, error) {
	atts := m.byPurchase[id]
	if len(atts) == 0 {
		return nil, nil
	}
	return atts[len(atts)-1], nil
}

type memLogs struct{ entries []*entity.PurchaseLog }

func (m *memLogs) Append(e *entity.PurchaseLog) error { m.entries = append(m.entries, e); return nil }
func (m *memLogs) ListByPurchase(id string, limit int) ([]*entity.PurchaseLog, error) {
	return m.entries, nil
}
func (m *memLogs) LastStockApplication(id string) (*entity.PurchaseLog, error) { return nil, nil }
func (m *memLogs) HasRollback(id, correlationID string) (bool, error)          { return false, nil }

type fakeExtractor struct {
	proposal *entity.IavalProposal
	err      error
	gotDoc   iaval.RemitoDocument
	gotSnap  iaval.PurchaseSnapshot
}

func (f *fakeExtractor) ExtractProposal(ctx context.Context, doc iaval.RemitoDocument, cur iaval.PurchaseSnapshot) (*entity.IavalProposal, error) {
	f.gotDoc = doc
	f.gotSnap = cur
	return f.proposal, f.err
}

type memFiles struct{ blobs map[string][]byte }

func (m *memFiles) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.blobs[name] = data
	return name, nil
}
func (m *memFiles) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	data, ok := m.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("no existe %s", ref)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fixture struct {
	uc        *iaval.UseCase
	purchases *memPurchases
	atts      *memAttachments
	logs      *memLogs
	extractor *fakeExtractor
	files     *memFiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		purchases: &memPurchases{byID: map[string]*entity.Purchase{}, lines: map[string][]*entity.PurchaseLine{}},
		atts:      &memAttachments{byPurchase: map[string][]*entity.Attachment{}},
		logs:      &memLogs{},
		extractor: &fakeExtractor{},
		files:     &memFiles{blobs: map[string][]byte{}},
	}
	f.uc = iaval.NewUseCase(f.purchases, f.atts, f.logs, f.extractor, f.files)

	p, lines := samplePurchase()
	f.purchases.byID[p.ID] = p
	f.purchases.lines[p.ID] = lines
	return f
}

func (f *fixture) attachPDF(t *testing.T, purchaseID string) {
	t.Helper()
	f.files.blobs["remito.pdf"] = []byte("%PDF-1.4 remito")
	require.NoError(t, f.atts.Create(&entity.Attachment{
		ID: "a-1", PurchaseID: purchaseID, FileName: "remito.pdf",
		FileRef: "remito.pdf", MimeType: "application/pdf",
	}))
}

// ──────────────────────────────────────────────────────────────────────────────

func TestPreview_SinAdjunto(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Preview(context.Background(), "emp-1", "c-1")

	assert.ErrorIs(t, err, domain.ErrNoAttachment)
}

func TestPreview_DevuelveDiffYPropuesta(t *testing.T) {
	f := newFixture(t)
	f.attachPDF(t, "c-1")
	f.extractor.proposal = &entity.IavalProposal{
		Header:     entity.IavalHeaderPatch{RemitoNumber: strPtr("0001-00004522")},
		Lines:      []entity.IavalLinePatch{{Qty: i64Ptr(12)}},
		Confidence: 0.91,
		Comments:   []string{"cantidad del renglón 1 difiere del remito"},
	}

	out, err := f.uc.Preview(context.Background(), "emp-1", "c-1")

	require.NoError(t, err)
	assert.False(t, out.NoChanges)
	assert.Equal(t, 0.91, out.Confidence)
	assert.Contains(t, out.Diff.Header, "remito_number")
	assert.Equal(t, int64(12), out.Diff.Lines[0]["qty"].Proposed)

	// El extractor recibe el documento y el estado actual alineado.
	assert.Equal(t, "application/pdf", f.extractor.gotDoc.MimeType)
	assert.Equal(t, "0001-00004521", f.extractor.gotSnap.RemitoNumber)
	require.Len(t, f.extractor.gotSnap.Lines, 2)
	assert.Equal(t, "YER-001", f.extractor.gotSnap.Lines[0].SupplierSKU)

	// Preview nunca escribe.
	assert.Equal(t, "0001-00004521", f.purchases.byID["c-1"].RemitoNumber)
	assert.Empty(t, f.logs.entries)
}

func TestPreview_SinCambios(t *testing.T) {
	f := newFixture(t)
	f.attachPDF(t, "c-1")
	f.extractor.proposal = &entity.IavalProposal{
		Header:     entity.IavalHeaderPatch{RemitoNumber: strPtr("0001-00004521")},
		Confidence: 0.98,
	}

	out, err := f.uc.Preview(context.Background(), "emp-1", "c-1")

	require.NoError(t, err)
	assert.True(t, out.NoChanges)
	assert.True(t, out.Diff.Empty())
}

func TestApply_EscribeSoloCamposPropuestos(t *testing.T) {
	f := newFixture(t)
	prop := entity.IavalProposal{
		Header: entity.IavalHeaderPatch{
			RemitoNumber: strPtr("0001-00004522"),
			RemitoDate:   strPtr("2026-03-11"),
		},
		Lines: []entity.IavalLinePatch{
			{Qty: i64Ptr(12), UnitCost: decPtr(decimal.RequireFromString("105.50"))},
		},
	}

	out, err := f.uc.Apply(context.Background(), "emp-1", "u-1", "c-1", dto.IavalApplyRequest{Proposal: prop})

	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Nil(t, out.Log)

	p := f.purchases.byID["c-1"]
	assert.Equal(t, "0001-00004522", p.RemitoNumber)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), p.RemitoDate)
	assert.True(t, p.VATRate.Equal(decimal.NewFromInt(21)), "vat_rate sin propuesta queda intacto")

	lines := f.purchases.lines["c-1"]
	assert.Equal(t, int64(12), lines[0].Qty)
	assert.True(t, lines[0].UnitCost.Equal(decimal.RequireFromString("105.50")))
	assert.Equal(t, "Yerba 1kg", lines[0].Title)
	assert.Equal(t, int64(5), lines[1].Qty, "renglón sin parche queda intacto")
}

func TestApply_PropuestaSinCambiosNoEscribe(t *testing.T) {
	f := newFixture(t)
	before := *f.purchases.byID["c-1"]
	prop := entity.IavalProposal{
		Header: entity.IavalHeaderPatch{RemitoNumber: strPtr("0001-00004521")},
	}

	out, err := f.uc.Apply(context.Background(), "emp-1", "u-1", "c-1", dto.IavalApplyRequest{
		Proposal: prop, EmitLog: true,
	})

	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Nil(t, out.Log)
	assert.Equal(t, before.UpdatedAt, f.purchases.byID["c-1"].UpdatedAt)
	assert.Empty(t, f.logs.entries, "sin cambios no hay asiento ni artefactos")
	assert.Empty(t, f.files.blobs)
}

func TestApply_SoloEnBorrador(t *testing.T) {
	f := newFixture(t)
	f.purchases.byID["c-1"].Status = entity.StatusConfirmada

	_, err := f.uc.Apply(context.Background(), "emp-1", "u-1", "c-1", dto.IavalApplyRequest{
		Proposal: entity.IavalProposal{Header: entity.IavalHeaderPatch{Note: strPtr("x")}},
	})

	assert.ErrorIs(t, err, domain.ErrStatusNotAllowed)
}

func TestApply_FechaInvalida(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Apply(context.Background(), "emp-1", "u-1", "c-1", dto.IavalApplyRequest{
		Proposal: entity.IavalProposal{Header: entity.IavalHeaderPatch{RemitoDate: strPtr("11/03/2026")}},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_EmitLogGeneraArtefactosYAsiento(t *testing.T) {
	f := newFixture(t)
	prop := entity.IavalProposal{
		Header:     entity.IavalHeaderPatch{RemitoNumber: strPtr("0001-00004522")},
		Lines:      []entity.IavalLinePatch{{Qty: i64Ptr(12)}},
		Confidence: 0.91,
	}

	out, err := f.uc.Apply(context.Background(), "emp-1", "u-1", "c-1", dto.IavalApplyRequest{
		Proposal: prop, EmitLog: true,
	})

	require.NoError(t, err)
	require.NotNil(t, out.Log)
	assert.True(t, strings.HasPrefix(out.Log.Filename, "iaval_c-1_"))

	// Dos artefactos equivalentes: JSON y CSV plano.
	var jsonName, csvName string
	for name := range f.files.blobs {
		switch {
		case strings.HasSuffix(name, ".json"):
			jsonName = name
		case strings.HasSuffix(name, ".csv"):
			csvName = name
		}
	}
	require.NotEmpty(t, jsonName)
	require.NotEmpty(t, csvName)

	var rec struct {
		PurchaseID string  `json:"purchase_id"`
		Confidence float64 `json:"confidence"`
		Changes    []struct {
			Scope    string `json:"scope"`
			Field    string `json:"field"`
			Proposed string `json:"proposed"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(f.files.blobs[jsonName], &rec))
	assert.Equal(t, "c-1", rec.PurchaseID)
	assert.Equal(t, 0.91, rec.Confidence)
	require.Len(t, rec.Changes, 2)
	assert.Equal(t, "header", rec.Changes[0].Scope)
	assert.Equal(t, "remito_number", rec.Changes[0].Field)
	assert.Equal(t, "0001-00004522", rec.Changes[0].Proposed)

	csvText := string(f.files.blobs[csvName])
	assert.Contains(t, csvText, "scope,line_index,field,current,proposed")
	assert.Contains(t, csvText, "line,0,qty,10,12")

	// El asiento referencia los artefactos.
	require.Len(t, f.logs.entries, 1)
	e := f.logs.entries[0]
	assert.Equal(t, entity.LogActionIavalAplicar, e.Action)
	meta, err := e.DecodeMeta()
	require.NoError(t, err)
	assert.NotEmpty(t, meta.CorrelationID)
	assert.Equal(t, jsonName, meta.Extra["artifact_json"])
	assert.Equal(t, csvName, meta.Extra["artifact_csv"])
}

func TestApply_OtraEmpresa(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Apply(context.Background(), "emp-2", "u-1", "c-1", dto.IavalApplyRequest{
		Proposal: entity.IavalProposal{Header: entity.IavalHeaderPatch{Note: strPtr("x")}},
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}
