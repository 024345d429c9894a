package iaval_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matuteb/gestion-api/internal/application/iaval"
	"github.com/matuteb/gestion-api/internal/domain/entity"
)

func strPtr(s string) *string                   { return &s }
func i64Ptr(n int64) *int64                     { return &n }
func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func samplePurchase() (*entity.Purchase, []*entity.PurchaseLine) {
	p := &entity.Purchase{
		ID:           "c-1",
		CompanyID:    "emp-1",
		RemitoNumber: "0001-00004521",
		RemitoDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		VATRate:      decimal.NewFromInt(21),
		Status:       entity.StatusBorrador,
	}
	lines := []*entity.PurchaseLine{
		{ID: "l-0", PurchaseID: "c-1", Position: 0, Title: "Yerba 1kg", SupplierSKU: "YER-001",
			Qty: 10, UnitCost: decimal.NewFromInt(100)},
		{ID: "l-1", PurchaseID: "c-1", Position: 1, Title: "Azúcar 1kg", SupplierSKU: "AZU-004",
			Qty: 5, UnitCost: decimal.NewFromInt(50)},
	}
	return p, lines
}

// ──────────────────────────────────────────────────────────────────────────────

func TestComputeDiff_SoloCamposQueDifieren(t *testing.T) {
	p, lines := samplePurchase()
	prop := entity.IavalProposal{
		Header: entity.IavalHeaderPatch{
			RemitoNumber: strPtr("0001-00004522"),      // difiere
			VATRate:      decPtr(decimal.NewFromInt(21)), // igual: no entra
		},
		Lines: []entity.IavalLinePatch{
			{Qty: i64Ptr(12), Title: strPtr("Yerba 1kg")}, // qty difiere, title no
			{},
		},
	}

	d := iaval.ComputeDiff(p, lines, prop)

	require.Len(t, d.Header, 1)
	assert.Equal(t, "0001-00004521", d.Header["remito_number"].Current)
	assert.Equal(t, "0001-00004522", d.Header["remito_number"].Proposed)

	require.Len(t, d.Lines, 2)
	require.Len(t, d.Lines[0], 1)
	assert.Equal(t, int64(10), d.Lines[0]["qty"].Current)
	assert.Equal(t, int64(12), d.Lines[0]["qty"].Proposed)
	assert.Empty(t, d.Lines[1])
	assert.False(t, d.Empty())
}

func TestComputeDiff_PropuestaIdenticaEsVacia(t *testing.T) {
	p, lines := samplePurchase()
	prop := entity.IavalProposal{
		Header: entity.IavalHeaderPatch{
			RemitoNumber: strPtr(p.RemitoNumber),
			RemitoDate:   strPtr("2026-03-10"),
			VATRate:      decPtr(decimal.NewFromInt(21)),
		},
		Lines: []entity.IavalLinePatch{
			{Qty: i64Ptr(10), UnitCost: decPtr(decimal.NewFromInt(100))},
			{Title: strPtr("Azúcar 1kg")},
		},
	}

	d := iaval.ComputeDiff(p, lines, prop)

	assert.True(t, d.Empty(), "propuesta idéntica a lo cargado no debe producir diff")
}

func TestComputeDiff_DecimalEquivalente(t *testing.T) {
	// 21 y 21.00 son el mismo valor: la comparación es por Equal, no textual.
	p, lines := samplePurchase()
	prop := entity.IavalProposal{
		Header: entity.IavalHeaderPatch{VATRate: decPtr(decimal.RequireFromString("21.00"))},
	}

	d := iaval.ComputeDiff(p, lines, prop)

	assert.True(t, d.Empty())
}

func TestComputeDiff_RenglonesDeMasSeDescartan(t *testing.T) {
	p, lines := samplePurchase()
	prop := entity.IavalProposal{
		Lines: []entity.IavalLinePatch{{}, {}, {Qty: i64Ptr(99)}}, // tercer renglón no existe
	}

	d := iaval.ComputeDiff(p, lines, prop)

	assert.Len(t, d.Lines, 2)
	assert.True(t, d.Empty())
}
