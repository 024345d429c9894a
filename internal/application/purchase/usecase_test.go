package purchase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apppurchase "github.com/matuteb/gestion-api/internal/application/purchase"
	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
)

const (
	testCompanyID  = "00000000-0000-0000-0000-00000000000a"
	testUserID     = "00000000-0000-0000-0000-00000000000b"
	testSupplierID = "00000000-0000-0000-0000-00000000000c"
)

// env agrupa el caso de uso con sus fakes para inspección directa.
type env struct {
	uc            *apppurchase.UseCase
	purchases     *fakePurchaseRepo
	products      *fakeProductRepo
	supplierItems *fakeSupplierItemRepo
	suppliers     *fakeSupplierRepo
	logs          *fakeLogRepo
}

func newEnv() *env {
	e := &env{
		purchases:     newFakePurchaseRepo(),
		products:      newFakeProductRepo(),
		supplierItems: newFakeSupplierItemRepo(),
		suppliers:     newFakeSupplierRepo(),
		logs:          newFakeLogRepo(),
	}
	_ = e.suppliers.Create(&entity.Supplier{ID: testSupplierID, CompanyID: testCompanyID, Name: "Distribuidora Norte"})
	tx := &fakeTxRunner{
		purchases:     e.purchases,
		products:      e.products,
		supplierItems: e.supplierItems,
		logs:          e.logs,
	}
	e.uc = apppurchase.NewUseCase(tx, e.purchases, e.products, e.supplierItems, e.suppliers, e.logs)
	return e
}

// seedPurchase crea una compra en el estado indicado con los renglones dados.
func (e *env) seedPurchase(t *testing.T, status entity.PurchaseStatus, lines ...*entity.PurchaseLine) string {
	t.Helper()
	id := "compra-" + time.Now().Format("150405.000000") + status.String()
	require.NoError(t, e.purchases.Create(&entity.Purchase{
		ID:           id,
		CompanyID:    testCompanyID,
		SupplierID:   testSupplierID,
		RemitoNumber: "R-0001-00001234",
		RemitoDate:   time.Now(),
		VATRate:      decimal.NewFromInt(21),
		Status:       status,
	}))
	for i, l := range lines {
		l.Position = i
		if l.ID == "" {
			l.ID = id + "-l" + string(rune('a'+i))
		}
	}
	require.NoError(t, e.purchases.ReplaceLines(id, lines))
	return id
}

func (e *env) seedProduct(t *testing.T, id, name string, stock int64) {
	t.Helper()
	require.NoError(t, e.products.Create(&entity.Product{
		ID: id, CompanyID: testCompanyID, SKU: "INT-" + id, Name: name, Stock: stock,
	}))
}

func lineaVinculada(productID string, qty int64, cost float64) *entity.PurchaseLine {
	return &entity.PurchaseLine{
		Title:     "Producto " + productID,
		Qty:       qty,
		UnitCost:  decimal.NewFromFloat(cost),
		ProductID: productID,
	}
}

func lineaSuelta(sku string, qty int64, cost float64) *entity.PurchaseLine {
	return &entity.PurchaseLine{
		Title:       "Sin vincular " + sku,
		SupplierSKU: sku,
		Qty:         qty,
		UnitCost:    decimal.NewFromFloat(cost),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Validate: auto-vinculación por SKU exacto
// ──────────────────────────────────────────────────────────────────────────────

func TestValidate_AutoVinculaPorSKUExacto(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 0)
	require.NoError(t, e.supplierItems.Create(&entity.SupplierItem{
		ID: "si-1", SupplierID: testSupplierID, SupplierProductID: "YER-001",
		Title: "Yerba Canarias 1kg", ProductID: "prod-1",
	}))
	id := e.seedPurchase(t, entity.StatusBorrador,
		lineaSuelta("YER-001", 10, 100),
		lineaSuelta("NO-EXISTE", 2, 50),
	)

	out, err := e.uc.Validate(context.Background(), testCompanyID, testUserID, id)

	require.NoError(t, err)
	assert.Equal(t, 1, out.Linked)
	assert.Equal(t, 1, out.Unmatched)
	assert.Equal(t, []string{"NO-EXISTE"}, out.MissingSKUs)

	lines, _ := e.purchases.GetLines(id)
	assert.Equal(t, entity.LineStateOK, lines[0].State(), "el renglón con SKU exacto queda vinculado sin selección manual")
	assert.Equal(t, "prod-1", lines[0].ProductID)
	assert.Equal(t, "si-1", lines[0].SupplierItemID)
	assert.Equal(t, entity.LineStateSinVincular, lines[1].State())
}

func TestValidate_SoloEnBorrador(t *testing.T) {
	e := newEnv()
	id := e.seedPurchase(t, entity.StatusConfirmada, lineaVinculada("prod-1", 1, 10))

	_, err := e.uc.Validate(context.Background(), testCompanyID, testUserID, id)

	assert.ErrorIs(t, err, domain.ErrStatusNotAllowed)
}

// ──────────────────────────────────────────────────────────────────────────────
// Confirm: aplicación de stock
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirm_AplicaDeltasYCambiaEstado(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 5)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 10, 100))

	out, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)

	require.NoError(t, err)
	require.Len(t, out.AppliedDeltas, 1)
	d := out.AppliedDeltas[0]
	assert.Equal(t, "prod-1", d.ProductID)
	assert.Equal(t, int64(10), d.Delta)
	assert.Equal(t, int64(5), d.Old)
	assert.Equal(t, int64(15), d.New)
	assert.NotEmpty(t, out.CorrelationID)
	assert.True(t, out.CanRollback)
	assert.False(t, out.Totals.Mismatch)

	p, _ := e.purchases.GetByID(id)
	assert.Equal(t, entity.StatusConfirmada, p.Status)
	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(15), prod.Stock)

	last, _ := e.logs.LastStockApplication(id)
	require.NotNil(t, last)
	meta, _ := last.DecodeMeta()
	assert.Equal(t, out.CorrelationID, meta.CorrelationID)
	assert.Len(t, meta.AppliedDeltas, 1)
}

func TestConfirm_RenglonSueltoNoBloquea(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 0)
	id := e.seedPurchase(t, entity.StatusBorrador,
		lineaVinculada("prod-1", 10, 100),
		lineaSuelta("AZU-002", 4, 50),
	)

	out, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)

	require.NoError(t, err)
	assert.Len(t, out.AppliedDeltas, 1, "solo el renglón resuelto aporta delta")
	require.Len(t, out.UnresolvedLines, 1)
	assert.Equal(t, 1, out.UnresolvedLines[0].Position)
	assert.Equal(t, "AZU-002", out.UnresolvedLines[0].SupplierSKU)
	assert.True(t, out.Totals.Mismatch, "el total aplicado difiere del total del remito")
	assert.True(t, out.Totals.AppliedTotal.LessThan(out.Totals.PurchaseTotal))
	assert.True(t, out.CanRollback)
}

func TestConfirm_ResuelveProductoViaSupplierItem(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-9", "Azúcar 1kg", 2)
	require.NoError(t, e.supplierItems.Create(&entity.SupplierItem{
		ID: "si-9", SupplierID: testSupplierID, SupplierProductID: "AZU-001", ProductID: "prod-9",
	}))
	l := lineaSuelta("AZU-001", 3, 80)
	l.SupplierItemID = "si-9" // vinculado al ítem del proveedor, sin product_id directo
	id := e.seedPurchase(t, entity.StatusBorrador, l)

	out, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)

	require.NoError(t, err)
	require.Len(t, out.AppliedDeltas, 1)
	assert.Equal(t, "prod-9", out.AppliedDeltas[0].ProductID)
	prod, _ := e.products.GetByID("prod-9")
	assert.Equal(t, int64(5), prod.Stock)
}

func TestConfirm_ItemSinProductoNoEntraEnTotalAplicado(t *testing.T) {
	// Un renglón vinculado a un ítem de proveedor que no apunta a ningún
	// producto no genera delta: tampoco puede contar en el total aplicado,
	// si no el aviso de diferencia nunca saltaría.
	e := newEnv()
	require.NoError(t, e.supplierItems.Create(&entity.SupplierItem{
		ID: "si-huerfano", SupplierID: testSupplierID, SupplierProductID: "HUE-001",
	}))
	l := lineaSuelta("HUE-001", 5, 100)
	l.SupplierItemID = "si-huerfano"
	id := e.seedPurchase(t, entity.StatusBorrador, l)

	out, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)

	require.NoError(t, err)
	assert.Empty(t, out.AppliedDeltas)
	require.Len(t, out.UnresolvedLines, 1)
	assert.True(t, out.Totals.AppliedTotal.IsZero(), "aplicado: %s", out.Totals.AppliedTotal)
	assert.True(t, out.Totals.Mismatch, "sin deltas el total aplicado difiere del total del remito")
	assert.False(t, out.CanRollback)
}

func TestConfirm_CarreraDeConfirmacionesNoDuplicaStock(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 5)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 10, 100))

	// La confirmación rival commitea después de que esta ya verificó el
	// estado en borrador pero antes de su transacción.
	raced := false
	runner := &raceTxRunner{
		inner: &fakeTxRunner{
			purchases:     e.purchases,
			products:      e.products,
			supplierItems: e.supplierItems,
			logs:          e.logs,
		},
		before: func() {
			if raced {
				return
			}
			raced = true
			_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)
			require.NoError(t, err)
		},
	}
	perdedor := apppurchase.NewUseCase(runner, e.purchases, e.products, e.supplierItems, e.suppliers, e.logs)

	_, err := perdedor.Confirm(context.Background(), testCompanyID, testUserID, id)

	require.ErrorIs(t, err, domain.ErrStatusNotAllowed)
	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(15), prod.Stock, "el stock se aplica una sola vez")

	confirmaciones := 0
	for _, entry := range e.logs.entries {
		if entry.PurchaseID == id && entry.Action == entity.LogActionConfirmar {
			confirmaciones++
		}
	}
	assert.Equal(t, 1, confirmaciones)
}

func TestConfirm_GuardSinRenglones(t *testing.T) {
	e := newEnv()
	id := e.seedPurchase(t, entity.StatusBorrador)

	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)

	assert.ErrorIs(t, err, domain.ErrEmptyPurchase)
	p, _ := e.purchases.GetByID(id)
	assert.Equal(t, entity.StatusBorrador, p.Status, "sin efectos colaterales")
	assert.Empty(t, e.logs.entries)
}

func TestConfirm_GuardTotalCero(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Muestra gratis", 7)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 3, 0))

	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)

	assert.ErrorIs(t, err, domain.ErrZeroTotal)
	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(7), prod.Stock, "ningún delta aplicado")
	p, _ := e.purchases.GetByID(id)
	assert.Equal(t, entity.StatusBorrador, p.Status)
}

func TestConfirm_GuardEstado(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba", 0)
	id := e.seedPurchase(t, entity.StatusConfirmada, lineaVinculada("prod-1", 1, 10))

	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)

	assert.ErrorIs(t, err, domain.ErrStatusNotAllowed)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rollback: inverso exacto, una sola vez por episodio
// ──────────────────────────────────────────────────────────────────────────────

func TestRollback_InversoExacto(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 5)
	e.seedProduct(t, "prod-2", "Azúcar 1kg", 20)
	id := e.seedPurchase(t, entity.StatusBorrador,
		lineaVinculada("prod-1", 10, 100),
		lineaVinculada("prod-2", 3, 40),
	)
	confirmed, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)

	out, err := e.uc.Rollback(context.Background(), testCompanyID, testUserID, id)

	require.NoError(t, err)
	require.Len(t, out.Reverted, 2)
	assert.Equal(t, confirmed.CorrelationID, out.CorrelationID, "la reversión se acota al episodio confirmado")
	for i, inv := range out.Reverted {
		d := confirmed.AppliedDeltas[i]
		assert.Equal(t, d.ProductID, inv.ProductID)
		assert.Zero(t, d.Delta+inv.Delta, "delta + inverso = 0")
		assert.Equal(t, d.Old, inv.New, "el stock vuelve a su valor previo")
	}
	prod1, _ := e.products.GetByID("prod-1")
	prod2, _ := e.products.GetByID("prod-2")
	assert.Equal(t, int64(5), prod1.Stock)
	assert.Equal(t, int64(20), prod2.Stock)

	// El estado del documento no cambia por la reversión.
	p, _ := e.purchases.GetByID(id)
	assert.Equal(t, entity.StatusConfirmada, p.Status)
}

func TestRollback_NoRevierteDosVeces(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 5)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 10, 100))
	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)

	_, err = e.uc.Rollback(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)

	_, err = e.uc.Rollback(context.Background(), testCompanyID, testUserID, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyReverted)

	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(5), prod.Stock, "el stock no se toca en el segundo intento")
}

func TestRollback_TrasReenvioRevierteElReenvio(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 0)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 10, 100))
	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)

	resent, err := e.uc.ResendStock(context.Background(), testCompanyID, testUserID, id, false)
	require.NoError(t, err)

	out, err := e.uc.Rollback(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)
	assert.Equal(t, resent.CorrelationID, out.CorrelationID, "revierte el último episodio de aplicación")

	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(10), prod.Stock, "queda aplicada solo la confirmación original")
}

// ──────────────────────────────────────────────────────────────────────────────
// ResendStock
// ──────────────────────────────────────────────────────────────────────────────

func TestResendStock_DryRunNoMuta(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 10)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 4, 25))
	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)

	out, err := e.uc.ResendStock(context.Background(), testCompanyID, testUserID, id, true)

	require.NoError(t, err)
	assert.True(t, out.DryRun)
	require.Len(t, out.AppliedDeltas, 1)
	assert.Equal(t, int64(14), out.AppliedDeltas[0].Old, "calcula contra el stock ya confirmado")
	assert.Equal(t, int64(18), out.AppliedDeltas[0].New)

	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(14), prod.Stock, "el dry run no escribe")
}

func TestResendStock_AplicaYEstampaMeta(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 0)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 4, 25))
	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)

	out, err := e.uc.ResendStock(context.Background(), testCompanyID, testUserID, id, false)

	require.NoError(t, err)
	assert.NotEmpty(t, out.CorrelationID)
	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(8), prod.Stock)

	p, _ := e.purchases.GetByID(id)
	assert.Contains(t, p.MetaMap(), "last_resend_stock_at")
}

func TestResendStock_SoloConfirmada(t *testing.T) {
	e := newEnv()
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 1, 10))

	_, err := e.uc.ResendStock(context.Background(), testCompanyID, testUserID, id, true)

	assert.ErrorIs(t, err, domain.ErrStatusNotAllowed)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel / Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_MotivoObligatorio(t *testing.T) {
	e := newEnv()
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 1, 10))

	err := e.uc.Cancel(context.Background(), testCompanyID, testUserID, id, "")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	err = e.uc.Cancel(context.Background(), testCompanyID, testUserID, id, "mercadería rechazada")
	require.NoError(t, err)
	p, _ := e.purchases.GetByID(id)
	assert.Equal(t, entity.StatusAnulada, p.Status)
}

func TestCancel_NoTocaStock(t *testing.T) {
	e := newEnv()
	e.seedProduct(t, "prod-1", "Yerba 1kg", 0)
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 5, 10))
	_, err := e.uc.Confirm(context.Background(), testCompanyID, testUserID, id)
	require.NoError(t, err)

	require.NoError(t, e.uc.Cancel(context.Background(), testCompanyID, testUserID, id, "duplicada"))

	prod, _ := e.products.GetByID("prod-1")
	assert.Equal(t, int64(5), prod.Stock, "anular no revierte stock; eso es Rollback")
}

func TestDelete_Guard(t *testing.T) {
	e := newEnv()

	borrador := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 1, 10))
	assert.NoError(t, e.uc.Delete(context.Background(), testCompanyID, borrador))

	anulada := e.seedPurchase(t, entity.StatusAnulada, lineaVinculada("prod-1", 1, 10))
	assert.NoError(t, e.uc.Delete(context.Background(), testCompanyID, anulada))

	confirmada := e.seedPurchase(t, entity.StatusConfirmada, lineaVinculada("prod-1", 1, 10))
	err := e.uc.Delete(context.Background(), testCompanyID, confirmada)
	assert.ErrorIs(t, err, domain.ErrStatusNotAllowed)
	p, _ := e.purchases.GetByID(confirmada)
	require.NotNil(t, p, "la compra confirmada sigue existiendo")
}

func TestGet_OtraEmpresaEsForbidden(t *testing.T) {
	e := newEnv()
	id := e.seedPurchase(t, entity.StatusBorrador, lineaVinculada("prod-1", 1, 10))

	_, err := e.uc.Get(context.Background(), "otra-empresa", id)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}
