package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

// PurchaseRepo implementación de PurchaseRepository sobre PostgreSQL
// (usable con pool o tx).
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador de compras. Pasar pool o tx (Querier).
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

const purchaseColumns = `id, company_id, supplier_id, remito_number, remito_date, vat_rate, note, status, meta, created_at, updated_at`

// Create persiste el encabezado de una compra.
func (r *PurchaseRepo) Create(p *entity.Purchase) error {
	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	meta := p.Meta
	if len(meta) == 0 {
		meta = []byte("{}")
	}
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.CompanyID, p.SupplierID, p.RemitoNumber, p.RemitoDate,
		p.VATRate, p.Note, p.Status.String(), meta, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

// GetByID obtiene una compra por ID. Devuelve nil si no existe.
func (r *PurchaseRepo) GetByID(id string) (*entity.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	p, err := scanPurchase(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return p, nil
}

// Update reescribe el encabezado (no toca estado ni meta).
func (r *PurchaseRepo) Update(p *entity.Purchase) error {
	query := `
		UPDATE purchases
		SET supplier_id = $2, remito_number = $3, remito_date = $4, vat_rate = $5,
		    note = $6, updated_at = $7
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.SupplierID, p.RemitoNumber, p.RemitoDate, p.VATRate, p.Note, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update purchase: %w", err)
	}
	return nil
}

// UpdateStatus cambia solo el estado.
func (r *PurchaseRepo) UpdateStatus(id string, status entity.PurchaseStatus) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE purchases SET status = $2, updated_at = now() WHERE id = $1`,
		id, status.String(),
	)
	if err != nil {
		return fmt.Errorf("update purchase status: %w", err)
	}
	return nil
}

// TransitionStatus cambia el estado solo si el actual coincide con from. El
// UPDATE condicional toma el lock de la fila dentro de la tx; si otra
// transacción ya movió el estado, afecta cero filas y la transición falla.
func (r *PurchaseRepo) TransitionStatus(id string, from, to entity.PurchaseStatus) error {
	tag, err := r.q.Exec(context.Background(),
		`UPDATE purchases SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, from.String(), to.String(),
	)
	if err != nil {
		return fmt.Errorf("transition purchase status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatusNotAllowed
	}
	return nil
}

// UpdateMeta reescribe la bolsa meta completa.
func (r *PurchaseRepo) UpdateMeta(id string, meta []byte) error {
	if len(meta) == 0 {
		meta = []byte("{}")
	}
	_, err := r.q.Exec(context.Background(),
		`UPDATE purchases SET meta = $2, updated_at = now() WHERE id = $1`,
		id, meta,
	)
	if err != nil {
		return fmt.Errorf("update purchase meta: %w", err)
	}
	return nil
}

// ListByCompany lista compras de la empresa, más recientes primero.
func (r *PurchaseRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases WHERE company_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	var list []*entity.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Delete elimina la compra; renglones, adjuntos y bitácora caen por FK en cascada.
func (r *PurchaseRepo) Delete(id string) error {
	_, err := r.q.Exec(context.Background(), `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	return nil
}

// GetLines devuelve los renglones ordenados por posición de carga.
func (r *PurchaseRepo) GetLines(purchaseID string) ([]*entity.PurchaseLine, error) {
	query := `
		SELECT id, purchase_id, position, title, supplier_sku, qty, unit_cost,
		       line_discount, COALESCE(product_id, ''), COALESCE(supplier_item_id, '')
		FROM purchase_lines WHERE purchase_id = $1 ORDER BY position`
	rows, err := r.q.Query(context.Background(), query, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("get purchase lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseLine
	for rows.Next() {
		var l entity.PurchaseLine
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.Position, &l.Title, &l.SupplierSKU,
			&l.Qty, &l.UnitCost, &l.LineDiscount, &l.ProductID, &l.SupplierItemID); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ReplaceLines reescribe el set completo de renglones de la compra.
func (r *PurchaseRepo) ReplaceLines(purchaseID string, lines []*entity.PurchaseLine) error {
	ctx := context.Background()
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_lines WHERE purchase_id = $1`, purchaseID); err != nil {
		return fmt.Errorf("delete purchase lines: %w", err)
	}
	query := `
		INSERT INTO purchase_lines (id, purchase_id, position, title, supplier_sku,
			qty, unit_cost, line_discount, product_id, supplier_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''))`
	for _, l := range lines {
		_, err := r.q.Exec(ctx, query,
			l.ID, purchaseID, l.Position, l.Title, l.SupplierSKU,
			l.Qty, l.UnitCost, l.LineDiscount, l.ProductID, l.SupplierItemID,
		)
		if err != nil {
			return fmt.Errorf("insert purchase line: %w", err)
		}
	}
	return nil
}

// UpdateLineLinks actualiza solo los vínculos de identidad de un renglón.
func (r *PurchaseRepo) UpdateLineLinks(line *entity.PurchaseLine) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE purchase_lines SET product_id = NULLIF($2, ''), supplier_item_id = NULLIF($3, '') WHERE id = $1`,
		line.ID, line.ProductID, line.SupplierItemID,
	)
	if err != nil {
		return fmt.Errorf("update purchase line links: %w", err)
	}
	return nil
}

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	var p entity.Purchase
	var status string
	err := row.Scan(&p.ID, &p.CompanyID, &p.SupplierID, &p.RemitoNumber, &p.RemitoDate,
		&p.VATRate, &p.Note, &status, &p.Meta, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = entity.PurchaseStatus(status)
	return &p, nil
}
