package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matuteb/gestion-api/internal/domain"
	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
	"github.com/matuteb/gestion-api/pkg/normalize"
)

var _ repository.SupplierItemRepository = (*SupplierItemRepo)(nil)

// SupplierItemRepo implementación de SupplierItemRepository sobre PostgreSQL
// (usable con pool o tx). Las columnas sku_norm y title_norm guardan la forma
// normalizada (minúsculas, sin acentos) de sku y título; se escriben en Create
// con el mismo fold que usan las consultas.
type SupplierItemRepo struct {
	q Querier
}

// NewSupplierItemRepository construye el adaptador del catálogo de proveedor.
func NewSupplierItemRepository(q Querier) *SupplierItemRepo {
	return &SupplierItemRepo{q: q}
}

const supplierItemColumns = `id, supplier_id, supplier_product_id, title, COALESCE(product_id, ''), created_at, updated_at`

// GetByID obtiene un ítem por ID. Devuelve nil si no existe.
func (r *SupplierItemRepo) GetByID(id string) (*entity.SupplierItem, error) {
	query := `SELECT ` + supplierItemColumns + ` FROM supplier_items WHERE id = $1`
	return r.getOne(query, id)
}

// GetBySupplierSKU busca por coincidencia exacta del código del proveedor.
// Devuelve nil si no hay match; nunca hace matching difuso.
func (r *SupplierItemRepo) GetBySupplierSKU(supplierID, supplierProductID string) (*entity.SupplierItem, error) {
	query := `SELECT ` + supplierItemColumns + ` FROM supplier_items
		WHERE supplier_id = $1 AND supplier_product_id = $2`
	return r.getOne(query, supplierID, supplierProductID)
}

// Search busca por substring normalizado en código y título. La coincidencia
// exacta de código queda primera; después código por prefijo, después el resto.
func (r *SupplierItemRepo) Search(supplierID, normalizedQuery string, limit int) ([]*entity.SupplierItem, error) {
	query := `
		SELECT ` + supplierItemColumns + `
		FROM supplier_items
		WHERE supplier_id = $1 AND (sku_norm LIKE '%' || $2 || '%' OR title_norm LIKE '%' || $2 || '%')
		ORDER BY (sku_norm = $2) DESC, (sku_norm LIKE $2 || '%') DESC, title
		LIMIT $3`
	rows, err := r.q.Query(context.Background(), query, supplierID, normalizedQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search supplier items: %w", err)
	}
	defer rows.Close()
	var list []*entity.SupplierItem
	for rows.Next() {
		var it entity.SupplierItem
		if err := rows.Scan(&it.ID, &it.SupplierID, &it.SupplierProductID, &it.Title,
			&it.ProductID, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// Create persiste un ítem nuevo del catálogo del proveedor.
func (r *SupplierItemRepo) Create(item *entity.SupplierItem) error {
	query := `
		INSERT INTO supplier_items (id, supplier_id, supplier_product_id, title, sku_norm, title_norm, product_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.SupplierID, item.SupplierProductID, item.Title,
		normalize.Fold(item.SupplierProductID), normalize.Fold(item.Title),
		item.ProductID, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert supplier item: %w", err)
	}
	return nil
}

// UpdateProductLink vincula el ítem del proveedor con un producto propio.
func (r *SupplierItemRepo) UpdateProductLink(id, productID string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE supplier_items SET product_id = NULLIF($2, ''), updated_at = now() WHERE id = $1`,
		id, productID,
	)
	if err != nil {
		return fmt.Errorf("update supplier item link: %w", err)
	}
	return nil
}

func (r *SupplierItemRepo) getOne(query string, args ...any) (*entity.SupplierItem, error) {
	var it entity.SupplierItem
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&it.ID, &it.SupplierID, &it.SupplierProductID, &it.Title,
		&it.ProductID, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier item: %w", err)
	}
	return &it, nil
}
