package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

var _ repository.PurchaseLogRepository = (*PurchaseLogRepo)(nil)

// PurchaseLogRepo implementación de PurchaseLogRepository sobre PostgreSQL.
// La tabla es append-only: no existen UPDATE ni DELETE sobre purchase_logs.
type PurchaseLogRepo struct {
	q Querier
}

// NewPurchaseLogRepository construye el adaptador de la bitácora.
func NewPurchaseLogRepository(q Querier) *PurchaseLogRepo {
	return &PurchaseLogRepo{q: q}
}

const logColumns = `id, purchase_id, action, meta, created_at, created_by`

// Append agrega una entrada a la bitácora.
func (r *PurchaseLogRepo) Append(e *entity.PurchaseLog) error {
	meta := e.Meta
	if len(meta) == 0 {
		meta = []byte("{}")
	}
	_, err := r.q.Exec(context.Background(),
		`INSERT INTO purchase_logs (`+logColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.PurchaseID, e.Action, meta, e.CreatedAt, e.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert purchase log: %w", err)
	}
	return nil
}

// ListByPurchase devuelve la bitácora de la compra, más reciente primero.
func (r *PurchaseLogRepo) ListByPurchase(purchaseID string, limit int) ([]*entity.PurchaseLog, error) {
	query := `
		SELECT ` + logColumns + `
		FROM purchase_logs WHERE purchase_id = $1
		ORDER BY created_at DESC LIMIT $2`
	rows, err := r.q.Query(context.Background(), query, purchaseID, limit)
	if err != nil {
		return nil, fmt.Errorf("list purchase logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseLog
	for rows.Next() {
		var e entity.PurchaseLog
		if err := rows.Scan(&e.ID, &e.PurchaseID, &e.Action, &e.Meta, &e.CreatedAt, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan purchase log: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// LastStockApplication devuelve el episodio de aplicación de stock más
// reciente (confirmar o reenviar_stock), o nil si nunca se aplicó.
func (r *PurchaseLogRepo) LastStockApplication(purchaseID string) (*entity.PurchaseLog, error) {
	query := `
		SELECT ` + logColumns + `
		FROM purchase_logs
		WHERE purchase_id = $1 AND action IN ($2, $3)
		ORDER BY created_at DESC LIMIT 1`
	var e entity.PurchaseLog
	err := r.q.QueryRow(context.Background(), query,
		purchaseID, entity.LogActionConfirmar, entity.LogActionReenvioStock,
	).Scan(&e.ID, &e.PurchaseID, &e.Action, &e.Meta, &e.CreatedAt, &e.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last stock application: %w", err)
	}
	return &e, nil
}

// HasRollback indica si ya existe una reversión asentada para el correlation
// id dado. Evita revertir dos veces el mismo episodio.
func (r *PurchaseLogRepo) HasRollback(purchaseID, correlationID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (
			SELECT 1 FROM purchase_logs
			WHERE purchase_id = $1 AND action = $2 AND meta->>'correlation_id' = $3
		)`,
		purchaseID, entity.LogActionRevertir, correlationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has rollback: %w", err)
	}
	return exists, nil
}
