package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matuteb/gestion-api/internal/domain/entity"
	"github.com/matuteb/gestion-api/internal/domain/repository"
)

var _ repository.AttachmentRepository = (*AttachmentRepo)(nil)

// AttachmentRepo implementación de AttachmentRepository sobre PostgreSQL.
type AttachmentRepo struct {
	q Querier
}

// NewAttachmentRepository construye el adaptador de adjuntos.
func NewAttachmentRepository(q Querier) *AttachmentRepo {
	return &AttachmentRepo{q: q}
}

const attachmentColumns = `id, purchase_id, file_name, file_ref, mime_type, size, created_at`

// Create persiste la referencia de un adjunto.
func (r *AttachmentRepo) Create(a *entity.Attachment) error {
	_, err := r.q.Exec(context.Background(),
		`INSERT INTO attachments (`+attachmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PurchaseID, a.FileName, a.FileRef, a.MimeType, a.Size, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// ListByPurchase lista los adjuntos de la compra, más reciente primero.
func (r *AttachmentRepo) ListByPurchase(purchaseID string) ([]*entity.Attachment, error) {
	query := `
		SELECT ` + attachmentColumns + `
		FROM attachments WHERE purchase_id = $1
		ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Attachment
	for rows.Next() {
		var a entity.Attachment
		if err := rows.Scan(&a.ID, &a.PurchaseID, &a.FileName, &a.FileRef,
			&a.MimeType, &a.Size, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// Latest devuelve el adjunto más reciente, o nil si la compra no tiene.
func (r *AttachmentRepo) Latest(purchaseID string) (*entity.Attachment, error) {
	query := `
		SELECT ` + attachmentColumns + `
		FROM attachments WHERE purchase_id = $1
		ORDER BY created_at DESC LIMIT 1`
	var a entity.Attachment
	err := r.q.QueryRow(context.Background(), query, purchaseID).Scan(
		&a.ID, &a.PurchaseID, &a.FileName, &a.FileRef, &a.MimeType, &a.Size, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest attachment: %w", err)
	}
	return &a, nil
}
