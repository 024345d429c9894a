package entity

import "time"

// Attachment archivo adjunto de una compra (el PDF del remito). FileRef es la
// referencia opaca que resuelve el file store; el motor no interpreta su forma.
type Attachment struct {
	ID         string
	PurchaseID string
	FileName   string
	FileRef    string
	MimeType   string
	Size       int64
	CreatedAt  time.Time
}
