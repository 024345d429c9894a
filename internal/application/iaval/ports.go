package iaval

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/matuteb/gestion-api/internal/domain/entity"
)

// RemitoDocument documento original adjunto a la compra, tal como se subió.
type RemitoDocument struct {
	Data     []byte
	MimeType string
}

// LineSnapshot estado actual de un renglón, enviado al extractor para que la
// propuesta vuelva alineada por índice.
type LineSnapshot struct {
	Title        string          `json:"title"`
	SupplierSKU  string          `json:"supplier_sku"`
	Qty          int64           `json:"qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	LineDiscount decimal.Decimal `json:"line_discount"`
}

// PurchaseSnapshot estado actual de la compra cargada por el operador.
type PurchaseSnapshot struct {
	RemitoNumber string          `json:"remito_number"`
	RemitoDate   string          `json:"remito_date"` // YYYY-MM-DD
	VATRate      decimal.Decimal `json:"vat_rate"`
	Note         string          `json:"note"`
	Lines        []LineSnapshot  `json:"lines"`
}

// RemitoExtractor puerto del validador: compara el remito original contra lo
// cargado y devuelve una propuesta de corrección parcial.
type RemitoExtractor interface {
	ExtractProposal(ctx context.Context, doc RemitoDocument, current PurchaseSnapshot) (*entity.IavalProposal, error)
}

// FileStore puerto de archivos: adjuntos de compras y artefactos de auditoría.
// La referencia devuelta por Save es opaca; solo Open sabe resolverla.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
