package iaval

import (
	"time"

	"github.com/matuteb/gestion-api/internal/application/dto"
	"github.com/matuteb/gestion-api/internal/domain/entity"
)

// DateLayout formato de fecha que viaja en los parches de encabezado.
const DateLayout = "2006-01-02"

// ComputeDiff calcula las diferencias campo a campo entre la compra cargada y
// la propuesta del validador. Solo entran los campos donde la propuesta trae
// valor Y difiere de lo cargado; Lines queda alineado por índice con los
// renglones actuales (propuestas para renglones inexistentes se descartan).
func ComputeDiff(p *entity.Purchase, lines []*entity.PurchaseLine, prop entity.IavalProposal) dto.IavalDiff {
	d := dto.IavalDiff{
		Header: map[string]dto.FieldChange{},
		Lines:  make([]map[string]dto.FieldChange, len(lines)),
	}

	h := prop.Header
	if h.RemitoNumber != nil && *h.RemitoNumber != p.RemitoNumber {
		d.Header["remito_number"] = dto.FieldChange{Current: p.RemitoNumber, Proposed: *h.RemitoNumber}
	}
	if h.RemitoDate != nil {
		current := formatDate(p.RemitoDate)
		if *h.RemitoDate != current {
			d.Header["remito_date"] = dto.FieldChange{Current: current, Proposed: *h.RemitoDate}
		}
	}
	if h.VATRate != nil && !h.VATRate.Equal(p.VATRate) {
		d.Header["vat_rate"] = dto.FieldChange{Current: p.VATRate, Proposed: *h.VATRate}
	}
	if h.Note != nil && *h.Note != p.Note {
		d.Header["note"] = dto.FieldChange{Current: p.Note, Proposed: *h.Note}
	}

	for i := range lines {
		changes := map[string]dto.FieldChange{}
		if i < len(prop.Lines) {
			lineDiff(lines[i], prop.Lines[i], changes)
		}
		d.Lines[i] = changes
	}
	return d
}

func lineDiff(line *entity.PurchaseLine, patch entity.IavalLinePatch, out map[string]dto.FieldChange) {
	if patch.Title != nil && *patch.Title != line.Title {
		out["title"] = dto.FieldChange{Current: line.Title, Proposed: *patch.Title}
	}
	if patch.SupplierSKU != nil && *patch.SupplierSKU != line.SupplierSKU {
		out["supplier_sku"] = dto.FieldChange{Current: line.SupplierSKU, Proposed: *patch.SupplierSKU}
	}
	if patch.Qty != nil && *patch.Qty != line.Qty {
		out["qty"] = dto.FieldChange{Current: line.Qty, Proposed: *patch.Qty}
	}
	if patch.UnitCost != nil && !patch.UnitCost.Equal(line.UnitCost) {
		out["unit_cost"] = dto.FieldChange{Current: line.UnitCost, Proposed: *patch.UnitCost}
	}
	if patch.LineDiscount != nil && !patch.LineDiscount.Equal(line.LineDiscount) {
		out["line_discount"] = dto.FieldChange{Current: line.LineDiscount, Proposed: *patch.LineDiscount}
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
