package dto

import "github.com/matuteb/gestion-api/internal/domain/entity"

// FieldChange par actual/propuesto de un campo que difiere.
type FieldChange struct {
	Current  any `json:"current"`
	Proposed any `json:"proposed"`
}

// IavalDiff diferencias campo a campo entre el documento cargado y la
// propuesta extraída del remito. Solo aparecen los campos que difieren;
// Lines está alineado por índice con los renglones actuales.
type IavalDiff struct {
	Header map[string]FieldChange   `json:"header"`
	Lines  []map[string]FieldChange `json:"lines"`
}

// Empty indica que no se detectó ninguna diferencia.
func (d IavalDiff) Empty() bool {
	if len(d.Header) > 0 {
		return false
	}
	for _, l := range d.Lines {
		if len(l) > 0 {
			return false
		}
	}
	return true
}

// IavalPreviewResponse resultado del preview: propuesta + diff + metadatos.
type IavalPreviewResponse struct {
	Confidence float64              `json:"confidence"`
	Comments   []string             `json:"comments"`
	Diff       IavalDiff            `json:"diff"`
	Proposal   entity.IavalProposal `json:"proposal"`
	NoChanges  bool                 `json:"no_changes"`
}

// IavalApplyRequest aplicación de la propuesta confirmada por el operador.
type IavalApplyRequest struct {
	Proposal entity.IavalProposal `json:"proposal"`
	EmitLog  bool                 `json:"emit_log"`
}

// IavalArtifact archivo de auditoría generado al aplicar con emit_log.
type IavalArtifact struct {
	Filename string `json:"filename"`
	URLJSON  string `json:"url_json"`
	URLCSV   string `json:"url_csv,omitempty"`
}

// IavalApplyResponse resultado de la aplicación.
type IavalApplyResponse struct {
	Applied bool           `json:"applied"`
	Log     *IavalArtifact `json:"log,omitempty"`
}
