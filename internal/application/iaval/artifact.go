package iaval

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/matuteb/gestion-api/internal/application/dto"
)

// artifactRecord es el artefacto JSON que documenta una aplicación iAVaL:
// qué se cambió, con qué confianza y cuándo.
type artifactRecord struct {
	PurchaseID string        `json:"purchase_id"`
	AppliedAt  time.Time     `json:"applied_at"`
	AppliedBy  string        `json:"applied_by"`
	Confidence float64       `json:"confidence"`
	Comments   []string      `json:"comments,omitempty"`
	Changes    []changeEntry `json:"changes"`
}

// changeEntry una fila del artefacto, común al JSON y al CSV. LineIndex -1
// marca campos de encabezado.
type changeEntry struct {
	Scope     string `json:"scope"` // header | line
	LineIndex int    `json:"line_index"`
	Field     string `json:"field"`
	Current   string `json:"current"`
	Proposed  string `json:"proposed"`
}

func buildArtifacts(purchaseID, userID string, diff dto.IavalDiff, confidence float64, comments []string, now time.Time) (jsonData, csvData []byte, err error) {
	rec := artifactRecord{
		PurchaseID: purchaseID,
		AppliedAt:  now,
		AppliedBy:  userID,
		Confidence: confidence,
		Comments:   comments,
		Changes:    flattenDiff(diff),
	}

	jsonData, err = json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("iaval: serializar artefacto JSON: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"scope", "line_index", "field", "current", "proposed"})
	for _, c := range rec.Changes {
		idx := ""
		if c.Scope == "line" {
			idx = fmt.Sprintf("%d", c.LineIndex)
		}
		_ = w.Write([]string{c.Scope, idx, c.Field, c.Current, c.Proposed})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, nil, fmt.Errorf("iaval: serializar artefacto CSV: %w", err)
	}
	return jsonData, buf.Bytes(), nil
}

// flattenDiff aplana el diff en filas ordenadas de forma estable: primero el
// encabezado (campos en orden alfabético), después los renglones por índice.
func flattenDiff(diff dto.IavalDiff) []changeEntry {
	entries := []changeEntry{}
	for _, field := range sortedKeys(diff.Header) {
		ch := diff.Header[field]
		entries = append(entries, changeEntry{
			Scope:     "header",
			LineIndex: -1,
			Field:     field,
			Current:   fmt.Sprint(ch.Current),
			Proposed:  fmt.Sprint(ch.Proposed),
		})
	}
	for i, line := range diff.Lines {
		for _, field := range sortedKeys(line) {
			ch := line[field]
			entries = append(entries, changeEntry{
				Scope:     "line",
				LineIndex: i,
				Field:     field,
				Current:   fmt.Sprint(ch.Current),
				Proposed:  fmt.Sprint(ch.Proposed),
			})
		}
	}
	return entries
}

func sortedKeys(m map[string]dto.FieldChange) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
