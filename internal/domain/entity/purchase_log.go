package entity

import (
	"encoding/json"
	"time"
)

// Acciones registradas en la bitácora de compras.
const (
	LogActionCrear        = "crear"
	LogActionGuardar      = "guardar"
	LogActionValidar      = "validar"
	LogActionConfirmar    = "confirmar"
	LogActionAnular       = "anular"
	LogActionReenvioStock = "reenviar_stock"
	LogActionRevertir     = "revertir_stock"
	LogActionIavalAplicar = "iaval_aplicar"
)

// Claves conocidas dentro de Meta.
const (
	LogMetaCorrelationID = "correlation_id"
	LogMetaAppliedDeltas = "applied_deltas"
	LogMetaReverted      = "reverted"
)

// PurchaseLog entrada de la bitácora de una compra. Solo se agrega, nunca se
// modifica; el correlation_id en Meta agrupa todas las entradas de un mismo
// episodio (confirmación, reenvío, reversión, aplicación iAVaL).
type PurchaseLog struct {
	ID         string
	PurchaseID string
	Action     string
	Meta       json.RawMessage
	CreatedAt  time.Time
	CreatedBy  string // UserID
}

// LogMeta payload estructurado para Meta de las acciones de stock.
type LogMeta struct {
	CorrelationID string         `json:"correlation_id,omitempty"`
	AppliedDeltas []AppliedDelta `json:"applied_deltas,omitempty"`
	Reverted      []AppliedDelta `json:"reverted,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// DecodeMeta interpreta Meta como LogMeta. Meta vacío devuelve el cero.
func (e *PurchaseLog) DecodeMeta() (LogMeta, error) {
	var m LogMeta
	if len(e.Meta) == 0 {
		return m, nil
	}
	err := json.Unmarshal(e.Meta, &m)
	return m, err
}

// EncodeLogMeta serializa el payload para persistir en Meta.
func EncodeLogMeta(m LogMeta) json.RawMessage {
	raw, err := json.Marshal(m)
	if err != nil {
		return json.RawMessage("{}")
	}
	return raw
}
