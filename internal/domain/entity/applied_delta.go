package entity

// AppliedDelta registra un cambio de stock aplicado sobre un producto del
// catálogo durante una confirmación, reenvío o reversión. Inmutable una vez
// escrito en la bitácora: la reversión agrega deltas espejo, no modifica estos.
type AppliedDelta struct {
	ProductID    string `json:"product_id"`
	ProductTitle string `json:"product_title"` // desnormalizado para mostrar
	Delta        int64  `json:"delta"`         // con signo: positivo al confirmar
	Old          int64  `json:"old"`           // stock antes de aplicar
	New          int64  `json:"new"`           // stock después de aplicar
}

// Inverse devuelve el delta espejo calculado contra el stock actual del
// producto. Cumple inverse.Delta == -d.Delta; con stock sin interferencias
// también inverse.New == d.Old.
func (d AppliedDelta) Inverse(currentStock int64) AppliedDelta {
	return AppliedDelta{
		ProductID:    d.ProductID,
		ProductTitle: d.ProductTitle,
		Delta:        -d.Delta,
		Old:          currentStock,
		New:          currentStock - d.Delta,
	}
}
