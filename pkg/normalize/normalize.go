// Package normalize normaliza texto para búsquedas insensibles a mayúsculas
// y acentos (los remitos llegan tipeados de cualquier manera: "Azucar",
// "AZÚCAR", "azúcar" deben coincidir).
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)), // quita marcas diacríticas
	norm.NFC,
)

// Fold devuelve el texto en minúsculas, sin diacríticos y sin espacios en los
// extremos. Si la transformación falla devuelve el original en minúsculas.
func Fold(s string) string {
	out, _, err := transform.String(folder, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
