package inventory

import (
	"strings"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// keySeparator separa nombre y categoría en la clave; no aparece en texto normalizado.
const keySeparator = "\x1f"

// NormalizeText aplica NFC, recorta y colapsa espacios internos. Conserva mayúsculas.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// FoldText normaliza y aplica case folding Unicode ("Úrea " y "úrea" producen lo mismo).
func FoldText(s string) string {
	return norm.NFC.String(cases.Fold().String(NormalizeText(s)))
}

// CleanIdentity devuelve la identidad con el texto normalizado para mostrar y persistir.
func CleanIdentity(id domain.Identity) domain.Identity {
	return domain.Identity{Name: NormalizeText(id.Name), Category: NormalizeText(id.Category)}
}

// IdentityKey clave de fusión: dos productos del mismo almacén con la misma clave son el mismo.
// Todas las rutas (resolver, mutador, transferencias, recepciones, filtros) usan esta función.
func IdentityKey(id domain.Identity) string {
	return FoldText(id.Name) + keySeparator + FoldText(id.Category)
}

// ValidIdentity exige nombre y categoría no vacíos tras normalizar.
func ValidIdentity(id domain.Identity) bool {
	return NormalizeText(id.Name) != "" && NormalizeText(id.Category) != ""
}

// NormalizeUnit normaliza una unidad de medida para guardarla.
func NormalizeUnit(u string) string {
	return NormalizeText(u)
}

// SameUnit compara unidades sin distinguir mayúsculas ("kg" == "KG").
func SameUnit(a, b string) bool {
	return FoldText(a) == FoldText(b)
}
