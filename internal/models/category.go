package models

import "fmt"

// Category is the operational class assigned to an animal by the external
// classifier. A nil *Category means "not classified" and is distinct from
// CategoryMonitoring, which is the zero value.
type Category int

const (
	CategoryMonitoring Category = 0
	CategoryProducing  Category = 1
	CategoryPreDry     Category = 2
)

// Label returns the herd-management label used in exports and dashboards.
func (c Category) Label() string {
	switch c {
	case CategoryMonitoring:
		return "En Monitoreo"
	case CategoryProducing:
		return "En Producción"
	case CategoryPreDry:
		return "Previo a Secado"
	}
	return fmt.Sprintf("Categoría %d", int(c))
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= CategoryMonitoring && c <= CategoryPreDry
}
