package entity

import "time"

// Warehouse representa un almacén donde se guardan insumos. Dato de referencia:
// el motor de stock solo lo lee.
type Warehouse struct {
	ID        string
	Name      string
	Location  string
	Manager   string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
