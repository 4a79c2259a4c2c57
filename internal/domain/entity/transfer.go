package entity

import (
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/shopspring/decimal"
)

// TransferRecord línea inmutable del libro de transferencias entre almacenes.
type TransferRecord struct {
	ID                string
	Identity          domain.Identity
	IdentityKey       string
	SourceRecordID    string
	Quantity          decimal.Decimal // > 0
	Unit              string
	SourceWarehouseID string
	DestWarehouseID   string // != SourceWarehouseID
	Actor             string
	Timestamp         time.Time
	Notes             string
	IdempotencyKey    string
}

// TransferFilter filtros del libro de transferencias. Campos vacíos no filtran.
type TransferFilter struct {
	WarehouseID       string // origen o destino
	SourceWarehouseID string
	DestWarehouseID   string
	From              *time.Time
	To                *time.Time
	IdentityKey       string // nombre+categoría normalizados
	NameKey           string // solo nombre normalizado
	CategoryKey       string // solo categoría normalizada
}

// TransferCursor posición de paginación por clave (timestamp desc, id desc).
type TransferCursor struct {
	Timestamp time.Time
	ID        string
}

// Before indica si t va después del cursor en orden descendente.
func (c TransferCursor) Before(t *TransferRecord) bool {
	if t.Timestamp.Equal(c.Timestamp) {
		return t.ID < c.ID
	}
	return t.Timestamp.Before(c.Timestamp)
}
