package entity

import (
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/shopspring/decimal"
)

// StockRecord representa la existencia de un producto (nombre, categoría) en un almacén.
// Hay a lo sumo un registro por (WarehouseID, IdentityKey).
type StockRecord struct {
	ID           string
	WarehouseID  string
	Identity     domain.Identity
	IdentityKey  string          // clave normalizada de fusión, ver inventory.IdentityKey
	Quantity     decimal.Decimal // nunca negativa
	Unit         string          // fija una vez creada
	MinThreshold decimal.Decimal // stock mínimo
	Lot          string
	ExpiresOn    *time.Time
	Notes        string
	Version      int64 // control optimista; se incrementa en cada escritura
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone devuelve una copia independiente (los stores en memoria no comparten punteros).
func (r *StockRecord) Clone() *StockRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.ExpiresOn != nil {
		t := *r.ExpiresOn
		c.ExpiresOn = &t
	}
	return &c
}

// BelowThreshold indica si la cantidad está en o por debajo del stock mínimo.
func (r *StockRecord) BelowThreshold() bool {
	return r.MinThreshold.GreaterThan(decimal.Zero) && r.Quantity.LessThanOrEqual(r.MinThreshold)
}

// StockMeta datos descriptivos opcionales usados al crear un registro nuevo.
type StockMeta struct {
	MinThreshold *decimal.Decimal
	Lot          string
	ExpiresOn    *time.Time
	Notes        string
}
