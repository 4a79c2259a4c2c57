package entity

import (
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Estados de una compra (los administra el flujo de compras, no el motor).
const (
	PurchaseStatusPending   = "Pendiente"
	PurchaseStatusCompleted = "Completado"
	PurchaseStatusCancelled = "Cancelado"
)

// PurchaseLineItem renglón de una compra recibida.
type PurchaseLineItem struct {
	Identity     domain.Identity
	Quantity     decimal.Decimal
	Unit         string
	Lot          string
	ExpiresOn    *time.Time
	MinThreshold *decimal.Decimal
}

// PurchaseCompleted evento "compra completada" emitido por el flujo de compras.
type PurchaseCompleted struct {
	PurchaseID      string
	DestWarehouseID string
	LineItems       []PurchaseLineItem
	Actor           string
}

// PurchaseTransition cambio de estado observado de una compra.
type PurchaseTransition struct {
	PurchaseID      string
	From            string
	To              string
	DestWarehouseID string
	LineItems       []PurchaseLineItem
	Actor           string
}

// ReceiptLine marca de renglón ya acreditado (PurchaseID, LineKey). LineKey identifica el
// producto del renglón, no su posición, y Quantity es lo acreditado.
type ReceiptLine struct {
	PurchaseID    string
	LineKey       string
	StockRecordID string
	Quantity      decimal.Decimal
	Unit          string
	AppliedAt     time.Time
}

// Receipt marca de compra procesada por completo.
type Receipt struct {
	PurchaseID      string
	DestWarehouseID string
	Lines           int
	Actor           string
	CompletedAt     time.Time
}
