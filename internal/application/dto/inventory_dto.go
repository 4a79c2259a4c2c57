package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecordResponse salida de un registro de stock.
type StockRecordResponse struct {
	ID           string          `json:"id"`
	WarehouseID  string          `json:"warehouse_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	MinThreshold decimal.Decimal `json:"min_threshold"`
	Lot          string          `json:"lot,omitempty"`
	ExpiresOn    *time.Time      `json:"expires_on,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	Version      int64           `json:"version"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockListResponse lista de registros de un almacén.
type StockListResponse struct {
	WarehouseID string                `json:"warehouse_id"`
	Items       []StockRecordResponse `json:"items"`
}

// AdjustStockRequest body para POST /api/stock/adjustments (ajuste manual, delta con signo).
type AdjustStockRequest struct {
	WarehouseID  string           `json:"warehouse_id"`
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Delta        decimal.Decimal  `json:"delta"`
	Unit         string           `json:"unit"`
	MinThreshold *decimal.Decimal `json:"min_threshold,omitempty"`
	Lot          string           `json:"lot,omitempty"`
	ExpiresOn    *time.Time       `json:"expires_on,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Actor        string           `json:"actor,omitempty"`
}

// UpdateStockMetaRequest body para PUT /api/warehouses/:id/stock/:recordId. Solo datos
// descriptivos; los campos omitidos no cambian.
type UpdateStockMetaRequest struct {
	MinThreshold *decimal.Decimal `json:"min_threshold,omitempty"`
	Lot          string           `json:"lot,omitempty"`
	ExpiresOn    *time.Time       `json:"expires_on,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Actor        string           `json:"actor,omitempty"`
}

// TransferRequest body para POST /api/transfers. La clave de idempotencia va en el header Idempotency-Key.
type TransferRequest struct {
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	SourceWarehouseID string          `json:"source_warehouse_id"`
	DestWarehouseID   string          `json:"dest_warehouse_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit,omitempty"`
	Actor             string          `json:"actor,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// TransferResponse salida de una línea del libro de transferencias.
type TransferResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	SourceWarehouseID string          `json:"source_warehouse_id"`
	DestWarehouseID   string          `json:"dest_warehouse_id"`
	Actor             string          `json:"actor"`
	Timestamp         time.Time       `json:"timestamp"`
	Notes             string          `json:"notes,omitempty"`
}

// TransferListResponse página del libro de transferencias.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// PurchaseLineItemRequest renglón de compra recibido.
type PurchaseLineItemRequest struct {
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Unit         string           `json:"unit"`
	Lot          string           `json:"lot,omitempty"`
	ExpiresOn    *time.Time       `json:"expires_on,omitempty"`
	MinThreshold *decimal.Decimal `json:"min_threshold,omitempty"`
}

// ReceiveRequest body para POST /api/receipts (evento "compra completada").
type ReceiveRequest struct {
	PurchaseID      string                    `json:"purchase_id"`
	DestWarehouseID string                    `json:"dest_warehouse_id"`
	LineItems       []PurchaseLineItemRequest `json:"line_items"`
	Actor           string                    `json:"actor,omitempty"`
}

// PurchaseTransitionRequest body para POST /api/purchases/:id/transitions.
type PurchaseTransitionRequest struct {
	From            string                    `json:"from"`
	To              string                    `json:"to"`
	DestWarehouseID string                    `json:"dest_warehouse_id"`
	LineItems       []PurchaseLineItemRequest `json:"line_items"`
	Actor           string                    `json:"actor,omitempty"`
}

// ReceiptLineResponse resultado de un renglón.
type ReceiptLineResponse struct {
	LineNo   int             `json:"line_no"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Status   string          `json:"status"`
	StockID  string          `json:"stock_record_id,omitempty"`
	Error    *ErrorResponse  `json:"error,omitempty"`
}

// ReceiptResponse resultado de una recepción.
type ReceiptResponse struct {
	PurchaseID      string                `json:"purchase_id"`
	DestWarehouseID string                `json:"dest_warehouse_id"`
	Duplicate       bool                  `json:"duplicate"`
	Completed       bool                  `json:"completed"`
	Fired           *bool                 `json:"fired,omitempty"`
	Lines           []ReceiptLineResponse `json:"lines"`
}

// ReplenishmentSuggestionDTO insumo en o por debajo de su stock mínimo.
type ReplenishmentSuggestionDTO struct {
	StockRecordID     string          `json:"stock_record_id"`
	WarehouseID       string          `json:"warehouse_id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	MinThreshold      decimal.Decimal `json:"min_threshold"`
	IdealStock        decimal.Decimal `json:"ideal_stock"`         // MinThreshold * 1.5
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"` // IdealStock - CurrentStock
	Priority          int             `json:"priority"`            // 1 = más urgente
}
