package inventory

import (
	"context"

	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
)

// Repos agrupa los repositorios del motor de stock. Dentro de TxRunner.Run todos están atados
// a la misma transacción; fuera de ella (lecturas) van contra el pool.
type Repos struct {
	Stock      repository.StockRepository
	Transfers  repository.TransferRepository
	Receipts   repository.ReceiptRepository
	Warehouses repository.WarehouseRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y nada de lo escrito es visible; si no, Commit.
// Garantiza atomicidad para el motor de stock.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}
