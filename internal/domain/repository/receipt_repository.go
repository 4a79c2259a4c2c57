package repository

import (
	"context"

	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
)

// ReceiptRepository guarda las marcas de idempotencia de recepciones de compras.
type ReceiptRepository interface {
	GetReceipt(ctx context.Context, purchaseID string) (*entity.Receipt, error)
	// MarkCompleted devuelve domain.ErrConflict si la compra ya estaba marcada.
	MarkCompleted(ctx context.Context, receipt *entity.Receipt) error
	GetLine(ctx context.Context, purchaseID, lineKey string) (*entity.ReceiptLine, error)
	// MarkLine devuelve domain.ErrConflict si el renglón ya estaba marcado.
	MarkLine(ctx context.Context, line *entity.ReceiptLine) error
}
