package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo marcas de recepción de compras sobre PostgreSQL.
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

// GetReceipt devuelve la marca de compra completada, o nil.
func (r *ReceiptRepo) GetReceipt(ctx context.Context, purchaseID string) (*entity.Receipt, error) {
	var rc entity.Receipt
	err := r.q.QueryRow(ctx, `
		SELECT purchase_id, dest_warehouse_id, lines, actor, completed_at
		FROM purchase_receipts WHERE purchase_id = $1`, purchaseID,
	).Scan(&rc.PurchaseID, &rc.DestWarehouseID, &rc.Lines, &rc.Actor, &rc.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get receipt", err)
	}
	return &rc, nil
}

// MarkCompleted registra la compra como recibida por completo.
func (r *ReceiptRepo) MarkCompleted(ctx context.Context, rc *entity.Receipt) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_receipts (purchase_id, dest_warehouse_id, lines, actor, completed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rc.PurchaseID, rc.DestWarehouseID, rc.Lines, rc.Actor, rc.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("receipt %s: %w", rc.PurchaseID, domain.ErrConflict)
		}
		return classify("mark receipt", err)
	}
	return nil
}

// GetLine devuelve la marca de un renglón, o nil.
func (r *ReceiptRepo) GetLine(ctx context.Context, purchaseID, lineKey string) (*entity.ReceiptLine, error) {
	var l entity.ReceiptLine
	err := r.q.QueryRow(ctx, `
		SELECT purchase_id, line_key, stock_record_id, quantity, unit, applied_at
		FROM purchase_receipt_lines WHERE purchase_id = $1 AND line_key = $2`, purchaseID, lineKey,
	).Scan(&l.PurchaseID, &l.LineKey, &l.StockRecordID, &l.Quantity, &l.Unit, &l.AppliedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get receipt line", err)
	}
	return &l, nil
}

// MarkLine registra un renglón acreditado. Debe ir en la misma tx que el crédito.
func (r *ReceiptRepo) MarkLine(ctx context.Context, l *entity.ReceiptLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_receipt_lines (purchase_id, line_key, stock_record_id, quantity, unit, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.PurchaseID, l.LineKey, l.StockRecordID, l.Quantity, l.Unit, l.AppliedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("receipt line %s/%q: %w", l.PurchaseID, l.LineKey, domain.ErrConflict)
		}
		return classify("mark receipt line", err)
	}
	return nil
}
