package memory

import (
	"context"
	"fmt"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo marcas de recepción en memdb.
type ReceiptRepo struct {
	sc scope
}

func (r *ReceiptRepo) GetReceipt(_ context.Context, purchaseID string) (*entity.Receipt, error) {
	rc, err := first[entity.Receipt](r.sc.read(), tableReceipt, "id", purchaseID)
	if rc == nil || err != nil {
		return nil, err
	}
	c := *rc
	return &c, nil
}

func (r *ReceiptRepo) MarkCompleted(_ context.Context, rc *entity.Receipt) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		prev, err := first[entity.Receipt](txn, tableReceipt, "id", rc.PurchaseID)
		if err != nil {
			return err
		}
		if prev != nil {
			return fmt.Errorf("receipt %s: %w", rc.PurchaseID, domain.ErrConflict)
		}
		c := *rc
		return txn.Insert(tableReceipt, &c)
	})
}

func (r *ReceiptRepo) GetLine(_ context.Context, purchaseID, lineKey string) (*entity.ReceiptLine, error) {
	l, err := first[entity.ReceiptLine](r.sc.read(), tableReceiptLine, "id", purchaseID, lineKey)
	if l == nil || err != nil {
		return nil, err
	}
	c := *l
	return &c, nil
}

func (r *ReceiptRepo) MarkLine(_ context.Context, l *entity.ReceiptLine) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		prev, err := first[entity.ReceiptLine](txn, tableReceiptLine, "id", l.PurchaseID, l.LineKey)
		if err != nil {
			return err
		}
		if prev != nil {
			return fmt.Errorf("receipt line %s/%q: %w", l.PurchaseID, l.LineKey, domain.ErrConflict)
		}
		c := *l
		return txn.Insert(tableReceiptLine, &c)
	})
}
