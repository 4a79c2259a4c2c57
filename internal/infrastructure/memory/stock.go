package memory

import (
	"context"
	"fmt"
	"sort"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo registros de stock en memdb. Guarda y devuelve copias: un objeto insertado no se vuelve a modificar.
type StockRepo struct {
	sc scope
}

func cloneStock(list []*entity.StockRecord) []*entity.StockRecord {
	out := make([]*entity.StockRecord, 0, len(list))
	for _, r := range list {
		out = append(out, r.Clone())
	}
	return out
}

func (r *StockRepo) FindByIdentity(_ context.Context, warehouseID, identityKey string) (*entity.StockRecord, error) {
	rec, err := first[entity.StockRecord](r.sc.read(), tableStock, "identity", warehouseID, identityKey)
	return rec.Clone(), err
}

// LockIdentity la transacción de escritura ya es exclusiva; solo lee.
func (r *StockRepo) LockIdentity(_ context.Context, identityKey string, warehouseIDs ...string) (map[string]*entity.StockRecord, error) {
	txn := r.sc.read()
	out := make(map[string]*entity.StockRecord, len(warehouseIDs))
	for _, wh := range warehouseIDs {
		rec, err := first[entity.StockRecord](txn, tableStock, "identity", wh, identityKey)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out[wh] = rec.Clone()
		}
	}
	return out, nil
}

func (r *StockRepo) GetByID(_ context.Context, id string) (*entity.StockRecord, error) {
	rec, err := first[entity.StockRecord](r.sc.read(), tableStock, "id", id)
	return rec.Clone(), err
}

func (r *StockRepo) Create(_ context.Context, record *entity.StockRecord) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		prev, err := first[entity.StockRecord](txn, tableStock, "identity", record.WarehouseID, record.IdentityKey)
		if err != nil {
			return err
		}
		if prev != nil {
			return fmt.Errorf("create stock %s en %s: %w", record.Identity, record.WarehouseID, domain.ErrConflict)
		}
		if dup, err := first[entity.StockRecord](txn, tableStock, "id", record.ID); err != nil {
			return err
		} else if dup != nil {
			return fmt.Errorf("create stock %s: %w", record.ID, domain.ErrConflict)
		}
		stored := record.Clone()
		stored.Version = 1
		if err := txn.Insert(tableStock, stored); err != nil {
			return fmt.Errorf("insert stock: %w", err)
		}
		record.Version = 1
		return nil
	})
}

func (r *StockRepo) Update(_ context.Context, record *entity.StockRecord) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		cur, err := first[entity.StockRecord](txn, tableStock, "id", record.ID)
		if err != nil {
			return err
		}
		if cur == nil || cur.Version != record.Version {
			return fmt.Errorf("update stock %s (versión %d): %w", record.ID, record.Version, domain.ErrConflict)
		}
		stored := record.Clone()
		// la identidad y la unidad no cambian
		stored.WarehouseID, stored.IdentityKey, stored.Unit = cur.WarehouseID, cur.IdentityKey, cur.Unit
		stored.Version = cur.Version + 1
		if err := txn.Insert(tableStock, stored); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		record.Version = stored.Version
		return nil
	})
}

func (r *StockRepo) ListByWarehouse(_ context.Context, warehouseID string) ([]*entity.StockRecord, error) {
	list, err := all[entity.StockRecord](r.sc.read(), tableStock, "warehouse", warehouseID)
	if err != nil {
		return nil, err
	}
	list = cloneStock(list)
	sort.Slice(list, func(i, j int) bool {
		if list[i].Identity.Name != list[j].Identity.Name {
			return list[i].Identity.Name < list[j].Identity.Name
		}
		return list[i].Identity.Category < list[j].Identity.Category
	})
	return list, nil
}

func (r *StockRepo) ListByIdentity(_ context.Context, identityKey string) ([]*entity.StockRecord, error) {
	list, err := all[entity.StockRecord](r.sc.read(), tableStock, "key", identityKey)
	if err != nil {
		return nil, err
	}
	list = cloneStock(list)
	sort.Slice(list, func(i, j int) bool { return list[i].WarehouseID < list[j].WarehouseID })
	return list, nil
}

func (r *StockRepo) ListBelowThreshold(_ context.Context, warehouseID string) ([]*entity.StockRecord, error) {
	list, err := all[entity.StockRecord](r.sc.read(), tableStock, "id")
	if err != nil {
		return nil, err
	}
	var out []*entity.StockRecord
	for _, rec := range list {
		if rec.BelowThreshold() && (warehouseID == "" || rec.WarehouseID == warehouseID) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].Identity.Name < out[j].Identity.Name
	})
	return out, nil
}
