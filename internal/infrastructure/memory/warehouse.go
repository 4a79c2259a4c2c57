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

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo directorio de almacenes en memdb.
type WarehouseRepo struct {
	sc scope
}

func cloneWarehouse(w *entity.Warehouse) *entity.Warehouse {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		prev, err := first[entity.Warehouse](txn, tableWarehouse, "id", w.ID)
		if err != nil {
			return err
		}
		if prev != nil {
			return fmt.Errorf("almacén %s: %w", w.ID, domain.ErrConflict)
		}
		return txn.Insert(tableWarehouse, cloneWarehouse(w))
	})
}

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	w, err := first[entity.Warehouse](r.sc.read(), tableWarehouse, "id", id)
	return cloneWarehouse(w), err
}

func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		prev, err := first[entity.Warehouse](txn, tableWarehouse, "id", w.ID)
		if err != nil {
			return err
		}
		if prev == nil {
			return domain.ErrNotFound
		}
		return txn.Insert(tableWarehouse, cloneWarehouse(w))
	})
}

func (r *WarehouseRepo) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	list, err := all[entity.Warehouse](r.sc.read(), tableWarehouse, "id")
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]*entity.Warehouse, 0, len(list))
	for _, w := range list {
		out = append(out, cloneWarehouse(w))
	}
	return out, nil
}

// Delete con stock asociado devuelve domain.ErrConflict, igual que la FK en PostgreSQL.
func (r *WarehouseRepo) Delete(_ context.Context, id string) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		prev, err := first[entity.Warehouse](txn, tableWarehouse, "id", id)
		if err != nil {
			return err
		}
		if prev == nil {
			return domain.ErrNotFound
		}
		inUse, err := txn.First(tableStock, "warehouse", id)
		if err != nil {
			return err
		}
		if inUse != nil {
			return fmt.Errorf("almacén %s en uso: %w", id, domain.ErrConflict)
		}
		return txn.Delete(tableWarehouse, prev)
	})
}
