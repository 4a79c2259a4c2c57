package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo libro de transferencias en memdb.
type TransferRepo struct {
	sc scope
}

func cloneTransfer(t *entity.TransferRecord) *entity.TransferRecord {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (r *TransferRepo) Create(_ context.Context, t *entity.TransferRecord) error {
	return r.sc.write(func(txn *memdb.Txn) error {
		if t.IdempotencyKey != "" {
			prev, err := first[entity.TransferRecord](txn, tableTransfer, "idem", t.IdempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				return fmt.Errorf("create transfer %s: %w", t.IdempotencyKey, domain.ErrConflict)
			}
		}
		if err := txn.Insert(tableTransfer, cloneTransfer(t)); err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}
		return nil
	})
}

func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.TransferRecord, error) {
	t, err := first[entity.TransferRecord](r.sc.read(), tableTransfer, "id", id)
	return cloneTransfer(t), err
}

func (r *TransferRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.TransferRecord, error) {
	if key == "" {
		return nil, nil
	}
	t, err := first[entity.TransferRecord](r.sc.read(), tableTransfer, "idem", key)
	return cloneTransfer(t), err
}

func (r *TransferRepo) List(_ context.Context, f entity.TransferFilter, after *entity.TransferCursor, limit, offset int) ([]*entity.TransferRecord, error) {
	list, err := all[entity.TransferRecord](r.sc.read(), tableTransfer, "id")
	if err != nil {
		return nil, err
	}
	var out []*entity.TransferRecord
	for _, t := range list {
		if matches(f, t) && (after == nil || after.Before(t)) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	if after != nil || offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]*entity.TransferRecord, 0, len(out))
	for _, t := range out {
		res = append(res, cloneTransfer(t))
	}
	return res, nil
}

func matches(f entity.TransferFilter, t *entity.TransferRecord) bool {
	if f.WarehouseID != "" && t.SourceWarehouseID != f.WarehouseID && t.DestWarehouseID != f.WarehouseID {
		return false
	}
	if f.SourceWarehouseID != "" && t.SourceWarehouseID != f.SourceWarehouseID {
		return false
	}
	if f.DestWarehouseID != "" && t.DestWarehouseID != f.DestWarehouseID {
		return false
	}
	if f.From != nil && t.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Timestamp.After(*f.To) {
		return false
	}
	if f.IdentityKey != "" && t.IdentityKey != f.IdentityKey {
		return false
	}
	name, category, _ := strings.Cut(t.IdentityKey, "\x1f")
	if f.NameKey != "" && name != f.NameKey {
		return false
	}
	if f.CategoryKey != "" && category != f.CategoryKey {
		return false
	}
	return true
}
