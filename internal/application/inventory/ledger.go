package inventory

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
)

// DefaultLedgerPageSize tamaño de página al recorrer el libro.
const DefaultLedgerPageSize = 100

// LedgerFilter filtros de consulta del libro de transferencias.
// Name y Category se comparan normalizados; con solo Name se filtra por nombre.
type LedgerFilter struct {
	WarehouseID       string
	SourceWarehouseID string
	DestWarehouseID   string
	From              *time.Time
	To                *time.Time
	Name              string
	Category          string
}

// LedgerUseCase consultas de solo lectura sobre el libro de transferencias.
type LedgerUseCase struct {
	transfers repository.TransferRepository
	pageSize  int
	opts      Options
}

// NewLedgerUseCase construye el caso de uso. pageSize <= 0 usa DefaultLedgerPageSize.
func NewLedgerUseCase(transfers repository.TransferRepository, pageSize int, opts Options) *LedgerUseCase {
	if pageSize <= 0 {
		pageSize = DefaultLedgerPageSize
	}
	return &LedgerUseCase{transfers: transfers, pageSize: pageSize, opts: opts.withDefaults()}
}

func (f LedgerFilter) toEntity() (entity.TransferFilter, error) {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return entity.TransferFilter{}, domain.ErrInvalidInput
	}
	out := entity.TransferFilter{
		WarehouseID:       f.WarehouseID,
		SourceWarehouseID: f.SourceWarehouseID,
		DestWarehouseID:   f.DestWarehouseID,
		From:              f.From,
		To:                f.To,
	}
	switch {
	case f.Name != "" && f.Category != "":
		out.IdentityKey = inventory.IdentityKey(domain.Identity{Name: f.Name, Category: f.Category})
	case f.Name != "":
		out.NameKey = inventory.FoldText(f.Name)
	case f.Category != "":
		out.CategoryKey = inventory.FoldText(f.Category)
	}
	return out, nil
}

// Transfers devuelve una secuencia perezosa y finita ordenada por Timestamp desc. Cada
// recorrido vuelve a consultar desde el inicio, así que se puede repetir sin efectos.
// Un error de almacenamiento se entrega como último elemento.
func (uc *LedgerUseCase) Transfers(ctx context.Context, filter LedgerFilter) iter.Seq2[*entity.TransferRecord, error] {
	return func(yield func(*entity.TransferRecord, error) bool) {
		f, err := filter.toEntity()
		if err != nil {
			yield(nil, err)
			return
		}
		var cursor *entity.TransferCursor
		for {
			var page []*entity.TransferRecord
			err := uc.opts.Retry.run(ctx, uc.opts.Logger, "list_transfers", func() error {
				var err error
				page, err = uc.transfers.List(ctx, f, cursor, uc.pageSize, 0)
				return err
			})
			if err != nil {
				yield(nil, err)
				return
			}
			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}
			if len(page) < uc.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &entity.TransferCursor{Timestamp: last.Timestamp, ID: last.ID}
		}
	}
}

// ListTransfers devuelve una página del libro (limit/offset) ordenada por Timestamp desc.
func (uc *LedgerUseCase) ListTransfers(ctx context.Context, filter LedgerFilter, limit, offset int) ([]*entity.TransferRecord, error) {
	f, err := filter.toEntity()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = uc.pageSize
	}
	if offset < 0 {
		offset = 0
	}
	var list []*entity.TransferRecord
	err = uc.opts.Retry.run(ctx, uc.opts.Logger, "list_transfers", func() error {
		var err error
		list, err = uc.transfers.List(ctx, f, nil, limit, offset)
		return err
	})
	return list, err
}

// GetTransfer obtiene una línea del libro por ID.
func (uc *LedgerUseCase) GetTransfer(ctx context.Context, id string) (*entity.TransferRecord, error) {
	t, err := uc.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}
