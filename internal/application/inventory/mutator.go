package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockUseCase resolución de identidades y mutación directa de stock (ajuste manual).
// Es el único punto de entrada que escribe Quantity fuera de transferencias y recepciones.
type StockUseCase struct {
	tx   TxRunner
	read Repos
	opts Options
}

// NewStockUseCase construye el caso de uso. read son repositorios fuera de transacción.
func NewStockUseCase(tx TxRunner, read Repos, opts Options) *StockUseCase {
	return &StockUseCase{tx: tx, read: read, opts: opts.withDefaults()}
}

// ApplyDeltaInput entrada de ApplyDelta. Delta negativo = débito, positivo = crédito.
type ApplyDeltaInput struct {
	WarehouseID string
	Identity    domain.Identity
	Delta       decimal.Decimal
	Unit        string
	Meta        entity.StockMeta
	Actor       string
}

// FindByIdentity busca el registro de la identidad en el almacén. Lectura pura.
// Devuelve un *domain.StockError con Kind domain.ErrNotFound si no existe.
func (uc *StockUseCase) FindByIdentity(ctx context.Context, warehouseID string, identity domain.Identity) (*entity.StockRecord, error) {
	if warehouseID == "" || !inventory.ValidIdentity(identity) {
		return nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "find_by_identity", WarehouseID: warehouseID, Identity: identity}
	}
	var rec *entity.StockRecord
	err := uc.opts.Retry.run(ctx, uc.opts.Logger, "find_by_identity", func() error {
		var err error
		rec, err = uc.read.Stock.FindByIdentity(ctx, warehouseID, inventory.IdentityKey(identity))
		return err
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &domain.StockError{Kind: domain.ErrNotFound, Op: "find_by_identity", WarehouseID: warehouseID, Identity: inventory.CleanIdentity(identity)}
	}
	return rec, nil
}

// ApplyDelta aplica un delta con signo sobre (almacén, identidad) en su propia transacción.
// Débito que dejaría negativo → ErrInsufficientStock; unidad distinta → ErrUnitMismatch;
// crédito sin registro → crea el registro. Con registro existente los metadatos presentes en
// Meta se escriben junto con la cantidad. Los conflictos de versión se reintentan.
func (uc *StockUseCase) ApplyDelta(ctx context.Context, in ApplyDeltaInput) (*entity.StockRecord, error) {
	if in.WarehouseID == "" || !inventory.ValidIdentity(in.Identity) {
		return nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "apply_delta", WarehouseID: in.WarehouseID, Identity: in.Identity}
	}
	if in.Delta.IsZero() {
		return nil, &domain.StockError{Kind: domain.ErrInvalidQuantity, Op: "apply_delta", WarehouseID: in.WarehouseID, Identity: in.Identity}
	}
	if in.Meta.MinThreshold != nil && in.Meta.MinThreshold.IsNegative() {
		return nil, &domain.StockError{Kind: domain.ErrInvalidQuantity, Op: "apply_delta", WarehouseID: in.WarehouseID, Identity: in.Identity, Requested: *in.Meta.MinThreshold}
	}
	key := inventory.IdentityKey(in.Identity)

	var out *entity.StockRecord
	err := uc.opts.Retry.run(ctx, uc.opts.Logger, "apply_delta", func() error {
		return uc.tx.Run(ctx, func(r Repos) error {
			if _, err := requireWarehouse(ctx, r.Warehouses, in.WarehouseID); err != nil {
				return err
			}
			locked, err := r.Stock.LockIdentity(ctx, key, in.WarehouseID)
			if err != nil {
				return err
			}
			now := uc.opts.Now()
			res, err := inventory.ApplyDelta(locked[in.WarehouseID], in.WarehouseID, in.Identity, in.Delta, in.Unit, in.Meta, now)
			if err != nil {
				return err
			}
			if !res.Created && inventory.HasMeta(in.Meta) {
				if res.Record, err = inventory.ApplyMeta(res.Record, in.Meta, now); err != nil {
					return err
				}
			}
			if err := persist(ctx, r.Stock, res); err != nil {
				return err
			}
			out = res.Record
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.opts.Logger.Info().
		Str("almacen", in.WarehouseID).
		Str("producto", out.Identity.String()).
		Str("delta", in.Delta.String()).
		Str("cantidad", out.Quantity.String()).
		Str("actor", actorOrDefault(in.Actor)).
		Msg("ajuste de stock aplicado")
	return out, nil
}

// UpdateMetaInput entrada de UpdateMeta. Los campos ausentes de Meta no cambian.
type UpdateMetaInput struct {
	WarehouseID string
	RecordID    string
	Meta        entity.StockMeta
	Actor       string
}

// UpdateMeta edita los datos descriptivos (stock mínimo, lote, vencimiento, notas) de un
// registro sin tocar cantidad ni unidad. La escritura verifica versión y se reintenta.
func (uc *StockUseCase) UpdateMeta(ctx context.Context, in UpdateMetaInput) (*entity.StockRecord, error) {
	if in.WarehouseID == "" || in.RecordID == "" || !inventory.HasMeta(in.Meta) {
		return nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "update_meta", WarehouseID: in.WarehouseID}
	}

	var out *entity.StockRecord
	err := uc.opts.Retry.run(ctx, uc.opts.Logger, "update_meta", func() error {
		return uc.tx.Run(ctx, func(r Repos) error {
			found, err := r.Stock.GetByID(ctx, in.RecordID)
			if err != nil {
				return err
			}
			if found == nil || found.WarehouseID != in.WarehouseID {
				return &domain.StockError{Kind: domain.ErrNotFound, Op: "update_meta", WarehouseID: in.WarehouseID}
			}
			locked, err := r.Stock.LockIdentity(ctx, found.IdentityKey, in.WarehouseID)
			if err != nil {
				return err
			}
			current := locked[in.WarehouseID]
			if current == nil || current.ID != in.RecordID {
				return &domain.StockError{Kind: domain.ErrNotFound, Op: "update_meta", WarehouseID: in.WarehouseID, Identity: found.Identity}
			}
			rec, err := inventory.ApplyMeta(current, in.Meta, uc.opts.Now())
			if err != nil {
				return err
			}
			if err := r.Stock.Update(ctx, rec); err != nil {
				return err
			}
			out = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	uc.opts.Logger.Info().
		Str("almacen", in.WarehouseID).
		Str("producto", out.Identity.String()).
		Str("stock_minimo", out.MinThreshold.String()).
		Str("actor", actorOrDefault(in.Actor)).
		Msg("datos de stock actualizados")
	return out, nil
}

// ListByWarehouse lista los registros de stock de un almacén.
func (uc *StockUseCase) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockRecord, error) {
	if _, err := requireWarehouse(ctx, uc.read.Warehouses, warehouseID); err != nil {
		return nil, err
	}
	return uc.read.Stock.ListByWarehouse(ctx, warehouseID)
}

// TotalByIdentity suma la cantidad de una identidad en todos los almacenes.
func (uc *StockUseCase) TotalByIdentity(ctx context.Context, identity domain.Identity) (decimal.Decimal, []*entity.StockRecord, error) {
	if !inventory.ValidIdentity(identity) {
		return decimal.Zero, nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "total_by_identity", Identity: identity}
	}
	list, err := uc.read.Stock.ListByIdentity(ctx, inventory.IdentityKey(identity))
	if err != nil {
		return decimal.Zero, nil, err
	}
	total := decimal.Zero
	for _, r := range list {
		total = total.Add(r.Quantity)
	}
	return total, list, nil
}

// applyDeltaTx aplica la regla de dominio sobre current (nil = sin registro) y persiste el
// resultado con una única escritura. Compartido por ajustes, transferencias y recepciones.
func applyDeltaTx(
	ctx context.Context,
	stock repository.StockRepository,
	current *entity.StockRecord,
	warehouseID string,
	identity domain.Identity,
	delta decimal.Decimal,
	unit string,
	meta entity.StockMeta,
	now time.Time,
) (*entity.StockRecord, error) {
	res, err := inventory.ApplyDelta(current, warehouseID, identity, delta, unit, meta, now)
	if err != nil {
		return nil, err
	}
	if err := persist(ctx, stock, res); err != nil {
		return nil, err
	}
	return res.Record, nil
}

func persist(ctx context.Context, stock repository.StockRepository, res *inventory.DeltaResult) error {
	if res.Created {
		return stock.Create(ctx, res.Record)
	}
	return stock.Update(ctx, res.Record)
}

func requireWarehouse(ctx context.Context, repo repository.WarehouseRepository, id string) (*entity.Warehouse, error) {
	if id == "" {
		return nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "warehouse"}
	}
	w, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, &domain.StockError{Kind: domain.ErrNotFound, Op: "warehouse", WarehouseID: id}
	}
	return w, nil
}

// DefaultActor actor de auditoría cuando el llamador no envía uno.
const DefaultActor = "Sistema"

func actorOrDefault(actor string) string {
	if actor == "" {
		return DefaultActor
	}
	return actor
}
