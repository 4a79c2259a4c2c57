package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// autoKeyPrefix marca claves de idempotencia generadas por el servidor.
const autoKeyPrefix = "auto-"

// TransferUseCase mueve cantidad de un almacén a otro como una sola unidad atómica
// (débito en origen, crédito en destino y línea en el libro).
type TransferUseCase struct {
	tx   TxRunner
	opts Options
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(tx TxRunner, opts Options) *TransferUseCase {
	return &TransferUseCase{tx: tx, opts: opts.withDefaults()}
}

// TransferInput entrada de Transfer. Unit vacío adopta la unidad del registro de origen.
// IdempotencyKey opcional: reintentos del cliente con la misma clave no duplican la transferencia.
type TransferInput struct {
	Identity          domain.Identity
	SourceWarehouseID string
	DestWarehouseID   string
	Quantity          decimal.Decimal
	Unit              string
	Actor             string
	Notes             string
	IdempotencyKey    string
}

// Transfer valida en orden (cantidad > 0, almacenes distintos, existencia y stock suficiente)
// y ejecuta débito + crédito + registro en una transacción. Cualquier fallo deja el stock intacto.
// Si la clave de idempotencia ya fue usada devuelve la transferencia original sin tocar stock;
// si se usó con otro producto, almacenes o cantidad devuelve ErrIdempotencyMismatch.
func (uc *TransferUseCase) Transfer(ctx context.Context, in TransferInput) (*entity.TransferRecord, error) {
	if !in.Quantity.IsPositive() {
		return nil, &domain.StockError{Kind: domain.ErrInvalidQuantity, Op: "transfer", Identity: in.Identity, Requested: in.Quantity, Unit: in.Unit}
	}
	if in.SourceWarehouseID == in.DestWarehouseID {
		return nil, &domain.StockError{Kind: domain.ErrSameWarehouse, Op: "transfer", WarehouseID: in.SourceWarehouseID, Identity: in.Identity}
	}
	if in.SourceWarehouseID == "" || in.DestWarehouseID == "" || !inventory.ValidIdentity(in.Identity) {
		return nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "transfer", Identity: in.Identity}
	}

	key := in.IdempotencyKey
	if key == "" {
		// Clave propia: los reintentos internos tras un commit ambiguo encuentran la transferencia ya hecha.
		key = autoKeyPrefix + uuid.New().String()
	}
	identityKey := inventory.IdentityKey(in.Identity)

	var (
		out      *entity.TransferRecord
		replayed bool
	)
	err := uc.opts.Retry.run(ctx, uc.opts.Logger, "transfer", func() error {
		replayed = false
		return uc.tx.Run(ctx, func(r Repos) error {
			prev, err := r.Transfers.GetByIdempotencyKey(ctx, key)
			if err != nil {
				return err
			}
			if prev != nil {
				if !sameTransfer(prev, in, identityKey) {
					return &domain.StockError{
						Kind:        domain.ErrIdempotencyMismatch,
						Op:          "transfer",
						WarehouseID: prev.SourceWarehouseID,
						Identity:    prev.Identity,
						Requested:   in.Quantity,
						Available:   prev.Quantity,
						Unit:        prev.Unit,
					}
				}
				out, replayed = prev, true
				return nil
			}

			src, err := requireWarehouse(ctx, r.Warehouses, in.SourceWarehouseID)
			if err != nil {
				return err
			}
			if _, err := requireWarehouse(ctx, r.Warehouses, in.DestWarehouseID); err != nil {
				return err
			}

			locked, err := r.Stock.LockIdentity(ctx, identityKey, in.SourceWarehouseID, in.DestWarehouseID)
			if err != nil {
				return err
			}
			source := locked[in.SourceWarehouseID]
			if source == nil {
				return &domain.StockError{
					Kind:        domain.ErrInsufficientStock,
					Op:          "transfer",
					WarehouseID: in.SourceWarehouseID,
					Identity:    inventory.CleanIdentity(in.Identity),
					Requested:   in.Quantity,
					Available:   decimal.Zero,
					Unit:        inventory.NormalizeUnit(in.Unit),
				}
			}
			if in.Unit != "" && !inventory.SameUnit(in.Unit, source.Unit) {
				return &domain.StockError{
					Kind:         domain.ErrUnitMismatch,
					Op:           "transfer",
					WarehouseID:  in.SourceWarehouseID,
					Identity:     source.Identity,
					Unit:         inventory.NormalizeUnit(in.Unit),
					ExpectedUnit: source.Unit,
				}
			}
			if source.Quantity.LessThan(in.Quantity) {
				return &domain.StockError{
					Kind:        domain.ErrInsufficientStock,
					Op:          "transfer",
					WarehouseID: in.SourceWarehouseID,
					Identity:    source.Identity,
					Requested:   in.Quantity,
					Available:   source.Quantity,
					Unit:        source.Unit,
				}
			}

			now := uc.opts.Now()
			debited, err := applyDeltaTx(ctx, r.Stock, source, in.SourceWarehouseID, source.Identity, in.Quantity.Neg(), source.Unit, entity.StockMeta{}, now)
			if err != nil {
				return err
			}
			threshold := source.MinThreshold
			meta := entity.StockMeta{
				MinThreshold: &threshold,
				Lot:          source.Lot,
				ExpiresOn:    source.ExpiresOn,
				Notes:        fmt.Sprintf("Transferido desde %s el %s", src.Name, now.Format("02/01/2006")),
			}
			// Con registro existente en destino la unidad debe coincidir; si no, ErrUnitMismatch y Rollback del débito.
			if _, err := applyDeltaTx(ctx, r.Stock, locked[in.DestWarehouseID], in.DestWarehouseID, source.Identity, in.Quantity, source.Unit, meta, now); err != nil {
				return err
			}

			rec := &entity.TransferRecord{
				ID:                uuid.New().String(),
				Identity:          source.Identity,
				IdentityKey:       source.IdentityKey,
				SourceRecordID:    debited.ID,
				Quantity:          in.Quantity,
				Unit:              source.Unit,
				SourceWarehouseID: in.SourceWarehouseID,
				DestWarehouseID:   in.DestWarehouseID,
				Actor:             actorOrDefault(in.Actor),
				Timestamp:         now,
				Notes:             in.Notes,
				IdempotencyKey:    key,
			}
			if err := r.Transfers.Create(ctx, rec); err != nil {
				return err
			}
			out = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	ev := uc.opts.Logger.Info().
		Str("transferencia", out.ID).
		Str("producto", out.Identity.String()).
		Str("cantidad", out.Quantity.String()).
		Str("unidad", out.Unit).
		Str("origen", out.SourceWarehouseID).
		Str("destino", out.DestWarehouseID).
		Str("actor", out.Actor)
	if replayed {
		ev.Msg("transferencia repetida, se devuelve la original")
	} else {
		ev.Msg("transferencia registrada")
	}
	return out, nil
}

func sameTransfer(prev *entity.TransferRecord, in TransferInput, identityKey string) bool {
	return prev.IdentityKey == identityKey &&
		prev.SourceWarehouseID == in.SourceWarehouseID &&
		prev.DestWarehouseID == in.DestWarehouseID &&
		prev.Quantity.Equal(in.Quantity) &&
		(in.Unit == "" || inventory.SameUnit(in.Unit, prev.Unit))
}
