package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DeltaResult resultado de aplicar un delta sobre un registro de stock.
type DeltaResult struct {
	Record  *entity.StockRecord
	Created bool
}

// ApplyDelta aplica la regla del mutador de stock (servicio de dominio, sin E/S):
//   - delta == 0 es inválido;
//   - un débito nunca deja la cantidad en negativo (sin registro se considera disponible 0);
//   - la unidad del registro existente no cambia: una unidad distinta falla con ErrUnitMismatch;
//   - un crédito sin registro crea uno nuevo con los metadatos recibidos.
//
// current no se modifica; el resultado es siempre una copia.
func ApplyDelta(
	current *entity.StockRecord,
	warehouseID string,
	identity domain.Identity,
	delta decimal.Decimal,
	unit string,
	meta entity.StockMeta,
	now time.Time,
) (*DeltaResult, error) {
	identity = CleanIdentity(identity)
	unit = NormalizeUnit(unit)
	if delta.IsZero() {
		return nil, &domain.StockError{Kind: domain.ErrInvalidQuantity, Op: "apply_delta", WarehouseID: warehouseID, Identity: identity}
	}

	if current == nil {
		if delta.IsNegative() {
			return nil, &domain.StockError{
				Kind:        domain.ErrInsufficientStock,
				Op:          "apply_delta",
				WarehouseID: warehouseID,
				Identity:    identity,
				Requested:   delta.Neg(),
				Available:   decimal.Zero,
				Unit:        unit,
			}
		}
		if unit == "" {
			return nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "apply_delta", WarehouseID: warehouseID, Identity: identity}
		}
		rec := &entity.StockRecord{
			ID:          uuid.New().String(),
			WarehouseID: warehouseID,
			Identity:    identity,
			IdentityKey: IdentityKey(identity),
			Quantity:    delta,
			Unit:        unit,
			Lot:         meta.Lot,
			ExpiresOn:   meta.ExpiresOn,
			Notes:       meta.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if meta.MinThreshold != nil {
			rec.MinThreshold = *meta.MinThreshold
		}
		return &DeltaResult{Record: rec, Created: true}, nil
	}

	if unit != "" && !SameUnit(unit, current.Unit) {
		return nil, &domain.StockError{
			Kind:         domain.ErrUnitMismatch,
			Op:           "apply_delta",
			WarehouseID:  current.WarehouseID,
			Identity:     current.Identity,
			Unit:         unit,
			ExpectedUnit: current.Unit,
		}
	}
	next := current.Quantity.Add(delta)
	if next.IsNegative() {
		return nil, &domain.StockError{
			Kind:        domain.ErrInsufficientStock,
			Op:          "apply_delta",
			WarehouseID: current.WarehouseID,
			Identity:    current.Identity,
			Requested:   delta.Neg(),
			Available:   current.Quantity,
			Unit:        current.Unit,
		}
	}
	rec := current.Clone()
	rec.Quantity = next
	rec.UpdatedAt = now
	return &DeltaResult{Record: rec}, nil
}

// HasMeta indica si meta trae algún campo para escribir.
func HasMeta(meta entity.StockMeta) bool {
	return meta.MinThreshold != nil || meta.Lot != "" || meta.ExpiresOn != nil || meta.Notes != ""
}

// ApplyMeta copia sobre una copia de current los campos presentes en meta; los ausentes
// (nil o texto vacío) no cambian. Cantidad, unidad e identidad nunca cambian.
// Un stock mínimo negativo falla con ErrInvalidQuantity.
func ApplyMeta(current *entity.StockRecord, meta entity.StockMeta, now time.Time) (*entity.StockRecord, error) {
	if meta.MinThreshold != nil && meta.MinThreshold.IsNegative() {
		return nil, &domain.StockError{
			Kind:        domain.ErrInvalidQuantity,
			Op:          "apply_meta",
			WarehouseID: current.WarehouseID,
			Identity:    current.Identity,
			Requested:   *meta.MinThreshold,
			Unit:        current.Unit,
		}
	}
	rec := current.Clone()
	if meta.MinThreshold != nil {
		rec.MinThreshold = *meta.MinThreshold
	}
	if meta.Lot != "" {
		rec.Lot = meta.Lot
	}
	if meta.ExpiresOn != nil {
		t := *meta.ExpiresOn
		rec.ExpiresOn = &t
	}
	if meta.Notes != "" {
		rec.Notes = meta.Notes
	}
	rec.UpdatedAt = now
	return rec, nil
}
