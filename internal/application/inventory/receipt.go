package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Estado de cada renglón en una recepción.
const (
	LineApplied        = "applied"
	LineAlreadyApplied = "already_applied"
	LineFailed         = "failed"
)

// LineResult resultado por renglón.
type LineResult struct {
	LineNo   int
	Identity domain.Identity
	Quantity decimal.Decimal
	Unit     string
	Status   string
	Record   *entity.StockRecord
	Err      error
}

// ReceiptResult resultado de Receive. Duplicate = la compra ya estaba procesada por completo
// y no se tocó stock. Completed = todos los renglones quedaron acreditados.
type ReceiptResult struct {
	PurchaseID      string
	DestWarehouseID string
	Duplicate       bool
	Completed       bool
	Lines           []LineResult
}

// Failed devuelve los renglones fallidos.
func (r *ReceiptResult) Failed() []LineResult {
	var out []LineResult
	for _, l := range r.Lines {
		if l.Status == LineFailed {
			out = append(out, l)
		}
	}
	return out
}

// ReceiptUseCase acredita en stock los renglones de una compra completada, idempotente por PurchaseID.
type ReceiptUseCase struct {
	tx   TxRunner
	read Repos
	opts Options
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(tx TxRunner, read Repos, opts Options) *ReceiptUseCase {
	return &ReceiptUseCase{tx: tx, read: read, opts: opts.withDefaults()}
}

// HandleTransition gancho explícito de cambio de estado de una compra. Solo el borde
// "→ Completado" (desde Pendiente o desde la creación, From vacío) dispara Receive; Completado
// estable y cualquier otra transición no hacen nada. Salir de un estado terminal es inválido.
// fired indica si se ejecutó Receive.
func (uc *ReceiptUseCase) HandleTransition(ctx context.Context, t entity.PurchaseTransition) (result *ReceiptResult, fired bool, err error) {
	if !validStatus(t.To) || (t.From != "" && !validStatus(t.From)) {
		return nil, false, domain.ErrInvalidTransition
	}
	if t.From == t.To {
		return nil, false, nil
	}
	if t.From == entity.PurchaseStatusCompleted || t.From == entity.PurchaseStatusCancelled {
		return nil, false, domain.ErrInvalidTransition
	}
	if t.To != entity.PurchaseStatusCompleted {
		return nil, false, nil
	}
	result, err = uc.Receive(ctx, entity.PurchaseCompleted{
		PurchaseID:      t.PurchaseID,
		DestWarehouseID: t.DestWarehouseID,
		LineItems:       t.LineItems,
		Actor:           t.Actor,
	})
	return result, true, err
}

func validStatus(s string) bool {
	switch s {
	case entity.PurchaseStatusPending, entity.PurchaseStatusCompleted, entity.PurchaseStatusCancelled:
		return true
	}
	return false
}

// Receive acredita cada renglón en el almacén destino (fusionar o crear). Cada renglón se
// acredita en su propia transacción junto con su marca (PurchaseID, producto), así que repetir
// el evento nunca acredita dos veces, aunque la reentrega cambie el orden de los renglones. Un renglón fallido no revierte los ya aplicados: se
// informa en Lines para que el llamador decida. Los errores de la llamada completa (entrada
// inválida, almacén inexistente) se devuelven como error.
func (uc *ReceiptUseCase) Receive(ctx context.Context, ev entity.PurchaseCompleted) (*ReceiptResult, error) {
	if ev.PurchaseID == "" || ev.DestWarehouseID == "" {
		return nil, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "receive", WarehouseID: ev.DestWarehouseID}
	}
	if len(ev.LineItems) == 0 {
		return nil, &domain.StockError{Kind: domain.ErrInvalidQuantity, Op: "receive", WarehouseID: ev.DestWarehouseID}
	}
	result := &ReceiptResult{PurchaseID: ev.PurchaseID, DestWarehouseID: ev.DestWarehouseID}

	var done *entity.Receipt
	err := uc.opts.Retry.run(ctx, uc.opts.Logger, "receive", func() error {
		var err error
		done, err = uc.read.Receipts.GetReceipt(ctx, ev.PurchaseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if done != nil {
		result.Duplicate = true
		result.Completed = true
		uc.opts.Logger.Info().Str("compra", ev.PurchaseID).Msg("compra ya recibida, se ignora el evento repetido")
		return result, nil
	}
	if _, err := requireWarehouse(ctx, uc.read.Warehouses, ev.DestWarehouseID); err != nil {
		return nil, err
	}

	allApplied := true
	keys := lineKeys(ev.LineItems)
	for i, item := range ev.LineItems {
		line := uc.receiveLine(ctx, ev, i+1, keys[i], item)
		if line.Status == LineFailed {
			allApplied = false
		}
		result.Lines = append(result.Lines, line)
	}

	if allApplied {
		err := uc.opts.Retry.run(ctx, uc.opts.Logger, "receive", func() error {
			return uc.tx.Run(ctx, func(r Repos) error {
				return r.Receipts.MarkCompleted(ctx, &entity.Receipt{
					PurchaseID:      ev.PurchaseID,
					DestWarehouseID: ev.DestWarehouseID,
					Lines:           len(ev.LineItems),
					Actor:           actorOrDefault(ev.Actor),
					CompletedAt:     uc.opts.Now(),
				})
			})
		})
		// Otra entrega concurrente del mismo evento ya la marcó.
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		result.Completed = true
	}

	uc.opts.Logger.Info().
		Str("compra", ev.PurchaseID).
		Str("almacen", ev.DestWarehouseID).
		Int("renglones", len(ev.LineItems)).
		Int("fallidos", len(result.Failed())).
		Bool("completa", result.Completed).
		Msg("recepción de compra procesada")
	return result, nil
}

// lineKeys clave estable por renglón: identidad normalizada más el número de ocurrencia de esa
// identidad dentro de la compra ("urea…#1", "urea…#2"). No depende de la posición.
func lineKeys(items []entity.PurchaseLineItem) []string {
	seen := make(map[string]int, len(items))
	keys := make([]string, len(items))
	for i, item := range items {
		k := inventory.IdentityKey(item.Identity)
		seen[k]++
		keys[i] = k + "#" + strconv.Itoa(seen[k])
	}
	return keys
}

func (uc *ReceiptUseCase) receiveLine(ctx context.Context, ev entity.PurchaseCompleted, lineNo int, lineKey string, item entity.PurchaseLineItem) LineResult {
	line := LineResult{
		LineNo:   lineNo,
		Identity: inventory.CleanIdentity(item.Identity),
		Quantity: item.Quantity,
		Unit:     inventory.NormalizeUnit(item.Unit),
	}
	if !inventory.ValidIdentity(item.Identity) {
		line.Status, line.Err = LineFailed, &domain.StockError{Kind: domain.ErrInvalidInput, Op: "receive", WarehouseID: ev.DestWarehouseID, Identity: item.Identity}
		return line
	}
	if !item.Quantity.IsPositive() {
		line.Status, line.Err = LineFailed, &domain.StockError{Kind: domain.ErrInvalidQuantity, Op: "receive", WarehouseID: ev.DestWarehouseID, Identity: line.Identity, Requested: item.Quantity, Unit: line.Unit}
		return line
	}
	key := inventory.IdentityKey(item.Identity)
	meta := entity.StockMeta{
		MinThreshold: item.MinThreshold,
		Lot:          item.Lot,
		ExpiresOn:    item.ExpiresOn,
		Notes:        "Recibido por compra " + ev.PurchaseID + " (renglón " + strconv.Itoa(lineNo) + ")",
	}

	var already bool
	err := uc.opts.Retry.run(ctx, uc.opts.Logger, "receive_line", func() error {
		already = false
		return uc.tx.Run(ctx, func(r Repos) error {
			prev, err := r.Receipts.GetLine(ctx, ev.PurchaseID, lineKey)
			if err != nil {
				return err
			}
			if prev != nil {
				if !prev.Quantity.Equal(item.Quantity) {
					return &domain.StockError{Kind: domain.ErrIdempotencyMismatch, Op: "receive", WarehouseID: ev.DestWarehouseID, Identity: line.Identity, Requested: item.Quantity, Available: prev.Quantity, Unit: prev.Unit}
				}
				already = true
				line.Record, err = r.Stock.GetByID(ctx, prev.StockRecordID)
				return err
			}
			locked, err := r.Stock.LockIdentity(ctx, key, ev.DestWarehouseID)
			if err != nil {
				return err
			}
			now := uc.opts.Now()
			rec, err := applyDeltaTx(ctx, r.Stock, locked[ev.DestWarehouseID], ev.DestWarehouseID, item.Identity, item.Quantity, item.Unit, meta, now)
			if err != nil {
				return err
			}
			line.Record = rec
			// Misma transacción que el crédito: si otra entrega ya marcó el renglón, ErrConflict
			// revierte el crédito y el reintento lo verá como ya aplicado.
			return r.Receipts.MarkLine(ctx, &entity.ReceiptLine{
				PurchaseID:    ev.PurchaseID,
				LineKey:       lineKey,
				StockRecordID: rec.ID,
				Quantity:      item.Quantity,
				Unit:          rec.Unit,
				AppliedAt:     now,
			})
		})
	})
	switch {
	case err != nil:
		line.Status, line.Err, line.Record = LineFailed, err, nil
	case already:
		line.Status = LineAlreadyApplied
	default:
		line.Status = LineApplied
	}
	return line
}
