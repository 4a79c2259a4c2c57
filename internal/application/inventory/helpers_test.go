package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	urea  = domain.Identity{Name: "Urea", Category: "Fertilizante"}
	start = time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
)

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// clock reloj de prueba que avanza un segundo por lectura: los timestamps del libro son únicos y crecientes.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type engine struct {
	store    *memory.Store
	stock    *inventory.StockUseCase
	transfer *inventory.TransferUseCase
	receipt  *inventory.ReceiptUseCase
	ledger   *inventory.LedgerUseCase
	clock    *clock
}

func newEngine(t *testing.T, warehouses ...string) *engine {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	ck := &clock{now: start}
	opts := inventory.DefaultOptions()
	opts.Now = ck.Now
	opts.Retry.BaseDelay = time.Millisecond

	read := store.Repos()
	for _, id := range warehouses {
		require.NoError(t, read.Warehouses.Create(context.Background(), &entity.Warehouse{
			ID: id, Name: "Almacén " + id, CreatedAt: start, UpdatedAt: start,
		}))
	}
	return &engine{
		store:    store,
		stock:    inventory.NewStockUseCase(store, read, opts),
		transfer: inventory.NewTransferUseCase(store, opts),
		receipt:  inventory.NewReceiptUseCase(store, read, opts),
		ledger:   inventory.NewLedgerUseCase(read.Transfers, 2, opts),
		clock:    ck,
	}
}

// seed acredita q unidades de id en el almacén.
func (e *engine) seed(t *testing.T, wh string, id domain.Identity, q, unit string) *entity.StockRecord {
	t.Helper()
	rec, err := e.stock.ApplyDelta(context.Background(), inventory.ApplyDeltaInput{
		WarehouseID: wh, Identity: id, Delta: qty(q), Unit: unit,
	})
	require.NoError(t, err)
	return rec
}

// quantity cantidad actual (0 si no hay registro).
func (e *engine) quantity(t *testing.T, wh string, id domain.Identity) decimal.Decimal {
	t.Helper()
	rec, err := e.stock.FindByIdentity(context.Background(), wh, id)
	if err != nil {
		require.ErrorIs(t, err, domain.ErrNotFound)
		return decimal.Zero
	}
	return rec.Quantity
}

func (e *engine) total(t *testing.T, id domain.Identity) decimal.Decimal {
	t.Helper()
	total, _, err := e.stock.TotalByIdentity(context.Background(), id)
	require.NoError(t, err)
	return total
}

func (e *engine) ledgerLen(t *testing.T) int {
	t.Helper()
	n := 0
	for _, err := range e.ledger.Transfers(context.Background(), inventory.LedgerFilter{}) {
		require.NoError(t, err)
		n++
	}
	return n
}

func metaThreshold(th *decimal.Decimal) entity.StockMeta {
	return entity.StockMeta{MinThreshold: th}
}
