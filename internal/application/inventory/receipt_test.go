package inventory_test

import (
	"context"
	"testing"

	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func purchase(id string, items ...entity.PurchaseLineItem) entity.PurchaseCompleted {
	return entity.PurchaseCompleted{PurchaseID: id, DestWarehouseID: "w2", LineItems: items, Actor: "compras"}
}

func line(id domain.Identity, q, unit string) entity.PurchaseLineItem {
	return entity.PurchaseLineItem{Identity: id, Quantity: qty(q), Unit: unit}
}

func TestReceive_EventoDuplicadoNoAcreditaDosVeces(t *testing.T) {
	e := newEngine(t, "w1", "w2")
	ctx := context.Background()
	e.seed(t, "w2", urea, "40", "kg")
	ev := purchase("P-1", line(urea, "500", "kg"))

	res, err := e.receipt.Receive(ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.False(t, res.Duplicate)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, inventory.LineApplied, res.Lines[0].Status)

	res, err = e.receipt.Receive(ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)

	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("540")))
}

func TestReceive_CreaRegistrosNuevosConMetadatos(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()
	threshold := qty("20")
	semilla := domain.Identity{Name: "Maíz amarillo", Category: "Semilla"}
	item := line(semilla, "12.5", "bulto")
	item.Lot = "LT-3"
	item.MinThreshold = &threshold

	res, err := e.receipt.Receive(ctx, purchase("P-2", item, line(urea, "100", "kg")))
	require.NoError(t, err)
	assert.Empty(t, res.Failed())

	rec, err := e.stock.FindByIdentity(ctx, "w2", semilla)
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(qty("12.5")))
	assert.Equal(t, "LT-3", rec.Lot)
	assert.True(t, rec.MinThreshold.Equal(threshold))
	assert.Equal(t, "Recibido por compra P-2 (renglón 1)", rec.Notes)
}

func TestReceive_RenglonFallidoNoRevierteLosDemas(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()
	e.seed(t, "w2", urea, "10", "kg")
	glifosato := domain.Identity{Name: "Glifosato", Category: "Herbicida"}
	ev := purchase("P-3", line(glifosato, "8", "L"), line(urea, "5", "bulto"))

	res, err := e.receipt.Receive(ctx, ev)
	require.NoError(t, err)
	assert.False(t, res.Completed)
	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].LineNo)
	assert.ErrorIs(t, failed[0].Err, domain.ErrUnitMismatch)
	assert.True(t, e.quantity(t, "w2", glifosato).Equal(qty("8")))

	// reentrega corregida: el renglón 1 no se acredita de nuevo
	ev.LineItems[1].Unit = "kg"
	res, err = e.receipt.Receive(ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, inventory.LineAlreadyApplied, res.Lines[0].Status)
	assert.Equal(t, inventory.LineApplied, res.Lines[1].Status)
	assert.True(t, e.quantity(t, "w2", glifosato).Equal(qty("8")))
	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("15")))
}

func TestReceive_ReentregaReordenadaNoAcreditaDosVeces(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()
	maiz := domain.Identity{Name: "Maíz", Category: "Semilla"}
	e.seed(t, "w2", maiz, "5", "kg")

	res, err := e.receipt.Receive(ctx, purchase("P-9", line(urea, "500", "kg"), line(maiz, "20", "L")))
	require.NoError(t, err)
	assert.False(t, res.Completed)
	require.Len(t, res.Failed(), 1)
	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("500")))

	// misma compra con los renglones en otro orden y el fallido corregido
	reorder := purchase("P-9", line(maiz, "20", "kg"), line(domain.Identity{Name: "  UREA ", Category: "fertilizante"}, "500", "kg"))
	res, err = e.receipt.Receive(ctx, reorder)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, inventory.LineApplied, res.Lines[0].Status)
	assert.Equal(t, inventory.LineAlreadyApplied, res.Lines[1].Status)
	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("500")))
	assert.True(t, e.quantity(t, "w2", maiz).Equal(qty("25")))
}

func TestReceive_MismoProductoDosVecesEnLaCompra(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()
	glifosato := domain.Identity{Name: "Glifosato", Category: "Herbicida"}
	e.seed(t, "w2", glifosato, "1", "L")

	ev := purchase("P-12", line(urea, "10", "kg"), line(glifosato, "3", "kg"), line(urea, "10", "kg"))
	res, err := e.receipt.Receive(ctx, ev)
	require.NoError(t, err)
	require.Len(t, res.Failed(), 1)
	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("20")))

	ev.LineItems[1].Unit = "L"
	res, err = e.receipt.Receive(ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("20")))
	assert.True(t, e.quantity(t, "w2", glifosato).Equal(qty("4")))
}

func TestReceive_ReentregaConOtraCantidadSeRechaza(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()
	glifosato := domain.Identity{Name: "Glifosato", Category: "Herbicida"}
	e.seed(t, "w2", glifosato, "1", "kg")

	res, err := e.receipt.Receive(ctx, purchase("P-11", line(urea, "50", "kg"), line(glifosato, "8", "L")))
	require.NoError(t, err)
	require.Len(t, res.Failed(), 1)

	res, err = e.receipt.Receive(ctx, purchase("P-11", line(urea, "60", "kg"), line(glifosato, "8", "kg")))
	require.NoError(t, err)
	assert.False(t, res.Completed)
	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].LineNo)
	assert.ErrorIs(t, failed[0].Err, domain.ErrIdempotencyMismatch)
	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("50")))
	assert.True(t, e.quantity(t, "w2", glifosato).Equal(qty("9")))
}

func TestReceive_Validaciones(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()

	_, err := e.receipt.Receive(ctx, purchase("", line(urea, "1", "kg")))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.receipt.Receive(ctx, purchase("P-4"))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	ev := purchase("P-5", line(urea, "1", "kg"))
	ev.DestWarehouseID = "w9"
	_, err = e.receipt.Receive(ctx, ev)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := e.receipt.Receive(ctx, purchase("P-6", line(urea, "0", "kg")))
	require.NoError(t, err)
	require.Len(t, res.Failed(), 1)
	assert.ErrorIs(t, res.Failed()[0].Err, domain.ErrInvalidQuantity)
}

func TestHandleTransition_SoloElBordeACompletadoDispara(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()
	items := []entity.PurchaseLineItem{line(urea, "10", "kg")}
	tr := func(from, to string) entity.PurchaseTransition {
		return entity.PurchaseTransition{PurchaseID: "P-7", From: from, To: to, DestWarehouseID: "w2", LineItems: items}
	}

	_, fired, err := e.receipt.HandleTransition(ctx, tr(entity.PurchaseStatusPending, entity.PurchaseStatusPending))
	require.NoError(t, err)
	assert.False(t, fired)

	_, fired, err = e.receipt.HandleTransition(ctx, tr(entity.PurchaseStatusPending, entity.PurchaseStatusCancelled))
	require.NoError(t, err)
	assert.False(t, fired)

	res, fired, err := e.receipt.HandleTransition(ctx, tr(entity.PurchaseStatusPending, entity.PurchaseStatusCompleted))
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, res.Completed)

	// Completado → Completado no hace nada
	_, fired, err = e.receipt.HandleTransition(ctx, tr(entity.PurchaseStatusCompleted, entity.PurchaseStatusCompleted))
	require.NoError(t, err)
	assert.False(t, fired)

	_, _, err = e.receipt.HandleTransition(ctx, tr(entity.PurchaseStatusCompleted, entity.PurchaseStatusPending))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, _, err = e.receipt.HandleTransition(ctx, tr(entity.PurchaseStatusPending, "Enviado"))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("10")))
}

func TestHandleTransition_CreadaComoCompletada(t *testing.T) {
	e := newEngine(t, "w2")
	ctx := context.Background()
	tr := entity.PurchaseTransition{
		PurchaseID: "P-8", From: "", To: entity.PurchaseStatusCompleted, DestWarehouseID: "w2",
		LineItems: []entity.PurchaseLineItem{line(urea, "3", "kg")},
	}

	_, fired, err := e.receipt.HandleTransition(ctx, tr)
	require.NoError(t, err)
	assert.True(t, fired)

	// evento repetido
	res, fired, err := e.receipt.HandleTransition(ctx, tr)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.True(t, res.Duplicate)
	assert.True(t, e.quantity(t, "w2", urea).Equal(qty("3")))
}
