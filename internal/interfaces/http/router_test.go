package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/application/usecase"
	"github.com/jhoicas/agroinsumos-api/internal/infrastructure/cache"
	"github.com/jhoicas/agroinsumos-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/agroinsumos-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/agroinsumos-api/pkg/jwt"
)

type api struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	whCache, err := cache.NewWarehouseCache(16)
	require.NoError(t, err)

	opts := inventory.DefaultOptions()
	opts.Retry.BaseDelay = time.Millisecond
	read := store.Repos()

	app := fiber.New()
	app.Use(apphttp.RequestLogger(zerolog.Nop()))
	apphttp.Router(app, apphttp.RouterDeps{
		WarehouseUC:   usecase.NewWarehouseUseCase(read.Warehouses, whCache),
		StockUC:       inventory.NewStockUseCase(store, read, opts),
		TransferUC:    inventory.NewTransferUseCase(store, opts),
		ReceiptUC:     inventory.NewReceiptUseCase(store, read, opts),
		LedgerUC:      inventory.NewLedgerUseCase(read.Transfers, 10, opts),
		Replenishment: inventory.NewReplenishmentUseCase(read.Stock, read.Warehouses),
		JWTSecret:     testJWTSecret,
	})
	return &api{t: t, app: app}
}

// do envía la petición con un token del rol indicado y decodifica la respuesta en out (si no es nil).
func (a *api) do(method, path, role string, body any, out any, headers ...string) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(a.t, role))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *api) warehouse(name string) string {
	a.t.Helper()
	var out dto.WarehouseResponse
	status := a.do(http.MethodPost, "/api/warehouses", pkgjwt.RoleAdmin, dto.CreateWarehouseRequest{Name: name}, &out)
	require.Equal(a.t, http.StatusCreated, status)
	return out.ID
}

func (a *api) adjust(wh, name, category, delta, unit string) int {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/stock/adjustments", pkgjwt.RoleBodeguero, dto.AdjustStockRequest{
		WarehouseID: wh, Name: name, Category: category, Delta: decimal.RequireFromString(delta), Unit: unit,
	}, nil)
}

func (a *api) lookup(wh, name, category string) (dto.StockRecordResponse, int) {
	a.t.Helper()
	var out dto.StockRecordResponse
	q := "/api/warehouses/" + wh + "/stock/lookup?name=" + name + "&category=" + category
	status := a.do(http.MethodGet, q, pkgjwt.RoleConsulta, nil, &out)
	return out, status
}

func TestAPI_TransferenciaFusionaYRegistra(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	sur := a.warehouse("Sur")
	require.Equal(t, http.StatusOK, a.adjust(norte, "Urea", "Fertilizante", "100", "kg"))
	require.Equal(t, http.StatusOK, a.adjust(sur, "urea", "FERTILIZANTE", "10", "kg"))

	var tr dto.TransferResponse
	status := a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleBodeguero, dto.TransferRequest{
		Name: "Urea", Category: "Fertilizante", SourceWarehouseID: norte, DestWarehouseID: sur,
		Quantity: decimal.NewFromInt(40), Unit: "kg",
	}, &tr)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, testUserID, tr.Actor, "sin actor en el body se usa el usuario del token")

	src, _ := a.lookup(norte, "Urea", "Fertilizante")
	dst, _ := a.lookup(sur, "Urea", "Fertilizante")
	assert.True(t, src.Quantity.Equal(decimal.NewFromInt(60)))
	assert.True(t, dst.Quantity.Equal(decimal.NewFromInt(50)))

	var page dto.TransferListResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/transfers?warehouse_id="+sur, pkgjwt.RoleConsulta, nil, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, tr.ID, page.Items[0].ID)

	var one dto.TransferResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/transfers/"+tr.ID, pkgjwt.RoleConsulta, nil, &one))
	assert.Equal(t, norte, one.SourceWarehouseID)
}

func TestAPI_TransferenciaStockInsuficiente(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	sur := a.warehouse("Sur")
	require.Equal(t, http.StatusOK, a.adjust(norte, "Urea", "Fertilizante", "60", "kg"))

	var er dto.ErrorResponse
	status := a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleAdmin, dto.TransferRequest{
		Name: "Urea", Category: "Fertilizante", SourceWarehouseID: norte, DestWarehouseID: sur,
		Quantity: decimal.NewFromInt(100),
	}, &er)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", er.Code)
	assert.Equal(t, "60", er.Details["available"])
	assert.Equal(t, "100", er.Details["requested"])
	assert.Contains(t, er.Message, "Disponible: 60 kg")

	_, st := a.lookup(sur, "Urea", "Fertilizante")
	assert.Equal(t, http.StatusNotFound, st)
}

func TestAPI_TransferenciaValidaciones(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")

	cases := []struct {
		name   string
		req    dto.TransferRequest
		status int
		code   string
	}{
		{"cantidad cero", dto.TransferRequest{Name: "Urea", Category: "F", SourceWarehouseID: norte, DestWarehouseID: "x"}, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"mismo almacén", dto.TransferRequest{Name: "Urea", Category: "F", SourceWarehouseID: norte, DestWarehouseID: norte, Quantity: decimal.NewFromInt(1)}, http.StatusBadRequest, "SAME_WAREHOUSE"},
		{"destino inexistente", dto.TransferRequest{Name: "Urea", Category: "F", SourceWarehouseID: norte, DestWarehouseID: "no-existe", Quantity: decimal.NewFromInt(1)}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var er dto.ErrorResponse
			assert.Equal(t, tc.status, a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleAdmin, tc.req, &er))
			assert.Equal(t, tc.code, er.Code)
		})
	}
}

func TestAPI_TransferenciaIdempotencyKey(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	sur := a.warehouse("Sur")
	require.Equal(t, http.StatusOK, a.adjust(norte, "Urea", "Fertilizante", "100", "kg"))

	req := dto.TransferRequest{
		Name: "Urea", Category: "Fertilizante", SourceWarehouseID: norte, DestWarehouseID: sur,
		Quantity: decimal.NewFromInt(30),
	}
	var first, second dto.TransferResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleAdmin, req, &first, apphttp.HeaderIdempotencyKey, "k-1"))
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleAdmin, req, &second, apphttp.HeaderIdempotencyKey, "k-1"))
	assert.Equal(t, first.ID, second.ID)

	src, _ := a.lookup(norte, "Urea", "Fertilizante")
	assert.True(t, src.Quantity.Equal(decimal.NewFromInt(70)))
}

func TestAPI_ClaveReusadaConOtrosDatos(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	sur := a.warehouse("Sur")
	oeste := a.warehouse("Oeste")
	require.Equal(t, http.StatusOK, a.adjust(norte, "Urea", "Fertilizante", "100", "kg"))

	req := dto.TransferRequest{
		Name: "Urea", Category: "Fertilizante", SourceWarehouseID: norte, DestWarehouseID: sur,
		Quantity: decimal.NewFromInt(30),
	}
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleAdmin, req, nil, apphttp.HeaderIdempotencyKey, "k-2"))

	req.DestWarehouseID = oeste
	req.Quantity = decimal.NewFromInt(50)
	var er dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleAdmin, req, &er, apphttp.HeaderIdempotencyKey, "k-2"))
	assert.Equal(t, "IDEMPOTENCY_MISMATCH", er.Code)

	_, st := a.lookup(oeste, "Urea", "Fertilizante")
	assert.Equal(t, http.StatusNotFound, st)
	src, _ := a.lookup(norte, "Urea", "Fertilizante")
	assert.True(t, src.Quantity.Equal(decimal.NewFromInt(70)))
}

func TestAPI_CantidadNoNumerica(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	sur := a.warehouse("Sur")

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{"transferencia", "/api/transfers", map[string]any{
			"name": "Urea", "category": "Fertilizante", "source_warehouse_id": norte, "dest_warehouse_id": sur, "quantity": "abc",
		}},
		{"ajuste", "/api/stock/adjustments", map[string]any{
			"warehouse_id": norte, "name": "Urea", "category": "Fertilizante", "delta": true, "unit": "kg",
		}},
		{"recepción", "/api/receipts", map[string]any{
			"purchase_id": "C-1", "dest_warehouse_id": sur,
			"line_items": []map[string]any{{"name": "Urea", "category": "Fertilizante", "quantity": "diez", "unit": "kg"}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var er dto.ErrorResponse
			assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, tc.path, pkgjwt.RoleAdmin, tc.body, &er))
			assert.Equal(t, "INVALID_QUANTITY", er.Code)
		})
	}

	var er dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/transfers", pkgjwt.RoleAdmin, map[string]any{"name": 5}, &er))
	assert.Equal(t, "INVALID_BODY", er.Code)
}

func TestAPI_EditarDatosDelInsumo(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	require.Equal(t, http.StatusOK, a.adjust(norte, "Urea", "Fertilizante", "8", "kg"))
	rec, _ := a.lookup(norte, "Urea", "Fertilizante")

	minimo := decimal.NewFromInt(10)
	var out dto.StockRecordResponse
	status := a.do(http.MethodPut, "/api/warehouses/"+norte+"/stock/"+rec.ID, pkgjwt.RoleBodeguero, dto.UpdateStockMetaRequest{
		MinThreshold: &minimo, Lot: "L-2",
	}, &out)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, out.Quantity.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, "kg", out.Unit)
	assert.Equal(t, "L-2", out.Lot)

	var low []dto.ReplenishmentSuggestionDTO
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/stock/low", pkgjwt.RoleConsulta, nil, &low))
	require.Len(t, low, 1)
	assert.Equal(t, rec.ID, low[0].StockRecordID)

	// el ajuste sobre un registro existente también escribe los metadatos
	nuevo := decimal.NewFromInt(2)
	status = a.do(http.MethodPost, "/api/stock/adjustments", pkgjwt.RoleBodeguero, dto.AdjustStockRequest{
		WarehouseID: norte, Name: "Urea", Category: "Fertilizante", Delta: decimal.NewFromInt(1), Unit: "kg",
		MinThreshold: &nuevo, Notes: "recontado",
	}, &out)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, out.Quantity.Equal(decimal.NewFromInt(9)))
	assert.True(t, out.MinThreshold.Equal(nuevo))
	assert.Equal(t, "recontado", out.Notes)

	var er dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPut, "/api/warehouses/"+norte+"/stock/"+rec.ID, pkgjwt.RoleConsulta, dto.UpdateStockMetaRequest{Lot: "x"}, &er))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/api/warehouses/"+norte+"/stock/otro", pkgjwt.RoleAdmin, dto.UpdateStockMetaRequest{Lot: "x"}, &er))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/api/warehouses/"+norte+"/stock/"+rec.ID, pkgjwt.RoleAdmin, dto.UpdateStockMetaRequest{}, &er))
	assert.Equal(t, "VALIDATION", er.Code)
}

func TestAPI_AjusteUnidadIncompatible(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	require.Equal(t, http.StatusOK, a.adjust(norte, "Glifosato", "Herbicida", "20", "L"))

	var er dto.ErrorResponse
	status := a.do(http.MethodPost, "/api/stock/adjustments", pkgjwt.RoleAdmin, dto.AdjustStockRequest{
		WarehouseID: norte, Name: "glifosato", Category: "herbicida", Delta: decimal.NewFromInt(5), Unit: "kg",
	}, &er)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "UNIT_MISMATCH", er.Code)
	assert.Equal(t, "kg", er.Details["unit"])
}

func TestAPI_AjusteRequiereRolOperativo(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	status := a.do(http.MethodPost, "/api/stock/adjustments", pkgjwt.RoleConsulta, dto.AdjustStockRequest{
		WarehouseID: norte, Name: "Urea", Category: "F", Delta: decimal.NewFromInt(5), Unit: "kg",
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = a.do(http.MethodPost, "/api/warehouses", pkgjwt.RoleBodeguero, dto.CreateWarehouseRequest{Name: "X"}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_RecepcionIdempotente(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	req := dto.ReceiveRequest{
		PurchaseID:      "compra-1",
		DestWarehouseID: norte,
		LineItems: []dto.PurchaseLineItemRequest{
			{Name: "Urea", Category: "Fertilizante", Quantity: decimal.NewFromInt(50), Unit: "kg"},
			{Name: "Glifosato", Category: "Herbicida", Quantity: decimal.NewFromInt(20), Unit: "L"},
		},
	}
	var first dto.ReceiptResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/receipts", pkgjwt.RoleBodeguero, req, &first))
	assert.True(t, first.Completed)
	require.Len(t, first.Lines, 2)
	assert.Equal(t, inventory.LineApplied, first.Lines[0].Status)

	var second dto.ReceiptResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/receipts", pkgjwt.RoleBodeguero, req, &second))
	assert.True(t, second.Duplicate)

	rec, _ := a.lookup(norte, "Urea", "Fertilizante")
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(50)))
}

func TestAPI_RecepcionParcialResponde207(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	require.Equal(t, http.StatusOK, a.adjust(norte, "Urea", "Fertilizante", "5", "kg"))

	var out dto.ReceiptResponse
	status := a.do(http.MethodPost, "/api/receipts", pkgjwt.RoleBodeguero, dto.ReceiveRequest{
		PurchaseID:      "compra-2",
		DestWarehouseID: norte,
		LineItems: []dto.PurchaseLineItemRequest{
			{Name: "Urea", Category: "Fertilizante", Quantity: decimal.NewFromInt(10), Unit: "L"},
			{Name: "Cal", Category: "Enmienda", Quantity: decimal.NewFromInt(3), Unit: "bulto"},
		},
	}, &out)
	assert.Equal(t, http.StatusMultiStatus, status)
	assert.False(t, out.Completed)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, inventory.LineFailed, out.Lines[0].Status)
	require.NotNil(t, out.Lines[0].Error)
	assert.Equal(t, "UNIT_MISMATCH", out.Lines[0].Error.Code)
	assert.Equal(t, inventory.LineApplied, out.Lines[1].Status)
}

func TestAPI_TransicionCompra(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	items := []dto.PurchaseLineItemRequest{{Name: "Urea", Category: "Fertilizante", Quantity: decimal.NewFromInt(8), Unit: "kg"}}

	var noop dto.ReceiptResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/purchases/c-9/transitions", pkgjwt.RoleAdmin, dto.PurchaseTransitionRequest{
		From: "", To: "Pendiente", DestWarehouseID: norte, LineItems: items,
	}, &noop))
	require.NotNil(t, noop.Fired)
	assert.False(t, *noop.Fired)

	var fired dto.ReceiptResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/purchases/c-9/transitions", pkgjwt.RoleAdmin, dto.PurchaseTransitionRequest{
		From: "Pendiente", To: "Completado", DestWarehouseID: norte, LineItems: items,
	}, &fired))
	require.NotNil(t, fired.Fired)
	assert.True(t, *fired.Fired)
	assert.Equal(t, "c-9", fired.PurchaseID)

	var er dto.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(http.MethodPost, "/api/purchases/c-9/transitions", pkgjwt.RoleAdmin, dto.PurchaseTransitionRequest{
		From: "Completado", To: "Pendiente", DestWarehouseID: norte, LineItems: items,
	}, &er))
	assert.Equal(t, "INVALID_TRANSITION", er.Code)
}

func TestAPI_StockBajoYListado(t *testing.T) {
	a := newAPI(t)
	norte := a.warehouse("Norte")
	minimo := decimal.NewFromInt(10)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/stock/adjustments", pkgjwt.RoleAdmin, dto.AdjustStockRequest{
		WarehouseID: norte, Name: "Urea", Category: "Fertilizante", Delta: decimal.NewFromInt(4), Unit: "kg", MinThreshold: &minimo,
	}, nil))
	require.Equal(t, http.StatusOK, a.adjust(norte, "Cal", "Enmienda", "30", "bulto"))

	var low []dto.ReplenishmentSuggestionDTO
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/stock/low?warehouse_id="+norte, pkgjwt.RoleConsulta, nil, &low))
	require.Len(t, low, 1)
	assert.Equal(t, "Urea", low[0].Name)
	assert.True(t, low[0].SuggestedOrderQty.Equal(decimal.NewFromInt(11)))

	var list dto.StockListResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/warehouses/"+norte+"/stock", pkgjwt.RoleConsulta, nil, &list))
	assert.Len(t, list.Items, 2)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/warehouses/no-existe/stock", pkgjwt.RoleConsulta, nil, nil))
}

func TestAPI_AlmacenCRUD(t *testing.T) {
	a := newAPI(t)
	id := a.warehouse("Norte")

	name := "Bodega Norte"
	var upd dto.WarehouseResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/api/warehouses/"+id, pkgjwt.RoleAdmin, dto.UpdateWarehouseRequest{Name: &name}, &upd))
	assert.Equal(t, name, upd.Name)

	var got dto.WarehouseResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/warehouses/"+id, pkgjwt.RoleConsulta, nil, &got))
	assert.Equal(t, name, got.Name)

	require.Equal(t, http.StatusOK, a.adjust(id, "Urea", "Fertilizante", "1", "kg"))
	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/api/warehouses/"+id, pkgjwt.RoleAdmin, nil, nil))

	other := a.warehouse("Sur")
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/api/warehouses/"+other, pkgjwt.RoleAdmin, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/warehouses/"+other, pkgjwt.RoleConsulta, nil, nil))

	var page dto.WarehouseListResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/warehouses?limit=500", pkgjwt.RoleConsulta, nil, &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 100, page.Page.Limit)
}

func TestAPI_LibroRangoInvalido(t *testing.T) {
	a := newAPI(t)
	var er dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/transfers?from=ayer", pkgjwt.RoleConsulta, nil, &er))
	assert.Equal(t, "VALIDATION", er.Code)

	q := "/api/transfers?from=2025-03-20T00:00:00Z&to=2025-03-10T00:00:00Z"
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, q, pkgjwt.RoleConsulta, nil, &er))
}
