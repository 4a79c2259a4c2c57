package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/bootstrap"
	"github.com/jhoicas/agroinsumos-api/pkg/config"
	"github.com/jhoicas/agroinsumos-api/pkg/jwt"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "stockctl-test-secret"

// harness ejecuta comandos contra un único motor en memoria compartido entre ejecuciones.
type harness struct {
	t      *testing.T
	cfg    *config.Config
	engine *bootstrap.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Store: config.StoreConfig{Driver: config.StoreDriverMemory},
		JWT:   config.JWTConfig{Secret: testSecret, Expiration: 30, Issuer: "stockctl-test"},
		Stock: config.StockConfig{MaxRetries: 3, RetryBaseDelay: time.Millisecond, LedgerPageSize: 2},
	}
	eng, err := bootstrap.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	return &harness{t: t, cfg: cfg, engine: eng}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd(
		func() (*config.Config, error) { return h.cfg, nil },
		func(context.Context, *config.Config) (*bootstrap.Engine, error) { return h.engine, nil },
	)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) warehouse(name string) string {
	h.t.Helper()
	out, err := h.run("", "warehouses", "create", "--name", name)
	require.NoError(h.t, err)
	var w dto.WarehouseResponse
	require.NoError(h.t, json.Unmarshal([]byte(out), &w))
	return w.ID
}

func TestToken_EmiteJWTValido(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "token", "--user", "u-7", "--role", jwt.RoleAdmin)
	require.NoError(t, err)

	userID, role, err := jwt.Parse(testSecret, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u-7", userID)
	assert.Equal(t, jwt.RoleAdmin, role)

	_, err = h.run("", "token", "--role", "vendedor")
	assert.Error(t, err)
}

func TestMigrate_ListaEmbebidas(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "migrate", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "0001_init.sql")

	_, err = h.run("", "migrate")
	assert.ErrorContains(t, err, "STORE_DRIVER=postgres")
}

func TestReceiveTransferYLibro(t *testing.T) {
	h := newHarness(t)
	norte := h.warehouse("Norte")
	sur := h.warehouse("Sur")

	purchase := `{"purchase_id":"c-1","dest_warehouse_id":"` + norte + `","line_items":[
		{"name":"Urea","category":"Fertilizante","quantity":"100","unit":"kg"}]}`
	out, err := h.run(purchase, "receive")
	require.NoError(t, err)
	assert.Contains(t, out, "completa=true")

	// Repetir la compra no acredita dos veces.
	out, err = h.run(purchase, "receive")
	require.NoError(t, err)
	assert.Contains(t, out, "duplicada=true")

	out, err = h.run("", "transfer", "--name", "urea", "--category", "fertilizante",
		"--from", norte, "--to", sur, "--qty", "40", "--actor", "Ana")
	require.NoError(t, err)
	var tr dto.TransferResponse
	require.NoError(t, json.Unmarshal([]byte(out), &tr))
	assert.True(t, tr.Quantity.Equal(decimalFrom(t, "40")))
	assert.Equal(t, "Ana", tr.Actor)

	for i := 0; i < 3; i++ {
		_, err = h.run("", "transfer", "--name", "Urea", "--category", "Fertilizante",
			"--from", norte, "--to", sur, "--qty", "1")
		require.NoError(t, err)
	}

	out, err = h.run("", "transfers", "--warehouse", norte)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5, "cabecera + 4 transferencias, recorriendo varias páginas")

	out, err = h.run("", "transfers", "--limit", "2")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	out, err = h.run("", "stock", "--warehouse", norte)
	require.NoError(t, err)
	assert.Contains(t, out, "57 kg")
}

func TestTransfer_StockInsuficiente(t *testing.T) {
	h := newHarness(t)
	norte := h.warehouse("Norte")
	sur := h.warehouse("Sur")
	_, err := h.run("", "transfer", "--name", "Urea", "--category", "Fertilizante",
		"--from", norte, "--to", sur, "--qty", "5")
	assert.ErrorContains(t, err, "stock insuficiente")

	_, err = h.run("", "transfer", "--name", "Urea", "--category", "Fertilizante",
		"--from", norte, "--to", sur, "--qty", "cinco")
	assert.ErrorContains(t, err, "--qty")
}

func TestReceive_RenglonFallidoDevuelveError(t *testing.T) {
	h := newHarness(t)
	norte := h.warehouse("Norte")
	purchase := `{"purchase_id":"c-2","dest_warehouse_id":"` + norte + `","line_items":[
		{"name":"Cal","category":"Enmienda","quantity":"0","unit":"bulto"},
		{"name":"Urea","category":"Fertilizante","quantity":"3","unit":"kg"}]}`
	out, err := h.run(purchase, "receive")
	assert.ErrorContains(t, err, "1 renglones sin acreditar")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "applied")
}

func TestStock_Validaciones(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "stock")
	assert.ErrorContains(t, err, "--warehouse")

	out, err := h.run("", "stock", "--low")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func decimalFrom(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
