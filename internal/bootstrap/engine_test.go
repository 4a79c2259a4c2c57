package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/bootstrap"
	"github.com/jhoicas/agroinsumos-api/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memoria(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Driver: config.StoreDriverMemory},
		Stock: config.StockConfig{MaxRetries: 3, RetryBaseDelay: time.Millisecond, LedgerPageSize: 10},
		Cache: config.CacheConfig{WarehouseSize: 8},
	}
	eng, err := bootstrap.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer eng.Close()

	w, err := eng.Warehouses.Create(context.Background(), dto.CreateWarehouseRequest{Name: "Norte"})
	require.NoError(t, err)
	got, err := eng.Warehouses.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Norte", got.Name)

	list, err := eng.Stock.ListByWarehouse(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOptions_DesdeConfig(t *testing.T) {
	opts := bootstrap.Options(config.StockConfig{MaxRetries: 7, RetryBaseDelay: 40 * time.Millisecond}, zerolog.Nop())
	assert.Equal(t, 7, opts.Retry.MaxAttempts)
	assert.Equal(t, 40*time.Millisecond, opts.Retry.BaseDelay)
	assert.Equal(t, time.Second, opts.Retry.MaxDelay)
	assert.NotNil(t, opts.Now)
}
