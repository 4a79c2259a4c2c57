// Package bootstrap arma el motor de stock a partir de la configuración: backend de
// almacenamiento, caché del directorio de almacenes y casos de uso.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/application/usecase"
	"github.com/jhoicas/agroinsumos-api/internal/infrastructure/cache"
	"github.com/jhoicas/agroinsumos-api/internal/infrastructure/memory"
	"github.com/jhoicas/agroinsumos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/agroinsumos-api/pkg/config"
	"github.com/rs/zerolog"
)

// Engine casos de uso listos para los adaptadores (HTTP, CLI).
type Engine struct {
	Warehouses    *usecase.WarehouseUseCase
	Stock         *inventory.StockUseCase
	Transfers     *inventory.TransferUseCase
	Receipts      *inventory.ReceiptUseCase
	Ledger        *inventory.LedgerUseCase
	Replenishment *inventory.ReplenishmentUseCase

	pool *pgxpool.Pool
}

// Close libera el pool de PostgreSQL si lo hay.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// Options parámetros de los casos de uso derivados de la configuración.
func Options(cfg config.StockConfig, log zerolog.Logger) inventory.Options {
	opts := inventory.DefaultOptions()
	opts.Logger = log
	opts.Retry.MaxAttempts = cfg.MaxRetries
	if cfg.RetryBaseDelay > 0 {
		opts.Retry.BaseDelay = cfg.RetryBaseDelay
		if opts.Retry.MaxDelay < 25*cfg.RetryBaseDelay {
			opts.Retry.MaxDelay = 25 * cfg.RetryBaseDelay
		}
	}
	return opts
}

// Open construye el motor sobre el driver configurado. Con postgres y DB_AUTO_MIGRATE aplica
// las migraciones pendientes antes de devolver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Engine, error) {
	var (
		tx   inventory.TxRunner
		read inventory.Repos
		pool *pgxpool.Pool
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store, err := memory.New()
		if err != nil {
			return nil, fmt.Errorf("store en memoria: %w", err)
		}
		tx, read = store, store.Repos()
		log.Warn().Msg("usando almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		var err error
		pool, err = postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if cfg.DB.AutoMigrate {
			migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
			n, err := postgres.Migrate(migrateCtx, pool, log)
			cancel()
			if err != nil {
				pool.Close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Int("aplicadas", n).Msg("migraciones al día")
		}
		tx, read = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
	}

	var whCache usecase.WarehouseCache
	if cfg.Cache.WarehouseSize > 0 {
		c, err := cache.NewWarehouseCache(cfg.Cache.WarehouseSize)
		if err != nil {
			if pool != nil {
				pool.Close()
			}
			return nil, err
		}
		whCache = c
	}

	opts := Options(cfg.Stock, log)
	return &Engine{
		Warehouses:    usecase.NewWarehouseUseCase(read.Warehouses, whCache),
		Stock:         inventory.NewStockUseCase(tx, read, opts),
		Transfers:     inventory.NewTransferUseCase(tx, opts),
		Receipts:      inventory.NewReceiptUseCase(tx, read, opts),
		Ledger:        inventory.NewLedgerUseCase(read.Transfers, cfg.Stock.LedgerPageSize, opts),
		Replenishment: inventory.NewReplenishmentUseCase(read.Stock, read.Warehouses),
		pool:          pool,
	}, nil
}
