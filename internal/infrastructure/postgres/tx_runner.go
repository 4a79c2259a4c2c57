package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// NewRepos devuelve los repositorios del motor atados a q (pool o tx).
func NewRepos(q Querier) inventory.Repos {
	return inventory.Repos{
		Stock:      NewStockRepository(q),
		Transfers:  NewTransferRepository(q),
		Receipts:   NewReceiptRepository(q),
		Warehouses: NewWarehouseRepository(q),
	}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un fallo al iniciar la tx es domain.ErrStoreUnavailable. El Commit no se cancela con ctx.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("begin transaction: %w", err)
		}
		return fmt.Errorf("begin transaction: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(context.WithoutCancel(ctx)); err != nil {
		// Solo serialización/deadlock garantizan que nada se aplicó; otro fallo en el commit
		// es ambiguo y no se marca como reintentable.
		switch pgCode(err) {
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("commit transaction: %w: %w", domain.ErrConflict, err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
