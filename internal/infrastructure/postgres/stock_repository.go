package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `id, warehouse_id, name, category, identity_key, quantity, unit, min_threshold,
	lot, expires_on, notes, version, created_at, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ID, &s.WarehouseID, &s.Identity.Name, &s.Identity.Category, &s.IdentityKey,
		&s.Quantity, &s.Unit, &s.MinThreshold, &s.Lot, &s.ExpiresOn, &s.Notes,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockRepo) queryList(ctx context.Context, op, query string, args ...any) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return list, nil
}

// FindByIdentity obtiene el registro de una identidad en un almacén, o nil.
func (r *StockRepo) FindByIdentity(ctx context.Context, warehouseID, identityKey string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE warehouse_id = $1 AND identity_key = $2`
	s, err := scanStock(r.q.QueryRow(ctx, query, warehouseID, identityKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("find stock by identity", err)
	}
	return s, nil
}

// LockIdentity bloquea las filas de la identidad en los almacenes dados (SELECT FOR UPDATE),
// siempre en orden de warehouse_id para que dos transferencias cruzadas no hagan deadlock.
func (r *StockRepo) LockIdentity(ctx context.Context, identityKey string, warehouseIDs ...string) (map[string]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records
		WHERE identity_key = $1 AND warehouse_id = ANY($2)
		ORDER BY warehouse_id
		FOR UPDATE`
	list, err := r.queryList(ctx, "lock stock", query, identityKey, warehouseIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*entity.StockRecord, len(list))
	for _, s := range list {
		out[s.WarehouseID] = s
	}
	return out, nil
}

// GetByID obtiene un registro por ID, o nil.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get stock", err)
	}
	return s, nil
}

// Create inserta un registro nuevo. Otra tx que creó la misma identidad produce domain.ErrConflict.
func (r *StockRepo) Create(ctx context.Context, s *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.WarehouseID, s.Identity.Name, s.Identity.Category, s.IdentityKey,
		s.Quantity, s.Unit, s.MinThreshold, s.Lot, s.ExpiresOn, s.Notes,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create stock %s en %s: %w", s.Identity, s.WarehouseID, domain.ErrConflict)
		}
		return classify("create stock", err)
	}
	s.Version = 1
	return nil
}

// Update escribe cantidad y metadatos solo si la versión no cambió (control optimista).
func (r *StockRepo) Update(ctx context.Context, s *entity.StockRecord) error {
	query := `
		UPDATE stock_records
		SET quantity = $3, min_threshold = $4, lot = $5, expires_on = $6, notes = $7,
			updated_at = $8, version = version + 1
		WHERE id = $1 AND version = $2`
	cmd, err := r.q.Exec(ctx, query,
		s.ID, s.Version, s.Quantity, s.MinThreshold, s.Lot, s.ExpiresOn, s.Notes, s.UpdatedAt,
	)
	if err != nil {
		return classify("update stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update stock %s (versión %d): %w", s.ID, s.Version, domain.ErrConflict)
	}
	s.Version++
	return nil
}

// ListByWarehouse lista los registros de un almacén por nombre.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE warehouse_id = $1 ORDER BY name, category`
	return r.queryList(ctx, "list stock by warehouse", query, warehouseID)
}

// ListByIdentity lista los registros de una identidad en todos los almacenes.
func (r *StockRepo) ListByIdentity(ctx context.Context, identityKey string) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records WHERE identity_key = $1 ORDER BY warehouse_id`
	return r.queryList(ctx, "list stock by identity", query, identityKey)
}

// ListBelowThreshold registros con cantidad <= stock mínimo. warehouseID vacío = todos.
func (r *StockRepo) ListBelowThreshold(ctx context.Context, warehouseID string) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_records
		WHERE min_threshold > 0 AND quantity <= min_threshold AND ($1::text = '' OR warehouse_id = $1)
		ORDER BY warehouse_id, name`
	return r.queryList(ctx, "list stock below threshold", query, warehouseID)
}
