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

var _ repository.TransferRepository = (*TransferRepo)(nil)

const transferColumns = `id, name, category, identity_key, source_record_id, quantity, unit,
	source_warehouse_id, dest_warehouse_id, actor, ts, notes, idempotency_key`

// TransferRepo libro de transferencias sobre PostgreSQL (solo inserción).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

func scanTransfer(row pgx.Row) (*entity.TransferRecord, error) {
	var t entity.TransferRecord
	err := row.Scan(
		&t.ID, &t.Identity.Name, &t.Identity.Category, &t.IdentityKey, &t.SourceRecordID,
		&t.Quantity, &t.Unit, &t.SourceWarehouseID, &t.DestWarehouseID, &t.Actor,
		&t.Timestamp, &t.Notes, &t.IdempotencyKey,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create agrega una línea al libro. Una clave de idempotencia repetida produce domain.ErrConflict.
func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferRecord) error {
	query := `INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Identity.Name, t.Identity.Category, t.IdentityKey, t.SourceRecordID,
		t.Quantity, t.Unit, t.SourceWarehouseID, t.DestWarehouseID, t.Actor,
		t.Timestamp, t.Notes, t.IdempotencyKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create transfer %s: %w", t.IdempotencyKey, domain.ErrConflict)
		}
		return classify("create transfer", err)
	}
	return nil
}

func (r *TransferRepo) getOne(ctx context.Context, op, where string, arg any) (*entity.TransferRecord, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return t, nil
}

// GetByID obtiene una transferencia por ID, o nil.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.TransferRecord, error) {
	return r.getOne(ctx, "get transfer", "id = $1", id)
}

// GetByIdempotencyKey obtiene la transferencia registrada con esa clave, o nil.
func (r *TransferRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.TransferRecord, error) {
	return r.getOne(ctx, "get transfer by key", "idempotency_key = $1", key)
}

// List devuelve transferencias por ts desc, id desc. after (opcional) pagina por clave;
// si es nil se usa offset.
func (r *TransferRepo) List(ctx context.Context, f entity.TransferFilter, after *entity.TransferCursor, limit, offset int) ([]*entity.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE TRUE`
	var args []any
	pos := 1
	add := func(cond string, v any) {
		query += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, v)
		pos++
	}
	if f.WarehouseID != "" {
		query += fmt.Sprintf(" AND (source_warehouse_id = $%d OR dest_warehouse_id = $%d)", pos, pos)
		args = append(args, f.WarehouseID)
		pos++
	}
	if f.SourceWarehouseID != "" {
		add("source_warehouse_id = $%d", f.SourceWarehouseID)
	}
	if f.DestWarehouseID != "" {
		add("dest_warehouse_id = $%d", f.DestWarehouseID)
	}
	if f.From != nil {
		add("ts >= $%d", *f.From)
	}
	if f.To != nil {
		add("ts <= $%d", *f.To)
	}
	if f.IdentityKey != "" {
		add("identity_key = $%d", f.IdentityKey)
	}
	// identity_key = nombre || chr(31) || categoría, ya normalizados
	if f.NameKey != "" {
		add("split_part(identity_key, chr(31), 1) = $%d", f.NameKey)
	}
	if f.CategoryKey != "" {
		add("split_part(identity_key, chr(31), 2) = $%d", f.CategoryKey)
	}
	if after != nil {
		query += fmt.Sprintf(" AND (ts, id) < ($%d, $%d)", pos, pos+1)
		args = append(args, after.Timestamp, after.ID)
		pos += 2
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY ts DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list transfers", err)
	}
	defer rows.Close()
	var list []*entity.TransferRecord
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, classify("scan transfer", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list transfers", err)
	}
	return list, nil
}
