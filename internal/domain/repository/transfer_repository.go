package repository

import (
	"context"

	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
)

// TransferRepository define el puerto del libro de transferencias (solo inserción).
type TransferRepository interface {
	// Create agrega una línea. Devuelve domain.ErrConflict si la clave de idempotencia ya existe.
	Create(ctx context.Context, transfer *entity.TransferRecord) error
	GetByID(ctx context.Context, id string) (*entity.TransferRecord, error)
	// GetByIdempotencyKey devuelve nil si no hay transferencia con esa clave.
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.TransferRecord, error)
	// List devuelve hasta limit líneas ordenadas por Timestamp desc, ID desc.
	// after != nil continúa después del cursor (paginación por clave); offset se ignora en ese caso.
	List(ctx context.Context, filter entity.TransferFilter, after *entity.TransferCursor, limit, offset int) ([]*entity.TransferRecord, error)
}
