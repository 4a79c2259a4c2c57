package repository

import (
	"context"

	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
)

// StockRepository define el puerto de persistencia de registros de stock (almacén + identidad).
// Los métodos de escritura se usan dentro de una transacción (ver inventory.TxRunner).
type StockRepository interface {
	// FindByIdentity devuelve el registro o nil si no existe. Lectura sin bloqueo.
	FindByIdentity(ctx context.Context, warehouseID, identityKey string) (*entity.StockRecord, error)
	// LockIdentity bloquea (SELECT FOR UPDATE) los registros de la identidad en los almacenes dados,
	// en orden determinista por almacén, y los devuelve indexados por WarehouseID.
	LockIdentity(ctx context.Context, identityKey string, warehouseIDs ...string) (map[string]*entity.StockRecord, error)
	GetByID(ctx context.Context, id string) (*entity.StockRecord, error)
	// Create inserta un registro nuevo con Version = 1. Devuelve domain.ErrConflict si otro
	// proceso creó la misma identidad en el mismo almacén.
	Create(ctx context.Context, record *entity.StockRecord) error
	// Update persiste cantidad y metadatos si la versión guardada sigue siendo record.Version;
	// en ese caso incrementa record.Version. Si no, devuelve domain.ErrConflict.
	Update(ctx context.Context, record *entity.StockRecord) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockRecord, error)
	ListByIdentity(ctx context.Context, identityKey string) ([]*entity.StockRecord, error)
	// ListBelowThreshold registros con cantidad <= stock mínimo (mínimo > 0). warehouseID vacío = todos.
	ListBelowThreshold(ctx context.Context, warehouseID string) ([]*entity.StockRecord, error)
}
