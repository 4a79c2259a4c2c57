// Package memory implementa el almacenamiento del motor de stock sobre go-memdb: transacciones
// con un único escritor y snapshots de lectura, sin servidor externo. Se usa en pruebas y con
// STORE_DRIVER=memory.
package memory

import (
	"context"
	"errors"
	"fmt"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
)

const (
	tableWarehouse   = "warehouse"
	tableStock       = "stock"
	tableTransfer    = "transfer"
	tableReceipt     = "receipt"
	tableReceiptLine = "receipt_line"
)

var _ inventory.TxRunner = (*Store)(nil)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableWarehouse: {
				Name: tableWarehouse,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
				},
			},
			tableStock: {
				Name: tableStock,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					// unicidad comprobada en Create: memdb no la impone en índices secundarios
					"identity": {Name: "identity", Unique: true, Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "WarehouseID"},
							&memdb.StringFieldIndex{Field: "IdentityKey"},
						},
					}},
					"warehouse": {Name: "warehouse", Indexer: &memdb.StringFieldIndex{Field: "WarehouseID"}},
					"key":       {Name: "key", Indexer: &memdb.StringFieldIndex{Field: "IdentityKey"}},
				},
			},
			tableTransfer: {
				Name: tableTransfer,
				Indexes: map[string]*memdb.IndexSchema{
					"id":   {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "ID"}},
					"idem": {Name: "idem", Unique: true, AllowMissing: true, Indexer: &memdb.StringFieldIndex{Field: "IdempotencyKey"}},
				},
			},
			tableReceipt: {
				Name: tableReceipt,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.StringFieldIndex{Field: "PurchaseID"}},
				},
			},
			tableReceiptLine: {
				Name: tableReceiptLine,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {Name: "id", Unique: true, Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "PurchaseID"},
							&memdb.StringFieldIndex{Field: "LineKey"},
						},
					}},
				},
			},
		},
	}
}

// Store base en memoria. Implementa inventory.TxRunner.
type Store struct {
	db *memdb.MemDB
}

// New crea un store vacío.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}
	return &Store{db: db}, nil
}

// Run abre una transacción de escritura (exclusiva), ejecuta fn y hace Commit solo si fn no
// devuelve error. Cualquier error descarta todo lo escrito.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.Txn(true)
	defer txn.Abort()

	if err := fn(newRepos(scope{db: s.db, txn: txn})); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Repos repositorios fuera de transacción: cada lectura ve un snapshot, cada escritura se
// confirma sola.
func (s *Store) Repos() inventory.Repos {
	return newRepos(scope{db: s.db})
}

func newRepos(sc scope) inventory.Repos {
	return inventory.Repos{
		Stock:      &StockRepo{sc: sc},
		Transfers:  &TransferRepo{sc: sc},
		Receipts:   &ReceiptRepo{sc: sc},
		Warehouses: &WarehouseRepo{sc: sc},
	}
}

// scope txn != nil: atado a la transacción de Run.
type scope struct {
	db  *memdb.MemDB
	txn *memdb.Txn
}

func (sc scope) read() *memdb.Txn {
	if sc.txn != nil {
		return sc.txn
	}
	return sc.db.Txn(false)
}

func (sc scope) write(fn func(txn *memdb.Txn) error) error {
	if sc.txn != nil {
		return fn(sc.txn)
	}
	txn := sc.db.Txn(true)
	defer txn.Abort()
	if err := fn(txn); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

var errUnexpectedType = errors.New("memdb: tipo inesperado")

func first[T any](txn *memdb.Txn, table, index string, args ...any) (*T, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", table, index, err)
	}
	if raw == nil {
		return nil, nil
	}
	v, ok := raw.(*T)
	if !ok {
		return nil, errUnexpectedType
	}
	return v, nil
}

func all[T any](txn *memdb.Txn, table, index string, args ...any) ([]*T, error) {
	it, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", table, index, err)
	}
	var out []*T
	for raw := it.Next(); raw != nil; raw = it.Next() {
		v, ok := raw.(*T)
		if !ok {
			return nil, errUnexpectedType
		}
		out = append(out, v)
	}
	return out, nil
}
