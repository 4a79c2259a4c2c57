package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jhoicas/agroinsumos-api/internal/application/usecase"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
)

var _ usecase.WarehouseCache = (*WarehouseCache)(nil)

// WarehouseCache caché LRU de almacenes por ID. Guarda copias.
type WarehouseCache struct {
	lru *lru.Cache
}

// NewWarehouseCache crea la caché con capacidad size (> 0).
func NewWarehouseCache(size int) (*WarehouseCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("warehouse cache: %w", err)
	}
	return &WarehouseCache{lru: c}, nil
}

func (c *WarehouseCache) Get(id string) (*entity.Warehouse, bool) {
	v, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	w := *(v.(*entity.Warehouse))
	return &w, true
}

func (c *WarehouseCache) Add(w *entity.Warehouse) {
	if w == nil {
		return
	}
	cp := *w
	c.lru.Add(w.ID, &cp)
}

func (c *WarehouseCache) Remove(id string) {
	c.lru.Remove(id)
}

// Len cantidad de entradas.
func (c *WarehouseCache) Len() int {
	return c.lru.Len()
}
