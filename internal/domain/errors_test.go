package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStockError_MensajeStockInsuficiente(t *testing.T) {
	err := &domain.StockError{
		Kind:        domain.ErrInsufficientStock,
		WarehouseID: "w1",
		Identity:    domain.Identity{Name: "Urea", Category: "Fertilizante"},
		Requested:   decimal.NewFromInt(200),
		Available:   decimal.NewFromInt(60),
		Unit:        "kg",
	}
	assert.Equal(t, "stock insuficiente. Disponible: 60 kg, solicitado: 200 kg (producto Urea/Fertilizante, almacén w1)", err.Error())
}

func TestStockError_UnwrapPermiteErrorsIs(t *testing.T) {
	var err error = &domain.StockError{Kind: domain.ErrUnitMismatch, Unit: "L", ExpectedUnit: "kg"}
	wrapped := fmt.Errorf("transferir: %w", err)
	assert.True(t, errors.Is(wrapped, domain.ErrUnitMismatch))
	assert.False(t, errors.Is(wrapped, domain.ErrInsufficientStock))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, domain.IsRetryable(fmt.Errorf("x: %w", domain.ErrConflict)))
	assert.True(t, domain.IsRetryable(domain.ErrStoreUnavailable))
	assert.False(t, domain.IsRetryable(domain.ErrInsufficientStock))
	assert.False(t, domain.IsRetryable(&domain.StockError{Kind: domain.ErrSameWarehouse}))
}

func TestIsBusiness(t *testing.T) {
	assert.True(t, domain.IsBusiness(&domain.StockError{Kind: domain.ErrUnitMismatch}))
	assert.False(t, domain.IsBusiness(domain.ErrConflict))
	assert.True(t, domain.IsBusiness(fmt.Errorf("transfer: %w", domain.ErrIdempotencyMismatch)))
}
