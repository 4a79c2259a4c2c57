package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ReplenishmentUseCase reporte de insumos en o por debajo del stock mínimo, con la cantidad
// sugerida para volver al stock ideal.
type ReplenishmentUseCase struct {
	stockRepo     repository.StockRepository
	warehouseRepo repository.WarehouseRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stockRepo repository.StockRepository, warehouseRepo repository.WarehouseRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stockRepo: stockRepo, warehouseRepo: warehouseRepo}
}

// GenerateReplenishmentList devuelve los registros con cantidad <= stock mínimo.
// warehouseID vacío considera todos los almacenes.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, warehouseID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	if warehouseID != "" {
		if _, err := requireWarehouse(ctx, uc.warehouseRepo, warehouseID); err != nil {
			return nil, err
		}
	}
	rawItems, err := uc.stockRepo.ListBelowThreshold(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if len(rawItems) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	ideal := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(rawItems))
	for _, item := range rawItems {
		idealStock := item.MinThreshold.Mul(ideal)
		suggestedQty := idealStock.Sub(item.Quantity)
		if suggestedQty.LessThanOrEqual(decimal.Zero) {
			suggestedQty = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			StockRecordID:     item.ID,
			WarehouseID:       item.WarehouseID,
			Name:              item.Identity.Name,
			Category:          item.Identity.Category,
			Unit:              item.Unit,
			CurrentStock:      item.Quantity,
			MinThreshold:      item.MinThreshold,
			IdealStock:        idealStock,
			SuggestedOrderQty: suggestedQty,
		})
	}

	// Mayor déficit relativo primero (stock actual / mínimo más bajo).
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := a.CurrentStock.Div(a.MinThreshold)
		rb := b.CurrentStock.Div(b.MinThreshold)
		if !ra.Equal(rb) {
			return ra.LessThan(rb)
		}
		return a.SuggestedOrderQty.GreaterThan(b.SuggestedOrderQty)
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
