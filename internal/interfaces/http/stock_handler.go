package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
)

// StockHandler consultas de existencias, reporte de stock bajo y ajustes manuales.
type StockHandler struct {
	stock         *inventory.StockUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(stock *inventory.StockUseCase, replenishment *inventory.ReplenishmentUseCase) *StockHandler {
	return &StockHandler{stock: stock, replenishment: replenishment}
}

// ListByWarehouse godoc
// @Summary      Existencias de un almacén
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del almacén"
// @Success      200  {object}  dto.StockListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/stock [get]
func (h *StockHandler) ListByWarehouse(c *fiber.Ctx) error {
	warehouseID := c.Params("id")
	list, err := h.stock.ListByWarehouse(c.UserContext(), warehouseID)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.StockListResponse{WarehouseID: warehouseID, Items: make([]dto.StockRecordResponse, 0, len(list))}
	for _, r := range list {
		out.Items = append(out.Items, toStockResponse(r))
	}
	return c.JSON(out)
}

// Lookup godoc
// @Summary      Buscar insumo por nombre y categoría en un almacén
// @Description  La comparación ignora mayúsculas, tildes y espacios sobrantes.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true  "ID del almacén"
// @Param        name      query  string  true  "Nombre"
// @Param        category  query  string  true  "Categoría"
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/stock/lookup [get]
func (h *StockHandler) Lookup(c *fiber.Ctx) error {
	identity := domain.Identity{Name: c.Query("name"), Category: c.Query("category")}
	rec, err := h.stock.FindByIdentity(c.UserContext(), c.Params("id"), identity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}

// LowStock godoc
// @Summary      Reporte de stock bajo
// @Description  Insumos con cantidad en o por debajo del stock mínimo, con cantidad sugerida de compra.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por almacén"
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Description  Delta positivo acredita (crea el registro si no existe); negativo debita sin dejar stock negativo.
// @Description  Los metadatos enviados se escriben también sobre un registro existente.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "Ajuste"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := parseBody(c, &in, "apply_delta"); !ok {
		return err
	}
	rec, err := h.stock.ApplyDelta(c.UserContext(), inventory.ApplyDeltaInput{
		WarehouseID: in.WarehouseID,
		Identity:    domain.Identity{Name: in.Name, Category: in.Category},
		Delta:       in.Delta,
		Unit:        in.Unit,
		Meta: entity.StockMeta{
			MinThreshold: in.MinThreshold,
			Lot:          in.Lot,
			ExpiresOn:    in.ExpiresOn,
			Notes:        in.Notes,
		},
		Actor: actorFrom(c, in.Actor),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}

// UpdateMeta godoc
// @Summary      Editar datos de un insumo
// @Description  Cambia stock mínimo, lote, vencimiento o notas. Cantidad y unidad solo cambian con ajustes, transferencias o recepciones.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id        path  string                      true  "ID del almacén"
// @Param        recordId  path  string                      true  "ID del registro de stock"
// @Param        body      body  dto.UpdateStockMetaRequest  true  "Datos a cambiar"
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/stock/{recordId} [put]
func (h *StockHandler) UpdateMeta(c *fiber.Ctx) error {
	var in dto.UpdateStockMetaRequest
	if ok, err := parseBody(c, &in, "update_meta"); !ok {
		return err
	}
	rec, err := h.stock.UpdateMeta(c.UserContext(), inventory.UpdateMetaInput{
		WarehouseID: c.Params("id"),
		RecordID:    c.Params("recordId"),
		Meta: entity.StockMeta{
			MinThreshold: in.MinThreshold,
			Lot:          in.Lot,
			ExpiresOn:    in.ExpiresOn,
			Notes:        in.Notes,
		},
		Actor: actorFrom(c, in.Actor),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}
