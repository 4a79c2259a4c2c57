package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
)

// ReceiptHandler recepción de compras completadas y transiciones de estado de compras.
type ReceiptHandler struct {
	uc *inventory.ReceiptUseCase
}

// NewReceiptHandler construye el handler.
func NewReceiptHandler(uc *inventory.ReceiptUseCase) *ReceiptHandler {
	return &ReceiptHandler{uc: uc}
}

// Receive godoc
// @Summary      Recibir compra completada
// @Description  Acredita cada renglón en el almacén destino. Repetir el mismo purchase_id no acredita dos veces.
// @Description  Con renglones fallidos responde 207 con el detalle por renglón.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "Evento de compra completada"
// @Success      200   {object}  dto.ReceiptResponse
// @Success      207   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *ReceiptHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if ok, err := parseBody(c, &in, "receive"); !ok {
		return err
	}
	res, err := h.uc.Receive(c.UserContext(), entity.PurchaseCompleted{
		PurchaseID:      in.PurchaseID,
		DestWarehouseID: in.DestWarehouseID,
		LineItems:       toLineItems(in.LineItems),
		Actor:           actorFrom(c, in.Actor),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(receiptStatus(res)).JSON(toReceiptResponse(res))
}

// Transition godoc
// @Summary      Notificar transición de estado de una compra
// @Description  Solo el paso a Completado (desde Pendiente o en la creación, from vacío) acredita stock.
// @Tags         receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la compra"
// @Param        body  body  dto.PurchaseTransitionRequest   true  "Transición"
// @Success      200   {object}  dto.ReceiptResponse
// @Success      207   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/transitions [post]
func (h *ReceiptHandler) Transition(c *fiber.Ctx) error {
	var in dto.PurchaseTransitionRequest
	if ok, err := parseBody(c, &in, "transition"); !ok {
		return err
	}
	purchaseID := c.Params("id")
	res, fired, err := h.uc.HandleTransition(c.UserContext(), entity.PurchaseTransition{
		PurchaseID:      purchaseID,
		From:            in.From,
		To:              in.To,
		DestWarehouseID: in.DestWarehouseID,
		LineItems:       toLineItems(in.LineItems),
		Actor:           actorFrom(c, in.Actor),
	})
	if err != nil {
		return writeError(c, err)
	}
	if !fired {
		return c.JSON(dto.ReceiptResponse{PurchaseID: purchaseID, Fired: &fired, Lines: []dto.ReceiptLineResponse{}})
	}
	out := toReceiptResponse(res)
	out.Fired = &fired
	return c.Status(receiptStatus(res)).JSON(out)
}

func receiptStatus(res *inventory.ReceiptResult) int {
	if len(res.Failed()) > 0 {
		return fiber.StatusMultiStatus
	}
	return fiber.StatusOK
}
