package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

// El orden importa: un error puede envolver más de un kind (p. ej. conflicto + error pg).
var errorMappings = []errorMapping{
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrSameWarehouse, fiber.StatusBadRequest, "SAME_WAREHOUSE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrUnitMismatch, fiber.StatusUnprocessableEntity, "UNIT_MISMATCH"},
	{domain.ErrInvalidTransition, fiber.StatusUnprocessableEntity, "INVALID_TRANSITION"},
	{domain.ErrIdempotencyMismatch, fiber.StatusConflict, "IDEMPOTENCY_MISMATCH"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrStoreUnavailable, fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// toErrorResponse traduce un error de dominio a status HTTP y cuerpo.
func toErrorResponse(err error) (int, dto.ErrorResponse) {
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			resp := dto.ErrorResponse{Code: m.code, Message: err.Error()}
			var se *domain.StockError
			if errors.As(err, &se) {
				resp.Details = stockErrorDetails(se)
			}
			if m.status == fiber.StatusServiceUnavailable {
				resp.Message = domain.ErrStoreUnavailable.Error()
			}
			return m.status, resp
		}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

func stockErrorDetails(se *domain.StockError) map[string]any {
	d := map[string]any{}
	if se.WarehouseID != "" {
		d["warehouse_id"] = se.WarehouseID
	}
	if se.Identity.Name != "" {
		d["name"] = se.Identity.Name
		d["category"] = se.Identity.Category
	}
	switch se.Kind {
	case domain.ErrInsufficientStock:
		d["available"] = se.Available.String()
		d["requested"] = se.Requested.String()
		d["unit"] = se.Unit
	case domain.ErrUnitMismatch:
		d["unit"] = se.Unit
		d["expected_unit"] = se.ExpectedUnit
	}
	if len(d) == 0 {
		return nil
	}
	return d
}

// writeError responde el error mapeado. Los 5xx se registran con el logger del request.
func writeError(c *fiber.Ctx, err error) error {
	status, resp := toErrorResponse(err)
	if status >= fiber.StatusInternalServerError {
		requestLogger(c).Error().Err(err).Str("path", c.Path()).Msg("error atendiendo la petición")
	}
	return c.Status(status).JSON(resp)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
