package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
)

// HeaderIdempotencyKey clave que el cliente reenvía al reintentar una transferencia.
const HeaderIdempotencyKey = "Idempotency-Key"

// TransferHandler transferencias entre almacenes y consulta del libro.
type TransferHandler struct {
	transfers *inventory.TransferUseCase
	ledger    *inventory.LedgerUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(transfers *inventory.TransferUseCase, ledger *inventory.LedgerUseCase) *TransferHandler {
	return &TransferHandler{transfers: transfers, ledger: ledger}
}

// Create godoc
// @Summary      Transferir insumo entre almacenes
// @Description  Débito en origen, crédito en destino (fusiona por nombre y categoría) y registro en el libro, todo o nada.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "Clave de idempotencia"
// @Param        body             body    dto.TransferRequest  true   "Transferencia"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if ok, err := parseBody(c, &in, "transfer"); !ok {
		return err
	}
	rec, err := h.transfers.Transfer(c.UserContext(), inventory.TransferInput{
		Identity:          domain.Identity{Name: in.Name, Category: in.Category},
		SourceWarehouseID: in.SourceWarehouseID,
		DestWarehouseID:   in.DestWarehouseID,
		Quantity:          in.Quantity,
		Unit:              in.Unit,
		Actor:             actorFrom(c, in.Actor),
		Notes:             in.Notes,
		IdempotencyKey:    c.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(rec))
}

// GetByID godoc
// @Summary      Obtener transferencia por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	rec, err := h.ledger.GetTransfer(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(rec))
}

// List godoc
// @Summary      Libro de transferencias
// @Description  Ordenado por fecha descendente. from/to en RFC3339, inclusivos.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id         query  string  false  "Almacén (origen o destino)"
// @Param        source_warehouse_id  query  string  false  "Almacén origen"
// @Param        dest_warehouse_id    query  string  false  "Almacén destino"
// @Param        name                 query  string  false  "Nombre del insumo"
// @Param        category             query  string  false  "Categoría del insumo"
// @Param        from                 query  string  false  "Desde (RFC3339)"
// @Param        to                   query  string  false  "Hasta (RFC3339)"
// @Param        limit                query  int     false  "Límite"  default(20)
// @Param        offset               query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransferListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	filter := inventory.LedgerFilter{
		WarehouseID:       c.Query("warehouse_id"),
		SourceWarehouseID: c.Query("source_warehouse_id"),
		DestWarehouseID:   c.Query("dest_warehouse_id"),
		Name:              c.Query("name"),
		Category:          c.Query("category"),
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return badRequest(c, "VALIDATION", "from debe ser RFC3339")
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return badRequest(c, "VALIDATION", "to debe ser RFC3339")
	}
	limit, offset := pageParams(c)
	list, err := h.ledger.ListTransfers(c.UserContext(), filter, limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.TransferListResponse{
		Items: make([]dto.TransferResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, t := range list {
		out.Items = append(out.Items, toTransferResponse(t))
	}
	return c.JSON(out)
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
