package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/application/usecase"
	"github.com/jhoicas/agroinsumos-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	WarehouseUC   *usecase.WarehouseUseCase
	StockUC       *inventory.StockUseCase
	TransferUC    *inventory.TransferUseCase
	ReceiptUC     *inventory.ReceiptUseCase
	LedgerUC      *inventory.LedgerUseCase
	Replenishment *inventory.ReplenishmentUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(jwt.RoleAdmin)
	operator := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)

	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	stockHandler := NewStockHandler(deps.StockUC, deps.Replenishment)

	// Almacenes
	warehouses := protected.Group("/warehouses")
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Post("/", admin, warehouseHandler.Create)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", admin, warehouseHandler.Update)
	warehouses.Delete("/:id", admin, warehouseHandler.Delete)
	warehouses.Get("/:id/stock", stockHandler.ListByWarehouse)
	warehouses.Get("/:id/stock/lookup", stockHandler.Lookup)
	warehouses.Put("/:id/stock/:recordId", operator, stockHandler.UpdateMeta)

	// Stock
	stock := protected.Group("/stock")
	stock.Get("/low", stockHandler.LowStock)
	stock.Post("/adjustments", operator, stockHandler.Adjust)

	// Transferencias
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC, deps.LedgerUC)
	transfers.Get("/", transferHandler.List)
	transfers.Post("/", operator, transferHandler.Create)
	transfers.Get("/:id", transferHandler.GetByID)

	// Recepción de compras
	receiptHandler := NewReceiptHandler(deps.ReceiptUC)
	protected.Post("/receipts", operator, receiptHandler.Receive)
	protected.Post("/purchases/:id/transitions", operator, receiptHandler.Transition)
}
