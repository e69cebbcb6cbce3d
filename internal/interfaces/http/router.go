package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/pos-ledger-api/internal/application/inventory"
	"github.com/jhoicas/pos-ledger-api/internal/application/sales"
	"github.com/jhoicas/pos-ledger-api/internal/application/transfer"
	"github.com/jhoicas/pos-ledger-api/internal/application/usecase"
	"github.com/jhoicas/pos-ledger-api/internal/infrastructure/metrics"
	"github.com/jhoicas/pos-ledger-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockQuery       *inventory.StockQueryUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Opname           *inventory.StockOpnameUseCase
	Transfers        *transfer.UseCase
	Sales            *sales.UseCase
	Outlets          *usecase.OutletUseCase
	JWTSecret        string
	JWTIssuer        string
	// Gatherer expone /metrics; nil = sin endpoint.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.HTTPMetrics != nil {
		app.Use(deps.HTTPMetrics.Middleware())
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	// Stock e historial
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockQuery)
	stock.Get("/:product_id/:outlet_id", stockHandler.GetStock)
	stock.Get("/:product_id/:outlet_id/movements", stockHandler.ListMovements)
	stock.Get("/:product_id/:outlet_id/verify", stockHandler.Verify)

	// Movimientos y conteo físico
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Opname)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Post("/opname", inventoryHandler.Opname)

	// Traslados entre sucursales
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/approve", transferHandler.Approve)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Ventas; el reembolso solo para admin y manager
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.Get)
	salesGroup.Post("/:id/refund", RequireRole(jwt.RoleAdmin, jwt.RoleManager), saleHandler.Refund)

	// Sucursales
	outlets := protected.Group("/outlets")
	outletHandler := NewOutletHandler(deps.Outlets)
	outlets.Post("/", outletHandler.Create)
	outlets.Get("/", outletHandler.List)
	outlets.Get("/:id", outletHandler.Get)
}
