package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/procurement-api/internal/application/engine"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
	"github.com/jhoicas/procurement-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine    *engine.Engine
	JWTSecret string
	// Ping verifica el backend de persistencia en /health; nil = siempre ok.
	Ping func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			if err := deps.Ping(c.Context()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	eng := deps.Engine
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	compras := RequireRole(jwt.RoleCompras)
	bodega := RequireRole(jwt.RoleBodeguero)

	// Licitaciones
	tenders := api.Group("/tenders")
	tenderHandler := NewTenderHandler(eng.Tenders, eng.Stats)
	acquisitionHandler := NewAcquisitionHandler(eng.Ledger)
	deliveryHandler := NewDeliveryHandler(eng.Deliveries)
	tenders.Post("/", compras, tenderHandler.Create)
	tenders.Get("/", tenderHandler.List)
	tenders.Get("/:id", tenderHandler.GetByID)
	tenders.Put("/:id", compras, tenderHandler.Update)
	tenders.Delete("/:id", compras, tenderHandler.Delete)
	tenders.Post("/:id/items", compras, tenderHandler.AddItem)
	tenders.Delete("/:id/items/:itemId", compras, tenderHandler.RemoveItem)
	tenders.Put("/:id/publish", compras, tenderHandler.Publish)
	tenders.Put("/:id/finalize", compras, tenderHandler.Finalize)
	tenders.Get("/:id/acquisition-summary", tenderHandler.AcquisitionSummary)
	tenders.Get("/:id/acquisitions", acquisitionHandler.ListByTender)
	tenders.Post("/:id/deliveries", bodega, deliveryHandler.Register)
	tenders.Get("/:id/deliveries", deliveryHandler.ListByTender)

	// Registros de adquisición
	acquisitions := api.Group("/acquisitions")
	acquisitions.Get("/:id", acquisitionHandler.GetByID)
	acquisitions.Put("/:id/pricing", compras, acquisitionHandler.ConfirmPricing)

	api.Get("/deliveries/:id", deliveryHandler.GetByID)

	// Stock ("/alerts" antes de "/:itemId")
	stockGroup := api.Group("/stock")
	stockHandler := NewStockHandler(eng.Stock)
	stockGroup.Get("/alerts", stockHandler.Alerts)
	stockGroup.Get("/:itemId", stockHandler.Get)
	stockGroup.Post("/:itemId/adjustments", bodega, stockHandler.Adjust)
	stockGroup.Put("/:itemId/levels", bodega, stockHandler.ConfigureLevels)
	stockGroup.Put("/:itemId/reservation", bodega, stockHandler.SetReservation)

	// Tablero
	api.Get("/dashboard/summary", NewDashboardHandler(eng.Stats).GetSummary)
}
