package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/procurement-api/internal/application/stats"
)

// DashboardHandler maneja el tablero de conciliación.
type DashboardHandler struct {
	uc *stats.ReconciliationUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *stats.ReconciliationUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve el resumen global de conciliación.
// GET /api/dashboard/summary
//
// Respuesta: DashboardSummaryDTO (licitaciones por estado, tasa de confirmación de precios,
// cantidades recibidas, desglose por tipo de adquisición y salud del stock).
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetDashboard(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
