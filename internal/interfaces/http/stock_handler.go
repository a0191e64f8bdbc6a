package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/stock"
)

// StockHandler lecturas de CurrentStock y escrituras via eventos del agregador.
type StockHandler struct {
	uc *stock.AggregatorUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.AggregatorUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Get GET /api/stock/:itemId. Un ítem sin movimientos devuelve cantidades en cero.
func (h *StockHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetCurrentStock(c.Context(), c.Params("itemId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Alerts GET /api/stock/alerts?status=OutOfStock,ReorderNow
func (h *StockHandler) Alerts(c *fiber.Ctx) error {
	var statuses []string
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	out, err := h.uc.ListAlerts(c.Context(), statuses)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Adjust POST /api/stock/:itemId/adjustments. El header Idempotency-Key tiene prioridad sobre el body.
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.StockAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	in.ItemID = c.Params("itemId")
	if key := c.Get("Idempotency-Key"); key != "" {
		in.IdempotencyKey = key
	}
	out, err := h.uc.ApplyManualAdjustment(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *StockHandler) ConfigureLevels(c *fiber.Ctx) error {
	var in dto.StockLevelsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ConfigureLevels(c.Context(), c.Params("itemId"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *StockHandler) SetReservation(c *fiber.Ctx) error {
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.SetReservation(c.Context(), c.Params("itemId"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
