package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/procurement-api/internal/application/delivery"
	"github.com/jhoicas/procurement-api/internal/application/dto"
)

// DeliveryHandler registro y consulta de entregas.
type DeliveryHandler struct {
	uc *delivery.TrackerUseCase
}

// NewDeliveryHandler construye el handler.
func NewDeliveryHandler(uc *delivery.TrackerUseCase) *DeliveryHandler {
	return &DeliveryHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar entrega contra una licitación finalizada
// @Description  Con delivery_id el registro es idempotente. received_by por defecto es el usuario del token.
// @Tags         deliveries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la licitación"
// @Param        body  body  dto.RegisterDeliveryRequest  true  "Ítems con cantidades por condición"
// @Success      201   {object}  dto.DeliveryResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/tenders/{id}/deliveries [post]
func (h *DeliveryHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterDeliveryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	in.TenderID = c.Params("id")
	if in.ReceivedBy == "" {
		in.ReceivedBy = GetUserID(c)
	}
	out, err := h.uc.RegisterDelivery(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *DeliveryHandler) ListByTender(c *fiber.Ctx) error {
	out, err := h.uc.ListByTender(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *DeliveryHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
