package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/procurement-api/internal/application/acquisition"
	"github.com/jhoicas/procurement-api/internal/application/dto"
)

// AcquisitionHandler confirmación de precios y consulta de registros.
type AcquisitionHandler struct {
	uc *acquisition.LedgerUseCase
}

// NewAcquisitionHandler construye el handler.
func NewAcquisitionHandler(uc *acquisition.LedgerUseCase) *AcquisitionHandler {
	return &AcquisitionHandler{uc: uc}
}

func (h *AcquisitionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *AcquisitionHandler) ListByTender(c *fiber.Ctx) error {
	out, err := h.uc.ListByTender(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ConfirmPricing godoc
// @Summary      Confirmar precio real de un registro
// @Description  Una reconfirmación sobrescribe el precio anterior.
// @Tags         acquisitions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del registro"
// @Param        body  body  dto.ConfirmPricingRequest  true  "actual_unit_price, remarks"
// @Success      200   {object}  dto.AcquisitionRecordResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/acquisitions/{id}/pricing [put]
func (h *AcquisitionHandler) ConfirmPricing(c *fiber.Ctx) error {
	var in dto.ConfirmPricingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ConfirmPricing(c.Context(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
