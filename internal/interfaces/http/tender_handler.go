package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/stats"
	"github.com/jhoicas/procurement-api/internal/application/tender"
)

// TenderHandler maneja las peticiones HTTP del ciclo de vida de licitaciones (protegido).
type TenderHandler struct {
	uc    *tender.LifecycleUseCase
	stats *stats.ReconciliationUseCase
}

// NewTenderHandler construye el handler.
func NewTenderHandler(uc *tender.LifecycleUseCase, statsUC *stats.ReconciliationUseCase) *TenderHandler {
	return &TenderHandler{uc: uc, stats: statsUC}
}

// Create godoc
// @Summary      Crear licitación (borrador)
// @Tags         tenders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTenderRequest  true  "Cabecera e ítems"
// @Success      201   {object}  dto.TenderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/tenders [post]
func (h *TenderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTenderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar licitaciones
// @Tags         tenders
// @Security     Bearer
// @Produce      json
// @Param        state   query  string  false  "Draft | Published | Finalized"
// @Param        limit   query  int     false  "Límite (default 20)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.TenderListResponse
// @Router       /api/tenders [get]
func (h *TenderHandler) List(c *fiber.Ctx) error {
	var f dto.TenderFilter
	if err := c.QueryParser(&f); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.List(c.Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *TenderHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *TenderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateTenderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *TenderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id"), GetUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TenderHandler) AddItem(c *fiber.Ctx) error {
	var in dto.TenderItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddLineItem(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *TenderHandler) RemoveItem(c *fiber.Ctx) error {
	out, err := h.uc.RemoveLineItem(c.Context(), c.Params("id"), c.Params("itemId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Publish Draft → Published.
func (h *TenderHandler) Publish(c *fiber.Ctx) error {
	out, err := h.uc.Publish(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Finalize godoc
// @Summary      Finalizar licitación (crea registros de adquisición)
// @Description  Idempotente: repetir sobre una licitación finalizada devuelve el mismo resultado.
// @Tags         tenders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la licitación"
// @Success      200  {object}  dto.TenderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tenders/{id}/finalize [put]
func (h *TenderHandler) Finalize(c *fiber.Ctx) error {
	out, err := h.uc.Finalize(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AcquisitionSummary GET /api/tenders/:id/acquisition-summary
func (h *TenderHandler) AcquisitionSummary(c *fiber.Ctx) error {
	out, err := h.stats.GetTenderAcquisitionSummary(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
