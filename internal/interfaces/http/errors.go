package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/domain"
)

// errorMapping sentinel → status y código. El orden importa: se usa el primero que coincide.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrRecordNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidStateTransition, fiber.StatusConflict, "INVALID_STATE_TRANSITION"},
	{domain.ErrImmutableEntity, fiber.StatusConflict, "IMMUTABLE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrOverDelivery, fiber.StatusUnprocessableEntity, "OVER_DELIVERY"},
	{domain.ErrQuantityMismatch, fiber.StatusUnprocessableEntity, "QUANTITY_MISMATCH"},
	{domain.ErrUnknownAcquisitionItem, fiber.StatusUnprocessableEntity, "UNKNOWN_ACQUISITION_ITEM"},
	{domain.ErrInsufficientStock, fiber.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
	{domain.ErrInvalidInput, fiber.StatusUnprocessableEntity, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrProjectionDrift, fiber.StatusInternalServerError, "PROJECTION_DRIFT"},
	{context.DeadlineExceeded, fiber.StatusServiceUnavailable, "TIMEOUT"},
}

// writeError traduce un error de dominio a respuesta HTTP con dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
