package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
	"github.com/jorgeomarnegrete/fact-arca/internal/domain"
)

// respondError traduce errores de dominio a respuestas HTTP uniformes.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrEmailAlreadyExists), errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrCredential):
		// Credenciales AFIP del punto de venta, no credenciales del usuario.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "AFIP_CREDENTIAL", Message: err.Error()})
	case errors.Is(err, domain.ErrTransport):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AFIP_UNREACHABLE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
