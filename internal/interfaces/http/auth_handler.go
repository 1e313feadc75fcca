package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jorgeomarnegrete/fact-arca/internal/application/auth"
	"github.com/jorgeomarnegrete/fact-arca/internal/application/dto"
)

// AuthHandler expone registro y login de usuarios.
type AuthHandler struct {
	useCase *auth.UseCase
}

// NewAuthHandler construye el handler de autenticación.
func NewAuthHandler(useCase *auth.UseCase) *AuthHandler {
	return &AuthHandler{useCase: useCase}
}

// Register maneja POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la solicitud inválido"})
	}
	resp, err := h.useCase.Register(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login maneja POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo de la solicitud inválido"})
	}
	resp, err := h.useCase.Login(req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}
