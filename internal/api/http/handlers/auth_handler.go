package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tecnico-console/internal/api/dto"
	"github.com/spec-kit/tecnico-console/internal/service"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// AuthHandler issues console API tokens.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	token, err := h.service.Login(c.UserContext(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"token":      token.Value,
		"token_type": "Bearer",
		"expires_at": token.ExpiresAt,
	}})
}
