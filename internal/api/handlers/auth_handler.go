package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autoposter/internal/service"
)

type AuthHandler struct {
	s service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service}
}

// IssueToken hands out a bearer token for a Telegram user. Admin only.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	userID, err := ParamID(c, "id")
	if err != nil || userID <= 0 {
		return badRequest(c, "Invalid user id")
	}

	token, expiresAt, err := h.s.IssueToken(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expiresAt,
	})
}
