package handlers

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type CreditsHandler struct {
	s        service.QuotaService
	validate *validator.Validate
}

func NewCreditsHandler(service service.QuotaService) *CreditsHandler {
	return &CreditsHandler{s: service, validate: validator.New()}
}

// TopUp adds generations to a user's balance. Admin only.
func (h *CreditsHandler) TopUp(c *fiber.Ctx) error {
	userID, err := ParamID(c, "id")
	if err != nil || userID <= 0 {
		return badRequest(c, "Invalid user id")
	}

	var in transfer.CreditTopUp
	if err := c.BodyParser(&in); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(in); err != nil {
		return errorResponse(c, err)
	}

	left, err := h.s.TopUp(c.Context(), userID, in.Amount)
	if err != nil {
		return errorResponse(c, err)
	}

	slog.Info("generations topped up", "user_id", userID, "amount", in.Amount, "generations_left", left)
	return c.JSON(fiber.Map{"user_id": userID, "generations_left": left})
}

func (h *CreditsHandler) Balance(c *fiber.Ctx) error {
	left, err := h.s.Balance(c.Context(), GetUserID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"generations_left": left})
}

// Redeem credits the caller with the generations of a promo code.
func (h *CreditsHandler) Redeem(c *fiber.Ctx) error {
	var in transfer.PromoRedemption
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(in); err != nil {
		return errorResponse(c, err)
	}

	userID := GetUserID(c)
	awarded, left, err := h.s.Redeem(c.Context(), userID, in.Code)
	if err != nil {
		return errorResponse(c, err)
	}

	slog.Info("promo code redeemed", "user_id", userID, "awarded", awarded)
	return c.JSON(fiber.Map{"awarded": awarded, "generations_left": left})
}
