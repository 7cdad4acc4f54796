package handlers

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

// PromoHandler serves the admin promo code endpoints.
type PromoHandler struct {
	s        service.PromoService
	validate *validator.Validate
}

func NewPromoHandler(service service.PromoService) *PromoHandler {
	return &PromoHandler{s: service, validate: validator.New()}
}

func (h *PromoHandler) CreatePromo(c *fiber.Ctx) error {
	var in transfer.PromoCreation
	if err := c.BodyParser(&in); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Invalid request body")
	}

	promo, err := h.s.Create(c.Context(), &in)
	if err != nil {
		return errorResponse(c, err)
	}

	slog.Info("promo code created", "code", promo.Code, "generations", promo.GenerationsAwarded, "uses", promo.TotalUses)
	return c.Status(fiber.StatusCreated).JSON(promo)
}

func (h *PromoHandler) ListPromos(c *fiber.Ctx) error {
	promos, err := h.s.List(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"promo_codes": promos})
}

func (h *PromoHandler) SetPromoStatus(c *fiber.Ctx) error {
	code := c.Params("code")
	var in transfer.PromoStatus
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.s.SetActive(c.Context(), code, in.IsActive); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"code": code, "is_active": in.IsActive})
}
