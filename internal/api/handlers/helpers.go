package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/scheduler"
	"github.com/maheshrc27/autoposter/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

func ParamID(c *fiber.Ctx, name string) (int64, error) {
	return strconv.ParseInt(c.Params(name), 10, 64)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// errorResponse maps service errors to HTTP statuses.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Internal server error"

	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		status, msg = fiber.StatusBadRequest, verr.Error()
	case errors.Is(err, scheduler.ErrInvalidTimezone),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrBotCannotPost):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrScenarioNotFound),
		errors.Is(err, service.ErrModerationNotFound),
		errors.Is(err, service.ErrChannelNotFound),
		errors.Is(err, service.ErrPromoInvalid),
		errors.Is(err, service.ErrPromoNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNotChannelAdmin):
		status, msg = fiber.StatusForbidden, err.Error()
	case errors.Is(err, repository.ErrScenarioNameTaken),
		errors.Is(err, repository.ErrPromoExists),
		errors.Is(err, service.ErrPromoRedeemed):
		status, msg = fiber.StatusConflict, err.Error()
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{"error": msg})
}
