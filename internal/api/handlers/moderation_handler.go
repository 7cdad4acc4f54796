package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/service"
)

type ModerationHandler struct {
	s service.ModerationService
}

func NewModerationHandler(service service.ModerationService) *ModerationHandler {
	return &ModerationHandler{s: service}
}

func (h *ModerationHandler) Approve(c *fiber.Ctx) error {
	return h.resolve(c, true)
}

func (h *ModerationHandler) Discard(c *fiber.Ctx) error {
	return h.resolve(c, false)
}

func (h *ModerationHandler) resolve(c *fiber.Ctx, approve bool) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Missing moderation id")
	}

	_, res, err := h.s.ResolveFor(c.Context(), GetUserID(c), id, approve)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"moderation_id": id, "resolution": res})
}

// HandleCallback resolves an inline button press from Telegram. settled is
// false while the post stays queued, e.g. after a failed publish.
func (h *ModerationHandler) HandleCallback(ctx context.Context, userID int64, id string, approve bool) (string, bool) {
	_, res, err := h.s.ResolveFor(ctx, userID, id, approve)
	switch {
	case err == nil && res == models.ResolutionPublished:
		return "Published to the channel", true
	case err == nil:
		return "Post discarded", true
	case errors.Is(err, service.ErrModerationNotFound):
		return "Already handled or expired", true
	case errors.Is(err, service.ErrForbidden):
		return "This post is not yours to moderate", false
	default:
		slog.Error("moderation callback failed", "moderation_id", id, "user_id", userID, "error", err)
		return "Publishing failed, try again later", false
	}
}
