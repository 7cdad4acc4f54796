package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type ChannelHandler struct {
	s service.ChannelService
}

func NewChannelHandler(service service.ChannelService) *ChannelHandler {
	return &ChannelHandler{s: service}
}

func (h *ChannelHandler) GetProfile(c *fiber.Ctx) error {
	channelID, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid channel id")
	}

	ch, err := h.s.GetProfile(c.Context(), GetUserID(c), channelID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(ch)
}

func (h *ChannelHandler) SaveProfile(c *fiber.Ctx) error {
	channelID, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid channel id")
	}

	var in transfer.ChannelProfile
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Unable to parse json")
	}

	ch, err := h.s.SaveProfile(c.Context(), GetUserID(c), channelID, &in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(ch)
}
