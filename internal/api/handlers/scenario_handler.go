package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type ScenarioHandler struct {
	s service.ScenarioService
}

func NewScenarioHandler(service service.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{s: service}
}

func (h *ScenarioHandler) CreateScenario(c *fiber.Ctx) error {
	var in transfer.ScenarioCreation
	if err := c.BodyParser(&in); err != nil {
		slog.Info(err.Error())
		return badRequest(c, "Invalid request body")
	}

	info, err := h.s.Create(c.Context(), GetUserID(c), &in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(info)
}

func (h *ScenarioHandler) GetScenario(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid scenario id")
	}

	details, err := h.s.Details(c.Context(), GetUserID(c), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(details)
}

func (h *ScenarioHandler) ListChannelScenarios(c *fiber.Ctx) error {
	channelID, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid channel id")
	}

	list, err := h.s.ListByChannel(c.Context(), GetUserID(c), channelID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"scenarios": list})
}

func (h *ScenarioHandler) UpdateScenario(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid scenario id")
	}

	var in transfer.ScenarioUpdate
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	return h.update(c, id, &in)
}

// UpdateRunTimes replaces only the run times and time zone.
func (h *ScenarioHandler) UpdateRunTimes(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid scenario id")
	}

	var body struct {
		RunTimes []string `json:"run_times"`
		Timezone *string  `json:"timezone"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(body.RunTimes) == 0 {
		return badRequest(c, "run_times must not be empty")
	}
	return h.update(c, id, &transfer.ScenarioUpdate{RunTimes: body.RunTimes, Timezone: body.Timezone})
}

func (h *ScenarioHandler) update(c *fiber.Ctx, id int64, in *transfer.ScenarioUpdate) error {
	info, err := h.s.Update(c.Context(), GetUserID(c), id, in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(info)
}

func (h *ScenarioHandler) RunScenario(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid scenario id")
	}

	if err := h.s.RunNow(c.Context(), GetUserID(c), id); err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Run queued"})
}

func (h *ScenarioHandler) PauseScenario(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid scenario id")
	}

	if err := h.s.Pause(c.Context(), GetUserID(c), id); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Scenario paused"})
}

func (h *ScenarioHandler) ResumeScenario(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid scenario id")
	}

	info, err := h.s.Resume(c.Context(), GetUserID(c), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(info)
}

func (h *ScenarioHandler) DeleteScenario(c *fiber.Ctx) error {
	id, err := ParamID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid scenario id")
	}

	if err := h.s.Delete(c.Context(), GetUserID(c), id); err != nil {
		return errorResponse(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
