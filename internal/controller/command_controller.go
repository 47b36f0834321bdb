package controller

import (
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/internal/pkg/serverutils"
	"ai-notecopilot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICommandController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	List(ctx *fiber.Ctx) error
	Trigger(ctx *fiber.Ctx) error
}

type commandController struct {
	service service.ICopilotService
}

func NewCommandController(service service.ICopilotService) ICommandController {
	return &commandController{service: service}
}

func (c *commandController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/command/v1", guard)
	h.Get("", c.List)
	h.Post("/sessions/:id/trigger", c.Trigger)
}

func (c *commandController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get commands", c.service.Commands()))
}

// Trigger queues the command on the session's loop; results arrive over the websocket.
func (c *commandController) Trigger(ctx *fiber.Ctx) error {
	var req dto.TriggerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Trigger(ctx.Context(), ctx.Params("id"), &req); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Command queued", nil))
}
