package controller

import (
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/internal/pkg/serverutils"
	"ai-notecopilot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	OpenSession(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	SwitchMode(ctx *fiber.Ctx) error
	NewConversation(ctx *fiber.Ctx) error
	IndexNote(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.ICopilotService
}

func NewChatController(service service.ICopilotService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/chat/v1", guard)
	h.Post("/sessions", c.OpenSession)
	h.Get("/sessions/:id/history", c.History)
	h.Post("/sessions/:id/messages", c.SendMessage)
	h.Post("/sessions/:id/cancel", c.Cancel)
	h.Put("/sessions/:id/mode", c.SwitchMode)
	h.Post("/sessions/:id/new", c.NewConversation)
	h.Post("/sessions/:id/notes", c.IndexNote)
	h.Get("/sessions/:id/export", c.Export)
}

func (c *chatController) OpenSession(ctx *fiber.Ctx) error {
	res, err := c.service.OpenSession(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success open session", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	res, err := c.service.History(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Generation started", res))
}

func (c *chatController) Cancel(ctx *fiber.Ctx) error {
	res, err := c.service.Cancel(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success cancel generation", res))
}

func (c *chatController) SwitchMode(ctx *fiber.Ctx) error {
	var req dto.SwitchModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SwitchMode(ctx.Context(), ctx.Params("id"), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success switch mode", nil))
}

func (c *chatController) NewConversation(ctx *fiber.Ctx) error {
	if err := c.service.NewConversation(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success start new conversation", nil))
}

func (c *chatController) IndexNote(ctx *fiber.Ctx) error {
	var req dto.IndexNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.IndexNote(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success index note", res))
}

func (c *chatController) Export(ctx *fiber.Ctx) error {
	res, err := c.service.Export(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success export conversation", res))
}
