package controller

import (
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/internal/pkg/serverutils"
	"ai-notecopilot/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPromptController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Apply(ctx *fiber.Ctx) error
}

type promptController struct {
	service service.IPromptService
}

func NewPromptController(service service.IPromptService) IPromptController {
	return &promptController{service: service}
}

func (c *promptController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/prompt/v1", guard)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get("/:title", c.Show)
	h.Put("/:title", c.Update)
	h.Delete("/:title", c.Delete)
	h.Post("/:title/apply/:id", c.Apply)
}

func (c *promptController) List(ctx *fiber.Ctx) error {
	res, err := c.service.ListTitles(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get custom prompts", res))
}

func (c *promptController) Create(ctx *fiber.Ctx) error {
	var req dto.CreatePromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create custom prompt", res))
}

func (c *promptController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.Context(), ctx.Params("title"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show custom prompt", res))
}

func (c *promptController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdatePromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Title = ctx.Params("title")
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update custom prompt", res))
}

func (c *promptController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.Context(), ctx.Params("title")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete custom prompt", nil))
}

func (c *promptController) Apply(ctx *fiber.Ctx) error {
	var req dto.ApplyPromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Apply(ctx.Context(), ctx.Params("title"), ctx.Params("id"), &req); err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Custom prompt queued", nil))
}
