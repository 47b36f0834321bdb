package controller

import (
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/internal/pkg/serverutils"
	"ai-notecopilot/internal/service"
	"ai-notecopilot/pkg/rag/cache"

	"github.com/gofiber/fiber/v2"
)

type IStoreController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Clear(ctx *fiber.Ctx) error
	Sweep(ctx *fiber.Ctx) error
}

type storeController struct {
	service     service.ICopilotService
	defaultDays int
}

// NewStoreController sweeps with defaultDays unless the request names its own
// retention. A negative default means callers must always send ttl_days.
func NewStoreController(service service.ICopilotService, defaultDays int) IStoreController {
	return &storeController{service: service, defaultDays: defaultDays}
}

func (c *storeController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/store/v1", guard)
	h.Delete("", c.Clear)
	h.Post("/sweep", c.Sweep)
}

func (c *storeController) Clear(ctx *fiber.Ctx) error {
	if err := c.service.ClearStore(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Local vector store cleared successfully", nil))
}

func (c *storeController) Sweep(ctx *fiber.Ctx) error {
	var req dto.SweepRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	days := c.defaultDays
	if req.TTLDays != nil {
		days = *req.TTLDays
	}
	ttl, ok := cache.MaxAge(days)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "ttl_days is required, TTL sweep is disabled by default")
	}

	removed, err := c.service.Sweep(ctx.Context(), ttl)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success sweep store", dto.SweepResponse{Removed: removed}))
}
