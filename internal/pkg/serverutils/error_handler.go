package serverutils

import (
	"errors"

	"ai-notecopilot/internal/constant"
	"ai-notecopilot/pkg/errs"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, constant.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, constant.ErrConflict):
		return fiber.StatusConflict
	}

	switch errs.KindOf(err) {
	case errs.KindInput:
		return fiber.StatusBadRequest
	case errs.KindCacheMiss:
		return fiber.StatusConflict
	case errs.KindProvider:
		return fiber.StatusBadGateway
	case errs.KindStore:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
