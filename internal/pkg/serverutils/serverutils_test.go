package serverutils

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"ai-notecopilot/internal/constant"
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/pkg/errs"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input", errs.Input("op", "bad"), fiber.StatusBadRequest},
		{"cache miss", errs.CacheMiss("op", "abc"), fiber.StatusConflict},
		{"provider", errs.Provider("op", errors.New("down")), fiber.StatusBadGateway},
		{"store", errs.Store("op", errors.New("disk")), fiber.StatusServiceUnavailable},
		{"not found", fmt.Errorf("session x: %w", constant.ErrNotFound), fiber.StatusNotFound},
		{"conflict", fmt.Errorf("prompt: %w", constant.ErrConflict), fiber.StatusConflict},
		{"fiber error", fiber.ErrUnprocessableEntity, fiber.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestValidateRequest(t *testing.T) {
	temp := 3.0
	err := ValidateRequest(dto.SendMessageRequest{Temperature: &temp})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInput)
	assert.Contains(t, err.Error(), "Message is required")
	assert.Contains(t, err.Error(), "Temperature must be at most 2")

	assert.NoError(t, ValidateRequest(dto.SendMessageRequest{Message: "hi"}))

	err = ValidateRequest(dto.SwitchModeRequest{Mode: "document_grounded"})
	assert.ErrorIs(t, err, errs.ErrInput)
	assert.NoError(t, ValidateRequest(dto.SwitchModeRequest{Mode: "plain_chat"}))
}

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(JwtMiddleware("secret"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(fmt.Sprint(c.Locals("subject"))) })

	sign := func(key string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "editor-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		s, err := tok.SignedString([]byte(key))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong key", "Bearer " + sign("other"), fiber.StatusUnauthorized},
		{"valid", "Bearer " + sign("secret"), fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestJwtMiddlewareDisabledWithoutSecret(t *testing.T) {
	app := fiber.New()
	app.Use(JwtMiddleware(""))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return errs.CacheMiss("SwitchMode", "abc") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}
