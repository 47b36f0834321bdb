package controller

import (
	"ai-notecopilot/internal/service"
	ws "ai-notecopilot/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IWebsocketController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
}

type websocketController struct {
	hub     *ws.Hub
	service service.ICopilotService
}

func NewWebsocketController(hub *ws.Hub, service service.ICopilotService) IWebsocketController {
	return &websocketController{hub: hub, service: service}
}

func (c *websocketController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	r.Get("/ws/:id", guard, c.upgrade, websocket.New(func(conn *websocket.Conn) {
		ws.ServeWs(c.hub, conn, conn.Params("id"))
	}))
}

// upgrade rejects plain requests and unknown sessions before the handshake.
func (c *websocketController) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := c.service.Session(ctx.Params("id")); err != nil {
		return err
	}
	return ctx.Next()
}
