package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a rendering client to sessionID until the peer leaves.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID string) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
