package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection with the hub and blocks until it closes.
// initial frames are queued before the hub can deliver anything else.
func ServeWs(hub *Hub, c *websocket.Conn, userID uuid.UUID, initial ...[]byte) {
	client := &Client{Hub: hub, Conn: c, UserID: userID, Send: make(chan []byte, sendBuffer)}
	for _, frame := range initial {
		select {
		case client.Send <- frame:
		default:
		}
	}
	if !hub.Register(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
