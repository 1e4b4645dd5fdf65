package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/tiltball/internal/physics"
	"github.com/san-kum/tiltball/internal/sensor"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// Message types sent by clients.
const (
	TypeEvent  = "event"
	TypeResize = "resize"
	TypeReset  = "reset"
)

// WSMessage is the envelope for client messages.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	id   string
	srv  *Server
	conn *websocket.Conn
	send chan []byte
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for client %s: %v", c.id, err)
				return
			}

		case <-c.srv.hub.done:
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for client %s: %v", c.id, err)
				return
			}
		}
	}
}

// readPump decodes client messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.srv.hub.unregister <- c:
		case <-c.srv.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close for client %s: %v", c.id, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case TypeEvent:
		var ev sensor.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			c.sendError("invalid event")
			return
		}
		c.srv.apply(ev)

	case TypeResize:
		var vp physics.Viewport
		if err := json.Unmarshal(msg.Data, &vp); err != nil {
			c.sendError("invalid viewport")
			return
		}
		if err := c.srv.sim.Resize(vp); err != nil {
			c.sendError(err.Error())
			return
		}
		log.Printf("[SIM] viewport %dx%d from client %s", vp.Width, vp.Height, c.id)

	case TypeReset:
		c.srv.sim.Reset()
		log.Printf("[SIM] reset by client %s", c.id)

	default:
		c.sendError("unknown message type: " + msg.Type)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]any{
		"type":    "error",
		"message": message,
	})
	select {
	case c.send <- data:
	default:
	}
}
