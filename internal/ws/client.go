package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tapejam/tapejam/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one relay connection as seen by the hub.
//
// ID is assigned at accept time and stable for the connection's
// lifetime. Color and ConnectedAt are set by the hub's Run loop when
// the client is registered and never mutated afterwards.
type Client struct {
	ID          string
	Color       string
	ConnectedAt time.Time

	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

// enqueue queues an already-typed envelope for delivery. Only the hub
// Run loop calls this.
func (c *Client) enqueue(env protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.logger.Error("encode envelope", zap.String("id", c.ID), zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full", zap.String("id", c.ID))
	}
}

// readPump reads frames off the socket and hands them to the hub until
// the connection drops. Malformed JSON closes the connection; unknown
// event types are the hub's problem and are ignored there.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("read error", zap.String("id", c.ID), zap.Error(err))
			}
			return
		}
		c.hub.inbound <- inboundEvent{sender: c, env: env}
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. Exits when the hub closes the channel
// or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
