package ws

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/othellochat/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Buffer size for outgoing messages
	sendBufferSize = 256

	// DefaultMaxMessageSize bounds a single inbound frame
	DefaultMaxMessageSize = 64 * 1024
)

// Client is one WebSocket connection
type Client struct {
	id        model.ConnectionID
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	logger    *slog.Logger
	closeOnce sync.Once
}

func newClient(id model.ConnectionID, hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(slog.String("connection_id", string(id))),
	}
}

// closeConn closes the socket, which ends both pumps
func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Warn("error closing websocket", slog.String("error", err.Error()))
		}
	})
}

// readPump decodes inbound frames and hands them to the handler until the connection fails
func (c *Client) readPump(handler Handler, maxMessageSize int64) {
	defer c.closeConn()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			c.logger.Warn("ignoring malformed frame", slog.Int("bytes", len(raw)))
			continue
		}

		handler.HandleCommand(c.id, env.Event, env.Payload)
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("websocket frame exceeded size limit")
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		c.logger.Debug("websocket closed by peer")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Debug("websocket connection closed", slog.String("error", err.Error()))
	default:
		c.logger.Warn("websocket read error", slog.String("error", err.Error()))
	}
}

// writePump sends queued messages, one per frame, and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Warn("websocket write error", slog.String("error", err.Error()))
				}
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
