// Package ws carries client commands and server events over WebSocket connections
// and tracks which connections belong to which rooms.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/realtime"
)

// Envelope is the JSON frame exchanged in both directions
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outbound is marshalled once per emit so every recipient sees the same snapshot
type outbound struct {
	Event   model.EventName `json:"event"`
	Payload any             `json:"payload"`
}

// Handler receives connection lifecycle and command callbacks.
// Callbacks run on the connection's reader goroutine and must not block for long.
type Handler interface {
	HandleConnect(conn model.ConnectionID)
	HandleCommand(conn model.ConnectionID, command string, payload json.RawMessage)
	HandleDisconnect(conn model.ConnectionID)
}

// Hub tracks live connections and room membership
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnectionID]*Client
	groups  map[model.RoomName][]model.ConnectionID
	closed  bool
	logger  *slog.Logger
}

// Ensure Hub implements Transport
var _ realtime.Transport = (*Hub)(nil)

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		groups:  make(map[model.RoomName][]model.ConnectionID),
		logger:  logger,
	}
}

// register adds a client. Returns false once the hub is closed.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.logger.Info("websocket client registered",
		slog.String("connection_id", string(c.id)),
		slog.Int("total_clients", len(h.clients)),
	)
	return true
}

// unregister removes a client from the hub and every room it joined
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] != c {
		return
	}
	h.removeLocked(c)
	h.logger.Info("websocket client unregistered",
		slog.String("connection_id", string(c.id)),
		slog.Int("total_clients", len(h.clients)),
	)
}

func (h *Hub) removeLocked(c *Client) {
	delete(h.clients, c.id)
	for room := range h.groups {
		h.leaveLocked(c.id, room)
	}
	close(c.send)
}

// Join adds a connection to a room
func (h *Hub) Join(conn model.ConnectionID, room model.RoomName) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	if model.Contains(h.groups[room], conn) {
		return
	}
	h.groups[room] = append(h.groups[room], conn)
}

// Leave removes a connection from a room
func (h *Hub) Leave(conn model.ConnectionID, room model.RoomName) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(conn, room)
}

func (h *Hub) leaveLocked(conn model.ConnectionID, room model.RoomName) {
	members := h.groups[room]
	for i, m := range members {
		if m == conn {
			members = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(h.groups, room)
		return
	}
	h.groups[room] = members
}

// Members returns a room's connections in join order
func (h *Hub) Members(room model.RoomName) []model.ConnectionID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]model.ConnectionID, len(h.groups[room]))
	copy(members, h.groups[room])
	return members
}

// Emit sends an event to one connection
func (h *Hub) Emit(conn model.ConnectionID, event model.EventName, payload any) {
	message, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[conn]; ok {
		h.deliverLocked(c, event, message)
	}
}

// EmitRoom sends an event to every member of a room
func (h *Hub) EmitRoom(room model.RoomName, event model.EventName, payload any) {
	message, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.groups[room] {
		if c, ok := h.clients[conn]; ok {
			h.deliverLocked(c, event, message)
		}
	}
}

// deliverLocked queues a message without blocking. A client whose buffer is full
// has fallen too far behind and is disconnected.
func (h *Hub) deliverLocked(c *Client, event model.EventName, message []byte) {
	select {
	case c.send <- message:
	default:
		h.logger.Warn("websocket send buffer full, dropping client",
			slog.String("connection_id", string(c.id)),
			slog.String("event", string(event)),
		)
		c.closeConn()
	}
}

func (h *Hub) encode(event model.EventName, payload any) ([]byte, bool) {
	message, err := json.Marshal(outbound{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return message, true
}

// Stats returns the number of live connections and non-empty rooms
func (h *Hub) Stats() (connections, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.groups)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	count := len(h.clients)
	for _, c := range h.clients {
		h.removeLocked(c)
	}
	h.logger.Info("websocket hub stopped", slog.Int("disconnected_clients", count))
}
