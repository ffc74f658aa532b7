package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/othellochat/internal/model"
)

// Options configures the upgrade endpoint
type Options struct {
	// AllowedOrigins lists origins allowed to connect. "*" allows any origin.
	// Empty keeps the same-origin check.
	AllowedOrigins []string

	// MaxMessageSize bounds a single inbound frame; DefaultMaxMessageSize if zero
	MaxMessageSize int64
}

// Server upgrades HTTP requests and runs each connection against the hub
type Server struct {
	hub            *Hub
	handler        Handler
	upgrader       websocket.Upgrader
	maxMessageSize int64
	logger         *slog.Logger
}

// NewServer creates the /ws endpoint
func NewServer(hub *Hub, handler Handler, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		hub:            hub,
		handler:        handler,
		maxMessageSize: opts.MaxMessageSize,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if s.maxMessageSize <= 0 {
		s.maxMessageSize = DefaultMaxMessageSize
	}

	origins, allowAll := normalizeOrigins(opts.AllowedOrigins, logger)
	switch {
	case allowAll:
		s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	case len(origins) > 0:
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin, ok := normalizeOrigin(r.Header.Get("Origin"))
			if ok {
				if _, allowed := origins[origin]; allowed {
					return true
				}
			}
			logger.Warn("blocked websocket connection from disallowed origin",
				slog.String("origin", r.Header.Get("Origin")))
			return false
		}
	}

	return s
}

// ServeHTTP runs one connection until it closes
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(model.ConnectionID(uuid.NewString()), s.hub, conn, s.logger)
	if !s.hub.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		client.closeConn()
		return
	}

	s.handler.HandleConnect(client.id)
	go client.writePump()

	client.readPump(s.handler, s.maxMessageSize)

	// Leave every room before the disconnect is processed
	s.hub.unregister(client)
	s.handler.HandleDisconnect(client.id)
}

func normalizeOrigins(origins []string, logger *slog.Logger) (map[string]struct{}, bool) {
	normalized := make(map[string]struct{}, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAll = true
			continue
		}
		n, ok := normalizeOrigin(trimmed)
		if !ok {
			logger.Warn("ignoring invalid allowed origin", slog.String("origin", origin))
			continue
		}
		normalized[n] = struct{}{}
	}

	return normalized, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
