package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/web/ws"
)

// Socket is a command/event connection to the server's /ws endpoint
type Socket struct {
	conn *websocket.Conn
}

// DialSocket opens a WebSocket to the server at serverURL
func DialSocket(ctx context.Context, serverURL string) (*Socket, error) {
	wsURL, err := socketURL(serverURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &Socket{conn: conn}, nil
}

// socketURL maps http(s)://host to ws(s)://host/ws
func socketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	return u.String(), nil
}

// Send issues a command
func (s *Socket) Send(command model.Command, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return s.conn.WriteJSON(ws.Envelope{Event: string(command), Payload: data})
}

// Next blocks for the next event. The deadline of ctx, if any, bounds the wait.
func (s *Socket) Next(ctx context.Context) (ws.Envelope, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	_ = s.conn.SetReadDeadline(deadline)

	// Unblock the read when ctx is cancelled without a deadline
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	var env ws.Envelope
	if err := s.conn.ReadJSON(&env); err != nil {
		if ctx.Err() != nil {
			return ws.Envelope{}, ctx.Err()
		}
		return ws.Envelope{}, fmt.Errorf("read failed: %w", err)
	}
	return env, nil
}

// Join sends join_room and waits for the caller's own roster entry
func (s *Socket) Join(ctx context.Context, room, username string) (model.JoinRoomResponse, error) {
	if err := s.Send(model.CommandJoinRoom, model.JoinRoomPayload{Room: &room, Username: &username}); err != nil {
		return model.JoinRoomResponse{}, err
	}

	for {
		env, err := s.Next(ctx)
		if err != nil {
			return model.JoinRoomResponse{}, err
		}
		if env.Event != string(model.EventJoinRoomResponse) {
			continue
		}
		if err := failureOf(env); err != nil {
			return model.JoinRoomResponse{}, err
		}
		var resp model.JoinRoomResponse
		if err := json.Unmarshal(env.Payload, &resp); err != nil {
			return model.JoinRoomResponse{}, fmt.Errorf("failed to parse join response: %w", err)
		}
		if resp.Username == username {
			return resp, nil
		}
	}
}

// Close says goodbye and closes the connection
func (s *Socket) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

// failureOf returns the server's message as an error if env carries a fail result
func failureOf(env ws.Envelope) error {
	var failure model.Failure
	if err := json.Unmarshal(env.Payload, &failure); err == nil && failure.Result == model.ResultFail {
		return fmt.Errorf("%s: %s", env.Event, failure.Message)
	}
	return nil
}
