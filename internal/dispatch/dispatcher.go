// Package dispatch decodes client commands and routes them to the room and game controllers.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/realtime"
	"github.com/mcoot/othellochat/internal/services/game"
	"github.com/mcoot/othellochat/internal/services/lobby"
)

// route binds a command to its handler and the event its failures are reported on
type route struct {
	response model.EventName
	handle   func(ctx context.Context, conn model.ConnectionID, payload json.RawMessage) error
}

// Dispatcher turns transport callbacks into tasks on the dispatch loop
type Dispatcher struct {
	lobbyController *lobby.Controller
	gameController  *game.Controller
	transport       realtime.Transport
	executor        realtime.Executor
	logger          *slog.Logger
	routes          map[model.Command]route
}

// New creates a new Dispatcher
func New(
	lobbyController *lobby.Controller,
	gameController *game.Controller,
	transport realtime.Transport,
	executor realtime.Executor,
	logger *slog.Logger,
) *Dispatcher {
	d := &Dispatcher{
		lobbyController: lobbyController,
		gameController:  gameController,
		transport:       transport,
		executor:        executor,
		logger:          logger,
	}

	d.routes = map[model.Command]route{
		model.CommandJoinRoom: {
			response: model.EventJoinRoomResponse,
			handle: func(ctx context.Context, conn model.ConnectionID, payload json.RawMessage) error {
				req, err := decode[model.JoinRoomPayload](payload)
				if err != nil {
					return err
				}
				return d.lobbyController.JoinRoom(ctx, conn, req)
			},
		},
		model.CommandInvite: {
			response: model.EventInviteResponse,
			handle: func(ctx context.Context, conn model.ConnectionID, payload json.RawMessage) error {
				req, err := decode[model.TargetPayload](payload)
				if err != nil {
					return err
				}
				return d.lobbyController.Invite(ctx, conn, req)
			},
		},
		model.CommandUninvite: {
			response: model.EventUninvited,
			handle: func(ctx context.Context, conn model.ConnectionID, payload json.RawMessage) error {
				req, err := decode[model.TargetPayload](payload)
				if err != nil {
					return err
				}
				return d.lobbyController.Uninvite(ctx, conn, req)
			},
		},
		model.CommandGameStart: {
			response: model.EventGameStartResponse,
			handle: func(ctx context.Context, conn model.ConnectionID, payload json.RawMessage) error {
				req, err := decode[model.TargetPayload](payload)
				if err != nil {
					return err
				}
				return d.lobbyController.GameStart(ctx, conn, req)
			},
		},
		model.CommandSendChatMessage: {
			response: model.EventSendChatMessageResponse,
			handle: func(ctx context.Context, conn model.ConnectionID, payload json.RawMessage) error {
				req, err := decode[model.ChatPayload](payload)
				if err != nil {
					return err
				}
				return d.lobbyController.SendChatMessage(ctx, conn, req)
			},
		},
		model.CommandPlayToken: {
			response: model.EventPlayTokenResponse,
			handle:   d.playToken,
		},
	}

	return d
}

// HandleConnect is called by the transport when a connection opens
func (d *Dispatcher) HandleConnect(conn model.ConnectionID) {
	d.logger.Info("connection opened", slog.String("connection_id", string(conn)))
}

// HandleCommand queues a command for the dispatch loop
func (d *Dispatcher) HandleCommand(conn model.ConnectionID, command string, payload json.RawMessage) {
	d.executor.Submit(func(ctx context.Context) {
		d.Dispatch(ctx, conn, model.Command(command), payload)
	})
}

// HandleDisconnect queues the cleanup for a closed connection.
// The transport has already removed it from every room.
func (d *Dispatcher) HandleDisconnect(conn model.ConnectionID) {
	d.executor.Submit(func(ctx context.Context) {
		if err := d.lobbyController.Disconnect(ctx, conn); err != nil {
			d.logger.Error("disconnect cleanup failed",
				slog.String("connection_id", string(conn)),
				slog.String("error", err.Error()),
			)
		}
	})
}

// Dispatch runs one command. Must be called on the dispatch loop.
func (d *Dispatcher) Dispatch(ctx context.Context, conn model.ConnectionID, command model.Command, payload json.RawMessage) {
	logger := d.logger.With(
		slog.String("connection_id", string(conn)),
		slog.String("command", string(command)),
	)

	r, ok := d.routes[command]
	if !ok {
		logger.Warn("unknown command ignored")
		return
	}

	logger.Debug("command received", slog.String("payload", string(payload)))

	if err := r.handle(ctx, conn, payload); err != nil {
		var ce *model.CommandError
		if errors.As(err, &ce) {
			logger.Info("command rejected", slog.String("reason", ce.Message))
		} else {
			logger.Error("command failed", slog.String("error", err.Error()))
		}
		realtime.Reply(d.transport, conn, r.response, err)
	}
}

func (d *Dispatcher) playToken(ctx context.Context, conn model.ConnectionID, payload json.RawMessage) error {
	req, err := decode[model.PlayTokenPayload](payload)
	if err != nil {
		return err
	}

	gameID, err := d.gameController.PlayToken(ctx, conn, req)
	if err != nil {
		return err
	}

	d.transport.Emit(conn, model.EventPlayTokenResponse, model.Success{Result: model.ResultSuccess})
	d.gameController.BroadcastUpdate(ctx, gameID, "played a token")
	return nil
}

// decode unmarshals a command payload, which must be a JSON object
func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return v, model.ErrNoPayload
	}
	if trimmed[0] != '{' {
		return v, model.ErrMalformedPayload
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, model.ErrMalformedPayload
	}
	return v, nil
}
