package lobby

import (
	"context"
	"log/slog"

	"github.com/mcoot/othellochat/internal/model"
	"github.com/mcoot/othellochat/internal/realtime"
	"github.com/mcoot/othellochat/internal/services/game"
	"github.com/mcoot/othellochat/internal/services/registry"
)

// Controller handles room membership, chat and the invitation handshakes.
// All methods must be called from the dispatch loop.
//
// Validation failures detected before a roster query are returned to the caller.
// Failures found after the query are sent to the issuing connection directly.
type Controller struct {
	registry       *registry.Service
	gameController *game.Controller
	transport      realtime.Transport
	executor       realtime.Executor
	logger         *slog.Logger
}

// NewController creates a new lobby Controller
func NewController(
	registry *registry.Service,
	gameController *game.Controller,
	transport realtime.Transport,
	executor realtime.Executor,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry:       registry,
		gameController: gameController,
		transport:      transport,
		executor:       executor,
		logger:         logger,
	}
}

// JoinRoom moves the connection into a room and broadcasts the room's full roster
func (c *Controller) JoinRoom(ctx context.Context, conn model.ConnectionID, req model.JoinRoomPayload) error {
	// An empty name is not a broadcast group, so it counts as missing
	if req.Room == nil || *req.Room == "" {
		return model.ErrJoinNoRoom
	}
	if req.Username == nil {
		return model.ErrJoinNoUsername
	}
	room := model.RoomName(*req.Room)

	previous, err := c.registry.Lookup(ctx, conn)
	if err != nil {
		return err
	}
	if previous != nil && previous.Room != "" && previous.Room != room {
		c.transport.Leave(conn, previous.Room)
	}

	c.transport.Join(conn, room)
	if _, err := c.registry.Register(ctx, conn, *req.Username, room); err != nil {
		return err
	}

	c.executor.QueryMembers(room, func(ctx context.Context, members []model.ConnectionID) {
		c.announceRoster(ctx, conn, room, members)
	})
	return nil
}

func (c *Controller) announceRoster(ctx context.Context, conn model.ConnectionID, room model.RoomName, members []model.ConnectionID) {
	if !model.Contains(members, conn) {
		c.fail(conn, model.EventJoinRoomResponse, model.ErrJoinInternal)
		return
	}

	for _, member := range members {
		player, err := c.registry.Lookup(ctx, member)
		if err != nil {
			c.fail(conn, model.EventJoinRoomResponse, err)
			return
		}
		if player == nil {
			c.logger.Error("room member not in registry",
				slog.String("room", string(room)),
				slog.String("connection_id", string(member)),
				slog.String("error", model.ErrRosterDesync.Error()),
			)
			continue
		}

		c.transport.EmitRoom(room, model.EventJoinRoomResponse, model.JoinRoomResponse{
			Result:   model.ResultSuccess,
			SocketID: member,
			Room:     player.Room,
			Username: player.Username,
			Count:    len(members),
		})
	}

	c.logger.Info("room joined",
		slog.String("room", string(room)),
		slog.String("connection_id", string(conn)),
		slog.Int("count", len(members)),
	)

	if !room.IsLobby() {
		c.gameController.BroadcastUpdate(ctx, model.GameID(room), "initial update")
	}
}

// Invite tells another member of the caller's room that the caller wants to play
func (c *Controller) Invite(ctx context.Context, conn model.ConnectionID, req model.TargetPayload) error {
	return c.withTarget(ctx, conn, req, model.InviteErrors, model.EventInviteResponse,
		func(ctx context.Context, target model.ConnectionID) {
			c.transport.Emit(conn, model.EventInviteResponse, model.TargetResponse{Result: model.ResultSuccess, SocketID: target})
			c.transport.Emit(target, model.EventInvited, model.TargetResponse{Result: model.ResultSuccess, SocketID: conn})
		})
}

// Uninvite withdraws an invitation; both sides are told
func (c *Controller) Uninvite(ctx context.Context, conn model.ConnectionID, req model.TargetPayload) error {
	return c.withTarget(ctx, conn, req, model.UninviteErrors, model.EventUninvited,
		func(ctx context.Context, target model.ConnectionID) {
			c.transport.Emit(conn, model.EventUninvited, model.TargetResponse{Result: model.ResultSuccess, SocketID: target})
			c.transport.Emit(target, model.EventUninvited, model.TargetResponse{Result: model.ResultSuccess, SocketID: conn})
		})
}

// GameStart allocates a game id and sends it to both players
func (c *Controller) GameStart(ctx context.Context, conn model.ConnectionID, req model.TargetPayload) error {
	return c.withTarget(ctx, conn, req, model.GameStartErrors, model.EventGameStartResponse,
		func(ctx context.Context, target model.ConnectionID) {
			gameID, err := c.gameController.NewGameID(ctx)
			if err != nil {
				c.fail(conn, model.EventGameStartResponse, err)
				return
			}

			response := model.GameStartResponse{Result: model.ResultSuccess, GameID: gameID, SocketID: target}
			c.transport.Emit(conn, model.EventGameStartResponse, response)
			c.transport.Emit(target, model.EventGameStartResponse, response)

			c.logger.Info("game started",
				slog.String("game_id", string(gameID)),
				slog.String("connection_id", string(conn)),
				slog.String("target", string(target)),
			)
		})
}

// withTarget validates a command aimed at another connection, then runs onPresent
// once the roster confirms both connections are still in the caller's room.
func (c *Controller) withTarget(
	ctx context.Context,
	conn model.ConnectionID,
	req model.TargetPayload,
	errs model.TargetErrors,
	event model.EventName,
	onPresent func(ctx context.Context, target model.ConnectionID),
) error {
	if req.RequestedUser == nil || *req.RequestedUser == "" {
		return errs.NoTarget
	}
	target := model.ConnectionID(*req.RequestedUser)

	caller, err := c.registry.Lookup(ctx, conn)
	if err != nil {
		return err
	}
	if caller == nil || caller.Room == "" {
		return errs.NoRoom
	}
	if caller.Username == "" {
		return errs.NoUsername
	}

	c.executor.QueryMembers(caller.Room, func(ctx context.Context, members []model.ConnectionID) {
		if !model.Contains(members, target) {
			c.fail(conn, event, errs.TargetAbsent)
			return
		}
		if !model.Contains(members, conn) {
			c.fail(conn, event, errs.CallerAbsent)
			return
		}
		onPresent(ctx, target)
	})
	return nil
}

// SendChatMessage relays a message to everyone in the named room
func (c *Controller) SendChatMessage(ctx context.Context, conn model.ConnectionID, req model.ChatPayload) error {
	if req.Room == nil {
		return model.ErrChatNoRoom
	}
	if req.Username == nil {
		return model.ErrChatNoUsername
	}
	if req.Message == nil {
		return model.ErrChatNoMessage
	}
	room := model.RoomName(*req.Room)

	c.transport.EmitRoom(room, model.EventSendChatMessageResponse, model.ChatMessage{
		Result:   model.ResultSuccess,
		Username: *req.Username,
		Room:     room,
		Message:  *req.Message,
	})
	return nil
}

// Disconnect forgets the connection's player and tells its former room
func (c *Controller) Disconnect(ctx context.Context, conn model.ConnectionID) error {
	player, err := c.registry.Unregister(ctx, conn)
	if err != nil {
		return err
	}
	if player == nil {
		return nil
	}

	count, err := c.registry.Count(ctx)
	if err != nil {
		return err
	}

	c.logger.Info("player disconnected",
		slog.String("connection_id", string(conn)),
		slog.String("room", string(player.Room)),
		slog.Int("count", count),
	)

	if player.Room == "" {
		return nil
	}
	c.transport.EmitRoom(player.Room, model.EventPlayerDisconnected, model.PlayerDisconnected{
		Username: player.Username,
		Room:     player.Room,
		Count:    count,
		SocketID: conn,
	})
	return nil
}

func (c *Controller) fail(conn model.ConnectionID, event model.EventName, err error) {
	c.logger.Warn("command failed",
		slog.String("connection_id", string(conn)),
		slog.String("event", string(event)),
		slog.String("error", err.Error()),
	)
	realtime.Reply(c.transport, conn, event, err)
}

// Interface for dependency injection
type ControllerInterface interface {
	JoinRoom(ctx context.Context, conn model.ConnectionID, req model.JoinRoomPayload) error
	Invite(ctx context.Context, conn model.ConnectionID, req model.TargetPayload) error
	Uninvite(ctx context.Context, conn model.ConnectionID, req model.TargetPayload) error
	GameStart(ctx context.Context, conn model.ConnectionID, req model.TargetPayload) error
	SendChatMessage(ctx context.Context, conn model.ConnectionID, req model.ChatPayload) error
	Disconnect(ctx context.Context, conn model.ConnectionID) error
}

var _ ControllerInterface = (*Controller)(nil)
